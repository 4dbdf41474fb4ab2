// Replica fan-out over a bounded worker pool.
package engine

import (
	"fmt"
	"log/slog"
	"runtime"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/talgya/contagion/internal/report"
)

// Orchestrator runs independent replicas. Replicas share nothing but the
// sink, which serializes its own writes.
type Orchestrator struct {
	Simulations int        // Replica count; <= 1 runs a single replica
	Identity    int        // Identity of the single replica when Simulations <= 1
	Workers     int        // Pool size; <= 0 means runtime.NumCPU()
	Params      Parameters // Copied into every replica
	Sink        report.Sink
}

// Run executes all replicas and blocks until every one has finished. There is
// no cancellation: a failing replica stops itself, the others run to
// completion, and the first error is returned.
func (o *Orchestrator) Run() error {
	start := time.Now()

	if o.Simulations <= 1 {
		slog.Info("running single replica", "replica", o.Identity)
		return NewSimulation(o.Identity, o.Params, o.Sink).Run()
	}

	workers := o.Workers
	if workers <= 0 {
		workers = runtime.NumCPU()
	}
	slog.Info("running replicas", "replicas", o.Simulations, "workers", workers)

	// Replica 0 is always in the fan-out; its header must precede every row.
	if err := o.sink().Header(); err != nil {
		return fmt.Errorf("write report header: %w", err)
	}

	var g errgroup.Group
	g.SetLimit(workers)
	for id := 0; id < o.Simulations; id++ {
		params := o.Params
		g.Go(func() error {
			s := NewSimulation(id, params, o.Sink)
			s.writeHeader = false
			return s.Run()
		})
	}
	err := g.Wait()

	slog.Info("replicas finished",
		"replicas", o.Simulations,
		"elapsed", time.Since(start),
		"failed", err != nil,
	)
	return err
}

func (o *Orchestrator) sink() report.Sink {
	if o.Sink == nil {
		return report.Discard
	}
	return o.Sink
}
