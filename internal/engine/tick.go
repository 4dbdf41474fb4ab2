// The iteration loop and its fixed report schedule.
package engine

import (
	"fmt"
	"log/slog"
	"time"

	"github.com/dustin/go-humanize"
)

// ReportInterval is the iteration cadence of report rows between the initial
// and final reports.
const ReportInterval = 100

// Run executes the whole replica: header (standalone replica 0 only), report at
// iteration 0, Iterations steps with a report every ReportInterval, and a
// final report at Iterations. The first sink or dump failure stops the run.
func (s *Simulation) Run() error {
	start := time.Now()
	slog.Debug("replica started",
		"replica", s.identity,
		"method", s.method,
		"agents", len(s.pop),
		"iterations", s.params.Iterations,
	)

	if s.writeHeader {
		if err := s.sink.Header(); err != nil {
			return fmt.Errorf("write report header: %w", err)
		}
	}
	if err := s.Report(0); err != nil {
		return err
	}

	for i := 0; i < s.params.Iterations; i++ {
		s.Step()
		if i != 0 && i%ReportInterval == 0 {
			if err := s.Report(i); err != nil {
				return err
			}
		}
	}

	if err := s.Report(s.params.Iterations); err != nil {
		return err
	}

	slog.Debug("replica finished",
		"replica", s.identity,
		"population", humanize.Comma(int64(len(s.pop))),
		"total_infections", s.totalInfections,
		"infection_deaths", s.infectionDeaths,
		"elapsed", time.Since(start),
	)
	return nil
}
