// Package engine runs the infection model: one Simulation per replica, each
// owning its population, RNG and counters.
package engine

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/talgya/contagion/internal/agents"
	"github.com/talgya/contagion/internal/entropy"
	"github.com/talgya/contagion/internal/logging"
	"github.com/talgya/contagion/internal/report"
)

// Simulation holds one replica's complete state. It is not safe for
// concurrent use; the replica's task owns it for its whole life.
type Simulation struct {
	identity int
	params   Parameters
	pop      agents.Population
	rng      *entropy.LCG
	method   InfectionMethod // Resolved: MethodOne or MethodTwo

	// Cumulative counters. Initial seeding counts as infections.
	totalInfections int
	infectionDeaths int

	sink report.Sink

	// Replica 0 owns the header unless an orchestrator has written it.
	writeHeader bool
}

// NewSimulation builds a replica: Agents Susceptible agents, shuffled with an
// RNG seeded from identity, of which the first Infections become Infectious.
// A nil sink discards reports.
func NewSimulation(identity int, p Parameters, sink report.Sink) *Simulation {
	if sink == nil {
		sink = report.Discard
	}
	s := &Simulation{
		identity: identity,
		params:   p,
		pop:      agents.NewPopulation(p.Agents),
		rng:      entropy.NewLCG(uint64(identity)),
		method:   p.InfectionMethod.Resolve(identity),
		sink:     sink,

		writeHeader: identity == 0,
	}

	s.pop.Shuffle(s.rng.Shuffle)
	seeded := min(max(p.Infections, 0), len(s.pop))
	for i := 0; i < seeded; i++ {
		s.pop[i].State = agents.Infectious
	}
	s.totalInfections = seeded
	return s
}

// Identity returns the replica identity.
func (s *Simulation) Identity() int {
	return s.identity
}

// Method returns the infection strategy this replica runs.
func (s *Simulation) Method() InfectionMethod {
	return s.method
}

// Parameters returns the replica's parameter copy.
func (s *Simulation) Parameters() Parameters {
	return s.params
}

// Population exposes the agents in their current order. Callers must not
// retain it across Step calls.
func (s *Simulation) Population() agents.Population {
	return s.pop
}

// TotalInfections returns the number of infection events so far.
func (s *Simulation) TotalInfections() int {
	return s.totalInfections
}

// InfectionDeaths returns the number of Infectious agents that died.
func (s *Simulation) InfectionDeaths() int {
	return s.infectionDeaths
}

// Statistics recounts every state and reads the cumulative counters.
func (s *Simulation) Statistics() report.Statistics {
	return report.Statistics{
		Census:          s.pop.Census(),
		TotalInfections: s.totalInfections,
		InfectionDeaths: s.infectionDeaths,
	}
}

// Report emits one row for iteration. When an agent dump cadence is set and
// iteration is a positive multiple of it, the population is sorted by ID and
// written to the agent file.
func (s *Simulation) Report(iteration int) error {
	row := report.Row{
		Replica:    s.identity,
		Iteration:  iteration,
		Statistics: s.Statistics(),
	}
	if err := s.sink.Write(row); err != nil {
		return fmt.Errorf("replica %d: write report row: %w", s.identity, err)
	}
	slog.Log(context.Background(), logging.LevelTrace, "report row",
		"replica", s.identity,
		"iteration", iteration,
		"infectious", row.Infectious,
		"dead", row.Dead,
	)

	if !s.dumpDue(iteration) {
		return nil
	}
	s.pop.SortByID()
	if err := report.WriteAgentsFile(s.params.AgentFilename, s.pop); err != nil {
		return fmt.Errorf("replica %d: %w", s.identity, err)
	}
	if snap, ok := s.sink.(report.Snapshotter); ok {
		if err := snap.Snapshot(s.identity, iteration, s.pop); err != nil {
			return fmt.Errorf("replica %d: snapshot agents: %w", s.identity, err)
		}
	}
	return nil
}

func (s *Simulation) dumpDue(iteration int) bool {
	every := s.params.OutputAgents
	return every > 0 && iteration > 0 && iteration%every == 0
}
