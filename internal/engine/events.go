// Per-iteration events. Each rule draws one real per eligible agent, in
// population order, so the RNG stream is identical across runs.
package engine

import (
	"math"

	"github.com/talgya/contagion/internal/agents"
)

// Step runs one iteration of the event pipeline. The order is fixed.
func (s *Simulation) Step() {
	s.Grow()
	s.Infect()
	s.Recover()
	s.Vaccinate()
	s.Regress()
	s.Die()
}

// Grow appends round(Growth * living agents) new Susceptible agents.
func (s *Simulation) Grow() {
	living := s.pop.CountNot(agents.Dead)
	born := math.Round(s.params.Growth * float64(living))
	if born > 0 {
		s.pop.Spawn(int(born))
	}
}

// Infect runs the strategy resolved at construction.
func (s *Simulation) Infect() {
	switch s.method {
	case MethodOne:
		s.InfectMethodOne()
	case MethodTwo:
		s.InfectMethodTwo()
	}
}

// InfectMethodOne pairs two uniformly drawn agents per encounter. A
// Susceptible agent meeting an Infectious one becomes Infectious.
func (s *Simulation) InfectMethodOne() {
	n := uint64(len(s.pop))
	if n == 0 {
		return
	}
	for e := 0; e < s.params.Encounters; e++ {
		a := &s.pop[s.rng.Bounded(n)]
		b := &s.pop[s.rng.Bounded(n)]
		switch {
		case a.State == agents.Susceptible && b.State == agents.Infectious:
			a.State = agents.Infectious
			s.totalInfections++
		case a.State == agents.Infectious && b.State == agents.Susceptible:
			b.State = agents.Infectious
			s.totalInfections++
		}
	}
}

// InfectMethodTwo collects up to Encounters Susceptible positions, shuffles
// the population, then for each collected position i checks the agent now at
// position i. If it is Infectious, the agent now at the collected position is
// infected whatever its state, so Recovered and Vaccinated agents can be hit.
// The mismatch between pre- and post-shuffle positions is the pairing
// mechanism. Dead agents stay dead and Infectious ones are not counted twice.
func (s *Simulation) InfectMethodTwo() {
	indices := s.pop.Indices(agents.Susceptible, s.params.Encounters)
	s.pop.Shuffle(s.rng.Shuffle)
	for i, idx := range indices {
		if s.pop[i].State != agents.Infectious {
			continue
		}
		switch target := &s.pop[idx]; target.State {
		case agents.Susceptible, agents.Recovered, agents.Vaccinated:
			target.State = agents.Infectious
			s.totalInfections++
		case agents.Infectious, agents.Dead:
		}
	}
}

// Recover moves Infectious agents to Recovered.
func (s *Simulation) Recover() {
	for i := range s.pop {
		a := &s.pop[i]
		if a.State == agents.Infectious && s.rng.Real() < s.params.RecoveryProb {
			a.State = agents.Recovered
		}
	}
}

// Vaccinate moves Susceptible agents to Vaccinated.
func (s *Simulation) Vaccinate() {
	for i := range s.pop {
		a := &s.pop[i]
		if a.State == agents.Susceptible && s.rng.Real() < s.params.VaccinationProb {
			a.State = agents.Vaccinated
		}
	}
}

// Regress returns Vaccinated and Recovered agents to Susceptible as immunity
// wanes.
func (s *Simulation) Regress() {
	for i := range s.pop {
		a := &s.pop[i]
		if (a.State == agents.Vaccinated || a.State == agents.Recovered) &&
			s.rng.Real() < s.params.RegressionProb {
			a.State = agents.Susceptible
		}
	}
}

// Die kills Susceptible and Infectious agents with separate probabilities.
// Deaths of Infectious agents count as infection deaths.
func (s *Simulation) Die() {
	for i := range s.pop {
		a := &s.pop[i]
		switch a.State {
		case agents.Susceptible:
			if s.rng.Real() < s.params.DeathProbSusceptible {
				a.State = agents.Dead
			}
		case agents.Infectious:
			if s.rng.Real() < s.params.DeathProbInfectious {
				a.State = agents.Dead
				s.infectionDeaths++
			}
		case agents.Recovered, agents.Vaccinated, agents.Dead:
		}
	}
}
