// Population storage, growth and reordering.
package agents

import "sort"

// Population is an ordered, growable sequence of agents. Order is insertion
// order unless the caller shuffles or sorts it. Dead agents stay in place so
// IDs and order survive for dumps.
type Population []Agent

// NewPopulation creates n Susceptible agents with IDs 0..n-1.
func NewPopulation(n int) Population {
	if n < 0 {
		n = 0
	}
	p := make(Population, n)
	for i := range p {
		p[i] = Agent{ID: AgentID(i), State: Susceptible}
	}
	return p
}

// Spawn appends count Susceptible agents whose IDs continue from the current
// length. Non-positive counts append nothing.
func (p *Population) Spawn(count int) {
	if count <= 0 {
		return
	}
	next := AgentID(len(*p))
	for i := 0; i < count; i++ {
		*p = append(*p, Agent{ID: next, State: Susceptible})
		next++
	}
}

// Count returns the number of agents in the given state.
func (p Population) Count(state State) int {
	n := 0
	for i := range p {
		if p[i].State == state {
			n++
		}
	}
	return n
}

// CountNot returns the number of agents not in the given state.
func (p Population) CountNot(state State) int {
	return len(p) - p.Count(state)
}

// Census tallies every state in a single scan.
func (p Population) Census() Census {
	var c Census
	for i := range p {
		switch p[i].State {
		case Susceptible:
			c.Susceptible++
		case Infectious:
			c.Infectious++
		case Recovered:
			c.Recovered++
		case Vaccinated:
			c.Vaccinated++
		case Dead:
			c.Dead++
		}
	}
	return c
}

// Indices returns the positions of up to max agents in the given state,
// scanning in population order.
func (p Population) Indices(state State, max int) []int {
	if max <= 0 {
		return nil
	}
	indices := make([]int, 0, min(max, len(p)))
	for i := range p {
		if len(indices) >= max {
			break
		}
		if p[i].State == state {
			indices = append(indices, i)
		}
	}
	return indices
}

// Shuffle permutes the population using the given shuffler, typically
// (*entropy.LCG).Shuffle.
func (p Population) Shuffle(shuffle func(n int, swap func(i, j int))) {
	shuffle(len(p), func(i, j int) {
		p[i], p[j] = p[j], p[i]
	})
}

// SortByID restores identity order in place.
func (p Population) SortByID() {
	sort.Slice(p, func(i, j int) bool {
		return p[i].ID < p[j].ID
	})
}
