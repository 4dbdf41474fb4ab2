// Package agents provides the agent data model: the closed set of
// epidemiological states, the agent itself and the population that owns it.
package agents

import "fmt"

// AgentID is a unique identifier for an agent within one replica.
// IDs are dense, start at 0 and are never reused.
type AgentID uint64

// State is an agent's epidemiological condition. Exactly one holds at a time.
type State uint8

const (
	Susceptible State = iota
	Infectious
	Recovered
	Vaccinated
	Dead // Terminal
)

// NumStates is the number of defined states.
const NumStates = 5

// Valid reports whether s is one of the five defined states.
func (s State) Valid() bool {
	return s < NumStates
}

// String returns the single-letter code used in agent dumps.
func (s State) String() string {
	switch s {
	case Susceptible:
		return "S"
	case Infectious:
		return "I"
	case Recovered:
		return "R"
	case Vaccinated:
		return "V"
	case Dead:
		return "D"
	default:
		return "?"
	}
}

// ParseState is the inverse of State.String.
func ParseState(code string) (State, error) {
	switch code {
	case "S":
		return Susceptible, nil
	case "I":
		return Infectious, nil
	case "R":
		return Recovered, nil
	case "V":
		return Vaccinated, nil
	case "D":
		return Dead, nil
	default:
		return 0, fmt.Errorf("unknown state code %q", code)
	}
}

// Agent is one member of the population.
type Agent struct {
	ID    AgentID `json:"id"`
	State State   `json:"state"`
}

// Census counts agents per state.
type Census struct {
	Susceptible int `json:"susceptible"`
	Infectious  int `json:"infectious"`
	Recovered   int `json:"recovered"`
	Vaccinated  int `json:"vaccinated"`
	Dead        int `json:"dead"`
}

// Total returns the number of agents counted.
func (c Census) Total() int {
	return c.Susceptible + c.Infectious + c.Recovered + c.Vaccinated + c.Dead
}

// Alive returns the number of agents not Dead.
func (c Census) Alive() int {
	return c.Total() - c.Dead
}
