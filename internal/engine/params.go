// Simulation parameters and infection strategy selection.
package engine

import "fmt"

// InfectionMethod selects the infection event a replica uses.
type InfectionMethod uint8

const (
	MethodBoth InfectionMethod = 0 // Even replicas use One, odd replicas use Two
	MethodOne  InfectionMethod = 1 // Random pairwise encounters
	MethodTwo  InfectionMethod = 2 // Shuffle-misdirected pairing
)

// String returns the method name used in logs.
func (m InfectionMethod) String() string {
	switch m {
	case MethodBoth:
		return "both"
	case MethodOne:
		return "one"
	case MethodTwo:
		return "two"
	default:
		return fmt.Sprintf("method(%d)", uint8(m))
	}
}

// ParseInfectionMethod converts the CLI code (0, 1 or 2) to a method.
func ParseInfectionMethod(code int) (InfectionMethod, error) {
	switch code {
	case 0:
		return MethodBoth, nil
	case 1:
		return MethodOne, nil
	case 2:
		return MethodTwo, nil
	default:
		return 0, fmt.Errorf("invalid infection method %d (valid: 0 = both, 1 = one, 2 = two)", code)
	}
}

// Resolve returns the concrete method a replica with the given identity runs
// for its whole lifetime.
func (m InfectionMethod) Resolve(identity int) InfectionMethod {
	if m != MethodBoth {
		return m
	}
	if identity%2 == 0 {
		return MethodOne
	}
	return MethodTwo
}

// Parameters configures one replica. Probabilities are per-iteration
// Bernoulli chances and are not range checked: values above 1 always fire,
// values at or below 0 never do.
type Parameters struct {
	Agents               int             `json:"agents"`
	Iterations           int             `json:"iterations"`
	Infections           int             `json:"infections"`
	Encounters           int             `json:"encounters"`
	Growth               float64         `json:"growth"`
	DeathProbSusceptible float64         `json:"death_prob_susceptible"`
	DeathProbInfectious  float64         `json:"death_prob_infectious"`
	RecoveryProb         float64         `json:"recovery_prob"`
	VaccinationProb      float64         `json:"vaccination_prob"`
	RegressionProb       float64         `json:"regression_prob"`
	InfectionMethod      InfectionMethod `json:"infection_method"`
	OutputAgents         int             `json:"output_agents"` // Dump cadence in iterations, 0 = never
	AgentFilename        string          `json:"agent_filename"`
}

// DefaultParameters returns the small-population parameter set used by the
// library and its tests: 100 agents, 20 of them initially infectious.
func DefaultParameters() Parameters {
	return Parameters{
		Agents:               100,
		Iterations:           365 * 4,
		Infections:           20,
		Encounters:           10,
		Growth:               0.0001,
		DeathProbSusceptible: 0.001,
		DeathProbInfectious:  0.01,
		RecoveryProb:         0.1,
		VaccinationProb:      0.01,
		RegressionProb:       0.001,
		InfectionMethod:      MethodBoth,
		OutputAgents:         0,
		AgentFilename:        "agents.csv",
	}
}
