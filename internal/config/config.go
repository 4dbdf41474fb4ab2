// Package config loads simulator settings from defaults, a YAML file and
// ABM_* environment variables. Command-line flags are applied on top by the
// CLI.
package config

import (
	"fmt"
	"os"
	"runtime"
	"strconv"

	"gopkg.in/yaml.v3"

	"github.com/talgya/contagion/internal/engine"
	"github.com/talgya/contagion/internal/logging"
)

// Config contains all simulator settings.
type Config struct {
	// Run controls replica fan-out.
	Run RunConfig `json:"run" yaml:"run"`

	// Model holds the per-replica model parameters.
	Model ModelConfig `json:"model" yaml:"model"`

	// Output controls the agent dump and the optional report ledger.
	Output OutputConfig `json:"output" yaml:"output"`

	// Logging contains settings for operational logging.
	Logging LoggingConfig `json:"logging" yaml:"logging"`
}

// RunConfig controls how many replicas run and where.
type RunConfig struct {
	// Simulations is the replica count. 0 or 1 runs a single replica whose
	// identity is Identity.
	Simulations int `json:"simulations" yaml:"simulations"`
	Identity    int `json:"identity" yaml:"identity"`

	// Workers bounds concurrently running replicas. 0 means one per CPU.
	Workers int `json:"workers" yaml:"workers"`
}

// ModelConfig mirrors engine.Parameters.
type ModelConfig struct {
	Iterations           int     `json:"iterations" yaml:"iterations"`
	Agents               int     `json:"agents" yaml:"agents"`
	Infections           int     `json:"infections" yaml:"infections"`
	Encounters           int     `json:"encounters" yaml:"encounters"`
	Growth               float64 `json:"growth" yaml:"growth"`
	DeathProbSusceptible float64 `json:"death_prob_susceptible" yaml:"death_prob_susceptible"`
	DeathProbInfectious  float64 `json:"death_prob_infectious" yaml:"death_prob_infectious"`
	RecoveryProb         float64 `json:"recovery_prob" yaml:"recovery_prob"`
	VaccinationProb      float64 `json:"vaccination_prob" yaml:"vaccination_prob"`
	RegressionProb       float64 `json:"regression_prob" yaml:"regression_prob"`

	// InfectionMethod is 0 (both), 1 (one) or 2 (two).
	InfectionMethod int `json:"infection_method" yaml:"infection_method"`
}

// OutputConfig controls side outputs next to the report stream.
type OutputConfig struct {
	// OutputAgents is the agent dump cadence in iterations; 0 disables it.
	OutputAgents  int    `json:"output_agents" yaml:"output_agents"`
	AgentFilename string `json:"agent_filename" yaml:"agent_filename"`

	// ReportDB is a SQLite path that also receives every report row.
	// Empty disables the ledger.
	ReportDB string `json:"report_db,omitempty" yaml:"report_db,omitempty"`
}

// LoggingConfig configures logging.
type LoggingConfig struct {
	// Level is one of trace, debug, info, warn, error.
	Level string `json:"level" yaml:"level"`
}

// Default returns the benchmark configuration.
func Default() *Config {
	return &Config{
		Run: RunConfig{
			Simulations: 20,
			Identity:    0,
			Workers:     runtime.NumCPU(),
		},
		Model: ModelConfig{
			Iterations:           365 * 4,
			Agents:               10000,
			Infections:           10,
			Encounters:           100,
			Growth:               0.0001,
			DeathProbSusceptible: 0.0001,
			DeathProbInfectious:  0.001,
			RecoveryProb:         0.01,
			VaccinationProb:      0.001,
			RegressionProb:       0.0003,
			InfectionMethod:      0,
		},
		Output: OutputConfig{
			OutputAgents:  0,
			AgentFilename: "agents.csv",
		},
		Logging: LoggingConfig{
			Level: "info",
		},
	}
}

// Load builds a configuration: defaults, then the YAML file at path when
// path is non-empty, then environment variables.
func Load(path string) (*Config, error) {
	cfg := Default()
	if path != "" {
		fileCfg, err := LoadFromFile(path)
		if err != nil {
			return nil, err
		}
		cfg = fileCfg
	}
	if err := applyEnvOverrides(cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

// LoadFromFile loads configuration from a YAML file. Keys missing from the
// file keep their defaults.
func LoadFromFile(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading config file: %w", err)
	}

	cfg := Default()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parsing config file: %w", err)
	}
	return cfg, nil
}

// Validate checks what the engine cannot represent. Probabilities and counts
// are not range checked.
func (c *Config) Validate() error {
	if _, err := engine.ParseInfectionMethod(c.Model.InfectionMethod); err != nil {
		return err
	}
	if c.Run.Workers < 0 {
		return fmt.Errorf("workers must be non-negative, got %d", c.Run.Workers)
	}
	if c.Output.OutputAgents > 0 && c.Output.AgentFilename == "" {
		return fmt.Errorf("agent_filename is required when output_agents is %d", c.Output.OutputAgents)
	}
	if !logging.ValidLevel(c.Logging.Level) {
		return fmt.Errorf("invalid log level: %q (valid: trace, debug, info, warn, error)", c.Logging.Level)
	}
	return nil
}

// Parameters converts the model and output sections to engine parameters.
// Call Validate first; an invalid method code maps to MethodBoth.
func (c *Config) Parameters() engine.Parameters {
	method, _ := engine.ParseInfectionMethod(c.Model.InfectionMethod)
	return engine.Parameters{
		Agents:               c.Model.Agents,
		Iterations:           c.Model.Iterations,
		Infections:           c.Model.Infections,
		Encounters:           c.Model.Encounters,
		Growth:               c.Model.Growth,
		DeathProbSusceptible: c.Model.DeathProbSusceptible,
		DeathProbInfectious:  c.Model.DeathProbInfectious,
		RecoveryProb:         c.Model.RecoveryProb,
		VaccinationProb:      c.Model.VaccinationProb,
		RegressionProb:       c.Model.RegressionProb,
		InfectionMethod:      method,
		OutputAgents:         c.Output.OutputAgents,
		AgentFilename:        c.Output.AgentFilename,
	}
}

// applyEnvOverrides applies ABM_* environment variables. A set variable that
// does not parse is an error rather than silently ignored.
func applyEnvOverrides(cfg *Config) error {
	ints := []struct {
		name string
		dst  *int
	}{
		{"ABM_SIMULATIONS", &cfg.Run.Simulations},
		{"ABM_IDENTITY", &cfg.Run.Identity},
		{"ABM_WORKERS", &cfg.Run.Workers},
		{"ABM_ITERATIONS", &cfg.Model.Iterations},
		{"ABM_AGENTS", &cfg.Model.Agents},
		{"ABM_INFECTIONS", &cfg.Model.Infections},
		{"ABM_ENCOUNTERS", &cfg.Model.Encounters},
		{"ABM_INFECTION_METHOD", &cfg.Model.InfectionMethod},
		{"ABM_OUTPUT_AGENTS", &cfg.Output.OutputAgents},
	}
	for _, e := range ints {
		v := os.Getenv(e.name)
		if v == "" {
			continue
		}
		n, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("%s: %w", e.name, err)
		}
		*e.dst = n
	}

	floats := []struct {
		name string
		dst  *float64
	}{
		{"ABM_GROWTH", &cfg.Model.Growth},
		{"ABM_DEATH_PROB_SUSCEPTIBLE", &cfg.Model.DeathProbSusceptible},
		{"ABM_DEATH_PROB_INFECTIOUS", &cfg.Model.DeathProbInfectious},
		{"ABM_RECOVERY_PROB", &cfg.Model.RecoveryProb},
		{"ABM_VACCINATION_PROB", &cfg.Model.VaccinationProb},
		{"ABM_REGRESSION_PROB", &cfg.Model.RegressionProb},
	}
	for _, e := range floats {
		v := os.Getenv(e.name)
		if v == "" {
			continue
		}
		f, err := strconv.ParseFloat(v, 64)
		if err != nil {
			return fmt.Errorf("%s: %w", e.name, err)
		}
		*e.dst = f
	}

	if v := os.Getenv("ABM_AGENT_FILENAME"); v != "" {
		cfg.Output.AgentFilename = v
	}
	if v := os.Getenv("ABM_REPORT_DB"); v != "" {
		cfg.Output.ReportDB = v
	}
	if v := os.Getenv("ABM_LOG_LEVEL"); v != "" {
		cfg.Logging.Level = v
	}
	return nil
}
