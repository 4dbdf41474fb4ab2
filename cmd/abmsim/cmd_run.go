package main

import (
	"fmt"
	"log/slog"
	"strconv"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"github.com/talgya/contagion/internal/config"
	"github.com/talgya/contagion/internal/engine"
	"github.com/talgya/contagion/internal/logging"
	"github.com/talgya/contagion/internal/persistence"
	"github.com/talgya/contagion/internal/report"
)

// addSimulationFlags registers the model flags. Defaults shown in --help are
// the built-in defaults; only flags set on the command line override the
// config file and environment.
func addSimulationFlags(cmd *cobra.Command) {
	d := config.Default()
	f := cmd.Flags()

	f.String("config", "", "YAML config file")
	f.IntP("simulations", "s", d.Run.Simulations, "Number of replicas (0 or 1 runs a single replica)")
	f.Int("identity", d.Run.Identity, "Identity of the single replica")
	f.Int("workers", d.Run.Workers, "Concurrent replicas (0 = one per CPU)")

	f.IntP("iterations", "i", d.Model.Iterations, "Iterations per replica")
	f.IntP("agents", "a", d.Model.Agents, "Initial agents per replica")
	f.Int("infections", d.Model.Infections, "Initially infectious agents")
	f.IntP("encounters", "e", d.Model.Encounters, "Encounters per iteration")
	f.Float64P("growth", "g", d.Model.Growth, "Births per living agent per iteration")
	f.Float64("death_prob_susceptible", d.Model.DeathProbSusceptible, "Death probability of a susceptible agent")
	f.Float64("death_prob_infectious", d.Model.DeathProbInfectious, "Death probability of an infectious agent")
	f.Float64P("recovery_prob", "r", d.Model.RecoveryProb, "Recovery probability of an infectious agent")
	f.Float64P("vaccination_prob", "v", d.Model.VaccinationProb, "Vaccination probability of a susceptible agent")
	f.Float64("regression_prob", d.Model.RegressionProb, "Probability that immunity is lost")
	f.Int("infection_method", d.Model.InfectionMethod, "Infection method: 0 = both, 1 = one, 2 = two")

	f.Int("output_agents", d.Output.OutputAgents, "Dump agents every N iterations (0 disables)")
	f.String("agent_filename", d.Output.AgentFilename, "Agent dump file")
}

// loadConfig resolves defaults, then the config file, then ABM_* variables,
// then flags set on the command line.
func loadConfig(cmd *cobra.Command) (*config.Config, error) {
	flags := cmd.Flags()
	path, _ := flags.GetString("config")

	cfg, err := config.Load(path)
	if err != nil {
		return nil, err
	}

	ints := []struct {
		name string
		dst  *int
	}{
		{"simulations", &cfg.Run.Simulations},
		{"identity", &cfg.Run.Identity},
		{"workers", &cfg.Run.Workers},
		{"iterations", &cfg.Model.Iterations},
		{"agents", &cfg.Model.Agents},
		{"infections", &cfg.Model.Infections},
		{"encounters", &cfg.Model.Encounters},
		{"infection_method", &cfg.Model.InfectionMethod},
		{"output_agents", &cfg.Output.OutputAgents},
	}
	for _, f := range ints {
		if !flags.Changed(f.name) {
			continue
		}
		if *f.dst, err = flags.GetInt(f.name); err != nil {
			return nil, err
		}
	}

	floats := []struct {
		name string
		dst  *float64
	}{
		{"growth", &cfg.Model.Growth},
		{"death_prob_susceptible", &cfg.Model.DeathProbSusceptible},
		{"death_prob_infectious", &cfg.Model.DeathProbInfectious},
		{"recovery_prob", &cfg.Model.RecoveryProb},
		{"vaccination_prob", &cfg.Model.VaccinationProb},
		{"regression_prob", &cfg.Model.RegressionProb},
	}
	for _, f := range floats {
		if !flags.Changed(f.name) {
			continue
		}
		if *f.dst, err = flags.GetFloat64(f.name); err != nil {
			return nil, err
		}
	}

	strs := []struct {
		name string
		dst  *string
	}{
		{"agent_filename", &cfg.Output.AgentFilename},
		{"report-db", &cfg.Output.ReportDB},
		{"log-level", &cfg.Logging.Level},
	}
	for _, f := range strs {
		if !flags.Changed(f.name) {
			continue
		}
		if *f.dst, err = flags.GetString(f.name); err != nil {
			return nil, err
		}
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return cfg, nil
}

func runSimulations(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	slog.SetDefault(logging.NewLogger(cfg.Logging.Level, cmd.ErrOrStderr()))

	params := cfg.Parameters()
	slog.Info("abmsim starting",
		"version", version,
		"replicas", cfg.Run.Simulations,
		"agents", humanize.Comma(int64(params.Agents)),
		"iterations", humanize.Comma(int64(params.Iterations)),
		"method", params.InfectionMethod,
	)

	var sink report.Sink = report.NewCSVWriter(cmd.OutOrStdout())

	// ── Report ledger ─────────────────────────────────────────────────
	if cfg.Output.ReportDB != "" {
		db, err := persistence.Open(cfg.Output.ReportDB)
		if err != nil {
			return fmt.Errorf("open report ledger: %w", err)
		}
		defer db.Close()
		slog.Info("report ledger opened", "path", cfg.Output.ReportDB)

		ledger, err := db.BeginRun(params)
		if err != nil {
			return err
		}
		meta := map[string]string{
			"simulations": strconv.Itoa(cfg.Run.Simulations),
			"identity":    strconv.Itoa(cfg.Run.Identity),
			"version":     version,
		}
		for k, v := range meta {
			if err := db.SaveMeta(ledger.RunID(), k, v); err != nil {
				return fmt.Errorf("save run metadata: %w", err)
			}
		}
		sink = report.Tee{sink, ledger}
	}

	// ── Replicas ──────────────────────────────────────────────────────
	o := &engine.Orchestrator{
		Simulations: cfg.Run.Simulations,
		Identity:    cfg.Run.Identity,
		Workers:     cfg.Run.Workers,
		Params:      params,
		Sink:        sink,
	}
	return o.Run()
}
