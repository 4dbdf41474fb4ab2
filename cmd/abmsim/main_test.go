package main

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/talgya/contagion/internal/engine"
	"github.com/talgya/contagion/internal/report"
)

// execute runs the root command with args and returns stdout and stderr.
func execute(t *testing.T, args ...string) (string, string, error) {
	t.Helper()
	var stdout, stderr bytes.Buffer
	cmd := newRootCmd()
	cmd.SetArgs(args)
	cmd.SetOut(&stdout)
	cmd.SetErr(&stderr)
	err := cmd.Execute()
	return stdout.String(), stderr.String(), err
}

func TestRunWritesReportStream(t *testing.T) {
	stdout, stderr, err := execute(t,
		"-s", "2", "-a", "50", "-i", "150", "--infections", "5", "--workers", "1",
	)
	require.NoError(t, err)
	require.Equal(t, 1, strings.Count(stdout, report.Header))
	require.True(t, strings.HasPrefix(stdout, report.Header+"\n"))
	require.Contains(t, stderr, "abmsim starting")

	rows, err := report.ParseRows(strings.NewReader(stdout))
	require.NoError(t, err)
	require.Len(t, rows, 6)

	p := engine.Parameters{
		Agents:               50,
		Iterations:           150,
		Infections:           5,
		Encounters:           100,
		Growth:               0.0001,
		DeathProbSusceptible: 0.0001,
		DeathProbInfectious:  0.001,
		RecoveryProb:         0.01,
		VaccinationProb:      0.001,
		RegressionProb:       0.0003,
		AgentFilename:        "agents.csv",
	}
	for id := 0; id < 2; id++ {
		var buf bytes.Buffer
		require.NoError(t, engine.NewSimulation(id, p, report.NewCSVWriter(&buf)).Run())
		want, err := report.ParseRows(&buf)
		require.NoError(t, err)

		var got []report.Row
		for _, r := range rows {
			if r.Replica == id {
				got = append(got, r)
			}
		}
		require.Equal(t, want, got, "replica %d", id)
	}
}

func TestHeaderFirstWithParallelReplicas(t *testing.T) {
	stdout, _, err := execute(t, "-s", "8", "--workers", "8", "-a", "20", "-i", "1")
	require.NoError(t, err)

	lines := strings.Split(strings.TrimSpace(stdout), "\n")
	require.Len(t, lines, 17)
	require.Equal(t, report.Header, lines[0])
	for _, line := range lines[1:] {
		require.False(t, strings.HasPrefix(line, "#"), "header repeated mid-stream")
	}
}

func TestSingleReplicaIdentity(t *testing.T) {
	stdout, _, err := execute(t, "-s", "1", "--identity", "5", "-a", "100", "--infections", "20", "-i", "10")
	require.NoError(t, err)
	require.NotContains(t, stdout, report.Header)

	rows, err := report.ParseRows(strings.NewReader(stdout))
	require.NoError(t, err)
	require.Len(t, rows, 2)
	require.Equal(t, 5, rows[0].Replica)
	require.Equal(t, 20, rows[0].Infectious)
	require.Equal(t, 80, rows[0].Susceptible)
	require.Equal(t, 20, rows[0].TotalInfections)
}

func TestFlagPrecedence(t *testing.T) {
	path := filepath.Join(t.TempDir(), "abm.yaml")
	require.NoError(t, os.WriteFile(path, []byte("run:\n  simulations: 1\nmodel:\n  agents: 30\n  iterations: 5\n  infections: 3\n"), 0644))

	tests := []struct {
		name   string
		env    string
		args   []string
		agents int
	}{
		{"file", "", nil, 30},
		{"env over file", "25", nil, 25},
		{"flag over env", "25", []string{"-a", "40"}, 40},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if tt.env != "" {
				t.Setenv("ABM_AGENTS", tt.env)
			}
			args := append([]string{"--config", path}, tt.args...)
			stdout, _, err := execute(t, args...)
			require.NoError(t, err)

			rows, err := report.ParseRows(strings.NewReader(stdout))
			require.NoError(t, err)
			require.Len(t, rows, 2)
			require.Equal(t, tt.agents, rows[0].Total())
			require.Equal(t, 3, rows[0].Infectious)
		})
	}
}

func TestInvalidConfiguration(t *testing.T) {
	tests := []struct {
		name    string
		args    []string
		wantErr string
	}{
		{"method", []string{"--infection_method", "3"}, "invalid infection method"},
		{"log level", []string{"--log-level", "loud"}, "invalid log level"},
		{"workers", []string{"--workers", "-2"}, "workers"},
		{"missing config", []string{"--config", "/nonexistent/abm.yaml"}, "reading config file"},
		{"positional", []string{"extra"}, "unknown command"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			stdout, _, err := execute(t, tt.args...)
			require.ErrorContains(t, err, tt.wantErr)
			require.Empty(t, stdout)
		})
	}
}

func TestAgentDump(t *testing.T) {
	dump := filepath.Join(t.TempDir(), "agents.csv")
	_, _, err := execute(t,
		"-s", "1", "-a", "60", "-i", "200", "--output_agents", "100", "--agent_filename", dump,
	)
	require.NoError(t, err)

	pop, err := report.ReadAgentsFile(dump)
	require.NoError(t, err)
	require.NotEmpty(t, pop)
	for i, a := range pop {
		require.EqualValues(t, i, a.ID)
	}
}

func TestDumpFailureExitsWithError(t *testing.T) {
	dump := filepath.Join(t.TempDir(), "missing", "agents.csv")
	_, _, err := execute(t,
		"-s", "1", "-a", "10", "-i", "100", "--output_agents", "100", "--agent_filename", dump,
	)
	require.Error(t, err)
}

func TestReportLedger(t *testing.T) {
	db := filepath.Join(t.TempDir(), "runs.db")

	stdout, _, err := execute(t, "runs", "--report-db", db)
	require.NoError(t, err)
	require.Contains(t, stdout, "No runs recorded.")

	_, _, err = execute(t, "-s", "2", "-a", "40", "-i", "120", "--report-db", db)
	require.NoError(t, err)

	stdout, _, err = execute(t, "runs", "--report-db", db)
	require.NoError(t, err)
	require.Contains(t, stdout, "6 rows")
	require.Contains(t, stdout, "agents=40")
	require.Contains(t, stdout, "iterations=120")
	require.Contains(t, stdout, "method=both")
}

func TestRunsRequiresLedger(t *testing.T) {
	_, _, err := execute(t, "runs")
	require.ErrorContains(t, err, "--report-db is required")
}

func TestVersionCmd(t *testing.T) {
	stdout, _, err := execute(t, "version")
	require.NoError(t, err)
	require.Contains(t, stdout, "abmsim version "+version)

	stdout, _, err = execute(t, "version", "--json")
	require.NoError(t, err)
	var got map[string]string
	require.NoError(t, json.Unmarshal([]byte(stdout), &got))
	require.Equal(t, version, got["version"])
}
