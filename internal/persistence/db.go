// Package persistence provides the SQLite report ledger: the same rows the
// report stream carries, keyed by run, plus the latest agent dump per replica.
package persistence

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	_ "modernc.org/sqlite"

	"github.com/talgya/contagion/internal/agents"
	"github.com/talgya/contagion/internal/engine"
	"github.com/talgya/contagion/internal/report"
)

// DB wraps a SQLite connection for the report ledger.
type DB struct {
	conn *sqlx.DB
}

// Open opens or creates a SQLite database at the given path.
func Open(path string) (*DB, error) {
	conn, err := sqlx.Open("sqlite", path+"?_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)")
	if err != nil {
		return nil, fmt.Errorf("open db: %w", err)
	}
	// Replicas write concurrently; SQLite takes one writer at a time.
	conn.SetMaxOpenConns(1)

	db := &DB{conn: conn}
	if err := db.migrate(); err != nil {
		conn.Close()
		return nil, fmt.Errorf("migrate: %w", err)
	}

	return db, nil
}

// Close closes the database connection.
func (db *DB) Close() error {
	return db.conn.Close()
}

func (db *DB) migrate() error {
	schema := `
	CREATE TABLE IF NOT EXISTS runs (
		run_id TEXT PRIMARY KEY,
		started_at INTEGER NOT NULL,
		parameters_json TEXT NOT NULL
	);

	CREATE TABLE IF NOT EXISTS reports (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		run_id TEXT NOT NULL,
		replica INTEGER NOT NULL,
		iteration INTEGER NOT NULL,
		susceptible INTEGER NOT NULL,
		infectious INTEGER NOT NULL,
		recovered INTEGER NOT NULL,
		vaccinated INTEGER NOT NULL,
		dead INTEGER NOT NULL,
		total_infections INTEGER NOT NULL,
		infection_deaths INTEGER NOT NULL
	);

	CREATE TABLE IF NOT EXISTS agents (
		run_id TEXT NOT NULL,
		replica INTEGER NOT NULL,
		id INTEGER NOT NULL,
		state TEXT NOT NULL,
		iteration INTEGER NOT NULL,
		PRIMARY KEY (run_id, replica, id)
	);

	CREATE TABLE IF NOT EXISTS run_meta (
		run_id TEXT NOT NULL,
		key TEXT NOT NULL,
		value TEXT NOT NULL,
		PRIMARY KEY (run_id, key)
	);

	CREATE INDEX IF NOT EXISTS idx_reports_run ON reports(run_id, replica, iteration);
	`
	_, err := db.conn.Exec(schema)
	return err
}

// Run describes one recorded invocation.
type Run struct {
	ID         string `db:"run_id"`
	StartedAt  int64  `db:"started_at"`
	Parameters string `db:"parameters_json"`
	Rows       int    `db:"row_count"`
}

// Started returns the start time.
func (r Run) Started() time.Time {
	return time.Unix(r.StartedAt, 0)
}

// BeginRun registers a new run with a fresh ID and returns its ledger.
func (db *DB) BeginRun(p engine.Parameters) (*Ledger, error) {
	paramsJSON, err := json.Marshal(p)
	if err != nil {
		return nil, fmt.Errorf("marshal parameters: %w", err)
	}

	runID := uuid.NewString()
	_, err = db.conn.Exec(
		"INSERT INTO runs (run_id, started_at, parameters_json) VALUES (?, ?, ?)",
		runID, time.Now().Unix(), string(paramsJSON),
	)
	if err != nil {
		return nil, fmt.Errorf("insert run: %w", err)
	}

	slog.Info("report ledger run started", "run_id", runID)
	return &Ledger{db: db, runID: runID}, nil
}

// Runs lists recorded runs, newest first, with their row counts.
func (db *DB) Runs() ([]Run, error) {
	var runs []Run
	err := db.conn.Select(&runs, `
		SELECT r.run_id, r.started_at, r.parameters_json,
			(SELECT COUNT(*) FROM reports WHERE reports.run_id = r.run_id) AS row_count
		FROM runs r
		ORDER BY r.started_at DESC, r.run_id`)
	return runs, err
}

type reportRecord struct {
	Replica         int `db:"replica"`
	Iteration       int `db:"iteration"`
	Susceptible     int `db:"susceptible"`
	Infectious      int `db:"infectious"`
	Recovered       int `db:"recovered"`
	Vaccinated      int `db:"vaccinated"`
	Dead            int `db:"dead"`
	TotalInfections int `db:"total_infections"`
	InfectionDeaths int `db:"infection_deaths"`
}

// Rows returns one replica's report rows in emission order.
func (db *DB) Rows(runID string, replica int) ([]report.Row, error) {
	var recs []reportRecord
	err := db.conn.Select(&recs, `
		SELECT replica, iteration, susceptible, infectious, recovered, vaccinated,
			dead, total_infections, infection_deaths
		FROM reports WHERE run_id = ? AND replica = ? ORDER BY id`,
		runID, replica,
	)
	if err != nil {
		return nil, err
	}

	rows := make([]report.Row, 0, len(recs))
	for _, r := range recs {
		rows = append(rows, report.Row{
			Replica:   r.Replica,
			Iteration: r.Iteration,
			Statistics: report.Statistics{
				Census: agents.Census{
					Susceptible: r.Susceptible,
					Infectious:  r.Infectious,
					Recovered:   r.Recovered,
					Vaccinated:  r.Vaccinated,
					Dead:        r.Dead,
				},
				TotalInfections: r.TotalInfections,
				InfectionDeaths: r.InfectionDeaths,
			},
		})
	}
	return rows, nil
}

// Agents returns the latest agent snapshot of one replica, sorted by ID.
func (db *DB) Agents(runID string, replica int) (agents.Population, error) {
	var recs []struct {
		ID    uint64 `db:"id"`
		State string `db:"state"`
	}
	err := db.conn.Select(&recs,
		"SELECT id, state FROM agents WHERE run_id = ? AND replica = ? ORDER BY id",
		runID, replica,
	)
	if err != nil {
		return nil, err
	}

	pop := make(agents.Population, 0, len(recs))
	for _, r := range recs {
		st, err := agents.ParseState(r.State)
		if err != nil {
			return nil, fmt.Errorf("agent %d: %w", r.ID, err)
		}
		pop = append(pop, agents.Agent{ID: agents.AgentID(r.ID), State: st})
	}
	return pop, nil
}

// SaveMeta stores a key-value pair for a run.
func (db *DB) SaveMeta(runID, key, value string) error {
	_, err := db.conn.Exec(
		"INSERT OR REPLACE INTO run_meta (run_id, key, value) VALUES (?, ?, ?)",
		runID, key, value,
	)
	return err
}

// GetMeta retrieves a metadata value for a run.
func (db *DB) GetMeta(runID, key string) (string, error) {
	var value string
	err := db.conn.Get(&value, "SELECT value FROM run_meta WHERE run_id = ? AND key = ?", runID, key)
	return value, err
}
