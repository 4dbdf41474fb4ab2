package persistence

import (
	"fmt"

	"github.com/talgya/contagion/internal/agents"
	"github.com/talgya/contagion/internal/report"
)

// Ledger records one run's report rows and agent snapshots. It implements
// report.Sink and report.Snapshotter and is safe for concurrent use.
type Ledger struct {
	db    *DB
	runID string
}

// RunID returns the run this ledger writes to.
func (l *Ledger) RunID() string {
	return l.runID
}

// Header marks the run as having started emitting rows.
func (l *Ledger) Header() error {
	return l.db.SaveMeta(l.runID, "header", report.Header)
}

// Write appends one report row.
func (l *Ledger) Write(r report.Row) error {
	_, err := l.db.conn.Exec(`INSERT INTO reports
		(run_id, replica, iteration, susceptible, infectious, recovered, vaccinated,
		 dead, total_infections, infection_deaths)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		l.runID, r.Replica, r.Iteration,
		r.Susceptible, r.Infectious, r.Recovered, r.Vaccinated, r.Dead,
		r.TotalInfections, r.InfectionDeaths,
	)
	if err != nil {
		return fmt.Errorf("insert report row: %w", err)
	}
	return nil
}

// Snapshot replaces the replica's stored agents with pop (full replace).
func (l *Ledger) Snapshot(replica, iteration int, pop agents.Population) error {
	tx, err := l.db.conn.Beginx()
	if err != nil {
		return err
	}
	defer tx.Rollback()

	if _, err := tx.Exec("DELETE FROM agents WHERE run_id = ? AND replica = ?", l.runID, replica); err != nil {
		return err
	}

	stmt, err := tx.Preparex("INSERT INTO agents (run_id, replica, id, state, iteration) VALUES (?, ?, ?, ?, ?)")
	if err != nil {
		return err
	}
	defer stmt.Close()

	for _, a := range pop {
		if _, err := stmt.Exec(l.runID, replica, int64(a.ID), a.State.String(), iteration); err != nil {
			return fmt.Errorf("insert agent %d: %w", a.ID, err)
		}
	}

	return tx.Commit()
}
