package main

import (
	"encoding/json"
	"errors"
	"fmt"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"github.com/talgya/contagion/internal/engine"
	"github.com/talgya/contagion/internal/persistence"
)

func newRunsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "runs",
		Short: "List runs recorded in a report ledger",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			path, _ := cmd.Flags().GetString("report-db")
			if path == "" {
				return errors.New("--report-db is required")
			}

			db, err := persistence.Open(path)
			if err != nil {
				return fmt.Errorf("open report ledger: %w", err)
			}
			defer db.Close()

			runs, err := db.Runs()
			if err != nil {
				return fmt.Errorf("list runs: %w", err)
			}

			out := cmd.OutOrStdout()
			if len(runs) == 0 {
				fmt.Fprintln(out, "No runs recorded.")
				return nil
			}

			for _, r := range runs {
				var p engine.Parameters
				if err := json.Unmarshal([]byte(r.Parameters), &p); err != nil {
					return fmt.Errorf("run %s: decode parameters: %w", r.ID, err)
				}
				fmt.Fprintf(out, "%s  %s  %s rows  agents=%s iterations=%s method=%s\n",
					r.ID,
					humanize.Time(r.Started()),
					humanize.Comma(int64(r.Rows)),
					humanize.Comma(int64(p.Agents)),
					humanize.Comma(int64(p.Iterations)),
					p.InfectionMethod,
				)
			}
			return nil
		},
	}
	return cmd
}
