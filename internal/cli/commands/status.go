package commands

import (
	"fmt"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"

	"github.com/convergelabs/schemasync/internal/engine"
)

// NewStatusCommand creates the status command.
func NewStatusCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Summarize how far the live schema has drifted",
		Long: `Introspect the target database and report, per declared table, whether
it is in sync, missing, needs alterations, or has diverged in ways the
dialect cannot correct.`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			r, err := createReconciler(cmd)
			if err != nil {
				return err
			}
			defer func() { _ = r.Close() }()

			plan, err := r.Plan(cmd.Context())
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			counts := make(map[engine.TableState]int)

			t := table.NewWriter()
			t.SetOutputMirror(out)
			t.AppendHeader(table.Row{"Table", "State"})
			for _, tp := range plan.Tables {
				t.AppendRow(table.Row{tp.Table, tp.State})
				counts[tp.State]++
			}
			t.Render()

			fmt.Fprintf(out, "\n%d in sync, %d missing, %d drifted, %d diverged\n",
				counts[engine.TableInSync], counts[engine.TableCreate],
				counts[engine.TableAlter], counts[engine.TableDiverged])
			return nil
		},
	}
}
