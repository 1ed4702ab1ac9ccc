package commands

import (
	"fmt"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"

	"github.com/convergelabs/schemasync/internal/engine"
)

// NewApplyCommand creates the apply command.
func NewApplyCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:     "apply",
		Aliases: []string{"sync"},
		Short:   "Execute the DDL that converges the live schema",
		Long: `Plan and execute a reconciliation pass. Each table's statements run in
their own scoped transactions; a failing table is recorded and skipped
while the remaining tables still converge.`,
		Example: `  # Reconcile the default environment
  schemasync apply

  # Reconcile production
  schemasync apply --env production`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			r, err := createReconciler(cmd)
			if err != nil {
				return err
			}
			defer func() { _ = r.Close() }()

			res, err := r.Apply(cmd.Context())
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			t := table.NewWriter()
			t.SetOutputMirror(out)
			t.AppendHeader(table.Row{"Table", "Result", "Statements", "Detail"})
			executed := 0
			for _, tr := range res.Tables {
				detail := ""
				if tr.Err != nil {
					detail = tr.Err.Error()
				} else if len(tr.Skipped) > 0 {
					detail = fmt.Sprintf("%d change(s) not expressible", len(tr.Skipped))
				}
				t.AppendRow(table.Row{tr.Table, tr.State, len(tr.Statements), detail})
				if tr.State != engine.TableFailed {
					executed += len(tr.Statements)
				}
			}
			t.Render()

			fmt.Fprintf(out, "\nPass %s finished: %d table(s), %d failed.\n",
				res.PassID, len(res.Tables), res.Failed)

			if res.Failed > 0 {
				return fmt.Errorf("%d table(s) failed to reconcile", res.Failed)
			}
			return nil
		},
	}
	return cmd
}
