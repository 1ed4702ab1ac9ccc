package commands

import (
	"encoding/json"
	"fmt"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"

	"github.com/convergelabs/schemasync/internal/engine"
)

// NewPlanCommand creates the plan command.
func NewPlanCommand() *cobra.Command {
	var (
		showSQL    bool
		jsonOutput bool
	)

	cmd := &cobra.Command{
		Use:   "plan",
		Short: "Show the DDL a reconciliation pass would execute",
		Long: `Compare the declared tables against the live database and print the
corrective statements without executing anything.`,
		Example: `  # Plan against the default environment
  schemasync plan

  # Plan against production, printing full statements
  schemasync plan --env production --sql`,
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
			if jsonOutput {
				enc := json.NewEncoder(out)
				enc.SetIndent("", "  ")
				return enc.Encode(plan)
			}
			if plan.InSync() {
				fmt.Fprintf(out, "All %d table(s) in sync. Nothing to do.\n", len(plan.Tables))
				return nil
			}

			t := table.NewWriter()
			t.SetOutputMirror(out)
			t.AppendHeader(table.Row{"Table", "State", "Statements", "Skipped"})
			for _, tp := range plan.Tables {
				t.AppendRow(table.Row{tp.Table, tp.State, len(tp.Statements), len(tp.Skipped)})
			}
			t.Render()

			if showSQL {
				fmt.Fprintln(out)
				for _, stmt := range plan.Statements() {
					fmt.Fprintf(out, "-- %s: %s\n%s\n", stmt.Table, stmt.Kind, stmt.SQL)
				}
			}
			printSkipped(cmd, plan.Tables)

			fmt.Fprintf(out, "\n%d statement(s) planned. Run 'schemasync apply' to execute.\n",
				len(plan.Statements()))
			return nil
		},
	}

	cmd.Flags().BoolVar(&showSQL, "sql", false, "Print the full DDL statements")
	cmd.Flags().BoolVar(&jsonOutput, "json", false, "Output the plan as JSON")
	return cmd
}

func printSkipped(cmd *cobra.Command, tables []engine.TablePlan) {
	for _, tp := range tables {
		for _, s := range tp.Skipped {
			fmt.Fprintf(cmd.ErrOrStderr(),
				"warning: %s: %s cannot be changed in this dialect\n", tp.Table, s)
		}
	}
}
