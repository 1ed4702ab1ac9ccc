package commands

import (
	"fmt"
	"time"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"

	"github.com/convergelabs/schemasync/internal/cli/config"
	"github.com/convergelabs/schemasync/internal/state"
)

// NewHistoryCommand creates the history command.
func NewHistoryCommand() *cobra.Command {
	var limit int

	cmd := &cobra.Command{
		Use:   "history [pass-id]",
		Short: "Show past reconciliation passes",
		Long: `List recorded reconciliation passes, newest first. With a pass ID,
show the statements that pass executed.`,
		Example: `  # Recent passes
  schemasync history

  # Statements of one pass
  schemasync history 6f1f9e4c-...`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := getConfig()
			if err != nil {
				return err
			}

			store := state.NewSQLiteStore(config.GetLogger(cmd.Context()))
			if err := store.Open(cfg.StatePath); err != nil {
				return err
			}
			defer func() { _ = store.Close() }()

			if len(args) == 1 {
				return printStatements(cmd, store, args[0])
			}
			return printPasses(cmd, store, limit)
		},
	}

	cmd.Flags().IntVarP(&limit, "limit", "n", 20, "Maximum number of passes to show")
	return cmd
}

func printPasses(cmd *cobra.Command, store state.Store, limit int) error {
	passes, err := store.ListPasses(limit)
	if err != nil {
		return err
	}
	if len(passes) == 0 {
		fmt.Fprintln(cmd.OutOrStdout(), "No passes recorded yet.")
		return nil
	}

	t := table.NewWriter()
	t.SetOutputMirror(cmd.OutOrStdout())
	t.AppendHeader(table.Row{"Pass", "Target", "Driver", "Status", "Started", "Duration", "Tables", "Statements"})
	for _, p := range passes {
		t.AppendRow(table.Row{
			p.ID, p.Target, p.Driver, p.Status,
			p.StartedAt.Local().Format(time.RFC3339),
			passDuration(p), p.Tables, p.Statements,
		})
	}
	t.Render()
	return nil
}

func passDuration(p *state.Pass) string {
	if p.CompletedAt == nil {
		return "-"
	}
	return p.CompletedAt.Sub(p.StartedAt).Round(time.Millisecond).String()
}

func printStatements(cmd *cobra.Command, store state.Store, passID string) error {
	pass, err := store.GetPass(passID)
	if err != nil {
		return err
	}
	stmts, err := store.ListStatements(passID)
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "Pass %s (%s, %s)\n\n", pass.ID, pass.Target, pass.Status)
	for _, s := range stmts {
		marker := "ok"
		if !s.Success {
			marker = "FAILED: " + s.Error
		}
		fmt.Fprintf(out, "-- %s %s [%s]\n%s\n\n", s.Table, s.Kind, marker, s.SQL)
	}
	return nil
}
