package engine

// plan.go - per-table planning: introspect, diff, render.

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/convergelabs/schemasync/pkg/core"
	"github.com/convergelabs/schemasync/pkg/diff"
)

// TableState classifies what a pass will do (or did) to one table.
type TableState string

const (
	// TableInSync means the live table already satisfies its declaration.
	TableInSync TableState = "in_sync"
	// TableCreate means the table is absent and will be created whole.
	TableCreate TableState = "create"
	// TableAlter means the table exists but needs corrective statements.
	TableAlter TableState = "alter"
	// TableDiverged means differences were found that the dialect cannot
	// express as DDL; the table is reported, not touched.
	TableDiverged TableState = "diverged"
	// TableFailed means a statement errored during apply.
	TableFailed TableState = "failed"
)

// StatementKind labels a planned DDL statement for history and reports.
type StatementKind string

const (
	StmtCreateTable    StatementKind = "create_table"
	StmtAddColumn      StatementKind = "add_column"
	StmtAlterColumn    StatementKind = "alter_column"
	StmtDropConstraint StatementKind = "drop_constraint"
	StmtAddConstraint  StatementKind = "add_constraint"
)

// Statement is one planned DDL statement.
type Statement struct {
	Table  string        `json:"table"`
	Kind   StatementKind `json:"kind"`
	Object string        `json:"object,omitempty"` // column or constraint name; empty for create_table
	SQL    string        `json:"sql"`
}

// TablePlan is the planned work for one declared table.
type TablePlan struct {
	Table      string      `json:"table"`
	State      TableState  `json:"state"`
	Statements []Statement `json:"statements,omitempty"`
	// Skipped lists differences the dialect cannot correct.
	Skipped []string `json:"skipped,omitempty"`
}

// Plan is the full result of comparing the declared schema against the
// live database. Tables appear in declaration order.
type Plan struct {
	Tables []TablePlan `json:"tables"`
}

// Statements flattens the plan into execution order.
func (p *Plan) Statements() []Statement {
	var out []Statement
	for _, t := range p.Tables {
		out = append(out, t.Statements...)
	}
	return out
}

// InSync reports whether the plan contains no work and no divergence.
func (p *Plan) InSync() bool {
	for _, t := range p.Tables {
		if t.State != TableInSync {
			return false
		}
	}
	return true
}

// planTable computes the corrective statements for one declared table.
// liveTables is the lowercased set of tables present in the database.
func (r *Reconciler) planTable(ctx context.Context, t *core.TableSchema, liveTables map[string]bool) (TablePlan, error) {
	plan := TablePlan{Table: t.Name, State: TableInSync}

	if !liveTables[strings.ToLower(t.Name)] {
		plan.State = TableCreate
		plan.Statements = append(plan.Statements, Statement{
			Table: t.Name,
			Kind:  StmtCreateTable,
			SQL:   r.db.RenderCreateTable(t),
		})
		return plan, nil
	}

	liveCols, err := r.db.ColumnsOf(ctx, t.Name)
	if err != nil {
		var ie *core.IntrospectionError
		if errors.As(err, &ie) {
			// A table we cannot introspect is treated as absent: creating
			// it is the only corrective statement that cannot lose data.
			r.logger.Warn("introspection failed, planning full create",
				slog.String("table", t.Name), slog.String("error", err.Error()))
			plan.State = TableCreate
			plan.Statements = append(plan.Statements, Statement{
				Table: t.Name,
				Kind:  StmtCreateTable,
				SQL:   r.db.RenderCreateTable(t),
			})
			return plan, nil
		}
		return plan, err
	}

	d := r.db.Dialect()

	for _, op := range diff.Columns(t.Columns, liveCols, d) {
		switch op.Action {
		case diff.ColumnAdd:
			plan.Statements = append(plan.Statements, Statement{
				Table:  t.Name,
				Kind:   StmtAddColumn,
				Object: op.Column.Name,
				SQL:    r.db.RenderAddColumn(t.Name, op.Column),
			})
		case diff.ColumnAlter:
			stmt, err := r.db.RenderAlterColumn(t.Name, op.Column)
			if err != nil {
				if errors.Is(err, core.ErrUnsupportedDDL) {
					r.logger.Warn("cannot alter column in this dialect",
						slog.String("table", t.Name),
						slog.String("column", op.Column.Name),
						slog.String("mismatch", op.Reason))
					plan.Skipped = append(plan.Skipped,
						fmt.Sprintf("column %s: %s mismatch", op.Column.Name, op.Reason))
					continue
				}
				return plan, err
			}
			plan.Statements = append(plan.Statements, Statement{
				Table:  t.Name,
				Kind:   StmtAlterColumn,
				Object: op.Column.Name,
				SQL:    stmt,
			})
		}
	}

	liveCons, err := r.db.ConstraintsOf(ctx, t.Name)
	if err != nil {
		return plan, err
	}

	for _, op := range diff.Constraints(t.Constraints, liveCons) {
		var (
			stmt string
			kind StatementKind
		)
		switch op.Kind {
		case diff.ConstraintDrop:
			kind = StmtDropConstraint
			stmt, err = r.db.RenderDropConstraint(t.Name, op.Constraint)
		case diff.ConstraintAdd:
			kind = StmtAddConstraint
			stmt, err = r.db.RenderAddConstraint(t.Name, op.Constraint)
		}
		if err != nil {
			if errors.Is(err, core.ErrUnsupportedDDL) {
				r.logger.Warn("cannot change constraint in this dialect",
					slog.String("table", t.Name),
					slog.String("constraint", op.Constraint.Name))
				plan.Skipped = append(plan.Skipped,
					fmt.Sprintf("constraint %s", op.Constraint.Name))
				continue
			}
			return plan, err
		}
		plan.Statements = append(plan.Statements, Statement{
			Table:  t.Name,
			Kind:   kind,
			Object: op.Constraint.Name,
			SQL:    stmt,
		})
	}

	switch {
	case len(plan.Statements) > 0:
		plan.State = TableAlter
	case len(plan.Skipped) > 0:
		plan.State = TableDiverged
	}
	return plan, nil
}
