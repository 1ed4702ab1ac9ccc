// Package adapter provides the database engine interface and common
// implementation shared by schemasync's dialect adapters.
//
// This package contains the public contract every adapter must implement.
// Concrete implementations live in pkg/adapters/ subdirectories and register
// themselves at init() time; import them with a blank identifier.
package adapter

import (
	"context"

	"github.com/convergelabs/schemasync/pkg/core"
	"github.com/convergelabs/schemasync/pkg/dialect"
)

// ConnConfig is an alias for core.ConnConfig, so callers constructing
// adapters don't need a separate core import.
type ConnConfig = core.ConnConfig

// Adapter is the per-dialect engine: it executes statements, introspects
// the live schema, and renders dialect-correct DDL fragments. The
// implementation is selected at configuration time, never per-call.
type Adapter interface {
	// Connect establishes the connection. When cfg.DisableForeignKeys is
	// set it also disables foreign-key enforcement for the session on
	// dialects that support it. Failures are *core.ConnectionError.
	Connect(ctx context.Context, cfg core.ConnConfig) error

	// Close closes the database connection and releases resources.
	Close() error

	// ListTables returns the names of the tables in the connected schema.
	ListTables(ctx context.Context) ([]string, error)

	// ColumnsOf introspects the live columns of a table. Results are
	// produced fresh on every call, never cached across reconciliation runs.
	ColumnsOf(ctx context.Context, table string) ([]core.LiveColumn, error)

	// ConstraintsOf introspects the live named constraints of a table,
	// including foreign-key detail.
	ConstraintsOf(ctx context.Context, table string) ([]core.LiveConstraint, error)

	// IndexesOf introspects the live indexes of a table.
	IndexesOf(ctx context.Context, table string) ([]core.LiveIndex, error)

	// RenderCreateTable emits one CREATE TABLE including all columns and
	// inline constraints, terminated appropriately for the dialect.
	// Rendering the same schema twice yields byte-identical DDL.
	RenderCreateTable(t *core.TableSchema) string

	// RenderAddColumn emits the ALTER TABLE ... ADD for one column.
	RenderAddColumn(table string, col core.ColumnDefinition) string

	// RenderAlterColumn emits the dialect's in-place column redefinition.
	// Dialects without one return core.ErrUnsupportedDDL.
	RenderAlterColumn(table string, col core.ColumnDefinition) (string, error)

	// RenderAddConstraint and RenderDropConstraint emit the ALTER forms for
	// named constraints. Dialects without them return core.ErrUnsupportedDDL.
	RenderAddConstraint(table string, c core.ConstraintDefinition) (string, error)
	RenderDropConstraint(table string, c core.ConstraintDefinition) (string, error)

	// Exec runs one DDL/DML statement inside its own scoped transaction:
	// begin, execute, commit on success, roll back and return a
	// *core.ExecutionError on failure. Returns the affected row count.
	Exec(ctx context.Context, sql string) (int64, error)

	// TypeEquivalent reports whether a live native type string already
	// satisfies a declared abstract type for this dialect.
	TypeEquivalent(native, declared string) bool

	// Dialect returns the capability record for this adapter.
	Dialect() *dialect.Dialect
}
