// Package postgres provides the PostgreSQL database adapter for schemasync.
package postgres

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"strings"

	"github.com/convergelabs/schemasync/pkg/adapter"
	pgdialect "github.com/convergelabs/schemasync/pkg/adapters/postgres/dialect"
	"github.com/convergelabs/schemasync/pkg/core"
	"github.com/convergelabs/schemasync/pkg/dialect"
	_ "github.com/jackc/pgx/v5/stdlib" // database/sql driver
)

// Introspection query templates.
const (
	listTablesSQL = `SELECT table_name
FROM information_schema.tables
WHERE table_schema = $1 AND table_type = 'BASE TABLE'
ORDER BY table_name`

	columnsSQL = `SELECT
	column_name,
	data_type,
	character_maximum_length,
	is_nullable,
	column_default
FROM information_schema.columns
WHERE table_schema = $1 AND table_name = $2
ORDER BY ordinal_position`

	constraintsSQL = `SELECT
	tc.constraint_name,
	tc.constraint_type,
	kcu.column_name,
	ccu.table_name AS foreign_table,
	ccu.column_name AS foreign_column,
	rc.update_rule,
	rc.delete_rule
FROM information_schema.table_constraints tc
LEFT JOIN information_schema.key_column_usage kcu
	ON kcu.constraint_schema = tc.constraint_schema
	AND kcu.constraint_name = tc.constraint_name
	AND kcu.table_name = tc.table_name
LEFT JOIN information_schema.referential_constraints rc
	ON rc.constraint_schema = tc.constraint_schema
	AND rc.constraint_name = tc.constraint_name
LEFT JOIN information_schema.constraint_column_usage ccu
	ON ccu.constraint_schema = rc.unique_constraint_schema
	AND ccu.constraint_name = rc.unique_constraint_name
WHERE tc.table_schema = $1 AND tc.table_name = $2
ORDER BY tc.constraint_name, kcu.ordinal_position`

	indexesSQL = `SELECT indexname, indexdef
FROM pg_indexes
WHERE schemaname = $1 AND tablename = $2
ORDER BY indexname`
)

// Adapter implements the adapter.Adapter interface for PostgreSQL.
type Adapter struct {
	adapter.BaseSQLAdapter
	schema string
}

// New creates a new PostgreSQL adapter instance.
// If logger is nil, a discard logger is used.
func New(logger *slog.Logger) *Adapter {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Adapter{
		BaseSQLAdapter: adapter.BaseSQLAdapter{Logger: logger},
		schema:         pgdialect.Postgres.DefaultSchema,
	}
}

// Dialect returns the PostgreSQL capability record.
func (a *Adapter) Dialect() *dialect.Dialect {
	return pgdialect.Postgres
}

// TypeEquivalent reports whether a live native type satisfies a declared type.
func (a *Adapter) TypeEquivalent(native, declared string) bool {
	return pgdialect.Postgres.TypeEquivalent(native, declared)
}

// Connect establishes a connection to PostgreSQL.
func (a *Adapter) Connect(ctx context.Context, cfg core.ConnConfig) error {
	dsn := buildDSN(cfg)

	a.Logger.Debug("connecting to postgres", slog.String("host", cfg.Host), slog.String("database", cfg.Database))

	db, err := sql.Open("pgx", dsn)
	if err != nil {
		return &core.ConnectionError{Driver: "pgx", Err: err}
	}

	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return &core.ConnectionError{Driver: "pgx", Err: err}
	}

	a.DB = db
	a.Cfg = cfg
	if s, ok := cfg.Options["schema"]; ok && s != "" {
		a.schema = s
	}
	return nil
}

// buildDSN constructs a key=value PostgreSQL connection string.
func buildDSN(cfg core.ConnConfig) string {
	host := cfg.Host
	if host == "" {
		host = "localhost"
	}
	port := cfg.Port
	if port == 0 {
		port = 5432
	}

	sslmode := "disable"
	if cfg.Options != nil {
		if mode, ok := cfg.Options["sslmode"]; ok {
			sslmode = mode
		}
	}

	dsn := fmt.Sprintf("host=%s port=%d dbname=%s sslmode=%s", host, port, cfg.Database, sslmode)
	if cfg.User != "" {
		dsn += fmt.Sprintf(" user=%s", cfg.User)
	}
	if cfg.Password != "" {
		dsn += fmt.Sprintf(" password=%s", cfg.Password)
	}
	return dsn
}

// Exec applies the dialect fixup rules before running the statement in its
// scoped transaction. Every rendered fragment this adapter executes passes
// through Fixup.
func (a *Adapter) Exec(ctx context.Context, sqlStr string) (int64, error) {
	if needsFixup(sqlStr) {
		fixed := Fixup(sqlStr)
		if fixed != sqlStr {
			a.Logger.Debug("applied dialect fixup", slog.String("before", sqlStr), slog.String("after", fixed))
		}
		sqlStr = fixed
	}
	return a.BaseSQLAdapter.Exec(ctx, sqlStr)
}

// ListTables returns the tables of the connected schema.
func (a *Adapter) ListTables(ctx context.Context) ([]string, error) {
	return a.QueryStrings(ctx, listTablesSQL, a.schema)
}

// ColumnsOf introspects a table's live columns from information_schema.
func (a *Adapter) ColumnsOf(ctx context.Context, table string) ([]core.LiveColumn, error) {
	if err := core.ValidateIdentifier(table); err != nil {
		return nil, err
	}

	rows, err := a.DB.QueryContext(ctx, columnsSQL, a.schema, table)
	if err != nil {
		return nil, &core.IntrospectionError{Table: table, Query: columnsSQL, Err: err}
	}
	defer func() { _ = rows.Close() }()

	var cols []core.LiveColumn
	for rows.Next() {
		var (
			name, dataType, nullable string
			maxLen                   sql.NullInt64
			def                      sql.NullString
		)
		if err := rows.Scan(&name, &dataType, &maxLen, &nullable, &def); err != nil {
			return nil, &core.IntrospectionError{Table: table, Query: columnsSQL, Err: err}
		}

		typ := dataType
		if maxLen.Valid {
			typ = fmt.Sprintf("%s(%d)", dataType, maxLen.Int64)
		}
		cols = append(cols, core.LiveColumn{
			Name:     name,
			Type:     typ,
			Nullable: strings.EqualFold(nullable, "YES"),
			Default:  def.String,
		})
	}
	if err := rows.Err(); err != nil {
		return nil, &core.IntrospectionError{Table: table, Query: columnsSQL, Err: err}
	}
	return cols, nil
}

// ConstraintsOf introspects a table's named constraints from
// information_schema, grouping multi-column constraints by name.
func (a *Adapter) ConstraintsOf(ctx context.Context, table string) ([]core.LiveConstraint, error) {
	if err := core.ValidateIdentifier(table); err != nil {
		return nil, err
	}

	rows, err := a.DB.QueryContext(ctx, constraintsSQL, a.schema, table)
	if err != nil {
		return nil, &core.IntrospectionError{Table: table, Query: constraintsSQL, Err: err}
	}
	defer func() { _ = rows.Close() }()

	var (
		out   []core.LiveConstraint
		index = make(map[string]int)
	)
	for rows.Next() {
		var (
			name, typ               string
			column, fTable, fColumn sql.NullString
			updateRule, deleteRule  sql.NullString
		)
		if err := rows.Scan(&name, &typ, &column, &fTable, &fColumn, &updateRule, &deleteRule); err != nil {
			return nil, &core.IntrospectionError{Table: table, Query: constraintsSQL, Err: err}
		}

		kind, managed := constraintKind(typ)
		if !managed {
			continue
		}

		i, seen := index[name]
		if !seen {
			lc := core.LiveConstraint{
				Name:     name,
				Kind:     kind,
				OnUpdate: updateRule.String,
				OnDelete: deleteRule.String,
			}
			if kind == core.ForeignKey {
				lc.ForeignTable = fTable.String
				lc.ForeignColumn = fColumn.String
			}
			out = append(out, lc)
			i = len(out) - 1
			index[name] = i
		}
		if column.Valid {
			out[i].Columns = append(out[i].Columns, column.String)
		}
	}
	if err := rows.Err(); err != nil {
		return nil, &core.IntrospectionError{Table: table, Query: constraintsSQL, Err: err}
	}
	return out, nil
}

func constraintKind(typ string) (core.ConstraintKind, bool) {
	switch strings.ToUpper(typ) {
	case "PRIMARY KEY":
		return core.PrimaryKey, true
	case "UNIQUE":
		return core.Unique, true
	case "FOREIGN KEY":
		return core.ForeignKey, true
	}
	return "", false
}

// IndexesOf introspects a table's indexes from pg_indexes.
func (a *Adapter) IndexesOf(ctx context.Context, table string) ([]core.LiveIndex, error) {
	if err := core.ValidateIdentifier(table); err != nil {
		return nil, err
	}

	rows, err := a.DB.QueryContext(ctx, indexesSQL, a.schema, table)
	if err != nil {
		return nil, &core.IntrospectionError{Table: table, Query: indexesSQL, Err: err}
	}
	defer func() { _ = rows.Close() }()

	var out []core.LiveIndex
	for rows.Next() {
		var name, def string
		if err := rows.Scan(&name, &def); err != nil {
			return nil, &core.IntrospectionError{Table: table, Query: indexesSQL, Err: err}
		}
		out = append(out, core.LiveIndex{
			Name:    name,
			Unique:  strings.Contains(def, " UNIQUE "),
			Primary: strings.HasSuffix(name, "_pkey"),
			Columns: indexColumns(def),
		})
	}
	if err := rows.Err(); err != nil {
		return nil, &core.IntrospectionError{Table: table, Query: indexesSQL, Err: err}
	}
	return out, nil
}

// indexColumns extracts the column list from an indexdef string.
func indexColumns(def string) []string {
	open := strings.Index(def, "(")
	end := strings.LastIndex(def, ")")
	if open < 0 || end <= open {
		return nil
	}
	parts := strings.Split(def[open+1:end], ",")
	cols := make([]string, 0, len(parts))
	for _, p := range parts {
		cols = append(cols, strings.Trim(strings.TrimSpace(p), `"`))
	}
	return cols
}

// RenderCreateTable emits the full CREATE TABLE without a storage clause.
func (a *Adapter) RenderCreateTable(t *core.TableSchema) string {
	return adapter.CreateTableSQL(pgdialect.Postgres, t)
}

// RenderAddColumn emits ALTER TABLE ... ADD for one column.
func (a *Adapter) RenderAddColumn(table string, col core.ColumnDefinition) string {
	return adapter.AddColumnSQL(pgdialect.Postgres, table, col)
}

// RenderAlterColumn emits a single ALTER TABLE with comma-joined actions:
// TYPE, nullability and default redefinition.
func (a *Adapter) RenderAlterColumn(table string, col core.ColumnDefinition) (string, error) {
	d := pgdialect.Postgres
	q := d.QuoteIdent(col.Name)

	actions := []string{
		"ALTER COLUMN " + q + " TYPE " + d.NativeType(col.Type),
	}
	if col.Nullable {
		actions = append(actions, "ALTER COLUMN "+q+" DROP NOT NULL")
	} else {
		actions = append(actions, "ALTER COLUMN "+q+" SET NOT NULL")
	}
	if col.Default != "" {
		actions = append(actions, "ALTER COLUMN "+q+" SET DEFAULT "+col.Default)
	}
	return "ALTER TABLE " + table + " " + strings.Join(actions, ", ") + ";", nil
}

// RenderAddConstraint emits ALTER TABLE ... ADD CONSTRAINT.
func (a *Adapter) RenderAddConstraint(table string, c core.ConstraintDefinition) (string, error) {
	return adapter.AddConstraintSQL(pgdialect.Postgres, table, c), nil
}

// RenderDropConstraint emits the standard DROP CONSTRAINT form.
func (a *Adapter) RenderDropConstraint(table string, c core.ConstraintDefinition) (string, error) {
	return adapter.DropConstraintSQL(table, c), nil
}

// Ensure Adapter implements adapter.Adapter.
var _ adapter.Adapter = (*Adapter)(nil)
