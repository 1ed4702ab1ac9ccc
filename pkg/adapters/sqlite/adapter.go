// Package sqlite provides the SQLite database adapter for schemasync.
//
// SQLite has no ALTER COLUMN and no ALTER TABLE ... ADD CONSTRAINT, so the
// corresponding render methods return core.ErrUnsupportedDDL and the caller
// decides what to do with the divergence. CREATE TABLE and ADD column work
// like the other dialects.
package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"sort"

	_ "modernc.org/sqlite" // database/sql driver

	"github.com/convergelabs/schemasync/pkg/adapter"
	sqdialect "github.com/convergelabs/schemasync/pkg/adapters/sqlite/dialect"
	"github.com/convergelabs/schemasync/pkg/core"
	"github.com/convergelabs/schemasync/pkg/dialect"
)

const listTablesSQL = `SELECT name FROM sqlite_master
WHERE type = 'table' AND name NOT LIKE 'sqlite_%'
ORDER BY name`

// Adapter implements the adapter.Adapter interface for SQLite.
type Adapter struct {
	adapter.BaseSQLAdapter
}

// New creates a new SQLite adapter instance.
// If logger is nil, a discard logger is used.
func New(logger *slog.Logger) *Adapter {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Adapter{BaseSQLAdapter: adapter.BaseSQLAdapter{Logger: logger}}
}

// Dialect returns the SQLite capability record.
func (a *Adapter) Dialect() *dialect.Dialect {
	return sqdialect.SQLite
}

// TypeEquivalent reports whether a live native type satisfies a declared type.
func (a *Adapter) TypeEquivalent(native, declared string) bool {
	return sqdialect.SQLite.TypeEquivalent(native, declared)
}

// Connect opens the database file. SQLite is file-based, so only the Path
// field of the config is consulted; an empty path opens an in-memory
// database, which the tests rely on.
func (a *Adapter) Connect(ctx context.Context, cfg core.ConnConfig) error {
	dsn := cfg.Path
	if dsn == "" {
		dsn = ":memory:"
	}

	a.Logger.Debug("connecting to sqlite", slog.String("path", dsn))

	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return &core.ConnectionError{Driver: "sqlite", Err: err}
	}
	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return &core.ConnectionError{Driver: "sqlite", Err: err}
	}

	a.DB = db
	a.Cfg = cfg

	toggle := sqdialect.SQLite.EnableFKStatement
	if cfg.DisableForeignKeys {
		toggle = sqdialect.SQLite.DisableFKStatement
	}
	if _, err := db.ExecContext(ctx, toggle); err != nil {
		_ = db.Close()
		a.DB = nil
		return &core.ConnectionError{Driver: "sqlite", Err: err}
	}
	return nil
}

// ListTables returns the user tables of the database file.
func (a *Adapter) ListTables(ctx context.Context) ([]string, error) {
	return a.QueryStrings(ctx, listTablesSQL)
}

// ColumnsOf introspects a table's live columns via PRAGMA table_info.
func (a *Adapter) ColumnsOf(ctx context.Context, table string) ([]core.LiveColumn, error) {
	if err := core.ValidateIdentifier(table); err != nil {
		return nil, err
	}

	query := fmt.Sprintf("PRAGMA table_info(%s)", table)
	rows, err := a.DB.QueryContext(ctx, query)
	if err != nil {
		return nil, &core.IntrospectionError{Table: table, Query: query, Err: err}
	}
	defer func() { _ = rows.Close() }()

	var cols []core.LiveColumn
	for rows.Next() {
		var (
			cid, notNull, pk int
			name, typ        string
			def              sql.NullString
		)
		if err := rows.Scan(&cid, &name, &typ, &notNull, &def, &pk); err != nil {
			return nil, &core.IntrospectionError{Table: table, Query: query, Err: err}
		}
		cols = append(cols, core.LiveColumn{
			Name:     name,
			Type:     typ,
			Nullable: notNull == 0 && pk == 0,
			Default:  def.String,
		})
	}
	if err := rows.Err(); err != nil {
		return nil, &core.IntrospectionError{Table: table, Query: query, Err: err}
	}
	if len(cols) == 0 {
		return nil, &core.IntrospectionError{Table: table, Query: query, Err: sql.ErrNoRows}
	}
	return cols, nil
}

// ConstraintsOf synthesizes the constraint set from PRAGMA output. SQLite
// does not name primary keys or foreign keys, so the names reported here
// follow a fixed scheme: "<table>_pkey" and "fk_<table>_<id>". Unique
// constraints keep the backing index name.
func (a *Adapter) ConstraintsOf(ctx context.Context, table string) ([]core.LiveConstraint, error) {
	if err := core.ValidateIdentifier(table); err != nil {
		return nil, err
	}

	var out []core.LiveConstraint

	pk, err := a.primaryKey(ctx, table)
	if err != nil {
		return nil, err
	}
	if pk != nil {
		out = append(out, *pk)
	}

	uniques, err := a.uniqueConstraints(ctx, table)
	if err != nil {
		return nil, err
	}
	out = append(out, uniques...)

	fks, err := a.foreignKeys(ctx, table)
	if err != nil {
		return nil, err
	}
	out = append(out, fks...)

	return out, nil
}

func (a *Adapter) primaryKey(ctx context.Context, table string) (*core.LiveConstraint, error) {
	query := fmt.Sprintf("PRAGMA table_info(%s)", table)
	rows, err := a.DB.QueryContext(ctx, query)
	if err != nil {
		return nil, &core.IntrospectionError{Table: table, Query: query, Err: err}
	}
	defer func() { _ = rows.Close() }()

	// pk holds the 1-based position of the column in the primary key.
	type pkCol struct {
		pos  int
		name string
	}
	var pkCols []pkCol
	for rows.Next() {
		var (
			cid, notNull, pk int
			name, typ        string
			def              sql.NullString
		)
		if err := rows.Scan(&cid, &name, &typ, &notNull, &def, &pk); err != nil {
			return nil, &core.IntrospectionError{Table: table, Query: query, Err: err}
		}
		if pk > 0 {
			pkCols = append(pkCols, pkCol{pos: pk, name: name})
		}
	}
	if err := rows.Err(); err != nil {
		return nil, &core.IntrospectionError{Table: table, Query: query, Err: err}
	}
	if len(pkCols) == 0 {
		return nil, nil
	}

	sort.Slice(pkCols, func(i, j int) bool { return pkCols[i].pos < pkCols[j].pos })
	lc := &core.LiveConstraint{Name: table + "_pkey", Kind: core.PrimaryKey}
	for _, c := range pkCols {
		lc.Columns = append(lc.Columns, c.name)
	}
	return lc, nil
}

func (a *Adapter) uniqueConstraints(ctx context.Context, table string) ([]core.LiveConstraint, error) {
	query := fmt.Sprintf("PRAGMA index_list(%s)", table)
	rows, err := a.DB.QueryContext(ctx, query)
	if err != nil {
		return nil, &core.IntrospectionError{Table: table, Query: query, Err: err}
	}

	type idx struct {
		name   string
		origin string
	}
	var idxs []idx
	for rows.Next() {
		var (
			seq, unique, partial int
			name, origin         string
		)
		if err := rows.Scan(&seq, &name, &unique, &origin, &partial); err != nil {
			_ = rows.Close()
			return nil, &core.IntrospectionError{Table: table, Query: query, Err: err}
		}
		// Origin "u" marks indexes created by a UNIQUE table constraint;
		// "pk" backs the primary key and "c" is a plain CREATE INDEX.
		if unique == 1 && origin == "u" {
			idxs = append(idxs, idx{name: name, origin: origin})
		}
	}
	if err := rows.Err(); err != nil {
		_ = rows.Close()
		return nil, &core.IntrospectionError{Table: table, Query: query, Err: err}
	}
	_ = rows.Close()

	var out []core.LiveConstraint
	for _, ix := range idxs {
		cols, err := a.indexColumns(ctx, table, ix.name)
		if err != nil {
			return nil, err
		}
		out = append(out, core.LiveConstraint{
			Name:    ix.name,
			Kind:    core.Unique,
			Columns: cols,
		})
	}
	return out, nil
}

func (a *Adapter) foreignKeys(ctx context.Context, table string) ([]core.LiveConstraint, error) {
	query := fmt.Sprintf("PRAGMA foreign_key_list(%s)", table)
	rows, err := a.DB.QueryContext(ctx, query)
	if err != nil {
		return nil, &core.IntrospectionError{Table: table, Query: query, Err: err}
	}
	defer func() { _ = rows.Close() }()

	var (
		out   []core.LiveConstraint
		index = make(map[int]int)
	)
	for rows.Next() {
		var (
			id, seq                                 int
			fTable, from, onUpdate, onDelete, match string
			to                                      sql.NullString
		)
		if err := rows.Scan(&id, &seq, &fTable, &from, &to, &onUpdate, &onDelete, &match); err != nil {
			return nil, &core.IntrospectionError{Table: table, Query: query, Err: err}
		}

		i, seen := index[id]
		if !seen {
			out = append(out, core.LiveConstraint{
				Name:          fmt.Sprintf("fk_%s_%d", table, id),
				Kind:          core.ForeignKey,
				ForeignTable:  fTable,
				ForeignColumn: to.String,
				OnUpdate:      onUpdate,
				OnDelete:      onDelete,
			})
			i = len(out) - 1
			index[id] = i
		}
		out[i].Columns = append(out[i].Columns, from)
	}
	if err := rows.Err(); err != nil {
		return nil, &core.IntrospectionError{Table: table, Query: query, Err: err}
	}
	return out, nil
}

// IndexesOf introspects a table's indexes via PRAGMA index_list.
func (a *Adapter) IndexesOf(ctx context.Context, table string) ([]core.LiveIndex, error) {
	if err := core.ValidateIdentifier(table); err != nil {
		return nil, err
	}

	query := fmt.Sprintf("PRAGMA index_list(%s)", table)
	rows, err := a.DB.QueryContext(ctx, query)
	if err != nil {
		return nil, &core.IntrospectionError{Table: table, Query: query, Err: err}
	}

	type idx struct {
		name    string
		unique  bool
		primary bool
	}
	var idxs []idx
	for rows.Next() {
		var (
			seq, unique, partial int
			name, origin         string
		)
		if err := rows.Scan(&seq, &name, &unique, &origin, &partial); err != nil {
			_ = rows.Close()
			return nil, &core.IntrospectionError{Table: table, Query: query, Err: err}
		}
		idxs = append(idxs, idx{name: name, unique: unique == 1, primary: origin == "pk"})
	}
	if err := rows.Err(); err != nil {
		_ = rows.Close()
		return nil, &core.IntrospectionError{Table: table, Query: query, Err: err}
	}
	_ = rows.Close()

	out := make([]core.LiveIndex, 0, len(idxs))
	for _, ix := range idxs {
		cols, err := a.indexColumns(ctx, table, ix.name)
		if err != nil {
			return nil, err
		}
		out = append(out, core.LiveIndex{
			Name:    ix.name,
			Unique:  ix.unique,
			Primary: ix.primary,
			Columns: cols,
		})
	}
	return out, nil
}

func (a *Adapter) indexColumns(ctx context.Context, table, index string) ([]string, error) {
	if err := core.ValidateIdentifier(index); err != nil {
		// Auto-generated index names contain no unsafe characters, but
		// user-created ones may; skip rather than interpolate them.
		return nil, nil
	}

	query := fmt.Sprintf("PRAGMA index_info(%s)", index)
	rows, err := a.DB.QueryContext(ctx, query)
	if err != nil {
		return nil, &core.IntrospectionError{Table: table, Query: query, Err: err}
	}
	defer func() { _ = rows.Close() }()

	var cols []string
	for rows.Next() {
		var (
			seqno, cid int
			name       sql.NullString
		)
		if err := rows.Scan(&seqno, &cid, &name); err != nil {
			return nil, &core.IntrospectionError{Table: table, Query: query, Err: err}
		}
		if name.Valid {
			cols = append(cols, name.String)
		}
	}
	if err := rows.Err(); err != nil {
		return nil, &core.IntrospectionError{Table: table, Query: query, Err: err}
	}
	return cols, nil
}

// RenderCreateTable emits the full CREATE TABLE without a storage clause.
func (a *Adapter) RenderCreateTable(t *core.TableSchema) string {
	return adapter.CreateTableSQL(sqdialect.SQLite, t)
}

// RenderAddColumn emits ALTER TABLE ... ADD for one column.
func (a *Adapter) RenderAddColumn(table string, col core.ColumnDefinition) string {
	return adapter.AddColumnSQL(sqdialect.SQLite, table, col)
}

// RenderAlterColumn is not expressible in SQLite.
func (a *Adapter) RenderAlterColumn(table string, col core.ColumnDefinition) (string, error) {
	return "", fmt.Errorf("alter column %s.%s: %w", table, col.Name, core.ErrUnsupportedDDL)
}

// RenderAddConstraint is not expressible in SQLite after CREATE TABLE.
func (a *Adapter) RenderAddConstraint(table string, c core.ConstraintDefinition) (string, error) {
	return "", fmt.Errorf("add constraint %s on %s: %w", c.Name, table, core.ErrUnsupportedDDL)
}

// RenderDropConstraint is not expressible in SQLite.
func (a *Adapter) RenderDropConstraint(table string, c core.ConstraintDefinition) (string, error) {
	return "", fmt.Errorf("drop constraint %s on %s: %w", c.Name, table, core.ErrUnsupportedDDL)
}

// Ensure Adapter implements adapter.Adapter.
var _ adapter.Adapter = (*Adapter)(nil)
