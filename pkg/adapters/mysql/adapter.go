// Package mysql provides the MySQL database adapter for schemasync.
package mysql

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"strings"

	"github.com/convergelabs/schemasync/pkg/adapter"
	mysqldialect "github.com/convergelabs/schemasync/pkg/adapters/mysql/dialect"
	"github.com/convergelabs/schemasync/pkg/core"
	"github.com/convergelabs/schemasync/pkg/dialect"
	_ "github.com/go-sql-driver/mysql" // database/sql driver
)

// Introspection query templates. SHOW statements cannot be parameterized,
// so table names are validated against the identifier allow-list before
// interpolation.
const (
	listTablesSQL  = "SHOW TABLES"
	showColumnsSQL = "SHOW COLUMNS FROM %s;"
	showIndexesSQL = "SHOW INDEXES FROM %s;"

	constraintsSQL = `SELECT
	tc.constraint_name,
	tc.constraint_type,
	kcu.column_name,
	kcu.referenced_table_name,
	kcu.referenced_column_name,
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
WHERE tc.table_schema = DATABASE() AND tc.table_name = ?
ORDER BY tc.constraint_name, kcu.ordinal_position`
)

// Adapter implements the adapter.Adapter interface for MySQL.
type Adapter struct {
	adapter.BaseSQLAdapter
}

// New creates a new MySQL adapter instance.
// If logger is nil, a discard logger is used.
func New(logger *slog.Logger) *Adapter {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Adapter{
		BaseSQLAdapter: adapter.BaseSQLAdapter{Logger: logger},
	}
}

// Dialect returns the MySQL capability record.
func (a *Adapter) Dialect() *dialect.Dialect {
	return mysqldialect.MySQL
}

// TypeEquivalent reports whether a live native type satisfies a declared type.
func (a *Adapter) TypeEquivalent(native, declared string) bool {
	return mysqldialect.MySQL.TypeEquivalent(native, declared)
}

// Connect establishes a connection to MySQL.
func (a *Adapter) Connect(ctx context.Context, cfg core.ConnConfig) error {
	dsn := buildDSN(cfg)

	a.Logger.Debug("connecting to mysql", slog.String("host", cfg.Host), slog.String("database", cfg.Database))

	db, err := sql.Open("mysql", dsn)
	if err != nil {
		return &core.ConnectionError{Driver: "mysql", Err: err}
	}

	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return &core.ConnectionError{Driver: "mysql", Err: err}
	}

	a.DB = db
	a.Cfg = cfg

	if cfg.DisableForeignKeys {
		if _, err := a.DB.ExecContext(ctx, mysqldialect.MySQL.DisableFKStatement); err != nil {
			_ = db.Close()
			a.DB = nil
			return &core.ConnectionError{Driver: "mysql", Err: fmt.Errorf("disable foreign keys: %w", err)}
		}
	}
	return nil
}

// buildDSN constructs a go-sql-driver DSN: user:pass@tcp(host:port)/dbname.
func buildDSN(cfg core.ConnConfig) string {
	host := cfg.Host
	if host == "" {
		host = "localhost"
	}
	port := cfg.Port
	if port == 0 {
		port = 3306
	}

	cred := cfg.User
	if cfg.Password != "" {
		cred += ":" + cfg.Password
	}

	dsn := fmt.Sprintf("%s@tcp(%s:%d)/%s", cred, host, port, cfg.Database)

	params := make([]string, 0, len(cfg.Options))
	for k, v := range cfg.Options {
		params = append(params, k+"="+v)
	}
	if len(params) > 0 {
		dsn += "?" + strings.Join(params, "&")
	}
	return dsn
}

// ListTables returns the tables of the connected database.
func (a *Adapter) ListTables(ctx context.Context) ([]string, error) {
	return a.QueryStrings(ctx, listTablesSQL)
}

// ColumnsOf introspects a table's live columns via SHOW COLUMNS.
func (a *Adapter) ColumnsOf(ctx context.Context, table string) ([]core.LiveColumn, error) {
	if err := core.ValidateIdentifier(table); err != nil {
		return nil, err
	}
	query := fmt.Sprintf(showColumnsSQL, table)

	rows, err := a.DB.QueryContext(ctx, query)
	if err != nil {
		return nil, &core.IntrospectionError{Table: table, Query: query, Err: err}
	}
	defer func() { _ = rows.Close() }()

	var cols []core.LiveColumn
	for rows.Next() {
		var (
			field, typ, null string
			key              sql.NullString
			def, extra       sql.NullString
		)
		if err := rows.Scan(&field, &typ, &null, &key, &def, &extra); err != nil {
			return nil, &core.IntrospectionError{Table: table, Query: query, Err: err}
		}
		cols = append(cols, core.LiveColumn{
			Name:     field,
			Type:     typ,
			Nullable: strings.EqualFold(null, "YES"),
			Default:  def.String,
			Extra:    extra.String,
		})
	}
	if err := rows.Err(); err != nil {
		return nil, &core.IntrospectionError{Table: table, Query: query, Err: err}
	}
	return cols, nil
}

// ConstraintsOf introspects a table's named constraints from
// information_schema, grouping multi-column constraints by name.
func (a *Adapter) ConstraintsOf(ctx context.Context, table string) ([]core.LiveConstraint, error) {
	if err := core.ValidateIdentifier(table); err != nil {
		return nil, err
	}

	rows, err := a.DB.QueryContext(ctx, constraintsSQL, table)
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
			out = append(out, core.LiveConstraint{
				Name:          name,
				Kind:          kind,
				ForeignTable:  fTable.String,
				ForeignColumn: fColumn.String,
				OnUpdate:      updateRule.String,
				OnDelete:      deleteRule.String,
			})
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
	// CHECK and others are outside the managed set.
	return "", false
}

// IndexesOf introspects a table's indexes via SHOW INDEXES.
func (a *Adapter) IndexesOf(ctx context.Context, table string) ([]core.LiveIndex, error) {
	if err := core.ValidateIdentifier(table); err != nil {
		return nil, err
	}
	query := fmt.Sprintf(showIndexesSQL, table)

	rows, err := a.DB.QueryContext(ctx, query)
	if err != nil {
		return nil, &core.IntrospectionError{Table: table, Query: query, Err: err}
	}
	defer func() { _ = rows.Close() }()

	columns, err := rows.Columns()
	if err != nil {
		return nil, &core.IntrospectionError{Table: table, Query: query, Err: err}
	}

	// SHOW INDEXES has a version-dependent column count; scan positionally
	// into the handful of fields we use.
	var (
		out   []core.LiveIndex
		index = make(map[string]int)
	)
	for rows.Next() {
		values := make([]any, len(columns))
		ptrs := make([]any, len(columns))
		for i := range values {
			ptrs[i] = &values[i]
		}
		if err := rows.Scan(ptrs...); err != nil {
			return nil, &core.IntrospectionError{Table: table, Query: query, Err: err}
		}

		fields := make(map[string]string, len(columns))
		for i, col := range columns {
			fields[strings.ToLower(col)] = asString(values[i])
		}

		name := fields["key_name"]
		i, seen := index[name]
		if !seen {
			out = append(out, core.LiveIndex{
				Name:    name,
				Unique:  fields["non_unique"] == "0",
				Primary: name == "PRIMARY",
			})
			i = len(out) - 1
			index[name] = i
		}
		out[i].Columns = append(out[i].Columns, fields["column_name"])
	}
	if err := rows.Err(); err != nil {
		return nil, &core.IntrospectionError{Table: table, Query: query, Err: err}
	}
	return out, nil
}

func asString(v any) string {
	switch x := v.(type) {
	case nil:
		return ""
	case string:
		return x
	case []byte:
		return string(x)
	default:
		return fmt.Sprintf("%v", x)
	}
}

// RenderCreateTable emits the full CREATE TABLE with the InnoDB storage clause.
func (a *Adapter) RenderCreateTable(t *core.TableSchema) string {
	return adapter.CreateTableSQL(mysqldialect.MySQL, t)
}

// RenderAddColumn emits ALTER TABLE ... ADD for one column.
func (a *Adapter) RenderAddColumn(table string, col core.ColumnDefinition) string {
	return adapter.AddColumnSQL(mysqldialect.MySQL, table, col)
}

// RenderAlterColumn emits the MODIFY form that redefines a column in place.
func (a *Adapter) RenderAlterColumn(table string, col core.ColumnDefinition) (string, error) {
	return "ALTER TABLE " + table + " MODIFY " + adapter.ColumnSQL(mysqldialect.MySQL, col) + ";", nil
}

// RenderAddConstraint emits ALTER TABLE ... ADD CONSTRAINT.
func (a *Adapter) RenderAddConstraint(table string, c core.ConstraintDefinition) (string, error) {
	return adapter.AddConstraintSQL(mysqldialect.MySQL, table, c), nil
}

// RenderDropConstraint emits the kind-specific drop form: MySQL has no
// generic DROP CONSTRAINT on the versions this targets.
func (a *Adapter) RenderDropConstraint(table string, c core.ConstraintDefinition) (string, error) {
	switch c.Kind {
	case core.PrimaryKey:
		return "ALTER TABLE " + table + " DROP PRIMARY KEY;", nil
	case core.ForeignKey:
		return "ALTER TABLE " + table + " DROP FOREIGN KEY " + c.Name + ";", nil
	case core.Unique:
		return "ALTER TABLE " + table + " DROP INDEX " + c.Name + ";", nil
	}
	return "", fmt.Errorf("constraint %s: unknown kind %q", c.Name, c.Kind)
}

// Ensure Adapter implements adapter.Adapter.
var _ adapter.Adapter = (*Adapter)(nil)
