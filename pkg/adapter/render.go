package adapter

import (
	"strings"

	"github.com/convergelabs/schemasync/pkg/core"
	"github.com/convergelabs/schemasync/pkg/dialect"
)

// Shared DDL rendering. Table and constraint names pass the core identifier
// allow-list before they reach these functions, so they are interpolated
// bare; column identifiers are quoted with the dialect's quote characters.

// ColumnSQL renders one column definition fragment:
//
//	`email` varchar(100) NULL
//	`id` int NOT NULL AUTO_INCREMENT
func ColumnSQL(d *dialect.Dialect, col core.ColumnDefinition) string {
	var b strings.Builder
	b.WriteString(d.QuoteIdent(col.Name))
	b.WriteByte(' ')
	b.WriteString(d.NativeType(col.Type))

	serial := isSerialType(col.Type)
	if serial || !col.Nullable {
		b.WriteString(" NOT NULL")
	} else {
		b.WriteString(" NULL")
	}

	if serial {
		if d.AutoIncrement != "" {
			b.WriteByte(' ')
			b.WriteString(d.AutoIncrement)
		}
		return b.String()
	}

	if col.Default != "" {
		b.WriteString(" DEFAULT ")
		b.WriteString(col.Default)
	}
	return b.String()
}

// ConstraintSQL renders the body of a named constraint, without the
// leading ALTER/ADD keywords:
//
//	CONSTRAINT fk_cliente FOREIGN KEY (`codcliente`) REFERENCES clientes (`id`) ON DELETE CASCADE
func ConstraintSQL(d *dialect.Dialect, c core.ConstraintDefinition) string {
	var b strings.Builder
	b.WriteString("CONSTRAINT ")
	b.WriteString(c.Name)
	b.WriteByte(' ')

	switch c.Kind {
	case core.PrimaryKey:
		b.WriteString("PRIMARY KEY (")
		b.WriteString(quoteJoin(d, c.Columns))
		b.WriteByte(')')
	case core.Unique:
		b.WriteString("UNIQUE (")
		b.WriteString(quoteJoin(d, c.Columns))
		b.WriteByte(')')
	case core.ForeignKey:
		b.WriteString("FOREIGN KEY (")
		b.WriteString(quoteJoin(d, c.Columns))
		b.WriteString(") REFERENCES ")
		b.WriteString(c.ForeignTable)
		b.WriteString(" (")
		b.WriteString(d.QuoteIdent(c.ForeignColumn))
		b.WriteByte(')')
		if c.OnDelete != "" {
			b.WriteString(" ON DELETE ")
			b.WriteString(strings.ToUpper(c.OnDelete))
		}
		if c.OnUpdate != "" {
			b.WriteString(" ON UPDATE ")
			b.WriteString(strings.ToUpper(c.OnUpdate))
		}
	}
	return b.String()
}

// CreateTableSQL renders one CREATE TABLE with all columns and inline
// constraints, terminated with the dialect's trailer.
func CreateTableSQL(d *dialect.Dialect, t *core.TableSchema) string {
	parts := make([]string, 0, len(t.Columns)+len(t.Constraints))
	for _, col := range t.Columns {
		parts = append(parts, ColumnSQL(d, col))
	}
	for _, c := range t.Constraints {
		parts = append(parts, ConstraintSQL(d, c))
	}
	return "CREATE TABLE " + t.Name + " (" + strings.Join(parts, ", ") + ")" + d.CreateSuffix + ";"
}

// AddColumnSQL renders the ALTER TABLE ... ADD for one column.
func AddColumnSQL(d *dialect.Dialect, table string, col core.ColumnDefinition) string {
	return "ALTER TABLE " + table + " ADD " + ColumnSQL(d, col) + ";"
}

// AddConstraintSQL renders the ALTER TABLE ... ADD CONSTRAINT form shared
// by MySQL and PostgreSQL.
func AddConstraintSQL(d *dialect.Dialect, table string, c core.ConstraintDefinition) string {
	return "ALTER TABLE " + table + " ADD " + ConstraintSQL(d, c) + ";"
}

// DropConstraintSQL renders the standard DROP CONSTRAINT form. MySQL
// overrides this per constraint kind.
func DropConstraintSQL(table string, c core.ConstraintDefinition) string {
	return "ALTER TABLE " + table + " DROP CONSTRAINT " + c.Name + ";"
}

func quoteJoin(d *dialect.Dialect, cols []string) string {
	quoted := make([]string, len(cols))
	for i, c := range cols {
		quoted[i] = d.QuoteIdent(c)
	}
	return strings.Join(quoted, ", ")
}

func isSerialType(declared string) bool {
	switch strings.ToLower(strings.TrimSpace(declared)) {
	case "serial", "bigserial":
		return true
	}
	return false
}
