// Package dialect provides the SQLite dialect capability record.
package dialect

import (
	"github.com/convergelabs/schemasync/pkg/dialect"
)

func init() {
	dialect.Register(SQLite)
}

// SQLite is the SQLite dialect configuration. SQLite cannot redefine a
// column or add a named constraint after CREATE TABLE, so the alterable
// flags are all off and the adapter reports those statement forms as
// unsupported. Serial autoincrement rides on INTEGER PRIMARY KEY, which
// CREATE TABLE rendering handles through the type map.
var SQLite = dialect.New("sqlite").
	Quote(`"`, `"`).
	ForeignKeyToggle("PRAGMA foreign_keys = OFF;", "PRAGMA foreign_keys = ON;").
	Alterable(false, false, false).
	Types(map[string]string{
		"integer":           "integer",
		"serial":            "integer",
		"bigserial":         "integer",
		"bigint":            "integer",
		"smallint":          "integer",
		"boolean":           "boolean",
		"character varying": "varchar",
		"character":         "character",
		"text":              "text",
		"double precision":  "double",
		"real":              "real",
		"numeric":           "numeric",
		"timestamp":         "timestamp",
		"date":              "date",
		"time":              "time",
		"blob":              "blob",
	}).
	Aliases(map[string]string{
		"int":              "integer",
		"varchar":          "character varying",
		"double":           "double precision",
		"float":            "double precision",
		"datetime":         "timestamp",
		"clob":             "text",
		"mediumtext":       "text",
		"longtext":         "text",
		"unsigned big int": "bigint",
	})
