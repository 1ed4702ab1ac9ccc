// Package dialect provides the PostgreSQL dialect capability record.
// This package has no database driver dependency, so tools that only need
// dialect information can import it without pulling in the driver.
package dialect

import (
	"github.com/convergelabs/schemasync/pkg/dialect"
)

func init() {
	dialect.Register(Postgres)
}

// Postgres is the PostgreSQL dialect configuration. Auto-increment is
// expressed through the serial types, so the record carries no separate
// column clause; foreign-key enforcement has no session toggle available
// to unprivileged roles, so no statements are configured.
var Postgres = dialect.New("postgres").
	Quote(`"`, `"`).
	Schema("public").
	Alterable(true, true, true).
	Types(map[string]string{
		"integer":           "integer",
		"serial":            "serial",
		"bigserial":         "bigserial",
		"bigint":            "bigint",
		"smallint":          "smallint",
		"boolean":           "boolean",
		"character varying": "character varying",
		"character":         "character",
		"text":              "text",
		"double precision":  "double precision",
		"real":              "real",
		"numeric":           "numeric",
		"timestamp":         "timestamp",
		"date":              "date",
		"time":              "time",
		"blob":              "bytea",
	}).
	Aliases(map[string]string{
		"int2":                        "smallint",
		"int4":                        "integer",
		"int8":                        "bigint",
		"float4":                      "real",
		"float8":                      "double precision",
		"float":                       "double precision",
		"bpchar":                      "character",
		"timestamptz":                 "timestamp",
		"timestamp with time zone":    "timestamp",
		"timestamp without time zone": "timestamp",
		"timetz":                      "time",
		"time with time zone":         "time",
		"time without time zone":      "time",
	})
