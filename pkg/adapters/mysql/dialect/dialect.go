// Package dialect provides the MySQL dialect capability record.
// This package has no database driver dependency, so tools that only need
// dialect information can import it without pulling in the driver.
package dialect

import (
	"github.com/convergelabs/schemasync/pkg/dialect"
)

func init() {
	dialect.Register(MySQL)
}

// MySQL is the MySQL/MariaDB dialect configuration.
var MySQL = dialect.New("mysql").
	Quote("`", "`").
	Schema("").
	WithCreateSuffix(" ENGINE=InnoDB DEFAULT CHARSET=utf8 COLLATE=utf8_bin").
	WithAutoIncrement("AUTO_INCREMENT").
	ForeignKeyToggle("SET FOREIGN_KEY_CHECKS = 0;", "SET FOREIGN_KEY_CHECKS = 1;").
	Alterable(true, true, true).
	Types(map[string]string{
		"integer":           "int",
		"serial":            "int",
		"bigserial":         "bigint",
		"bigint":            "bigint",
		"smallint":          "smallint",
		"boolean":           "boolean",
		"character varying": "varchar",
		"character":         "char",
		"text":              "text",
		"double precision":  "double",
		"real":              "float",
		"numeric":           "decimal",
		"timestamp":         "timestamp",
		"date":              "date",
		"time":              "time",
		"blob":              "blob",
	}).
	BoolAlias("tinyint(1)", "boolean")
