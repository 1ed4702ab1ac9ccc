// Package dialect provides per-database capability records and the
// type-equivalence rules used by the schema reconciler.
//
// A Dialect is configuration, not mutable state: quote characters,
// auto-increment syntax, the declared-type to native-type table, and the
// statements used to toggle foreign-key enforcement. Concrete dialects are
// registered from pkg/adapters/*/dialect packages.
package dialect

import "strings"

// Dialect is the capability record for one SQL database product.
type Dialect struct {
	Name          string
	DefaultSchema string

	// QuoteOpen/QuoteClose wrap column and constraint identifiers in
	// rendered DDL (backticks on MySQL, double quotes elsewhere).
	QuoteOpen  string
	QuoteClose string

	// CreateSuffix is appended to CREATE TABLE before the terminating
	// semicolon (storage engine/charset clause on MySQL, empty elsewhere).
	CreateSuffix string

	// AutoIncrement is the column clause for auto-increment columns, or
	// empty when the dialect expresses it through the type itself (serial).
	AutoIncrement string

	// DisableFKStatement/EnableFKStatement toggle foreign-key enforcement
	// for the session. Empty means the dialect has no session-level toggle.
	DisableFKStatement string
	EnableFKStatement  string

	// Capabilities for ALTER forms the reconciler may need.
	CanAlterColumn    bool
	CanAddConstraint  bool
	CanDropConstraint bool

	typeMap     map[string]string // declared base type -> native base type
	typeAliases map[string]string // native spelling -> canonical spelling
	boolAliases map[string]string // native type string -> declared boolean spelling
}

// New returns an empty dialect record with the given name. Configure it
// with the chained setters and register it with Register.
func New(name string) *Dialect {
	return &Dialect{
		Name:        name,
		typeMap:     make(map[string]string),
		typeAliases: make(map[string]string),
		boolAliases: make(map[string]string),
	}
}

// Quote sets the identifier quoting characters.
func (d *Dialect) Quote(open, close string) *Dialect {
	d.QuoteOpen, d.QuoteClose = open, close
	return d
}

// Schema sets the default schema name.
func (d *Dialect) Schema(s string) *Dialect {
	d.DefaultSchema = s
	return d
}

// WithCreateSuffix sets the CREATE TABLE trailer.
func (d *Dialect) WithCreateSuffix(s string) *Dialect {
	d.CreateSuffix = s
	return d
}

// WithAutoIncrement sets the auto-increment column clause.
func (d *Dialect) WithAutoIncrement(s string) *Dialect {
	d.AutoIncrement = s
	return d
}

// ForeignKeyToggle sets the session statements that disable and re-enable
// foreign-key enforcement.
func (d *Dialect) ForeignKeyToggle(disable, enable string) *Dialect {
	d.DisableFKStatement, d.EnableFKStatement = disable, enable
	return d
}

// Alterable declares which ALTER forms the dialect supports.
func (d *Dialect) Alterable(alterColumn, addConstraint, dropConstraint bool) *Dialect {
	d.CanAlterColumn = alterColumn
	d.CanAddConstraint = addConstraint
	d.CanDropConstraint = dropConstraint
	return d
}

// Types sets the declared-type to native-type table. Keys and values are
// base type names without length parameters.
func (d *Dialect) Types(m map[string]string) *Dialect {
	for k, v := range m {
		d.typeMap[strings.ToLower(k)] = strings.ToLower(v)
	}
	return d
}

// Aliases sets native type spellings that normalize to a canonical spelling
// before comparison ("timestamp without time zone" -> "timestamp").
func (d *Dialect) Aliases(m map[string]string) *Dialect {
	for k, v := range m {
		d.typeAliases[strings.ToLower(k)] = strings.ToLower(v)
	}
	return d
}

// BoolAlias records a native type string that the dialect reports for a
// declared boolean ("tinyint(1)" on MySQL).
func (d *Dialect) BoolAlias(native, declared string) *Dialect {
	d.boolAliases[strings.ToLower(native)] = strings.ToLower(declared)
	return d
}

// QuoteIdent wraps an identifier in the dialect's quote characters.
func (d *Dialect) QuoteIdent(name string) string {
	return d.QuoteOpen + name + d.QuoteClose
}

// NativeType maps a declared abstract type to the dialect's native spelling,
// preserving any length parameter ("character varying(50)" -> "varchar(50)"
// on MySQL). Unknown types pass through unchanged.
func (d *Dialect) NativeType(declared string) string {
	lower := strings.ToLower(strings.TrimSpace(declared))
	tok, ok := parseTypeToken(lower)
	if !ok {
		return lower
	}
	native, mapped := d.typeMap[tok.name]
	if !mapped {
		return lower
	}
	if tok.hasLength {
		return native + "(" + tok.length + ")"
	}
	return native
}
