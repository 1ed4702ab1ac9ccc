package core

import (
	"fmt"
	"strings"
)

// ConstraintKind classifies a named table constraint.
type ConstraintKind string

const (
	PrimaryKey ConstraintKind = "primary"
	Unique     ConstraintKind = "unique"
	ForeignKey ConstraintKind = "foreign"
)

// Valid reports whether the kind is one schemasync manages.
func (k ConstraintKind) Valid() bool {
	switch k {
	case PrimaryKey, Unique, ForeignKey:
		return true
	}
	return false
}

// ColumnDefinition is a declared column in the desired schema.
// Type holds the abstract declared type ("integer", "serial", "boolean",
// "character varying(100)", "double precision", ...) which each dialect
// maps to its native spelling.
type ColumnDefinition struct {
	Name     string
	Type     string
	Nullable bool
	// Default is the declared DEFAULT expression, rendered verbatim into
	// DDL ("'0'", "true", "now()"). Empty means no default.
	Default string
}

// ConstraintDefinition is a declared named constraint.
type ConstraintDefinition struct {
	Name    string
	Kind    ConstraintKind
	Columns []string

	// Foreign key detail; set only when Kind == ForeignKey.
	ForeignTable  string
	ForeignColumn string
	OnUpdate      string
	OnDelete      string
}

// TableSchema is the authoritative desired definition of one table.
// It is constructed once per reconciliation pass from the schema source
// and discarded afterward; the live schema is derived and disposable.
type TableSchema struct {
	Name        string
	Columns     []ColumnDefinition
	Constraints []ConstraintDefinition
}

// Column returns the column with the given name (case-insensitive), or nil.
func (t *TableSchema) Column(name string) *ColumnDefinition {
	for i := range t.Columns {
		if strings.EqualFold(t.Columns[i].Name, name) {
			return &t.Columns[i]
		}
	}
	return nil
}

// Validate checks that every identifier in the table is safe to interpolate
// into DDL and that constraint definitions are internally consistent.
// Identifiers come from user-editable schema files, so everything that ends
// up inside a rendered statement must pass the allow-list.
func (t *TableSchema) Validate() error {
	if err := ValidateIdentifier(t.Name); err != nil {
		return fmt.Errorf("table: %w", err)
	}
	if len(t.Columns) == 0 {
		return fmt.Errorf("table %s: at least one column is required", t.Name)
	}
	seen := make(map[string]bool, len(t.Columns))
	for _, col := range t.Columns {
		if err := ValidateIdentifier(col.Name); err != nil {
			return fmt.Errorf("table %s: column: %w", t.Name, err)
		}
		lower := strings.ToLower(col.Name)
		if seen[lower] {
			return fmt.Errorf("table %s: duplicate column %q", t.Name, col.Name)
		}
		seen[lower] = true
		if strings.TrimSpace(col.Type) == "" {
			return fmt.Errorf("table %s: column %s: type is required", t.Name, col.Name)
		}
	}
	for _, c := range t.Constraints {
		if err := t.validateConstraint(c); err != nil {
			return err
		}
	}
	return nil
}

func (t *TableSchema) validateConstraint(c ConstraintDefinition) error {
	if err := ValidateIdentifier(c.Name); err != nil {
		return fmt.Errorf("table %s: constraint: %w", t.Name, err)
	}
	if !c.Kind.Valid() {
		return fmt.Errorf("table %s: constraint %s: unknown kind %q", t.Name, c.Name, c.Kind)
	}
	if len(c.Columns) == 0 {
		return fmt.Errorf("table %s: constraint %s: target columns are required", t.Name, c.Name)
	}
	for _, col := range c.Columns {
		if t.Column(col) == nil {
			return fmt.Errorf("table %s: constraint %s: unknown column %q", t.Name, c.Name, col)
		}
	}
	if c.Kind == ForeignKey {
		if err := ValidateIdentifier(c.ForeignTable); err != nil {
			return fmt.Errorf("table %s: constraint %s: foreign table: %w", t.Name, c.Name, err)
		}
		if err := ValidateIdentifier(c.ForeignColumn); err != nil {
			return fmt.Errorf("table %s: constraint %s: foreign column: %w", t.Name, c.Name, err)
		}
	}
	return nil
}
