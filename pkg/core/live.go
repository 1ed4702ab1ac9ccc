package core

// LiveColumn is a column as introspected from the connected database.
// Instances are produced fresh on every introspection call and never cached
// across reconciliation runs; live state may change between runs.
type LiveColumn struct {
	Name     string
	Type     string // native type string as reported by the dialect ("int(11)", "character varying(50)")
	Nullable bool
	Default  string // raw default as reported; empty when NULL/absent
	Extra    string // dialect extra info ("auto_increment" on MySQL)
}

// LiveConstraint is a named constraint as introspected from the database.
type LiveConstraint struct {
	Name    string
	Kind    ConstraintKind
	Columns []string

	ForeignTable  string
	ForeignColumn string
	OnUpdate      string
	OnDelete      string
}

// LiveIndex is an index descriptor as introspected from the database.
type LiveIndex struct {
	Name    string
	Columns []string
	Unique  bool
	Primary bool
}
