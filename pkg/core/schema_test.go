package core

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func validTable() *TableSchema {
	return &TableSchema{
		Name: "clientes",
		Columns: []ColumnDefinition{
			{Name: "id", Type: "serial", Nullable: false},
			{Name: "nombre", Type: "character varying(100)", Nullable: false},
			{Name: "activo", Type: "boolean", Nullable: true, Default: "true"},
		},
		Constraints: []ConstraintDefinition{
			{Name: "clientes_pkey", Kind: PrimaryKey, Columns: []string{"id"}},
		},
	}
}

func TestTableSchema_Validate(t *testing.T) {
	tests := []struct {
		name      string
		mutate    func(*TableSchema)
		wantErr   bool
		errSubstr string
	}{
		{
			name:   "valid table",
			mutate: func(*TableSchema) {},
		},
		{
			name:      "invalid table name",
			mutate:    func(ts *TableSchema) { ts.Name = "clientes; DROP TABLE users" },
			wantErr:   true,
			errSubstr: "contains characters",
		},
		{
			name:      "no columns",
			mutate:    func(ts *TableSchema) { ts.Columns = nil },
			wantErr:   true,
			errSubstr: "at least one column",
		},
		{
			name:      "duplicate column",
			mutate:    func(ts *TableSchema) { ts.Columns = append(ts.Columns, ColumnDefinition{Name: "ID", Type: "integer"}) },
			wantErr:   true,
			errSubstr: "duplicate column",
		},
		{
			name:      "column without type",
			mutate:    func(ts *TableSchema) { ts.Columns[1].Type = "  " },
			wantErr:   true,
			errSubstr: "type is required",
		},
		{
			name:      "constraint with unknown kind",
			mutate:    func(ts *TableSchema) { ts.Constraints[0].Kind = "check" },
			wantErr:   true,
			errSubstr: "unknown kind",
		},
		{
			name:      "constraint targeting unknown column",
			mutate:    func(ts *TableSchema) { ts.Constraints[0].Columns = []string{"missing"} },
			wantErr:   true,
			errSubstr: "unknown column",
		},
		{
			name: "foreign key without target",
			mutate: func(ts *TableSchema) {
				ts.Constraints = append(ts.Constraints, ConstraintDefinition{
					Name: "fk_cliente", Kind: ForeignKey, Columns: []string{"id"},
				})
			},
			wantErr:   true,
			errSubstr: "foreign table",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ts := validTable()
			tt.mutate(ts)
			err := ts.Validate()
			if tt.wantErr {
				require.Error(t, err)
				assert.Contains(t, err.Error(), tt.errSubstr)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestTableSchema_Column(t *testing.T) {
	ts := validTable()
	require.NotNil(t, ts.Column("nombre"))
	assert.Equal(t, "nombre", ts.Column("NOMBRE").Name, "lookup is case-insensitive")
	assert.Nil(t, ts.Column("missing"))
}

func TestValidIdentifier(t *testing.T) {
	tests := []struct {
		name string
		id   string
		want bool
	}{
		{"simple", "clientes", true},
		{"underscore prefix", "_tmp", true},
		{"digits", "col2", true},
		{"empty", "", false},
		{"leading digit", "1col", false},
		{"space", "bad name", false},
		{"quote", "x`y", false},
		{"semicolon injection", "x; DROP TABLE y", false},
		{"too long", string(make([]byte, 70)), false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, ValidIdentifier(tt.id))
		})
	}
}
