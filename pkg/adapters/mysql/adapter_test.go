package mysql

import (
	"context"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/convergelabs/schemasync/pkg/core"
)

func mockedAdapter(t *testing.T) (*Adapter, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })

	a := New(nil)
	a.DB = db
	return a, mock
}

func clientesSchema() *core.TableSchema {
	return &core.TableSchema{
		Name: "clientes",
		Columns: []core.ColumnDefinition{
			{Name: "id", Type: "serial"},
			{Name: "nombre", Type: "character varying(100)", Nullable: false},
			{Name: "email", Type: "character varying(100)", Nullable: true},
			{Name: "activo", Type: "boolean", Nullable: true, Default: "true"},
		},
		Constraints: []core.ConstraintDefinition{
			{Name: "clientes_pkey", Kind: core.PrimaryKey, Columns: []string{"id"}},
		},
	}
}

func TestRenderCreateTable_ByteContract(t *testing.T) {
	a := New(nil)
	got := a.RenderCreateTable(clientesSchema())
	want := "CREATE TABLE clientes (" +
		"`id` int NOT NULL AUTO_INCREMENT, " +
		"`nombre` varchar(100) NOT NULL, " +
		"`email` varchar(100) NULL, " +
		"`activo` boolean NULL DEFAULT true, " +
		"CONSTRAINT clientes_pkey PRIMARY KEY (`id`)" +
		") ENGINE=InnoDB DEFAULT CHARSET=utf8 COLLATE=utf8_bin;"
	assert.Equal(t, want, got)
}

func TestRenderCreateTable_Deterministic(t *testing.T) {
	a := New(nil)
	s := clientesSchema()
	assert.Equal(t, a.RenderCreateTable(s), a.RenderCreateTable(s))
}

func TestRenderAddColumn_ByteContract(t *testing.T) {
	a := New(nil)
	got := a.RenderAddColumn("x", core.ColumnDefinition{
		Name: "email", Type: "character varying(100)", Nullable: true,
	})
	assert.Equal(t, "ALTER TABLE x ADD `email` varchar(100) NULL;", got)
}

func TestRenderAlterColumn(t *testing.T) {
	a := New(nil)
	got, err := a.RenderAlterColumn("clientes", core.ColumnDefinition{
		Name: "nombre", Type: "character varying(150)", Nullable: false,
	})
	require.NoError(t, err)
	assert.Equal(t, "ALTER TABLE clientes MODIFY `nombre` varchar(150) NOT NULL;", got)
}

func TestRenderAddConstraint_ForeignKey(t *testing.T) {
	a := New(nil)
	got, err := a.RenderAddConstraint("albaranes", core.ConstraintDefinition{
		Name:          "fk_cliente",
		Kind:          core.ForeignKey,
		Columns:       []string{"codcliente"},
		ForeignTable:  "clientes",
		ForeignColumn: "id",
		OnDelete:      "cascade",
	})
	require.NoError(t, err)
	assert.Equal(t,
		"ALTER TABLE albaranes ADD CONSTRAINT fk_cliente FOREIGN KEY (`codcliente`) REFERENCES clientes (`id`) ON DELETE CASCADE;",
		got)
}

func TestRenderDropConstraint_KindForms(t *testing.T) {
	a := New(nil)
	tests := []struct {
		name string
		c    core.ConstraintDefinition
		want string
	}{
		{
			name: "primary key",
			c:    core.ConstraintDefinition{Name: "clientes_pkey", Kind: core.PrimaryKey},
			want: "ALTER TABLE clientes DROP PRIMARY KEY;",
		},
		{
			name: "foreign key",
			c:    core.ConstraintDefinition{Name: "fk_cliente", Kind: core.ForeignKey},
			want: "ALTER TABLE clientes DROP FOREIGN KEY fk_cliente;",
		},
		{
			name: "unique",
			c:    core.ConstraintDefinition{Name: "uq_email", Kind: core.Unique},
			want: "ALTER TABLE clientes DROP INDEX uq_email;",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := a.RenderDropConstraint("clientes", tt.c)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestColumnsOf_ParsesShowColumns(t *testing.T) {
	a, mock := mockedAdapter(t)

	rows := sqlmock.NewRows([]string{"Field", "Type", "Null", "Key", "Default", "Extra"}).
		AddRow("id", "int(11)", "NO", "PRI", nil, "auto_increment").
		AddRow("activo", "tinyint(1)", "YES", "", "1", "").
		AddRow("email", "varchar(100)", "YES", "", nil, "")
	mock.ExpectQuery("SHOW COLUMNS FROM clientes").WillReturnRows(rows)

	cols, err := a.ColumnsOf(context.Background(), "clientes")
	require.NoError(t, err)
	require.Len(t, cols, 3)

	assert.Equal(t, core.LiveColumn{Name: "id", Type: "int(11)", Nullable: false, Extra: "auto_increment"}, cols[0])
	assert.Equal(t, "tinyint(1)", cols[1].Type)
	assert.True(t, cols[1].Nullable)
	assert.Equal(t, "1", cols[1].Default)
}

func TestColumnsOf_RejectsUnsafeTableName(t *testing.T) {
	a, _ := mockedAdapter(t)
	_, err := a.ColumnsOf(context.Background(), "clientes; DROP TABLE x")
	assert.Error(t, err)
}

func TestColumnsOf_QueryFailureIsIntrospectionError(t *testing.T) {
	a, mock := mockedAdapter(t)
	mock.ExpectQuery("SHOW COLUMNS FROM desaparecida").WillReturnError(assert.AnError)

	_, err := a.ColumnsOf(context.Background(), "desaparecida")
	require.Error(t, err)

	var ie *core.IntrospectionError
	require.ErrorAs(t, err, &ie)
	assert.Equal(t, "desaparecida", ie.Table)
}

func TestConstraintsOf_GroupsByName(t *testing.T) {
	a, mock := mockedAdapter(t)

	rows := sqlmock.NewRows([]string{
		"constraint_name", "constraint_type", "column_name",
		"referenced_table_name", "referenced_column_name", "update_rule", "delete_rule",
	}).
		AddRow("PRIMARY", "PRIMARY KEY", "id", nil, nil, nil, nil).
		AddRow("fk_cliente", "FOREIGN KEY", "codcliente", "clientes", "id", "RESTRICT", "CASCADE").
		AddRow("uq_codigo", "UNIQUE", "codigo", nil, nil, nil, nil).
		AddRow("uq_codigo", "UNIQUE", "ejercicio", nil, nil, nil, nil)
	mock.ExpectQuery("information_schema.table_constraints").
		WithArgs("albaranes").
		WillReturnRows(rows)

	cs, err := a.ConstraintsOf(context.Background(), "albaranes")
	require.NoError(t, err)
	require.Len(t, cs, 3)

	assert.Equal(t, core.PrimaryKey, cs[0].Kind)
	assert.Equal(t, []string{"id"}, cs[0].Columns)

	assert.Equal(t, core.ForeignKey, cs[1].Kind)
	assert.Equal(t, "clientes", cs[1].ForeignTable)
	assert.Equal(t, "id", cs[1].ForeignColumn)
	assert.Equal(t, "CASCADE", cs[1].OnDelete)

	assert.Equal(t, []string{"codigo", "ejercicio"}, cs[2].Columns, "multi-column constraints group by name")
}

func TestListTables(t *testing.T) {
	a, mock := mockedAdapter(t)
	rows := sqlmock.NewRows([]string{"Tables_in_db"}).AddRow("clientes").AddRow("proveedores")
	mock.ExpectQuery("SHOW TABLES").WillReturnRows(rows)

	tables, err := a.ListTables(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []string{"clientes", "proveedores"}, tables)
}

func TestBuildDSN(t *testing.T) {
	tests := []struct {
		name string
		cfg  core.ConnConfig
		want string
	}{
		{
			name: "defaults",
			cfg:  core.ConnConfig{User: "root", Database: "app"},
			want: "root@tcp(localhost:3306)/app",
		},
		{
			name: "full",
			cfg:  core.ConnConfig{User: "fs", Password: "s3cret", Host: "db.internal", Port: 3307, Database: "contab"},
			want: "fs:s3cret@tcp(db.internal:3307)/contab",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, buildDSN(tt.cfg))
		})
	}
}
