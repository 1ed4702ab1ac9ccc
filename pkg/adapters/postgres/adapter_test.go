package postgres

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

func TestBuildDSN(t *testing.T) {
	tests := []struct {
		name string
		cfg  core.ConnConfig
		want string
	}{
		{
			name: "defaults",
			cfg:  core.ConnConfig{Database: "tienda"},
			want: "host=localhost port=5432 dbname=tienda sslmode=disable",
		},
		{
			name: "full",
			cfg: core.ConnConfig{
				Host: "db.internal", Port: 5433, Database: "tienda",
				User: "app", Password: "secret",
				Options: map[string]string{"sslmode": "require"},
			},
			want: "host=db.internal port=5433 dbname=tienda sslmode=require user=app password=secret",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, buildDSN(tt.cfg))
		})
	}
}

func TestRenderCreateTable(t *testing.T) {
	a := New(nil)
	got := a.RenderCreateTable(&core.TableSchema{
		Name: "clientes",
		Columns: []core.ColumnDefinition{
			{Name: "id", Type: "serial"},
			{Name: "nombre", Type: "character varying(100)", Nullable: false},
			{Name: "activo", Type: "boolean", Nullable: true, Default: "true"},
		},
		Constraints: []core.ConstraintDefinition{
			{Name: "clientes_pkey", Kind: core.PrimaryKey, Columns: []string{"id"}},
		},
	})
	want := "CREATE TABLE clientes (" +
		`"id" serial NOT NULL, ` +
		`"nombre" character varying(100) NOT NULL, ` +
		`"activo" boolean NULL DEFAULT true, ` +
		`CONSTRAINT clientes_pkey PRIMARY KEY ("id")` +
		");"
	assert.Equal(t, want, got)
}

func TestRenderAlterColumn(t *testing.T) {
	a := New(nil)

	got, err := a.RenderAlterColumn("clientes", core.ColumnDefinition{
		Name: "nombre", Type: "character varying(150)", Nullable: false,
	})
	require.NoError(t, err)
	assert.Equal(t,
		`ALTER TABLE clientes ALTER COLUMN "nombre" TYPE character varying(150), ALTER COLUMN "nombre" SET NOT NULL;`,
		got)

	got, err = a.RenderAlterColumn("clientes", core.ColumnDefinition{
		Name: "email", Type: "text", Nullable: true, Default: "''",
	})
	require.NoError(t, err)
	assert.Equal(t,
		`ALTER TABLE clientes ALTER COLUMN "email" TYPE text, ALTER COLUMN "email" DROP NOT NULL, ALTER COLUMN "email" SET DEFAULT '';`,
		got)
}

func TestRenderDropConstraint(t *testing.T) {
	a := New(nil)
	got, err := a.RenderDropConstraint("albaranes", core.ConstraintDefinition{
		Name: "fk_cliente", Kind: core.ForeignKey,
	})
	require.NoError(t, err)
	assert.Equal(t, "ALTER TABLE albaranes DROP CONSTRAINT fk_cliente;", got)
}

func TestColumnsOf(t *testing.T) {
	a, mock := mockedAdapter(t)

	rows := sqlmock.NewRows([]string{
		"column_name", "data_type", "character_maximum_length", "is_nullable", "column_default",
	}).
		AddRow("id", "integer", nil, "NO", "nextval('clientes_id_seq'::regclass)").
		AddRow("nombre", "character varying", 100, "NO", nil).
		AddRow("activo", "boolean", nil, "YES", "true")

	mock.ExpectQuery("FROM information_schema.columns").
		WithArgs("public", "clientes").
		WillReturnRows(rows)

	cols, err := a.ColumnsOf(context.Background(), "clientes")
	require.NoError(t, err)
	require.Len(t, cols, 3)

	assert.Equal(t, core.LiveColumn{
		Name: "id", Type: "integer", Nullable: false,
		Default: "nextval('clientes_id_seq'::regclass)",
	}, cols[0])
	// character_maximum_length is folded back into the type spelling.
	assert.Equal(t, "character varying(100)", cols[1].Type)
	assert.True(t, cols[2].Nullable)

	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestColumnsOf_RejectsUnsafeTableName(t *testing.T) {
	a, _ := mockedAdapter(t)
	_, err := a.ColumnsOf(context.Background(), "clientes; DROP TABLE clientes")
	assert.Error(t, err)
}

func TestConstraintsOf_GroupsByName(t *testing.T) {
	a, mock := mockedAdapter(t)

	rows := sqlmock.NewRows([]string{
		"constraint_name", "constraint_type", "column_name",
		"foreign_table", "foreign_column", "update_rule", "delete_rule",
	}).
		AddRow("albaranes_pkey", "PRIMARY KEY", "id", nil, nil, nil, nil).
		AddRow("fk_cliente", "FOREIGN KEY", "codcliente", "clientes", "id", "NO ACTION", "CASCADE").
		AddRow("uq_par", "UNIQUE", "codalmacen", nil, nil, nil, nil).
		AddRow("uq_par", "UNIQUE", "codserie", nil, nil, nil, nil).
		AddRow("c_checks", "CHECK", nil, nil, nil, nil, nil)

	mock.ExpectQuery("FROM information_schema.table_constraints").
		WithArgs("public", "albaranes").
		WillReturnRows(rows)

	cons, err := a.ConstraintsOf(context.Background(), "albaranes")
	require.NoError(t, err)
	require.Len(t, cons, 3, "CHECK constraints are not managed")

	assert.Equal(t, core.PrimaryKey, cons[0].Kind)
	assert.Equal(t, []string{"id"}, cons[0].Columns)

	fk := cons[1]
	assert.Equal(t, core.ForeignKey, fk.Kind)
	assert.Equal(t, "clientes", fk.ForeignTable)
	assert.Equal(t, "id", fk.ForeignColumn)
	assert.Equal(t, "CASCADE", fk.OnDelete)

	assert.Equal(t, []string{"codalmacen", "codserie"}, cons[2].Columns)

	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestIndexesOf(t *testing.T) {
	a, mock := mockedAdapter(t)

	rows := sqlmock.NewRows([]string{"indexname", "indexdef"}).
		AddRow("clientes_pkey", `CREATE UNIQUE INDEX clientes_pkey ON public.clientes USING btree (id)`).
		AddRow("idx_nombre", `CREATE INDEX idx_nombre ON public.clientes USING btree (nombre, email)`)

	mock.ExpectQuery("FROM pg_indexes").
		WithArgs("public", "clientes").
		WillReturnRows(rows)

	idx, err := a.IndexesOf(context.Background(), "clientes")
	require.NoError(t, err)
	require.Len(t, idx, 2)

	assert.True(t, idx[0].Primary)
	assert.True(t, idx[0].Unique)
	assert.Equal(t, []string{"id"}, idx[0].Columns)
	assert.Equal(t, []string{"nombre", "email"}, idx[1].Columns)

	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestExec_AppliesFixup(t *testing.T) {
	withFixedClock(t)
	a, mock := mockedAdapter(t)

	mock.ExpectBegin()
	mock.ExpectExec(`ALTER TABLE x ADD "fecha" timestamp NULL DEFAULT '2024-03-15 10:30:00';`).
		WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectCommit()

	_, err := a.Exec(context.Background(), `ALTER TABLE x ADD "fecha" timestamp NULL DEFAULT now();`)
	require.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}
