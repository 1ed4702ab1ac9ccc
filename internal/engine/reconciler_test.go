package engine

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/convergelabs/schemasync/internal/state"
	"github.com/convergelabs/schemasync/pkg/adapter"
	_ "github.com/convergelabs/schemasync/pkg/adapters/sqlite"
	"github.com/convergelabs/schemasync/pkg/core"
	"github.com/convergelabs/schemasync/pkg/dialect"
)

// fakeAdapter is an in-memory adapter with scriptable live state.
type fakeAdapter struct {
	dialect *dialect.Dialect

	tables      []string
	columns     map[string][]core.LiveColumn
	constraints map[string][]core.LiveConstraint

	introspectErr map[string]error
	execErr       map[string]error // keyed by substring of the SQL
	executed      []string

	unsupportedAlter bool
}

func newFakeAdapter() *fakeAdapter {
	d := dialect.New("fake").
		Quote("`", "`").
		Alterable(true, true, true).
		Types(map[string]string{
			"integer":           "int",
			"serial":            "int",
			"boolean":           "boolean",
			"character varying": "varchar",
			"text":              "text",
		}).
		BoolAlias("tinyint(1)", "boolean")
	return &fakeAdapter{
		dialect:       d,
		columns:       make(map[string][]core.LiveColumn),
		constraints:   make(map[string][]core.LiveConstraint),
		introspectErr: make(map[string]error),
		execErr:       make(map[string]error),
	}
}

func (f *fakeAdapter) Connect(context.Context, core.ConnConfig) error { return nil }
func (f *fakeAdapter) Close() error                                   { return nil }
func (f *fakeAdapter) Dialect() *dialect.Dialect                      { return f.dialect }

func (f *fakeAdapter) TypeEquivalent(native, declared string) bool {
	return f.dialect.TypeEquivalent(native, declared)
}

func (f *fakeAdapter) ListTables(context.Context) ([]string, error) {
	return f.tables, nil
}

func (f *fakeAdapter) ColumnsOf(_ context.Context, table string) ([]core.LiveColumn, error) {
	if err := f.introspectErr[table]; err != nil {
		return nil, err
	}
	return f.columns[table], nil
}

func (f *fakeAdapter) ConstraintsOf(_ context.Context, table string) ([]core.LiveConstraint, error) {
	return f.constraints[table], nil
}

func (f *fakeAdapter) IndexesOf(context.Context, string) ([]core.LiveIndex, error) {
	return nil, nil
}

func (f *fakeAdapter) RenderCreateTable(t *core.TableSchema) string {
	return adapter.CreateTableSQL(f.dialect, t)
}

func (f *fakeAdapter) RenderAddColumn(table string, col core.ColumnDefinition) string {
	return adapter.AddColumnSQL(f.dialect, table, col)
}

func (f *fakeAdapter) RenderAlterColumn(table string, col core.ColumnDefinition) (string, error) {
	if f.unsupportedAlter {
		return "", core.ErrUnsupportedDDL
	}
	return "ALTER TABLE " + table + " MODIFY " + adapter.ColumnSQL(f.dialect, col) + ";", nil
}

func (f *fakeAdapter) RenderAddConstraint(table string, c core.ConstraintDefinition) (string, error) {
	return adapter.AddConstraintSQL(f.dialect, table, c), nil
}

func (f *fakeAdapter) RenderDropConstraint(table string, c core.ConstraintDefinition) (string, error) {
	return adapter.DropConstraintSQL(table, c), nil
}

func (f *fakeAdapter) Exec(_ context.Context, sqlStr string) (int64, error) {
	for sub, err := range f.execErr {
		if sub != "" && strings.Contains(sqlStr, sub) {
			return 0, err
		}
	}
	f.executed = append(f.executed, sqlStr)
	return 0, nil
}

var _ adapter.Adapter = (*fakeAdapter)(nil)

// newTestReconciler wires a reconciler to the given fake over temp schema
// files and an in-memory history store.
func newTestReconciler(t *testing.T, fake *fakeAdapter, schemas map[string]string) *Reconciler {
	t.Helper()

	dir := t.TempDir()
	for name, content := range schemas {
		require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte(content), 0o644))
	}

	driver := fmt.Sprintf("fake-%s", t.Name())
	adapter.Register(driver, func(*slog.Logger) adapter.Adapter { return fake })

	r, err := New(Config{
		SchemasDir: dir,
		StatePath:  ":memory:",
		Target:     "test",
		Conn:       core.ConnConfig{Type: driver},
	})
	require.NoError(t, err)
	t.Cleanup(func() { _ = r.Close() })
	return r
}

const clientesYAML = `name: clientes
columns:
  - name: id
    type: serial
  - name: nombre
    type: character varying(100)
  - name: email
    type: character varying(100)
    nullable: true
constraints:
  - name: clientes_pkey
    kind: primary
    columns: [id]
`

func clientesLive() []core.LiveColumn {
	return []core.LiveColumn{
		{Name: "id", Type: "int", Nullable: false, Extra: "auto_increment"},
		{Name: "nombre", Type: "varchar(100)", Nullable: false},
		{Name: "email", Type: "varchar(100)", Nullable: true},
	}
}

func clientesPK() []core.LiveConstraint {
	return []core.LiveConstraint{
		{Name: "clientes_pkey", Kind: core.PrimaryKey, Columns: []string{"id"}},
	}
}

func TestPlan_MissingTableIsCreated(t *testing.T) {
	fake := newFakeAdapter()
	r := newTestReconciler(t, fake, map[string]string{"clientes.yaml": clientesYAML})

	plan, err := r.Plan(context.Background())
	require.NoError(t, err)
	require.Len(t, plan.Tables, 1)

	tp := plan.Tables[0]
	assert.Equal(t, TableCreate, tp.State)
	require.Len(t, tp.Statements, 1)
	assert.Equal(t, StmtCreateTable, tp.Statements[0].Kind)
	assert.Contains(t, tp.Statements[0].SQL, "CREATE TABLE clientes")
}

func TestPlan_InSyncTableProducesNothing(t *testing.T) {
	fake := newFakeAdapter()
	fake.tables = []string{"clientes"}
	fake.columns["clientes"] = clientesLive()
	fake.constraints["clientes"] = clientesPK()

	r := newTestReconciler(t, fake, map[string]string{"clientes.yaml": clientesYAML})

	plan, err := r.Plan(context.Background())
	require.NoError(t, err)
	assert.True(t, plan.InSync())
	assert.Empty(t, plan.Statements())
}

func TestPlan_IntrospectionFailureFallsBackToCreate(t *testing.T) {
	fake := newFakeAdapter()
	fake.tables = []string{"clientes"}
	fake.introspectErr["clientes"] = &core.IntrospectionError{
		Table: "clientes", Query: "q", Err: errors.New("corrupted metadata"),
	}

	r := newTestReconciler(t, fake, map[string]string{"clientes.yaml": clientesYAML})

	plan, err := r.Plan(context.Background())
	require.NoError(t, err)
	require.Len(t, plan.Tables, 1)
	assert.Equal(t, TableCreate, plan.Tables[0].State)
}

func TestPlan_DropsPrecedeAdds(t *testing.T) {
	schema := `name: albaranes
columns:
  - name: id
    type: serial
  - name: codcliente
    type: integer
    nullable: true
constraints:
  - name: albaranes_pkey
    kind: primary
    columns: [id]
  - name: fk_cliente
    kind: foreign
    columns: [codcliente]
    foreign_table: clientes
    foreign_column: id
    on_delete: cascade
`
	fake := newFakeAdapter()
	fake.tables = []string{"albaranes"}
	fake.columns["albaranes"] = []core.LiveColumn{
		{Name: "id", Type: "int", Nullable: false},
		{Name: "codcliente", Type: "int", Nullable: true},
	}
	fake.constraints["albaranes"] = []core.LiveConstraint{
		{Name: "albaranes_pkey", Kind: core.PrimaryKey, Columns: []string{"id"}},
		// Retargeted foreign key: live points at the wrong table.
		{Name: "fk_cliente", Kind: core.ForeignKey, Columns: []string{"codcliente"},
			ForeignTable: "clientes_old", ForeignColumn: "id", OnDelete: "CASCADE"},
	}

	r := newTestReconciler(t, fake, map[string]string{"albaranes.yaml": schema})

	plan, err := r.Plan(context.Background())
	require.NoError(t, err)
	require.Len(t, plan.Tables, 1)

	stmts := plan.Tables[0].Statements
	require.Len(t, stmts, 2)
	assert.Equal(t, StmtDropConstraint, stmts[0].Kind)
	assert.Equal(t, StmtAddConstraint, stmts[1].Kind)
	assert.Contains(t, stmts[1].SQL, "REFERENCES clientes ")
}

func TestPlan_UnsupportedAlterMarksDiverged(t *testing.T) {
	fake := newFakeAdapter()
	fake.unsupportedAlter = true
	fake.tables = []string{"clientes"}
	cols := clientesLive()
	cols[1].Type = "text" // disagrees with varchar(100)
	fake.columns["clientes"] = cols
	fake.constraints["clientes"] = clientesPK()

	r := newTestReconciler(t, fake, map[string]string{"clientes.yaml": clientesYAML})

	plan, err := r.Plan(context.Background())
	require.NoError(t, err)
	require.Len(t, plan.Tables, 1)

	tp := plan.Tables[0]
	assert.Equal(t, TableDiverged, tp.State)
	assert.Empty(t, tp.Statements)
	require.Len(t, tp.Skipped, 1)
	assert.Contains(t, tp.Skipped[0], "nombre")
}

func TestApply_RecordsHistory(t *testing.T) {
	fake := newFakeAdapter()
	r := newTestReconciler(t, fake, map[string]string{"clientes.yaml": clientesYAML})

	res, err := r.Apply(context.Background())
	require.NoError(t, err)
	assert.Zero(t, res.Failed)
	require.Len(t, fake.executed, 1)

	passes, err := r.Store().ListPasses(0)
	require.NoError(t, err)
	require.Len(t, passes, 1)
	assert.Equal(t, state.PassStatusCompleted, passes[0].Status)
	assert.Equal(t, 1, passes[0].Statements)

	stmts, err := r.Store().ListStatements(res.PassID)
	require.NoError(t, err)
	require.Len(t, stmts, 1)
	assert.True(t, stmts[0].Success)
	assert.Equal(t, string(StmtCreateTable), stmts[0].Kind)
}

func TestApply_SecondPassIsIdempotent(t *testing.T) {
	// End to end against a real SQLite database: apply once, then the
	// immediate next plan must be empty even though SQLite reports
	// synthesized constraint names instead of the declared ones.
	clientes := `name: clientes
columns:
  - name: id
    type: serial
  - name: nombre
    type: character varying(100)
  - name: email
    type: character varying(100)
    nullable: true
constraints:
  - name: clientes_pkey
    kind: primary
    columns: [id]
  - name: uq_email
    kind: unique
    columns: [email]
`
	albaranes := `name: albaranes
columns:
  - name: id
    type: serial
  - name: codcliente
    type: integer
    nullable: true
constraints:
  - name: albaranes_pkey
    kind: primary
    columns: [id]
  - name: fk_cliente
    kind: foreign
    columns: [codcliente]
    foreign_table: clientes
    foreign_column: id
    on_delete: cascade
`
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "clientes.yaml"), []byte(clientes), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "albaranes.yaml"), []byte(albaranes), 0o644))

	r, err := New(Config{
		SchemasDir: dir,
		StatePath:  filepath.Join(t.TempDir(), "history.db"),
		Target:     "test",
		Conn:       core.ConnConfig{Type: "sqlite", Path: filepath.Join(t.TempDir(), "live.db")},
	})
	require.NoError(t, err)
	t.Cleanup(func() { _ = r.Close() })

	res, err := r.Apply(context.Background())
	require.NoError(t, err)
	require.Zero(t, res.Failed)
	require.Len(t, res.Tables, 2)
	for _, tr := range res.Tables {
		assert.Equal(t, TableCreate, tr.State, tr.Table)
		assert.Empty(t, tr.Skipped, tr.Table)
	}

	plan, err := r.Plan(context.Background())
	require.NoError(t, err)
	for _, tp := range plan.Tables {
		assert.Equal(t, TableInSync, tp.State, tp.Table)
	}
	assert.True(t, plan.InSync(), "a pass against an unchanged database plans nothing")
	assert.Empty(t, plan.Statements())
}

func TestApply_TableFailureDoesNotAbortPass(t *testing.T) {
	seriesYAML := `name: series
columns:
  - name: codserie
    type: character varying(4)
`
	fake := newFakeAdapter()
	fake.execErr["CREATE TABLE clientes"] = &core.ExecutionError{
		SQL: "CREATE TABLE clientes", Err: errors.New("permission denied"),
	}

	r := newTestReconciler(t, fake, map[string]string{
		"clientes.yaml": clientesYAML,
		"series.yaml":   seriesYAML,
	})

	res, err := r.Apply(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, res.Failed)
	require.Len(t, res.Tables, 2)

	assert.Equal(t, TableFailed, res.Tables[0].State)
	assert.Error(t, res.Tables[0].Err)
	assert.Equal(t, TableCreate, res.Tables[1].State)
	assert.Nil(t, res.Tables[1].Err)

	// The series table was still created.
	require.Len(t, fake.executed, 1)
	assert.Contains(t, fake.executed[0], "CREATE TABLE series")

	passes, err := r.Store().ListPasses(0)
	require.NoError(t, err)
	require.Len(t, passes, 1)
	assert.Equal(t, state.PassStatusFailed, passes[0].Status)
}
