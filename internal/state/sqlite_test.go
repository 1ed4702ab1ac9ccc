package state

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func openStore(t *testing.T) *SQLiteStore {
	t.Helper()
	s := NewSQLiteStore(nil)
	require.NoError(t, s.Open(":memory:"))
	t.Cleanup(func() { _ = s.Close() })
	return s
}

func TestPassLifecycle(t *testing.T) {
	s := openStore(t)

	p, err := s.CreatePass("production", "postgres")
	require.NoError(t, err)
	assert.NotEmpty(t, p.ID)
	assert.Equal(t, PassStatusRunning, p.Status)

	require.NoError(t, s.RecordStatement(p.ID, "clientes", "create_table",
		"CREATE TABLE clientes (...);", true, ""))
	require.NoError(t, s.RecordStatement(p.ID, "albaranes", "add_constraint",
		"ALTER TABLE albaranes ADD CONSTRAINT fk_cliente ...;", false, "referenced table missing"))

	require.NoError(t, s.CompletePass(p.ID, PassStatusCompleted, 2, 2, ""))

	got, err := s.GetPass(p.ID)
	require.NoError(t, err)
	assert.Equal(t, PassStatusCompleted, got.Status)
	assert.NotNil(t, got.CompletedAt)
	assert.Equal(t, 2, got.Tables)
	assert.Equal(t, 2, got.Statements)

	stmts, err := s.ListStatements(p.ID)
	require.NoError(t, err)
	require.Len(t, stmts, 2)
	assert.True(t, stmts[0].Success)
	assert.False(t, stmts[1].Success)
	assert.Equal(t, "referenced table missing", stmts[1].Error)
}

func TestListPasses_NewestFirstWithLimit(t *testing.T) {
	s := openStore(t)

	for i := 0; i < 3; i++ {
		_, err := s.CreatePass("local", "sqlite")
		require.NoError(t, err)
	}

	all, err := s.ListPasses(0)
	require.NoError(t, err)
	assert.Len(t, all, 3)

	limited, err := s.ListPasses(2)
	require.NoError(t, err)
	assert.Len(t, limited, 2)
}

func TestGetPass_NotFound(t *testing.T) {
	s := openStore(t)
	_, err := s.GetPass("missing")
	assert.ErrorContains(t, err, "pass not found")
}

func TestCompletePass_NotFound(t *testing.T) {
	s := openStore(t)
	err := s.CompletePass("missing", PassStatusFailed, 0, 0, "boom")
	assert.ErrorContains(t, err, "pass not found")
}

func TestStoreRequiresOpen(t *testing.T) {
	s := NewSQLiteStore(nil)
	_, err := s.CreatePass("x", "sqlite")
	assert.ErrorContains(t, err, "database not opened")
}
