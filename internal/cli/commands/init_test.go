package commands

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestInitCreatesProject(t *testing.T) {
	dir := t.TempDir()

	cmd := NewInitCommand()
	cmd.SetArgs([]string{dir})
	require.NoError(t, cmd.Execute())

	assert.FileExists(t, filepath.Join(dir, "schemasync.yaml"))
	assert.FileExists(t, filepath.Join(dir, "schemas", "clientes.yaml"))

	data, err := os.ReadFile(filepath.Join(dir, "schemasync.yaml"))
	require.NoError(t, err)
	assert.Contains(t, string(data), "schemas_dir: schemas")
}

func TestInitRefusesToOverwrite(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "schemasync.yaml"), []byte("existing"), 0o644))

	cmd := NewInitCommand()
	cmd.SetArgs([]string{dir})
	err := cmd.Execute()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "--force")

	data, err := os.ReadFile(filepath.Join(dir, "schemasync.yaml"))
	require.NoError(t, err)
	assert.Equal(t, "existing", string(data))
}

func TestInitForceOverwrites(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "schemasync.yaml"), []byte("existing"), 0o644))

	cmd := NewInitCommand()
	cmd.SetArgs([]string{dir, "--force"})
	require.NoError(t, cmd.Execute())

	data, err := os.ReadFile(filepath.Join(dir, "schemasync.yaml"))
	require.NoError(t, err)
	assert.Contains(t, string(data), "schemas_dir")
}
