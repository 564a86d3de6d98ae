package payload_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/comet-hpc/comet/payload"
)

func TestArchiveRoundTrip(t *testing.T) {
	src := t.TempDir()
	moduleDir := filepath.Join(src, "trainer")
	require.NoError(t, os.MkdirAll(filepath.Join(moduleDir, "models"), 0o755))
	require.NoError(t, os.WriteFile(
		filepath.Join(moduleDir, "__init__.py"), []byte(""), 0o644))
	require.NoError(t, os.WriteFile(
		filepath.Join(moduleDir, "models", "fit.py"), []byte("def fit():\n    pass\n"), 0o644))

	data, err := payload.ArchiveDir(moduleDir)
	require.NoError(t, err)
	require.NotEmpty(t, data)

	dest := t.TempDir()
	require.NoError(t, payload.ExtractDir(data, dest))

	// The archive is rooted at the module's own name so it stays importable.
	content, err := os.ReadFile(filepath.Join(dest, "trainer", "models", "fit.py"))
	require.NoError(t, err)
	assert.Contains(t, string(content), "def fit")

	_, err = os.Stat(filepath.Join(dest, "trainer", "__init__.py"))
	assert.NoError(t, err)
}

func TestArchiveDirMissing(t *testing.T) {
	_, err := payload.ArchiveDir(filepath.Join(t.TempDir(), "nope"))
	assert.Error(t, err)
}
