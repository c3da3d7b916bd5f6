package fsutil_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/sgov-project/sgov/pkg/fsutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAtomicWrite_CreatesFileAndParents(t *testing.T) {
	path := filepath.Join(t.TempDir(), "lookups", "flagged_searches.csv")
	data := []byte("search_name,status\nA,pending\n")

	require.NoError(t, fsutil.AtomicWrite(path, data, 0644))

	content, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, data, content)
}

func TestAtomicWrite_OverwritesExisting(t *testing.T) {
	path := filepath.Join(t.TempDir(), "t.csv")
	require.NoError(t, os.WriteFile(path, []byte("old"), 0644))

	require.NoError(t, fsutil.AtomicWrite(path, []byte("new"), 0644))

	content, _ := os.ReadFile(path)
	assert.Equal(t, "new", string(content))
}

func TestAtomicWrite_NoTmpLeftOnSuccess(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, fsutil.AtomicWrite(filepath.Join(dir, "t.csv"), []byte("data"), 0644))

	entries, _ := os.ReadDir(dir)
	assert.Len(t, entries, 1, "only the target file should exist")
}

func TestFsyncDir_Missing(t *testing.T) {
	assert.Error(t, fsutil.FsyncDir(filepath.Join(t.TempDir(), "missing")))
}
