package util

import (
	"os"
	"path"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDirExists(t *testing.T) {
	tmpDir := t.TempDir()

	assert.True(t, DirExists(tmpDir))
	assert.False(t, DirExists(path.Join(tmpDir, "missing")))

	// A regular file is not a directory.
	file := path.Join(tmpDir, "plain.txt")
	require.NoError(t, os.WriteFile(file, []byte("x"), 0644))
	assert.False(t, DirExists(file))
}

func TestMakeSurePath(t *testing.T) {
	tmpDir := t.TempDir()

	nested := path.Join(tmpDir, "a", "b", "c")
	require.NoError(t, MakeSurePath(nested))
	assert.True(t, DirExists(nested))

	// Calling again on an existing directory is a no-op.
	require.NoError(t, MakeSurePath(nested))
}

func TestMergeMapsLastWins(t *testing.T) {
	queries := map[string]string{"G1": "/queries/G1.fna", "shared": "/queries/shared.fna"}
	refs := map[string]string{"G2": "/refs/G2.fna", "shared": "/refs/shared.fna"}

	merged := MergeMaps(queries, refs)

	require.Len(t, merged, 3)
	assert.Equal(t, "/queries/G1.fna", merged["G1"])
	assert.Equal(t, "/refs/G2.fna", merged["G2"])
	assert.Equal(t, "/refs/shared.fna", merged["shared"], "later map wins the collision")

	// Inputs stay untouched.
	assert.Equal(t, "/queries/shared.fna", queries["shared"])
}

func TestMergeMapsEmpty(t *testing.T) {
	merged := MergeMaps[string, string]()
	assert.NotNil(t, merged)
	assert.Empty(t, merged)
}

func TestSortedKeys(t *testing.T) {
	m := map[string]int{"b": 1, "a": 2, "c": 3}
	assert.Equal(t, []string{"a", "b", "c"}, SortedKeys(m))

	assert.Empty(t, SortedKeys(map[string]int{}))
}
