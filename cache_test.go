package molview

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMoleculeCache_RoundTrip(t *testing.T) {
	dir := t.TempDir()
	cache, err := OpenMoleculeCache(filepath.Join(dir, "cache.db"))
	require.NoError(t, err)
	defer cache.Close()

	pdbPath := writePDB(t, "cached.pdb",
		atomLine(1, "C", 0, 0, 0, "C"),
		atomLine(2, "O", 1, 0, 0, "O"),
	)
	mol, err := LoadPDB(pdbPath)
	require.NoError(t, err)

	require.NoError(t, cache.Put(pdbPath, mol))

	got, ok := cache.Get(pdbPath)
	require.True(t, ok)
	assert.Equal(t, mol.Name, got.Name)
	assert.Equal(t, mol.Atoms, got.Atoms)
}

func TestMoleculeCache_MissOnUnknownPath(t *testing.T) {
	dir := t.TempDir()
	cache, err := OpenMoleculeCache(filepath.Join(dir, "cache.db"))
	require.NoError(t, err)
	defer cache.Close()

	_, ok := cache.Get(filepath.Join(dir, "never-stored.pdb"))
	assert.False(t, ok)
}

func TestMoleculeCache_StaleOnFileChange(t *testing.T) {
	dir := t.TempDir()
	cache, err := OpenMoleculeCache(filepath.Join(dir, "cache.db"))
	require.NoError(t, err)
	defer cache.Close()

	pdbPath := writePDB(t, "stale.pdb", atomLine(1, "C", 0, 0, 0, "C"))
	mol, err := LoadPDB(pdbPath)
	require.NoError(t, err)
	require.NoError(t, cache.Put(pdbPath, mol))

	// Grow the file; size change alone must invalidate the entry even if
	// the mtime resolution hides the rewrite.
	require.NoError(t, os.WriteFile(pdbPath, []byte(
		atomLine(1, "C", 0, 0, 0, "C")+"\n"+atomLine(2, "N", 1, 0, 0, "N")+"\n"), 0644))
	require.NoError(t, os.Chtimes(pdbPath, time.Now(), time.Now().Add(time.Second)))

	_, ok := cache.Get(pdbPath)
	assert.False(t, ok)
}
