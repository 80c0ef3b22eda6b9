package molview

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestAssetServer(t *testing.T, cachePath string) *AssetServer {
	t.Helper()
	server := &AssetServer{
		molecules: make(map[AssetId]*MoleculeAsset),
		meshes:    make(map[AssetId]MeshAsset),
		materials: make(map[AssetId]MaterialAsset),
	}
	if cachePath != "" {
		cache, err := OpenMoleculeCache(cachePath)
		require.NoError(t, err)
		t.Cleanup(func() { cache.Close() })
		server.cache = cache
	}
	return server
}

func TestAssetServer_CreateSphereMesh(t *testing.T) {
	server := newTestAssetServer(t, "")

	stacks, slices := 4, 6
	mesh := server.CreateSphereMesh(stacks, slices)
	asset := server.meshes[mesh.assetId]

	assert.Len(t, asset.vertices, (stacks+1)*(slices+1))
	assert.Len(t, asset.indices, stacks*slices*6)

	// Unit sphere: every vertex at distance 1, normal equal to position.
	for _, v := range asset.vertices {
		d := v.pos[0]*v.pos[0] + v.pos[1]*v.pos[1] + v.pos[2]*v.pos[2]
		assert.InDelta(t, 1, d, 1e-5)
		assert.Equal(t, v.pos, v.normal)
	}
}

func TestAssetServer_LoadMolecule(t *testing.T) {
	server := newTestAssetServer(t, "")
	path := writePDB(t, "mol.pdb",
		atomLine(1, "C", 0, 0, 0, "C"),
		atomLine(2, "N", 2, 0, 0, "N"),
	)

	id, err := server.LoadMolecule(path)
	require.NoError(t, err)

	asset, ok := server.Molecule(id)
	require.True(t, ok)
	assert.Len(t, asset.Molecule().Atoms, 2)
	assert.Equal(t, uint(0), asset.Version())

	found, ok := server.MoleculeBySource(path)
	require.True(t, ok)
	assert.Equal(t, id, found)
}

func TestAssetServer_LoadMoleculeUsesCache(t *testing.T) {
	dir := t.TempDir()
	cachePath := filepath.Join(dir, "cache.db")
	path := writePDB(t, "cached.pdb", atomLine(1, "O", 0, 0, 0, "O"))

	server := newTestAssetServer(t, cachePath)
	id1, err := server.LoadMolecule(path)
	require.NoError(t, err)

	// A second server over the same cache resolves the parse from disk state
	// written by the first.
	server.cache.Close()
	server2 := newTestAssetServer(t, cachePath)
	id2, err := server2.LoadMolecule(path)
	require.NoError(t, err)

	a1, _ := server.Molecule(id1)
	a2, _ := server2.Molecule(id2)
	assert.Equal(t, a1.Molecule().Atoms, a2.Molecule().Atoms)
}

func TestAssetServer_ReloadMoleculeBumpsVersion(t *testing.T) {
	server := newTestAssetServer(t, "")
	path := writePDB(t, "reload.pdb", atomLine(1, "C", 0, 0, 0, "C"))

	id, err := server.LoadMolecule(path)
	require.NoError(t, err)

	require.NoError(t, os.WriteFile(path, []byte(
		atomLine(1, "C", 0, 0, 0, "C")+"\n"+atomLine(2, "O", 1, 1, 0, "O")+"\n"), 0644))

	require.NoError(t, server.ReloadMolecule(id))

	asset, _ := server.Molecule(id)
	assert.Equal(t, uint(1), asset.Version())
	assert.Len(t, asset.Molecule().Atoms, 2)
}

func TestAssetServer_ReloadUnknownAsset(t *testing.T) {
	server := newTestAssetServer(t, "")
	assert.Error(t, server.ReloadMolecule("no-such-id"))
}
