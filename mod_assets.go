package molview

import (
	"fmt"
	"math"
	"os"
	"path/filepath"

	"github.com/google/uuid"
)

type AssetId string

type sphereVertex struct {
	pos    [3]float32 `molview:"layout" location:"0" format:"float3"`
	normal [3]float32 `molview:"layout" location:"1" format:"float3"`
}

type AssetServer struct {
	molecules map[AssetId]*MoleculeAsset
	meshes    map[AssetId]MeshAsset
	materials map[AssetId]MaterialAsset

	cache *MoleculeCache
	log   Logger
}

type AssetServerModule struct {
	// CachePath enables the on-disk molecule cache when non-empty.
	CachePath string
}

type Mesh struct {
	assetId AssetId
}

type Material struct {
	assetId AssetId
}

// MoleculeAsset wraps a parsed molecule. The version moves on every reload
// so dependent GPU state knows to rebuild.
type MoleculeAsset struct {
	version    uint
	molecule   *Molecule
	sourcePath string
}

func (a *MoleculeAsset) Molecule() *Molecule { return a.molecule }
func (a *MoleculeAsset) SourcePath() string  { return a.sourcePath }
func (a *MoleculeAsset) Version() uint       { return a.version }

type MeshAsset struct {
	version  uint
	vertices []sphereVertex
	indices  []uint16
}

type MaterialAsset struct {
	version       uint
	shaderName    string
	shaderListing string
}

// LoadMolecule parses a PDB file, consulting the cache first when one is
// configured. Cache failures fall back to a fresh parse.
func (server *AssetServer) LoadMolecule(path string) (AssetId, error) {
	if server.cache != nil {
		if mol, ok := server.cache.Get(path); ok {
			server.logger().Debugf("molecule cache hit: %s", path)
			return server.storeMolecule(mol, path), nil
		}
	}

	mol, err := LoadPDB(path)
	if err != nil {
		return "", err
	}
	if server.cache != nil {
		if err := server.cache.Put(path, mol); err != nil {
			server.logger().Warnf("molecule cache write failed for %s: %v", path, err)
		}
	}
	return server.storeMolecule(mol, path), nil
}

func (server *AssetServer) storeMolecule(mol *Molecule, path string) AssetId {
	id := makeAssetId()
	server.molecules[id] = &MoleculeAsset{
		version:    0,
		molecule:   mol,
		sourcePath: path,
	}
	return id
}

// ReloadMolecule re-parses the asset from its source path, bypassing the
// cache, and bumps the version.
func (server *AssetServer) ReloadMolecule(id AssetId) error {
	asset, ok := server.molecules[id]
	if !ok {
		return errUnknownAsset(id)
	}
	mol, err := LoadPDB(asset.sourcePath)
	if err != nil {
		return err
	}
	asset.molecule = mol
	asset.version++
	if server.cache != nil {
		if err := server.cache.Put(asset.sourcePath, mol); err != nil {
			server.logger().Warnf("molecule cache write failed for %s: %v", asset.sourcePath, err)
		}
	}
	return nil
}

func (server *AssetServer) Molecule(id AssetId) (*MoleculeAsset, bool) {
	asset, ok := server.molecules[id]
	return asset, ok
}

// MoleculeBySource finds the loaded asset that was parsed from the given
// file path. Used by the file watcher to map events back to assets. Paths
// are compared in absolute form since watchers report absolute names.
func (server *AssetServer) MoleculeBySource(path string) (AssetId, bool) {
	abs, err := filepath.Abs(path)
	if err != nil {
		abs = path
	}
	for id, asset := range server.molecules {
		assetAbs, err := filepath.Abs(asset.sourcePath)
		if err != nil {
			assetAbs = asset.sourcePath
		}
		if assetAbs == abs {
			return id, true
		}
	}
	return "", false
}

func (server *AssetServer) LoadMesh(vertices []sphereVertex, indices []uint16) Mesh {
	id := makeAssetId()

	server.meshes[id] = MeshAsset{
		0,
		vertices,
		indices,
	}

	return Mesh{
		assetId: id,
	}
}

// CreateSphereMesh builds a latitude/longitude unit sphere. All atoms share
// this one mesh and differ only in their instance transforms.
func (server *AssetServer) CreateSphereMesh(stacks, slices int) Mesh {
	if stacks < 2 {
		stacks = 2
	}
	if slices < 3 {
		slices = 3
	}

	var vertices []sphereVertex
	for stack := 0; stack <= stacks; stack++ {
		phi := math.Pi * float64(stack) / float64(stacks)
		for slice := 0; slice <= slices; slice++ {
			theta := 2 * math.Pi * float64(slice) / float64(slices)

			x := float32(math.Sin(phi) * math.Cos(theta))
			y := float32(math.Cos(phi))
			z := float32(math.Sin(phi) * math.Sin(theta))

			vertices = append(vertices, sphereVertex{
				pos:    [3]float32{x, y, z},
				normal: [3]float32{x, y, z},
			})
		}
	}

	var indices []uint16
	ring := slices + 1
	for stack := 0; stack < stacks; stack++ {
		for slice := 0; slice < slices; slice++ {
			a := uint16(stack*ring + slice)
			b := a + uint16(ring)

			indices = append(indices, a, b, a+1)
			indices = append(indices, a+1, b, b+1)
		}
	}

	return server.LoadMesh(vertices, indices)
}

func (server *AssetServer) LoadMaterial(filename string) Material {
	shaderData, err := os.ReadFile(filename)
	if err != nil {
		panic(err)
	}

	id := makeAssetId()

	server.materials[id] = MaterialAsset{
		version:       0,
		shaderName:    filename,
		shaderListing: string(shaderData),
	}

	return Material{
		assetId: id,
	}
}

func (mod AssetServerModule) Install(app *App, cmd *Commands) {
	server := &AssetServer{
		molecules: make(map[AssetId]*MoleculeAsset),
		meshes:    make(map[AssetId]MeshAsset),
		materials: make(map[AssetId]MaterialAsset),
		log:       app.Logger(),
	}
	if mod.CachePath != "" {
		cache, err := OpenMoleculeCache(mod.CachePath)
		if err != nil {
			server.logger().Warnf("molecule cache unavailable at %s: %v", mod.CachePath, err)
		} else {
			server.cache = cache
		}
	}
	app.addResources(server)
}

func (server *AssetServer) logger() Logger {
	if server.log == nil {
		return NewNopLogger()
	}
	return server.log
}

func makeAssetId() AssetId {
	return AssetId(uuid.NewString())
}

func errUnknownAsset(id AssetId) error {
	return fmt.Errorf("unknown asset: %s", id)
}
