package molview

import (
	"path/filepath"
	"testing"

	"github.com/go-gl/mathgl/mgl32"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSceneFile_RoundTrip(t *testing.T) {
	scene := &SceneDef{
		Molecules: []MoleculeDef{
			{
				Path:          "data/caffeine.pdb",
				Position:      mgl32.Vec3{0, 1, 0},
				RejectionRate: 0.5,
				Policy:        "drop-multiples",
				InstanceScale: 0.05,
				SpinSpeed:     1.2,
			},
		},
		Camera: &CameraDef{
			Position: mgl32.Vec3{0, 0, 3},
			Fov:      60,
		},
	}

	path := filepath.Join(t.TempDir(), "scene.json")
	require.NoError(t, SaveSceneFile(path, scene))

	got, err := LoadSceneFile(path)
	require.NoError(t, err)
	assert.Equal(t, scene, got)
}

func TestLoadSceneFile_Errors(t *testing.T) {
	dir := t.TempDir()

	_, err := LoadSceneFile(filepath.Join(dir, "missing.json"))
	assert.Error(t, err)

	empty := filepath.Join(dir, "empty.json")
	require.NoError(t, SaveSceneFile(empty, &SceneDef{}))
	_, err = LoadSceneFile(empty)
	assert.ErrorContains(t, err, "no molecules")
}

func TestParseKeepPolicy(t *testing.T) {
	p, err := ParseKeepPolicy("")
	require.NoError(t, err)
	assert.Equal(t, KeepMultiples, p)

	p, err = ParseKeepPolicy("keep-multiples")
	require.NoError(t, err)
	assert.Equal(t, KeepMultiples, p)

	p, err = ParseKeepPolicy("drop-multiples")
	require.NoError(t, err)
	assert.Equal(t, DropMultiples, p)

	_, err = ParseKeepPolicy("random")
	assert.Error(t, err)
}

func TestMoleculeDef_InstanceOptions(t *testing.T) {
	def := MoleculeDef{
		Path:          "x.pdb",
		RejectionRate: 0.25,
		Policy:        "drop-multiples",
		MinBrightness: 0.1,
	}

	opts, err := def.instanceOptions()
	require.NoError(t, err)

	assert.Equal(t, float32(0.25), opts.RejectionRate)
	assert.Equal(t, DropMultiples, opts.Policy)
	assert.Equal(t, float32(0.1), opts.MinBrightness)
	// Unset fields fall back to defaults.
	assert.Equal(t, DefaultInstanceOptions().InstanceScale, opts.InstanceScale)
	assert.Equal(t, mgl32.Vec3{1, 1, 1}, opts.PositionScale)
}

func TestMoleculeDef_InstanceOptions_BadPolicy(t *testing.T) {
	def := MoleculeDef{Path: "x.pdb", Policy: "coin-flip"}
	_, err := def.instanceOptions()
	assert.Error(t, err)
}
