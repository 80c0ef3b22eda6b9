package molview

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/go-gl/mathgl/mgl32"
)

// SceneDef defines the initial state of a viewer scene. Scenes are plain
// JSON files so presets can be kept next to the PDB data they reference.
type SceneDef struct {
	Molecules []MoleculeDef `json:"molecules"`
	Camera    *CameraDef    `json:"camera,omitempty"`
}

// MoleculeDef defines one molecule instantiation.
type MoleculeDef struct {
	Path          string     `json:"path"`
	Position      mgl32.Vec3 `json:"position"`
	RejectionRate float32    `json:"rejection_rate"`
	Policy        string     `json:"policy,omitempty"`
	PositionScale mgl32.Vec3 `json:"position_scale,omitempty"`
	InstanceScale float32    `json:"instance_scale,omitempty"`
	MinBrightness float32    `json:"min_brightness,omitempty"`
	SpinSpeed     float32    `json:"spin_speed,omitempty"`
	SpinAxis      mgl32.Vec3 `json:"spin_axis,omitempty"`
}

type CameraDef struct {
	Position mgl32.Vec3 `json:"position"`
	LookAt   mgl32.Vec3 `json:"look_at"`
	Fov      float32    `json:"fov_degrees,omitempty"`
}

// ParseKeepPolicy maps the textual policy names used in scene files and on
// the command line. The empty string defaults to keeping multiples.
func ParseKeepPolicy(name string) (KeepPolicy, error) {
	switch name {
	case "", "keep-multiples":
		return KeepMultiples, nil
	case "drop-multiples":
		return DropMultiples, nil
	default:
		return KeepMultiples, fmt.Errorf("unknown keep policy %q", name)
	}
}

func (d MoleculeDef) instanceOptions() (InstanceOptions, error) {
	opts := DefaultInstanceOptions()
	opts.RejectionRate = d.RejectionRate
	if d.PositionScale.Len() > 0 {
		opts.PositionScale = d.PositionScale
	}
	if d.InstanceScale > 0 {
		opts.InstanceScale = d.InstanceScale
	}
	opts.MinBrightness = d.MinBrightness

	policy, err := ParseKeepPolicy(d.Policy)
	if err != nil {
		return opts, err
	}
	opts.Policy = policy
	return opts, nil
}

// LoadSceneFile reads and decodes a scene definition.
func LoadSceneFile(path string) (*SceneDef, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read scene %s: %w", path, err)
	}
	var scene SceneDef
	if err := json.Unmarshal(data, &scene); err != nil {
		return nil, fmt.Errorf("decode scene %s: %w", path, err)
	}
	if len(scene.Molecules) == 0 {
		return nil, fmt.Errorf("scene %s defines no molecules", path)
	}
	return &scene, nil
}

// SaveSceneFile writes a scene definition as indented JSON.
func SaveSceneFile(path string, scene *SceneDef) error {
	data, err := json.MarshalIndent(scene, "", "  ")
	if err != nil {
		return fmt.Errorf("encode scene: %w", err)
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("write scene %s: %w", path, err)
	}
	return nil
}

// LoadScene iterates through the SceneDef and spawns entities.
func LoadScene(cmd *Commands, assets *AssetServer, scene *SceneDef) error {
	for _, def := range scene.Molecules {
		if err := spawnMolecule(cmd, assets, def); err != nil {
			return err
		}
	}

	camera := DefaultCamera()
	if scene.Camera != nil {
		camera.Position = scene.Camera.Position
		camera.LookAt = scene.Camera.LookAt
		if scene.Camera.Fov > 0 {
			camera.Fov = mgl32.DegToRad(scene.Camera.Fov)
		}
	}
	cmd.AddEntity(camera)
	return nil
}

func spawnMolecule(cmd *Commands, assets *AssetServer, def MoleculeDef) error {
	opts, err := def.instanceOptions()
	if err != nil {
		return err
	}

	id, err := assets.LoadMolecule(def.Path)
	if err != nil {
		return err
	}

	spin := DefaultSpin()
	if def.SpinAxis.Len() > 0 {
		spin.Axis = def.SpinAxis
	}
	if def.SpinSpeed != 0 {
		spin.Speed = def.SpinSpeed
	}

	cmd.AddEntity(
		NewTransform(def.Position),
		spin,
		MoleculeComponent{Molecule: id, Options: opts},
	)
	return nil
}

// SceneModule loads a scene file at install time and installs the same
// interaction systems MoleculeModule does.
type SceneModule struct {
	Path string
}

func (mod SceneModule) Install(app *App, cmd *Commands) {
	scene, err := LoadSceneFile(mod.Path)
	if err != nil {
		panic(err)
	}
	if err := LoadScene(cmd, app.assetServer(), scene); err != nil {
		panic(err)
	}

	app.UseSystem(
		System(spinSystem).
			InStage(Update).
			RunAlways(),
	)
	app.UseSystem(
		System(viewerKeysSystem).
			InStage(Update).
			RunAlways(),
	)
}
