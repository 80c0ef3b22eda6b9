package molview

import (
	"github.com/go-gl/mathgl/mgl32"
)

// MoleculeModule loads a single PDB file and spawns it as a spinning entity
// together with a default camera. Scene files bypass this module and spawn
// their entities through LoadScene.
type MoleculeModule struct {
	Path    string
	Options InstanceOptions
	Spin    SpinComponent
}

func DefaultSpin() SpinComponent {
	return SpinComponent{
		Axis:       mgl32.Vec3{0, 1, 0},
		Speed:      0.4,
		ScrollGain: 0.12,
	}
}

func DefaultCamera() CameraComponent {
	return CameraComponent{
		Position: mgl32.Vec3{0, 0.4, 2.6},
		LookAt:   mgl32.Vec3{0, 0, 0},
		Up:       mgl32.Vec3{0, 1, 0},
		Fov:      mgl32.DegToRad(45),
		Aspect:   16.0 / 9.0,
		Near:     0.1,
		Far:      100,
	}
}

func (mod MoleculeModule) Install(app *App, cmd *Commands) {
	assets := app.assetServer()

	// A bad file is a single logged error, not a crash; the viewer opens
	// with an empty scene.
	id, err := assets.LoadMolecule(mod.Path)
	if err != nil {
		app.Logger().Errorf("load molecule %s: %v", mod.Path, err)
	} else {
		spin := mod.Spin
		if spin.Axis.Len() == 0 {
			spin = DefaultSpin()
		}
		cmd.AddEntity(
			NewTransform(mgl32.Vec3{0, 0, 0}),
			spin,
			MoleculeComponent{Molecule: id, Options: mod.Options},
		)
	}
	cmd.AddEntity(DefaultCamera())

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

func (app *App) assetServer() *AssetServer {
	for _, res := range app.resources {
		if s, ok := res.(*AssetServer); ok {
			return s
		}
	}
	panic("AssetServerModule must be installed first")
}

// spinSystem advances each spinning entity. Wall time gives the base
// rotation, the scroll wheel adds to it so scrolling back spins the
// structure the other way.
func spinSystem(cmd *Commands, time *Time, input *Input) {
	dt := time.Seconds()
	scroll := float32(input.ScrollDeltaY)

	MakeQuery2[TransformComponent, SpinComponent](cmd).Map(
		func(entityId EntityId, transform *TransformComponent, spin *SpinComponent) bool {
			if spin.Paused {
				return true
			}
			spin.Angle += spin.Speed*dt + spin.ScrollGain*scroll
			if spin.Axis.Len() > 0 {
				transform.Rotation = mgl32.QuatRotate(spin.Angle, spin.Axis.Normalize())
			}
			return true
		},
	)
}

// viewerKeysSystem handles global shortcuts: Escape quits, Space reverses
// the spin direction, P pauses it, Up/Down adjust its speed, R reloads
// every molecule from disk.
func viewerKeysSystem(cmd *Commands, input *Input, assets *AssetServer) {
	log := assets.logger()
	if input.JustPressed[KeyEscape] {
		cmd.Quit()
		return
	}

	if input.JustPressed[KeySpace] {
		MakeQuery1[SpinComponent](cmd).Map(
			func(entityId EntityId, spin *SpinComponent) bool {
				spin.Speed = -spin.Speed
				return true
			},
		)
	}

	if input.JustPressed[KeyP] {
		MakeQuery1[SpinComponent](cmd).Map(
			func(entityId EntityId, spin *SpinComponent) bool {
				spin.Paused = !spin.Paused
				return true
			},
		)
	}

	speedStep := float32(0)
	if input.JustPressed[KeyUp] {
		speedStep = 0.1
	}
	if input.JustPressed[KeyDown] {
		speedStep = -0.1
	}
	if speedStep != 0 {
		MakeQuery1[SpinComponent](cmd).Map(
			func(entityId EntityId, spin *SpinComponent) bool {
				spin.Speed += speedStep
				return true
			},
		)
	}

	if input.JustPressed[KeyR] {
		for id, asset := range assets.molecules {
			if err := assets.ReloadMolecule(id); err != nil {
				log.Errorf("reload %s: %v", asset.sourcePath, err)
			} else {
				log.Infof("reloaded %s", asset.sourcePath)
			}
		}
	}
}
