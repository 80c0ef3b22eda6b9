package molview

import (
	"github.com/go-gl/mathgl/mgl32"
)

type TransformComponent struct {
	Position mgl32.Vec3
	Rotation mgl32.Quat
	Scale    mgl32.Vec3
}

func NewTransform(position mgl32.Vec3) TransformComponent {
	return TransformComponent{
		Position: position,
		Rotation: mgl32.QuatIdent(),
		Scale:    mgl32.Vec3{1, 1, 1},
	}
}

func buildModelMatrix(t *TransformComponent) mgl32.Mat4 {
	return mgl32.Translate3D(t.Position.X(), t.Position.Y(), t.Position.Z()).
		Mul4(t.Rotation.Mat4()).
		Mul4(mgl32.Scale3D(t.Scale.X(), t.Scale.Y(), t.Scale.Z()))
}

type CameraComponent struct {
	Position mgl32.Vec3
	LookAt   mgl32.Vec3
	Up       mgl32.Vec3
	Fov      float32
	Aspect   float32
	Near     float32
	Far      float32
}

func buildCameraMatrix(c *CameraComponent) mgl32.Mat4 {
	view := mgl32.LookAtV(c.Position, c.LookAt, c.Up)
	projection := mgl32.Perspective(c.Fov, c.Aspect, c.Near, c.Far)
	return projection.Mul4(view)
}

// SpinComponent rotates an entity around a fixed axis. The angle advances
// with wall time and with the scroll wheel, so the structure keeps turning
// on its own and the user can speed it up or run it backwards.
type SpinComponent struct {
	Axis       mgl32.Vec3
	Speed      float32 // radians per second
	ScrollGain float32 // radians per scroll tick
	Angle      float32
	Paused     bool
}

// MoleculeComponent binds a molecule asset and its subsampling options to a
// scene entity. The renderer rebuilds the instance set whenever the asset
// version moves.
type MoleculeComponent struct {
	Molecule AssetId
	Options  InstanceOptions
}
