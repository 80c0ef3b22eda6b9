package molview

import (
	"math"

	"github.com/go-gl/mathgl/mgl32"
)

// InstanceRecord is one sphere instance handed to the renderer: a transform
// composed of translation and a fixed scale (no rotation), and a color.
type InstanceRecord struct {
	Transform mgl32.Mat4
	Color     [3]float32
}

// KeepPolicy selects which side of the stride test survives subsampling.
// Both variants exist in the wild; pick one and use it consistently for a
// given scene, otherwise density differs between call sites.
type KeepPolicy int

const (
	// KeepMultiples keeps atom indices that are multiples of the skip
	// interval.
	KeepMultiples KeepPolicy = iota
	// DropMultiples keeps everything except multiples of the skip interval.
	DropMultiples
)

// InstanceOptions control the subsampling and per-instance composition.
type InstanceOptions struct {
	// RejectionRate is the fraction of atoms dropped, in [0,1). Values >= 1
	// produce no instances.
	RejectionRate float32
	// PositionScale stretches atom positions per axis before translation.
	PositionScale mgl32.Vec3
	// InstanceScale is the uniform size applied to every sphere.
	InstanceScale float32
	// MinBrightness, when > 0, floors every color channel so dark atoms
	// stay visible against the background.
	MinBrightness float32
	Policy        KeepPolicy
}

func DefaultInstanceOptions() InstanceOptions {
	return InstanceOptions{
		RejectionRate: 0,
		PositionScale: mgl32.Vec3{1, 1, 1},
		InstanceScale: 0.035,
		MinBrightness: 0,
		Policy:        KeepMultiples,
	}
}

// BuildInstances deterministically selects a subset of atoms and emits one
// transform+color pair per survivor, preserving input order.
//
// The stride is round(1/(1-rate)); emission stops once
// floor(len(atoms)*(1-rate)) instances exist, so the count invariant holds
// even when the rounded stride over-selects.
func BuildInstances(atoms []AtomRecord, opts InstanceOptions) []InstanceRecord {
	if len(atoms) == 0 || opts.RejectionRate >= 1 || opts.RejectionRate < 0 {
		return nil
	}

	keepFraction := 1 - float64(opts.RejectionRate)
	budget := int(math.Floor(float64(len(atoms)) * keepFraction))
	if budget == 0 {
		return nil
	}
	skipInterval := int(math.Round(1 / keepFraction))

	out := make([]InstanceRecord, 0, budget)
	for i, atom := range atoms {
		if len(out) == budget {
			break
		}
		// A stride of 1 means "keep all" under either policy; the drop
		// variant would otherwise reject every atom at rate 0.
		if skipInterval > 1 && !keepIndex(i, skipInterval, opts.Policy) {
			continue
		}
		out = append(out, makeInstance(atom, opts))
	}
	return out
}

func keepIndex(i, skipInterval int, policy KeepPolicy) bool {
	if policy == DropMultiples {
		return i%skipInterval != 0
	}
	return i%skipInterval == 0
}

func makeInstance(atom AtomRecord, opts InstanceOptions) InstanceRecord {
	pos := mgl32.Vec3{
		atom.Position.X() * opts.PositionScale.X(),
		atom.Position.Y() * opts.PositionScale.Y(),
		atom.Position.Z() * opts.PositionScale.Z(),
	}
	s := opts.InstanceScale

	color := atom.Color
	if opts.MinBrightness > 0 {
		for c := range color {
			if color[c] < opts.MinBrightness {
				color[c] = opts.MinBrightness
			}
		}
	}

	return InstanceRecord{
		Transform: mgl32.Translate3D(pos.X(), pos.Y(), pos.Z()).
			Mul4(mgl32.Scale3D(s, s, s)),
		Color: color,
	}
}
