package molview

import (
	"math"
	"testing"

	"github.com/go-gl/mathgl/mgl32"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testAtoms(n int) []AtomRecord {
	atoms := make([]AtomRecord, n)
	for i := range atoms {
		atoms[i] = AtomRecord{
			Position: mgl32.Vec3{float32(i), float32(i) * 2, float32(i) * 3},
			Color:    [3]float32{0.2, 0.4, 0.6},
			Element:  "C",
			Radius:   0.76,
		}
	}
	return atoms
}

func TestBuildInstances_ZeroRateKeepsAllAtoms(t *testing.T) {
	atoms := testAtoms(100)

	for _, policy := range []KeepPolicy{KeepMultiples, DropMultiples} {
		opts := DefaultInstanceOptions()
		opts.Policy = policy

		instances := BuildInstances(atoms, opts)
		if len(instances) != len(atoms) {
			t.Errorf("policy %v: expected %d instances at rate 0, got %d", policy, len(atoms), len(instances))
		}
	}
}

func TestBuildInstances_CountInvariant(t *testing.T) {
	// Rates where 1/(1-rate) is integral, so the rounded stride matches the
	// budget exactly.
	cases := []struct {
		rate float32
		n    int
		want int
	}{
		{0, 100, 100},
		{0.5, 100, 50},
		{0.75, 100, 25},
		{2.0 / 3.0, 99, 33},
		{0.5, 7, 3},
	}

	for _, tc := range cases {
		opts := DefaultInstanceOptions()
		opts.RejectionRate = tc.rate

		instances := BuildInstances(testAtoms(tc.n), opts)
		assert.Equalf(t, tc.want, len(instances), "rate %v over %d atoms", tc.rate, tc.n)
	}
}

func TestBuildInstances_NeverExceedsBudget(t *testing.T) {
	for _, rate := range []float32{0.1, 0.3, 0.6, 0.9, 0.99} {
		for _, n := range []int{1, 10, 137, 1000} {
			opts := DefaultInstanceOptions()
			opts.RejectionRate = rate

			budget := int(math.Floor(float64(n) * float64(1-rate)))
			instances := BuildInstances(testAtoms(n), opts)
			if len(instances) > budget {
				t.Errorf("rate %v over %d atoms: %d instances exceeds budget %d", rate, n, len(instances), budget)
			}
		}
	}
}

func TestBuildInstances_Deterministic(t *testing.T) {
	atoms := testAtoms(200)
	opts := DefaultInstanceOptions()
	opts.RejectionRate = 0.5

	a := BuildInstances(atoms, opts)
	b := BuildInstances(atoms, opts)
	require.Equal(t, a, b)
}

func TestBuildInstances_PreservesInputOrder(t *testing.T) {
	atoms := testAtoms(60)
	opts := DefaultInstanceOptions()
	opts.RejectionRate = 0.5

	instances := BuildInstances(atoms, opts)
	require.NotEmpty(t, instances)

	// Translation X grows with atom index, so the output must be strictly
	// increasing in X.
	prev := float32(-1)
	for i, inst := range instances {
		x := inst.Transform.At(0, 3)
		if x <= prev {
			t.Fatalf("instance %d out of order: x=%v after %v", i, x, prev)
		}
		prev = x
	}
}

func TestBuildInstances_PolicySelectsComplementaryIndices(t *testing.T) {
	atoms := testAtoms(10)
	opts := DefaultInstanceOptions()
	opts.RejectionRate = 0.5

	opts.Policy = KeepMultiples
	keep := BuildInstances(atoms, opts)
	require.Len(t, keep, 5)
	// Multiples of 2: atoms 0, 2, 4, ...
	assert.Equal(t, float32(0), keep[0].Transform.At(0, 3))
	assert.Equal(t, float32(2), keep[1].Transform.At(0, 3))

	opts.Policy = DropMultiples
	drop := BuildInstances(atoms, opts)
	require.Len(t, drop, 5)
	// Everything except multiples of 2: atoms 1, 3, 5, ...
	assert.Equal(t, float32(1), drop[0].Transform.At(0, 3))
	assert.Equal(t, float32(3), drop[1].Transform.At(0, 3))
}

func TestBuildInstances_TransformHasNoRotation(t *testing.T) {
	atoms := []AtomRecord{{
		Position: mgl32.Vec3{1, 2, 3},
		Color:    [3]float32{1, 0, 0},
	}}
	opts := DefaultInstanceOptions()
	opts.InstanceScale = 0.5

	instances := BuildInstances(atoms, opts)
	require.Len(t, instances, 1)

	expected := mgl32.Translate3D(1, 2, 3).Mul4(mgl32.Scale3D(0.5, 0.5, 0.5))
	assert.Equal(t, expected, instances[0].Transform)
}

func TestBuildInstances_PositionScaleStretchesPerAxis(t *testing.T) {
	atoms := []AtomRecord{{Position: mgl32.Vec3{1, 1, 1}}}
	opts := DefaultInstanceOptions()
	opts.PositionScale = mgl32.Vec3{2, 3, 4}

	instances := BuildInstances(atoms, opts)
	require.Len(t, instances, 1)

	assert.Equal(t, float32(2), instances[0].Transform.At(0, 3))
	assert.Equal(t, float32(3), instances[0].Transform.At(1, 3))
	assert.Equal(t, float32(4), instances[0].Transform.At(2, 3))
}

func TestBuildInstances_MinBrightnessFloorsChannels(t *testing.T) {
	atoms := []AtomRecord{{Color: [3]float32{0.05, 0.5, 0.0}}}
	opts := DefaultInstanceOptions()
	opts.MinBrightness = 0.2

	instances := BuildInstances(atoms, opts)
	require.Len(t, instances, 1)
	assert.Equal(t, [3]float32{0.2, 0.5, 0.2}, instances[0].Color)
}

func TestBuildInstances_DegenerateInputs(t *testing.T) {
	opts := DefaultInstanceOptions()

	if got := BuildInstances(nil, opts); got != nil {
		t.Errorf("expected nil for empty input, got %v", got)
	}

	opts.RejectionRate = 1
	if got := BuildInstances(testAtoms(10), opts); got != nil {
		t.Errorf("expected nil at rate 1, got %v", got)
	}

	opts.RejectionRate = 1.5
	if got := BuildInstances(testAtoms(10), opts); got != nil {
		t.Errorf("expected nil at rate > 1, got %v", got)
	}

	opts.RejectionRate = -0.1
	if got := BuildInstances(testAtoms(10), opts); got != nil {
		t.Errorf("expected nil at negative rate, got %v", got)
	}
}
