package molview

import (
	"testing"

	"github.com/go-gl/mathgl/mgl32"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEcs_MakeEcs(t *testing.T) {
	ecs := MakeEcs()

	if len(ecs.archetypes) != 0 {
		t.Errorf("Expected archetypes to be empty, got %v", ecs.archetypes)
	}
	if len(ecs.entityIndex) != 0 {
		t.Errorf("Expected entityIndex to be empty, got %v", ecs.entityIndex)
	}
	if ecs.entityIdCounter != 0 {
		t.Errorf("Expected entityIdCounter to be 0, got %v", ecs.entityIdCounter)
	}
}

func TestEcs_AddEntity(t *testing.T) {
	ecs := MakeEcs()

	empty := ecs.addEntity()
	if _, ok := ecs.entityIndex[empty]; !ok {
		t.Errorf("Expected entityId %v to be in entityIndex", empty)
	}

	withTransform := ecs.addEntity(NewTransform(mgl32.Vec3{1, 2, 3}))
	if _, ok := ecs.entityIndex[withTransform]; !ok {
		t.Errorf("Expected entityId %v to be in entityIndex", withTransform)
	}

	if ecs.entityIndex[empty] == ecs.entityIndex[withTransform] {
		t.Errorf("Entities with different components ended up in the same archetype")
	}
}

func TestEcs_SameComponentSetSharesArchetype(t *testing.T) {
	ecs := MakeEcs()

	// Component order must not matter for archetype identity.
	a := ecs.addEntity(NewTransform(mgl32.Vec3{}), SpinComponent{Speed: 1})
	b := ecs.addEntity(SpinComponent{Speed: 2}, NewTransform(mgl32.Vec3{}))

	assert.Equal(t, ecs.entityIndex[a], ecs.entityIndex[b])
}

func TestEcs_AddComponentsMovesArchetype(t *testing.T) {
	ecs := MakeEcs()

	eid := ecs.addEntity(NewTransform(mgl32.Vec3{5, 0, 0}))
	before := ecs.entityIndex[eid]

	ecs.addComponents(eid, SpinComponent{Speed: 3})
	after := ecs.entityIndex[eid]
	require.NotEqual(t, before, after)

	// The transform must survive the move and the spin must be present.
	arch := ecs.archetypes[after]
	row := arch.entities[eid]

	transformId := componentIdOf[TransformComponent](&ecs)
	spinId := componentIdOf[SpinComponent](&ecs)

	transform := arch.columns[transformId].([]TransformComponent)[row]
	assert.Equal(t, float32(5), transform.Position.X())

	spin := arch.columns[spinId].([]SpinComponent)[row]
	assert.Equal(t, float32(3), spin.Speed)
}

func TestEcs_RemoveEntityRecyclesRow(t *testing.T) {
	ecs := MakeEcs()

	first := ecs.addEntity(SpinComponent{Speed: 1})
	archId := ecs.entityIndex[first]
	firstRow := ecs.archetypes[archId].entities[first]

	ecs.removeEntity(first)
	if _, ok := ecs.entityIndex[first]; ok {
		t.Errorf("Expected entity %v to be gone from entityIndex", first)
	}

	second := ecs.addEntity(SpinComponent{Speed: 2})
	secondRow := ecs.archetypes[archId].entities[second]
	assert.Equal(t, firstRow, secondRow)

	// Removing twice is a no-op.
	ecs.removeEntity(first)
}

func TestEcs_PointerComponentsAccepted(t *testing.T) {
	ecs := MakeEcs()

	eid := ecs.addEntity(&SpinComponent{Speed: 7})
	archId := ecs.entityIndex[eid]
	arch := ecs.archetypes[archId]

	spinId := componentIdOf[SpinComponent](&ecs)
	spin := arch.columns[spinId].([]SpinComponent)[arch.entities[eid]]
	assert.Equal(t, float32(7), spin.Speed)
}

func TestQuery_MapFiltersByComponentSet(t *testing.T) {
	app := NewAppBuilder().Build()
	cmd := app.Commands()

	spinning := cmd.AddEntity(NewTransform(mgl32.Vec3{1, 0, 0}), SpinComponent{Speed: 1})
	static := cmd.AddEntity(NewTransform(mgl32.Vec3{2, 0, 0}))
	app.FlushCommands()

	var visited []EntityId
	MakeQuery2[TransformComponent, SpinComponent](cmd).Map(
		func(eid EntityId, tr *TransformComponent, spin *SpinComponent) bool {
			visited = append(visited, eid)
			return true
		},
	)

	require.Len(t, visited, 1)
	assert.Equal(t, spinning, visited[0])
	assert.NotContains(t, visited, static)
}

func TestQuery_MapMutatesInPlace(t *testing.T) {
	app := NewAppBuilder().Build()
	cmd := app.Commands()

	cmd.AddEntity(NewTransform(mgl32.Vec3{}), SpinComponent{Speed: 1})
	app.FlushCommands()

	MakeQuery1[SpinComponent](cmd).Map(
		func(eid EntityId, spin *SpinComponent) bool {
			spin.Angle = 42
			return true
		},
	)

	MakeQuery1[SpinComponent](cmd).Map(
		func(eid EntityId, spin *SpinComponent) bool {
			assert.Equal(t, float32(42), spin.Angle)
			return true
		},
	)
}

func TestQuery_OptionalComponent(t *testing.T) {
	app := NewAppBuilder().Build()
	cmd := app.Commands()

	cmd.AddEntity(NewTransform(mgl32.Vec3{1, 0, 0}), SpinComponent{})
	cmd.AddEntity(NewTransform(mgl32.Vec3{2, 0, 0}))
	app.FlushCommands()

	withSpin, withoutSpin := 0, 0
	MakeQuery2[TransformComponent, SpinComponent](cmd).Map(
		func(eid EntityId, tr *TransformComponent, spin *SpinComponent) bool {
			if spin == nil {
				withoutSpin++
			} else {
				withSpin++
			}
			return true
		},
		SpinComponent{},
	)

	assert.Equal(t, 1, withSpin)
	assert.Equal(t, 1, withoutSpin)
}

func TestQuery_EarlyStop(t *testing.T) {
	app := NewAppBuilder().Build()
	cmd := app.Commands()

	for i := 0; i < 5; i++ {
		cmd.AddEntity(SpinComponent{Speed: float32(i)})
	}
	app.FlushCommands()

	calls := 0
	MakeQuery1[SpinComponent](cmd).Map(
		func(eid EntityId, spin *SpinComponent) bool {
			calls++
			return false
		},
	)
	assert.Equal(t, 1, calls)
}
