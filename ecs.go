package molview

import (
	"encoding/binary"
	"fmt"
	"hash/fnv"
	"reflect"
	"slices"
	"sync"
)

type EntityId uint64
type archetypeId uint64
type archetypeKey []componentId
type componentId uint32
type set[T comparable] = map[T]struct{}

// Ecs is an archetype-based entity store. Entities with the same component
// set share an archetype; each archetype keeps one typed slice per component.
type Ecs struct {
	archetypes  map[archetypeId]*archetype
	entityIndex map[EntityId]archetypeId

	entityMu        sync.Mutex
	entityIdCounter EntityId

	componentMu        sync.Mutex
	componentIdCounter componentId
	componentTypeIdMap map[reflect.Type]componentId
	componentIdTypeMap map[componentId]reflect.Type
}

func MakeEcs() Ecs {
	return Ecs{
		archetypes:         make(map[archetypeId]*archetype),
		entityIndex:        make(map[EntityId]archetypeId),
		componentTypeIdMap: make(map[reflect.Type]componentId),
		componentIdTypeMap: make(map[componentId]reflect.Type),
	}
}

type archetype struct {
	id       archetypeId
	key      archetypeKey
	entities map[EntityId]int    // entity -> row
	columns  map[componentId]any // typed slices via reflection
	freeRows []int
}

func (ecs *Ecs) addEntity(components ...any) EntityId {
	return ecs.insertEntity(ecs.nextEntityId(), components...)
}

func (ecs *Ecs) insertEntity(entityId EntityId, components ...any) EntityId {
	archId, arch := ecs.archetypeFor(ecs.keyOf(components...))

	row := arch.reserveRow(ecs)
	arch.entities[entityId] = row
	for _, component := range components {
		ecs.writeComponent(arch, row, component)
	}

	ecs.entityIndex[entityId] = archId
	return entityId
}

func (ecs *Ecs) removeEntity(entityId EntityId) {
	archId, ok := ecs.entityIndex[entityId]
	if !ok {
		return
	}
	arch := ecs.archetypes[archId]
	arch.freeRows = append(arch.freeRows, arch.entities[entityId])
	delete(arch.entities, entityId)
	delete(ecs.entityIndex, entityId)
}

func (ecs *Ecs) addComponents(entityId EntityId, components ...any) {
	srcArchId, ok := ecs.entityIndex[entityId]
	if !ok {
		return
	}
	srcArch := ecs.archetypes[srcArchId]
	srcRow := srcArch.entities[entityId]

	dstKey := mergeKeys(srcArch.key, ecs.keyOf(components...))
	dstArchId, dstArch := ecs.archetypeFor(dstKey)
	dstRow := dstArch.reserveRow(ecs)

	// Carry over the components the destination shares with the source.
	for _, compId := range srcArch.key {
		srcValue := reflectSliceGet(srcArch.columns[compId], srcRow)
		reflectSliceSet(dstArch.columns[compId], dstRow, srcValue)
	}
	for _, component := range components {
		ecs.writeComponent(dstArch, dstRow, component)
	}

	ecs.removeEntity(entityId)

	dstArch.entities[entityId] = dstRow
	ecs.entityIndex[entityId] = dstArchId
}

func (ecs *Ecs) writeComponent(dstArch *archetype, dstRow int, component any) {
	componentType := reflect.TypeOf(component)
	reflectValue := reflect.ValueOf(component)
	if componentType.Kind() == reflect.Pointer {
		componentType = componentType.Elem()
		reflectValue = reflectValue.Elem()
	}
	if componentType.Kind() != reflect.Struct {
		panic(fmt.Errorf("expected component to be a struct or a pointer to a struct, got %s", componentType.Kind()))
	}

	compId := ecs.getComponentId(componentType)
	reflectSliceSet(dstArch.columns[compId], dstRow, reflectValue)
}

func (ecs *Ecs) archetypeFor(key archetypeKey) (archetypeId, *archetype) {
	id := hashArchetypeKey(key)
	if arch, ok := ecs.archetypes[id]; ok {
		return id, arch
	}

	arch := &archetype{
		id:       id,
		key:      key,
		entities: make(map[EntityId]int),
		columns:  make(map[componentId]any),
	}
	for _, compId := range key {
		arch.columns[compId] = reflectSliceMake(ecs.componentIdTypeMap[compId])
	}

	ecs.archetypes[id] = arch
	return id, arch
}

func (arch *archetype) reserveRow(ecs *Ecs) int {
	if n := len(arch.freeRows); n > 0 {
		row := arch.freeRows[n-1]
		arch.freeRows = arch.freeRows[:n-1]
		return row
	}

	row := reflectColumnsLen(arch)
	for _, compId := range arch.key {
		arch.columns[compId] = reflectSliceAppend(
			arch.columns[compId],
			reflect.Zero(ecs.componentIdTypeMap[compId]),
		)
	}
	return row
}

func reflectColumnsLen(arch *archetype) int {
	for _, column := range arch.columns {
		return reflectSliceLen(column)
	}
	return 0
}

// keyOf canonicalizes a component list into a sorted, deduplicated key.
// The archetype id is an fnv hash of that key; the key itself stays around
// as the collision-free identity.
func (ecs *Ecs) keyOf(components ...any) archetypeKey {
	var res archetypeKey
	for _, component := range components {
		compType := reflect.TypeOf(component)
		if compType.Kind() == reflect.Pointer {
			compType = compType.Elem()
		}
		if compType.Kind() != reflect.Struct {
			panic("component should be a struct")
		}
		res = append(res, ecs.getComponentId(compType))
	}
	return canonicalKey(res)
}

func mergeKeys(a archetypeKey, b archetypeKey) archetypeKey {
	return canonicalKey(append(slices.Clone(a), b...))
}

func canonicalKey(key archetypeKey) archetypeKey {
	dedup := make(set[componentId], len(key))
	for _, v := range key {
		dedup[v] = struct{}{}
	}

	res := make(archetypeKey, 0, len(dedup))
	for k := range dedup {
		res = append(res, k)
	}
	slices.Sort(res)
	return res
}

func hashArchetypeKey(key archetypeKey) archetypeId {
	hash := fnv.New64a()
	var b [8]byte
	for _, compId := range key {
		binary.LittleEndian.PutUint64(b[:], uint64(compId))
		hash.Write(b[:])
	}
	return archetypeId(hash.Sum64())
}

func (ecs *Ecs) nextEntityId() EntityId {
	ecs.entityMu.Lock()
	defer ecs.entityMu.Unlock()

	id := ecs.entityIdCounter
	ecs.entityIdCounter += 1
	return id
}

func (ecs *Ecs) getComponentId(componentType reflect.Type) componentId {
	ecs.componentMu.Lock()
	defer ecs.componentMu.Unlock()

	if id, ok := ecs.componentTypeIdMap[componentType]; ok {
		return id
	}

	id := ecs.componentIdCounter
	ecs.componentIdCounter += 1
	ecs.componentTypeIdMap[componentType] = id
	ecs.componentIdTypeMap[id] = componentType
	return id
}
