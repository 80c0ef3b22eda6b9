package molview

import (
	"reflect"
)

// Map-style queries over the ECS. The callback returns false to stop early.
// Components listed in optionals may be absent; their pointer is nil then.
type Query1[A any] struct{ ecs *Ecs }
type Query2[A, B any] struct{ ecs *Ecs }
type Query3[A, B, C any] struct{ ecs *Ecs }

func MakeQuery1[A any](cmd *Commands) Query1[A]             { return Query1[A]{ecs: cmd.app.ecs} }
func MakeQuery2[A, B any](cmd *Commands) Query2[A, B]       { return Query2[A, B]{ecs: cmd.app.ecs} }
func MakeQuery3[A, B, C any](cmd *Commands) Query3[A, B, C] { return Query3[A, B, C]{ecs: cmd.app.ecs} }

func (q Query1[A]) Map(m func(EntityId, *A) bool, optionals ...any) {
	idA := componentIdOf[A](q.ecs)
	opt := identifyOptionals(q.ecs, optionals...)

	for _, arch := range q.ecs.archetypes {
		colA, okA := column[A](arch, idA, opt)
		if !okA {
			continue
		}

		for entityId, row := range arch.entities {
			if !m(entityId, elem(colA, row)) {
				return
			}
		}
	}
}

func (q Query2[A, B]) Map(m func(EntityId, *A, *B) bool, optionals ...any) {
	idA := componentIdOf[A](q.ecs)
	idB := componentIdOf[B](q.ecs)
	opt := identifyOptionals(q.ecs, optionals...)

	for _, arch := range q.ecs.archetypes {
		colA, okA := column[A](arch, idA, opt)
		if !okA {
			continue
		}
		colB, okB := column[B](arch, idB, opt)
		if !okB {
			continue
		}

		for entityId, row := range arch.entities {
			if !m(entityId, elem(colA, row), elem(colB, row)) {
				return
			}
		}
	}
}

func (q Query3[A, B, C]) Map(m func(EntityId, *A, *B, *C) bool, optionals ...any) {
	idA := componentIdOf[A](q.ecs)
	idB := componentIdOf[B](q.ecs)
	idC := componentIdOf[C](q.ecs)
	opt := identifyOptionals(q.ecs, optionals...)

	for _, arch := range q.ecs.archetypes {
		colA, okA := column[A](arch, idA, opt)
		if !okA {
			continue
		}
		colB, okB := column[B](arch, idB, opt)
		if !okB {
			continue
		}
		colC, okC := column[C](arch, idC, opt)
		if !okC {
			continue
		}

		for entityId, row := range arch.entities {
			if !m(entityId, elem(colA, row), elem(colB, row), elem(colC, row)) {
				return
			}
		}
	}
}

// column fetches the typed slice for a component in an archetype. A nil
// slice with ok=true means the component is optional and absent here.
func column[T any](arch *archetype, id componentId, opt set[componentId]) ([]T, bool) {
	if data, ok := arch.columns[id]; ok {
		return data.([]T), true
	}
	if _, ok := opt[id]; ok {
		return nil, true
	}
	return nil, false
}

func elem[T any](col []T, row int) *T {
	if col == nil {
		return nil
	}
	return &col[row]
}

func identifyOptionals(ecs *Ecs, components ...any) set[componentId] {
	res := make(set[componentId])
	for _, c := range components {
		res[ecs.getComponentId(reflect.TypeOf(c))] = struct{}{}
	}
	return res
}

func componentIdOf[T any](ecs *Ecs) componentId {
	var zero T
	return ecs.getComponentId(reflect.TypeOf(zero))
}
