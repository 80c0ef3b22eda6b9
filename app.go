package molview

import (
	"fmt"
	"reflect"
	"runtime"
)

type systemFn any

// Module wires resources and systems into an App during construction.
type Module interface {
	Install(app *App, cmd *Commands)
}

type App struct {
	stateful           bool
	stateTransitioning bool
	initialState       State
	finalState         State
	nextState          State
	state              State
	quitting           bool

	stages    []Stage
	scheduled []scheduledSystem
	resources map[reflect.Type]any
	ecs       *Ecs

	// Command buffering
	pendingAdditions []pendingAdd
	pendingRemovals  []EntityId
	pendingCompAdds  []pendingCompAdd
}

type pendingAdd struct {
	eid        EntityId
	components []any
}

type pendingCompAdd struct {
	eid        EntityId
	components []any
}

func (app *App) Commands() *Commands {
	return &Commands{app: app}
}

func (app *App) Run() {
	if app.stateful {
		app.state = app.initialState
		app.callSystems(app.state, enter)
	}

	for {
		app.callSystems(app.state, execute)

		if app.stateful {
			if app.stateTransitioning {
				app.stateTransitioning = false
				app.executeChangeState(app.nextState)
			}
			if app.state == app.finalState {
				app.callSystems(app.state, exit)
				break
			}
		}

		if app.quitting {
			break
		}
	}
}

func (app *App) callSystems(state State, phase statePhase) {
	for _, stage := range app.stages {
		for _, s := range app.scheduled {
			if s.stage.Name != stage.Name {
				continue
			}
			if s.always {
				if execute == phase {
					app.callSystem(s.system)
				}
				continue
			}
			if app.stateful && s.state == state && s.phase == phase {
				app.callSystem(s.system)
			}
		}
		app.FlushCommands()
	}
}

func (app *App) changeState(newState State) {
	app.nextState = newState
	app.stateTransitioning = true
}

func (app *App) executeChangeState(newState State) {
	app.callSystems(app.state, exit)
	app.state = newState
	app.callSystems(app.state, enter)
}

func (app *App) quit() {
	app.quitting = true
}

func (app *App) addResources(resources ...any) *App {
	for _, resource := range resources {
		resourceType := reflect.TypeOf(resource)
		if _, ok := app.resources[resourceType.Elem()]; ok {
			panic(fmt.Sprintf("%s is already in resources", resourceType))
		}
		app.resources[resourceType.Elem()] = resource
	}
	return app
}

var typeOfCommands = reflect.TypeOf(Commands{})

// callSystem resolves each pointer parameter of the system function against
// the resource map (or injects a fresh Commands) and invokes it.
func (app *App) callSystem(system systemFn) {
	systemType := reflect.TypeOf(system)
	systemValue := reflect.ValueOf(system)

	args := make([]reflect.Value, systemType.NumIn())

	for i := 0; i < systemType.NumIn(); i++ {
		argType := systemType.In(i)
		underlyingType := argType.Elem()

		if underlyingType == typeOfCommands {
			args[i] = reflect.ValueOf(&Commands{app: app})
		} else if resource, ok := app.resources[underlyingType]; ok {
			resourceVal := reflect.ValueOf(resource)
			args[i] = reflect.NewAt(underlyingType, resourceVal.UnsafePointer())
		} else {
			panic(fmt.Sprintf("Unable to resolve system dependency.\nSystem: %s\nDependency: %s",
				runtime.FuncForPC(systemValue.Pointer()).Name(),
				fmt.Sprint(argType),
			))
		}
	}
	systemValue.Call(args)
}

func (app *App) FlushCommands() {
	if len(app.pendingAdditions) == 0 && len(app.pendingRemovals) == 0 && len(app.pendingCompAdds) == 0 {
		return
	}

	// Removals first, so we never add components to dead entities.
	for _, eid := range app.pendingRemovals {
		app.ecs.removeEntity(eid)
	}
	app.pendingRemovals = app.pendingRemovals[:0]

	for _, add := range app.pendingAdditions {
		app.ecs.insertEntity(add.eid, add.components...)
	}
	app.pendingAdditions = app.pendingAdditions[:0]

	for _, add := range app.pendingCompAdds {
		app.ecs.addComponents(add.eid, add.components...)
	}
	app.pendingCompAdds = app.pendingCompAdds[:0]
}
