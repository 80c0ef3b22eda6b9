package molview

import (
	"fmt"
	"slices"
)

type State int

type Stage struct {
	Name string
}

var (
	PreUpdate  = Stage{Name: "PreUpdate"}
	Update     = Stage{Name: "Update"}
	PostUpdate = Stage{Name: "PostUpdate"}
	PreRender  = Stage{Name: "PreRender"}
	Render     = Stage{Name: "Render"}
)

func defaultStages() []Stage {
	return []Stage{PreUpdate, Update, PostUpdate, PreRender, Render}
}

type statePhase int

const (
	enter   statePhase = 0
	execute statePhase = 1
	exit    statePhase = 2
)

type scheduledSystem struct {
	system systemFn
	stage  Stage
	always bool
	state  State
	phase  statePhase
}

type systemScheduleBuilder struct {
	sys scheduledSystem
}

// System starts a schedule builder for the given system function.
// Without further qualification the system runs every frame in Update.
func System(system systemFn) systemScheduleBuilder {
	return systemScheduleBuilder{sys: scheduledSystem{
		system: system,
		stage:  Update,
		always: true,
	}}
}

func (b systemScheduleBuilder) InStage(s Stage) systemScheduleBuilder {
	b.sys.stage = s
	return b
}

func (b systemScheduleBuilder) RunAlways() systemScheduleBuilder {
	b.sys.always = true
	return b
}

func (b systemScheduleBuilder) OnEnter(state State) systemScheduleBuilder {
	b.sys.always = false
	b.sys.state = state
	b.sys.phase = enter
	return b
}

func (b systemScheduleBuilder) OnExecute(state State) systemScheduleBuilder {
	b.sys.always = false
	b.sys.state = state
	b.sys.phase = execute
	return b
}

func (b systemScheduleBuilder) OnExit(state State) systemScheduleBuilder {
	b.sys.always = false
	b.sys.state = state
	b.sys.phase = exit
	return b
}

func (app *App) UseSystem(b systemScheduleBuilder) *App {
	if !b.sys.always && !app.stateful {
		panic("Trying to use a stateful system in a stateless app.")
	}
	if !app.hasStage(b.sys.stage) {
		panic(fmt.Sprintf("Stage %v doesn't exist", b.sys.stage.Name))
	}
	app.scheduled = append(app.scheduled, b.sys)
	return app
}

func (app *App) hasStage(stage Stage) bool {
	for _, s := range app.stages {
		if s.Name == stage.Name {
			return true
		}
	}
	return false
}

type stagePosition int

const (
	stageBefore stagePosition = iota
	stageAfter
)

type stagePositionBuilder struct {
	position stagePosition
	target   Stage
}

func BeforeStage(s Stage) stagePositionBuilder {
	return stagePositionBuilder{position: stageBefore, target: s}
}

func AfterStage(s Stage) stagePositionBuilder {
	return stagePositionBuilder{position: stageAfter, target: s}
}

func (app *App) UseStage(stage Stage, where stagePositionBuilder) *App {
	stageIdx := -1
	for i, s := range app.stages {
		if s.Name == where.target.Name {
			stageIdx = i
			break
		}
	}
	if -1 == stageIdx {
		panic(fmt.Sprintf("Stage %v not found", where.target.Name))
	}

	insertAt := stageIdx
	if stageAfter == where.position {
		insertAt = stageIdx + 1
	}

	app.stages = slices.Insert(app.stages, insertAt, stage)
	return app
}
