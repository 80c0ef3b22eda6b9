package molview

import (
	"reflect"
	"runtime"

	"github.com/go-gl/glfw/v3.3/glfw"
)

type WindowState struct {
	windowGlfw   *glfw.Window
	WindowWidth  int
	WindowHeight int
	windowTitle  string

	// Wheel offsets accumulated by the GLFW callback since startup.
	// Input drains these into per-frame deltas.
	scrollX float64
	scrollY float64

	// Set by the framebuffer callback, cleared by the renderer once the
	// swapchain matches again.
	resized bool
}

func createWindowState(windowWidth int, windowHeight int, windowTitle string) *WindowState {
	runtime.LockOSThread()
	if err := glfw.Init(); err != nil {
		panic(err)
	}

	glfw.WindowHint(glfw.ClientAPI, glfw.NoAPI) // no OpenGL context, the surface belongs to wgpu
	glfw.WindowHint(glfw.Resizable, glfw.True)

	win, err := glfw.CreateWindow(windowWidth, windowHeight, windowTitle, nil, nil)
	if err != nil {
		panic(err)
	}

	state := &WindowState{
		windowGlfw:   win,
		WindowWidth:  windowWidth,
		WindowHeight: windowHeight,
		windowTitle:  windowTitle,
	}
	win.SetScrollCallback(func(w *glfw.Window, xoff float64, yoff float64) {
		state.scrollX += xoff
		state.scrollY += yoff
	})
	win.SetFramebufferSizeCallback(func(w *glfw.Window, width int, height int) {
		if width > 0 && height > 0 {
			state.WindowWidth = width
			state.WindowHeight = height
			state.resized = true
		}
	})
	return state
}

// WindowModule provides a single shared GLFW window (WindowState) for the
// renderer and input modules. Install is idempotent: an existing WindowState
// resource is reused so multiple modules can depend on it.
type WindowModule struct {
	Width  int
	Height int
	Title  string
}

func NewWindow(width, height int, title string) *WindowModule {
	if width <= 0 {
		width = 1280
	}
	if height <= 0 {
		height = 720
	}
	if title == "" {
		title = "molview"
	}
	return &WindowModule{
		Width:  width,
		Height: height,
		Title:  title,
	}
}

func (m WindowModule) Install(app *App, cmd *Commands) {
	t := reflect.TypeOf((*WindowState)(nil)).Elem()
	if _, ok := app.resources[t]; ok {
		return
	}

	ws := createWindowState(m.Width, m.Height, m.Title)
	app.addResources(ws)

	app.UseSystem(
		System(windowEventsSystem).
			InStage(PreUpdate).
			RunAlways(),
	)
}

func windowEventsSystem(state *WindowState, cmd *Commands) {
	if state.windowGlfw.ShouldClose() {
		cmd.Quit()
		return
	}
	glfw.PollEvents()
}
