package molview

import (
	"github.com/go-gl/glfw/v3.3/glfw"
)

const (
	KeySpace int = iota
	KeyEscape
	KeyR
	KeyP
	KeyUp
	KeyDown
	KeyLeft
	KeyRight
	keyCount
)

var keyToGlfw = map[int]glfw.Key{
	KeySpace:  glfw.KeySpace,
	KeyEscape: glfw.KeyEscape,
	KeyR:      glfw.KeyR,
	KeyP:      glfw.KeyP,
	KeyUp:     glfw.KeyUp,
	KeyDown:   glfw.KeyDown,
	KeyLeft:   glfw.KeyLeft,
	KeyRight:  glfw.KeyRight,
}

type Input struct {
	Pressed      [keyCount]bool
	JustPressed  [keyCount]bool
	JustReleased [keyCount]bool

	// Cumulative wheel position and the change since the previous frame.
	ScrollX      float64
	ScrollY      float64
	ScrollDeltaX float64
	ScrollDeltaY float64

	WindowWidth, WindowHeight int
}

type InputModule struct{}

func (mod InputModule) Install(app *App, cmd *Commands) {
	cmd.AddResources(&Input{})
	app.UseSystem(
		System(inputSystem).
			InStage(PreUpdate).
			RunAlways(),
	)
}

func inputSystem(s *WindowState, input *Input) {
	for key, glfwKey := range keyToGlfw {
		action := s.windowGlfw.GetKey(glfwKey)

		input.JustPressed[key] = false
		input.JustReleased[key] = false

		if glfw.Press == action {
			if !input.Pressed[key] {
				input.JustPressed[key] = true
			}
			input.Pressed[key] = true
		} else if glfw.Release == action {
			if input.Pressed[key] {
				input.JustReleased[key] = true
			}
			input.Pressed[key] = false
		}
	}

	input.ScrollDeltaX = s.scrollX - input.ScrollX
	input.ScrollDeltaY = s.scrollY - input.ScrollY
	input.ScrollX = s.scrollX
	input.ScrollY = s.scrollY

	input.WindowWidth, input.WindowHeight = s.windowGlfw.GetSize()
}
