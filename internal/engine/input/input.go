// Package input translates SDL2 events into navigation input state.
package input

import (
	"github.com/veandco/go-sdl2/sdl"

	"github.com/metroa-labs/pointwalk/internal/nav"
)

// Handler owns the keyboard/mouse state for one navigation controller.
// Key events only toggle boolean flags; the controller integrates them
// once per frame, so event rate never races the frame rate. The handler
// is explicitly attached and detached with the controller's lifetime
// rather than installing ambient global listeners.
type Handler struct {
	ctl         *nav.Controller
	sensitivity float32
	state       nav.InputState
	attached    bool

	// OnResize is called with the new drawable size when the window
	// resizes. Optional.
	OnResize func(width, height int)
}

// New creates an input handler bound to the controller.
func New(ctl *nav.Controller, mouseSensitivity float32) *Handler {
	return &Handler{
		ctl:         ctl,
		sensitivity: mouseSensitivity,
	}
}

// Attach activates the handler and captures the mouse for look input.
func (h *Handler) Attach() {
	sdl.SetRelativeMouseMode(true)
	h.attached = true
}

// Detach releases the mouse and stops feeding the controller. Held
// flags are cleared so no key stays virtually pressed.
func (h *Handler) Detach() {
	sdl.SetRelativeMouseMode(false)
	h.attached = false
	h.state = nav.InputState{}
	h.ctl.SetInput(h.state)
}

// Poll pumps pending SDL events into the controller.
// Returns true if the application should quit.
func (h *Handler) Poll() bool {
	quit := false

	for event := sdl.PollEvent(); event != nil; event = sdl.PollEvent() {
		switch e := event.(type) {
		case *sdl.QuitEvent:
			quit = true

		case *sdl.WindowEvent:
			if e.Event == sdl.WINDOWEVENT_RESIZED && h.OnResize != nil {
				h.OnResize(int(e.Data1), int(e.Data2))
			}

		case *sdl.KeyboardEvent:
			if !h.attached {
				continue
			}
			held := e.Type == sdl.KEYDOWN
			switch e.Keysym.Scancode {
			case sdl.SCANCODE_W, sdl.SCANCODE_UP:
				h.state.Forward = held
			case sdl.SCANCODE_S, sdl.SCANCODE_DOWN:
				h.state.Back = held
			case sdl.SCANCODE_A, sdl.SCANCODE_LEFT:
				h.state.Left = held
			case sdl.SCANCODE_D, sdl.SCANCODE_RIGHT:
				h.state.Right = held
			case sdl.SCANCODE_SPACE:
				h.state.Up = held
			case sdl.SCANCODE_C:
				h.state.Down = held
			case sdl.SCANCODE_LSHIFT, sdl.SCANCODE_RSHIFT:
				h.state.Sprint = held
			case sdl.SCANCODE_ESCAPE:
				if held {
					quit = true
				}
			}

		case *sdl.MouseMotionEvent:
			if !h.attached {
				continue
			}
			h.ctl.Look(
				-float32(e.XRel)*h.sensitivity,
				float32(e.YRel)*h.sensitivity,
			)
		}
	}

	if h.attached {
		h.ctl.SetInput(h.state)
	}
	return quit
}
