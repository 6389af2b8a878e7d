package input

import "github.com/veandco/go-sdl2/sdl"

// Action is a discrete viewer command bound to a key.
type Action int

const (
	ActionNone Action = iota
	ActionToggleExplosion
	ActionFactorUp
	ActionFactorDown
	ActionMaxExplosion
	ActionResetRotation
	ActionViewFront
	ActionViewTop
	ActionViewSide
	ActionExport
	ActionScreenshot
	ActionToggleBounds
	ActionQuit
)

var actionNames = [...]string{
	ActionNone:            "none",
	ActionToggleExplosion: "toggle-explosion",
	ActionFactorUp:        "factor-up",
	ActionFactorDown:      "factor-down",
	ActionMaxExplosion:    "max-explosion",
	ActionResetRotation:   "reset-rotation",
	ActionViewFront:       "view-front",
	ActionViewTop:         "view-top",
	ActionViewSide:        "view-side",
	ActionExport:          "export",
	ActionScreenshot:      "screenshot",
	ActionToggleBounds:    "toggle-bounds",
	ActionQuit:            "quit",
}

func (a Action) String() string {
	if a < 0 || int(a) >= len(actionNames) {
		return "unknown"
	}
	return actionNames[a]
}

// KeyAction returns the action bound to a key.
func KeyAction(sc sdl.Scancode) Action {
	switch sc {
	case sdl.SCANCODE_E, sdl.SCANCODE_SPACE:
		return ActionToggleExplosion
	case sdl.SCANCODE_EQUALS, sdl.SCANCODE_KP_PLUS:
		return ActionFactorUp
	case sdl.SCANCODE_MINUS, sdl.SCANCODE_KP_MINUS:
		return ActionFactorDown
	case sdl.SCANCODE_M:
		return ActionMaxExplosion
	case sdl.SCANCODE_R:
		return ActionResetRotation
	case sdl.SCANCODE_1:
		return ActionViewFront
	case sdl.SCANCODE_2:
		return ActionViewTop
	case sdl.SCANCODE_3:
		return ActionViewSide
	case sdl.SCANCODE_S:
		return ActionExport
	case sdl.SCANCODE_P:
		return ActionScreenshot
	case sdl.SCANCODE_B:
		return ActionToggleBounds
	case sdl.SCANCODE_ESCAPE, sdl.SCANCODE_Q:
		return ActionQuit
	default:
		return ActionNone
	}
}
