// Package input translates SDL2 events into viewer intents.
package input

import (
	"github.com/veandco/go-sdl2/sdl"
)

// EventType classifies a processed event.
type EventType int

const (
	EventNone EventType = iota
	EventQuit
	EventWindowResize
	EventAction
	EventDragStart
	EventDragMove
	EventDragEnd
	EventZoom
)

// Event represents a processed input event.
type Event struct {
	Type   EventType
	Action Action
	Width  int
	Height int
	// DX and DY are the pointer delta of a drag move.
	DX, DY float32
	// Zoom is the wheel delta, positive toward the model.
	Zoom float32
}

// Input handles all input processing. A drag is any pointer motion while
// the left button (or a finger) is held.
type Input struct {
	events   []Event
	dragging bool

	// Set while the active drag belongs to finger.
	touchDrag bool
	finger    sdl.FingerID
}

// New creates a new input handler.
func New() *Input {
	return &Input{
		events: make([]Event, 0, 16),
	}
}

// Update polls SDL events and converts them to viewer events.
// Returns true if the viewer should quit.
func (i *Input) Update() bool {
	i.events = i.events[:0]
	quit := false

	for event := sdl.PollEvent(); event != nil; event = sdl.PollEvent() {
		switch e := event.(type) {
		case *sdl.QuitEvent:
			i.events = append(i.events, Event{Type: EventQuit})
			quit = true

		case *sdl.WindowEvent:
			switch e.Event {
			case sdl.WINDOWEVENT_RESIZED, sdl.WINDOWEVENT_SIZE_CHANGED:
				i.events = append(i.events, Event{
					Type:   EventWindowResize,
					Width:  int(e.Data1),
					Height: int(e.Data2),
				})
			case sdl.WINDOWEVENT_FOCUS_LOST:
				// A release outside the window is never delivered.
				i.endDrag()
			}

		case *sdl.KeyboardEvent:
			if e.Type != sdl.KEYDOWN || e.Repeat != 0 {
				continue
			}
			action := KeyAction(e.Keysym.Scancode)
			if action == ActionQuit {
				quit = true
			}
			if action != ActionNone {
				i.events = append(i.events, Event{Type: EventAction, Action: action})
			}

		case *sdl.MouseButtonEvent:
			if e.Which == sdl.TOUCH_MOUSEID || e.Button != sdl.BUTTON_LEFT {
				continue
			}
			if e.Type == sdl.MOUSEBUTTONDOWN {
				i.startDrag()
			} else {
				i.endDrag()
			}

		case *sdl.MouseMotionEvent:
			if e.Which == sdl.TOUCH_MOUSEID || !i.dragging {
				continue
			}
			i.events = append(i.events, Event{
				Type: EventDragMove,
				DX:   float32(e.XRel),
				DY:   float32(e.YRel),
			})

		case *sdl.TouchFingerEvent:
			i.touch(e)

		case *sdl.MouseWheelEvent:
			if e.Y != 0 {
				i.events = append(i.events, Event{Type: EventZoom, Zoom: float32(e.Y)})
			}
		}
	}

	return quit
}

// touchScale converts normalized finger deltas to the pixel-like units the
// rotation sensitivity is tuned for.
const touchScale = 1000

// touch drives a drag from the first finger down. Other fingers are ignored
// until that finger lifts.
func (i *Input) touch(e *sdl.TouchFingerEvent) {
	switch e.Type {
	case sdl.FINGERDOWN:
		if i.dragging {
			return
		}
		i.startDrag()
		i.touchDrag = true
		i.finger = e.FingerID
	case sdl.FINGERUP:
		if i.ownsFinger(e.FingerID) {
			i.endDrag()
		}
	case sdl.FINGERMOTION:
		if i.ownsFinger(e.FingerID) {
			i.events = append(i.events, Event{
				Type: EventDragMove,
				DX:   e.DX * touchScale,
				DY:   e.DY * touchScale,
			})
		}
	}
}

func (i *Input) ownsFinger(id sdl.FingerID) bool {
	return i.dragging && i.touchDrag && i.finger == id
}

func (i *Input) startDrag() {
	if i.dragging {
		return
	}
	i.dragging = true
	i.events = append(i.events, Event{Type: EventDragStart})
}

func (i *Input) endDrag() {
	if !i.dragging {
		return
	}
	i.dragging = false
	i.touchDrag = false
	i.events = append(i.events, Event{Type: EventDragEnd})
}

// Dragging reports whether a drag is in progress.
func (i *Input) Dragging() bool {
	return i.dragging
}

// Events returns the events from the last Update.
func (i *Input) Events() []Event {
	return i.events
}
