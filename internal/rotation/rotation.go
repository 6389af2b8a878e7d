// Package rotation arbitrates between automatic rotation and user drags.
//
// The machine starts AutoRotating. A drag start switches to ManualDragging
// immediately; a drag end moves to CoolingDown, and the next Update after the
// cooldown has elapsed resumes AutoRotating. Resumption is decided by
// comparing timestamps on Update, so a drag that starts during the cooldown
// simply takes over and no pending resume can fire late.
package rotation

import (
	"fmt"
	"sync"
	"time"

	"github.com/chewxy/math32"
)

// State is the interaction state.
type State int

// Interaction states.
const (
	AutoRotating State = iota
	ManualDragging
	CoolingDown
)

// String returns the state name.
func (s State) String() string {
	switch s {
	case AutoRotating:
		return "auto-rotating"
	case ManualDragging:
		return "manual-dragging"
	case CoolingDown:
		return "cooling-down"
	default:
		return fmt.Sprintf("State(%d)", int(s))
	}
}

// Angles is the model rotation in radians: X is pitch, Y is yaw.
type Angles struct {
	X, Y float32
}

// Config holds the interaction tuning.
type Config struct {
	// AutoRotateSpeed is the yaw rate while auto-rotating, in rad/s.
	AutoRotateSpeed float32
	// Sensitivity maps pointer movement units to radians.
	Sensitivity float32
	// Cooldown is the quiet period after a drag before auto-rotation resumes.
	Cooldown time.Duration
}

// DefaultConfig returns 0.01 rad per 60 Hz frame, 0.008 rad per pointer
// unit and a 1.5 s cooldown.
func DefaultConfig() Config {
	return Config{
		AutoRotateSpeed: 0.6,
		Sensitivity:     0.008,
		Cooldown:        1500 * time.Millisecond,
	}
}

// Clock returns the current time.
type Clock func() time.Time

// Machine is the rotation interaction state machine. It is safe for
// concurrent use by an input goroutine and a render loop.
type Machine struct {
	mu    sync.Mutex
	cfg   Config
	clock Clock

	state        State
	angles       Angles
	dragBase     Angles  // angles when the current drag started
	dragDX       float32 // accumulated pointer movement of the current drag
	dragDY       float32
	lastTouchEnd time.Time
}

// New creates a machine in AutoRotating state. A nil clock uses time.Now.
func New(cfg Config, clock Clock) *Machine {
	if clock == nil {
		clock = time.Now
	}
	return &Machine{
		cfg:   cfg,
		clock: clock,
		state: AutoRotating,
	}
}

// DragStart enters ManualDragging from any state.
func (m *Machine) DragStart() {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.state = ManualDragging
	m.dragBase = m.angles
	m.dragDX, m.dragDY = 0, 0
}

// DragMove accumulates pointer movement and sets the angles from the drag
// total. Horizontal movement drives yaw, vertical movement drives pitch.
// Moves outside a drag are ignored.
func (m *Machine) DragMove(dx, dy float32) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.state != ManualDragging {
		return
	}
	m.dragDX += dx
	m.dragDY += dy
	m.angles = Angles{
		X: m.dragBase.X + m.dragDY*m.cfg.Sensitivity,
		Y: m.dragBase.Y + m.dragDX*m.cfg.Sensitivity,
	}
}

// DragEnd leaves ManualDragging and starts the cooldown. It is a no-op
// outside a drag.
func (m *Machine) DragEnd() {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.state != ManualDragging {
		return
	}
	m.state = CoolingDown
	m.lastTouchEnd = m.clock()
}

// Update advances the machine by one frame of dt and returns the angles to
// render. Auto-rotation only accumulates frames spent in AutoRotating; the
// cooldown period is never applied retroactively.
func (m *Machine) Update(dt time.Duration) Angles {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.state == CoolingDown && m.clock().Sub(m.lastTouchEnd) >= m.cfg.Cooldown {
		m.state = AutoRotating
	}
	if m.state == AutoRotating {
		m.angles.Y = wrapAngle(m.angles.Y + m.cfg.AutoRotateSpeed*float32(dt.Seconds()))
	}
	return m.angles
}

// Reset forces AutoRotating and zeroes both angles.
func (m *Machine) Reset() {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.state = AutoRotating
	m.angles = Angles{}
	m.dragBase = Angles{}
	m.dragDX, m.dragDY = 0, 0
}

// State returns the current state.
func (m *Machine) State() State {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.state
}

// Angles returns the current angles without advancing the machine.
func (m *Machine) Angles() Angles {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.angles
}

// LastTouchEnd returns when the most recent drag ended.
func (m *Machine) LastTouchEnd() time.Time {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.lastTouchEnd
}

// wrapAngle keeps an angle within (-2pi, 2pi) so long sessions do not lose
// float32 precision.
func wrapAngle(a float32) float32 {
	return math32.Mod(a, 2*math32.Pi)
}
