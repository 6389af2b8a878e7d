package rotation

import (
	"fmt"

	"github.com/chewxy/math32"
)

// View is a fixed camera preset.
type View int

// View presets.
const (
	ViewFront View = iota
	ViewTop
	ViewSide
)

// String returns the preset name.
func (v View) String() string {
	switch v {
	case ViewFront:
		return "front"
	case ViewTop:
		return "top"
	case ViewSide:
		return "side"
	default:
		return fmt.Sprintf("View(%d)", int(v))
	}
}

// ParseView resolves a preset by name.
func ParseView(name string) (View, error) {
	switch name {
	case "front":
		return ViewFront, nil
	case "top":
		return ViewTop, nil
	case "side":
		return ViewSide, nil
	default:
		return 0, fmt.Errorf("unknown view %q", name)
	}
}

// Angles returns the model rotation that shows the preset.
func (v View) Angles() Angles {
	switch v {
	case ViewTop:
		return Angles{X: math32.Pi / 2}
	case ViewSide:
		return Angles{Y: -math32.Pi / 2}
	default:
		return Angles{}
	}
}

// ApplyView snaps to a preset and behaves as if a drag had just ended, so
// auto-rotation resumes after the cooldown.
func (m *Machine) ApplyView(v View) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.angles = v.Angles()
	m.dragBase = m.angles
	m.dragDX, m.dragDY = 0, 0
	m.state = CoolingDown
	m.lastTouchEnd = m.clock()
}
