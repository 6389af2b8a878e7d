// Package camera provides the orbit camera used by the mesh viewer.
package camera

import (
	"github.com/chewxy/math32"

	"github.com/Faultbox/explodeview/pkg/math"
)

// FitDistanceFactor places the camera this many model sizes from the center.
const FitDistanceFactor = 3

// OrbitCamera orbits around a center point.
type OrbitCamera struct {
	// Center point to orbit around
	Center math.Vec3

	// Spherical coordinates
	Distance  float32 // Distance from center
	RotationX float32 // Pitch (vertical angle, radians)
	RotationY float32 // Yaw (horizontal angle, radians)

	// Constraints
	MinDistance float32
	MaxDistance float32

	ZoomSensitivity float32
}

// NewOrbitCamera creates a camera on the +Z axis looking at the origin.
func NewOrbitCamera() *OrbitCamera {
	return &OrbitCamera{
		Distance:        5,
		MinDistance:     0.01,
		MaxDistance:     1e6,
		ZoomSensitivity: 0.1,
	}
}

// Position returns the camera position in world space.
func (c *OrbitCamera) Position() math.Vec3 {
	sinX, cosX := math32.Sincos(c.RotationX)
	sinY, cosY := math32.Sincos(c.RotationY)

	return math.Vec3{
		X: c.Center.X + c.Distance*cosX*sinY,
		Y: c.Center.Y + c.Distance*sinX,
		Z: c.Center.Z + c.Distance*cosX*cosY,
	}
}

// ViewMatrix returns the view matrix for this camera.
func (c *OrbitCamera) ViewMatrix() math.Mat4 {
	up := math.Vec3{X: 0, Y: 1, Z: 0}
	return math.LookAt(c.Position(), c.Center, up)
}

// HandleZoom updates distance based on scroll wheel delta.
func (c *OrbitCamera) HandleZoom(delta float32) {
	c.Distance -= delta * c.Distance * c.ZoomSensitivity
	c.clampDistance()
}

// FitToBounds centers the camera on a bounding box and backs off to
// FitDistanceFactor times its largest dimension. Zoom limits follow the
// model size.
func (c *OrbitCamera) FitToBounds(min, max [3]float32) {
	c.Center = math.Vec3{
		X: (min[0] + max[0]) / 2,
		Y: (min[1] + max[1]) / 2,
		Z: (min[2] + max[2]) / 2,
	}

	size := math32.Max(max[0]-min[0], math32.Max(max[1]-min[1], max[2]-min[2]))
	if size <= 0 {
		size = 1 // single point or flat degenerate model
	}

	c.Distance = size * FitDistanceFactor
	c.MinDistance = size * 0.1
	c.MaxDistance = size * 100
	c.RotationX = 0
	c.RotationY = 0
}

func (c *OrbitCamera) clampDistance() {
	if c.Distance < c.MinDistance {
		c.Distance = c.MinDistance
	}
	if c.Distance > c.MaxDistance {
		c.Distance = c.MaxDistance
	}
}
