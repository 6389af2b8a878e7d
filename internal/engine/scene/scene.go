// Package scene computes the per-frame transforms and lighting for drawing
// the active mesh snapshot.
package scene

import (
	"github.com/chewxy/math32"

	"github.com/Faultbox/explodeview/internal/engine/camera"
	"github.com/Faultbox/explodeview/internal/geometry"
	"github.com/Faultbox/explodeview/internal/mesh"
	"github.com/Faultbox/explodeview/internal/rotation"
	"github.com/Faultbox/explodeview/pkg/math"
)

// Mesh colors per geometry mode.
var (
	AssembledColor = [3]float32{0.678, 0.847, 0.902} // light blue
	ExplodedColor  = [3]float32{1.0, 0.0, 0.0}
)

// ModelColor returns the base color for a geometry mode.
func ModelColor(m geometry.Mode) [3]float32 {
	if m == geometry.Exploded {
		return ExplodedColor
	}
	return AssembledColor
}

// Light is a single directional light with an ambient term.
type Light struct {
	Direction [3]float32
	Ambient   [3]float32
	Diffuse   [3]float32
}

// SunDirection converts an azimuth around Y (measured from +Z toward +X)
// and an elevation above the XZ plane, both in degrees, to a unit vector
// pointing toward the light.
func SunDirection(azimuth, elevation float32) [3]float32 {
	sinAz, cosAz := math32.Sincos(azimuth * math32.Pi / 180)
	sinEl, cosEl := math32.Sincos(elevation * math32.Pi / 180)
	return [3]float32{cosEl * sinAz, sinEl, cosEl * cosAz}
}

// DefaultLight returns a key light from the upper front right.
func DefaultLight() Light {
	return Light{
		Direction: SunDirection(45, 54.7356),
		Ambient:   [3]float32{0.4, 0.4, 0.4},
		Diffuse:   [3]float32{0.6, 0.6, 0.6},
	}
}

// RenderContext holds everything about the view that is not the mesh.
type RenderContext struct {
	Camera *camera.OrbitCamera
	Light  Light
	FovY   float32 // radians
	Near   float32
	Far    float32
}

// NewRenderContext returns a context with a 75 degree field of view.
func NewRenderContext() *RenderContext {
	return &RenderContext{
		Camera: camera.NewOrbitCamera(),
		Light:  DefaultLight(),
		FovY:   75 * math32.Pi / 180,
		Near:   0.1,
		Far:    1000,
	}
}

// Fit points the camera at the model and sizes the clip range so the fully
// exploded model stays visible.
func (ctx *RenderContext) Fit(b mesh.Bounds, margin float32) {
	ctx.Camera.FitToBounds(b.Min, b.Max)
	size := math32.Max(b.MaxDimension(), 1e-3)
	ctx.Near = size * 0.01
	ctx.Far = ctx.Camera.Distance + size + 2*margin
	if ctx.Far < ctx.Camera.MaxDistance+size {
		ctx.Far = ctx.Camera.MaxDistance + size
	}
}

// Matrices are the transforms for one frame.
type Matrices struct {
	Model      math.Mat4
	View       math.Mat4
	Projection math.Mat4
}

// Frame computes the transforms for a width x height viewport. The model
// rotates about the camera target, Y (yaw) applied after X (pitch).
func Frame(ctx *RenderContext, width, height int, angles rotation.Angles) Matrices {
	aspect := float32(1)
	if height > 0 {
		aspect = float32(width) / float32(height)
	}

	c := ctx.Camera.Center
	model := math.Translate(c.X, c.Y, c.Z).
		Mul(math.RotateY(angles.Y)).
		Mul(math.RotateX(angles.X)).
		Mul(math.Translate(-c.X, -c.Y, -c.Z))

	return Matrices{
		Model:      model,
		View:       ctx.Camera.ViewMatrix(),
		Projection: math.Perspective(ctx.FovY, aspect, ctx.Near, ctx.Far),
	}
}
