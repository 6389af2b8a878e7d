// Package explode computes the exploded view of a triangle-soup mesh: every
// triangle is pushed away from the model's centroid along the direction from
// that centroid to the triangle's own centroid.
package explode

import (
	"github.com/chewxy/math32"

	"github.com/Faultbox/explodeview/internal/mesh"
	"github.com/Faultbox/explodeview/pkg/math"
)

const (
	// DefaultScale converts the user-facing factor to model units.
	DefaultScale float32 = 20
	// DefaultFactor is the factor applied when explosion is toggled on.
	DefaultFactor float32 = 10
	// MaxFactor is the upper bound of the user-facing factor.
	MaxFactor float32 = 10
	// FactorStep is the increment used by step controls.
	FactorStep float32 = 0.5

	// directionEpsilon is the centroid offset below which a triangle is
	// considered centred and stays in place.
	directionEpsilon float32 = 1e-6
)

// Apply returns exploded copies of the vertex positions. Each triangle moves
// by factor*scale along the unit direction from the global centroid (mean of
// all vertex slots) to its own centroid. The input is never modified and a
// zero factor returns an exact copy.
func Apply(vertices []float32, indices []uint32, factor, scale float32) []float32 {
	out := make([]float32, len(vertices))
	copy(out, vertices)

	displacement := factor * scale
	if displacement == 0 || len(indices) == 0 {
		return out
	}

	center := mesh.Centroid(vertices)

	for t := 0; t+2 < len(indices); t += 3 {
		i0, i1, i2 := int(indices[t]), int(indices[t+1]), int(indices[t+2])
		dir := Direction(center,
			math.VertexAt(vertices, i0),
			math.VertexAt(vertices, i1),
			math.VertexAt(vertices, i2))
		if dir == (math.Vec3{}) {
			continue
		}

		offset := dir.Scale(displacement)
		for _, i := range [3]int{i0, i1, i2} {
			math.VertexAt(vertices, i).Add(offset).Store(out, i)
		}
	}

	return out
}

// Direction returns the unit vector from center to the centroid of the
// triangle a, b, c, or the zero vector when the two centroids coincide.
func Direction(center, a, b, c math.Vec3) math.Vec3 {
	d := a.Add(b).Add(c).Scale(1.0 / 3).Sub(center)
	l := d.Length()
	if l < directionEpsilon {
		return math.Vec3{}
	}
	return d.Scale(1 / l)
}

// ClampFactor maps a requested factor into [0, MaxFactor]; NaN maps to 0.
func ClampFactor(f float32) float32 {
	if math32.IsNaN(f) || f < 0 {
		return 0
	}
	if f > MaxFactor {
		return MaxFactor
	}
	return f
}

// Intensity describes how strongly a factor separates the model.
type Intensity int

// Intensity levels.
const (
	IntensityNone Intensity = iota
	IntensityLight
	IntensityMedium
	IntensityStrong
	IntensityExtreme
)

// IntensityOf buckets a factor on the 0..MaxFactor scale into quarters.
func IntensityOf(factor float32) Intensity {
	switch {
	case factor <= 0:
		return IntensityNone
	case factor <= MaxFactor*0.25:
		return IntensityLight
	case factor <= MaxFactor*0.5:
		return IntensityMedium
	case factor <= MaxFactor*0.75:
		return IntensityStrong
	default:
		return IntensityExtreme
	}
}

// String returns a human-readable intensity name.
func (i Intensity) String() string {
	switch i {
	case IntensityNone:
		return "none"
	case IntensityLight:
		return "light"
	case IntensityMedium:
		return "medium"
	case IntensityStrong:
		return "strong"
	case IntensityExtreme:
		return "extreme"
	default:
		return "unknown"
	}
}
