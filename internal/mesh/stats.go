package mesh

import (
	"github.com/chewxy/math32"

	"github.com/Faultbox/explodeview/pkg/math"
)

// Stats summarizes a mesh for display and camera fitting.
type Stats struct {
	VertexCount   int
	TriangleCount int
	Bounds        Bounds
	// Centroid is the mean of all vertex slots.
	Centroid math.Vec3
	// SurfaceArea is the summed triangle area.
	SurfaceArea float32
	// Volume is the magnitude of the summed signed-tetrahedron volumes;
	// only meaningful for closed, consistently wound meshes.
	Volume float32
	// Degenerate counts triangles with zero area.
	Degenerate int
}

// Centroid returns the mean of all vertex positions in a flat buffer.
// Accumulation is done in float64 to limit drift on large meshes.
func Centroid(vertices []float32) math.Vec3 {
	n := len(vertices) / 3
	if n == 0 {
		return math.Vec3{}
	}
	var sx, sy, sz float64
	for i := 0; i < n; i++ {
		sx += float64(vertices[3*i])
		sy += float64(vertices[3*i+1])
		sz += float64(vertices[3*i+2])
	}
	return math.Vec3{
		X: float32(sx / float64(n)),
		Y: float32(sy / float64(n)),
		Z: float32(sz / float64(n)),
	}
}

// ComputeStats derives summary statistics from ingested buffers.
func ComputeStats(b *Buffers) Stats {
	s := Stats{
		VertexCount:   b.VertexCount,
		TriangleCount: b.TriangleCount,
		Bounds:        b.Bounds,
		Centroid:      Centroid(b.Vertices),
	}

	var volume float64
	for t := 0; t < b.TriangleCount; t++ {
		tri := b.Triangle(t)
		v1 := math.VertexAt(b.Vertices, int(tri[0]))
		v2 := math.VertexAt(b.Vertices, int(tri[1]))
		v3 := math.VertexAt(b.Vertices, int(tri[2]))

		area := v2.Sub(v1).Cross(v3.Sub(v1)).Length() / 2
		if area == 0 {
			s.Degenerate++
		}
		s.SurfaceArea += area
		volume += float64(v1.Dot(v2.Cross(v3)))
	}
	s.Volume = math32.Abs(float32(volume / 6))

	return s
}
