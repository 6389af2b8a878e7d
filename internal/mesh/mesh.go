// Package mesh turns a raw triangle soup into validated, GPU-ready vertex and
// index buffers.
//
// Vertices are never shared between triangles: triangle t owns vertex slots
// 3t, 3t+1 and 3t+2, so per-triangle transforms such as the exploded view can
// move a triangle without affecting its neighbours.
package mesh

import (
	"errors"
	"fmt"

	"github.com/chewxy/math32"

	"github.com/Faultbox/explodeview/pkg/formats"
	"github.com/Faultbox/explodeview/pkg/math"
)

// ErrMalformedMesh matches every *MalformedMeshError via errors.Is.
var ErrMalformedMesh = errors.New("malformed mesh")

// MalformedMeshError reports the first structural violation in a soup.
// Triangle is -1 when the soup as a whole is unusable (e.g. empty), and
// Vertex is -1 when the violation concerns the triangle itself.
type MalformedMeshError struct {
	Triangle int
	Vertex   int
	Reason   string
}

func (e *MalformedMeshError) Error() string {
	switch {
	case e.Triangle < 0:
		return fmt.Sprintf("malformed mesh: %s", e.Reason)
	case e.Vertex < 0:
		return fmt.Sprintf("malformed mesh: triangle %d: %s", e.Triangle, e.Reason)
	default:
		return fmt.Sprintf("malformed mesh: triangle %d vertex %d: %s", e.Triangle, e.Vertex, e.Reason)
	}
}

// Is reports whether target is ErrMalformedMesh.
func (e *MalformedMeshError) Is(target error) bool {
	return target == ErrMalformedMesh
}

// Bounds holds an axis-aligned bounding box.
type Bounds struct {
	Min [3]float32
	Max [3]float32
}

// Center returns the midpoint of the box.
func (b Bounds) Center() math.Vec3 {
	return math.Vec3{
		X: (b.Min[0] + b.Max[0]) / 2,
		Y: (b.Min[1] + b.Max[1]) / 2,
		Z: (b.Min[2] + b.Max[2]) / 2,
	}
}

// Size returns the box extent along each axis.
func (b Bounds) Size() math.Vec3 {
	return math.Vec3{
		X: b.Max[0] - b.Min[0],
		Y: b.Max[1] - b.Min[1],
		Z: b.Max[2] - b.Min[2],
	}
}

// MaxDimension returns the largest extent of the box.
func (b Bounds) MaxDimension() float32 {
	s := b.Size()
	return math32.Max(s.X, math32.Max(s.Y, s.Z))
}

// Buffers holds the flattened mesh ready for rendering.
type Buffers struct {
	// Vertices holds xyz triples; len == 9 * TriangleCount.
	Vertices []float32
	// Indices holds one index triple per triangle: 3t, 3t+1, 3t+2.
	Indices []uint32

	VertexCount   int
	TriangleCount int
	Bounds        Bounds
}

// Triangle returns the index triple of triangle t.
func (b *Buffers) Triangle(t int) [3]uint32 {
	return [3]uint32{b.Indices[3*t], b.Indices[3*t+1], b.Indices[3*t+2]}
}

// Ingest validates a triangle soup and flattens it into buffers. On any
// violation it returns a *MalformedMeshError and no buffers.
func Ingest(soup formats.Soup) (*Buffers, error) {
	if len(soup) == 0 {
		return nil, &MalformedMeshError{Triangle: -1, Vertex: -1, Reason: "no triangles"}
	}

	triCount := len(soup)
	buf := &Buffers{
		Vertices:      make([]float32, 0, 9*triCount),
		Indices:       make([]uint32, 0, 3*triCount),
		VertexCount:   3 * triCount,
		TriangleCount: triCount,
		Bounds: Bounds{
			Min: [3]float32{math32.Inf(1), math32.Inf(1), math32.Inf(1)},
			Max: [3]float32{math32.Inf(-1), math32.Inf(-1), math32.Inf(-1)},
		},
	}

	for t, tri := range soup {
		if len(tri) != 3 {
			return nil, &MalformedMeshError{
				Triangle: t,
				Vertex:   -1,
				Reason:   fmt.Sprintf("expected 3 vertices, got %d", len(tri)),
			}
		}
		for v, vert := range tri {
			if len(vert) != 3 {
				return nil, &MalformedMeshError{
					Triangle: t,
					Vertex:   v,
					Reason:   fmt.Sprintf("expected 3 coordinates, got %d", len(vert)),
				}
			}
			for axis, c := range vert {
				f := float32(c)
				if math32.IsNaN(f) || math32.IsInf(f, 0) {
					return nil, &MalformedMeshError{
						Triangle: t,
						Vertex:   v,
						Reason:   fmt.Sprintf("coordinate %d is not a finite float32 (%v)", axis, c),
					}
				}
				buf.Vertices = append(buf.Vertices, f)
				if f < buf.Bounds.Min[axis] {
					buf.Bounds.Min[axis] = f
				}
				if f > buf.Bounds.Max[axis] {
					buf.Bounds.Max[axis] = f
				}
			}
		}
		base := uint32(3 * t)
		buf.Indices = append(buf.Indices, base, base+1, base+2)
	}

	return buf, nil
}

// IngestJSON decodes a {"v": [...]} record and ingests it. Triangles that
// cannot be decoded as coordinate lists are reported as malformed.
func IngestJSON(data []byte) (*Buffers, error) {
	soup, err := formats.ParseSoup(data)
	if err != nil {
		var te *formats.TriangleDecodeError
		if errors.As(err, &te) {
			return nil, &MalformedMeshError{Triangle: te.Triangle, Vertex: -1, Reason: te.Err.Error()}
		}
		return nil, err
	}
	return Ingest(soup)
}
