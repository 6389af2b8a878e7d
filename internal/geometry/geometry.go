// Package geometry owns the geometry consumed by the renderer and the
// exporter. State is published as immutable snapshots: writers build a
// complete snapshot and swap it in atomically, so readers never observe a
// partially written buffer and never wait for a writer.
package geometry

import (
	"fmt"
	"sync"
	"sync/atomic"

	"github.com/Faultbox/explodeview/internal/explode"
	"github.com/Faultbox/explodeview/internal/mesh"
	"github.com/Faultbox/explodeview/pkg/formats"
	"github.com/Faultbox/explodeview/pkg/math"
)

// Mode selects which form of the model is active.
type Mode int

// Geometry modes.
const (
	Assembled Mode = iota
	Exploded
)

// String returns the mode name.
func (m Mode) String() string {
	switch m {
	case Assembled:
		return "assembled"
	case Exploded:
		return "exploded"
	default:
		return fmt.Sprintf("Mode(%d)", int(m))
	}
}

// Snapshot is one fully formed geometry state. It must not be modified
// after publication; all slices may be shared between snapshots.
type Snapshot struct {
	Vertices []float32
	// Normals holds one flat face normal per vertex slot.
	Normals []float32
	Indices []uint32

	Mode   Mode
	Factor float32
	Bounds mesh.Bounds
	// Generation is unique per process and increases with every published
	// snapshot, across Buffers as well as within one.
	Generation uint64
}

var generations atomic.Uint64

func nextGeneration() uint64 {
	return generations.Add(1)
}

// TriangleCount returns the number of triangles in the snapshot.
func (s *Snapshot) TriangleCount() int {
	return len(s.Indices) / 3
}

// Options configures a Buffer.
type Options struct {
	// Scale converts the explosion factor to model units.
	Scale float32
	// Factor is the initial explosion factor.
	Factor float32
}

// DefaultOptions returns the stock explosion settings.
func DefaultOptions() Options {
	return Options{
		Scale:  explode.DefaultScale,
		Factor: explode.DefaultFactor,
	}
}

// Buffer holds the active geometry snapshot.
type Buffer struct {
	mu sync.Mutex // serializes writers

	source    *mesh.Buffers
	assembled *Snapshot
	scale     float32
	factor    float32
	mode      Mode

	current atomic.Pointer[Snapshot]
}

// New creates a Buffer in Assembled mode over ingested mesh buffers.
func New(src *mesh.Buffers, opts Options) *Buffer {
	b := &Buffer{
		source: src,
		scale:  opts.Scale,
		factor: explode.ClampFactor(opts.Factor),
		mode:   Assembled,
	}
	b.assembled = &Snapshot{
		Vertices:   src.Vertices,
		Normals:    FaceNormals(src.Vertices, src.Indices),
		Indices:    src.Indices,
		Mode:       Assembled,
		Factor:     b.factor,
		Bounds:     src.Bounds,
		Generation: nextGeneration(),
	}
	b.current.Store(b.assembled)
	return b
}

// CurrentSnapshot returns the latest published snapshot without locking.
func (b *Buffer) CurrentSnapshot() *Snapshot {
	return b.current.Load()
}

// Mode returns the active mode.
func (b *Buffer) Mode() Mode {
	return b.CurrentSnapshot().Mode
}

// SourceBounds returns the bounds of the assembled model.
func (b *Buffer) SourceBounds() mesh.Bounds {
	return b.source.Bounds
}

// Factor returns the configured explosion factor.
func (b *Buffer) Factor() float32 {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.factor
}

// SetMode switches between Assembled and Exploded, recomputing the active
// vertices, and returns the new snapshot.
func (b *Buffer) SetMode(m Mode) *Snapshot {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.mode = m
	return b.publishLocked()
}

// Toggle flips the mode and returns the new snapshot.
func (b *Buffer) Toggle() *Snapshot {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.mode == Exploded {
		b.mode = Assembled
	} else {
		b.mode = Exploded
	}
	return b.publishLocked()
}

// SetFactor changes the explosion factor (clamped to the valid range). The
// exploded geometry is recomputed only when it is active.
func (b *Buffer) SetFactor(f float32) *Snapshot {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.factor = explode.ClampFactor(f)
	return b.publishLocked()
}

// publishLocked builds the snapshot for the current mode and factor and
// swaps it in. Callers must hold b.mu.
func (b *Buffer) publishLocked() *Snapshot {
	var next *Snapshot
	if b.mode == Assembled {
		cp := *b.assembled
		cp.Factor = b.factor
		next = &cp
	} else {
		verts := explode.Apply(b.source.Vertices, b.source.Indices, b.factor, b.scale)
		next = &Snapshot{
			Vertices: verts,
			// Translation preserves face orientation.
			Normals: b.assembled.Normals,
			Indices: b.source.Indices,
			Mode:    Exploded,
			Factor:  b.factor,
			Bounds:  boundsOf(verts),
		}
	}
	next.Generation = nextGeneration()

	b.current.Store(next)
	return next
}

// FaceNormals returns a flat normal per vertex slot: every vertex of a
// triangle carries that triangle's face normal.
func FaceNormals(vertices []float32, indices []uint32) []float32 {
	normals := make([]float32, len(vertices))
	for t := 0; t+2 < len(indices); t += 3 {
		a := math.VertexAt(vertices, int(indices[t]))
		b := math.VertexAt(vertices, int(indices[t+1]))
		c := math.VertexAt(vertices, int(indices[t+2]))
		n := formats.FacetNormal(a, b, c)
		for _, i := range indices[t : t+3] {
			n.Store(normals, int(i))
		}
	}
	return normals
}

func boundsOf(vertices []float32) mesh.Bounds {
	if len(vertices) < 3 {
		return mesh.Bounds{}
	}
	lo := math.VertexAt(vertices, 0)
	hi := lo
	for i := 1; i < len(vertices)/3; i++ {
		v := math.VertexAt(vertices, i)
		lo = lo.Min(v)
		hi = hi.Max(v)
	}
	return mesh.Bounds{Min: lo.Array(), Max: hi.Array()}
}
