package renderer

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestInterleave(t *testing.T) {
	verts := []float32{1, 2, 3, 4, 5, 6}
	norms := []float32{0, 0, 1, 0, 1, 0}

	got := Interleave(nil, verts, norms)
	assert.Equal(t, []float32{1, 2, 3, 0, 0, 1, 4, 5, 6, 0, 1, 0}, got)
}

func TestInterleaveMissingNormals(t *testing.T) {
	got := Interleave(make([]float32, 0, 12), []float32{1, 2, 3, 4, 5, 6}, []float32{0, 0, 1})
	assert.Equal(t, []float32{1, 2, 3, 0, 0, 1, 4, 5, 6, 0, 0, 0}, got)
	assert.Len(t, got, 2*floatsPerVertex)
}
