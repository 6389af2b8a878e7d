package math

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestVec3Cross(t *testing.T) {
	x := Vec3{1, 0, 0}
	y := Vec3{0, 1, 0}
	assert.Equal(t, Vec3{0, 0, 1}, x.Cross(y))
	assert.Equal(t, Vec3{0, 0, -1}, y.Cross(x))
}

func TestVec3Normalize(t *testing.T) {
	n := Vec3{3, 4, 0}.Normalize()
	assert.InDelta(t, 1, n.Length(), 1e-6)
	assert.Equal(t, Vec3{}, Vec3{}.Normalize())
}

func TestVec3LengthExtremes(t *testing.T) {
	assert.InEpsilon(t, 5e20, Vec3{3e20, 4e20, 0}.Length(), 1e-6)
	assert.InEpsilon(t, 5e-25, Vec3{0, 3e-25, 4e-25}.Length(), 1e-6)
	assert.Equal(t, Vec3{Z: 1}, Vec3{Z: 1e-24}.Normalize())
	assert.Equal(t, Vec3{X: 1}, Vec3{X: 1e30}.Normalize())
}

func TestVec3MinMax(t *testing.T) {
	a := Vec3{1, -2, 3}
	b := Vec3{-1, 2, 3}
	assert.Equal(t, Vec3{-1, -2, 3}, a.Min(b))
	assert.Equal(t, Vec3{1, 2, 3}, a.Max(b))
}

func TestVertexAtStore(t *testing.T) {
	buf := make([]float32, 6)
	Vec3{4, 5, 6}.Store(buf, 1)

	assert.Equal(t, []float32{0, 0, 0, 4, 5, 6}, buf)
	assert.Equal(t, Vec3{4, 5, 6}, VertexAt(buf, 1))
	assert.Equal(t, float32(5), Vec3{1, 2, 3}.Distance(Vec3{1, 2, 8}))
}
