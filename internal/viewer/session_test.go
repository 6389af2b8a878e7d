package viewer

import (
	"bytes"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Faultbox/explodeview/internal/explode"
	"github.com/Faultbox/explodeview/internal/export"
	"github.com/Faultbox/explodeview/internal/geometry"
	"github.com/Faultbox/explodeview/internal/mesh"
	"github.com/Faultbox/explodeview/internal/rotation"
	"github.com/Faultbox/explodeview/pkg/formats"
)

var twoTriangles = formats.Soup{
	{{-1, 0, 0}, {-2, 1, 0}, {-2, 0, 1}},
	{{1, 0, 0}, {2, 1, 0}, {2, 0, 1}},
}

type testClock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *testClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *testClock) Advance(d time.Duration) {
	c.mu.Lock()
	c.now = c.now.Add(d)
	c.mu.Unlock()
}

func newSession(t *testing.T) (*Session, *testClock) {
	t.Helper()
	clock := &testClock{now: time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)}
	opts := DefaultOptions()
	opts.Clock = clock.Now
	opts.ExportDir = t.TempDir()
	return NewSession(opts), clock
}

func loadedSession(t *testing.T) (*Session, *testClock) {
	t.Helper()
	s, clock := newSession(t)
	require.NoError(t, s.Load(twoTriangles))
	return s, clock
}

func TestOperationsBeforeLoad(t *testing.T) {
	s, _ := newSession(t)

	_, err := s.ToggleExplosion()
	assert.ErrorIs(t, err, ErrNoMesh)
	_, err = s.SetExplosionFactor(3)
	assert.ErrorIs(t, err, ErrNoMesh)
	_, err = s.StepExplosionFactor(1)
	assert.ErrorIs(t, err, ErrNoMesh)
	assert.ErrorIs(t, s.MaxExplosion(), ErrNoMesh)
	_, err = s.ExportMesh()
	assert.ErrorIs(t, err, ErrNoMesh)
	_, err = s.SaveExport("")
	assert.ErrorIs(t, err, ErrNoMesh)
	assert.ErrorIs(t, s.Reload(), ErrNoMesh)

	// Rotation works without geometry.
	s.ResetRotation()
	fs := s.Frame(time.Second / 60)
	assert.Nil(t, fs.Snapshot)
	assert.Equal(t, rotation.AutoRotating, fs.Rotation)
	assert.False(t, s.Status().Loaded)
}

func TestToggleExplosion(t *testing.T) {
	s, _ := loadedSession(t)
	assembled := s.Frame(0).Snapshot
	require.NotNil(t, assembled)
	assert.Equal(t, geometry.Assembled, assembled.Mode)

	mode, err := s.ToggleExplosion()
	require.NoError(t, err)
	assert.Equal(t, geometry.Exploded, mode)

	exploded := s.Frame(0).Snapshot
	assert.Equal(t, geometry.Exploded, exploded.Mode)
	assert.Greater(t, exploded.Generation, assembled.Generation)
	// The two triangles sit on opposite sides of the centroid and move apart.
	assert.Less(t, exploded.Bounds.Min[0], assembled.Bounds.Min[0])
	assert.Greater(t, exploded.Bounds.Max[0], assembled.Bounds.Max[0])

	mode, err = s.ToggleExplosion()
	require.NoError(t, err)
	assert.Equal(t, geometry.Assembled, mode)
	assert.Equal(t, assembled.Vertices, s.Frame(0).Snapshot.Vertices)
}

func TestLoadFailureKeepsPreviousState(t *testing.T) {
	s, _ := loadedSession(t)
	_, err := s.ToggleExplosion()
	require.NoError(t, err)
	before := s.Frame(0).Snapshot

	err = s.Load(formats.Soup{{{0, 0, 0}, {1, 0, 0}}})
	require.Error(t, err)
	var malformed *mesh.MalformedMeshError
	require.True(t, errors.As(err, &malformed))
	assert.Equal(t, 0, malformed.Triangle)

	assert.ErrorIs(t, s.Load(nil), mesh.ErrMalformedMesh)

	after := s.Frame(0).Snapshot
	assert.Same(t, before, after)
	st := s.Status()
	assert.Equal(t, geometry.Exploded, st.Mode)
	assert.Equal(t, 2, st.Triangles)
}

func TestSetExplosionFactorClamps(t *testing.T) {
	s, _ := loadedSession(t)

	tests := []struct {
		in, want float32
	}{
		{2.5, 2.5},
		{15, explode.MaxFactor},
		{-1, 0},
	}
	for _, tt := range tests {
		got, err := s.SetExplosionFactor(tt.in)
		require.NoError(t, err)
		assert.Equal(t, tt.want, got)
		assert.Equal(t, tt.want, s.Status().Factor)
	}
}

func TestStepExplosionFactor(t *testing.T) {
	s, _ := loadedSession(t)

	got, err := s.StepExplosionFactor(-1)
	require.NoError(t, err)
	assert.Equal(t, explode.DefaultFactor-explode.FactorStep, got)

	got, err = s.StepExplosionFactor(10)
	require.NoError(t, err)
	assert.Equal(t, explode.MaxFactor, got)
}

func TestMaxExplosion(t *testing.T) {
	s, _ := loadedSession(t)
	_, err := s.SetExplosionFactor(1)
	require.NoError(t, err)

	require.NoError(t, s.MaxExplosion())
	st := s.Status()
	assert.Equal(t, geometry.Exploded, st.Mode)
	assert.Equal(t, explode.MaxFactor, st.Factor)
	assert.Equal(t, explode.IntensityExtreme, st.Intensity)
}

func TestExportMeshFollowsMode(t *testing.T) {
	s, _ := loadedSession(t)

	assembled, err := s.ExportMesh()
	require.NoError(t, err)
	assert.Equal(t, 2, strings.Count(string(assembled), "facet normal"))
	assert.True(t, strings.HasPrefix(string(assembled), "solid exported\n"))

	_, err = s.ToggleExplosion()
	require.NoError(t, err)
	exploded, err := s.ExportMesh()
	require.NoError(t, err)
	assert.NotEqual(t, assembled, exploded)

	stl, err := formats.ParseSTL(exploded)
	require.NoError(t, err)
	back, err := mesh.Ingest(stl.Soup())
	require.NoError(t, err)
	assert.Equal(t, s.Frame(0).Snapshot.Vertices, back.Vertices)
}

func TestSaveExport(t *testing.T) {
	s, _ := loadedSession(t)

	path, err := s.SaveExport("")
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(s.opts.ExportDir, export.DefaultFileName), path)

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	want, err := s.ExportMesh()
	require.NoError(t, err)
	assert.Equal(t, want, data)

	missing := filepath.Join(t.TempDir(), "no", "such", "dir", "out.stl")
	_, err = s.SaveExport(missing)
	var ioErr *export.ExportIOError
	require.True(t, errors.As(err, &ioErr))
	assert.Equal(t, want, ioErr.Artifact)
}

func TestLoadFileAndReload(t *testing.T) {
	s, _ := newSession(t)
	dir := t.TempDir()
	path := filepath.Join(dir, "part.json")

	var buf bytes.Buffer
	require.NoError(t, formats.WriteSoup(&buf, twoTriangles))
	require.NoError(t, os.WriteFile(path, buf.Bytes(), 0644))

	require.NoError(t, s.LoadFile(path))
	assert.Equal(t, path, s.Status().Source)
	_, err := s.SetExplosionFactor(4)
	require.NoError(t, err)
	_, err = s.ToggleExplosion()
	require.NoError(t, err)

	// Replace the file with a single triangle; reload keeps mode and factor.
	buf.Reset()
	require.NoError(t, formats.WriteSoup(&buf, twoTriangles[:1]))
	require.NoError(t, os.WriteFile(path, buf.Bytes(), 0644))
	require.NoError(t, s.Reload())

	st := s.Status()
	assert.Equal(t, 1, st.Triangles)
	assert.Equal(t, geometry.Exploded, st.Mode)
	assert.Equal(t, float32(4), st.Factor)

	// A broken file leaves the session untouched.
	require.NoError(t, os.WriteFile(path, []byte(`{"v": [[[0,0,0],[1,0,0],[0,"y",0]]]}`), 0644))
	err = s.Reload()
	assert.ErrorIs(t, err, mesh.ErrMalformedMesh)
	assert.Equal(t, 1, s.Status().Triangles)
}

func TestReloadAdvancesGeneration(t *testing.T) {
	s, _ := newSession(t)
	path := filepath.Join(t.TempDir(), "part.json")

	var buf bytes.Buffer
	require.NoError(t, formats.WriteSoup(&buf, twoTriangles[:1]))
	require.NoError(t, os.WriteFile(path, buf.Bytes(), 0644))
	require.NoError(t, s.LoadFile(path))
	before := s.Frame(0).Snapshot

	buf.Reset()
	require.NoError(t, formats.WriteSoup(&buf, twoTriangles))
	require.NoError(t, os.WriteFile(path, buf.Bytes(), 0644))
	require.NoError(t, s.Reload())
	after := s.Frame(0).Snapshot

	assert.Equal(t, 2, after.TriangleCount())
	assert.Greater(t, after.Generation, before.Generation)

	// Exploded on both sides of the reload.
	_, err := s.ToggleExplosion()
	require.NoError(t, err)
	exploded := s.Frame(0).Snapshot
	require.NoError(t, s.Reload())
	assert.Greater(t, s.Frame(0).Snapshot.Generation, exploded.Generation)
}

func TestLoadFileSTL(t *testing.T) {
	s, _ := newSession(t)
	src, err := mesh.Ingest(twoTriangles)
	require.NoError(t, err)

	path := filepath.Join(t.TempDir(), "part.STL")
	var buf bytes.Buffer
	require.NoError(t, formats.WriteBinarySTL(&buf, "part", src.Vertices, src.Indices))
	require.NoError(t, os.WriteFile(path, buf.Bytes(), 0644))

	require.NoError(t, s.LoadFile(path))
	assert.Equal(t, src.Vertices, s.Frame(0).Snapshot.Vertices)
}

func TestLoadFileMissing(t *testing.T) {
	s, _ := newSession(t)
	err := s.LoadFile(filepath.Join(t.TempDir(), "nope.json"))
	assert.ErrorIs(t, err, os.ErrNotExist)
}

func TestStartExploded(t *testing.T) {
	opts := DefaultOptions()
	opts.Exploded = true
	s := NewSession(opts)
	require.NoError(t, s.Load(twoTriangles))
	assert.Equal(t, geometry.Exploded, s.Frame(0).Snapshot.Mode)
}

func TestDragCycle(t *testing.T) {
	s, clock := loadedSession(t)
	sens := rotation.DefaultConfig().Sensitivity

	s.OnDragStart()
	s.OnDragMove(100, 50)
	fs := s.Frame(time.Second)
	assert.Equal(t, rotation.ManualDragging, fs.Rotation)
	assert.InDelta(t, 100*sens, fs.Angles.Y, 1e-6)
	assert.InDelta(t, 50*sens, fs.Angles.X, 1e-6)

	s.OnDragEnd()
	clock.Advance(time.Second)
	fs = s.Frame(time.Second)
	assert.Equal(t, rotation.CoolingDown, fs.Rotation)
	assert.InDelta(t, 100*sens, fs.Angles.Y, 1e-6)

	clock.Advance(600 * time.Millisecond)
	fs = s.Frame(time.Second / 60)
	assert.Equal(t, rotation.AutoRotating, fs.Rotation)
	assert.Greater(t, fs.Angles.Y, 100*sens)

	s.ApplyView(rotation.ViewTop)
	fs = s.Frame(time.Second / 60)
	assert.Equal(t, rotation.CoolingDown, fs.Rotation)
	assert.Equal(t, rotation.ViewTop.Angles(), fs.Angles)

	s.ResetRotation()
	assert.Equal(t, rotation.Angles{}, s.Frame(0).Angles)
}

func TestConcurrentControlAndFrames(t *testing.T) {
	s, _ := loadedSession(t)
	triangles := len(twoTriangles)

	var wg sync.WaitGroup
	stop := make(chan struct{})

	for r := 0; r < 4; r++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for {
				select {
				case <-stop:
					return
				default:
				}
				fs := s.Frame(time.Millisecond)
				if fs.Snapshot == nil || fs.Snapshot.TriangleCount() != triangles ||
					len(fs.Snapshot.Vertices) != 9*triangles {
					t.Error("inconsistent snapshot")
					return
				}
			}
		}()
	}

	for i := 0; i < 200; i++ {
		_, err := s.ToggleExplosion()
		require.NoError(t, err)
		_, err = s.SetExplosionFactor(float32(i%11) * 0.5)
		require.NoError(t, err)
		s.OnDragStart()
		s.OnDragMove(1, 1)
		s.OnDragEnd()
		_, err = s.ExportMesh()
		require.NoError(t, err)
	}
	close(stop)
	wg.Wait()
}
