package export

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Faultbox/explodeview/internal/geometry"
	"github.com/Faultbox/explodeview/internal/mesh"
	"github.com/Faultbox/explodeview/pkg/formats"
)

func newBuffer(t *testing.T) *geometry.Buffer {
	t.Helper()
	src, err := mesh.Ingest(formats.Soup{
		{{0, 0, 0}, {1, 0, 0}, {0, 1, 0}},
		{{0, 0, 1}, {0, 1, 1}, {1, 0, 1}},
		{{2.5, -1, 0.25}, {3, 0, 0}, {2, 1, 0.5}},
	})
	require.NoError(t, err)
	return geometry.New(src, geometry.DefaultOptions())
}

func TestExportASCIILayout(t *testing.T) {
	src, err := mesh.Ingest(formats.Soup{{{0, 0, 0}, {1, 0, 0}, {0, 1, 0}}})
	require.NoError(t, err)
	snap := geometry.New(src, geometry.DefaultOptions()).CurrentSnapshot()

	data, err := New("", ASCII).Export(snap)
	require.NoError(t, err)

	want := "solid exported\n" +
		"facet normal 0 0 1\n" +
		"  outer loop\n" +
		"    vertex 0 0 0\n" +
		"    vertex 1 0 0\n" +
		"    vertex 0 1 0\n" +
		"  endloop\n" +
		"endfacet\n" +
		"endsolid exported\n"
	assert.Equal(t, want, string(data))
}

func TestExportFacetCount(t *testing.T) {
	buf := newBuffer(t)
	for _, mode := range []geometry.Mode{geometry.Assembled, geometry.Exploded} {
		snap := buf.SetMode(mode)
		data, err := New("part", ASCII).Export(snap)
		require.NoError(t, err)
		assert.Equal(t, snap.TriangleCount(), strings.Count(string(data), "facet normal"), mode.String())
		assert.True(t, strings.HasPrefix(string(data), "solid part\n"))
		assert.True(t, strings.HasSuffix(string(data), "endsolid part\n"))
	}
}

func TestExportRoundTrip(t *testing.T) {
	buf := newBuffer(t)

	for _, format := range []Format{ASCII, Binary} {
		t.Run(string(format), func(t *testing.T) {
			snap := buf.SetMode(geometry.Assembled)
			data, err := New("part", format).Export(snap)
			require.NoError(t, err)

			stl, err := formats.ParseSTL(data)
			require.NoError(t, err)

			back, err := mesh.Ingest(stl.Soup())
			require.NoError(t, err)
			assert.Equal(t, snap.Vertices, back.Vertices)
			assert.Equal(t, snap.Indices, back.Indices)
		})
	}
}

func TestExportExplodedDiffersFromAssembled(t *testing.T) {
	buf := newBuffer(t)
	exp := New("", ASCII)

	assembled, err := exp.Export(buf.SetMode(geometry.Assembled))
	require.NoError(t, err)
	exploded, err := exp.Export(buf.SetMode(geometry.Exploded))
	require.NoError(t, err)

	assert.NotEqual(t, string(assembled), string(exploded))
}

func TestExportUnknownFormat(t *testing.T) {
	_, err := New("", "obj").Export(newBuffer(t).CurrentSnapshot())
	assert.ErrorIs(t, err, ErrUnknownFormat)
}

func TestWriteFile(t *testing.T) {
	snap := newBuffer(t).CurrentSnapshot()
	exp := New("part", ASCII)
	path := filepath.Join(t.TempDir(), "part.stl")

	require.NoError(t, exp.WriteFile(snap, path))

	written, err := os.ReadFile(path)
	require.NoError(t, err)
	want, err := exp.Export(snap)
	require.NoError(t, err)
	assert.Equal(t, want, written)

	info, err := os.Stat(path)
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0644), info.Mode().Perm())

	// No temp files left behind.
	entries, err := os.ReadDir(filepath.Dir(path))
	require.NoError(t, err)
	assert.Len(t, entries, 1)
}

func TestWriteFileIOError(t *testing.T) {
	snap := newBuffer(t).CurrentSnapshot()
	exp := New("part", ASCII)
	path := filepath.Join(t.TempDir(), "missing", "part.stl")

	err := exp.WriteFile(snap, path)
	require.Error(t, err)

	var ioErr *ExportIOError
	require.True(t, errors.As(err, &ioErr))
	assert.Equal(t, path, ioErr.Path)
	assert.True(t, errors.Is(err, os.ErrNotExist))

	// The artifact survives the failed write and can be retried elsewhere.
	want, err := exp.Export(snap)
	require.NoError(t, err)
	assert.Equal(t, want, ioErr.Artifact)

	retry := filepath.Join(t.TempDir(), "retry.stl")
	require.NoError(t, os.WriteFile(retry, ioErr.Artifact, 0644))
}

func TestSave(t *testing.T) {
	dir := t.TempDir()
	path, err := New("", Binary).Save(newBuffer(t).CurrentSnapshot(), dir)
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(dir, DefaultFileName), path)

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	stl, err := formats.ParseSTL(data)
	require.NoError(t, err)
	assert.Len(t, stl.Facets, 3)
}
