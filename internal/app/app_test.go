package app

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Faultbox/explodeview/internal/config"
	"github.com/Faultbox/explodeview/internal/engine/input"
	"github.com/Faultbox/explodeview/internal/explode"
	"github.com/Faultbox/explodeview/internal/export"
	"github.com/Faultbox/explodeview/internal/geometry"
	"github.com/Faultbox/explodeview/internal/rotation"
	"github.com/Faultbox/explodeview/internal/viewer"
	"github.com/Faultbox/explodeview/pkg/formats"
)

func TestSessionOptions(t *testing.T) {
	cfg := config.Default()
	cfg.Explosion.Factor = 3
	cfg.Explosion.Exploded = true
	cfg.Rotation.Cooldown = 2 * time.Second
	cfg.Export.Format = "binary"
	cfg.Export.Dir = "/tmp/out"

	opts := SessionOptions(cfg)
	assert.Equal(t, float32(3), opts.Geometry.Factor)
	assert.Equal(t, float32(20), opts.Geometry.Scale)
	assert.True(t, opts.Exploded)
	assert.Equal(t, 2*time.Second, opts.Rotation.Cooldown)
	assert.Equal(t, float32(0.008), opts.Rotation.Sensitivity)
	assert.Equal(t, export.Binary, opts.ExportFormat)
	assert.Equal(t, "/tmp/out", opts.ExportDir)
}

func TestDispatch(t *testing.T) {
	cfg := config.Default()
	cfg.Export.Dir = t.TempDir()
	s := viewer.NewSession(SessionOptions(cfg))

	assert.ErrorIs(t, Dispatch(s, input.ActionToggleExplosion), viewer.ErrNoMesh)
	require.NoError(t, s.Load(formats.Soup{
		{{-1, 0, 0}, {-2, 1, 0}, {-2, 0, 1}},
		{{1, 0, 0}, {2, 1, 0}, {2, 0, 1}},
	}))

	require.NoError(t, Dispatch(s, input.ActionToggleExplosion))
	assert.Equal(t, geometry.Exploded, s.Status().Mode)

	require.NoError(t, Dispatch(s, input.ActionFactorDown))
	assert.Equal(t, explode.DefaultFactor-explode.FactorStep, s.Status().Factor)
	require.NoError(t, Dispatch(s, input.ActionFactorUp))
	require.NoError(t, Dispatch(s, input.ActionFactorUp))
	assert.Equal(t, explode.MaxFactor, s.Status().Factor)

	require.NoError(t, Dispatch(s, input.ActionViewSide))
	assert.Equal(t, rotation.CoolingDown, s.Status().Rotation)
	require.NoError(t, Dispatch(s, input.ActionResetRotation))
	assert.Equal(t, rotation.AutoRotating, s.Status().Rotation)

	require.NoError(t, Dispatch(s, input.ActionExport))
	_, err := os.Stat(filepath.Join(cfg.Export.Dir, export.DefaultFileName))
	assert.NoError(t, err)

	require.NoError(t, Dispatch(s, input.ActionNone))
}
