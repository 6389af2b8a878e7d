// Package viewer ties the geometry buffer, the rotation machine and the
// exporter into the control surface driven by the UI.
package viewer

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"go.uber.org/zap"

	"github.com/Faultbox/explodeview/internal/explode"
	"github.com/Faultbox/explodeview/internal/export"
	"github.com/Faultbox/explodeview/internal/geometry"
	"github.com/Faultbox/explodeview/internal/logger"
	"github.com/Faultbox/explodeview/internal/mesh"
	"github.com/Faultbox/explodeview/internal/rotation"
	"github.com/Faultbox/explodeview/pkg/formats"
)

// ErrNoMesh is returned by geometry operations before a mesh is loaded.
var ErrNoMesh = errors.New("no mesh loaded")

// Options configures a Session.
type Options struct {
	Geometry geometry.Options
	Rotation rotation.Config
	// Clock drives the rotation cooldown. Nil means time.Now.
	Clock rotation.Clock

	ExportName   string
	ExportFormat export.Format
	ExportDir    string

	// Exploded starts freshly loaded meshes in exploded mode.
	Exploded bool
}

// DefaultOptions returns the stock session settings.
func DefaultOptions() Options {
	return Options{
		Geometry:     geometry.DefaultOptions(),
		Rotation:     rotation.DefaultConfig(),
		ExportName:   formats.DefaultSolidName,
		ExportFormat: export.ASCII,
		ExportDir:    ".",
	}
}

// FrameState is everything the render loop needs for one frame.
type FrameState struct {
	// Snapshot is nil until a mesh has been loaded.
	Snapshot *geometry.Snapshot
	Angles   rotation.Angles
	Rotation rotation.State
}

// Status summarizes the session for display.
type Status struct {
	Loaded    bool
	Source    string
	Mode      geometry.Mode
	Factor    float32
	Intensity explode.Intensity
	Triangles int
	Rotation  rotation.State
	// Bounds of the assembled model.
	Bounds mesh.Bounds
}

// Session is one viewer instance. Control operations are serialized by a
// mutex; Frame only performs atomic loads and the rotation update.
type Session struct {
	mu sync.Mutex

	opts     Options
	buffer   atomic.Pointer[geometry.Buffer]
	rotation *rotation.Machine
	exporter *export.Exporter
	source   string

	log *zap.Logger
}

// NewSession creates a session with no mesh loaded.
func NewSession(opts Options) *Session {
	return &Session{
		opts:     opts,
		rotation: rotation.New(opts.Rotation, opts.Clock),
		exporter: export.New(opts.ExportName, opts.ExportFormat),
		log:      logger.Named("viewer"),
	}
}

// Load ingests a triangle soup and makes it the active model. On failure
// the previously loaded model stays active.
func (s *Session) Load(soup formats.Soup) error {
	src, err := mesh.Ingest(soup)
	if err != nil {
		s.log.Warn("mesh rejected", zap.Error(err))
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.installLocked(src, "")
	return nil
}

// LoadFile loads a triangle-soup JSON file, or an STL file when the
// extension is .stl.
func (s *Session) LoadFile(path string) error {
	src, err := ReadMesh(path)
	if err != nil {
		s.log.Warn("mesh rejected", zap.String("path", path), zap.Error(err))
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.installLocked(src, path)
	return nil
}

// Reload reads the last loaded file again.
func (s *Session) Reload() error {
	s.mu.Lock()
	path := s.source
	s.mu.Unlock()

	if path == "" {
		return ErrNoMesh
	}
	return s.LoadFile(path)
}

// installLocked replaces the active geometry. A reload keeps the current
// mode and factor. Callers must hold s.mu.
func (s *Session) installLocked(src *mesh.Buffers, path string) {
	opts := s.opts.Geometry
	mode := geometry.Assembled
	if s.opts.Exploded {
		mode = geometry.Exploded
	}
	if prev := s.buffer.Load(); prev != nil {
		opts.Factor = prev.Factor()
		mode = prev.Mode()
	}

	buf := geometry.New(src, opts)
	if mode != geometry.Assembled {
		buf.SetMode(mode)
	}
	s.buffer.Store(buf)
	s.source = path

	s.log.Info("mesh loaded",
		zap.String("source", path),
		zap.Int("triangles", src.TriangleCount),
		zap.Int("vertices", src.VertexCount),
		zap.String("mode", mode.String()))
}

// ReadMesh reads and ingests a mesh file without touching any session.
func ReadMesh(path string) (*mesh.Buffers, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading mesh: %w", err)
	}
	if strings.EqualFold(filepath.Ext(path), ".stl") {
		stl, err := formats.ParseSTL(data)
		if err != nil {
			return nil, fmt.Errorf("parsing %s: %w", path, err)
		}
		return mesh.Ingest(stl.Soup())
	}
	return mesh.IngestJSON(data)
}

// ToggleExplosion flips between assembled and exploded geometry and
// returns the new mode.
func (s *Session) ToggleExplosion() (geometry.Mode, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	buf := s.buffer.Load()
	if buf == nil {
		return geometry.Assembled, ErrNoMesh
	}
	snap := buf.Toggle()
	s.log.Info("explosion toggled",
		zap.String("mode", snap.Mode.String()),
		zap.Float32("factor", snap.Factor))
	return snap.Mode, nil
}

// SetExplosionFactor sets the explosion factor and returns the value
// actually applied after clamping to [0, explode.MaxFactor].
func (s *Session) SetExplosionFactor(f float32) (float32, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	buf := s.buffer.Load()
	if buf == nil {
		return 0, ErrNoMesh
	}
	return s.setFactorLocked(buf, f), nil
}

// StepExplosionFactor adds steps*explode.FactorStep to the factor.
func (s *Session) StepExplosionFactor(steps int) (float32, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	buf := s.buffer.Load()
	if buf == nil {
		return 0, ErrNoMesh
	}
	return s.setFactorLocked(buf, buf.Factor()+float32(steps)*explode.FactorStep), nil
}

func (s *Session) setFactorLocked(buf *geometry.Buffer, f float32) float32 {
	snap := buf.SetFactor(f)
	s.log.Debug("explosion factor set",
		zap.Float32("requested", f),
		zap.Float32("factor", snap.Factor),
		zap.Stringer("intensity", explode.IntensityOf(snap.Factor)))
	return snap.Factor
}

// MaxExplosion switches to exploded mode at the maximum factor.
func (s *Session) MaxExplosion() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	buf := s.buffer.Load()
	if buf == nil {
		return ErrNoMesh
	}
	buf.SetFactor(explode.MaxFactor)
	buf.SetMode(geometry.Exploded)
	s.log.Info("maximum explosion", zap.Float32("factor", explode.MaxFactor))
	return nil
}

// ResetRotation returns to auto-rotation from zero angles.
func (s *Session) ResetRotation() {
	s.rotation.Reset()
	s.log.Debug("rotation reset")
}

// ApplyView snaps the rotation to a preset view.
func (s *Session) ApplyView(v rotation.View) {
	s.rotation.ApplyView(v)
	s.log.Debug("view applied", zap.Stringer("view", v))
}

// ExportMesh encodes the active geometry as an STL artifact.
func (s *Session) ExportMesh() ([]byte, error) {
	buf := s.buffer.Load()
	if buf == nil {
		return nil, ErrNoMesh
	}
	return s.exporter.Export(buf.CurrentSnapshot())
}

// SaveExport writes the active geometry to path, or to the default file in
// the configured export directory when path is empty. It returns the path
// written. Write failures are *export.ExportIOError.
func (s *Session) SaveExport(path string) (string, error) {
	buf := s.buffer.Load()
	if buf == nil {
		return "", ErrNoMesh
	}
	snap := buf.CurrentSnapshot()
	if path == "" {
		return s.exporter.Save(snap, s.opts.ExportDir)
	}
	return path, s.exporter.WriteFile(snap, path)
}

// OnDragStart begins a manual drag.
func (s *Session) OnDragStart() {
	s.rotation.DragStart()
}

// OnDragMove feeds a pointer delta into the active drag.
func (s *Session) OnDragMove(dx, dy float32) {
	s.rotation.DragMove(dx, dy)
}

// OnDragEnd ends the active drag and starts the cooldown.
func (s *Session) OnDragEnd() {
	s.rotation.DragEnd()
}

// Frame advances rotation by dt and returns the state to draw.
func (s *Session) Frame(dt time.Duration) FrameState {
	fs := FrameState{
		Angles:   s.rotation.Update(dt),
		Rotation: s.rotation.State(),
	}
	if buf := s.buffer.Load(); buf != nil {
		fs.Snapshot = buf.CurrentSnapshot()
	}
	return fs
}

// Status reports the current session state.
func (s *Session) Status() Status {
	s.mu.Lock()
	source := s.source
	s.mu.Unlock()

	st := Status{Source: source, Rotation: s.rotation.State()}
	buf := s.buffer.Load()
	if buf == nil {
		return st
	}
	snap := buf.CurrentSnapshot()
	st.Loaded = true
	st.Mode = snap.Mode
	st.Factor = snap.Factor
	st.Intensity = explode.IntensityOf(snap.Factor)
	st.Triangles = snap.TriangleCount()
	st.Bounds = buf.SourceBounds()
	return st
}
