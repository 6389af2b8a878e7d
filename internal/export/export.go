// Package export serializes geometry snapshots to STL.
package export

import (
	"bytes"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"go.uber.org/zap"

	"github.com/Faultbox/explodeview/internal/geometry"
	"github.com/Faultbox/explodeview/internal/logger"
	"github.com/Faultbox/explodeview/pkg/formats"
)

// Format selects the STL encoding.
type Format string

// Supported encodings.
const (
	ASCII  Format = "ascii"
	Binary Format = "binary"
)

// DefaultFileName is used by Save when no explicit path is given.
const DefaultFileName = "output.stl"

// ErrUnknownFormat is returned for an unsupported Format.
var ErrUnknownFormat = errors.New("unknown export format")

// ExportIOError reports a failure to persist a generated artifact. The
// artifact itself is valid and is kept so the caller can retry elsewhere.
type ExportIOError struct {
	Path     string
	Artifact []byte
	Err      error
}

func (e *ExportIOError) Error() string {
	return fmt.Sprintf("export to %s: %v", e.Path, e.Err)
}

func (e *ExportIOError) Unwrap() error {
	return e.Err
}

// Exporter turns snapshots into STL artifacts.
type Exporter struct {
	Name   string
	Format Format

	log *zap.Logger
}

// New creates an Exporter. An empty name falls back to the default solid
// name and an empty format to ASCII.
func New(name string, format Format) *Exporter {
	if name == "" {
		name = formats.DefaultSolidName
	}
	if format == "" {
		format = ASCII
	}
	return &Exporter{
		Name:   name,
		Format: format,
		log:    logger.Named("export"),
	}
}

// Export encodes the triangles of snap. The snapshot is only read, so
// concurrent mode changes cannot produce a torn artifact.
func (e *Exporter) Export(snap *geometry.Snapshot) ([]byte, error) {
	var buf bytes.Buffer
	var err error
	switch e.Format {
	case ASCII, "":
		buf.Grow(snap.TriangleCount()*256 + 64)
		err = formats.WriteASCIISTL(&buf, e.Name, snap.Vertices, snap.Indices)
	case Binary:
		buf.Grow(84 + snap.TriangleCount()*50)
		err = formats.WriteBinarySTL(&buf, e.Name, snap.Vertices, snap.Indices)
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownFormat, e.Format)
	}
	if err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// WriteFile exports snap and writes the artifact to path. The file is
// written to a temporary sibling and renamed into place, so a failed write
// never leaves a truncated STL behind.
func (e *Exporter) WriteFile(snap *geometry.Snapshot, path string) error {
	data, err := e.Export(snap)
	if err != nil {
		return err
	}
	if err := writeAtomic(path, data); err != nil {
		e.logger().Warn("export failed",
			zap.String("path", path),
			zap.Int("bytes", len(data)),
			zap.Error(err))
		return &ExportIOError{Path: path, Artifact: data, Err: err}
	}
	e.logger().Info("mesh exported",
		zap.String("path", path),
		zap.String("format", string(e.Format)),
		zap.String("mode", snap.Mode.String()),
		zap.Int("triangles", snap.TriangleCount()),
		zap.Int("bytes", len(data)))
	return nil
}

// Save writes snap to DefaultFileName inside dir.
func (e *Exporter) Save(snap *geometry.Snapshot, dir string) (string, error) {
	path := filepath.Join(dir, DefaultFileName)
	return path, e.WriteFile(snap, path)
}

func (e *Exporter) logger() *zap.Logger {
	if e.log == nil {
		return logger.Named("export")
	}
	return e.log
}

// fileMode is the permission of written artifacts. CreateTemp alone would
// leave them owner-only.
const fileMode os.FileMode = 0644

func writeAtomic(path string, data []byte) error {
	tmp, err := os.CreateTemp(filepath.Dir(path), ".export-*.stl")
	if err != nil {
		return err
	}
	name := tmp.Name()
	if err := tmp.Chmod(fileMode); err != nil {
		tmp.Close()
		os.Remove(name)
		return err
	}
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(name)
		return err
	}
	if err := tmp.Close(); err != nil {
		os.Remove(name)
		return err
	}
	if err := os.Rename(name, path); err != nil {
		os.Remove(name)
		return err
	}
	return nil
}
