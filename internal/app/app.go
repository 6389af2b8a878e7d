// Package app runs the interactive viewer: window, input, render loop and
// the optional mesh file watcher around a viewer.Session.
package app

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"time"

	"go.uber.org/zap"

	"github.com/Faultbox/explodeview/internal/config"
	"github.com/Faultbox/explodeview/internal/engine/debug"
	"github.com/Faultbox/explodeview/internal/engine/input"
	"github.com/Faultbox/explodeview/internal/engine/renderer"
	"github.com/Faultbox/explodeview/internal/engine/scene"
	"github.com/Faultbox/explodeview/internal/engine/window"
	"github.com/Faultbox/explodeview/internal/explode"
	"github.com/Faultbox/explodeview/internal/export"
	"github.com/Faultbox/explodeview/internal/geometry"
	"github.com/Faultbox/explodeview/internal/logger"
	"github.com/Faultbox/explodeview/internal/viewer"
	"github.com/Faultbox/explodeview/internal/watch"
)

// App is the viewer application.
type App struct {
	cfg     *config.Config
	session *viewer.Session
	ctx     *scene.RenderContext

	window   *window.Window
	renderer *renderer.MeshRenderer
	input    *input.Input
	watcher  *watch.Watcher
	shots    *debug.Screenshots

	fittedSource string
	fitted       bool
	title        string
	pendingShot  bool

	log *zap.Logger
}

// SessionOptions maps the configuration onto session options.
func SessionOptions(cfg *config.Config) viewer.Options {
	opts := viewer.DefaultOptions()
	opts.Geometry.Factor = cfg.Explosion.Factor
	opts.Geometry.Scale = cfg.Explosion.Scale
	opts.Exploded = cfg.Explosion.Exploded
	opts.Rotation.AutoRotateSpeed = cfg.Rotation.AutoRotateSpeed
	opts.Rotation.Sensitivity = cfg.Rotation.Sensitivity
	opts.Rotation.Cooldown = cfg.Rotation.Cooldown
	opts.ExportName = cfg.Export.SolidName
	opts.ExportFormat = export.Format(cfg.Export.Format)
	opts.ExportDir = cfg.Export.Dir
	return opts
}

// New creates the window and GL resources and loads the configured mesh.
func New(cfg *config.Config) (*App, error) {
	a := &App{
		cfg:     cfg,
		session: viewer.NewSession(SessionOptions(cfg)),
		ctx:     scene.NewRenderContext(),
		log:     logger.Named("app"),
	}

	if cfg.Model.Path != "" {
		if err := a.session.LoadFile(cfg.Model.Path); err != nil {
			return nil, fmt.Errorf("loading %s: %w", cfg.Model.Path, err)
		}
	}

	var err error
	a.window, err = window.New(window.Config{
		Title:      cfg.Window.Title,
		Width:      cfg.Window.Width,
		Height:     cfg.Window.Height,
		Fullscreen: cfg.Window.Fullscreen,
		VSync:      cfg.Window.VSync,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create window: %w", err)
	}

	// Renderer after window, since the OpenGL context must exist
	a.renderer, err = renderer.New()
	if err != nil {
		a.window.Close()
		return nil, fmt.Errorf("failed to create renderer: %w", err)
	}
	a.renderer.Resize(a.window.DrawableSize())

	a.input = input.New()
	a.shots = debug.NewScreenshots(cfg.Export.Dir, "explodeview")

	if cfg.Model.Watch && cfg.Model.Path != "" {
		a.watcher, err = watch.New(cfg.Model.Path, a.session.LoadFile)
		if err != nil {
			a.log.Warn("file watching disabled", zap.Error(err))
		}
	}

	a.log.Info("viewer initialized")
	return a, nil
}

// Session returns the control surface driven by this app.
func (a *App) Session() *viewer.Session {
	return a.session
}

// Run executes the render loop until the window closes or ctx is done.
func (a *App) Run(ctx context.Context) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	if a.watcher != nil {
		go func() {
			if err := a.watcher.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
				a.log.Warn("watcher stopped", zap.Error(err))
			}
		}()
	}

	lastTime := time.Now()
	frameCount := 0
	fpsTimer := lastTime

	a.log.Info("starting render loop")

	for ctx.Err() == nil {
		now := time.Now()
		dt := now.Sub(lastTime)
		lastTime = now

		if a.input.Update() {
			break
		}
		for _, event := range a.input.Events() {
			a.handleEvent(event)
		}

		a.render(a.session.Frame(dt))
		if a.pendingShot {
			a.screenshot()
			a.pendingShot = false
		}
		a.window.SwapBuffers()

		frameCount++
		if time.Since(fpsTimer) >= time.Second {
			a.log.Debug("fps", zap.Int("count", frameCount), zap.Duration("dt", dt))
			frameCount = 0
			fpsTimer = time.Now()
		}
	}

	return nil
}

func (a *App) handleEvent(event input.Event) {
	switch event.Type {
	case input.EventWindowResize:
		a.renderer.Resize(a.window.DrawableSize())
	case input.EventDragStart:
		a.session.OnDragStart()
	case input.EventDragMove:
		a.session.OnDragMove(event.DX, event.DY)
	case input.EventDragEnd:
		a.session.OnDragEnd()
	case input.EventZoom:
		a.ctx.Camera.HandleZoom(event.Zoom)
	case input.EventAction:
		switch event.Action {
		case input.ActionScreenshot:
			a.pendingShot = true
			return
		case input.ActionToggleBounds:
			a.renderer.ShowBounds = !a.renderer.ShowBounds
			return
		}
		if err := Dispatch(a.session, event.Action); err != nil {
			a.log.Warn("action failed", zap.Stringer("action", event.Action), zap.Error(err))
		}
		a.updateTitle()
	}
}

func (a *App) render(fs viewer.FrameState) {
	if fs.Snapshot != nil && a.renderer.Upload(fs.Snapshot) {
		a.fitCamera()
		a.updateTitle()
	}

	width, height := a.window.DrawableSize()
	a.renderer.Draw(a.ctx, scene.Frame(a.ctx, width, height, fs.Angles))
}

// fitCamera frames the assembled model once per loaded source so toggling
// explosion or reloading the file does not move the camera.
func (a *App) fitCamera() {
	st := a.session.Status()
	if !st.Loaded || (a.fitted && st.Source == a.fittedSource) {
		return
	}
	a.ctx.Fit(st.Bounds, a.cfg.Explosion.Scale*explode.MaxFactor)
	a.fitted = true
	a.fittedSource = st.Source
}

// screenshot captures the frame just drawn, before it is presented.
func (a *App) screenshot() {
	width, height := a.window.DrawableSize()
	path, err := a.shots.SavePixels(a.renderer.ReadPixels(width, height), width, height)
	if err != nil {
		a.log.Warn("screenshot failed", zap.Error(err))
		return
	}
	a.log.Info("screenshot saved", zap.String("path", path))
}

func (a *App) updateTitle() {
	st := a.session.Status()
	title := a.cfg.Window.Title
	if st.Loaded {
		name := "untitled"
		if st.Source != "" {
			name = filepath.Base(st.Source)
		}
		title = fmt.Sprintf("%s - %s - %s", title, name, st.Mode)
		if st.Mode == geometry.Exploded {
			title += fmt.Sprintf(" x%g (%s)", st.Factor, st.Intensity)
		}
	}
	if title != a.title {
		a.window.SetTitle(title)
		a.title = title
	}
}

// Close releases the watcher, GL resources and the window.
func (a *App) Close() {
	a.log.Info("closing viewer")

	if a.watcher != nil {
		a.watcher.Close()
	}
	if a.renderer != nil {
		a.renderer.Close()
	}
	if a.window != nil {
		a.window.Close()
	}
}
