// Package config handles viewer configuration loading and management.
package config

import "time"

// Config holds all viewer settings.
type Config struct {
	Window    WindowConfig    `yaml:"window"`
	Explosion ExplosionConfig `yaml:"explosion"`
	Rotation  RotationConfig  `yaml:"rotation"`
	Export    ExportConfig    `yaml:"export"`
	Model     ModelConfig     `yaml:"model"`
	Logging   LoggingConfig   `yaml:"logging"`
}

// WindowConfig holds display settings.
type WindowConfig struct {
	Title      string `yaml:"title"`
	Width      int    `yaml:"width"`
	Height     int    `yaml:"height"`
	Fullscreen bool   `yaml:"fullscreen"`
	VSync      bool   `yaml:"vsync"`
}

// ExplosionConfig holds the explode transform parameters.
type ExplosionConfig struct {
	Factor   float32 `yaml:"factor"`
	Scale    float32 `yaml:"scale"`
	Exploded bool    `yaml:"exploded"` // start in exploded mode
}

// RotationConfig holds auto-rotation and drag settings.
type RotationConfig struct {
	AutoRotateSpeed float32       `yaml:"auto_rotate_speed"` // radians per second
	Sensitivity     float32       `yaml:"sensitivity"`       // radians per drag unit
	Cooldown        time.Duration `yaml:"cooldown"`
}

// ExportConfig holds STL export settings.
type ExportConfig struct {
	Dir       string `yaml:"dir"`
	SolidName string `yaml:"solid_name"`
	Format    string `yaml:"format"` // "ascii" or "binary"
}

// ModelConfig holds the mesh source.
type ModelConfig struct {
	Path  string `yaml:"path"`
	Watch bool   `yaml:"watch"`
}

// LoggingConfig holds logging settings.
type LoggingConfig struct {
	Level   string `yaml:"level"`
	LogFile string `yaml:"log_file"`
}

// Default returns a Config with sensible default values.
func Default() *Config {
	return &Config{
		Window: WindowConfig{
			Title:      "Explode View",
			Width:      1280,
			Height:     720,
			Fullscreen: false,
			VSync:      true,
		},
		Explosion: ExplosionConfig{
			Factor:   10,
			Scale:    20,
			Exploded: false,
		},
		Rotation: RotationConfig{
			AutoRotateSpeed: 0.6,
			Sensitivity:     0.008,
			Cooldown:        1500 * time.Millisecond,
		},
		Export: ExportConfig{
			Dir:       ".",
			SolidName: "exported",
			Format:    "ascii",
		},
		Model: ModelConfig{
			Path:  "",
			Watch: false,
		},
		Logging: LoggingConfig{
			Level:   "info",
			LogFile: "",
		},
	}
}
