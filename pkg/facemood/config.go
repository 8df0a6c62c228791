// Package facemood wires capture, detection, classification and
// presentation into one application.
package facemood

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/teslashibe/go-facemood/internal/config"
	"github.com/teslashibe/go-facemood/pkg/camera"
	"github.com/teslashibe/go-facemood/pkg/frame"
	"github.com/teslashibe/go-facemood/pkg/presenter"
	"github.com/teslashibe/go-facemood/pkg/tracker"
	"github.com/teslashibe/go-facemood/pkg/vision"
)

// Default configuration values.
const (
	DefaultModelDir = "models"
	DefaultPort     = "8080"
	MaxPresenterFPS = 240
)

// Config holds all configuration for the application.
// Flag parsing is done in cmd/facemood/main.go; this struct is data only.
type Config struct {
	// Debug enables verbose debug logging.
	Debug bool

	// DebugFeatures prints per-face feature values every cycle.
	DebugFeatures bool

	// LogLevel is one of debug, info, warn, error.
	LogLevel string

	// Camera is the capture configuration. Preset, when set, replaces its
	// resolution and frame rate.
	Camera camera.Config
	Preset string

	// ModelDir holds the standard cascade files; Models may point at
	// individual files instead.
	ModelDir string
	Models   vision.Paths

	// Worker and Presenter timing.
	Worker    tracker.Config
	Presenter presenter.Config

	// Dashboard enables the web dashboard on Port.
	Dashboard   bool
	Port        string
	JPEGQuality int
}

// DefaultConfig returns sensible defaults.
func DefaultConfig() Config {
	return Config{
		LogLevel:    "info",
		Camera:      camera.DefaultConfig(),
		ModelDir:    DefaultModelDir,
		Models:      vision.DefaultPaths(DefaultModelDir),
		Worker:      tracker.DefaultConfig(),
		Presenter:   presenter.DefaultConfig(),
		Dashboard:   true,
		Port:        DefaultPort,
		JPEGQuality: frame.DefaultJPEGQuality,
	}
}

// LoadEnvConfig applies environment overrides. Call it before binding
// flags so explicit flags win.
func (c *Config) LoadEnvConfig() {
	c.Camera.DeviceIndex = config.DeviceIndex(c.Camera.DeviceIndex)

	if dir := config.ModelDir(""); dir != "" {
		c.SetModelDir(dir)
	}
	c.Models.Face = config.String(config.EnvFaceModel, c.Models.Face)
	c.Models.Eye = config.String(config.EnvEyeModel, c.Models.Eye)
	c.Models.Mouth = config.String(config.EnvMouthModel, c.Models.Mouth)

	c.Port = config.DashboardPort(c.Port)
	c.Presenter.TargetFPS = config.Int(config.EnvFPS, c.Presenter.TargetFPS)
	c.LogLevel = config.LogLevel(c.LogLevel)
}

// SetModelDir points every model path at the standard file in dir.
func (c *Config) SetModelDir(dir string) {
	c.ModelDir = dir
	c.Models = vision.DefaultPaths(dir)
}

// Validate checks that the configuration is usable.
func (c *Config) Validate() error {
	if errs := c.Camera.Validate(); len(errs) > 0 {
		return &ConfigError{Field: "Camera", Message: "camera: " + strings.Join(errs, "; ")}
	}
	if c.Preset != "" && camera.GetPreset(c.Preset) == nil {
		return &ConfigError{
			Field:   "Preset",
			Message: fmt.Sprintf("unknown preset %q (valid: %s)", c.Preset, strings.Join(camera.PresetNames(), ", ")),
		}
	}
	if c.Worker.Interval < 0 || c.Worker.Interval > time.Second {
		return &ConfigError{Field: "Worker.Interval", Message: "worker interval must be between 0 and 1s"}
	}
	if c.Presenter.TargetFPS < 1 || c.Presenter.TargetFPS > MaxPresenterFPS {
		return &ConfigError{Field: "Presenter.TargetFPS", Message: fmt.Sprintf("presenter fps must be between 1 and %d", MaxPresenterFPS)}
	}
	if c.Dashboard {
		port, err := strconv.Atoi(c.Port)
		if err != nil || port < 1 || port > 65535 {
			return &ConfigError{Field: "Port", Message: fmt.Sprintf("invalid dashboard port %q", c.Port)}
		}
	}
	if c.JPEGQuality < 1 || c.JPEGQuality > 100 {
		return &ConfigError{Field: "JPEGQuality", Message: "jpeg quality must be between 1 and 100"}
	}
	return nil
}

// ConfigError represents a configuration validation error.
type ConfigError struct {
	Field   string
	Message string
}

func (e *ConfigError) Error() string {
	return e.Message
}
