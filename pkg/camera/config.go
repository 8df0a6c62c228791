// Package camera opens and configures the capture device.
package camera

import "fmt"

// Config holds the capture device settings.
type Config struct {
	// DeviceIndex selects the video device (0 is the default webcam).
	DeviceIndex int `json:"device_index"`

	// === Resolution ===
	Width     int `json:"width"`     // Requested frame width in pixels
	Height    int `json:"height"`    // Requested frame height in pixels
	Framerate int `json:"framerate"` // Requested FPS

	// BufferSize is the driver-side frame queue depth. 1 keeps the
	// latest frame and avoids processing stale ones.
	BufferSize int `json:"buffer_size"`
}

// Capture limits accepted by Validate.
const (
	MinWidth      = 160
	MinHeight     = 120
	MaxWidth      = 3840
	MaxHeight     = 2160
	MaxFramerate  = 120
	MaxBufferSize = 16
	MaxDevice     = 63
)

// DefaultConfig returns the standard capture configuration:
// default webcam, 640x480 at 30 fps, single-frame buffer.
func DefaultConfig() Config {
	return Config{
		DeviceIndex: 0,
		Width:       640,
		Height:      480,
		Framerate:   30,
		BufferSize:  1,
	}
}

// Validate checks if the config values are within valid ranges.
// Returns a list of validation errors, or nil if valid.
func (c *Config) Validate() []string {
	var errors []string

	if c.DeviceIndex < 0 || c.DeviceIndex > MaxDevice {
		errors = append(errors, fmt.Sprintf("device_index must be between 0 and %d", MaxDevice))
	}
	if c.Width < MinWidth || c.Width > MaxWidth {
		errors = append(errors, fmt.Sprintf("width must be between %d and %d", MinWidth, MaxWidth))
	}
	if c.Height < MinHeight || c.Height > MaxHeight {
		errors = append(errors, fmt.Sprintf("height must be between %d and %d", MinHeight, MaxHeight))
	}
	if c.Framerate < 1 || c.Framerate > MaxFramerate {
		errors = append(errors, fmt.Sprintf("framerate must be between 1 and %d", MaxFramerate))
	}
	if c.BufferSize < 1 || c.BufferSize > MaxBufferSize {
		errors = append(errors, fmt.Sprintf("buffer_size must be between 1 and %d", MaxBufferSize))
	}

	return errors
}

// Capabilities returns the accepted capture ranges.
func Capabilities() map[string]interface{} {
	return map[string]interface{}{
		"min_width":       MinWidth,
		"min_height":      MinHeight,
		"max_width":       MaxWidth,
		"max_height":      MaxHeight,
		"max_framerate":   MaxFramerate,
		"max_buffer_size": MaxBufferSize,
		"presets":         PresetNames(),
	}
}
