// Package config provides environment helpers for go-facemood commands.
package config

import (
	"os"
	"strconv"
	"strings"
)

// Environment variable names.
const (
	EnvDevice     = "FACEMOOD_DEVICE"
	EnvFaceModel  = "FACEMOOD_FACE_MODEL"
	EnvEyeModel   = "FACEMOOD_EYE_MODEL"
	EnvMouthModel = "FACEMOOD_MOUTH_MODEL"
	EnvModelDir   = "FACEMOOD_MODEL_DIR"
	EnvPort       = "FACEMOOD_PORT"
	EnvFPS        = "FACEMOOD_FPS"
	EnvLogLevel   = "LOG_LEVEL"
)

// String returns the value of key, or def when unset or blank.
func String(key, def string) string {
	if v := strings.TrimSpace(os.Getenv(key)); v != "" {
		return v
	}
	return def
}

// Int returns the integer value of key, or def when unset or not a number.
func Int(key string, def int) int {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return def
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return def
	}
	return n
}

// DeviceIndex returns the capture device index from FACEMOOD_DEVICE.
// Falls back to the provided default if not set.
func DeviceIndex(def int) int {
	return Int(EnvDevice, def)
}

// ModelDir returns the cascade model directory from FACEMOOD_MODEL_DIR.
func ModelDir(def string) string {
	return String(EnvModelDir, def)
}

// DashboardPort returns the dashboard port from FACEMOOD_PORT.
func DashboardPort(def string) string {
	return String(EnvPort, def)
}

// LogLevel returns the log level from LOG_LEVEL.
func LogLevel(def string) string {
	return String(EnvLogLevel, def)
}
