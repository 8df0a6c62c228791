// Package debug provides global debug logging flags
package debug

import "fmt"

// Enabled controls whether debug logging is active
var Enabled bool

// Features controls whether per-face feature values are printed every cycle
// (eye aspect ratio, relative eye size, smile intensity).
// Use --debug-features to enable these very verbose logs
var Features bool

// Log prints a message only if debug mode is enabled
func Log(format string, args ...interface{}) {
	if Enabled {
		fmt.Printf(format, args...)
	}
}

// FeatureLog prints a message only if feature debug mode is enabled
func FeatureLog(format string, args ...interface{}) {
	if Features {
		fmt.Printf(format, args...)
	}
}
