package facemood

import "errors"

var (
	// ErrDeviceUnavailable is returned by Init when the capture device
	// cannot be opened. Nothing is started in that case.
	ErrDeviceUnavailable = errors.New("facemood: capture device unavailable")

	// ErrAlreadyInitialized is returned by a second call to Init.
	ErrAlreadyInitialized = errors.New("facemood: already initialized")

	// ErrNotInitialized is returned by Run before Init succeeded.
	ErrNotInitialized = errors.New("facemood: not initialized")
)
