package emotion

import "errors"

// ErrUnknownLabel is returned when a label name or value is not recognised.
var ErrUnknownLabel = errors.New("emotion: unknown label")
