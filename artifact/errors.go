package artifact

import "errors"

var (
	// ErrNotFound is returned when no artifact with the given name exists.
	ErrNotFound = errors.New("artifact not found")

	// ErrInvalidName is returned for empty names or names escaping the store root.
	ErrInvalidName = errors.New("invalid artifact name")
)
