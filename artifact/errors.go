package artifact

import "errors"

var (
	// ErrNotFound is returned when an artifact for the given session / id pair
	// does not exist in the underlying store.
	ErrNotFound = errors.New("artifact not found")

	// ErrInvalidLocator is returned by ParseLocator for malformed input.
	ErrInvalidLocator = errors.New("invalid artifact locator")
)
