package search

import "errors"

// Sentinel error kinds for search requests.
var (
	// ErrNotConfirmed is returned when an exhaustive search exceeds the warning
	// threshold and the caller did not confirm it.
	ErrNotConfirmed = errors.New("exhaustive search not confirmed")

	// ErrInvalidParams is returned for unusable annealing parameters.
	ErrInvalidParams = errors.New("invalid annealing parameters")
)
