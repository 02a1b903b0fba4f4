package types

import (
	"errors"
	"fmt"
)

// Sentinel kinds returned by the service to its transports.
var (
	ErrNotStarted           = errors.New("service not started")
	ErrInvalidRequest       = errors.New("invalid request")
	ErrTooLarge             = errors.New("exhaustive search too large")
	ErrConfirmationRequired = errors.New("confirmation required")
	ErrBackpressure         = errors.New("backpressure")
	ErrJobNotFound          = errors.New("job not found")
)

// ConfirmationError reports an exhaustive request whose permutation count
// needs explicit confirmation.
type ConfirmationError struct {
	Permutations uint64
	Overflow     bool
	Threshold    uint64
}

func (e *ConfirmationError) Error() string {
	if e.Overflow {
		return fmt.Sprintf("%s: permutation count exceeds 2^64 (threshold %d)", ErrConfirmationRequired, e.Threshold)
	}
	return fmt.Sprintf("%s: %d permutations exceed threshold %d", ErrConfirmationRequired, e.Permutations, e.Threshold)
}

// Unwrap lets errors.Is match ErrConfirmationRequired.
func (e *ConfirmationError) Unwrap() error { return ErrConfirmationRequired }
