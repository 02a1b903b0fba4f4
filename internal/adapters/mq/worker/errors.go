package worker

import "errors"

// ErrStopped is recorded on jobs that were still waiting when the pool shut down.
var ErrStopped = errors.New("service stopped")
