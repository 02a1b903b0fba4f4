package repository

import "errors"

// Sentinel kinds for store errors.
var (
	ErrNotFound = errors.New("job not found")
	ErrEmptyID  = errors.New("job id is empty")
	ErrConflict = errors.New("job changed concurrently")
)
