package model

import "errors"

// Sentinel error kinds for catalog and schedule validation.
var (
	ErrEmptyActName      = errors.New("empty act name")
	ErrDuplicateAct      = errors.New("duplicate act")
	ErrUnknownAct        = errors.New("unknown act")
	ErrInvalidConstraint = errors.New("invalid constraint")
	ErrInvalidSchedule   = errors.New("invalid schedule")
)
