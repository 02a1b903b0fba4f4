package model

import "fmt"

// Schedule is an ordered sequence of act names.
type Schedule []string

// Clone returns an independent copy of s.
func (s Schedule) Clone() Schedule {
	return append(Schedule(nil), s...)
}

// Pins pins acts to the first and/or last position of a schedule.
// An empty name means the position is free.
type Pins struct {
	Start string `json:"start_act,omitempty"`
	End   string `json:"end_act,omitempty"`
}

// Validate checks the pins against cat.
// Both pins naming the same act is only legal for a single-act catalog.
func (p Pins) Validate(cat *Catalog) error {
	if p.Start != "" && !cat.Has(p.Start) {
		return fmt.Errorf("%w: start act %q is not in the catalog", ErrInvalidConstraint, p.Start)
	}
	if p.End != "" && !cat.Has(p.End) {
		return fmt.Errorf("%w: end act %q is not in the catalog", ErrInvalidConstraint, p.End)
	}
	if p.Start != "" && p.Start == p.End && cat.Len() > 1 {
		return fmt.Errorf("%w: start and end act are both %q", ErrInvalidConstraint, p.Start)
	}
	return nil
}

// Satisfied reports whether s honours the pins.
func (p Pins) Satisfied(s Schedule) bool {
	if p.Start != "" && (len(s) == 0 || s[0] != p.Start) {
		return false
	}
	if p.End != "" && (len(s) == 0 || s[len(s)-1] != p.End) {
		return false
	}
	return true
}

// ValidatePermutation checks that s contains every act of cat exactly once.
func ValidatePermutation(cat *Catalog, s Schedule) error {
	if len(s) != cat.Len() {
		return fmt.Errorf("%w: got %d acts, catalog has %d", ErrInvalidSchedule, len(s), cat.Len())
	}
	seen := make(map[string]struct{}, len(s))
	for _, name := range s {
		if !cat.Has(name) {
			return fmt.Errorf("%w: %q", ErrUnknownAct, name)
		}
		if _, dup := seen[name]; dup {
			return fmt.Errorf("%w: %q appears twice", ErrInvalidSchedule, name)
		}
		seen[name] = struct{}{}
	}
	return nil
}

// CollisionEvent records a performer appearing in two adjacent acts.
// Positions holds the 1-based positions of PreviousAct and CurrentAct.
type CollisionEvent struct {
	Performer   string `json:"member"`
	PreviousAct string `json:"previous_dance"`
	CurrentAct  string `json:"current_dance"`
	Positions   [2]int `json:"positions"`
}
