package model

import "time"

// Strategy selects the search used for a job.
type Strategy string

// Supported strategies.
const (
	StrategyExhaustive Strategy = "exhaustive"
	StrategyAnneal     Strategy = "anneal"
)

// Valid reports whether s is a known strategy.
func (s Strategy) Valid() bool {
	return s == StrategyExhaustive || s == StrategyAnneal
}

// JobStatus tracks a job through the queue.
type JobStatus string

// Job lifecycle states.
const (
	JobQueued  JobStatus = "queued"
	JobRunning JobStatus = "running"
	JobDone    JobStatus = "done"
	JobFailed  JobStatus = "failed"
)

// AnnealSettings carries optional annealing parameters of a request.
// Zero values fall back to service defaults.
type AnnealSettings struct {
	MaxIterations      int     `json:"max_iterations,omitempty"`
	InitialTemperature float64 `json:"initial_temperature,omitempty"`
	CoolingRate        float64 `json:"cooling_rate,omitempty"`
	Seed               *int64  `json:"seed,omitempty"`
}

// JobRequest describes one scheduling request.
type JobRequest struct {
	RequestID    string         `json:"request_id,omitempty"`
	Strategy     Strategy       `json:"strategy"`
	Acts         []Act          `json:"acts"`
	Pins         Pins           `json:"pins"`
	ConfirmLarge bool           `json:"confirm_large,omitempty"`
	Anneal       AnnealSettings `json:"anneal"`
}

// ScheduleResult is one returned schedule with its explanation.
type ScheduleResult struct {
	Schedule   Schedule         `json:"schedule"`
	Cost       int              `json:"cost"`
	Collisions []CollisionEvent `json:"collisions"`
}

// JobResult is the outcome of a finished search.
type JobResult struct {
	MinCost       int              `json:"min_cost"`
	Examined      uint64           `json:"examined"`
	Iterations    int              `json:"iterations,omitempty"`
	TiesTruncated uint64           `json:"ties_truncated,omitempty"`
	Results       []ScheduleResult `json:"results"`
}

// Job is a request plus its lifecycle state.
type Job struct {
	ID        string     `json:"id"`
	Request   JobRequest `json:"request"`
	Status    JobStatus  `json:"status"`
	Result    *JobResult `json:"result,omitempty"`
	Error     string     `json:"error,omitempty"`
	CreatedAt time.Time  `json:"created_at"`
	UpdatedAt time.Time  `json:"updated_at"`
}
