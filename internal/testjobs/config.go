package testjobs

import (
	"time"

	"github.com/okian/lineup/internal/domain/model"
)

// Config holds configuration for the job test
type Config struct {
	BaseURL          string        // Base URL of the service
	NumJobs          int           // Number of jobs to generate
	ActsPerJob       int           // Acts in each generated catalog
	PerformerPool    int           // Size of the shared performer pool
	PerformersPerAct int           // Upper bound of performers per act
	Strategy         string        // exhaustive or anneal
	PinRatio         float64       // Share of jobs with start/end pins
	DuplicateRatio   float64       // Share of jobs submitted twice
	Workers          int           // Number of concurrent workers
	Timeout          time.Duration // HTTP request timeout
	PollInterval     time.Duration // Delay between job polls
	WaitTimeout      time.Duration // Upper bound to wait for one job
	Seed             int64         // Generator seed, 0 picks one
	OutputFile       string        // Output file for catalogs
	LogFile          string        // Log file for test output
	Verbose          bool          // Enable verbose logging
}

// ScheduleRequest is the body of POST /schedules.
type ScheduleRequest struct {
	RequestID    string      `json:"request_id,omitempty"`
	Strategy     string      `json:"strategy"`
	Acts         []model.Act `json:"acts"`
	StartAct     string      `json:"start_act,omitempty"`
	EndAct       string      `json:"end_act,omitempty"`
	ConfirmLarge bool        `json:"confirm_large,omitempty"`
	Seed         *int64      `json:"seed,omitempty"`
}

// Job is one generated request and what the service made of it.
type Job struct {
	Request   ScheduleRequest
	Resubmit  bool
	JobID     string
	Duplicate bool
}

// Stats holds test statistics
type Stats struct {
	JobsGenerated    int
	JobsSubmitted    int
	JobsAccepted     int
	JobsDuplicate    int
	JobsRejected     int
	JobsFailed       int
	JobsDone         int
	JobsVerified     int
	Violations       int
	SchedulesChecked int
	StartTime        time.Time
	EndTime          time.Time
	Duration         time.Duration
}
