package testjobs

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"os"
	"path/filepath"
	"time"

	"github.com/okian/lineup/pkg/logger"
)

// File permission constants.
const (
	directoryPermission = 0750
	filePermission      = 0600
)

// Run executes the complete job test.
func Run(ctx context.Context, config *Config) error {
	stats := &Stats{
		StartTime: time.Now(),
	}

	logger.Get().Info(ctx, "starting lineup job test",
		logger.String("baseURL", config.BaseURL),
		logger.Int("jobs", config.NumJobs),
		logger.String("strategy", config.Strategy),
		logger.Int("workers", config.Workers),
		logger.Duration("timeout", config.Timeout),
		logger.String("logFile", config.LogFile),
		logger.Bool("verbose", config.Verbose))

	if err := checkServiceHealth(ctx, config); err != nil {
		return fmt.Errorf("service health check failed: %w", err)
	}

	jobs, err := generateJobs(ctx, config, stats)
	if err != nil {
		return fmt.Errorf("job generation failed: %w", err)
	}

	if err := submitJobs(ctx, config, jobs, stats); err != nil {
		return fmt.Errorf("job submission failed: %w", err)
	}

	views, err := pollJobs(ctx, config, jobs, stats)
	if err != nil {
		return fmt.Errorf("job polling failed: %w", err)
	}

	verifyErr := verifyResults(ctx, config, jobs, views, stats)

	if config.OutputFile != "" {
		if err := saveJobsToFile(ctx, config.OutputFile, jobs); err != nil {
			logger.Get().Warn(ctx, "failed to save catalogs to file", logger.Error(err))
		}
	}

	stats.EndTime = time.Now()
	stats.Duration = stats.EndTime.Sub(stats.StartTime)
	displayFinalStats(ctx, stats)

	if verifyErr != nil {
		return fmt.Errorf("result verification failed: %w", verifyErr)
	}
	logger.Get().Info(ctx, "test completed successfully")
	return nil
}

// checkServiceHealth verifies the service is running.
func checkServiceHealth(ctx context.Context, config *Config) error {
	client := newHTTPClient(config.Timeout)
	resp, err := client.Get(ctx, config.BaseURL+"/healthz")
	if err != nil {
		return fmt.Errorf("failed to connect to service: %w", err)
	}
	if _, err := readResponseBody(resp); err != nil {
		return fmt.Errorf("failed to read health response: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("service health check failed with status: %d", resp.StatusCode)
	}
	logger.Get().Info(ctx, "service is healthy")
	return nil
}

// saveJobsToFile writes the generated requests as a JSON array.
func saveJobsToFile(ctx context.Context, filename string, jobs []Job) error {
	reqs := make([]ScheduleRequest, len(jobs))
	for i := range jobs {
		reqs[i] = jobs[i].Request
	}
	data, err := json.MarshalIndent(reqs, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal catalogs: %w", err)
	}

	if dir := filepath.Dir(filename); dir != "." {
		if err := os.MkdirAll(dir, directoryPermission); err != nil {
			return fmt.Errorf("failed to create directory: %w", err)
		}
	}
	if err := os.WriteFile(filename, data, filePermission); err != nil {
		return fmt.Errorf("failed to write file: %w", err)
	}

	logger.Get().Info(ctx, "catalogs saved to file", logger.String("filename", filename))
	return nil
}

// displayFinalStats logs the final test statistics.
func displayFinalStats(ctx context.Context, stats *Stats) {
	var successRate, jobsPerSecond float64
	if stats.JobsSubmitted > 0 {
		successRate = float64(stats.JobsAccepted+stats.JobsDuplicate) / float64(stats.JobsSubmitted) * PercentageMultiplier
	}
	if stats.Duration > 0 {
		jobsPerSecond = float64(stats.JobsDone) / stats.Duration.Seconds()
	}

	logger.Get().Info(ctx, "final statistics",
		logger.Int("jobsGenerated", stats.JobsGenerated),
		logger.Int("jobsSubmitted", stats.JobsSubmitted),
		logger.Int("jobsAccepted", stats.JobsAccepted),
		logger.Int("jobsDuplicate", stats.JobsDuplicate),
		logger.Int("jobsRejected", stats.JobsRejected),
		logger.Int("jobsFailed", stats.JobsFailed),
		logger.Int("jobsDone", stats.JobsDone),
		logger.Int("jobsVerified", stats.JobsVerified),
		logger.Int("schedulesChecked", stats.SchedulesChecked),
		logger.Int("violations", stats.Violations),
		logger.Duration("duration", stats.Duration),
		logger.Float64("successRate", successRate),
		logger.Float64("jobsPerSecond", jobsPerSecond))
}
