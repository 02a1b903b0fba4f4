package testjobs

import (
	"fmt"
	"io"
	"os"
	"time"

	"github.com/okian/lineup/pkg/logger"
)

// SetupLogging sends log output to both the console and a file.
// If logFile is empty, a timestamped filename is generated.
func SetupLogging(logFile string, verbose bool) (io.Closer, error) {
	if logFile == "" {
		logFile = "test_log_" + time.Now().Format("20060102_150405") + ".log"
	}

	file, err := os.OpenFile(logFile, os.O_CREATE|os.O_WRONLY|os.O_APPEND, filePermission)
	if err != nil {
		return nil, fmt.Errorf("failed to create log file: %w", err)
	}
	if err := logger.InitWithOptions(logger.WithWriter(io.MultiWriter(os.Stdout, file))); err != nil {
		_ = file.Close()
		return nil, fmt.Errorf("failed to initialize logger: %w", err)
	}
	if verbose {
		_ = logger.SetLevelString("debug")
	}
	return file, nil
}

// ShowHelp prints usage information for the test jobs tool.
func ShowHelp() {
	_, _ = os.Stdout.WriteString(`Lineup Job Test Tool
====================

Submits random catalogs to a running lineup service and re-checks every
returned schedule locally.

Usage:
  go run ./cmd/test-jobs [options]

Options:
  -url string
        Base URL of the service (default "http://localhost:9080")
  -jobs int
        Number of catalogs to generate and submit (default 200)
  -acts int
        Acts per catalog (default 8)
  -pool int
        Size of the shared performer pool (default 20)
  -per-act int
        Maximum performers per act (default 4)
  -strategy string
        exhaustive or anneal (default "exhaustive")
  -pins float
        Share of jobs with start and end pins (default 0.3)
  -duplicates float
        Share of jobs submitted twice (default 0.1)
  -workers int
        Number of concurrent workers (default CPU cores * 2)
  -timeout duration
        HTTP request timeout (default 30s)
  -poll duration
        Delay between job polls (default 100ms)
  -wait duration
        Upper bound to wait for one job (default 2m)
  -seed int
        Generator seed, 0 picks one from the clock
  -output string
        Write the generated requests to this JSON file
  -log string
        Log file for test output (default: test_log_TIMESTAMP.log)
  -verbose
        Enable verbose logging
  -help
        Show this help message

Examples:
  # Test with default settings
  go run ./cmd/test-jobs

  # Stochastic search on larger catalogs
  go run ./cmd/test-jobs -strategy anneal -acts 30 -jobs 500

  # Reproducible run with saved catalogs
  go run ./cmd/test-jobs -seed 42 -output catalogs.json
`)
}
