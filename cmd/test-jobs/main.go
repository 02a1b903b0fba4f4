package main

import (
	"context"
	"flag"
	"os"
	"runtime"
	"time"

	"github.com/okian/lineup/internal/testjobs"
)

// Default configuration constants.
const (
	defaultNumJobs          = 200
	defaultActsPerJob       = 8
	defaultPerformerPool    = 20
	defaultPerformersPerAct = 4
	defaultPinRatio         = 0.3
	defaultDuplicateRatio   = 0.1
	defaultWorkers          = 2 // multiplier for runtime.NumCPU()
	defaultTimeout          = 30 * time.Second
	defaultPollInterval     = 100 * time.Millisecond
	defaultWaitTimeout      = 2 * time.Minute
	defaultTestTimeout      = 10 * time.Minute
)

func main() {
	var (
		baseURL        = flag.String("url", "http://localhost:9080", "Base URL of the service")
		numJobs        = flag.Int("jobs", defaultNumJobs, "Number of catalogs to generate and submit")
		acts           = flag.Int("acts", defaultActsPerJob, "Acts per catalog")
		pool           = flag.Int("pool", defaultPerformerPool, "Size of the shared performer pool")
		perAct         = flag.Int("per-act", defaultPerformersPerAct, "Maximum performers per act")
		strategy       = flag.String("strategy", "exhaustive", "Search strategy: exhaustive or anneal")
		pinRatio       = flag.Float64("pins", defaultPinRatio, "Share of jobs with start and end pins")
		duplicateRatio = flag.Float64("duplicates", defaultDuplicateRatio, "Share of jobs submitted twice")
		workers        = flag.Int("workers", runtime.NumCPU()*defaultWorkers, "Number of concurrent workers")
		timeout        = flag.Duration("timeout", defaultTimeout, "HTTP request timeout")
		poll           = flag.Duration("poll", defaultPollInterval, "Delay between job polls")
		wait           = flag.Duration("wait", defaultWaitTimeout, "Upper bound to wait for one job")
		seed           = flag.Int64("seed", 0, "Generator seed, 0 picks one from the clock")
		outputFile     = flag.String("output", "", "Write the generated requests to this JSON file")
		logFile        = flag.String("log", "", "Log file for test output (default: test_log_TIMESTAMP.log)")
		verbose        = flag.Bool("verbose", false, "Enable verbose logging")
		help           = flag.Bool("help", false, "Show help")
	)
	flag.Parse()

	if *help {
		testjobs.ShowHelp()
		return
	}

	closer, err := testjobs.SetupLogging(*logFile, *verbose)
	if err != nil {
		_, _ = os.Stderr.WriteString("Failed to setup logging: " + err.Error() + "\n")
		os.Exit(1)
	}
	defer func() { _ = closer.Close() }()

	ctx, cancel := context.WithTimeout(context.Background(), defaultTestTimeout)
	defer cancel()

	config := &testjobs.Config{
		BaseURL:          *baseURL,
		NumJobs:          *numJobs,
		ActsPerJob:       *acts,
		PerformerPool:    *pool,
		PerformersPerAct: *perAct,
		Strategy:         *strategy,
		PinRatio:         *pinRatio,
		DuplicateRatio:   *duplicateRatio,
		Workers:          *workers,
		Timeout:          *timeout,
		PollInterval:     *poll,
		WaitTimeout:      *wait,
		Seed:             *seed,
		OutputFile:       *outputFile,
		LogFile:          *logFile,
		Verbose:          *verbose,
	}

	if err := testjobs.Run(ctx, config); err != nil {
		_, _ = os.Stderr.WriteString("Test failed: " + err.Error() + "\n")
		cancel()
		os.Exit(1) //nolint:gocritic // exitAfterDefer: context already cancelled
	}
}
