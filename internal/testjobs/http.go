package testjobs

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"sync"
	"sync/atomic"
	"time"

	"github.com/okian/lineup/internal/domain/model"
	"github.com/okian/lineup/internal/domain/types"
	"github.com/okian/lineup/pkg/logger"
)

// HTTPClient wraps http.Client with timeout
type HTTPClient struct {
	client *http.Client
}

// newHTTPClient creates a new HTTP client with timeout
func newHTTPClient(timeout time.Duration) *HTTPClient {
	return &HTTPClient{
		client: &http.Client{Timeout: timeout},
	}
}

// Get performs a GET request
func (c *HTTPClient) Get(ctx context.Context, url string) (*http.Response, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, http.NoBody)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	return c.client.Do(req)
}

// Post performs a POST request with JSON body
func (c *HTTPClient) Post(ctx context.Context, url string, body interface{}) (*http.Response, error) {
	jsonData, err := json.Marshal(body)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal request body: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(jsonData))
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	return c.client.Do(req)
}

// readResponseBody reads and closes the response body
func readResponseBody(resp *http.Response) ([]byte, error) {
	defer func() { _ = resp.Body.Close() }()
	return io.ReadAll(resp.Body)
}

// submitJobs submits jobs concurrently and then resubmits the ones marked
// for resubmission, which must come back as duplicates of the first call.
func submitJobs(ctx context.Context, config *Config, jobs []Job, stats *Stats) error {
	logger.Get().Info(ctx, "submitting jobs", logger.Int("jobs", len(jobs)), logger.Int("workers", config.Workers))

	client := newHTTPClient(config.Timeout)
	url := config.BaseURL + "/schedules"

	var accepted, duplicate, rejected, failed, submitted atomic.Int64
	var lastReport atomic.Int64

	run := func(indexes []int, resubmit bool) {
		work := make(chan int, config.Workers*WorkerChannelMultiplier)
		var wg sync.WaitGroup
		for w := 0; w < config.Workers; w++ {
			wg.Add(1)
			go func() {
				defer wg.Done()
				for i := range work {
					res, outcome := submitSingleJob(ctx, client, url, jobs[i].Request)
					submitted.Add(1)
					switch outcome {
					case outcomeAccepted:
						accepted.Add(1)
					case outcomeDuplicate:
						duplicate.Add(1)
					case outcomeRejected:
						rejected.Add(1)
					default:
						failed.Add(1)
					}
					if resubmit {
						if outcome == outcomeDuplicate && res.JobID != jobs[i].JobID {
							logger.Get().Warn(ctx, "duplicate resolved to a different job",
								logger.String("want", jobs[i].JobID), logger.String("got", res.JobID))
							jobs[i].Duplicate = false
						} else {
							jobs[i].Duplicate = outcome == outcomeDuplicate
						}
					} else if res.JobID != "" {
						jobs[i].JobID = res.JobID
					}
					reportProgress(ctx, config, &lastReport, submitted.Load(), int64(len(jobs)))
				}
			}()
		}
		go func() {
			defer close(work)
			for _, i := range indexes {
				select {
				case <-ctx.Done():
					return
				case work <- i:
				}
			}
		}()
		wg.Wait()
	}

	all := make([]int, len(jobs))
	var again []int
	for i := range jobs {
		all[i] = i
	}
	run(all, false)
	for i := range jobs {
		if jobs[i].Resubmit && jobs[i].JobID != "" {
			again = append(again, i)
		}
	}
	run(again, true)

	stats.JobsSubmitted = int(submitted.Load())
	stats.JobsAccepted = int(accepted.Load())
	stats.JobsDuplicate = int(duplicate.Load())
	stats.JobsRejected = int(rejected.Load())
	stats.JobsFailed = int(failed.Load())

	logger.Get().Info(ctx, "job submission completed",
		logger.Int("accepted", stats.JobsAccepted),
		logger.Int("duplicate", stats.JobsDuplicate),
		logger.Int("rejected", stats.JobsRejected),
		logger.Int("failed", stats.JobsFailed))
	return ctx.Err()
}

func reportProgress(ctx context.Context, config *Config, last *atomic.Int64, done, total int64) {
	now := time.Now().UnixNano()
	prev := last.Load()
	if now-prev < int64(ProgressInterval) || !last.CompareAndSwap(prev, now) {
		return
	}
	if config.Verbose {
		logger.Get().Info(ctx, "progress", logger.Int64("done", done), logger.Int64("total", total))
	}
}

// submitSingleJob submits a single job and classifies the response.
func submitSingleJob(ctx context.Context, client *HTTPClient, url string, req ScheduleRequest) (types.SubmitResult, string) { //nolint:gocritic // hugeParam: request is serialised by value
	var res types.SubmitResult
	resp, err := client.Post(ctx, url, req)
	if err != nil {
		return res, outcomeFailed
	}
	body, err := readResponseBody(resp)
	if err != nil {
		return res, outcomeFailed
	}

	switch {
	case resp.StatusCode == http.StatusAccepted:
		if err := json.Unmarshal(body, &res); err != nil {
			return res, outcomeFailed
		}
		return res, outcomeAccepted
	case resp.StatusCode == http.StatusOK:
		if err := json.Unmarshal(body, &res); err != nil || !res.Duplicate {
			return res, outcomeFailed
		}
		return res, outcomeDuplicate
	case resp.StatusCode >= http.StatusBadRequest && resp.StatusCode < http.StatusInternalServerError:
		logger.Get().Debug(ctx, "job rejected",
			logger.Int("status", resp.StatusCode), logger.String("body", string(body)))
		return res, outcomeRejected
	default:
		return res, outcomeFailed
	}
}

// pollJobs waits for every submitted job to finish and returns their views by id.
func pollJobs(ctx context.Context, config *Config, jobs []Job, stats *Stats) (map[string]types.JobView, error) {
	ids := make(map[string]struct{}, len(jobs))
	for i := range jobs {
		if jobs[i].JobID != "" {
			ids[jobs[i].JobID] = struct{}{}
		}
	}
	logger.Get().Info(ctx, "waiting for jobs", logger.Int("jobs", len(ids)))

	client := newHTTPClient(config.Timeout)
	work := make(chan string, config.Workers*WorkerChannelMultiplier)
	var (
		mu    sync.Mutex
		views = make(map[string]types.JobView, len(ids))
		wg    sync.WaitGroup
	)
	for w := 0; w < config.Workers; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for id := range work {
				view, err := waitForJob(ctx, client, config, id)
				if err != nil {
					logger.Get().Warn(ctx, "job did not finish", logger.String("jobID", id), logger.Error(err))
					continue
				}
				mu.Lock()
				views[id] = view
				mu.Unlock()
			}
		}()
	}
	for id := range ids {
		if ctx.Err() != nil {
			break
		}
		select {
		case <-ctx.Done():
		case work <- id:
		}
	}
	close(work)
	wg.Wait()

	for _, v := range views {
		switch v.Status {
		case model.JobDone:
			stats.JobsDone++
		case model.JobFailed:
			stats.JobsFailed++
		}
	}
	if err := ctx.Err(); err != nil {
		return views, fmt.Errorf("context cancelled while polling: %w", err)
	}
	return views, nil
}

// waitForJob polls one job until it reaches a terminal status.
func waitForJob(ctx context.Context, client *HTTPClient, config *Config, id string) (types.JobView, error) {
	ctx, cancel := context.WithTimeout(ctx, config.WaitTimeout)
	defer cancel()

	url := config.BaseURL + "/schedules/" + id
	for {
		view, err := fetchJob(ctx, client, url)
		if err != nil {
			return view, err
		}
		if view.Status == model.JobDone || view.Status == model.JobFailed {
			return view, nil
		}
		select {
		case <-ctx.Done():
			return view, ctx.Err()
		case <-time.After(config.PollInterval):
		}
	}
}

func fetchJob(ctx context.Context, client *HTTPClient, url string) (types.JobView, error) {
	var view types.JobView
	resp, err := client.Get(ctx, url)
	if err != nil {
		return view, err
	}
	body, err := readResponseBody(resp)
	if err != nil {
		return view, err
	}
	if resp.StatusCode != http.StatusOK {
		return view, fmt.Errorf("unexpected status %d: %s", resp.StatusCode, body)
	}
	if err := json.Unmarshal(body, &view); err != nil {
		return view, fmt.Errorf("failed to decode job: %w", err)
	}
	return view, nil
}
