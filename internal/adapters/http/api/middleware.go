package api

import (
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/okian/lineup/pkg/metrics"
)

// Instrument wraps next so every request on endpoint is counted and timed.
// Failed requests are also recorded under the error code the handler wrote.
func Instrument(endpoint string, next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		rw := &statusRecorder{ResponseWriter: w, status: http.StatusOK}

		next.ServeHTTP(rw, r)

		ms := float64(time.Since(start).Milliseconds())
		status := strconv.Itoa(rw.status)
		metrics.RecordHTTPRequest(endpoint, r.Method, status)
		metrics.RecordHTTPRequestDuration(endpoint, r.Method, status, ms)

		if rw.status < http.StatusBadRequest {
			return
		}
		code := rw.code
		if code == "" {
			code = fallbackCode(rw.status)
		}
		metrics.RecordErrorByEndpoint(endpoint, r.Method, code)
		metrics.RecordErrorByType(code, severity(rw.status))
		metrics.RecordErrorLatency("http", code, ms)
	}
}

// fallbackCode names failures written without writeError, such as mux 404s.
func fallbackCode(status int) string {
	switch {
	case status == http.StatusNotFound:
		return "not_found"
	case status >= http.StatusInternalServerError:
		return "internal_error"
	default:
		return "client_error"
	}
}

func severity(status int) string {
	switch {
	case status >= http.StatusInternalServerError:
		return "high"
	case status == http.StatusTooManyRequests, status == http.StatusServiceUnavailable:
		return "medium"
	default:
		return "low"
	}
}

// statusRecorder captures the status and error code of a response.
type statusRecorder struct {
	http.ResponseWriter
	status int
	code   string
}

func (rw *statusRecorder) WriteHeader(status int) {
	rw.status = status
	rw.ResponseWriter.WriteHeader(status)
}

func (rw *statusRecorder) Write(b []byte) (int, error) {
	n, err := rw.ResponseWriter.Write(b)
	if err != nil {
		return n, fmt.Errorf("failed to write response: %w", err)
	}
	return n, nil
}

// recordCode tags the response with an error code when w is instrumented.
func recordCode(w http.ResponseWriter, code string) {
	if rw, ok := w.(*statusRecorder); ok {
		rw.code = code
	}
}
