package middleware

import (
	"encoding/json"
	"net/http"
	"runtime"
	"sync/atomic"
	"time"

	"github.com/bryanwahyu/automaton-epub/internal/domain/checks"
)

// counters is process-wide; the server has one router.
var counters struct {
	requests, inFlight, requestErrors atomic.Uint64

	checks, running         atomic.Uint64
	valid, invalid, failed  atomic.Uint64
	fatal, errors, warnings atomic.Uint64
	infos, usages           atomic.Uint64
	checkMillis             atomic.Uint64
}

var startTime = time.Now()

// Snapshot is what /metrics returns.
type Snapshot struct {
	Requests      uint64 `json:"requests_total"`
	InFlight      uint64 `json:"requests_in_progress"`
	RequestErrors uint64 `json:"requests_failed"`

	Checks        uint64 `json:"checks_total"`
	ChecksRunning uint64 `json:"checks_running"`
	ChecksValid   uint64 `json:"checks_valid"`
	ChecksInvalid uint64 `json:"checks_invalid"`
	ChecksFailed  uint64 `json:"checks_failed"`
	CheckMillis   uint64 `json:"check_duration_ms_total"`

	Diagnostics map[string]uint64 `json:"diagnostics_total"`

	UptimeSeconds float64 `json:"uptime_seconds"`
	Goroutines    int     `json:"goroutines"`
	HeapBytes     uint64  `json:"heap_alloc_bytes"`
}

// CheckStarted counts a validator run that was accepted.
func CheckStarted() {
	counters.checks.Add(1)
	counters.running.Add(1)
}

// CheckFinished records the final status of a run and its diagnostics per
// severity. A run that never produced a report is passed as StatusFailed.
func CheckFinished(status checks.Status, counts checks.SeverityCounts, duration time.Duration) {
	counters.running.Add(^uint64(0))
	switch status {
	case checks.StatusValid:
		counters.valid.Add(1)
	case checks.StatusInvalid:
		counters.invalid.Add(1)
	default:
		counters.failed.Add(1)
	}
	counters.fatal.Add(uint64(counts.Fatal))
	counters.errors.Add(uint64(counts.Error))
	counters.warnings.Add(uint64(counts.Warning))
	counters.infos.Add(uint64(counts.Info))
	counters.usages.Add(uint64(counts.Usage))
	if duration > 0 {
		counters.checkMillis.Add(uint64(duration.Milliseconds()))
	}
}

func GetMetrics() Snapshot {
	var m runtime.MemStats
	runtime.ReadMemStats(&m)
	return Snapshot{
		Requests:      counters.requests.Load(),
		InFlight:      counters.inFlight.Load(),
		RequestErrors: counters.requestErrors.Load(),
		Checks:        counters.checks.Load(),
		ChecksRunning: counters.running.Load(),
		ChecksValid:   counters.valid.Load(),
		ChecksInvalid: counters.invalid.Load(),
		ChecksFailed:  counters.failed.Load(),
		CheckMillis:   counters.checkMillis.Load(),
		Diagnostics: map[string]uint64{
			string(checks.SeverityFatal):   counters.fatal.Load(),
			string(checks.SeverityError):   counters.errors.Load(),
			string(checks.SeverityWarning): counters.warnings.Load(),
			string(checks.SeverityInfo):    counters.infos.Load(),
			string(checks.SeverityUsage):   counters.usages.Load(),
		},
		UptimeSeconds: time.Since(startTime).Seconds(),
		Goroutines:    runtime.NumGoroutine(),
		HeapBytes:     m.HeapAlloc,
	}
}

// CountRequests tracks request totals; 4xx and 5xx count as failed.
func CountRequests(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		counters.requests.Add(1)
		counters.inFlight.Add(1)
		defer counters.inFlight.Add(^uint64(0))

		wrapped := &responseWriter{ResponseWriter: w, statusCode: http.StatusOK}
		next.ServeHTTP(wrapped, r)
		if wrapped.statusCode >= 400 {
			counters.requestErrors.Add(1)
		}
	})
}

func MetricsHandler(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(GetMetrics())
}
