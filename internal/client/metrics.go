package client

import (
	"fmt"
	"sync"
	"time"
)

// Timings tracks HTTP round-trip metrics per backend endpoint
type Timings struct {
	mu sync.Mutex

	ProgressHTTPTotal time.Duration
	ProgressHTTPCount int64
	ProgressFailures  int64

	SummaryHTTPTotal time.Duration
	SummaryHTTPCount int64

	OutcomesHTTPTotal time.Duration
	OutcomesHTTPCount int64

	Retries int64
}

// NewTimings creates a new Timings instance
func NewTimings() *Timings {
	return &Timings{}
}

// ObserveProgressHTTP records a progress poll round-trip duration
func (t *Timings) ObserveProgressHTTP(duration time.Duration) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.ProgressHTTPTotal += duration
	t.ProgressHTTPCount++
}

// IncProgressFailure records a failed progress poll
func (t *Timings) IncProgressFailure() {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.ProgressFailures++
}

// ObserveSummaryHTTP records a summary fetch round-trip duration
func (t *Timings) ObserveSummaryHTTP(duration time.Duration) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.SummaryHTTPTotal += duration
	t.SummaryHTTPCount++
}

// ObserveOutcomesHTTP records an outcomes fetch round-trip duration
func (t *Timings) ObserveOutcomesHTTP(duration time.Duration) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.OutcomesHTTPTotal += duration
	t.OutcomesHTTPCount++
}

// IncRetry records one retry attempt
func (t *Timings) IncRetry() {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.Retries++
}

// Snapshot returns the current metrics as a JSON-friendly map
func (t *Timings) Snapshot() map[string]interface{} {
	t.mu.Lock()
	defer t.mu.Unlock()

	avg := func(total time.Duration, count int64) string {
		if count == 0 {
			return "0ms"
		}
		return fmt.Sprintf("%.1fms", float64(total.Microseconds())/float64(count)/1000.0)
	}

	return map[string]interface{}{
		"progressRequests": t.ProgressHTTPCount,
		"progressFailures": t.ProgressFailures,
		"progressAvg":      avg(t.ProgressHTTPTotal, t.ProgressHTTPCount),
		"summaryRequests":  t.SummaryHTTPCount,
		"summaryAvg":       avg(t.SummaryHTTPTotal, t.SummaryHTTPCount),
		"outcomesRequests": t.OutcomesHTTPCount,
		"outcomesAvg":      avg(t.OutcomesHTTPTotal, t.OutcomesHTTPCount),
		"retries":          t.Retries,
	}
}
