// Package runtime holds per-process mutable state shared across the
// pipeline, currently the outbound request rate counter.
package runtime

import (
	"sync"
	"time"
)

// defaultWindow is the span the rolling rate is computed over.
const defaultWindow = 10 * time.Second

// RateCounter tracks outbound requests over a rolling window.
// Thread-safe for concurrent access.
type RateCounter struct {
	mu     sync.Mutex
	window time.Duration
	total  int64
	events []time.Time

	// now is swapped out in tests
	now func() time.Time
}

// NewRateCounter creates a counter. A non-positive window takes the default.
func NewRateCounter(window time.Duration) *RateCounter {
	if window <= 0 {
		window = defaultWindow
	}
	return &RateCounter{window: window, now: time.Now}
}

// Incr records one request.
func (r *RateCounter) Incr() {
	r.mu.Lock()
	defer r.mu.Unlock()
	now := r.now()
	r.total++
	r.events = append(r.events, now)
	r.prune(now)
}

// Rate returns requests per second over the rolling window.
func (r *RateCounter) Rate() float64 {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.prune(r.now())
	return float64(len(r.events)) / r.window.Seconds()
}

// Total returns the number of requests since process start.
func (r *RateCounter) Total() int64 {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.total
}

// prune drops events older than the window. Caller holds the lock.
func (r *RateCounter) prune(now time.Time) {
	cutoff := now.Add(-r.window)
	i := 0
	for i < len(r.events) && !r.events[i].After(cutoff) {
		i++
	}
	if i > 0 {
		r.events = append(r.events[:0], r.events[i:]...)
	}
}
