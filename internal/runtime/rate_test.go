package runtime

import (
	"testing"
	"time"
)

func TestRateCounter(t *testing.T) {
	current := time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC)
	r := NewRateCounter(10 * time.Second)
	r.now = func() time.Time { return current }

	if r.Rate() != 0 {
		t.Errorf("empty Rate = %f, want 0", r.Rate())
	}

	for i := 0; i < 20; i++ {
		r.Incr()
	}
	if got := r.Rate(); got != 2.0 {
		t.Errorf("Rate = %f, want 2.0", got)
	}
	if r.Total() != 20 {
		t.Errorf("Total = %d, want 20", r.Total())
	}
}

func TestRateCounter_WindowSlides(t *testing.T) {
	current := time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC)
	r := NewRateCounter(10 * time.Second)
	r.now = func() time.Time { return current }

	for i := 0; i < 10; i++ {
		r.Incr()
	}

	// Half the window later, five more requests.
	current = current.Add(5 * time.Second)
	for i := 0; i < 5; i++ {
		r.Incr()
	}
	if got := r.Rate(); got != 1.5 {
		t.Errorf("Rate = %f, want 1.5", got)
	}

	// The first burst ages out of the window, the second stays.
	current = current.Add(6 * time.Second)
	if got := r.Rate(); got != 0.5 {
		t.Errorf("Rate after slide = %f, want 0.5", got)
	}

	// Total is unaffected by pruning.
	if r.Total() != 15 {
		t.Errorf("Total = %d, want 15", r.Total())
	}
}

func TestRateCounter_DefaultWindow(t *testing.T) {
	r := NewRateCounter(0)
	if r.window != defaultWindow {
		t.Errorf("window = %v, want %v", r.window, defaultWindow)
	}
}
