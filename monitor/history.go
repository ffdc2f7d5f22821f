package monitor

import (
	"sync"
	"time"
)

// Entry is a single probe outcome and the time it was recorded.
type Entry struct {
	At time.Time
	Outcome
}

// History represents the probe log for a single target. Entries are only
// ever appended, in completion order.
type History struct {
	entries []Entry
	sync.RWMutex
}

// NewHistory creates an empty History, preallocating room for capacity
// entries.
func NewHistory(capacity int) *History {
	if capacity < 0 {
		capacity = 0
	}
	return &History{
		entries: make([]Entry, 0, capacity),
	}
}

// Add appends a probe outcome.
func (h *History) Add(at time.Time, o Outcome) {
	h.Lock()
	h.entries = append(h.entries, Entry{At: at, Outcome: o})
	h.Unlock()
}

// Len returns the number of recorded entries.
func (h *History) Len() int {
	h.RLock()
	defer h.RUnlock()
	return len(h.entries)
}

// Window returns a copy of the last n entries (fewer, if the history is
// shorter).
func (h *History) Window(n int) []Entry {
	h.RLock()
	defer h.RUnlock()

	w := window(h.entries, n)
	out := make([]Entry, len(w))
	copy(out, w)
	return out
}

// Segments splits the last n entries into runs of successful probes.
// See Segments.
func (h *History) Segments(n int) [][]Point {
	h.RLock()
	defer h.RUnlock()
	return Segments(h.entries, n)
}

// Compute aggregates the last n entries into a single data point.
func (h *History) Compute(n int) *Metrics {
	h.RLock()
	defer h.RUnlock()
	return compute(window(h.entries, n))
}

// window returns the tail of entries holding at most n elements.
func window(entries []Entry, n int) []Entry {
	if n <= 0 {
		return nil
	}
	if base := len(entries) - n; base > 0 {
		return entries[base:]
	}
	return entries
}
