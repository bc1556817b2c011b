package span

import (
	"sort"
	"sync"
	"time"
)

// OpenSpanInfo describes a span that has not yet reached a terminal state.
// Surfaced by the shutdown audit sweep: an un-ended span is evidence that
// was promised but never recorded.
type OpenSpanInfo struct {
	SpanID         string    `json:"span_id"`
	Framework      string    `json:"framework"`
	ControlID      string    `json:"control_id"`
	CorrelationKey string    `json:"correlation_key"`
	StartedAt      time.Time `json:"started_at"`
}

// OpenTracker tracks spans between Begin and their terminal transition.
// Compliance evidence is never auto-closed with fabricated status; leaked
// spans stay OPEN and the tracker makes them visible to the audit sweep
// and the open-span gauge.
type OpenTracker struct {
	mu   sync.Mutex
	open map[string]OpenSpanInfo
}

// NewOpenTracker creates an empty tracker.
func NewOpenTracker() *OpenTracker {
	return &OpenTracker{
		open: make(map[string]OpenSpanInfo),
	}
}

// add registers a newly opened span.
func (t *OpenTracker) add(info OpenSpanInfo) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.open[info.SpanID] = info
}

// remove unregisters a span that reached a terminal state.
func (t *OpenTracker) remove(spanID string) {
	t.mu.Lock()
	defer t.mu.Unlock()
	delete(t.open, spanID)
}

// Count returns the number of spans currently open.
func (t *OpenTracker) Count() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return len(t.open)
}

// Open returns the open spans sorted by start time (oldest first).
func (t *OpenTracker) Open() []OpenSpanInfo {
	t.mu.Lock()
	defer t.mu.Unlock()

	out := make([]OpenSpanInfo, 0, len(t.open))
	for _, info := range t.open {
		out = append(out, info)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].StartedAt.Before(out[j].StartedAt) })
	return out
}
