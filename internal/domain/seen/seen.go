// Package seen tracks already-processed raw event ids. It backs the cursor
// tracker: cursors stop batch processing at the last-seen boundary, and this
// tracker catches anything that slips past them, such as completed workflow
// runs re-fetched while older runs were still pending.
package seen

import (
	"context"
	"sync"
)

const defaultMaxSize = 10000

// Tracker records seen ids for at-most-once scoring.
type Tracker interface {
	// SeenAndRecord atomically checks whether id was seen and records it if
	// not. Returns true when id was already seen.
	SeenAndRecord(ctx context.Context, id string) bool

	// Unrecord forgets an id so it can be retried after a failed apply.
	Unrecord(ctx context.Context, id string)

	// Size returns the number of ids currently tracked.
	Size() int
}

// tracker is a bounded in-memory Tracker. When full it evicts the oldest
// recorded ids first.
type tracker struct {
	mu      sync.Mutex
	ids     map[string]struct{}
	order   []string
	maxSize int
}

// NewTracker creates a bounded in-memory tracker.
func NewTracker(opts ...Option) Tracker {
	t := &tracker{
		ids:     make(map[string]struct{}),
		maxSize: defaultMaxSize,
	}
	for _, opt := range opts {
		opt(t)
	}
	return t
}

func (t *tracker) SeenAndRecord(_ context.Context, id string) bool {
	t.mu.Lock()
	defer t.mu.Unlock()

	if _, ok := t.ids[id]; ok {
		return true
	}
	if t.maxSize > 0 && len(t.ids) >= t.maxSize {
		oldest := t.order[0]
		t.order = t.order[1:]
		delete(t.ids, oldest)
	}
	t.ids[id] = struct{}{}
	t.order = append(t.order, id)
	return false
}

func (t *tracker) Unrecord(_ context.Context, id string) {
	t.mu.Lock()
	defer t.mu.Unlock()

	if _, ok := t.ids[id]; !ok {
		return
	}
	delete(t.ids, id)
	for i, v := range t.order {
		if v == id {
			t.order = append(t.order[:i], t.order[i+1:]...)
			break
		}
	}
}

func (t *tracker) Size() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return len(t.ids)
}
