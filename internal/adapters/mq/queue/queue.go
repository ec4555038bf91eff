// Package queue buffers commentary requests between the scoring path and
// the narrator workers. Enqueue never blocks: the scoring path must not wait
// on narrative generation, so a full queue drops the request.
package queue

import (
	"context"
	"sync"

	"github.com/devderby/devderby/internal/domain/model"
	"github.com/devderby/devderby/pkg/metrics"
)

const defaultCapacity = 256

// Request is the payload flowing through the queue.
type Request = model.CommentaryRequest

// Queue provides non-blocking enqueue and channel-based dequeue semantics.
type Queue interface {
	// Enqueue adds a request. Returns false when the queue is full or closed;
	// the request is dropped in that case.
	Enqueue(ctx context.Context, r Request) bool

	// Dequeue returns a channel delivering requests until the queue closes.
	Dequeue(ctx context.Context) <-chan Request

	// Len returns the number of pending requests.
	Len(ctx context.Context) int

	// Close stops the queue; no further enqueues succeed.
	Close() error
}

// InMemoryQueue implements Queue with a buffered channel.
type InMemoryQueue struct {
	requests chan Request
	capacity int

	mu     sync.RWMutex
	closed bool
}

// NewInMemoryQueue creates an in-memory queue.
func NewInMemoryQueue(opts ...Option) *InMemoryQueue {
	q := &InMemoryQueue{capacity: defaultCapacity}
	for _, opt := range opts {
		opt(q)
	}
	q.requests = make(chan Request, q.capacity)
	metrics.UpdateCommentaryQueueSize(0)
	return q
}

// Enqueue adds a request without blocking.
func (q *InMemoryQueue) Enqueue(ctx context.Context, r Request) bool {
	q.mu.RLock()
	defer q.mu.RUnlock()

	if q.closed {
		return false
	}
	select {
	case q.requests <- r:
		metrics.UpdateCommentaryQueueSize(len(q.requests))
		return true
	case <-ctx.Done():
		return false
	default:
		// Full; commentary is best-effort, drop it.
		return false
	}
}

// Dequeue returns the consumption channel.
func (q *InMemoryQueue) Dequeue(ctx context.Context) <-chan Request {
	out := make(chan Request)
	go func() {
		defer close(out)
		for r := range q.requests {
			select {
			case out <- r:
				metrics.UpdateCommentaryQueueSize(len(q.requests))
			case <-ctx.Done():
				return
			}
		}
	}()
	return out
}

// Len returns the number of pending requests.
func (q *InMemoryQueue) Len(_ context.Context) int {
	return len(q.requests)
}

// Close stops the queue.
func (q *InMemoryQueue) Close() error {
	q.mu.Lock()
	defer q.mu.Unlock()

	if q.closed {
		return nil
	}
	close(q.requests)
	q.closed = true
	return nil
}
