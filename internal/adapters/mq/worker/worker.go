// Package worker runs the detached commentary pipeline: dequeue a request,
// call the narrator, and hand the result back to the engine's single-writer
// mutation path. Narrator failures are dropped, never retried, and never
// reach the scoring path.
package worker

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/devderby/devderby/internal/adapters/mq/queue"
	"github.com/devderby/devderby/internal/domain/model"
	"github.com/devderby/devderby/pkg/logger"
	"github.com/devderby/devderby/pkg/metrics"
)

const shutdownTimeout = 10 * time.Second

// systemInstruction is the fixed tone contract sent with every request.
const systemInstruction = "You are the commentator of a developer scoring " +
	"game. Write one or two punchy sentences about the situation you are " +
	"given. Be competitive and teasing but never malicious. No hashtags, " +
	"no emoji spam."

// Narrator generates commentary text.
type Narrator interface {
	Generate(ctx context.Context, instruction, prompt string) (string, error)
}

// Appender is the way finished commentary re-enters the engine; the append
// goes through the engine's mutation path, not directly into shared state.
type Appender interface {
	AppendCommentary(ctx context.Context, c model.GameCommentary)
}

// Queue is how workers receive requests.
type Queue interface {
	Dequeue(ctx context.Context) <-chan queue.Request
}

// Worker consumes commentary requests until stopped.
type Worker struct {
	queue    Queue
	narrator Narrator
	appender Appender
	name     string

	shutdown chan struct{}
	done     chan struct{}

	logger logger.Logger
}

// NewWorker creates a worker.
func NewWorker(q Queue, n Narrator, a Appender, opts ...Option) *Worker {
	w := &Worker{
		queue:    q,
		narrator: n,
		appender: a,
		name:     "worker",
		shutdown: make(chan struct{}),
		done:     make(chan struct{}),
		logger:   logger.Get().Named("commentary"),
	}
	for _, opt := range opts {
		opt(w)
	}
	return w
}

// Run processes requests until ctx is cancelled or Shutdown is called.
func (w *Worker) Run(ctx context.Context) {
	defer close(w.done)

	requests := w.queue.Dequeue(ctx)
	for {
		select {
		case <-ctx.Done():
			return
		case <-w.shutdown:
			return
		case r, ok := <-requests:
			if !ok {
				return
			}
			w.process(ctx, r)
		}
	}
}

// Shutdown stops the worker and waits for the in-flight request.
func (w *Worker) Shutdown(ctx context.Context) error {
	close(w.shutdown)
	select {
	case <-w.done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// process performs one narrator call. Failure drops the request silently.
func (w *Worker) process(ctx context.Context, r queue.Request) {
	content, err := w.narrator.Generate(ctx, systemInstruction, r.Context)
	if err != nil {
		metrics.RecordCommentaryError()
		w.logger.Debug(ctx, "commentary attempt dropped",
			logger.String("trigger", string(r.Trigger)),
			logger.Error(err),
		)
		return
	}

	w.appender.AppendCommentary(ctx, model.GameCommentary{
		ID:         uuid.NewString(),
		Timestamp:  time.Now(),
		Trigger:    r.Trigger,
		Content:    content,
		TargetUser: r.TargetUser,
	})
	metrics.RecordCommentaryGenerated(string(r.Trigger))
}

// Pool manages a set of commentary workers.
type Pool struct {
	workers []*Worker
	logger  logger.Logger
}

// NewPool creates workerCount workers over the shared queue.
func NewPool(workerCount int, q Queue, n Narrator, a Appender) *Pool {
	if workerCount < 1 {
		workerCount = 1
	}
	p := &Pool{
		workers: make([]*Worker, workerCount),
		logger:  logger.Get().Named("commentary-pool"),
	}
	for i := range p.workers {
		p.workers[i] = NewWorker(q, n, a)
	}
	return p
}

// Start launches all workers.
func (p *Pool) Start(ctx context.Context) {
	for _, w := range p.workers {
		go w.Run(ctx)
	}
}

// Stop shuts down all workers, bounded by a timeout.
func (p *Pool) Stop() {
	ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	for _, w := range p.workers {
		if err := w.Shutdown(ctx); err != nil {
			p.logger.Warn(ctx, "commentary worker shutdown timed out", logger.Error(err))
		}
	}
}
