// Package engine orchestrates the scoring pipeline: polling the event
// source, scoring raw events, mutating the ledger, deriving standings, and
// driving commentary. The engine owns the EngineState exclusively; every
// mutation happens under one lock (single-writer discipline) and is written
// through to the state store before the lock is released.
package engine

import (
	"context"
	"sync"
	"time"

	"github.com/devderby/devderby/internal/adapters/forge"
	"github.com/devderby/devderby/internal/adapters/mq/queue"
	"github.com/devderby/devderby/internal/adapters/mq/worker"
	"github.com/devderby/devderby/internal/adapters/narrator"
	"github.com/devderby/devderby/internal/adapters/statestore"
	"github.com/devderby/devderby/internal/domain/leaderboard"
	"github.com/devderby/devderby/internal/domain/ledger"
	"github.com/devderby/devderby/internal/domain/model"
	"github.com/devderby/devderby/internal/domain/scoring"
	"github.com/devderby/devderby/internal/domain/seen"
	"github.com/devderby/devderby/pkg/logger"
	"github.com/devderby/devderby/pkg/metrics"
)

// Default engine configuration.
const (
	defaultFlipThreshold       = leaderboard.DefaultFlipThreshold
	defaultRoastCooldown       = 5 * time.Minute
	defaultCommentaryLimit     = 50
	defaultCommitInterval      = 60 * time.Second
	defaultWorkflowInterval    = 90 * time.Second
	defaultPullInterval        = 120 * time.Second
	defaultSeenCacheSize       = 10000
	defaultCommentaryQueueSize = 256
	defaultCommentaryWorkers   = 2
)

// Broadcaster fans ledger updates out to live render clients. Optional.
type Broadcaster interface {
	BroadcastStandings(s leaderboard.Standings)
	BroadcastCommentary(c model.GameCommentary)
}

// Engine is the single owner of the scoring state.
type Engine struct {
	mu    sync.Mutex
	state *model.EngineState

	calc     *scoring.Calculator
	applier  *ledger.Applier
	store    statestore.Store
	source   forge.Source
	narrator narrator.Narrator
	tracker  seen.Tracker
	queue    *queue.InMemoryQueue
	pool     *worker.Pool

	broadcaster Broadcaster

	flipThreshold       int
	roastCooldown       time.Duration
	commentaryLimit     int
	commitInterval      time.Duration
	workflowInterval    time.Duration
	pullInterval        time.Duration
	seenCacheSize       int
	commentaryQueueSize int
	commentaryWorkers   int

	lastRoast time.Time
	startedAt time.Time
	started   bool
	cancel    context.CancelFunc
	wg        sync.WaitGroup

	now    func() time.Time
	logger logger.Logger
}

// New constructs an engine. Source, store and narrator are wired via
// options; the zero engine scores nothing but still serves reads.
func New(opts ...Option) *Engine {
	e := &Engine{
		state:               model.NewEngineState(),
		calc:                scoring.NewCalculator(),
		applier:             ledger.NewApplier(),
		flipThreshold:       defaultFlipThreshold,
		roastCooldown:       defaultRoastCooldown,
		commentaryLimit:     defaultCommentaryLimit,
		commitInterval:      defaultCommitInterval,
		workflowInterval:    defaultWorkflowInterval,
		pullInterval:        defaultPullInterval,
		seenCacheSize:       defaultSeenCacheSize,
		commentaryQueueSize: defaultCommentaryQueueSize,
		commentaryWorkers:   defaultCommentaryWorkers,
		now:                 time.Now,
	}
	for _, opt := range opts {
		opt(e)
	}
	if e.logger == nil {
		e.logger = logger.Get().Named("engine")
	}
	return e
}

// Start loads persisted state and launches the pollers and the commentary
// workers. Safe to call once.
func (e *Engine) Start(ctx context.Context) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.started {
		return nil
	}

	if e.store != nil {
		e.state = e.store.Load(ctx)
	}
	e.tracker = seen.NewTracker(seen.WithMaxSize(e.seenCacheSize))
	e.queue = queue.NewInMemoryQueue(queue.WithCapacity(e.commentaryQueueSize))

	runCtx, cancel := context.WithCancel(context.Background())
	e.cancel = cancel

	if e.narrator != nil {
		e.pool = worker.NewPool(e.commentaryWorkers, e.queue, e.narrator, e)
		e.pool.Start(runCtx)
	}

	if e.source != nil {
		e.startPoller(runCtx, "commits", e.commitInterval, e.pollCommits)
		e.startPoller(runCtx, "workflows", e.workflowInterval, e.pollWorkflows)
		e.startPoller(runCtx, "pulls", e.pullInterval, e.pollPulls)
	}

	e.startedAt = e.now()
	e.started = true
	e.logger.Info(ctx, "engine started",
		logger.Int("players", len(e.state.Players)),
		logger.String("last_commit", e.state.LastProcessedCommitID),
		logger.Int64("last_workflow", e.state.LastProcessedWorkflowID),
	)
	metrics.UpdatePlayersTracked(len(e.state.Players))
	return nil
}

// Stop halts pollers and commentary workers and waits for them.
func (e *Engine) Stop() {
	e.mu.Lock()
	if !e.started {
		e.mu.Unlock()
		return
	}
	e.started = false
	cancel := e.cancel
	e.mu.Unlock()

	cancel()
	e.wg.Wait()
	if e.pool != nil {
		e.pool.Stop()
	}
	_ = e.queue.Close()
	e.logger.Info(context.Background(), "engine stopped")
}

// startPoller runs fn immediately and then on every tick until shutdown.
func (e *Engine) startPoller(ctx context.Context, name string, interval time.Duration, fn func(ctx context.Context)) {
	e.wg.Add(1)
	go func() {
		defer e.wg.Done()
		e.runPoll(ctx, name, fn)
		ticker := time.NewTicker(interval)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				e.runPoll(ctx, name, fn)
			}
		}
	}()
}

func (e *Engine) runPoll(ctx context.Context, name string, fn func(ctx context.Context)) {
	start := e.now()
	fn(ctx)
	metrics.RecordPollCycle(name, float64(time.Since(start).Milliseconds()))
}

// saveLocked persists the full state. Callers hold e.mu. A failed write is
// logged and absorbed; the next mutation retries the whole snapshot.
func (e *Engine) saveLocked(ctx context.Context) {
	if e.store == nil {
		return
	}
	if err := e.store.Save(ctx, e.state); err != nil {
		e.logger.Warn(ctx, "state snapshot write failed", logger.Error(err))
	}
}

// AppendCommentary is the re-entry point for the detached commentary
// workers: the append goes through the same single-writer path as every
// other state mutation.
func (e *Engine) AppendCommentary(ctx context.Context, c model.GameCommentary) {
	e.mu.Lock()
	e.state.Commentary = append(e.state.Commentary, c)
	if e.commentaryLimit > 0 && len(e.state.Commentary) > e.commentaryLimit {
		e.state.Commentary = e.state.Commentary[len(e.state.Commentary)-e.commentaryLimit:]
	}
	e.saveLocked(ctx)
	e.mu.Unlock()

	if e.broadcaster != nil {
		e.broadcaster.BroadcastCommentary(c)
	}
}

// RequestRoast queues a manual commentary request. Rate-limited: once
// issued, further requests are rejected until the cooldown elapses.
func (e *Engine) RequestRoast(ctx context.Context, targetUser string) error {
	e.mu.Lock()
	now := e.now()
	if !e.lastRoast.IsZero() && now.Sub(e.lastRoast) < e.roastCooldown {
		e.mu.Unlock()
		return ErrRoastCooldown
	}
	e.lastRoast = now
	prompt := e.roastContextLocked(targetUser)
	e.mu.Unlock()

	e.enqueueCommentary(ctx, model.CommentaryRequest{
		Trigger:     model.TriggerManualRoast,
		Context:     prompt,
		TargetUser:  targetUser,
		RequestedAt: now,
	})
	return nil
}

// enqueueCommentary hands a request to the detached pipeline. Best-effort:
// a full queue or missing narrator drops the request.
func (e *Engine) enqueueCommentary(ctx context.Context, r model.CommentaryRequest) {
	if e.narrator == nil || e.queue == nil {
		return
	}
	if !e.queue.Enqueue(ctx, r) {
		e.logger.Debug(ctx, "commentary request dropped",
			logger.String("trigger", string(r.Trigger)))
	}
}

// Standings computes the current ranking snapshot.
func (e *Engine) Standings(_ context.Context) leaderboard.Standings {
	e.mu.Lock()
	defer e.mu.Unlock()
	return leaderboard.Compute(e.state.Players, e.now())
}

// Player returns a copy of one player's aggregates.
func (e *Engine) Player(_ context.Context, id string) (model.PlayerScore, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	p, ok := e.state.Players[id]
	if !ok {
		return model.PlayerScore{}, ErrPlayerNotFound
	}
	return p.Clone(), nil
}

// RecentEvents returns up to n score events, newest first.
func (e *Engine) RecentEvents(_ context.Context, n int) []model.ScoreEvent {
	e.mu.Lock()
	defer e.mu.Unlock()
	return newestFirst(e.state.Events, n)
}

// RecentCommentary returns up to n commentary entries, newest first.
func (e *Engine) RecentCommentary(_ context.Context, n int) []model.GameCommentary {
	e.mu.Lock()
	defer e.mu.Unlock()
	return newestFirst(e.state.Commentary, n)
}

// GetStats returns operational counters for the stats endpoint.
func (e *Engine) GetStats() map[string]interface{} {
	e.mu.Lock()
	defer e.mu.Unlock()

	stats := map[string]interface{}{
		"started":          e.started,
		"players":          len(e.state.Players),
		"events":           len(e.state.Events),
		"commentary":       len(e.state.Commentary),
		"lastCommitID":     e.state.LastProcessedCommitID,
		"lastWorkflowID":   e.state.LastProcessedWorkflowID,
		"lastPullID":       e.state.LastProcessedPullID,
		"dailyResetDate":   e.state.DailyResetDate,
		"weeklyResetDate":  e.state.WeeklyResetDate,
	}
	if e.started {
		stats["uptimeSeconds"] = int(e.now().Sub(e.startedAt).Seconds())
	}
	if e.queue != nil {
		stats["commentaryQueue"] = e.queue.Len(context.Background())
	}
	return stats
}

// newestFirst copies the tail of history reversed into newest-first order.
func newestFirst[T any](history []T, n int) []T {
	if n <= 0 || n > len(history) {
		n = len(history)
	}
	out := make([]T, 0, n)
	for i := len(history) - 1; i >= len(history)-n; i-- {
		out = append(out, history[i])
	}
	return out
}
