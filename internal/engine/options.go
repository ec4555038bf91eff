package engine

import (
	"time"

	"github.com/devderby/devderby/internal/adapters/forge"
	"github.com/devderby/devderby/internal/adapters/narrator"
	"github.com/devderby/devderby/internal/adapters/statestore"
	"github.com/devderby/devderby/internal/domain/ledger"
	"github.com/devderby/devderby/internal/domain/scoring"
	"github.com/devderby/devderby/pkg/logger"
)

// Option applies a configuration option to the Engine.
type Option func(*Engine)

// WithCalculator sets the score calculator.
func WithCalculator(c *scoring.Calculator) Option {
	return func(e *Engine) {
		if c != nil {
			e.calc = c
		}
	}
}

// WithApplier sets the ledger applier.
func WithApplier(a *ledger.Applier) Option {
	return func(e *Engine) {
		if a != nil {
			e.applier = a
		}
	}
}

// WithStore sets the state store. Without one the engine runs in-memory.
func WithStore(s statestore.Store) Option {
	return func(e *Engine) {
		e.store = s
	}
}

// WithSource sets the event source. Without one no polling starts.
func WithSource(s forge.Source) Option {
	return func(e *Engine) {
		e.source = s
	}
}

// WithNarrator sets the narrative collaborator. Without one commentary is
// disabled entirely.
func WithNarrator(n narrator.Narrator) Option {
	return func(e *Engine) {
		e.narrator = n
	}
}

// WithBroadcaster sets the live-update fan-out.
func WithBroadcaster(b Broadcaster) Option {
	return func(e *Engine) {
		e.broadcaster = b
	}
}

// WithFlipThreshold sets the margin under which a leader flip fires.
func WithFlipThreshold(points int) Option {
	return func(e *Engine) {
		if points > 0 {
			e.flipThreshold = points
		}
	}
}

// WithRoastCooldown sets the manual roast rate limit window.
func WithRoastCooldown(d time.Duration) Option {
	return func(e *Engine) {
		if d > 0 {
			e.roastCooldown = d
		}
	}
}

// WithCommentaryLimit bounds the retained commentary history.
func WithCommentaryLimit(n int) Option {
	return func(e *Engine) {
		if n > 0 {
			e.commentaryLimit = n
		}
	}
}

// WithPollIntervals sets the per-class poll intervals.
func WithPollIntervals(commits, workflows, pulls time.Duration) Option {
	return func(e *Engine) {
		if commits > 0 {
			e.commitInterval = commits
		}
		if workflows > 0 {
			e.workflowInterval = workflows
		}
		if pulls > 0 {
			e.pullInterval = pulls
		}
	}
}

// WithSeenCacheSize bounds the seen-id tracker.
func WithSeenCacheSize(n int) Option {
	return func(e *Engine) {
		if n > 0 {
			e.seenCacheSize = n
		}
	}
}

// WithCommentaryQueueSize bounds the pending commentary queue.
func WithCommentaryQueueSize(n int) Option {
	return func(e *Engine) {
		if n > 0 {
			e.commentaryQueueSize = n
		}
	}
}

// WithCommentaryWorkers sets the narrator worker count.
func WithCommentaryWorkers(n int) Option {
	return func(e *Engine) {
		if n > 0 {
			e.commentaryWorkers = n
		}
	}
}

// WithClock overrides the engine clock. Tests only.
func WithClock(now func() time.Time) Option {
	return func(e *Engine) {
		if now != nil {
			e.now = now
		}
	}
}

// WithLogger sets a custom logger.
func WithLogger(l logger.Logger) Option {
	return func(e *Engine) {
		if l != nil {
			e.logger = l
		}
	}
}
