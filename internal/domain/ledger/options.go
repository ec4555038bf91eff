package ledger

import "time"

// Option applies a configuration option to the Applier.
type Option func(*Applier)

// WithStreakWindow sets the maximum gap between events that extends a streak.
func WithStreakWindow(window time.Duration) Option {
	return func(a *Applier) {
		if window > 0 {
			a.streakWindow = window
		}
	}
}

// WithEventHistoryLimit bounds the retained score event history. Zero or
// negative keeps history unbounded.
func WithEventHistoryLimit(limit int) Option {
	return func(a *Applier) {
		a.eventHistoryLimit = limit
	}
}

// WithShameThreshold sets the absolute point loss on a single event that
// earns a shame title.
func WithShameThreshold(points int) Option {
	return func(a *Applier) {
		if points > 0 {
			a.shameThreshold = points
		}
	}
}

// WithAchievementStreak sets the streak length that earns the streak
// achievement title.
func WithAchievementStreak(days int) Option {
	return func(a *Applier) {
		if days > 0 {
			a.achievementStreak = days
		}
	}
}
