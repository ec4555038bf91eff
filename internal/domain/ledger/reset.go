package ledger

import (
	"time"

	"github.com/devderby/devderby/internal/domain/model"
)

// ResetResult reports which boundaries were crossed. WeeklyScores holds the
// pre-reset weekly totals so the caller can build a recap.
type ResetResult struct {
	DailyApplied  bool
	WeeklyApplied bool
	WeeklyScores  map[string]int
}

// ApplyResets zeroes daily and weekly scores when the local calendar day or
// ISO week has moved past the stored reset dates, and advances the dates.
// Idempotent; safe to run at the start of every poll cycle, and it must run
// before new events are applied so today's events count post-reset.
func ApplyResets(state *model.EngineState, now time.Time) ResetResult {
	var result ResetResult

	if !sameDay(state.DailyResetDate, now) {
		if !state.DailyResetDate.IsZero() {
			for _, p := range state.Players {
				p.DailyScore = 0
			}
			result.DailyApplied = true
		}
		state.DailyResetDate = now
	}

	if !sameISOWeek(state.WeeklyResetDate, now) {
		if !state.WeeklyResetDate.IsZero() {
			result.WeeklyScores = make(map[string]int, len(state.Players))
			for id, p := range state.Players {
				result.WeeklyScores[id] = p.WeeklyScore
				p.WeeklyScore = 0
			}
			result.WeeklyApplied = true
		}
		state.WeeklyResetDate = now
	}

	return result
}

func sameDay(a, b time.Time) bool {
	ay, am, ad := a.Date()
	by, bm, bd := b.Date()
	return ay == by && am == bm && ad == bd
}

func sameISOWeek(a, b time.Time) bool {
	ay, aw := a.ISOWeek()
	by, bw := b.ISOWeek()
	return ay == by && aw == bw
}
