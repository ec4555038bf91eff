// Package ledger maintains the authoritative per-player aggregates. All
// mutation goes through Applier.Apply; callers hold the engine's single
// writer lock.
package ledger

import (
	"time"

	"github.com/devderby/devderby/internal/domain/model"
)

// Default applier configuration.
const (
	defaultStreakWindow      = 24 * time.Hour
	defaultEventHistoryLimit = 200
	defaultShameThreshold    = 70
	defaultAchievementStreak = 7
	shameTitleTTL            = 24 * time.Hour
)

// Supplementary titles awarded by the ledger.
var (
	shameTitleCodeDumper = model.Title{
		Name: "Code Dumper",
		Icon: "🗑️",
		Type: model.TitleTypeShame,
	}
	achievementStreakMachine = model.Title{
		Name: "Streak Machine",
		Icon: "🔥",
		Type: model.TitleTypeAchievement,
	}
)

// ApplyResult reports the side effects of one apply so the caller can fire
// commentary triggers.
type ApplyResult struct {
	PlayerCreated bool
	Player        *model.PlayerScore
	AwardedTitles []model.Title
}

// Applier applies score events to the engine state.
type Applier struct {
	streakWindow      time.Duration
	eventHistoryLimit int
	shameThreshold    int
	achievementStreak int
}

// NewApplier creates an applier with default rules.
func NewApplier(opts ...Option) *Applier {
	a := &Applier{
		streakWindow:      defaultStreakWindow,
		eventHistoryLimit: defaultEventHistoryLimit,
		shameThreshold:    defaultShameThreshold,
		achievementStreak: defaultAchievementStreak,
	}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

// Apply folds one score event into the ledger: totals, penalties, streak,
// activity timestamp, bounded event history, and any earned titles.
func (a *Applier) Apply(state *model.EngineState, event model.ScoreEvent, now time.Time) ApplyResult {
	_, existed := state.Players[event.PlayerID]
	p := state.Player(event.PlayerID, event.PlayerID)

	p.TotalScore += event.Points
	p.DailyScore += event.Points
	p.WeeklyScore += event.Points
	if event.Points < 0 {
		p.Penalties += -event.Points
	}

	// Streak: activity within the window extends it, anything else starts a
	// fresh one-day streak. An active event never leaves streak at zero.
	if p.LastActivity != nil && event.Timestamp.Sub(*p.LastActivity) <= a.streakWindow {
		p.Streak++
	} else {
		p.Streak = 1
	}
	ts := event.Timestamp
	p.LastActivity = &ts

	result := ApplyResult{PlayerCreated: !existed, Player: p}
	result.AwardedTitles = a.awardTitles(p, event, now)

	state.Events = append(state.Events, event)
	if a.eventHistoryLimit > 0 && len(state.Events) > a.eventHistoryLimit {
		state.Events = state.Events[len(state.Events)-a.eventHistoryLimit:]
	}

	return result
}

// awardTitles grants shame and achievement titles earned by this event.
func (a *Applier) awardTitles(p *model.PlayerScore, event model.ScoreEvent, now time.Time) []model.Title {
	var awarded []model.Title

	if event.Points <= -a.shameThreshold {
		t := shameTitleCodeDumper
		earned := now
		expires := now.Add(shameTitleTTL)
		t.EarnedAt = &earned
		t.ExpiresAt = &expires
		upsertTitle(p, t)
		awarded = append(awarded, t)
	}

	if p.Streak == a.achievementStreak && !hasTitle(p, achievementStreakMachine.Name) {
		t := achievementStreakMachine
		earned := now
		t.EarnedAt = &earned
		p.Titles = append(p.Titles, t)
		awarded = append(awarded, t)
	}

	return awarded
}

// upsertTitle refreshes an existing title of the same name or appends it.
func upsertTitle(p *model.PlayerScore, t model.Title) {
	for i := range p.Titles {
		if p.Titles[i].Name == t.Name {
			p.Titles[i] = t
			return
		}
	}
	p.Titles = append(p.Titles, t)
}

func hasTitle(p *model.PlayerScore, name string) bool {
	for _, t := range p.Titles {
		if t.Name == name {
			return true
		}
	}
	return false
}
