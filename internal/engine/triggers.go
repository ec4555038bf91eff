package engine

import (
	"fmt"
	"sort"
	"strings"

	"github.com/devderby/devderby/internal/domain/ledger"
	"github.com/devderby/devderby/internal/domain/model"
)

// scoreChangeThreshold is the absolute point swing on a single event that
// warrants commentary on its own.
const scoreChangeThreshold = 100

// eventTriggersLocked decides which commentary requests one applied event
// produces. Callers hold e.mu.
func (e *Engine) eventTriggersLocked(ev model.ScoreEvent, result ledger.ApplyResult) []model.CommentaryRequest {
	var requests []model.CommentaryRequest
	now := e.now()

	switch {
	case ev.EventType == model.EventTypeCIFailed:
		requests = append(requests, model.CommentaryRequest{
			Trigger:     model.TriggerCIFailed,
			Context:     fmt.Sprintf("The build just broke: %s", ev.Description),
			TargetUser:  ev.PlayerID,
			RequestedAt: now,
		})
	case abs(ev.Points) >= scoreChangeThreshold:
		requests = append(requests, model.CommentaryRequest{
			Trigger: model.TriggerScoreChange,
			Context: fmt.Sprintf("%s. Player now: %s",
				ev.Description, e.playerContextLocked(ev.PlayerID)),
			TargetUser:  ev.PlayerID,
			RequestedAt: now,
		})
	}

	for _, t := range result.AwardedTitles {
		switch t.Type {
		case model.TitleTypeShame:
			requests = append(requests, model.CommentaryRequest{
				Trigger: model.TriggerShameTitle,
				Context: fmt.Sprintf("%s earned the shame title %q %s after: %s",
					result.Player.DisplayName, t.Name, t.Icon, ev.Description),
				TargetUser:  ev.PlayerID,
				RequestedAt: now,
			})
		case model.TitleTypeAchievement:
			requests = append(requests, model.CommentaryRequest{
				Trigger: model.TriggerAchievement,
				Context: fmt.Sprintf("%s unlocked %q %s with a %d-day streak",
					result.Player.DisplayName, t.Name, t.Icon, result.Player.Streak),
				TargetUser:  ev.PlayerID,
				RequestedAt: now,
			})
		}
	}

	return requests
}

// playerContextLocked summarizes one player for the narrator. Callers hold e.mu.
func (e *Engine) playerContextLocked(id string) string {
	p, ok := e.state.Players[id]
	if !ok {
		return id
	}
	title := ledger.PrimaryTitle(p, e.now())
	return fmt.Sprintf("%s: total %d, today %+d, streak %d, penalties %d, title %s %s",
		p.DisplayName, p.TotalScore, p.DailyScore, p.Streak, p.Penalties, title.Icon, title.Name)
}

// roastContextLocked assembles the context for a manual roast. Callers hold e.mu.
func (e *Engine) roastContextLocked(targetUser string) string {
	if targetUser != "" {
		return fmt.Sprintf("Roast requested on %s. %s",
			targetUser, e.playerContextLocked(targetUser))
	}

	var lines []string
	for id := range e.state.Players {
		lines = append(lines, e.playerContextLocked(id))
	}
	sort.Strings(lines)
	if len(lines) == 0 {
		return "Roast requested but the board is still empty. Mock the silence."
	}
	return "Roast requested on the whole board:\n" + strings.Join(lines, "\n")
}

// weeklyRecapContextLocked summarizes the week that just ended. Callers hold e.mu.
func (e *Engine) weeklyRecapContextLocked(weeklyScores map[string]int) string {
	type row struct {
		name  string
		score int
	}
	rows := make([]row, 0, len(weeklyScores))
	for id, score := range weeklyScores {
		name := id
		if p, ok := e.state.Players[id]; ok {
			name = p.DisplayName
		}
		rows = append(rows, row{name: name, score: score})
	}
	sort.Slice(rows, func(i, j int) bool {
		if rows[i].score != rows[j].score {
			return rows[i].score > rows[j].score
		}
		return rows[i].name < rows[j].name
	})

	var b strings.Builder
	b.WriteString("The week is over. Final weekly scores:")
	for _, r := range rows {
		fmt.Fprintf(&b, " %s %+d;", r.name, r.score)
	}
	return b.String()
}

func abs(n int) int {
	if n < 0 {
		return -n
	}
	return n
}
