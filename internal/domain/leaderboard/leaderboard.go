// Package leaderboard derives rankings and flip signals from the ledger.
// Everything here is pure; the engine feeds it snapshots after mutations.
package leaderboard

import (
	"fmt"
	"sort"
	"time"

	"github.com/devderby/devderby/internal/domain/ledger"
	"github.com/devderby/devderby/internal/domain/model"
)

// DefaultFlipThreshold is the margin under which a race counts as a flip.
const DefaultFlipThreshold = 50

// Entry is one ranked leaderboard row.
type Entry struct {
	Rank        int         `json:"rank"`
	PlayerID    string      `json:"player_id"`
	DisplayName string      `json:"display_name"`
	TotalScore  int         `json:"total_score"`
	DailyScore  int         `json:"daily_score"`
	WeeklyScore int         `json:"weekly_score"`
	Streak      int         `json:"streak"`
	Title       model.Title `json:"title"`
}

// Standings is a computed ranking snapshot.
type Standings struct {
	Entries  []Entry `json:"entries"`
	Leader   *Entry  `json:"leader,omitempty"`
	RunnerUp *Entry  `json:"runner_up,omitempty"`
	ScoreGap int     `json:"score_gap"`
}

// Compute ranks players by total score, descending, ties broken by player id
// so the ordering stays deterministic.
func Compute(players map[string]*model.PlayerScore, now time.Time) Standings {
	entries := make([]Entry, 0, len(players))
	for _, p := range players {
		entries = append(entries, Entry{
			PlayerID:    p.ID,
			DisplayName: p.DisplayName,
			TotalScore:  p.TotalScore,
			DailyScore:  p.DailyScore,
			WeeklyScore: p.WeeklyScore,
			Streak:      p.Streak,
			Title:       ledger.PrimaryTitle(p, now),
		})
	}
	sort.Slice(entries, func(i, j int) bool {
		if entries[i].TotalScore != entries[j].TotalScore {
			return entries[i].TotalScore > entries[j].TotalScore
		}
		return entries[i].PlayerID < entries[j].PlayerID
	})
	for i := range entries {
		entries[i].Rank = i + 1
	}

	s := Standings{Entries: entries}
	if len(entries) > 0 {
		s.Leader = &entries[0]
	}
	if len(entries) > 1 {
		s.RunnerUp = &entries[1]
		s.ScoreGap = s.Leader.TotalScore - s.RunnerUp.TotalScore
	}
	return s
}

// Flip describes a detected (or heuristically approximated) change at the
// top of the board.
type Flip struct {
	LeaderID      string
	RunnerUpID    string
	Margin        int
	LeaderChanged bool
	Context       string
}

// CheckFlip fires when the leader's margin over second place is positive but
// under the threshold. This deliberately over-fires on persistently close
// races; LeaderChanged distinguishes a genuine change of first place from a
// tight race, based on the last leader id the caller persisted.
func CheckFlip(s Standings, lastLeaderID string, threshold int) *Flip {
	if s.Leader == nil || s.RunnerUp == nil {
		return nil
	}
	if s.ScoreGap <= 0 || s.ScoreGap >= threshold {
		return nil
	}
	f := &Flip{
		LeaderID:      s.Leader.PlayerID,
		RunnerUpID:    s.RunnerUp.PlayerID,
		Margin:        s.ScoreGap,
		LeaderChanged: lastLeaderID != "" && lastLeaderID != s.Leader.PlayerID,
	}
	if f.LeaderChanged {
		f.Context = fmt.Sprintf("%s just took the lead from %s by %d points",
			s.Leader.DisplayName, s.RunnerUp.DisplayName, f.Margin)
	} else {
		f.Context = fmt.Sprintf("%s leads %s by only %d points",
			s.Leader.DisplayName, s.RunnerUp.DisplayName, f.Margin)
	}
	return f
}
