// Package model contains the domain types shared between layers and the
// shape of the persisted engine state.
package model

import "time"

// EventType classifies a score event.
type EventType string

// Score event types.
const (
	EventTypeCommit       EventType = "commit"
	EventTypeTestedCommit EventType = "tested_commit"
	EventTypePRMerged     EventType = "pr_merged"
	EventTypePRReview     EventType = "pr_review"
	EventTypeIssueClosed  EventType = "issue_closed"
	EventTypeCIPassed     EventType = "ci_passed"
	EventTypeCIFailed     EventType = "ci_failed"
	EventTypePenalty      EventType = "penalty"
	EventTypeAchievement  EventType = "achievement"
)

// Trigger identifies what caused a commentary request.
type Trigger string

// Commentary triggers.
const (
	TriggerCIFailed    Trigger = "ci_failed"
	TriggerScoreChange Trigger = "score_change"
	TriggerLeaderFlip  Trigger = "leader_flip"
	TriggerAchievement Trigger = "achievement"
	TriggerShameTitle  Trigger = "shame_title"
	TriggerWeeklyRecap Trigger = "weekly_recap"
	TriggerManualRoast Trigger = "manual_roast"
)

// TitleType distinguishes how a title was earned.
type TitleType string

// Title types.
const (
	TitleTypeRank        TitleType = "rank"
	TitleTypeAchievement TitleType = "achievement"
	TitleTypeShame       TitleType = "shame"
)

// Title is a named badge carried by a player. Shame titles expire; rank
// titles are derived from the score bands and never stored.
type Title struct {
	Name      string     `json:"name"`
	Icon      string     `json:"icon"`
	Type      TitleType  `json:"type"`
	EarnedAt  *time.Time `json:"earned_at,omitempty"`
	ExpiresAt *time.Time `json:"expires_at,omitempty"`
}

// Active reports whether the title still applies at the given instant.
func (t Title) Active(now time.Time) bool {
	return t.ExpiresAt == nil || now.Before(*t.ExpiresAt)
}

// PlayerScore is the per-player aggregate, keyed by a stable handle.
// TotalScore always equals the sum of applied score event points.
type PlayerScore struct {
	ID           string     `json:"id"`
	DisplayName  string     `json:"display_name"`
	TotalScore   int        `json:"total_score"`
	DailyScore   int        `json:"daily_score"`
	WeeklyScore  int        `json:"weekly_score"`
	Streak       int        `json:"streak"`
	Penalties    int        `json:"penalties"`
	LastActivity *time.Time `json:"last_activity,omitempty"`
	Titles       []Title    `json:"titles,omitempty"`
}

// Clone returns a deep copy safe to hand to readers.
func (p *PlayerScore) Clone() PlayerScore {
	out := *p
	if p.LastActivity != nil {
		ts := *p.LastActivity
		out.LastActivity = &ts
	}
	if len(p.Titles) > 0 {
		out.Titles = make([]Title, len(p.Titles))
		copy(out.Titles, p.Titles)
	}
	return out
}

// ScoreEvent is an immutable record of one scoring decision.
type ScoreEvent struct {
	ID          string    `json:"id"`
	PlayerID    string    `json:"player_id"`
	Timestamp   time.Time `json:"timestamp"`
	EventType   EventType `json:"event_type"`
	Points      int       `json:"points"`
	Description string    `json:"description"`
	RelatedURL  string    `json:"related_url,omitempty"`
}

// GameCommentary is a generated narrative entry tied to a trigger.
type GameCommentary struct {
	ID         string    `json:"id"`
	Timestamp  time.Time `json:"timestamp"`
	Trigger    Trigger   `json:"trigger"`
	Content    string    `json:"content"`
	TargetUser string    `json:"target_user,omitempty"`
}

// CommentaryRequest is the unit of work flowing through the commentary
// queue: trigger kind plus the assembled context for the narrator.
type CommentaryRequest struct {
	Trigger     Trigger   `json:"trigger"`
	Context     string    `json:"context"`
	TargetUser  string    `json:"target_user,omitempty"`
	RequestedAt time.Time `json:"requested_at"`
}

// EngineState is the full persisted snapshot, owned by a single engine
// process and written through after every mutation.
type EngineState struct {
	Players                 map[string]*PlayerScore `json:"players"`
	Events                  []ScoreEvent            `json:"events"`
	Commentary              []GameCommentary        `json:"commentary"`
	LastProcessedCommitID   string                  `json:"last_processed_commit_id"`
	LastProcessedWorkflowID int64                   `json:"last_processed_workflow_id"`
	LastProcessedPullID     int64                   `json:"last_processed_pull_id"`
	LastLeaderID            string                  `json:"last_leader_id,omitempty"`
	DailyResetDate          time.Time               `json:"daily_reset_date"`
	WeeklyResetDate         time.Time               `json:"weekly_reset_date"`
}

// NewEngineState returns an empty state ready for use.
func NewEngineState() *EngineState {
	return &EngineState{
		Players: make(map[string]*PlayerScore),
	}
}

// Player returns the score row for id, creating it with zero values on first
// reference. Players are never deleted.
func (s *EngineState) Player(id, displayName string) *PlayerScore {
	if s.Players == nil {
		s.Players = make(map[string]*PlayerScore)
	}
	p, ok := s.Players[id]
	if !ok {
		p = &PlayerScore{ID: id, DisplayName: displayName}
		if displayName == "" {
			p.DisplayName = id
		}
		s.Players[id] = p
	}
	return p
}
