package api

import (
	"net/http"
	"strconv"

	"github.com/devderby/devderby/internal/domain/leaderboard"
)

// LeaderboardHandler serves the ranked standings.
type LeaderboardHandler struct {
	deps     Dependencies
	maxLimit int
}

// NewLeaderboardHandler creates a leaderboard handler.
func NewLeaderboardHandler(deps Dependencies, maxLimit int) *LeaderboardHandler {
	return &LeaderboardHandler{deps: deps, maxLimit: maxLimit}
}

type leaderboardResponse struct {
	Entries  []leaderboard.Entry `json:"entries"`
	ScoreGap int                 `json:"score_gap"`
	Total    int                 `json:"total"`
}

// HandleGetLeaderboard returns the standings, optionally truncated by ?limit.
func (h *LeaderboardHandler) HandleGetLeaderboard(w http.ResponseWriter, r *http.Request) {
	limit, err := parseLimit(r.URL.Query().Get("limit"), h.maxLimit)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid_limit", err)
		return
	}

	standings := h.deps.Standings(r.Context())
	entries := standings.Entries
	if limit < len(entries) {
		entries = entries[:limit]
	}
	if entries == nil {
		entries = []leaderboard.Entry{}
	}

	writeJSON(w, http.StatusOK, leaderboardResponse{
		Entries:  entries,
		ScoreGap: standings.ScoreGap,
		Total:    len(standings.Entries),
	})
}

// parseLimit interprets the optional limit query parameter. Absent or empty
// means the configured maximum.
func parseLimit(raw string, maxLimit int) (int, error) {
	if raw == "" {
		return maxLimit, nil
	}
	n, err := strconv.Atoi(raw)
	if err != nil || n <= 0 {
		return 0, NewKind("parse limit", ErrBadRequest)
	}
	if n > maxLimit {
		n = maxLimit
	}
	return n, nil
}
