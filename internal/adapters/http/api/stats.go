package api

import (
	"net/http"
)

// StatsHandler serves operational counters.
type StatsHandler struct {
	provider StatsProvider
}

// NewStatsHandler creates a stats handler.
func NewStatsHandler(provider StatsProvider) *StatsHandler {
	return &StatsHandler{provider: provider}
}

// HandleStats returns the engine's operational counters.
func (h *StatsHandler) HandleStats(w http.ResponseWriter, r *http.Request) {
	if h.provider == nil {
		writeJSON(w, http.StatusOK, map[string]interface{}{})
		return
	}
	writeJSON(w, http.StatusOK, h.provider.GetStats())
}
