package api

import (
	"net/http"

	"github.com/devderby/devderby/internal/domain/model"
)

// EventsHandler serves the recent scored event feed.
type EventsHandler struct {
	deps     Dependencies
	maxLimit int
}

// NewEventsHandler creates an events handler.
func NewEventsHandler(deps Dependencies, maxLimit int) *EventsHandler {
	return &EventsHandler{deps: deps, maxLimit: maxLimit}
}

type eventsResponse struct {
	Events []model.ScoreEvent `json:"events"`
}

// HandleGetEvents returns recent score events, newest first.
func (h *EventsHandler) HandleGetEvents(w http.ResponseWriter, r *http.Request) {
	limit, err := parseLimit(r.URL.Query().Get("limit"), h.maxLimit)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid_limit", err)
		return
	}

	events := h.deps.RecentEvents(r.Context(), limit)
	if events == nil {
		events = []model.ScoreEvent{}
	}
	writeJSON(w, http.StatusOK, eventsResponse{Events: events})
}
