package api

import (
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/devderby/devderby/internal/engine"
)

// PlayerHandler serves single-player detail.
type PlayerHandler struct {
	deps Dependencies
}

// NewPlayerHandler creates a player handler.
func NewPlayerHandler(deps Dependencies) *PlayerHandler {
	return &PlayerHandler{deps: deps}
}

// HandleGetPlayer returns one player's full score record.
func (h *PlayerHandler) HandleGetPlayer(w http.ResponseWriter, r *http.Request) {
	playerID := chi.URLParam(r, "playerID")
	if playerID == "" {
		writeError(w, http.StatusBadRequest, "missing_player_id", NewKind("get player", ErrBadRequest))
		return
	}

	player, err := h.deps.Player(r.Context(), playerID)
	if err != nil {
		if errors.Is(err, engine.ErrPlayerNotFound) {
			writeError(w, http.StatusNotFound, "player_not_found", err)
			return
		}
		writeError(w, http.StatusInternalServerError, "internal", err)
		return
	}

	writeJSON(w, http.StatusOK, player)
}
