package api

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/devderby/devderby/internal/engine"
)

// RoastHandler accepts manual roast requests.
type RoastHandler struct {
	deps Dependencies
}

// NewRoastHandler creates a roast handler.
func NewRoastHandler(deps Dependencies) *RoastHandler {
	return &RoastHandler{deps: deps}
}

type roastRequest struct {
	TargetUser string `json:"target_user"`
}

type roastResponse struct {
	Status string `json:"status"`
}

// HandlePostRoast queues a roast. The commentary itself arrives later on
// the feed; this endpoint only acknowledges the request.
func (h *RoastHandler) HandlePostRoast(w http.ResponseWriter, r *http.Request) {
	var req roastRequest
	if r.Body != nil && r.ContentLength != 0 {
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeError(w, http.StatusBadRequest, "invalid_body", WrapKind("post roast", ErrBadRequest, err))
			return
		}
	}

	if err := h.deps.RequestRoast(r.Context(), req.TargetUser); err != nil {
		if errors.Is(err, engine.ErrRoastCooldown) {
			writeError(w, http.StatusTooManyRequests, "roast_cooldown", err)
			return
		}
		writeError(w, http.StatusInternalServerError, "internal", err)
		return
	}

	writeJSON(w, http.StatusAccepted, roastResponse{Status: "queued"})
}
