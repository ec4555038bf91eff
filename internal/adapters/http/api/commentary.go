package api

import (
	"net/http"

	"github.com/devderby/devderby/internal/domain/model"
)

// CommentaryHandler serves the commentary feed.
type CommentaryHandler struct {
	deps     Dependencies
	maxLimit int
}

// NewCommentaryHandler creates a commentary handler.
func NewCommentaryHandler(deps Dependencies, maxLimit int) *CommentaryHandler {
	return &CommentaryHandler{deps: deps, maxLimit: maxLimit}
}

type commentaryResponse struct {
	Commentary []model.GameCommentary `json:"commentary"`
}

// HandleGetCommentary returns recent commentary, newest first.
func (h *CommentaryHandler) HandleGetCommentary(w http.ResponseWriter, r *http.Request) {
	limit, err := parseLimit(r.URL.Query().Get("limit"), h.maxLimit)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid_limit", err)
		return
	}

	commentary := h.deps.RecentCommentary(r.Context(), limit)
	if commentary == nil {
		commentary = []model.GameCommentary{}
	}
	writeJSON(w, http.StatusOK, commentaryResponse{Commentary: commentary})
}
