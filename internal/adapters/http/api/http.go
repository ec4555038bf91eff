// Package api declares HTTP contracts and route registration for the
// read-only render surface plus the single roast action.
package api

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/devderby/devderby/internal/domain/leaderboard"
	"github.com/devderby/devderby/internal/domain/model"
	"github.com/devderby/devderby/pkg/metrics"
)

// Dependencies bundles the engine queries the handlers need. An interface
// keeps the handler layer loosely coupled to the engine implementation.
type Dependencies interface {
	Standings(ctx context.Context) leaderboard.Standings
	Player(ctx context.Context, id string) (model.PlayerScore, error)
	RecentEvents(ctx context.Context, n int) []model.ScoreEvent
	RecentCommentary(ctx context.Context, n int) []model.GameCommentary
	RequestRoast(ctx context.Context, targetUser string) error
}

// StatsProvider exposes operational counters.
type StatsProvider interface {
	GetStats() map[string]interface{}
}

// Server wires HTTP routes for the engine API.
type Server struct {
	leaderboardHandler *LeaderboardHandler
	playerHandler      *PlayerHandler
	eventsHandler      *EventsHandler
	commentaryHandler  *CommentaryHandler
	roastHandler       *RoastHandler
	statsHandler       *StatsHandler
	healthHandler      *HealthHandler
}

// NewServer creates an API server with all handlers.
func NewServer(deps Dependencies, stats StatsProvider, maxLimit int) *Server {
	return &Server{
		leaderboardHandler: NewLeaderboardHandler(deps, maxLimit),
		playerHandler:      NewPlayerHandler(deps),
		eventsHandler:      NewEventsHandler(deps, maxLimit),
		commentaryHandler:  NewCommentaryHandler(deps, maxLimit),
		roastHandler:       NewRoastHandler(deps),
		statsHandler:       NewStatsHandler(stats),
		healthHandler:      NewHealthHandler(),
	}
}

// Router builds the chi router with the standard middleware stack. The
// caller may mount extra routes (websocket endpoint) before serving.
func (s *Server) Router() chi.Router {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	r.Use(MetricsMiddleware)

	r.Get("/healthz", s.healthHandler.HandleHealth)
	r.Get("/stats", s.statsHandler.HandleStats)
	r.Handle("/metrics", promhttp.HandlerFor(metrics.GetRegistry(), promhttp.HandlerOpts{}))

	r.Route("/api/v1", func(r chi.Router) {
		r.Get("/leaderboard", s.leaderboardHandler.HandleGetLeaderboard)
		r.Get("/players/{playerID}", s.playerHandler.HandleGetPlayer)
		r.Get("/events", s.eventsHandler.HandleGetEvents)
		r.Get("/commentary", s.commentaryHandler.HandleGetCommentary)
		r.Post("/roast", s.roastHandler.HandlePostRoast)
	})

	return r
}

type errorResponse struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, code string, err error) {
	msg := http.StatusText(status)
	if err != nil {
		msg = err.Error()
	}
	writeJSON(w, status, errorResponse{Code: code, Message: msg})
}

// NewKind tags a sentinel error with the operation that raised it.
func NewKind(op string, kind error) error {
	return fmt.Errorf("%s: %w", op, kind)
}

// WrapKind tags a sentinel error with the operation and the underlying cause.
func WrapKind(op string, kind, err error) error {
	return fmt.Errorf("%s: %w: %w", op, kind, err)
}
