package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/devderby/devderby/internal/adapters/forge"
	"github.com/devderby/devderby/internal/adapters/http/api"
	"github.com/devderby/devderby/internal/adapters/narrator"
	"github.com/devderby/devderby/internal/adapters/statestore"
	"github.com/devderby/devderby/internal/adapters/ws"
	"github.com/devderby/devderby/internal/config"
	"github.com/devderby/devderby/internal/domain/ledger"
	"github.com/devderby/devderby/internal/domain/scoring"
	"github.com/devderby/devderby/internal/engine"
	"github.com/devderby/devderby/pkg/logger"
)

// HTTP server timeout constants.
const (
	readTimeout       = 10 * time.Second
	writeTimeout      = 10 * time.Second
	idleTimeout       = 60 * time.Second
	readHeaderTimeout = 5 * time.Second
	shutdownTimeout   = 30 * time.Second
)

func main() {
	if err := logger.Init(); err != nil {
		os.Stderr.WriteString("failed to initialize logging: " + err.Error() + "\n")
		return
	}
	defer func() {
		_ = logger.Sync()
	}()

	log := logger.Get()

	// Root context with cancel on SIGINT/SIGTERM.
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Load configuration (defaults -> optional file -> env).
	cfg, err := config.Load(ctx)
	if err != nil {
		os.Stderr.WriteString("failed to load config: " + err.Error() + "\n")
		return
	}

	if err := logger.SetLevelString(cfg.LogLevel); err != nil {
		log.Warn(ctx, "invalid log_level; falling back to info",
			logger.String("log_level", cfg.LogLevel), logger.Error(err))
		_ = logger.SetLevelString("info")
	}

	opts := []engine.Option{
		engine.WithLogger(log.Named("engine")),
		engine.WithStore(statestore.NewFileStore(cfg.StatePath)),
		engine.WithCalculator(scoring.NewCalculator(
			scoring.WithTestFilePatterns(cfg.TestFilePatterns),
			scoring.WithLazyMessages(cfg.LazyMessages),
		)),
		engine.WithApplier(ledger.NewApplier(
			ledger.WithEventHistoryLimit(cfg.EventHistoryLimit),
		)),
		engine.WithFlipThreshold(cfg.FlipThreshold),
		engine.WithRoastCooldown(time.Duration(cfg.RoastCooldownS) * time.Second),
		engine.WithCommentaryLimit(cfg.CommentaryHistoryLimit),
		engine.WithPollIntervals(
			time.Duration(cfg.CommitPollIntervalS)*time.Second,
			time.Duration(cfg.WorkflowPollIntervalS)*time.Second,
			time.Duration(cfg.PullPollIntervalS)*time.Second,
		),
		engine.WithSeenCacheSize(cfg.SeenCacheSize),
		engine.WithCommentaryQueueSize(cfg.CommentaryQueueSize),
		engine.WithCommentaryWorkers(cfg.CommentaryWorkers),
	}

	// The forge source is optional so a fresh instance can serve reads
	// before a repository is configured.
	if cfg.ForgeOwner != "" && cfg.ForgeRepo != "" {
		opts = append(opts, engine.WithSource(forge.NewClient(
			cfg.ForgeBaseURL, cfg.ForgeOwner, cfg.ForgeRepo,
			forge.WithToken(cfg.ForgeToken),
		)))
	} else {
		log.Warn(ctx, "no forge repository configured; polling disabled")
	}

	if cfg.NarratorToken != "" {
		opts = append(opts, engine.WithNarrator(narrator.NewClient(
			cfg.NarratorBaseURL,
			narrator.WithToken(cfg.NarratorToken),
			narrator.WithModel(cfg.NarratorModel),
		)))
	} else {
		log.Warn(ctx, "no narrator token configured; commentary disabled")
	}

	hub := ws.NewHub()
	go hub.Run(ctx)
	defer hub.Stop()
	opts = append(opts, engine.WithBroadcaster(hub))

	eng := engine.New(opts...)
	if err := eng.Start(ctx); err != nil {
		os.Stderr.WriteString("failed to start engine: " + err.Error() + "\n")
		return
	}
	defer eng.Stop()

	apiServer := api.NewServer(eng, eng, cfg.MaxLeaderboardLimit)
	router := apiServer.Router()
	router.Get("/ws", hub.HandleWS)

	srv := &http.Server{
		Addr:              cfg.Addr,
		Handler:           router,
		ReadTimeout:       readTimeout,
		WriteTimeout:      writeTimeout,
		IdleTimeout:       idleTimeout,
		ReadHeaderTimeout: readHeaderTimeout,
	}

	go func() {
		log.Info(ctx, "starting HTTP server", logger.String("addr", cfg.Addr))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			os.Stderr.WriteString("HTTP server failed: " + err.Error() + "\n")
		}
	}()

	<-ctx.Done()
	log.Info(ctx, "shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error(ctx, "server shutdown failed", logger.Error(err))
	}

	log.Info(ctx, "server stopped")
}
