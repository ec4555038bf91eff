// Package config defines engine configuration and its loading order.
//
// Conventions follow the rest of the codebase: koanf struct tags, defaults
// in New, sentinel error kinds in errors.go, validation after unmarshal.
package config

import "github.com/devderby/devderby/internal/domain/scoring"

// Config contains process configuration.
type Config struct {
	// LogLevel controls verbosity: debug, info, warn, error.
	LogLevel string `koanf:"log_level"`

	// Addr configures the HTTP listen address, e.g. ":8080".
	Addr string `koanf:"addr"`

	// StatePath is the JSON snapshot file owned by this engine instance.
	StatePath string `koanf:"state_path"`

	// Event source (forge) settings.
	ForgeBaseURL string `koanf:"forge_base_url"`
	ForgeOwner   string `koanf:"forge_owner"`
	ForgeRepo    string `koanf:"forge_repo"`
	ForgeToken   string `koanf:"forge_token"`

	// Poll intervals in seconds, one per event class. Classes poll
	// independently and may overlap.
	CommitPollIntervalS   int `koanf:"commit_poll_interval_s"`
	WorkflowPollIntervalS int `koanf:"workflow_poll_interval_s"`
	PullPollIntervalS     int `koanf:"pull_poll_interval_s"`

	// Narrative service settings.
	NarratorBaseURL string `koanf:"narrator_base_url"`
	NarratorToken   string `koanf:"narrator_token"`
	NarratorModel   string `koanf:"narrator_model"`

	// Scoring configuration tables. Substring match for test files, exact
	// match for lazy commit messages.
	TestFilePatterns []string `koanf:"test_file_patterns"`
	LazyMessages     []string `koanf:"lazy_messages"`

	// History bounds.
	EventHistoryLimit      int `koanf:"event_history_limit"`
	CommentaryHistoryLimit int `koanf:"commentary_history_limit"`

	// Leaderboard and commentary behavior.
	FlipThreshold       int `koanf:"flip_threshold"`
	RoastCooldownS      int `koanf:"roast_cooldown_s"`
	CommentaryQueueSize int `koanf:"commentary_queue_size"`
	CommentaryWorkers   int `koanf:"commentary_workers"`
	MaxLeaderboardLimit int `koanf:"max_leaderboard_limit"`
	SeenCacheSize       int `koanf:"seen_cache_size"`
}

// New returns the default configuration.
func New() *Config {
	return &Config{
		LogLevel:               "info",
		Addr:                   ":8090",
		StatePath:              "devderby-state.json",
		ForgeBaseURL:           "https://api.github.com",
		CommitPollIntervalS:    60,
		WorkflowPollIntervalS:  90,
		PullPollIntervalS:      120,
		NarratorBaseURL:        "https://api.openai.com",
		NarratorModel:          "gpt-4o-mini",
		TestFilePatterns:       scoring.DefaultTestFilePatterns(),
		LazyMessages:           scoring.DefaultLazyMessages(),
		EventHistoryLimit:      200,
		CommentaryHistoryLimit: 50,
		FlipThreshold:          50,
		RoastCooldownS:         300,
		CommentaryQueueSize:    256,
		CommentaryWorkers:      2,
		MaxLeaderboardLimit:    100,
		SeenCacheSize:          10000,
	}
}
