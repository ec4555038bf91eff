// Package statestore persists the full engine state as a single JSON
// document. One engine process owns the file; there is no concurrent access
// and no partial persistence.
package statestore

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"

	"github.com/devderby/devderby/internal/domain/model"
	"github.com/devderby/devderby/pkg/logger"
	"github.com/devderby/devderby/pkg/metrics"
)

const fileMode = 0o644

// Store loads and saves engine state snapshots.
type Store interface {
	// Load returns the persisted state, or a fresh zero state when the file
	// is missing or unreadable. A corrupt snapshot is never fatal.
	Load(ctx context.Context) *model.EngineState

	// Save serializes the full state and overwrites the snapshot.
	Save(ctx context.Context, state *model.EngineState) error
}

// FileStore implements Store against a fixed file path.
type FileStore struct {
	path   string
	logger logger.Logger
}

// NewFileStore creates a store writing to path.
func NewFileStore(path string) *FileStore {
	return &FileStore{
		path:   path,
		logger: logger.Get().Named("statestore"),
	}
}

// Load reads and parses the snapshot. Any failure starts the engine fresh.
func (s *FileStore) Load(ctx context.Context) *model.EngineState {
	data, err := os.ReadFile(s.path)
	if err != nil {
		if !errors.Is(err, os.ErrNotExist) {
			s.logger.Warn(ctx, "state file unreadable, starting fresh",
				logger.String("path", s.path), logger.Error(err))
		}
		return model.NewEngineState()
	}

	state := model.NewEngineState()
	if err := json.Unmarshal(data, state); err != nil {
		s.logger.Warn(ctx, "state file corrupt, starting fresh",
			logger.String("path", s.path), logger.Error(err))
		return model.NewEngineState()
	}
	if state.Players == nil {
		state.Players = make(map[string]*model.PlayerScore)
	}
	return state
}

// Save writes the whole snapshot. Losing one write is recoverable on the
// next cycle, so callers log and continue on error.
func (s *FileStore) Save(ctx context.Context, state *model.EngineState) error {
	data, err := json.MarshalIndent(state, "", "  ")
	if err != nil {
		metrics.RecordStateSaveError()
		return fmt.Errorf("marshal state: %w", err)
	}
	if err := os.WriteFile(s.path, data, fileMode); err != nil {
		metrics.RecordStateSaveError()
		return fmt.Errorf("write state file: %w", err)
	}
	metrics.RecordStateSave()
	return nil
}
