// Package forge adapts a source-control hosting API into the engine's event
// source contract. The engine only depends on the Source interface; the REST
// client in this package is one implementation of it.
package forge

import (
	"context"

	"github.com/devderby/devderby/internal/domain/model"
)

// Source supplies bounded, newest-first batches of raw events for a fixed
// project. Missing per-commit diff data is reported per call, not fatal.
type Source interface {
	// ListCommits returns recent commits, newest first, without file diffs.
	ListCommits(ctx context.Context) ([]model.Commit, error)

	// GetCommit returns one commit with its changed-file list populated.
	GetCommit(ctx context.Context, sha string) (model.Commit, error)

	// ListWorkflowRuns returns recent CI runs, newest first.
	ListWorkflowRuns(ctx context.Context) ([]model.WorkflowRun, error)

	// ListMergedPulls returns recently merged pull requests, newest first.
	ListMergedPulls(ctx context.Context) ([]model.PullRequest, error)
}
