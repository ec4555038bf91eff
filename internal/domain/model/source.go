package model

import "time"

// Raw shapes supplied by the event source adapter. The engine consumes these
// newest-first in bounded batches.

// CommitFile is one changed file in a commit diff.
type CommitFile struct {
	Path      string `json:"filename"`
	Additions int    `json:"additions"`
	Deletions int    `json:"deletions"`
}

// Commit is a single commit as listed by the source. Files is only populated
// by the per-commit follow-up call.
type Commit struct {
	SHA       string       `json:"sha"`
	Author    string       `json:"author"`
	Message   string       `json:"message"`
	Timestamp time.Time    `json:"timestamp"`
	URL       string       `json:"url,omitempty"`
	Files     []CommitFile `json:"files,omitempty"`
}

// ChangedLines returns additions plus deletions across all files.
func (c Commit) ChangedLines() int {
	total := 0
	for _, f := range c.Files {
		total += f.Additions + f.Deletions
	}
	return total
}

// Workflow run lifecycle values used by the calculator.
const (
	RunStatusCompleted   = "completed"
	RunConclusionSuccess = "success"
	RunConclusionFailure = "failure"
)

// WorkflowRun is a CI run as listed by the source.
type WorkflowRun struct {
	ID         int64     `json:"id"`
	Name       string    `json:"name"`
	Status     string    `json:"status"`
	Conclusion string    `json:"conclusion"`
	Branch     string    `json:"branch"`
	Timestamp  time.Time `json:"timestamp"`
	URL        string    `json:"url,omitempty"`
}

// Completed reports whether the run reached a terminal status.
func (r WorkflowRun) Completed() bool {
	return r.Status == RunStatusCompleted
}

// PullRequest is a merged pull request as listed by the source.
type PullRequest struct {
	ID       int64      `json:"id"`
	Number   int        `json:"number"`
	Author   string     `json:"author"`
	Title    string     `json:"title"`
	MergedAt *time.Time `json:"merged_at,omitempty"`
	URL      string     `json:"url,omitempty"`
}
