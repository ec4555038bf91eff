// Package scoring turns raw source events into score events. The calculator
// is pure: identical input always yields identical points, and nothing here
// reads or writes ledger state.
package scoring

import (
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/devderby/devderby/internal/domain/model"
)

// Point values and thresholds for commit and CI scoring.
const (
	testedCommitPoints = 50
	smallCommitPoints  = 10
	baseCommitPoints   = 5
	hugeCommitPenalty  = 75
	largeCommitPenalty = 30
	lazyMessagePenalty = 15

	smallCommitMaxLines = 50
	largeCommitMinLines = 100
	hugeCommitMinLines  = 300
	lazyMessageMinLen   = 10

	ciPassedPoints = 20
	ciFailedPoints = -100
	prMergedPoints = 100
)

// SystemActorID attributes CI events that cannot be tied to an individual
// committer. Known limitation of the design, kept deliberately.
const SystemActorID = "system"

// Calculator computes score events from raw input. Pattern tables are
// configuration, overridable via options.
type Calculator struct {
	testFilePatterns []string
	lazyMessages     map[string]struct{}
	now              func() time.Time
}

// NewCalculator creates a calculator with the default pattern tables.
func NewCalculator(opts ...Option) *Calculator {
	c := &Calculator{
		testFilePatterns: defaultTestFilePatterns(),
		lazyMessages:     toSet(defaultLazyMessages()),
		now:              time.Now,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// ScoreCommit scores one commit given its changed-file list. Rule precedence:
// tests present, then small, then huge, then large, then default; the lazy
// message penalty is additive on top of whichever rule matched.
func (c *Calculator) ScoreCommit(commit model.Commit, files []model.CommitFile) model.ScoreEvent {
	lines := 0
	hasTests := false
	for _, f := range files {
		lines += f.Additions + f.Deletions
		if !hasTests && c.isTestFile(f.Path) {
			hasTests = true
		}
	}

	var (
		points    int
		eventType model.EventType
		desc      string
	)
	switch {
	case hasTests:
		points = testedCommitPoints
		eventType = model.EventTypeTestedCommit
		desc = fmt.Sprintf("Commit with tests (+%d)", testedCommitPoints)
	case lines < smallCommitMaxLines:
		points = smallCommitPoints
		eventType = model.EventTypeCommit
		desc = fmt.Sprintf("Small commit (+%d)", smallCommitPoints)
	case lines > hugeCommitMinLines:
		points = baseCommitPoints - hugeCommitPenalty
		eventType = model.EventTypePenalty
		desc = fmt.Sprintf("Untested code dump (%d lines, %+d)", lines, points)
	case lines > largeCommitMinLines:
		points = baseCommitPoints - largeCommitPenalty
		eventType = model.EventTypePenalty
		desc = fmt.Sprintf("Large untested commit (%d lines, %+d)", lines, points)
	default:
		points = baseCommitPoints
		eventType = model.EventTypeCommit
		desc = fmt.Sprintf("Commit (+%d)", baseCommitPoints)
	}

	if c.isLazyMessage(commit.Message) {
		points -= lazyMessagePenalty
		desc += fmt.Sprintf(" · lazy message (-%d)", lazyMessagePenalty)
	}

	ts := commit.Timestamp
	if ts.IsZero() {
		ts = c.now()
	}
	return model.ScoreEvent{
		ID:          uuid.NewString(),
		PlayerID:    commit.Author,
		Timestamp:   ts,
		EventType:   eventType,
		Points:      points,
		Description: desc,
		RelatedURL:  commit.URL,
	}
}

// ScoreWorkflowRun scores a CI run. Non-completed runs return nil so the
// poller re-fetches them; completed runs with conclusions other than
// success or failure (cancelled, skipped, timed out) also return nil.
func (c *Calculator) ScoreWorkflowRun(run model.WorkflowRun) *model.ScoreEvent {
	if !run.Completed() {
		return nil
	}

	var (
		points    int
		eventType model.EventType
		desc      string
	)
	switch run.Conclusion {
	case model.RunConclusionSuccess:
		points = ciPassedPoints
		eventType = model.EventTypeCIPassed
		desc = fmt.Sprintf("CI passed on %s (+%d)", run.Branch, points)
	case model.RunConclusionFailure:
		points = ciFailedPoints
		eventType = model.EventTypeCIFailed
		desc = fmt.Sprintf("CI failed on %s (%d)", run.Branch, points)
	default:
		return nil
	}

	ts := run.Timestamp
	if ts.IsZero() {
		ts = c.now()
	}
	return &model.ScoreEvent{
		ID:          uuid.NewString(),
		PlayerID:    SystemActorID,
		Timestamp:   ts,
		EventType:   eventType,
		Points:      points,
		Description: desc,
		RelatedURL:  run.URL,
	}
}

// ScorePRMerge scores a merged pull request, attributed to its author.
// Falls back to the current time when the merge timestamp is absent.
func (c *Calculator) ScorePRMerge(pr model.PullRequest) model.ScoreEvent {
	ts := c.now()
	if pr.MergedAt != nil {
		ts = *pr.MergedAt
	}
	return model.ScoreEvent{
		ID:          uuid.NewString(),
		PlayerID:    pr.Author,
		Timestamp:   ts,
		EventType:   model.EventTypePRMerged,
		Points:      prMergedPoints,
		Description: fmt.Sprintf("PR #%d merged: %s (+%d)", pr.Number, pr.Title, prMergedPoints),
		RelatedURL:  pr.URL,
	}
}

func (c *Calculator) isTestFile(path string) bool {
	lower := strings.ToLower(path)
	for _, pattern := range c.testFilePatterns {
		if strings.Contains(lower, pattern) {
			return true
		}
	}
	return false
}

func (c *Calculator) isLazyMessage(message string) bool {
	trimmed := strings.TrimSpace(message)
	if len(trimmed) < lazyMessageMinLen {
		return true
	}
	_, ok := c.lazyMessages[strings.ToLower(trimmed)]
	return ok
}

func toSet(items []string) map[string]struct{} {
	set := make(map[string]struct{}, len(items))
	for _, item := range items {
		set[strings.ToLower(item)] = struct{}{}
	}
	return set
}
