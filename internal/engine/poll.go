package engine

import (
	"context"
	"strconv"

	"github.com/devderby/devderby/internal/domain/leaderboard"
	"github.com/devderby/devderby/internal/domain/ledger"
	"github.com/devderby/devderby/internal/domain/model"
	"github.com/devderby/devderby/pkg/logger"
	"github.com/devderby/devderby/pkg/metrics"
)

// Batches arrive newest-first. Processing stops at the stored cursor (the
// already-seen boundary); everything before it is new and processed in the
// order received, then the cursor advances to the newest identifier. A
// failure to fetch auxiliary data skips only that event and never blocks
// the cursor or the rest of the batch.

func (e *Engine) pollCommits(ctx context.Context) {
	e.applyResets(ctx)

	commits, err := e.source.ListCommits(ctx)
	if err != nil {
		metrics.RecordPollError("commits")
		e.logger.Warn(ctx, "commit poll failed", logger.Error(err))
		return
	}
	if len(commits) == 0 {
		return
	}

	e.mu.Lock()
	cursor := e.state.LastProcessedCommitID
	e.mu.Unlock()

	var fresh []model.Commit
	for _, c := range commits {
		if c.SHA == cursor {
			break
		}
		fresh = append(fresh, c)
	}
	if len(fresh) == 0 {
		return
	}

	var events []model.ScoreEvent
	for _, c := range fresh {
		if e.tracker.SeenAndRecord(ctx, "commit:"+c.SHA) {
			metrics.RecordEventDuplicate()
			continue
		}
		full, err := e.source.GetCommit(ctx, c.SHA)
		if err != nil {
			metrics.RecordEventSkipped()
			e.logger.Warn(ctx, "commit diff unavailable, skipping",
				logger.String("sha", c.SHA), logger.Error(err))
			continue
		}
		events = append(events, e.calc.ScoreCommit(full, full.Files))
	}

	e.applyBatch(ctx, events, func(state *model.EngineState) {
		state.LastProcessedCommitID = commits[0].SHA
	})
}

func (e *Engine) pollWorkflows(ctx context.Context) {
	e.applyResets(ctx)

	runs, err := e.source.ListWorkflowRuns(ctx)
	if err != nil {
		metrics.RecordPollError("workflows")
		e.logger.Warn(ctx, "workflow poll failed", logger.Error(err))
		return
	}
	if len(runs) == 0 {
		return
	}

	e.mu.Lock()
	cursor := e.state.LastProcessedWorkflowID
	e.mu.Unlock()

	var fresh []model.WorkflowRun
	for _, r := range runs {
		if r.ID == cursor {
			break
		}
		fresh = append(fresh, r)
	}
	if len(fresh) == 0 {
		return
	}

	var events []model.ScoreEvent
	for _, r := range fresh {
		if !r.Completed() {
			// Still running; left beyond the cursor so the next poll
			// fetches it again.
			continue
		}
		if e.tracker.SeenAndRecord(ctx, "run:"+strconv.FormatInt(r.ID, 10)) {
			metrics.RecordEventDuplicate()
			continue
		}
		if ev := e.calc.ScoreWorkflowRun(r); ev != nil {
			events = append(events, *ev)
		}
	}

	// The cursor only advances across completed runs, oldest first, so
	// pending runs are re-polled until they finish. The seen tracker keeps
	// re-fetched completed runs from scoring twice.
	next := cursor
	for i := len(fresh) - 1; i >= 0; i-- {
		if !fresh[i].Completed() {
			break
		}
		next = fresh[i].ID
	}

	e.applyBatch(ctx, events, func(state *model.EngineState) {
		state.LastProcessedWorkflowID = next
	})
}

func (e *Engine) pollPulls(ctx context.Context) {
	e.applyResets(ctx)

	pulls, err := e.source.ListMergedPulls(ctx)
	if err != nil {
		metrics.RecordPollError("pulls")
		e.logger.Warn(ctx, "pull poll failed", logger.Error(err))
		return
	}
	if len(pulls) == 0 {
		return
	}

	e.mu.Lock()
	cursor := e.state.LastProcessedPullID
	e.mu.Unlock()

	var events []model.ScoreEvent
	for _, pr := range pulls {
		if pr.ID == cursor {
			break
		}
		if e.tracker.SeenAndRecord(ctx, "pr:"+strconv.FormatInt(pr.ID, 10)) {
			metrics.RecordEventDuplicate()
			continue
		}
		events = append(events, e.calc.ScorePRMerge(pr))
	}

	e.applyBatch(ctx, events, func(state *model.EngineState) {
		state.LastProcessedPullID = pulls[0].ID
	})
}

// applyResets runs the reset gate before any new events are applied in a
// cycle, so events generated today count toward the post-reset totals.
func (e *Engine) applyResets(ctx context.Context) {
	e.mu.Lock()
	result := ledger.ApplyResets(e.state, e.now())
	var recap string
	if result.WeeklyApplied {
		recap = e.weeklyRecapContextLocked(result.WeeklyScores)
	}
	if result.DailyApplied || result.WeeklyApplied {
		e.logger.Info(ctx, "reset boundary crossed",
			logger.Any("daily", result.DailyApplied),
			logger.Any("weekly", result.WeeklyApplied),
		)
	}
	e.saveLocked(ctx)
	e.mu.Unlock()

	if recap != "" {
		e.enqueueCommentary(ctx, model.CommentaryRequest{
			Trigger:     model.TriggerWeeklyRecap,
			Context:     recap,
			RequestedAt: e.now(),
		})
	}
}

// applyBatch folds scored events into the ledger under the writer lock,
// advances the cursor, recomputes standings, fires triggers, and persists.
// Called even with zero events so the cursor still advances.
func (e *Engine) applyBatch(ctx context.Context, events []model.ScoreEvent, advance func(*model.EngineState)) {
	var requests []model.CommentaryRequest

	e.mu.Lock()
	for _, ev := range events {
		result := e.applier.Apply(e.state, ev, e.now())
		metrics.RecordEventScored(string(ev.EventType), ev.Points)
		requests = append(requests, e.eventTriggersLocked(ev, result)...)
	}
	if advance != nil {
		advance(e.state)
	}

	standings := leaderboard.Compute(e.state.Players, e.now())
	if len(events) > 0 {
		if flip := leaderboard.CheckFlip(standings, e.state.LastLeaderID, e.flipThreshold); flip != nil {
			requests = append(requests, model.CommentaryRequest{
				Trigger:     model.TriggerLeaderFlip,
				Context:     flip.Context,
				TargetUser:  flip.LeaderID,
				RequestedAt: e.now(),
			})
		}
	}
	if standings.Leader != nil {
		e.state.LastLeaderID = standings.Leader.PlayerID
		metrics.UpdateLeaderScore(standings.Leader.TotalScore)
		metrics.UpdateScoreGap(standings.ScoreGap)
	}
	metrics.UpdatePlayersTracked(len(e.state.Players))
	e.saveLocked(ctx)
	e.mu.Unlock()

	for _, r := range requests {
		e.enqueueCommentary(ctx, r)
	}
	if len(events) > 0 && e.broadcaster != nil {
		e.broadcaster.BroadcastStandings(standings)
	}
}
