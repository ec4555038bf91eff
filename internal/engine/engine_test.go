package engine_test

import (
	"context"
	"os"
	"sync"
	"testing"
	"time"

	engine "github.com/devderby/devderby/internal/engine"
	. "github.com/smartystreets/goconvey/convey"

	"github.com/devderby/devderby/internal/domain/model"
	"github.com/devderby/devderby/pkg/logger"
)

func TestMain(m *testing.M) {
	if err := logger.Init(); err != nil {
		os.Exit(1)
	}
	os.Exit(m.Run())
}

// fakeSource serves fixed batches, newest first, and signals each commit
// poll so tests can wait for cycles deterministically.
type fakeSource struct {
	mu      sync.Mutex
	commits []model.Commit
	runs    []model.WorkflowRun
	pulls   []model.PullRequest
	polled  chan struct{}
}

func newFakeSource() *fakeSource {
	return &fakeSource{polled: make(chan struct{}, 64)}
}

func (f *fakeSource) ListCommits(_ context.Context) ([]model.Commit, error) {
	f.mu.Lock()
	out := append([]model.Commit(nil), f.commits...)
	f.mu.Unlock()
	select {
	case f.polled <- struct{}{}:
	default:
	}
	return out, nil
}

func (f *fakeSource) GetCommit(_ context.Context, sha string) (model.Commit, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, c := range f.commits {
		if c.SHA == sha {
			return c, nil
		}
	}
	return model.Commit{}, os.ErrNotExist
}

func (f *fakeSource) ListWorkflowRuns(_ context.Context) ([]model.WorkflowRun, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]model.WorkflowRun(nil), f.runs...), nil
}

func (f *fakeSource) ListMergedPulls(_ context.Context) ([]model.PullRequest, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]model.PullRequest(nil), f.pulls...), nil
}

func (f *fakeSource) waitPolls(t *testing.T, n int) {
	t.Helper()
	for i := 0; i < n; i++ {
		select {
		case <-f.polled:
		case <-time.After(3 * time.Second):
			t.Fatal("poll cycle never happened")
		}
	}
}

func commit(sha, author, message string, lines int, ts time.Time) model.Commit {
	return model.Commit{
		SHA:       sha,
		Author:    author,
		Message:   message,
		Timestamp: ts,
		Files:     []model.CommitFile{{Path: "src/main.go", Additions: lines}},
	}
}

func TestEngine_IdempotentIngestion(t *testing.T) {
	Convey("Given an engine polling a source that repeats its batch", t, func() {
		ts := time.Date(2026, 3, 10, 9, 0, 0, 0, time.UTC)
		source := newFakeSource()
		source.commits = []model.Commit{
			commit("c2", "alice", "add webhook retries", 20, ts.Add(time.Hour)),
			commit("c1", "alice", "fix login redirect", 10, ts),
		}

		eng := engine.New(
			engine.WithSource(source),
			engine.WithPollIntervals(10*time.Millisecond, time.Hour, time.Hour),
		)
		So(eng.Start(context.Background()), ShouldBeNil)
		defer eng.Stop()

		Convey("When several poll cycles deliver the same commits", func() {
			source.waitPolls(t, 4)

			Convey("Then each commit scored exactly once", func() {
				p, err := eng.Player(context.Background(), "alice")
				So(err, ShouldBeNil)
				So(p.TotalScore, ShouldEqual, 20)
				So(eng.RecentEvents(context.Background(), 10), ShouldHaveLength, 2)
			})

			Convey("And the cursor sits at the newest commit", func() {
				stats := eng.GetStats()
				So(stats["lastCommitID"], ShouldEqual, "c2")
			})
		})
	})
}

func TestEngine_CursorBoundary(t *testing.T) {
	Convey("Given an engine that already processed a batch", t, func() {
		ts := time.Date(2026, 3, 10, 9, 0, 0, 0, time.UTC)
		source := newFakeSource()
		source.commits = []model.Commit{
			commit("c1", "alice", "fix login redirect", 10, ts),
		}

		eng := engine.New(
			engine.WithSource(source),
			engine.WithPollIntervals(10*time.Millisecond, time.Hour, time.Hour),
		)
		So(eng.Start(context.Background()), ShouldBeNil)
		defer eng.Stop()
		source.waitPolls(t, 2)

		Convey("When newer commits appear on top of the old ones", func() {
			source.mu.Lock()
			source.commits = []model.Commit{
				commit("c3", "bob", "tighten rate limiter", 15, ts.Add(2*time.Hour)),
				commit("c2", "bob", "handle empty diff", 12, ts.Add(time.Hour)),
				commit("c1", "alice", "fix login redirect", 10, ts),
			}
			source.mu.Unlock()
			source.waitPolls(t, 3)

			Convey("Then only the commits above the boundary get scored", func() {
				alice, err := eng.Player(context.Background(), "alice")
				So(err, ShouldBeNil)
				So(alice.TotalScore, ShouldEqual, 10)

				bob, err := eng.Player(context.Background(), "bob")
				So(err, ShouldBeNil)
				So(bob.TotalScore, ShouldEqual, 20)
				So(eng.GetStats()["lastCommitID"], ShouldEqual, "c3")
			})
		})
	})
}

func TestEngine_PendingRunsRepoll(t *testing.T) {
	Convey("Given a batch with a pending run above a completed one", t, func() {
		ts := time.Date(2026, 3, 10, 9, 0, 0, 0, time.UTC)
		source := newFakeSource()
		source.runs = []model.WorkflowRun{
			{ID: 2, Status: "in_progress", Branch: "main", Timestamp: ts.Add(time.Minute)},
			{ID: 1, Status: model.RunStatusCompleted, Conclusion: model.RunConclusionFailure, Branch: "main", Timestamp: ts},
		}

		eng := engine.New(
			engine.WithSource(source),
			engine.WithPollIntervals(time.Hour, 10*time.Millisecond, time.Hour),
		)
		So(eng.Start(context.Background()), ShouldBeNil)
		defer eng.Stop()

		waitFor(t, func() bool {
			return len(eng.RecentEvents(context.Background(), 10)) == 1
		})

		Convey("Then the failure scored once and the cursor stops at it", func() {
			events := eng.RecentEvents(context.Background(), 10)
			So(events, ShouldHaveLength, 1)
			So(events[0].EventType, ShouldEqual, model.EventTypeCIFailed)
			So(events[0].Points, ShouldEqual, -100)
			So(eng.GetStats()["lastWorkflowID"], ShouldEqual, 1)
		})

		Convey("When the pending run completes", func() {
			source.mu.Lock()
			source.runs[0].Status = model.RunStatusCompleted
			source.runs[0].Conclusion = model.RunConclusionSuccess
			source.mu.Unlock()

			waitFor(t, func() bool {
				return len(eng.RecentEvents(context.Background(), 10)) == 2
			})

			Convey("Then it scores exactly once and the cursor advances", func() {
				events := eng.RecentEvents(context.Background(), 10)
				So(events, ShouldHaveLength, 2)
				So(events[0].EventType, ShouldEqual, model.EventTypeCIPassed)
				So(eng.GetStats()["lastWorkflowID"], ShouldEqual, 2)
			})
		})
	})
}

func TestEngine_MergedPulls(t *testing.T) {
	Convey("Given a source with merged pulls", t, func() {
		merged := time.Date(2026, 3, 10, 9, 0, 0, 0, time.UTC)
		source := newFakeSource()
		source.pulls = []model.PullRequest{
			{ID: 5, Number: 12, Author: "carol", Title: "Add cache", MergedAt: &merged},
		}

		eng := engine.New(
			engine.WithSource(source),
			engine.WithPollIntervals(time.Hour, time.Hour, 10*time.Millisecond),
		)
		So(eng.Start(context.Background()), ShouldBeNil)
		defer eng.Stop()

		waitFor(t, func() bool {
			_, err := eng.Player(context.Background(), "carol")
			return err == nil
		})

		Convey("Then the author gets the merge bonus once", func() {
			p, err := eng.Player(context.Background(), "carol")
			So(err, ShouldBeNil)
			So(p.TotalScore, ShouldEqual, 100)
			So(eng.GetStats()["lastPullID"], ShouldEqual, 5)
		})
	})
}

func TestEngine_RoastCooldown(t *testing.T) {
	Convey("Given an engine with a controllable clock", t, func() {
		now := time.Date(2026, 3, 10, 12, 0, 0, 0, time.UTC)
		var mu sync.Mutex
		clock := func() time.Time {
			mu.Lock()
			defer mu.Unlock()
			return now
		}

		eng := engine.New(
			engine.WithClock(clock),
			engine.WithRoastCooldown(5*time.Minute),
		)

		Convey("When a roast is requested", func() {
			So(eng.RequestRoast(context.Background(), "alice"), ShouldBeNil)

			Convey("Then a second request inside the window is refused", func() {
				err := eng.RequestRoast(context.Background(), "")
				So(err, ShouldEqual, engine.ErrRoastCooldown)
			})

			Convey("And after the cooldown it is accepted again", func() {
				mu.Lock()
				now = now.Add(5 * time.Minute)
				mu.Unlock()
				So(eng.RequestRoast(context.Background(), ""), ShouldBeNil)
			})
		})
	})
}

func TestEngine_CommentaryHistoryBound(t *testing.T) {
	Convey("Given an engine with a small commentary limit", t, func() {
		eng := engine.New(engine.WithCommentaryLimit(3))
		ctx := context.Background()

		Convey("When more commentary arrives than the limit holds", func() {
			for i := 0; i < 5; i++ {
				eng.AppendCommentary(ctx, model.GameCommentary{
					ID:      string(rune('a' + i)),
					Content: "entry",
					Trigger: model.TriggerScoreChange,
				})
			}

			Convey("Then only the newest entries survive, newest first", func() {
				got := eng.RecentCommentary(ctx, 10)
				So(got, ShouldHaveLength, 3)
				So(got[0].ID, ShouldEqual, "e")
				So(got[2].ID, ShouldEqual, "c")
			})
		})
	})
}

func TestEngine_Reads(t *testing.T) {
	Convey("Given a zero engine", t, func() {
		eng := engine.New()

		Convey("Then unknown players return the sentinel", func() {
			_, err := eng.Player(context.Background(), "ghost")
			So(err, ShouldEqual, engine.ErrPlayerNotFound)
		})

		Convey("Then standings are empty but well formed", func() {
			s := eng.Standings(context.Background())
			So(s.Entries, ShouldBeEmpty)
			So(s.Leader, ShouldBeNil)
		})
	})
}

func waitFor(t *testing.T, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(3 * time.Second)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(10 * time.Millisecond)
	}
	if !cond() {
		t.Fatal("condition never met")
	}
}
