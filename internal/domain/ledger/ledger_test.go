package ledger_test

import (
	"testing"
	"time"

	ledger "github.com/devderby/devderby/internal/domain/ledger"
	. "github.com/smartystreets/goconvey/convey"

	"github.com/devderby/devderby/internal/domain/model"
)

func event(player string, points int, ts time.Time) model.ScoreEvent {
	return model.ScoreEvent{
		ID:        player + ts.Format(time.RFC3339Nano),
		PlayerID:  player,
		Timestamp: ts,
		EventType: model.EventTypeCommit,
		Points:    points,
	}
}

func TestApplier_Apply(t *testing.T) {
	Convey("Given a fresh state and a default applier", t, func() {
		state := model.NewEngineState()
		applier := ledger.NewApplier()
		now := time.Date(2026, 3, 10, 12, 0, 0, 0, time.UTC)

		Convey("When a first event arrives for an unknown player", func() {
			result := applier.Apply(state, event("alice", 10, now), now)

			Convey("Then the player is created with all buckets credited", func() {
				So(result.PlayerCreated, ShouldBeTrue)
				So(result.Player.TotalScore, ShouldEqual, 10)
				So(result.Player.DailyScore, ShouldEqual, 10)
				So(result.Player.WeeklyScore, ShouldEqual, 10)
				So(result.Player.Streak, ShouldEqual, 1)
				So(state.Events, ShouldHaveLength, 1)
			})
		})

		Convey("When a penalty event lands", func() {
			applier.Apply(state, event("bob", 30, now), now)
			result := applier.Apply(state, event("bob", -70, now.Add(time.Minute)), now)

			Convey("Then the penalty reduces the total and accrues separately", func() {
				So(result.Player.TotalScore, ShouldEqual, -40)
				So(result.Player.Penalties, ShouldEqual, 70)
				So(result.Player.DailyScore, ShouldEqual, -40)
			})

			Convey("And the shame title is granted with an expiry", func() {
				So(result.AwardedTitles, ShouldHaveLength, 1)
				So(result.AwardedTitles[0].Type, ShouldEqual, model.TitleTypeShame)
				So(result.AwardedTitles[0].ExpiresAt, ShouldNotBeNil)
			})
		})

		Convey("When activity lands within the streak window", func() {
			applier.Apply(state, event("carol", 5, now), now)
			result := applier.Apply(state, event("carol", 5, now.Add(20*time.Hour)), now)

			Convey("Then the streak extends", func() {
				So(result.Player.Streak, ShouldEqual, 2)
			})
		})

		Convey("When a long gap breaks the streak", func() {
			applier.Apply(state, event("dave", 5, now), now)
			applier.Apply(state, event("dave", 5, now.Add(23*time.Hour)), now)
			result := applier.Apply(state, event("dave", 5, now.Add(4*24*time.Hour)), now)

			Convey("Then the streak restarts at one", func() {
				So(result.Player.Streak, ShouldEqual, 1)
			})
		})

		Convey("When the streak reaches the achievement mark", func() {
			ts := now
			var result ledger.ApplyResult
			for i := 0; i < 7; i++ {
				result = applier.Apply(state, event("erin", 5, ts), ts)
				ts = ts.Add(12 * time.Hour)
			}

			Convey("Then the streak achievement is granted exactly once", func() {
				So(result.Player.Streak, ShouldEqual, 7)
				So(result.AwardedTitles, ShouldHaveLength, 1)
				So(result.AwardedTitles[0].Type, ShouldEqual, model.TitleTypeAchievement)

				again := applier.Apply(state, event("erin", 5, ts), ts)
				So(again.Player.Streak, ShouldEqual, 8)
				So(again.AwardedTitles, ShouldBeEmpty)
			})
		})
	})
}

func TestApplier_EventHistoryBound(t *testing.T) {
	Convey("Given an applier with a small history limit", t, func() {
		state := model.NewEngineState()
		applier := ledger.NewApplier(ledger.WithEventHistoryLimit(3))
		now := time.Date(2026, 3, 10, 12, 0, 0, 0, time.UTC)

		Convey("When more events arrive than the limit holds", func() {
			for i := 0; i < 5; i++ {
				applier.Apply(state, event("alice", i, now.Add(time.Duration(i)*time.Minute)), now)
			}

			Convey("Then only the newest events survive", func() {
				So(state.Events, ShouldHaveLength, 3)
				So(state.Events[0].Points, ShouldEqual, 2)
				So(state.Events[2].Points, ShouldEqual, 4)
			})

			Convey("And totals are unaffected by trimming", func() {
				So(state.Players["alice"].TotalScore, ShouldEqual, 0+1+2+3+4)
			})
		})
	})
}
