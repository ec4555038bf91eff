package ledger_test

import (
	"testing"
	"time"

	ledger "github.com/devderby/devderby/internal/domain/ledger"
	. "github.com/smartystreets/goconvey/convey"

	"github.com/devderby/devderby/internal/domain/model"
)

func TestApplyResets(t *testing.T) {
	Convey("Given a state with scores from yesterday", t, func() {
		yesterday := time.Date(2026, 3, 9, 18, 0, 0, 0, time.UTC)
		today := time.Date(2026, 3, 10, 8, 0, 0, 0, time.UTC)

		state := model.NewEngineState()
		state.DailyResetDate = yesterday
		state.WeeklyResetDate = yesterday
		p := state.Player("alice", "alice")
		p.TotalScore = 500
		p.DailyScore = 120
		p.WeeklyScore = 300

		Convey("When a new day starts within the same ISO week", func() {
			result := ledger.ApplyResets(state, today)

			Convey("Then only the daily bucket resets", func() {
				So(result.DailyApplied, ShouldBeTrue)
				So(result.WeeklyApplied, ShouldBeFalse)
				So(p.DailyScore, ShouldEqual, 0)
				So(p.WeeklyScore, ShouldEqual, 300)
				So(p.TotalScore, ShouldEqual, 500)
				So(state.DailyResetDate, ShouldResemble, today)
			})

			Convey("And running again the same day is a no-op", func() {
				again := ledger.ApplyResets(state, today.Add(2*time.Hour))
				So(again.DailyApplied, ShouldBeFalse)
			})
		})

		Convey("When the ISO week rolls over", func() {
			nextWeek := time.Date(2026, 3, 16, 8, 0, 0, 0, time.UTC)
			result := ledger.ApplyResets(state, nextWeek)

			Convey("Then both buckets reset and the recap carries old totals", func() {
				So(result.DailyApplied, ShouldBeTrue)
				So(result.WeeklyApplied, ShouldBeTrue)
				So(result.WeeklyScores["alice"], ShouldEqual, 300)
				So(p.DailyScore, ShouldEqual, 0)
				So(p.WeeklyScore, ShouldEqual, 0)
				So(p.TotalScore, ShouldEqual, 500)
			})
		})
	})

	Convey("Given a brand new state with zero reset dates", t, func() {
		state := model.NewEngineState()
		p := state.Player("bob", "bob")
		p.DailyScore = 40

		Convey("When resets run for the first time", func() {
			now := time.Date(2026, 3, 10, 8, 0, 0, 0, time.UTC)
			result := ledger.ApplyResets(state, now)

			Convey("Then dates are initialized without wiping anything", func() {
				So(result.DailyApplied, ShouldBeFalse)
				So(result.WeeklyApplied, ShouldBeFalse)
				So(p.DailyScore, ShouldEqual, 40)
				So(state.DailyResetDate, ShouldResemble, now)
				So(state.WeeklyResetDate, ShouldResemble, now)
			})
		})
	})
}
