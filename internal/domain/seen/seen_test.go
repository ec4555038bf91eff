package seen_test

import (
	"context"
	"fmt"
	"testing"

	seen "github.com/devderby/devderby/internal/domain/seen"
	. "github.com/smartystreets/goconvey/convey"
)

func TestTracker(t *testing.T) {
	ctx := context.Background()

	Convey("Given a fresh tracker", t, func() {
		tracker := seen.NewTracker()

		Convey("When an id is recorded for the first time", func() {
			So(tracker.SeenAndRecord(ctx, "commit:abc"), ShouldBeFalse)

			Convey("Then the second sighting reports seen", func() {
				So(tracker.SeenAndRecord(ctx, "commit:abc"), ShouldBeTrue)
				So(tracker.Size(), ShouldEqual, 1)
			})
		})

		Convey("When an id is unrecorded", func() {
			tracker.SeenAndRecord(ctx, "run:1")
			tracker.Unrecord(ctx, "run:1")

			Convey("Then it can be recorded again", func() {
				So(tracker.SeenAndRecord(ctx, "run:1"), ShouldBeFalse)
			})
		})

		Convey("When unrecording an unknown id", func() {
			tracker.Unrecord(ctx, "run:missing")

			Convey("Then nothing changes", func() {
				So(tracker.Size(), ShouldEqual, 0)
			})
		})
	})

	Convey("Given a tracker bounded to three ids", t, func() {
		tracker := seen.NewTracker(seen.WithMaxSize(3))

		Convey("When a fourth id arrives", func() {
			for i := 0; i < 4; i++ {
				tracker.SeenAndRecord(ctx, fmt.Sprintf("id:%d", i))
			}

			Convey("Then the oldest id was evicted", func() {
				So(tracker.Size(), ShouldEqual, 3)
				So(tracker.SeenAndRecord(ctx, "id:0"), ShouldBeFalse)
				So(tracker.SeenAndRecord(ctx, "id:3"), ShouldBeTrue)
			})
		})
	})
}
