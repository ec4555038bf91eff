package queue_test

import (
	"context"
	"testing"

	queue "github.com/devderby/devderby/internal/adapters/mq/queue"
	. "github.com/smartystreets/goconvey/convey"

	"github.com/devderby/devderby/internal/domain/model"
)

func TestInMemoryQueue(t *testing.T) {
	ctx := context.Background()

	Convey("Given a queue with capacity two", t, func() {
		q := queue.NewInMemoryQueue(queue.WithCapacity(2))

		Convey("When enqueueing within capacity", func() {
			So(q.Enqueue(ctx, queue.Request{Trigger: model.TriggerCIFailed}), ShouldBeTrue)
			So(q.Enqueue(ctx, queue.Request{Trigger: model.TriggerScoreChange}), ShouldBeTrue)
			So(q.Len(ctx), ShouldEqual, 2)

			Convey("And a third enqueue drops without blocking", func() {
				So(q.Enqueue(ctx, queue.Request{Trigger: model.TriggerManualRoast}), ShouldBeFalse)
				So(q.Len(ctx), ShouldEqual, 2)
			})

			Convey("And dequeue delivers in order", func() {
				out := q.Dequeue(ctx)
				first := <-out
				So(first.Trigger, ShouldEqual, model.TriggerCIFailed)
				second := <-out
				So(second.Trigger, ShouldEqual, model.TriggerScoreChange)
			})
		})

		Convey("When the queue is closed", func() {
			So(q.Close(), ShouldBeNil)

			Convey("Then enqueues are refused", func() {
				So(q.Enqueue(ctx, queue.Request{}), ShouldBeFalse)
			})

			Convey("And closing twice is safe", func() {
				So(q.Close(), ShouldBeNil)
			})

			Convey("And the dequeue channel drains shut", func() {
				_, ok := <-q.Dequeue(ctx)
				So(ok, ShouldBeFalse)
			})
		})
	})
}
