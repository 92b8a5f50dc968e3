package queue_test

import (
	"context"
	"testing"
	"time"

	. "github.com/smartystreets/goconvey/convey"

	"github.com/okian/dispatch/internal/adapters/mq/queue"
	"github.com/okian/dispatch/internal/domain/model"
)

func TestInMemoryQueue(t *testing.T) {
	Convey("Given a queue with capacity 2", t, func() {
		q := queue.NewInMemoryQueue(queue.WithCapacity(2))
		ctx := context.Background()

		Convey("When enqueuing within capacity", func() {
			So(q.Enqueue(ctx, model.Ticket{ID: "t1", Category: "hw"}), ShouldBeTrue)
			So(q.Enqueue(ctx, model.Ticket{ID: "t2", Category: "hw"}), ShouldBeTrue)

			Convey("Then the length reflects the backlog", func() {
				So(q.Len(ctx), ShouldEqual, 2)
			})

			Convey("And a third enqueue reports backpressure", func() {
				So(q.Enqueue(ctx, model.Ticket{ID: "t3", Category: "hw"}), ShouldBeFalse)
			})

			Convey("And dequeue yields tickets in order", func() {
				ch := q.Dequeue(ctx)
				first := <-ch
				second := <-ch
				So(first.ID, ShouldEqual, "t1")
				So(second.ID, ShouldEqual, "t2")
			})
		})

		Convey("When the queue is closed", func() {
			So(q.Enqueue(ctx, model.Ticket{ID: "t1", Category: "hw"}), ShouldBeTrue)
			So(q.Close(), ShouldBeNil)

			Convey("Then enqueue refuses new tickets", func() {
				So(q.IsClosed(), ShouldBeTrue)
				So(q.Enqueue(ctx, model.Ticket{ID: "t2", Category: "hw"}), ShouldBeFalse)
			})

			Convey("And the dequeue channel drains then closes", func() {
				ch := q.Dequeue(ctx)
				got, ok := <-ch
				So(ok, ShouldBeTrue)
				So(got.ID, ShouldEqual, "t1")

				select {
				case _, ok := <-ch:
					So(ok, ShouldBeFalse)
				case <-time.After(time.Second):
					So("dequeue channel did not close", ShouldBeEmpty)
				}
			})

			Convey("And closing again is harmless", func() {
				So(q.Close(), ShouldBeNil)
			})
		})
	})
}
