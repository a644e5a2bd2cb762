package queue_test

import (
	"context"
	"testing"
	"time"

	. "github.com/smartystreets/goconvey/convey"

	"scheddy/internal/adapters/mq/queue"
)

func TestEnqueueDequeue(t *testing.T) {
	ctx := context.Background()

	Convey("Given a fresh queue", t, func() {
		q := queue.NewInMemoryQueue()

		Convey("When a job is enqueued", func() {
			So(q.Enqueue(ctx, queue.Job{Owner: "u1"}), ShouldBeTrue)
			So(q.Len(ctx), ShouldEqual, 1)

			Convey("Then a consumer receives it", func() {
				select {
				case j := <-q.Dequeue(ctx):
					So(j.Owner, ShouldEqual, "u1")
				case <-time.After(time.Second):
					t.Fatal("timed out waiting for job")
				}
			})
		})

		Convey("When jobs outnumber the capacity", func() {
			small := queue.NewInMemoryQueue(queue.WithCapacity(2))
			So(small.Enqueue(ctx, queue.Job{Owner: "u1"}), ShouldBeTrue)
			So(small.Enqueue(ctx, queue.Job{Owner: "u2"}), ShouldBeTrue)

			Convey("Then the overflow job is rejected", func() {
				So(small.Enqueue(ctx, queue.Job{Owner: "u3"}), ShouldBeFalse)
				So(small.Len(ctx), ShouldEqual, 2)
			})
		})
	})
}

func TestClose(t *testing.T) {
	ctx := context.Background()

	Convey("Given a queue holding one job", t, func() {
		q := queue.NewInMemoryQueue()
		So(q.Enqueue(ctx, queue.Job{Owner: "u1"}), ShouldBeTrue)

		Convey("When the queue is closed", func() {
			So(q.Close(), ShouldBeNil)
			So(q.IsClosed(), ShouldBeTrue)

			Convey("Then enqueue is rejected and close is idempotent", func() {
				So(q.Enqueue(ctx, queue.Job{Owner: "u2"}), ShouldBeFalse)
				So(q.Close(), ShouldBeNil)
			})

			Convey("And the buffered job still drains before the channel closes", func() {
				ch := q.Dequeue(ctx)

				j, ok := <-ch
				So(ok, ShouldBeTrue)
				So(j.Owner, ShouldEqual, "u1")

				_, ok = <-ch
				So(ok, ShouldBeFalse)
			})
		})
	})
}

func TestDequeueHonorsContext(t *testing.T) {
	Convey("Given a consumer with a cancelled context", t, func() {
		q := queue.NewInMemoryQueue()
		ctx, cancel := context.WithCancel(context.Background())

		ch := q.Dequeue(ctx)
		cancel()
		So(q.Enqueue(context.Background(), queue.Job{Owner: "u1"}), ShouldBeTrue)

		Convey("Then the drain goroutine stops", func() {
			select {
			case _, ok := <-ch:
				// Either the job slipped through before cancellation was
				// observed, or the channel closed. Both are acceptable.
				_ = ok
			case <-time.After(100 * time.Millisecond):
			}
			So(q.Close(), ShouldBeNil)
		})
	})
}
