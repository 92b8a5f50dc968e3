package worker_test

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	queue "github.com/okian/dispatch/internal/adapters/mq/queue"
	worker "github.com/okian/dispatch/internal/adapters/mq/worker"
	model "github.com/okian/dispatch/internal/domain/model"
	logging "github.com/okian/dispatch/pkg/logger"
	"github.com/smartystreets/goconvey/convey"
)

// Mock implementations for testing.
type mockAssigner struct {
	mu        sync.Mutex
	assigned  []string
	failIDs   map[string]error
	delay     time.Duration
	callCount int64
}

func (m *mockAssigner) Assign(ctx context.Context, t worker.Ticket) (model.AssignmentDecision, error) {
	atomic.AddInt64(&m.callCount, 1)
	if m.delay > 0 {
		time.Sleep(m.delay)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if err, ok := m.failIDs[t.ID]; ok {
		return model.AssignmentDecision{}, err
	}
	m.assigned = append(m.assigned, t.ID)
	return model.AssignmentDecision{ID: "decision-" + t.ID, TicketID: t.ID, TechnicianID: "tech-1"}, nil
}

func (m *mockAssigner) assignedIDs() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]string, len(m.assigned))
	copy(out, m.assigned)
	return out
}

type mockNotifier struct {
	mu       sync.Mutex
	notified []model.AssignmentDecision
}

func (m *mockNotifier) Notify(ctx context.Context, d model.AssignmentDecision) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.notified = append(m.notified, d)
}

func (m *mockNotifier) count() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.notified)
}

func ticket(id string) worker.Ticket {
	return model.Ticket{ID: id, Category: "network", Priority: 3, CreatedAt: time.Now()}
}

func waitFor(cond func() bool, timeout time.Duration) bool {
	deadline := time.Now().Add(timeout)
	for time.Now().Before(deadline) {
		if cond() {
			return true
		}
		time.Sleep(5 * time.Millisecond)
	}
	return cond()
}

func TestWorkerProcessing(t *testing.T) {
	convey.Convey("Given a running worker", t, func() {
		_ = logging.Init()
		ctx := context.Background()
		q := queue.NewInMemoryQueue(queue.WithCapacity(16))
		assigner := &mockAssigner{}
		notifier := &mockNotifier{}
		w := worker.NewWorker(q, assigner, notifier, worker.WithName("test-worker"))
		go w.Run(ctx)
		defer func() { _ = w.Shutdown(ctx) }()

		convey.Convey("When tickets arrive on the queue", func() {
			convey.So(q.Enqueue(ctx, ticket("t-1")), convey.ShouldBeTrue)
			convey.So(q.Enqueue(ctx, ticket("t-2")), convey.ShouldBeTrue)

			convey.Convey("Then each is assigned and the decision handed off", func() {
				ok := waitFor(func() bool { return notifier.count() == 2 }, time.Second)
				convey.So(ok, convey.ShouldBeTrue)
				convey.So(assigner.assignedIDs(), convey.ShouldContain, "t-1")
				convey.So(assigner.assignedIDs(), convey.ShouldContain, "t-2")
			})
		})

		convey.Convey("When assignment fails for one ticket", func() {
			assigner.failIDs = map[string]error{"t-bad": errors.New("no candidates")}
			convey.So(q.Enqueue(ctx, ticket("t-bad")), convey.ShouldBeTrue)
			convey.So(q.Enqueue(ctx, ticket("t-good")), convey.ShouldBeTrue)

			convey.Convey("Then the failure does not stall later tickets", func() {
				ok := waitFor(func() bool { return notifier.count() == 1 }, time.Second)
				convey.So(ok, convey.ShouldBeTrue)
				convey.So(assigner.assignedIDs(), convey.ShouldContain, "t-good")
			})
		})
	})
}

func TestWorkerShutdown(t *testing.T) {
	convey.Convey("Given a worker", t, func() {
		_ = logging.Init()
		ctx := context.Background()
		q := queue.NewInMemoryQueue(queue.WithCapacity(4))
		w := worker.NewWorker(q, &mockAssigner{}, &mockNotifier{})
		go w.Run(ctx)

		convey.Convey("When shut down", func() {
			err := w.Shutdown(ctx)

			convey.Convey("Then it stops cleanly", func() {
				convey.So(err, convey.ShouldBeNil)
			})

			convey.Convey("And a second shutdown is harmless", func() {
				convey.So(w.Shutdown(ctx), convey.ShouldBeNil)
			})
		})

		convey.Convey("When the context has already expired", func() {
			expired, cancel := context.WithCancel(context.Background())
			cancel()

			convey.Convey("Then shutdown still succeeds once the loop exits", func() {
				convey.So(w.Shutdown(expired), convey.ShouldBeNil)
			})
		})
	})
}

func TestWorkerPoolDrain(t *testing.T) {
	convey.Convey("Given a worker pool sharing one queue", t, func() {
		_ = logging.Init()
		ctx := context.Background()
		q := queue.NewInMemoryQueue(queue.WithCapacity(128))
		assigner := &mockAssigner{}
		notifier := &mockNotifier{}
		pool := worker.NewPool(4, q, assigner, notifier)
		pool.Start(ctx)

		convey.Convey("When many tickets are enqueued and the pool shuts down", func() {
			const total = 50
			for i := 0; i < total; i++ {
				convey.So(q.Enqueue(ctx, ticket(fmt.Sprintf("t-%d", i))), convey.ShouldBeTrue)
			}
			err := pool.Shutdown(ctx)

			convey.Convey("Then the queue is drained before the workers exit", func() {
				convey.So(err, convey.ShouldBeNil)
				convey.So(notifier.count(), convey.ShouldEqual, total)
			})
		})
	})
}

func TestWorkerPoolConcurrency(t *testing.T) {
	_ = logging.Init()
	ctx := context.Background()
	q := queue.NewInMemoryQueue(queue.WithCapacity(256))
	assigner := &mockAssigner{delay: time.Millisecond}
	notifier := &mockNotifier{}
	pool := worker.NewPool(8, q, assigner, notifier)
	pool.Start(ctx)

	const total = 200
	for i := 0; i < total; i++ {
		if !q.Enqueue(ctx, ticket(fmt.Sprintf("t-%d", i))) {
			t.Fatalf("enqueue %d refused", i)
		}
	}
	if err := pool.Shutdown(ctx); err != nil {
		t.Fatalf("pool shutdown: %v", err)
	}
	if got := atomic.LoadInt64(&assigner.callCount); got != total {
		t.Fatalf("expected %d assignments, got %d", total, got)
	}
	if got := notifier.count(); got != total {
		t.Fatalf("expected %d notifications, got %d", total, got)
	}
}
