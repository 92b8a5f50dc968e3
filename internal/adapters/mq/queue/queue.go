// Package queue defines the contract for enqueuing and consuming tickets
// arriving from concurrent producers (creation workflow, webhook ingestion,
// manual escalation).
package queue

import (
	"context"
	"sync"

	"github.com/okian/dispatch/internal/domain/model"
	"github.com/okian/dispatch/pkg/metrics"
)

// Default queue configuration constants.
const defaultCapacity = 10000

// Ticket is the payload type flowing through the queue.
type Ticket = model.Ticket

// Queue provides non-blocking enqueue and channel-based dequeue semantics.
type Queue interface {
	// Enqueue adds a ticket to the queue.
	// Returns false if the queue is full and the ticket was not enqueued.
	Enqueue(ctx context.Context, t Ticket) bool

	// Dequeue returns a channel that receives tickets as they become
	// available. The channel is closed when the queue is closed.
	Dequeue(ctx context.Context) <-chan Ticket

	// Len returns the current number of queued tickets.
	Len(ctx context.Context) int

	// Close gracefully shuts down the queue. After closing, no new tickets
	// can be enqueued and the dequeue channel drains to closed.
	Close() error

	// IsClosed returns true if the queue has been closed.
	IsClosed() bool
}

// InMemoryQueue implements Queue using a buffered channel.
type InMemoryQueue struct {
	tickets  chan Ticket
	capacity int

	mu     sync.RWMutex
	closed bool
}

// NewInMemoryQueue creates an in-memory queue with configuration options.
func NewInMemoryQueue(opts ...Option) *InMemoryQueue {
	q := &InMemoryQueue{
		capacity: defaultCapacity,
	}
	for _, opt := range opts {
		opt(q)
	}
	q.tickets = make(chan Ticket, q.capacity)

	metrics.UpdateQueueCapacity(q.capacity)
	metrics.UpdateQueueSize(0)
	metrics.UpdateQueueUtilization(0)
	return q
}

// Enqueue adds a ticket to the queue without blocking the producer.
func (q *InMemoryQueue) Enqueue(ctx context.Context, t Ticket) bool {
	q.mu.RLock()
	defer q.mu.RUnlock()

	if q.closed {
		metrics.RecordQueueReject()
		metrics.RecordErrorByComponent("queue", "closed")
		return false
	}

	select {
	case q.tickets <- t:
		metrics.RecordQueueEnqueue()
		q.observe()
		return true
	case <-ctx.Done():
		metrics.RecordQueueReject()
		metrics.RecordErrorByComponent("queue", "context_cancelled")
		return false
	default:
		metrics.RecordQueueReject()
		metrics.RecordErrorByComponent("queue", "queue_full")
		return false
	}
}

// Dequeue returns a channel that receives tickets as they become available.
func (q *InMemoryQueue) Dequeue(ctx context.Context) <-chan Ticket {
	out := make(chan Ticket)
	go func() {
		defer close(out)
		for t := range q.tickets {
			select {
			case out <- t:
				metrics.RecordQueueDequeue()
				q.observe()
			case <-ctx.Done():
				return
			}
		}
	}()
	return out
}

// Len returns the current number of queued tickets.
func (q *InMemoryQueue) Len(ctx context.Context) int {
	return len(q.tickets)
}

// Close gracefully shuts down the queue.
func (q *InMemoryQueue) Close() error {
	q.mu.Lock()
	defer q.mu.Unlock()

	if q.closed {
		return nil
	}
	close(q.tickets)
	q.closed = true
	return nil
}

// IsClosed returns true if the queue has been closed.
func (q *InMemoryQueue) IsClosed() bool {
	q.mu.RLock()
	defer q.mu.RUnlock()
	return q.closed
}

// observe refreshes queue gauges after a size change.
func (q *InMemoryQueue) observe() {
	size := len(q.tickets)
	metrics.UpdateQueueSize(size)
	metrics.UpdateQueueUtilization(float64(size) / float64(q.capacity))
}
