// Package queue carries projection jobs from the write path to the workers
// that refresh the live board.
//
// Jobs are coalesced per innings: while a job for an innings is waiting, a
// second enqueue for the same innings is absorbed, because the worker always
// reads the latest log when it runs.
package queue

import (
	"context"
	"sync"
	"time"

	"github.com/okian/wicket/internal/domain/model"
	"github.com/okian/wicket/pkg/metrics"
)

const defaultQueueCapacity = 10_000

// Job asks for the live projection of one innings to be refreshed.
type Job struct {
	Key        model.InningsKey
	EnqueuedAt time.Time
}

// Queue provides non-blocking enqueue and channel-based dequeue semantics.
type Queue interface {
	// Enqueue schedules a job. It returns false if the job was dropped
	// because the queue is full, closed or ctx is done.
	Enqueue(ctx context.Context, j Job) bool

	// Dequeue returns a channel that receives jobs until the queue is closed.
	Dequeue(ctx context.Context) <-chan Job

	// Len returns the number of waiting jobs.
	Len(ctx context.Context) int

	// Close stops accepting jobs. Waiting jobs are still delivered.
	Close() error

	IsClosed() bool
}

// InMemoryQueue implements Queue using a buffered channel.
type InMemoryQueue struct {
	jobs     chan Job
	capacity int

	mu      sync.Mutex
	pending map[model.InningsKey]struct{}
	closed  bool
}

// NewInMemoryQueue creates a new in-memory queue with configuration options.
func NewInMemoryQueue(opts ...Option) *InMemoryQueue {
	q := &InMemoryQueue{
		capacity: defaultQueueCapacity,
		pending:  make(map[model.InningsKey]struct{}),
	}
	for _, opt := range opts {
		opt(q)
	}
	q.jobs = make(chan Job, q.capacity)

	metrics.UpdateQueueCapacity(q.capacity)
	metrics.UpdateQueueSize(0)
	return q
}

// Enqueue implements Queue.Enqueue.
func (q *InMemoryQueue) Enqueue(ctx context.Context, j Job) bool {
	q.mu.Lock()
	defer q.mu.Unlock()

	if q.closed {
		metrics.RecordQueueEnqueueError()
		metrics.RecordErrorByComponent("queue", "closed")
		return false
	}
	if _, ok := q.pending[j.Key]; ok {
		return true
	}
	if j.EnqueuedAt.IsZero() {
		j.EnqueuedAt = time.Now()
	}

	select {
	case <-ctx.Done():
		metrics.RecordQueueEnqueueError()
		metrics.RecordErrorByComponent("queue", "context_cancelled")
		return false
	default:
	}

	select {
	case q.jobs <- j:
		q.pending[j.Key] = struct{}{}
		metrics.RecordQueueEnqueue()
		metrics.UpdateQueueSize(len(q.jobs))
		return true
	default:
		metrics.RecordQueueEnqueueError()
		metrics.RecordErrorByComponent("queue", "queue_full")
		return false
	}
}

// Dequeue implements Queue.Dequeue. Each call starts a forwarder that stops
// when ctx is done or the queue is closed and drained.
func (q *InMemoryQueue) Dequeue(ctx context.Context) <-chan Job {
	out := make(chan Job)
	go func() {
		defer close(out)
		for j := range q.jobs {
			q.mu.Lock()
			delete(q.pending, j.Key)
			q.mu.Unlock()

			select {
			case out <- j:
				metrics.RecordQueueDequeue()
				metrics.UpdateQueueSize(len(q.jobs))
			case <-ctx.Done():
				return
			}
		}
	}()
	return out
}

// Len implements Queue.Len.
func (q *InMemoryQueue) Len(_ context.Context) int {
	size := len(q.jobs)
	metrics.UpdateQueueSize(size)
	return size
}

// Close implements Queue.Close.
func (q *InMemoryQueue) Close() error {
	q.mu.Lock()
	defer q.mu.Unlock()

	if q.closed {
		return nil
	}
	close(q.jobs)
	q.closed = true
	return nil
}

// IsClosed implements Queue.IsClosed.
func (q *InMemoryQueue) IsClosed() bool {
	q.mu.Lock()
	defer q.mu.Unlock()
	return q.closed
}
