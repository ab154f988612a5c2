// Package worker runs the pool that projects innings logs onto the live board.
package worker

import (
	"context"
	"fmt"
	"runtime"
	"strconv"
	"sync"
	"sync/atomic"
	"time"

	"github.com/okian/wicket/internal/adapters/mq/queue"
	"github.com/okian/wicket/pkg/logger"
	"github.com/okian/wicket/pkg/metrics"
)

const poolShutdownTimeout = 30 * time.Second

// Projector refreshes the live view of one innings.
type Projector interface {
	Project(ctx context.Context, j queue.Job) error
}

// ProjectorFunc adapts a function to Projector.
type ProjectorFunc func(ctx context.Context, j queue.Job) error

// Project implements Projector.
func (f ProjectorFunc) Project(ctx context.Context, j queue.Job) error { return f(ctx, j) }

// Queue defines how workers receive jobs.
type Queue interface {
	Dequeue(ctx context.Context) <-chan queue.Job
}

// Worker processes jobs until its queue is drained or it is stopped.
type Worker interface {
	Run(ctx context.Context)
	Shutdown(ctx context.Context) error
}

// InMemoryWorker implements Worker.
type InMemoryWorker struct {
	queue     Queue
	projector Projector
	name      string
	processed *atomic.Int64

	shutdown     chan struct{}
	shutdownOnce sync.Once
	done         chan struct{}

	logger logger.Logger
}

// NewInMemoryWorker creates a worker reading from q.
func NewInMemoryWorker(q Queue, p Projector, opts ...Option) *InMemoryWorker {
	w := &InMemoryWorker{
		queue:     q,
		projector: p,
		name:      "worker",
		processed: new(atomic.Int64),
		shutdown:  make(chan struct{}),
		done:      make(chan struct{}),
	}
	for _, opt := range opts {
		opt(w)
	}
	if w.logger == nil {
		w.logger = logger.Get().Named(w.name)
	}
	return w
}

// Run starts the worker loop. It returns when ctx is done, Shutdown is
// called, or the queue is closed and drained.
func (w *InMemoryWorker) Run(ctx context.Context) {
	defer close(w.done)

	jobs := w.queue.Dequeue(ctx)
	for {
		select {
		case <-ctx.Done():
			return
		case <-w.shutdown:
			return
		case j, ok := <-jobs:
			if !ok {
				return
			}
			if err := w.process(ctx, j); err != nil {
				w.logger.Error(ctx, "projection failed",
					logger.String("innings", j.Key.String()),
					logger.Error(err),
				)
			}
		}
	}
}

// Shutdown stops the worker and waits for its current job to finish.
func (w *InMemoryWorker) Shutdown(ctx context.Context) error {
	w.shutdownOnce.Do(func() { close(w.shutdown) })
	select {
	case <-w.done:
		return nil
	case <-ctx.Done():
		w.logger.Warn(ctx, "shutdown timed out")
		return fmt.Errorf("shutdown timed out: %w", ctx.Err())
	}
}

// Processed returns the number of jobs this worker handled successfully.
func (w *InMemoryWorker) Processed() int64 { return w.processed.Load() }

func (w *InMemoryWorker) process(ctx context.Context, j queue.Job) error {
	metrics.AddWorkerActive(1)
	start := time.Now()
	defer func() {
		metrics.AddWorkerActive(-1)
		metrics.RecordWorkerProcessingLatency(float64(time.Since(start).Microseconds()) / 1000)
	}()

	if err := w.projector.Project(ctx, j); err != nil {
		metrics.RecordWorkerError()
		metrics.RecordErrorByComponent("worker", "projection_error")
		return fmt.Errorf("project %s: %w", j.Key, err)
	}
	w.processed.Add(1)
	return nil
}

// Pool manages a fixed set of workers sharing one queue.
type Pool struct {
	workers []*InMemoryWorker
	queue   Queue
	logger  logger.Logger
}

// NewPool creates workerCount workers. A count below one means one per CPU.
func NewPool(workerCount int, q Queue, p Projector, opts ...Option) *Pool {
	if workerCount < 1 {
		workerCount = runtime.NumCPU()
	}

	pool := &Pool{
		workers: make([]*InMemoryWorker, workerCount),
		queue:   q,
		logger:  logger.Get().Named("worker-pool"),
	}
	for i := range pool.workers {
		wopts := append([]Option{WithName("worker-" + strconv.Itoa(i))}, opts...)
		pool.workers[i] = NewInMemoryWorker(q, p, wopts...)
	}
	metrics.UpdateWorkerCount(workerCount)
	return pool
}

// Start launches every worker.
func (p *Pool) Start(ctx context.Context) {
	for _, w := range p.workers {
		go w.Run(ctx)
	}
	p.logger.Info(ctx, "worker pool started", logger.Int("workers", len(p.workers)))
}

// Size returns the number of workers.
func (p *Pool) Size() int { return len(p.workers) }

// Processed returns the number of jobs handled by all workers.
func (p *Pool) Processed() int64 {
	var n int64
	for _, w := range p.workers {
		n += w.Processed()
	}
	return n
}

// Shutdown closes the queue so that workers drain what is already waiting,
// then waits for them until ctx or the pool timeout expires. Workers still
// running at the deadline are told to stop.
func (p *Pool) Shutdown(ctx context.Context) error {
	if closer, ok := p.queue.(interface{ Close() error }); ok {
		if err := closer.Close(); err != nil {
			p.logger.Error(ctx, "error closing queue", logger.Error(err))
		}
	}

	shutdownCtx, cancel := context.WithTimeout(ctx, poolShutdownTimeout)
	defer cancel()

	var timedOut bool
	for i, w := range p.workers {
		select {
		case <-w.done:
		case <-shutdownCtx.Done():
			timedOut = true
			p.logger.Warn(ctx, "worker drain timed out", logger.Int("worker_id", i))
			w.shutdownOnce.Do(func() { close(w.shutdown) })
		}
	}
	if timedOut {
		return fmt.Errorf("worker pool shutdown: %w", shutdownCtx.Err())
	}
	return nil
}
