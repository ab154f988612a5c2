package worker_test

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/okian/wicket/internal/adapters/mq/queue"
	"github.com/okian/wicket/internal/adapters/mq/worker"
	"github.com/okian/wicket/internal/domain/model"
	logging "github.com/okian/wicket/pkg/logger"
	"github.com/smartystreets/goconvey/convey"
)

type mockQueue struct {
	jobs chan queue.Job
	once sync.Once
}

func newMockQueue() *mockQueue {
	return &mockQueue{jobs: make(chan queue.Job, 64)}
}

func (mq *mockQueue) Dequeue(context.Context) <-chan queue.Job { return mq.jobs }

func (mq *mockQueue) Close() error {
	mq.once.Do(func() { close(mq.jobs) })
	return nil
}

func (mq *mockQueue) add(match string, n int) {
	mq.jobs <- queue.Job{Key: model.InningsKey{MatchID: match, InningsNo: n}}
}

type recordingProjector struct {
	mu    sync.Mutex
	seen  []model.InningsKey
	fails map[string]error
}

func newRecordingProjector() *recordingProjector {
	return &recordingProjector{fails: make(map[string]error)}
}

func (p *recordingProjector) Project(_ context.Context, j queue.Job) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if err, ok := p.fails[j.Key.MatchID]; ok {
		return err
	}
	p.seen = append(p.seen, j.Key)
	return nil
}

func (p *recordingProjector) count() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.seen)
}

func waitFor(cond func() bool) bool {
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if cond() {
			return true
		}
		time.Sleep(5 * time.Millisecond)
	}
	return cond()
}

func TestInMemoryWorker(t *testing.T) {
	convey.Convey("Given a worker over a mock queue", t, func() {
		_ = logging.Init()
		q := newMockQueue()
		p := newRecordingProjector()
		w := worker.NewInMemoryWorker(q, p, worker.WithName("test-worker"))
		ctx, cancel := context.WithCancel(context.Background())
		defer cancel()
		go w.Run(ctx)

		convey.Convey("When jobs arrive", func() {
			q.add("m1", 1)
			q.add("m1", 2)

			convey.Convey("Then each is projected", func() {
				convey.So(waitFor(func() bool { return w.Processed() == 2 }), convey.ShouldBeTrue)
				convey.So(p.count(), convey.ShouldEqual, 2)
			})
		})

		convey.Convey("When a projection fails", func() {
			p.mu.Lock()
			p.fails["bad"] = errors.New("boom")
			p.mu.Unlock()
			q.add("bad", 1)
			q.add("good", 1)

			convey.Convey("Then the worker keeps going", func() {
				convey.So(waitFor(func() bool { return w.Processed() == 1 }), convey.ShouldBeTrue)
				convey.So(p.count(), convey.ShouldEqual, 1)
			})
		})

		convey.Convey("When the worker is shut down", func() {
			err := w.Shutdown(context.Background())

			convey.Convey("Then it stops cleanly and a second shutdown is harmless", func() {
				convey.So(err, convey.ShouldBeNil)
				convey.So(w.Shutdown(context.Background()), convey.ShouldBeNil)
			})
		})
	})
}

func TestWorkerPool(t *testing.T) {
	convey.Convey("Given a pool of three workers", t, func() {
		_ = logging.Init()
		q := newMockQueue()
		p := newRecordingProjector()
		pool := worker.NewPool(3, q, p)
		convey.So(pool.Size(), convey.ShouldEqual, 3)

		ctx, cancel := context.WithCancel(context.Background())
		defer cancel()
		pool.Start(ctx)

		convey.Convey("When jobs are queued and the pool shuts down", func() {
			for i := 1; i <= 20; i++ {
				q.add("m", i)
			}
			err := pool.Shutdown(context.Background())

			convey.Convey("Then every waiting job is drained first", func() {
				convey.So(err, convey.ShouldBeNil)
				convey.So(p.count(), convey.ShouldEqual, 20)
				convey.So(pool.Processed(), convey.ShouldEqual, 20)
			})
		})
	})

	convey.Convey("Given a pool with a non-positive size", t, func() {
		_ = logging.Init()
		pool := worker.NewPool(0, newMockQueue(), worker.ProjectorFunc(func(context.Context, queue.Job) error { return nil }))

		convey.Convey("Then it sizes itself to the machine", func() {
			convey.So(pool.Size(), convey.ShouldBeGreaterThan, 0)
		})
	})
}

func TestWorkerPool_ShutdownTimeout(t *testing.T) {
	convey.Convey("Given a pool whose projector blocks", t, func() {
		_ = logging.Init()
		q := newMockQueue()
		release := make(chan struct{})
		started := make(chan struct{}, 1)
		pool := worker.NewPool(1, q, worker.ProjectorFunc(func(context.Context, queue.Job) error {
			started <- struct{}{}
			<-release
			return nil
		}))
		pool.Start(context.Background())
		q.add("slow", 1)
		<-started

		convey.Convey("When shutdown is bounded by a short deadline", func() {
			ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
			defer cancel()
			err := pool.Shutdown(ctx)
			close(release)

			convey.Convey("Then it reports the timeout", func() {
				convey.So(errors.Is(err, context.DeadlineExceeded), convey.ShouldBeTrue)
			})
		})
	})
}
