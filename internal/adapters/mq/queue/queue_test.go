package queue

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/okian/wicket/internal/domain/model"
)

func job(match string, n int) Job {
	return Job{Key: model.InningsKey{MatchID: match, InningsNo: n}}
}

func TestInMemoryQueue_BasicOperations(t *testing.T) {
	q := NewInMemoryQueue(WithCapacity(4))
	ctx := context.Background()

	if l := q.Len(ctx); l != 0 {
		t.Errorf("expected length 0, got %d", l)
	}
	if !q.Enqueue(ctx, job("m1", 1)) {
		t.Fatal("expected enqueue to succeed")
	}
	if l := q.Len(ctx); l != 1 {
		t.Errorf("expected length 1, got %d", l)
	}

	got := <-q.Dequeue(ctx)
	if got.Key.MatchID != "m1" || got.EnqueuedAt.IsZero() {
		t.Errorf("unexpected job %+v", got)
	}
	if l := q.Len(ctx); l != 0 {
		t.Errorf("expected length 0, got %d", l)
	}
}

func TestInMemoryQueue_CoalescesPendingInnings(t *testing.T) {
	q := NewInMemoryQueue(WithCapacity(4))
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		if !q.Enqueue(ctx, job("m1", 1)) {
			t.Fatal("coalesced enqueue should report success")
		}
	}
	if !q.Enqueue(ctx, job("m1", 2)) {
		t.Fatal("expected enqueue to succeed")
	}
	if l := q.Len(ctx); l != 2 {
		t.Fatalf("expected 2 waiting jobs, got %d", l)
	}

	ch := q.Dequeue(ctx)
	<-ch
	// once taken, the same innings can be scheduled again
	if !q.Enqueue(ctx, job("m1", 1)) {
		t.Fatal("expected re-enqueue to succeed")
	}
	<-ch
	<-ch
}

func TestInMemoryQueue_Capacity(t *testing.T) {
	q := NewInMemoryQueue(WithCapacity(2))
	ctx := context.Background()

	if !q.Enqueue(ctx, job("a", 1)) || !q.Enqueue(ctx, job("b", 1)) {
		t.Fatal("expected first two enqueues to succeed")
	}
	if q.Enqueue(ctx, job("c", 1)) {
		t.Error("expected enqueue to fail when full")
	}
}

func TestInMemoryQueue_CancelledContext(t *testing.T) {
	q := NewInMemoryQueue()
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	if q.Enqueue(ctx, job("a", 1)) {
		t.Error("expected enqueue with a cancelled context to fail")
	}
}

func TestInMemoryQueue_ConcurrentAccess(t *testing.T) {
	q := NewInMemoryQueue(WithCapacity(1000))
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	const producers, perProducer = 8, 50
	var wg sync.WaitGroup
	for p := 0; p < producers; p++ {
		wg.Add(1)
		go func(p int) {
			defer wg.Done()
			for i := 1; i <= perProducer; i++ {
				q.Enqueue(ctx, job(string(rune('a'+p)), i))
			}
		}(p)
	}
	wg.Wait()
	_ = q.Close()

	seen := 0
	for range q.Dequeue(ctx) {
		seen++
	}
	if seen != producers*perProducer {
		t.Errorf("expected %d jobs, got %d", producers*perProducer, seen)
	}
}

func TestInMemoryQueue_GracefulShutdown(t *testing.T) {
	q := NewInMemoryQueue(WithCapacity(10))
	ctx := context.Background()

	q.Enqueue(ctx, job("a", 1))
	if err := q.Close(); err != nil {
		t.Fatalf("close: %v", err)
	}
	if err := q.Close(); err != nil {
		t.Errorf("second close: %v", err)
	}
	if !q.IsClosed() {
		t.Error("expected queue to be closed")
	}
	if q.Enqueue(ctx, job("b", 1)) {
		t.Error("expected enqueue after close to fail")
	}

	var drained []Job
	for j := range q.Dequeue(ctx) {
		drained = append(drained, j)
	}
	if len(drained) != 1 {
		t.Errorf("expected the waiting job to be drained, got %d", len(drained))
	}
}
