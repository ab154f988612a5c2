// Package dedupe tracks delivery ids already appended so that a resubmitted
// delivery is acknowledged without being recorded twice.
package dedupe

import (
	"context"
	"sync"

	"github.com/okian/wicket/internal/domain/model"
)

const defaultMaxSize = 50_000

// Deduper records seen delivery ids to ensure at-most-once appends.
type Deduper interface {
	// SeenAndRecord atomically checks if id was seen and records it if not.
	// Returns true if id was already seen, false if it was newly recorded.
	SeenAndRecord(ctx context.Context, id string) bool

	// Unrecord forgets id so it may be submitted again. Used when an append
	// was marked as seen but then rejected.
	Unrecord(ctx context.Context, id string)

	Size() int64
}

// Key builds the dedupe id of a delivery within an innings.
func Key(k model.InningsKey, deliveryID string) string {
	return k.String() + "/" + deliveryID
}

// fifoDeduper remembers up to maxSize ids and evicts the oldest first.
// With maxSize <= 0 it never evicts.
type fifoDeduper struct {
	mu      sync.Mutex
	maxSize int
	seen    map[string]struct{}
	ring    []string // insertion order, oldest at head
	head    int
	count   int
}

// NewInMemoryDeduper creates a new in-memory deduper with configuration options.
func NewInMemoryDeduper(opts ...Option) Deduper {
	d := &fifoDeduper{maxSize: defaultMaxSize}
	for _, opt := range opts {
		opt(d)
	}
	d.seen = make(map[string]struct{})
	if d.maxSize > 0 {
		d.ring = make([]string, d.maxSize)
	}
	return d
}

func (d *fifoDeduper) SeenAndRecord(_ context.Context, id string) bool {
	d.mu.Lock()
	defer d.mu.Unlock()

	if _, ok := d.seen[id]; ok {
		return true
	}

	d.seen[id] = struct{}{}
	if d.maxSize <= 0 {
		return false
	}

	// Entries unrecorded earlier leave stale ring slots; skip them while evicting.
	for d.count == d.maxSize {
		oldest := d.ring[d.head]
		d.head = (d.head + 1) % d.maxSize
		d.count--
		if oldest != "" {
			delete(d.seen, oldest)
			break
		}
	}
	d.ring[(d.head+d.count)%d.maxSize] = id
	d.count++
	return false
}

func (d *fifoDeduper) Unrecord(_ context.Context, id string) {
	d.mu.Lock()
	defer d.mu.Unlock()

	if _, ok := d.seen[id]; !ok {
		return
	}
	delete(d.seen, id)
	if d.maxSize <= 0 {
		return
	}
	// Blank the ring slot; it is reclaimed lazily on eviction.
	for n := d.count - 1; n >= 0; n-- {
		idx := (d.head + n) % d.maxSize
		if d.ring[idx] == id {
			d.ring[idx] = ""
			return
		}
	}
}

func (d *fifoDeduper) Size() int64 {
	d.mu.Lock()
	defer d.mu.Unlock()
	return int64(len(d.seen))
}
