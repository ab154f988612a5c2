// Package innings implements the lifecycle state machine that gates when
// deliveries may be appended to an innings.
//
//	not_started --Start--> in_progress --End--> ended
//
// Transitions are linear and ended is terminal. Every Innings value is owned
// independently; there is no shared state between innings.
package innings

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/okian/wicket/internal/domain/model"
)

// State is a point-in-time copy of an innings, used for persistence and reads.
type State struct {
	Key        model.InningsKey `msgpack:"key"`
	Status     model.Status     `msgpack:"status"`
	Deliveries []model.Delivery `msgpack:"deliveries"`
	StartedAt  time.Time        `msgpack:"started_at"`
	EndedAt    time.Time        `msgpack:"ended_at"`
}

// Innings owns the ordered delivery log of one innings and its status.
// Appends are serialized by mu; readers copy the log under a read lock.
type Innings struct {
	mu          sync.RWMutex
	key         model.InningsKey
	status      model.Status
	deliveries  []model.Delivery
	startedAt   time.Time
	endedAt     time.Time
	strictOrder bool
	now         func() time.Time
}

// New creates an innings in the not_started state.
func New(key model.InningsKey, opts ...Option) *Innings {
	i := &Innings{
		key:    key,
		status: model.StatusNotStarted,
		now:    time.Now,
	}
	for _, opt := range opts {
		opt(i)
	}
	return i
}

// FromState rebuilds an innings from a persisted State.
func FromState(st State, opts ...Option) *Innings {
	i := New(st.Key, opts...)
	i.status = st.Status
	if i.status == "" {
		i.status = model.StatusNotStarted
	}
	i.deliveries = append([]model.Delivery(nil), st.Deliveries...)
	i.startedAt = st.StartedAt
	i.endedAt = st.EndedAt
	return i
}

// Key returns the innings identity.
func (i *Innings) Key() model.InningsKey { return i.key }

// Status returns the current lifecycle state.
func (i *Innings) Status() model.Status {
	i.mu.RLock()
	defer i.mu.RUnlock()
	return i.status
}

// Start moves not_started to in_progress.
func (i *Innings) Start() error {
	i.mu.Lock()
	defer i.mu.Unlock()

	if i.status != model.StatusNotStarted {
		return fmt.Errorf("%w: cannot start innings %s from %s", ErrInvalidTransition, i.key, i.status)
	}
	i.status = model.StatusInProgress
	i.startedAt = i.now().UTC()
	return nil
}

// End moves in_progress to ended. The delivery log is kept.
func (i *Innings) End() error {
	i.mu.Lock()
	defer i.mu.Unlock()

	if i.status != model.StatusInProgress {
		return fmt.Errorf("%w: cannot end innings %s from %s", ErrInvalidTransition, i.key, i.status)
	}
	i.status = model.StatusEnded
	i.endedAt = i.now().UTC()
	return nil
}

// Append records one delivery. It fails with ErrInningsNotActive unless the
// innings is in progress, and with model.ErrValidation when strict ball order
// is on and d sits before the last recorded delivery. A rejected append leaves
// the log untouched. The stored copy is returned.
func (i *Innings) Append(d model.Delivery) (model.Delivery, error) {
	i.mu.Lock()
	defer i.mu.Unlock()
	return i.appendLocked(d)
}

// IDTracker remembers ids of appended deliveries.
type IDTracker interface {
	SeenAndRecord(ctx context.Context, id string) bool
	Unrecord(ctx context.Context, id string)
}

// AppendOnce appends d unless ids has already seen id, in which case it
// reports a duplicate and leaves the log untouched. A rejected append
// releases id again. The check, the append and the release all happen under
// the innings lock, so a concurrent resubmission of the same id observes the
// outcome of the first one.
func (i *Innings) AppendOnce(ctx context.Context, d model.Delivery, id string, ids IDTracker) (model.Delivery, bool, error) {
	i.mu.Lock()
	defer i.mu.Unlock()

	if ids.SeenAndRecord(ctx, id) {
		return model.Delivery{DeliveryID: d.DeliveryID}, true, nil
	}
	stored, err := i.appendLocked(d)
	if err != nil {
		ids.Unrecord(ctx, id)
		return model.Delivery{}, false, err
	}
	return stored, false, nil
}

func (i *Innings) appendLocked(d model.Delivery) (model.Delivery, error) {
	if i.status != model.StatusInProgress {
		return model.Delivery{}, fmt.Errorf("%w: innings %s is %s", ErrInningsNotActive, i.key, i.status)
	}
	if i.strictOrder && len(i.deliveries) > 0 {
		last := i.deliveries[len(i.deliveries)-1]
		if d.Before(last) {
			return model.Delivery{}, fmt.Errorf("%w: delivery %s is before last recorded %s",
				model.ErrValidation, d.Position(), last.Position())
		}
	}
	if d.RecordedAt.IsZero() {
		d.RecordedAt = i.now().UTC()
	}
	i.deliveries = append(i.deliveries, d)
	return d, nil
}

// Deliveries returns a copy of the log in append order.
func (i *Innings) Deliveries() []model.Delivery {
	i.mu.RLock()
	defer i.mu.RUnlock()
	return append([]model.Delivery(nil), i.deliveries...)
}

// Len returns the number of recorded deliveries.
func (i *Innings) Len() int {
	i.mu.RLock()
	defer i.mu.RUnlock()
	return len(i.deliveries)
}

// Last returns the most recent delivery, if any.
func (i *Innings) Last() (model.Delivery, bool) {
	i.mu.RLock()
	defer i.mu.RUnlock()
	if len(i.deliveries) == 0 {
		return model.Delivery{}, false
	}
	return i.deliveries[len(i.deliveries)-1], true
}

// State returns a consistent copy of the innings.
func (i *Innings) State() State {
	i.mu.RLock()
	defer i.mu.RUnlock()
	return State{
		Key:        i.key,
		Status:     i.status,
		Deliveries: append([]model.Delivery(nil), i.deliveries...),
		StartedAt:  i.startedAt,
		EndedAt:    i.endedAt,
	}
}
