package repository

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/okian/wicket/internal/domain/model"
	"github.com/okian/wicket/internal/domain/scoring"
)

// LiveEntry is the latest projected scoreboard of one innings.
type LiveEntry struct {
	Key       model.InningsKey `json:"key"`
	Status    model.Status     `json:"status"`
	Snapshot  scoring.Snapshot `json:"snapshot"`
	UpdatedAt time.Time        `json:"updated_at"`
}

// Board keeps one LiveEntry per innings. It is written by the projection
// workers and read by the live endpoint, so it may trail the innings log.
type Board struct {
	mu      sync.RWMutex
	entries map[model.InningsKey]LiveEntry
}

// NewBoard returns an empty board.
func NewBoard() *Board {
	return &Board{entries: make(map[model.InningsKey]LiveEntry)}
}

// Put stores e unless the board already holds a later projection of the
// same innings. It reports whether e was stored.
func (b *Board) Put(_ context.Context, e LiveEntry) bool {
	b.mu.Lock()
	defer b.mu.Unlock()

	if cur, ok := b.entries[e.Key]; ok && !supersedes(e, cur) {
		return false
	}
	b.entries[e.Key] = e
	return true
}

// Top returns up to n entries, most recently updated first.
func (b *Board) Top(_ context.Context, n int) ([]LiveEntry, error) {
	if n <= 0 {
		return nil, fmt.Errorf("%w: %d", ErrInvalidLimit, n)
	}

	b.mu.RLock()
	out := make([]LiveEntry, 0, len(b.entries))
	for _, e := range b.entries {
		out = append(out, e)
	}
	b.mu.RUnlock()

	sort.Slice(out, func(i, j int) bool {
		if !out[i].UpdatedAt.Equal(out[j].UpdatedAt) {
			return out[i].UpdatedAt.After(out[j].UpdatedAt)
		}
		if out[i].Key.MatchID != out[j].Key.MatchID {
			return out[i].Key.MatchID < out[j].Key.MatchID
		}
		return out[i].Key.InningsNo < out[j].Key.InningsNo
	})
	if len(out) > n {
		out = out[:n]
	}
	return out, nil
}

// Len returns the number of innings on the board.
func (b *Board) Len() int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return len(b.entries)
}

// supersedes orders projections by lifecycle first and log length second.
// The log only grows and status only advances, so a projection never loses
// information to one taken earlier.
func supersedes(next, cur LiveEntry) bool {
	if r1, r2 := statusRank(next.Status), statusRank(cur.Status); r1 != r2 {
		return r1 > r2
	}
	return next.Snapshot.Deliveries >= cur.Snapshot.Deliveries
}

func statusRank(s model.Status) int {
	switch s {
	case model.StatusInProgress:
		return 1
	case model.StatusEnded:
		return 2
	default:
		return 0
	}
}
