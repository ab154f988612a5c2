package repository

import (
	"context"
	"fmt"
	"hash/fnv"
	"sort"
	"strconv"
	"sync"
	"time"

	"github.com/okian/wicket/internal/domain/innings"
	"github.com/okian/wicket/internal/domain/model"
	"github.com/okian/wicket/pkg/metrics"
)

const (
	defaultShardCount            = 16
	defaultMetricsUpdateInterval = 5 * time.Second
)

type shard struct {
	mu      sync.RWMutex
	innings map[model.InningsKey]*innings.Innings
}

// ShardedStore is an in-memory Store. Keys are spread over a fixed number of
// shards so that lookups for unrelated matches do not contend on one lock.
// Each Innings serializes its own appends.
type ShardedStore struct {
	shards                []*shard
	shardCount            int
	inningsOpts           []innings.Option
	metricsUpdateInterval time.Duration

	wg       sync.WaitGroup
	stopChan chan struct{}
	stopOnce sync.Once
}

// NewShardedStore constructs a store and starts its metrics updater, which
// stops when ctx is cancelled or Close is called.
func NewShardedStore(ctx context.Context, opts ...Option) *ShardedStore {
	s := &ShardedStore{
		shardCount:            defaultShardCount,
		metricsUpdateInterval: defaultMetricsUpdateInterval,
		stopChan:              make(chan struct{}),
	}
	for _, opt := range opts {
		opt(s)
	}
	s.shards = newShards(s.shardCount)
	s.startMetricsUpdater(ctx)
	return s
}

func newShards(n int) []*shard {
	out := make([]*shard, n)
	for i := range out {
		out[i] = &shard{innings: make(map[model.InningsKey]*innings.Innings)}
	}
	return out
}

func (s *ShardedStore) shardIndex(key model.InningsKey) int {
	h := fnv.New32a()
	_, _ = h.Write([]byte(key.MatchID))
	_, _ = h.Write([]byte{0})
	_, _ = h.Write([]byte(strconv.Itoa(key.InningsNo)))
	return int(h.Sum32() % uint32(len(s.shards)))
}

func (s *ShardedStore) shardFor(key model.InningsKey) *shard {
	return s.shards[s.shardIndex(key)]
}

// GetOrCreate implements Store.GetOrCreate.
func (s *ShardedStore) GetOrCreate(_ context.Context, key model.InningsKey) *innings.Innings {
	sh := s.shardFor(key)

	sh.mu.RLock()
	in, ok := sh.innings[key]
	sh.mu.RUnlock()
	if ok {
		return in
	}

	sh.mu.Lock()
	defer sh.mu.Unlock()
	if in, ok := sh.innings[key]; ok {
		return in
	}
	in = innings.New(key, s.inningsOpts...)
	sh.innings[key] = in
	return in
}

// Get implements Store.Get.
func (s *ShardedStore) Get(_ context.Context, key model.InningsKey) (*innings.Innings, error) {
	sh := s.shardFor(key)
	sh.mu.RLock()
	defer sh.mu.RUnlock()

	in, ok := sh.innings[key]
	if !ok {
		metrics.RecordErrorByComponent("repository", "not_found")
		return nil, fmt.Errorf("%w: %s", ErrNotFound, key)
	}
	return in, nil
}

// List implements Store.List.
func (s *ShardedStore) List(_ context.Context) []model.InningsKey {
	var keys []model.InningsKey
	for _, sh := range s.shards {
		sh.mu.RLock()
		for k := range sh.innings {
			keys = append(keys, k)
		}
		sh.mu.RUnlock()
	}
	sortKeys(keys)
	return keys
}

// Count implements Store.Count.
func (s *ShardedStore) Count(_ context.Context) int {
	n := 0
	for _, sh := range s.shards {
		sh.mu.RLock()
		n += len(sh.innings)
		sh.mu.RUnlock()
	}
	return n
}

// Active returns the number of innings currently in progress.
func (s *ShardedStore) Active(ctx context.Context) int {
	n := 0
	for _, in := range s.all(ctx) {
		if in.Status() == model.StatusInProgress {
			n++
		}
	}
	return n
}

func (s *ShardedStore) all(_ context.Context) []*innings.Innings {
	var out []*innings.Innings
	for _, sh := range s.shards {
		sh.mu.RLock()
		for _, in := range sh.innings {
			out = append(out, in)
		}
		sh.mu.RUnlock()
	}
	return out
}

// replace swaps the whole contents for states. Shards are locked in index
// order so concurrent readers see either the old or the new innings per shard.
func (s *ShardedStore) replace(states []innings.State) {
	next := newShards(len(s.shards))
	for _, st := range states {
		idx := s.shardIndex(st.Key)
		next[idx].innings[st.Key] = innings.FromState(st, s.inningsOpts...)
	}
	for i, sh := range s.shards {
		sh.mu.Lock()
		sh.innings = next[i].innings
		sh.mu.Unlock()
	}
}

// Close stops the background metrics updater.
func (s *ShardedStore) Close() error {
	s.stopOnce.Do(func() { close(s.stopChan) })
	s.wg.Wait()
	return nil
}

func (s *ShardedStore) startMetricsUpdater(ctx context.Context) {
	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		ticker := time.NewTicker(s.metricsUpdateInterval)
		defer ticker.Stop()

		s.updateMetrics()
		for {
			select {
			case <-ctx.Done():
				return
			case <-s.stopChan:
				return
			case <-ticker.C:
				s.updateMetrics()
			}
		}
	}()
}

func (s *ShardedStore) updateMetrics() {
	total := 0
	for i, sh := range s.shards {
		sh.mu.RLock()
		n := len(sh.innings)
		sh.mu.RUnlock()
		metrics.UpdateRepositoryInningsPerShard(strconv.Itoa(i), n)
		total += n
	}
	metrics.UpdateRepositoryInnings(total)
}

func sortKeys(keys []model.InningsKey) {
	sort.Slice(keys, func(i, j int) bool {
		if keys[i].MatchID != keys[j].MatchID {
			return keys[i].MatchID < keys[j].MatchID
		}
		return keys[i].InningsNo < keys[j].InningsNo
	})
}
