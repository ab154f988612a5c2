package repository

import (
	"time"

	"github.com/okian/wicket/internal/domain/innings"
)

// Option applies a configuration option to the ShardedStore.
type Option func(*ShardedStore)

// WithShardCount sets the number of lock shards. Values below one are ignored.
func WithShardCount(n int) Option {
	return func(s *ShardedStore) {
		if n > 0 {
			s.shardCount = n
		}
	}
}

// WithInningsOptions applies opts to every innings the store creates or restores.
func WithInningsOptions(opts ...innings.Option) Option {
	return func(s *ShardedStore) {
		s.inningsOpts = append(s.inningsOpts, opts...)
	}
}

// WithMetricsUpdateInterval sets the interval for background shard metrics.
func WithMetricsUpdateInterval(interval time.Duration) Option {
	return func(s *ShardedStore) {
		if interval > 0 {
			s.metricsUpdateInterval = interval
		}
	}
}
