package service

import (
	"time"

	"github.com/okian/wicket/pkg/logger"
)

// Option applies a configuration option to the Service.
type Option func(*Service)

// WithWorkerCount sets the number of projection workers.
func WithWorkerCount(count int) Option {
	return func(s *Service) {
		if count > 0 {
			s.workerCount = count
		}
	}
}

// WithQueueSize sets the capacity of the projection queue.
func WithQueueSize(size int) Option {
	return func(s *Service) {
		if size > 0 {
			s.queueSize = size
		}
	}
}

// WithDedupeSize sets how many delivery ids are remembered. Zero or less
// remembers every id.
func WithDedupeSize(size int) Option {
	return func(s *Service) {
		s.dedupeSize = size
	}
}

// WithShardCount sets the number of innings store shards.
func WithShardCount(n int) Option {
	return func(s *Service) {
		if n > 0 {
			s.shardCount = n
		}
	}
}

// WithStrictBallOrder rejects deliveries positioned before the last one.
func WithStrictBallOrder(strict bool) Option {
	return func(s *Service) {
		s.strictBallOrder = strict
	}
}

// WithDataFile enables persistence to path: restored on Start, saved on Stop.
func WithDataFile(path string) Option {
	return func(s *Service) {
		s.dataFile = path
	}
}

// WithSnapshotInterval saves the data file periodically while running.
func WithSnapshotInterval(d time.Duration) Option {
	return func(s *Service) {
		if d >= 0 {
			s.snapshotInterval = d
		}
	}
}

// WithClock overrides the time source used for stamps.
func WithClock(now func() time.Time) Option {
	return func(s *Service) {
		if now != nil {
			s.now = now
		}
	}
}

// WithLogger sets a custom logger for the service.
func WithLogger(l logger.Logger) Option {
	return func(s *Service) {
		if l != nil {
			s.logger = l
		}
	}
}
