// Package service wires the innings store, dedupe window and projection
// pipeline into the operations served over HTTP.
package service

import (
	"context"
	"errors"
	"fmt"
	"runtime"
	"sync"
	"time"

	"github.com/google/uuid"

	eventqueue "github.com/okian/wicket/internal/adapters/mq/queue"
	workerpool "github.com/okian/wicket/internal/adapters/mq/worker"
	"github.com/okian/wicket/internal/adapters/repository"
	"github.com/okian/wicket/internal/domain/dedupe"
	"github.com/okian/wicket/internal/domain/innings"
	"github.com/okian/wicket/internal/domain/model"
	"github.com/okian/wicket/internal/domain/scoring"
	"github.com/okian/wicket/internal/domain/types"
	"github.com/okian/wicket/pkg/logger"
	"github.com/okian/wicket/pkg/metrics"
)

const (
	systemMetricsInterval = 10 * time.Second
	stopTimeout           = 10 * time.Second
)

// Service implements the scoring operations.
type Service struct {
	mu sync.RWMutex

	store   *repository.ShardedStore
	board   *repository.Board
	deduper dedupe.Deduper
	queue   eventqueue.Queue
	pool    *workerpool.Pool

	workerCount      int
	queueSize        int
	dedupeSize       int
	shardCount       int
	strictBallOrder  bool
	dataFile         string
	snapshotInterval time.Duration
	now              func() time.Time

	started bool
	stopCh  chan struct{}
	wg      sync.WaitGroup

	logger logger.Logger
}

// New constructs a Service. Nothing runs until Start.
func New(opts ...Option) *Service {
	s := &Service{
		workerCount: runtime.NumCPU(),
		queueSize:   10_000,
		dedupeSize:  100_000,
		shardCount:  16,
		now:         time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.logger == nil {
		s.logger = logger.Get().Named("service")
	}
	return s
}

// Start builds the components, restores the data file when configured and
// launches the projection workers.
func (s *Service) Start(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.started {
		return nil
	}

	s.store = repository.NewShardedStore(ctx,
		repository.WithShardCount(s.shardCount),
		repository.WithInningsOptions(
			innings.WithStrictBallOrder(s.strictBallOrder),
			innings.WithClock(s.now),
		),
	)
	s.board = repository.NewBoard()
	s.deduper = dedupe.NewInMemoryDeduper(dedupe.WithMaxSize(s.dedupeSize))
	s.queue = eventqueue.NewInMemoryQueue(eventqueue.WithCapacity(s.queueSize))

	if s.dataFile != "" {
		restored, err := repository.RestoreFile(ctx, s.store, s.dataFile)
		if err != nil {
			_ = s.store.Close()
			return fmt.Errorf("restore %s: %w", s.dataFile, err)
		}
		if restored {
			ids := s.recordRestoredIDs(ctx)
			s.logger.Info(ctx, "restored innings from data file",
				logger.String("path", s.dataFile),
				logger.Int("innings", s.store.Count(ctx)),
				logger.Int("deliveryIDs", ids),
			)
		}
	}

	s.pool = workerpool.NewPool(s.workerCount, s.queue, workerpool.ProjectorFunc(s.project))
	s.pool.Start(ctx)
	for _, key := range s.store.List(ctx) {
		s.schedule(ctx, key)
	}

	s.stopCh = make(chan struct{})
	s.startBackground(ctx)

	s.started = true
	s.logger.Info(ctx, "scoring service started",
		logger.Int("workers", s.pool.Size()),
		logger.Int("queueSize", s.queueSize),
		logger.Int("dedupeSize", s.dedupeSize),
		logger.Int("shards", s.shardCount),
		logger.Bool("strictBallOrder", s.strictBallOrder),
	)
	return nil
}

// recordRestoredIDs seeds the deduper with every delivery_id in the restored
// logs so that a retry spanning a restart is still answered as a duplicate.
func (s *Service) recordRestoredIDs(ctx context.Context) int {
	n := 0
	for _, key := range s.store.List(ctx) {
		in, err := s.store.Get(ctx, key)
		if err != nil {
			continue
		}
		for _, d := range in.Deliveries() {
			if d.DeliveryID == "" {
				continue
			}
			s.deduper.SeenAndRecord(ctx, dedupe.Key(key, d.DeliveryID))
			n++
		}
	}
	return n
}

// Stop drains the projection queue, saves the data file when configured and
// releases background goroutines.
func (s *Service) Stop(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.started {
		return nil
	}
	s.logger.Info(ctx, "stopping scoring service...")

	close(s.stopCh)
	s.wg.Wait()

	stopCtx, cancel := context.WithTimeout(ctx, stopTimeout)
	defer cancel()

	var errs []error
	if err := s.pool.Shutdown(stopCtx); err != nil {
		errs = append(errs, err)
	}
	if s.dataFile != "" {
		if err := repository.SaveFile(stopCtx, s.store, s.dataFile); err != nil {
			errs = append(errs, fmt.Errorf("save %s: %w", s.dataFile, err))
		} else {
			s.logger.Info(ctx, "saved innings to data file", logger.String("path", s.dataFile))
		}
	}
	_ = s.store.Close()

	s.started = false
	s.logger.Info(ctx, "scoring service stopped")
	return errors.Join(errs...)
}

func (s *Service) startBackground(ctx context.Context) {
	if s.dataFile != "" && s.snapshotInterval > 0 {
		s.wg.Add(1)
		go func() {
			defer s.wg.Done()
			ticker := time.NewTicker(s.snapshotInterval)
			defer ticker.Stop()
			for {
				select {
				case <-ctx.Done():
					return
				case <-s.stopCh:
					return
				case <-ticker.C:
					if err := repository.SaveFile(ctx, s.store, s.dataFile); err != nil {
						s.logger.Error(ctx, "periodic snapshot failed", logger.Error(err))
					}
				}
			}
		}()
	}

	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		ticker := time.NewTicker(systemMetricsInterval)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-s.stopCh:
				return
			case <-ticker.C:
				var m runtime.MemStats
				runtime.ReadMemStats(&m)
				metrics.UpdateSystemMemoryUsage(m.HeapAlloc)
				metrics.UpdateSystemGoroutineCount(runtime.NumGoroutine())
				metrics.UpdateInningsActive(s.store.Active(ctx))
			}
		}
	}()
}

// components returns the running store, or ErrNotStarted.
func (s *Service) components() (*repository.ShardedStore, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if !s.started {
		return nil, ErrNotStarted
	}
	return s.store, nil
}

// StartInnings moves an innings to in_progress, registering it on first use.
func (s *Service) StartInnings(ctx context.Context, key model.InningsKey) innings.Result {
	store, err := s.components()
	if err == nil {
		err = key.Validate()
	}
	if err == nil {
		err = store.GetOrCreate(ctx, key).Start()
	}
	return s.transitioned(ctx, key, model.StatusInProgress, err)
}

// EndInnings moves an innings to ended. An unknown innings is treated as
// not_started and rejected without being registered.
func (s *Service) EndInnings(ctx context.Context, key model.InningsKey) innings.Result {
	store, err := s.components()
	if err == nil {
		err = key.Validate()
	}
	if err == nil {
		var in *innings.Innings
		in, err = store.Get(ctx, key)
		switch {
		case errors.Is(err, repository.ErrNotFound):
			err = fmt.Errorf("%w: cannot end innings %s from %s", innings.ErrInvalidTransition, key, model.StatusNotStarted)
		case err == nil:
			err = in.End()
		}
	}
	return s.transitioned(ctx, key, model.StatusEnded, err)
}

func (s *Service) transitioned(ctx context.Context, key model.InningsKey, to model.Status, err error) innings.Result {
	res := innings.ResultOf(err)
	if err != nil {
		metrics.RecordErrorByComponent("innings", res.Code)
		s.logger.Warn(ctx, "innings transition rejected",
			logger.String("innings", key.String()),
			logger.String("to", string(to)),
			logger.String("reason", res.Reason),
		)
		return res
	}
	metrics.RecordInningsTransition(string(to))
	s.logger.Info(ctx, "innings transitioned",
		logger.String("innings", key.String()),
		logger.String("status", string(to)),
	)
	s.schedule(ctx, key)
	return res
}

// AppendDelivery validates d, assigns a delivery_id when absent and appends
// it to the innings. A delivery_id already recorded for this innings is
// answered with ok and Duplicate set, without a second append. The stored
// delivery is returned on success.
func (s *Service) AppendDelivery(ctx context.Context, key model.InningsKey, d model.Delivery) (model.Delivery, innings.Result) {
	stored, dup, err := s.appendDelivery(ctx, key, d)
	res := innings.ResultOf(err)
	switch {
	case err != nil:
		metrics.RecordDeliveryRejected(res.Code)
		s.logger.Warn(ctx, "delivery rejected",
			logger.String("innings", key.String()),
			logger.String("position", d.Position()),
			logger.String("reason", res.Reason),
		)
	case dup:
		res.Duplicate = true
		metrics.RecordDeliveryDuplicate()
		s.logger.Debug(ctx, "duplicate delivery ignored",
			logger.String("innings", key.String()),
			logger.String("delivery_id", stored.DeliveryID),
		)
	default:
		metrics.RecordDeliveryAppended(string(stored.Extras))
		s.schedule(ctx, key)
	}
	return stored, res
}

func (s *Service) appendDelivery(ctx context.Context, key model.InningsKey, d model.Delivery) (model.Delivery, bool, error) {
	store, err := s.components()
	if err != nil {
		return model.Delivery{}, false, err
	}
	if err := key.Validate(); err != nil {
		return model.Delivery{}, false, err
	}
	d = d.Normalize()
	if err := d.Validate(); err != nil {
		return model.Delivery{}, false, err
	}
	if d.DeliveryID == "" {
		d.DeliveryID = uuid.NewString()
	}

	in, err := store.Get(ctx, key)
	if errors.Is(err, repository.ErrNotFound) {
		return model.Delivery{}, false, fmt.Errorf("%w: innings %s is %s", innings.ErrInningsNotActive, key, model.StatusNotStarted)
	}
	if err != nil {
		return model.Delivery{}, false, err
	}

	return in.AppendOnce(ctx, d, dedupe.Key(key, d.DeliveryID), s.deduper)
}

// ListDeliveries returns the innings log in append order.
func (s *Service) ListDeliveries(ctx context.Context, key model.InningsKey) ([]model.Delivery, error) {
	in, err := s.lookup(ctx, key)
	if err != nil {
		return nil, err
	}
	return in.Deliveries(), nil
}

// Scoreboard aggregates the current log of an innings.
func (s *Service) Scoreboard(ctx context.Context, key model.InningsKey) (types.Scoreboard, error) {
	in, err := s.lookup(ctx, key)
	if err != nil {
		return types.Scoreboard{}, err
	}
	st := in.State()
	return types.Scoreboard{Key: key, Status: st.Status, Snapshot: aggregate(st.Deliveries)}, nil
}

// Innings returns the status of an innings and the suggested next ball.
func (s *Service) Innings(ctx context.Context, key model.InningsKey) (types.InningsView, error) {
	in, err := s.lookup(ctx, key)
	if err != nil {
		return types.InningsView{}, err
	}
	st := in.State()
	v := types.InningsView{Key: key, Status: st.Status, Deliveries: len(st.Deliveries)}
	lastOver, lastBall := 0, 0
	if n := len(st.Deliveries); n > 0 {
		lastOver, lastBall = st.Deliveries[n-1].OverNo, st.Deliveries[n-1].BallNo
	}
	v.NextOver, v.NextBall = scoring.NextBall(lastOver, lastBall)
	if !st.StartedAt.IsZero() {
		v.StartedAt = &st.StartedAt
	}
	if !st.EndedAt.IsZero() {
		v.EndedAt = &st.EndedAt
	}
	return v, nil
}

// ListInnings returns every known innings key.
func (s *Service) ListInnings(ctx context.Context) ([]model.InningsKey, error) {
	store, err := s.components()
	if err != nil {
		return nil, err
	}
	return store.List(ctx), nil
}

// LiveBoard returns up to limit projected scoreboards, most recent first.
// The board trails the innings logs by the projection queue.
func (s *Service) LiveBoard(ctx context.Context, limit int) ([]repository.LiveEntry, error) {
	if _, err := s.components(); err != nil {
		return nil, err
	}
	return s.board.Top(ctx, limit)
}

func (s *Service) lookup(ctx context.Context, key model.InningsKey) (*innings.Innings, error) {
	store, err := s.components()
	if err != nil {
		return nil, err
	}
	if err := key.Validate(); err != nil {
		return nil, err
	}
	return store.Get(ctx, key)
}

// schedule asks the workers to refresh the live board for key.
func (s *Service) schedule(ctx context.Context, key model.InningsKey) {
	if !s.queue.Enqueue(ctx, eventqueue.Job{Key: key, EnqueuedAt: s.now()}) {
		s.logger.Debug(ctx, "projection dropped", logger.String("innings", key.String()))
	}
}

// project is the worker body: aggregate the latest log and publish it.
func (s *Service) project(ctx context.Context, j eventqueue.Job) error {
	in, err := s.store.Get(ctx, j.Key)
	if err != nil {
		return err
	}
	st := in.State()
	s.board.Put(ctx, repository.LiveEntry{
		Key:       j.Key,
		Status:    st.Status,
		Snapshot:  aggregate(st.Deliveries),
		UpdatedAt: s.now().UTC(),
	})
	return nil
}

func aggregate(deliveries []model.Delivery) scoring.Snapshot {
	start := time.Now()
	snap := scoring.Aggregate(deliveries)
	metrics.RecordAggregateLatency(float64(time.Since(start).Microseconds()) / 1000)
	return snap
}

// GetStats returns service statistics for monitoring.
func (s *Service) GetStats() map[string]interface{} {
	s.mu.RLock()
	defer s.mu.RUnlock()

	ctx := context.Background()
	stats := map[string]interface{}{
		"started":         s.started,
		"workerCount":     s.workerCount,
		"queueSize":       s.queueSize,
		"dedupeSize":      s.dedupeSize,
		"shardCount":      s.shardCount,
		"strictBallOrder": s.strictBallOrder,
	}
	if s.started {
		stats["queueLength"] = s.queue.Len(ctx)
		stats["innings"] = s.store.Count(ctx)
		stats["activeInnings"] = s.store.Active(ctx)
		stats["boardSize"] = s.board.Len()
		stats["dedupeEntries"] = s.deduper.Size()
		stats["projections"] = s.pool.Processed()
	}
	return stats
}
