package simulator

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"math/rand"
	"os"
	"path/filepath"
	"sync"
	"sync/atomic"
	"time"

	"github.com/okian/wicket/pkg/logger"
)

const (
	directoryPermission = 0o750
	filePermission      = 0o600
)

// Run generates innings, scores them against the server at cfg.BaseURL and
// verifies every served scoreboard. Deliveries within one innings are posted
// in order; innings are posted concurrently by cfg.Workers goroutines.
func Run(ctx context.Context, cfg Config) (*Report, error) {
	log := logger.Get().Named("simulator")
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	if cfg.Seed == 0 {
		cfg.Seed = time.Now().UnixNano()
	}
	report := &Report{Stats: Stats{StartTime: time.Now()}}

	log.Info(ctx, "starting simulation",
		logger.String("baseURL", cfg.BaseURL),
		logger.Int("matches", cfg.Matches),
		logger.Int("inningsPerMatch", cfg.InningsPerMatch),
		logger.Int("overs", cfg.Overs),
		logger.Int("workers", cfg.Workers),
		logger.Any("seed", cfg.Seed),
	)

	client := NewClient(cfg.BaseURL, cfg.Timeout)
	if err := client.Health(ctx); err != nil {
		return nil, fmt.Errorf("service health check failed: %w", err)
	}

	report.Innings = GenerateAll(rand.New(rand.NewSource(cfg.Seed)), cfg)
	report.Stats.Innings = len(report.Innings)

	if err := score(ctx, client, cfg.Workers, report); err != nil {
		return nil, err
	}
	if err := verify(ctx, client, report); err != nil {
		return nil, err
	}

	if cfg.OutputFile != "" {
		if err := SaveInnings(cfg.OutputFile, report.Innings); err != nil {
			log.Warn(ctx, "failed to save generated innings", logger.Error(err))
		} else {
			log.Info(ctx, "generated innings saved", logger.String("file", cfg.OutputFile))
		}
	}

	report.Stats.EndTime = time.Now()
	report.Stats.Duration = report.Stats.EndTime.Sub(report.Stats.StartTime)
	log.Info(ctx, "simulation finished",
		logger.Int("deliveries", report.Stats.DeliveriesSent),
		logger.Int("mismatches", report.Stats.Mismatches),
		logger.Duration("duration", report.Stats.Duration),
	)
	return report, nil
}

func (cfg *Config) validate() error {
	switch {
	case cfg.BaseURL == "":
		return errors.New("base URL is required")
	case cfg.Matches < 1:
		return errors.New("matches must be at least 1")
	case cfg.InningsPerMatch < 1 || cfg.InningsPerMatch > 2:
		return errors.New("innings per match must be 1 or 2")
	case cfg.Overs < 1:
		return errors.New("overs must be at least 1")
	}
	if cfg.Workers < 1 {
		cfg.Workers = 1
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 10 * time.Second
	}
	return nil
}

// score posts every innings: start, each delivery, one replayed delivery to
// exercise idempotency, then end.
func score(ctx context.Context, client *Client, workers int, report *Report) error {
	var (
		sent, accepted, duplicates, rejected int64
		mu                                   sync.Mutex
		wg                                   sync.WaitGroup
	)
	problem := func(format string, args ...any) {
		mu.Lock()
		report.Problems = append(report.Problems, fmt.Sprintf(format, args...))
		mu.Unlock()
	}

	work := make(chan int, workers*2)
	for w := 0; w < workers; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for idx := range work {
				in := report.Innings[idx]
				if err := client.Start(ctx, in.Key); err != nil {
					problem("%s: start: %v", in.Key, err)
					continue
				}
				for _, d := range in.Deliveries {
					atomic.AddInt64(&sent, 1)
					res, err := client.Append(ctx, in.Key, d)
					switch {
					case err != nil:
						atomic.AddInt64(&rejected, 1)
						problem("%s %s: append: %v", in.Key, d.Position(), err)
					case res.Duplicate:
						atomic.AddInt64(&duplicates, 1)
						problem("%s %s: fresh delivery reported as duplicate", in.Key, d.Position())
					default:
						atomic.AddInt64(&accepted, 1)
					}
				}
				if len(in.Deliveries) > 0 {
					atomic.AddInt64(&sent, 1)
					res, err := client.Append(ctx, in.Key, in.Deliveries[0])
					if err != nil || !res.Duplicate {
						problem("%s: replayed delivery not reported as duplicate (err=%v)", in.Key, err)
					} else {
						atomic.AddInt64(&duplicates, 1)
					}
				}
				if err := client.End(ctx, in.Key); err != nil {
					problem("%s: end: %v", in.Key, err)
				}
			}
		}()
	}

feed:
	for i := range report.Innings {
		select {
		case <-ctx.Done():
			break feed
		case work <- i:
		}
	}
	close(work)
	wg.Wait()

	report.Stats.DeliveriesSent = int(sent)
	report.Stats.DeliveriesAccepted = int(accepted)
	report.Stats.Duplicates = int(duplicates)
	report.Stats.Rejected = int(rejected)
	if err := ctx.Err(); err != nil {
		return fmt.Errorf("simulation interrupted: %w", err)
	}
	return nil
}

// verify fetches each scoreboard and compares it with the local aggregation.
func verify(ctx context.Context, client *Client, report *Report) error {
	for _, in := range report.Innings {
		sb, err := client.Scoreboard(ctx, in.Key)
		if err != nil {
			if ctx.Err() != nil {
				return fmt.Errorf("verification interrupted: %w", ctx.Err())
			}
			report.Problems = append(report.Problems, fmt.Sprintf("%s: scoreboard: %v", in.Key, err))
			report.Stats.Mismatches++
			continue
		}
		if diffs := Compare(in.Expected(), sb.Snapshot); len(diffs) > 0 {
			report.Stats.Mismatches++
			for _, d := range diffs {
				report.Problems = append(report.Problems, fmt.Sprintf("%s: %s", in.Key, d))
			}
		}
	}
	return nil
}

// SaveInnings writes the generated innings as indented JSON.
func SaveInnings(path string, innings []Innings) error {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, directoryPermission); err != nil {
			return fmt.Errorf("failed to create directory: %w", err)
		}
	}
	data, err := json.MarshalIndent(innings, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal innings: %w", err)
	}
	return os.WriteFile(path, data, filePermission)
}
