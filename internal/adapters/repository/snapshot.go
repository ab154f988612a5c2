package repository

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	"github.com/vmihailenco/msgpack/v5"

	"github.com/okian/wicket/internal/domain/innings"
	"github.com/okian/wicket/pkg/metrics"
)

const snapshotVersion = 1

// snapshotFile is the msgpack document written by Save.
type snapshotFile struct {
	Version int             `msgpack:"version"`
	SavedAt time.Time       `msgpack:"saved_at"`
	Innings []innings.State `msgpack:"innings"`
}

// Save implements Store.Save. Innings are written in List order.
func (s *ShardedStore) Save(ctx context.Context, w io.Writer) error {
	start := time.Now()

	doc := snapshotFile{Version: snapshotVersion, SavedAt: start.UTC()}
	for _, key := range s.List(ctx) {
		in, err := s.Get(ctx, key)
		if err != nil {
			continue
		}
		doc.Innings = append(doc.Innings, in.State())
	}

	if err := msgpack.NewEncoder(w).Encode(&doc); err != nil {
		metrics.RecordErrorByComponent("repository", "snapshot_encode")
		return fmt.Errorf("encode snapshot: %w", err)
	}
	metrics.RecordRepositorySnapshot(float64(time.Since(start).Microseconds())/1000, start.Unix())
	return nil
}

// Restore implements Store.Restore.
func (s *ShardedStore) Restore(_ context.Context, r io.Reader) error {
	var doc snapshotFile
	if err := msgpack.NewDecoder(r).Decode(&doc); err != nil {
		metrics.RecordErrorByComponent("repository", "snapshot_decode")
		return fmt.Errorf("decode snapshot: %w", err)
	}
	if doc.Version != snapshotVersion {
		return fmt.Errorf("%w: %d", ErrSnapshotVersion, doc.Version)
	}
	for _, st := range doc.Innings {
		if err := st.Key.Validate(); err != nil {
			return fmt.Errorf("decode snapshot: %w", err)
		}
	}
	s.replace(doc.Innings)
	s.updateMetrics()
	return nil
}

// SaveFile writes a snapshot of st to path, replacing any previous file only
// once the new one is fully written.
func SaveFile(ctx context.Context, st Store, path string) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("create snapshot dir: %w", err)
	}
	tmp, err := os.CreateTemp(dir, filepath.Base(path)+".*.tmp")
	if err != nil {
		return fmt.Errorf("create snapshot: %w", err)
	}
	defer func() { _ = os.Remove(tmp.Name()) }()

	if err := st.Save(ctx, tmp); err != nil {
		_ = tmp.Close()
		return err
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("close snapshot: %w", err)
	}
	if err := os.Rename(tmp.Name(), path); err != nil {
		return fmt.Errorf("rename snapshot: %w", err)
	}
	return nil
}

// RestoreFile loads a snapshot from path into st. A missing file is not an
// error and reports false.
func RestoreFile(ctx context.Context, st Store, path string) (bool, error) {
	f, err := os.Open(path)
	if errors.Is(err, os.ErrNotExist) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("open snapshot: %w", err)
	}
	defer func() { _ = f.Close() }()

	if err := st.Restore(ctx, f); err != nil {
		return false, err
	}
	return true, nil
}
