package cache

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"go.uber.org/zap"

	"github.com/mentawai-market/price-board/internal/domain"
)

// snapshotKey holds the JSON-encoded latest board snapshot.
const snapshotKey = "price-board:reports:latest"

// DefaultTTL bounds how long a snapshot may be served without a write
// having invalidated it.
const DefaultTTL = 5 * time.Minute

// Snapshot is a time-bounded read cache for the board's working set.
// Every write path (ingest, purge, seed, scrape) must call Invalidate so the
// next read reflects the writer's own change instead of waiting out the TTL.
// A nil *Snapshot is valid and always falls through to the loader.
type Snapshot struct {
	kv     KVStore
	ttl    time.Duration
	logger *zap.Logger
}

// NewSnapshot creates a snapshot cache over kv. A nil kv disables caching.
func NewSnapshot(kv KVStore, ttl time.Duration, logger *zap.Logger) *Snapshot {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Snapshot{kv: kv, ttl: ttl, logger: logger}
}

// Load returns the cached snapshot, or fills it from loader on a miss.
// Cache failures degrade to a direct load; they never fail the read.
func (s *Snapshot) Load(ctx context.Context, loader func(context.Context) ([]domain.Report, error)) ([]domain.Report, error) {
	if s == nil || s.kv == nil {
		return loader(ctx)
	}

	raw, err := s.kv.Get(ctx, snapshotKey)
	if err == nil {
		var reports []domain.Report
		if err := json.Unmarshal([]byte(raw), &reports); err == nil {
			return reports, nil
		}
		// Corrupt payload: drop it and reload.
		s.logger.Warn("Dropping unreadable board snapshot", zap.String("key", snapshotKey))
		_ = s.kv.Del(ctx, snapshotKey)
	} else if !errors.Is(err, ErrCacheMiss) {
		s.logger.Warn("Snapshot cache read failed", zap.Error(err))
	}

	reports, err := loader(ctx)
	if err != nil {
		return nil, err
	}

	payload, err := json.Marshal(reports)
	if err != nil {
		s.logger.Warn("Failed to encode board snapshot", zap.Error(err))
		return reports, nil
	}
	if err := s.kv.Set(ctx, snapshotKey, string(payload), s.ttl); err != nil {
		s.logger.Warn("Snapshot cache write failed", zap.Error(err))
	}

	return reports, nil
}

// Invalidate drops the cached snapshot so the next read hits the store.
func (s *Snapshot) Invalidate(ctx context.Context) {
	if s == nil || s.kv == nil {
		return
	}
	if err := s.kv.Del(ctx, snapshotKey); err != nil {
		s.logger.Warn("Snapshot cache invalidation failed", zap.Error(err))
	}
}
