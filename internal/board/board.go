package board

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/mentawai-market/price-board/internal/cache"
	"github.com/mentawai-market/price-board/internal/domain"
	"github.com/mentawai-market/price-board/internal/query"
	"github.com/mentawai-market/price-board/internal/stats"
	"github.com/mentawai-market/price-board/internal/store"
)

// DefaultReadLimit bounds the working set loaded from the store. The board
// serves the most recent reports; anything older is the retention engine's
// problem, not the reader's.
const DefaultReadLimit = 500

// StatsResult pairs the numeric summary with the commodity frequency ranking
// for one filtered working set.
type StatsResult struct {
	Summary stats.Summary          `json:"summary"`
	Top     []stats.CommodityCount `json:"top_commodities,omitempty"`
}

// Service is the read side of the board: it loads the latest working set
// through the snapshot cache and answers filtered queries and statistics
// over it. All filtering happens in memory on the cached set, so one store
// round-trip serves many differently-filtered reads.
type Service struct {
	store  store.Store
	cache  *cache.Snapshot
	limit  int
	now    func() time.Time
	logger *zap.Logger
}

// NewService creates a board read service. limit <= 0 selects
// DefaultReadLimit; now defaults to time.Now.
func NewService(st store.Store, snap *cache.Snapshot, limit int, now func() time.Time, logger *zap.Logger) *Service {
	if limit <= 0 {
		limit = DefaultReadLimit
	}
	if now == nil {
		now = time.Now
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Service{store: st, cache: snap, limit: limit, now: now, logger: logger}
}

// Snapshot returns the latest working set, newest first, serving from cache
// when warm. A store failure is wrapped as ErrStoreUnavailable so callers
// can distinguish "board unreachable" from an empty board.
func (s *Service) Snapshot(ctx context.Context) ([]domain.Report, error) {
	reports, err := s.cache.Load(ctx, func(ctx context.Context) ([]domain.Report, error) {
		rows, err := s.store.ListReports(ctx, s.limit)
		if err != nil {
			return nil, fmt.Errorf("%w: %v", domain.ErrStoreUnavailable, err)
		}
		return store.ToDomainAll(rows), nil
	})
	if err != nil {
		if !errors.Is(err, domain.ErrStoreUnavailable) {
			err = fmt.Errorf("%w: %v", domain.ErrStoreUnavailable, err)
		}
		s.logger.Warn("Board snapshot load failed", zap.Error(err))
		return nil, err
	}
	return reports, nil
}

// Query returns the working set narrowed by filters.
func (s *Service) Query(ctx context.Context, filters query.Filters) ([]domain.Report, error) {
	reports, err := s.Snapshot(ctx)
	if err != nil {
		return nil, err
	}
	return query.Apply(reports, filters, s.now().UTC()), nil
}

// Stats summarizes the working set narrowed by filters. topN > 0 adds the
// commodity frequency ranking.
func (s *Service) Stats(ctx context.Context, filters query.Filters, topN int) (StatsResult, error) {
	reports, err := s.Query(ctx, filters)
	if err != nil {
		return StatsResult{}, err
	}
	return StatsResult{
		Summary: stats.Summarize(reports),
		Top:     stats.TopCommodities(reports, topN),
	}, nil
}
