package retention

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/mentawai-market/price-board/internal/cache"
	"github.com/mentawai-market/price-board/internal/domain"
	"github.com/mentawai-market/price-board/internal/store"
)

// WipeConfirmation is the exact phrase an operator must type to erase the
// whole board. Case variations and whitespace do not match.
const WipeConfirmation = "DELETE ALL"

// DefaultBatchSize bounds one delete batch against the store's write-batch
// limits.
const DefaultBatchSize = 400

// Purger removes records from the store, bypassing the read cache and
// invalidating it after any deletion. Batches commit independently: a
// failure mid-purge leaves earlier batches deleted (at-least-once per
// batch, not all-or-nothing).
type Purger struct {
	store     store.Store
	cache     *cache.Snapshot
	batchSize int
	now       func() time.Time
	logger    *zap.Logger
}

// NewPurger creates a purge engine. batchSize <= 0 selects DefaultBatchSize;
// now defaults to time.Now.
func NewPurger(st store.Store, snap *cache.Snapshot, batchSize int, now func() time.Time, logger *zap.Logger) *Purger {
	if batchSize <= 0 {
		batchSize = DefaultBatchSize
	}
	if now == nil {
		now = time.Now
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Purger{store: st, cache: snap, batchSize: batchSize, now: now, logger: logger}
}

// PurgeOlderThan deletes every record observed more than days ago and
// returns the total deleted. It is idempotent: a second run with no new old
// data deletes nothing.
func (p *Purger) PurgeOlderThan(ctx context.Context, days int) (int64, error) {
	if days <= 0 {
		return 0, fmt.Errorf("cutoff must be positive, got %d days", days)
	}

	cutoff := p.now().UTC().AddDate(0, 0, -days)
	deleted, err := p.drain(ctx, func(ctx context.Context) (int64, error) {
		return p.store.DeleteReportsBefore(ctx, cutoff, p.batchSize)
	})

	if deleted > 0 {
		p.logger.Info("Purged aged price reports",
			zap.Int64("deleted", deleted),
			zap.Int("cutoff_days", days),
		)
	}
	return deleted, err
}

// PurgeAll erases the entire collection. It proceeds only when confirmation
// equals WipeConfirmation exactly; otherwise nothing is deleted and
// domain.ErrConfirmationRequired is returned.
func (p *Purger) PurgeAll(ctx context.Context, confirmation string) (int64, error) {
	if confirmation != WipeConfirmation {
		return 0, domain.ErrConfirmationRequired
	}

	deleted, err := p.drain(ctx, func(ctx context.Context) (int64, error) {
		return p.store.DeleteReportsBatch(ctx, p.batchSize)
	})

	if deleted > 0 {
		p.logger.Warn("Board wiped", zap.Int64("deleted", deleted))
	}
	return deleted, err
}

// drain runs deleteBatch until the store reports an empty batch. A failure
// after progress is surfaced as a PartialPurgeError carrying the count
// deleted so far; the cache is invalidated whenever anything was deleted.
func (p *Purger) drain(ctx context.Context, deleteBatch func(context.Context) (int64, error)) (int64, error) {
	var deleted int64
	for {
		n, err := deleteBatch(ctx)
		deleted += n
		if err != nil {
			p.invalidate(ctx, deleted)
			if deleted > 0 {
				return deleted, &domain.PartialPurgeError{Deleted: deleted, Err: err}
			}
			return 0, fmt.Errorf("delete batch: %w", err)
		}
		if n < int64(p.batchSize) {
			break
		}
	}

	p.invalidate(ctx, deleted)
	return deleted, nil
}

func (p *Purger) invalidate(ctx context.Context, deleted int64) {
	if deleted > 0 {
		p.cache.Invalidate(ctx)
	}
}
