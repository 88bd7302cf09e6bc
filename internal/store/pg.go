package store

import (
	"context"
	"fmt"
	"time"

	"gorm.io/gorm"

	"github.com/mentawai-market/price-board/internal/store/schema"
)

type pgStore struct {
	db *gorm.DB
}

// NewPGStore creates a new PostgreSQL store instance
func NewPGStore(db *gorm.DB) Store {
	return &pgStore{db: db}
}

// AutoMigrate creates or updates the price_reports table. Intended for
// development setups; production schemas are managed externally.
func AutoMigrate(db *gorm.DB) error {
	return db.AutoMigrate(&schema.PriceReport{})
}

// ConfigureConnectionPool configures the connection pool settings for a GORM
// database connection. Zero values fall back to reasonable defaults:
//   - MaxOpenConns: 20
//   - MaxIdleConns: 5
//   - ConnMaxLifetime: 5 minutes
//   - ConnMaxIdleTime: 10 minutes
func ConfigureConnectionPool(db *gorm.DB, maxOpenConns, maxIdleConns int, connMaxLifetime, connMaxIdleTime time.Duration) error {
	sqlDB, err := db.DB()
	if err != nil {
		return fmt.Errorf("failed to get underlying sql.DB: %w", err)
	}

	if maxOpenConns == 0 {
		maxOpenConns = 20
	}
	if maxIdleConns == 0 {
		maxIdleConns = 5
	}
	if connMaxLifetime == 0 {
		connMaxLifetime = 5 * time.Minute
	}
	if connMaxIdleTime == 0 {
		connMaxIdleTime = 10 * time.Minute
	}
	if maxIdleConns > maxOpenConns {
		maxIdleConns = maxOpenConns
	}

	sqlDB.SetMaxOpenConns(maxOpenConns)
	sqlDB.SetMaxIdleConns(maxIdleConns)
	sqlDB.SetConnMaxLifetime(connMaxLifetime)
	sqlDB.SetConnMaxIdleTime(connMaxIdleTime)

	return nil
}

// AppendReport appends one report to the collection
func (s *pgStore) AppendReport(ctx context.Context, report *schema.PriceReport) error {
	if err := s.db.WithContext(ctx).Create(report).Error; err != nil {
		return fmt.Errorf("failed to append report: %w", err)
	}
	return nil
}

// ListReports retrieves up to limit reports ordered by observation time descending
func (s *pgStore) ListReports(ctx context.Context, limit int) ([]schema.PriceReport, error) {
	query := s.db.WithContext(ctx).
		Model(&schema.PriceReport{}).
		Order("observed_at DESC").
		Order("id DESC")
	if limit > 0 {
		query = query.Limit(limit)
	}

	var reports []schema.PriceReport
	if err := query.Find(&reports).Error; err != nil {
		return nil, fmt.Errorf("failed to list reports: %w", err)
	}

	return reports, nil
}

// DeleteReportsBefore deletes at most limit reports observed before cutoff.
// The id-subquery bounds the write batch; the oldest rows go first so a
// partially completed purge still makes monotonic progress.
func (s *pgStore) DeleteReportsBefore(ctx context.Context, cutoff time.Time, limit int) (int64, error) {
	res := s.db.WithContext(ctx).Exec(`
		DELETE FROM price_reports
		WHERE id IN (
			SELECT id FROM price_reports
			WHERE observed_at < ?
			ORDER BY observed_at ASC
			LIMIT ?
		)
	`, cutoff, limit)
	if res.Error != nil {
		return 0, fmt.Errorf("failed to delete reports before %s: %w", cutoff.Format(time.RFC3339), res.Error)
	}

	return res.RowsAffected, nil
}

// DeleteReportsBatch deletes at most limit reports regardless of age
func (s *pgStore) DeleteReportsBatch(ctx context.Context, limit int) (int64, error) {
	res := s.db.WithContext(ctx).Exec(`
		DELETE FROM price_reports
		WHERE id IN (
			SELECT id FROM price_reports
			ORDER BY id ASC
			LIMIT ?
		)
	`, limit)
	if res.Error != nil {
		return 0, fmt.Errorf("failed to delete report batch: %w", res.Error)
	}

	return res.RowsAffected, nil
}

// Ping checks that the store is reachable
func (s *pgStore) Ping(ctx context.Context) error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return fmt.Errorf("failed to get underlying sql.DB: %w", err)
	}
	if err := sqlDB.PingContext(ctx); err != nil {
		return fmt.Errorf("store unreachable: %w", err)
	}
	return nil
}
