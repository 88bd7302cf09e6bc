package store

import (
	"context"
	"time"

	"github.com/mentawai-market/price-board/internal/store/schema"
)

// Store defines the interface for price report persistence
type Store interface {
	// AppendReport appends one report to the collection
	AppendReport(ctx context.Context, report *schema.PriceReport) error
	// ListReports retrieves up to limit reports ordered by observation time descending
	ListReports(ctx context.Context, limit int) ([]schema.PriceReport, error)
	// DeleteReportsBefore deletes at most limit reports observed before cutoff,
	// returning the number deleted. Callers loop to drain larger sets.
	DeleteReportsBefore(ctx context.Context, cutoff time.Time, limit int) (int64, error)
	// DeleteReportsBatch deletes at most limit reports regardless of age,
	// returning the number deleted
	DeleteReportsBatch(ctx context.Context, limit int) (int64, error)
	// Ping checks that the store is reachable
	Ping(ctx context.Context) error
}
