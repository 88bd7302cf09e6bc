package ingest

import (
	"context"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/mentawai-market/price-board/internal/cache"
	"github.com/mentawai-market/price-board/internal/domain"
	"github.com/mentawai-market/price-board/internal/store"
	"github.com/mentawai-market/price-board/internal/store/schema"
)

// Submission is the raw user input for one price report.
type Submission struct {
	Commodity  string
	UnitPrice  int64
	Village    string
	District   string
	SourceRole string
	Note       string
}

// Service validates submissions and appends normalized reports to the store.
// Ingestion is append-only: no update or delete capability is exposed here.
type Service struct {
	store  store.Store
	cache  *cache.Snapshot
	now    func() time.Time
	logger *zap.Logger
}

// NewService creates an ingestion service. now defaults to time.Now.
func NewService(st store.Store, snap *cache.Snapshot, now func() time.Time, logger *zap.Logger) *Service {
	if now == nil {
		now = time.Now
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Service{store: st, cache: snap, now: now, logger: logger}
}

// Submit validates raw input, normalizes it into a report, appends it to the
// store, and invalidates the read cache. On validation failure nothing is
// written and the returned ValidationError names every failing field.
func (s *Service) Submit(ctx context.Context, in Submission) (domain.Report, error) {
	row, err := Normalize(in, s.now().UTC(), domain.StatusVerified)
	if err != nil {
		return domain.Report{}, err
	}

	if err := s.store.AppendReport(ctx, row); err != nil {
		return domain.Report{}, fmt.Errorf("append report: %w", err)
	}
	s.cache.Invalidate(ctx)

	s.logger.Info("Price report accepted",
		zap.String("commodity", row.Commodity),
		zap.Int64("unit_price", row.UnitPrice),
		zap.Stringp("location", row.Location),
	)

	return store.ToDomain(*row), nil
}

// Normalize validates a submission and builds the stored row. The bulk
// seed/backfill path reuses it with its own timestamp and status so every
// write obeys the same rules as interactive ingestion.
func Normalize(in Submission, observedAt time.Time, status domain.Status) (*schema.PriceReport, error) {
	village := strings.TrimSpace(in.Village)

	// Price and location are checked together: either failing yields the
	// same rejection, with no partial acceptance.
	var fields []string
	if in.UnitPrice <= 0 {
		fields = append(fields, "unit_price")
	}
	if village == "" {
		fields = append(fields, "village")
	}
	if !domain.KnownCommodity(strings.TrimSpace(in.Commodity)) {
		fields = append(fields, "commodity")
	}
	if !domain.KnownDistrict(in.District) {
		fields = append(fields, "district")
	}
	if !domain.KnownSourceRole(in.SourceRole) {
		fields = append(fields, "source_role")
	}
	if len(fields) > 0 {
		return nil, &domain.ValidationError{Fields: fields}
	}

	display := domain.FormatRupiah(in.UnitPrice)
	location := domain.ComposeLocation(village, in.District)
	source := in.SourceRole
	note := strings.TrimSpace(in.Note)
	if note == "" {
		note = domain.NoteNone
	}

	return &schema.PriceReport{
		Commodity:    strings.TrimSpace(in.Commodity),
		UnitPrice:    in.UnitPrice,
		PriceDisplay: &display,
		Location:     &location,
		Source:       &source,
		Note:         &note,
		Status:       string(status),
		ObservedAt:   observedAt.UTC(),
	}, nil
}
