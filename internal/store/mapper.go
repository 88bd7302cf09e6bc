package store

import (
	"github.com/mentawai-market/price-board/internal/domain"
	"github.com/mentawai-market/price-board/internal/store/schema"
)

// ToDomain converts a stored row into the domain view, applying the legacy
// fallback rules once: display price falls back to the scraped headline,
// location falls back to the source text. Partial rows never fail here.
func ToDomain(r schema.PriceReport) domain.Report {
	report := domain.Report{
		ID:         r.ID,
		Commodity:  r.Commodity,
		UnitPrice:  r.UnitPrice,
		Status:     domain.Status(r.Status),
		ObservedAt: r.ObservedAt,
	}

	report.PriceDisplay = firstText(r.PriceDisplay, r.Headline)
	report.Location = firstText(r.Location, r.Source)
	report.Source = firstText(r.Source)
	report.Note = firstText(r.Note)

	if report.Status == "" {
		report.Status = domain.StatusLegacy
	}

	return report
}

// ToDomainAll converts stored rows in order.
func ToDomainAll(rows []schema.PriceReport) []domain.Report {
	reports := make([]domain.Report, len(rows))
	for i, row := range rows {
		reports[i] = ToDomain(row)
	}
	return reports
}

// firstText returns the first non-empty candidate, or the "-" sentinel.
func firstText(candidates ...*string) string {
	for _, c := range candidates {
		if c != nil && *c != "" {
			return *c
		}
	}
	return domain.NoteNone
}
