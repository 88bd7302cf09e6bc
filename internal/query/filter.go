package query

import (
	"sort"
	"strings"
	"time"

	"github.com/mentawai-market/price-board/internal/domain"
)

// CommodityAll is the sentinel that disables the commodity filter.
const CommodityAll = "all"

// Recency window bounds, in days.
const (
	MinWindowDays = 1
	MaxWindowDays = 30
)

// Sort selects the terminal ordering applied after filtering.
type Sort string

const (
	// SortNone keeps the input order (time-descending from the store)
	SortNone Sort = ""
	// SortNewest orders by observation time descending
	SortNewest Sort = "newest"
	// SortPriceDesc orders by numeric price descending
	SortPriceDesc Sort = "price_desc"
	// SortPriceAsc orders by numeric price ascending
	SortPriceAsc Sort = "price_asc"
)

// ValidSort reports whether s names a supported sort mode.
func ValidSort(s Sort) bool {
	switch s {
	case SortNone, SortNewest, SortPriceDesc, SortPriceAsc:
		return true
	}
	return false
}

// Filters are AND-composed over a snapshot of records. Zero values disable
// each filter.
type Filters struct {
	// Commodity is an exact match; "" or CommodityAll disables
	Commodity string
	// WithinDays keeps records observed in the last N days; 0 disables,
	// other values are clamped to [MinWindowDays, MaxWindowDays]
	WithinDays int
	// Location is a case-insensitive substring over the location field
	Location string
	// Search is a case-insensitive substring over all display fields
	Search string
	// SortBy is applied last; SortNone preserves input order
	SortBy Sort
}

// ClampWindow bounds a caller-supplied recency window to the sane range.
func ClampWindow(days int) int {
	if days < MinWindowDays {
		return MinWindowDays
	}
	if days > MaxWindowDays {
		return MaxWindowDays
	}
	return days
}

// Apply filters records against f. It is a pure, stable function over the
// in-memory snapshot: input order is preserved unless a terminal sort is
// requested, and an empty result is a normal outcome, never an error.
func Apply(records []domain.Report, f Filters, now time.Time) []domain.Report {
	out := make([]domain.Report, 0, len(records))

	var cutoff time.Time
	if f.WithinDays > 0 {
		cutoff = now.AddDate(0, 0, -ClampWindow(f.WithinDays))
	}

	commodity := strings.TrimSpace(f.Commodity)
	location := strings.ToLower(strings.TrimSpace(f.Location))
	search := strings.ToLower(strings.TrimSpace(f.Search))

	for _, r := range records {
		if commodity != "" && commodity != CommodityAll && r.Commodity != commodity {
			continue
		}
		if !cutoff.IsZero() && r.ObservedAt.Before(cutoff) {
			continue
		}
		if location != "" && !matchesLocation(r, location) {
			continue
		}
		if search != "" && !strings.Contains(rowText(r), search) {
			continue
		}
		out = append(out, r)
	}

	sortReports(out, f.SortBy)
	return out
}

// matchesLocation matches the location field case-insensitively. Records
// without a real location (the "-" fallback) never match a non-empty pattern.
func matchesLocation(r domain.Report, pattern string) bool {
	if r.Location == "" || r.Location == domain.NoteNone {
		return false
	}
	return strings.Contains(strings.ToLower(r.Location), pattern)
}

// rowText is the lowercased concatenation of all display fields, the target
// of the free-text row search.
func rowText(r domain.Report) string {
	return strings.ToLower(strings.Join([]string{
		r.Commodity,
		r.PriceDisplay,
		r.Location,
		r.Source,
		string(r.Status),
	}, " "))
}

func sortReports(reports []domain.Report, mode Sort) {
	switch mode {
	case SortNewest:
		sort.SliceStable(reports, func(i, j int) bool {
			return reports[i].ObservedAt.After(reports[j].ObservedAt)
		})
	case SortPriceDesc:
		sort.SliceStable(reports, func(i, j int) bool {
			return reports[i].UnitPrice > reports[j].UnitPrice
		})
	case SortPriceAsc:
		sort.SliceStable(reports, func(i, j int) bool {
			return reports[i].UnitPrice < reports[j].UnitPrice
		})
	}
}
