package rest

import (
	"github.com/mentawai-market/price-board/internal/board"
	"github.com/mentawai-market/price-board/internal/domain"
)

// SubmitReportRequest is the body of POST /api/v1/reports.
type SubmitReportRequest struct {
	Commodity  string `json:"commodity"`
	UnitPrice  int64  `json:"unit_price"`
	Village    string `json:"village"`
	District   string `json:"district"`
	SourceRole string `json:"source_role"`
	Note       string `json:"note"`
}

// ListReportsResponse is the body of GET /api/v1/reports.
type ListReportsResponse struct {
	Reports []domain.Report `json:"reports"`
	Count   int             `json:"count"`
}

// StatsResponse is the body of GET /api/v1/reports/stats.
type StatsResponse = board.StatsResult

// PurgeRequest is the body of POST /api/v1/admin/purge.
type PurgeRequest struct {
	OlderThanDays int `json:"older_than_days"`
}

// WipeRequest is the body of POST /api/v1/admin/wipe.
type WipeRequest struct {
	Confirmation string `json:"confirmation"`
}

// PurgeResponse reports how many records a purge or wipe removed.
type PurgeResponse struct {
	Deleted int64 `json:"deleted"`
}

// HealthResponse is the body of GET /health.
type HealthResponse struct {
	Status string `json:"status"`
}
