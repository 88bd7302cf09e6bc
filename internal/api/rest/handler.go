package rest

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/mentawai-market/price-board/internal/board"
	"github.com/mentawai-market/price-board/internal/domain"
	"github.com/mentawai-market/price-board/internal/ingest"
	"github.com/mentawai-market/price-board/internal/retention"
	"github.com/mentawai-market/price-board/internal/store"
)

// Handler defines the interface for REST API handlers
// This interface allows for easy mocking and testing
type Handler interface {
	// SubmitReport accepts one community price report
	// POST /api/v1/reports
	SubmitReport(c *gin.Context)

	// ListReports retrieves the board filtered by query parameters
	// GET /api/v1/reports?commodity=<name>&days=<n>&location=<substr>&q=<substr>&sort=<mode>&limit=<n>
	ListReports(c *gin.Context)

	// GetStats summarizes the filtered board
	// GET /api/v1/reports/stats?commodity=<name>&days=<n>&location=<substr>&q=<substr>&top=<n>
	GetStats(c *gin.Context)

	// PurgeOld deletes reports older than a cutoff
	// POST /api/v1/admin/purge
	PurgeOld(c *gin.Context)

	// WipeAll erases the whole board after explicit confirmation
	// POST /api/v1/admin/wipe
	WipeAll(c *gin.Context)

	// HealthCheck returns the health status of the API
	// GET /health
	HealthCheck(c *gin.Context)
}

// handler implements the Handler interface
type handler struct {
	board  *board.Service
	ingest *ingest.Service
	purger *retention.Purger
	store  store.Store
}

// NewHandler creates a new REST API handler
func NewHandler(boardSvc *board.Service, ingestSvc *ingest.Service, purger *retention.Purger, st store.Store) Handler {
	return &handler{
		board:  boardSvc,
		ingest: ingestSvc,
		purger: purger,
		store:  st,
	}
}

// SubmitReport accepts one community price report
func (h *handler) SubmitReport(c *gin.Context) {
	var req SubmitReportRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBadRequest(c, "Invalid request body", err.Error())
		return
	}

	report, err := h.ingest.Submit(c.Request.Context(), ingest.Submission{
		Commodity:  req.Commodity,
		UnitPrice:  req.UnitPrice,
		Village:    req.Village,
		District:   req.District,
		SourceRole: req.SourceRole,
		Note:       req.Note,
	})
	if err != nil {
		var verr *domain.ValidationError
		if errors.As(err, &verr) {
			respondValidationError(c, verr.Error())
			return
		}
		respondStoreUnavailable(c, err)
		return
	}

	c.JSON(http.StatusCreated, report)
}

// ListReports retrieves the board filtered by query parameters
func (h *handler) ListReports(c *gin.Context) {
	params, err := ParseListReportsQuery(c)
	if err != nil {
		respondBadRequest(c, "Invalid query parameters", err.Error())
		return
	}

	reports, err := h.board.Query(c.Request.Context(), params.Filters())
	if err != nil {
		respondStoreUnavailable(c, err)
		return
	}

	if params.Limit > 0 && len(reports) > params.Limit {
		reports = reports[:params.Limit]
	}

	c.JSON(http.StatusOK, ListReportsResponse{Reports: reports, Count: len(reports)})
}

// GetStats summarizes the filtered board
func (h *handler) GetStats(c *gin.Context) {
	params, err := ParseStatsQuery(c)
	if err != nil {
		respondBadRequest(c, "Invalid query parameters", err.Error())
		return
	}

	result, err := h.board.Stats(c.Request.Context(), params.Filters(), params.Top)
	if err != nil {
		respondStoreUnavailable(c, err)
		return
	}

	c.JSON(http.StatusOK, result)
}

// PurgeOld deletes reports older than a cutoff
func (h *handler) PurgeOld(c *gin.Context) {
	var req PurgeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBadRequest(c, "Invalid request body", err.Error())
		return
	}
	if req.OlderThanDays <= 0 {
		respondBadRequest(c, "older_than_days must be positive")
		return
	}

	deleted, err := h.purger.PurgeOlderThan(c.Request.Context(), req.OlderThanDays)
	if err != nil {
		respondPurgeError(c, deleted, err)
		return
	}

	c.JSON(http.StatusOK, PurgeResponse{Deleted: deleted})
}

// WipeAll erases the whole board after explicit confirmation
func (h *handler) WipeAll(c *gin.Context) {
	var req WipeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBadRequest(c, "Invalid request body", err.Error())
		return
	}

	deleted, err := h.purger.PurgeAll(c.Request.Context(), req.Confirmation)
	if err != nil {
		if errors.Is(err, domain.ErrConfirmationRequired) {
			respondBadRequest(c, "Confirmation phrase does not match",
				fmt.Sprintf("type %q to confirm", retention.WipeConfirmation))
			return
		}
		respondPurgeError(c, deleted, err)
		return
	}

	c.JSON(http.StatusOK, PurgeResponse{Deleted: deleted})
}

// respondPurgeError distinguishes a purge that made partial progress from
// one that failed outright: the caller needs the deleted-so-far count to
// decide whether to re-run.
func respondPurgeError(c *gin.Context, deleted int64, err error) {
	var perr *domain.PartialPurgeError
	if errors.As(err, &perr) {
		respondWithError(c, http.StatusInternalServerError, errCodeIncompleteDeletion,
			"Purge interrupted, re-run to finish",
			fmt.Sprintf("deleted %d records before the failure", perr.Deleted))
		return
	}
	respondInternalError(c, err, "Purge failed", zap.Int64("deleted", deleted))
}

// HealthCheck returns the health status of the API
func (h *handler) HealthCheck(c *gin.Context) {
	if err := h.store.Ping(c.Request.Context()); err != nil {
		respondStoreUnavailable(c, err)
		return
	}
	c.JSON(http.StatusOK, HealthResponse{Status: "ok"})
}
