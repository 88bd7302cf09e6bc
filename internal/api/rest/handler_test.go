package rest_test

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mentawai-market/price-board/internal/api/rest"
	"github.com/mentawai-market/price-board/internal/board"
	"github.com/mentawai-market/price-board/internal/domain"
	"github.com/mentawai-market/price-board/internal/ingest"
	"github.com/mentawai-market/price-board/internal/logger"
	"github.com/mentawai-market/price-board/internal/retention"
	"github.com/mentawai-market/price-board/internal/store/schema"
)

var now = time.Date(2026, 8, 28, 12, 0, 0, 0, time.UTC)

func fixedNow() time.Time { return now }

func TestMain(m *testing.M) {
	gin.SetMode(gin.TestMode)
	if err := logger.Initialize(logger.Config{Debug: true}); err != nil {
		panic(err)
	}
	m.Run()
}

type fakeStore struct {
	mu        sync.Mutex
	rows      []schema.PriceReport
	listErr   error
	appendErr error
	pingErr   error
}

func (f *fakeStore) AppendReport(ctx context.Context, report *schema.PriceReport) error {
	if f.appendErr != nil {
		return f.appendErr
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	report.ID = uint64(len(f.rows) + 1)
	f.rows = append(f.rows, *report)
	return nil
}

func (f *fakeStore) ListReports(ctx context.Context, limit int) ([]schema.PriceReport, error) {
	if f.listErr != nil {
		return nil, f.listErr
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.rows, nil
}

func (f *fakeStore) DeleteReportsBefore(ctx context.Context, cutoff time.Time, limit int) (int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var kept []schema.PriceReport
	var deleted int64
	for _, r := range f.rows {
		if deleted < int64(limit) && r.ObservedAt.Before(cutoff) {
			deleted++
			continue
		}
		kept = append(kept, r)
	}
	f.rows = kept
	return deleted, nil
}

func (f *fakeStore) DeleteReportsBatch(ctx context.Context, limit int) (int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	deleted := int64(len(f.rows))
	if deleted > int64(limit) {
		deleted = int64(limit)
	}
	f.rows = f.rows[deleted:]
	return deleted, nil
}

func (f *fakeStore) Ping(ctx context.Context) error { return f.pingErr }

func str(s string) *string { return &s }

func storedRow(commodity string, price int64, daysAgo int) schema.PriceReport {
	display := domain.FormatRupiah(price)
	return schema.PriceReport{
		Commodity:    commodity,
		UnitPrice:    price,
		PriceDisplay: &display,
		Location:     str("Sikakap, Sikakap"),
		Source:       str("Petani"),
		Status:       string(domain.StatusVerified),
		ObservedAt:   now.AddDate(0, 0, -daysAgo),
	}
}

func newRouter(st *fakeStore) *gin.Engine {
	boardSvc := board.NewService(st, nil, 0, fixedNow, nil)
	ingestSvc := ingest.NewService(st, nil, fixedNow, nil)
	purger := retention.NewPurger(st, nil, 0, fixedNow, nil)

	router := gin.New()
	rest.SetupRoutes(router, rest.NewHandler(boardSvc, ingestSvc, purger, st))
	return router
}

func do(t *testing.T, router *gin.Engine, method, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	var reader *strings.Reader
	if body == "" {
		reader = strings.NewReader("")
	} else {
		reader = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, path, reader)
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	return rec
}

func TestSubmitReport(t *testing.T) {
	t.Run("accepts a valid submission", func(t *testing.T) {
		st := &fakeStore{}
		router := newRouter(st)

		rec := do(t, router, http.MethodPost, "/api/v1/reports",
			`{"commodity":"Kopra Kering","unit_price":15000,"village":"Taileleu","district":"Siberut Barat Daya","source_role":"Petani"}`)

		require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

		var report domain.Report
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &report))
		assert.Equal(t, "Rp 15.000", report.PriceDisplay)
		assert.Equal(t, "Taileleu, Siberut Barat Daya", report.Location)
		assert.Equal(t, domain.StatusVerified, report.Status)
		assert.Len(t, st.rows, 1)
	})

	t.Run("rejects invalid fields with 422 and names them", func(t *testing.T) {
		st := &fakeStore{}
		router := newRouter(st)

		rec := do(t, router, http.MethodPost, "/api/v1/reports",
			`{"commodity":"Kopra Kering","unit_price":0,"village":"","district":"Siberut Barat Daya","source_role":"Petani"}`)

		assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)
		assert.Contains(t, rec.Body.String(), "unit_price")
		assert.Contains(t, rec.Body.String(), "village")
		assert.Empty(t, st.rows, "nothing may be written on validation failure")
	})

	t.Run("store failure maps to 503", func(t *testing.T) {
		st := &fakeStore{appendErr: errors.New("connection refused")}
		router := newRouter(st)

		rec := do(t, router, http.MethodPost, "/api/v1/reports",
			`{"commodity":"Kopra Kering","unit_price":15000,"village":"Taileleu","district":"Siberut Barat Daya","source_role":"Petani"}`)

		assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
		assert.Contains(t, rec.Body.String(), "store_unavailable")
	})

	t.Run("malformed body maps to 400", func(t *testing.T) {
		rec := do(t, newRouter(&fakeStore{}), http.MethodPost, "/api/v1/reports", `{not json`)
		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})
}

func TestListReports(t *testing.T) {
	st := &fakeStore{rows: []schema.PriceReport{
		storedRow("Cengkeh", 120000, 0),
		storedRow("Kopra Kering", 8000, 2),
		storedRow("Cengkeh", 110000, 10),
	}}
	router := newRouter(st)

	t.Run("returns the full board", func(t *testing.T) {
		rec := do(t, router, http.MethodGet, "/api/v1/reports", "")
		require.Equal(t, http.StatusOK, rec.Code)

		var resp rest.ListReportsResponse
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
		assert.Equal(t, 3, resp.Count)
	})

	t.Run("filters compose via query parameters", func(t *testing.T) {
		rec := do(t, router, http.MethodGet, "/api/v1/reports?commodity=Cengkeh&days=7", "")
		require.Equal(t, http.StatusOK, rec.Code)

		var resp rest.ListReportsResponse
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
		require.Equal(t, 1, resp.Count)
		assert.Equal(t, int64(120000), resp.Reports[0].UnitPrice)
	})

	t.Run("limit truncates the result", func(t *testing.T) {
		rec := do(t, router, http.MethodGet, "/api/v1/reports?limit=2", "")
		require.Equal(t, http.StatusOK, rec.Code)

		var resp rest.ListReportsResponse
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
		assert.Equal(t, 2, resp.Count)
	})

	t.Run("unknown sort maps to 400", func(t *testing.T) {
		rec := do(t, router, http.MethodGet, "/api/v1/reports?sort=cheapest", "")
		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})

	t.Run("store failure maps to 503", func(t *testing.T) {
		broken := newRouter(&fakeStore{listErr: errors.New("connection refused")})
		rec := do(t, broken, http.MethodGet, "/api/v1/reports", "")
		assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
	})
}

func TestGetStats(t *testing.T) {
	st := &fakeStore{rows: []schema.PriceReport{
		storedRow("Cengkeh", 100000, 0),
		storedRow("Cengkeh", 120000, 1),
		storedRow("Pinang", 4000, 1),
	}}
	router := newRouter(st)

	t.Run("summarizes the filtered set", func(t *testing.T) {
		rec := do(t, router, http.MethodGet, "/api/v1/reports/stats?commodity=Cengkeh", "")
		require.Equal(t, http.StatusOK, rec.Code)

		var resp rest.StatsResponse
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
		require.NotNil(t, resp.Summary.Price)
		assert.Equal(t, int64(110000), resp.Summary.Price.Mean)
		assert.Equal(t, 2, resp.Summary.Rows)
	})

	t.Run("no numeric data leaves price absent", func(t *testing.T) {
		legacy := &fakeStore{rows: []schema.PriceReport{
			{Commodity: "CPO/Sawit", Headline: str("Harga Tender CPO"), ObservedAt: now},
		}}
		rec := do(t, newRouter(legacy), http.MethodGet, "/api/v1/reports/stats", "")
		require.Equal(t, http.StatusOK, rec.Code)
		assert.NotContains(t, rec.Body.String(), `"price"`)
	})

	t.Run("top ranking on request", func(t *testing.T) {
		rec := do(t, router, http.MethodGet, "/api/v1/reports/stats?top=1", "")
		require.Equal(t, http.StatusOK, rec.Code)

		var resp rest.StatsResponse
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
		require.Len(t, resp.Top, 1)
		assert.Equal(t, "Cengkeh", resp.Top[0].Commodity)
	})
}

func TestPurgeOld(t *testing.T) {
	t.Run("deletes aged reports", func(t *testing.T) {
		st := &fakeStore{rows: []schema.PriceReport{
			storedRow("Cengkeh", 120000, 100),
			storedRow("Pinang", 4000, 1),
		}}
		router := newRouter(st)

		rec := do(t, router, http.MethodPost, "/api/v1/admin/purge", `{"older_than_days":90}`)
		require.Equal(t, http.StatusOK, rec.Code)

		var resp rest.PurgeResponse
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
		assert.Equal(t, int64(1), resp.Deleted)
		assert.Len(t, st.rows, 1)
	})

	t.Run("non-positive cutoff maps to 400", func(t *testing.T) {
		rec := do(t, newRouter(&fakeStore{}), http.MethodPost, "/api/v1/admin/purge", `{"older_than_days":0}`)
		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})
}

func TestWipeAll(t *testing.T) {
	t.Run("exact confirmation wipes the board", func(t *testing.T) {
		st := &fakeStore{rows: []schema.PriceReport{
			storedRow("Cengkeh", 120000, 0),
			storedRow("Pinang", 4000, 1),
		}}
		router := newRouter(st)

		rec := do(t, router, http.MethodPost, "/api/v1/admin/wipe", `{"confirmation":"DELETE ALL"}`)
		require.Equal(t, http.StatusOK, rec.Code)

		var resp rest.PurgeResponse
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
		assert.Equal(t, int64(2), resp.Deleted)
		assert.Empty(t, st.rows)
	})

	t.Run("wrong confirmation maps to 400 and deletes nothing", func(t *testing.T) {
		st := &fakeStore{rows: []schema.PriceReport{storedRow("Cengkeh", 120000, 0)}}
		router := newRouter(st)

		rec := do(t, router, http.MethodPost, "/api/v1/admin/wipe", `{"confirmation":"delete all"}`)
		assert.Equal(t, http.StatusBadRequest, rec.Code)
		assert.Len(t, st.rows, 1)
	})
}

func TestHealthCheck(t *testing.T) {
	t.Run("healthy store", func(t *testing.T) {
		rec := do(t, newRouter(&fakeStore{}), http.MethodGet, "/health", "")
		assert.Equal(t, http.StatusOK, rec.Code)
		assert.Contains(t, rec.Body.String(), `"ok"`)
	})

	t.Run("unreachable store maps to 503", func(t *testing.T) {
		rec := do(t, newRouter(&fakeStore{pingErr: errors.New("connection refused")}), http.MethodGet, "/health", "")
		assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
	})
}
