package ingest_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mentawai-market/price-board/internal/cache"
	"github.com/mentawai-market/price-board/internal/domain"
	"github.com/mentawai-market/price-board/internal/ingest"
	"github.com/mentawai-market/price-board/internal/store/schema"
)

// fakeStore records appended reports in memory.
type fakeStore struct {
	appended  []schema.PriceReport
	appendErr error
}

func (f *fakeStore) AppendReport(ctx context.Context, report *schema.PriceReport) error {
	if f.appendErr != nil {
		return f.appendErr
	}
	f.appended = append(f.appended, *report)
	return nil
}

func (f *fakeStore) ListReports(ctx context.Context, limit int) ([]schema.PriceReport, error) {
	out := make([]schema.PriceReport, len(f.appended))
	copy(out, f.appended)
	return out, nil
}

func (f *fakeStore) DeleteReportsBefore(ctx context.Context, cutoff time.Time, limit int) (int64, error) {
	return 0, nil
}

func (f *fakeStore) DeleteReportsBatch(ctx context.Context, limit int) (int64, error) {
	return 0, nil
}

func (f *fakeStore) Ping(ctx context.Context) error { return nil }

// fakeKV is an in-memory cache backend that counts deletions.
type fakeKV struct {
	data map[string]string
	dels int
}

func (f *fakeKV) Get(ctx context.Context, key string) (string, error) {
	v, ok := f.data[key]
	if !ok {
		return "", cache.ErrCacheMiss
	}
	return v, nil
}

func (f *fakeKV) Set(ctx context.Context, key string, value string, ttl time.Duration) error {
	if f.data == nil {
		f.data = map[string]string{}
	}
	f.data[key] = value
	return nil
}

func (f *fakeKV) Del(ctx context.Context, key string) error {
	delete(f.data, key)
	f.dels++
	return nil
}

func fixedNow() time.Time {
	return time.Date(2026, 8, 28, 10, 0, 0, 0, time.FixedZone("WIB", 7*3600))
}

func validSubmission() ingest.Submission {
	return ingest.Submission{
		Commodity:  "Kopra Kering",
		UnitPrice:  15000,
		Village:    "Taileleu",
		District:   "Siberut Barat Daya",
		SourceRole: "Petani",
	}
}

func TestSubmit(t *testing.T) {
	ctx := context.Background()

	t.Run("valid submission is normalized and appended", func(t *testing.T) {
		st := &fakeStore{}
		svc := ingest.NewService(st, nil, fixedNow, nil)

		report, err := svc.Submit(ctx, validSubmission())
		require.NoError(t, err)
		require.Len(t, st.appended, 1)

		assert.Equal(t, "Rp 15.000", report.PriceDisplay)
		assert.Equal(t, "Taileleu, Siberut Barat Daya", report.Location)
		assert.Equal(t, domain.StatusVerified, report.Status)
		assert.Equal(t, domain.NoteNone, report.Note)
		assert.Equal(t, fixedNow().UTC(), report.ObservedAt)
		assert.Equal(t, time.UTC, report.ObservedAt.Location())
	})

	t.Run("zero price and empty village rejected together", func(t *testing.T) {
		st := &fakeStore{}
		svc := ingest.NewService(st, nil, fixedNow, nil)

		in := validSubmission()
		in.UnitPrice = 0
		in.Village = "   "

		_, err := svc.Submit(ctx, in)
		var verr *domain.ValidationError
		require.ErrorAs(t, err, &verr)
		assert.Contains(t, verr.Fields, "unit_price")
		assert.Contains(t, verr.Fields, "village")
		assert.Empty(t, st.appended, "rejected submissions must not be written")
	})

	t.Run("unknown commodity rejected", func(t *testing.T) {
		svc := ingest.NewService(&fakeStore{}, nil, fixedNow, nil)
		in := validSubmission()
		in.Commodity = "Durian"

		_, err := svc.Submit(ctx, in)
		var verr *domain.ValidationError
		require.ErrorAs(t, err, &verr)
		assert.Equal(t, []string{"commodity"}, verr.Fields)
	})

	t.Run("escape commodity accepted", func(t *testing.T) {
		svc := ingest.NewService(&fakeStore{}, nil, fixedNow, nil)
		in := validSubmission()
		in.Commodity = domain.CommodityOther

		report, err := svc.Submit(ctx, in)
		require.NoError(t, err)
		assert.Equal(t, domain.CommodityOther, report.Commodity)
	})

	t.Run("store failure surfaces without panic", func(t *testing.T) {
		st := &fakeStore{appendErr: errors.New("connection refused")}
		svc := ingest.NewService(st, nil, fixedNow, nil)

		_, err := svc.Submit(ctx, validSubmission())
		assert.Error(t, err)
	})

	t.Run("successful submission invalidates the cached snapshot", func(t *testing.T) {
		kv := &fakeKV{data: map[string]string{"stale": "[]"}}
		snap := cache.NewSnapshot(kv, time.Minute, nil)
		svc := ingest.NewService(&fakeStore{}, snap, fixedNow, nil)

		_, err := svc.Submit(ctx, validSubmission())
		require.NoError(t, err)
		assert.Equal(t, 1, kv.dels, "a write must drop the snapshot")
	})

	t.Run("rejected submission leaves the cache alone", func(t *testing.T) {
		kv := &fakeKV{}
		snap := cache.NewSnapshot(kv, time.Minute, nil)
		svc := ingest.NewService(&fakeStore{}, snap, fixedNow, nil)

		in := validSubmission()
		in.UnitPrice = 0
		_, err := svc.Submit(ctx, in)
		require.Error(t, err)
		assert.Zero(t, kv.dels)
	})

	t.Run("note is kept when provided", func(t *testing.T) {
		st := &fakeStore{}
		svc := ingest.NewService(st, nil, fixedNow, nil)
		in := validSubmission()
		in.Note = "harga gudang"

		report, err := svc.Submit(ctx, in)
		require.NoError(t, err)
		assert.Equal(t, "harga gudang", report.Note)
	})
}

func TestNormalizeStatusAndTimestamp(t *testing.T) {
	backdated := time.Date(2026, 8, 21, 3, 0, 0, 0, time.UTC)
	row, err := ingest.Normalize(validSubmission(), backdated, domain.StatusDummy)
	require.NoError(t, err)
	assert.Equal(t, string(domain.StatusDummy), row.Status)
	assert.Equal(t, backdated, row.ObservedAt)
}
