package seed

import (
	"context"
	"fmt"
	"math/rand"
	"sync"
	"time"

	"github.com/alitto/pond/v2"
	"go.uber.org/zap"

	"github.com/mentawai-market/price-board/internal/cache"
	"github.com/mentawai-market/price-board/internal/domain"
	"github.com/mentawai-market/price-board/internal/ingest"
	"github.com/mentawai-market/price-board/internal/store"
	"github.com/mentawai-market/price-board/internal/store/schema"
)

// DefaultCount matches the classic "fill the board" batch.
const DefaultCount = 50

// defaultWorkers bounds concurrent store writes during a seed run.
const defaultWorkers = 8

// basePrices are plausible per-unit rupiah prices; commodities not listed
// fall back to defaultBasePrice. Each generated report jitters around its
// base so charts get spread.
var basePrices = map[string]int64{
	"Cengkeh":      120000,
	"Kopra Kering": 8000,
	"Gurita":       45000,
	"Lobster":      300000,
	"Pinang":       4000,
}

const defaultBasePrice = 10000

// priceJitter is the half-width of the random price variation.
const priceJitter = 2000

// seedPlaces pair a village with its district, mirroring where reports
// actually come from.
var seedPlaces = []struct {
	Village  string
	District string
}{
	{"Taileleu", "Siberut Barat Daya"},
	{"Sikakap", "Sikakap"},
	{"Muara Siberut", "Siberut Selatan"},
	{"Betumonga", "Pagai Utara"},
	{"Saumanganya", "Pagai Utara"},
	{"Bosua", "Sipora Selatan"},
	{"Tuapejat", "Sipora Utara"},
	{"Maileppet", "Siberut Selatan"},
}

// seedCommodities excludes the free-text escape so every generated record
// passes vocabulary validation.
var seedCommodities = []string{
	"Kopra Kering", "Cengkeh", "Pinang", "Gurita", "Kakao",
	"Lobster", "Nilam", "Rotan", "Sagu",
}

var seedSources = []string{"Petani", "Pengepul Desa", "Toke Besar", "Dinas Pasar"}

// Seeder generates plausible dummy reports so a fresh board has data to
// show. Every record goes through the same normalization as interactive
// ingestion and is marked StatusDummy so it can be told apart later.
type Seeder struct {
	store   store.Store
	cache   *cache.Snapshot
	workers int
	now     func() time.Time
	rng     *rand.Rand
	mu      sync.Mutex
	logger  *zap.Logger
}

// NewSeeder creates a seeder. workers <= 0 selects the default pool size;
// now defaults to time.Now.
func NewSeeder(st store.Store, snap *cache.Snapshot, workers int, now func() time.Time, logger *zap.Logger) *Seeder {
	if workers <= 0 {
		workers = defaultWorkers
	}
	if now == nil {
		now = time.Now
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Seeder{
		store:   st,
		cache:   snap,
		workers: workers,
		now:     now,
		rng:     rand.New(rand.NewSource(time.Now().UnixNano())),
		logger:  logger,
	}
}

// Run generates and stores count dummy reports through a bounded worker
// pool, then invalidates the read cache once. count <= 0 selects
// DefaultCount. It returns the number of records actually written.
func (s *Seeder) Run(ctx context.Context, count int) (int, error) {
	if count <= 0 {
		count = DefaultCount
	}

	pool := pond.NewPool(s.workers, pond.WithContext(ctx))
	group := pool.NewGroup()

	var written int64
	var mu sync.Mutex

	for i := 0; i < count; i++ {
		row := s.generate()
		group.Submit(func() {
			if err := s.store.AppendReport(ctx, row); err != nil {
				s.logger.Warn("Seed write failed", zap.Error(err))
				return
			}
			mu.Lock()
			written++
			mu.Unlock()
		})
	}

	err := group.Wait()
	pool.StopAndWait()

	// Rows committed before a cancellation stay committed, so the cache
	// must be dropped even on the error path.
	if written > 0 {
		s.cache.Invalidate(ctx)
	}
	if err != nil {
		return int(written), fmt.Errorf("seed pool: %w", err)
	}

	s.logger.Info("Seeded dummy reports", zap.Int64("written", written))
	return int(written), nil
}

// generate builds one random but valid submission, back-dated 0-7 days so
// time-series views have spread.
func (s *Seeder) generate() *schema.PriceReport {
	s.mu.Lock()
	commodity := seedCommodities[s.rng.Intn(len(seedCommodities))]
	place := seedPlaces[s.rng.Intn(len(seedPlaces))]
	source := seedSources[s.rng.Intn(len(seedSources))]
	jitter := int64(s.rng.Intn(2*priceJitter+1)) - priceJitter
	daysBack := s.rng.Intn(8)
	hoursBack := 1 + s.rng.Intn(12)
	s.mu.Unlock()

	base, ok := basePrices[commodity]
	if !ok {
		base = defaultBasePrice
	}
	price := base + jitter
	if price <= 0 {
		price = base
	}

	observedAt := s.now().UTC().
		AddDate(0, 0, -daysBack).
		Add(-time.Duration(hoursBack) * time.Hour)

	row, err := ingest.Normalize(ingest.Submission{
		Commodity:  commodity,
		UnitPrice:  price,
		Village:    place.Village,
		District:   place.District,
		SourceRole: source,
	}, observedAt, domain.StatusDummy)
	if err != nil {
		// The generator only emits vocabulary values, so this cannot happen.
		panic(fmt.Sprintf("seed generator produced invalid submission: %v", err))
	}
	return row
}
