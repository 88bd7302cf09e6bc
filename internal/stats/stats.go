package stats

import (
	"math"
	"sort"

	"github.com/mentawai-market/price-board/internal/domain"
)

// PriceStats holds the numeric summary over eligible records (UnitPrice > 0),
// in whole rupiah.
type PriceStats struct {
	Mean   int64 `json:"mean"`
	Min    int64 `json:"min"`
	Max    int64 `json:"max"`
	Median int64 `json:"median"`
}

// Summary describes a filtered working set. Price is nil when no record
// carries a positive numeric price: "no numeric data" is a normal state,
// distinct from a zero price.
type Summary struct {
	Rows                int         `json:"rows"`
	Eligible            int         `json:"eligible"`
	DistinctCommodities int         `json:"distinct_commodities"`
	DistinctLocations   int         `json:"distinct_locations"`
	Price               *PriceStats `json:"price,omitempty"`
}

// CommodityCount is one entry of the commodity frequency ranking.
type CommodityCount struct {
	Commodity string `json:"commodity"`
	Count     int    `json:"count"`
}

// Summarize computes summary statistics over records. Records without a
// positive numeric price count toward Rows but not toward price statistics.
func Summarize(records []domain.Report) Summary {
	summary := Summary{Rows: len(records)}

	commodities := make(map[string]struct{})
	locations := make(map[string]struct{})
	var prices []int64

	for _, r := range records {
		commodities[r.Commodity] = struct{}{}
		if r.Location != "" && r.Location != domain.NoteNone {
			locations[r.Location] = struct{}{}
		}
		if r.HasPrice() {
			prices = append(prices, r.UnitPrice)
		}
	}

	summary.DistinctCommodities = len(commodities)
	summary.DistinctLocations = len(locations)
	summary.Eligible = len(prices)

	if len(prices) == 0 {
		return summary
	}

	sorted := make([]int64, len(prices))
	copy(sorted, prices)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i] < sorted[j] })

	var sum int64
	for _, p := range sorted {
		sum += p
	}

	summary.Price = &PriceStats{
		Mean:   int64(math.Round(float64(sum) / float64(len(sorted)))),
		Min:    sorted[0],
		Max:    sorted[len(sorted)-1],
		Median: median(sorted),
	}

	return summary
}

// median expects an ascending slice; even-sized sets average the middle pair.
func median(sorted []int64) int64 {
	mid := len(sorted) / 2
	if len(sorted)%2 == 1 {
		return sorted[mid]
	}
	return int64(math.Round(float64(sorted[mid-1]+sorted[mid]) / 2))
}

// TopCommodities ranks commodity values by occurrence count, descending.
// Ties keep first-seen input order so the ranking is stable across runs.
// n <= 0 returns nil.
func TopCommodities(records []domain.Report, n int) []CommodityCount {
	if n <= 0 {
		return nil
	}

	counts := make(map[string]int)
	firstSeen := make(map[string]int)
	var order []string

	for i, r := range records {
		if _, ok := counts[r.Commodity]; !ok {
			firstSeen[r.Commodity] = i
			order = append(order, r.Commodity)
		}
		counts[r.Commodity]++
	}

	ranking := make([]CommodityCount, 0, len(order))
	for _, name := range order {
		ranking = append(ranking, CommodityCount{Commodity: name, Count: counts[name]})
	}

	sort.SliceStable(ranking, func(i, j int) bool {
		if ranking[i].Count != ranking[j].Count {
			return ranking[i].Count > ranking[j].Count
		}
		return firstSeen[ranking[i].Commodity] < firstSeen[ranking[j].Commodity]
	})

	if len(ranking) > n {
		ranking = ranking[:n]
	}
	return ranking
}
