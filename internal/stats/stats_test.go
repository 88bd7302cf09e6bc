package stats_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mentawai-market/price-board/internal/domain"
	"github.com/mentawai-market/price-board/internal/stats"
)

func priced(commodity string, price int64) domain.Report {
	return domain.Report{Commodity: commodity, UnitPrice: price, Location: "Sikakap, Sikakap"}
}

func TestSummarize(t *testing.T) {
	t.Run("cengkeh scenario", func(t *testing.T) {
		records := []domain.Report{
			priced("Cengkeh", 100000),
			priced("Cengkeh", 120000),
			priced("Cengkeh", 110000),
			priced("Cengkeh", 130000),
			priced("Cengkeh", 90000),
		}

		s := stats.Summarize(records)
		require.NotNil(t, s.Price)
		assert.Equal(t, int64(110000), s.Price.Mean)
		assert.Equal(t, int64(130000), s.Price.Max)
		assert.Equal(t, int64(90000), s.Price.Min)
		assert.Equal(t, int64(110000), s.Price.Median)
		assert.Equal(t, 5, s.Rows)
		assert.Equal(t, 5, s.Eligible)
		assert.Equal(t, 1, s.DistinctCommodities)
	})

	t.Run("median of even set averages the middle pair", func(t *testing.T) {
		records := []domain.Report{
			priced("Gurita", 10000),
			priced("Gurita", 20000),
			priced("Gurita", 30000),
			priced("Gurita", 40000),
		}
		s := stats.Summarize(records)
		require.NotNil(t, s.Price)
		assert.Equal(t, int64(25000), s.Price.Median)
	})

	t.Run("median of odd set is the middle value", func(t *testing.T) {
		records := []domain.Report{
			priced("Gurita", 10000),
			priced("Gurita", 20000),
			priced("Gurita", 30000),
		}
		s := stats.Summarize(records)
		require.NotNil(t, s.Price)
		assert.Equal(t, int64(20000), s.Price.Median)
	})

	t.Run("no eligible records signals no numeric data", func(t *testing.T) {
		records := []domain.Report{
			{Commodity: "CPO/Sawit", UnitPrice: 0, Location: domain.NoteNone},
			{Commodity: "CPO/Sawit", UnitPrice: 0, Location: domain.NoteNone},
		}
		s := stats.Summarize(records)
		assert.Nil(t, s.Price, "price stats must be absent, not zero")
		assert.Equal(t, 2, s.Rows)
		assert.Equal(t, 0, s.Eligible)
		assert.Equal(t, 0, s.DistinctLocations, "fallback location is not a location")
	})

	t.Run("legacy rows still count toward row totals", func(t *testing.T) {
		records := []domain.Report{
			priced("Cengkeh", 120000),
			{Commodity: "CPO/Sawit", UnitPrice: 0},
		}
		s := stats.Summarize(records)
		require.NotNil(t, s.Price)
		assert.Equal(t, 2, s.Rows)
		assert.Equal(t, 1, s.Eligible)
		assert.Equal(t, int64(120000), s.Price.Mean)
	})

	t.Run("empty input", func(t *testing.T) {
		s := stats.Summarize(nil)
		assert.Nil(t, s.Price)
		assert.Zero(t, s.Rows)
	})
}

func TestTopCommodities(t *testing.T) {
	records := []domain.Report{
		priced("Pinang", 4000),
		priced("Cengkeh", 120000),
		priced("Cengkeh", 110000),
		priced("Kopra Kering", 8000),
		priced("Kopra Kering", 8500),
		priced("Pinang", 4200),
		priced("Gurita", 45000),
	}

	t.Run("ranks by descending count with first-seen tie-break", func(t *testing.T) {
		top := stats.TopCommodities(records, 3)
		require.Len(t, top, 3)
		// Pinang, Cengkeh and Kopra Kering all count 2; Pinang appeared first.
		assert.Equal(t, stats.CommodityCount{Commodity: "Pinang", Count: 2}, top[0])
		assert.Equal(t, stats.CommodityCount{Commodity: "Cengkeh", Count: 2}, top[1])
		assert.Equal(t, stats.CommodityCount{Commodity: "Kopra Kering", Count: 2}, top[2])
	})

	t.Run("n larger than distinct set returns all", func(t *testing.T) {
		top := stats.TopCommodities(records, 10)
		assert.Len(t, top, 4)
		assert.Equal(t, "Gurita", top[3].Commodity)
	})

	t.Run("non-positive n returns nil", func(t *testing.T) {
		assert.Nil(t, stats.TopCommodities(records, 0))
	})
}
