package rest

import (
	"fmt"

	"github.com/gin-gonic/gin"

	"github.com/mentawai-market/price-board/internal/query"
)

const maxPageSize = 500

// ListReportsQueryParams holds query parameters for GET /reports
type ListReportsQueryParams struct {
	Commodity string `form:"commodity"`
	Days      int    `form:"days"`
	Location  string `form:"location"`
	Search    string `form:"q"`
	Sort      string `form:"sort"`
	Limit     int    `form:"limit,default=0"`
}

// StatsQueryParams holds query parameters for GET /reports/stats
type StatsQueryParams struct {
	ListReportsQueryParams
	Top int `form:"top,default=0"`
}

// ParseListReportsQuery parses and validates query parameters for GET /reports
func ParseListReportsQuery(c *gin.Context) (*ListReportsQueryParams, error) {
	var params ListReportsQueryParams
	if err := c.ShouldBindQuery(&params); err != nil {
		return nil, err
	}
	if err := params.validate(); err != nil {
		return nil, err
	}
	return &params, nil
}

// ParseStatsQuery parses and validates query parameters for GET /reports/stats
func ParseStatsQuery(c *gin.Context) (*StatsQueryParams, error) {
	var params StatsQueryParams
	if err := c.ShouldBindQuery(&params); err != nil {
		return nil, err
	}
	if err := params.validate(); err != nil {
		return nil, err
	}
	if params.Top < 0 {
		params.Top = 0
	}
	return &params, nil
}

func (p *ListReportsQueryParams) validate() error {
	if !query.ValidSort(query.Sort(p.Sort)) {
		return fmt.Errorf("unknown sort %q", p.Sort)
	}
	if p.Limit < 0 {
		p.Limit = 0
	}
	if p.Limit > maxPageSize {
		p.Limit = maxPageSize
	}
	return nil
}

// Filters converts the parsed parameters into engine filters. Out-of-range
// recency windows are clamped by the engine, so they degrade instead of
// failing.
func (p *ListReportsQueryParams) Filters() query.Filters {
	f := query.Filters{
		Commodity: p.Commodity,
		Location:  p.Location,
		Search:    p.Search,
		SortBy:    query.Sort(p.Sort),
	}
	if p.Days > 0 {
		f.WithinDays = p.Days
	}
	return f
}
