package schema

import (
	"time"
)

// PriceReport represents the price_reports table - one community-reported
// price observation for a commodity at a location.
//
// Nullable columns tolerate heterogeneous legacy shapes: scraped news rows
// carry only a headline and no numeric price, and early imports stored the
// reporter in place of a structured location. Readers must go through
// store.ToDomain, which applies the fallback rules in one place.
type PriceReport struct {
	// ID is the internal database primary key
	ID uint64 `gorm:"column:id;primaryKey;autoIncrement"`
	// Commodity is the traded good this observation refers to
	Commodity string `gorm:"column:commodity;not null;type:text;index"`
	// UnitPrice is the whole-rupiah price per unit; 0 means unknown (legacy)
	UnitPrice int64 `gorm:"column:unit_price;not null;default:0"`
	// PriceDisplay is the derived display string, e.g. "Rp 15.000"
	PriceDisplay *string `gorm:"column:price_display;type:text"`
	// Headline is the news title for scraped rows without a numeric price
	Headline *string `gorm:"column:headline;type:text"`
	// Location is "{village}, {district}"; nil on legacy rows
	Location *string `gorm:"column:location;type:text"`
	// Source is the reporter role or collector name
	Source *string `gorm:"column:source;type:text"`
	// Note is optional free text from the reporter
	Note *string `gorm:"column:note;type:text"`
	// Status tags provenance (verified, pending, dummy, legacy)
	Status string `gorm:"column:status;not null;type:text;default:verified"`
	// ObservedAt is the server-stamped UTC submission time, immutable
	ObservedAt time.Time `gorm:"column:observed_at;not null;index:idx_price_reports_observed_at,sort:desc"`
}

// TableName specifies the table name for the PriceReport model
func (PriceReport) TableName() string {
	return "price_reports"
}
