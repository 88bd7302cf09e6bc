package domain

import (
	"strings"
	"time"
)

// Status tags the provenance of a price report.
type Status string

const (
	// StatusVerified marks a report that passed ingestion validation
	StatusVerified Status = "verified"
	// StatusPending marks a report awaiting manual review
	StatusPending Status = "pending"
	// StatusDummy marks synthetic records injected by the seeder
	StatusDummy Status = "dummy"
	// StatusLegacy marks heterogeneous rows from older collectors (e.g. scraped headlines)
	StatusLegacy Status = "legacy"
)

// NoteNone is the sentinel stored when a submission carries no note.
const NoteNone = "-"

// CommodityOther is the escape value for goods outside the known vocabulary.
const CommodityOther = "Lainnya"

// Report is one community-reported price observation after read-time
// normalization. Legacy rows surface here with UnitPrice == 0 and fallback
// display fields; they are never rejected on the read path.
type Report struct {
	ID           uint64    `json:"id"`
	Commodity    string    `json:"commodity"`
	UnitPrice    int64     `json:"unit_price"`
	PriceDisplay string    `json:"unit_price_display"`
	Location     string    `json:"location"`
	Source       string    `json:"source_role"`
	Note         string    `json:"note"`
	Status       Status    `json:"status"`
	ObservedAt   time.Time `json:"observed_at"`
}

// HasPrice reports whether the record carries a usable numeric price.
// Records without one are excluded from numeric aggregation but still count
// toward row totals.
func (r Report) HasPrice() bool {
	return r.UnitPrice > 0
}

// KnownCommodities is the commodity vocabulary offered to reporters.
// CommodityOther is the open escape value.
var KnownCommodities = []string{
	"Kopra Kering",
	"Cengkeh",
	"Gurita",
	"Pinang",
	"Kakao",
	"Lobster",
	"Nilam",
	"Rotan",
	"Sagu",
	CommodityOther,
}

// Districts are the Mentawai sub-districts a report can be located in.
var Districts = []string{
	"Sikakap",
	"Pagai Utara",
	"Pagai Selatan",
	"Sipora Utara",
	"Sipora Selatan",
	"Siberut Selatan",
	"Siberut Barat Daya",
	"Siberut Utara",
	"Siberut Barat",
	"Siberut Tengah",
}

// SourceRoles are the reporter roles accepted at ingestion.
var SourceRoles = []string{
	"Petani",
	"Pengepul Desa",
	"Toke Besar",
	"Dinas Pasar",
	"Warga",
}

// KnownCommodity reports whether name belongs to the commodity vocabulary.
func KnownCommodity(name string) bool {
	return contains(KnownCommodities, name)
}

// KnownDistrict reports whether name is one of the enumerated districts.
func KnownDistrict(name string) bool {
	return contains(Districts, name)
}

// KnownSourceRole reports whether role is one of the enumerated reporter roles.
func KnownSourceRole(role string) bool {
	return contains(SourceRoles, role)
}

// ComposeLocation builds the canonical "{village}, {district}" location text.
func ComposeLocation(village, district string) string {
	return strings.TrimSpace(village) + ", " + district
}

func contains(set []string, value string) bool {
	for _, v := range set {
		if v == value {
			return true
		}
	}
	return false
}
