package models

import (
	"time"
)

// DistrictType classifies the dominant land use of a district.
type DistrictType string

const (
	DistrictTypeBedroom DistrictType = "BEDROOM"
	DistrictTypeFamily  DistrictType = "FAMILY"
	DistrictTypeOffice  DistrictType = "OFFICE"
	DistrictTypeMixed   DistrictType = "MIXED"
	DistrictTypeOther   DistrictType = "OTHER"
)

func (t DistrictType) IsValid() bool {
	switch t {
	case DistrictTypeBedroom, DistrictTypeFamily, DistrictTypeOffice, DistrictTypeMixed, DistrictTypeOther:
		return true
	}
	return false
}

// District is a canonical catalog row.
//
// Invariants:
//   - Code is unique, lowercase ASCII with no spaces or hyphens
//   - Code == normalize.Code(Name) at creation; manual edits may break this
//     and resolution must still find the row by name
//   - ID is assigned by the catalog and never reused
type District struct {
	ID        int64        `json:"id"`
	Name      string       `json:"name"`
	Code      string       `json:"code"`
	Type      DistrictType `json:"district_type,omitempty"`
	CenterLat *float64     `json:"center_lat,omitempty"`
	CenterLon *float64     `json:"center_lon,omitempty"`
	CreatedAt time.Time    `json:"created_at"`
}

// DistrictDetail is a district with every metric table eager-loaded.
type DistrictDetail struct {
	District
	Metrics
}

// Metrics groups the per-district metric rows.
type Metrics struct {
	SocialLife         []SocialLife         `json:"social_life"`
	DistrictRhythm     []DistrictRhythm     `json:"district_rhythm"`
	GreenPlaces        []GreenPlaces        `json:"green_places"`
	DigitalNoise       []DigitalNoise       `json:"digital_noise"`
	SocialAvailability []SocialAvailability `json:"social_availability"`
	LifeBalance        []LifeBalance        `json:"life_balance"`
	Safety             []Safety             `json:"safety"`
	Aggregates         []DaypartAggregate   `json:"aggregates"`
}

// Page selects a 1-based window of a list ordered newest first.
type Page struct {
	Page int
	Size int
}

// Offset returns the row offset of the page.
func (p Page) Offset() int {
	if p.Page < 1 {
		return 0
	}
	return (p.Page - 1) * p.Size
}

// Window returns the [lo, hi) slice bounds of the page within n rows.
func (p Page) Window(n int) (lo, hi int) {
	lo = min(p.Offset(), n)
	hi = min(lo+p.Size, n)
	return lo, hi
}
