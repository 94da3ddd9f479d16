// Package geocode turns free-text addresses into structured places and
// picks the district-like component out of them.
package geocode

import (
	"context"
	"strings"
)

// Address is a structured address keyed by component name, as returned by
// Nominatim's addressdetails ("suburb", "city_district", "road", ...).
type Address map[string]string

// Place is the single best geocoding hit for a query.
type Place struct {
	DisplayName string  `json:"display_name"`
	Lat         float64 `json:"lat"`
	Lon         float64 `json:"lon"`
	Address     Address `json:"address"`
}

// Geocoder looks up one place for a free-text query. Implementations return
// ErrNoResults for an empty result and *LookupError for upstream failures.
type Geocoder interface {
	Search(ctx context.Context, query string) (*Place, error)
}

// DefaultDistrictFields is the component priority used to pick a district
// name, most specific first.
var DefaultDistrictFields = []string{"city_district", "suburb", "borough", "quarter", "neighbourhood"}

// ExtractDistrictName returns the value of the first field in fields that is
// present and non-blank in addr. The value is returned untouched; a nil or
// empty fields list uses DefaultDistrictFields.
func ExtractDistrictName(addr Address, fields []string) (string, bool) {
	if len(fields) == 0 {
		fields = DefaultDistrictFields
	}
	for _, f := range fields {
		if v, ok := addr[f]; ok && strings.TrimSpace(v) != "" {
			return v, true
		}
	}
	return "", false
}
