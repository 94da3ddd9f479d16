package models

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestPageWindow(t *testing.T) {
	tests := []struct {
		name   string
		page   Page
		n      int
		lo, hi int
	}{
		{"first page", Page{Page: 1, Size: 20}, 18, 0, 18},
		{"second page partial", Page{Page: 2, Size: 10}, 18, 10, 18},
		{"past the end", Page{Page: 3, Size: 10}, 18, 18, 18},
		{"zero page treated as first", Page{Page: 0, Size: 5}, 18, 0, 5},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			lo, hi := tt.page.Window(tt.n)
			assert.Equal(t, tt.lo, lo)
			assert.Equal(t, tt.hi, hi)
		})
	}
}

func TestParseMetricKind(t *testing.T) {
	k, ok := ParseMetricKind("safety")
	assert.True(t, ok)
	assert.Equal(t, MetricSafety, k)

	_, ok = ParseMetricKind("districts")
	assert.False(t, ok)
}

func TestDistrictTypeIsValid(t *testing.T) {
	assert.True(t, DistrictTypeMixed.IsValid())
	assert.False(t, DistrictType("SUBURB").IsValid())
}

func TestMetricsForDistrict(t *testing.T) {
	var all Metrics
	all.Merge(Metrics{Safety: []Safety{{ID: 1, DistrictID: 1}, {ID: 2, DistrictID: 2}}})
	all.Merge(Metrics{SocialLife: []SocialLife{{ID: 3, DistrictID: 2}}})

	got := all.ForDistrict(2)
	assert.Equal(t, []Safety{{ID: 2, DistrictID: 2}}, got.Safety)
	assert.Len(t, got.SocialLife, 1)
	assert.NotNil(t, got.Aggregates)
	assert.Empty(t, got.Aggregates)
}

func TestMetricsRows(t *testing.T) {
	m := Metrics{Safety: []Safety{{ID: 9}}}
	assert.Equal(t, []Safety{{ID: 9}}, m.Rows(MetricSafety))
	assert.Equal(t, []GreenPlaces{}, m.Rows(MetricGreenPlaces))
	assert.Nil(t, m.Rows(MetricKind("nope")))
}
