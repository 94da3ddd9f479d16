package strings

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSplitList(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected []string
	}{
		{name: "empty", input: "", expected: nil},
		{name: "blank", input: "   ", expected: nil},
		{name: "single", input: "suburb", expected: []string{"suburb"}},
		{
			name:     "keeps priority order",
			input:    "city_district,suburb,borough",
			expected: []string{"city_district", "suburb", "borough"},
		},
		{
			name:     "trims, lowercases and drops empties",
			input:    " Suburb ,, QUARTER ,",
			expected: []string{"suburb", "quarter"},
		},
		{
			name:     "later duplicates lose",
			input:    "suburb,city_district,SUBURB",
			expected: []string{"suburb", "city_district"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, SplitList(tt.input))
		})
	}
}

func TestDedupeAndTrimLower(t *testing.T) {
	assert.Nil(t, DedupeAndTrimLower(nil))
	assert.Equal(t, []string{}, DedupeAndTrimLower([]string{}))
	assert.Equal(t, []string{"pl", "de"}, DedupeAndTrimLower([]string{" PL", "de", "pl "}))
}
