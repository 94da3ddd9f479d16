// Package strings provides string list helpers used when parsing config.
package strings

import (
	"strings"
)

// SplitList splits a comma-separated value into lowercase, trimmed, unique
// entries. Order is preserved, so the result is safe for priority lists.
//
//	SplitList(" Suburb ,city_district,,suburb")
//	// Returns: []string{"suburb", "city_district"}
func SplitList(raw string) []string {
	if strings.TrimSpace(raw) == "" {
		return nil
	}
	return DedupeAndTrimLower(strings.Split(raw, ","))
}

// DedupeAndTrimLower trims and lowercases each element, dropping empty
// values and later duplicates.
func DedupeAndTrimLower(values []string) []string {
	if len(values) == 0 {
		return values
	}

	seen := make(map[string]struct{}, len(values))
	result := make([]string, 0, len(values))

	for _, v := range values {
		trimmed := strings.ToLower(strings.TrimSpace(v))
		if trimmed == "" {
			continue
		}
		if _, ok := seen[trimmed]; !ok {
			seen[trimmed] = struct{}{}
			result = append(result, trimmed)
		}
	}

	return result
}
