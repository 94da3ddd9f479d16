package geocode

import (
	"errors"
	"fmt"
)

// ErrNoResults means the provider answered but found nothing.
var ErrNoResults = errors.New("geocode: no results")

// Category classifies an upstream failure.
type Category string

const (
	CategoryTimeout        Category = "timeout"
	CategoryProviderOutage Category = "provider_outage"
	CategoryRateLimited    Category = "rate_limited"
	CategoryBadData        Category = "bad_data"
)

// LookupError is an upstream geocoding failure. Status is the HTTP status
// when the provider responded, zero otherwise.
type LookupError struct {
	Category   Category
	Status     int
	Underlying error
}

func (e *LookupError) Error() string {
	switch {
	case e.Status != 0 && e.Underlying != nil:
		return fmt.Sprintf("geocode %s (status %d): %v", e.Category, e.Status, e.Underlying)
	case e.Status != 0:
		return fmt.Sprintf("geocode %s (status %d)", e.Category, e.Status)
	case e.Underlying != nil:
		return fmt.Sprintf("geocode %s: %v", e.Category, e.Underlying)
	}
	return "geocode " + string(e.Category)
}

func (e *LookupError) Unwrap() error {
	return e.Underlying
}

// IsCategory reports whether err is a *LookupError of category c.
func IsCategory(err error, c Category) bool {
	var le *LookupError
	return errors.As(err, &le) && le.Category == c
}
