package store

import (
	"context"
	"fmt"
	"slices"
	"strings"
	"sync"
	"time"

	"cityscope/internal/district/models"
	"cityscope/internal/district/store/seed"
	"cityscope/pkg/platform/sentinel"
)

// InMemory is a process-local catalog. Rows are kept in ID order, which is
// also insertion order, so "first match" is stable across calls.
type InMemory struct {
	mu           sync.RWMutex
	districts    []*models.District
	metrics      models.Metrics
	nextID       int64
	nextMetricID int64
	now          func() time.Time
}

func NewInMemory() *InMemory {
	return &InMemory{now: time.Now}
}

// NewSeededInMemory returns a store loaded with records, keeping their codes
// verbatim.
func NewSeededInMemory(records []seed.Record) (*InMemory, error) {
	s := NewInMemory()
	for _, r := range records {
		if _, err := s.Insert(context.Background(), r.District(), r.Metrics(0)); err != nil {
			return nil, fmt.Errorf("seed %q: %w", r.Code, err)
		}
	}
	return s, nil
}

// Insert assigns the district an ID and stores it with its metric rows.
// Returns sentinel.ErrAlreadyUsed when the code is taken.
func (s *InMemory) Insert(_ context.Context, d *models.District, m models.Metrics) (*models.District, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, existing := range s.districts {
		if strings.EqualFold(existing.Code, d.Code) {
			return nil, fmt.Errorf("district code %q: %w", d.Code, sentinel.ErrAlreadyUsed)
		}
	}
	s.nextID++
	stored := *d
	stored.ID = s.nextID
	if stored.CreatedAt.IsZero() {
		stored.CreatedAt = s.now()
	}
	s.districts = append(s.districts, &stored)
	s.metrics.Merge(s.assignMetricIDs(stored.ID, m))

	out := stored
	return &out, nil
}

func (s *InMemory) assignMetricIDs(districtID int64, m models.Metrics) models.Metrics {
	next := func() int64 {
		s.nextMetricID++
		return s.nextMetricID
	}
	for i := range m.SocialLife {
		m.SocialLife[i].ID, m.SocialLife[i].DistrictID = next(), districtID
	}
	for i := range m.DistrictRhythm {
		m.DistrictRhythm[i].ID, m.DistrictRhythm[i].DistrictID = next(), districtID
	}
	for i := range m.GreenPlaces {
		m.GreenPlaces[i].ID, m.GreenPlaces[i].DistrictID = next(), districtID
	}
	for i := range m.DigitalNoise {
		m.DigitalNoise[i].ID, m.DigitalNoise[i].DistrictID = next(), districtID
	}
	for i := range m.SocialAvailability {
		m.SocialAvailability[i].ID, m.SocialAvailability[i].DistrictID = next(), districtID
	}
	for i := range m.LifeBalance {
		m.LifeBalance[i].ID, m.LifeBalance[i].DistrictID = next(), districtID
	}
	for i := range m.Safety {
		m.Safety[i].ID, m.Safety[i].DistrictID = next(), districtID
	}
	for i := range m.Aggregates {
		m.Aggregates[i].ID, m.Aggregates[i].DistrictID = next(), districtID
	}
	return m
}

func (s *InMemory) first(ctx context.Context, match func(*models.District) bool) (*models.District, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, d := range s.districts {
		if match(d) {
			out := *d
			return &out, nil
		}
	}
	return nil, sentinel.ErrNotFound
}

// FindByCode matches lower(code) against code as given.
func (s *InMemory) FindByCode(ctx context.Context, code string) (*models.District, error) {
	return s.first(ctx, func(d *models.District) bool {
		return strings.ToLower(d.Code) == code
	})
}

// FindByName matches names case-insensitively without diacritic folding.
func (s *InMemory) FindByName(ctx context.Context, name string) (*models.District, error) {
	want := strings.ToLower(name)
	return s.first(ctx, func(d *models.District) bool {
		return strings.ToLower(d.Name) == want
	})
}

// FindByNamePrefix matches names starting with prefix, case-insensitively.
// The prefix is literal text.
func (s *InMemory) FindByNamePrefix(ctx context.Context, prefix string) (*models.District, error) {
	want := strings.ToLower(prefix)
	return s.first(ctx, func(d *models.District) bool {
		return strings.HasPrefix(strings.ToLower(d.Name), want)
	})
}

func (s *InMemory) FindByID(ctx context.Context, id int64) (*models.District, error) {
	return s.first(ctx, func(d *models.District) bool {
		return d.ID == id
	})
}

// ListAll returns every district in ID order.
func (s *InMemory) ListAll(ctx context.Context) ([]*models.District, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]*models.District, 0, len(s.districts))
	for _, d := range s.districts {
		cp := *d
		out = append(out, &cp)
	}
	return out, nil
}

// List returns one page of districts, newest first, and the total count.
func (s *InMemory) List(ctx context.Context, page models.Page) ([]*models.District, int, error) {
	all, err := s.ListAll(ctx)
	if err != nil {
		return nil, 0, err
	}
	slices.Reverse(all)
	lo, hi := page.Window(len(all))
	return all[lo:hi], len(all), nil
}

// MetricRows returns the kind's rows for the given districts in ID order.
func (s *InMemory) MetricRows(ctx context.Context, kind models.MetricKind, districtIDs []int64) (models.Metrics, error) {
	if err := ctx.Err(); err != nil {
		return models.Metrics{}, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	keep := func(id int64) bool { return slices.Contains(districtIDs, id) }
	out, _, err := selectMetrics(s.metrics, kind, keep, nil)
	return out, err
}

// ListMetricRows returns one page of the kind's rows, newest first.
func (s *InMemory) ListMetricRows(ctx context.Context, kind models.MetricKind, page models.Page) (models.Metrics, int, error) {
	if err := ctx.Err(); err != nil {
		return models.Metrics{}, 0, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	return selectMetrics(s.metrics, kind, func(int64) bool { return true }, &page)
}

func selectMetrics(all models.Metrics, kind models.MetricKind, keep func(int64) bool, page *models.Page) (models.Metrics, int, error) {
	var out models.Metrics
	var total int
	switch kind {
	case models.MetricSocialLife:
		out.SocialLife, total = pick(all.SocialLife, func(r models.SocialLife) int64 { return r.DistrictID }, keep, page)
	case models.MetricDistrictRhythm:
		out.DistrictRhythm, total = pick(all.DistrictRhythm, func(r models.DistrictRhythm) int64 { return r.DistrictID }, keep, page)
	case models.MetricGreenPlaces:
		out.GreenPlaces, total = pick(all.GreenPlaces, func(r models.GreenPlaces) int64 { return r.DistrictID }, keep, page)
	case models.MetricDigitalNoise:
		out.DigitalNoise, total = pick(all.DigitalNoise, func(r models.DigitalNoise) int64 { return r.DistrictID }, keep, page)
	case models.MetricSocialAvailability:
		out.SocialAvailability, total = pick(all.SocialAvailability, func(r models.SocialAvailability) int64 { return r.DistrictID }, keep, page)
	case models.MetricLifeBalance:
		out.LifeBalance, total = pick(all.LifeBalance, func(r models.LifeBalance) int64 { return r.DistrictID }, keep, page)
	case models.MetricSafety:
		out.Safety, total = pick(all.Safety, func(r models.Safety) int64 { return r.DistrictID }, keep, page)
	case models.MetricAggregates:
		out.Aggregates, total = pick(all.Aggregates, func(r models.DaypartAggregate) int64 { return r.DistrictID }, keep, page)
	default:
		return models.Metrics{}, 0, fmt.Errorf("unknown metric kind %q", kind)
	}
	return out, total, nil
}

// pick filters rows by district. With a page it returns the newest-first
// window instead of ID order.
func pick[T any](rows []T, districtOf func(T) int64, keep func(int64) bool, page *models.Page) ([]T, int) {
	out := make([]T, 0)
	for _, r := range rows {
		if keep(districtOf(r)) {
			out = append(out, r)
		}
	}
	total := len(out)
	if page == nil {
		return out, total
	}
	slices.Reverse(out)
	lo, hi := page.Window(total)
	return out[lo:hi], total
}
