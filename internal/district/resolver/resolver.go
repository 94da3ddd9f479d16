// Package resolver maps free-text district names onto canonical catalog rows.
//
// Lookups run in a fixed tier order and the first hit wins:
//
//  1. code:         lower(code) equals normalize.Code(name)
//  2. name:         lower(name) equals lower(name) (no diacritic folding)
//  3. name_prefix:  name ILIKE name%
//  4. display_scan: full scan on normalize.Display forms: equal, then the row
//     extends the query
//  5. code_scan:    full scan on normalize.Code forms: equal, then prefix
//
// When every tier misses, one more display pass accepts a query that extends
// a row by whole words ("Śródmieście Południowe"); it reports display_scan.
//
// Tiers 4 and 5 are the degraded path for rows whose stored code no longer
// matches their name; they read the whole catalog unless a snapshot TTL is
// configured.
package resolver

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"cityscope/internal/district/metrics"
	"cityscope/internal/district/models"
	"cityscope/internal/district/normalize"
	"cityscope/pkg/platform/sentinel"
)

// Catalog is the read port the resolver needs. Each Find method returns
// sentinel.ErrNotFound (possibly wrapped) when nothing matches.
type Catalog interface {
	FindByCode(ctx context.Context, code string) (*models.District, error)
	FindByName(ctx context.Context, name string) (*models.District, error)
	FindByNamePrefix(ctx context.Context, prefix string) (*models.District, error)
	ListAll(ctx context.Context) ([]*models.District, error)
}

// Tier identifies which lookup produced a match.
type Tier string

const (
	TierCode        Tier = "code"
	TierName        Tier = "name"
	TierNamePrefix  Tier = "name_prefix"
	TierDisplayScan Tier = "display_scan"
	TierCodeScan    Tier = "code_scan"

	tierNone = "none"
)

// ErrNotFound reports that no tier matched. It wraps sentinel.ErrNotFound.
var ErrNotFound = fmt.Errorf("district %w", sentinel.ErrNotFound)

// Match is a resolved district and the tier that found it.
type Match struct {
	District *models.District
	Tier     Tier
}

// Resolver is safe for concurrent use.
type Resolver struct {
	catalog     Catalog
	logger      *slog.Logger
	metrics     *metrics.Metrics
	tracer      trace.Tracer
	snapshotTTL time.Duration
	now         func() time.Time

	mu         sync.RWMutex
	snapshot   []*models.District
	snapshotAt time.Time
}

type Option func(*Resolver)

func WithLogger(logger *slog.Logger) Option {
	return func(r *Resolver) {
		r.logger = logger
	}
}

func WithMetrics(m *metrics.Metrics) Option {
	return func(r *Resolver) {
		r.metrics = m
	}
}

// WithSnapshotTTL keeps the full-scan snapshot in memory for ttl. Zero
// disables caching and every scan re-reads the catalog.
func WithSnapshotTTL(ttl time.Duration) Option {
	return func(r *Resolver) {
		r.snapshotTTL = ttl
	}
}

// WithClock overrides time.Now for snapshot expiry.
func WithClock(now func() time.Time) Option {
	return func(r *Resolver) {
		if now != nil {
			r.now = now
		}
	}
}

func New(catalog Catalog, opts ...Option) *Resolver {
	r := &Resolver{
		catalog: catalog,
		logger:  slog.Default(),
		tracer:  otel.Tracer("cityscope/resolver"),
		now:     time.Now,
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Resolve returns the canonical district for name, or ErrNotFound.
func (r *Resolver) Resolve(ctx context.Context, name string) (*models.District, error) {
	m, err := r.Match(ctx, name)
	if err != nil {
		return nil, err
	}
	return m.District, nil
}

// Match is Resolve that also reports the matching tier.
func (r *Resolver) Match(ctx context.Context, name string) (Match, error) {
	ctx, span := r.tracer.Start(ctx, "resolver.Resolve")
	defer span.End()
	start := time.Now()
	defer r.metrics.ObserveResolve(start)

	m, err := r.match(ctx, name)
	switch {
	case err == nil:
		span.SetAttributes(attribute.String("resolver.tier", string(m.Tier)))
		r.metrics.IncResolveTier(string(m.Tier))
		r.logger.DebugContext(ctx, "district resolved",
			"query", name,
			"tier", m.Tier,
			"district_id", m.District.ID,
		)
	case errors.Is(err, ErrNotFound):
		span.SetAttributes(attribute.String("resolver.tier", tierNone))
		r.metrics.IncResolveTier(tierNone)
	default:
		span.RecordError(err)
		span.SetStatus(codes.Error, "resolve failed")
	}
	return m, err
}

func (r *Resolver) match(ctx context.Context, name string) (Match, error) {
	name = strings.TrimSpace(name)
	code := normalize.Code(name)
	if code == "" {
		// An empty prefix would match every row.
		return Match{}, ErrNotFound
	}

	lookups := []struct {
		tier Tier
		find func() (*models.District, error)
	}{
		{TierCode, func() (*models.District, error) { return r.catalog.FindByCode(ctx, code) }},
		{TierName, func() (*models.District, error) { return r.catalog.FindByName(ctx, name) }},
		{TierNamePrefix, func() (*models.District, error) { return r.catalog.FindByNamePrefix(ctx, name) }},
	}
	for _, l := range lookups {
		d, err := l.find()
		if err == nil {
			return Match{District: d, Tier: l.tier}, nil
		}
		if !errors.Is(err, sentinel.ErrNotFound) {
			return Match{}, fmt.Errorf("resolve %s tier: %w", l.tier, err)
		}
	}

	rows, err := r.loadSnapshot(ctx)
	if err != nil {
		return Match{}, fmt.Errorf("resolve scan tiers: %w", err)
	}

	target := normalize.Display(name)
	if d := firstMatch(rows, normalize.Display,
		func(n string) bool { return n == target },
		func(n string) bool { return strings.HasPrefix(n, target) },
	); d != nil {
		return Match{District: d, Tier: TierDisplayScan}, nil
	}
	if d := firstMatch(rows, normalize.Code,
		func(c string) bool { return c == code },
		func(c string) bool { return strings.HasPrefix(c, code) },
	); d != nil {
		return Match{District: d, Tier: TierCodeScan}, nil
	}
	// Last resort, a trailing qualifier: "srodmiescie poludniowe" extends
	// the row "srodmiescie". Runs after the code scan so it never takes a
	// row that an exact or prefix scan would return.
	if d := firstMatch(rows, normalize.Display,
		func(n string) bool { return n != "" && strings.HasPrefix(target, n+" ") },
	); d != nil {
		return Match{District: d, Tier: TierDisplayScan}, nil
	}
	return Match{}, ErrNotFound
}

func (r *Resolver) loadSnapshot(ctx context.Context) ([]*models.District, error) {
	if r.snapshotTTL > 0 {
		r.mu.RLock()
		rows, at := r.snapshot, r.snapshotAt
		r.mu.RUnlock()
		if rows != nil && r.now().Sub(at) < r.snapshotTTL {
			return rows, nil
		}
	}

	rows, err := r.catalog.ListAll(ctx)
	if err != nil {
		return nil, err
	}
	r.metrics.IncSnapshotLoad()

	if r.snapshotTTL > 0 {
		r.mu.Lock()
		r.snapshot, r.snapshotAt = rows, r.now()
		r.mu.Unlock()
	}
	return rows, nil
}

// firstMatch applies each predicate as a separate pass over rows, in order,
// and returns a copy of the first row hit. Earlier predicates are stricter.
func firstMatch(rows []*models.District, form func(string) string, preds ...func(string) bool) *models.District {
	forms := make([]string, len(rows))
	for i, d := range rows {
		forms[i] = form(d.Name)
	}
	for _, pred := range preds {
		for i, f := range forms {
			if pred(f) {
				out := *rows[i]
				return &out
			}
		}
	}
	return nil
}

// InvalidateSnapshot drops any cached full-scan snapshot.
func (r *Resolver) InvalidateSnapshot() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.snapshot = nil
	r.snapshotAt = time.Time{}
}
