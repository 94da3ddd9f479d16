package geocode

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"cityscope/internal/district/metrics"
	"cityscope/internal/district/normalize"
	"cityscope/pkg/requestcontext"
)

// DefaultCacheTTL is how long a successful lookup is reused.
const DefaultCacheTTL = 24 * time.Hour

// Cache stores successful lookups. Get reports a miss with ok=false and a nil
// error.
type Cache interface {
	Get(ctx context.Context, key string) (place *Place, ok bool, err error)
	Set(ctx context.Context, key string, place *Place, ttl time.Duration) error
}

// CachedGeocoder consults a Cache before delegating. Only successful lookups
// are stored; a broken cache is logged and bypassed.
type CachedGeocoder struct {
	next    Geocoder
	cache   Cache
	ttl     time.Duration
	metrics *metrics.Metrics
	logger  *slog.Logger
}

type CacheOption func(*CachedGeocoder)

func WithCacheTTL(ttl time.Duration) CacheOption {
	return func(g *CachedGeocoder) {
		if ttl > 0 {
			g.ttl = ttl
		}
	}
}

func WithCacheMetrics(m *metrics.Metrics) CacheOption {
	return func(g *CachedGeocoder) {
		g.metrics = m
	}
}

func WithCacheLogger(logger *slog.Logger) CacheOption {
	return func(g *CachedGeocoder) {
		g.logger = logger
	}
}

func NewCached(next Geocoder, cache Cache, opts ...CacheOption) *CachedGeocoder {
	g := &CachedGeocoder{
		next:   next,
		cache:  cache,
		ttl:    DefaultCacheTTL,
		logger: slog.Default(),
	}
	for _, opt := range opts {
		opt(g)
	}
	return g
}

// CacheKey folds query so spellings differing only in case, diacritics or
// spacing share an entry.
func CacheKey(query string) string {
	return "geocode:" + normalize.Display(query)
}

func (g *CachedGeocoder) Search(ctx context.Context, query string) (*Place, error) {
	key := CacheKey(query)

	place, ok, err := g.cache.Get(ctx, key)
	switch {
	case err != nil:
		g.metrics.IncGeocodeCache("error")
		g.logger.WarnContext(ctx, "geocode cache read failed", "error", err)
	case ok:
		g.metrics.IncGeocodeCache("hit")
		return place, nil
	default:
		g.metrics.IncGeocodeCache("miss")
	}

	place, err = g.next.Search(ctx, query)
	if err != nil {
		return nil, err
	}
	if err := g.cache.Set(ctx, key, place, g.ttl); err != nil {
		g.metrics.IncGeocodeCache("error")
		g.logger.WarnContext(ctx, "geocode cache write failed", "error", err)
	}
	return place, nil
}

type memoryEntry struct {
	place     Place
	expiresAt time.Time
}

// MemoryCache is a process-local Cache used when Redis is not configured.
type MemoryCache struct {
	mu      sync.RWMutex
	entries map[string]memoryEntry
	now     func(ctx context.Context) time.Time
}

// NewMemoryCache returns a cache whose clock is the request time carried on
// the context, so every lookup in one request sees the same expiry cut-off.
func NewMemoryCache() *MemoryCache {
	return &MemoryCache{entries: make(map[string]memoryEntry), now: requestcontext.Now}
}

// WithNow overrides the clock; used by tests.
func (c *MemoryCache) WithNow(now func() time.Time) *MemoryCache {
	c.now = func(context.Context) time.Time { return now() }
	return c
}

func (c *MemoryCache) Get(ctx context.Context, key string) (*Place, bool, error) {
	c.mu.RLock()
	entry, ok := c.entries[key]
	c.mu.RUnlock()
	if !ok {
		return nil, false, nil
	}
	if !c.now(ctx).Before(entry.expiresAt) {
		c.mu.Lock()
		if cur, still := c.entries[key]; still && cur.expiresAt.Equal(entry.expiresAt) {
			delete(c.entries, key)
		}
		c.mu.Unlock()
		return nil, false, nil
	}
	p := clonePlace(entry.place)
	return &p, true, nil
}

func (c *MemoryCache) Set(ctx context.Context, key string, place *Place, ttl time.Duration) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries[key] = memoryEntry{place: clonePlace(*place), expiresAt: c.now(ctx).Add(ttl)}
	return nil
}

// Len returns the number of stored entries, expired ones included.
func (c *MemoryCache) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.entries)
}

func clonePlace(p Place) Place {
	addr := make(Address, len(p.Address))
	for k, v := range p.Address {
		addr[k] = v
	}
	p.Address = addr
	return p
}
