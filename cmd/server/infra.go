package main

import (
	"context"
	"database/sql"
	"log/slog"
	"time"

	"golang.org/x/time/rate"

	"cityscope/internal/district"
	dmetrics "cityscope/internal/district/metrics"
	"cityscope/internal/district/store"
	"cityscope/internal/district/store/seed"
	"cityscope/internal/geocode"
	"cityscope/internal/platform/config"
	"cityscope/internal/platform/postgres"
	"cityscope/internal/platform/redis"
	"cityscope/pkg/platform/circuit"
)

// infra holds the process-wide connections. db and redis are nil when not
// configured.
type infra struct {
	catalog district.Catalog
	db      *sql.DB
	redis   *redis.Client
	log     *slog.Logger
}

func buildInfra(ctx context.Context, cfg config.Config, log *slog.Logger) (*infra, error) {
	deps := &infra{log: log}

	if cfg.Database.Enabled() {
		db, err := postgres.Open(ctx, cfg.Database)
		if err != nil {
			return nil, err
		}
		deps.db = db
		deps.catalog = store.NewPostgres(db)
		log.Info("using postgres catalog", "host", cfg.Database.Host, "database", cfg.Database.Name)
	} else {
		mem, err := store.NewSeededInMemory(seed.MustLoad())
		if err != nil {
			return nil, err
		}
		deps.catalog = mem
		log.Info("using in-memory seeded catalog")
	}

	rc, err := redis.New(ctx, cfg.Redis)
	if err != nil {
		deps.Close()
		return nil, err
	}
	deps.redis = rc
	return deps, nil
}

func (d *infra) Close() {
	if d.db != nil {
		if err := d.db.Close(); err != nil {
			d.log.Warn("closing postgres", "error", err)
		}
	}
	if d.redis != nil {
		if err := d.redis.Close(); err != nil {
			d.log.Warn("closing redis", "error", err)
		}
	}
}

// Health reports the first unreachable backend.
func (d *infra) Health(ctx context.Context) error {
	if d.db != nil {
		if err := d.db.PingContext(ctx); err != nil {
			return err
		}
	}
	if d.redis != nil {
		return d.redis.Health(ctx)
	}
	return nil
}

func buildGeocoder(cfg config.Geocoder, rc *redis.Client, log *slog.Logger, m *dmetrics.Metrics) geocode.Geocoder {
	opts := []geocode.NominatimOption{
		geocode.WithTimeout(cfg.Timeout),
		geocode.WithUserAgent(cfg.UserAgent),
		geocode.WithCountryCodes(cfg.CountryCodes),
		geocode.WithBreaker(circuit.New("nominatim",
			circuit.WithFailureThreshold(cfg.BreakerThreshold),
			circuit.WithCooldown(cfg.BreakerCooldown),
		)),
		geocode.WithMetrics(m),
		geocode.WithLogger(log),
	}
	if cfg.RatePerMinute > 0 {
		opts = append(opts, geocode.WithRateLimit(rate.NewLimiter(rate.Every(time.Minute/time.Duration(cfg.RatePerMinute)), 1)))
	}
	upstream := geocode.NewNominatim(cfg.BaseURL, opts...)

	var cache geocode.Cache = geocode.NewMemoryCache()
	if rc != nil {
		cache = geocode.NewRedisCache(rc.Client)
	}
	return geocode.NewCached(upstream, cache,
		geocode.WithCacheTTL(cfg.CacheTTL),
		geocode.WithCacheMetrics(m),
		geocode.WithCacheLogger(log),
	)
}
