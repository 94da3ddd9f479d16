package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics provides observability for district resolution.
// A nil *Metrics is valid and records nothing.
type Metrics struct {
	ResolveTier        *prometheus.CounterVec
	ResolveDuration    prometheus.Histogram
	GeocodeDuration    *prometheus.HistogramVec
	GeocodeCache       *prometheus.CounterVec
	SnapshotLoads      prometheus.Counter
	DetailLoadDuration prometheus.Histogram
}

// New registers the district metrics on the default registry.
func New() *Metrics {
	return NewWithRegisterer(prometheus.DefaultRegisterer)
}

func NewWithRegisterer(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)
	return &Metrics{
		ResolveTier: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "cityscope_resolve_tier_total",
			Help: "Name resolutions by the tier that matched (none for misses)",
		}, []string{"tier"}),
		ResolveDuration: factory.NewHistogram(prometheus.HistogramOpts{
			Name:    "cityscope_resolve_duration_seconds",
			Help:    "Duration of name resolution across all tiers",
			Buckets: []float64{0.0005, 0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5},
		}),
		GeocodeDuration: factory.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "cityscope_geocode_duration_seconds",
			Help:    "Duration of upstream geocoder calls by outcome",
			Buckets: []float64{0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10},
		}, []string{"outcome"}),
		GeocodeCache: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "cityscope_geocode_cache_total",
			Help: "Geocode cache lookups by result (hit, miss, error)",
		}, []string{"result"}),
		SnapshotLoads: factory.NewCounter(prometheus.CounterOpts{
			Name: "cityscope_resolve_snapshot_loads_total",
			Help: "Full catalog reads made by the scan tiers",
		}),
		DetailLoadDuration: factory.NewHistogram(prometheus.HistogramOpts{
			Name:    "cityscope_detail_load_duration_seconds",
			Help:    "Duration of eager metric loading for district details",
			Buckets: []float64{0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1},
		}),
	}
}

// IncResolveTier counts a resolution outcome.
func (m *Metrics) IncResolveTier(tier string) {
	if m == nil {
		return
	}
	m.ResolveTier.WithLabelValues(tier).Inc()
}

// ObserveResolve records resolution latency. Call with time.Now() at the start.
func (m *Metrics) ObserveResolve(start time.Time) {
	if m == nil {
		return
	}
	m.ResolveDuration.Observe(time.Since(start).Seconds())
}

// ObserveGeocode records an upstream geocoder call.
func (m *Metrics) ObserveGeocode(outcome string, start time.Time) {
	if m == nil {
		return
	}
	m.GeocodeDuration.WithLabelValues(outcome).Observe(time.Since(start).Seconds())
}

func (m *Metrics) IncGeocodeCache(result string) {
	if m == nil {
		return
	}
	m.GeocodeCache.WithLabelValues(result).Inc()
}

func (m *Metrics) IncSnapshotLoad() {
	if m == nil {
		return
	}
	m.SnapshotLoads.Inc()
}

func (m *Metrics) ObserveDetailLoad(start time.Time) {
	if m == nil {
		return
	}
	m.DetailLoadDuration.Observe(time.Since(start).Seconds())
}
