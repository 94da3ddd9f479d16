package geocode

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
	"golang.org/x/time/rate"

	"cityscope/internal/district/metrics"
	"cityscope/pkg/platform/circuit"
)

const (
	// MaxTimeout caps every upstream call; there is no retry.
	MaxTimeout = 10 * time.Second

	maxResponseBytes = 1 << 20
)

// NominatimClient queries a Nominatim-compatible /search endpoint.
type NominatimClient struct {
	baseURL      string
	userAgent    string
	language     string
	countryCodes []string
	client       *http.Client
	breaker      *circuit.Breaker
	limiter      *rate.Limiter
	metrics      *metrics.Metrics
	logger       *slog.Logger
}

type NominatimOption func(*NominatimClient)

// WithTimeout sets the per-call timeout, capped at MaxTimeout.
func WithTimeout(d time.Duration) NominatimOption {
	return func(c *NominatimClient) {
		c.client.Timeout = capTimeout(d)
	}
}

// WithHTTPClient replaces the transport client. Its timeout is still capped.
func WithHTTPClient(hc *http.Client) NominatimOption {
	return func(c *NominatimClient) {
		cp := *hc
		cp.Timeout = capTimeout(hc.Timeout)
		c.client = &cp
	}
}

func WithUserAgent(ua string) NominatimOption {
	return func(c *NominatimClient) {
		if ua != "" {
			c.userAgent = ua
		}
	}
}

func WithCountryCodes(codes []string) NominatimOption {
	return func(c *NominatimClient) {
		c.countryCodes = codes
	}
}

// WithBreaker fails fast with CategoryProviderOutage while b is open.
func WithBreaker(b *circuit.Breaker) NominatimOption {
	return func(c *NominatimClient) {
		c.breaker = b
	}
}

// WithRateLimit paces outbound calls; public Nominatim allows one per second.
func WithRateLimit(l *rate.Limiter) NominatimOption {
	return func(c *NominatimClient) {
		c.limiter = l
	}
}

func WithMetrics(m *metrics.Metrics) NominatimOption {
	return func(c *NominatimClient) {
		c.metrics = m
	}
}

func WithLogger(logger *slog.Logger) NominatimOption {
	return func(c *NominatimClient) {
		c.logger = logger
	}
}

func NewNominatim(baseURL string, opts ...NominatimOption) *NominatimClient {
	c := &NominatimClient{
		baseURL:   strings.TrimRight(baseURL, "/"),
		userAgent: "cityscope/1.0",
		language:  "pl",
		client: &http.Client{
			Timeout:   MaxTimeout,
			Transport: otelhttp.NewTransport(http.DefaultTransport),
		},
		logger: slog.Default(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

type nominatimResult struct {
	Lat         string  `json:"lat"`
	Lon         string  `json:"lon"`
	DisplayName string  `json:"display_name"`
	Address     Address `json:"address"`
}

// Search returns the top hit for query.
func (c *NominatimClient) Search(ctx context.Context, query string) (*Place, error) {
	start := time.Now()
	place, err := c.search(ctx, query)
	c.metrics.ObserveGeocode(outcome(err), start)
	return place, err
}

func (c *NominatimClient) search(ctx context.Context, query string) (*Place, error) {
	if !c.breaker.Allow() {
		return nil, &LookupError{Category: CategoryProviderOutage, Underlying: circuit.ErrCircuitOpen}
	}
	if c.limiter != nil {
		if err := c.limiter.Wait(ctx); err != nil {
			c.breaker.Release()
			return nil, &LookupError{Category: CategoryRateLimited, Underlying: err}
		}
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.searchURL(query), nil)
	if err != nil {
		c.breaker.Release()
		return nil, fmt.Errorf("build geocode request: %w", err)
	}
	req.Header.Set("User-Agent", c.userAgent)
	req.Header.Set("Accept-Language", c.language)
	req.Header.Set("Accept", "application/json")

	resp, err := c.client.Do(req)
	if err != nil {
		if errors.Is(err, context.Canceled) {
			c.breaker.Release()
			return nil, fmt.Errorf("geocode: %w", err)
		}
		return nil, c.fail(ctx, classifyTransport(err))
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusTooManyRequests:
		return nil, c.fail(ctx, &LookupError{Category: CategoryRateLimited, Status: resp.StatusCode})
	case resp.StatusCode < 200 || resp.StatusCode > 299:
		return nil, c.fail(ctx, &LookupError{Category: CategoryProviderOutage, Status: resp.StatusCode})
	}
	c.succeed(ctx)

	var results []nominatimResult
	if err := json.NewDecoder(io.LimitReader(resp.Body, maxResponseBytes)).Decode(&results); err != nil {
		return nil, &LookupError{Category: CategoryBadData, Status: resp.StatusCode, Underlying: err}
	}
	if len(results) == 0 {
		return nil, ErrNoResults
	}
	return toPlace(results[0], resp.StatusCode)
}

func (c *NominatimClient) searchURL(query string) string {
	q := url.Values{}
	q.Set("q", query)
	q.Set("format", "jsonv2")
	q.Set("addressdetails", "1")
	q.Set("limit", "1")
	if len(c.countryCodes) > 0 {
		q.Set("countrycodes", strings.Join(c.countryCodes, ","))
	}
	return c.baseURL + "/search?" + q.Encode()
}

func (c *NominatimClient) fail(ctx context.Context, err *LookupError) error {
	if _, change := c.breaker.RecordFailure(); change.Opened {
		c.logger.WarnContext(ctx, "geocoder circuit opened", "category", err.Category, "status", err.Status)
	}
	return err
}

func (c *NominatimClient) succeed(ctx context.Context) {
	if _, change := c.breaker.RecordSuccess(); change.Closed {
		c.logger.InfoContext(ctx, "geocoder circuit closed")
	}
}

func toPlace(r nominatimResult, status int) (*Place, error) {
	lat, err := strconv.ParseFloat(r.Lat, 64)
	if err != nil {
		return nil, &LookupError{Category: CategoryBadData, Status: status, Underlying: fmt.Errorf("lat %q: %w", r.Lat, err)}
	}
	lon, err := strconv.ParseFloat(r.Lon, 64)
	if err != nil {
		return nil, &LookupError{Category: CategoryBadData, Status: status, Underlying: fmt.Errorf("lon %q: %w", r.Lon, err)}
	}
	addr := r.Address
	if addr == nil {
		addr = Address{}
	}
	return &Place{DisplayName: r.DisplayName, Lat: lat, Lon: lon, Address: addr}, nil
}

func classifyTransport(err error) *LookupError {
	var netErr net.Error
	if errors.Is(err, context.DeadlineExceeded) || (errors.As(err, &netErr) && netErr.Timeout()) {
		return &LookupError{Category: CategoryTimeout, Underlying: err}
	}
	return &LookupError{Category: CategoryProviderOutage, Underlying: err}
}

func capTimeout(d time.Duration) time.Duration {
	if d <= 0 || d > MaxTimeout {
		return MaxTimeout
	}
	return d
}

func outcome(err error) string {
	var le *LookupError
	switch {
	case err == nil:
		return "ok"
	case errors.Is(err, ErrNoResults):
		return "no_results"
	case errors.As(err, &le):
		return string(le.Category)
	default:
		return "canceled"
	}
}
