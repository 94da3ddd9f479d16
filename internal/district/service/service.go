package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"golang.org/x/sync/errgroup"

	"cityscope/internal/district/metrics"
	"cityscope/internal/district/models"
	"cityscope/internal/district/resolver"
	"cityscope/internal/geocode"
	dErrors "cityscope/pkg/domain-errors"
	"cityscope/pkg/platform/sentinel"
)

// DefaultQualifier is appended to every address before geocoding.
const DefaultQualifier = "Warszawa, Polska"

var (
	// ErrUpstreamLookup wraps any geocoder failure, including an empty result.
	ErrUpstreamLookup = errors.New("address lookup failed")
	// ErrNoCandidateName means the geocoded address had no district-like
	// component.
	ErrNoCandidateName = errors.New("no district in address")
	// ErrDistrictNotInCatalog means the extracted name did not resolve.
	ErrDistrictNotInCatalog = errors.New("district not in catalog")
)

type CatalogStore interface {
	FindByID(ctx context.Context, id int64) (*models.District, error)
	List(ctx context.Context, page models.Page) ([]*models.District, int, error)
	MetricRows(ctx context.Context, kind models.MetricKind, districtIDs []int64) (models.Metrics, error)
	ListMetricRows(ctx context.Context, kind models.MetricKind, page models.Page) (models.Metrics, int, error)
}

type NameResolver interface {
	Match(ctx context.Context, name string) (resolver.Match, error)
}

type Geocoder interface {
	Search(ctx context.Context, query string) (*geocode.Place, error)
}

// AddressResolution is the outcome of the address flow. Metrics is only set
// by ResolveByAddressDetailed.
type AddressResolution struct {
	Address       string           `json:"address"`
	CandidateName string           `json:"candidate_name"`
	Tier          resolver.Tier    `json:"tier"`
	District      *models.District `json:"district"`
	Metrics       *models.Metrics  `json:"metrics,omitempty"`
}

// Service serves catalog reads and composes geocoding with name resolution.
type Service struct {
	catalog        CatalogStore
	resolver       NameResolver
	geocoder       Geocoder
	qualifier      string
	districtFields []string
	logger         *slog.Logger
	metrics        *metrics.Metrics
	tracer         trace.Tracer
}

type Option func(*Service)

func WithLogger(logger *slog.Logger) Option {
	return func(s *Service) {
		s.logger = logger
	}
}

func WithMetrics(m *metrics.Metrics) Option {
	return func(s *Service) {
		s.metrics = m
	}
}

// WithGeocoder enables the address flow.
func WithGeocoder(g Geocoder) Option {
	return func(s *Service) {
		s.geocoder = g
	}
}

func WithQualifier(q string) Option {
	return func(s *Service) {
		if q = strings.TrimSpace(q); q != "" {
			s.qualifier = q
		}
	}
}

// WithDistrictFields overrides geocode.DefaultDistrictFields.
func WithDistrictFields(fields []string) Option {
	return func(s *Service) {
		s.districtFields = fields
	}
}

func New(catalog CatalogStore, names NameResolver, opts ...Option) *Service {
	s := &Service{
		catalog:   catalog,
		resolver:  names,
		qualifier: DefaultQualifier,
		logger:    slog.Default(),
		tracer:    otel.Tracer("cityscope/service"),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// ResolveName runs the resolution tiers for a free-text district name.
func (s *Service) ResolveName(ctx context.Context, name string) (resolver.Match, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return resolver.Match{}, dErrors.New(dErrors.CodeValidation, "name is required")
	}
	m, err := s.resolver.Match(ctx, name)
	if err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return resolver.Match{}, dErrors.Wrap(err, dErrors.CodeNotFound, fmt.Sprintf("district %q not found", name))
		}
		return resolver.Match{}, dErrors.Wrap(err, dErrors.CodeInternal, "failed to resolve district")
	}
	return m, nil
}

// ResolveByAddress geocodes address, picks its district-like component and
// resolves that against the catalog. On any failure the resolution is nil.
func (s *Service) ResolveByAddress(ctx context.Context, address string) (*AddressResolution, error) {
	ctx, span := s.tracer.Start(ctx, "service.ResolveByAddress")
	defer span.End()

	res, err := s.resolveByAddress(ctx, address)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return nil, err
	}
	span.SetAttributes(
		attribute.String("district.candidate", res.CandidateName),
		attribute.String("resolver.tier", string(res.Tier)),
	)
	return res, nil
}

// ResolveByAddressDetailed is ResolveByAddress with the district's metric
// rows attached.
func (s *Service) ResolveByAddressDetailed(ctx context.Context, address string) (*AddressResolution, error) {
	res, err := s.ResolveByAddress(ctx, address)
	if err != nil {
		return nil, err
	}
	all, err := s.loadMetrics(ctx, []int64{res.District.ID})
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to load district metrics")
	}
	m := all.ForDistrict(res.District.ID)
	res.Metrics = &m
	return res, nil
}

func (s *Service) resolveByAddress(ctx context.Context, address string) (*AddressResolution, error) {
	address = strings.TrimSpace(address)
	if address == "" {
		return nil, dErrors.New(dErrors.CodeValidation, "address is required")
	}
	if s.geocoder == nil {
		return nil, dErrors.Wrap(fmt.Errorf("%w: no geocoder configured", ErrUpstreamLookup), dErrors.CodeBadGateway, "address lookup unavailable")
	}

	place, err := s.geocoder.Search(ctx, address+", "+s.qualifier)
	if err != nil {
		s.logger.WarnContext(ctx, "address lookup failed", "error", err)
		return nil, dErrors.Wrap(fmt.Errorf("%w: %w", ErrUpstreamLookup, err), dErrors.CodeBadGateway, "address lookup failed")
	}

	candidate, ok := geocode.ExtractDistrictName(place.Address, s.districtFields)
	if !ok {
		return nil, dErrors.Wrap(ErrNoCandidateName, dErrors.CodeNoDistrictInAddress, "address has no district component")
	}

	m, err := s.resolver.Match(ctx, candidate)
	if err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return nil, dErrors.Wrap(fmt.Errorf("%w: %w", ErrDistrictNotInCatalog, err), dErrors.CodeNotFound,
				fmt.Sprintf("district %q not in catalog", candidate))
		}
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to resolve district")
	}

	s.logger.InfoContext(ctx, "address resolved",
		"candidate", candidate,
		"district_code", m.District.Code,
		"tier", m.Tier,
	)
	return &AddressResolution{
		Address:       address,
		CandidateName: candidate,
		Tier:          m.Tier,
		District:      m.District,
	}, nil
}

// List returns a page of districts, newest first, and the total count.
func (s *Service) List(ctx context.Context, page models.Page) ([]*models.District, int, error) {
	rows, total, err := s.catalog.List(ctx, page)
	if err != nil {
		return nil, 0, dErrors.Wrap(err, dErrors.CodeInternal, "failed to list districts")
	}
	return rows, total, nil
}

// ListDetailed is List with every metric table eager-loaded.
func (s *Service) ListDetailed(ctx context.Context, page models.Page) ([]*models.DistrictDetail, int, error) {
	rows, total, err := s.List(ctx, page)
	if err != nil {
		return nil, 0, err
	}
	ids := make([]int64, len(rows))
	for i, d := range rows {
		ids[i] = d.ID
	}
	all, err := s.loadMetrics(ctx, ids)
	if err != nil {
		return nil, 0, dErrors.Wrap(err, dErrors.CodeInternal, "failed to load district metrics")
	}
	out := make([]*models.DistrictDetail, len(rows))
	for i, d := range rows {
		out[i] = &models.DistrictDetail{District: *d, Metrics: all.ForDistrict(d.ID)}
	}
	return out, total, nil
}

func (s *Service) Get(ctx context.Context, id int64) (*models.District, error) {
	d, err := s.catalog.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return nil, dErrors.Wrap(err, dErrors.CodeNotFound, "district not found")
		}
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to load district")
	}
	return d, nil
}

func (s *Service) GetDetail(ctx context.Context, id int64) (*models.DistrictDetail, error) {
	d, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	all, err := s.loadMetrics(ctx, []int64{id})
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to load district metrics")
	}
	return &models.DistrictDetail{District: *d, Metrics: all.ForDistrict(id)}, nil
}

// ListMetrics pages through one metric table, newest first.
func (s *Service) ListMetrics(ctx context.Context, kind models.MetricKind, page models.Page) (models.Metrics, int, error) {
	if _, ok := models.ParseMetricKind(string(kind)); !ok {
		return models.Metrics{}, 0, dErrors.New(dErrors.CodeValidation, fmt.Sprintf("unknown metric kind %q", kind))
	}
	rows, total, err := s.catalog.ListMetricRows(ctx, kind, page)
	if err != nil {
		return models.Metrics{}, 0, dErrors.Wrap(err, dErrors.CodeInternal, "failed to list metrics")
	}
	return rows, total, nil
}

// loadMetrics reads every metric table for ids concurrently. The first
// failure cancels the remaining queries.
func (s *Service) loadMetrics(ctx context.Context, ids []int64) (models.Metrics, error) {
	if len(ids) == 0 {
		return models.Metrics{}, nil
	}
	defer s.metrics.ObserveDetailLoad(time.Now())

	parts := make([]models.Metrics, len(models.MetricKinds))
	g, gctx := errgroup.WithContext(ctx)
	for i, kind := range models.MetricKinds {
		g.Go(func() error {
			rows, err := s.catalog.MetricRows(gctx, kind, ids)
			if err != nil {
				return fmt.Errorf("load %s: %w", kind, err)
			}
			parts[i] = rows
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return models.Metrics{}, err
	}

	var all models.Metrics
	for _, p := range parts {
		all.Merge(p)
	}
	return all, nil
}
