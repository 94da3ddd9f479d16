package service

//go:generate mockgen -source=service.go -destination=mocks/mocks.go -package=mocks CatalogStore,NameResolver,Geocoder

import (
	"context"
	"errors"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"
	"go.uber.org/mock/gomock"

	"cityscope/internal/district/metrics"
	"cityscope/internal/district/models"
	"cityscope/internal/district/resolver"
	"cityscope/internal/district/service/mocks"
	"cityscope/internal/geocode"
	dErrors "cityscope/pkg/domain-errors"
	"cityscope/pkg/platform/sentinel"
)

type AddressFlowSuite struct {
	suite.Suite
	ctrl     *gomock.Controller
	catalog  *mocks.MockCatalogStore
	names    *mocks.MockNameResolver
	geocoder *mocks.MockGeocoder
	service  *Service
	ctx      context.Context
}

func TestAddressFlowSuite(t *testing.T) {
	suite.Run(t, new(AddressFlowSuite))
}

func (s *AddressFlowSuite) SetupTest() {
	s.ctrl = gomock.NewController(s.T())
	s.catalog = mocks.NewMockCatalogStore(s.ctrl)
	s.names = mocks.NewMockNameResolver(s.ctrl)
	s.geocoder = mocks.NewMockGeocoder(s.ctrl)
	s.service = New(s.catalog, s.names, WithGeocoder(s.geocoder))
	s.ctx = context.Background()
}

func place(addr geocode.Address) *geocode.Place {
	return &geocode.Place{DisplayName: "somewhere", Lat: 52.23, Lon: 21.01, Address: addr}
}

func (s *AddressFlowSuite) TestResolvesSuburb() {
	wola := &models.District{ID: 2, Name: "wola", Code: "wola"}
	s.geocoder.EXPECT().Search(gomock.Any(), "Górczewska 12, Warszawa, Polska").
		Return(place(geocode.Address{"suburb": "Wola", "road": "Górczewska"}), nil)
	s.names.EXPECT().Match(gomock.Any(), "Wola").Return(resolver.Match{District: wola, Tier: resolver.TierCode}, nil)

	res, err := s.service.ResolveByAddress(s.ctx, "  Górczewska 12 ")
	s.Require().NoError(err)
	s.Equal("Górczewska 12", res.Address)
	s.Equal("Wola", res.CandidateName)
	s.Equal(resolver.TierCode, res.Tier)
	s.Equal("wola", res.District.Code)
	s.Nil(res.Metrics)
}

func (s *AddressFlowSuite) TestCustomQualifierAndFields() {
	svc := New(s.catalog, s.names,
		WithGeocoder(s.geocoder),
		WithQualifier("Kraków, Polska"),
		WithDistrictFields([]string{"quarter"}),
	)
	s.geocoder.EXPECT().Search(gomock.Any(), "Floriańska 1, Kraków, Polska").
		Return(place(geocode.Address{"suburb": "Stare Miasto", "quarter": "Kleparz"}), nil)
	s.names.EXPECT().Match(gomock.Any(), "Kleparz").
		Return(resolver.Match{District: &models.District{ID: 9, Code: "kleparz"}, Tier: resolver.TierName}, nil)

	res, err := svc.ResolveByAddress(s.ctx, "Floriańska 1")
	s.Require().NoError(err)
	s.Equal("Kleparz", res.CandidateName)
}

func (s *AddressFlowSuite) TestEmptyAddressIsValidationError() {
	for _, in := range []string{"", "   ", "\t\n"} {
		res, err := s.service.ResolveByAddress(s.ctx, in)
		s.Nil(res)
		s.True(dErrors.HasCode(err, dErrors.CodeValidation), in)
	}
}

func (s *AddressFlowSuite) TestUpstreamTimeout() {
	timeout := &geocode.LookupError{Category: geocode.CategoryTimeout}
	s.geocoder.EXPECT().Search(gomock.Any(), gomock.Any()).Return(nil, timeout)

	res, err := s.service.ResolveByAddress(s.ctx, "Puławska 1")
	s.Nil(res)
	s.ErrorIs(err, ErrUpstreamLookup)
	s.True(dErrors.HasCode(err, dErrors.CodeBadGateway))
	var le *geocode.LookupError
	s.Require().ErrorAs(err, &le)
	s.Equal(geocode.CategoryTimeout, le.Category)
}

func (s *AddressFlowSuite) TestNoResultsIsUpstreamLookup() {
	s.geocoder.EXPECT().Search(gomock.Any(), gomock.Any()).Return(nil, geocode.ErrNoResults)

	_, err := s.service.ResolveByAddress(s.ctx, "Nieistniejąca 999")
	s.ErrorIs(err, ErrUpstreamLookup)
	s.ErrorIs(err, geocode.ErrNoResults)
}

func (s *AddressFlowSuite) TestNoCandidateName() {
	s.geocoder.EXPECT().Search(gomock.Any(), gomock.Any()).
		Return(place(geocode.Address{"road": "Puławska", "city": "Warszawa"}), nil)

	res, err := s.service.ResolveByAddress(s.ctx, "Puławska 1")
	s.Nil(res)
	s.ErrorIs(err, ErrNoCandidateName)
	s.True(dErrors.HasCode(err, dErrors.CodeNoDistrictInAddress))
}

func (s *AddressFlowSuite) TestCandidateNotInCatalog() {
	s.geocoder.EXPECT().Search(gomock.Any(), gomock.Any()).
		Return(place(geocode.Address{"suburb": "Sadyba"}), nil)
	s.names.EXPECT().Match(gomock.Any(), "Sadyba").Return(resolver.Match{}, resolver.ErrNotFound)

	res, err := s.service.ResolveByAddress(s.ctx, "Powsińska 4")
	s.Nil(res)
	s.ErrorIs(err, ErrDistrictNotInCatalog)
	s.ErrorIs(err, resolver.ErrNotFound)
	s.True(dErrors.HasCode(err, dErrors.CodeNotFound))
}

func (s *AddressFlowSuite) TestResolverFailureIsInternal() {
	s.geocoder.EXPECT().Search(gomock.Any(), gomock.Any()).
		Return(place(geocode.Address{"suburb": "Wola"}), nil)
	s.names.EXPECT().Match(gomock.Any(), "Wola").Return(resolver.Match{}, errors.New("connection reset"))

	_, err := s.service.ResolveByAddress(s.ctx, "Górczewska 12")
	s.True(dErrors.HasCode(err, dErrors.CodeInternal))
	s.NotErrorIs(err, ErrDistrictNotInCatalog)
}

func (s *AddressFlowSuite) TestWithoutGeocoder() {
	svc := New(s.catalog, s.names)
	_, err := svc.ResolveByAddress(s.ctx, "Puławska 1")
	s.ErrorIs(err, ErrUpstreamLookup)
	s.True(dErrors.HasCode(err, dErrors.CodeBadGateway))
}

func (s *AddressFlowSuite) TestDetailedAttachesMetrics() {
	wola := &models.District{ID: 2, Code: "wola"}
	s.geocoder.EXPECT().Search(gomock.Any(), gomock.Any()).Return(place(geocode.Address{"city_district": "Wola"}), nil)
	s.names.EXPECT().Match(gomock.Any(), "Wola").Return(resolver.Match{District: wola, Tier: resolver.TierCode}, nil)
	s.catalog.EXPECT().MetricRows(gomock.Any(), gomock.Any(), []int64{2}).
		DoAndReturn(func(_ context.Context, kind models.MetricKind, _ []int64) (models.Metrics, error) {
			if kind == models.MetricSafety {
				return models.Metrics{Safety: []models.Safety{{ID: 1, DistrictID: 2}}}, nil
			}
			return models.Metrics{}, nil
		}).Times(len(models.MetricKinds))

	res, err := s.service.ResolveByAddressDetailed(s.ctx, "Górczewska 12")
	s.Require().NoError(err)
	s.Require().NotNil(res.Metrics)
	s.Len(res.Metrics.Safety, 1)
	s.NotNil(res.Metrics.SocialLife)
	s.Empty(res.Metrics.SocialLife)
}

func TestResolveName(t *testing.T) {
	ctrl := gomock.NewController(t)
	names := mocks.NewMockNameResolver(ctrl)
	svc := New(mocks.NewMockCatalogStore(ctrl), names)
	ctx := context.Background()

	t.Run("trims and resolves", func(t *testing.T) {
		names.EXPECT().Match(gomock.Any(), "Mokotów").
			Return(resolver.Match{District: &models.District{ID: 18, Code: "mokotow"}, Tier: resolver.TierCode}, nil)
		m, err := svc.ResolveName(ctx, " Mokotów ")
		require.NoError(t, err)
		assert.Equal(t, int64(18), m.District.ID)
	})

	t.Run("blank name", func(t *testing.T) {
		_, err := svc.ResolveName(ctx, " ")
		assert.True(t, dErrors.HasCode(err, dErrors.CodeValidation))
	})

	t.Run("not found", func(t *testing.T) {
		names.EXPECT().Match(gomock.Any(), "Nonexistent Place Xyz123").Return(resolver.Match{}, resolver.ErrNotFound)
		_, err := svc.ResolveName(ctx, "Nonexistent Place Xyz123")
		assert.True(t, dErrors.HasCode(err, dErrors.CodeNotFound))
		assert.ErrorIs(t, err, sentinel.ErrNotFound)
	})
}

func TestCatalogReads(t *testing.T) {
	ctx := context.Background()
	districts := []*models.District{{ID: 3, Code: "pragapoludnie"}, {ID: 2, Code: "wola"}}

	t.Run("detailed list groups metric rows per district", func(t *testing.T) {
		ctrl := gomock.NewController(t)
		catalog := mocks.NewMockCatalogStore(ctrl)
		reg := prometheus.NewRegistry()
		m := metrics.NewWithRegisterer(reg)
		svc := New(catalog, mocks.NewMockNameResolver(ctrl), WithMetrics(m))

		page := models.Page{Page: 1, Size: 20}
		catalog.EXPECT().List(gomock.Any(), page).Return(districts, 18, nil)
		catalog.EXPECT().MetricRows(gomock.Any(), gomock.Any(), []int64{3, 2}).
			DoAndReturn(func(_ context.Context, kind models.MetricKind, _ []int64) (models.Metrics, error) {
				if kind != models.MetricSocialLife {
					return models.Metrics{}, nil
				}
				return models.Metrics{SocialLife: []models.SocialLife{
					{ID: 10, DistrictID: 2}, {ID: 11, DistrictID: 3}, {ID: 12, DistrictID: 2},
				}}, nil
			}).Times(len(models.MetricKinds))

		rows, total, err := svc.ListDetailed(ctx, page)
		require.NoError(t, err)
		assert.Equal(t, 18, total)
		require.Len(t, rows, 2)
		assert.Len(t, rows[0].SocialLife, 1)
		assert.Len(t, rows[1].SocialLife, 2)
		assert.NotNil(t, rows[0].Safety)
		assert.Equal(t, 1, testutil.CollectAndCount(m.DetailLoadDuration))
	})

	t.Run("first metric failure aborts detail", func(t *testing.T) {
		ctrl := gomock.NewController(t)
		catalog := mocks.NewMockCatalogStore(ctrl)
		svc := New(catalog, mocks.NewMockNameResolver(ctrl))

		catalog.EXPECT().FindByID(gomock.Any(), int64(2)).Return(districts[1], nil)
		catalog.EXPECT().MetricRows(gomock.Any(), gomock.Any(), []int64{2}).
			DoAndReturn(func(ctx context.Context, kind models.MetricKind, _ []int64) (models.Metrics, error) {
				if kind == models.MetricGreenPlaces {
					return models.Metrics{}, errors.New("relation does not exist")
				}
				return models.Metrics{}, ctx.Err()
			}).AnyTimes()

		_, err := svc.GetDetail(ctx, 2)
		assert.True(t, dErrors.HasCode(err, dErrors.CodeInternal))
	})

	t.Run("missing district", func(t *testing.T) {
		ctrl := gomock.NewController(t)
		catalog := mocks.NewMockCatalogStore(ctrl)
		svc := New(catalog, mocks.NewMockNameResolver(ctrl))

		catalog.EXPECT().FindByID(gomock.Any(), int64(99)).Return(nil, sentinel.ErrNotFound)
		_, err := svc.GetDetail(ctx, 99)
		assert.True(t, dErrors.HasCode(err, dErrors.CodeNotFound))
	})

	t.Run("empty page skips metric queries", func(t *testing.T) {
		ctrl := gomock.NewController(t)
		catalog := mocks.NewMockCatalogStore(ctrl)
		svc := New(catalog, mocks.NewMockNameResolver(ctrl))

		catalog.EXPECT().List(gomock.Any(), gomock.Any()).Return([]*models.District{}, 18, nil)
		rows, total, err := svc.ListDetailed(ctx, models.Page{Page: 9, Size: 20})
		require.NoError(t, err)
		assert.Empty(t, rows)
		assert.Equal(t, 18, total)
	})

	t.Run("unknown metric kind", func(t *testing.T) {
		ctrl := gomock.NewController(t)
		svc := New(mocks.NewMockCatalogStore(ctrl), mocks.NewMockNameResolver(ctrl))
		_, _, err := svc.ListMetrics(ctx, models.MetricKind("weather"), models.Page{Page: 1, Size: 10})
		assert.True(t, dErrors.HasCode(err, dErrors.CodeValidation))
	})

	t.Run("list failure is internal", func(t *testing.T) {
		ctrl := gomock.NewController(t)
		catalog := mocks.NewMockCatalogStore(ctrl)
		svc := New(catalog, mocks.NewMockNameResolver(ctrl))
		catalog.EXPECT().List(gomock.Any(), gomock.Any()).Return(nil, 0, sentinel.ErrUnavailable)
		_, _, err := svc.List(ctx, models.Page{Page: 1, Size: 20})
		assert.True(t, dErrors.HasCode(err, dErrors.CodeInternal))
		assert.ErrorIs(t, err, sentinel.ErrUnavailable)
	})
}
