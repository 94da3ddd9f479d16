package service

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"cityscope/internal/district/resolver"
	"cityscope/internal/district/store"
	"cityscope/internal/district/store/seed"
	"cityscope/internal/geocode"
)

type geocoderFunc func(ctx context.Context, query string) (*geocode.Place, error)

func (f geocoderFunc) Search(ctx context.Context, query string) (*geocode.Place, error) {
	return f(ctx, query)
}

func seededService(t *testing.T, g Geocoder) *Service {
	t.Helper()
	catalog, err := store.NewSeededInMemory(seed.MustLoad())
	require.NoError(t, err)
	return New(catalog, resolver.New(catalog), WithGeocoder(g))
}

func TestAddressFlowAgainstSeededCatalog(t *testing.T) {
	ctx := context.Background()

	t.Run("suburb only address resolves by code", func(t *testing.T) {
		svc := seededService(t, geocoderFunc(func(context.Context, string) (*geocode.Place, error) {
			return &geocode.Place{Address: geocode.Address{"suburb": "Wola"}}, nil
		}))
		res, err := svc.ResolveByAddressDetailed(ctx, "Górczewska 12")
		require.NoError(t, err)
		assert.Equal(t, "wola", res.District.Code)
		assert.Equal(t, resolver.TierCode, res.Tier)
		require.NotNil(t, res.Metrics)
		assert.Len(t, res.Metrics.Safety, 1)
		assert.Len(t, res.Metrics.SocialLife, 1)
	})

	t.Run("hyphenated district with legacy code", func(t *testing.T) {
		svc := seededService(t, geocoderFunc(func(context.Context, string) (*geocode.Place, error) {
			return &geocode.Place{Address: geocode.Address{"city_district": "Praga-Południe", "suburb": "Saska Kępa"}}, nil
		}))
		res, err := svc.ResolveByAddress(ctx, "Francuska 30")
		require.NoError(t, err)
		assert.Equal(t, "praga_poludnie", res.District.Code)
		assert.Equal(t, "Praga-Południe", res.CandidateName)
	})

	t.Run("upstream timeout leaves no district", func(t *testing.T) {
		svc := seededService(t, geocoderFunc(func(context.Context, string) (*geocode.Place, error) {
			return nil, &geocode.LookupError{Category: geocode.CategoryTimeout}
		}))
		res, err := svc.ResolveByAddress(ctx, "Puławska 1")
		assert.Nil(t, res)
		assert.ErrorIs(t, err, ErrUpstreamLookup)
	})
}
