//go:build integration

package store_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/suite"

	"cityscope/internal/district/models"
	"cityscope/internal/district/store"
	"cityscope/internal/district/store/seed"
	"cityscope/pkg/platform/sentinel"
	"cityscope/pkg/testutil/containers"
)

type PostgresStoreSuite struct {
	suite.Suite
	postgres *containers.PostgresContainer
	store    *store.PostgresStore
}

func TestPostgresStoreSuite(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}
	suite.Run(t, new(PostgresStoreSuite))
}

func (s *PostgresStoreSuite) SetupSuite() {
	s.postgres = containers.NewPostgresContainer(s.T())
	s.store = store.NewPostgres(s.postgres.DB)
}

func (s *PostgresStoreSuite) SetupTest() {
	ctx := context.Background()
	s.Require().NoError(s.store.Truncate(ctx))
	s.Require().NoError(s.store.RunInTx(ctx, func(ctx context.Context) error {
		for _, r := range seed.MustLoad() {
			if _, err := s.store.Insert(ctx, r.District(), r.Metrics(0)); err != nil {
				return err
			}
		}
		return nil
	}))
}

func (s *PostgresStoreSuite) TestCatalogPort() {
	ctx := context.Background()

	d, err := s.store.FindByCode(ctx, "srodmiescie")
	s.Require().NoError(err)
	s.Equal(int64(1), d.ID)

	d, err = s.store.FindByName(ctx, "PRAGA POŁUDNIE")
	s.Require().NoError(err)
	s.Equal("praga_poludnie", d.Code)

	d, err = s.store.FindByNamePrefix(ctx, "S\u0301ro\u0301d")
	s.Require().NoError(err)
	s.Equal("srodmiescie", d.Code)

	_, err = s.store.FindByNamePrefix(ctx, "_ola")
	s.ErrorIs(err, sentinel.ErrNotFound, "underscore must not act as a wildcard")

	all, err := s.store.ListAll(ctx)
	s.Require().NoError(err)
	s.Len(all, 18)
}

func (s *PostgresStoreSuite) TestDuplicateCodeRollsBack() {
	ctx := context.Background()
	err := s.store.RunInTx(ctx, func(ctx context.Context) error {
		_, err := s.store.Insert(ctx, &models.District{Name: "Wola 2", Code: "wola"}, models.Metrics{})
		return err
	})
	s.ErrorIs(err, sentinel.ErrAlreadyUsed)

	_, total, err := s.store.List(ctx, models.Page{Page: 1, Size: 1})
	s.Require().NoError(err)
	s.Equal(18, total)
}

func (s *PostgresStoreSuite) TestMetricRows() {
	ctx := context.Background()
	m, err := s.store.MetricRows(ctx, models.MetricLifeBalance, []int64{1})
	s.Require().NoError(err)
	s.Require().Len(m.LifeBalance, 1)
	s.InDelta(70.7, m.LifeBalance[0].LifeBalanceScore, 1e-9)

	page, total, err := s.store.ListMetricRows(ctx, models.MetricAggregates, models.Page{Page: 1, Size: 4})
	s.Require().NoError(err)
	s.Equal(54, total)
	s.Len(page.Aggregates, 4)
}
