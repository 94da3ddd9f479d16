package store

import (
	"context"
	"testing"

	"github.com/stretchr/testify/suite"

	"cityscope/internal/district/models"
	"cityscope/internal/district/store/seed"
	"cityscope/pkg/platform/sentinel"
)

type InMemoryStoreSuite struct {
	suite.Suite
	store *InMemory
	ctx   context.Context
}

func (s *InMemoryStoreSuite) SetupTest() {
	var err error
	s.store, err = NewSeededInMemory(seed.MustLoad())
	s.Require().NoError(err)
	s.ctx = context.Background()
}

func TestInMemoryStoreSuite(t *testing.T) {
	suite.Run(t, new(InMemoryStoreSuite))
}

// TestLookups covers the catalog port used by name resolution.
func (s *InMemoryStoreSuite) TestLookups() {
	s.Run("finds by code", func() {
		d, err := s.store.FindByCode(s.ctx, "wola")
		s.Require().NoError(err)
		s.Equal("wola", d.Name)
		s.Equal(int64(2), d.ID)
	})

	s.Run("code lookup does not fold the query", func() {
		_, err := s.store.FindByCode(s.ctx, "WOLA")
		s.ErrorIs(err, sentinel.ErrNotFound)
	})

	s.Run("finds by name ignoring case", func() {
		// seed name is decomposed, so the query is too
		d, err := s.store.FindByName(s.ctx, "S\u0301RO\u0301DMIES\u0301CIE")
		s.Require().NoError(err)
		s.Equal("srodmiescie", d.Code)
	})

	s.Run("name lookup does not compose", func() {
		_, err := s.store.FindByName(s.ctx, "ŚRÓDMIEŚCIE")
		s.ErrorIs(err, sentinel.ErrNotFound)
	})

	s.Run("name lookup keeps diacritics significant", func() {
		_, err := s.store.FindByName(s.ctx, "srodmiescie")
		s.ErrorIs(err, sentinel.ErrNotFound)
	})

	s.Run("finds first by name prefix", func() {
		d, err := s.store.FindByNamePrefix(s.ctx, "Praga")
		s.Require().NoError(err)
		s.Equal("praga południe", d.Name, "lowest id wins")
	})

	s.Run("prefix is literal", func() {
		_, err := s.store.FindByNamePrefix(s.ctx, "w%")
		s.ErrorIs(err, sentinel.ErrNotFound)
	})

	s.Run("unknown id", func() {
		_, err := s.store.FindByID(s.ctx, 999)
		s.ErrorIs(err, sentinel.ErrNotFound)
	})

	s.Run("cancelled context", func() {
		ctx, cancel := context.WithCancel(s.ctx)
		cancel()
		_, err := s.store.FindByCode(ctx, "wola")
		s.ErrorIs(err, context.Canceled)
	})
}

func (s *InMemoryStoreSuite) TestReturnedRowsAreCopies() {
	d, err := s.store.FindByCode(s.ctx, "wola")
	s.Require().NoError(err)
	d.Name = "mutated"

	again, err := s.store.FindByCode(s.ctx, "wola")
	s.Require().NoError(err)
	s.Equal("wola", again.Name)
}

func (s *InMemoryStoreSuite) TestInsertRejectsTakenCode() {
	_, err := s.store.Insert(s.ctx, &models.District{Name: "Wola Duplikat", Code: "WOLA"}, models.Metrics{})
	s.ErrorIs(err, sentinel.ErrAlreadyUsed)
}

func (s *InMemoryStoreSuite) TestListPagesNewestFirst() {
	page, total, err := s.store.List(s.ctx, models.Page{Page: 1, Size: 5})
	s.Require().NoError(err)
	s.Equal(18, total)
	s.Require().Len(page, 5)
	s.Equal("mokotow", page[0].Code)
	s.Equal(int64(14), page[4].ID)

	last, _, err := s.store.List(s.ctx, models.Page{Page: 4, Size: 5})
	s.Require().NoError(err)
	s.Require().Len(last, 3)
	s.Equal("srodmiescie", last[2].Code)
}

func (s *InMemoryStoreSuite) TestMetricRows() {
	s.Run("filters by district", func() {
		m, err := s.store.MetricRows(s.ctx, models.MetricAggregates, []int64{1, 2})
		s.Require().NoError(err)
		s.Len(m.Aggregates, 6)
		s.Empty(m.Safety)
	})

	s.Run("lists newest first", func() {
		m, total, err := s.store.ListMetricRows(s.ctx, models.MetricSafety, models.Page{Page: 1, Size: 2})
		s.Require().NoError(err)
		s.Equal(18, total)
		s.Require().Len(m.Safety, 2)
		s.Greater(m.Safety[0].ID, m.Safety[1].ID)
		s.Equal(int64(18), m.Safety[0].DistrictID)
	})

	s.Run("unknown kind", func() {
		_, _, err := s.store.ListMetricRows(s.ctx, models.MetricKind("weather"), models.Page{Page: 1, Size: 2})
		s.Error(err)
	})
}
