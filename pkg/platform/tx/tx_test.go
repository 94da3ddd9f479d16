package tx

import (
	"context"
	"errors"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestUseFallsBackToDB(t *testing.T) {
	db, _, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	assert.Same(t, db, Use(context.Background(), db))
	assert.Equal(t, context.Background(), WithTx(context.Background(), nil))
}

func TestRunCommitsAndCarriesTx(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()
	mock.ExpectBegin()
	mock.ExpectCommit()

	err = Run(context.Background(), db, func(ctx context.Context) error {
		tx, ok := From(ctx)
		require.True(t, ok)
		assert.Same(t, tx, Use(ctx, db))

		// nested runs join the outer transaction
		return Run(ctx, db, func(inner context.Context) error {
			innerTx, _ := From(inner)
			assert.Same(t, tx, innerTx)
			return nil
		})
	})
	require.NoError(t, err)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestRunRollsBackOnError(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()
	mock.ExpectBegin()
	mock.ExpectRollback()

	boom := errors.New("boom")
	err = Run(context.Background(), db, func(context.Context) error { return boom })
	assert.ErrorIs(t, err, boom)
	require.NoError(t, mock.ExpectationsWereMet())
}
