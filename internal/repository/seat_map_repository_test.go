package repository

import (
	"context"
	"errors"
	"regexp"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iliyamo/train-seat-reservation/internal/reservation"
)

const seatMapQuery = `SELECT seat_number, is_booked`

func newMockRepo(t *testing.T) (*SeatMapRepo, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	return NewSeatMapRepo(db, 7), mock
}

func TestSeatMapRepo_Fetch(t *testing.T) {
	t.Parallel()

	t.Run("maps rows to flags", func(t *testing.T) {
		repo, mock := newMockRepo(t)
		mock.ExpectQuery(regexp.QuoteMeta(seatMapQuery)).
			WithArgs(uint64(7)).
			WillReturnRows(sqlmock.NewRows([]string{"seat_number", "is_booked"}).
				AddRow(1, true).
				AddRow(2, false).
				AddRow(4, true))

		flags, err := repo.Fetch(context.Background(), 5)
		require.NoError(t, err)
		assert.Equal(t, []bool{true, false, false, true, false}, flags)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("no rows means unknown train", func(t *testing.T) {
		repo, mock := newMockRepo(t)
		mock.ExpectQuery(regexp.QuoteMeta(seatMapQuery)).
			WithArgs(uint64(7)).
			WillReturnRows(sqlmock.NewRows([]string{"seat_number", "is_booked"}))

		_, err := repo.Fetch(context.Background(), 5)
		assert.ErrorIs(t, err, ErrTrainNotFound)
	})

	t.Run("seat outside the carriage", func(t *testing.T) {
		repo, mock := newMockRepo(t)
		mock.ExpectQuery(regexp.QuoteMeta(seatMapQuery)).
			WithArgs(uint64(7)).
			WillReturnRows(sqlmock.NewRows([]string{"seat_number", "is_booked"}).AddRow(9, true))

		_, err := repo.Fetch(context.Background(), 5)
		assert.ErrorIs(t, err, ErrSeatOutOfRange)
	})

	t.Run("query error is wrapped", func(t *testing.T) {
		repo, mock := newMockRepo(t)
		boom := errors.New("connection reset")
		mock.ExpectQuery(regexp.QuoteMeta(seatMapQuery)).
			WithArgs(uint64(7)).
			WillReturnError(boom)

		_, err := repo.Fetch(context.Background(), 5)
		assert.ErrorIs(t, err, boom)
	})
}

func TestSeatMapRepo_AsStoreSource(t *testing.T) {
	t.Parallel()

	repo, mock := newMockRepo(t)
	mock.ExpectQuery(regexp.QuoteMeta(seatMapQuery)).
		WithArgs(uint64(7)).
		WillReturnRows(sqlmock.NewRows([]string{"seat_number", "is_booked"}).AddRow(2, true))
	mock.ExpectQuery(regexp.QuoteMeta(seatMapQuery)).
		WithArgs(uint64(7)).
		WillReturnError(errors.New("server has gone away"))

	store := reservation.New(repo,
		reservation.WithTotalSeats(8),
		reservation.WithSleeper(func(time.Duration) {}))

	op, err := store.Load(context.Background())
	require.NoError(t, err)
	_, err = op.Wait(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 7, store.Snapshot().AvailableCount)

	op, err = store.Reset(context.Background())
	require.NoError(t, err)
	_, err = op.Wait(context.Background())
	assert.ErrorIs(t, err, reservation.ErrLoadFailed)
	snap := store.Snapshot()
	assert.Equal(t, 7, snap.AvailableCount, "failed load keeps the previous map")
	assert.False(t, snap.Pending)
	assert.NoError(t, mock.ExpectationsWereMet())
}
