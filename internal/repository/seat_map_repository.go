package repository // repository for the train seat map

import (
	"context"
	"database/sql"
	"fmt"
)

// SeatMapRepo reads booked flags for one train from the train_seats table:
//
//	train_seats(train_id BIGINT, seat_number INT, is_booked BOOLEAN)
//
// It satisfies reservation.SeatSource.  The repository never writes; the
// reservation store keeps its bookings in memory only.
type SeatMapRepo struct {
	db      *sql.DB
	trainID uint64
}

// NewSeatMapRepo constructs a SeatMapRepo for trainID.
func NewSeatMapRepo(db *sql.DB, trainID uint64) *SeatMapRepo {
	return &SeatMapRepo{db: db, trainID: trainID}
}

// DB exposes the underlying handle.
func (r *SeatMapRepo) DB() *sql.DB { return r.db }

// Fetch returns total booked flags ordered by seat number.  Seats without
// a row are treated as free.
func (r *SeatMapRepo) Fetch(ctx context.Context, total int) ([]bool, error) {
	const q = `SELECT seat_number, is_booked
	           FROM train_seats
	           WHERE train_id = ?
	           ORDER BY seat_number`
	rows, err := r.db.QueryContext(ctx, q, r.trainID)
	if err != nil {
		return nil, fmt.Errorf("query seat map: %w", err)
	}
	defer rows.Close()

	flags := make([]bool, total)
	found := 0
	for rows.Next() {
		var (
			number int
			booked bool
		)
		if err := rows.Scan(&number, &booked); err != nil {
			return nil, fmt.Errorf("scan seat row: %w", err)
		}
		if number < 1 || number > total {
			return nil, fmt.Errorf("%w: seat %d of train %d (carriage has %d)", ErrSeatOutOfRange, number, r.trainID, total)
		}
		flags[number-1] = booked
		found++
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate seat rows: %w", err)
	}
	if found == 0 {
		return nil, fmt.Errorf("%w: %d", ErrTrainNotFound, r.trainID)
	}
	return flags, nil
}
