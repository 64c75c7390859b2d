// Package queue defines message payloads exchanged over the message broker.
package queue

import (
	"time"

	"github.com/iliyamo/train-seat-reservation/internal/model"
)

// SeatsBookedQueue is the durable queue carrying committed bookings.
const SeatsBookedQueue = "seats.booked"

// SeatsBookedEvent is published when a booking has been committed to the
// seat map.  It carries enough for consumers to log or notify without
// asking the reservation service for its state.
type SeatsBookedEvent struct {
	BookingID      string `json:"booking_id"`
	TrainID        uint64 `json:"train_id"`
	Seats          []int  `json:"seats"`
	AvailableCount int    `json:"available_count"`
	TotalSeats     int    `json:"total_seats"`
	ConfirmedAt    string `json:"confirmed_at"`
}

// NewSeatsBookedEvent converts a committed booking into its wire form.
func NewSeatsBookedEvent(trainID uint64, b model.BookingCommitted) SeatsBookedEvent {
	return SeatsBookedEvent{
		BookingID:      b.BookingID,
		TrainID:        trainID,
		Seats:          append([]int(nil), b.SeatNumbers...),
		AvailableCount: b.AvailableCount,
		TotalSeats:     b.TotalSeats,
		ConfirmedAt:    b.CommittedAt.UTC().Format(time.RFC3339),
	}
}
