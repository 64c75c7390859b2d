package model

import "time"

// Seat is one addressable place in the carriage.  SeatNumber is 1-based
// and stable for the lifetime of a seat map; only the two flags change.
//
// Fields:
//  SeatNumber – position in the carriage, 1..TotalSeats.
//  IsBooked   – committed booking; cleared only by a fresh load/reset.
//  IsSelected – tentative pick by the current user; never true when booked.
type Seat struct {
	SeatNumber int  `json:"seat_number"`
	IsBooked   bool `json:"is_booked"`
	IsSelected bool `json:"is_selected"`
}

// Available reports whether the seat can still be booked by the automatic
// allocator, i.e. it is neither booked nor held in the current selection.
func (s Seat) Available() bool {
	return !s.IsBooked && !s.IsSelected
}

// Snapshot is a read-only copy of the reservation state handed to the
// presentation layer.  Every slice is freshly allocated so callers may
// keep or mutate it without affecting the store.
type Snapshot struct {
	Seats               []Seat  `json:"seats"`
	Rows                [][]int `json:"rows"`
	SelectedSeatNumbers []int   `json:"selected_seat_numbers"`
	RequestedCount      int     `json:"requested_count"`
	AvailableCount      int     `json:"available_count"`
	TotalSeats          int     `json:"total_seats"`
	SeatsPerRow         int     `json:"seats_per_row"`
	MaxBooking          int     `json:"max_booking"`
	Pending             bool    `json:"pending"`
	BookDisabled        bool    `json:"book_disabled"`
	LastMessage         string  `json:"last_message"`
	Version             uint64  `json:"version"`
}

// BookingCommitted describes a booking that has just been applied to the
// seat map.  It is handed to downstream sinks after the state change.
type BookingCommitted struct {
	BookingID      string    `json:"booking_id"`
	SeatNumbers    []int     `json:"seat_numbers"`
	AvailableCount int       `json:"available_count"`
	TotalSeats     int       `json:"total_seats"`
	CommittedAt    time.Time `json:"committed_at"`
}
