package reservation

import (
	"time"

	"go.uber.org/zap"
)

// Defaults for a single carriage.
const (
	DefaultTotalSeats  = 80
	DefaultSeatsPerRow = 8
	DefaultMaxBooking  = 7
	DefaultDelay       = time.Second
)

// Option customises a Store.
type Option func(*Store)

// WithTotalSeats sets the number of seats in the map.  Non-positive
// values are ignored.
func WithTotalSeats(n int) Option {
	return func(s *Store) {
		if n > 0 {
			s.totalSeats = n
		}
	}
}

// WithSeatsPerRow sets the grid width used for the Rows view.
func WithSeatsPerRow(n int) Option {
	return func(s *Store) {
		if n > 0 {
			s.seatsPerRow = n
		}
	}
}

// WithMaxBooking sets the largest accepted booking size.
func WithMaxBooking(n int) Option {
	return func(s *Store) {
		if n > 0 {
			s.maxBooking = n
		}
	}
}

// WithDelay sets the simulated backend latency.  Zero disables it.
func WithDelay(d time.Duration) Option {
	return func(s *Store) {
		if d >= 0 {
			s.delay = d
		}
	}
}

// WithSleeper replaces time.Sleep for the simulated latency.
func WithSleeper(fn func(time.Duration)) Option {
	return func(s *Store) {
		if fn != nil {
			s.sleep = fn
		}
	}
}

// WithToggleWhilePending controls whether selections may change while a
// load or booking is in flight.  The default allows it.
func WithToggleWhilePending(allow bool) Option {
	return func(s *Store) { s.toggleWhilePending = allow }
}

// WithLogger attaches a zap logger.
func WithLogger(l *zap.Logger) Option {
	return func(s *Store) {
		if l != nil {
			s.log = l
		}
	}
}

// WithBookingSink registers a sink notified after every committed booking.
func WithBookingSink(sink BookingSink) Option {
	return func(s *Store) { s.sink = sink }
}

// WithClock overrides the time source stamped on committed bookings.
func WithClock(now func() time.Time) Option {
	return func(s *Store) {
		if now != nil {
			s.now = now
		}
	}
}
