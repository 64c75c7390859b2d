package reservation

import "errors"

// Sentinel errors returned by Store operations.  They are recoverable:
// the store never panics or leaves partial state behind, so callers may
// retry straight away.  Use errors.Is to classify them.
var (
	// ErrInvalidRequestSize means the requested booking size is outside
	// [1, MaxBooking].
	ErrInvalidRequestSize = errors.New("invalid request size")

	// ErrInsufficientAvailability means fewer seats are free (neither
	// booked nor selected) than were requested.
	ErrInsufficientAvailability = errors.New("insufficient availability")

	// ErrLoadFailed wraps a seat source failure.  Seat data is left as it
	// was before the load started.
	ErrLoadFailed = errors.New("load failed")

	// ErrPending is returned when a load, reset or booking is requested
	// while another one is still in flight.
	ErrPending = errors.New("operation already in flight")

	// ErrSeatNotFound is returned for seat numbers outside 1..TotalSeats.
	ErrSeatNotFound = errors.New("seat not found")

	// ErrSeatBooked is returned when toggling a booked seat.  The toggle
	// is a no-op.
	ErrSeatBooked = errors.New("seat already booked")

	// ErrSelectionLocked is returned by ToggleSelection during the pending
	// window when the store runs with toggles disabled while pending.
	ErrSelectionLocked = errors.New("selection locked while operation is pending")
)

// User facing status texts.
const (
	msgInsufficient = "Not enough available seats."
	msgLoadFailed   = "Failed to load seats. Please try again."
	msgBookedPrefix = "Successfully booked seats: "
)
