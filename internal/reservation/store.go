// Package reservation owns the seat map of a single carriage and the rules
// for selecting and booking seats in it.  A Store is safe for concurrent
// use; at most one asynchronous operation (load, reset or booking) is in
// flight at any time and the pending flag in every Snapshot reports it.
package reservation

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/iliyamo/train-seat-reservation/internal/model"
)

// BookingSink receives every committed booking.  Errors are logged by the
// store and never roll back the booking.
type BookingSink interface {
	PublishSeatsBooked(ctx context.Context, b model.BookingCommitted) error
}

// Store is the reservation state machine.
type Store struct {
	source SeatSource
	sink   BookingSink
	log    *zap.Logger
	sleep  func(time.Duration)
	now    func() time.Time

	totalSeats         int
	seatsPerRow        int
	maxBooking         int
	delay              time.Duration
	toggleWhilePending bool

	mu             sync.Mutex
	seats          []model.Seat
	requestedCount int
	inflight       *Operation
	lastMessage    string
	version        uint64
	subs           map[uint64]func(model.Snapshot)
	nextSub        uint64
}

// New builds a Store backed by source.  The seat map starts with every
// seat free; call Load to fetch the real one.
func New(source SeatSource, opts ...Option) *Store {
	s := &Store{
		source:             source,
		log:                zap.NewNop(),
		sleep:              time.Sleep,
		now:                func() time.Time { return time.Now().UTC() },
		totalSeats:         DefaultTotalSeats,
		seatsPerRow:        DefaultSeatsPerRow,
		maxBooking:         DefaultMaxBooking,
		delay:              DefaultDelay,
		toggleWhilePending: true,
		requestedCount:     1,
		subs:               make(map[uint64]func(model.Snapshot)),
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.source == nil {
		s.source = NewRandomSource(DefaultBookedProbability, 0)
	}
	s.seats = buildSeats(make([]bool, s.totalSeats))
	return s
}

// Snapshot returns a copy of the current state.
func (s *Store) Snapshot() model.Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.snapshotLocked()
}

// Subscribe registers fn to be called with a fresh Snapshot after every
// state change.  Calls happen outside the store lock, so fn may call back
// into the store.  Snapshots carry a Version; listeners that render from
// several goroutines should drop versions older than the last one seen.
func (s *Store) Subscribe(fn func(model.Snapshot)) (cancel func()) {
	s.mu.Lock()
	id := s.nextSub
	s.nextSub++
	s.subs[id] = fn
	s.mu.Unlock()

	var once sync.Once
	return func() {
		once.Do(func() {
			s.mu.Lock()
			delete(s.subs, id)
			s.mu.Unlock()
		})
	}
}

// Load fetches a fresh seat map from the source after the simulated
// delay.  The current selection is dropped when the new map arrives.
func (s *Store) Load(ctx context.Context) (*Operation, error) {
	return s.startFetch(ctx, KindLoad)
}

// Reset abandons the session: the selection and status message are
// cleared at once and a fresh seat map (with new bookings) is fetched.
func (s *Store) Reset(ctx context.Context) (*Operation, error) {
	return s.startFetch(ctx, KindReset)
}

// SetRequestedCount records the booking size typed by the user.  The
// value is kept as entered; RequestBooking validates it.
func (s *Store) SetRequestedCount(n int) model.Snapshot {
	s.mu.Lock()
	s.requestedCount = n
	return s.unlockAndNotify()
}

// ToggleSelection flips the tentative selection of one free seat.  It is
// synchronous.  Booked seats are never toggled.
func (s *Store) ToggleSelection(seatNumber int) (model.Snapshot, error) {
	s.mu.Lock()
	if seatNumber < 1 || seatNumber > len(s.seats) {
		snap := s.snapshotLocked()
		s.mu.Unlock()
		return snap, ErrSeatNotFound
	}
	if s.inflight != nil && !s.toggleWhilePending {
		snap := s.snapshotLocked()
		s.mu.Unlock()
		return snap, ErrSelectionLocked
	}
	seat := &s.seats[seatNumber-1]
	if seat.IsBooked {
		snap := s.snapshotLocked()
		s.mu.Unlock()
		return snap, ErrSeatBooked
	}
	seat.IsSelected = !seat.IsSelected
	return s.unlockAndNotify(), nil
}

// RequestBooking validates a booking of n seats and, when it passes,
// schedules the commit after the simulated delay.  At commit time the n
// lowest numbered seats that are neither booked nor selected are booked
// and the whole selection is cleared.
func (s *Store) RequestBooking(ctx context.Context, n int) (*Operation, error) {
	s.mu.Lock()
	if s.inflight != nil {
		s.mu.Unlock()
		return nil, ErrPending
	}
	if n < 1 || n > s.maxBooking {
		s.lastMessage = s.invalidSizeMessage()
		s.unlockAndNotify()
		return nil, fmt.Errorf("%w: %d not in [1, %d]", ErrInvalidRequestSize, n, s.maxBooking)
	}
	if free := s.freeCountLocked(); free < n {
		s.lastMessage = msgInsufficient
		s.unlockAndNotify()
		return nil, fmt.Errorf("%w: requested %d, free %d", ErrInsufficientAvailability, n, free)
	}
	op := newOperation(KindBooking)
	s.inflight = op
	s.lastMessage = ""
	s.unlockAndNotify()

	s.log.Debug("booking accepted", zap.String("operation_id", op.ID()), zap.Int("count", n))
	go s.runBooking(context.WithoutCancel(ctx), op, n)
	return op, nil
}

func (s *Store) startFetch(ctx context.Context, kind Kind) (*Operation, error) {
	s.mu.Lock()
	if s.inflight != nil {
		s.mu.Unlock()
		return nil, ErrPending
	}
	op := newOperation(kind)
	s.inflight = op
	s.lastMessage = ""
	if kind == KindReset {
		for i := range s.seats {
			s.seats[i].IsSelected = false
		}
	}
	s.unlockAndNotify()

	s.log.Debug("seat map fetch started", zap.String("operation_id", op.ID()), zap.String("kind", string(kind)))
	go s.runFetch(context.WithoutCancel(ctx), op)
	return op, nil
}

func (s *Store) runFetch(ctx context.Context, op *Operation) {
	s.sleep(s.delay)
	flags, err := s.source.Fetch(ctx, s.totalSeats)
	if err == nil && len(flags) != s.totalSeats {
		err = fmt.Errorf("seat source returned %d seats, want %d", len(flags), s.totalSeats)
	}

	s.mu.Lock()
	s.inflight = nil
	if err != nil {
		s.lastMessage = msgLoadFailed
		snap := s.unlockAndNotify()
		op.resolve(Outcome{Kind: op.Kind(), Message: snap.LastMessage, Snapshot: snap}, fmt.Errorf("%w: %w", ErrLoadFailed, err))
		s.log.Warn("seat map fetch failed", zap.String("operation_id", op.ID()), zap.Error(err))
		return
	}
	s.seats = buildSeats(flags)
	snap := s.unlockAndNotify()
	op.resolve(Outcome{Kind: op.Kind(), Message: snap.LastMessage, Snapshot: snap}, nil)
	s.log.Info("seat map loaded",
		zap.String("operation_id", op.ID()),
		zap.Int("available", snap.AvailableCount),
		zap.Int("total", snap.TotalSeats))
}

func (s *Store) runBooking(ctx context.Context, op *Operation, n int) {
	s.sleep(s.delay)

	s.mu.Lock()
	s.inflight = nil
	// Selections may have changed during the delay, so pick from the
	// current map rather than what was seen at request time.
	picked := make([]int, 0, n)
	for i := range s.seats {
		if len(picked) == n {
			break
		}
		if s.seats[i].Available() {
			picked = append(picked, s.seats[i].SeatNumber)
		}
	}
	if len(picked) < n {
		s.lastMessage = msgInsufficient
		snap := s.unlockAndNotify()
		op.resolve(Outcome{Kind: KindBooking, Message: snap.LastMessage, Snapshot: snap},
			fmt.Errorf("%w: requested %d, free %d at commit", ErrInsufficientAvailability, n, len(picked)))
		return
	}
	for _, num := range picked {
		s.seats[num-1].IsBooked = true
	}
	for i := range s.seats {
		s.seats[i].IsSelected = false
	}
	s.lastMessage = msgBookedPrefix + joinInts(picked)
	snap := s.unlockAndNotify()
	op.resolve(Outcome{Kind: KindBooking, BookedSeats: picked, Message: snap.LastMessage, Snapshot: snap}, nil)

	s.log.Info("seats booked", zap.String("operation_id", op.ID()), zap.Ints("seats", picked))
	if s.sink == nil {
		return
	}
	committed := model.BookingCommitted{
		BookingID:      uuid.NewString(),
		SeatNumbers:    append([]int(nil), picked...),
		AvailableCount: snap.AvailableCount,
		TotalSeats:     snap.TotalSeats,
		CommittedAt:    s.now(),
	}
	if err := s.sink.PublishSeatsBooked(ctx, committed); err != nil {
		s.log.Warn("booking sink failed", zap.String("booking_id", committed.BookingID), zap.Error(err))
	}
}

// unlockAndNotify bumps the version, releases the lock and fans the new
// snapshot out to subscribers.  Callers must hold s.mu.  Operations are
// resolved only after this returns, so a waiter never observes a result
// before listeners have seen it.
func (s *Store) unlockAndNotify() model.Snapshot {
	s.version++
	snap := s.snapshotLocked()
	subs := make([]func(model.Snapshot), 0, len(s.subs))
	for _, fn := range s.subs {
		subs = append(subs, fn)
	}
	s.mu.Unlock()
	for _, fn := range subs {
		fn(snap)
	}
	return snap
}

func (s *Store) snapshotLocked() model.Snapshot {
	seats := make([]model.Seat, len(s.seats))
	copy(seats, s.seats)

	selected := make([]int, 0)
	available := 0
	for _, seat := range seats {
		if seat.IsSelected {
			selected = append(selected, seat.SeatNumber)
		}
		if !seat.IsBooked {
			available++
		}
	}

	rows := make([][]int, 0, (len(seats)+s.seatsPerRow-1)/s.seatsPerRow)
	for start := 0; start < len(seats); start += s.seatsPerRow {
		end := min(start+s.seatsPerRow, len(seats))
		row := make([]int, 0, end-start)
		for _, seat := range seats[start:end] {
			row = append(row, seat.SeatNumber)
		}
		rows = append(rows, row)
	}

	pending := s.inflight != nil
	return model.Snapshot{
		Seats:               seats,
		Rows:                rows,
		SelectedSeatNumbers: selected,
		RequestedCount:      s.requestedCount,
		AvailableCount:      available,
		TotalSeats:          len(seats),
		SeatsPerRow:         s.seatsPerRow,
		MaxBooking:          s.maxBooking,
		Pending:             pending,
		BookDisabled:        pending || available < s.requestedCount,
		LastMessage:         s.lastMessage,
		Version:             s.version,
	}
}

func (s *Store) freeCountLocked() int {
	n := 0
	for _, seat := range s.seats {
		if seat.Available() {
			n++
		}
	}
	return n
}

func (s *Store) invalidSizeMessage() string {
	return fmt.Sprintf("Please enter a valid number of seats (1-%d)", s.maxBooking)
}

func buildSeats(flags []bool) []model.Seat {
	seats := make([]model.Seat, len(flags))
	for i, booked := range flags {
		seats[i] = model.Seat{SeatNumber: i + 1, IsBooked: booked}
	}
	return seats
}

func joinInts(nums []int) string {
	parts := make([]string, len(nums))
	for i, n := range nums {
		parts[i] = strconv.Itoa(n)
	}
	return strings.Join(parts, ", ")
}
