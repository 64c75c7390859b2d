package reservation

import (
	"context"

	"github.com/google/uuid"

	"github.com/iliyamo/train-seat-reservation/internal/model"
)

// Kind names the asynchronous operation occupying the pending slot.
type Kind string

const (
	KindLoad    Kind = "load"
	KindReset   Kind = "reset"
	KindBooking Kind = "booking"
)

// Outcome is the resolved result of an Operation.
type Outcome struct {
	Kind        Kind
	BookedSeats []int
	Message     string
	Snapshot    model.Snapshot
}

// Operation is the handle of the single in-flight load, reset or booking.
// It always resolves: the simulated delay cannot be cancelled.
type Operation struct {
	id   string
	kind Kind
	done chan struct{}

	outcome Outcome
	err     error
}

func newOperation(kind Kind) *Operation {
	return &Operation{id: uuid.NewString(), kind: kind, done: make(chan struct{})}
}

// ID returns a unique identifier for the operation.
func (o *Operation) ID() string { return o.id }

// Kind reports what the operation does.
func (o *Operation) Kind() Kind { return o.kind }

// Done is closed once the operation has been applied to the store.
func (o *Operation) Done() <-chan struct{} { return o.done }

// Wait blocks until the operation resolves or ctx ends.  Cancelling ctx
// only stops waiting; the operation itself still runs to completion.
func (o *Operation) Wait(ctx context.Context) (Outcome, error) {
	select {
	case <-o.done:
		return o.outcome, o.err
	case <-ctx.Done():
		return Outcome{Kind: o.kind}, ctx.Err()
	}
}

// resolve must be called exactly once.
func (o *Operation) resolve(out Outcome, err error) {
	o.outcome = out
	o.err = err
	close(o.done)
}
