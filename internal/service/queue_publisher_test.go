package service

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/iliyamo/train-seat-reservation/internal/model"
	q "github.com/iliyamo/train-seat-reservation/internal/queue"
)

type fakeChannel struct {
	declared   []string
	published  []amqp.Publishing
	keys       []string
	publishErr error
	closed     bool
}

func (f *fakeChannel) QueueDeclare(name string, durable, _, _, _ bool, _ amqp.Table) (amqp.Queue, error) {
	if !durable {
		return amqp.Queue{}, errors.New("queue must be durable")
	}
	f.declared = append(f.declared, name)
	return amqp.Queue{Name: name}, nil
}

func (f *fakeChannel) PublishWithContext(_ context.Context, _, key string, _, _ bool, msg amqp.Publishing) error {
	if f.publishErr != nil {
		return f.publishErr
	}
	f.keys = append(f.keys, key)
	f.published = append(f.published, msg)
	return nil
}

func (f *fakeChannel) Close() error {
	f.closed = true
	return nil
}

func newTestPublisher(ch *fakeChannel, openErr error) (*Publisher, *bool) {
	connClosed := false
	p := &Publisher{
		trainID: 7,
		log:     zap.NewNop(),
		open: func() (channel, func() error, error) {
			if openErr != nil {
				return nil, nil, openErr
			}
			return ch, func() error { connClosed = true; return nil }, nil
		},
	}
	return p, &connClosed
}

func TestPublisher_PublishSeatsBooked(t *testing.T) {
	ch := &fakeChannel{}
	p, connClosed := newTestPublisher(ch, nil)

	err := p.PublishSeatsBooked(context.Background(), model.BookingCommitted{
		BookingID:      "b-42",
		SeatNumbers:    []int{5, 6},
		AvailableCount: 60,
		TotalSeats:     80,
		CommittedAt:    time.Date(2025, 3, 1, 8, 30, 0, 0, time.UTC),
	})
	require.NoError(t, err)

	assert.Equal(t, []string{q.SeatsBookedQueue}, ch.declared)
	assert.Equal(t, []string{q.SeatsBookedQueue}, ch.keys)
	require.Len(t, ch.published, 1)
	msg := ch.published[0]
	assert.Equal(t, "application/json", msg.ContentType)
	assert.Equal(t, uint8(amqp.Persistent), msg.DeliveryMode)
	assert.Equal(t, "b-42", msg.MessageId)

	var ev q.SeatsBookedEvent
	require.NoError(t, json.Unmarshal(msg.Body, &ev))
	assert.Equal(t, uint64(7), ev.TrainID)
	assert.Equal(t, []int{5, 6}, ev.Seats)
	assert.Equal(t, "2025-03-01T08:30:00Z", ev.ConfirmedAt)

	assert.True(t, ch.closed)
	assert.True(t, *connClosed)
}

func TestPublisher_Errors(t *testing.T) {
	p, _ := newTestPublisher(nil, errors.New("dial: refused"))
	assert.Error(t, p.PublishSeatsBooked(context.Background(), model.BookingCommitted{BookingID: "x"}))

	ch := &fakeChannel{publishErr: errors.New("channel closed")}
	p, connClosed := newTestPublisher(ch, nil)
	err := p.PublishSeatsBooked(context.Background(), model.BookingCommitted{BookingID: "x", SeatNumbers: []int{1}})
	assert.ErrorContains(t, err, "publish")
	assert.True(t, ch.closed)
	assert.True(t, *connClosed)
}
