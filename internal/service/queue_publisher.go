// Package service provides outbound integrations of the reservation store.
// The Publisher forwards committed bookings to RabbitMQ.  Failures are
// logged and returned; the store treats them as non-fatal.
package service

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"
	"go.uber.org/zap"

	"github.com/iliyamo/train-seat-reservation/internal/model"
	q "github.com/iliyamo/train-seat-reservation/internal/queue"
)

// channel is the subset of *amqp.Channel used for publishing.
type channel interface {
	QueueDeclare(name string, durable, autoDelete, exclusive, noWait bool, args amqp.Table) (amqp.Queue, error)
	PublishWithContext(ctx context.Context, exchange, key string, mandatory, immediate bool, msg amqp.Publishing) error
	Close() error
}

// Publisher implements reservation.BookingSink on top of RabbitMQ.  A
// connection is opened per booking; bookings are rare compared to seat
// reads so there is no pool to maintain.
type Publisher struct {
	trainID uint64
	log     *zap.Logger
	open    func() (channel, func() error, error)
}

// NewPublisher returns a Publisher for the broker at url.
func NewPublisher(url string, trainID uint64, log *zap.Logger) *Publisher {
	return &Publisher{
		trainID: trainID,
		log:     log,
		open: func() (channel, func() error, error) {
			conn, err := amqp.Dial(url)
			if err != nil {
				return nil, nil, fmt.Errorf("dial: %w", err)
			}
			ch, err := conn.Channel()
			if err != nil {
				_ = conn.Close()
				return nil, nil, fmt.Errorf("channel open: %w", err)
			}
			return ch, conn.Close, nil
		},
	}
}

// PublishSeatsBooked publishes a SeatsBookedEvent to the seats.booked
// queue.  Messages are marked persistent.
func (p *Publisher) PublishSeatsBooked(ctx context.Context, b model.BookingCommitted) error {
	ch, closeConn, err := p.open()
	if err != nil {
		p.log.Warn("rabbitmq: connect failed", zap.Error(err))
		return err
	}
	defer func() {
		_ = ch.Close()
		_ = closeConn()
	}()

	// Durable so messages survive broker restarts.
	if _, err := ch.QueueDeclare(q.SeatsBookedQueue, true, false, false, false, nil); err != nil {
		p.log.Warn("rabbitmq: queue declare failed", zap.Error(err))
		return fmt.Errorf("queue declare: %w", err)
	}

	body, err := json.Marshal(q.NewSeatsBookedEvent(p.trainID, b))
	if err != nil {
		return fmt.Errorf("marshal event: %w", err)
	}
	pub := amqp.Publishing{
		ContentType:  "application/json",
		DeliveryMode: amqp.Persistent,
		MessageId:    b.BookingID,
		Timestamp:    time.Now().UTC(),
		Body:         body,
	}
	if err := ch.PublishWithContext(ctx, "", q.SeatsBookedQueue, false, false, pub); err != nil {
		p.log.Warn("rabbitmq: publish failed", zap.String("booking_id", b.BookingID), zap.Error(err))
		return fmt.Errorf("publish: %w", err)
	}
	p.log.Debug("rabbitmq: booking published", zap.String("booking_id", b.BookingID))
	return nil
}
