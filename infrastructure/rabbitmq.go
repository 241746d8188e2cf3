package infrastructure

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/sirupsen/logrus"
)

// Application lifecycle event types.
const (
	EventSubmitted     = "submitted"
	EventStatusChanged = "status_changed"
)

// ApplicationEvent is the message published whenever an application is
// created or an employer changes its status. Downstream notification
// workers consume these.
type ApplicationEvent struct {
	Type          string `json:"type"`
	ApplicationID string `json:"application_id"`
	JobID         string `json:"job_id,omitempty"`
	Applicant     string `json:"applicant,omitempty"`
	Status        string `json:"status"`
}

// EventBus is a thin wrapper over one AMQP connection, channel and queue.
type EventBus struct {
	conn    *amqp.Connection
	channel *amqp.Channel
	queue   amqp.Queue
}

// NewEventBus connects to RabbitMQ and declares the durable event queue.
func NewEventBus(url string) (*EventBus, error) {
	conn, err := amqp.Dial(url)
	if err != nil {
		return nil, fmt.Errorf("connect rabbitmq: %w", err)
	}

	ch, err := conn.Channel()
	if err != nil {
		_ = conn.Close()
		return nil, fmt.Errorf("open channel: %w", err)
	}

	q, err := ch.QueueDeclare(
		"application_events",
		true,  // durable
		false, // delete when unused
		false, // exclusive
		false, // no-wait
		nil,   // args
	)
	if err != nil {
		_ = conn.Close()
		return nil, fmt.Errorf("declare queue: %w", err)
	}

	return &EventBus{conn: conn, channel: ch, queue: q}, nil
}

// Publish sends one event to the queue.
func (b *EventBus) Publish(ctx context.Context, ev ApplicationEvent) error {
	body, err := json.Marshal(ev)
	if err != nil {
		return err
	}

	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	return b.channel.PublishWithContext(
		ctx,
		"",           // exchange
		b.queue.Name, // routing key
		false,
		false,
		amqp.Publishing{
			ContentType: "application/json",
			Body:        body,
		},
	)
}

// Consume delivers queued events to handler on a background goroutine.
func (b *EventBus) Consume(handler func(ApplicationEvent)) error {
	msgs, err := b.channel.Consume(
		b.queue.Name,
		"",
		true,  // auto-ack
		false, // exclusive
		false, // no-local
		false, // no-wait
		nil,
	)
	if err != nil {
		return fmt.Errorf("register consumer: %w", err)
	}

	go func() {
		for d := range msgs {
			var ev ApplicationEvent
			if err := json.Unmarshal(d.Body, &ev); err != nil {
				logrus.WithError(err).Warn("discarding malformed application event")
				continue
			}
			handler(ev)
		}
	}()
	return nil
}

// Close tears down the channel and connection.
func (b *EventBus) Close() error {
	if err := b.channel.Close(); err != nil {
		return err
	}
	return b.conn.Close()
}
