package events

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"
)

// Routing keys for domain events
const (
	BookingCreated         = "booking.created"
	BookingAssigned        = "booking.assigned"
	BookingStatusChanged   = "booking.status_changed"
	BookingRemoved         = "booking.removed"
	PaymentRecorded        = "payment.recorded"
	DecoratorApplied       = "decorator.applied"
	DecoratorStatusChanged = "decorator.status_changed"
	DecoratorRemoved       = "decorator.removed"
)

// Envelope wraps every published payload
type Envelope struct {
	Event      string    `json:"event"`
	OccurredAt time.Time `json:"occurredAt"`
	Data       any       `json:"data"`
}

// Publisher emits domain events after a change has been committed.
// Delivery is best effort; callers log failures and carry on.
type Publisher interface {
	Publish(ctx context.Context, routingKey string, data any) error
	Close() error
}

// RabbitPublisher publishes JSON envelopes to a topic exchange
type RabbitPublisher struct {
	mu       sync.Mutex
	conn     *amqp.Connection
	ch       *amqp.Channel
	exchange string
}

func NewRabbitPublisher(url, exchange string) (*RabbitPublisher, error) {
	conn, err := amqp.Dial(url)
	if err != nil {
		return nil, fmt.Errorf("dial rabbitmq: %w", err)
	}
	ch, err := conn.Channel()
	if err != nil {
		_ = conn.Close()
		return nil, fmt.Errorf("open channel: %w", err)
	}
	if err := ch.ExchangeDeclare(exchange, "topic", true, false, false, false, nil); err != nil {
		_ = ch.Close()
		_ = conn.Close()
		return nil, fmt.Errorf("declare exchange: %w", err)
	}
	return &RabbitPublisher{conn: conn, ch: ch, exchange: exchange}, nil
}

func (p *RabbitPublisher) Publish(ctx context.Context, routingKey string, data any) error {
	b, err := json.Marshal(Envelope{Event: routingKey, OccurredAt: time.Now().UTC(), Data: data})
	if err != nil {
		return err
	}

	p.mu.Lock()
	defer p.mu.Unlock()
	return p.ch.PublishWithContext(ctx, p.exchange, routingKey, false, false, amqp.Publishing{
		ContentType:  "application/json",
		DeliveryMode: amqp.Persistent,
		Timestamp:    time.Now(),
		Body:         b,
	})
}

func (p *RabbitPublisher) Close() error {
	if p.ch != nil {
		_ = p.ch.Close()
	}
	if p.conn != nil {
		return p.conn.Close()
	}
	return nil
}

// NopPublisher drops every event; used when no broker is configured
type NopPublisher struct{}

func (NopPublisher) Publish(context.Context, string, any) error { return nil }
func (NopPublisher) Close() error { return nil }
