// Package events publishes announcement lifecycle events to interested
// consumers, such as a notification mailer.
package events

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"
)

// Event types.
const (
	TypeReserved  = "announcement.reserved"
	TypeSold      = "announcement.sold"
	TypeModerated = "announcement.moderated"
)

// Event describes a completed status transition.
type Event struct {
	Type           string    `json:"type"`
	AnnouncementID int64     `json:"announcement_id"`
	ActorID        int64     `json:"actor_id"`
	OwnerID        int64     `json:"owner_id,omitempty"`
	Status         string    `json:"status"`
	OccurredAt     time.Time `json:"occurred_at"`
}

// Publisher delivers events. Callers treat failures as non-fatal.
type Publisher interface {
	Publish(ctx context.Context, e Event) error
}

// Nop discards every event.
type Nop struct{}

// Publish implements Publisher.
func (Nop) Publish(context.Context, Event) error { return nil }

// AMQP publishes events as persistent JSON messages to a durable RabbitMQ
// queue named after the event type. A connection is opened per message.
type AMQP struct {
	URL string
}

// NewAMQP returns a publisher for the broker at url.
func NewAMQP(url string) *AMQP {
	return &AMQP{URL: url}
}

// Publish implements Publisher.
func (p *AMQP) Publish(ctx context.Context, e Event) error {
	body, err := json.Marshal(e)
	if err != nil {
		return fmt.Errorf("encoding event: %w", err)
	}

	conn, err := amqp.Dial(p.URL)
	if err != nil {
		return fmt.Errorf("connecting to broker: %w", err)
	}
	defer conn.Close()

	ch, err := conn.Channel()
	if err != nil {
		return fmt.Errorf("opening channel: %w", err)
	}
	defer ch.Close()

	if _, err := ch.QueueDeclare(e.Type, true, false, false, false, nil); err != nil {
		return fmt.Errorf("declaring queue %s: %w", e.Type, err)
	}

	msg := amqp.Publishing{
		ContentType:  "application/json",
		DeliveryMode: amqp.Persistent,
		Timestamp:    e.OccurredAt,
		Type:         e.Type,
		Body:         body,
	}
	if err := ch.PublishWithContext(ctx, "", e.Type, false, false, msg); err != nil {
		return fmt.Errorf("publishing %s: %w", e.Type, err)
	}
	return nil
}

// Recorder keeps published events in memory.
type Recorder struct {
	mu     sync.Mutex
	events []Event
	Err    error
}

// Publish implements Publisher. It records the event even when Err is set.
func (r *Recorder) Publish(_ context.Context, e Event) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, e)
	return r.Err
}

// Events returns a copy of the recorded events.
func (r *Recorder) Events() []Event {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]Event(nil), r.events...)
}
