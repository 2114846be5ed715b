package observability

import (
	"context"
	"encoding/json"
	"log"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"
)

// EventMirror forwards committed domain events to an external broker for
// audit and integration consumers. It is an observability feed; subscription
// delivery never depends on it.
type EventMirror interface {
	Mirror(ctx context.Context, routingKey string, event any) error
	Close() error
}

// MirrorEnvelope wraps a mirrored event with delivery metadata.
type MirrorEnvelope struct {
	SchemaVersion int    `json:"schema_version"`
	Topic         string `json:"topic"`
	OccurredAt    string `json:"occurred_at"`
	Service       string `json:"service"`
	Environment   string `json:"environment"`
	Payload       any    `json:"payload"`
}

// NewEventMirror builds a RabbitMQ mirror or a noop one when AMQP is
// disabled or unreachable.
func NewEventMirror(amqpURL, exchange, environment string) EventMirror {
	if amqpURL == "" {
		log.Printf("rabbitmq disabled, using noop: empty amqp url")
		return noopMirror{reason: "empty amqp url"}
	}

	conn, err := amqp.Dial(amqpURL)
	if err != nil {
		log.Printf("rabbitmq disabled, using noop: %v", err)
		return noopMirror{reason: err.Error()}
	}

	ch, err := conn.Channel()
	if err != nil {
		log.Printf("rabbitmq disabled, using noop: %v", err)
		_ = conn.Close()
		return noopMirror{reason: err.Error()}
	}

	if err := ch.ExchangeDeclare(exchange, "topic", true, false, false, false, nil); err != nil {
		log.Printf("rabbitmq disabled, using noop: %v", err)
		_ = ch.Close()
		_ = conn.Close()
		return noopMirror{reason: err.Error()}
	}

	log.Printf("rabbitmq connected exchange=%s", exchange)
	return &amqpMirror{conn: conn, ch: ch, exchange: exchange, environment: environment}
}

type amqpMirror struct {
	conn        *amqp.Connection
	ch          *amqp.Channel
	exchange    string
	environment string
}

func (m *amqpMirror) Mirror(ctx context.Context, routingKey string, event any) error {
	envelope := MirrorEnvelope{
		SchemaVersion: 1,
		Topic:         routingKey,
		OccurredAt:    time.Now().UTC().Format(time.RFC3339Nano),
		Service:       "chat-api",
		Environment:   m.environment,
		Payload:       event,
	}
	body, err := json.Marshal(envelope)
	if err != nil {
		return err
	}

	err = m.ch.PublishWithContext(ctx, m.exchange, routingKey, false, false, amqp.Publishing{
		ContentType:  "application/json",
		DeliveryMode: amqp.Persistent,
		Timestamp:    time.Now(),
		Body:         body,
	})
	if err != nil {
		IncAMQPPublishError()
		log.Printf("rabbitmq publish failed: %v", err)
	}
	return err
}

func (m *amqpMirror) Close() error {
	if m.ch != nil {
		_ = m.ch.Close()
	}
	if m.conn != nil {
		return m.conn.Close()
	}
	return nil
}

type noopMirror struct {
	reason string
}

func (noopMirror) Mirror(ctx context.Context, routingKey string, event any) error {
	log.Printf("rabbitmq noop publish routing_key=%s", routingKey)
	return nil
}

func (noopMirror) Close() error {
	return nil
}

// MirrorMode reports the mirror mode for boot logging.
func MirrorMode(m EventMirror) string {
	switch m.(type) {
	case *amqpMirror:
		return "amqp"
	case noopMirror:
		return "noop"
	default:
		return "unknown"
	}
}
