package kafka

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"pharmacy/internal/core/ports"

	"github.com/segmentio/kafka-go"
)

const DefaultTopic = "pharmacy.order-events"

var _ ports.Notifier = (*Notifier)(nil)

// MessageWriter is the part of kafka.Writer the notifier depends on.
type MessageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

// Notifier publishes order events keyed by order id, so every event of one order lands
// on the same partition and is consumed in commit order.
type Notifier struct {
	writer MessageWriter
}

func NewNotifier(brokers []string, topic string) (*Notifier, error) {
	if len(brokers) == 0 {
		return nil, errors.New("kafka brokers are required")
	}
	if topic == "" {
		topic = DefaultTopic
	}

	w := &kafka.Writer{
		Addr:         kafka.TCP(brokers...),
		Topic:        topic,
		Balancer:     &kafka.Hash{},
		RequiredAcks: kafka.RequireAll,
		MaxAttempts:  5,
		WriteTimeout: 5 * time.Second,
		ReadTimeout:  5 * time.Second,
		BatchTimeout: 50 * time.Millisecond,
	}

	return NewNotifierWithWriter(w), nil
}

func NewNotifierWithWriter(w MessageWriter) *Notifier {
	return &Notifier{writer: w}
}

func (n *Notifier) Notify(ctx context.Context, event ports.OrderEvent) error {
	msg, err := EncodeEvent(event)
	if err != nil {
		return err
	}
	if err := n.writer.WriteMessages(ctx, msg); err != nil {
		return fmt.Errorf("publish %s for order %s: %w", event.Type, event.OrderID, err)
	}
	return nil
}

func (n *Notifier) Close() error {
	return n.writer.Close()
}

type eventMessage struct {
	Type          string    `json:"type"`
	OrderID       string    `json:"order_id"`
	OrderNumber   string    `json:"order_number"`
	OrderStatus   string    `json:"order_status"`
	PaymentStatus string    `json:"payment_status"`
	OccurredAt    time.Time `json:"occurred_at"`
}

// EncodeEvent renders an event as the JSON message consumers read. The event type is
// duplicated into a header so consumers can filter without decoding the body.
func EncodeEvent(event ports.OrderEvent) (kafka.Message, error) {
	if event.OrderID == "" {
		return kafka.Message{}, errors.New("order event without order id")
	}

	body, err := json.Marshal(eventMessage{
		Type:          string(event.Type),
		OrderID:       event.OrderID,
		OrderNumber:   event.OrderNumber,
		OrderStatus:   event.OrderStatus,
		PaymentStatus: event.PaymentStatus,
		OccurredAt:    event.OccurredAt.UTC(),
	})
	if err != nil {
		return kafka.Message{}, err
	}

	return kafka.Message{
		Key:     []byte(event.OrderID),
		Value:   body,
		Headers: []kafka.Header{{Key: "event-type", Value: []byte(event.Type)}},
		Time:    event.OccurredAt,
	}, nil
}
