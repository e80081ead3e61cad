package services

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"time"

	"github.com/kendall-kelly/checkout-flow-api/checkout"
	"github.com/kendall-kelly/checkout-flow-api/models"
	"github.com/rs/zerolog"
	"github.com/segmentio/kafka-go"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/propagation"
)

// OrderConfirmationEvent is published when an order is placed
type OrderConfirmationEvent struct {
	OrderID     uint      `json:"order_id"`
	OrderNumber uint      `json:"order_number"`
	Email       string    `json:"email"`
	TotalCents  int64     `json:"total_cents"`
	Currency    string    `json:"currency"`
	Message     string    `json:"message"`
	PlacedAt    time.Time `json:"placed_at"`
}

// NewOrderConfirmationEvent builds the confirmation event for a placed order
func NewOrderConfirmationEvent(order *models.Order) OrderConfirmationEvent {
	event := OrderConfirmationEvent{
		OrderID:    order.ID,
		Email:      order.Email,
		TotalCents: order.TotalCents,
		Currency:   order.Currency,
		Message:    checkout.CompletionMessage(order),
	}
	if order.OrderNumber != nil {
		event.OrderNumber = *order.OrderNumber
	}
	if order.PlacedAt != nil {
		event.PlacedAt = *order.PlacedAt
	}
	return event
}

// MessageWriter is the part of *kafka.Writer the notifier uses
type MessageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

// KafkaNotifier publishes order confirmations to a Kafka topic for the
// mailer to pick up
type KafkaNotifier struct {
	writer MessageWriter
}

// NewKafkaWriter creates a writer for topic on the given brokers. Each
// confirmation is flushed on its own rather than waiting for a batch.
func NewKafkaWriter(brokers []string, topic string) *kafka.Writer {
	return &kafka.Writer{
		Addr:                   kafka.TCP(brokers...),
		Topic:                  topic,
		Balancer:               &kafka.Hash{},
		RequiredAcks:           kafka.RequireOne,
		AllowAutoTopicCreation: true,
		BatchSize:              1,
		BatchTimeout:           5 * time.Millisecond,
	}
}

// NewKafkaNotifier creates a notifier publishing through writer
func NewKafkaNotifier(writer MessageWriter) *KafkaNotifier {
	return &KafkaNotifier{writer: writer}
}

// SendOrderConfirmation publishes the confirmation keyed by order id, with
// the trace context in the message headers
func (n *KafkaNotifier) SendOrderConfirmation(ctx context.Context, order *models.Order) error {
	payload, err := json.Marshal(NewOrderConfirmationEvent(order))
	if err != nil {
		return fmt.Errorf("failed to marshal order confirmation: %w", err)
	}

	carrier := propagation.MapCarrier{}
	otel.GetTextMapPropagator().Inject(ctx, carrier)
	headers := make([]kafka.Header, 0, len(carrier))
	for key, value := range carrier {
		headers = append(headers, kafka.Header{Key: key, Value: []byte(value)})
	}

	msg := kafka.Message{
		Key:     []byte(strconv.FormatUint(uint64(order.ID), 10)),
		Value:   payload,
		Headers: headers,
	}
	if err := n.writer.WriteMessages(ctx, msg); err != nil {
		return fmt.Errorf("failed to publish order confirmation: %w", err)
	}
	return nil
}

// Close closes the underlying writer
func (n *KafkaNotifier) Close() error {
	return n.writer.Close()
}

// LogNotifier writes order confirmations to the log. It is used when no
// Kafka brokers are configured.
type LogNotifier struct{}

// SendOrderConfirmation logs the confirmation
func (LogNotifier) SendOrderConfirmation(ctx context.Context, order *models.Order) error {
	event := NewOrderConfirmationEvent(order)
	zerolog.Ctx(ctx).Info().
		Uint("order_id", event.OrderID).
		Uint("order_number", event.OrderNumber).
		Str("email", event.Email).
		Msg(event.Message)
	return nil
}
