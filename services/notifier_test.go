package services

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/kendall-kelly/checkout-flow-api/models"
	"github.com/segmentio/kafka-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/propagation"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
)

type recordingWriter struct {
	messages []kafka.Message
	err      error
	closed   bool
}

func (w *recordingWriter) WriteMessages(_ context.Context, msgs ...kafka.Message) error {
	if w.err != nil {
		return w.err
	}
	w.messages = append(w.messages, msgs...)
	return nil
}

func (w *recordingWriter) Close() error {
	w.closed = true
	return nil
}

func placedOrder() *models.Order {
	number := uint(42)
	placedAt := time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)
	return &models.Order{
		ID:          7,
		OrderNumber: &number,
		Email:       "guest@example.com",
		TotalCents:  2500,
		Currency:    "USD",
		State:       models.StatePlaced,
		ReceiptID:   "receipt-7",
		PlacedAt:    &placedAt,
	}
}

func TestNewOrderConfirmationEvent(t *testing.T) {
	event := NewOrderConfirmationEvent(placedOrder())

	assert.Equal(t, uint(7), event.OrderID)
	assert.Equal(t, uint(42), event.OrderNumber)
	assert.Equal(t, "guest@example.com", event.Email)
	assert.Equal(t, "Your order number is 42. You can view your order on your account page when logged in.", event.Message)

	empty := NewOrderConfirmationEvent(&models.Order{ID: 1})
	assert.Zero(t, empty.OrderNumber)
	assert.True(t, empty.PlacedAt.IsZero())
}

func TestKafkaNotifier_SendOrderConfirmation(t *testing.T) {
	otel.SetTextMapPropagator(propagation.TraceContext{})
	tp := sdktrace.NewTracerProvider()
	t.Cleanup(func() { tp.Shutdown(context.Background()) })

	ctx, span := tp.Tracer("test").Start(context.Background(), "place")
	defer span.End()

	writer := &recordingWriter{}
	notifier := NewKafkaNotifier(writer)
	require.NoError(t, notifier.SendOrderConfirmation(ctx, placedOrder()))

	require.Len(t, writer.messages, 1)
	msg := writer.messages[0]
	assert.Equal(t, "7", string(msg.Key))

	var event OrderConfirmationEvent
	require.NoError(t, json.Unmarshal(msg.Value, &event))
	assert.Equal(t, uint(42), event.OrderNumber)
	assert.Equal(t, int64(2500), event.TotalCents)

	headers := make(map[string]string)
	for _, h := range msg.Headers {
		headers[h.Key] = string(h.Value)
	}
	require.Contains(t, headers, "traceparent")
	assert.Contains(t, headers["traceparent"], span.SpanContext().TraceID().String())

	require.NoError(t, notifier.Close())
	assert.True(t, writer.closed)
}

func TestKafkaNotifier_WriteFailure(t *testing.T) {
	writer := &recordingWriter{err: errors.New("broker unavailable")}
	err := NewKafkaNotifier(writer).SendOrderConfirmation(context.Background(), placedOrder())
	assert.ErrorIs(t, err, writer.err)
}

func TestNewKafkaWriter(t *testing.T) {
	writer := NewKafkaWriter([]string{"kafka-1:9092", "kafka-2:9092"}, "order-confirmations")
	assert.Equal(t, "order-confirmations", writer.Topic)
	assert.Equal(t, "tcp", writer.Addr.Network())
	assert.Equal(t, kafka.RequireOne, writer.RequiredAcks)
	assert.Equal(t, 1, writer.BatchSize)
	assert.LessOrEqual(t, writer.BatchTimeout, 10*time.Millisecond)
}

func TestLogNotifier(t *testing.T) {
	assert.NoError(t, LogNotifier{}.SendOrderConfirmation(context.Background(), placedOrder()))
}
