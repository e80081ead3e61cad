package services

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/kendall-kelly/checkout-flow-api/checkout"
	"github.com/kendall-kelly/checkout-flow-api/models"
)

// PaymentError is returned when a payment is declined
type PaymentError = checkout.PaymentError

// ManualGateway records payments taken outside the service, such as cash
// on delivery. Orders above the capture limit are declined; a zero limit
// means no limit.
type ManualGateway struct {
	limitCents int64
	now        func() time.Time
}

// NewManualGateway creates a manual gateway with the given capture limit
func NewManualGateway(limitCents int64) *ManualGateway {
	return &ManualGateway{limitCents: limitCents, now: time.Now}
}

// Capture accepts the payment for order unless it exceeds the limit
func (g *ManualGateway) Capture(_ context.Context, order *models.Order) (*checkout.Receipt, error) {
	if g.limitCents > 0 && order.TotalCents > g.limitCents {
		return nil, &PaymentError{
			Code:    "LIMIT_EXCEEDED",
			Message: "The payment was declined: the order total exceeds the allowed amount.",
		}
	}

	return &checkout.Receipt{
		ID:          uuid.NewString(),
		Gateway:     "manual",
		AmountCents: order.TotalCents,
		Currency:    order.Currency,
		CapturedAt:  g.now().UTC(),
	}, nil
}
