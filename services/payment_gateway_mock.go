package services

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/kendall-kelly/checkout-flow-api/checkout"
	"github.com/kendall-kelly/checkout-flow-api/models"
)

// MockPaymentGateway is a mock implementation of checkout.PaymentGateway for testing
type MockPaymentGateway struct {
	mu       sync.Mutex
	captures []uint // ids of orders captured
	decline  error
}

// NewMockPaymentGateway creates a mock gateway that accepts every payment
func NewMockPaymentGateway() *MockPaymentGateway {
	return &MockPaymentGateway{}
}

// DeclineWith makes subsequent captures fail with err; nil accepts again
func (m *MockPaymentGateway) DeclineWith(err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.decline = err
}

// Capture simulates capturing a payment
func (m *MockPaymentGateway) Capture(_ context.Context, order *models.Order) (*checkout.Receipt, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.decline != nil {
		return nil, m.decline
	}
	m.captures = append(m.captures, order.ID)
	return &checkout.Receipt{
		ID:          fmt.Sprintf("mock-receipt-%d-%d", order.ID, len(m.captures)),
		Gateway:     "mock",
		AmountCents: order.TotalCents,
		Currency:    order.Currency,
		CapturedAt:  time.Now().UTC(),
	}, nil
}

// Captures returns the ids of captured orders (for testing assertions)
func (m *MockPaymentGateway) Captures() []uint {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]uint(nil), m.captures...)
}
