package checkout

import (
	"context"
	"fmt"
	"time"

	"github.com/kendall-kelly/checkout-flow-api/models"
)

// ProfileStore persists customer profiles
type ProfileStore interface {
	Save(ctx context.Context, profile *models.Profile) (uint, error)
}

// Receipt is the result of a successful payment capture
type Receipt struct {
	ID          string    `json:"id"`
	Gateway     string    `json:"gateway"`
	AmountCents int64     `json:"amount_cents"`
	Currency    string    `json:"currency"`
	CapturedAt  time.Time `json:"captured_at"`
}

// PaymentError is returned by a PaymentGateway when the payment is declined
type PaymentError struct {
	Code    string
	Message string
}

func (e *PaymentError) Error() string {
	return fmt.Sprintf("payment declined (%s): %s", e.Code, e.Message)
}

// PaymentGateway captures the payment for an order
type PaymentGateway interface {
	Capture(ctx context.Context, order *models.Order) (*Receipt, error)
}

// AccountService creates and authenticates customer accounts. Register
// returns a *ValidationError with fields "name", "mail" and "pass" when the
// account cannot be created. Authenticate returns ErrInvalidCredentials for
// unknown names and wrong passwords.
type AccountService interface {
	Register(ctx context.Context, name, email, password string) (uint, error)
	Authenticate(ctx context.Context, name, password string) (*models.User, error)
}

// Notifier announces placed orders
type Notifier interface {
	SendOrderConfirmation(ctx context.Context, order *models.Order) error
}

// ReceiptArchive stores a receipt document for a placed order and returns
// its storage key. URL returns a time-limited download link for a key.
// Discard removes a stored receipt.
type ReceiptArchive interface {
	Archive(ctx context.Context, order *models.Order) (string, error)
	URL(ctx context.Context, key string) (string, error)
	Discard(ctx context.Context, key string) error
}

// SessionStore maps anonymous session tokens to the orders they may access
type SessionStore interface {
	Bind(ctx context.Context, token string, orderID uint) error
	HasOrder(ctx context.Context, token string, orderID uint) (bool, error)
	Orders(ctx context.Context, token string) ([]uint, error)
}
