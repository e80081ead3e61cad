package checkout

import (
	"context"
	"errors"
	"fmt"

	"github.com/kendall-kelly/checkout-flow-api/models"
)

// OrderSummaryPane shows the items and total, usually in the sidebar
type OrderSummaryPane struct {
	basePane
	viewID string
}

// NewOrderSummaryPane creates the order summary pane rendered with the
// given view. An empty view id disables the summary.
func NewOrderSummaryPane(viewID string) *OrderSummaryPane {
	return &OrderSummaryPane{
		basePane: basePane{id: "order_summary", label: "Order summary"},
		viewID:   viewID,
	}
}

func (p *OrderSummaryPane) Visible(*models.Order, Actor) bool {
	return p.viewID != ""
}

func (p *OrderSummaryPane) View(order *models.Order) map[string]any {
	return map[string]any{
		"view_id":     p.viewID,
		"items":       order.Items,
		"item_count":  order.ItemCount(),
		"total_cents": order.TotalCents,
		"currency":    order.Currency,
	}
}

// ReviewPane summarizes the information entered on earlier steps
type ReviewPane struct {
	basePane
}

// NewReviewPane creates the review pane
func NewReviewPane() *ReviewPane {
	return &ReviewPane{basePane{id: "review", label: "Review"}}
}

func (p *ReviewPane) View(order *models.Order) map[string]any {
	view := map[string]any{
		"contact_information": map[string]any{"email": order.Email},
	}
	if order.BillingProfile != nil {
		view["billing_information"] = order.BillingProfile
	}
	return view
}

// PaymentProcessPane captures the payment when the review step is submitted
type PaymentProcessPane struct {
	basePane
	gateway PaymentGateway
}

// NewPaymentProcessPane creates the payment pane backed by gateway
func NewPaymentProcessPane(gateway PaymentGateway) *PaymentProcessPane {
	return &PaymentProcessPane{
		basePane: basePane{id: "payment_process", label: "Payment"},
		gateway:  gateway,
	}
}

func (p *PaymentProcessPane) View(order *models.Order) map[string]any {
	return map[string]any{
		"amount_cents":  order.TotalCents,
		"currency":      order.Currency,
		"payment_state": order.PaymentState,
	}
}

func (p *PaymentProcessPane) Submit(ctx context.Context, sub *Submission) error {
	if sub.Order.PaymentState == models.PaymentStateCaptured {
		return nil
	}

	receipt, err := p.gateway.Capture(ctx, sub.Order)
	if err != nil {
		var declined *PaymentError
		if errors.As(err, &declined) {
			verr := &ValidationError{}
			verr.Add(p.field("payment"), ReasonDeclined, declined.Message)
			return verr
		}
		return fmt.Errorf("capture payment: %w", err)
	}

	sub.Order.PaymentState = models.PaymentStateCaptured
	sub.Order.ReceiptID = receipt.ID
	return nil
}

// CompletionMessagePane thanks the customer once the order is placed
type CompletionMessagePane struct {
	basePane
}

// NewCompletionMessagePane creates the completion message pane
func NewCompletionMessagePane() *CompletionMessagePane {
	return &CompletionMessagePane{basePane{id: "completion_message", label: "Completion message"}}
}

func (p *CompletionMessagePane) View(order *models.Order) map[string]any {
	return map[string]any{"message": CompletionMessage(order)}
}

// CompletionMessage is the text shown to the customer for a placed order
func CompletionMessage(order *models.Order) string {
	if order.OrderNumber == nil {
		return ""
	}
	return fmt.Sprintf("Your order number is %d. You can view your order on your account page when logged in.", *order.OrderNumber)
}
