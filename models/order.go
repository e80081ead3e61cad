package models

import (
	"time"

	"github.com/kendall-kelly/checkout-flow-api/workflow"
	"gorm.io/gorm"
)

// Order workflow states
const (
	StateDraft      workflow.State = "draft"
	StateInCheckout workflow.State = "in_checkout"
	StatePlaced     workflow.State = "placed"
	StateCompleted  workflow.State = "completed"
	StateCanceled   workflow.State = "canceled"
)

// PaymentStateCaptured marks an order whose payment has been captured
const PaymentStateCaptured = "captured"

// Order is the checkout aggregate: a cart while draft, an order once placed
type Order struct {
	ID                   uint           `gorm:"primaryKey" json:"id"`
	OrderNumber          *uint          `gorm:"uniqueIndex" json:"order_number"` // nullable, assigned when the order is placed
	OwnerID              *uint          `gorm:"index" json:"owner_id"`           // nullable, guest orders have no owner
	Owner                *User          `gorm:"foreignKey:OwnerID" json:"owner,omitempty"`
	Email                string         `json:"email"`
	BillingProfileID     *uint          `json:"billing_profile_id"`
	BillingProfile       *Profile       `gorm:"foreignKey:BillingProfileID" json:"billing_profile,omitempty"`
	ShippingProfileID    *uint          `json:"shipping_profile_id"`
	Items                []OrderItem    `gorm:"foreignKey:OrderID" json:"items"`
	TotalCents           int64          `gorm:"not null;default:0" json:"total_cents"`
	Currency             string         `gorm:"not null;default:'USD'" json:"currency"`
	State                workflow.State `gorm:"type:varchar(32);not null;default:'draft';index" json:"state"`
	CheckoutStep         string         `json:"checkout_step"`
	PaymentState         string         `json:"payment_state"`
	ReceiptID            string         `json:"receipt_id"`
	ReceiptS3Key         *string        `json:"-"`
	PlacedAt             *time.Time     `json:"placed_at"`
	Version              int            `gorm:"not null;default:1" json:"version"` // optimistic concurrency revision
	LastSubmissionStep   string         `json:"-"`
	LastSubmissionDigest string         `json:"-"`
	CreatedAt            time.Time      `json:"created_at"`
	UpdatedAt            time.Time      `json:"updated_at"`
	DeletedAt            gorm.DeletedAt `gorm:"index" json:"-"`
}

// TableName specifies the table name for the Order model
func (Order) TableName() string {
	return "orders"
}

// HasItems reports whether the order holds at least one line item
func (o *Order) HasItems() bool {
	return len(o.Items) > 0
}

// ItemCount returns the total quantity across all line items
func (o *Order) ItemCount() int {
	count := 0
	for _, item := range o.Items {
		count += item.Quantity
	}
	return count
}

// IsOwnedBy reports whether the given user owns the order
func (o *Order) IsOwnedBy(userID uint) bool {
	return userID != 0 && o.OwnerID != nil && *o.OwnerID == userID
}

// IsCart reports whether the order can still be modified by cart operations
func (o *Order) IsCart() bool {
	return o.State == StateDraft || o.State == StateInCheckout
}

// IsCheckoutFinished reports whether checkout has been completed for the order
func (o *Order) IsCheckoutFinished() bool {
	return o.State == StatePlaced || o.State == StateCompleted
}

// Facts returns the snapshot that workflow guards are evaluated against
func (o *Order) Facts() workflow.Facts {
	return workflow.Facts{
		"id":            int64(o.ID),
		"item_count":    int64(len(o.Items)),
		"quantity":      int64(o.ItemCount()),
		"total_cents":   o.TotalCents,
		"currency":      o.Currency,
		"email":         o.Email,
		"has_owner":     o.OwnerID != nil,
		"payment_state": o.PaymentState,
		"checkout_step": o.CheckoutStep,
		"state":         string(o.State),
	}
}

// ApplyTransition moves the order to the target state of the named
// transition. The order is left untouched when the workflow refuses.
func (o *Order) ApplyTransition(wf *workflow.Workflow, transitionID string, now time.Time) error {
	t, err := wf.Transition(transitionID)
	if err != nil {
		return err
	}

	to, err := wf.Apply(t, o.State, o.Facts())
	if err != nil {
		return err
	}

	o.State = to
	if to == StatePlaced && o.PlacedAt == nil {
		placedAt := now
		o.PlacedAt = &placedAt
	}
	return nil
}

// SetCheckoutStep records the checkout progress of the order
func (o *Order) SetCheckoutStep(step string) {
	o.CheckoutStep = step
}

// ResetCheckout forgets all checkout progress, including the last applied
// submission, so a restarted checkout accepts its steps again
func (o *Order) ResetCheckout() {
	o.CheckoutStep = ""
	o.LastSubmissionStep = ""
	o.LastSubmissionDigest = ""
}

// AddItem adds quantity units of the variation, merging with an existing
// line item for the same SKU. It returns the affected line item.
func (o *Order) AddItem(variation ProductVariation, quantity int) *OrderItem {
	for i := range o.Items {
		if o.Items[i].SKU == variation.SKU {
			o.Items[i].Quantity += quantity
			o.Items[i].recalculate()
			o.RecalculateTotal()
			return &o.Items[i]
		}
	}

	variationID := variation.ID
	item := OrderItem{
		OrderID:        o.ID,
		VariationID:    &variationID,
		SKU:            variation.SKU,
		Title:          variation.Title,
		Quantity:       quantity,
		UnitPriceCents: variation.PriceCents,
	}
	item.recalculate()
	o.Items = append(o.Items, item)
	o.RecalculateTotal()
	return &o.Items[len(o.Items)-1]
}

// RemoveItem removes the line item with the given id
func (o *Order) RemoveItem(itemID uint) (OrderItem, bool) {
	for i, item := range o.Items {
		if item.ID == itemID {
			o.Items = append(o.Items[:i], o.Items[i+1:]...)
			o.RecalculateTotal()
			return item, true
		}
	}
	return OrderItem{}, false
}

// RecalculateTotal sums the line item totals into the order total
func (o *Order) RecalculateTotal() {
	var total int64
	for _, item := range o.Items {
		total += item.TotalCents
	}
	o.TotalCents = total
}

// OrderItem is a line item owned by an order
type OrderItem struct {
	ID             uint      `gorm:"primaryKey" json:"id"`
	OrderID        uint      `gorm:"not null;index" json:"order_id"`
	VariationID    *uint     `gorm:"index" json:"variation_id"`
	SKU            string    `gorm:"not null" json:"sku"`
	Title          string    `gorm:"not null" json:"title"`
	Quantity       int       `gorm:"not null;check:quantity > 0" json:"quantity"`
	UnitPriceCents int64     `gorm:"not null" json:"unit_price_cents"`
	TotalCents     int64     `gorm:"not null" json:"total_cents"`
	CreatedAt      time.Time `json:"created_at"`
	UpdatedAt      time.Time `json:"updated_at"`
}

// TableName specifies the table name for the OrderItem model
func (OrderItem) TableName() string {
	return "order_items"
}

func (i *OrderItem) recalculate() {
	i.TotalCents = i.UnitPriceCents * int64(i.Quantity)
}
