package models

import "time"

// Order log categories
const (
	LogCategoryCheckoutStep = "checkout_step"
	LogCategoryTransition   = "transition"
	LogCategoryCart         = "cart"
)

// OrderLogEntry records a checkout step change, workflow transition or cart
// change on an order
type OrderLogEntry struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	OrderID   uint      `gorm:"not null;index" json:"order_id"`
	ActorID   *uint     `gorm:"index" json:"actor_id"` // nil for anonymous customers
	Category  string    `gorm:"not null" json:"category"`
	FromValue string    `json:"from"`
	ToValue   string    `json:"to"`
	Message   string    `gorm:"type:text;not null" json:"message"`
	CreatedAt time.Time `json:"created_at"`
}

// TableName specifies the table name for the OrderLogEntry model
func (OrderLogEntry) TableName() string {
	return "order_log_entries"
}
