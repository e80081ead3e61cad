package models

import "time"

// GuestSessionOrder binds an anonymous session token to an order it may access
type GuestSessionOrder struct {
	ID           uint      `gorm:"primaryKey" json:"id"`
	SessionToken string    `gorm:"not null;uniqueIndex:idx_guest_session_order" json:"-"`
	OrderID      uint      `gorm:"not null;uniqueIndex:idx_guest_session_order;index" json:"order_id"`
	CreatedAt    time.Time `json:"created_at"`
}

// TableName specifies the table name for the GuestSessionOrder model
func (GuestSessionOrder) TableName() string {
	return "guest_session_orders"
}
