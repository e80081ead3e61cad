package models

import "time"

// ProductVariation is a purchasable SKU with its price
type ProductVariation struct {
	ID         uint      `gorm:"primaryKey" json:"id"`
	SKU        string    `gorm:"uniqueIndex;not null" json:"sku"`
	Title      string    `gorm:"not null" json:"title"`
	PriceCents int64     `gorm:"not null" json:"price_cents"`
	Currency   string    `gorm:"not null;default:'USD'" json:"currency"`
	Active     bool      `gorm:"not null;default:true" json:"active"`
	CreatedAt  time.Time `json:"created_at"`
	UpdatedAt  time.Time `json:"updated_at"`
}

// TableName specifies the table name for the ProductVariation model
func (ProductVariation) TableName() string {
	return "product_variations"
}
