package models

// OrderNumberSequenceName is the sequence used for placed order numbers
const OrderNumberSequenceName = "order_number"

// OrderNumberSequence is a named monotonically increasing counter
type OrderNumberSequence struct {
	Name  string `gorm:"primaryKey;size:64"`
	Value uint   `gorm:"not null;default:0"`
}

// TableName specifies the table name for the OrderNumberSequence model
func (OrderNumberSequence) TableName() string {
	return "order_number_sequences"
}

// All returns every model that needs a table, in migration order
func All() []any {
	return []any{
		&User{},
		&Profile{},
		&ProductVariation{},
		&Order{},
		&OrderItem{},
		&GuestSessionOrder{},
		&OrderLogEntry{},
		&OrderNumberSequence{},
	}
}
