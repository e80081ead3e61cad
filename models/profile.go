package models

import (
	"time"

	"gorm.io/gorm"
)

// Profile holds a customer address used for billing or shipping
type Profile struct {
	ID                 uint           `gorm:"primaryKey" json:"id"`
	Type               string         `gorm:"not null;default:'customer'" json:"type"`
	OwnerID            *uint          `gorm:"index" json:"owner_id"`
	GivenName          string         `gorm:"not null" json:"given_name"`
	FamilyName         string         `gorm:"not null" json:"family_name"`
	Organization       string         `json:"organization"`
	AddressLine1       string         `gorm:"not null" json:"address_line1"`
	AddressLine2       string         `json:"address_line2"`
	PostalCode         string         `json:"postal_code"`
	Locality           string         `gorm:"not null" json:"locality"`
	AdministrativeArea string         `json:"administrative_area"`
	CountryCode        string         `gorm:"not null;size:2" json:"country_code"`
	CreatedAt          time.Time      `json:"created_at"`
	UpdatedAt          time.Time      `json:"updated_at"`
	DeletedAt          gorm.DeletedAt `gorm:"index" json:"-"`
}

// TableName specifies the table name for the Profile model
func (Profile) TableName() string {
	return "profiles"
}
