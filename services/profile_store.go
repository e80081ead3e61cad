package services

import (
	"context"
	"fmt"

	"github.com/kendall-kelly/checkout-flow-api/config"
	"github.com/kendall-kelly/checkout-flow-api/models"
	"gorm.io/gorm"
)

// ProfileStore saves customer profiles with gorm. It joins the transaction
// carried by the context.
type ProfileStore struct {
	db *gorm.DB
}

// NewProfileStore creates a profile store backed by db
func NewProfileStore(db *gorm.DB) *ProfileStore {
	return &ProfileStore{db: db}
}

// Save inserts a new profile or updates an existing one and returns its id
func (s *ProfileStore) Save(ctx context.Context, profile *models.Profile) (uint, error) {
	db := config.DBFromContext(ctx, s.db)

	var err error
	if profile.ID == 0 {
		err = db.Create(profile).Error
	} else {
		err = db.Omit("created_at").Save(profile).Error
	}
	if err != nil {
		return 0, fmt.Errorf("save profile: %w", err)
	}
	return profile.ID, nil
}
