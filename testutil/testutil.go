package testutil

import (
	"fmt"
	"os"
	"testing"

	"github.com/kendall-kelly/checkout-flow-api/models"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// RequireTestEnvironment ensures that tests are running in the test environment.
// This prevents accidental execution of tests against production or development databases.
// It will fail the test immediately if GO_ENV is not set to "test".
func RequireTestEnvironment(t *testing.T) {
	t.Helper()

	env := os.Getenv("GO_ENV")
	if env != "test" {
		t.Fatalf("SAFETY CHECK FAILED: Tests must run with GO_ENV=test to prevent data loss. Current GO_ENV=%q. Set GO_ENV=test before running tests.", env)
	}
}

// MustSetTestEnvironment sets GO_ENV to test and fails if it cannot be set.
// Use this in TestMain or suite setup functions.
func MustSetTestEnvironment(t *testing.T) {
	t.Helper()

	if err := os.Setenv("GO_ENV", "test"); err != nil {
		t.Fatalf("Failed to set GO_ENV=test: %v", err)
	}
}

// NewTestDB opens a migrated in-memory SQLite database. The pool is held to
// one connection so every query sees the same in-memory database.
func NewTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{Logger: logger.Default.LogMode(logger.Silent)})
	if err != nil {
		t.Fatalf("Failed to connect to test database: %v", err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		t.Fatalf("Failed to get test database handle: %v", err)
	}
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { sqlDB.Close() })

	if err := db.AutoMigrate(models.All()...); err != nil {
		t.Fatalf("Failed to migrate test database: %v", err)
	}
	return db
}

// CreateUser inserts a customer account
func CreateUser(t *testing.T, db *gorm.DB, name, email string) models.User {
	t.Helper()

	subject := "auth0|" + name
	user := models.User{Subject: &subject, Name: name, Email: email, Role: "customer"}
	if err := db.Create(&user).Error; err != nil {
		t.Fatalf("Failed to create user %s: %v", name, err)
	}
	return user
}

// CreateVariation inserts an active product variation
func CreateVariation(t *testing.T, db *gorm.DB, sku string, priceCents int64) models.ProductVariation {
	t.Helper()

	variation := models.ProductVariation{SKU: sku, Title: fmt.Sprintf("Product %s", sku), PriceCents: priceCents, Currency: "USD", Active: true}
	if err := db.Create(&variation).Error; err != nil {
		t.Fatalf("Failed to create variation %s: %v", sku, err)
	}
	return variation
}

// CreateOrder inserts a draft order with one line item per variation. A nil
// owner creates a guest order.
func CreateOrder(t *testing.T, db *gorm.DB, ownerID *uint, variations ...models.ProductVariation) models.Order {
	t.Helper()

	order := models.Order{OwnerID: ownerID, State: models.StateDraft, Currency: "USD", Version: 1}
	if err := db.Create(&order).Error; err != nil {
		t.Fatalf("Failed to create order: %v", err)
	}
	for _, v := range variations {
		item := order.AddItem(v, 1)
		if err := db.Create(item).Error; err != nil {
			t.Fatalf("Failed to create order item: %v", err)
		}
	}
	if err := db.Model(&order).Update("total_cents", order.TotalCents).Error; err != nil {
		t.Fatalf("Failed to update order total: %v", err)
	}
	return order
}
