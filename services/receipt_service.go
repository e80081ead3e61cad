package services

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/kendall-kelly/checkout-flow-api/models"
)

// ReceiptDocument is the JSON receipt archived for a placed order
type ReceiptDocument struct {
	ReceiptID   string             `json:"receipt_id"`
	OrderID     uint               `json:"order_id"`
	OrderNumber uint               `json:"order_number"`
	Email       string             `json:"email"`
	Items       []models.OrderItem `json:"items"`
	TotalCents  int64              `json:"total_cents"`
	Currency    string             `json:"currency"`
	PlacedAt    *time.Time         `json:"placed_at"`
}

// ReceiptService archives order receipts in S3
type ReceiptService struct {
	s3Service S3Interface
}

// InitReceiptService initializes the receipt service with an S3 backend
func InitReceiptService(s3Service S3Interface) *ReceiptService {
	return &ReceiptService{s3Service: s3Service}
}

// Archive uploads the receipt of a placed order and returns its S3 key.
// Keys look like receipts/{order id}/{uuid}.json.
func (s *ReceiptService) Archive(ctx context.Context, order *models.Order) (string, error) {
	if order.OrderNumber == nil {
		return "", fmt.Errorf("order %d has not been placed", order.ID)
	}

	doc := ReceiptDocument{
		ReceiptID:   order.ReceiptID,
		OrderID:     order.ID,
		OrderNumber: *order.OrderNumber,
		Email:       order.Email,
		Items:       order.Items,
		TotalCents:  order.TotalCents,
		Currency:    order.Currency,
		PlacedAt:    order.PlacedAt,
	}
	body, err := json.Marshal(doc)
	if err != nil {
		return "", fmt.Errorf("failed to marshal receipt: %w", err)
	}

	key := fmt.Sprintf("receipts/%d/%s.json", order.ID, uuid.NewString())
	if err := s.s3Service.PutObject(ctx, key, "application/json", body); err != nil {
		return "", fmt.Errorf("failed to archive receipt: %w", err)
	}
	return key, nil
}

// URL returns a presigned download URL for an archived receipt
func (s *ReceiptService) URL(ctx context.Context, key string) (string, error) {
	url, err := s.s3Service.GetPresignedURL(ctx, key)
	if err != nil {
		return "", fmt.Errorf("failed to generate receipt URL: %w", err)
	}
	return url, nil
}

// Discard deletes an archived receipt that could not be recorded on its order
func (s *ReceiptService) Discard(ctx context.Context, key string) error {
	if err := s.s3Service.DeleteObject(ctx, key); err != nil {
		return fmt.Errorf("failed to discard receipt: %w", err)
	}
	return nil
}
