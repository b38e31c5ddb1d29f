package repository

import (
	"context"

	"github.com/khiva-labs/hotelier/internal/domain"
)

// PaymentRepository defines the interface for payment data access
type PaymentRepository interface {
	// Insert creates a new payment record
	Insert(ctx context.Context, payment *domain.Payment) error

	// GetByID retrieves a payment by its ID
	GetByID(ctx context.Context, id string) (*domain.Payment, error)

	// Delete removes a payment record
	Delete(ctx context.Context, id string) error

	// ListByBooking retrieves all payments for a booking, oldest first
	ListByBooking(ctx context.Context, bookingID int64) ([]*domain.Payment, error)
}
