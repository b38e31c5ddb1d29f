package repository

import (
	"context"

	"github.com/khiva-labs/hotelier/internal/domain"
)

// BookingRepository defines the booking data access consumed by the payment
// core. Bookings are owned by the reservations module; this package only
// reads them and adjusts their paid total.
type BookingRepository interface {
	// Create creates a new booking record
	Create(ctx context.Context, booking *domain.Booking) error

	// FindByID retrieves a booking by its ID
	FindByID(ctx context.Context, id int64) (*domain.Booking, error)

	// ApplyPaymentDelta atomically adjusts the booking's paid_amount and
	// returns the updated booking. A positive delta is guarded: it fails with
	// domain.ErrBookingClosed when the booking no longer accepts payments and
	// with domain.ErrBalanceExceeded when it would push paid_amount past
	// total_amount. A negative delta is clamped so paid_amount never goes
	// below zero. The check and the write are a single atomic operation with
	// respect to concurrent callers.
	ApplyPaymentDelta(ctx context.Context, id int64, delta int64) (*domain.Booking, error)
}
