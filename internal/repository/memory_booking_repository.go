package repository

import (
	"context"
	"sync"
	"time"

	"github.com/khiva-labs/hotelier/internal/domain"
)

// MemoryBookingRepository implements BookingRepository using in-memory
// storage. Useful for testing and development.
type MemoryBookingRepository struct {
	bookings map[int64]*domain.Booking
	mu       sync.RWMutex
}

// NewMemoryBookingRepository creates a new in-memory booking repository
func NewMemoryBookingRepository() *MemoryBookingRepository {
	return &MemoryBookingRepository{
		bookings: make(map[int64]*domain.Booking),
	}
}

// Create creates a new booking record
func (r *MemoryBookingRepository) Create(ctx context.Context, booking *domain.Booking) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	b := *booking
	r.bookings[booking.ID] = &b
	return nil
}

// FindByID retrieves a booking by its ID
func (r *MemoryBookingRepository) FindByID(ctx context.Context, id int64) (*domain.Booking, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	booking, exists := r.bookings[id]
	if !exists {
		return nil, domain.ErrBookingNotFound
	}

	b := *booking
	return &b, nil
}

// ApplyPaymentDelta atomically adjusts paid_amount under the repository mutex
func (r *MemoryBookingRepository) ApplyPaymentDelta(ctx context.Context, id int64, delta int64) (*domain.Booking, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	booking, exists := r.bookings[id]
	if !exists {
		return nil, domain.ErrBookingNotFound
	}

	if delta >= 0 {
		if !booking.AcceptsPayments() {
			return nil, domain.ErrBookingClosed
		}
		if booking.PaidAmount+delta > booking.TotalAmount {
			return nil, &domain.OverpaymentError{Remaining: booking.Remaining()}
		}
		booking.PaidAmount += delta
	} else {
		booking.PaidAmount += delta
		if booking.PaidAmount < 0 {
			booking.PaidAmount = 0
		}
	}
	booking.UpdatedAt = time.Now().UTC()

	b := *booking
	return &b, nil
}
