package repository

import (
	"context"
	"sort"
	"sync"

	"github.com/khiva-labs/hotelier/internal/domain"
)

// MemoryPaymentRepository implements PaymentRepository using in-memory
// storage. Useful for testing and development.
type MemoryPaymentRepository struct {
	payments map[string]*domain.Payment
	mu       sync.RWMutex
}

// NewMemoryPaymentRepository creates a new in-memory payment repository
func NewMemoryPaymentRepository() *MemoryPaymentRepository {
	return &MemoryPaymentRepository{
		payments: make(map[string]*domain.Payment),
	}
}

// Insert creates a new payment record
func (r *MemoryPaymentRepository) Insert(ctx context.Context, payment *domain.Payment) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	p := *payment
	r.payments[payment.ID] = &p
	return nil
}

// GetByID retrieves a payment by its ID
func (r *MemoryPaymentRepository) GetByID(ctx context.Context, id string) (*domain.Payment, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	payment, exists := r.payments[id]
	if !exists {
		return nil, domain.ErrPaymentNotFound
	}

	p := *payment
	return &p, nil
}

// Delete removes a payment record
func (r *MemoryPaymentRepository) Delete(ctx context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.payments[id]; !exists {
		return domain.ErrPaymentNotFound
	}
	delete(r.payments, id)
	return nil
}

// ListByBooking retrieves all payments for a booking, oldest first
func (r *MemoryPaymentRepository) ListByBooking(ctx context.Context, bookingID int64) ([]*domain.Payment, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var payments []*domain.Payment
	for _, payment := range r.payments {
		if payment.BookingID == bookingID {
			p := *payment
			payments = append(payments, &p)
		}
	}

	sort.Slice(payments, func(i, j int) bool {
		return payments[i].PaidAt.Before(payments[j].PaidAt)
	})
	return payments, nil
}

// Count returns the number of stored payments
func (r *MemoryPaymentRepository) Count() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.payments)
}
