package repository

import (
	"context"
	"sync"
	"time"

	"github.com/khiva-labs/hotelier/internal/domain"
)

// MemoryClickInvoiceRepository implements ClickInvoiceRepository using
// in-memory storage. Useful for testing and development.
type MemoryClickInvoiceRepository struct {
	invoices map[int64]*domain.ClickInvoice
	nextID   int64
	mu       sync.RWMutex
}

// NewMemoryClickInvoiceRepository creates a new in-memory repository
func NewMemoryClickInvoiceRepository() *MemoryClickInvoiceRepository {
	return &MemoryClickInvoiceRepository{
		invoices: make(map[int64]*domain.ClickInvoice),
	}
}

// Create inserts a new invoice and assigns its PrepareID
func (r *MemoryClickInvoiceRepository) Create(ctx context.Context, invoice *domain.ClickInvoice) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.nextID++
	invoice.PrepareID = r.nextID

	inv := *invoice
	r.invoices[invoice.PrepareID] = &inv
	return nil
}

// GetByPrepareID retrieves an invoice by the locally issued prepare ID
func (r *MemoryClickInvoiceRepository) GetByPrepareID(ctx context.Context, prepareID int64) (*domain.ClickInvoice, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	invoice, exists := r.invoices[prepareID]
	if !exists {
		return nil, domain.ErrInvoiceNotFound
	}

	inv := *invoice
	return &inv, nil
}

// MarkCompleted flags the invoice as completed with a compare-and-set
func (r *MemoryClickInvoiceRepository) MarkCompleted(ctx context.Context, prepareID int64, paymentID string) (*domain.ClickInvoice, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	invoice, exists := r.invoices[prepareID]
	if !exists || invoice.Completed || invoice.Cancelled {
		return nil, domain.ErrInvoiceNotFound
	}

	invoice.Completed = true
	invoice.PaymentID = paymentID
	invoice.UpdatedAt = time.Now().UTC()

	inv := *invoice
	return &inv, nil
}

// MarkCancelled flags the invoice as cancelled
func (r *MemoryClickInvoiceRepository) MarkCancelled(ctx context.Context, prepareID int64) (*domain.ClickInvoice, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	invoice, exists := r.invoices[prepareID]
	if !exists || invoice.Completed {
		return nil, domain.ErrInvoiceNotFound
	}

	invoice.Cancelled = true
	invoice.UpdatedAt = time.Now().UTC()

	inv := *invoice
	return &inv, nil
}
