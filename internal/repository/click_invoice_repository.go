package repository

import (
	"context"

	"github.com/khiva-labs/hotelier/internal/domain"
)

// ClickInvoiceRepository is the persisted registry of Click prepare records.
// PrepareID is issued by the store on insert and is monotonically increasing.
type ClickInvoiceRepository interface {
	// Create inserts a new invoice and assigns its PrepareID
	Create(ctx context.Context, invoice *domain.ClickInvoice) error

	// GetByPrepareID retrieves an invoice by the locally issued prepare ID
	GetByPrepareID(ctx context.Context, prepareID int64) (*domain.ClickInvoice, error)

	// MarkCompleted flags the invoice as completed and records the resulting
	// payment ID. Compare-and-set: fails with domain.ErrInvoiceNotFound when
	// the invoice is missing or already completed/cancelled.
	MarkCompleted(ctx context.Context, prepareID int64, paymentID string) (*domain.ClickInvoice, error)

	// MarkCancelled flags the invoice as cancelled
	MarkCancelled(ctx context.Context, prepareID int64) (*domain.ClickInvoice, error)
}
