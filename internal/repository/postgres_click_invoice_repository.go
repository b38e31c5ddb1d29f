package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/khiva-labs/hotelier/internal/domain"
	"github.com/khiva-labs/hotelier/pkg/database"
)

const clickColumns = `
	prepare_id, click_trans_id, booking_id, amount, completed, cancelled,
	payment_id, created_at, updated_at
`

// PostgresClickInvoiceRepository implements ClickInvoiceRepository using
// PostgreSQL. prepare_id is a BIGSERIAL, which gives the locally issued,
// monotonically increasing prepare IDs the protocol requires.
type PostgresClickInvoiceRepository struct {
	db *database.PostgresDB
}

// NewPostgresClickInvoiceRepository creates a new repository
func NewPostgresClickInvoiceRepository(db *database.PostgresDB) *PostgresClickInvoiceRepository {
	return &PostgresClickInvoiceRepository{db: db}
}

// Create inserts a new invoice and assigns its PrepareID
func (r *PostgresClickInvoiceRepository) Create(ctx context.Context, invoice *domain.ClickInvoice) error {
	query := `
		INSERT INTO click_invoices (
			click_trans_id, booking_id, amount, completed, cancelled,
			payment_id, created_at, updated_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		RETURNING prepare_id`

	err := r.db.Pool().QueryRow(ctx, query,
		invoice.ClickTransID,
		invoice.BookingID,
		invoice.Amount,
		invoice.Completed,
		invoice.Cancelled,
		nullIfEmpty(invoice.PaymentID),
		invoice.CreatedAt,
		invoice.UpdatedAt,
	).Scan(&invoice.PrepareID)
	if err != nil {
		return fmt.Errorf("failed to create click invoice: %w", err)
	}
	return nil
}

// GetByPrepareID retrieves an invoice by the locally issued prepare ID
func (r *PostgresClickInvoiceRepository) GetByPrepareID(ctx context.Context, prepareID int64) (*domain.ClickInvoice, error) {
	query := `SELECT ` + clickColumns + ` FROM click_invoices WHERE prepare_id = $1`
	return scanClickInvoice(r.db.Pool().QueryRow(ctx, query, prepareID))
}

// MarkCompleted flags the invoice as completed with a compare-and-set
func (r *PostgresClickInvoiceRepository) MarkCompleted(ctx context.Context, prepareID int64, paymentID string) (*domain.ClickInvoice, error) {
	query := `
		UPDATE click_invoices
		SET completed = true, payment_id = $2, updated_at = now()
		WHERE prepare_id = $1 AND completed = false AND cancelled = false
		RETURNING ` + clickColumns

	return scanClickInvoice(r.db.Pool().QueryRow(ctx, query, prepareID, paymentID))
}

// MarkCancelled flags the invoice as cancelled
func (r *PostgresClickInvoiceRepository) MarkCancelled(ctx context.Context, prepareID int64) (*domain.ClickInvoice, error) {
	query := `
		UPDATE click_invoices
		SET cancelled = true, updated_at = now()
		WHERE prepare_id = $1 AND completed = false
		RETURNING ` + clickColumns

	return scanClickInvoice(r.db.Pool().QueryRow(ctx, query, prepareID))
}

// scanClickInvoice scans a single invoice from a row
func scanClickInvoice(row pgx.Row) (*domain.ClickInvoice, error) {
	var invoice domain.ClickInvoice
	var paymentID *string

	err := row.Scan(
		&invoice.PrepareID,
		&invoice.ClickTransID,
		&invoice.BookingID,
		&invoice.Amount,
		&invoice.Completed,
		&invoice.Cancelled,
		&paymentID,
		&invoice.CreatedAt,
		&invoice.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrInvoiceNotFound
		}
		return nil, fmt.Errorf("failed to scan click invoice: %w", err)
	}

	if paymentID != nil {
		invoice.PaymentID = *paymentID
	}
	return &invoice, nil
}
