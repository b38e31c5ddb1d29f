package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/khiva-labs/hotelier/internal/domain"
	"github.com/khiva-labs/hotelier/pkg/database"
)

const paymentColumns = `
	id, booking_id, amount, method, reference, paid_at,
	created_by_kind, created_by_user, created_at
`

// PostgresPaymentRepository implements PaymentRepository using PostgreSQL
type PostgresPaymentRepository struct {
	db *database.PostgresDB
}

// NewPostgresPaymentRepository creates a new PostgreSQL payment repository
func NewPostgresPaymentRepository(db *database.PostgresDB) *PostgresPaymentRepository {
	return &PostgresPaymentRepository{db: db}
}

// Insert creates a new payment record
func (r *PostgresPaymentRepository) Insert(ctx context.Context, payment *domain.Payment) error {
	query := `
		INSERT INTO payments (
			id, booking_id, amount, method, reference, paid_at,
			created_by_kind, created_by_user, created_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`

	var userID *string
	if payment.CreatedBy.UserID != "" {
		u := payment.CreatedBy.UserID
		userID = &u
	}

	_, err := r.db.Pool().Exec(ctx, query,
		payment.ID,
		payment.BookingID,
		payment.Amount,
		string(payment.Method),
		payment.Reference,
		payment.PaidAt,
		string(payment.CreatedBy.Kind),
		userID,
		payment.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to insert payment: %w", err)
	}
	return nil
}

// GetByID retrieves a payment by its ID
func (r *PostgresPaymentRepository) GetByID(ctx context.Context, id string) (*domain.Payment, error) {
	query := `SELECT ` + paymentColumns + ` FROM payments WHERE id = $1`
	return scanPayment(r.db.Pool().QueryRow(ctx, query, id))
}

// Delete removes a payment record
func (r *PostgresPaymentRepository) Delete(ctx context.Context, id string) error {
	result, err := r.db.Pool().Exec(ctx, `DELETE FROM payments WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("failed to delete payment: %w", err)
	}
	if result.RowsAffected() == 0 {
		return domain.ErrPaymentNotFound
	}
	return nil
}

// ListByBooking retrieves all payments for a booking, oldest first
func (r *PostgresPaymentRepository) ListByBooking(ctx context.Context, bookingID int64) ([]*domain.Payment, error) {
	query := `SELECT ` + paymentColumns + ` FROM payments WHERE booking_id = $1 ORDER BY paid_at`

	rows, err := r.db.Pool().Query(ctx, query, bookingID)
	if err != nil {
		return nil, fmt.Errorf("failed to query payments: %w", err)
	}
	defer rows.Close()

	var payments []*domain.Payment
	for rows.Next() {
		payment, err := scanPayment(rows)
		if err != nil {
			return nil, err
		}
		payments = append(payments, payment)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate payments: %w", err)
	}

	return payments, nil
}

// scanPayment scans a single payment from a row
func scanPayment(row pgx.Row) (*domain.Payment, error) {
	var payment domain.Payment
	var method, kind string
	var userID *string

	err := row.Scan(
		&payment.ID,
		&payment.BookingID,
		&payment.Amount,
		&method,
		&payment.Reference,
		&payment.PaidAt,
		&kind,
		&userID,
		&payment.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrPaymentNotFound
		}
		return nil, fmt.Errorf("failed to scan payment: %w", err)
	}

	payment.Method = domain.PaymentMethod(method)
	payment.CreatedBy.Kind = domain.ActorKind(kind)
	if userID != nil {
		payment.CreatedBy.UserID = *userID
	}
	return &payment, nil
}
