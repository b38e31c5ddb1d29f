package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/khiva-labs/hotelier/internal/domain"
	"github.com/khiva-labs/hotelier/pkg/database"
)

// PostgreSQL error code for unique violation
const pgUniqueViolationCode = "23505"

const paymeColumns = `
	id, booking_id, amount, state, create_time, perform_time, cancel_time,
	reason, payment_id, created_at, updated_at
`

// PostgresPaymeTransactionRepository implements PaymeTransactionRepository
// using PostgreSQL. The gateway-issued ID is the primary key, so replayed
// CreateTransaction deliveries fail on conflict instead of inserting twice.
type PostgresPaymeTransactionRepository struct {
	db *database.PostgresDB
}

// NewPostgresPaymeTransactionRepository creates a new repository
func NewPostgresPaymeTransactionRepository(db *database.PostgresDB) *PostgresPaymeTransactionRepository {
	return &PostgresPaymeTransactionRepository{db: db}
}

// Create inserts a new transaction in state 1
func (r *PostgresPaymeTransactionRepository) Create(ctx context.Context, tx *domain.PaymeTransaction) error {
	query := `
		INSERT INTO payme_transactions (
			id, booking_id, amount, state, create_time, perform_time,
			cancel_time, reason, payment_id, created_at, updated_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)`

	_, err := r.db.Pool().Exec(ctx, query,
		tx.ID,
		tx.BookingID,
		tx.Amount,
		int(tx.State),
		tx.CreateTime,
		tx.PerformTime,
		tx.CancelTime,
		tx.Reason,
		nullIfEmpty(tx.PaymentID),
		tx.CreatedAt,
		tx.UpdatedAt,
	)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == pgUniqueViolationCode {
			return domain.ErrTransactionAlreadyExists
		}
		return fmt.Errorf("failed to create payme transaction: %w", err)
	}
	return nil
}

// GetByID retrieves a transaction by the gateway-issued ID
func (r *PostgresPaymeTransactionRepository) GetByID(ctx context.Context, id string) (*domain.PaymeTransaction, error) {
	query := `SELECT ` + paymeColumns + ` FROM payme_transactions WHERE id = $1`
	return scanPaymeTransaction(r.db.Pool().QueryRow(ctx, query, id))
}

// MarkPerformed transitions state 1 -> 2 with a compare-and-set
func (r *PostgresPaymeTransactionRepository) MarkPerformed(ctx context.Context, id string, performTime int64, paymentID string) (*domain.PaymeTransaction, error) {
	query := `
		UPDATE payme_transactions
		SET state = $2, perform_time = $3, payment_id = $4, updated_at = now()
		WHERE id = $1 AND state = $5
		RETURNING ` + paymeColumns

	return scanPaymeTransaction(r.db.Pool().QueryRow(ctx, query,
		id,
		int(domain.PaymeStatePerformed),
		performTime,
		paymentID,
		int(domain.PaymeStateCreated),
	))
}

// MarkCancelled transitions to a cancellation state recording the reason
func (r *PostgresPaymeTransactionRepository) MarkCancelled(ctx context.Context, id string, state domain.PaymeState, reason int, cancelTime int64) (*domain.PaymeTransaction, error) {
	fromState := domain.PaymeStateCreated
	if state == domain.PaymeStateCancelledAfterPerform {
		fromState = domain.PaymeStatePerformed
	}

	query := `
		UPDATE payme_transactions
		SET state = $2, reason = $3, cancel_time = $4, updated_at = now()
		WHERE id = $1 AND state = $5
		RETURNING ` + paymeColumns

	return scanPaymeTransaction(r.db.Pool().QueryRow(ctx, query,
		id,
		int(state),
		reason,
		cancelTime,
		int(fromState),
	))
}

// ListByCreateTime returns transactions with create_time in [from, to]
func (r *PostgresPaymeTransactionRepository) ListByCreateTime(ctx context.Context, from, to int64) ([]*domain.PaymeTransaction, error) {
	query := `SELECT ` + paymeColumns + ` FROM payme_transactions
		WHERE create_time >= $1 AND create_time <= $2 ORDER BY create_time`

	rows, err := r.db.Pool().Query(ctx, query, from, to)
	if err != nil {
		return nil, fmt.Errorf("failed to query payme transactions: %w", err)
	}
	defer rows.Close()

	var txs []*domain.PaymeTransaction
	for rows.Next() {
		tx, err := scanPaymeTransaction(rows)
		if err != nil {
			return nil, err
		}
		txs = append(txs, tx)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate payme transactions: %w", err)
	}

	return txs, nil
}

// scanPaymeTransaction scans a single transaction from a row
func scanPaymeTransaction(row pgx.Row) (*domain.PaymeTransaction, error) {
	var tx domain.PaymeTransaction
	var state int
	var paymentID *string

	err := row.Scan(
		&tx.ID,
		&tx.BookingID,
		&tx.Amount,
		&state,
		&tx.CreateTime,
		&tx.PerformTime,
		&tx.CancelTime,
		&tx.Reason,
		&paymentID,
		&tx.CreatedAt,
		&tx.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrTransactionNotFound
		}
		return nil, fmt.Errorf("failed to scan payme transaction: %w", err)
	}

	tx.State = domain.PaymeState(state)
	if paymentID != nil {
		tx.PaymentID = *paymentID
	}
	return &tx, nil
}

// nullIfEmpty returns nil for an empty string, otherwise a pointer to it
func nullIfEmpty(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}
