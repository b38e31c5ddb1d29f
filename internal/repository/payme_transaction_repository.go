package repository

import (
	"context"

	"github.com/khiva-labs/hotelier/internal/domain"
)

// PaymeTransactionRepository is the persisted registry of Payme gateway
// transactions, keyed by the gateway-issued transaction ID. Entries are never
// deleted; CheckTransaction and GetStatement read them for the life of the
// record.
type PaymeTransactionRepository interface {
	// Create inserts a new transaction in state 1. Returns
	// domain.ErrTransactionAlreadyExists when the gateway ID is already
	// registered.
	Create(ctx context.Context, tx *domain.PaymeTransaction) error

	// GetByID retrieves a transaction by the gateway-issued ID
	GetByID(ctx context.Context, id string) (*domain.PaymeTransaction, error)

	// MarkPerformed transitions the transaction from state 1 to state 2.
	// The transition is a compare-and-set: it fails with
	// domain.ErrTransactionNotFound when the transaction is missing or no
	// longer in state 1.
	MarkPerformed(ctx context.Context, id string, performTime int64, paymentID string) (*domain.PaymeTransaction, error)

	// MarkCancelled transitions the transaction to a cancellation state
	// (-1 from state 1, -2 from state 2) recording the reason code.
	MarkCancelled(ctx context.Context, id string, state domain.PaymeState, reason int, cancelTime int64) (*domain.PaymeTransaction, error)

	// ListByCreateTime returns transactions whose create_time falls in
	// [from, to], ordered by create_time.
	ListByCreateTime(ctx context.Context, from, to int64) ([]*domain.PaymeTransaction, error)
}
