package repository

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/khiva-labs/hotelier/internal/domain"
)

// MemoryPaymeTransactionRepository implements PaymeTransactionRepository
// using in-memory storage. Useful for testing and development.
type MemoryPaymeTransactionRepository struct {
	transactions map[string]*domain.PaymeTransaction
	mu           sync.RWMutex
}

// NewMemoryPaymeTransactionRepository creates a new in-memory repository
func NewMemoryPaymeTransactionRepository() *MemoryPaymeTransactionRepository {
	return &MemoryPaymeTransactionRepository{
		transactions: make(map[string]*domain.PaymeTransaction),
	}
}

// Create inserts a new transaction in state 1
func (r *MemoryPaymeTransactionRepository) Create(ctx context.Context, tx *domain.PaymeTransaction) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.transactions[tx.ID]; exists {
		return domain.ErrTransactionAlreadyExists
	}

	t := *tx
	r.transactions[tx.ID] = &t
	return nil
}

// GetByID retrieves a transaction by the gateway-issued ID
func (r *MemoryPaymeTransactionRepository) GetByID(ctx context.Context, id string) (*domain.PaymeTransaction, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	tx, exists := r.transactions[id]
	if !exists {
		return nil, domain.ErrTransactionNotFound
	}

	t := *tx
	return &t, nil
}

// MarkPerformed transitions state 1 -> 2 with a compare-and-set
func (r *MemoryPaymeTransactionRepository) MarkPerformed(ctx context.Context, id string, performTime int64, paymentID string) (*domain.PaymeTransaction, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	tx, exists := r.transactions[id]
	if !exists || tx.State != domain.PaymeStateCreated {
		return nil, domain.ErrTransactionNotFound
	}

	tx.State = domain.PaymeStatePerformed
	tx.PerformTime = performTime
	tx.PaymentID = paymentID
	tx.UpdatedAt = time.Now().UTC()

	t := *tx
	return &t, nil
}

// MarkCancelled transitions to a cancellation state recording the reason
func (r *MemoryPaymeTransactionRepository) MarkCancelled(ctx context.Context, id string, state domain.PaymeState, reason int, cancelTime int64) (*domain.PaymeTransaction, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	fromState := domain.PaymeStateCreated
	if state == domain.PaymeStateCancelledAfterPerform {
		fromState = domain.PaymeStatePerformed
	}

	tx, exists := r.transactions[id]
	if !exists || tx.State != fromState {
		return nil, domain.ErrTransactionNotFound
	}

	tx.State = state
	tx.Reason = &reason
	tx.CancelTime = cancelTime
	tx.UpdatedAt = time.Now().UTC()

	t := *tx
	return &t, nil
}

// ListByCreateTime returns transactions with create_time in [from, to]
func (r *MemoryPaymeTransactionRepository) ListByCreateTime(ctx context.Context, from, to int64) ([]*domain.PaymeTransaction, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var txs []*domain.PaymeTransaction
	for _, tx := range r.transactions {
		if tx.CreateTime >= from && tx.CreateTime <= to {
			t := *tx
			txs = append(txs, &t)
		}
	}

	sort.Slice(txs, func(i, j int) bool {
		return txs[i].CreateTime < txs[j].CreateTime
	})
	return txs, nil
}
