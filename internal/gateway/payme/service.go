package payme

import (
	"context"
	"errors"
	"strconv"
	"time"

	"github.com/khiva-labs/hotelier/internal/domain"
	"github.com/khiva-labs/hotelier/internal/ledger"
	"github.com/khiva-labs/hotelier/internal/repository"
	"go.uber.org/zap"
)

// Service implements the gateway's JSON-RPC methods over the transaction
// registry and the payment ledger. Transactions are never deleted; every
// state they pass through stays queryable by CheckTransaction and
// GetStatement.
type Service struct {
	transactions repository.PaymeTransactionRepository
	bookings     repository.BookingRepository
	payments     repository.PaymentRepository
	ledger       *ledger.Ledger
	locker       ledger.Locker
	accountField string
	logger       *zap.Logger
}

// NewService creates a new gateway service. accountField names the account
// parameter that carries the booking ID.
func NewService(
	transactions repository.PaymeTransactionRepository,
	bookings repository.BookingRepository,
	payments repository.PaymentRepository,
	l *ledger.Ledger,
	locker ledger.Locker,
	accountField string,
	logger *zap.Logger,
) *Service {
	return &Service{
		transactions: transactions,
		bookings:     bookings,
		payments:     payments,
		ledger:       l,
		locker:       locker,
		accountField: accountField,
		logger:       logger,
	}
}

// CheckPerformTransaction validates that a payment of the given amount could
// be accepted for the account's booking. Pure read, creates nothing.
func (s *Service) CheckPerformTransaction(ctx context.Context, params Params) (any, *Error) {
	if _, gwErr := s.validateOrder(ctx, params); gwErr != nil {
		return nil, gwErr
	}
	return CheckPerformResult{Allow: true}, nil
}

// CreateTransaction registers a new transaction in state 1, or replays the
// stored result when the gateway retries with the same ID.
func (s *Service) CreateTransaction(ctx context.Context, params Params) (any, *Error) {
	existing, err := s.transactions.GetByID(ctx, params.ID)
	if err == nil {
		if existing.State != domain.PaymeStateCreated {
			return nil, errAlreadyProcessed
		}
		return CreateResult{
			CreateTime:  existing.CreateTime,
			Transaction: existing.ID,
			State:       existing.State,
		}, nil
	}
	if !errors.Is(err, domain.ErrTransactionNotFound) {
		s.logger.Error("failed to look up transaction", zap.String("transaction_id", params.ID), zap.Error(err))
		return nil, errUnableToPerform
	}

	bookingID, gwErr := s.validateOrder(ctx, params)
	if gwErr != nil {
		return nil, gwErr
	}

	now := time.Now().UTC()
	tx := &domain.PaymeTransaction{
		ID:         params.ID,
		BookingID:  bookingID,
		Amount:     params.Amount,
		State:      domain.PaymeStateCreated,
		CreateTime: params.Time,
		CreatedAt:  now,
		UpdatedAt:  now,
	}
	if err := s.transactions.Create(ctx, tx); err != nil {
		if errors.Is(err, domain.ErrTransactionAlreadyExists) {
			// Lost a race with a duplicate delivery; replay whatever won.
			return s.CreateTransaction(ctx, params)
		}
		s.logger.Error("failed to create transaction", zap.String("transaction_id", params.ID), zap.Error(err))
		return nil, errUnableToPerform
	}

	s.logger.Info("gateway transaction created",
		zap.String("transaction_id", tx.ID),
		zap.Int64("booking_id", tx.BookingID),
		zap.Int64("amount", tx.Amount))

	return CreateResult{
		CreateTime:  tx.CreateTime,
		Transaction: tx.ID,
		State:       tx.State,
	}, nil
}

// PerformTransaction captures the payment for a transaction in state 1.
// Retries of an already-performed transaction replay the stored perform_time
// without touching the ledger, and concurrent calls for the same ID are
// serialized under a per-transaction lock so the capture happens exactly once.
func (s *Service) PerformTransaction(ctx context.Context, params Params) (any, *Error) {
	var result PerformResult
	var gwErr *Error

	err := s.locker.WithLock(ctx, "payme:"+params.ID, func(ctx context.Context) error {
		result, gwErr = s.performLocked(ctx, params.ID)
		return nil
	})
	if err != nil {
		s.logger.Error("failed to acquire transaction lock", zap.String("transaction_id", params.ID), zap.Error(err))
		return nil, errUnableToPerform
	}
	if gwErr != nil {
		return nil, gwErr
	}
	return result, nil
}

func (s *Service) performLocked(ctx context.Context, id string) (PerformResult, *Error) {
	tx, err := s.transactions.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, domain.ErrTransactionNotFound) {
			return PerformResult{}, errTransactionMissing
		}
		s.logger.Error("failed to look up transaction", zap.String("transaction_id", id), zap.Error(err))
		return PerformResult{}, errUnableToPerform
	}

	switch tx.State {
	case domain.PaymeStatePerformed:
		return PerformResult{
			PerformTime: tx.PerformTime,
			Transaction: tx.ID,
			State:       tx.State,
		}, nil
	case domain.PaymeStateCreated:
	default:
		return PerformResult{}, errUnableToPerform
	}

	captured, err := s.ledger.Capture(ctx, ledger.CaptureInput{
		BookingID: tx.BookingID,
		Amount:    tx.Amount,
		Method:    domain.PaymentMethodPayme,
		Reference: tx.ID,
		Actor:     domain.SystemActor(),
	})
	if err != nil {
		s.logger.Error("failed to capture payment", zap.String("transaction_id", id), zap.Error(err))
		return PerformResult{}, errUnableToPerform
	}
	if !captured.Accepted() {
		return PerformResult{}, errUnableToPerform
	}

	performTime := time.Now().UTC().UnixMilli()
	updated, err := s.transactions.MarkPerformed(ctx, tx.ID, performTime, captured.Payment.ID)
	if err != nil {
		// The money is captured but the transition failed; surface a
		// retryable error so the gateway comes back, the replay path
		// will then see state 2 once the row settles.
		s.logger.Error("failed to mark transaction performed",
			zap.String("transaction_id", id),
			zap.String("payment_id", captured.Payment.ID),
			zap.Error(err))
		return PerformResult{}, errUnableToPerform
	}

	s.logger.Info("gateway transaction performed",
		zap.String("transaction_id", updated.ID),
		zap.Int64("booking_id", updated.BookingID),
		zap.String("payment_id", captured.Payment.ID))

	return PerformResult{
		PerformTime: updated.PerformTime,
		Transaction: updated.ID,
		State:       updated.State,
	}, nil
}

// CancelTransaction moves a transaction to a cancellation state. Cancelling
// after perform does not move money back; it flags the captured payment for
// manual reversal.
func (s *Service) CancelTransaction(ctx context.Context, params Params) (any, *Error) {
	var result CancelResult
	var gwErr *Error

	err := s.locker.WithLock(ctx, "payme:"+params.ID, func(ctx context.Context) error {
		result, gwErr = s.cancelLocked(ctx, params)
		return nil
	})
	if err != nil {
		s.logger.Error("failed to acquire transaction lock", zap.String("transaction_id", params.ID), zap.Error(err))
		return nil, errUnableToPerform
	}
	if gwErr != nil {
		return nil, gwErr
	}
	return result, nil
}

func (s *Service) cancelLocked(ctx context.Context, params Params) (CancelResult, *Error) {
	tx, err := s.transactions.GetByID(ctx, params.ID)
	if err != nil {
		if errors.Is(err, domain.ErrTransactionNotFound) {
			return CancelResult{}, errTransactionMissing
		}
		s.logger.Error("failed to look up transaction", zap.String("transaction_id", params.ID), zap.Error(err))
		return CancelResult{}, errUnableToPerform
	}

	if tx.State.IsCancelled() {
		return CancelResult{
			CancelTime:  tx.CancelTime,
			Transaction: tx.ID,
			State:       tx.State,
		}, nil
	}

	target := domain.PaymeStateCancelled
	if tx.State == domain.PaymeStatePerformed {
		target = domain.PaymeStateCancelledAfterPerform
	}

	reason := 0
	if params.Reason != nil {
		reason = *params.Reason
	}
	cancelTime := time.Now().UTC().UnixMilli()

	updated, err := s.transactions.MarkCancelled(ctx, tx.ID, target, reason, cancelTime)
	if err != nil {
		s.logger.Error("failed to mark transaction cancelled", zap.String("transaction_id", params.ID), zap.Error(err))
		return CancelResult{}, errUnableToPerform
	}

	if target == domain.PaymeStateCancelledAfterPerform {
		s.flagReversal(ctx, updated)
	}

	s.logger.Info("gateway transaction cancelled",
		zap.String("transaction_id", updated.ID),
		zap.Int("state", int(updated.State)),
		zap.Int("reason", reason))

	return CancelResult{
		CancelTime:  updated.CancelTime,
		Transaction: updated.ID,
		State:       updated.State,
	}, nil
}

// flagReversal surfaces a post-capture cancellation. The captured payment
// stays on the booking; back office decides how the refund moves.
func (s *Service) flagReversal(ctx context.Context, tx *domain.PaymeTransaction) {
	if tx.PaymentID == "" {
		s.logger.Warn("cancelled performed transaction has no payment reference",
			zap.String("transaction_id", tx.ID))
		return
	}
	payment, err := s.payments.GetByID(ctx, tx.PaymentID)
	if err != nil {
		s.logger.Error("failed to load payment for reversal flag",
			zap.String("transaction_id", tx.ID),
			zap.String("payment_id", tx.PaymentID),
			zap.Error(err))
		return
	}
	s.ledger.RequestReversal(ctx, payment)
}

// CheckTransaction returns the full stored record for a transaction
func (s *Service) CheckTransaction(ctx context.Context, params Params) (any, *Error) {
	tx, err := s.transactions.GetByID(ctx, params.ID)
	if err != nil {
		if errors.Is(err, domain.ErrTransactionNotFound) {
			return nil, errTransactionMissing
		}
		s.logger.Error("failed to look up transaction", zap.String("transaction_id", params.ID), zap.Error(err))
		return nil, errUnableToPerform
	}

	return CheckResult{
		CreateTime:  tx.CreateTime,
		PerformTime: tx.PerformTime,
		CancelTime:  tx.CancelTime,
		Transaction: tx.ID,
		State:       tx.State,
		Reason:      tx.Reason,
	}, nil
}

// GetStatement returns all transactions created in [from, to]
func (s *Service) GetStatement(ctx context.Context, params Params) (any, *Error) {
	txs, err := s.transactions.ListByCreateTime(ctx, params.From, params.To)
	if err != nil {
		s.logger.Error("failed to list transactions", zap.Error(err))
		return nil, errUnableToPerform
	}

	entries := make([]StatementEntry, 0, len(txs))
	for _, tx := range txs {
		entries = append(entries, StatementEntry{
			ID:          tx.ID,
			Time:        tx.CreateTime,
			Amount:      tx.Amount,
			Account:     map[string]string{s.accountField: strconv.FormatInt(tx.BookingID, 10)},
			CreateTime:  tx.CreateTime,
			PerformTime: tx.PerformTime,
			CancelTime:  tx.CancelTime,
			Transaction: tx.ID,
			State:       tx.State,
			Reason:      tx.Reason,
		})
	}
	return StatementResult{Transactions: entries}, nil
}

// validateOrder runs the shared booking checks for CheckPerformTransaction
// and CreateTransaction and returns the resolved booking ID.
func (s *Service) validateOrder(ctx context.Context, params Params) (int64, *Error) {
	bookingID, ok := params.BookingID(s.accountField)
	if !ok {
		return 0, errOrderNotFound
	}

	booking, err := s.bookings.FindByID(ctx, bookingID)
	if err != nil {
		if errors.Is(err, domain.ErrBookingNotFound) {
			return 0, errOrderNotFound
		}
		s.logger.Error("failed to look up booking", zap.Int64("booking_id", bookingID), zap.Error(err))
		return 0, errUnableToPerform
	}

	if !booking.AcceptsPayments() {
		return 0, errOrderCancelled
	}
	if booking.IsFullyPaid() {
		return 0, errOrderAlreadyPaid
	}
	if params.Amount <= 0 || params.Amount > booking.Remaining() {
		return 0, errInvalidAmount
	}
	return bookingID, nil
}
