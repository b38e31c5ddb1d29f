package service

import (
	"context"
	"errors"

	"github.com/khiva-labs/hotelier/internal/domain"
	"github.com/khiva-labs/hotelier/internal/ledger"
	"github.com/khiva-labs/hotelier/internal/repository"
	"go.uber.org/zap"
)

// PaymentService is the staff-facing surface over the ledger. Unlike the
// webhook adapters, its callers can render user-facing messages, so business
// refusals come back as rich domain errors including the remaining balance.
type PaymentService struct {
	ledger   *ledger.Ledger
	payments repository.PaymentRepository
	bookings repository.BookingRepository
	logger   *zap.Logger
}

// NewPaymentService creates a new payment service
func NewPaymentService(
	l *ledger.Ledger,
	payments repository.PaymentRepository,
	bookings repository.BookingRepository,
	logger *zap.Logger,
) *PaymentService {
	return &PaymentService{
		ledger:   l,
		payments: payments,
		bookings: bookings,
		logger:   logger,
	}
}

// CreatePaymentInput describes a manual payment entered by staff
type CreatePaymentInput struct {
	BookingID int64
	Amount    int64
	Method    domain.PaymentMethod
	Reference string
	UserID    string
}

// CreatePayment records a manual payment against a booking
func (s *PaymentService) CreatePayment(ctx context.Context, input CreatePaymentInput) (*domain.Payment, error) {
	result, err := s.ledger.Capture(ctx, ledger.CaptureInput{
		BookingID: input.BookingID,
		Amount:    input.Amount,
		Method:    input.Method,
		Reference: input.Reference,
		Actor:     domain.UserActor(input.UserID),
	})
	if err != nil {
		return nil, err
	}
	if !result.Accepted() {
		return nil, rejectionError(result)
	}
	return result.Payment, nil
}

// RemovePayment deletes a payment and reverses its amount
func (s *PaymentService) RemovePayment(ctx context.Context, paymentID, userID string) (*domain.Payment, error) {
	return s.ledger.Remove(ctx, paymentID, domain.UserActor(userID))
}

// ListPayments returns all payments for a booking, oldest first
func (s *PaymentService) ListPayments(ctx context.Context, bookingID int64) ([]*domain.Payment, error) {
	if _, err := s.bookings.FindByID(ctx, bookingID); err != nil {
		return nil, err
	}
	return s.payments.ListByBooking(ctx, bookingID)
}

// GetBookingBalance returns the booking with its current paid/remaining state
func (s *PaymentService) GetBookingBalance(ctx context.Context, bookingID int64) (*domain.Booking, error) {
	return s.bookings.FindByID(ctx, bookingID)
}

// rejectionError maps a ledger rejection back to the domain error vocabulary
func rejectionError(result *ledger.CaptureResult) error {
	switch result.Reason {
	case ledger.RejectBookingNotFound:
		return domain.ErrBookingNotFound
	case ledger.RejectBookingClosed:
		return domain.ErrBookingClosed
	case ledger.RejectOverpayment:
		return &domain.OverpaymentError{Remaining: result.Remaining}
	case ledger.RejectInvalidInput:
		return domain.ErrInvalidAmount
	default:
		return errors.New("payment rejected")
	}
}
