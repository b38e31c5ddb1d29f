package ledger

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/khiva-labs/hotelier/internal/domain"
	"github.com/khiva-labs/hotelier/internal/metrics"
	"github.com/khiva-labs/hotelier/internal/repository"
	"go.uber.org/zap"
)

// EventPublisher publishes payment domain events. The Kafka implementation
// lives in internal/service; NoOpPublisher is used when Kafka is disabled.
type EventPublisher interface {
	Publish(ctx context.Context, event *domain.PaymentEvent) error
}

// NoOpPublisher discards events
type NoOpPublisher struct{}

func (NoOpPublisher) Publish(ctx context.Context, event *domain.PaymentEvent) error {
	return nil
}

// CaptureInput describes a payment to be recorded against a booking
type CaptureInput struct {
	BookingID int64
	Amount    int64
	Method    domain.PaymentMethod
	Reference string
	Actor     domain.Actor
}

// Ledger is the single writer of booking balances. Every payment, whether
// recorded by staff or by a gateway webhook, goes through Capture, and every
// removal through Remove, so the invariant paid_amount = sum of payments
// holds at all times and paid_amount never exceeds total_amount.
type Ledger struct {
	bookings  repository.BookingRepository
	payments  repository.PaymentRepository
	publisher EventPublisher
	metrics   *metrics.Metrics
	logger    *zap.Logger
}

// New creates a new ledger
func New(
	bookings repository.BookingRepository,
	payments repository.PaymentRepository,
	publisher EventPublisher,
	logger *zap.Logger,
) *Ledger {
	if publisher == nil {
		publisher = NoOpPublisher{}
	}
	return &Ledger{
		bookings:  bookings,
		payments:  payments,
		publisher: publisher,
		logger:    logger,
	}
}

// SetMetrics attaches capture/removal instruments
func (l *Ledger) SetMetrics(m *metrics.Metrics) {
	l.metrics = m
}

// Capture validates and records a payment. The booking's paid_amount is
// incremented first with a guarded update, so two concurrent captures can
// never push the balance past total_amount; only after the increment commits
// is the payment row inserted. Business refusals come back as a rejected
// CaptureResult, infrastructure failures as an error.
func (l *Ledger) Capture(ctx context.Context, input CaptureInput) (*CaptureResult, error) {
	payment, err := domain.NewPayment(input.BookingID, input.Amount, input.Method, input.Reference, input.Actor)
	if err != nil {
		if domain.IsValidationError(err) {
			return rejected(RejectInvalidInput), nil
		}
		return nil, err
	}

	booking, err := l.bookings.ApplyPaymentDelta(ctx, input.BookingID, input.Amount)
	if err != nil {
		if errors.Is(err, domain.ErrBookingNotFound) {
			return rejected(RejectBookingNotFound), nil
		}
		if errors.Is(err, domain.ErrBookingClosed) {
			return rejected(RejectBookingClosed), nil
		}
		var overErr *domain.OverpaymentError
		if errors.As(err, &overErr) {
			result := rejected(RejectOverpayment)
			result.Remaining = overErr.Remaining
			return result, nil
		}
		return nil, fmt.Errorf("failed to apply payment delta: %w", err)
	}

	if err := l.payments.Insert(ctx, payment); err != nil {
		// Roll the increment back so the balance stays equal to the sum
		// of recorded payments.
		if _, revErr := l.bookings.ApplyPaymentDelta(ctx, input.BookingID, -input.Amount); revErr != nil {
			l.logger.Error("failed to revert payment delta after insert failure",
				zap.Int64("booking_id", input.BookingID),
				zap.Int64("amount", input.Amount),
				zap.Error(revErr))
		}
		return nil, fmt.Errorf("failed to insert payment: %w", err)
	}

	l.publish(ctx, domain.PaymentEventCreated, payment, booking)
	l.metrics.PaymentCaptured(ctx, string(payment.Method), payment.Amount)

	l.logger.Info("payment captured",
		zap.String("payment_id", payment.ID),
		zap.Int64("booking_id", booking.ID),
		zap.Int64("amount", payment.Amount),
		zap.String("method", string(payment.Method)),
		zap.String("actor_kind", string(payment.CreatedBy.Kind)))

	return &CaptureResult{Payment: payment, Booking: booking}, nil
}

// Remove deletes a payment and reverses its amount from the booking's paid
// total. The reversal is clamped at zero, so removing a payment recorded
// before an out-of-band balance correction cannot drive paid_amount negative.
func (l *Ledger) Remove(ctx context.Context, paymentID string, actor domain.Actor) (*domain.Payment, error) {
	payment, err := l.payments.GetByID(ctx, paymentID)
	if err != nil {
		return nil, err
	}

	if err := l.payments.Delete(ctx, paymentID); err != nil {
		return nil, err
	}

	booking, err := l.bookings.ApplyPaymentDelta(ctx, payment.BookingID, -payment.Amount)
	if err != nil {
		// The payment row is already gone; log loudly rather than leave
		// the caller guessing which side committed.
		l.logger.Error("failed to reverse booking balance after payment removal",
			zap.String("payment_id", paymentID),
			zap.Int64("booking_id", payment.BookingID),
			zap.Error(err))
		return nil, fmt.Errorf("failed to reverse booking balance: %w", err)
	}

	event := l.buildEvent(domain.PaymentEventRemoved, payment, booking)
	event.ActorKind = actor.Kind
	event.ActorUserID = actor.UserID
	l.publishEvent(ctx, event)
	l.metrics.PaymentRemoved(ctx)

	l.logger.Info("payment removed",
		zap.String("payment_id", paymentID),
		zap.Int64("booking_id", payment.BookingID),
		zap.Int64("amount", payment.Amount),
		zap.String("actor_kind", string(actor.Kind)))

	return payment, nil
}

// RequestReversal publishes a reversal-required event for a payment whose
// upstream transaction was cancelled after capture. The ledger itself does
// not mutate the balance; back office handles the refund.
func (l *Ledger) RequestReversal(ctx context.Context, payment *domain.Payment) {
	booking, err := l.bookings.FindByID(ctx, payment.BookingID)
	if err != nil {
		l.logger.Error("failed to load booking for reversal event",
			zap.String("payment_id", payment.ID),
			zap.Int64("booking_id", payment.BookingID),
			zap.Error(err))
		return
	}

	l.publish(ctx, domain.PaymentEventReversalRequired, payment, booking)

	l.logger.Warn("payment reversal required",
		zap.String("payment_id", payment.ID),
		zap.Int64("booking_id", payment.BookingID),
		zap.Int64("amount", payment.Amount))
}

func (l *Ledger) publish(ctx context.Context, eventType domain.PaymentEventType, payment *domain.Payment, booking *domain.Booking) {
	l.publishEvent(ctx, l.buildEvent(eventType, payment, booking))
}

func (l *Ledger) publishEvent(ctx context.Context, event *domain.PaymentEvent) {
	if err := l.publisher.Publish(ctx, event); err != nil {
		// Event delivery is best effort; the ledger state is already
		// committed.
		l.logger.Error("failed to publish payment event",
			zap.String("event_type", string(event.EventType)),
			zap.String("payment_id", event.PaymentID),
			zap.Error(err))
	}
}

func (l *Ledger) buildEvent(eventType domain.PaymentEventType, payment *domain.Payment, booking *domain.Booking) *domain.PaymentEvent {
	return &domain.PaymentEvent{
		EventID:     uuid.New().String(),
		EventType:   eventType,
		OccurredAt:  time.Now().UTC(),
		PaymentID:   payment.ID,
		BookingID:   payment.BookingID,
		PropertyID:  booking.PropertyID,
		Amount:      payment.Amount,
		Method:      payment.Method,
		Reference:   payment.Reference,
		PaidAmount:  booking.PaidAmount,
		TotalAmount: booking.TotalAmount,
		ActorKind:   payment.CreatedBy.Kind,
		ActorUserID: payment.CreatedBy.UserID,
	}
}
