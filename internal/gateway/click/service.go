package click

import (
	"context"
	"errors"
	"strconv"
	"time"

	"github.com/khiva-labs/hotelier/internal/domain"
	"github.com/khiva-labs/hotelier/internal/ledger"
	"github.com/khiva-labs/hotelier/internal/repository"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// minorUnitsPerMajor converts the gateway's major-unit decimal amounts to
// the minor-unit integers the ledger operates in.
var minorUnitsPerMajor = decimal.NewFromInt(100)

// Service implements the two-phase prepare/complete protocol. Every method
// returns a structured response, never an error: infrastructure failures map
// to the gateway's transaction-error code so the upstream retries.
type Service struct {
	invoices  repository.ClickInvoiceRepository
	bookings  repository.BookingRepository
	ledger    *ledger.Ledger
	locker    ledger.Locker
	serviceID string
	secretKey string
	logger    *zap.Logger
}

// NewService creates a new gateway service
func NewService(
	invoices repository.ClickInvoiceRepository,
	bookings repository.BookingRepository,
	l *ledger.Ledger,
	locker ledger.Locker,
	serviceID, secretKey string,
	logger *zap.Logger,
) *Service {
	return &Service{
		invoices:  invoices,
		bookings:  bookings,
		ledger:    l,
		locker:    locker,
		serviceID: serviceID,
		secretKey: secretKey,
		logger:    logger,
	}
}

// Prepare validates the request and reserves an invoice for the amount. No
// money moves at this phase; the stored amount becomes authoritative for the
// later complete call.
func (s *Service) Prepare(ctx context.Context, req PrepareRequest) PrepareResponse {
	fail := func(code int) PrepareResponse {
		return PrepareResponse{
			ClickTransID:    req.ClickTransID,
			MerchantTransID: req.MerchantTransID,
			Error:           code,
			ErrorNote:       errorNote(code),
		}
	}

	// The signature is recomputed over our configured service id, so a
	// request addressed to another service fails the check.
	expected := prepareSignature(req.ClickTransID, s.serviceID, s.secretKey,
		req.MerchantTransID, req.Amount, req.Action, req.SignTime)
	if !signaturesEqual(expected, req.SignString) {
		s.logger.Warn("prepare rejected: signature mismatch",
			zap.Int64("click_trans_id", req.ClickTransID))
		return fail(CodeSignatureFailed)
	}

	if req.Action != 0 {
		return fail(CodeActionNotFound)
	}

	bookingID, err := strconv.ParseInt(req.MerchantTransID, 10, 64)
	if err != nil || bookingID <= 0 {
		return fail(CodeOrderNotFound)
	}

	booking, err := s.bookings.FindByID(ctx, bookingID)
	if err != nil {
		if errors.Is(err, domain.ErrBookingNotFound) {
			return fail(CodeOrderNotFound)
		}
		s.logger.Error("failed to look up booking", zap.Int64("booking_id", bookingID), zap.Error(err))
		return fail(CodeTransactionError)
	}

	if !booking.AcceptsPayments() {
		resp := fail(CodeCancelled)
		resp.ErrorNote = "Booking is " + booking.Status.String()
		return resp
	}
	if booking.IsFullyPaid() {
		return fail(CodeAlreadyPaid)
	}

	amount, ok := toMinorUnits(req.Amount)
	if !ok || amount <= 0 {
		return fail(CodeInvalidAmount)
	}
	if amount > booking.Remaining() {
		return fail(CodeInvalidAmount)
	}

	now := time.Now().UTC()
	invoice := &domain.ClickInvoice{
		ClickTransID: req.ClickTransID,
		BookingID:    bookingID,
		Amount:       amount,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	if err := s.invoices.Create(ctx, invoice); err != nil {
		s.logger.Error("failed to create invoice",
			zap.Int64("click_trans_id", req.ClickTransID),
			zap.Error(err))
		return fail(CodeTransactionError)
	}

	s.logger.Info("invoice prepared",
		zap.Int64("prepare_id", invoice.PrepareID),
		zap.Int64("click_trans_id", req.ClickTransID),
		zap.Int64("booking_id", bookingID),
		zap.Int64("amount", amount))

	return PrepareResponse{
		ClickTransID:      req.ClickTransID,
		MerchantTransID:   req.MerchantTransID,
		MerchantPrepareID: invoice.PrepareID,
		Error:             CodeSuccess,
		ErrorNote:         errorNote(CodeSuccess),
	}
}

// Complete captures the payment reserved at prepare time. Amount checks at
// this phase come from the invoice, not the request; the prepared amount is
// authoritative for the trans_id. Retries replay the already-paid response,
// and concurrent calls are serialized per prepare_id so the capture happens
// exactly once.
func (s *Service) Complete(ctx context.Context, req CompleteRequest) CompleteResponse {
	fail := func(code int) CompleteResponse {
		return CompleteResponse{
			ClickTransID:    req.ClickTransID,
			MerchantTransID: req.MerchantTransID,
			Error:           code,
			ErrorNote:       errorNote(code),
		}
	}

	expected := completeSignature(req.ClickTransID, s.serviceID, s.secretKey,
		req.MerchantTransID, req.MerchantPrepareID, req.Amount, req.Action, req.SignTime)
	if !signaturesEqual(expected, req.SignString) {
		s.logger.Warn("complete rejected: signature mismatch",
			zap.Int64("click_trans_id", req.ClickTransID),
			zap.Int64("prepare_id", req.MerchantPrepareID))
		return fail(CodeSignatureFailed)
	}

	if req.Action != 1 {
		return fail(CodeActionNotFound)
	}

	var resp CompleteResponse
	lockKey := "click:" + strconv.FormatInt(req.MerchantPrepareID, 10)
	err := s.locker.WithLock(ctx, lockKey, func(ctx context.Context) error {
		resp = s.completeLocked(ctx, req, fail)
		return nil
	})
	if err != nil {
		s.logger.Error("failed to acquire invoice lock",
			zap.Int64("prepare_id", req.MerchantPrepareID),
			zap.Error(err))
		return fail(CodeTransactionError)
	}
	return resp
}

func (s *Service) completeLocked(ctx context.Context, req CompleteRequest, fail func(int) CompleteResponse) CompleteResponse {
	invoice, err := s.invoices.GetByPrepareID(ctx, req.MerchantPrepareID)
	if err != nil {
		if errors.Is(err, domain.ErrInvoiceNotFound) {
			return fail(CodeTransactionError)
		}
		s.logger.Error("failed to look up invoice",
			zap.Int64("prepare_id", req.MerchantPrepareID),
			zap.Error(err))
		return fail(CodeTransactionError)
	}

	if invoice.ClickTransID != req.ClickTransID {
		return fail(CodeTransactionError)
	}

	if invoice.Completed {
		return CompleteResponse{
			ClickTransID:      req.ClickTransID,
			MerchantTransID:   req.MerchantTransID,
			MerchantConfirmID: invoice.PrepareID,
			Error:             CodeAlreadyPaid,
			ErrorNote:         errorNote(CodeAlreadyPaid),
		}
	}
	if invoice.Cancelled {
		return fail(CodeCancelled)
	}

	// The payer abandoned or failed the payment upstream.
	if req.Error < 0 {
		if _, err := s.invoices.MarkCancelled(ctx, invoice.PrepareID); err != nil {
			s.logger.Error("failed to cancel invoice",
				zap.Int64("prepare_id", invoice.PrepareID),
				zap.Error(err))
		}
		return fail(CodeTransactionError)
	}

	captured, err := s.ledger.Capture(ctx, ledger.CaptureInput{
		BookingID: invoice.BookingID,
		Amount:    invoice.Amount,
		Method:    domain.PaymentMethodClick,
		Reference: strconv.FormatInt(invoice.ClickTransID, 10),
		Actor:     domain.SystemActor(),
	})
	if err != nil {
		s.logger.Error("failed to capture payment",
			zap.Int64("prepare_id", invoice.PrepareID),
			zap.Error(err))
		return fail(CodeTransactionError)
	}
	if !captured.Accepted() {
		return fail(CodeTransactionError)
	}

	updated, err := s.invoices.MarkCompleted(ctx, invoice.PrepareID, captured.Payment.ID)
	if err != nil {
		s.logger.Error("failed to mark invoice completed",
			zap.Int64("prepare_id", invoice.PrepareID),
			zap.String("payment_id", captured.Payment.ID),
			zap.Error(err))
		return fail(CodeTransactionError)
	}

	s.logger.Info("invoice completed",
		zap.Int64("prepare_id", updated.PrepareID),
		zap.Int64("booking_id", updated.BookingID),
		zap.String("payment_id", captured.Payment.ID))

	return CompleteResponse{
		ClickTransID:      req.ClickTransID,
		MerchantTransID:   req.MerchantTransID,
		MerchantConfirmID: updated.PrepareID,
		Error:             CodeSuccess,
		ErrorNote:         errorNote(CodeSuccess),
	}
}

// toMinorUnits converts a major-unit decimal string to minor-unit integer.
// The conversion must land on a whole number of minor units; anything finer
// is rejected rather than rounded.
func toMinorUnits(amount string) (int64, bool) {
	major, err := decimal.NewFromString(amount)
	if err != nil {
		return 0, false
	}
	minor := major.Mul(minorUnitsPerMajor)
	if !minor.IsInteger() {
		return 0, false
	}
	return minor.IntPart(), true
}
