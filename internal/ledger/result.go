package ledger

import (
	"github.com/khiva-labs/hotelier/internal/domain"
)

// RejectReason classifies why a capture was refused. A rejection is a normal
// business outcome, not an infrastructure failure.
type RejectReason string

const (
	RejectNone            RejectReason = ""
	RejectBookingNotFound RejectReason = "booking_not_found"
	RejectBookingClosed   RejectReason = "booking_closed"
	RejectOverpayment     RejectReason = "overpayment"
	RejectInvalidInput    RejectReason = "invalid_input"
)

// CaptureResult is the outcome of a capture attempt. Exactly one of Payment
// or Reason is set: an accepted capture carries the recorded payment and the
// updated booking, a rejected one carries the reason and, for overpayment,
// the remaining balance the caller may retry with.
type CaptureResult struct {
	Payment   *domain.Payment
	Booking   *domain.Booking
	Reason    RejectReason
	Remaining int64
}

// Accepted reports whether the capture was recorded
func (r *CaptureResult) Accepted() bool {
	return r.Reason == RejectNone
}

func rejected(reason RejectReason) *CaptureResult {
	return &CaptureResult{Reason: reason}
}
