package domain

import (
	"errors"
	"fmt"
)

// Domain errors
var (
	// Booking errors
	ErrBookingNotFound  = errors.New("booking not found")
	ErrBookingClosed    = errors.New("booking does not accept payments")
	ErrBalanceExceeded  = errors.New("amount exceeds outstanding balance")
	ErrInvalidBookingID = errors.New("invalid booking id")

	// Payment errors
	ErrPaymentNotFound      = errors.New("payment not found")
	ErrInvalidAmount        = errors.New("amount must be greater than zero")
	ErrInvalidPaymentMethod = errors.New("invalid payment method")

	// Gateway registry errors
	ErrTransactionNotFound      = errors.New("gateway transaction not found")
	ErrTransactionAlreadyExists = errors.New("gateway transaction already exists")
	ErrInvoiceNotFound          = errors.New("gateway invoice not found")
	ErrInvoiceAlreadyExists     = errors.New("gateway invoice already exists")
)

// OverpaymentError is returned on the internal path when a payment would push
// the paid total past the booking total. It carries the remaining balance for
// user-facing messages.
type OverpaymentError struct {
	Remaining int64
}

func (e *OverpaymentError) Error() string {
	return fmt.Sprintf("amount exceeds outstanding balance (remaining %d)", e.Remaining)
}

// Is allows errors.Is(err, ErrBalanceExceeded) to match
func (e *OverpaymentError) Is(target error) bool {
	return target == ErrBalanceExceeded
}

// IsNotFoundError checks if the error is a not found error
func IsNotFoundError(err error) bool {
	return errors.Is(err, ErrBookingNotFound) ||
		errors.Is(err, ErrPaymentNotFound) ||
		errors.Is(err, ErrTransactionNotFound) ||
		errors.Is(err, ErrInvoiceNotFound)
}

// IsValidationError checks if the error is a validation error
func IsValidationError(err error) bool {
	return errors.Is(err, ErrInvalidBookingID) ||
		errors.Is(err, ErrInvalidAmount) ||
		errors.Is(err, ErrInvalidPaymentMethod)
}

// IsConflictError checks if the error is a conflict error
func IsConflictError(err error) bool {
	return errors.Is(err, ErrTransactionAlreadyExists) ||
		errors.Is(err, ErrInvoiceAlreadyExists) ||
		errors.Is(err, ErrBalanceExceeded) ||
		errors.Is(err, ErrBookingClosed)
}
