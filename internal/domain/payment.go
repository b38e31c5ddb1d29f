package domain

import (
	"time"

	"github.com/google/uuid"
)

// PaymentMethod represents the method of payment (matches DB ENUM)
type PaymentMethod string

const (
	PaymentMethodCash     PaymentMethod = "cash"
	PaymentMethodCard     PaymentMethod = "card"
	PaymentMethodTransfer PaymentMethod = "transfer"
	PaymentMethodPayme    PaymentMethod = "payme"
	PaymentMethodClick    PaymentMethod = "click"
	PaymentMethodOther    PaymentMethod = "other"
)

// IsValid checks if the method is a valid PaymentMethod
func (m PaymentMethod) IsValid() bool {
	switch m {
	case PaymentMethodCash, PaymentMethodCard, PaymentMethodTransfer,
		PaymentMethodPayme, PaymentMethodClick, PaymentMethodOther:
		return true
	}
	return false
}

// ActorKind distinguishes payments recorded by staff from payments recorded
// by a gateway webhook.
type ActorKind string

const (
	ActorKindUser   ActorKind = "user"
	ActorKindSystem ActorKind = "system"
)

// Actor identifies who recorded a payment. A system actor carries no user ID.
type Actor struct {
	Kind   ActorKind `json:"kind"`
	UserID string    `json:"user_id,omitempty"`
}

// SystemActor returns the actor used for webhook-originated payments
func SystemActor() Actor {
	return Actor{Kind: ActorKindSystem}
}

// UserActor returns an actor for a staff user
func UserActor(userID string) Actor {
	return Actor{Kind: ActorKindUser, UserID: userID}
}

// IsSystem returns true for webhook/system actors
func (a Actor) IsSystem() bool {
	return a.Kind == ActorKindSystem
}

// Payment represents a completed payment against a booking. Amount is a
// positive integer in the minor currency unit. Payments are immutable after
// creation; removal reverses the amount from the booking's paid total.
type Payment struct {
	ID        string        `json:"id"`
	BookingID int64         `json:"booking_id"`
	Amount    int64         `json:"amount"`
	Method    PaymentMethod `json:"method"`
	Reference string        `json:"reference,omitempty"`
	PaidAt    time.Time     `json:"paid_at"`
	CreatedBy Actor         `json:"created_by"`
	CreatedAt time.Time     `json:"created_at"`
}

// NewPayment creates a new payment record
func NewPayment(bookingID, amount int64, method PaymentMethod, reference string, actor Actor) (*Payment, error) {
	if bookingID <= 0 {
		return nil, ErrInvalidBookingID
	}
	if amount <= 0 {
		return nil, ErrInvalidAmount
	}
	if !method.IsValid() {
		return nil, ErrInvalidPaymentMethod
	}

	now := time.Now().UTC()
	return &Payment{
		ID:        uuid.New().String(),
		BookingID: bookingID,
		Amount:    amount,
		Method:    method,
		Reference: reference,
		PaidAt:    now,
		CreatedBy: actor,
		CreatedAt: now,
	}, nil
}
