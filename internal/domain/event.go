package domain

import (
	"strconv"
	"time"
)

// PaymentEventType represents the type of payment event
type PaymentEventType string

const (
	PaymentEventCreated          PaymentEventType = "payment.created"
	PaymentEventRemoved          PaymentEventType = "payment.removed"
	PaymentEventReversalRequired PaymentEventType = "payment.reversal_required"
)

// PaymentEvent is the payment domain event published to Kafka. ActorUserID is
// empty for webhook-originated payments.
type PaymentEvent struct {
	EventID     string           `json:"event_id"`
	EventType   PaymentEventType `json:"event_type"`
	OccurredAt  time.Time        `json:"occurred_at"`
	PaymentID   string           `json:"payment_id"`
	BookingID   int64            `json:"booking_id"`
	PropertyID  string           `json:"property_id"`
	Amount      int64            `json:"amount"`
	Method      PaymentMethod    `json:"method"`
	Reference   string           `json:"reference,omitempty"`
	PaidAmount  int64            `json:"paid_amount"`
	TotalAmount int64            `json:"total_amount"`
	ActorKind   ActorKind        `json:"actor_kind"`
	ActorUserID string           `json:"actor_user_id,omitempty"`
}

// Key returns the Kafka message key for partitioning
func (e *PaymentEvent) Key() string {
	return strconv.FormatInt(e.BookingID, 10)
}
