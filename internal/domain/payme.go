package domain

import "time"

// PaymeState is the state of a Payme gateway transaction
type PaymeState int

const (
	PaymeStateCreated               PaymeState = 1
	PaymeStatePerformed             PaymeState = 2
	PaymeStateCancelled             PaymeState = -1
	PaymeStateCancelledAfterPerform PaymeState = -2
)

// IsCancelled returns true for both cancellation states
func (s PaymeState) IsCancelled() bool {
	return s == PaymeStateCancelled || s == PaymeStateCancelledAfterPerform
}

// PaymeTransaction is a registry entry for a Payme gateway transaction.
// The ID is issued by the gateway; timestamps are unix milliseconds, as on
// the wire. Transactions are never deleted: CheckTransaction and GetStatement
// must be able to replay them indefinitely.
type PaymeTransaction struct {
	ID          string     `json:"id"`
	BookingID   int64      `json:"booking_id"`
	Amount      int64      `json:"amount"`
	State       PaymeState `json:"state"`
	CreateTime  int64      `json:"create_time"`
	PerformTime int64      `json:"perform_time"`
	CancelTime  int64      `json:"cancel_time"`
	Reason      *int       `json:"reason,omitempty"`
	PaymentID   string     `json:"payment_id,omitempty"`
	CreatedAt   time.Time  `json:"created_at"`
	UpdatedAt   time.Time  `json:"updated_at"`
}
