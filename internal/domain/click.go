package domain

import "time"

// ClickInvoice is a registry entry for a Click gateway prepare/complete pair.
// PrepareID is issued locally and is monotonically increasing; ClickTransID is
// issued by the gateway. Amount is stored in the minor currency unit after
// boundary conversion; it is authoritative at Complete time.
type ClickInvoice struct {
	PrepareID    int64     `json:"prepare_id"`
	ClickTransID int64     `json:"click_trans_id"`
	BookingID    int64     `json:"booking_id"`
	Amount       int64     `json:"amount"`
	Completed    bool      `json:"completed"`
	Cancelled    bool      `json:"cancelled"`
	PaymentID    string    `json:"payment_id,omitempty"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}
