package domain

import (
	"time"
)

// BookingStatus represents the status of a booking
type BookingStatus string

const (
	BookingStatusNew        BookingStatus = "new"
	BookingStatusConfirmed  BookingStatus = "confirmed"
	BookingStatusCheckedIn  BookingStatus = "checked_in"
	BookingStatusCheckedOut BookingStatus = "checked_out"
	BookingStatusCancelled  BookingStatus = "cancelled"
	BookingStatusNoShow     BookingStatus = "no_show"
)

// IsValid checks if the status is a valid BookingStatus
func (s BookingStatus) IsValid() bool {
	switch s {
	case BookingStatusNew, BookingStatusConfirmed, BookingStatusCheckedIn,
		BookingStatusCheckedOut, BookingStatusCancelled, BookingStatusNoShow:
		return true
	}
	return false
}

// String returns the string representation of BookingStatus
func (s BookingStatus) String() string {
	return string(s)
}

// Booking represents a hotel booking. Monetary amounts are integers in the
// minor currency unit. TotalAmount is immutable once created; PaidAmount is
// mutated only by the payment ledger.
type Booking struct {
	ID          int64         `json:"id"`
	PropertyID  string        `json:"property_id"`
	RoomID      string        `json:"room_id"`
	GuestName   string        `json:"guest_name"`
	CheckIn     time.Time     `json:"check_in"`
	CheckOut    time.Time     `json:"check_out"`
	TotalAmount int64         `json:"total_amount"`
	PaidAmount  int64         `json:"paid_amount"`
	Currency    string        `json:"currency"`
	Status      BookingStatus `json:"status"`
	CreatedAt   time.Time     `json:"created_at"`
	UpdatedAt   time.Time     `json:"updated_at"`
}

// Remaining returns the outstanding balance of the booking
func (b *Booking) Remaining() int64 {
	return b.TotalAmount - b.PaidAmount
}

// IsFullyPaid returns true when nothing remains to be paid
func (b *Booking) IsFullyPaid() bool {
	return b.Remaining() <= 0
}

// AcceptsPayments returns false for bookings that block new payments
func (b *Booking) AcceptsPayments() bool {
	return b.Status != BookingStatusCancelled && b.Status != BookingStatusNoShow
}
