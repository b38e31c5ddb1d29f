package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/khiva-labs/hotelier/internal/domain"
	"github.com/khiva-labs/hotelier/internal/ledger"
	"github.com/khiva-labs/hotelier/internal/repository"
	"go.uber.org/zap"
)

func newTestPaymentService(t *testing.T) (*PaymentService, *repository.MemoryBookingRepository) {
	t.Helper()
	bookings := repository.NewMemoryBookingRepository()
	payments := repository.NewMemoryPaymentRepository()
	l := ledger.New(bookings, payments, nil, zap.NewNop())
	return NewPaymentService(l, payments, bookings, zap.NewNop()), bookings
}

func seedBooking(t *testing.T, bookings *repository.MemoryBookingRepository, id, total, paid int64, status domain.BookingStatus) {
	t.Helper()
	now := time.Now().UTC()
	err := bookings.Create(context.Background(), &domain.Booking{
		ID:          id,
		PropertyID:  "prop-1",
		RoomID:      "101",
		GuestName:   "Test Guest",
		CheckIn:     now,
		CheckOut:    now.Add(48 * time.Hour),
		TotalAmount: total,
		PaidAmount:  paid,
		Currency:    "UZS",
		Status:      status,
		CreatedAt:   now,
		UpdatedAt:   now,
	})
	if err != nil {
		t.Fatalf("failed to seed booking: %v", err)
	}
}

func TestCreatePayment(t *testing.T) {
	svc, bookings := newTestPaymentService(t)
	seedBooking(t, bookings, 1, 10_000_000, 0, domain.BookingStatusConfirmed)

	payment, err := svc.CreatePayment(context.Background(), CreatePaymentInput{
		BookingID: 1,
		Amount:    2_500_000,
		Method:    domain.PaymentMethodCash,
		Reference: "receipt-17",
		UserID:    "user-9",
	})
	if err != nil {
		t.Fatalf("CreatePayment failed: %v", err)
	}
	if payment.CreatedBy.Kind != domain.ActorKindUser || payment.CreatedBy.UserID != "user-9" {
		t.Errorf("expected user actor user-9, got %+v", payment.CreatedBy)
	}

	booking, _ := bookings.FindByID(context.Background(), 1)
	if booking.PaidAmount != 2_500_000 {
		t.Errorf("expected paid amount 2500000, got %d", booking.PaidAmount)
	}
}

func TestCreatePaymentOverpaymentError(t *testing.T) {
	svc, bookings := newTestPaymentService(t)
	seedBooking(t, bookings, 1, 10_000_000, 8_000_000, domain.BookingStatusConfirmed)

	_, err := svc.CreatePayment(context.Background(), CreatePaymentInput{
		BookingID: 1,
		Amount:    5_000_000,
		Method:    domain.PaymentMethodCard,
		UserID:    "user-1",
	})

	var overErr *domain.OverpaymentError
	if !errors.As(err, &overErr) {
		t.Fatalf("expected OverpaymentError, got %v", err)
	}
	if overErr.Remaining != 2_000_000 {
		t.Errorf("expected remaining 2000000, got %d", overErr.Remaining)
	}
	if !errors.Is(err, domain.ErrBalanceExceeded) {
		t.Error("expected error to match ErrBalanceExceeded")
	}
}

func TestCreatePaymentClosedBooking(t *testing.T) {
	svc, bookings := newTestPaymentService(t)
	seedBooking(t, bookings, 1, 10_000_000, 0, domain.BookingStatusNoShow)

	_, err := svc.CreatePayment(context.Background(), CreatePaymentInput{
		BookingID: 1,
		Amount:    1_000_000,
		Method:    domain.PaymentMethodCash,
		UserID:    "user-1",
	})
	if !errors.Is(err, domain.ErrBookingClosed) {
		t.Errorf("expected ErrBookingClosed, got %v", err)
	}
}

func TestCreatePaymentUnknownBooking(t *testing.T) {
	svc, _ := newTestPaymentService(t)

	_, err := svc.CreatePayment(context.Background(), CreatePaymentInput{
		BookingID: 404,
		Amount:    1_000_000,
		Method:    domain.PaymentMethodCash,
		UserID:    "user-1",
	})
	if !errors.Is(err, domain.ErrBookingNotFound) {
		t.Errorf("expected ErrBookingNotFound, got %v", err)
	}
}

func TestRemovePayment(t *testing.T) {
	svc, bookings := newTestPaymentService(t)
	seedBooking(t, bookings, 1, 10_000_000, 0, domain.BookingStatusConfirmed)

	payment, err := svc.CreatePayment(context.Background(), CreatePaymentInput{
		BookingID: 1,
		Amount:    3_000_000,
		Method:    domain.PaymentMethodTransfer,
		UserID:    "user-1",
	})
	if err != nil {
		t.Fatalf("CreatePayment failed: %v", err)
	}

	if _, err := svc.RemovePayment(context.Background(), payment.ID, "admin-1"); err != nil {
		t.Fatalf("RemovePayment failed: %v", err)
	}

	booking, _ := bookings.FindByID(context.Background(), 1)
	if booking.PaidAmount != 0 {
		t.Errorf("expected paid amount 0, got %d", booking.PaidAmount)
	}

	_, err = svc.RemovePayment(context.Background(), payment.ID, "admin-1")
	if !errors.Is(err, domain.ErrPaymentNotFound) {
		t.Errorf("expected ErrPaymentNotFound, got %v", err)
	}
}

func TestListPayments(t *testing.T) {
	svc, bookings := newTestPaymentService(t)
	seedBooking(t, bookings, 1, 10_000_000, 0, domain.BookingStatusConfirmed)

	for _, amount := range []int64{1_000_000, 2_000_000} {
		if _, err := svc.CreatePayment(context.Background(), CreatePaymentInput{
			BookingID: 1,
			Amount:    amount,
			Method:    domain.PaymentMethodCash,
			UserID:    "user-1",
		}); err != nil {
			t.Fatalf("CreatePayment failed: %v", err)
		}
	}

	payments, err := svc.ListPayments(context.Background(), 1)
	if err != nil {
		t.Fatalf("ListPayments failed: %v", err)
	}
	if len(payments) != 2 {
		t.Errorf("expected 2 payments, got %d", len(payments))
	}

	_, err = svc.ListPayments(context.Background(), 404)
	if !errors.Is(err, domain.ErrBookingNotFound) {
		t.Errorf("expected ErrBookingNotFound, got %v", err)
	}
}
