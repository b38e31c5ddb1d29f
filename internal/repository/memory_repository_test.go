package repository

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/khiva-labs/hotelier/internal/domain"
)

func newBooking(id, total, paid int64, status domain.BookingStatus) *domain.Booking {
	now := time.Now().UTC()
	return &domain.Booking{
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
	}
}

func TestApplyPaymentDeltaGuard(t *testing.T) {
	repo := NewMemoryBookingRepository()
	if err := repo.Create(context.Background(), newBooking(1, 10_000_000, 8_000_000, domain.BookingStatusConfirmed)); err != nil {
		t.Fatalf("Create failed: %v", err)
	}

	_, err := repo.ApplyPaymentDelta(context.Background(), 1, 5_000_000)
	var overErr *domain.OverpaymentError
	if !errors.As(err, &overErr) {
		t.Fatalf("expected OverpaymentError, got %v", err)
	}
	if overErr.Remaining != 2_000_000 {
		t.Errorf("expected remaining 2000000, got %d", overErr.Remaining)
	}

	booking, _ := repo.FindByID(context.Background(), 1)
	if booking.PaidAmount != 8_000_000 {
		t.Errorf("expected paid amount unchanged, got %d", booking.PaidAmount)
	}

	if _, err := repo.ApplyPaymentDelta(context.Background(), 1, 2_000_000); err != nil {
		t.Fatalf("exact remaining delta failed: %v", err)
	}
}

func TestApplyPaymentDeltaClosedBooking(t *testing.T) {
	repo := NewMemoryBookingRepository()
	if err := repo.Create(context.Background(), newBooking(1, 10_000_000, 0, domain.BookingStatusCancelled)); err != nil {
		t.Fatalf("Create failed: %v", err)
	}

	if _, err := repo.ApplyPaymentDelta(context.Background(), 1, 1_000_000); !errors.Is(err, domain.ErrBookingClosed) {
		t.Errorf("expected ErrBookingClosed, got %v", err)
	}
}

func TestApplyPaymentDeltaNegativeClamped(t *testing.T) {
	repo := NewMemoryBookingRepository()
	if err := repo.Create(context.Background(), newBooking(1, 10_000_000, 1_000_000, domain.BookingStatusConfirmed)); err != nil {
		t.Fatalf("Create failed: %v", err)
	}

	booking, err := repo.ApplyPaymentDelta(context.Background(), 1, -3_000_000)
	if err != nil {
		t.Fatalf("negative delta failed: %v", err)
	}
	if booking.PaidAmount != 0 {
		t.Errorf("expected paid amount clamped to 0, got %d", booking.PaidAmount)
	}
}

func TestApplyPaymentDeltaConcurrent(t *testing.T) {
	repo := NewMemoryBookingRepository()
	if err := repo.Create(context.Background(), newBooking(1, 10_000_000, 0, domain.BookingStatusConfirmed)); err != nil {
		t.Fatalf("Create failed: %v", err)
	}

	const workers = 20
	var wg sync.WaitGroup
	wg.Add(workers)
	for i := 0; i < workers; i++ {
		go func() {
			defer wg.Done()
			_, _ = repo.ApplyPaymentDelta(context.Background(), 1, 3_000_000)
		}()
	}
	wg.Wait()

	booking, _ := repo.FindByID(context.Background(), 1)
	if booking.PaidAmount != 9_000_000 {
		t.Errorf("expected exactly 3 deltas applied (9000000), got %d", booking.PaidAmount)
	}
}

func TestPaymeTransactionCAS(t *testing.T) {
	repo := NewMemoryPaymeTransactionRepository()
	now := time.Now().UTC()
	tx := &domain.PaymeTransaction{
		ID:         "t1",
		BookingID:  1,
		Amount:     1_000_000,
		State:      domain.PaymeStateCreated,
		CreateTime: now.UnixMilli(),
		CreatedAt:  now,
		UpdatedAt:  now,
	}
	if err := repo.Create(context.Background(), tx); err != nil {
		t.Fatalf("Create failed: %v", err)
	}

	if err := repo.Create(context.Background(), tx); !errors.Is(err, domain.ErrTransactionAlreadyExists) {
		t.Errorf("expected ErrTransactionAlreadyExists, got %v", err)
	}

	updated, err := repo.MarkPerformed(context.Background(), "t1", now.UnixMilli()+1, "pay-1")
	if err != nil {
		t.Fatalf("MarkPerformed failed: %v", err)
	}
	if updated.State != domain.PaymeStatePerformed || updated.PaymentID != "pay-1" {
		t.Errorf("unexpected transaction after perform: %+v", updated)
	}

	// A second perform must fail the compare-and-set.
	if _, err := repo.MarkPerformed(context.Background(), "t1", now.UnixMilli()+2, "pay-2"); !errors.Is(err, domain.ErrTransactionNotFound) {
		t.Errorf("expected CAS failure, got %v", err)
	}

	cancelled, err := repo.MarkCancelled(context.Background(), "t1", domain.PaymeStateCancelledAfterPerform, 5, now.UnixMilli()+3)
	if err != nil {
		t.Fatalf("MarkCancelled failed: %v", err)
	}
	if cancelled.State != domain.PaymeStateCancelledAfterPerform || cancelled.Reason == nil || *cancelled.Reason != 5 {
		t.Errorf("unexpected transaction after cancel: %+v", cancelled)
	}
}

func TestClickInvoiceCAS(t *testing.T) {
	repo := NewMemoryClickInvoiceRepository()
	now := time.Now().UTC()

	first := &domain.ClickInvoice{ClickTransID: 100, BookingID: 1, Amount: 1_000_000, CreatedAt: now, UpdatedAt: now}
	second := &domain.ClickInvoice{ClickTransID: 101, BookingID: 1, Amount: 2_000_000, CreatedAt: now, UpdatedAt: now}
	if err := repo.Create(context.Background(), first); err != nil {
		t.Fatalf("Create failed: %v", err)
	}
	if err := repo.Create(context.Background(), second); err != nil {
		t.Fatalf("Create failed: %v", err)
	}
	if second.PrepareID <= first.PrepareID {
		t.Errorf("expected increasing prepare IDs, got %d then %d", first.PrepareID, second.PrepareID)
	}

	completed, err := repo.MarkCompleted(context.Background(), first.PrepareID, "pay-1")
	if err != nil {
		t.Fatalf("MarkCompleted failed: %v", err)
	}
	if !completed.Completed || completed.PaymentID != "pay-1" {
		t.Errorf("unexpected invoice after complete: %+v", completed)
	}

	if _, err := repo.MarkCompleted(context.Background(), first.PrepareID, "pay-2"); !errors.Is(err, domain.ErrInvoiceNotFound) {
		t.Errorf("expected CAS failure on second complete, got %v", err)
	}
	if _, err := repo.MarkCancelled(context.Background(), first.PrepareID); !errors.Is(err, domain.ErrInvoiceNotFound) {
		t.Errorf("expected cancel of completed invoice to fail, got %v", err)
	}

	if _, err := repo.MarkCancelled(context.Background(), second.PrepareID); err != nil {
		t.Fatalf("MarkCancelled failed: %v", err)
	}
	if _, err := repo.MarkCompleted(context.Background(), second.PrepareID, "pay-3"); !errors.Is(err, domain.ErrInvoiceNotFound) {
		t.Errorf("expected complete of cancelled invoice to fail, got %v", err)
	}
}
