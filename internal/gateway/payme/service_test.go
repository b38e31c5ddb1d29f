package payme

import (
	"context"
	"strconv"
	"sync"
	"testing"
	"time"

	"github.com/khiva-labs/hotelier/internal/domain"
	"github.com/khiva-labs/hotelier/internal/ledger"
	"github.com/khiva-labs/hotelier/internal/repository"
	"go.uber.org/zap"
)

const accountField = "booking_id"

type testEnv struct {
	service  *Service
	bookings *repository.MemoryBookingRepository
	payments *repository.MemoryPaymentRepository
}

func newTestService(t *testing.T) *testEnv {
	t.Helper()
	bookings := repository.NewMemoryBookingRepository()
	payments := repository.NewMemoryPaymentRepository()
	transactions := repository.NewMemoryPaymeTransactionRepository()
	l := ledger.New(bookings, payments, nil, zap.NewNop())
	service := NewService(transactions, bookings, payments, l, ledger.NewLocalLocker(), accountField, zap.NewNop())
	return &testEnv{service: service, bookings: bookings, payments: payments}
}

func (e *testEnv) seedBooking(t *testing.T, id, total, paid int64, status domain.BookingStatus) {
	t.Helper()
	now := time.Now().UTC()
	err := e.bookings.Create(context.Background(), &domain.Booking{
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

func createParams(id string, bookingID int64, amount int64) Params {
	return Params{
		ID:      id,
		Time:    time.Now().UTC().UnixMilli(),
		Amount:  amount,
		Account: map[string]any{accountField: strconv.FormatInt(bookingID, 10)},
	}
}

func TestCheckPerformTransaction(t *testing.T) {
	env := newTestService(t)
	env.seedBooking(t, 1, 10_000_000, 0, domain.BookingStatusConfirmed)

	result, gwErr := env.service.CheckPerformTransaction(context.Background(), createParams("t1", 1, 5_000_000))
	if gwErr != nil {
		t.Fatalf("expected success, got error %d", gwErr.Code)
	}
	if !result.(CheckPerformResult).Allow {
		t.Error("expected allow=true")
	}

	if env.payments.Count() != 0 {
		t.Error("check must not create payments")
	}
}

func TestCheckPerformTransactionRejections(t *testing.T) {
	env := newTestService(t)
	env.seedBooking(t, 1, 10_000_000, 0, domain.BookingStatusConfirmed)
	env.seedBooking(t, 2, 10_000_000, 0, domain.BookingStatusCancelled)
	env.seedBooking(t, 3, 10_000_000, 10_000_000, domain.BookingStatusConfirmed)

	tests := []struct {
		name   string
		params Params
		code   int
	}{
		{"unknown booking", createParams("t1", 999, 1_000_000), CodeOrderNotFound},
		{"cancelled booking", createParams("t1", 2, 1_000_000), CodeOrderCancelled},
		{"fully paid", createParams("t1", 3, 1_000_000), CodeOrderAlreadyPaid},
		{"amount exceeds remaining", createParams("t1", 1, 15_000_000), CodeInvalidAmount},
		{"zero amount", createParams("t1", 1, 0), CodeInvalidAmount},
		{"non-numeric account", Params{ID: "t1", Amount: 1_000_000, Account: map[string]any{accountField: "abc"}}, CodeOrderNotFound},
		{"missing account", Params{ID: "t1", Amount: 1_000_000, Account: map[string]any{}}, CodeOrderNotFound},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, gwErr := env.service.CheckPerformTransaction(context.Background(), tt.params)
			if gwErr == nil {
				t.Fatal("expected error")
			}
			if gwErr.Code != tt.code {
				t.Errorf("expected code %d, got %d", tt.code, gwErr.Code)
			}
		})
	}
}

func TestCreateTransaction(t *testing.T) {
	env := newTestService(t)
	env.seedBooking(t, 1, 10_000_000, 0, domain.BookingStatusConfirmed)

	params := createParams("t1", 1, 5_000_000)
	result, gwErr := env.service.CreateTransaction(context.Background(), params)
	if gwErr != nil {
		t.Fatalf("expected success, got error %d", gwErr.Code)
	}

	created := result.(CreateResult)
	if created.State != domain.PaymeStateCreated {
		t.Errorf("expected state 1, got %d", created.State)
	}
	if created.Transaction != "t1" {
		t.Errorf("expected transaction t1, got %q", created.Transaction)
	}
	if created.CreateTime != params.Time {
		t.Errorf("expected create_time %d, got %d", params.Time, created.CreateTime)
	}
}

func TestCreateTransactionIdempotentReplay(t *testing.T) {
	env := newTestService(t)
	env.seedBooking(t, 1, 10_000_000, 0, domain.BookingStatusConfirmed)

	params := createParams("t1", 1, 5_000_000)
	first, gwErr := env.service.CreateTransaction(context.Background(), params)
	if gwErr != nil {
		t.Fatalf("first create failed: %d", gwErr.Code)
	}
	second, gwErr := env.service.CreateTransaction(context.Background(), params)
	if gwErr != nil {
		t.Fatalf("replayed create failed: %d", gwErr.Code)
	}
	if first != second {
		t.Errorf("expected identical replay, got %+v then %+v", first, second)
	}
}

func TestCreateTransactionAlreadyProcessed(t *testing.T) {
	env := newTestService(t)
	env.seedBooking(t, 1, 10_000_000, 0, domain.BookingStatusConfirmed)

	params := createParams("t1", 1, 5_000_000)
	if _, gwErr := env.service.CreateTransaction(context.Background(), params); gwErr != nil {
		t.Fatalf("create failed: %d", gwErr.Code)
	}
	if _, gwErr := env.service.PerformTransaction(context.Background(), params); gwErr != nil {
		t.Fatalf("perform failed: %d", gwErr.Code)
	}

	_, gwErr := env.service.CreateTransaction(context.Background(), params)
	if gwErr == nil || gwErr.Code != CodeAlreadyProcessed {
		t.Errorf("expected code %d, got %+v", CodeAlreadyProcessed, gwErr)
	}
}

func TestPerformTransactionExactlyOnce(t *testing.T) {
	env := newTestService(t)
	env.seedBooking(t, 1, 10_000_000, 0, domain.BookingStatusConfirmed)

	params := createParams("t1", 1, 5_000_000)
	if _, gwErr := env.service.CreateTransaction(context.Background(), params); gwErr != nil {
		t.Fatalf("create failed: %d", gwErr.Code)
	}

	first, gwErr := env.service.PerformTransaction(context.Background(), params)
	if gwErr != nil {
		t.Fatalf("first perform failed: %d", gwErr.Code)
	}
	second, gwErr := env.service.PerformTransaction(context.Background(), params)
	if gwErr != nil {
		t.Fatalf("second perform failed: %d", gwErr.Code)
	}

	if first.(PerformResult).State != domain.PaymeStatePerformed {
		t.Errorf("expected state 2, got %d", first.(PerformResult).State)
	}
	if first != second {
		t.Errorf("expected identical replay, got %+v then %+v", first, second)
	}
	if env.payments.Count() != 1 {
		t.Errorf("expected exactly 1 payment, got %d", env.payments.Count())
	}

	booking, _ := env.bookings.FindByID(context.Background(), 1)
	if booking.PaidAmount != 5_000_000 {
		t.Errorf("expected paid amount 5000000, got %d", booking.PaidAmount)
	}
}

func TestPerformTransactionConcurrent(t *testing.T) {
	env := newTestService(t)
	env.seedBooking(t, 1, 10_000_000, 0, domain.BookingStatusConfirmed)

	params := createParams("t1", 1, 5_000_000)
	if _, gwErr := env.service.CreateTransaction(context.Background(), params); gwErr != nil {
		t.Fatalf("create failed: %d", gwErr.Code)
	}

	const workers = 10
	var wg sync.WaitGroup
	wg.Add(workers)
	for i := 0; i < workers; i++ {
		go func() {
			defer wg.Done()
			if _, gwErr := env.service.PerformTransaction(context.Background(), params); gwErr != nil {
				t.Errorf("perform failed: %d", gwErr.Code)
			}
		}()
	}
	wg.Wait()

	if env.payments.Count() != 1 {
		t.Errorf("expected exactly 1 payment, got %d", env.payments.Count())
	}
	booking, _ := env.bookings.FindByID(context.Background(), 1)
	if booking.PaidAmount != 5_000_000 {
		t.Errorf("expected paid amount 5000000, got %d", booking.PaidAmount)
	}
}

func TestPerformTransactionNotFound(t *testing.T) {
	env := newTestService(t)

	_, gwErr := env.service.PerformTransaction(context.Background(), Params{ID: "missing"})
	if gwErr == nil || gwErr.Code != CodeTransactionMissing {
		t.Errorf("expected code %d, got %+v", CodeTransactionMissing, gwErr)
	}
}

func TestPerformCancelledTransaction(t *testing.T) {
	env := newTestService(t)
	env.seedBooking(t, 1, 10_000_000, 0, domain.BookingStatusConfirmed)

	params := createParams("t1", 1, 5_000_000)
	if _, gwErr := env.service.CreateTransaction(context.Background(), params); gwErr != nil {
		t.Fatalf("create failed: %d", gwErr.Code)
	}
	reason := 3
	params.Reason = &reason
	if _, gwErr := env.service.CancelTransaction(context.Background(), params); gwErr != nil {
		t.Fatalf("cancel failed: %d", gwErr.Code)
	}

	_, gwErr := env.service.PerformTransaction(context.Background(), params)
	if gwErr == nil || gwErr.Code != CodeUnableToPerform {
		t.Errorf("expected code %d, got %+v", CodeUnableToPerform, gwErr)
	}
	if env.payments.Count() != 0 {
		t.Errorf("expected no payments, got %d", env.payments.Count())
	}
}

func TestPerformTransactionLedgerRejection(t *testing.T) {
	env := newTestService(t)
	env.seedBooking(t, 1, 10_000_000, 0, domain.BookingStatusConfirmed)

	params := createParams("t1", 1, 5_000_000)
	if _, gwErr := env.service.CreateTransaction(context.Background(), params); gwErr != nil {
		t.Fatalf("create failed: %d", gwErr.Code)
	}

	// Another payment fills the booking between create and perform.
	if _, err := env.bookings.ApplyPaymentDelta(context.Background(), 1, 8_000_000); err != nil {
		t.Fatalf("failed to adjust balance: %v", err)
	}

	_, gwErr := env.service.PerformTransaction(context.Background(), params)
	if gwErr == nil || gwErr.Code != CodeUnableToPerform {
		t.Errorf("expected code %d, got %+v", CodeUnableToPerform, gwErr)
	}
	if env.payments.Count() != 0 {
		t.Errorf("expected no payments, got %d", env.payments.Count())
	}
}

func TestCancelBeforePerform(t *testing.T) {
	env := newTestService(t)
	env.seedBooking(t, 1, 10_000_000, 0, domain.BookingStatusConfirmed)

	params := createParams("t1", 1, 5_000_000)
	if _, gwErr := env.service.CreateTransaction(context.Background(), params); gwErr != nil {
		t.Fatalf("create failed: %d", gwErr.Code)
	}

	reason := 3
	params.Reason = &reason
	result, gwErr := env.service.CancelTransaction(context.Background(), params)
	if gwErr != nil {
		t.Fatalf("cancel failed: %d", gwErr.Code)
	}
	if result.(CancelResult).State != domain.PaymeStateCancelled {
		t.Errorf("expected state -1, got %d", result.(CancelResult).State)
	}
}

func TestCancelAfterPerform(t *testing.T) {
	env := newTestService(t)
	env.seedBooking(t, 1, 10_000_000, 0, domain.BookingStatusConfirmed)

	params := createParams("t1", 1, 5_000_000)
	if _, gwErr := env.service.CreateTransaction(context.Background(), params); gwErr != nil {
		t.Fatalf("create failed: %d", gwErr.Code)
	}
	if _, gwErr := env.service.PerformTransaction(context.Background(), params); gwErr != nil {
		t.Fatalf("perform failed: %d", gwErr.Code)
	}

	reason := 5
	params.Reason = &reason
	result, gwErr := env.service.CancelTransaction(context.Background(), params)
	if gwErr != nil {
		t.Fatalf("cancel failed: %d", gwErr.Code)
	}
	if result.(CancelResult).State != domain.PaymeStateCancelledAfterPerform {
		t.Errorf("expected state -2, got %d", result.(CancelResult).State)
	}

	// Cancellation after perform flags a reversal but moves no money.
	if env.payments.Count() != 1 {
		t.Errorf("expected payment to remain, got %d", env.payments.Count())
	}
	booking, _ := env.bookings.FindByID(context.Background(), 1)
	if booking.PaidAmount != 5_000_000 {
		t.Errorf("expected paid amount unchanged at 5000000, got %d", booking.PaidAmount)
	}
}

func TestCancelIdempotentReplay(t *testing.T) {
	env := newTestService(t)
	env.seedBooking(t, 1, 10_000_000, 0, domain.BookingStatusConfirmed)

	params := createParams("t1", 1, 5_000_000)
	if _, gwErr := env.service.CreateTransaction(context.Background(), params); gwErr != nil {
		t.Fatalf("create failed: %d", gwErr.Code)
	}

	reason := 3
	params.Reason = &reason
	first, gwErr := env.service.CancelTransaction(context.Background(), params)
	if gwErr != nil {
		t.Fatalf("first cancel failed: %d", gwErr.Code)
	}
	second, gwErr := env.service.CancelTransaction(context.Background(), params)
	if gwErr != nil {
		t.Fatalf("second cancel failed: %d", gwErr.Code)
	}
	if first != second {
		t.Errorf("expected identical replay, got %+v then %+v", first, second)
	}
}

func TestCancelTransactionNotFound(t *testing.T) {
	env := newTestService(t)

	_, gwErr := env.service.CancelTransaction(context.Background(), Params{ID: "missing"})
	if gwErr == nil || gwErr.Code != CodeTransactionMissing {
		t.Errorf("expected code %d, got %+v", CodeTransactionMissing, gwErr)
	}
}

func TestCheckTransaction(t *testing.T) {
	env := newTestService(t)
	env.seedBooking(t, 1, 10_000_000, 0, domain.BookingStatusConfirmed)

	params := createParams("t1", 1, 5_000_000)
	if _, gwErr := env.service.CreateTransaction(context.Background(), params); gwErr != nil {
		t.Fatalf("create failed: %d", gwErr.Code)
	}

	result, gwErr := env.service.CheckTransaction(context.Background(), Params{ID: "t1"})
	if gwErr != nil {
		t.Fatalf("check failed: %d", gwErr.Code)
	}
	check := result.(CheckResult)
	if check.State != domain.PaymeStateCreated {
		t.Errorf("expected state 1, got %d", check.State)
	}
	if check.CreateTime != params.Time {
		t.Errorf("expected create_time %d, got %d", params.Time, check.CreateTime)
	}

	_, gwErr = env.service.CheckTransaction(context.Background(), Params{ID: "missing"})
	if gwErr == nil || gwErr.Code != CodeTransactionMissing {
		t.Errorf("expected code %d, got %+v", CodeTransactionMissing, gwErr)
	}
}

func TestGetStatement(t *testing.T) {
	env := newTestService(t)
	env.seedBooking(t, 1, 50_000_000, 0, domain.BookingStatusConfirmed)

	base := time.Now().UTC().UnixMilli()
	for i, id := range []string{"t1", "t2", "t3"} {
		params := createParams(id, 1, 1_000_000)
		params.Time = base + int64(i)*1000
		if _, gwErr := env.service.CreateTransaction(context.Background(), params); gwErr != nil {
			t.Fatalf("create %s failed: %d", id, gwErr.Code)
		}
	}

	// Inclusive bounds pick up t1 and t2, not t3.
	result, gwErr := env.service.GetStatement(context.Background(), Params{From: base, To: base + 1000})
	if gwErr != nil {
		t.Fatalf("statement failed: %d", gwErr.Code)
	}
	stmt := result.(StatementResult)
	if len(stmt.Transactions) != 2 {
		t.Fatalf("expected 2 transactions, got %d", len(stmt.Transactions))
	}
	if stmt.Transactions[0].Transaction != "t1" || stmt.Transactions[1].Transaction != "t2" {
		t.Errorf("expected t1,t2 in order, got %s,%s",
			stmt.Transactions[0].Transaction, stmt.Transactions[1].Transaction)
	}
	if stmt.Transactions[0].Account[accountField] != "1" {
		t.Errorf("expected account booking_id=1, got %q", stmt.Transactions[0].Account[accountField])
	}
}
