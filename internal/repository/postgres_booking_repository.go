package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/khiva-labs/hotelier/internal/domain"
	"github.com/khiva-labs/hotelier/pkg/database"
)

const bookingColumns = `
	id, property_id, room_id, guest_name, check_in, check_out,
	total_amount, paid_amount, currency, status, created_at, updated_at
`

// PostgresBookingRepository implements BookingRepository using PostgreSQL
type PostgresBookingRepository struct {
	db *database.PostgresDB
}

// NewPostgresBookingRepository creates a new PostgreSQL booking repository
func NewPostgresBookingRepository(db *database.PostgresDB) *PostgresBookingRepository {
	return &PostgresBookingRepository{db: db}
}

// Create creates a new booking record
func (r *PostgresBookingRepository) Create(ctx context.Context, booking *domain.Booking) error {
	query := `
		INSERT INTO bookings (
			id, property_id, room_id, guest_name, check_in, check_out,
			total_amount, paid_amount, currency, status, created_at, updated_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)`

	_, err := r.db.Pool().Exec(ctx, query,
		booking.ID,
		booking.PropertyID,
		booking.RoomID,
		booking.GuestName,
		booking.CheckIn,
		booking.CheckOut,
		booking.TotalAmount,
		booking.PaidAmount,
		booking.Currency,
		string(booking.Status),
		booking.CreatedAt,
		booking.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to create booking: %w", err)
	}
	return nil
}

// FindByID retrieves a booking by its ID
func (r *PostgresBookingRepository) FindByID(ctx context.Context, id int64) (*domain.Booking, error) {
	query := `SELECT ` + bookingColumns + ` FROM bookings WHERE id = $1`
	return scanBooking(r.db.Pool().QueryRow(ctx, query, id))
}

// ApplyPaymentDelta atomically adjusts paid_amount. The guard for positive
// deltas (status accepts payments, balance not exceeded) is part of the
// UPDATE itself, so concurrent writers cannot push paid_amount past
// total_amount.
func (r *PostgresBookingRepository) ApplyPaymentDelta(ctx context.Context, id int64, delta int64) (*domain.Booking, error) {
	var query string
	if delta >= 0 {
		query = `
			UPDATE bookings
			SET paid_amount = paid_amount + $2, updated_at = now()
			WHERE id = $1
			  AND status NOT IN ('cancelled', 'no_show')
			  AND paid_amount + $2 <= total_amount
			RETURNING ` + bookingColumns
	} else {
		query = `
			UPDATE bookings
			SET paid_amount = GREATEST(paid_amount + $2, 0), updated_at = now()
			WHERE id = $1
			RETURNING ` + bookingColumns
	}

	booking, err := scanBooking(r.db.Pool().QueryRow(ctx, query, id, delta))
	if err == nil {
		return booking, nil
	}
	if !errors.Is(err, domain.ErrBookingNotFound) {
		return nil, err
	}

	// The guarded UPDATE matched no row; re-read to report why.
	current, findErr := r.FindByID(ctx, id)
	if findErr != nil {
		return nil, findErr
	}
	if !current.AcceptsPayments() {
		return nil, domain.ErrBookingClosed
	}
	return nil, &domain.OverpaymentError{Remaining: current.Remaining()}
}

// scanBooking scans a single booking from a row
func scanBooking(row pgx.Row) (*domain.Booking, error) {
	var booking domain.Booking
	var status string

	err := row.Scan(
		&booking.ID,
		&booking.PropertyID,
		&booking.RoomID,
		&booking.GuestName,
		&booking.CheckIn,
		&booking.CheckOut,
		&booking.TotalAmount,
		&booking.PaidAmount,
		&booking.Currency,
		&status,
		&booking.CreatedAt,
		&booking.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrBookingNotFound
		}
		return nil, fmt.Errorf("failed to scan booking: %w", err)
	}

	booking.Status = domain.BookingStatus(status)
	return &booking, nil
}
