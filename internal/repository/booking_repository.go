package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"

	"github.com/simplysydnee/icanswimbeta-sub004/internal/models"
)

const bookingColumns = `id, session_id, swimmer_id, parent_id, booking_type, status, authorization_id, cancel_reason,
cancel_notes, cancelled_at, cancelled_by, created_by, created_at, updated_at`

// BookingRepository persists bookings.
type BookingRepository struct {
	db *sqlx.DB
}

// NewBookingRepository constructs the repository.
func NewBookingRepository(db *sqlx.DB) *BookingRepository {
	return &BookingRepository{db: db}
}

func (r *BookingRepository) exec(exec sqlx.ExtContext) sqlx.ExtContext {
	if exec != nil {
		return exec
	}
	return r.db
}

// Create inserts a booking.
func (r *BookingRepository) Create(ctx context.Context, exec sqlx.ExtContext, booking *models.Booking) error {
	if booking.ID == "" {
		booking.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	booking.CreatedAt = now
	booking.UpdatedAt = now
	const query = `INSERT INTO bookings (id, session_id, swimmer_id, parent_id, booking_type, status, authorization_id, created_by, created_at, updated_at)
VALUES (:id, :session_id, :swimmer_id, :parent_id, :booking_type, :status, :authorization_id, :created_by, :created_at, :updated_at)`
	if _, err := sqlx.NamedExecContext(ctx, r.exec(exec), query, booking); err != nil {
		return fmt.Errorf("insert booking: %w", err)
	}
	return nil
}

// FindByID returns a booking or sql.ErrNoRows.
func (r *BookingRepository) FindByID(ctx context.Context, exec sqlx.ExtContext, id string) (*models.Booking, error) {
	query := `SELECT ` + bookingColumns + ` FROM bookings WHERE id = $1`
	var booking models.Booking
	if err := sqlx.GetContext(ctx, r.exec(exec), &booking, query, id); err != nil {
		return nil, err
	}
	return &booking, nil
}

// LockByID loads the booking row FOR UPDATE.
func (r *BookingRepository) LockByID(ctx context.Context, exec sqlx.ExtContext, id string) (*models.Booking, error) {
	query := `SELECT ` + bookingColumns + ` FROM bookings WHERE id = $1 FOR UPDATE`
	var booking models.Booking
	if err := sqlx.GetContext(ctx, r.exec(exec), &booking, query, id); err != nil {
		return nil, err
	}
	return &booking, nil
}

// CountActiveBySession counts bookings holding a seat in the session.
func (r *BookingRepository) CountActiveBySession(ctx context.Context, exec sqlx.ExtContext, sessionID string) (int, error) {
	const query = `SELECT COUNT(*) FROM bookings WHERE session_id = $1 AND status = ANY($2)`
	var count int
	if err := sqlx.GetContext(ctx, r.exec(exec), &count, query, sessionID, pq.Array(models.SeatHoldingStatuses())); err != nil {
		return 0, fmt.Errorf("count session bookings: %w", err)
	}
	return count, nil
}

// ExistsActive reports whether the swimmer already holds a non-cancelled booking for the session.
func (r *BookingRepository) ExistsActive(ctx context.Context, exec sqlx.ExtContext, swimmerID, sessionID string) (bool, error) {
	const query = `SELECT 1 FROM bookings WHERE swimmer_id = $1 AND session_id = $2 AND status <> $3 LIMIT 1`
	var exists int
	if err := sqlx.GetContext(ctx, r.exec(exec), &exists, query, swimmerID, sessionID, models.BookingCancelled); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return false, nil
		}
		return false, fmt.Errorf("check active booking: %w", err)
	}
	return true, nil
}

// HasOverlap reports whether the swimmer holds a confirmed booking on a session intersecting [start, end).
func (r *BookingRepository) HasOverlap(ctx context.Context, exec sqlx.ExtContext, swimmerID string, start, end time.Time) (bool, error) {
	const query = `SELECT 1 FROM bookings b JOIN sessions s ON s.id = b.session_id
WHERE b.swimmer_id = $1 AND b.status = $2 AND s.start_time < $4 AND s.end_time > $3 LIMIT 1`
	var exists int
	if err := sqlx.GetContext(ctx, r.exec(exec), &exists, query, swimmerID, models.BookingConfirmed, start, end); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return false, nil
		}
		return false, fmt.Errorf("check overlapping booking: %w", err)
	}
	return true, nil
}

// ListConfirmedBySession returns the confirmed bookings of a session.
func (r *BookingRepository) ListConfirmedBySession(ctx context.Context, exec sqlx.ExtContext, sessionID string) ([]models.Booking, error) {
	query := `SELECT ` + bookingColumns + ` FROM bookings WHERE session_id = $1 AND status = $2 ORDER BY id`
	var bookings []models.Booking
	if err := sqlx.SelectContext(ctx, r.exec(exec), &bookings, query, sessionID, models.BookingConfirmed); err != nil {
		return nil, fmt.Errorf("list session bookings: %w", err)
	}
	return bookings, nil
}

// ListUpcomingSessionIDs returns the sessions a swimmer is confirmed into that start after the given time.
func (r *BookingRepository) ListUpcomingSessionIDs(ctx context.Context, exec sqlx.ExtContext, swimmerID string, after time.Time) ([]string, error) {
	const query = `SELECT b.session_id FROM bookings b JOIN sessions s ON s.id = b.session_id
WHERE b.swimmer_id = $1 AND b.status = $2 AND s.start_time > $3 ORDER BY s.start_time ASC`
	var ids []string
	if err := sqlx.SelectContext(ctx, r.exec(exec), &ids, query, swimmerID, models.BookingConfirmed, after); err != nil {
		return nil, fmt.Errorf("list upcoming sessions: %w", err)
	}
	return ids, nil
}

// UpdateStatus moves a booking to a non-cancel status.
func (r *BookingRepository) UpdateStatus(ctx context.Context, exec sqlx.ExtContext, id string, status models.BookingStatus) error {
	const query = `UPDATE bookings SET status = $2, updated_at = $3 WHERE id = $1`
	if _, err := r.exec(exec).ExecContext(ctx, query, id, status, time.Now().UTC()); err != nil {
		return fmt.Errorf("update booking status: %w", err)
	}
	return nil
}

// Cancel marks the booking cancelled with its metadata.
func (r *BookingRepository) Cancel(ctx context.Context, exec sqlx.ExtContext, id string, meta models.BookingCancellation) error {
	const query = `UPDATE bookings SET status = $2, cancel_reason = NULLIF($3, ''), cancel_notes = NULLIF($4, ''),
cancelled_at = $5, cancelled_by = $6, updated_at = $5 WHERE id = $1`
	if _, err := r.exec(exec).ExecContext(ctx, query, id, models.BookingCancelled, meta.Reason, meta.Notes, meta.CancelledAt, meta.CancelledBy); err != nil {
		return fmt.Errorf("cancel booking: %w", err)
	}
	return nil
}
