package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/simplysydnee/icanswimbeta-sub004/internal/models"
)

const floatingColumns = `id, session_id, original_booking_id, original_swimmer_id, available_until, month_year, status,
claimed_by, claimed_booking_id, claimed_at, created_at`

// FloatingSessionRepository persists freed session seats.
type FloatingSessionRepository struct {
	db *sqlx.DB
}

// NewFloatingSessionRepository constructs the repository.
func NewFloatingSessionRepository(db *sqlx.DB) *FloatingSessionRepository {
	return &FloatingSessionRepository{db: db}
}

func (r *FloatingSessionRepository) exec(exec sqlx.ExtContext) sqlx.ExtContext {
	if exec != nil {
		return exec
	}
	return r.db
}

// Create inserts a floating session.
func (r *FloatingSessionRepository) Create(ctx context.Context, exec sqlx.ExtContext, floating *models.FloatingSession) error {
	if floating.ID == "" {
		floating.ID = uuid.NewString()
	}
	if floating.CreatedAt.IsZero() {
		floating.CreatedAt = time.Now().UTC()
	}
	const query = `INSERT INTO floating_sessions (id, session_id, original_booking_id, original_swimmer_id, available_until, month_year, status, created_at)
VALUES (:id, :session_id, :original_booking_id, :original_swimmer_id, :available_until, :month_year, :status, :created_at)`
	if _, err := sqlx.NamedExecContext(ctx, r.exec(exec), query, floating); err != nil {
		return fmt.Errorf("insert floating session: %w", err)
	}
	return nil
}

// LockByID loads the floating session FOR UPDATE.
func (r *FloatingSessionRepository) LockByID(ctx context.Context, exec sqlx.ExtContext, id string) (*models.FloatingSession, error) {
	query := `SELECT ` + floatingColumns + ` FROM floating_sessions WHERE id = $1 FOR UPDATE`
	var floating models.FloatingSession
	if err := sqlx.GetContext(ctx, r.exec(exec), &floating, query, id); err != nil {
		return nil, err
	}
	return &floating, nil
}

// MarkClaimed records the claim. Only available rows are updated.
func (r *FloatingSessionRepository) MarkClaimed(ctx context.Context, exec sqlx.ExtContext, id, swimmerID, bookingID string, at time.Time) error {
	const query = `UPDATE floating_sessions SET status = $2, claimed_by = $3, claimed_booking_id = $4, claimed_at = $5
WHERE id = $1 AND status = $6`
	res, err := r.exec(exec).ExecContext(ctx, query, id, models.FloatingClaimed, swimmerID, bookingID, at, models.FloatingAvailable)
	if err != nil {
		return fmt.Errorf("claim floating session: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("claim floating session: %w", err)
	}
	if affected == 0 {
		return fmt.Errorf("claim floating session %s: no available row", id)
	}
	return nil
}

// ListOpen returns available floating sessions whose window is still open at now.
func (r *FloatingSessionRepository) ListOpen(ctx context.Context, now time.Time) ([]models.FloatingSessionDetail, error) {
	const query = `SELECT f.id, f.session_id, f.original_booking_id, f.original_swimmer_id, f.available_until, f.month_year, f.status,
f.claimed_by, f.claimed_booking_id, f.claimed_at, f.created_at,
s.start_time AS session_start, s.end_time AS session_end, s.location, s.instructor_id
FROM floating_sessions f JOIN sessions s ON s.id = f.session_id
WHERE f.status = $1 AND f.available_until > $2 AND s.status IN ('available', 'booked') ORDER BY s.start_time ASC`
	var list []models.FloatingSessionDetail
	if err := r.db.SelectContext(ctx, &list, query, models.FloatingAvailable, now); err != nil {
		return nil, fmt.Errorf("list open floating sessions: %w", err)
	}
	return list, nil
}

// ExpireBefore marks available rows whose window closed at or before now as expired.
func (r *FloatingSessionRepository) ExpireBefore(ctx context.Context, now time.Time) (int64, error) {
	const query = `UPDATE floating_sessions SET status = $1 WHERE status = $2 AND available_until <= $3`
	res, err := r.db.ExecContext(ctx, query, models.FloatingExpired, models.FloatingAvailable, now)
	if err != nil {
		return 0, fmt.Errorf("expire floating sessions: %w", err)
	}
	return res.RowsAffected()
}
