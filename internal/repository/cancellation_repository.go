package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/simplysydnee/icanswimbeta-sub004/internal/models"
)

// CancellationRepository writes the cancellation log.
type CancellationRepository struct {
	db *sqlx.DB
}

// NewCancellationRepository constructs the repository.
func NewCancellationRepository(db *sqlx.DB) *CancellationRepository {
	return &CancellationRepository{db: db}
}

// Create inserts a cancellation record.
func (r *CancellationRepository) Create(ctx context.Context, exec sqlx.ExtContext, record *models.Cancellation) error {
	if exec == nil {
		exec = r.db
	}
	if record.ID == "" {
		record.ID = uuid.NewString()
	}
	if record.CreatedAt.IsZero() {
		record.CreatedAt = time.Now().UTC()
	}
	const query = `INSERT INTO cancellations (id, booking_id, session_id, swimmer_id, cancelled_by, source, reason, notes,
hours_before_session, was_late, marked_flexible, floating_session_id, created_at)
VALUES (:id, :booking_id, :session_id, :swimmer_id, :cancelled_by, :source, :reason, :notes, :hours_before_session,
:was_late, :marked_flexible, :floating_session_id, :created_at)`
	if _, err := sqlx.NamedExecContext(ctx, exec, query, record); err != nil {
		return fmt.Errorf("insert cancellation: %w", err)
	}
	return nil
}
