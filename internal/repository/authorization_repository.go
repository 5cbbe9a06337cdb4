package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/simplysydnee/icanswimbeta-sub004/internal/models"
)

const authorizationColumns = `id, swimmer_id, parent_authorization_id, authorization_number, allowed_lessons, lessons_booked,
lessons_used, start_date, end_date, status, notes, created_by, created_at, updated_at`

// AuthorizationRepository persists funding authorizations.
type AuthorizationRepository struct {
	db *sqlx.DB
}

// NewAuthorizationRepository constructs the repository.
func NewAuthorizationRepository(db *sqlx.DB) *AuthorizationRepository {
	return &AuthorizationRepository{db: db}
}

func (r *AuthorizationRepository) exec(exec sqlx.ExtContext) sqlx.ExtContext {
	if exec != nil {
		return exec
	}
	return r.db
}

// Create inserts an authorization.
func (r *AuthorizationRepository) Create(ctx context.Context, exec sqlx.ExtContext, auth *models.FundingAuthorization) error {
	if auth.ID == "" {
		auth.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	auth.CreatedAt = now
	auth.UpdatedAt = now
	const query = `INSERT INTO funding_authorizations (id, swimmer_id, parent_authorization_id, authorization_number, allowed_lessons,
lessons_booked, lessons_used, start_date, end_date, status, notes, created_by, created_at, updated_at)
VALUES (:id, :swimmer_id, :parent_authorization_id, :authorization_number, :allowed_lessons, :lessons_booked, :lessons_used,
:start_date, :end_date, :status, :notes, :created_by, :created_at, :updated_at)`
	if _, err := sqlx.NamedExecContext(ctx, r.exec(exec), query, auth); err != nil {
		return fmt.Errorf("insert authorization: %w", err)
	}
	return nil
}

// FindByID returns an authorization or sql.ErrNoRows.
func (r *AuthorizationRepository) FindByID(ctx context.Context, exec sqlx.ExtContext, id string) (*models.FundingAuthorization, error) {
	query := `SELECT ` + authorizationColumns + ` FROM funding_authorizations WHERE id = $1`
	var auth models.FundingAuthorization
	if err := sqlx.GetContext(ctx, r.exec(exec), &auth, query, id); err != nil {
		return nil, err
	}
	return &auth, nil
}

// LockByID loads the authorization row FOR UPDATE.
func (r *AuthorizationRepository) LockByID(ctx context.Context, exec sqlx.ExtContext, id string) (*models.FundingAuthorization, error) {
	query := `SELECT ` + authorizationColumns + ` FROM funding_authorizations WHERE id = $1 FOR UPDATE`
	var auth models.FundingAuthorization
	if err := sqlx.GetContext(ctx, r.exec(exec), &auth, query, id); err != nil {
		return nil, err
	}
	return &auth, nil
}

// FindActiveForSwimmer returns the approved authorization covering at without locking it.
func (r *AuthorizationRepository) FindActiveForSwimmer(ctx context.Context, exec sqlx.ExtContext, swimmerID string, at time.Time) (*models.FundingAuthorization, error) {
	return r.activeForSwimmer(ctx, exec, swimmerID, at, "")
}

// LockActiveForSwimmer locks the approved authorization covering at, preferring
// one with credit left and then the one that ends first.
func (r *AuthorizationRepository) LockActiveForSwimmer(ctx context.Context, exec sqlx.ExtContext, swimmerID string, at time.Time) (*models.FundingAuthorization, error) {
	return r.activeForSwimmer(ctx, exec, swimmerID, at, " FOR UPDATE")
}

func (r *AuthorizationRepository) activeForSwimmer(ctx context.Context, exec sqlx.ExtContext, swimmerID string, at time.Time, lock string) (*models.FundingAuthorization, error) {
	query := `SELECT ` + authorizationColumns + ` FROM funding_authorizations
WHERE swimmer_id = $1 AND status = $2 AND start_date <= $3::date AND end_date >= $3::date
ORDER BY (lessons_booked < allowed_lessons AND lessons_used < allowed_lessons) DESC, end_date ASC, created_at ASC LIMIT 1` + lock
	var auth models.FundingAuthorization
	if err := sqlx.GetContext(ctx, r.exec(exec), &auth, query, swimmerID, models.AuthorizationApproved, at.UTC()); err != nil {
		return nil, err
	}
	return &auth, nil
}

// FindPendingForSwimmer returns the swimmer's pending authorization or sql.ErrNoRows.
func (r *AuthorizationRepository) FindPendingForSwimmer(ctx context.Context, exec sqlx.ExtContext, swimmerID string) (*models.FundingAuthorization, error) {
	query := `SELECT ` + authorizationColumns + ` FROM funding_authorizations WHERE swimmer_id = $1 AND status = $2 LIMIT 1`
	var auth models.FundingAuthorization
	if err := sqlx.GetContext(ctx, r.exec(exec), &auth, query, swimmerID, models.AuthorizationPending); err != nil {
		return nil, err
	}
	return &auth, nil
}

// FindLatestForSwimmer returns the authorization with the latest end date or sql.ErrNoRows.
func (r *AuthorizationRepository) FindLatestForSwimmer(ctx context.Context, exec sqlx.ExtContext, swimmerID string) (*models.FundingAuthorization, error) {
	query := `SELECT ` + authorizationColumns + ` FROM funding_authorizations WHERE swimmer_id = $1 ORDER BY end_date DESC, created_at DESC LIMIT 1`
	var auth models.FundingAuthorization
	if err := sqlx.GetContext(ctx, r.exec(exec), &auth, query, swimmerID); err != nil {
		return nil, err
	}
	return &auth, nil
}

// ListBySwimmer returns every authorization of a swimmer, newest first.
func (r *AuthorizationRepository) ListBySwimmer(ctx context.Context, swimmerID string) ([]models.FundingAuthorization, error) {
	query := `SELECT ` + authorizationColumns + ` FROM funding_authorizations WHERE swimmer_id = $1 ORDER BY start_date DESC`
	var auths []models.FundingAuthorization
	if err := r.db.SelectContext(ctx, &auths, query, swimmerID); err != nil {
		return nil, fmt.Errorf("list authorizations: %w", err)
	}
	return auths, nil
}

// UpdateUsage persists the lesson counters and status.
func (r *AuthorizationRepository) UpdateUsage(ctx context.Context, exec sqlx.ExtContext, auth *models.FundingAuthorization) error {
	auth.UpdatedAt = time.Now().UTC()
	const query = `UPDATE funding_authorizations SET lessons_booked = $2, lessons_used = $3, status = $4, updated_at = $5 WHERE id = $1`
	if _, err := r.exec(exec).ExecContext(ctx, query, auth.ID, auth.LessonsBooked, auth.LessonsUsed, auth.Status, auth.UpdatedAt); err != nil {
		return fmt.Errorf("update authorization usage: %w", err)
	}
	return nil
}

// UpdateStatus sets the authorization status.
func (r *AuthorizationRepository) UpdateStatus(ctx context.Context, exec sqlx.ExtContext, id string, status models.AuthorizationStatus) error {
	const query = `UPDATE funding_authorizations SET status = $2, updated_at = $3 WHERE id = $1`
	if _, err := r.exec(exec).ExecContext(ctx, query, id, status, time.Now().UTC()); err != nil {
		return fmt.Errorf("update authorization status: %w", err)
	}
	return nil
}
