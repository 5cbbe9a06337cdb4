package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/simplysydnee/icanswimbeta-sub004/internal/models"
)

const swimmerColumns = `id, parent_id, first_name, last_name, funding_source, current_level_id, flexible_swimmer,
flexible_swimmer_reason, flexible_swimmer_set_at, flexible_swimmer_set_by, enrollment_status, assessment_status,
authorization_status, created_at, updated_at`

// SwimmerRepository persists swimmers.
type SwimmerRepository struct {
	db *sqlx.DB
}

// NewSwimmerRepository constructs the repository.
func NewSwimmerRepository(db *sqlx.DB) *SwimmerRepository {
	return &SwimmerRepository{db: db}
}

func (r *SwimmerRepository) exec(exec sqlx.ExtContext) sqlx.ExtContext {
	if exec != nil {
		return exec
	}
	return r.db
}

// FindByID returns the swimmer or sql.ErrNoRows.
func (r *SwimmerRepository) FindByID(ctx context.Context, exec sqlx.ExtContext, id string) (*models.Swimmer, error) {
	query := `SELECT ` + swimmerColumns + ` FROM swimmers WHERE id = $1`
	var swimmer models.Swimmer
	if err := sqlx.GetContext(ctx, r.exec(exec), &swimmer, query, id); err != nil {
		return nil, err
	}
	return &swimmer, nil
}

// LockByID loads the swimmer row FOR UPDATE.
func (r *SwimmerRepository) LockByID(ctx context.Context, exec sqlx.ExtContext, id string) (*models.Swimmer, error) {
	query := `SELECT ` + swimmerColumns + ` FROM swimmers WHERE id = $1 FOR UPDATE`
	var swimmer models.Swimmer
	if err := sqlx.GetContext(ctx, r.exec(exec), &swimmer, query, id); err != nil {
		return nil, err
	}
	return &swimmer, nil
}

// MarkFlexible flags the swimmer as a flexible swimmer.
func (r *SwimmerRepository) MarkFlexible(ctx context.Context, exec sqlx.ExtContext, id string, flag models.FlexibleFlag) error {
	const query = `UPDATE swimmers SET flexible_swimmer = TRUE, flexible_swimmer_reason = $2, flexible_swimmer_set_at = $3,
flexible_swimmer_set_by = $4, updated_at = $3 WHERE id = $1`
	if _, err := r.exec(exec).ExecContext(ctx, query, id, flag.Reason, flag.SetAt, flag.SetBy); err != nil {
		return fmt.Errorf("mark swimmer flexible: %w", err)
	}
	return nil
}

// UpdateAssessmentStatus sets assessment_status.
func (r *SwimmerRepository) UpdateAssessmentStatus(ctx context.Context, exec sqlx.ExtContext, id string, status models.AssessmentStatus) error {
	const query = `UPDATE swimmers SET assessment_status = $2, updated_at = $3 WHERE id = $1`
	if _, err := r.exec(exec).ExecContext(ctx, query, id, status, time.Now().UTC()); err != nil {
		return fmt.Errorf("update assessment status: %w", err)
	}
	return nil
}

// UpdateAuthorizationWorkflow sets authorization_status.
func (r *SwimmerRepository) UpdateAuthorizationWorkflow(ctx context.Context, exec sqlx.ExtContext, id string, status models.AuthorizationWorkflow) error {
	const query = `UPDATE swimmers SET authorization_status = $2, updated_at = $3 WHERE id = $1`
	if _, err := r.exec(exec).ExecContext(ctx, query, id, status, time.Now().UTC()); err != nil {
		return fmt.Errorf("update authorization status: %w", err)
	}
	return nil
}

// UpdateCurrentLevel moves the swimmer to levelID.
func (r *SwimmerRepository) UpdateCurrentLevel(ctx context.Context, exec sqlx.ExtContext, id, levelID string) error {
	const query = `UPDATE swimmers SET current_level_id = $2, updated_at = $3 WHERE id = $1`
	if _, err := r.exec(exec).ExecContext(ctx, query, id, levelID, time.Now().UTC()); err != nil {
		return fmt.Errorf("update current level: %w", err)
	}
	return nil
}
