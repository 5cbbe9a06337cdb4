package repository

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"

	"github.com/simplysydnee/icanswimbeta-sub004/internal/models"
)

// CurriculumRepository reads the immutable reference data: levels, skills, targets and strategies.
type CurriculumRepository struct {
	db *sqlx.DB
}

// NewCurriculumRepository constructs the repository.
func NewCurriculumRepository(db *sqlx.DB) *CurriculumRepository {
	return &CurriculumRepository{db: db}
}

func (r *CurriculumRepository) exec(exec sqlx.ExtContext) sqlx.ExtContext {
	if exec != nil {
		return exec
	}
	return r.db
}

// ListLevels returns every level ordered by sequence.
func (r *CurriculumRepository) ListLevels(ctx context.Context, exec sqlx.ExtContext) ([]models.SwimLevel, error) {
	const query = `SELECT id, name, display_name, sequence, created_at FROM swim_levels ORDER BY sequence ASC`
	var levels []models.SwimLevel
	if err := sqlx.SelectContext(ctx, r.exec(exec), &levels, query); err != nil {
		return nil, fmt.Errorf("list swim levels: %w", err)
	}
	return levels, nil
}

// FindSkill returns a skill or sql.ErrNoRows.
func (r *CurriculumRepository) FindSkill(ctx context.Context, exec sqlx.ExtContext, id string) (*models.Skill, error) {
	const query = `SELECT id, level_id, name, description, sequence, created_at FROM skills WHERE id = $1`
	var skill models.Skill
	if err := sqlx.GetContext(ctx, r.exec(exec), &skill, query, id); err != nil {
		return nil, err
	}
	return &skill, nil
}

// FindTarget returns a target or sql.ErrNoRows.
func (r *CurriculumRepository) FindTarget(ctx context.Context, exec sqlx.ExtContext, id string) (*models.Target, error) {
	const query = `SELECT id, name, description, created_at FROM targets WHERE id = $1`
	var target models.Target
	if err := sqlx.GetContext(ctx, r.exec(exec), &target, query, id); err != nil {
		return nil, err
	}
	return &target, nil
}

// FindStrategy returns a strategy or sql.ErrNoRows.
func (r *CurriculumRepository) FindStrategy(ctx context.Context, exec sqlx.ExtContext, id string) (*models.Strategy, error) {
	const query = `SELECT id, name, description, created_at FROM strategies WHERE id = $1`
	var strategy models.Strategy
	if err := sqlx.GetContext(ctx, r.exec(exec), &strategy, query, id); err != nil {
		return nil, err
	}
	return &strategy, nil
}
