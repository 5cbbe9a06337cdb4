package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/simplysydnee/icanswimbeta-sub004/internal/models"
)

// ProgressRepository persists per-swimmer skill, target and strategy rows.
type ProgressRepository struct {
	db *sqlx.DB
}

// NewProgressRepository constructs the repository.
func NewProgressRepository(db *sqlx.DB) *ProgressRepository {
	return &ProgressRepository{db: db}
}

func (r *ProgressRepository) exec(exec sqlx.ExtContext) sqlx.ExtContext {
	if exec != nil {
		return exec
	}
	return r.db
}

// FindSwimmerSkill returns the row or sql.ErrNoRows when it was never written.
func (r *ProgressRepository) FindSwimmerSkill(ctx context.Context, exec sqlx.ExtContext, swimmerID, skillID string) (*models.SwimmerSkill, error) {
	const query = `SELECT id, swimmer_id, skill_id, status, date_started, date_mastered, notes, updated_by, created_at, updated_at
FROM swimmer_skills WHERE swimmer_id = $1 AND skill_id = $2 FOR UPDATE`
	var row models.SwimmerSkill
	if err := sqlx.GetContext(ctx, r.exec(exec), &row, query, swimmerID, skillID); err != nil {
		return nil, err
	}
	return &row, nil
}

// UpsertSwimmerSkill inserts or replaces the (swimmer, skill) row.
func (r *ProgressRepository) UpsertSwimmerSkill(ctx context.Context, exec sqlx.ExtContext, row *models.SwimmerSkill) error {
	if row.ID == "" {
		row.ID = uuid.NewString()
	}
	if row.CreatedAt.IsZero() {
		row.CreatedAt = time.Now().UTC()
	}
	const query = `INSERT INTO swimmer_skills (id, swimmer_id, skill_id, status, date_started, date_mastered, notes, updated_by, created_at, updated_at)
VALUES (:id, :swimmer_id, :skill_id, :status, :date_started, :date_mastered, :notes, :updated_by, :created_at, :updated_at)
ON CONFLICT (swimmer_id, skill_id) DO UPDATE SET status = EXCLUDED.status, date_started = EXCLUDED.date_started,
date_mastered = EXCLUDED.date_mastered, notes = EXCLUDED.notes, updated_by = EXCLUDED.updated_by, updated_at = EXCLUDED.updated_at`
	if _, err := sqlx.NamedExecContext(ctx, r.exec(exec), query, row); err != nil {
		return fmt.Errorf("upsert swimmer skill: %w", err)
	}
	return nil
}

// ListLevelProgress returns every skill of a level with the swimmer's status; absent rows read as not_started.
func (r *ProgressRepository) ListLevelProgress(ctx context.Context, exec sqlx.ExtContext, swimmerID, levelID string) ([]models.SkillProgress, error) {
	const query = `SELECT sk.id, sk.level_id, sk.name, sk.description, sk.sequence, sk.created_at,
COALESCE(ss.status, 'not_started') AS status, ss.date_started, ss.date_mastered
FROM skills sk LEFT JOIN swimmer_skills ss ON ss.skill_id = sk.id AND ss.swimmer_id = $1
WHERE sk.level_id = $2 ORDER BY sk.sequence ASC`
	var rows []models.SkillProgress
	if err := sqlx.SelectContext(ctx, r.exec(exec), &rows, query, swimmerID, levelID); err != nil {
		return nil, fmt.Errorf("list level progress: %w", err)
	}
	return rows, nil
}

// FindSwimmerTarget returns the row or sql.ErrNoRows.
func (r *ProgressRepository) FindSwimmerTarget(ctx context.Context, exec sqlx.ExtContext, swimmerID, targetID string) (*models.SwimmerTarget, error) {
	const query = `SELECT id, swimmer_id, target_id, status, date_met, notes, updated_by, created_at, updated_at
FROM swimmer_targets WHERE swimmer_id = $1 AND target_id = $2 FOR UPDATE`
	var row models.SwimmerTarget
	if err := sqlx.GetContext(ctx, r.exec(exec), &row, query, swimmerID, targetID); err != nil {
		return nil, err
	}
	return &row, nil
}

// UpsertSwimmerTarget inserts or replaces the (swimmer, target) row.
func (r *ProgressRepository) UpsertSwimmerTarget(ctx context.Context, exec sqlx.ExtContext, row *models.SwimmerTarget) error {
	if row.ID == "" {
		row.ID = uuid.NewString()
	}
	if row.CreatedAt.IsZero() {
		row.CreatedAt = time.Now().UTC()
	}
	const query = `INSERT INTO swimmer_targets (id, swimmer_id, target_id, status, date_met, notes, updated_by, created_at, updated_at)
VALUES (:id, :swimmer_id, :target_id, :status, :date_met, :notes, :updated_by, :created_at, :updated_at)
ON CONFLICT (swimmer_id, target_id) DO UPDATE SET status = EXCLUDED.status, date_met = EXCLUDED.date_met,
notes = EXCLUDED.notes, updated_by = EXCLUDED.updated_by, updated_at = EXCLUDED.updated_at`
	if _, err := sqlx.NamedExecContext(ctx, r.exec(exec), query, row); err != nil {
		return fmt.Errorf("upsert swimmer target: %w", err)
	}
	return nil
}

// FindSwimmerStrategy returns the row or sql.ErrNoRows.
func (r *ProgressRepository) FindSwimmerStrategy(ctx context.Context, exec sqlx.ExtContext, swimmerID, strategyID string) (*models.SwimmerStrategy, error) {
	const query = `SELECT id, swimmer_id, strategy_id, is_used, notes, updated_by, created_at, updated_at
FROM swimmer_strategies WHERE swimmer_id = $1 AND strategy_id = $2 FOR UPDATE`
	var row models.SwimmerStrategy
	if err := sqlx.GetContext(ctx, r.exec(exec), &row, query, swimmerID, strategyID); err != nil {
		return nil, err
	}
	return &row, nil
}

// UpsertSwimmerStrategy inserts or replaces the (swimmer, strategy) row.
func (r *ProgressRepository) UpsertSwimmerStrategy(ctx context.Context, exec sqlx.ExtContext, row *models.SwimmerStrategy) error {
	if row.ID == "" {
		row.ID = uuid.NewString()
	}
	if row.CreatedAt.IsZero() {
		row.CreatedAt = time.Now().UTC()
	}
	const query = `INSERT INTO swimmer_strategies (id, swimmer_id, strategy_id, is_used, notes, updated_by, created_at, updated_at)
VALUES (:id, :swimmer_id, :strategy_id, :is_used, :notes, :updated_by, :created_at, :updated_at)
ON CONFLICT (swimmer_id, strategy_id) DO UPDATE SET is_used = EXCLUDED.is_used, notes = EXCLUDED.notes,
updated_by = EXCLUDED.updated_by, updated_at = EXCLUDED.updated_at`
	if _, err := sqlx.NamedExecContext(ctx, r.exec(exec), query, row); err != nil {
		return fmt.Errorf("upsert swimmer strategy: %w", err)
	}
	return nil
}
