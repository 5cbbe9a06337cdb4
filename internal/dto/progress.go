package dto

import (
	"github.com/simplysydnee/icanswimbeta-sub004/internal/models"
	appErrors "github.com/simplysydnee/icanswimbeta-sub004/pkg/errors"
)

// UpdateSkillRequest sets a swimmer's status on one skill.
type UpdateSkillRequest struct {
	SkillID string             `json:"skill_id" validate:"required"`
	Status  models.SkillStatus `json:"status" validate:"required,oneof=not_started in_progress mastered"`
	Notes   *string            `json:"notes" validate:"omitempty,max=2000"`
}

// BulkSkillUpdateRequest applies several skill updates, each independently.
type BulkSkillUpdateRequest struct {
	Updates []UpdateSkillRequest `json:"updates" validate:"required,min=1,max=100,dive"`
}

// LevelPromotion describes a level change triggered by skill mastery.
type LevelPromotion struct {
	SwimmerID   string `json:"swimmer_id"`
	FromLevelID string `json:"from_level_id"`
	ToLevelID   string `json:"to_level_id"`
}

// SkillUpdateResult is the stored row plus any promotion it caused.
type SkillUpdateResult struct {
	Skill     models.SwimmerSkill `json:"skill"`
	Promotion *LevelPromotion     `json:"promotion,omitempty"`
}

// BulkSkillItemResult is the outcome for one skill of a bulk update.
type BulkSkillItemResult struct {
	SkillID string             `json:"skill_id"`
	Success bool               `json:"success"`
	Result  *SkillUpdateResult `json:"result,omitempty"`
	Error   *appErrors.Error   `json:"error,omitempty"`
}

// BulkSkillUpdateResult collects per-skill outcomes.
type BulkSkillUpdateResult struct {
	Results   []BulkSkillItemResult `json:"results"`
	Succeeded int                   `json:"succeeded"`
	Failed    int                   `json:"failed"`
	Promotion *LevelPromotion       `json:"promotion,omitempty"`
}

// UpdateTargetRequest sets a swimmer's status on one target.
type UpdateTargetRequest struct {
	TargetID string              `json:"target_id" validate:"required"`
	Status   models.TargetStatus `json:"status" validate:"required,oneof=not_started in_progress completed"`
	Notes    *string             `json:"notes" validate:"omitempty,max=2000"`
}

// UpdateStrategyRequest toggles a strategy for a swimmer.
type UpdateStrategyRequest struct {
	StrategyID string  `json:"strategy_id" validate:"required"`
	IsUsed     *bool   `json:"is_used" validate:"required"`
	Notes      *string `json:"notes" validate:"omitempty,max=2000"`
}

// SkillProgressResponse is the swimmer's view of the current and next level.
type SkillProgressResponse struct {
	SwimmerID       string                 `json:"swimmer_id"`
	CurrentLevel    *models.SwimLevel      `json:"current_level,omitempty"`
	NextLevel       *models.SwimLevel      `json:"next_level,omitempty"`
	CurrentSkills   []models.SkillProgress `json:"current_skills"`
	NextSkills      []models.SkillProgress `json:"next_skills"`
	MasteredCount   int                    `json:"mastered_count"`
	InProgressCount int                    `json:"in_progress_count"`
	TotalCount      int                    `json:"total_count"`
}
