package service

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/jmoiron/sqlx"
	"go.uber.org/zap"

	"github.com/simplysydnee/icanswimbeta-sub004/internal/dto"
	"github.com/simplysydnee/icanswimbeta-sub004/internal/models"
	"github.com/simplysydnee/icanswimbeta-sub004/pkg/database"
	appErrors "github.com/simplysydnee/icanswimbeta-sub004/pkg/errors"
)

// ProgressService records skill, target and strategy progress and fires level promotions.
type ProgressService struct {
	db         txProvider
	swimmers   swimmerStore
	curriculum curriculumStore
	progress   progressStore
	cache      *CacheService
	notifier   *NotificationService
	metrics    *MetricsService
	validator  *validator.Validate
	logger     *zap.Logger
	retry      database.RetryPolicy
	now        func() time.Time
}

// NewProgressService constructs ProgressService.
func NewProgressService(db txProvider, swimmers swimmerStore, curriculum curriculumStore, progress progressStore, cache *CacheService, notifier *NotificationService, metrics *MetricsService, validate *validator.Validate, logger *zap.Logger, retry database.RetryPolicy) *ProgressService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ProgressService{
		db:         db,
		swimmers:   swimmers,
		curriculum: curriculum,
		progress:   progress,
		cache:      cache,
		notifier:   notifier,
		metrics:    metrics,
		validator:  validate,
		logger:     logger,
		retry:      retry,
		now:        func() time.Time { return time.Now().UTC() },
	}
}

// SetSkillStatus writes one skill status and evaluates promotion in the same transaction.
func (s *ProgressService) SetSkillStatus(ctx context.Context, actor *models.Actor, swimmerID string, req dto.UpdateSkillRequest) (*dto.SkillUpdateResult, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid skill payload")
	}

	var (
		result      *dto.SkillUpdateResult
		swimmerName string
	)
	err := database.WithTx(ctx, s.db, s.retry, func(tx *sqlx.Tx) error {
		swimmer, err := s.swimmers.LockByID(ctx, tx, swimmerID)
		if err != nil {
			return loadErr(err, "swimmer")
		}
		swimmerName = swimmer.FullName()
		if _, err := s.curriculum.FindSkill(ctx, tx, req.SkillID); err != nil {
			return loadErr(err, "skill")
		}

		current, err := s.progress.FindSwimmerSkill(ctx, tx, swimmer.ID, req.SkillID)
		if err != nil && !errors.Is(err, sql.ErrNoRows) {
			return loadErr(err, "swimmer skill")
		}
		row := models.DefaultSwimmerSkill(swimmer.ID, req.SkillID)
		if current != nil {
			row = *current
		}
		updated := row.WithStatus(req.Status, req.Notes, actor.ID, s.now())
		if err := s.progress.UpsertSwimmerSkill(ctx, tx, &updated); err != nil {
			return internalErr(err, "failed to save swimmer skill")
		}

		promotion, err := s.promote(ctx, tx, swimmer)
		if err != nil {
			return err
		}
		result = &dto.SkillUpdateResult{Skill: updated, Promotion: promotion}
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.cache.Invalidate(ctx, skillProgressCacheKey(swimmerID))
	s.logger.Info("skill status updated",
		zap.String("swimmer_id", swimmerID),
		zap.String("skill_id", req.SkillID),
		zap.String("status", string(req.Status)),
		zap.String("actor_id", actor.ID),
	)
	if result.Promotion != nil {
		s.metrics.RecordPromotion()
		s.logger.Info("swimmer promoted",
			zap.String("swimmer_id", swimmerID),
			zap.String("from_level_id", result.Promotion.FromLevelID),
			zap.String("to_level_id", result.Promotion.ToLevelID),
		)
		s.notifier.Publish(EventLevelPromoted, swimmerID, map[string]interface{}{
			"swimmer_name":  swimmerName,
			"from_level_id": result.Promotion.FromLevelID,
			"to_level_id":   result.Promotion.ToLevelID,
		})
	}
	return result, nil
}

// UpdateSkills applies several skill updates, reporting each outcome.
func (s *ProgressService) UpdateSkills(ctx context.Context, actor *models.Actor, swimmerID string, req dto.BulkSkillUpdateRequest) (*dto.BulkSkillUpdateResult, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid bulk skill payload")
	}
	result := &dto.BulkSkillUpdateResult{Results: make([]dto.BulkSkillItemResult, 0, len(req.Updates))}
	for _, update := range req.Updates {
		item := dto.BulkSkillItemResult{SkillID: update.SkillID}
		updated, err := s.SetSkillStatus(ctx, actor, swimmerID, update)
		if err != nil {
			item.Error = appErrors.FromError(err)
			result.Failed++
		} else {
			item.Success = true
			item.Result = updated
			result.Succeeded++
			if updated.Promotion != nil {
				result.Promotion = updated.Promotion
			}
		}
		result.Results = append(result.Results, item)
	}
	return result, nil
}

// SetTargetStatus writes a swimmer's status on a target.
func (s *ProgressService) SetTargetStatus(ctx context.Context, actor *models.Actor, swimmerID string, req dto.UpdateTargetRequest) (*models.SwimmerTarget, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid target payload")
	}

	var updated models.SwimmerTarget
	err := database.WithTx(ctx, s.db, s.retry, func(tx *sqlx.Tx) error {
		swimmer, err := s.swimmers.LockByID(ctx, tx, swimmerID)
		if err != nil {
			return loadErr(err, "swimmer")
		}
		if _, err := s.curriculum.FindTarget(ctx, tx, req.TargetID); err != nil {
			return loadErr(err, "target")
		}
		current, err := s.progress.FindSwimmerTarget(ctx, tx, swimmer.ID, req.TargetID)
		if err != nil && !errors.Is(err, sql.ErrNoRows) {
			return loadErr(err, "swimmer target")
		}
		row := models.DefaultSwimmerTarget(swimmer.ID, req.TargetID)
		if current != nil {
			row = *current
		}
		updated = row.WithStatus(req.Status, req.Notes, actor.ID, s.now())
		if err := s.progress.UpsertSwimmerTarget(ctx, tx, &updated); err != nil {
			return internalErr(err, "failed to save swimmer target")
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	s.logger.Info("target status updated", zap.String("swimmer_id", swimmerID), zap.String("target_id", req.TargetID), zap.String("status", string(req.Status)))
	return &updated, nil
}

// SetStrategyUsage toggles whether a strategy is used with a swimmer.
func (s *ProgressService) SetStrategyUsage(ctx context.Context, actor *models.Actor, swimmerID string, req dto.UpdateStrategyRequest) (*models.SwimmerStrategy, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid strategy payload")
	}

	var updated models.SwimmerStrategy
	err := database.WithTx(ctx, s.db, s.retry, func(tx *sqlx.Tx) error {
		swimmer, err := s.swimmers.LockByID(ctx, tx, swimmerID)
		if err != nil {
			return loadErr(err, "swimmer")
		}
		if _, err := s.curriculum.FindStrategy(ctx, tx, req.StrategyID); err != nil {
			return loadErr(err, "strategy")
		}
		current, err := s.progress.FindSwimmerStrategy(ctx, tx, swimmer.ID, req.StrategyID)
		if err != nil && !errors.Is(err, sql.ErrNoRows) {
			return loadErr(err, "swimmer strategy")
		}
		row := models.DefaultSwimmerStrategy(swimmer.ID, req.StrategyID)
		if current != nil {
			row = *current
		}
		updated = row.WithUsage(*req.IsUsed, req.Notes, actor.ID, s.now())
		if err := s.progress.UpsertSwimmerStrategy(ctx, tx, &updated); err != nil {
			return internalErr(err, "failed to save swimmer strategy")
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &updated, nil
}

// GetSkillProgress returns the current and next level skills with the swimmer's status.
func (s *ProgressService) GetSkillProgress(ctx context.Context, actor *models.Actor, swimmerID string) (*dto.SkillProgressResponse, error) {
	swimmer, err := s.swimmers.FindByID(ctx, nil, swimmerID)
	if err != nil {
		return nil, loadErr(err, "swimmer")
	}
	if err := ownsSwimmer(actor, swimmer); err != nil {
		return nil, err
	}

	key := skillProgressCacheKey(swimmerID)
	var cached dto.SkillProgressResponse
	if hit, _ := s.cache.Get(ctx, key, &cached); hit {
		return &cached, nil
	}
	levels, err := s.curriculum.ListLevels(ctx, nil)
	if err != nil {
		return nil, internalErr(err, "failed to list levels")
	}

	resp := &dto.SkillProgressResponse{
		SwimmerID:     swimmer.ID,
		CurrentSkills: []models.SkillProgress{},
		NextSkills:    []models.SkillProgress{},
	}
	current := findLevel(swimmer.CurrentLevelID, levels)
	resp.CurrentLevel = current
	resp.NextLevel = nextLevel(current, levels)

	if current != nil {
		skills, err := s.progress.ListLevelProgress(ctx, nil, swimmer.ID, current.ID)
		if err != nil {
			return nil, internalErr(err, "failed to load skill progress")
		}
		if skills != nil {
			resp.CurrentSkills = skills
		}
		for _, skill := range skills {
			switch skill.Status {
			case models.SkillMastered:
				resp.MasteredCount++
			case models.SkillInProgress:
				resp.InProgressCount++
			}
		}
		resp.TotalCount = len(skills)
	}
	if resp.NextLevel != nil {
		skills, err := s.progress.ListLevelProgress(ctx, nil, swimmer.ID, resp.NextLevel.ID)
		if err != nil {
			return nil, internalErr(err, "failed to load skill progress")
		}
		if skills != nil {
			resp.NextSkills = skills
		}
	}

	_ = s.cache.Set(ctx, key, resp, 0)
	return resp, nil
}

// promote evaluates the swimmer's current level and applies a one-step promotion.
func (s *ProgressService) promote(ctx context.Context, exec sqlx.ExtContext, swimmer *models.Swimmer) (*dto.LevelPromotion, error) {
	if swimmer.CurrentLevelID == nil {
		return nil, nil
	}
	levels, err := s.curriculum.ListLevels(ctx, exec)
	if err != nil {
		return nil, internalErr(err, "failed to list levels")
	}
	current := findLevel(swimmer.CurrentLevelID, levels)
	if current == nil {
		return nil, nil
	}
	skills, err := s.progress.ListLevelProgress(ctx, exec, swimmer.ID, current.ID)
	if err != nil {
		return nil, internalErr(err, "failed to load skill progress")
	}
	nextID, ok := EvaluatePromotion(current, skills, levels)
	if !ok {
		return nil, nil
	}
	if err := s.swimmers.UpdateCurrentLevel(ctx, exec, swimmer.ID, nextID); err != nil {
		return nil, internalErr(err, "failed to promote swimmer")
	}
	swimmer.CurrentLevelID = &nextID
	return &dto.LevelPromotion{SwimmerID: swimmer.ID, FromLevelID: current.ID, ToLevelID: nextID}, nil
}
