package service

import "github.com/simplysydnee/icanswimbeta-sub004/internal/models"

// EvaluatePromotion returns the level a swimmer moves to once every skill of the
// current level is mastered. It never skips levels and never promotes from a
// level without skills or from no level at all.
func EvaluatePromotion(current *models.SwimLevel, skills []models.SkillProgress, levels []models.SwimLevel) (string, bool) {
	if current == nil || len(skills) == 0 {
		return "", false
	}
	for _, skill := range skills {
		if skill.LevelID != current.ID || skill.Status != models.SkillMastered {
			return "", false
		}
	}
	next := nextLevel(current, levels)
	if next == nil {
		return "", false
	}
	return next.ID, true
}

// nextLevel returns the level with the smallest sequence above current.
func nextLevel(current *models.SwimLevel, levels []models.SwimLevel) *models.SwimLevel {
	var next *models.SwimLevel
	for i := range levels {
		candidate := &levels[i]
		if current != nil && candidate.Sequence <= current.Sequence {
			continue
		}
		if next == nil || candidate.Sequence < next.Sequence {
			next = candidate
		}
	}
	return next
}

func findLevel(id *string, levels []models.SwimLevel) *models.SwimLevel {
	if id == nil {
		return nil
	}
	for i := range levels {
		if levels[i].ID == *id {
			return &levels[i]
		}
	}
	return nil
}
