package handler

import (
	"context"
	"net/http"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/simplysydnee/icanswimbeta-sub004/internal/dto"
	"github.com/simplysydnee/icanswimbeta-sub004/internal/middleware"
	"github.com/simplysydnee/icanswimbeta-sub004/internal/models"
	appErrors "github.com/simplysydnee/icanswimbeta-sub004/pkg/errors"
)

type progressServiceMock struct {
	err          error
	lastActor    *models.Actor
	lastSwimmer  string
	lastSkill    dto.UpdateSkillRequest
	lastBulk     dto.BulkSkillUpdateRequest
	lastTarget   dto.UpdateTargetRequest
	lastStrategy dto.UpdateStrategyRequest
}

func (m *progressServiceMock) SetSkillStatus(_ context.Context, _ *models.Actor, swimmerID string, req dto.UpdateSkillRequest) (*dto.SkillUpdateResult, error) {
	m.lastSwimmer = swimmerID
	m.lastSkill = req
	return &dto.SkillUpdateResult{Promotion: &dto.LevelPromotion{SwimmerID: swimmerID, ToLevelID: "lvl-2"}}, nil
}

func (m *progressServiceMock) UpdateSkills(_ context.Context, _ *models.Actor, swimmerID string, req dto.BulkSkillUpdateRequest) (*dto.BulkSkillUpdateResult, error) {
	m.lastSwimmer = swimmerID
	m.lastBulk = req
	return &dto.BulkSkillUpdateResult{Succeeded: len(req.Updates)}, nil
}

func (m *progressServiceMock) SetTargetStatus(_ context.Context, _ *models.Actor, swimmerID string, req dto.UpdateTargetRequest) (*models.SwimmerTarget, error) {
	m.lastSwimmer = swimmerID
	m.lastTarget = req
	return &models.SwimmerTarget{}, nil
}

func (m *progressServiceMock) SetStrategyUsage(_ context.Context, _ *models.Actor, swimmerID string, req dto.UpdateStrategyRequest) (*models.SwimmerStrategy, error) {
	m.lastSwimmer = swimmerID
	m.lastStrategy = req
	return &models.SwimmerStrategy{}, nil
}

func (m *progressServiceMock) GetSkillProgress(_ context.Context, actor *models.Actor, swimmerID string) (*dto.SkillProgressResponse, error) {
	m.lastSwimmer = swimmerID
	m.lastActor = actor
	if m.err != nil {
		return nil, m.err
	}
	return &dto.SkillProgressResponse{SwimmerID: swimmerID, MasteredCount: 3}, nil
}

func TestProgressHandlerSkillsOtherFamily(t *testing.T) {
	parent := &models.Actor{ID: "parent-2", Roles: []models.UserRole{models.RoleParent}}
	svc := &progressServiceMock{err: appErrors.Clone(appErrors.ErrForbidden, "swimmer belongs to another family")}
	handler := NewProgressHandler(svc)

	c, w := newTestContext(http.MethodGet, "/swimmers/sw-1/skills", nil, gin.Param{Key: "id", Value: "sw-1"})
	c.Set(middleware.ContextActorKey, parent)
	handler.Skills(c)
	assert.Equal(t, http.StatusForbidden, w.Code)
	assert.Equal(t, parent, svc.lastActor)
	assert.Equal(t, "sw-1", svc.lastSwimmer)
}

func TestProgressHandlerSkillRoutesUsePathIDs(t *testing.T) {
	svc := &progressServiceMock{}
	handler := NewProgressHandler(svc)
	swimmer := gin.Param{Key: "id", Value: "sw-1"}

	c, w := newTestContext(http.MethodPut, "/swimmers/sw-1/skills/float", []byte(`{"skill_id":"ignored","status":"mastered"}`), swimmer, gin.Param{Key: "skillId", Value: "float"})
	handler.SetSkill(c)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "sw-1", svc.lastSwimmer)
	assert.Equal(t, "float", svc.lastSkill.SkillID)
	assert.Equal(t, models.SkillMastered, svc.lastSkill.Status)

	c, w = newTestContext(http.MethodPut, "/swimmers/sw-1/targets/breath", []byte(`{"status":"completed"}`), swimmer, gin.Param{Key: "targetId", Value: "breath"})
	handler.SetTarget(c)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "breath", svc.lastTarget.TargetID)

	c, w = newTestContext(http.MethodPut, "/swimmers/sw-1/strategies/visual", []byte(`{"is_used":true}`), swimmer, gin.Param{Key: "strategyId", Value: "visual"})
	handler.SetStrategy(c)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "visual", svc.lastStrategy.StrategyID)
	require.NotNil(t, svc.lastStrategy.IsUsed)
	assert.True(t, *svc.lastStrategy.IsUsed)
}

func TestProgressHandlerBulkAndView(t *testing.T) {
	svc := &progressServiceMock{}
	handler := NewProgressHandler(svc)
	swimmer := gin.Param{Key: "id", Value: "sw-1"}

	c, w := newTestContext(http.MethodPatch, "/swimmers/sw-1/skills", []byte(`{"updates":[{"skill_id":"float","status":"in_progress"},{"skill_id":"kick","status":"mastered"}]}`), swimmer)
	handler.UpdateSkills(c)
	require.Equal(t, http.StatusMultiStatus, w.Code)
	assert.Len(t, svc.lastBulk.Updates, 2)

	c, w = newTestContext(http.MethodGet, "/swimmers/sw-1/skills", nil, swimmer)
	handler.Skills(c)
	require.Equal(t, http.StatusOK, w.Code)
	data := decodeEnvelope(t, w)["data"].(map[string]interface{})
	assert.EqualValues(t, 3, data["mastered_count"])
}
