package handler

import (
	"context"

	"github.com/gin-gonic/gin"

	"github.com/simplysydnee/icanswimbeta-sub004/internal/dto"
	"github.com/simplysydnee/icanswimbeta-sub004/internal/models"
	"github.com/simplysydnee/icanswimbeta-sub004/pkg/response"
)

type progressService interface {
	SetSkillStatus(ctx context.Context, actor *models.Actor, swimmerID string, req dto.UpdateSkillRequest) (*dto.SkillUpdateResult, error)
	UpdateSkills(ctx context.Context, actor *models.Actor, swimmerID string, req dto.BulkSkillUpdateRequest) (*dto.BulkSkillUpdateResult, error)
	SetTargetStatus(ctx context.Context, actor *models.Actor, swimmerID string, req dto.UpdateTargetRequest) (*models.SwimmerTarget, error)
	SetStrategyUsage(ctx context.Context, actor *models.Actor, swimmerID string, req dto.UpdateStrategyRequest) (*models.SwimmerStrategy, error)
	GetSkillProgress(ctx context.Context, actor *models.Actor, swimmerID string) (*dto.SkillProgressResponse, error)
}

// ProgressHandler exposes skill tracking endpoints.
type ProgressHandler struct {
	service progressService
}

// NewProgressHandler builds a new handler.
func NewProgressHandler(service progressService) *ProgressHandler {
	return &ProgressHandler{service: service}
}

// Skills godoc
// @Summary Current and next level skills for a swimmer
// @Tags Progress
// @Produce json
// @Param id path string true "Swimmer ID"
// @Success 200 {object} response.Envelope
// @Router /swimmers/{id}/skills [get]
func (h *ProgressHandler) Skills(c *gin.Context) {
	result, err := h.service.GetSkillProgress(c.Request.Context(), actorFromContext(c), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, result)
}

// SetSkill godoc
// @Summary Set a swimmer's status on one skill
// @Tags Progress
// @Accept json
// @Produce json
// @Param id path string true "Swimmer ID"
// @Param skillId path string true "Skill ID"
// @Param payload body dto.UpdateSkillRequest true "Skill status"
// @Success 200 {object} response.Envelope
// @Router /swimmers/{id}/skills/{skillId} [put]
func (h *ProgressHandler) SetSkill(c *gin.Context) {
	var req dto.UpdateSkillRequest
	if !bindJSON(c, &req, "invalid skill payload") {
		return
	}
	req.SkillID = c.Param("skillId")
	result, err := h.service.SetSkillStatus(c.Request.Context(), actorFromContext(c), c.Param("id"), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, result)
}

// UpdateSkills godoc
// @Summary Update several skills for a swimmer
// @Tags Progress
// @Accept json
// @Produce json
// @Param id path string true "Swimmer ID"
// @Param payload body dto.BulkSkillUpdateRequest true "Skill updates"
// @Success 207 {object} response.Envelope
// @Router /swimmers/{id}/skills [patch]
func (h *ProgressHandler) UpdateSkills(c *gin.Context) {
	var req dto.BulkSkillUpdateRequest
	if !bindJSON(c, &req, "invalid skill updates payload") {
		return
	}
	result, err := h.service.UpdateSkills(c.Request.Context(), actorFromContext(c), c.Param("id"), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.MultiStatus(c, result, bulkMeta(result.Succeeded, result.Failed))
}

// SetTarget godoc
// @Summary Set a swimmer's status on one target
// @Tags Progress
// @Accept json
// @Produce json
// @Param id path string true "Swimmer ID"
// @Param targetId path string true "Target ID"
// @Param payload body dto.UpdateTargetRequest true "Target status"
// @Success 200 {object} response.Envelope
// @Router /swimmers/{id}/targets/{targetId} [put]
func (h *ProgressHandler) SetTarget(c *gin.Context) {
	var req dto.UpdateTargetRequest
	if !bindJSON(c, &req, "invalid target payload") {
		return
	}
	req.TargetID = c.Param("targetId")
	result, err := h.service.SetTargetStatus(c.Request.Context(), actorFromContext(c), c.Param("id"), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, result)
}

// SetStrategy godoc
// @Summary Record whether a strategy is used for a swimmer
// @Tags Progress
// @Accept json
// @Produce json
// @Param id path string true "Swimmer ID"
// @Param strategyId path string true "Strategy ID"
// @Param payload body dto.UpdateStrategyRequest true "Strategy usage"
// @Success 200 {object} response.Envelope
// @Router /swimmers/{id}/strategies/{strategyId} [put]
func (h *ProgressHandler) SetStrategy(c *gin.Context) {
	var req dto.UpdateStrategyRequest
	if !bindJSON(c, &req, "invalid strategy payload") {
		return
	}
	req.StrategyID = c.Param("strategyId")
	result, err := h.service.SetStrategyUsage(c.Request.Context(), actorFromContext(c), c.Param("id"), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, result)
}
