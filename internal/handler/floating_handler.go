package handler

import (
	"context"

	"github.com/gin-gonic/gin"

	"github.com/simplysydnee/icanswimbeta-sub004/internal/dto"
	"github.com/simplysydnee/icanswimbeta-sub004/internal/models"
	"github.com/simplysydnee/icanswimbeta-sub004/pkg/response"
)

type floatingService interface {
	ListOpen(ctx context.Context) ([]models.FloatingSessionDetail, error)
	Claim(ctx context.Context, actor *models.Actor, id string, req dto.ClaimFloatingSessionRequest) (*dto.ClaimResult, error)
}

// FloatingHandler exposes the floating session pool.
type FloatingHandler struct {
	service floatingService
}

// NewFloatingHandler builds a new handler.
func NewFloatingHandler(service floatingService) *FloatingHandler {
	return &FloatingHandler{service: service}
}

// List godoc
// @Summary List claimable floating sessions
// @Tags Floating
// @Produce json
// @Success 200 {object} response.Envelope
// @Router /floating-sessions [get]
func (h *FloatingHandler) List(c *gin.Context) {
	items, err := h.service.ListOpen(c.Request.Context())
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, items)
}

// Claim godoc
// @Summary Claim a floating session for a flexible swimmer
// @Tags Floating
// @Accept json
// @Produce json
// @Param id path string true "Floating session ID"
// @Param payload body dto.ClaimFloatingSessionRequest true "Claimant"
// @Success 201 {object} response.Envelope
// @Failure 409 {object} response.Envelope
// @Router /floating-sessions/{id}/claim [post]
func (h *FloatingHandler) Claim(c *gin.Context) {
	var req dto.ClaimFloatingSessionRequest
	if !bindJSON(c, &req, "invalid claim payload") {
		return
	}
	result, err := h.service.Claim(c.Request.Context(), actorFromContext(c), c.Param("id"), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, result)
}
