package handler

import (
	"context"

	"github.com/gin-gonic/gin"

	"github.com/simplysydnee/icanswimbeta-sub004/internal/dto"
	"github.com/simplysydnee/icanswimbeta-sub004/internal/models"
	"github.com/simplysydnee/icanswimbeta-sub004/pkg/response"
)

type fundingService interface {
	CheckEligible(ctx context.Context, actor *models.Actor, swimmerID string) (*dto.EligibilityResponse, error)
	ListAuthorizations(ctx context.Context, swimmerID string) ([]models.FundingAuthorization, error)
	AttachAuthorization(ctx context.Context, actor *models.Actor, req dto.CreateAuthorizationRequest) (*models.FundingAuthorization, error)
	UpdateAuthorizationStatus(ctx context.Context, actor *models.Actor, id string, req dto.UpdateAuthorizationStatusRequest) (*models.FundingAuthorization, error)
	RequestRenewal(ctx context.Context, actor *models.Actor, swimmerID string) (*models.FundingAuthorization, bool, error)
}

// FundingHandler exposes funding authorization endpoints.
type FundingHandler struct {
	service fundingService
}

// NewFundingHandler builds a new handler.
func NewFundingHandler(service fundingService) *FundingHandler {
	return &FundingHandler{service: service}
}

// Eligibility godoc
// @Summary Check whether a swimmer may book funded lessons
// @Tags Funding
// @Produce json
// @Param id path string true "Swimmer ID"
// @Success 200 {object} response.Envelope
// @Router /swimmers/{id}/eligibility [get]
func (h *FundingHandler) Eligibility(c *gin.Context) {
	result, err := h.service.CheckEligible(c.Request.Context(), actorFromContext(c), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, result)
}

// List godoc
// @Summary List a swimmer's funding authorizations
// @Tags Funding
// @Produce json
// @Param id path string true "Swimmer ID"
// @Success 200 {object} response.Envelope
// @Router /swimmers/{id}/authorizations [get]
func (h *FundingHandler) List(c *gin.Context) {
	items, err := h.service.ListAuthorizations(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, items)
}

// Attach godoc
// @Summary Attach an authorization to a swimmer
// @Tags Funding
// @Accept json
// @Produce json
// @Param payload body dto.CreateAuthorizationRequest true "Authorization payload"
// @Success 201 {object} response.Envelope
// @Router /authorizations [post]
func (h *FundingHandler) Attach(c *gin.Context) {
	var req dto.CreateAuthorizationRequest
	if !bindJSON(c, &req, "invalid authorization payload") {
		return
	}
	auth, err := h.service.AttachAuthorization(c.Request.Context(), actorFromContext(c), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, auth)
}

// UpdateStatus godoc
// @Summary Move an authorization through its lifecycle
// @Tags Funding
// @Accept json
// @Produce json
// @Param id path string true "Authorization ID"
// @Param payload body dto.UpdateAuthorizationStatusRequest true "Target status"
// @Success 200 {object} response.Envelope
// @Router /authorizations/{id}/status [patch]
func (h *FundingHandler) UpdateStatus(c *gin.Context) {
	var req dto.UpdateAuthorizationStatusRequest
	if !bindJSON(c, &req, "invalid status payload") {
		return
	}
	auth, err := h.service.UpdateAuthorizationStatus(c.Request.Context(), actorFromContext(c), c.Param("id"), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, auth)
}

// RequestRenewal godoc
// @Summary Open a pending renewal authorization for a swimmer
// @Tags Funding
// @Produce json
// @Param id path string true "Swimmer ID"
// @Success 201 {object} response.Envelope
// @Success 200 {object} response.Envelope "An existing pending renewal"
// @Router /swimmers/{id}/authorizations/renewal [post]
func (h *FundingHandler) RequestRenewal(c *gin.Context) {
	auth, created, err := h.service.RequestRenewal(c.Request.Context(), actorFromContext(c), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	if created {
		response.Created(c, auth)
		return
	}
	response.OK(c, auth)
}
