package handler

import (
	"context"

	"github.com/gin-gonic/gin"

	"github.com/simplysydnee/icanswimbeta-sub004/internal/dto"
	"github.com/simplysydnee/icanswimbeta-sub004/internal/models"
	"github.com/simplysydnee/icanswimbeta-sub004/pkg/response"
)

type bookingService interface {
	Get(ctx context.Context, actor *models.Actor, id string) (*models.Booking, error)
	Create(ctx context.Context, actor *models.Actor, req dto.CreateBookingRequest) (*models.Booking, error)
	BulkCreate(ctx context.Context, actor *models.Actor, req dto.BulkCreateBookingRequest) (*dto.BulkResult, error)
	Cancel(ctx context.Context, actor *models.Actor, id string, req dto.CancelBookingRequest) (*dto.CancelResult, error)
	Reschedule(ctx context.Context, actor *models.Actor, id string, req dto.RescheduleBookingRequest) (*dto.RescheduleResult, error)
	MarkCompleted(ctx context.Context, actor *models.Actor, id string) (*models.Booking, error)
	MarkNoShow(ctx context.Context, actor *models.Actor, id string) (*models.Booking, error)
	Bulk(ctx context.Context, actor *models.Actor, req dto.BulkBookingActionRequest) (*dto.BulkResult, error)
	ReassignInstructor(ctx context.Context, actor *models.Actor, id string, req dto.ReassignInstructorRequest) (*dto.InstructorReassignment, error)
}

// BookingHandler exposes booking lifecycle endpoints.
type BookingHandler struct {
	service bookingService
}

// NewBookingHandler builds a new handler.
func NewBookingHandler(service bookingService) *BookingHandler {
	return &BookingHandler{service: service}
}

// Create godoc
// @Summary Book a swimmer into a session
// @Tags Bookings
// @Accept json
// @Produce json
// @Param payload body dto.CreateBookingRequest true "Booking payload"
// @Success 201 {object} response.Envelope
// @Failure 409 {object} response.Envelope
// @Failure 422 {object} response.Envelope
// @Router /bookings [post]
func (h *BookingHandler) Create(c *gin.Context) {
	var req dto.CreateBookingRequest
	if !bindJSON(c, &req, "invalid booking payload") {
		return
	}
	booking, err := h.service.Create(c.Request.Context(), actorFromContext(c), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, booking)
}

// BulkCreate godoc
// @Summary Book a swimmer into a series of sessions
// @Tags Bookings
// @Accept json
// @Produce json
// @Param payload body dto.BulkCreateBookingRequest true "Series payload"
// @Success 207 {object} response.Envelope
// @Router /bookings/bulk-create [post]
func (h *BookingHandler) BulkCreate(c *gin.Context) {
	var req dto.BulkCreateBookingRequest
	if !bindJSON(c, &req, "invalid bulk booking payload") {
		return
	}
	result, err := h.service.BulkCreate(c.Request.Context(), actorFromContext(c), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.MultiStatus(c, result, bulkMeta(result.Succeeded, result.Failed))
}

// Get godoc
// @Summary Get a booking
// @Tags Bookings
// @Produce json
// @Param id path string true "Booking ID"
// @Success 200 {object} response.Envelope
// @Router /bookings/{id} [get]
func (h *BookingHandler) Get(c *gin.Context) {
	booking, err := h.service.Get(c.Request.Context(), actorFromContext(c), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, booking)
}

// Cancel godoc
// @Summary Cancel a booking
// @Tags Bookings
// @Accept json
// @Produce json
// @Param id path string true "Booking ID"
// @Param payload body dto.CancelBookingRequest false "Cancellation details"
// @Success 200 {object} response.Envelope
// @Failure 412 {object} response.Envelope
// @Router /bookings/{id}/cancel [post]
func (h *BookingHandler) Cancel(c *gin.Context) {
	var req dto.CancelBookingRequest
	if !bindOptionalJSON(c, &req, "invalid cancellation payload") {
		return
	}
	result, err := h.service.Cancel(c.Request.Context(), actorFromContext(c), c.Param("id"), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, result)
}

// Reschedule godoc
// @Summary Move a booking to another session
// @Tags Bookings
// @Accept json
// @Produce json
// @Param id path string true "Booking ID"
// @Param payload body dto.RescheduleBookingRequest true "Target session"
// @Success 200 {object} response.Envelope
// @Router /bookings/{id}/reschedule [post]
func (h *BookingHandler) Reschedule(c *gin.Context) {
	var req dto.RescheduleBookingRequest
	if !bindJSON(c, &req, "invalid reschedule payload") {
		return
	}
	result, err := h.service.Reschedule(c.Request.Context(), actorFromContext(c), c.Param("id"), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, result)
}

// ReassignInstructor godoc
// @Summary Hand a booking's session to another instructor
// @Tags Bookings
// @Accept json
// @Produce json
// @Param id path string true "Booking ID"
// @Param payload body dto.ReassignInstructorRequest true "Instructor payload"
// @Success 200 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /bookings/{id}/instructor [patch]
func (h *BookingHandler) ReassignInstructor(c *gin.Context) {
	var req dto.ReassignInstructorRequest
	if !bindJSON(c, &req, "invalid instructor payload") {
		return
	}
	result, err := h.service.ReassignInstructor(c.Request.Context(), actorFromContext(c), c.Param("id"), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, result)
}

// Complete godoc
// @Summary Mark a booking as attended
// @Tags Bookings
// @Produce json
// @Param id path string true "Booking ID"
// @Success 200 {object} response.Envelope
// @Router /bookings/{id}/complete [post]
func (h *BookingHandler) Complete(c *gin.Context) {
	booking, err := h.service.MarkCompleted(c.Request.Context(), actorFromContext(c), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, booking)
}

// NoShow godoc
// @Summary Mark a booking as a no-show
// @Tags Bookings
// @Produce json
// @Param id path string true "Booking ID"
// @Success 200 {object} response.Envelope
// @Router /bookings/{id}/no-show [post]
func (h *BookingHandler) NoShow(c *gin.Context) {
	booking, err := h.service.MarkNoShow(c.Request.Context(), actorFromContext(c), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, booking)
}

// Bulk godoc
// @Summary Apply one action to many bookings
// @Tags Bookings
// @Accept json
// @Produce json
// @Param payload body dto.BulkBookingActionRequest true "Bulk action"
// @Success 207 {object} response.Envelope
// @Router /bookings/bulk [post]
func (h *BookingHandler) Bulk(c *gin.Context) {
	var req dto.BulkBookingActionRequest
	if !bindJSON(c, &req, "invalid bulk action payload") {
		return
	}
	result, err := h.service.Bulk(c.Request.Context(), actorFromContext(c), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.MultiStatus(c, result, bulkMeta(result.Succeeded, result.Failed))
}
