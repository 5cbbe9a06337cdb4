package dto

import "github.com/simplysydnee/icanswimbeta-sub004/internal/models"

// ClaimFloatingSessionRequest books a flexible swimmer into a freed slot.
type ClaimFloatingSessionRequest struct {
	SwimmerID    string `json:"swimmer_id" validate:"required"`
	NotifyParent bool   `json:"notify_parent"`
}

// ClaimResult pairs the consumed floating slot with the new booking.
type ClaimResult struct {
	Floating *models.FloatingSession `json:"floating_session"`
	Booking  *models.Booking         `json:"booking"`
}
