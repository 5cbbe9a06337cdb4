package dto

import (
	"time"

	"github.com/simplysydnee/icanswimbeta-sub004/internal/models"
)

// CreateAuthorizationRequest attaches a funding authorization to a swimmer.
type CreateAuthorizationRequest struct {
	SwimmerID             string                     `json:"swimmer_id" validate:"required"`
	ParentAuthorizationID *string                    `json:"parent_authorization_id"`
	AuthorizationNumber   *string                    `json:"authorization_number" validate:"omitempty,max=64"`
	AllowedLessons        int                        `json:"allowed_lessons" validate:"required,min=1,max=200"`
	StartDate             time.Time                  `json:"start_date" validate:"required"`
	EndDate               time.Time                  `json:"end_date" validate:"required,gtefield=StartDate"`
	Status                models.AuthorizationStatus `json:"status" validate:"omitempty,oneof=pending approved"`
	Notes                 *string                    `json:"notes" validate:"omitempty,max=2000"`
}

// UpdateAuthorizationStatusRequest moves an authorization through its lifecycle.
type UpdateAuthorizationStatusRequest struct {
	Status models.AuthorizationStatus `json:"status" validate:"required,oneof=pending approved completed billed closed"`
}

// EligibilityResponse is the funding verdict for a swimmer.
type EligibilityResponse struct {
	SwimmerID     string                        `json:"swimmer_id"`
	Eligibility   models.Eligibility            `json:"eligibility"`
	Workflow      models.AuthorizationWorkflow  `json:"workflow_status"`
	Authorization *models.AuthorizationSnapshot `json:"authorization,omitempty"`
}
