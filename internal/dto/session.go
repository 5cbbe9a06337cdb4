package dto

import (
	"time"

	"github.com/simplysydnee/icanswimbeta-sub004/internal/models"
)

// CreateSessionRequest schedules a lesson slot.
type CreateSessionRequest struct {
	StartTime    time.Time `json:"start_time" validate:"required"`
	EndTime      time.Time `json:"end_time" validate:"required,gtfield=StartTime"`
	InstructorID *string   `json:"instructor_id"`
	Location     string    `json:"location" validate:"max=200"`
	MaxCapacity  int       `json:"max_capacity" validate:"required,min=1,max=20"`
	IsRecurring  bool      `json:"is_recurring"`
}

// CancelSessionRequest closes a session and cancels its bookings.
type CancelSessionRequest struct {
	Reason string `json:"reason" validate:"required,max=500"`
}

// CancelSessionResult reports the closed session and the bookings it released.
type CancelSessionResult struct {
	Session   *models.Session `json:"session"`
	Cancelled []string        `json:"cancelled_booking_ids"`
}

// SessionQuery is bound from list query parameters.
type SessionQuery struct {
	From         *time.Time `form:"from" time_format:"2006-01-02T15:04:05Z07:00"`
	To           *time.Time `form:"to" time_format:"2006-01-02T15:04:05Z07:00"`
	InstructorID string     `form:"instructor_id"`
	OnlyOpen     bool       `form:"open"`
	Page         int        `form:"page"`
	PageSize     int        `form:"page_size"`
}
