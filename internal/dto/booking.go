package dto

import (
	"github.com/simplysydnee/icanswimbeta-sub004/internal/models"
	appErrors "github.com/simplysydnee/icanswimbeta-sub004/pkg/errors"
)

// CreateBookingRequest books one swimmer into one session.
type CreateBookingRequest struct {
	SwimmerID    string             `json:"swimmer_id" validate:"required"`
	SessionID    string             `json:"session_id" validate:"required"`
	BookingType  models.BookingType `json:"booking_type" validate:"omitempty,oneof=lesson assessment"`
	NotifyParent bool               `json:"notify_parent"`
}

// BulkCreateBookingRequest books one swimmer into a series of sessions.
type BulkCreateBookingRequest struct {
	SwimmerID    string             `json:"swimmer_id" validate:"required"`
	SessionIDs   []string           `json:"session_ids" validate:"required,min=1,max=52,dive,required"`
	BookingType  models.BookingType `json:"booking_type" validate:"omitempty,oneof=lesson assessment"`
	NotifyParent bool               `json:"notify_parent"`
}

// CancelBookingRequest cancels a confirmed booking.
type CancelBookingRequest struct {
	Reason       string `json:"reason" validate:"max=500"`
	Notes        string `json:"notes" validate:"max=2000"`
	MarkFlexible bool   `json:"mark_flexible"`
	NotifyParent bool   `json:"notify_parent"`
}

// RescheduleBookingRequest moves a booking to another session.
type RescheduleBookingRequest struct {
	NewSessionID string `json:"new_session_id" validate:"required"`
	NotifyParent bool   `json:"notify_parent"`
}

// BulkAction names the per-booking operation applied by a bulk request.
type BulkAction string

const (
	BulkActionCancel   BulkAction = "cancel"
	BulkActionComplete BulkAction = "complete"
	BulkActionNoShow   BulkAction = "no_show"
)

// BulkBookingActionRequest applies one action to many bookings.
type BulkBookingActionRequest struct {
	Action       BulkAction `json:"action" validate:"required,oneof=cancel complete no_show"`
	BookingIDs   []string   `json:"booking_ids" validate:"required,min=1,max=200,dive,required"`
	Reason       string     `json:"reason" validate:"max=500"`
	Notes        string     `json:"notes" validate:"max=2000"`
	MarkFlexible bool       `json:"mark_flexible"`
	NotifyParent bool       `json:"notify_parent"`
}

// BulkItemResult is the outcome for one item of a bulk request.
type BulkItemResult struct {
	ID      string           `json:"id"`
	Success bool             `json:"success"`
	Booking *models.Booking  `json:"booking,omitempty"`
	Error   *appErrors.Error `json:"error,omitempty"`
}

// BulkResult collects per-item outcomes; the batch itself never fails as a unit.
type BulkResult struct {
	Results   []BulkItemResult `json:"results"`
	Succeeded int              `json:"succeeded"`
	Failed    int              `json:"failed"`
}

// Add records one item outcome.
func (r *BulkResult) Add(id string, booking *models.Booking, err error) {
	item := BulkItemResult{ID: id, Booking: booking, Success: err == nil}
	if err != nil {
		item.Error = appErrors.FromError(err)
		r.Failed++
	} else {
		r.Succeeded++
	}
	r.Results = append(r.Results, item)
}

// RescheduleResult pairs the cancelled and the new booking.
type RescheduleResult struct {
	Cancelled *models.Booking `json:"cancelled"`
	Booking   *models.Booking `json:"booking"`
}

// CancelResult reports the cancelled booking and any floating offer it produced.
type CancelResult struct {
	Booking  *models.Booking         `json:"booking"`
	Floating *models.FloatingSession `json:"floating_session,omitempty"`
}

// ReassignInstructorRequest moves a booking's session to another instructor.
type ReassignInstructorRequest struct {
	InstructorID  string `json:"instructor_id" validate:"required"`
	Reason        string `json:"reason" validate:"max=500"`
	ApplyToFuture bool   `json:"apply_to_future"`
}

// InstructorReassignment lists the sessions that now carry the instructor.
type InstructorReassignment struct {
	BookingID    string   `json:"booking_id"`
	InstructorID string   `json:"instructor_id"`
	SessionIDs   []string `json:"session_ids"`
}
