package models

import "time"

// FloatingStatus tracks whether a freed slot can still be claimed.
type FloatingStatus string

const (
	FloatingAvailable FloatingStatus = "available"
	FloatingClaimed   FloatingStatus = "claimed"
	FloatingExpired   FloatingStatus = "expired"
)

// FloatingSession points at a session seat freed by a cancellation.
type FloatingSession struct {
	ID                string         `db:"id" json:"id"`
	SessionID         string         `db:"session_id" json:"session_id"`
	OriginalBookingID string         `db:"original_booking_id" json:"original_booking_id"`
	OriginalSwimmerID string         `db:"original_swimmer_id" json:"original_swimmer_id"`
	AvailableUntil    time.Time      `db:"available_until" json:"available_until"`
	MonthYear         string         `db:"month_year" json:"month_year"`
	Status            FloatingStatus `db:"status" json:"status"`
	ClaimedBy         *string        `db:"claimed_by" json:"claimed_by,omitempty"`
	ClaimedBookingID  *string        `db:"claimed_booking_id" json:"claimed_booking_id,omitempty"`
	ClaimedAt         *time.Time     `db:"claimed_at" json:"claimed_at,omitempty"`
	CreatedAt         time.Time      `db:"created_at" json:"created_at"`
}

// Claimable is true when the slot is unclaimed and its window is still open at now.
func (f *FloatingSession) Claimable(now time.Time) bool {
	return f.Status == FloatingAvailable && f.ClaimedBy == nil && now.Before(f.AvailableUntil)
}

// FloatingSessionDetail joins the floating slot with its session timing.
type FloatingSessionDetail struct {
	FloatingSession
	SessionStart time.Time `db:"session_start" json:"session_start"`
	SessionEnd   time.Time `db:"session_end" json:"session_end"`
	Location     string    `db:"location" json:"location"`
	InstructorID *string   `db:"instructor_id" json:"instructor_id,omitempty"`
}

// CancellationSource records which surface issued a cancellation.
type CancellationSource string

const (
	CancelSourceParent     CancellationSource = "parent"
	CancelSourceAdmin      CancellationSource = "admin"
	CancelSourceInstructor CancellationSource = "instructor"
	CancelSourceSystem     CancellationSource = "system"
)

// Cancellation is the analytics record written for every cancelled booking.
type Cancellation struct {
	ID                 string             `db:"id" json:"id"`
	BookingID          string             `db:"booking_id" json:"booking_id"`
	SessionID          string             `db:"session_id" json:"session_id"`
	SwimmerID          string             `db:"swimmer_id" json:"swimmer_id"`
	CancelledBy        string             `db:"cancelled_by" json:"cancelled_by"`
	Source             CancellationSource `db:"source" json:"source"`
	Reason             *string            `db:"reason" json:"reason,omitempty"`
	Notes              *string            `db:"notes" json:"notes,omitempty"`
	HoursBeforeSession float64            `db:"hours_before_session" json:"hours_before_session"`
	WasLate            bool               `db:"was_late" json:"was_late"`
	MarkedFlexible     bool               `db:"marked_flexible" json:"marked_flexible"`
	FloatingSessionID  *string            `db:"floating_session_id" json:"floating_session_id,omitempty"`
	CreatedAt          time.Time          `db:"created_at" json:"created_at"`
}
