package models

import "time"

// BookingStatus is the state of a booking.
type BookingStatus string

const (
	BookingConfirmed BookingStatus = "confirmed"
	BookingCompleted BookingStatus = "completed"
	BookingCancelled BookingStatus = "cancelled"
	BookingNoShow    BookingStatus = "no_show"
)

var bookingTransitions = map[BookingStatus][]BookingStatus{
	BookingConfirmed: {BookingCompleted, BookingCancelled, BookingNoShow},
}

// Valid reports whether the status is known.
func (s BookingStatus) Valid() bool {
	switch s {
	case BookingConfirmed, BookingCompleted, BookingCancelled, BookingNoShow:
		return true
	}
	return false
}

// Terminal is true for statuses with no outgoing transitions.
func (s BookingStatus) Terminal() bool {
	return len(bookingTransitions[s]) == 0
}

// HoldsSeat is true when the booking counts against session capacity.
// Completed and no-show bookings keep their seat.
func (s BookingStatus) HoldsSeat() bool {
	return s != BookingCancelled
}

// SeatHoldingStatuses lists every status for which HoldsSeat is true.
func SeatHoldingStatuses() []string {
	out := make([]string, 0, 3)
	for _, s := range []BookingStatus{BookingConfirmed, BookingCompleted, BookingCancelled, BookingNoShow} {
		if s.HoldsSeat() {
			out = append(out, string(s))
		}
	}
	return out
}

// CanTransitionTo reports whether from -> to is a legal booking transition.
func (s BookingStatus) CanTransitionTo(to BookingStatus) bool {
	for _, allowed := range bookingTransitions[s] {
		if allowed == to {
			return true
		}
	}
	return false
}

// BookingType distinguishes regular lessons from assessments.
type BookingType string

const (
	BookingTypeLesson     BookingType = "lesson"
	BookingTypeAssessment BookingType = "assessment"
)

// Valid reports whether the type is known.
func (t BookingType) Valid() bool {
	return t == BookingTypeLesson || t == BookingTypeAssessment
}

// Booking links one swimmer to one session.
type Booking struct {
	ID              string        `db:"id" json:"id"`
	SessionID       string        `db:"session_id" json:"session_id"`
	SwimmerID       string        `db:"swimmer_id" json:"swimmer_id"`
	ParentID        string        `db:"parent_id" json:"parent_id"`
	BookingType     BookingType   `db:"booking_type" json:"booking_type"`
	Status          BookingStatus `db:"status" json:"status"`
	AuthorizationID *string       `db:"authorization_id" json:"authorization_id,omitempty"`
	CancelReason    *string       `db:"cancel_reason" json:"cancel_reason,omitempty"`
	CancelNotes     *string       `db:"cancel_notes" json:"cancel_notes,omitempty"`
	CancelledAt     *time.Time    `db:"cancelled_at" json:"cancelled_at,omitempty"`
	CancelledBy     *string       `db:"cancelled_by" json:"cancelled_by,omitempty"`
	CreatedBy       string        `db:"created_by" json:"created_by"`
	CreatedAt       time.Time     `db:"created_at" json:"created_at"`
	UpdatedAt       time.Time     `db:"updated_at" json:"updated_at"`
}

// BookingDetail enriches a booking with session timing.
type BookingDetail struct {
	Booking
	SessionStart time.Time `db:"session_start" json:"session_start"`
	SessionEnd   time.Time `db:"session_end" json:"session_end"`
}

// BookingCancellation carries the metadata written when a booking is cancelled.
type BookingCancellation struct {
	Reason      string
	Notes       string
	CancelledBy string
	CancelledAt time.Time
}
