package models

import "time"

// SessionStatus is the lifecycle of a lesson slot.
type SessionStatus string

const (
	SessionAvailable SessionStatus = "available"
	SessionBooked    SessionStatus = "booked"
	SessionCompleted SessionStatus = "completed"
	SessionCancelled SessionStatus = "cancelled"
)

// Valid reports whether the status is known.
func (s SessionStatus) Valid() bool {
	switch s {
	case SessionAvailable, SessionBooked, SessionCompleted, SessionCancelled:
		return true
	}
	return false
}

// Open is true while the session still takes bookings.
func (s SessionStatus) Open() bool {
	return s == SessionAvailable || s == SessionBooked
}

// Session is a lesson time slot.
type Session struct {
	ID           string        `db:"id" json:"id"`
	StartTime    time.Time     `db:"start_time" json:"start_time"`
	EndTime      time.Time     `db:"end_time" json:"end_time"`
	InstructorID *string       `db:"instructor_id" json:"instructor_id,omitempty"`
	Location     string        `db:"location" json:"location"`
	MaxCapacity  int           `db:"max_capacity" json:"max_capacity"`
	BookingCount int           `db:"booking_count" json:"booking_count"`
	IsFull       bool          `db:"is_full" json:"is_full"`
	IsRecurring  bool          `db:"is_recurring" json:"is_recurring"`
	Status       SessionStatus `db:"status" json:"status"`
	CreatedAt    time.Time     `db:"created_at" json:"created_at"`
	UpdatedAt    time.Time     `db:"updated_at" json:"updated_at"`
}

// WithBookingCount returns the derived counters for a live booking count.
// Completed and cancelled sessions keep their status.
func (s Session) WithBookingCount(count int) Session {
	s.BookingCount = count
	s.IsFull = count >= s.MaxCapacity
	if s.Status.Open() {
		if count > 0 {
			s.Status = SessionBooked
		} else {
			s.Status = SessionAvailable
		}
	}
	return s
}

// Overlaps reports whether the session intersects [start, end).
func (s *Session) Overlaps(start, end time.Time) bool {
	return s.StartTime.Before(end) && start.Before(s.EndTime)
}

// SessionFilter captures listing criteria for sessions.
type SessionFilter struct {
	From         *time.Time
	To           *time.Time
	InstructorID string
	Status       SessionStatus
	OnlyOpen     bool
	Page         int
	PageSize     int
}
