package models

import "time"

// AuthorizationStatus is the lifecycle of a funding authorization.
type AuthorizationStatus string

const (
	AuthorizationPending   AuthorizationStatus = "pending"
	AuthorizationApproved  AuthorizationStatus = "approved"
	AuthorizationCompleted AuthorizationStatus = "completed"
	AuthorizationBilled    AuthorizationStatus = "billed"
	AuthorizationClosed    AuthorizationStatus = "closed"
)

var authorizationTransitions = map[AuthorizationStatus][]AuthorizationStatus{
	AuthorizationPending:   {AuthorizationApproved, AuthorizationClosed},
	AuthorizationApproved:  {AuthorizationCompleted, AuthorizationClosed},
	AuthorizationCompleted: {AuthorizationBilled, AuthorizationClosed},
	AuthorizationBilled:    {AuthorizationClosed},
}

// Valid reports whether the status is known.
func (s AuthorizationStatus) Valid() bool {
	switch s {
	case AuthorizationPending, AuthorizationApproved, AuthorizationCompleted, AuthorizationBilled, AuthorizationClosed:
		return true
	}
	return false
}

// CanTransitionTo reports whether from -> to is a legal authorization transition.
func (s AuthorizationStatus) CanTransitionTo(to AuthorizationStatus) bool {
	for _, allowed := range authorizationTransitions[s] {
		if allowed == to {
			return true
		}
	}
	return false
}

// FundingAuthorization is a purchase-order style grant of lesson credits.
type FundingAuthorization struct {
	ID                    string              `db:"id" json:"id"`
	SwimmerID             string              `db:"swimmer_id" json:"swimmer_id"`
	ParentAuthorizationID *string             `db:"parent_authorization_id" json:"parent_authorization_id,omitempty"`
	AuthorizationNumber   *string             `db:"authorization_number" json:"authorization_number,omitempty"`
	AllowedLessons        int                 `db:"allowed_lessons" json:"allowed_lessons"`
	LessonsBooked         int                 `db:"lessons_booked" json:"lessons_booked"`
	LessonsUsed           int                 `db:"lessons_used" json:"lessons_used"`
	StartDate             time.Time           `db:"start_date" json:"start_date"`
	EndDate               time.Time           `db:"end_date" json:"end_date"`
	Status                AuthorizationStatus `db:"status" json:"status"`
	Notes                 *string             `db:"notes" json:"notes,omitempty"`
	CreatedBy             string              `db:"created_by" json:"created_by"`
	CreatedAt             time.Time           `db:"created_at" json:"created_at"`
	UpdatedAt             time.Time           `db:"updated_at" json:"updated_at"`
}

// Covers reports whether the validity window includes the calendar day of t.
func (a *FundingAuthorization) Covers(t time.Time) bool {
	day := truncateDay(t)
	return !day.Before(truncateDay(a.StartDate)) && !day.After(truncateDay(a.EndDate))
}

// HasCredit is true while another lesson can be reserved.
func (a *FundingAuthorization) HasCredit() bool {
	return a.LessonsUsed < a.AllowedLessons && a.LessonsBooked < a.AllowedLessons
}

// Snapshot returns the caller-facing view of the authorization counters.
func (a *FundingAuthorization) Snapshot() AuthorizationSnapshot {
	start := a.StartDate
	end := a.EndDate
	return AuthorizationSnapshot{
		SwimmerID:       a.SwimmerID,
		AuthorizationID: a.ID,
		AllowedLessons:  a.AllowedLessons,
		LessonsBooked:   a.LessonsBooked,
		LessonsUsed:     a.LessonsUsed,
		StartDate:       &start,
		EndDate:         &end,
		Status:          a.Status,
	}
}

// AuthorizationSnapshot is attached to AUTHORIZATION_EXHAUSTED errors.
type AuthorizationSnapshot struct {
	SwimmerID       string                `json:"swimmer_id"`
	AuthorizationID string                `json:"authorization_id,omitempty"`
	AllowedLessons  int                   `json:"allowed_lessons"`
	LessonsBooked   int                   `json:"lessons_booked"`
	LessonsUsed     int                   `json:"lessons_used"`
	StartDate       *time.Time            `json:"start_date,omitempty"`
	EndDate         *time.Time            `json:"end_date,omitempty"`
	Status          AuthorizationStatus   `json:"status,omitempty"`
	Workflow        AuthorizationWorkflow `json:"workflow_status"`
}

// Eligibility is the funding verdict for a swimmer.
type Eligibility string

const (
	EligibilityEligible      Eligibility = "eligible"
	EligibilityExhausted     Eligibility = "exhausted"
	EligibilityNotApplicable Eligibility = "not_applicable"
)

func truncateDay(t time.Time) time.Time {
	y, m, d := t.UTC().Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}
