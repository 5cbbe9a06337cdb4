package models

import "time"

// FundingSource classifies how a swimmer's lessons are paid for.
type FundingSource string

const (
	FundingPrivatePay        FundingSource = "private_pay"
	FundingRegionalCenter    FundingSource = "regional_center"
	FundingSelfDetermination FundingSource = "self_determination"
	FundingScholarship       FundingSource = "scholarship"
	FundingOther             FundingSource = "other"
)

// Valid reports whether the funding source is known.
func (f FundingSource) Valid() bool {
	switch f {
	case FundingPrivatePay, FundingRegionalCenter, FundingSelfDetermination, FundingScholarship, FundingOther:
		return true
	}
	return false
}

// RequiresAuthorization is true for every funder except private pay.
func (f FundingSource) RequiresAuthorization() bool {
	return f != FundingPrivatePay
}

// EnrollmentStatus tracks where a swimmer is in the intake pipeline.
type EnrollmentStatus string

const (
	EnrollmentWaitlist  EnrollmentStatus = "waitlist"
	EnrollmentPending   EnrollmentStatus = "pending_enrollment"
	EnrollmentApproved  EnrollmentStatus = "approved"
	EnrollmentEnrolled  EnrollmentStatus = "enrolled"
	EnrollmentDeclined  EnrollmentStatus = "declined"
	EnrollmentDropped   EnrollmentStatus = "dropped"
	EnrollmentSuspended EnrollmentStatus = "suspended"
)

// Valid reports whether the enrollment status is known.
func (s EnrollmentStatus) Valid() bool {
	switch s {
	case EnrollmentWaitlist, EnrollmentPending, EnrollmentApproved, EnrollmentEnrolled, EnrollmentDeclined, EnrollmentDropped, EnrollmentSuspended:
		return true
	}
	return false
}

// CanBookLessons is true for swimmers cleared for regular lessons.
func (s EnrollmentStatus) CanBookLessons() bool {
	return s == EnrollmentEnrolled || s == EnrollmentApproved
}

// CanBookAssessment is true for any swimmer still in the program.
func (s EnrollmentStatus) CanBookAssessment() bool {
	return s != EnrollmentDropped && s != EnrollmentDeclined
}

// AssessmentStatus tracks the initial assessment lifecycle.
type AssessmentStatus string

const (
	AssessmentNotScheduled AssessmentStatus = "not_scheduled"
	AssessmentScheduled    AssessmentStatus = "scheduled"
	AssessmentCompleted    AssessmentStatus = "completed"
)

// Valid reports whether the assessment status is known.
func (s AssessmentStatus) Valid() bool {
	switch s {
	case AssessmentNotScheduled, AssessmentScheduled, AssessmentCompleted:
		return true
	}
	return false
}

// AuthorizationWorkflow is the swimmer-level renewal workflow state.
type AuthorizationWorkflow string

const (
	AuthorizationEligible AuthorizationWorkflow = "eligible"
	AuthorizationNeeded   AuthorizationWorkflow = "authorization_needed"
	AuthorizationRequest  AuthorizationWorkflow = "request_sent"
)

// Valid reports whether the workflow state is known.
func (s AuthorizationWorkflow) Valid() bool {
	switch s {
	case AuthorizationEligible, AuthorizationNeeded, AuthorizationRequest:
		return true
	}
	return false
}

// Swimmer is a learner enrolled by a parent.
type Swimmer struct {
	ID                    string                `db:"id" json:"id"`
	ParentID              string                `db:"parent_id" json:"parent_id"`
	FirstName             string                `db:"first_name" json:"first_name"`
	LastName              string                `db:"last_name" json:"last_name"`
	FundingSource         FundingSource         `db:"funding_source" json:"funding_source"`
	CurrentLevelID        *string               `db:"current_level_id" json:"current_level_id,omitempty"`
	FlexibleSwimmer       bool                  `db:"flexible_swimmer" json:"flexible_swimmer"`
	FlexibleReason        *string               `db:"flexible_swimmer_reason" json:"flexible_swimmer_reason,omitempty"`
	FlexibleSetAt         *time.Time            `db:"flexible_swimmer_set_at" json:"flexible_swimmer_set_at,omitempty"`
	FlexibleSetBy         *string               `db:"flexible_swimmer_set_by" json:"flexible_swimmer_set_by,omitempty"`
	EnrollmentStatus      EnrollmentStatus      `db:"enrollment_status" json:"enrollment_status"`
	AssessmentStatus      AssessmentStatus      `db:"assessment_status" json:"assessment_status"`
	AuthorizationWorkflow AuthorizationWorkflow `db:"authorization_status" json:"authorization_status"`
	CreatedAt             time.Time             `db:"created_at" json:"created_at"`
	UpdatedAt             time.Time             `db:"updated_at" json:"updated_at"`
}

// FullName joins first and last name.
func (s *Swimmer) FullName() string {
	if s.LastName == "" {
		return s.FirstName
	}
	return s.FirstName + " " + s.LastName
}

// FlexibleFlag captures who flagged a swimmer as flexible and why.
type FlexibleFlag struct {
	Reason string
	SetBy  string
	SetAt  time.Time
}
