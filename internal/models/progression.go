package models

import "time"

// SwimLevel is an ordered curriculum stage.
type SwimLevel struct {
	ID          string    `db:"id" json:"id"`
	Name        string    `db:"name" json:"name"`
	DisplayName string    `db:"display_name" json:"display_name"`
	Sequence    int       `db:"sequence" json:"sequence"`
	CreatedAt   time.Time `db:"created_at" json:"created_at"`
}

// Skill belongs to exactly one level.
type Skill struct {
	ID          string    `db:"id" json:"id"`
	LevelID     string    `db:"level_id" json:"level_id"`
	Name        string    `db:"name" json:"name"`
	Description *string   `db:"description" json:"description,omitempty"`
	Sequence    int       `db:"sequence" json:"sequence"`
	CreatedAt   time.Time `db:"created_at" json:"created_at"`
}

// SkillStatus is a swimmer's mastery of a skill.
type SkillStatus string

const (
	SkillNotStarted SkillStatus = "not_started"
	SkillInProgress SkillStatus = "in_progress"
	SkillMastered   SkillStatus = "mastered"
)

// Valid reports whether the status is known.
func (s SkillStatus) Valid() bool {
	switch s {
	case SkillNotStarted, SkillInProgress, SkillMastered:
		return true
	}
	return false
}

// SwimmerSkill joins a swimmer with a skill.
type SwimmerSkill struct {
	ID           string      `db:"id" json:"id"`
	SwimmerID    string      `db:"swimmer_id" json:"swimmer_id"`
	SkillID      string      `db:"skill_id" json:"skill_id"`
	Status       SkillStatus `db:"status" json:"status"`
	DateStarted  *time.Time  `db:"date_started" json:"date_started,omitempty"`
	DateMastered *time.Time  `db:"date_mastered" json:"date_mastered,omitempty"`
	Notes        *string     `db:"notes" json:"notes,omitempty"`
	UpdatedBy    *string     `db:"updated_by" json:"updated_by,omitempty"`
	CreatedAt    time.Time   `db:"created_at" json:"created_at"`
	UpdatedAt    time.Time   `db:"updated_at" json:"updated_at"`
}

// DefaultSwimmerSkill is the value an absent row reads as.
func DefaultSwimmerSkill(swimmerID, skillID string) SwimmerSkill {
	return SwimmerSkill{SwimmerID: swimmerID, SkillID: skillID, Status: SkillNotStarted}
}

// WithStatus applies a status change, keeping date_started from the first
// in_progress and clearing date_mastered when mastery is lost.
func (s SwimmerSkill) WithStatus(status SkillStatus, notes *string, actorID string, now time.Time) SwimmerSkill {
	if status == SkillInProgress && s.DateStarted == nil {
		started := now
		s.DateStarted = &started
	}
	if status == SkillMastered {
		if s.DateMastered == nil {
			mastered := now
			s.DateMastered = &mastered
		}
	} else {
		s.DateMastered = nil
	}
	s.Status = status
	if notes != nil {
		s.Notes = notes
	}
	s.UpdatedBy = &actorID
	s.UpdatedAt = now
	return s
}

// SkillProgress is one skill paired with the swimmer's status for it.
type SkillProgress struct {
	Skill
	Status       SkillStatus `db:"status" json:"status"`
	DateStarted  *time.Time  `db:"date_started" json:"date_started,omitempty"`
	DateMastered *time.Time  `db:"date_mastered" json:"date_mastered,omitempty"`
}

// Target is a reference goal that can be assigned to swimmers.
type Target struct {
	ID          string    `db:"id" json:"id"`
	Name        string    `db:"name" json:"name"`
	Description *string   `db:"description" json:"description,omitempty"`
	CreatedAt   time.Time `db:"created_at" json:"created_at"`
}

// TargetStatus tracks progress toward a target.
type TargetStatus string

const (
	TargetNotStarted TargetStatus = "not_started"
	TargetInProgress TargetStatus = "in_progress"
	TargetCompleted  TargetStatus = "completed"
)

// Valid reports whether the status is known.
func (s TargetStatus) Valid() bool {
	switch s {
	case TargetNotStarted, TargetInProgress, TargetCompleted:
		return true
	}
	return false
}

// SwimmerTarget joins a swimmer with a target.
type SwimmerTarget struct {
	ID        string       `db:"id" json:"id"`
	SwimmerID string       `db:"swimmer_id" json:"swimmer_id"`
	TargetID  string       `db:"target_id" json:"target_id"`
	Status    TargetStatus `db:"status" json:"status"`
	DateMet   *time.Time   `db:"date_met" json:"date_met,omitempty"`
	Notes     *string      `db:"notes" json:"notes,omitempty"`
	UpdatedBy *string      `db:"updated_by" json:"updated_by,omitempty"`
	CreatedAt time.Time    `db:"created_at" json:"created_at"`
	UpdatedAt time.Time    `db:"updated_at" json:"updated_at"`
}

// DefaultSwimmerTarget is the value an absent row reads as.
func DefaultSwimmerTarget(swimmerID, targetID string) SwimmerTarget {
	return SwimmerTarget{SwimmerID: swimmerID, TargetID: targetID, Status: TargetNotStarted}
}

// WithStatus applies a status change; date_met follows completion.
func (t SwimmerTarget) WithStatus(status TargetStatus, notes *string, actorID string, now time.Time) SwimmerTarget {
	if status == TargetCompleted {
		if t.DateMet == nil {
			met := now
			t.DateMet = &met
		}
	} else {
		t.DateMet = nil
	}
	t.Status = status
	if notes != nil {
		t.Notes = notes
	}
	t.UpdatedBy = &actorID
	t.UpdatedAt = now
	return t
}

// Strategy is a reference teaching strategy.
type Strategy struct {
	ID          string    `db:"id" json:"id"`
	Name        string    `db:"name" json:"name"`
	Description *string   `db:"description" json:"description,omitempty"`
	CreatedAt   time.Time `db:"created_at" json:"created_at"`
}

// SwimmerStrategy records whether a strategy is used with a swimmer.
type SwimmerStrategy struct {
	ID         string    `db:"id" json:"id"`
	SwimmerID  string    `db:"swimmer_id" json:"swimmer_id"`
	StrategyID string    `db:"strategy_id" json:"strategy_id"`
	IsUsed     bool      `db:"is_used" json:"is_used"`
	Notes      *string   `db:"notes" json:"notes,omitempty"`
	UpdatedBy  *string   `db:"updated_by" json:"updated_by,omitempty"`
	CreatedAt  time.Time `db:"created_at" json:"created_at"`
	UpdatedAt  time.Time `db:"updated_at" json:"updated_at"`
}

// DefaultSwimmerStrategy is the value an absent row reads as.
func DefaultSwimmerStrategy(swimmerID, strategyID string) SwimmerStrategy {
	return SwimmerStrategy{SwimmerID: swimmerID, StrategyID: strategyID}
}

// WithUsage sets the usage flag and attribution.
func (s SwimmerStrategy) WithUsage(used bool, notes *string, actorID string, now time.Time) SwimmerStrategy {
	s.IsUsed = used
	if notes != nil {
		s.Notes = notes
	}
	s.UpdatedBy = &actorID
	s.UpdatedAt = now
	return s
}
