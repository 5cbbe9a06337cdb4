package service

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/simplysydnee/icanswimbeta-sub004/internal/models"
	appErrors "github.com/simplysydnee/icanswimbeta-sub004/pkg/errors"
)

type txProvider interface {
	BeginTxx(ctx context.Context, opts *sql.TxOptions) (*sqlx.Tx, error)
}

type swimmerStore interface {
	FindByID(ctx context.Context, exec sqlx.ExtContext, id string) (*models.Swimmer, error)
	LockByID(ctx context.Context, exec sqlx.ExtContext, id string) (*models.Swimmer, error)
	MarkFlexible(ctx context.Context, exec sqlx.ExtContext, id string, flag models.FlexibleFlag) error
	UpdateAssessmentStatus(ctx context.Context, exec sqlx.ExtContext, id string, status models.AssessmentStatus) error
	UpdateAuthorizationWorkflow(ctx context.Context, exec sqlx.ExtContext, id string, status models.AuthorizationWorkflow) error
	UpdateCurrentLevel(ctx context.Context, exec sqlx.ExtContext, id, levelID string) error
}

type sessionStore interface {
	Create(ctx context.Context, exec sqlx.ExtContext, session *models.Session) error
	FindByID(ctx context.Context, exec sqlx.ExtContext, id string) (*models.Session, error)
	LockByID(ctx context.Context, exec sqlx.ExtContext, id string) (*models.Session, error)
	LockMany(ctx context.Context, exec sqlx.ExtContext, ids []string) (map[string]*models.Session, error)
	List(ctx context.Context, filter models.SessionFilter) ([]models.Session, int, error)
	UpdateCounters(ctx context.Context, exec sqlx.ExtContext, session *models.Session) error
	UpdateStatus(ctx context.Context, exec sqlx.ExtContext, id string, status models.SessionStatus) error
	UpdateInstructor(ctx context.Context, exec sqlx.ExtContext, ids []string, instructorID string) error
}

type bookingStore interface {
	Create(ctx context.Context, exec sqlx.ExtContext, booking *models.Booking) error
	FindByID(ctx context.Context, exec sqlx.ExtContext, id string) (*models.Booking, error)
	LockByID(ctx context.Context, exec sqlx.ExtContext, id string) (*models.Booking, error)
	CountActiveBySession(ctx context.Context, exec sqlx.ExtContext, sessionID string) (int, error)
	ExistsActive(ctx context.Context, exec sqlx.ExtContext, swimmerID, sessionID string) (bool, error)
	HasOverlap(ctx context.Context, exec sqlx.ExtContext, swimmerID string, start, end time.Time) (bool, error)
	ListConfirmedBySession(ctx context.Context, exec sqlx.ExtContext, sessionID string) ([]models.Booking, error)
	ListUpcomingSessionIDs(ctx context.Context, exec sqlx.ExtContext, swimmerID string, after time.Time) ([]string, error)
	UpdateStatus(ctx context.Context, exec sqlx.ExtContext, id string, status models.BookingStatus) error
	Cancel(ctx context.Context, exec sqlx.ExtContext, id string, meta models.BookingCancellation) error
}

type authorizationStore interface {
	Create(ctx context.Context, exec sqlx.ExtContext, auth *models.FundingAuthorization) error
	FindByID(ctx context.Context, exec sqlx.ExtContext, id string) (*models.FundingAuthorization, error)
	LockByID(ctx context.Context, exec sqlx.ExtContext, id string) (*models.FundingAuthorization, error)
	FindActiveForSwimmer(ctx context.Context, exec sqlx.ExtContext, swimmerID string, at time.Time) (*models.FundingAuthorization, error)
	LockActiveForSwimmer(ctx context.Context, exec sqlx.ExtContext, swimmerID string, at time.Time) (*models.FundingAuthorization, error)
	FindPendingForSwimmer(ctx context.Context, exec sqlx.ExtContext, swimmerID string) (*models.FundingAuthorization, error)
	FindLatestForSwimmer(ctx context.Context, exec sqlx.ExtContext, swimmerID string) (*models.FundingAuthorization, error)
	ListBySwimmer(ctx context.Context, swimmerID string) ([]models.FundingAuthorization, error)
	UpdateUsage(ctx context.Context, exec sqlx.ExtContext, auth *models.FundingAuthorization) error
	UpdateStatus(ctx context.Context, exec sqlx.ExtContext, id string, status models.AuthorizationStatus) error
}

type floatingStore interface {
	Create(ctx context.Context, exec sqlx.ExtContext, floating *models.FloatingSession) error
	LockByID(ctx context.Context, exec sqlx.ExtContext, id string) (*models.FloatingSession, error)
	MarkClaimed(ctx context.Context, exec sqlx.ExtContext, id, swimmerID, bookingID string, at time.Time) error
	ListOpen(ctx context.Context, now time.Time) ([]models.FloatingSessionDetail, error)
	ExpireBefore(ctx context.Context, now time.Time) (int64, error)
}

type cancellationLog interface {
	Create(ctx context.Context, exec sqlx.ExtContext, record *models.Cancellation) error
}

type curriculumStore interface {
	ListLevels(ctx context.Context, exec sqlx.ExtContext) ([]models.SwimLevel, error)
	FindSkill(ctx context.Context, exec sqlx.ExtContext, id string) (*models.Skill, error)
	FindTarget(ctx context.Context, exec sqlx.ExtContext, id string) (*models.Target, error)
	FindStrategy(ctx context.Context, exec sqlx.ExtContext, id string) (*models.Strategy, error)
}

type progressStore interface {
	FindSwimmerSkill(ctx context.Context, exec sqlx.ExtContext, swimmerID, skillID string) (*models.SwimmerSkill, error)
	UpsertSwimmerSkill(ctx context.Context, exec sqlx.ExtContext, row *models.SwimmerSkill) error
	ListLevelProgress(ctx context.Context, exec sqlx.ExtContext, swimmerID, levelID string) ([]models.SkillProgress, error)
	FindSwimmerTarget(ctx context.Context, exec sqlx.ExtContext, swimmerID, targetID string) (*models.SwimmerTarget, error)
	UpsertSwimmerTarget(ctx context.Context, exec sqlx.ExtContext, row *models.SwimmerTarget) error
	FindSwimmerStrategy(ctx context.Context, exec sqlx.ExtContext, swimmerID, strategyID string) (*models.SwimmerStrategy, error)
	UpsertSwimmerStrategy(ctx context.Context, exec sqlx.ExtContext, row *models.SwimmerStrategy) error
}

// ownsSwimmer allows staff and the swimmer's own parent.
func ownsSwimmer(actor *models.Actor, swimmer *models.Swimmer) error {
	if actor.IsStaff() || (actor != nil && swimmer.ParentID == actor.ID) {
		return nil
	}
	return appErrors.Clone(appErrors.ErrForbidden, "swimmer belongs to another family")
}

// loadErr maps a repository read failure to NOT_FOUND or INTERNAL_ERROR.
func loadErr(err error, what string) error {
	if errors.Is(err, sql.ErrNoRows) {
		return appErrors.Clone(appErrors.ErrNotFound, what+" not found")
	}
	return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load "+what)
}

// internalErr wraps a write failure, keeping typed errors untouched.
func internalErr(err error, message string) error {
	var typed *appErrors.Error
	if errors.As(err, &typed) {
		return err
	}
	return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, message)
}
