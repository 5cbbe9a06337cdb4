package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/jmoiron/sqlx"
	"go.uber.org/zap"

	"github.com/simplysydnee/icanswimbeta-sub004/internal/dto"
	"github.com/simplysydnee/icanswimbeta-sub004/internal/models"
	"github.com/simplysydnee/icanswimbeta-sub004/pkg/database"
	appErrors "github.com/simplysydnee/icanswimbeta-sub004/pkg/errors"
)

// FundingRules configures authorization renewals.
type FundingRules struct {
	DefaultAllowedLessons int
	AuthorizationMonths   int
}

// FundingService tracks funding authorization credits per swimmer.
type FundingService struct {
	db        txProvider
	swimmers  swimmerStore
	auths     authorizationStore
	validator *validator.Validate
	notifier  *NotificationService
	metrics   *MetricsService
	logger    *zap.Logger
	retry     database.RetryPolicy
	rules     FundingRules
	now       func() time.Time
}

// NewFundingService constructs FundingService.
func NewFundingService(db txProvider, swimmers swimmerStore, auths authorizationStore, validate *validator.Validate, notifier *NotificationService, metrics *MetricsService, logger *zap.Logger, retry database.RetryPolicy, rules FundingRules) *FundingService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	if rules.DefaultAllowedLessons <= 0 {
		rules.DefaultAllowedLessons = 12
	}
	if rules.AuthorizationMonths <= 0 {
		rules.AuthorizationMonths = 3
	}
	return &FundingService{
		db:        db,
		swimmers:  swimmers,
		auths:     auths,
		validator: validate,
		notifier:  notifier,
		metrics:   metrics,
		logger:    logger,
		retry:     retry,
		rules:     rules,
		now:       func() time.Time { return time.Now().UTC() },
	}
}

// EvaluateEligibility classifies a swimmer given its active authorization, which may be nil.
func EvaluateEligibility(swimmer *models.Swimmer, active *models.FundingAuthorization) models.Eligibility {
	if !swimmer.FundingSource.RequiresAuthorization() {
		return models.EligibilityNotApplicable
	}
	if active == nil || !active.HasCredit() {
		return models.EligibilityExhausted
	}
	return models.EligibilityEligible
}

// CheckEligible reports whether the swimmer's funding allows another booking.
func (s *FundingService) CheckEligible(ctx context.Context, actor *models.Actor, swimmerID string) (*dto.EligibilityResponse, error) {
	swimmer, err := s.swimmers.FindByID(ctx, nil, swimmerID)
	if err != nil {
		return nil, loadErr(err, "swimmer")
	}
	if err := ownsSwimmer(actor, swimmer); err != nil {
		return nil, err
	}
	resp := &dto.EligibilityResponse{SwimmerID: swimmer.ID, Workflow: swimmer.AuthorizationWorkflow}
	if !swimmer.FundingSource.RequiresAuthorization() {
		resp.Eligibility = models.EligibilityNotApplicable
		return resp, nil
	}
	active, err := s.auths.FindActiveForSwimmer(ctx, nil, swimmer.ID, s.now())
	if err != nil && !errors.Is(err, sql.ErrNoRows) {
		return nil, loadErr(err, "authorization")
	}
	resp.Eligibility = EvaluateEligibility(swimmer, active)
	if active != nil {
		snapshot := active.Snapshot()
		snapshot.Workflow = swimmer.AuthorizationWorkflow
		resp.Authorization = &snapshot
	}
	return resp, nil
}

// ListAuthorizations returns a swimmer's authorizations, newest first.
func (s *FundingService) ListAuthorizations(ctx context.Context, swimmerID string) ([]models.FundingAuthorization, error) {
	if _, err := s.swimmers.FindByID(ctx, nil, swimmerID); err != nil {
		return nil, loadErr(err, "swimmer")
	}
	auths, err := s.auths.ListBySwimmer(ctx, swimmerID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list authorizations")
	}
	return auths, nil
}

// AttachAuthorization records a new authorization. An approved one covering today
// returns the swimmer to the eligible workflow state.
func (s *FundingService) AttachAuthorization(ctx context.Context, actor *models.Actor, req dto.CreateAuthorizationRequest) (*models.FundingAuthorization, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid authorization payload")
	}
	if req.Status == "" {
		req.Status = models.AuthorizationApproved
	}

	var created *models.FundingAuthorization
	err := database.WithTx(ctx, s.db, s.retry, func(tx *sqlx.Tx) error {
		swimmer, err := s.swimmers.LockByID(ctx, tx, req.SwimmerID)
		if err != nil {
			return loadErr(err, "swimmer")
		}
		if !swimmer.FundingSource.RequiresAuthorization() {
			return appErrors.Clone(appErrors.ErrPreconditionFailed, "swimmer funding source does not use authorizations")
		}
		if req.Status == models.AuthorizationPending {
			if _, err := s.auths.FindPendingForSwimmer(ctx, tx, swimmer.ID); err == nil {
				return appErrors.Clone(appErrors.ErrConflict, "swimmer already has a pending authorization")
			} else if !errors.Is(err, sql.ErrNoRows) {
				return loadErr(err, "authorization")
			}
		}

		auth := &models.FundingAuthorization{
			SwimmerID:             swimmer.ID,
			ParentAuthorizationID: req.ParentAuthorizationID,
			AuthorizationNumber:   req.AuthorizationNumber,
			AllowedLessons:        req.AllowedLessons,
			StartDate:             startOfDay(req.StartDate),
			EndDate:               startOfDay(req.EndDate),
			Status:                req.Status,
			Notes:                 req.Notes,
			CreatedBy:             actor.ID,
		}
		if err := s.auths.Create(ctx, tx, auth); err != nil {
			if database.IsUniqueViolation(err) {
				return appErrors.Clone(appErrors.ErrConflict, "swimmer already has a pending authorization")
			}
			return internalErr(err, "failed to create authorization")
		}
		if err := s.restoreEligibility(ctx, tx, swimmer, auth); err != nil {
			return err
		}
		created = auth
		return nil
	})
	if err != nil {
		return nil, err
	}
	s.logger.Info("authorization attached",
		zap.String("authorization_id", created.ID),
		zap.String("swimmer_id", created.SwimmerID),
		zap.String("status", string(created.Status)),
		zap.Int("allowed_lessons", created.AllowedLessons),
	)
	return created, nil
}

// UpdateAuthorizationStatus moves an authorization along its lifecycle.
func (s *FundingService) UpdateAuthorizationStatus(ctx context.Context, actor *models.Actor, id string, req dto.UpdateAuthorizationStatusRequest) (*models.FundingAuthorization, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid authorization status payload")
	}
	current, err := s.auths.FindByID(ctx, nil, id)
	if err != nil {
		return nil, loadErr(err, "authorization")
	}

	var updated *models.FundingAuthorization
	err = database.WithTx(ctx, s.db, s.retry, func(tx *sqlx.Tx) error {
		swimmer, err := s.swimmers.LockByID(ctx, tx, current.SwimmerID)
		if err != nil {
			return loadErr(err, "swimmer")
		}
		auth, err := s.auths.LockByID(ctx, tx, id)
		if err != nil {
			return loadErr(err, "authorization")
		}
		if auth.Status == req.Status {
			updated = auth
			return nil
		}
		if !auth.Status.CanTransitionTo(req.Status) {
			return appErrors.WithDetails(appErrors.ErrInvalidTransition,
				fmt.Sprintf("authorization cannot move from %s to %s", auth.Status, req.Status),
				map[string]string{"from": string(auth.Status), "to": string(req.Status)})
		}
		if err := s.auths.UpdateStatus(ctx, tx, auth.ID, req.Status); err != nil {
			return internalErr(err, "failed to update authorization status")
		}
		auth.Status = req.Status
		if err := s.restoreEligibility(ctx, tx, swimmer, auth); err != nil {
			return err
		}
		updated = auth
		return nil
	})
	if err != nil {
		return nil, err
	}
	s.logger.Info("authorization status updated",
		zap.String("authorization_id", updated.ID),
		zap.String("status", string(updated.Status)),
		zap.String("actor_id", actor.ID),
	)
	return updated, nil
}

// RequestRenewal opens a pending authorization following the swimmer's latest one.
// An existing pending authorization is returned unchanged with created=false.
func (s *FundingService) RequestRenewal(ctx context.Context, actor *models.Actor, swimmerID string) (*models.FundingAuthorization, bool, error) {
	var (
		result  *models.FundingAuthorization
		created bool
	)
	err := database.WithTx(ctx, s.db, s.retry, func(tx *sqlx.Tx) error {
		created = false
		swimmer, err := s.swimmers.LockByID(ctx, tx, swimmerID)
		if err != nil {
			return loadErr(err, "swimmer")
		}
		if !swimmer.FundingSource.RequiresAuthorization() {
			return appErrors.Clone(appErrors.ErrPreconditionFailed, "swimmer funding source does not use authorizations")
		}
		if swimmer.AuthorizationWorkflow == models.AuthorizationNeeded {
			if err := s.swimmers.UpdateAuthorizationWorkflow(ctx, tx, swimmer.ID, models.AuthorizationRequest); err != nil {
				return internalErr(err, "failed to update authorization workflow")
			}
		}

		pending, err := s.auths.FindPendingForSwimmer(ctx, tx, swimmer.ID)
		if err == nil {
			result = pending
			return nil
		}
		if !errors.Is(err, sql.ErrNoRows) {
			return loadErr(err, "authorization")
		}

		latest, err := s.auths.FindLatestForSwimmer(ctx, tx, swimmer.ID)
		if err != nil && !errors.Is(err, sql.ErrNoRows) {
			return loadErr(err, "authorization")
		}
		start, end := renewalWindow(latest, s.now(), s.rules.AuthorizationMonths)
		auth := &models.FundingAuthorization{
			SwimmerID:      swimmer.ID,
			AllowedLessons: s.rules.DefaultAllowedLessons,
			StartDate:      start,
			EndDate:        end,
			Status:         models.AuthorizationPending,
			CreatedBy:      actor.ID,
		}
		if latest != nil {
			auth.ParentAuthorizationID = &latest.ID
		}
		if err := s.auths.Create(ctx, tx, auth); err != nil {
			if database.IsUniqueViolation(err) {
				return appErrors.Clone(appErrors.ErrTransientStore, "concurrent renewal request")
			}
			return internalErr(err, "failed to create renewal authorization")
		}
		result = auth
		created = true
		return nil
	})
	if err != nil {
		return nil, false, err
	}
	if created {
		s.logger.Info("authorization renewal requested", zap.String("swimmer_id", swimmerID), zap.String("authorization_id", result.ID))
		s.notifier.Publish(EventRenewalRequested, swimmerID, map[string]interface{}{
			"authorization_id": result.ID,
			"allowed_lessons":  result.AllowedLessons,
			"start_date":       result.StartDate,
			"end_date":         result.EndDate,
		})
	}
	return result, created, nil
}

// reserve books one credit on the swimmer's active authorization. It returns the
// authorization id, or nil when the swimmer's funding needs none.
func (s *FundingService) reserve(ctx context.Context, exec sqlx.ExtContext, swimmer *models.Swimmer) (*string, error) {
	if !swimmer.FundingSource.RequiresAuthorization() {
		return nil, nil
	}
	active, err := s.auths.LockActiveForSwimmer(ctx, exec, swimmer.ID, s.now())
	if err != nil && !errors.Is(err, sql.ErrNoRows) {
		return nil, loadErr(err, "authorization")
	}
	if EvaluateEligibility(swimmer, active) == models.EligibilityExhausted {
		return nil, s.exhaustedError(swimmer, active)
	}
	// An approved authorization whose window has since opened clears the renewal workflow.
	if err := s.restoreEligibility(ctx, exec, swimmer, active); err != nil {
		return nil, err
	}
	active.LessonsBooked++
	if err := s.auths.UpdateUsage(ctx, exec, active); err != nil {
		return nil, internalErr(err, "failed to reserve authorization credit")
	}
	id := active.ID
	return &id, nil
}

// release returns the credit reserved by a booking that will not be attended.
func (s *FundingService) release(ctx context.Context, exec sqlx.ExtContext, booking *models.Booking) error {
	if booking.AuthorizationID == nil {
		return nil
	}
	auth, err := s.auths.LockByID(ctx, exec, *booking.AuthorizationID)
	if err != nil {
		return loadErr(err, "authorization")
	}
	if auth.LessonsBooked > 0 {
		auth.LessonsBooked--
	}
	if err := s.auths.UpdateUsage(ctx, exec, auth); err != nil {
		return internalErr(err, "failed to release authorization credit")
	}
	return nil
}

// consume records an attended lesson. When the last credit is used the
// authorization completes and the swimmer needs a new one.
func (s *FundingService) consume(ctx context.Context, exec sqlx.ExtContext, swimmer *models.Swimmer, booking *models.Booking) error {
	if booking.AuthorizationID == nil {
		return nil
	}
	auth, err := s.auths.LockByID(ctx, exec, *booking.AuthorizationID)
	if err != nil {
		return loadErr(err, "authorization")
	}
	if auth.LessonsUsed >= auth.AllowedLessons {
		snapshot := auth.Snapshot()
		snapshot.Workflow = swimmer.AuthorizationWorkflow
		return appErrors.WithDetails(appErrors.ErrConflict, "authorization has no lessons left to use", snapshot)
	}
	auth.LessonsUsed++
	spent := auth.LessonsUsed == auth.AllowedLessons
	if spent && auth.Status.CanTransitionTo(models.AuthorizationCompleted) {
		auth.Status = models.AuthorizationCompleted
	}
	if err := s.auths.UpdateUsage(ctx, exec, auth); err != nil {
		return internalErr(err, "failed to consume authorization credit")
	}
	if spent {
		return s.markAuthorizationNeeded(ctx, exec, swimmer)
	}
	return nil
}

// markAuthorizationNeeded starts the renewal workflow unless it is already under way.
func (s *FundingService) markAuthorizationNeeded(ctx context.Context, exec sqlx.ExtContext, swimmer *models.Swimmer) error {
	if swimmer.AuthorizationWorkflow != models.AuthorizationEligible {
		return nil
	}
	if err := s.swimmers.UpdateAuthorizationWorkflow(ctx, exec, swimmer.ID, models.AuthorizationNeeded); err != nil {
		return internalErr(err, "failed to flag authorization needed")
	}
	swimmer.AuthorizationWorkflow = models.AuthorizationNeeded
	return nil
}

// flagExhausted records a refused booking in its own transaction, since the
// booking transaction that found the exhaustion has rolled back.
func (s *FundingService) flagExhausted(ctx context.Context, swimmerID string) {
	s.metrics.RecordAuthorizationExhausted()
	err := database.WithTx(ctx, s.db, s.retry, func(tx *sqlx.Tx) error {
		swimmer, err := s.swimmers.LockByID(ctx, tx, swimmerID)
		if err != nil {
			return loadErr(err, "swimmer")
		}
		return s.markAuthorizationNeeded(ctx, tx, swimmer)
	})
	if err != nil {
		s.logger.Warn("failed to flag authorization needed", zap.String("swimmer_id", swimmerID), zap.Error(err))
		return
	}
	s.notifier.Publish(EventAuthorizationExhausted, swimmerID, nil)
}

func (s *FundingService) restoreEligibility(ctx context.Context, exec sqlx.ExtContext, swimmer *models.Swimmer, auth *models.FundingAuthorization) error {
	if auth.Status != models.AuthorizationApproved || !auth.Covers(s.now()) || !auth.HasCredit() {
		return nil
	}
	if swimmer.AuthorizationWorkflow == models.AuthorizationEligible {
		return nil
	}
	if err := s.swimmers.UpdateAuthorizationWorkflow(ctx, exec, swimmer.ID, models.AuthorizationEligible); err != nil {
		return internalErr(err, "failed to restore eligibility")
	}
	swimmer.AuthorizationWorkflow = models.AuthorizationEligible
	return nil
}

func (s *FundingService) exhaustedError(swimmer *models.Swimmer, active *models.FundingAuthorization) error {
	snapshot := models.AuthorizationSnapshot{SwimmerID: swimmer.ID}
	if active != nil {
		snapshot = active.Snapshot()
	}
	snapshot.Workflow = swimmer.AuthorizationWorkflow
	if snapshot.Workflow == models.AuthorizationEligible {
		snapshot.Workflow = models.AuthorizationNeeded
	}
	return appErrors.WithDetails(appErrors.ErrAuthorizationExhausted, "", snapshot)
}

// renewalWindow starts the day after the previous authorization ends (never
// before today) and runs for months, capped at the June 30 fiscal year end.
func renewalWindow(previous *models.FundingAuthorization, now time.Time, months int) (time.Time, time.Time) {
	start := startOfDay(now)
	if previous != nil {
		next := startOfDay(previous.EndDate).AddDate(0, 0, 1)
		if next.After(start) {
			start = next
		}
	}
	end := start.AddDate(0, months, -1)
	fiscalYear := start.Year()
	if start.Month() > time.June {
		fiscalYear++
	}
	fiscalEnd := time.Date(fiscalYear, time.June, 30, 0, 0, 0, 0, time.UTC)
	if end.After(fiscalEnd) {
		end = fiscalEnd
	}
	return start, end
}

func startOfDay(t time.Time) time.Time {
	y, m, d := t.UTC().Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}
