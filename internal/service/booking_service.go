package service

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/jmoiron/sqlx"
	"go.uber.org/zap"

	"github.com/simplysydnee/icanswimbeta-sub004/internal/dto"
	"github.com/simplysydnee/icanswimbeta-sub004/internal/models"
	"github.com/simplysydnee/icanswimbeta-sub004/pkg/database"
	appErrors "github.com/simplysydnee/icanswimbeta-sub004/pkg/errors"
)

// BookingRules holds the deployment-specific booking policy.
type BookingRules struct {
	LateCancelWindow      time.Duration
	FloatingClaimLeadTime time.Duration
}

// BookingStores groups the repositories the booking engine writes through.
type BookingStores struct {
	Swimmers      swimmerStore
	Sessions      sessionStore
	Bookings      bookingStore
	Floating      floatingStore
	Cancellations cancellationLog
	Roles         RoleResolver
}

// BookingService implements the booking state machine.
type BookingService struct {
	db            txProvider
	swimmers      swimmerStore
	sessions      sessionStore
	bookings      bookingStore
	floating      floatingStore
	cancellations cancellationLog
	roles         RoleResolver
	ledger        *CapacityLedger
	funding       *FundingService
	cache         *CacheService
	notifier      *NotificationService
	metrics       *MetricsService
	validator     *validator.Validate
	logger        *zap.Logger
	retry         database.RetryPolicy
	rules         BookingRules
	now           func() time.Time
}

// NewBookingService constructs BookingService.
func NewBookingService(db txProvider, stores BookingStores, ledger *CapacityLedger, funding *FundingService, cache *CacheService, notifier *NotificationService, metrics *MetricsService, validate *validator.Validate, logger *zap.Logger, retry database.RetryPolicy, rules BookingRules) *BookingService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	if rules.LateCancelWindow <= 0 {
		rules.LateCancelWindow = 24 * time.Hour
	}
	return &BookingService{
		db:            db,
		swimmers:      stores.Swimmers,
		sessions:      stores.Sessions,
		bookings:      stores.Bookings,
		floating:      stores.Floating,
		cancellations: stores.Cancellations,
		roles:         stores.Roles,
		ledger:        ledger,
		funding:       funding,
		cache:         cache,
		notifier:      notifier,
		metrics:       metrics,
		validator:     validate,
		logger:        logger,
		retry:         retry,
		rules:         rules,
		now:           func() time.Time { return time.Now().UTC() },
	}
}

type cancelOptions struct {
	Reason       string
	Notes        string
	MarkFlexible bool
	Source       models.CancellationSource
	KeepCredit   bool
}

// Get returns a booking visible to the actor.
func (s *BookingService) Get(ctx context.Context, actor *models.Actor, id string) (*models.Booking, error) {
	booking, err := s.bookings.FindByID(ctx, nil, id)
	if err != nil {
		return nil, loadErr(err, "booking")
	}
	if !actor.IsStaff() && booking.ParentID != actor.ID {
		return nil, appErrors.Clone(appErrors.ErrForbidden, "booking belongs to another family")
	}
	return booking, nil
}

// Create books a swimmer into a session.
func (s *BookingService) Create(ctx context.Context, actor *models.Actor, req dto.CreateBookingRequest) (*models.Booking, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid booking payload")
	}
	bookingType := req.BookingType
	if bookingType == "" {
		bookingType = models.BookingTypeLesson
	}

	var (
		booking *models.Booking
		session *models.Session
	)
	err := database.WithTx(ctx, s.db, s.retry, func(tx *sqlx.Tx) error {
		swimmer, err := s.swimmers.LockByID(ctx, tx, req.SwimmerID)
		if err != nil {
			return loadErr(err, "swimmer")
		}
		session, err = s.sessions.LockByID(ctx, tx, req.SessionID)
		if err != nil {
			return loadErr(err, "session")
		}
		booking, err = s.createInTx(ctx, tx, actor, swimmer, session, newBooking{Type: bookingType})
		return err
	})
	s.metrics.RecordBooking("create", err)
	if err != nil {
		if appErrors.HasCode(err, appErrors.ErrAuthorizationExhausted.Code) {
			s.funding.flagExhausted(ctx, req.SwimmerID)
		}
		return nil, err
	}

	s.logger.Info("booking created",
		zap.String("booking_id", booking.ID),
		zap.String("swimmer_id", booking.SwimmerID),
		zap.String("session_id", booking.SessionID),
		zap.Int("booking_count", session.BookingCount),
	)
	if req.NotifyParent {
		s.notifier.Publish(EventBookingConfirmed, booking.SwimmerID, bookingPayload(booking, session))
	}
	return booking, nil
}

// BulkCreate books one swimmer into several sessions, each independently.
func (s *BookingService) BulkCreate(ctx context.Context, actor *models.Actor, req dto.BulkCreateBookingRequest) (*dto.BulkResult, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid bulk booking payload")
	}
	result := &dto.BulkResult{Results: make([]dto.BulkItemResult, 0, len(req.SessionIDs))}
	for _, sessionID := range req.SessionIDs {
		booking, err := s.Create(ctx, actor, dto.CreateBookingRequest{
			SwimmerID:    req.SwimmerID,
			SessionID:    sessionID,
			BookingType:  req.BookingType,
			NotifyParent: req.NotifyParent,
		})
		result.Add(sessionID, booking, err)
	}
	return result, nil
}

// Cancel cancels a confirmed booking, releasing its seat and reserved credit.
func (s *BookingService) Cancel(ctx context.Context, actor *models.Actor, id string, req dto.CancelBookingRequest) (*dto.CancelResult, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid cancellation payload")
	}
	current, err := s.bookings.FindByID(ctx, nil, id)
	if err != nil {
		return nil, loadErr(err, "booking")
	}

	var (
		booking  *models.Booking
		session  *models.Session
		floating *models.FloatingSession
	)
	err = database.WithTx(ctx, s.db, s.retry, func(tx *sqlx.Tx) error {
		swimmer, err := s.swimmers.LockByID(ctx, tx, current.SwimmerID)
		if err != nil {
			return loadErr(err, "swimmer")
		}
		session, err = s.sessions.LockByID(ctx, tx, current.SessionID)
		if err != nil {
			return loadErr(err, "session")
		}
		booking, err = s.bookings.LockByID(ctx, tx, id)
		if err != nil {
			return loadErr(err, "booking")
		}
		floating, err = s.cancelInTx(ctx, tx, actor, swimmer, session, booking, cancelOptions{
			Reason:       req.Reason,
			Notes:        req.Notes,
			MarkFlexible: req.MarkFlexible,
			Source:       cancellationSource(actor),
		})
		return err
	})
	s.metrics.RecordBooking("cancel", err)
	if err != nil {
		return nil, err
	}

	s.logger.Info("booking cancelled",
		zap.String("booking_id", booking.ID),
		zap.String("session_id", booking.SessionID),
		zap.Bool("mark_flexible", req.MarkFlexible),
		zap.Bool("floating_offer", floating != nil),
	)
	if floating != nil {
		s.cache.Invalidate(ctx, cacheKeyOpenFloating)
	}
	if req.NotifyParent {
		s.notifier.Publish(EventBookingCancelled, booking.SwimmerID, bookingPayload(booking, session))
	}
	return &dto.CancelResult{Booking: booking, Floating: floating}, nil
}

// Reschedule moves a booking to another session in one transaction. The original
// booking is untouched when the new one cannot be created.
func (s *BookingService) Reschedule(ctx context.Context, actor *models.Actor, id string, req dto.RescheduleBookingRequest) (*dto.RescheduleResult, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid reschedule payload")
	}
	current, err := s.bookings.FindByID(ctx, nil, id)
	if err != nil {
		return nil, loadErr(err, "booking")
	}
	if current.SessionID == req.NewSessionID {
		return nil, appErrors.Clone(appErrors.ErrValidation, "new session must differ from the current session")
	}

	var (
		cancelled  *models.Booking
		created    *models.Booking
		newSession *models.Session
		floating   *models.FloatingSession
	)
	err = database.WithTx(ctx, s.db, s.retry, func(tx *sqlx.Tx) error {
		swimmer, err := s.swimmers.LockByID(ctx, tx, current.SwimmerID)
		if err != nil {
			return loadErr(err, "swimmer")
		}
		locked, err := s.sessions.LockMany(ctx, tx, []string{current.SessionID, req.NewSessionID})
		if err != nil {
			return internalErr(err, "failed to lock sessions")
		}
		oldSession, ok := locked[current.SessionID]
		if !ok {
			return appErrors.Clone(appErrors.ErrNotFound, "session not found")
		}
		newSession, ok = locked[req.NewSessionID]
		if !ok {
			return appErrors.Clone(appErrors.ErrNotFound, "session not found")
		}
		cancelled, err = s.bookings.LockByID(ctx, tx, id)
		if err != nil {
			return loadErr(err, "booking")
		}
		if cancelled.Status.Terminal() {
			return alreadyTerminal(cancelled)
		}
		// A new slot overlapping the old one is only free once the old booking is cancelled.
		checkOverlap := !oldSession.Overlaps(newSession.StartTime, newSession.EndTime)
		next := newBooking{Type: cancelled.BookingType, AuthorizationID: cancelled.AuthorizationID}
		if err := s.checkCreate(ctx, tx, actor, swimmer, newSession, next, checkOverlap); err != nil {
			return err
		}

		floating, err = s.cancelInTx(ctx, tx, actor, swimmer, oldSession, cancelled, cancelOptions{
			Reason:     "rescheduled",
			Source:     cancellationSource(actor),
			KeepCredit: cancelled.AuthorizationID != nil,
		})
		if err != nil {
			return err
		}
		created, err = s.createInTx(ctx, tx, actor, swimmer, newSession, next)
		return err
	})
	s.metrics.RecordBooking("reschedule", err)
	if err != nil {
		if appErrors.HasCode(err, appErrors.ErrAuthorizationExhausted.Code) {
			s.funding.flagExhausted(ctx, current.SwimmerID)
		}
		return nil, err
	}

	s.logger.Info("booking rescheduled",
		zap.String("from_booking_id", cancelled.ID),
		zap.String("to_booking_id", created.ID),
		zap.String("session_id", created.SessionID),
	)
	if floating != nil {
		s.cache.Invalidate(ctx, cacheKeyOpenFloating)
	}
	if req.NotifyParent {
		payload := bookingPayload(created, newSession)
		payload["previous_booking_id"] = cancelled.ID
		s.notifier.Publish(EventBookingRescheduled, created.SwimmerID, payload)
	}
	return &dto.RescheduleResult{Cancelled: cancelled, Booking: created}, nil
}

// MarkCompleted records attendance and consumes one authorization credit.
func (s *BookingService) MarkCompleted(ctx context.Context, actor *models.Actor, id string) (*models.Booking, error) {
	booking, err := s.transition(ctx, actor, id, models.BookingCompleted)
	s.metrics.RecordBooking("complete", err)
	return booking, err
}

// MarkNoShow records an absence and returns the reserved credit.
func (s *BookingService) MarkNoShow(ctx context.Context, actor *models.Actor, id string) (*models.Booking, error) {
	booking, err := s.transition(ctx, actor, id, models.BookingNoShow)
	s.metrics.RecordBooking("no_show", err)
	return booking, err
}

// Bulk applies one action to many bookings and reports each outcome.
func (s *BookingService) Bulk(ctx context.Context, actor *models.Actor, req dto.BulkBookingActionRequest) (*dto.BulkResult, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid bulk payload")
	}
	result := &dto.BulkResult{Results: make([]dto.BulkItemResult, 0, len(req.BookingIDs))}
	for _, id := range req.BookingIDs {
		var (
			booking *models.Booking
			err     error
		)
		switch req.Action {
		case dto.BulkActionCancel:
			var cancelled *dto.CancelResult
			cancelled, err = s.Cancel(ctx, actor, id, dto.CancelBookingRequest{
				Reason:       req.Reason,
				Notes:        req.Notes,
				MarkFlexible: req.MarkFlexible,
				NotifyParent: req.NotifyParent,
			})
			if cancelled != nil {
				booking = cancelled.Booking
			}
		case dto.BulkActionComplete:
			booking, err = s.MarkCompleted(ctx, actor, id)
		case dto.BulkActionNoShow:
			booking, err = s.MarkNoShow(ctx, actor, id)
		}
		result.Add(id, booking, err)
	}
	return result, nil
}

// ReassignInstructor hands a booking's session, and optionally every upcoming session of the swimmer, to another instructor.
func (s *BookingService) ReassignInstructor(ctx context.Context, actor *models.Actor, id string, req dto.ReassignInstructorRequest) (*dto.InstructorReassignment, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid instructor payload")
	}
	if !actor.HasRole(models.RoleAdmin) {
		return nil, appErrors.Clone(appErrors.ErrForbidden, "admin access required")
	}
	if err := s.checkInstructor(ctx, req.InstructorID); err != nil {
		return nil, err
	}

	var result *dto.InstructorReassignment
	err := database.WithTx(ctx, s.db, s.retry, func(tx *sqlx.Tx) error {
		booking, err := s.bookings.FindByID(ctx, tx, id)
		if err != nil {
			return loadErr(err, "booking")
		}
		ids := []string{booking.SessionID}
		if req.ApplyToFuture {
			upcoming, err := s.bookings.ListUpcomingSessionIDs(ctx, tx, booking.SwimmerID, s.now())
			if err != nil {
				return internalErr(err, "failed to list upcoming sessions")
			}
			ids = append(ids, upcoming...)
		}
		locked, err := s.sessions.LockMany(ctx, tx, ids)
		if err != nil {
			return loadErr(err, "session")
		}
		sessionIDs := make([]string, 0, len(locked))
		for sessionID := range locked {
			sessionIDs = append(sessionIDs, sessionID)
		}
		sort.Strings(sessionIDs)
		if err := s.sessions.UpdateInstructor(ctx, tx, sessionIDs, req.InstructorID); err != nil {
			return internalErr(err, "failed to update session instructor")
		}
		result = &dto.InstructorReassignment{BookingID: booking.ID, InstructorID: req.InstructorID, SessionIDs: sessionIDs}
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("instructor reassigned",
		zap.String("booking_id", result.BookingID),
		zap.String("instructor_id", req.InstructorID),
		zap.Strings("session_ids", result.SessionIDs),
		zap.Bool("apply_to_future", req.ApplyToFuture),
		zap.String("reason", req.Reason),
		zap.String("actor_id", actor.ID),
	)
	return result, nil
}

func (s *BookingService) checkInstructor(ctx context.Context, instructorID string) error {
	if s.roles == nil {
		return appErrors.Clone(appErrors.ErrInternal, "role resolver missing")
	}
	roles, err := s.roles.Roles(ctx, instructorID)
	if err != nil {
		return internalErr(err, "failed to resolve instructor roles")
	}
	for _, role := range roles {
		if role == models.RoleInstructor {
			return nil
		}
	}
	return appErrors.Clone(appErrors.ErrNotFound, "instructor not found")
}

func (s *BookingService) transition(ctx context.Context, actor *models.Actor, id string, to models.BookingStatus) (*models.Booking, error) {
	current, err := s.bookings.FindByID(ctx, nil, id)
	if err != nil {
		return nil, loadErr(err, "booking")
	}

	var booking *models.Booking
	err = database.WithTx(ctx, s.db, s.retry, func(tx *sqlx.Tx) error {
		swimmer, err := s.swimmers.LockByID(ctx, tx, current.SwimmerID)
		if err != nil {
			return loadErr(err, "swimmer")
		}
		booking, err = s.bookings.LockByID(ctx, tx, id)
		if err != nil {
			return loadErr(err, "booking")
		}
		if !booking.Status.CanTransitionTo(to) {
			return alreadyTerminal(booking)
		}
		if err := s.bookings.UpdateStatus(ctx, tx, booking.ID, to); err != nil {
			return internalErr(err, "failed to update booking status")
		}
		booking.Status = to

		switch to {
		case models.BookingCompleted:
			if err := s.funding.consume(ctx, tx, swimmer, booking); err != nil {
				return err
			}
			if booking.BookingType == models.BookingTypeAssessment {
				if err := s.swimmers.UpdateAssessmentStatus(ctx, tx, swimmer.ID, models.AssessmentCompleted); err != nil {
					return internalErr(err, "failed to update assessment status")
				}
			}
		case models.BookingNoShow:
			if err := s.funding.release(ctx, tx, booking); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	s.logger.Info("booking status updated",
		zap.String("booking_id", booking.ID),
		zap.String("status", string(to)),
		zap.String("actor_id", actor.ID),
	)
	return booking, nil
}

// newBooking describes a booking about to be inserted.
type newBooking struct {
	Type models.BookingType
	// AuthorizationID carries an existing credit reservation over.
	AuthorizationID *string
	FloatingClaim   bool
}

// checkCreate runs every precondition of a new booking against locked rows.
func (s *BookingService) checkCreate(ctx context.Context, exec sqlx.ExtContext, actor *models.Actor, swimmer *models.Swimmer, session *models.Session, next newBooking, checkOverlap bool) error {
	if err := ownsSwimmer(actor, swimmer); err != nil {
		return err
	}
	switch next.Type {
	case models.BookingTypeAssessment:
		if !swimmer.EnrollmentStatus.CanBookAssessment() {
			return appErrors.Clone(appErrors.ErrPreconditionFailed, "swimmer cannot book an assessment")
		}
	default:
		if !swimmer.EnrollmentStatus.CanBookLessons() {
			return appErrors.Clone(appErrors.ErrPreconditionFailed, "swimmer is not enrolled for lessons")
		}
		// Flexible swimmers only reach recurring sessions through floating slots.
		if swimmer.FlexibleSwimmer && session.IsRecurring && !next.FloatingClaim {
			return appErrors.WithDetails(appErrors.ErrFlexibleRecurringBlocked, "", map[string]string{
				"swimmer_id": swimmer.ID,
				"session_id": session.ID,
			})
		}
	}
	if !session.Status.Open() {
		return appErrors.Clone(appErrors.ErrPreconditionFailed, fmt.Sprintf("session is %s", session.Status))
	}
	if !session.StartTime.After(s.now()) {
		return appErrors.Clone(appErrors.ErrPreconditionFailed, "session has already started")
	}

	exists, err := s.bookings.ExistsActive(ctx, exec, swimmer.ID, session.ID)
	if err != nil {
		return internalErr(err, "failed to check existing booking")
	}
	if exists {
		return appErrors.WithDetails(appErrors.ErrDuplicateBooking, "", map[string]string{"swimmer_id": swimmer.ID, "session_id": session.ID})
	}

	if err := s.ledger.Refresh(ctx, exec, session); err != nil {
		return err
	}
	if !s.ledger.CanAccept(session) {
		return appErrors.WithDetails(appErrors.ErrCapacityExceeded, "", map[string]interface{}{
			"session_id":    session.ID,
			"booking_count": session.BookingCount,
			"max_capacity":  session.MaxCapacity,
			"status":        session.Status,
		})
	}

	if checkOverlap {
		overlap, err := s.bookings.HasOverlap(ctx, exec, swimmer.ID, session.StartTime, session.EndTime)
		if err != nil {
			return internalErr(err, "failed to check schedule overlap")
		}
		if overlap {
			return appErrors.WithDetails(appErrors.ErrTimeSlotConflict, "", map[string]interface{}{
				"swimmer_id": swimmer.ID,
				"start_time": session.StartTime,
				"end_time":   session.EndTime,
			})
		}
	}
	return nil
}

// createInTx inserts a confirmed booking. Swimmer and session rows must be locked
// by the caller.
func (s *BookingService) createInTx(ctx context.Context, tx sqlx.ExtContext, actor *models.Actor, swimmer *models.Swimmer, session *models.Session, next newBooking) (*models.Booking, error) {
	if err := s.checkCreate(ctx, tx, actor, swimmer, session, next, true); err != nil {
		return nil, err
	}
	bookingType := next.Type
	authorizationID := next.AuthorizationID
	if authorizationID == nil {
		reserved, err := s.funding.reserve(ctx, tx, swimmer)
		if err != nil {
			return nil, err
		}
		authorizationID = reserved
	}

	booking := &models.Booking{
		SessionID:       session.ID,
		SwimmerID:       swimmer.ID,
		ParentID:        swimmer.ParentID,
		BookingType:     bookingType,
		Status:          models.BookingConfirmed,
		AuthorizationID: authorizationID,
		CreatedBy:       actor.ID,
	}
	if err := s.bookings.Create(ctx, tx, booking); err != nil {
		if database.IsUniqueViolation(err) {
			return nil, appErrors.Clone(appErrors.ErrDuplicateBooking, "")
		}
		return nil, internalErr(err, "failed to create booking")
	}
	if err := s.ledger.Recompute(ctx, tx, session); err != nil {
		return nil, err
	}
	if bookingType == models.BookingTypeAssessment && swimmer.AssessmentStatus != models.AssessmentCompleted {
		if err := s.swimmers.UpdateAssessmentStatus(ctx, tx, swimmer.ID, models.AssessmentScheduled); err != nil {
			return nil, internalErr(err, "failed to update assessment status")
		}
		swimmer.AssessmentStatus = models.AssessmentScheduled
	}
	return booking, nil
}

// cancelInTx cancels a locked booking and applies every cascade: capacity,
// credit release, flexible flag, floating offer and the cancellation log.
func (s *BookingService) cancelInTx(ctx context.Context, tx sqlx.ExtContext, actor *models.Actor, swimmer *models.Swimmer, session *models.Session, booking *models.Booking, opts cancelOptions) (*models.FloatingSession, error) {
	if booking.Status.Terminal() || !booking.Status.CanTransitionTo(models.BookingCancelled) {
		return nil, alreadyTerminal(booking)
	}
	now := s.now()
	hoursBefore := session.StartTime.Sub(now).Hours()
	late := session.StartTime.Sub(now) < s.rules.LateCancelWindow

	if opts.Source == models.CancelSourceParent {
		if booking.ParentID != actor.ID {
			return nil, appErrors.Clone(appErrors.ErrForbidden, "booking belongs to another family")
		}
		if opts.MarkFlexible {
			return nil, appErrors.Clone(appErrors.ErrForbidden, "only staff can mark a swimmer flexible")
		}
		if late {
			return nil, appErrors.WithDetails(appErrors.ErrLateCancellation,
				fmt.Sprintf("bookings cannot be cancelled within %s of the session", s.rules.LateCancelWindow),
				map[string]float64{"hours_before_session": hoursBefore})
		}
	}

	meta := models.BookingCancellation{Reason: opts.Reason, Notes: opts.Notes, CancelledBy: actor.ID, CancelledAt: now}
	if err := s.bookings.Cancel(ctx, tx, booking.ID, meta); err != nil {
		return nil, internalErr(err, "failed to cancel booking")
	}
	booking.Status = models.BookingCancelled
	booking.CancelledAt = &meta.CancelledAt
	booking.CancelledBy = &meta.CancelledBy
	if opts.Reason != "" {
		booking.CancelReason = &opts.Reason
	}
	if opts.Notes != "" {
		booking.CancelNotes = &opts.Notes
	}

	if err := s.ledger.Recompute(ctx, tx, session); err != nil {
		return nil, err
	}
	if !opts.KeepCredit {
		if err := s.funding.release(ctx, tx, booking); err != nil {
			return nil, err
		}
	}
	if booking.BookingType == models.BookingTypeAssessment && swimmer.AssessmentStatus == models.AssessmentScheduled {
		if err := s.swimmers.UpdateAssessmentStatus(ctx, tx, swimmer.ID, models.AssessmentNotScheduled); err != nil {
			return nil, internalErr(err, "failed to update assessment status")
		}
		swimmer.AssessmentStatus = models.AssessmentNotScheduled
	}
	if opts.MarkFlexible {
		flag := models.FlexibleFlag{Reason: opts.Reason, SetBy: actor.ID, SetAt: now}
		if err := s.swimmers.MarkFlexible(ctx, tx, swimmer.ID, flag); err != nil {
			return nil, internalErr(err, "failed to flag flexible swimmer")
		}
		swimmer.FlexibleSwimmer = true
	}

	floating := planFloatingOffer(session, booking, opts.MarkFlexible, now, s.rules.FloatingClaimLeadTime)
	if floating != nil {
		if err := s.floating.Create(ctx, tx, floating); err != nil {
			return nil, internalErr(err, "failed to create floating session")
		}
	}

	record := &models.Cancellation{
		BookingID:          booking.ID,
		SessionID:          session.ID,
		SwimmerID:          swimmer.ID,
		CancelledBy:        actor.ID,
		Source:             opts.Source,
		HoursBeforeSession: hoursBefore,
		WasLate:            late,
		MarkedFlexible:     opts.MarkFlexible,
	}
	if opts.Reason != "" {
		record.Reason = &opts.Reason
	}
	if opts.Notes != "" {
		record.Notes = &opts.Notes
	}
	if floating != nil {
		record.FloatingSessionID = &floating.ID
	}
	if err := s.cancellations.Create(ctx, tx, record); err != nil {
		return nil, internalErr(err, "failed to record cancellation")
	}
	return floating, nil
}

// planFloatingOffer decides whether a cancellation frees a claimable slot. Slots
// are offered for flexible-marked cancellations and for recurring sessions, and
// only while the claim window before the session start is still open.
func planFloatingOffer(session *models.Session, booking *models.Booking, markFlexible bool, now time.Time, leadTime time.Duration) *models.FloatingSession {
	if !markFlexible && !session.IsRecurring {
		return nil
	}
	if !session.Status.Open() {
		return nil
	}
	until := session.StartTime.Add(-leadTime)
	if !until.After(now) {
		return nil
	}
	return &models.FloatingSession{
		SessionID:         session.ID,
		OriginalBookingID: booking.ID,
		OriginalSwimmerID: booking.SwimmerID,
		AvailableUntil:    until,
		MonthYear:         session.StartTime.UTC().Format("2006-01"),
		Status:            models.FloatingAvailable,
	}
}

func cancellationSource(actor *models.Actor) models.CancellationSource {
	switch {
	case actor.HasRole(models.RoleAdmin):
		return models.CancelSourceAdmin
	case actor.HasRole(models.RoleInstructor):
		return models.CancelSourceInstructor
	default:
		return models.CancelSourceParent
	}
}

func alreadyTerminal(booking *models.Booking) error {
	return appErrors.WithDetails(appErrors.ErrAlreadyTerminal,
		fmt.Sprintf("booking is already %s", booking.Status),
		map[string]string{"booking_id": booking.ID, "status": string(booking.Status)})
}

func bookingPayload(booking *models.Booking, session *models.Session) map[string]interface{} {
	payload := map[string]interface{}{
		"booking_id":   booking.ID,
		"session_id":   booking.SessionID,
		"booking_type": booking.BookingType,
	}
	if session != nil {
		payload["session_start"] = session.StartTime
		payload["location"] = session.Location
	}
	return payload
}
