package service

import (
	"context"
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

// SessionService administers lesson slots.
type SessionService struct {
	db        txProvider
	sessions  sessionStore
	bookings  *BookingService
	cache     *CacheService
	validator *validator.Validate
	logger    *zap.Logger
	retry     database.RetryPolicy
	now       func() time.Time
}

// NewSessionService constructs SessionService.
func NewSessionService(db txProvider, sessions sessionStore, bookings *BookingService, cache *CacheService, validate *validator.Validate, logger *zap.Logger, retry database.RetryPolicy) *SessionService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &SessionService{
		db:        db,
		sessions:  sessions,
		bookings:  bookings,
		cache:     cache,
		validator: validate,
		logger:    logger,
		retry:     retry,
		now:       func() time.Time { return time.Now().UTC() },
	}
}

// Create schedules an empty session.
func (s *SessionService) Create(ctx context.Context, actor *models.Actor, req dto.CreateSessionRequest) (*models.Session, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid session payload")
	}
	if !req.StartTime.After(s.now()) {
		return nil, appErrors.Clone(appErrors.ErrValidation, "session must start in the future")
	}
	session := &models.Session{
		StartTime:    req.StartTime.UTC(),
		EndTime:      req.EndTime.UTC(),
		InstructorID: req.InstructorID,
		Location:     req.Location,
		MaxCapacity:  req.MaxCapacity,
		IsRecurring:  req.IsRecurring,
		Status:       models.SessionAvailable,
	}
	if err := s.sessions.Create(ctx, nil, session); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create session")
	}
	s.logger.Info("session created", zap.String("session_id", session.ID), zap.String("actor_id", actor.ID), zap.Int("max_capacity", session.MaxCapacity))
	return session, nil
}

// Get returns a session by id.
func (s *SessionService) Get(ctx context.Context, id string) (*models.Session, error) {
	session, err := s.sessions.FindByID(ctx, nil, id)
	if err != nil {
		return nil, loadErr(err, "session")
	}
	return session, nil
}

// ListAvailable returns sessions matching the query with pagination metadata.
func (s *SessionService) ListAvailable(ctx context.Context, query dto.SessionQuery) ([]models.Session, *models.Pagination, error) {
	filter := models.SessionFilter{
		From:         query.From,
		To:           query.To,
		InstructorID: query.InstructorID,
		OnlyOpen:     query.OnlyOpen,
		Page:         query.Page,
		PageSize:     query.PageSize,
	}
	sessions, total, err := s.sessions.List(ctx, filter)
	if err != nil {
		return nil, nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list sessions")
	}
	page := filter.Page
	if page < 1 {
		page = 1
	}
	size := filter.PageSize
	if size <= 0 || size > 100 {
		size = 20
	}
	if sessions == nil {
		sessions = []models.Session{}
	}
	return sessions, &models.Pagination{Page: page, PageSize: size, TotalCount: total}, nil
}

// Cancel closes a session and cancels every confirmed booking in it. Closed
// sessions produce no floating offers.
func (s *SessionService) Cancel(ctx context.Context, actor *models.Actor, id string, req dto.CancelSessionRequest) (*dto.CancelSessionResult, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid session cancellation payload")
	}

	var (
		session   *models.Session
		cancelled []string
	)
	err := database.WithTx(ctx, s.db, s.retry, func(tx *sqlx.Tx) error {
		cancelled = nil
		pending, err := s.bookings.bookings.ListConfirmedBySession(ctx, tx, id)
		if err != nil {
			return internalErr(err, "failed to list session bookings")
		}
		swimmers, err := s.lockSwimmers(ctx, tx, pending)
		if err != nil {
			return err
		}

		session, err = s.sessions.LockByID(ctx, tx, id)
		if err != nil {
			return loadErr(err, "session")
		}
		if !session.Status.Open() {
			return appErrors.WithDetails(appErrors.ErrInvalidTransition, "session is already "+string(session.Status),
				map[string]string{"session_id": session.ID, "status": string(session.Status)})
		}
		if err := s.sessions.UpdateStatus(ctx, tx, session.ID, models.SessionCancelled); err != nil {
			return internalErr(err, "failed to cancel session")
		}
		session.Status = models.SessionCancelled

		confirmed, err := s.bookings.bookings.ListConfirmedBySession(ctx, tx, session.ID)
		if err != nil {
			return internalErr(err, "failed to list session bookings")
		}
		for _, listed := range confirmed {
			swimmer, ok := swimmers[listed.SwimmerID]
			if !ok {
				swimmer, err = s.bookings.swimmers.LockByID(ctx, tx, listed.SwimmerID)
				if err != nil {
					return loadErr(err, "swimmer")
				}
			}
			booking, err := s.bookings.bookings.LockByID(ctx, tx, listed.ID)
			if err != nil {
				return loadErr(err, "booking")
			}
			if _, err := s.bookings.cancelInTx(ctx, tx, actor, swimmer, session, booking, cancelOptions{
				Reason: req.Reason,
				Source: models.CancelSourceSystem,
			}); err != nil {
				return err
			}
			cancelled = append(cancelled, booking.ID)
		}
		return s.bookings.ledger.Recompute(ctx, tx, session)
	})
	if err != nil {
		return nil, err
	}

	s.cache.Invalidate(ctx, cacheKeyOpenFloating)
	s.logger.Info("session cancelled",
		zap.String("session_id", session.ID),
		zap.Int("bookings_cancelled", len(cancelled)),
		zap.String("actor_id", actor.ID),
	)
	if cancelled == nil {
		cancelled = []string{}
	}
	return &dto.CancelSessionResult{Session: session, Cancelled: cancelled}, nil
}

// lockSwimmers locks the swimmers of the given bookings in id order, ahead of the session row.
func (s *SessionService) lockSwimmers(ctx context.Context, exec sqlx.ExtContext, bookings []models.Booking) (map[string]*models.Swimmer, error) {
	ids := make([]string, 0, len(bookings))
	seen := make(map[string]struct{}, len(bookings))
	for _, booking := range bookings {
		if _, ok := seen[booking.SwimmerID]; ok {
			continue
		}
		seen[booking.SwimmerID] = struct{}{}
		ids = append(ids, booking.SwimmerID)
	}
	sort.Strings(ids)

	locked := make(map[string]*models.Swimmer, len(ids))
	for _, swimmerID := range ids {
		swimmer, err := s.bookings.swimmers.LockByID(ctx, exec, swimmerID)
		if err != nil {
			return nil, loadErr(err, "swimmer")
		}
		locked[swimmerID] = swimmer
	}
	return locked, nil
}
