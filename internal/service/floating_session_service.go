package service

import (
	"context"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/jmoiron/sqlx"
	"go.uber.org/zap"

	"github.com/simplysydnee/icanswimbeta-sub004/internal/dto"
	"github.com/simplysydnee/icanswimbeta-sub004/internal/models"
	"github.com/simplysydnee/icanswimbeta-sub004/pkg/database"
	appErrors "github.com/simplysydnee/icanswimbeta-sub004/pkg/errors"
)

// FloatingSessionService lets flexible swimmers claim seats freed by cancellations.
type FloatingSessionService struct {
	db        txProvider
	floating  floatingStore
	swimmers  swimmerStore
	sessions  sessionStore
	bookings  *BookingService
	cache     *CacheService
	notifier  *NotificationService
	metrics   *MetricsService
	validator *validator.Validate
	logger    *zap.Logger
	retry     database.RetryPolicy
	now       func() time.Time
}

// NewFloatingSessionService constructs FloatingSessionService.
func NewFloatingSessionService(db txProvider, floating floatingStore, swimmers swimmerStore, sessions sessionStore, bookings *BookingService, cache *CacheService, notifier *NotificationService, metrics *MetricsService, validate *validator.Validate, logger *zap.Logger, retry database.RetryPolicy) *FloatingSessionService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &FloatingSessionService{
		db:        db,
		floating:  floating,
		swimmers:  swimmers,
		sessions:  sessions,
		bookings:  bookings,
		cache:     cache,
		notifier:  notifier,
		metrics:   metrics,
		validator: validate,
		logger:    logger,
		retry:     retry,
		now:       func() time.Time { return time.Now().UTC() },
	}
}

// ListOpen returns floating sessions that can still be claimed.
func (s *FloatingSessionService) ListOpen(ctx context.Context) ([]models.FloatingSessionDetail, error) {
	now := s.now()
	var cached []models.FloatingSessionDetail
	if hit, _ := s.cache.Get(ctx, cacheKeyOpenFloating, &cached); hit {
		return stillOpen(cached, now), nil
	}

	open, err := s.floating.ListOpen(ctx, now)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list floating sessions")
	}
	if open == nil {
		open = []models.FloatingSessionDetail{}
	}
	_ = s.cache.Set(ctx, cacheKeyOpenFloating, open, 0)
	return open, nil
}

// Claim books the swimmer into the freed seat. Claim and booking commit together;
// a failed booking leaves the floating session open.
func (s *FloatingSessionService) Claim(ctx context.Context, actor *models.Actor, id string, req dto.ClaimFloatingSessionRequest) (*dto.ClaimResult, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid claim payload")
	}

	var (
		floating *models.FloatingSession
		booking  *models.Booking
		session  *models.Session
	)
	err := database.WithTx(ctx, s.db, s.retry, func(tx *sqlx.Tx) error {
		now := s.now()
		var err error
		floating, err = s.floating.LockByID(ctx, tx, id)
		if err != nil {
			return loadErr(err, "floating session")
		}
		if !floating.Claimable(now) {
			return appErrors.WithDetails(appErrors.ErrFloatingUnavailable, "", map[string]interface{}{
				"floating_session_id": floating.ID,
				"status":              floating.Status,
				"available_until":     floating.AvailableUntil,
			})
		}
		swimmer, err := s.swimmers.LockByID(ctx, tx, req.SwimmerID)
		if err != nil {
			return loadErr(err, "swimmer")
		}
		if !swimmer.FlexibleSwimmer {
			return appErrors.Clone(appErrors.ErrPreconditionFailed, "only flexible swimmers can claim floating sessions")
		}
		session, err = s.sessions.LockByID(ctx, tx, floating.SessionID)
		if err != nil {
			return loadErr(err, "session")
		}
		booking, err = s.bookings.createInTx(ctx, tx, actor, swimmer, session, newBooking{Type: models.BookingTypeLesson, FloatingClaim: true})
		if err != nil {
			return err
		}
		if err := s.floating.MarkClaimed(ctx, tx, floating.ID, swimmer.ID, booking.ID, now); err != nil {
			return internalErr(err, "failed to claim floating session")
		}
		floating.Status = models.FloatingClaimed
		floating.ClaimedBy = &swimmer.ID
		floating.ClaimedBookingID = &booking.ID
		floating.ClaimedAt = &now
		return nil
	})
	s.metrics.RecordFloatingClaim(err)
	if err != nil {
		if appErrors.HasCode(err, appErrors.ErrAuthorizationExhausted.Code) {
			s.bookings.funding.flagExhausted(ctx, req.SwimmerID)
		}
		return nil, err
	}

	s.cache.Invalidate(ctx, cacheKeyOpenFloating)
	s.logger.Info("floating session claimed",
		zap.String("floating_session_id", floating.ID),
		zap.String("swimmer_id", req.SwimmerID),
		zap.String("booking_id", booking.ID),
	)
	if req.NotifyParent {
		s.notifier.Publish(EventFloatingClaimed, req.SwimmerID, bookingPayload(booking, session))
	}
	return &dto.ClaimResult{Floating: floating, Booking: booking}, nil
}

// ExpireStale marks floating sessions past their window as expired.
func (s *FloatingSessionService) ExpireStale(ctx context.Context) (int64, error) {
	expired, err := s.floating.ExpireBefore(ctx, s.now())
	if err != nil {
		return 0, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to expire floating sessions")
	}
	if expired > 0 {
		s.metrics.RecordFloatingExpired(expired)
		s.cache.Invalidate(ctx, cacheKeyOpenFloating)
		s.logger.Info("floating sessions expired", zap.Int64("count", expired))
	}
	return expired, nil
}

// StartSweeper expires stale floating sessions every interval until ctx is done.
func (s *FloatingSessionService) StartSweeper(ctx context.Context, interval time.Duration) {
	if interval <= 0 {
		return
	}
	ticker := time.NewTicker(interval)
	go func() {
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				if _, err := s.ExpireStale(ctx); err != nil {
					s.logger.Warn("floating sweep failed", zap.Error(err))
				}
			}
		}
	}()
}

func stillOpen(entries []models.FloatingSessionDetail, now time.Time) []models.FloatingSessionDetail {
	open := make([]models.FloatingSessionDetail, 0, len(entries))
	for _, entry := range entries {
		if entry.Claimable(now) {
			open = append(open, entry)
		}
	}
	return open
}
