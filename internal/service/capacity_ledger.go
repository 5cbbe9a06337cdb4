package service

import (
	"context"

	"github.com/jmoiron/sqlx"

	"github.com/simplysydnee/icanswimbeta-sub004/internal/models"
)

// CapacityLedger keeps a session's booking counters derived from its live bookings.
type CapacityLedger struct {
	sessions sessionStore
	bookings bookingStore
}

// NewCapacityLedger constructs the ledger.
func NewCapacityLedger(sessions sessionStore, bookings bookingStore) *CapacityLedger {
	return &CapacityLedger{sessions: sessions, bookings: bookings}
}

// CanAccept reports whether the session has a free seat and is open.
func (l *CapacityLedger) CanAccept(session *models.Session) bool {
	return session.BookingCount < session.MaxCapacity && session.Status.Open()
}

// Refresh reloads the live booking count into session without writing it.
// Callers hold the session row lock.
func (l *CapacityLedger) Refresh(ctx context.Context, exec sqlx.ExtContext, session *models.Session) error {
	count, err := l.bookings.CountActiveBySession(ctx, exec, session.ID)
	if err != nil {
		return internalErr(err, "failed to count session bookings")
	}
	*session = session.WithBookingCount(count)
	return nil
}

// Recompute derives and persists the counters of a locked session from its live bookings.
func (l *CapacityLedger) Recompute(ctx context.Context, exec sqlx.ExtContext, session *models.Session) error {
	if err := l.Refresh(ctx, exec, session); err != nil {
		return err
	}
	if err := l.sessions.UpdateCounters(ctx, exec, session); err != nil {
		return internalErr(err, "failed to update session capacity")
	}
	return nil
}
