package service

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/simplysydnee/icanswimbeta-sub004/internal/dto"
	"github.com/simplysydnee/icanswimbeta-sub004/internal/models"
	appErrors "github.com/simplysydnee/icanswimbeta-sub004/pkg/errors"
)

func (e *engine) addFloating(id, sessionID string, until time.Time) models.FloatingSession {
	fs := models.FloatingSession{
		ID:                id,
		SessionID:         sessionID,
		OriginalBookingID: "b-original",
		OriginalSwimmerID: "sw-original",
		AvailableUntil:    until,
		MonthYear:         until.Format("2006-01"),
		Status:            models.FloatingAvailable,
	}
	e.w.floating[id] = fs
	return fs
}

func (e *engine) addFlexibleSwimmer(id, parentID string, funding models.FundingSource) models.Swimmer {
	s := e.addSwimmer(id, parentID, funding)
	s.FlexibleSwimmer = true
	e.w.swimmers[id] = s
	return s
}

func TestFloatingClaimOnlyOnce(t *testing.T) {
	e := newEngine(t)
	ctx := context.Background()
	e.addFlexibleSwimmer("sw-1", "parent-x", models.FundingPrivatePay)
	e.addFlexibleSwimmer("sw-2", "parent-y", models.FundingPrivatePay)
	e.addSession("s-1", testNow.Add(48*time.Hour), 2)
	e.addFloating("f-1", "s-1", testNow.Add(24*time.Hour))

	expectCommit(e.mock, 1)
	result, err := e.floating.Claim(ctx, parentX, "f-1", dto.ClaimFloatingSessionRequest{SwimmerID: "sw-1", NotifyParent: true})
	require.NoError(t, err)
	assert.Equal(t, models.BookingConfirmed, result.Booking.Status)
	require.NotNil(t, result.Floating.ClaimedBy)
	assert.Equal(t, "sw-1", *result.Floating.ClaimedBy)
	assert.Equal(t, []string{EventFloatingClaimed}, e.queue.events())

	expectRollback(e.mock)
	_, err = e.floating.Claim(ctx, adminActor, "f-1", dto.ClaimFloatingSessionRequest{SwimmerID: "sw-2"})
	requireCode(t, err, appErrors.ErrFloatingUnavailable.Code)
	assert.Equal(t, 1, e.w.sessions["s-1"].BookingCount)
	require.NoError(t, e.mock.ExpectationsWereMet())
}

func TestFloatingClaimRequiresFlexibleSwimmer(t *testing.T) {
	e := newEngine(t)
	ctx := context.Background()
	e.addSwimmer("sw-1", "parent-x", models.FundingPrivatePay)
	e.addSession("s-1", testNow.Add(48*time.Hour), 2)
	e.addFloating("f-1", "s-1", testNow.Add(24*time.Hour))

	expectRollback(e.mock)
	_, err := e.floating.Claim(ctx, parentX, "f-1", dto.ClaimFloatingSessionRequest{SwimmerID: "sw-1"})
	requireCode(t, err, appErrors.ErrPreconditionFailed.Code)
	assert.Equal(t, models.FloatingAvailable, e.w.floating["f-1"].Status)
	assert.Empty(t, e.w.bookings)
	require.NoError(t, e.mock.ExpectationsWereMet())
}

func TestFloatingClaimAfterWindow(t *testing.T) {
	e := newEngine(t)
	ctx := context.Background()
	e.addFlexibleSwimmer("sw-1", "parent-x", models.FundingPrivatePay)
	e.addSession("s-1", testNow.Add(48*time.Hour), 2)
	e.addFloating("f-1", "s-1", testNow.Add(-time.Minute))

	expectRollback(e.mock)
	_, err := e.floating.Claim(ctx, parentX, "f-1", dto.ClaimFloatingSessionRequest{SwimmerID: "sw-1"})
	requireCode(t, err, appErrors.ErrFloatingUnavailable.Code)

	expectRollback(e.mock)
	_, err = e.floating.Claim(ctx, parentX, "missing", dto.ClaimFloatingSessionRequest{SwimmerID: "sw-1"})
	requireCode(t, err, appErrors.ErrNotFound.Code)
	require.NoError(t, e.mock.ExpectationsWereMet())
}

func TestFloatingFailedBookingLeavesSlotOpen(t *testing.T) {
	e := newEngine(t)
	ctx := context.Background()
	e.addFlexibleSwimmer("sw-1", "parent-x", models.FundingPrivatePay)
	e.addSession("s-busy", testNow.Add(48*time.Hour), 2)
	e.addSession("s-1", testNow.Add(48*time.Hour+10*time.Minute), 2)
	e.addBooking("b-busy", "sw-1", "s-busy", nil)
	e.addFloating("f-1", "s-1", testNow.Add(24*time.Hour))

	expectRollback(e.mock)
	_, err := e.floating.Claim(ctx, parentX, "f-1", dto.ClaimFloatingSessionRequest{SwimmerID: "sw-1"})
	requireCode(t, err, appErrors.ErrTimeSlotConflict.Code)
	assert.Equal(t, models.FloatingAvailable, e.w.floating["f-1"].Status)
	assert.Nil(t, e.w.floating["f-1"].ClaimedBy)
	require.NoError(t, e.mock.ExpectationsWereMet())
}

func TestFloatingClaimWithExhaustedFunding(t *testing.T) {
	e := newEngine(t)
	ctx := context.Background()
	e.addFlexibleSwimmer("sw-1", "parent-x", models.FundingRegionalCenter)
	e.addAuthorization("auth-1", "sw-1", 4, 4, 2)
	e.addSession("s-1", testNow.Add(48*time.Hour), 2)
	e.addFloating("f-1", "s-1", testNow.Add(24*time.Hour))

	expectRollback(e.mock)
	expectCommit(e.mock, 1)
	_, err := e.floating.Claim(ctx, parentX, "f-1", dto.ClaimFloatingSessionRequest{SwimmerID: "sw-1"})
	requireCode(t, err, appErrors.ErrAuthorizationExhausted.Code)
	assert.Equal(t, models.FloatingAvailable, e.w.floating["f-1"].Status)
	assert.Equal(t, models.AuthorizationNeeded, e.w.swimmers["sw-1"].AuthorizationWorkflow)
	require.NoError(t, e.mock.ExpectationsWereMet())
}

func TestFloatingListOpenAndExpire(t *testing.T) {
	e := newEngine(t)
	ctx := context.Background()
	e.addSession("s-1", testNow.Add(48*time.Hour), 2)
	closed := e.addSession("s-closed", testNow.Add(48*time.Hour), 2)
	closed.Status = models.SessionCancelled
	e.w.sessions["s-closed"] = closed
	e.addFloating("f-open", "s-1", testNow.Add(24*time.Hour))
	e.addFloating("f-stale", "s-1", testNow.Add(-time.Hour))
	e.addFloating("f-closed", "s-closed", testNow.Add(24*time.Hour))

	open, err := e.floating.ListOpen(ctx)
	require.NoError(t, err)
	require.Len(t, open, 1)
	assert.Equal(t, "f-open", open[0].ID)
	assert.Equal(t, "Pool A", open[0].Location)

	expired, err := e.floating.ExpireStale(ctx)
	require.NoError(t, err)
	assert.EqualValues(t, 1, expired)
	assert.Equal(t, models.FloatingExpired, e.w.floating["f-stale"].Status)
	assert.Equal(t, models.FloatingAvailable, e.w.floating["f-open"].Status)

	expired, err = e.floating.ExpireStale(ctx)
	require.NoError(t, err)
	assert.Zero(t, expired)
}

func TestFloatingStillOpenFiltersCachedEntries(t *testing.T) {
	claimedBy := "sw-9"
	entries := []models.FloatingSessionDetail{
		{FloatingSession: models.FloatingSession{ID: "a", Status: models.FloatingAvailable, AvailableUntil: testNow.Add(time.Hour)}},
		{FloatingSession: models.FloatingSession{ID: "b", Status: models.FloatingAvailable, AvailableUntil: testNow.Add(-time.Hour)}},
		{FloatingSession: models.FloatingSession{ID: "c", Status: models.FloatingClaimed, ClaimedBy: &claimedBy, AvailableUntil: testNow.Add(time.Hour)}},
	}
	open := stillOpen(entries, testNow)
	require.Len(t, open, 1)
	assert.Equal(t, "a", open[0].ID)
}
