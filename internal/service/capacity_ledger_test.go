package service

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/simplysydnee/icanswimbeta-sub004/internal/models"
)

func TestCapacityLedgerCanAccept(t *testing.T) {
	ledger := NewCapacityLedger(nil, nil)
	cases := []struct {
		name    string
		session models.Session
		want    bool
	}{
		{"empty available", models.Session{MaxCapacity: 1, Status: models.SessionAvailable}, true},
		{"partially booked", models.Session{MaxCapacity: 3, BookingCount: 2, Status: models.SessionBooked}, true},
		{"full", models.Session{MaxCapacity: 1, BookingCount: 1, Status: models.SessionBooked}, false},
		{"cancelled", models.Session{MaxCapacity: 2, Status: models.SessionCancelled}, false},
		{"completed", models.Session{MaxCapacity: 2, Status: models.SessionCompleted}, false},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, ledger.CanAccept(&tc.session))
		})
	}
}

func TestCapacityLedgerRecomputeFromLiveBookings(t *testing.T) {
	e := newEngine(t)
	e.addSession("s-1", testNow.Add(48*time.Hour), 2)
	e.w.bookings["b-1"] = models.Booking{ID: "b-1", SessionID: "s-1", SwimmerID: "sw-1", Status: models.BookingConfirmed}
	e.w.bookings["b-2"] = models.Booking{ID: "b-2", SessionID: "s-1", SwimmerID: "sw-2", Status: models.BookingCancelled}

	session := e.w.sessions["s-1"]
	session.BookingCount = 7
	require.NoError(t, e.ledger.Recompute(context.Background(), nil, &session))

	stored := e.w.sessions["s-1"]
	assert.Equal(t, 1, stored.BookingCount)
	assert.False(t, stored.IsFull)
	assert.Equal(t, models.SessionBooked, stored.Status)

	e.w.bookings["b-1"] = models.Booking{ID: "b-1", SessionID: "s-1", SwimmerID: "sw-1", Status: models.BookingCancelled}
	require.NoError(t, e.ledger.Recompute(context.Background(), nil, &session))
	stored = e.w.sessions["s-1"]
	assert.Equal(t, 0, stored.BookingCount)
	assert.Equal(t, models.SessionAvailable, stored.Status)
}

func TestCapacityLedgerRecomputeKeepsClosedStatus(t *testing.T) {
	e := newEngine(t)
	session := e.addSession("s-1", testNow, 1)
	session.Status = models.SessionCompleted
	e.w.sessions["s-1"] = session
	e.w.bookings["b-1"] = models.Booking{ID: "b-1", SessionID: "s-1", SwimmerID: "sw-1", Status: models.BookingCompleted}

	require.NoError(t, e.ledger.Recompute(context.Background(), nil, &session))
	stored := e.w.sessions["s-1"]
	assert.Equal(t, models.SessionCompleted, stored.Status)
	assert.Equal(t, 1, stored.BookingCount)
	assert.True(t, stored.IsFull)
}
