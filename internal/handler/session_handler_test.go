package handler

import (
	"context"
	"encoding/json"
	"net/http"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/simplysydnee/icanswimbeta-sub004/internal/dto"
	"github.com/simplysydnee/icanswimbeta-sub004/internal/models"
	appErrors "github.com/simplysydnee/icanswimbeta-sub004/pkg/errors"
)

type sessionServiceMock struct {
	session    *models.Session
	sessions   []models.Session
	err        error
	lastQuery  dto.SessionQuery
	lastCreate dto.CreateSessionRequest
	lastCancel dto.CancelSessionRequest
}

func (m *sessionServiceMock) Create(_ context.Context, _ *models.Actor, req dto.CreateSessionRequest) (*models.Session, error) {
	m.lastCreate = req
	return m.session, m.err
}

func (m *sessionServiceMock) Get(_ context.Context, _ string) (*models.Session, error) {
	return m.session, m.err
}

func (m *sessionServiceMock) ListAvailable(_ context.Context, query dto.SessionQuery) ([]models.Session, *models.Pagination, error) {
	m.lastQuery = query
	return m.sessions, &models.Pagination{Page: 1, PageSize: 20, TotalCount: len(m.sessions)}, m.err
}

func (m *sessionServiceMock) Cancel(_ context.Context, _ *models.Actor, _ string, req dto.CancelSessionRequest) (*dto.CancelSessionResult, error) {
	m.lastCancel = req
	if m.err != nil {
		return nil, m.err
	}
	return &dto.CancelSessionResult{Session: m.session, Cancelled: []string{"b-1"}}, nil
}

func TestSessionHandlerListBindsQuery(t *testing.T) {
	svc := &sessionServiceMock{sessions: []models.Session{{ID: "s-1"}, {ID: "s-2"}}}
	c, w := newTestContext(http.MethodGet, "/sessions?open=true&instructor_id=coach-1&page=2&from=2026-03-01T00:00:00Z", nil)
	NewSessionHandler(svc).List(c)

	require.Equal(t, http.StatusOK, w.Code)
	assert.True(t, svc.lastQuery.OnlyOpen)
	assert.Equal(t, "coach-1", svc.lastQuery.InstructorID)
	assert.Equal(t, 2, svc.lastQuery.Page)
	require.NotNil(t, svc.lastQuery.From)
	assert.True(t, svc.lastQuery.From.Equal(time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)))

	env := decodeEnvelope(t, w)
	assert.Len(t, env["data"], 2)
	assert.EqualValues(t, 2, env["pagination"].(map[string]interface{})["total_count"])
}

func TestSessionHandlerListBadQuery(t *testing.T) {
	c, w := newTestContext(http.MethodGet, "/sessions?page=abc", nil)
	NewSessionHandler(&sessionServiceMock{}).List(c)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestSessionHandlerCreateAndCancel(t *testing.T) {
	start := time.Date(2026, 3, 10, 16, 0, 0, 0, time.UTC)
	svc := &sessionServiceMock{session: &models.Session{ID: "s-1"}}
	handler := NewSessionHandler(svc)

	payload, _ := json.Marshal(dto.CreateSessionRequest{StartTime: start, EndTime: start.Add(30 * time.Minute), MaxCapacity: 2})
	c, w := newTestContext(http.MethodPost, "/sessions", payload)
	handler.Create(c)
	require.Equal(t, http.StatusCreated, w.Code)
	assert.Equal(t, 2, svc.lastCreate.MaxCapacity)

	c, w = newTestContext(http.MethodPost, "/sessions/s-1/cancel", []byte(`{"reason":"pool closed"}`), gin.Param{Key: "id", Value: "s-1"})
	handler.Cancel(c)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "pool closed", svc.lastCancel.Reason)

	svc.err = appErrors.ErrNotFound
	c, w = newTestContext(http.MethodGet, "/sessions/missing", nil, gin.Param{Key: "id", Value: "missing"})
	handler.Get(c)
	assert.Equal(t, http.StatusNotFound, w.Code)
}
