package service

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/simplysydnee/icanswimbeta-sub004/internal/dto"
	"github.com/simplysydnee/icanswimbeta-sub004/internal/models"
	appErrors "github.com/simplysydnee/icanswimbeta-sub004/pkg/errors"
)

type memoryCache struct {
	entries map[string][]byte
	setErr  error
	deletes []string
}

func newMemoryCache() *memoryCache {
	return &memoryCache{entries: map[string][]byte{}}
}

func (c *memoryCache) Get(_ context.Context, key string, dest interface{}) error {
	raw, ok := c.entries[key]
	if !ok {
		return appErrors.ErrCacheMiss
	}
	return json.Unmarshal(raw, dest)
}

func (c *memoryCache) Set(_ context.Context, key string, value interface{}, _ time.Duration) error {
	if c.setErr != nil {
		return c.setErr
	}
	raw, err := json.Marshal(value)
	if err != nil {
		return err
	}
	c.entries[key] = raw
	return nil
}

func (c *memoryCache) Delete(_ context.Context, keys ...string) error {
	for _, key := range keys {
		delete(c.entries, key)
		c.deletes = append(c.deletes, key)
	}
	return nil
}

func TestCacheServiceGetSetInvalidate(t *testing.T) {
	repo := newMemoryCache()
	svc := NewCacheService(repo, NewMetricsService(), time.Minute, nil, true)
	ctx := context.Background()

	var out []string
	hit, err := svc.Get(ctx, "k", &out)
	require.NoError(t, err)
	assert.False(t, hit)

	require.NoError(t, svc.Set(ctx, "k", []string{"a"}, 0))
	hit, err = svc.Get(ctx, "k", &out)
	require.NoError(t, err)
	assert.True(t, hit)
	assert.Equal(t, []string{"a"}, out)

	svc.Invalidate(ctx, "k")
	hit, _ = svc.Get(ctx, "k", &out)
	assert.False(t, hit)

	repo.setErr = errors.New("redis down")
	assert.Error(t, svc.Set(ctx, "k", "v", 0))
}

func TestCacheServiceDisabled(t *testing.T) {
	repo := newMemoryCache()
	svc := NewCacheService(repo, nil, 0, nil, false)
	ctx := context.Background()

	require.NoError(t, svc.Set(ctx, "k", "v", 0))
	assert.Empty(t, repo.entries)
	hit, err := svc.Get(ctx, "k", new(string))
	require.NoError(t, err)
	assert.False(t, hit)

	var nilSvc *CacheService
	assert.False(t, nilSvc.Enabled())
	assert.NotPanics(t, func() { nilSvc.Invalidate(ctx, "k") })
}

func TestProgressCacheInvalidatedOnSkillUpdate(t *testing.T) {
	e := newEngine(t)
	ctx := context.Background()
	e.seedCurriculum()
	e.addLeveledSwimmer("sw-1", "lvl-1")
	repo := newMemoryCache()
	e.progress.cache = NewCacheService(repo, nil, time.Minute, nil, true)

	first, err := e.progress.GetSkillProgress(ctx, parentX, "sw-1")
	require.NoError(t, err)
	assert.Equal(t, 0, first.MasteredCount)
	assert.Contains(t, repo.entries, skillProgressCacheKey("sw-1"))

	expectCommit(e.mock, 1)
	_, err = e.progress.SetSkillStatus(ctx, coachActor, "sw-1", dto.UpdateSkillRequest{SkillID: "float", Status: models.SkillMastered})
	require.NoError(t, err)
	assert.NotContains(t, repo.entries, skillProgressCacheKey("sw-1"))

	second, err := e.progress.GetSkillProgress(ctx, parentX, "sw-1")
	require.NoError(t, err)
	assert.Equal(t, 1, second.MasteredCount)
	require.NoError(t, e.mock.ExpectationsWereMet())
}

func TestFloatingCacheInvalidatedOnCancel(t *testing.T) {
	e := newEngine(t)
	ctx := context.Background()
	repo := newMemoryCache()
	cache := NewCacheService(repo, nil, time.Minute, nil, true)
	e.floating.cache = cache
	e.bookings.cache = cache
	e.addSwimmer("sw-1", "parent-x", models.FundingPrivatePay)
	e.addSession("s-1", testNow.Add(72*time.Hour), 2)
	e.addBooking("b-1", "sw-1", "s-1", nil)

	open, err := e.floating.ListOpen(ctx)
	require.NoError(t, err)
	assert.Empty(t, open)
	assert.Contains(t, repo.entries, cacheKeyOpenFloating)

	expectCommit(e.mock, 1)
	_, err = e.bookings.Cancel(ctx, adminActor, "b-1", dto.CancelBookingRequest{MarkFlexible: true})
	require.NoError(t, err)
	assert.Contains(t, repo.deletes, cacheKeyOpenFloating)

	open, err = e.floating.ListOpen(ctx)
	require.NoError(t, err)
	assert.Len(t, open, 1)
	require.NoError(t, e.mock.ExpectationsWereMet())
}
