package repository

import (
	"context"
	"regexp"
	"testing"
	"time"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/simplysydnee/icanswimbeta-sub004/internal/models"
)

func TestFloatingSessionRepositoryMarkClaimedRequiresAvailableRow(t *testing.T) {
	db, mock := newRepoMock(t)
	repo := NewFloatingSessionRepository(db)
	at := time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)

	mock.ExpectExec(regexp.QuoteMeta("UPDATE floating_sessions SET status = $2, claimed_by = $3")).
		WithArgs("fl-1", models.FloatingClaimed, "sw-2", "b-9", at, models.FloatingAvailable).
		WillReturnResult(sqlmock.NewResult(0, 0))

	err := repo.MarkClaimed(context.Background(), nil, "fl-1", "sw-2", "b-9", at)
	require.Error(t, err)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestFloatingSessionRepositoryExpireBefore(t *testing.T) {
	db, mock := newRepoMock(t)
	repo := NewFloatingSessionRepository(db)
	now := time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)

	mock.ExpectExec(regexp.QuoteMeta("UPDATE floating_sessions SET status = $1 WHERE status = $2 AND available_until <= $3")).
		WithArgs(models.FloatingExpired, models.FloatingAvailable, now).
		WillReturnResult(sqlmock.NewResult(0, 3))

	expired, err := repo.ExpireBefore(context.Background(), now)
	require.NoError(t, err)
	assert.Equal(t, int64(3), expired)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestUserRoleRepositoryRoles(t *testing.T) {
	db, mock := newRepoMock(t)
	repo := NewUserRoleRepository(db)

	mock.ExpectQuery(regexp.QuoteMeta("SELECT role FROM user_roles WHERE user_id = $1")).
		WithArgs("u-1").
		WillReturnRows(sqlmock.NewRows([]string{"role"}).AddRow("admin").AddRow("instructor"))

	roles, err := repo.Roles(context.Background(), "u-1")
	require.NoError(t, err)
	assert.Equal(t, []models.UserRole{models.RoleAdmin, models.RoleInstructor}, roles)
	require.NoError(t, mock.ExpectationsWereMet())
}
