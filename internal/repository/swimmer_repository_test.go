package repository

import (
	"context"
	"database/sql"
	"regexp"
	"testing"
	"time"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/simplysydnee/icanswimbeta-sub004/internal/models"
)

var swimmerRowColumns = []string{"id", "parent_id", "first_name", "last_name", "funding_source", "current_level_id",
	"flexible_swimmer", "flexible_swimmer_reason", "flexible_swimmer_set_at", "flexible_swimmer_set_by",
	"enrollment_status", "assessment_status", "authorization_status", "created_at", "updated_at"}

func TestSwimmerRepositoryLockByID(t *testing.T) {
	db, mock := newRepoMock(t)
	repo := NewSwimmerRepository(db)
	now := time.Date(2026, 3, 2, 10, 0, 0, 0, time.UTC)

	mock.ExpectQuery(`FROM swimmers WHERE id = \$1 FOR UPDATE`).WithArgs("sw-1").
		WillReturnRows(sqlmock.NewRows(swimmerRowColumns).AddRow("sw-1", "parent-1", "Ada", "Lovelace", models.FundingRegionalCenter,
			"lvl-1", false, nil, nil, nil, models.EnrollmentEnrolled, models.AssessmentCompleted, models.AuthorizationEligible, now, now))

	swimmer, err := repo.LockByID(context.Background(), nil, "sw-1")
	require.NoError(t, err)
	assert.Equal(t, models.FundingRegionalCenter, swimmer.FundingSource)
	require.NotNil(t, swimmer.CurrentLevelID)
	assert.Equal(t, "lvl-1", *swimmer.CurrentLevelID)
	assert.Equal(t, models.AuthorizationEligible, swimmer.AuthorizationWorkflow)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestSwimmerRepositoryFindByIDNotFound(t *testing.T) {
	db, mock := newRepoMock(t)
	repo := NewSwimmerRepository(db)

	mock.ExpectQuery(`FROM swimmers WHERE id = \$1`).WithArgs("missing").WillReturnError(sql.ErrNoRows)

	_, err := repo.FindByID(context.Background(), nil, "missing")
	assert.ErrorIs(t, err, sql.ErrNoRows)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestSwimmerRepositoryMarkFlexible(t *testing.T) {
	db, mock := newRepoMock(t)
	repo := NewSwimmerRepository(db)
	at := time.Date(2026, 3, 2, 10, 0, 0, 0, time.UTC)

	mock.ExpectExec(regexp.QuoteMeta("UPDATE swimmers SET flexible_swimmer = TRUE")).
		WithArgs("sw-1", "late cancellation", at, "admin-1").
		WillReturnResult(sqlmock.NewResult(0, 1))

	err := repo.MarkFlexible(context.Background(), nil, "sw-1", models.FlexibleFlag{Reason: "late cancellation", SetBy: "admin-1", SetAt: at})
	require.NoError(t, err)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestCancellationRepositoryCreateAssignsID(t *testing.T) {
	db, mock := newRepoMock(t)
	repo := NewCancellationRepository(db)

	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO cancellations")).WillReturnResult(sqlmock.NewResult(0, 1))

	record := &models.Cancellation{BookingID: "b-1", SessionID: "s-1", SwimmerID: "sw-1", CancelledBy: "parent-1",
		Source: models.CancelSourceParent, HoursBeforeSession: 30}
	require.NoError(t, repo.Create(context.Background(), nil, record))
	assert.NotEmpty(t, record.ID)
	assert.False(t, record.CreatedAt.IsZero())
	require.NoError(t, mock.ExpectationsWereMet())
}
