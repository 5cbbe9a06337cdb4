package repository

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"

	"github.com/simplysydnee/icanswimbeta-sub004/internal/models"
)

const sessionColumns = `id, start_time, end_time, instructor_id, location, max_capacity, booking_count, is_full,
is_recurring, status, created_at, updated_at`

// SessionRepository persists lesson sessions.
type SessionRepository struct {
	db *sqlx.DB
}

// NewSessionRepository constructs the repository.
func NewSessionRepository(db *sqlx.DB) *SessionRepository {
	return &SessionRepository{db: db}
}

func (r *SessionRepository) exec(exec sqlx.ExtContext) sqlx.ExtContext {
	if exec != nil {
		return exec
	}
	return r.db
}

// Create inserts a session.
func (r *SessionRepository) Create(ctx context.Context, exec sqlx.ExtContext, session *models.Session) error {
	if session.ID == "" {
		session.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	session.CreatedAt = now
	session.UpdatedAt = now
	if session.Status == "" {
		session.Status = models.SessionAvailable
	}
	const query = `INSERT INTO sessions (id, start_time, end_time, instructor_id, location, max_capacity, booking_count, is_full, is_recurring, status, created_at, updated_at)
VALUES (:id, :start_time, :end_time, :instructor_id, :location, :max_capacity, :booking_count, :is_full, :is_recurring, :status, :created_at, :updated_at)`
	if _, err := sqlx.NamedExecContext(ctx, r.exec(exec), query, session); err != nil {
		return fmt.Errorf("insert session: %w", err)
	}
	return nil
}

// FindByID returns a session or sql.ErrNoRows.
func (r *SessionRepository) FindByID(ctx context.Context, exec sqlx.ExtContext, id string) (*models.Session, error) {
	query := `SELECT ` + sessionColumns + ` FROM sessions WHERE id = $1`
	var session models.Session
	if err := sqlx.GetContext(ctx, r.exec(exec), &session, query, id); err != nil {
		return nil, err
	}
	return &session, nil
}

// LockByID loads the session row FOR UPDATE.
func (r *SessionRepository) LockByID(ctx context.Context, exec sqlx.ExtContext, id string) (*models.Session, error) {
	query := `SELECT ` + sessionColumns + ` FROM sessions WHERE id = $1 FOR UPDATE`
	var session models.Session
	if err := sqlx.GetContext(ctx, r.exec(exec), &session, query, id); err != nil {
		return nil, err
	}
	return &session, nil
}

// LockMany locks several sessions in ascending id order so concurrent callers never deadlock.
func (r *SessionRepository) LockMany(ctx context.Context, exec sqlx.ExtContext, ids []string) (map[string]*models.Session, error) {
	ordered := append([]string(nil), ids...)
	sort.Strings(ordered)
	result := make(map[string]*models.Session, len(ordered))
	for _, id := range ordered {
		if _, seen := result[id]; seen {
			continue
		}
		session, err := r.LockByID(ctx, exec, id)
		if err != nil {
			return nil, err
		}
		result[id] = session
	}
	return result, nil
}

// List returns sessions matching the filter with a total count.
func (r *SessionRepository) List(ctx context.Context, filter models.SessionFilter) ([]models.Session, int, error) {
	var conditions []string
	var args []interface{}

	if filter.From != nil {
		conditions = append(conditions, fmt.Sprintf("start_time >= $%d", len(args)+1))
		args = append(args, *filter.From)
	}
	if filter.To != nil {
		conditions = append(conditions, fmt.Sprintf("start_time < $%d", len(args)+1))
		args = append(args, *filter.To)
	}
	if filter.InstructorID != "" {
		conditions = append(conditions, fmt.Sprintf("instructor_id = $%d", len(args)+1))
		args = append(args, filter.InstructorID)
	}
	if filter.Status != "" {
		conditions = append(conditions, fmt.Sprintf("status = $%d", len(args)+1))
		args = append(args, filter.Status)
	}
	if filter.OnlyOpen {
		conditions = append(conditions, "status IN ('available', 'booked') AND is_full = FALSE")
	}

	clause := ""
	if len(conditions) > 0 {
		clause = " WHERE " + strings.Join(conditions, " AND ")
	}

	page := filter.Page
	if page < 1 {
		page = 1
	}
	size := filter.PageSize
	if size <= 0 || size > 100 {
		size = 20
	}
	offset := (page - 1) * size

	query := fmt.Sprintf(`SELECT %s FROM sessions%s ORDER BY start_time ASC LIMIT %d OFFSET %d`, sessionColumns, clause, size, offset)
	var sessions []models.Session
	if err := r.db.SelectContext(ctx, &sessions, query, args...); err != nil {
		return nil, 0, fmt.Errorf("list sessions: %w", err)
	}

	var total int
	if err := r.db.GetContext(ctx, &total, `SELECT COUNT(*) FROM sessions`+clause, args...); err != nil {
		return nil, 0, fmt.Errorf("count sessions: %w", err)
	}
	return sessions, total, nil
}

// UpdateCounters persists the derived booking counters and status.
func (r *SessionRepository) UpdateCounters(ctx context.Context, exec sqlx.ExtContext, session *models.Session) error {
	session.UpdatedAt = time.Now().UTC()
	const query = `UPDATE sessions SET booking_count = $2, is_full = $3, status = $4, updated_at = $5 WHERE id = $1`
	if _, err := r.exec(exec).ExecContext(ctx, query, session.ID, session.BookingCount, session.IsFull, session.Status, session.UpdatedAt); err != nil {
		return fmt.Errorf("update session counters: %w", err)
	}
	return nil
}

// UpdateStatus sets the session status.
func (r *SessionRepository) UpdateStatus(ctx context.Context, exec sqlx.ExtContext, id string, status models.SessionStatus) error {
	const query = `UPDATE sessions SET status = $2, updated_at = $3 WHERE id = $1`
	if _, err := r.exec(exec).ExecContext(ctx, query, id, status, time.Now().UTC()); err != nil {
		return fmt.Errorf("update session status: %w", err)
	}
	return nil
}

// UpdateInstructor assigns one instructor to every listed session.
func (r *SessionRepository) UpdateInstructor(ctx context.Context, exec sqlx.ExtContext, ids []string, instructorID string) error {
	const query = `UPDATE sessions SET instructor_id = $1, updated_at = $2 WHERE id = ANY($3)`
	if _, err := r.exec(exec).ExecContext(ctx, query, instructorID, time.Now().UTC(), pq.Array(ids)); err != nil {
		return fmt.Errorf("update session instructor: %w", err)
	}
	return nil
}
