package service

import (
	"context"
	"database/sql"
	"fmt"
	"sort"
	"testing"
	"time"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/simplysydnee/icanswimbeta-sub004/internal/models"
	"github.com/simplysydnee/icanswimbeta-sub004/pkg/database"
	appErrors "github.com/simplysydnee/icanswimbeta-sub004/pkg/errors"
	"github.com/simplysydnee/icanswimbeta-sub004/pkg/jobs"
)

type txProviderMock struct {
	db   *sqlx.DB
	mock sqlmock.Sqlmock
}

func newTxProviderMock(t *testing.T) (txProvider, sqlmock.Sqlmock) {
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	require.NoError(t, err)
	sqlxdb := sqlx.NewDb(db, "sqlmock")
	t.Cleanup(func() { db.Close() })
	return &txProviderMock{db: sqlxdb, mock: mock}, mock
}

func (t *txProviderMock) BeginTxx(ctx context.Context, opts *sql.TxOptions) (*sqlx.Tx, error) {
	return t.db.BeginTxx(ctx, opts)
}

func expectCommit(mock sqlmock.Sqlmock, n int) {
	for i := 0; i < n; i++ {
		mock.ExpectBegin()
		mock.ExpectCommit()
	}
}

func expectRollback(mock sqlmock.Sqlmock) {
	mock.ExpectBegin()
	mock.ExpectRollback()
}

var noRetry = database.RetryPolicy{Attempts: 1}

// world is the in-memory state shared by every fake repository. Reads return
// copies so services only change state through repository writes.
type world struct {
	swimmers          map[string]models.Swimmer
	sessions          map[string]models.Session
	bookings          map[string]models.Booking
	auths             map[string]models.FundingAuthorization
	floating          map[string]models.FloatingSession
	cancellations     []models.Cancellation
	levels            []models.SwimLevel
	skills            map[string]models.Skill
	targets           map[string]models.Target
	strategies        map[string]models.Strategy
	swimmerSkills     map[string]models.SwimmerSkill
	swimmerTargets    map[string]models.SwimmerTarget
	swimmerStrategies map[string]models.SwimmerStrategy
	seq               int
}

func newWorld() *world {
	return &world{
		swimmers:          map[string]models.Swimmer{},
		sessions:          map[string]models.Session{},
		bookings:          map[string]models.Booking{},
		auths:             map[string]models.FundingAuthorization{},
		floating:          map[string]models.FloatingSession{},
		skills:            map[string]models.Skill{},
		targets:           map[string]models.Target{},
		strategies:        map[string]models.Strategy{},
		swimmerSkills:     map[string]models.SwimmerSkill{},
		swimmerTargets:    map[string]models.SwimmerTarget{},
		swimmerStrategies: map[string]models.SwimmerStrategy{},
	}
}

// nextID never collides with the ids tests seed by hand.
func (w *world) nextID(prefix string) string {
	w.seq++
	return fmt.Sprintf("gen-%s-%d", prefix, w.seq)
}

func (w *world) seatCount(sessionID string) int {
	count := 0
	for _, b := range w.bookings {
		if b.SessionID == sessionID && b.Status.HoldsSeat() {
			count++
		}
	}
	return count
}

func pairKey(a, b string) string { return a + "|" + b }

type fakeSwimmers struct{ w *world }

func (f *fakeSwimmers) FindByID(_ context.Context, _ sqlx.ExtContext, id string) (*models.Swimmer, error) {
	s, ok := f.w.swimmers[id]
	if !ok {
		return nil, sql.ErrNoRows
	}
	return &s, nil
}

func (f *fakeSwimmers) LockByID(ctx context.Context, exec sqlx.ExtContext, id string) (*models.Swimmer, error) {
	return f.FindByID(ctx, exec, id)
}

func (f *fakeSwimmers) MarkFlexible(_ context.Context, _ sqlx.ExtContext, id string, flag models.FlexibleFlag) error {
	s := f.w.swimmers[id]
	s.FlexibleSwimmer = true
	s.FlexibleReason = &flag.Reason
	s.FlexibleSetBy = &flag.SetBy
	s.FlexibleSetAt = &flag.SetAt
	f.w.swimmers[id] = s
	return nil
}

func (f *fakeSwimmers) UpdateAssessmentStatus(_ context.Context, _ sqlx.ExtContext, id string, status models.AssessmentStatus) error {
	s := f.w.swimmers[id]
	s.AssessmentStatus = status
	f.w.swimmers[id] = s
	return nil
}

func (f *fakeSwimmers) UpdateAuthorizationWorkflow(_ context.Context, _ sqlx.ExtContext, id string, status models.AuthorizationWorkflow) error {
	s := f.w.swimmers[id]
	s.AuthorizationWorkflow = status
	f.w.swimmers[id] = s
	return nil
}

func (f *fakeSwimmers) UpdateCurrentLevel(_ context.Context, _ sqlx.ExtContext, id, levelID string) error {
	s := f.w.swimmers[id]
	s.CurrentLevelID = &levelID
	f.w.swimmers[id] = s
	return nil
}

type fakeSessions struct{ w *world }

func (f *fakeSessions) Create(_ context.Context, _ sqlx.ExtContext, session *models.Session) error {
	if session.ID == "" {
		session.ID = f.w.nextID("session")
	}
	f.w.sessions[session.ID] = *session
	return nil
}

func (f *fakeSessions) FindByID(_ context.Context, _ sqlx.ExtContext, id string) (*models.Session, error) {
	s, ok := f.w.sessions[id]
	if !ok {
		return nil, sql.ErrNoRows
	}
	return &s, nil
}

func (f *fakeSessions) LockByID(ctx context.Context, exec sqlx.ExtContext, id string) (*models.Session, error) {
	return f.FindByID(ctx, exec, id)
}

func (f *fakeSessions) LockMany(_ context.Context, _ sqlx.ExtContext, ids []string) (map[string]*models.Session, error) {
	out := make(map[string]*models.Session, len(ids))
	for _, id := range ids {
		if s, ok := f.w.sessions[id]; ok {
			copied := s
			out[id] = &copied
		}
	}
	return out, nil
}

func (f *fakeSessions) List(_ context.Context, filter models.SessionFilter) ([]models.Session, int, error) {
	var out []models.Session
	for _, s := range f.w.sessions {
		if filter.OnlyOpen && (!s.Status.Open() || s.IsFull) {
			continue
		}
		out = append(out, s)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].StartTime.Before(out[j].StartTime) })
	return out, len(out), nil
}

func (f *fakeSessions) UpdateCounters(_ context.Context, _ sqlx.ExtContext, session *models.Session) error {
	stored := f.w.sessions[session.ID]
	stored.BookingCount = session.BookingCount
	stored.IsFull = session.IsFull
	stored.Status = session.Status
	f.w.sessions[session.ID] = stored
	return nil
}

func (f *fakeSessions) UpdateStatus(_ context.Context, _ sqlx.ExtContext, id string, status models.SessionStatus) error {
	stored := f.w.sessions[id]
	stored.Status = status
	f.w.sessions[id] = stored
	return nil
}

func (f *fakeSessions) UpdateInstructor(_ context.Context, _ sqlx.ExtContext, ids []string, instructorID string) error {
	for _, id := range ids {
		stored := f.w.sessions[id]
		assigned := instructorID
		stored.InstructorID = &assigned
		f.w.sessions[id] = stored
	}
	return nil
}

type fakeBookings struct{ w *world }

func (f *fakeBookings) Create(_ context.Context, _ sqlx.ExtContext, booking *models.Booking) error {
	for _, b := range f.w.bookings {
		if b.SwimmerID == booking.SwimmerID && b.SessionID == booking.SessionID && b.Status != models.BookingCancelled {
			return &pq.Error{Code: "23505"}
		}
	}
	if booking.ID == "" {
		booking.ID = f.w.nextID("booking")
	}
	f.w.bookings[booking.ID] = *booking
	return nil
}

func (f *fakeBookings) FindByID(_ context.Context, _ sqlx.ExtContext, id string) (*models.Booking, error) {
	b, ok := f.w.bookings[id]
	if !ok {
		return nil, sql.ErrNoRows
	}
	return &b, nil
}

func (f *fakeBookings) LockByID(ctx context.Context, exec sqlx.ExtContext, id string) (*models.Booking, error) {
	return f.FindByID(ctx, exec, id)
}

func (f *fakeBookings) CountActiveBySession(_ context.Context, _ sqlx.ExtContext, sessionID string) (int, error) {
	return f.w.seatCount(sessionID), nil
}

func (f *fakeBookings) ExistsActive(_ context.Context, _ sqlx.ExtContext, swimmerID, sessionID string) (bool, error) {
	for _, b := range f.w.bookings {
		if b.SwimmerID == swimmerID && b.SessionID == sessionID && b.Status != models.BookingCancelled {
			return true, nil
		}
	}
	return false, nil
}

func (f *fakeBookings) HasOverlap(_ context.Context, _ sqlx.ExtContext, swimmerID string, start, end time.Time) (bool, error) {
	for _, b := range f.w.bookings {
		if b.SwimmerID != swimmerID || b.Status != models.BookingConfirmed {
			continue
		}
		session := f.w.sessions[b.SessionID]
		if session.Overlaps(start, end) {
			return true, nil
		}
	}
	return false, nil
}

func (f *fakeBookings) ListConfirmedBySession(_ context.Context, _ sqlx.ExtContext, sessionID string) ([]models.Booking, error) {
	var out []models.Booking
	for _, b := range f.w.bookings {
		if b.SessionID == sessionID && b.Status == models.BookingConfirmed {
			out = append(out, b)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (f *fakeBookings) ListUpcomingSessionIDs(_ context.Context, _ sqlx.ExtContext, swimmerID string, after time.Time) ([]string, error) {
	var upcoming []models.Session
	for _, b := range f.w.bookings {
		if b.SwimmerID != swimmerID || b.Status != models.BookingConfirmed {
			continue
		}
		if session := f.w.sessions[b.SessionID]; session.StartTime.After(after) {
			upcoming = append(upcoming, session)
		}
	}
	sort.Slice(upcoming, func(i, j int) bool { return upcoming[i].StartTime.Before(upcoming[j].StartTime) })
	ids := make([]string, 0, len(upcoming))
	for _, session := range upcoming {
		ids = append(ids, session.ID)
	}
	return ids, nil
}

func (f *fakeBookings) UpdateStatus(_ context.Context, _ sqlx.ExtContext, id string, status models.BookingStatus) error {
	b := f.w.bookings[id]
	b.Status = status
	f.w.bookings[id] = b
	return nil
}

func (f *fakeBookings) Cancel(_ context.Context, _ sqlx.ExtContext, id string, meta models.BookingCancellation) error {
	b := f.w.bookings[id]
	b.Status = models.BookingCancelled
	b.CancelReason = &meta.Reason
	b.CancelNotes = &meta.Notes
	b.CancelledAt = &meta.CancelledAt
	b.CancelledBy = &meta.CancelledBy
	f.w.bookings[id] = b
	return nil
}

type fakeAuths struct{ w *world }

func (f *fakeAuths) Create(_ context.Context, _ sqlx.ExtContext, auth *models.FundingAuthorization) error {
	if auth.Status == models.AuthorizationPending {
		for _, a := range f.w.auths {
			if a.SwimmerID == auth.SwimmerID && a.Status == models.AuthorizationPending {
				return &pq.Error{Code: "23505"}
			}
		}
	}
	if auth.ID == "" {
		auth.ID = f.w.nextID("auth")
	}
	f.w.auths[auth.ID] = *auth
	return nil
}

func (f *fakeAuths) FindByID(_ context.Context, _ sqlx.ExtContext, id string) (*models.FundingAuthorization, error) {
	a, ok := f.w.auths[id]
	if !ok {
		return nil, sql.ErrNoRows
	}
	return &a, nil
}

func (f *fakeAuths) LockByID(ctx context.Context, exec sqlx.ExtContext, id string) (*models.FundingAuthorization, error) {
	return f.FindByID(ctx, exec, id)
}

func (f *fakeAuths) FindActiveForSwimmer(_ context.Context, _ sqlx.ExtContext, swimmerID string, at time.Time) (*models.FundingAuthorization, error) {
	var best *models.FundingAuthorization
	for _, a := range f.w.auths {
		if a.SwimmerID != swimmerID || a.Status != models.AuthorizationApproved || !a.Covers(at) {
			continue
		}
		better := best == nil ||
			(a.HasCredit() && !best.HasCredit()) ||
			(a.HasCredit() == best.HasCredit() && a.EndDate.Before(best.EndDate))
		if better {
			copied := a
			best = &copied
		}
	}
	if best == nil {
		return nil, sql.ErrNoRows
	}
	return best, nil
}

func (f *fakeAuths) LockActiveForSwimmer(ctx context.Context, exec sqlx.ExtContext, swimmerID string, at time.Time) (*models.FundingAuthorization, error) {
	return f.FindActiveForSwimmer(ctx, exec, swimmerID, at)
}

func (f *fakeAuths) FindPendingForSwimmer(_ context.Context, _ sqlx.ExtContext, swimmerID string) (*models.FundingAuthorization, error) {
	for _, a := range f.w.auths {
		if a.SwimmerID == swimmerID && a.Status == models.AuthorizationPending {
			return &a, nil
		}
	}
	return nil, sql.ErrNoRows
}

func (f *fakeAuths) FindLatestForSwimmer(_ context.Context, _ sqlx.ExtContext, swimmerID string) (*models.FundingAuthorization, error) {
	var latest *models.FundingAuthorization
	for _, a := range f.w.auths {
		if a.SwimmerID != swimmerID {
			continue
		}
		if latest == nil || a.EndDate.After(latest.EndDate) {
			copied := a
			latest = &copied
		}
	}
	if latest == nil {
		return nil, sql.ErrNoRows
	}
	return latest, nil
}

func (f *fakeAuths) ListBySwimmer(_ context.Context, swimmerID string) ([]models.FundingAuthorization, error) {
	var out []models.FundingAuthorization
	for _, a := range f.w.auths {
		if a.SwimmerID == swimmerID {
			out = append(out, a)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].StartDate.After(out[j].StartDate) })
	return out, nil
}

func (f *fakeAuths) UpdateUsage(_ context.Context, _ sqlx.ExtContext, auth *models.FundingAuthorization) error {
	stored := f.w.auths[auth.ID]
	stored.LessonsBooked = auth.LessonsBooked
	stored.LessonsUsed = auth.LessonsUsed
	stored.Status = auth.Status
	f.w.auths[auth.ID] = stored
	return nil
}

func (f *fakeAuths) UpdateStatus(_ context.Context, _ sqlx.ExtContext, id string, status models.AuthorizationStatus) error {
	stored := f.w.auths[id]
	stored.Status = status
	f.w.auths[id] = stored
	return nil
}

type fakeFloating struct{ w *world }

func (f *fakeFloating) Create(_ context.Context, _ sqlx.ExtContext, floating *models.FloatingSession) error {
	if floating.ID == "" {
		floating.ID = f.w.nextID("floating")
	}
	f.w.floating[floating.ID] = *floating
	return nil
}

func (f *fakeFloating) LockByID(_ context.Context, _ sqlx.ExtContext, id string) (*models.FloatingSession, error) {
	fs, ok := f.w.floating[id]
	if !ok {
		return nil, sql.ErrNoRows
	}
	return &fs, nil
}

func (f *fakeFloating) MarkClaimed(_ context.Context, _ sqlx.ExtContext, id, swimmerID, bookingID string, at time.Time) error {
	fs := f.w.floating[id]
	if fs.Status != models.FloatingAvailable {
		return fmt.Errorf("claim floating session %s: no available row", id)
	}
	fs.Status = models.FloatingClaimed
	fs.ClaimedBy = &swimmerID
	fs.ClaimedBookingID = &bookingID
	fs.ClaimedAt = &at
	f.w.floating[id] = fs
	return nil
}

func (f *fakeFloating) ListOpen(_ context.Context, now time.Time) ([]models.FloatingSessionDetail, error) {
	var out []models.FloatingSessionDetail
	for _, fs := range f.w.floating {
		session := f.w.sessions[fs.SessionID]
		if fs.Status != models.FloatingAvailable || !fs.AvailableUntil.After(now) || !session.Status.Open() {
			continue
		}
		out = append(out, models.FloatingSessionDetail{
			FloatingSession: fs,
			SessionStart:    session.StartTime,
			SessionEnd:      session.EndTime,
			Location:        session.Location,
		})
	}
	return out, nil
}

func (f *fakeFloating) ExpireBefore(_ context.Context, now time.Time) (int64, error) {
	var count int64
	for id, fs := range f.w.floating {
		if fs.Status == models.FloatingAvailable && !fs.AvailableUntil.After(now) {
			fs.Status = models.FloatingExpired
			f.w.floating[id] = fs
			count++
		}
	}
	return count, nil
}

type fakeCancellations struct{ w *world }

func (f *fakeCancellations) Create(_ context.Context, _ sqlx.ExtContext, record *models.Cancellation) error {
	record.ID = f.w.nextID("cancellation")
	f.w.cancellations = append(f.w.cancellations, *record)
	return nil
}

type fakeCurriculum struct{ w *world }

func (f *fakeCurriculum) ListLevels(_ context.Context, _ sqlx.ExtContext) ([]models.SwimLevel, error) {
	out := append([]models.SwimLevel(nil), f.w.levels...)
	sort.Slice(out, func(i, j int) bool { return out[i].Sequence < out[j].Sequence })
	return out, nil
}

func (f *fakeCurriculum) FindSkill(_ context.Context, _ sqlx.ExtContext, id string) (*models.Skill, error) {
	s, ok := f.w.skills[id]
	if !ok {
		return nil, sql.ErrNoRows
	}
	return &s, nil
}

func (w *world) levelSkills(levelID string) []models.Skill {
	var out []models.Skill
	for _, s := range w.skills {
		if s.LevelID == levelID {
			out = append(out, s)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Sequence < out[j].Sequence })
	return out
}

func (f *fakeCurriculum) FindTarget(_ context.Context, _ sqlx.ExtContext, id string) (*models.Target, error) {
	t, ok := f.w.targets[id]
	if !ok {
		return nil, sql.ErrNoRows
	}
	return &t, nil
}

func (f *fakeCurriculum) FindStrategy(_ context.Context, _ sqlx.ExtContext, id string) (*models.Strategy, error) {
	s, ok := f.w.strategies[id]
	if !ok {
		return nil, sql.ErrNoRows
	}
	return &s, nil
}

type fakeProgress struct{ w *world }

func (f *fakeProgress) FindSwimmerSkill(_ context.Context, _ sqlx.ExtContext, swimmerID, skillID string) (*models.SwimmerSkill, error) {
	row, ok := f.w.swimmerSkills[pairKey(swimmerID, skillID)]
	if !ok {
		return nil, sql.ErrNoRows
	}
	return &row, nil
}

func (f *fakeProgress) UpsertSwimmerSkill(_ context.Context, _ sqlx.ExtContext, row *models.SwimmerSkill) error {
	if row.ID == "" {
		row.ID = f.w.nextID("swimmer-skill")
	}
	f.w.swimmerSkills[pairKey(row.SwimmerID, row.SkillID)] = *row
	return nil
}

func (f *fakeProgress) ListLevelProgress(_ context.Context, _ sqlx.ExtContext, swimmerID, levelID string) ([]models.SkillProgress, error) {
	skills := f.w.levelSkills(levelID)
	out := make([]models.SkillProgress, 0, len(skills))
	for _, skill := range skills {
		progress := models.SkillProgress{Skill: skill, Status: models.SkillNotStarted}
		if row, ok := f.w.swimmerSkills[pairKey(swimmerID, skill.ID)]; ok {
			progress.Status = row.Status
			progress.DateStarted = row.DateStarted
			progress.DateMastered = row.DateMastered
		}
		out = append(out, progress)
	}
	return out, nil
}

func (f *fakeProgress) FindSwimmerTarget(_ context.Context, _ sqlx.ExtContext, swimmerID, targetID string) (*models.SwimmerTarget, error) {
	row, ok := f.w.swimmerTargets[pairKey(swimmerID, targetID)]
	if !ok {
		return nil, sql.ErrNoRows
	}
	return &row, nil
}

func (f *fakeProgress) UpsertSwimmerTarget(_ context.Context, _ sqlx.ExtContext, row *models.SwimmerTarget) error {
	if row.ID == "" {
		row.ID = f.w.nextID("swimmer-target")
	}
	f.w.swimmerTargets[pairKey(row.SwimmerID, row.TargetID)] = *row
	return nil
}

func (f *fakeProgress) FindSwimmerStrategy(_ context.Context, _ sqlx.ExtContext, swimmerID, strategyID string) (*models.SwimmerStrategy, error) {
	row, ok := f.w.swimmerStrategies[pairKey(swimmerID, strategyID)]
	if !ok {
		return nil, sql.ErrNoRows
	}
	return &row, nil
}

func (f *fakeProgress) UpsertSwimmerStrategy(_ context.Context, _ sqlx.ExtContext, row *models.SwimmerStrategy) error {
	if row.ID == "" {
		row.ID = f.w.nextID("swimmer-strategy")
	}
	f.w.swimmerStrategies[pairKey(row.SwimmerID, row.StrategyID)] = *row
	return nil
}

type recordingQueue struct {
	jobs []jobs.Job
	err  error
}

func (q *recordingQueue) TryEnqueue(job jobs.Job) error {
	if q.err != nil {
		return q.err
	}
	q.jobs = append(q.jobs, job)
	return nil
}

func (q *recordingQueue) events() []string {
	out := make([]string, 0, len(q.jobs))
	for _, job := range q.jobs {
		out = append(out, job.Type)
	}
	return out
}

var (
	testNow    = time.Date(2026, 3, 2, 10, 0, 0, 0, time.UTC)
	adminActor = &models.Actor{ID: "admin-1", Roles: []models.UserRole{models.RoleAdmin}}
	coachActor = &models.Actor{ID: "coach-1", Roles: []models.UserRole{models.RoleInstructor}}
	parentX    = &models.Actor{ID: "parent-x", Roles: []models.UserRole{models.RoleParent}}
)

// engine wires every service over one world and one transaction mock.
type engine struct {
	w        *world
	mock     sqlmock.Sqlmock
	queue    *recordingQueue
	roles    *roleResolverMock
	ledger   *CapacityLedger
	funding  *FundingService
	bookings *BookingService
	floating *FloatingSessionService
	sessions *SessionService
	progress *ProgressService
}

func newEngine(t *testing.T) *engine {
	db, mock := newTxProviderMock(t)
	w := newWorld()
	queue := &recordingQueue{}
	notifier := NewNotificationService(queue, nil)
	metrics := NewMetricsService()

	swimmers := &fakeSwimmers{w: w}
	sessions := &fakeSessions{w: w}
	bookings := &fakeBookings{w: w}
	floating := &fakeFloating{w: w}
	roles := &roleResolverMock{roles: map[string][]models.UserRole{
		coachActor.ID: {models.RoleInstructor},
		"coach-2":     {models.RoleInstructor},
	}}
	clock := func() time.Time { return testNow }

	ledger := NewCapacityLedger(sessions, bookings)
	funding := NewFundingService(db, swimmers, &fakeAuths{w: w}, nil, notifier, metrics, nil, noRetry, FundingRules{})
	funding.now = clock
	bookingSvc := NewBookingService(db, BookingStores{
		Swimmers:      swimmers,
		Sessions:      sessions,
		Bookings:      bookings,
		Floating:      floating,
		Cancellations: &fakeCancellations{w: w},
		Roles:         roles,
	}, ledger, funding, nil, notifier, metrics, nil, nil, noRetry, BookingRules{})
	bookingSvc.now = clock
	floatingSvc := NewFloatingSessionService(db, floating, swimmers, sessions, bookingSvc, nil, notifier, metrics, nil, nil, noRetry)
	floatingSvc.now = clock
	sessionSvc := NewSessionService(db, sessions, bookingSvc, nil, nil, nil, noRetry)
	sessionSvc.now = clock
	progressSvc := NewProgressService(db, swimmers, &fakeCurriculum{w: w}, &fakeProgress{w: w}, nil, notifier, metrics, nil, nil, noRetry)
	progressSvc.now = clock

	return &engine{
		w:        w,
		mock:     mock,
		queue:    queue,
		roles:    roles,
		ledger:   ledger,
		funding:  funding,
		bookings: bookingSvc,
		floating: floatingSvc,
		sessions: sessionSvc,
		progress: progressSvc,
	}
}

func (e *engine) addSwimmer(id, parentID string, funding models.FundingSource) models.Swimmer {
	s := models.Swimmer{
		ID:                    id,
		ParentID:              parentID,
		FirstName:             id,
		FundingSource:         funding,
		EnrollmentStatus:      models.EnrollmentEnrolled,
		AssessmentStatus:      models.AssessmentCompleted,
		AuthorizationWorkflow: models.AuthorizationEligible,
	}
	e.w.swimmers[id] = s
	return s
}

func (e *engine) addSession(id string, start time.Time, capacity int) models.Session {
	s := models.Session{
		ID:          id,
		StartTime:   start,
		EndTime:     start.Add(30 * time.Minute),
		Location:    "Pool A",
		MaxCapacity: capacity,
		Status:      models.SessionAvailable,
	}
	e.w.sessions[id] = s
	return s
}

func (e *engine) addAuthorization(id, swimmerID string, allowed, booked, used int) models.FundingAuthorization {
	a := models.FundingAuthorization{
		ID:             id,
		SwimmerID:      swimmerID,
		AllowedLessons: allowed,
		LessonsBooked:  booked,
		LessonsUsed:    used,
		StartDate:      time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC),
		EndDate:        time.Date(2026, 6, 30, 0, 0, 0, 0, time.UTC),
		Status:         models.AuthorizationApproved,
	}
	e.w.auths[id] = a
	return a
}

func (e *engine) addBooking(id, swimmerID, sessionID string, authorizationID *string) models.Booking {
	b := models.Booking{
		ID:              id,
		SwimmerID:       swimmerID,
		SessionID:       sessionID,
		ParentID:        e.w.swimmers[swimmerID].ParentID,
		BookingType:     models.BookingTypeLesson,
		Status:          models.BookingConfirmed,
		AuthorizationID: authorizationID,
	}
	e.w.bookings[id] = b
	e.w.sessions[sessionID] = e.w.sessions[sessionID].WithBookingCount(e.w.seatCount(sessionID))
	return b
}

func strPtr(v string) *string { return &v }

func requireCode(t *testing.T, err error, code string) {
	t.Helper()
	require.Error(t, err)
	assert.Equal(t, code, appErrors.FromError(err).Code, err.Error())
}
