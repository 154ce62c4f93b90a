package service

import (
	"context"
	"time"

	"github.com/attendly/attendly-backend/internal/attendance/engine"
	"github.com/attendly/attendly-backend/internal/attendance/events"
	"github.com/attendly/attendly-backend/internal/attendance/repository"
	userrepo "github.com/attendly/attendly-backend/internal/user/repository"
	"github.com/attendly/attendly-backend/pkg/actor"
	"github.com/attendly/attendly-backend/pkg/config"
	"github.com/attendly/attendly-backend/pkg/errors"
	"github.com/attendly/attendly-backend/pkg/logger"
)

const (
	defaultHistoryWindowDays = 30
	trendDays                = 7
)

// AttendanceService orchestrates attendance operations: the engine decides,
// the repositories persist, the publisher notifies.
type AttendanceService struct {
	repo      *repository.AttendanceRepository
	users     *userrepo.UserRepository
	publisher *events.AttendanceEventPublisher
	workStart engine.WorkStart
	listLimit int
	logger    *logger.Logger
	now       func() time.Time
}

// NewAttendanceService creates a new attendance service. An unparseable
// work-start falls back to the 09:00:00 default.
func NewAttendanceService(repo *repository.AttendanceRepository, users *userrepo.UserRepository, publisher *events.AttendanceEventPublisher, cfg *config.WorkdayConfig, log *logger.Logger) *AttendanceService {
	workStart := engine.DefaultWorkStart
	if hour, minute, second, err := cfg.StartOfDay(); err == nil {
		workStart = engine.WorkStart{Hour: hour, Minute: minute, Second: second}
	} else {
		log.Warn().Err(err).Str("start", cfg.Start).Msg("invalid workday start, using default")
	}

	return &AttendanceService{
		repo:      repo,
		users:     users,
		publisher: publisher,
		workStart: workStart,
		listLimit: cfg.RecordWindowLimit,
		logger:    log.WithComponent("attendance-service"),
		now:       time.Now,
	}
}

// WithClock overrides the service clock. Used by tests.
func (s *AttendanceService) WithClock(now func() time.Time) *AttendanceService {
	s.now = now
	return s
}

// CheckIn records the caller's arrival for today. At most one record per
// user per day; the status is decided now and never recomputed.
func (s *AttendanceService) CheckIn(ctx context.Context) (*engine.Record, error) {
	caller, err := requireActor(ctx)
	if err != nil {
		return nil, err
	}

	now := s.now()

	existing, err := s.repo.GetByUserAndDate(ctx, caller.ID, engine.DateOf(now))
	if err != nil {
		return nil, err
	}
	if existing != nil {
		return nil, errors.DuplicateRecord()
	}

	rec := engine.EvaluateCheckIn(caller.ID, now, s.workStart)
	if err := s.repo.Create(ctx, rec); err != nil {
		// Concurrent check-in loses the insert race and lands here too.
		return nil, err
	}

	if s.publisher != nil {
		s.publisher.PublishCheckedIn(ctx, rec)
	}

	s.logger.Info().
		Str("user_id", caller.ID).
		Str("status", string(rec.Status)).
		Msg("checked in")
	return rec, nil
}

// CheckOut closes the caller's open record for today and computes the
// worked hours.
func (s *AttendanceService) CheckOut(ctx context.Context) (*engine.Record, error) {
	caller, err := requireActor(ctx)
	if err != nil {
		return nil, err
	}

	now := s.now()

	rec, err := s.repo.GetByUserAndDate(ctx, caller.ID, engine.DateOf(now))
	if err != nil {
		return nil, err
	}

	closure, err := engine.EvaluateCheckOut(rec, now)
	if err != nil {
		return nil, err
	}

	if err := s.repo.CloseOut(ctx, rec.ID, closure); err != nil {
		return nil, err
	}

	rec.CheckOut = &closure.CheckOut
	rec.TotalHours = &closure.TotalHours

	if s.publisher != nil {
		s.publisher.PublishCheckedOut(ctx, rec, closure)
	}

	s.logger.Info().
		Str("user_id", caller.ID).
		Float64("total_hours", closure.TotalHours).
		Msg("checked out")
	return rec, nil
}

// DailyStatus is the caller's derived state for today.
type DailyStatus struct {
	Date   time.Time         `json:"date"`
	State  engine.DailyState `json:"state"`
	Record *engine.Record    `json:"record,omitempty"`
}

// TodayStatus resolves the caller's state for today.
func (s *AttendanceService) TodayStatus(ctx context.Context) (*DailyStatus, error) {
	caller, err := requireActor(ctx)
	if err != nil {
		return nil, err
	}

	today := engine.DateOf(s.now())
	rec, err := s.repo.GetByUserAndDate(ctx, caller.ID, today)
	if err != nil {
		return nil, err
	}

	return &DailyStatus{
		Date:   today,
		State:  engine.ResolveDailyState(rec),
		Record: rec,
	}, nil
}

// HistoryParams narrows a history listing. Zero From/To default to the
// trailing thirty days. UserID targets another user, managers only.
type HistoryParams struct {
	UserID string
	From   time.Time
	To     time.Time
}

// History lists records for one user in a date range, newest first.
func (s *AttendanceService) History(ctx context.Context, params HistoryParams) ([]*engine.Record, error) {
	caller, err := requireActor(ctx)
	if err != nil {
		return nil, err
	}

	userID, err := resolveTargetUser(caller, params.UserID)
	if err != nil {
		return nil, err
	}

	to := params.To
	if to.IsZero() {
		to = engine.DateOf(s.now())
	}
	from := params.From
	if from.IsZero() {
		from = to.AddDate(0, 0, -defaultHistoryWindowDays)
	}
	if from.After(to) {
		return nil, errors.BadRequest("from must not be after to")
	}

	return s.repo.ListForUserInRange(ctx, userID, engine.DateOf(from), engine.DateOf(to))
}

// MonthlyStats computes a user's summary for one month. Zero year/month
// default to the current month.
func (s *AttendanceService) MonthlyStats(ctx context.Context, targetUserID string, year int, month int) (*engine.MonthlySummary, error) {
	caller, err := requireActor(ctx)
	if err != nil {
		return nil, err
	}

	userID, err := resolveTargetUser(caller, targetUserID)
	if err != nil {
		return nil, err
	}

	now := s.now()
	if year == 0 {
		year = now.Year()
	}
	if month == 0 {
		month = int(now.Month())
	}
	if month < 1 || month > 12 {
		return nil, errors.BadRequest("month must be between 1 and 12")
	}

	first := time.Date(year, time.Month(month), 1, 0, 0, 0, 0, time.UTC)
	last := first.AddDate(0, 1, -1)

	records, err := s.repo.ListForUserInRange(ctx, userID, first, last)
	if err != nil {
		return nil, err
	}

	summary := engine.Summarize(records, year, time.Month(month))
	return &summary, nil
}

// Dashboard is the manager's aggregate view for today.
type Dashboard struct {
	Today       engine.DailyRollup          `json:"today"`
	WeeklyTrend []engine.TrendDay           `json:"weekly_trend"`
	Departments []engine.DepartmentPresence `json:"departments"`
}

// GetDashboard builds the manager dashboard: today's rollup over the
// roster, the seven-day trend and per-department presence.
func (s *AttendanceService) GetDashboard(ctx context.Context) (*Dashboard, error) {
	caller, err := requireActor(ctx)
	if err != nil {
		return nil, err
	}
	if !caller.Role.CanViewAllRecords() {
		return nil, errors.AccessDenied()
	}

	today := engine.DateOf(s.now())

	roster, err := s.users.Roster(ctx)
	if err != nil {
		return nil, err
	}

	todayRecords, err := s.repo.ListByDate(ctx, today)
	if err != nil {
		return nil, err
	}

	days := engine.TrailingDays(today, trendDays)
	weekRecords, err := s.repo.ListInRange(ctx, days[0], today)
	if err != nil {
		return nil, err
	}

	return &Dashboard{
		Today:       engine.RollupDay(today, roster, todayRecords),
		WeeklyTrend: engine.Trend(days, weekRecords),
		Departments: engine.ByDepartment(roster, todayRecords),
	}, nil
}

// BrowseRecords lists recent records across all users, filtered. Managers
// only. The window is capped at the configured limit, newest first.
func (s *AttendanceService) BrowseRecords(ctx context.Context, filter engine.RecordFilter) ([]*engine.JoinedRecord, error) {
	caller, err := requireActor(ctx)
	if err != nil {
		return nil, err
	}
	if !caller.Role.CanViewAllRecords() {
		return nil, errors.AccessDenied()
	}

	records, err := s.repo.ListRecent(ctx, s.listLimit)
	if err != nil {
		return nil, err
	}

	return filter.Apply(records), nil
}

func requireActor(ctx context.Context) (*actor.Actor, error) {
	caller := actor.FromContext(ctx)
	if caller == nil {
		return nil, errors.Unauthorized("authentication required")
	}
	return caller, nil
}

// resolveTargetUser applies the access rule: callers read their own data
// unless the manager capability unlocks cross-user reads.
func resolveTargetUser(caller *actor.Actor, target string) (string, error) {
	if target == "" || target == caller.ID {
		return caller.ID, nil
	}
	if !caller.Role.CanViewAllRecords() {
		return "", errors.AccessDenied()
	}
	return target, nil
}
