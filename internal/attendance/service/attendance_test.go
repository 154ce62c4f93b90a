package service_test

import (
	"context"
	"database/sql"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/attendly/attendly-backend/internal/attendance/engine"
	"github.com/attendly/attendly-backend/internal/attendance/events"
	"github.com/attendly/attendly-backend/internal/attendance/repository"
	"github.com/attendly/attendly-backend/internal/attendance/service"
	userrepo "github.com/attendly/attendly-backend/internal/user/repository"
	"github.com/attendly/attendly-backend/pkg/actor"
	"github.com/attendly/attendly-backend/pkg/config"
	"github.com/attendly/attendly-backend/pkg/database"
	apperrors "github.com/attendly/attendly-backend/pkg/errors"
	"github.com/attendly/attendly-backend/pkg/logger"
	"github.com/attendly/attendly-backend/pkg/messaging"
	"github.com/attendly/attendly-backend/pkg/testutil"
)

const (
	employeeID = "11111111-1111-1111-1111-111111111111"
	managerID  = "22222222-2222-2222-2222-222222222222"
)

type harness struct {
	svc       *service.AttendanceService
	mockDB    *testutil.MockDB
	publisher *testutil.MockPublisher
}

func newHarness(t *testing.T, now time.Time) *harness {
	mockDB := testutil.NewMockDB(t)
	t.Cleanup(func() { mockDB.Close() })

	log := logger.New("test", "test")
	db := database.NewWithDB(mockDB.DB, log)

	pub := testutil.NewMockPublisher()
	svc := service.NewAttendanceService(
		repository.NewAttendanceRepository(db),
		userrepo.NewUserRepository(db),
		events.NewWithPublisher(pub, log),
		&config.WorkdayConfig{Start: "09:00:00", RecordWindowLimit: 200},
		log,
	).WithClock(func() time.Time { return now })

	return &harness{svc: svc, mockDB: mockDB, publisher: pub}
}

func employeeCtx() context.Context {
	return actor.WithActor(context.Background(), &actor.Actor{
		ID:   employeeID,
		Name: "Ana Reyes",
		Role: actor.RoleEmployee,
	})
}

func managerCtx() context.Context {
	return actor.WithActor(context.Background(), &actor.Actor{
		ID:   managerID,
		Name: "Morgan Hale",
		Role: actor.RoleManager,
	})
}

func at(t *testing.T, value string) time.Time {
	t.Helper()
	ts, err := time.Parse("2006-01-02 15:04:05", value)
	require.NoError(t, err)
	return ts
}

func recordColumns() []string {
	return []string{"id", "user_id", "date", "check_in_time", "check_out_time", "status", "total_hours", "created_at"}
}

func (h *harness) expectNoRecordToday() {
	h.mockDB.ExpectQuery("SELECT id, user_id, date, check_in_time, check_out_time, status, total_hours, created_at").
		WillReturnError(sql.ErrNoRows)
}

func (h *harness) expectOpenRecordToday(t *testing.T, id string, checkIn time.Time) {
	h.mockDB.ExpectQuery("SELECT id, user_id, date, check_in_time, check_out_time, status, total_hours, created_at").
		WillReturnRows(testutil.MockRows(recordColumns()...).
			AddRow(id, employeeID, engine.DateOf(checkIn), checkIn, nil, "present", nil, checkIn))
}

func TestCheckIn_OnTime(t *testing.T) {
	now := at(t, "2026-03-09 08:55:00")
	h := newHarness(t, now)
	h.expectNoRecordToday()
	h.mockDB.ExpectQuery("INSERT INTO attendance").
		WithArgs(testutil.AnyUUID{}, employeeID, testutil.AnyTime{}, testutil.AnyTime{}, nil, "present", nil).
		WillReturnRows(testutil.MockRows("created_at").AddRow(now))

	rec, err := h.svc.CheckIn(employeeCtx())

	require.NoError(t, err)
	assert.Equal(t, engine.StatusPresent, rec.Status)
	assert.Equal(t, engine.DateOf(now), rec.Date)
	h.publisher.AssertEventPublished(t, messaging.EventAttendanceCheckedIn)
	h.mockDB.ExpectationsWereMet(t)
}

func TestCheckIn_Late(t *testing.T) {
	now := at(t, "2026-03-09 09:01:00")
	h := newHarness(t, now)
	h.expectNoRecordToday()
	h.mockDB.ExpectQuery("INSERT INTO attendance").
		WithArgs(testutil.AnyUUID{}, employeeID, testutil.AnyTime{}, testutil.AnyTime{}, nil, "late", nil).
		WillReturnRows(testutil.MockRows("created_at").AddRow(now))

	rec, err := h.svc.CheckIn(employeeCtx())

	require.NoError(t, err)
	assert.Equal(t, engine.StatusLate, rec.Status)
	h.publisher.AssertEventPublished(t, messaging.EventAttendanceCheckedIn)
}

func TestCheckIn_AlreadyCheckedIn(t *testing.T) {
	now := at(t, "2026-03-09 13:00:00")
	h := newHarness(t, now)
	h.expectOpenRecordToday(t, "rec-1", at(t, "2026-03-09 08:55:00"))

	_, err := h.svc.CheckIn(employeeCtx())

	require.ErrorIs(t, err, apperrors.ErrDuplicateRecord)
	h.publisher.AssertNoEventsPublished(t)
}

func TestCheckIn_Unauthenticated(t *testing.T) {
	h := newHarness(t, at(t, "2026-03-09 09:00:00"))

	_, err := h.svc.CheckIn(context.Background())

	require.ErrorIs(t, err, apperrors.ErrUnauthorized)
}

func TestCheckOut_ComputesHours(t *testing.T) {
	now := at(t, "2026-03-09 17:30:00")
	h := newHarness(t, now)
	h.expectOpenRecordToday(t, "rec-1", at(t, "2026-03-09 09:00:00"))
	h.mockDB.ExpectExec("UPDATE attendance").
		WithArgs("rec-1", testutil.AnyTime{}, 8.5).
		WillReturnResult(testutil.MockResult(1))

	rec, err := h.svc.CheckOut(employeeCtx())

	require.NoError(t, err)
	require.NotNil(t, rec.TotalHours)
	assert.Equal(t, 8.5, *rec.TotalHours)
	require.NotNil(t, rec.CheckOut)
	assert.Equal(t, now, *rec.CheckOut)
	h.publisher.AssertEventPublished(t, messaging.EventAttendanceCheckedOut)
}

func TestCheckOut_NoCheckIn(t *testing.T) {
	h := newHarness(t, at(t, "2026-03-09 17:30:00"))
	h.expectNoRecordToday()

	_, err := h.svc.CheckOut(employeeCtx())

	require.ErrorIs(t, err, apperrors.ErrNoActiveCheckIn)
	h.publisher.AssertNoEventsPublished(t)
}

func TestCheckOut_AlreadyCheckedOut(t *testing.T) {
	now := at(t, "2026-03-09 18:00:00")
	h := newHarness(t, now)

	checkIn := at(t, "2026-03-09 09:00:00")
	checkOut := at(t, "2026-03-09 17:00:00")
	h.mockDB.ExpectQuery("SELECT id, user_id, date, check_in_time, check_out_time, status, total_hours, created_at").
		WillReturnRows(testutil.MockRows(recordColumns()...).
			AddRow("rec-1", employeeID, engine.DateOf(checkIn), checkIn, checkOut, "present", 8.0, checkIn))

	_, err := h.svc.CheckOut(employeeCtx())

	require.ErrorIs(t, err, apperrors.ErrNoActiveCheckIn)
}

func TestTodayStatus(t *testing.T) {
	now := at(t, "2026-03-09 10:00:00")

	t.Run("not checked in", func(t *testing.T) {
		h := newHarness(t, now)
		h.expectNoRecordToday()

		status, err := h.svc.TodayStatus(employeeCtx())

		require.NoError(t, err)
		assert.Equal(t, engine.StateNotCheckedIn, status.State)
		assert.Nil(t, status.Record)
	})

	t.Run("checked in", func(t *testing.T) {
		h := newHarness(t, now)
		h.expectOpenRecordToday(t, "rec-1", at(t, "2026-03-09 08:55:00"))

		status, err := h.svc.TodayStatus(employeeCtx())

		require.NoError(t, err)
		assert.Equal(t, engine.StateCheckedIn, status.State)
		require.NotNil(t, status.Record)
		assert.Equal(t, "rec-1", status.Record.ID)
	})
}

func TestHistory_InvalidRange(t *testing.T) {
	h := newHarness(t, at(t, "2026-03-09 10:00:00"))

	_, err := h.svc.History(employeeCtx(), service.HistoryParams{
		From: at(t, "2026-03-10 00:00:00"),
		To:   at(t, "2026-03-01 00:00:00"),
	})

	require.ErrorIs(t, err, apperrors.ErrBadRequest)
}

func TestHistory_EmployeeCannotReadOthers(t *testing.T) {
	h := newHarness(t, at(t, "2026-03-09 10:00:00"))

	_, err := h.svc.History(employeeCtx(), service.HistoryParams{UserID: managerID})

	require.ErrorIs(t, err, apperrors.ErrForbidden)
}

func TestHistory_ManagerReadsOthers(t *testing.T) {
	h := newHarness(t, at(t, "2026-03-09 10:00:00"))
	checkIn := at(t, "2026-03-05 09:00:00")
	h.mockDB.ExpectQuery("SELECT id, user_id, date, check_in_time, check_out_time, status, total_hours, created_at").
		WithArgs(employeeID, testutil.AnyTime{}, testutil.AnyTime{}).
		WillReturnRows(testutil.MockRows(recordColumns()...).
			AddRow("rec-1", employeeID, engine.DateOf(checkIn), checkIn, nil, "present", nil, checkIn))

	records, err := h.svc.History(managerCtx(), service.HistoryParams{UserID: employeeID})

	require.NoError(t, err)
	require.Len(t, records, 1)
	assert.Equal(t, employeeID, records[0].UserID)
}

func TestMonthlyStats(t *testing.T) {
	h := newHarness(t, at(t, "2026-03-09 10:00:00"))

	rows := testutil.MockRows(recordColumns()...)
	for i, status := range []string{"present", "present", "late", "absent"} {
		date := at(t, "2026-03-02 00:00:00").AddDate(0, 0, i)
		var hours interface{}
		if status != "absent" {
			hours = 8.0
		}
		rows.AddRow("rec-"+status, employeeID, date, date.Add(9*time.Hour), nil, status, hours, date)
	}
	h.mockDB.ExpectQuery("SELECT id, user_id, date, check_in_time, check_out_time, status, total_hours, created_at").
		WillReturnRows(rows)

	summary, err := h.svc.MonthlyStats(employeeCtx(), "", 2026, 3)

	require.NoError(t, err)
	assert.Equal(t, 2, summary.PresentDays)
	assert.Equal(t, 1, summary.LateDays)
	assert.Equal(t, 1, summary.AbsentDays)
	assert.Equal(t, 24.0, summary.TotalHours)
}

func TestMonthlyStats_InvalidMonth(t *testing.T) {
	h := newHarness(t, at(t, "2026-03-09 10:00:00"))

	_, err := h.svc.MonthlyStats(employeeCtx(), "", 2026, 13)

	require.ErrorIs(t, err, apperrors.ErrBadRequest)
}

func TestGetDashboard_RequiresManager(t *testing.T) {
	h := newHarness(t, at(t, "2026-03-09 10:00:00"))

	_, err := h.svc.GetDashboard(employeeCtx())

	require.ErrorIs(t, err, apperrors.ErrForbidden)
}

func TestGetDashboard(t *testing.T) {
	now := at(t, "2026-03-09 10:00:00")
	h := newHarness(t, now)

	h.mockDB.ExpectQuery("SELECT id, employee_id, name, department").
		WillReturnRows(testutil.MockRows("id", "employee_id", "name", "department").
			AddRow("u1", "EMP001", "Ana", "Engineering").
			AddRow("u2", "EMP002", "Ben", "Engineering").
			AddRow("u3", "EMP003", "Cleo", "Sales"))

	today := engine.DateOf(now)
	h.mockDB.ExpectQuery("FROM attendance").
		WillReturnRows(testutil.MockRows(recordColumns()...).
			AddRow("r1", "u1", today, today.Add(9*time.Hour), nil, "present", nil, now).
			AddRow("r2", "u2", today, today.Add(10*time.Hour), nil, "late", nil, now))

	h.mockDB.ExpectQuery("FROM attendance").
		WillReturnRows(testutil.MockRows(recordColumns()...).
			AddRow("r1", "u1", today, today.Add(9*time.Hour), nil, "present", nil, now).
			AddRow("r2", "u2", today, today.Add(10*time.Hour), nil, "late", nil, now))

	dashboard, err := h.svc.GetDashboard(managerCtx())

	require.NoError(t, err)
	assert.Equal(t, 3, dashboard.Today.TotalEmployees)
	assert.Equal(t, 1, dashboard.Today.Present)
	assert.Equal(t, 1, dashboard.Today.Late)
	assert.Equal(t, 1, dashboard.Today.Absent)
	require.Len(t, dashboard.Today.NotCheckedIn, 1)
	assert.Equal(t, "u3", dashboard.Today.NotCheckedIn[0].UserID)

	require.Len(t, dashboard.WeeklyTrend, 7)
	assert.Equal(t, 2, dashboard.WeeklyTrend[6].Present)

	require.Len(t, dashboard.Departments, 2)
	assert.Equal(t, "Engineering", dashboard.Departments[0].Department)
	assert.Equal(t, 2, dashboard.Departments[0].Present)
}

func TestBrowseRecords_RequiresManager(t *testing.T) {
	h := newHarness(t, at(t, "2026-03-09 10:00:00"))

	_, err := h.svc.BrowseRecords(employeeCtx(), engine.RecordFilter{})

	require.ErrorIs(t, err, apperrors.ErrForbidden)
}

func TestBrowseRecords_AppliesFilter(t *testing.T) {
	now := at(t, "2026-03-09 10:00:00")
	h := newHarness(t, now)

	today := engine.DateOf(now)
	joinedColumns := append(recordColumns(), "employee_id", "employee_name", "department")
	h.mockDB.ExpectQuery("JOIN users").
		WithArgs(200).
		WillReturnRows(testutil.MockRows(joinedColumns...).
			AddRow("r1", "u1", today, today.Add(9*time.Hour), nil, "present", nil, now, "EMP001", "Ana", "Engineering").
			AddRow("r2", "u2", today, today.Add(10*time.Hour), nil, "late", nil, now, "EMP002", "Ben", "Sales"))

	records, err := h.svc.BrowseRecords(managerCtx(), engine.RecordFilter{Status: engine.StatusLate})

	require.NoError(t, err)
	require.Len(t, records, 1)
	assert.Equal(t, "u2", records[0].UserID)
	assert.Equal(t, "Ben", records[0].EmployeeName)
}
