package handler_test

import (
	"context"
	"encoding/json"
	"log"
	"net/http"
	"net/http/httptest"
	"os"
	"strings"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/attendly/attendly-backend/internal/attendance/engine"
	"github.com/attendly/attendly-backend/internal/attendance/handler"
	"github.com/attendly/attendly-backend/internal/attendance/repository"
	"github.com/attendly/attendly-backend/internal/attendance/service"
	"github.com/attendly/attendly-backend/internal/auth/jwt"
	authmiddleware "github.com/attendly/attendly-backend/internal/auth/middleware"
	userrepo "github.com/attendly/attendly-backend/internal/user/repository"
	"github.com/attendly/attendly-backend/pkg/config"
	"github.com/attendly/attendly-backend/pkg/logger"
	"github.com/attendly/attendly-backend/pkg/testutil"
)

var suite *testutil.IntegrationSuite

var jwtManager = jwt.NewManager(&config.JWTConfig{
	Secret:        "test-secret-not-for-production",
	AccessExpiry:  15 * time.Minute,
	RefreshExpiry: 24 * time.Hour,
	Issuer:        "attendly-test",
})

func TestMain(m *testing.M) {
	ctx := context.Background()

	var err error
	suite, err = testutil.NewIntegrationSuite(ctx)
	if err != nil {
		log.Fatalf("failed to create integration suite: %v", err)
	}
	defer testutil.TerminateContainer(ctx)

	os.Exit(m.Run())
}

// newRouter builds the attendance routes with auth the way main does,
// against the integration database, with a fixed clock.
func newRouter(now time.Time) http.Handler {
	logg := logger.New("test", "test")
	users := userrepo.NewUserRepository(suite.DB)
	svc := service.NewAttendanceService(
		repository.NewAttendanceRepository(suite.DB),
		users,
		nil, // no broker in handler tests
		&config.WorkdayConfig{Start: "09:00:00", RecordWindowLimit: 200},
		logg,
	).WithClock(func() time.Time { return now })

	h := handler.NewAttendanceHandler(svc, logg)

	r := chi.NewRouter()
	r.Group(func(r chi.Router) {
		r.Use(authmiddleware.RequireAuth(jwtManager))
		r.Route("/attendance", func(r chi.Router) {
			h.Routes(r)
			r.Group(func(r chi.Router) {
				r.Use(authmiddleware.RequireManager)
				h.ManagerRoutes(r)
			})
		})
	})
	return r
}

func tokenFor(t *testing.T, user *testutil.UserFixture) string {
	t.Helper()
	pair, err := jwtManager.GenerateTokenPair(&jwt.UserInfo{
		ID:         user.ID,
		Email:      user.Email,
		Name:       user.Name,
		Role:       user.Role,
		EmployeeID: user.EmployeeID,
		Department: user.Department,
	}, "session-test")
	require.NoError(t, err)
	return pair.AccessToken
}

func do(t *testing.T, router http.Handler, method, path, token string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, path, nil)
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	return rec
}

type envelope struct {
	Success bool            `json:"success"`
	Data    json.RawMessage `json:"data"`
	Error   *struct {
		Code    string `json:"code"`
		Message string `json:"message"`
	} `json:"error"`
}

func decode(t *testing.T, rec *httptest.ResponseRecorder) envelope {
	t.Helper()
	var env envelope
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &env))
	return env
}

func TestCheckInFlow(t *testing.T) {
	ctx := context.Background()
	suite.Truncate(t, ctx)

	user := suite.Fixtures.Employee("Engineering")
	suite.InsertUser(t, ctx, user)
	token := tokenFor(t, user)

	router := newRouter(time.Date(2026, time.March, 9, 8, 55, 0, 0, time.UTC))

	// First check-in before the threshold: present.
	rec := do(t, router, http.MethodPost, "/attendance/check-in", token)
	require.Equal(t, http.StatusCreated, rec.Code)

	var created engine.Record
	env := decode(t, rec)
	require.NoError(t, json.Unmarshal(env.Data, &created))
	assert.Equal(t, engine.StatusPresent, created.Status)

	// Second check-in the same day: conflict.
	rec = do(t, router, http.MethodPost, "/attendance/check-in", token)
	require.Equal(t, http.StatusConflict, rec.Code)
	env = decode(t, rec)
	require.NotNil(t, env.Error)
	assert.Equal(t, "DUPLICATE_RECORD", env.Error.Code)
}

func TestCheckIn_LateAfterThreshold(t *testing.T) {
	ctx := context.Background()
	suite.Truncate(t, ctx)

	user := suite.Fixtures.Employee("Engineering")
	suite.InsertUser(t, ctx, user)

	router := newRouter(time.Date(2026, time.March, 9, 9, 1, 0, 0, time.UTC))
	rec := do(t, router, http.MethodPost, "/attendance/check-in", tokenFor(t, user))

	require.Equal(t, http.StatusCreated, rec.Code)
	var created engine.Record
	require.NoError(t, json.Unmarshal(decode(t, rec).Data, &created))
	assert.Equal(t, engine.StatusLate, created.Status)
}

func TestCheckOutFlow(t *testing.T) {
	ctx := context.Background()
	suite.Truncate(t, ctx)

	user := suite.Fixtures.Employee("Engineering")
	suite.InsertUser(t, ctx, user)
	token := tokenFor(t, user)

	// Check-out with no record yet: conflict.
	router := newRouter(time.Date(2026, time.March, 9, 17, 30, 0, 0, time.UTC))
	rec := do(t, router, http.MethodPost, "/attendance/check-out", token)
	require.Equal(t, http.StatusConflict, rec.Code)
	assert.Equal(t, "NO_ACTIVE_CHECK_IN", decode(t, rec).Error.Code)

	// Check in at 09:00, out at 17:30: 8.5 hours.
	morning := newRouter(time.Date(2026, time.March, 9, 9, 0, 0, 0, time.UTC))
	rec = do(t, morning, http.MethodPost, "/attendance/check-in", token)
	require.Equal(t, http.StatusCreated, rec.Code)

	rec = do(t, router, http.MethodPost, "/attendance/check-out", token)
	require.Equal(t, http.StatusOK, rec.Code)

	var closed engine.Record
	require.NoError(t, json.Unmarshal(decode(t, rec).Data, &closed))
	require.NotNil(t, closed.TotalHours)
	assert.Equal(t, 8.5, *closed.TotalHours)
}

func TestToday(t *testing.T) {
	ctx := context.Background()
	suite.Truncate(t, ctx)

	user := suite.Fixtures.Employee("Engineering")
	suite.InsertUser(t, ctx, user)
	token := tokenFor(t, user)
	router := newRouter(time.Date(2026, time.March, 9, 10, 0, 0, 0, time.UTC))

	rec := do(t, router, http.MethodGet, "/attendance/today", token)
	require.Equal(t, http.StatusOK, rec.Code)

	var status service.DailyStatus
	require.NoError(t, json.Unmarshal(decode(t, rec).Data, &status))
	assert.Equal(t, engine.StateNotCheckedIn, status.State)

	do(t, router, http.MethodPost, "/attendance/check-in", token)

	rec = do(t, router, http.MethodGet, "/attendance/today", token)
	require.NoError(t, json.Unmarshal(decode(t, rec).Data, &status))
	assert.Equal(t, engine.StateCheckedIn, status.State)
}

func TestDashboard_RosterOfFive(t *testing.T) {
	ctx := context.Background()
	suite.Truncate(t, ctx)

	manager := suite.Fixtures.Manager()
	suite.InsertUser(t, ctx, manager)

	var employees []*testutil.UserFixture
	for i := 0; i < 5; i++ {
		emp := suite.Fixtures.Employee("Engineering")
		suite.InsertUser(t, ctx, emp)
		employees = append(employees, emp)
	}

	today := time.Date(2026, time.March, 9, 0, 0, 0, 0, time.UTC)
	suite.InsertRecord(t, ctx, suite.Fixtures.Record(employees[0].ID, today, "present"))
	suite.InsertRecord(t, ctx, suite.Fixtures.Record(employees[1].ID, today, "present"))
	suite.InsertRecord(t, ctx, suite.Fixtures.Record(employees[2].ID, today, "late"))

	router := newRouter(today.Add(11 * time.Hour))

	// Employees are locked out of the dashboard.
	rec := do(t, router, http.MethodGet, "/attendance/dashboard", tokenFor(t, employees[0]))
	require.Equal(t, http.StatusForbidden, rec.Code)

	rec = do(t, router, http.MethodGet, "/attendance/dashboard", tokenFor(t, manager))
	require.Equal(t, http.StatusOK, rec.Code)

	var dashboard service.Dashboard
	require.NoError(t, json.Unmarshal(decode(t, rec).Data, &dashboard))
	assert.Equal(t, 5, dashboard.Today.TotalEmployees)
	assert.Equal(t, 2, dashboard.Today.Present)
	assert.Equal(t, 1, dashboard.Today.Late)
	assert.Equal(t, 2, dashboard.Today.Absent)
	assert.Len(t, dashboard.Today.NotCheckedIn, 2)
	assert.Len(t, dashboard.WeeklyTrend, 7)
}

func TestRecordsAndExport(t *testing.T) {
	ctx := context.Background()
	suite.Truncate(t, ctx)

	manager := suite.Fixtures.Manager()
	suite.InsertUser(t, ctx, manager)
	emp := suite.Fixtures.Employee("Engineering")
	suite.InsertUser(t, ctx, emp)

	today := time.Date(2026, time.March, 9, 0, 0, 0, 0, time.UTC)
	suite.InsertRecord(t, ctx, suite.Fixtures.ClosedRecord(emp.ID, today, "present", 8.5))
	suite.InsertRecord(t, ctx, suite.Fixtures.Record(emp.ID, today.AddDate(0, 0, -1), "late"))

	router := newRouter(today.Add(18 * time.Hour))
	token := tokenFor(t, manager)

	// Status filter narrows the listing.
	rec := do(t, router, http.MethodGet, "/attendance/records?status=late", token)
	require.Equal(t, http.StatusOK, rec.Code)

	var records []*engine.JoinedRecord
	require.NoError(t, json.Unmarshal(decode(t, rec).Data, &records))
	require.Len(t, records, 1)
	assert.Equal(t, engine.StatusLate, records[0].Status)
	assert.Equal(t, emp.Name, records[0].EmployeeName)

	// Bad status filter is rejected.
	rec = do(t, router, http.MethodGet, "/attendance/records?status=vacation", token)
	require.Equal(t, http.StatusBadRequest, rec.Code)

	// Export streams CSV with the fixed header.
	rec = do(t, router, http.MethodGet, "/attendance/records/export", token)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "text/csv", rec.Header().Get("Content-Type"))
	assert.Contains(t, rec.Header().Get("Content-Disposition"), "attachment")

	lines := strings.Split(strings.TrimSpace(rec.Body.String()), "\n")
	require.Len(t, lines, 3)
	assert.Equal(t, "Date,Employee ID,Employee Name,Department,Check In,Check Out,Hours,Status", lines[0])
}

func TestHistoryEndpoint(t *testing.T) {
	ctx := context.Background()
	suite.Truncate(t, ctx)

	user := suite.Fixtures.Employee("Engineering")
	suite.InsertUser(t, ctx, user)

	today := time.Date(2026, time.March, 9, 0, 0, 0, 0, time.UTC)
	suite.InsertRecord(t, ctx, suite.Fixtures.Record(user.ID, today, "present"))
	suite.InsertRecord(t, ctx, suite.Fixtures.Record(user.ID, today.AddDate(0, 0, -1), "late"))

	router := newRouter(today.Add(12 * time.Hour))
	token := tokenFor(t, user)

	rec := do(t, router, http.MethodGet, "/attendance/history?from=2026-03-09&to=2026-03-09", token)
	require.Equal(t, http.StatusOK, rec.Code)

	var records []*engine.Record
	require.NoError(t, json.Unmarshal(decode(t, rec).Data, &records))
	require.Len(t, records, 1)

	// Unauthenticated requests never reach the handler.
	rec = do(t, router, http.MethodGet, "/attendance/history", "")
	require.Equal(t, http.StatusUnauthorized, rec.Code)
}
