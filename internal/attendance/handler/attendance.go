package handler

import (
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/attendly/attendly-backend/internal/attendance/engine"
	"github.com/attendly/attendly-backend/internal/attendance/service"
	"github.com/attendly/attendly-backend/pkg/errors"
	"github.com/attendly/attendly-backend/pkg/httputil"
	"github.com/attendly/attendly-backend/pkg/logger"
)

const dateLayout = "2006-01-02"

// AttendanceHandler handles attendance HTTP requests
type AttendanceHandler struct {
	service *service.AttendanceService
	logger  *logger.Logger
}

// NewAttendanceHandler creates a new attendance handler
func NewAttendanceHandler(svc *service.AttendanceService, log *logger.Logger) *AttendanceHandler {
	return &AttendanceHandler{
		service: svc,
		logger:  log.WithComponent("attendance-handler"),
	}
}

// Routes registers authenticated attendance routes.
func (h *AttendanceHandler) Routes(r chi.Router) {
	r.Post("/check-in", h.CheckIn)
	r.Post("/check-out", h.CheckOut)
	r.Get("/today", h.Today)
	r.Get("/history", h.History)
	r.Get("/summary/monthly", h.MonthlySummary)
}

// ManagerRoutes registers manager-only attendance routes.
func (h *AttendanceHandler) ManagerRoutes(r chi.Router) {
	r.Get("/dashboard", h.Dashboard)
	r.Get("/records", h.Records)
	r.Get("/records/export", h.Export)
}

// CheckIn records the caller's arrival
// POST /api/v1/attendance/check-in
func (h *AttendanceHandler) CheckIn(w http.ResponseWriter, r *http.Request) {
	rec, err := h.service.CheckIn(r.Context())
	if err != nil {
		httputil.Error(w, err)
		return
	}

	httputil.Created(w, rec)
}

// CheckOut closes the caller's open record
// POST /api/v1/attendance/check-out
func (h *AttendanceHandler) CheckOut(w http.ResponseWriter, r *http.Request) {
	rec, err := h.service.CheckOut(r.Context())
	if err != nil {
		httputil.Error(w, err)
		return
	}

	httputil.JSON(w, http.StatusOK, rec)
}

// Today resolves the caller's daily state
// GET /api/v1/attendance/today
func (h *AttendanceHandler) Today(w http.ResponseWriter, r *http.Request) {
	status, err := h.service.TodayStatus(r.Context())
	if err != nil {
		httputil.Error(w, err)
		return
	}

	httputil.JSON(w, http.StatusOK, status)
}

// History lists records in a date range
// GET /api/v1/attendance/history?from=2026-03-01&to=2026-03-31&user_id=...
func (h *AttendanceHandler) History(w http.ResponseWriter, r *http.Request) {
	params := service.HistoryParams{
		UserID: r.URL.Query().Get("user_id"),
	}

	var err error
	if params.From, err = parseDateParam(r, "from"); err != nil {
		httputil.Error(w, err)
		return
	}
	if params.To, err = parseDateParam(r, "to"); err != nil {
		httputil.Error(w, err)
		return
	}

	records, err := h.service.History(r.Context(), params)
	if err != nil {
		httputil.Error(w, err)
		return
	}

	httputil.JSON(w, http.StatusOK, records)
}

// MonthlySummary computes a month's statistics
// GET /api/v1/attendance/summary/monthly?year=2026&month=3&user_id=...
func (h *AttendanceHandler) MonthlySummary(w http.ResponseWriter, r *http.Request) {
	year, err := parseIntParam(r, "year")
	if err != nil {
		httputil.Error(w, err)
		return
	}
	month, err := parseIntParam(r, "month")
	if err != nil {
		httputil.Error(w, err)
		return
	}

	summary, err := h.service.MonthlyStats(r.Context(), r.URL.Query().Get("user_id"), year, month)
	if err != nil {
		httputil.Error(w, err)
		return
	}

	httputil.JSON(w, http.StatusOK, summary)
}

// Dashboard returns the aggregate manager view
// GET /api/v1/attendance/dashboard
func (h *AttendanceHandler) Dashboard(w http.ResponseWriter, r *http.Request) {
	dashboard, err := h.service.GetDashboard(r.Context())
	if err != nil {
		httputil.Error(w, err)
		return
	}

	httputil.JSON(w, http.StatusOK, dashboard)
}

// Records lists recent records with optional filters
// GET /api/v1/attendance/records?user_id=...&date=2026-03-09&status=late
func (h *AttendanceHandler) Records(w http.ResponseWriter, r *http.Request) {
	filter, err := parseFilter(r)
	if err != nil {
		httputil.Error(w, err)
		return
	}

	records, err := h.service.BrowseRecords(r.Context(), filter)
	if err != nil {
		httputil.Error(w, err)
		return
	}

	httputil.JSONWithMeta(w, http.StatusOK, records, &httputil.Meta{Total: int64(len(records))})
}

// Export streams the filtered records as a CSV download
// GET /api/v1/attendance/records/export
func (h *AttendanceHandler) Export(w http.ResponseWriter, r *http.Request) {
	filter, err := parseFilter(r)
	if err != nil {
		httputil.Error(w, err)
		return
	}

	records, err := h.service.BrowseRecords(r.Context(), filter)
	if err != nil {
		httputil.Error(w, err)
		return
	}

	filename := fmt.Sprintf("attendance_%s.csv", time.Now().Format("20060102"))
	w.Header().Set("Content-Type", "text/csv")
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", filename))

	if err := engine.WriteCSV(w, records); err != nil {
		// The header row may already be out; log instead of writing a
		// second body.
		h.logger.WithRequestID(httputil.GetRequestID(r.Context())).
			Error().Err(err).Msg("csv export failed")
	}
}

func parseFilter(r *http.Request) (engine.RecordFilter, error) {
	filter := engine.RecordFilter{
		UserID: r.URL.Query().Get("user_id"),
	}

	if raw := r.URL.Query().Get("status"); raw != "" {
		status := engine.Status(raw)
		if !status.Valid() {
			return filter, errors.BadRequest("invalid status filter")
		}
		filter.Status = status
	}

	if raw := r.URL.Query().Get("date"); raw != "" {
		date, err := time.Parse(dateLayout, raw)
		if err != nil {
			return filter, errors.BadRequest("date must be YYYY-MM-DD")
		}
		filter.Date = &date
	}

	return filter, nil
}

func parseDateParam(r *http.Request, name string) (time.Time, error) {
	raw := r.URL.Query().Get(name)
	if raw == "" {
		return time.Time{}, nil
	}

	date, err := time.Parse(dateLayout, raw)
	if err != nil {
		return time.Time{}, errors.BadRequest(name + " must be YYYY-MM-DD")
	}
	return date, nil
}

func parseIntParam(r *http.Request, name string) (int, error) {
	raw := r.URL.Query().Get(name)
	if raw == "" {
		return 0, nil
	}

	value, err := strconv.Atoi(raw)
	if err != nil {
		return 0, errors.BadRequest(name + " must be an integer")
	}
	return value, nil
}
