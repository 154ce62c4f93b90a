package handler

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/attendly/attendly-backend/internal/user/service"
	"github.com/attendly/attendly-backend/pkg/httputil"
	"github.com/attendly/attendly-backend/pkg/logger"
)

// UserHandler handles user HTTP requests
type UserHandler struct {
	service *service.UserService
	logger  *logger.Logger
}

// NewUserHandler creates a new user handler
func NewUserHandler(svc *service.UserService, log *logger.Logger) *UserHandler {
	return &UserHandler{
		service: svc,
		logger:  log.WithComponent("user-handler"),
	}
}

// Routes registers authenticated user routes.
func (h *UserHandler) Routes(r chi.Router) {
	r.Get("/me", h.Me)
}

// ManagerRoutes registers manager-only user routes.
func (h *UserHandler) ManagerRoutes(r chi.Router) {
	r.Get("/employees", h.ListEmployees)
}

// Me returns the calling user's profile
// GET /api/v1/me
func (h *UserHandler) Me(w http.ResponseWriter, r *http.Request) {
	user, err := h.service.Profile(r.Context())
	if err != nil {
		httputil.Error(w, err)
		return
	}

	httputil.JSON(w, http.StatusOK, user)
}

// ListEmployees returns the employee roster
// GET /api/v1/employees
func (h *UserHandler) ListEmployees(w http.ResponseWriter, r *http.Request) {
	users, err := h.service.Employees(r.Context())
	if err != nil {
		httputil.Error(w, err)
		return
	}

	httputil.JSON(w, http.StatusOK, users)
}
