// Package middleware provides JWT authentication and role gating for the
// HTTP routes.
package middleware

import (
	"net/http"
	"strings"

	"github.com/attendly/attendly-backend/internal/auth/jwt"
	"github.com/attendly/attendly-backend/pkg/actor"
	"github.com/attendly/attendly-backend/pkg/errors"
	"github.com/attendly/attendly-backend/pkg/httputil"
)

// RequireAuth validates the bearer token and puts the caller identity on the
// request context.
func RequireAuth(jwtManager *jwt.Manager) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			header := r.Header.Get("Authorization")
			if header == "" {
				httputil.Error(w, errors.Unauthorized("missing authorization header"))
				return
			}

			parts := strings.SplitN(header, " ", 2)
			if len(parts) != 2 || parts[0] != "Bearer" {
				httputil.Error(w, errors.Unauthorized("invalid authorization header"))
				return
			}

			claims, err := jwtManager.ValidateAccessToken(parts[1])
			if err != nil {
				httputil.Error(w, err)
				return
			}

			role, err := actor.ParseRole(claims.Role)
			if err != nil {
				httputil.Error(w, errors.TokenInvalid())
				return
			}

			caller := &actor.Actor{
				ID:         claims.UserID,
				Name:       claims.Name,
				Email:      claims.Email,
				Role:       role,
				EmployeeID: claims.EmployeeID,
				Department: claims.Department,
			}

			next.ServeHTTP(w, r.WithContext(actor.WithActor(r.Context(), caller)))
		})
	}
}

// RequireManager rejects callers without the manager capability. Must run
// after RequireAuth.
func RequireManager(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		caller := actor.FromContext(r.Context())
		if caller == nil {
			httputil.Error(w, errors.Unauthorized("authentication required"))
			return
		}
		if !caller.Role.CanViewAllRecords() {
			httputil.Error(w, errors.AccessDenied())
			return
		}

		next.ServeHTTP(w, r)
	})
}
