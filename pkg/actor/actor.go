// Package actor identifies the authenticated caller behind every engine and
// store operation. Handlers build an Actor from verified JWT claims and attach
// it to the request context; services read it back to scope queries and to
// check manager capabilities. Nothing below the handler layer ever consults
// ambient session state.
package actor

import (
	"context"
	"fmt"
)

// Role is the closed set of user roles.
type Role string

const (
	RoleEmployee Role = "employee"
	RoleManager  Role = "manager"
)

// ParseRole validates a raw role string against the closed set.
func ParseRole(s string) (Role, error) {
	switch Role(s) {
	case RoleEmployee, RoleManager:
		return Role(s), nil
	}
	return "", fmt.Errorf("unknown role: %q", s)
}

// Valid reports whether the role is one of the two known cases.
func (r Role) Valid() bool {
	return r == RoleEmployee || r == RoleManager
}

// CanViewAllRecords reports whether the role may read attendance rows
// belonging to other users. This is the single capability check that gates
// every cross-user read; callers must not compare role strings directly.
func (r Role) CanViewAllRecords() bool {
	return r == RoleManager
}

// Actor represents the authenticated user performing an action.
type Actor struct {
	// ID is the user's row ID.
	ID string `json:"id"`

	// Name is the user's display name.
	Name string `json:"name"`

	// Email is the user's email address.
	Email string `json:"email"`

	// EmployeeID is the company-issued employee identifier.
	EmployeeID string `json:"employee_id"`

	// Department the user belongs to.
	Department string `json:"department"`

	// Role is the actor's role within the closed role set.
	Role Role `json:"role"`
}

// String returns a representation of the actor for logging.
func (a *Actor) String() string {
	if a == nil {
		return "anonymous"
	}
	return fmt.Sprintf("%s (%s)", a.Name, a.Email)
}

// contextKey is the type for context keys to avoid collisions
type contextKey string

const actorContextKey contextKey = "actor"

// FromContext retrieves the Actor from the context.
// Returns nil if no actor is present.
func FromContext(ctx context.Context) *Actor {
	if ctx == nil {
		return nil
	}
	a, ok := ctx.Value(actorContextKey).(*Actor)
	if !ok {
		return nil
	}
	return a
}

// WithActor returns a new context with the Actor attached.
func WithActor(ctx context.Context, a *Actor) context.Context {
	if ctx == nil {
		ctx = context.Background()
	}
	return context.WithValue(ctx, actorContextKey, a)
}
