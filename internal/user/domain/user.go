// Package domain holds the user model shared by the auth and attendance
// layers.
package domain

import (
	"time"

	"github.com/attendly/attendly-backend/pkg/actor"
)

// User represents an account in the system. Role is fixed at registration.
type User struct {
	ID           string     `json:"id" db:"id"`
	Email        string     `json:"email" db:"email"`
	PasswordHash string     `json:"-" db:"password_hash"`
	Name         string     `json:"name" db:"name"`
	Role         actor.Role `json:"role" db:"role"`
	EmployeeID   string     `json:"employee_id" db:"employee_id"`
	Department   string     `json:"department" db:"department"`
	CreatedAt    time.Time  `json:"created_at" db:"created_at"`
}

// IsManager reports whether the user holds the manager role.
func (u *User) IsManager() bool {
	return u.Role == actor.RoleManager
}
