package database

import (
	"strings"

	"github.com/attendly/attendly-backend/pkg/errors"
	"github.com/lib/pq"
)

// MapPQError converts a PostgreSQL error to an AppError with meaningful messages.
// Returns nil if the error is not a pq.Error.
func MapPQError(err error) *errors.AppError {
	pqErr, ok := err.(*pq.Error)
	if !ok {
		return nil
	}

	switch pqErr.Code {
	// Check constraint violation (23514)
	case "23514":
		return mapCheckConstraint(pqErr)

	// Unique constraint violation (23505)
	case "23505":
		return mapUniqueConstraint(pqErr)

	// Foreign key violation (23503)
	case "23503":
		return errors.BadRequest("referenced record does not exist")

	// Not null violation (23502)
	case "23502":
		col := pqErr.Column
		if col == "" {
			col = "required field"
		}
		return errors.Validation(map[string]string{
			col: "must not be empty",
		})

	default:
		return nil
	}
}

// mapUniqueConstraint maps unique violations to the domain errors callers
// actually branch on. The (user_id, date) pair on attendance is the one the
// check-in flow depends on.
func mapUniqueConstraint(pqErr *pq.Error) *errors.AppError {
	constraint := pqErr.Constraint

	switch {
	case strings.Contains(constraint, "attendance_user_id_date"):
		return errors.DuplicateRecord()
	case strings.Contains(constraint, "employee_id"):
		return errors.Conflict("a user with this employee ID already exists")
	case strings.Contains(constraint, "email"):
		return errors.Conflict("a user with this email already exists")
	default:
		return errors.Conflict("a record with these values already exists")
	}
}

// mapCheckConstraint maps specific CHECK constraint names to user-friendly messages.
func mapCheckConstraint(pqErr *pq.Error) *errors.AppError {
	constraint := pqErr.Constraint

	switch {
	case strings.Contains(constraint, "status_valid"):
		return errors.Validation(map[string]string{
			"status": "must be one of: present, absent, late, half-day",
		})

	case strings.Contains(constraint, "role_valid"):
		return errors.Validation(map[string]string{
			"role": "must be one of: employee, manager",
		})

	case strings.Contains(constraint, "total_hours_non_negative"):
		return errors.InvalidDuration("total hours must not be negative")

	default:
		return errors.BadRequest("data validation failed: " + constraint)
	}
}
