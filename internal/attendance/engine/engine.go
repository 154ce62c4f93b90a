// Package engine holds the attendance state logic: deciding lateness at
// check-in, computing hours at check-out, resolving a user's daily state and
// rolling records up into monthly, daily, weekly and per-department views.
//
// Every function here is pure: plain records and timestamps in, a view-model
// or a typed failure out. Persistence, access control and rendering live with
// the callers.
package engine

import (
	"math"
	"time"

	"github.com/attendly/attendly-backend/pkg/errors"
)

// Status is the persisted status of an attendance record.
type Status string

const (
	StatusPresent Status = "present"
	StatusAbsent  Status = "absent"
	StatusLate    Status = "late"
	StatusHalfDay Status = "half-day"
)

// Valid reports whether the status is one of the persisted values.
func (s Status) Valid() bool {
	switch s {
	case StatusPresent, StatusAbsent, StatusLate, StatusHalfDay:
		return true
	}
	return false
}

// CountsAsPresent reports whether the status counts toward presence in the
// weekly trend and department rollups. Late arrivals still showed up.
func (s Status) CountsAsPresent() bool {
	return s == StatusPresent || s == StatusLate
}

// DailyState is the derived check-in/check-out state for one user and day.
type DailyState string

const (
	StateNotCheckedIn DailyState = "not-checked-in"
	StateCheckedIn    DailyState = "checked-in"
	StateCheckedOut   DailyState = "checked-out"
)

// Record is one attendance record: exactly one per user per calendar date.
// Status is fixed at check-in; check-out only adds CheckOut and TotalHours.
type Record struct {
	ID         string     `db:"id" json:"id"`
	UserID     string     `db:"user_id" json:"user_id"`
	Date       time.Time  `db:"date" json:"date"`
	CheckIn    time.Time  `db:"check_in_time" json:"check_in_time"`
	CheckOut   *time.Time `db:"check_out_time" json:"check_out_time,omitempty"`
	Status     Status     `db:"status" json:"status"`
	TotalHours *float64   `db:"total_hours" json:"total_hours,omitempty"`
	CreatedAt  time.Time  `db:"created_at" json:"created_at"`
}

// Employee is a roster entry: a user with role employee.
type Employee struct {
	UserID     string `db:"id" json:"user_id"`
	EmployeeID string `db:"employee_id" json:"employee_id"`
	Name       string `db:"name" json:"name"`
	Department string `db:"department" json:"department"`
}

// WorkStart is the nominal work-start time of day. A check-in strictly after
// this threshold on its own date is late.
type WorkStart struct {
	Hour   int
	Minute int
	Second int
}

// DefaultWorkStart is the fixed 09:00:00 policy.
var DefaultWorkStart = WorkStart{Hour: 9}

// OnDate returns the work-start threshold for the given date, in that
// timestamp's location.
func (w WorkStart) OnDate(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), w.Hour, w.Minute, w.Second, 0, t.Location())
}

// DateOf truncates a timestamp to its calendar date, keeping the location.
func DateOf(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, t.Location())
}

// SameDate reports whether two timestamps fall on the same calendar date.
func SameDate(a, b time.Time) bool {
	return a.Year() == b.Year() && a.Month() == b.Month() && a.Day() == b.Day()
}

// ResolveDailyState derives the user's state for a day from zero-or-one
// record. Total over its inputs, no error cases.
func ResolveDailyState(rec *Record) DailyState {
	switch {
	case rec == nil:
		return StateNotCheckedIn
	case rec.CheckOut == nil:
		return StateCheckedIn
	default:
		return StateCheckedOut
	}
}

// EvaluateCheckIn builds a record draft for a check-in happening at now.
// The status is decided here, once, and never recomputed: strictly after the
// work-start threshold is late, at or before it is present. Uniqueness per
// (user, date) is the store's job; a violation surfaces as DuplicateRecord
// at the boundary.
func EvaluateCheckIn(userID string, now time.Time, start WorkStart) *Record {
	status := StatusPresent
	if now.After(start.OnDate(now)) {
		status = StatusLate
	}

	return &Record{
		UserID:  userID,
		Date:    DateOf(now),
		CheckIn: now,
		Status:  status,
	}
}

// Closure is the update payload a check-out produces.
type Closure struct {
	CheckOut   time.Time `json:"check_out_time"`
	TotalHours float64   `json:"total_hours"`
}

// EvaluateCheckOut computes the closure for today's open record.
// Fails with NoActiveCheckIn when there is nothing open, and with
// InvalidDuration when the clock would yield negative hours; a negative
// value is never handed to the store.
func EvaluateCheckOut(rec *Record, now time.Time) (*Closure, error) {
	if rec == nil || rec.CheckOut != nil {
		return nil, errors.NoActiveCheckIn()
	}

	if now.Before(rec.CheckIn) {
		return nil, errors.InvalidDuration("check-out precedes check-in")
	}

	return &Closure{
		CheckOut:   now,
		TotalHours: RoundHours(now.Sub(rec.CheckIn)),
	}, nil
}

// RoundHours converts a duration to hours rounded to two decimal places.
func RoundHours(d time.Duration) float64 {
	return math.Round(d.Hours()*100) / 100
}
