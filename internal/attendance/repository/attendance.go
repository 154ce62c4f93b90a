package repository

import (
	"context"
	"database/sql"
	"time"

	"github.com/google/uuid"

	"github.com/attendly/attendly-backend/internal/attendance/engine"
	"github.com/attendly/attendly-backend/pkg/database"
	"github.com/attendly/attendly-backend/pkg/errors"
)

// AttendanceRepository handles attendance record persistence
type AttendanceRepository struct {
	db *database.DB
}

// NewAttendanceRepository creates a new attendance repository
func NewAttendanceRepository(db *database.DB) *AttendanceRepository {
	return &AttendanceRepository{db: db}
}

// Create inserts a new attendance record. The unique (user_id, date)
// constraint is the source of truth for one-record-per-day; a violation
// comes back as DuplicateRecord.
func (r *AttendanceRepository) Create(ctx context.Context, rec *engine.Record) error {
	if rec.ID == "" {
		rec.ID = uuid.New().String()
	}

	query := `
		INSERT INTO attendance (id, user_id, date, check_in_time, check_out_time, status, total_hours)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING created_at
	`

	err := r.db.QueryRowxContext(ctx, query,
		rec.ID,
		rec.UserID,
		rec.Date,
		rec.CheckIn,
		rec.CheckOut,
		rec.Status,
		rec.TotalHours,
	).Scan(&rec.CreatedAt)

	if err != nil {
		if appErr := database.MapPQError(err); appErr != nil {
			return appErr
		}
		return err
	}
	return nil
}

// GetByUserAndDate gets a user's record for one date. No record is not an
// error; the daily state resolver treats nil as not-checked-in.
func (r *AttendanceRepository) GetByUserAndDate(ctx context.Context, userID string, date time.Time) (*engine.Record, error) {
	var rec engine.Record
	query := `
		SELECT id, user_id, date, check_in_time, check_out_time, status, total_hours, created_at
		FROM attendance
		WHERE user_id = $1 AND date = $2
	`

	err := r.db.GetContext(ctx, &rec, query, userID, date)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	return &rec, nil
}

// ListForUserInRange lists a user's records with date in [from, to],
// newest first.
func (r *AttendanceRepository) ListForUserInRange(ctx context.Context, userID string, from, to time.Time) ([]*engine.Record, error) {
	records := []*engine.Record{}
	query := `
		SELECT id, user_id, date, check_in_time, check_out_time, status, total_hours, created_at
		FROM attendance
		WHERE user_id = $1 AND date >= $2 AND date <= $3
		ORDER BY date DESC
	`

	if err := r.db.SelectContext(ctx, &records, query, userID, from, to); err != nil {
		return nil, err
	}
	return records, nil
}

// ListByDate lists all records for one date.
func (r *AttendanceRepository) ListByDate(ctx context.Context, date time.Time) ([]*engine.Record, error) {
	records := []*engine.Record{}
	query := `
		SELECT id, user_id, date, check_in_time, check_out_time, status, total_hours, created_at
		FROM attendance
		WHERE date = $1
	`

	if err := r.db.SelectContext(ctx, &records, query, date); err != nil {
		return nil, err
	}
	return records, nil
}

// ListInRange lists all records with date in [from, to], across users.
func (r *AttendanceRepository) ListInRange(ctx context.Context, from, to time.Time) ([]*engine.Record, error) {
	records := []*engine.Record{}
	query := `
		SELECT id, user_id, date, check_in_time, check_out_time, status, total_hours, created_at
		FROM attendance
		WHERE date >= $1 AND date <= $2
	`

	if err := r.db.SelectContext(ctx, &records, query, from, to); err != nil {
		return nil, err
	}
	return records, nil
}

// ListRecent lists the most recent records joined with employee profile
// fields, newest first, capped at limit.
func (r *AttendanceRepository) ListRecent(ctx context.Context, limit int) ([]*engine.JoinedRecord, error) {
	records := []*engine.JoinedRecord{}
	query := `
		SELECT a.id, a.user_id, a.date, a.check_in_time, a.check_out_time, a.status, a.total_hours, a.created_at,
		       u.employee_id, u.name AS employee_name, u.department
		FROM attendance a
		JOIN users u ON a.user_id = u.id
		ORDER BY a.date DESC, a.check_in_time DESC
		LIMIT $1
	`

	if err := r.db.SelectContext(ctx, &records, query, limit); err != nil {
		return nil, err
	}
	return records, nil
}

// CloseOut applies a check-out closure to an open record. Zero rows means
// the record was already closed or never existed.
func (r *AttendanceRepository) CloseOut(ctx context.Context, recordID string, closure *engine.Closure) error {
	query := `
		UPDATE attendance
		SET check_out_time = $2, total_hours = $3
		WHERE id = $1 AND check_out_time IS NULL
	`

	result, err := r.db.ExecContext(ctx, query, recordID, closure.CheckOut, closure.TotalHours)
	if err != nil {
		if appErr := database.MapPQError(err); appErr != nil {
			return appErr
		}
		return err
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return errors.NoActiveCheckIn()
	}
	return nil
}
