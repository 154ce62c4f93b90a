package repository

import (
	"context"
	"database/sql"

	"github.com/google/uuid"

	"github.com/attendly/attendly-backend/internal/attendance/engine"
	"github.com/attendly/attendly-backend/internal/user/domain"
	"github.com/attendly/attendly-backend/pkg/database"
	"github.com/attendly/attendly-backend/pkg/errors"
)

// UserRepository handles user persistence
type UserRepository struct {
	db *database.DB
}

// NewUserRepository creates a new user repository
func NewUserRepository(db *database.DB) *UserRepository {
	return &UserRepository{db: db}
}

// Create creates a new user. Unique violations on email or employee_id come
// back as conflicts.
func (r *UserRepository) Create(ctx context.Context, user *domain.User) error {
	if user.ID == "" {
		user.ID = uuid.New().String()
	}

	query := `
		INSERT INTO users (id, email, password_hash, name, role, employee_id, department)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING created_at
	`

	err := r.db.QueryRowxContext(ctx, query,
		user.ID,
		user.Email,
		user.PasswordHash,
		user.Name,
		user.Role,
		user.EmployeeID,
		user.Department,
	).Scan(&user.CreatedAt)

	if err != nil {
		if appErr := database.MapPQError(err); appErr != nil {
			return appErr
		}
		return err
	}
	return nil
}

// GetByID gets a user by ID
func (r *UserRepository) GetByID(ctx context.Context, id string) (*domain.User, error) {
	var user domain.User
	query := `
		SELECT id, email, password_hash, name, role, employee_id, department, created_at
		FROM users
		WHERE id = $1
	`

	err := r.db.GetContext(ctx, &user, query, id)
	if err == sql.ErrNoRows {
		return nil, errors.NotFound("user")
	}
	if err != nil {
		return nil, err
	}

	return &user, nil
}

// GetByEmail gets a user by email
func (r *UserRepository) GetByEmail(ctx context.Context, email string) (*domain.User, error) {
	var user domain.User
	query := `
		SELECT id, email, password_hash, name, role, employee_id, department, created_at
		FROM users
		WHERE email = $1
	`

	err := r.db.GetContext(ctx, &user, query, email)
	if err == sql.ErrNoRows {
		return nil, errors.NotFound("user")
	}
	if err != nil {
		return nil, err
	}

	return &user, nil
}

// ListEmployees lists all employee-role users ordered by name.
func (r *UserRepository) ListEmployees(ctx context.Context) ([]*domain.User, error) {
	users := []*domain.User{}
	query := `
		SELECT id, email, password_hash, name, role, employee_id, department, created_at
		FROM users
		WHERE role = 'employee'
		ORDER BY name ASC
	`

	if err := r.db.SelectContext(ctx, &users, query); err != nil {
		return nil, err
	}
	return users, nil
}

// Roster returns the employee roster in the shape the dashboard rollups
// consume.
func (r *UserRepository) Roster(ctx context.Context) ([]engine.Employee, error) {
	roster := []engine.Employee{}
	query := `
		SELECT id, employee_id, name, department
		FROM users
		WHERE role = 'employee'
		ORDER BY name ASC
	`

	if err := r.db.SelectContext(ctx, &roster, query); err != nil {
		return nil, err
	}
	return roster, nil
}
