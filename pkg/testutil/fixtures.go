package testutil

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
)

// UserFixture represents test user data
type UserFixture struct {
	ID           string
	Email        string
	PasswordHash string
	Name         string
	Role         string
	EmployeeID   string
	Department   string
	CreatedAt    time.Time
}

// RecordFixture represents test attendance record data
type RecordFixture struct {
	ID         string
	UserID     string
	Date       time.Time
	CheckIn    time.Time
	CheckOut   *time.Time
	Status     string
	TotalHours *float64
	CreatedAt  time.Time
}

// FixtureFactory creates test fixtures with sensible defaults
type FixtureFactory struct {
	sequence int
}

// NewFixtureFactory creates a new fixture factory
func NewFixtureFactory() *FixtureFactory {
	return &FixtureFactory{sequence: 0}
}

func (f *FixtureFactory) next() int {
	f.sequence++
	return f.sequence
}

// TestPassword is the plaintext behind every fixture's password hash.
const TestPassword = "test-password-123"

var testPasswordHash string

// PasswordHash returns a bcrypt hash of TestPassword, computed once.
func PasswordHash() string {
	if testPasswordHash == "" {
		hash, err := bcrypt.GenerateFromPassword([]byte(TestPassword), bcrypt.MinCost)
		if err != nil {
			panic(err)
		}
		testPasswordHash = string(hash)
	}
	return testPasswordHash
}

// Employee creates an employee user fixture
func (f *FixtureFactory) Employee(department string) *UserFixture {
	n := f.next()
	return &UserFixture{
		ID:           uuid.New().String(),
		Email:        fmt.Sprintf("employee%d@attendly.test", n),
		PasswordHash: PasswordHash(),
		Name:         fmt.Sprintf("Employee %d", n),
		Role:         "employee",
		EmployeeID:   fmt.Sprintf("EMP%03d", n),
		Department:   department,
		CreatedAt:    time.Now(),
	}
}

// Manager creates a manager user fixture
func (f *FixtureFactory) Manager() *UserFixture {
	n := f.next()
	return &UserFixture{
		ID:           uuid.New().String(),
		Email:        fmt.Sprintf("manager%d@attendly.test", n),
		PasswordHash: PasswordHash(),
		Name:         fmt.Sprintf("Manager %d", n),
		Role:         "manager",
		EmployeeID:   fmt.Sprintf("MGR%03d", n),
		Department:   "Management",
		CreatedAt:    time.Now(),
	}
}

// Record creates an open attendance record fixture for a user
func (f *FixtureFactory) Record(userID string, date time.Time, status string) *RecordFixture {
	return &RecordFixture{
		ID:      uuid.New().String(),
		UserID:  userID,
		Date:    date,
		CheckIn: date.Add(9 * time.Hour),
		Status:  status,
	}
}

// ClosedRecord creates a checked-out record fixture
func (f *FixtureFactory) ClosedRecord(userID string, date time.Time, status string, hours float64) *RecordFixture {
	rec := f.Record(userID, date, status)
	checkOut := rec.CheckIn.Add(time.Duration(hours * float64(time.Hour)))
	rec.CheckOut = &checkOut
	rec.TotalHours = &hours
	return rec
}

// InsertUser inserts a user fixture into the integration database
func (s *IntegrationSuite) InsertUser(t *testing.T, ctx context.Context, user *UserFixture) {
	t.Helper()
	_, err := s.RawDB.ExecContext(ctx, `
		INSERT INTO users (id, email, password_hash, name, role, employee_id, department)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
	`, user.ID, user.Email, user.PasswordHash, user.Name, user.Role, user.EmployeeID, user.Department)
	if err != nil {
		t.Fatalf("failed to insert user fixture: %v", err)
	}
}

// InsertRecord inserts an attendance record fixture into the integration
// database
func (s *IntegrationSuite) InsertRecord(t *testing.T, ctx context.Context, rec *RecordFixture) {
	t.Helper()
	_, err := s.RawDB.ExecContext(ctx, `
		INSERT INTO attendance (id, user_id, date, check_in_time, check_out_time, status, total_hours)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
	`, rec.ID, rec.UserID, rec.Date, rec.CheckIn, rec.CheckOut, rec.Status, rec.TotalHours)
	if err != nil {
		t.Fatalf("failed to insert attendance fixture: %v", err)
	}
}
