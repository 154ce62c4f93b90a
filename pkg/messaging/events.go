package messaging

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
)

// Event types
const (
	// User events
	EventUserRegistered = "user.registered"

	// Attendance events
	EventAttendanceCheckedIn  = "attendance.checked_in"
	EventAttendanceCheckedOut = "attendance.checked_out"
)

// Exchange names
const (
	ExchangeAttendanceEvents = "attendance.events"
	ExchangeUserEvents       = "user.events"
)

// Event is the base event structure
type Event struct {
	ID            string          `json:"id"`
	Type          string          `json:"type"`
	Source        string          `json:"source"`
	Timestamp     time.Time       `json:"timestamp"`
	CorrelationID string          `json:"correlation_id"`
	Data          json.RawMessage `json:"data"`
}

// NewEvent creates a new event with the given type and data
func NewEvent(eventType, source, correlationID string, data interface{}) (*Event, error) {
	dataBytes, err := json.Marshal(data)
	if err != nil {
		return nil, err
	}

	return &Event{
		ID:            uuid.New().String(),
		Type:          eventType,
		Source:        source,
		Timestamp:     time.Now().UTC(),
		CorrelationID: correlationID,
		Data:          dataBytes,
	}, nil
}

// UserRegisteredEvent is published when a user signs up
type UserRegisteredEvent struct {
	UserID     string `json:"user_id"`
	Email      string `json:"email"`
	Name       string `json:"name"`
	EmployeeID string `json:"employee_id"`
	Department string `json:"department"`
	Role       string `json:"role"`
}

// AttendanceCheckedInEvent is published when a user checks in
type AttendanceCheckedInEvent struct {
	RecordID string    `json:"record_id"`
	UserID   string    `json:"user_id"`
	Date     string    `json:"date"`
	CheckIn  time.Time `json:"check_in"`
	Status   string    `json:"status"`
}

// AttendanceCheckedOutEvent is published when a user checks out
type AttendanceCheckedOutEvent struct {
	RecordID   string    `json:"record_id"`
	UserID     string    `json:"user_id"`
	Date       string    `json:"date"`
	CheckOut   time.Time `json:"check_out"`
	TotalHours float64   `json:"total_hours"`
}
