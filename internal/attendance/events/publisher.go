package events

import (
	"context"

	"github.com/attendly/attendly-backend/internal/attendance/engine"
	"github.com/attendly/attendly-backend/pkg/logger"
	"github.com/attendly/attendly-backend/pkg/messaging"
)

// publisher is the slice of the messaging publisher this package needs.
// Narrow so tests can stub it.
type publisher interface {
	Publish(ctx context.Context, eventType string, data interface{}) error
}

// AttendanceEventPublisher publishes attendance lifecycle events. Publish
// failures are logged and swallowed; the record is already persisted and the
// request must not fail because the broker is down.
type AttendanceEventPublisher struct {
	publisher publisher
	logger    *logger.Logger
}

// NewAttendanceEventPublisher creates a publisher bound to the attendance
// events exchange.
func NewAttendanceEventPublisher(rmq *messaging.RabbitMQ, log *logger.Logger) (*AttendanceEventPublisher, error) {
	pub, err := messaging.NewPublisher(rmq, messaging.ExchangeAttendanceEvents, "attendance-service", log)
	if err != nil {
		return nil, err
	}

	return &AttendanceEventPublisher{
		publisher: pub,
		logger:    log,
	}, nil
}

// NewWithPublisher wires an explicit publisher. Used by tests.
func NewWithPublisher(pub publisher, log *logger.Logger) *AttendanceEventPublisher {
	return &AttendanceEventPublisher{
		publisher: pub,
		logger:    log,
	}
}

// PublishCheckedIn publishes an attendance checked-in event
func (p *AttendanceEventPublisher) PublishCheckedIn(ctx context.Context, rec *engine.Record) {
	data := messaging.AttendanceCheckedInEvent{
		RecordID: rec.ID,
		UserID:   rec.UserID,
		Date:     rec.Date.Format("2006-01-02"),
		CheckIn:  rec.CheckIn,
		Status:   string(rec.Status),
	}

	if err := p.publisher.Publish(ctx, messaging.EventAttendanceCheckedIn, data); err != nil {
		p.logger.Error().Err(err).Str("record_id", rec.ID).Msg("failed to publish checked-in event")
	}
}

// PublishCheckedOut publishes an attendance checked-out event
func (p *AttendanceEventPublisher) PublishCheckedOut(ctx context.Context, rec *engine.Record, closure *engine.Closure) {
	data := messaging.AttendanceCheckedOutEvent{
		RecordID:   rec.ID,
		UserID:     rec.UserID,
		Date:       rec.Date.Format("2006-01-02"),
		CheckOut:   closure.CheckOut,
		TotalHours: closure.TotalHours,
	}

	if err := p.publisher.Publish(ctx, messaging.EventAttendanceCheckedOut, data); err != nil {
		p.logger.Error().Err(err).Str("record_id", rec.ID).Msg("failed to publish checked-out event")
	}
}
