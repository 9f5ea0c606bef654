// Package events announces committed calendar changes to other services.
package events

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

// Event types
const (
	CalendarCreated   = "calendar_created"
	CalendarUpdated   = "calendar_updated"
	CalendarDeleted   = "calendar_deleted"
	MemberAdded       = "member_added"
	MemberConfirmed   = "member_confirmed"
	MemberRemoved     = "member_removed"
	EventCreated      = "event_created"
	EventUpdated      = "event_updated"
	EventDeleted      = "event_deleted"
	AttendeesInvited  = "attendees_invited"
	AttendanceUpdated = "attendance_updated"
)

// Event represents a domain event
type Event struct {
	ID        string      `json:"id"`
	Type      string      `json:"type"`
	Timestamp time.Time   `json:"timestamp"`
	Payload   interface{} `json:"payload"`
}

// Broker delivers a message on a channel. *RedisClient implements it.
type Broker interface {
	Publish(ctx context.Context, channel string, message interface{}) error
}

// Publisher handles publishing events. A Publisher without a broker drops
// every event.
type Publisher struct {
	broker  Broker
	channel string
	log     zerolog.Logger
}

// NewPublisher creates a new event publisher
func NewPublisher(broker Broker, channel string, log zerolog.Logger) *Publisher {
	return &Publisher{
		broker:  broker,
		channel: channel,
		log:     log,
	}
}

// Nop returns a publisher that drops every event
func Nop() *Publisher {
	return &Publisher{log: zerolog.Nop()}
}

// Publish wraps payload in an Event and hands it to the broker. Delivery
// failures are logged; the change they describe is already committed.
func (p *Publisher) Publish(ctx context.Context, eventType string, payload map[string]interface{}) {
	if p == nil || p.broker == nil {
		return
	}

	event := Event{
		ID:        uuid.New().String(),
		Type:      eventType,
		Timestamp: time.Now().UTC(),
		Payload:   payload,
	}
	if err := p.broker.Publish(ctx, p.channel, event); err != nil {
		p.log.Warn().
			Err(err).
			Str("event_type", eventType).
			Str("channel", p.channel).
			Msg("Failed to publish event")
	}
}

// PublishCalendarCreated publishes a calendar created event
func (p *Publisher) PublishCalendarCreated(ctx context.Context, calendarID uuid.UUID, name string, createdBy uuid.UUID) {
	p.Publish(ctx, CalendarCreated, map[string]interface{}{
		"calendar_id": calendarID.String(),
		"name":        name,
		"created_by":  createdBy.String(),
	})
}

// PublishCalendarUpdated publishes a calendar updated event
func (p *Publisher) PublishCalendarUpdated(ctx context.Context, calendarID uuid.UUID, name string, updatedBy uuid.UUID) {
	p.Publish(ctx, CalendarUpdated, map[string]interface{}{
		"calendar_id": calendarID.String(),
		"name":        name,
		"updated_by":  updatedBy.String(),
	})
}

// PublishCalendarDeleted publishes a calendar deleted event. deletedBy is
// uuid.Nil when the calendar was removed by the orphan sweep.
func (p *Publisher) PublishCalendarDeleted(ctx context.Context, calendarID, deletedBy uuid.UUID) {
	p.Publish(ctx, CalendarDeleted, map[string]interface{}{
		"calendar_id": calendarID.String(),
		"deleted_by":  deletedBy.String(),
	})
}

// PublishMemberAdded publishes a member added to calendar event
func (p *Publisher) PublishMemberAdded(ctx context.Context, calendarID, userID uuid.UUID, role string, addedBy uuid.UUID) {
	p.Publish(ctx, MemberAdded, map[string]interface{}{
		"calendar_id": calendarID.String(),
		"user_id":     userID.String(),
		"role":        role,
		"added_by":    addedBy.String(),
	})
}

// PublishMemberConfirmed publishes a membership confirmed event
func (p *Publisher) PublishMemberConfirmed(ctx context.Context, calendarID, userID uuid.UUID) {
	p.Publish(ctx, MemberConfirmed, map[string]interface{}{
		"calendar_id": calendarID.String(),
		"user_id":     userID.String(),
	})
}

// PublishMemberRemoved publishes a member removed from calendar event
func (p *Publisher) PublishMemberRemoved(ctx context.Context, calendarID, userID, removedBy uuid.UUID) {
	p.Publish(ctx, MemberRemoved, map[string]interface{}{
		"calendar_id": calendarID.String(),
		"user_id":     userID.String(),
		"removed_by":  removedBy.String(),
	})
}

// PublishEventCreated publishes an event created event
func (p *Publisher) PublishEventCreated(ctx context.Context, calendarID, eventID, createdBy uuid.UUID) {
	p.Publish(ctx, EventCreated, map[string]interface{}{
		"calendar_id": calendarID.String(),
		"event_id":    eventID.String(),
		"created_by":  createdBy.String(),
	})
}

// PublishEventUpdated publishes an event updated event
func (p *Publisher) PublishEventUpdated(ctx context.Context, calendarID, eventID, updatedBy uuid.UUID) {
	p.Publish(ctx, EventUpdated, map[string]interface{}{
		"calendar_id": calendarID.String(),
		"event_id":    eventID.String(),
		"updated_by":  updatedBy.String(),
	})
}

// PublishEventDeleted publishes an event deleted event
func (p *Publisher) PublishEventDeleted(ctx context.Context, calendarID, eventID, deletedBy uuid.UUID) {
	p.Publish(ctx, EventDeleted, map[string]interface{}{
		"calendar_id": calendarID.String(),
		"event_id":    eventID.String(),
		"deleted_by":  deletedBy.String(),
	})
}

// PublishAttendeesInvited publishes an attendees invited event
func (p *Publisher) PublishAttendeesInvited(ctx context.Context, eventID uuid.UUID, userIDs []uuid.UUID, invitedBy uuid.UUID) {
	ids := make([]string, len(userIDs))
	for i, id := range userIDs {
		ids[i] = id.String()
	}
	p.Publish(ctx, AttendeesInvited, map[string]interface{}{
		"event_id":   eventID.String(),
		"user_ids":   ids,
		"invited_by": invitedBy.String(),
	})
}

// PublishAttendanceUpdated publishes an attendance status updated event
func (p *Publisher) PublishAttendanceUpdated(ctx context.Context, eventID, userID uuid.UUID, status string) {
	p.Publish(ctx, AttendanceUpdated, map[string]interface{}{
		"event_id": eventID.String(),
		"user_id":  userID.String(),
		"status":   status,
	})
}
