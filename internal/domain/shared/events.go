// Package shared contains common domain types, errors, and events that are
// used across all domain packages.
package shared

import (
	"time"
)

// EventType represents the type of domain event.
type EventType string

// Domain event types. Each event represents something significant that
// happened during a tutoring session.
const (
	// Lesson events
	EventBlockStarted  EventType = "lesson.block_started"
	EventTaskRecorded  EventType = "lesson.task_recorded"
	EventBlockFinished EventType = "lesson.block_finished"

	// Board events
	EventParticipantJoined EventType = "board.participant_joined"
	EventParticipantLeft   EventType = "board.participant_left"
	EventBoardCleared      EventType = "board.cleared"
)

// Event is the base interface for all domain events.
type Event interface {
	// EventType returns the type of the event.
	EventType() EventType

	// OccurredAt returns when the event occurred.
	OccurredAt() time.Time

	// AggregateID returns the ID of the aggregate that produced this event.
	AggregateID() string
}

// BaseEvent provides common event functionality.
type BaseEvent struct {
	Type        EventType `json:"type"`
	Timestamp   time.Time `json:"timestamp"`
	AggregateId string    `json:"aggregate_id"`
}

// EventType implements Event interface.
func (e BaseEvent) EventType() EventType {
	return e.Type
}

// OccurredAt implements Event interface.
func (e BaseEvent) OccurredAt() time.Time {
	return e.Timestamp
}

// AggregateID implements Event interface.
func (e BaseEvent) AggregateID() string {
	return e.AggregateId
}

// NewBaseEvent creates a new base event.
func NewBaseEvent(eventType EventType, aggregateID string) BaseEvent {
	return BaseEvent{
		Type:        eventType,
		Timestamp:   time.Now().UTC(),
		AggregateId: aggregateID,
	}
}

// BlockStartedEvent is emitted when a lesson block starts.
type BlockStartedEvent struct {
	BaseEvent
	StudentID string `json:"student_id"`
}

// TaskRecordedEvent is emitted when a task event is written.
type TaskRecordedEvent struct {
	BaseEvent
	StudentID string `json:"student_id"`
	TaskID    string `json:"task_id"`
	Kind      string `json:"kind"`
}

// BlockFinishedEvent is emitted when the scoring pipeline finishes a block.
type BlockFinishedEvent struct {
	BaseEvent
	StudentID      string  `json:"student_id"`
	OverloadIndex  float64 `json:"overload_index"`
	ReadinessIndex float64 `json:"readiness_index"`
	Action         string  `json:"action"`
}

// EventHandler is a function that handles an event.
type EventHandler func(event Event) error

// EventPublisher defines the interface for publishing events.
type EventPublisher interface {
	// Publish sends an event to subscribers.
	Publish(event Event) error
}

// EventSubscriber defines the interface for subscribing to events.
type EventSubscriber interface {
	// Subscribe registers a handler for a specific event type.
	Subscribe(eventType EventType, handler EventHandler) error

	// SubscribeAll registers a handler for all events.
	SubscribeAll(handler EventHandler) error
}

// EventBus combines publishing and subscribing.
type EventBus interface {
	EventPublisher
	EventSubscriber
}
