package command

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/neuroclass/neuroclass-hub/internal/domain/lesson"
	"github.com/neuroclass/neuroclass-hub/internal/domain/shared"
)

// ══════════════════════════════════════════════════════════════════════════════
// RECORD EVENT COMMAND
// Appends one immutable task event to a running lesson block. Many such
// events accumulate per block and feed the scoring pipeline at finish time.
// ══════════════════════════════════════════════════════════════════════════════

// RecordEventCommand contains the data to record a task event.
type RecordEventCommand struct {
	// StudentID is the acting student.
	StudentID string

	// TaskID identifies the task the event refers to.
	TaskID string

	// BlockID is the lesson block the event belongs to.
	BlockID string

	// Type is the event kind ("answer", "skip", ...).
	Type string

	// IsCorrect is set only for answer events.
	IsCorrect *bool

	// OccurredAt is when the event happened (defaults to now if zero).
	OccurredAt time.Time
}

// Validate validates the command.
func (c RecordEventCommand) Validate() error {
	if c.StudentID == "" {
		return errors.New("record_event: student_id is required")
	}
	if c.TaskID == "" {
		return errors.New("record_event: task_id is required")
	}
	if c.BlockID == "" {
		return errors.New("record_event: block_id is required")
	}
	if c.Type == "" {
		return errors.New("record_event: event type is required")
	}
	return nil
}

// RecordEventResult contains the result of recording an event.
type RecordEventResult struct {
	EventID    string
	RecordedAt time.Time
}

// RecordEventHandler handles the RecordEventCommand.
type RecordEventHandler struct {
	repo      lesson.Repository
	publisher shared.EventPublisher
	now       func() time.Time
}

// NewRecordEventHandler creates a new RecordEventHandler.
func NewRecordEventHandler(repo lesson.Repository, publisher shared.EventPublisher) *RecordEventHandler {
	return &RecordEventHandler{
		repo:      repo,
		publisher: publisher,
		now:       func() time.Time { return time.Now().UTC() },
	}
}

// Handle executes the record event command.
func (h *RecordEventHandler) Handle(ctx context.Context, cmd RecordEventCommand) (*RecordEventResult, error) {
	if err := cmd.Validate(); err != nil {
		return nil, fmt.Errorf("record_event: validation failed: %w", err)
	}

	block, err := h.repo.GetBlock(ctx, lesson.BlockID(cmd.BlockID))
	if err != nil {
		return nil, err
	}
	if block.IsFinished() {
		return nil, lesson.ErrBlockAlreadyFinished
	}

	occurredAt := cmd.OccurredAt
	if occurredAt.IsZero() {
		occurredAt = h.now()
	}

	event, err := lesson.NewTaskEvent(
		uuid.NewString(),
		lesson.StudentID(cmd.StudentID),
		lesson.TaskID(cmd.TaskID),
		block.ID,
		lesson.EventType(cmd.Type),
		cmd.IsCorrect,
		occurredAt,
	)
	if err != nil {
		return nil, err
	}

	if err := h.repo.InsertEvent(ctx, event); err != nil {
		return nil, fmt.Errorf("record_event: failed to insert event: %w", err)
	}

	if h.publisher != nil {
		ev := shared.TaskRecordedEvent{
			BaseEvent: shared.NewBaseEvent(shared.EventTaskRecorded, cmd.BlockID),
			StudentID: cmd.StudentID,
			TaskID:    cmd.TaskID,
			Kind:      cmd.Type,
		}
		_ = h.publisher.Publish(ev)
	}

	return &RecordEventResult{
		EventID:    event.ID,
		RecordedAt: event.CreatedAt,
	}, nil
}
