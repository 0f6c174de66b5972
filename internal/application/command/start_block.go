// Package command contains write operations (CQRS - Commands).
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
// START BLOCK COMMAND
// Opens a new lesson block for a student. Task events recorded afterwards
// accumulate against this block until it is finished.
// ══════════════════════════════════════════════════════════════════════════════

// StartBlockCommand contains the data to start a lesson block.
type StartBlockCommand struct {
	// StudentID is the student the block belongs to.
	StudentID string

	// StartedAt is when the block started (defaults to now if zero).
	StartedAt time.Time
}

// Validate validates the command.
func (c StartBlockCommand) Validate() error {
	if c.StudentID == "" {
		return errors.New("start_block: student_id is required")
	}
	return nil
}

// StartBlockResult contains the result of starting a block.
type StartBlockResult struct {
	BlockID   string
	StudentID string
	StartedAt time.Time
}

// StartBlockHandler handles the StartBlockCommand.
type StartBlockHandler struct {
	repo      lesson.Repository
	publisher shared.EventPublisher
	now       func() time.Time
}

// NewStartBlockHandler creates a new StartBlockHandler.
func NewStartBlockHandler(repo lesson.Repository, publisher shared.EventPublisher) *StartBlockHandler {
	return &StartBlockHandler{
		repo:      repo,
		publisher: publisher,
		now:       func() time.Time { return time.Now().UTC() },
	}
}

// Handle executes the start block command.
func (h *StartBlockHandler) Handle(ctx context.Context, cmd StartBlockCommand) (*StartBlockResult, error) {
	if err := cmd.Validate(); err != nil {
		return nil, fmt.Errorf("start_block: validation failed: %w", err)
	}

	// The student must exist; a block for an unknown student is a dangling
	// record the dashboard can never surface.
	if _, err := h.repo.GetStudent(ctx, lesson.StudentID(cmd.StudentID)); err != nil {
		return nil, err
	}

	startedAt := cmd.StartedAt
	if startedAt.IsZero() {
		startedAt = h.now()
	}

	block, err := lesson.NewLessonBlock(
		lesson.BlockID(uuid.NewString()),
		lesson.StudentID(cmd.StudentID),
		startedAt,
	)
	if err != nil {
		return nil, err
	}

	if err := h.repo.CreateBlock(ctx, block); err != nil {
		return nil, fmt.Errorf("start_block: failed to create block: %w", err)
	}

	if h.publisher != nil {
		ev := shared.BlockStartedEvent{
			BaseEvent: shared.NewBaseEvent(shared.EventBlockStarted, block.ID.String()),
			StudentID: cmd.StudentID,
		}
		_ = h.publisher.Publish(ev)
	}

	return &StartBlockResult{
		BlockID:   block.ID.String(),
		StudentID: cmd.StudentID,
		StartedAt: block.StartedAt,
	}, nil
}
