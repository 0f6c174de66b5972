package command

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/neuroclass/neuroclass-hub/internal/domain/lesson"
	"github.com/neuroclass/neuroclass-hub/internal/domain/scoring"
	"github.com/neuroclass/neuroclass-hub/internal/domain/shared"
)

// ══════════════════════════════════════════════════════════════════════════════
// FINISH BLOCK COMMAND
// The session scoring pipeline: aggregate the block's task events,
// normalize duration against the student's processing speed, compute the
// overload and readiness indices, derive a recommendation, and persist the
// result atomically with the finish stamp.
// ══════════════════════════════════════════════════════════════════════════════

// FinishBlockCommand contains the data to finish a lesson block.
type FinishBlockCommand struct {
	// BlockID is the lesson block to finish.
	BlockID string
}

// Validate validates the command.
func (c FinishBlockCommand) Validate() error {
	if c.BlockID == "" {
		return errors.New("finish_block: block_id is required")
	}
	return nil
}

// FinishBlockResult contains the computed indices and the recommendation.
type FinishBlockResult struct {
	BlockID        string                 `json:"block_id"`
	OverloadIndex  float64                `json:"overload_index"`
	ReadinessIndex float64                `json:"readiness_index"`
	Recommendation scoring.Recommendation `json:"recommendation"`
	FinishedAt     time.Time              `json:"finished_at"`
}

// FinishBlockConfig contains pipeline tunables.
type FinishBlockConfig struct {
	// ReferenceSeconds is the normalization reference duration.
	ReferenceSeconds float64
}

// DefaultFinishBlockConfig returns default pipeline configuration.
func DefaultFinishBlockConfig() FinishBlockConfig {
	return FinishBlockConfig{
		ReferenceSeconds: scoring.DefaultReferenceSeconds,
	}
}

// FinishBlockHandler handles the FinishBlockCommand.
type FinishBlockHandler struct {
	repo      lesson.Repository
	publisher shared.EventPublisher
	config    FinishBlockConfig
	now       func() time.Time
}

// NewFinishBlockHandler creates a new FinishBlockHandler.
func NewFinishBlockHandler(repo lesson.Repository, publisher shared.EventPublisher, config FinishBlockConfig) *FinishBlockHandler {
	if config.ReferenceSeconds <= 0 {
		config = DefaultFinishBlockConfig()
	}
	return &FinishBlockHandler{
		repo:      repo,
		publisher: publisher,
		config:    config,
		now:       func() time.Time { return time.Now().UTC() },
	}
}

// Handle executes the scoring pipeline for one block.
//
// Steps 1-4 (lookup, aggregation, normalization, indices) touch nothing;
// only step 5 writes, and it writes the index and the finish stamp in a
// single repository transaction. A repeated finish returns
// lesson.ErrBlockAlreadyFinished.
func (h *FinishBlockHandler) Handle(ctx context.Context, cmd FinishBlockCommand) (*FinishBlockResult, error) {
	if err := cmd.Validate(); err != nil {
		return nil, fmt.Errorf("finish_block: validation failed: %w", err)
	}

	block, err := h.repo.GetBlock(ctx, lesson.BlockID(cmd.BlockID))
	if err != nil {
		return nil, err
	}
	if block.IsFinished() {
		return nil, lesson.ErrBlockAlreadyFinished
	}

	events, err := h.repo.ListEvents(ctx, block.ID)
	if err != nil {
		return nil, fmt.Errorf("finish_block: failed to list events: %w", err)
	}
	if len(events) == 0 {
		return nil, lesson.ErrNoEvents
	}

	profile, err := h.repo.GetProfile(ctx, block.StudentID)
	if err != nil {
		return nil, err
	}
	if err := profile.Validate(); err != nil {
		return nil, err
	}

	metrics, err := scoring.Aggregate(events)
	if err != nil {
		return nil, err
	}

	normTime, err := scoring.NormalizeTime(metrics.DurationSeconds, profile.ProcessingSpeed, h.config.ReferenceSeconds)
	if err != nil {
		return nil, err
	}

	overload := scoring.OverloadIndex(
		metrics.Accuracy,
		normTime,
		metrics.SkipRate,
		scoring.SensoryMismatch(profile.SensorySensitivity),
	)
	readiness := scoring.ReadinessIndex(
		metrics.Accuracy,
		normTime,
		scoring.FatigueProxy(metrics.DurationSeconds),
	)
	recommendation := scoring.MakeRecommendation(overload, readiness)

	finishedAt := h.now()
	idx, err := lesson.NewBlockIndex(block.ID, overload, readiness, finishedAt)
	if err != nil {
		return nil, err
	}
	if err := h.repo.FinishBlock(ctx, idx, finishedAt); err != nil {
		return nil, err
	}

	if h.publisher != nil {
		ev := shared.BlockFinishedEvent{
			BaseEvent:      shared.NewBaseEvent(shared.EventBlockFinished, cmd.BlockID),
			StudentID:      block.StudentID.String(),
			OverloadIndex:  overload,
			ReadinessIndex: readiness,
			Action:         string(recommendation.Action),
		}
		_ = h.publisher.Publish(ev)
	}

	return &FinishBlockResult{
		BlockID:        cmd.BlockID,
		OverloadIndex:  overload,
		ReadinessIndex: readiness,
		Recommendation: recommendation,
		FinishedAt:     finishedAt,
	}, nil
}
