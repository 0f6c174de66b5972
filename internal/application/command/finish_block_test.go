package command_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/neuroclass/neuroclass-hub/internal/application/command"
	"github.com/neuroclass/neuroclass-hub/internal/domain/lesson"
	"github.com/neuroclass/neuroclass-hub/internal/domain/scoring"
	"github.com/neuroclass/neuroclass-hub/internal/domain/shared"
	"github.com/neuroclass/neuroclass-hub/internal/infrastructure/persistence/memory"
)

func boolPtr(b bool) *bool { return &b }

// fixture registers a student with a baseline profile and starts a block.
type fixture struct {
	repo      *memory.LessonRepository
	studentID string
	blockID   string
	startedAt time.Time
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	ctx := context.Background()
	repo := memory.NewLessonRepository()

	reg, err := command.NewRegisterStudentHandler(repo).Handle(ctx, command.RegisterStudentCommand{
		FullName: "Aruzhan T.",
	})
	require.NoError(t, err)

	_, err = command.NewSaveProfileHandler(repo).Handle(ctx, command.SaveProfileCommand{
		StudentID:          reg.StudentID,
		ProcessingSpeed:    1.0,
		SensorySensitivity: 0.5,
		ProfileSource:      "manual",
	})
	require.NoError(t, err)

	startedAt := time.Date(2026, 3, 10, 10, 0, 0, 0, time.UTC)
	start, err := command.NewStartBlockHandler(repo, nil).Handle(ctx, command.StartBlockCommand{
		StudentID: reg.StudentID,
		StartedAt: startedAt,
	})
	require.NoError(t, err)

	return &fixture{
		repo:      repo,
		studentID: reg.StudentID,
		blockID:   start.BlockID,
		startedAt: startedAt,
	}
}

// record appends a task event at an offset from block start.
func (f *fixture) record(t *testing.T, kind string, isCorrect *bool, offset time.Duration) {
	t.Helper()
	_, err := command.NewRecordEventHandler(f.repo, nil).Handle(context.Background(), command.RecordEventCommand{
		StudentID:  f.studentID,
		TaskID:     "task-1",
		BlockID:    f.blockID,
		Type:       kind,
		IsCorrect:  isCorrect,
		OccurredAt: f.startedAt.Add(offset),
	})
	require.NoError(t, err)
}

func (f *fixture) finish(t *testing.T) (*command.FinishBlockResult, error) {
	t.Helper()
	h := command.NewFinishBlockHandler(f.repo, nil, command.DefaultFinishBlockConfig())
	return h.Handle(context.Background(), command.FinishBlockCommand{BlockID: f.blockID})
}

func TestFinishBlock_ComputesIndicesAndRecommendation(t *testing.T) {
	f := newFixture(t)

	// 4 answers (3 correct) and 1 skip over a 10 minute block:
	// accuracy 0.75, skip rate 0.2, duration 600s.
	f.record(t, "answer", boolPtr(true), 0)
	f.record(t, "answer", boolPtr(true), 2*time.Minute)
	f.record(t, "answer", boolPtr(false), 4*time.Minute)
	f.record(t, "skip", nil, 6*time.Minute)
	f.record(t, "answer", boolPtr(true), 10*time.Minute)

	result, err := f.finish(t)
	require.NoError(t, err)

	// overload  = 0.4*0.25 + 0.3*(600/1800) + 0.2*0.2 + 0.1*0 = 0.24
	// readiness = 0.5*0.75 + 0.3*(1-1/3) + 0.2*(1-1/3)        = 0.7083...
	require.InDelta(t, 0.24, result.OverloadIndex, 1e-9)
	require.InDelta(t, 0.7083333333333334, result.ReadinessIndex, 1e-9)
	require.Equal(t, scoring.ActionIncreaseDifficulty, result.Recommendation.Action)

	// The finish is durable: the block is stamped and the index stored.
	block, err := f.repo.GetBlock(context.Background(), lesson.BlockID(f.blockID))
	require.NoError(t, err)
	require.True(t, block.IsFinished())

	idx, err := f.repo.GetBlockIndex(context.Background(), lesson.BlockID(f.blockID))
	require.NoError(t, err)
	require.InDelta(t, result.OverloadIndex, idx.OverloadIndex, 1e-9)
}

func TestFinishBlock_SecondFinishIsRejected(t *testing.T) {
	f := newFixture(t)
	f.record(t, "answer", boolPtr(true), time.Minute)

	_, err := f.finish(t)
	require.NoError(t, err)

	_, err = f.finish(t)
	require.ErrorIs(t, err, shared.ErrAlreadyProcessed)
}

func TestFinishBlock_NoEventsIsRejected(t *testing.T) {
	f := newFixture(t)

	_, err := f.finish(t)
	require.ErrorIs(t, err, shared.ErrInvalidState)

	// Nothing was written: the block is still running.
	block, err := f.repo.GetBlock(context.Background(), lesson.BlockID(f.blockID))
	require.NoError(t, err)
	require.False(t, block.IsFinished())
}

func TestFinishBlock_MissingProfileIsRejected(t *testing.T) {
	ctx := context.Background()
	repo := memory.NewLessonRepository()

	reg, err := command.NewRegisterStudentHandler(repo).Handle(ctx, command.RegisterStudentCommand{
		FullName: "No Profile",
	})
	require.NoError(t, err)

	start, err := command.NewStartBlockHandler(repo, nil).Handle(ctx, command.StartBlockCommand{
		StudentID: reg.StudentID,
	})
	require.NoError(t, err)

	_, err = command.NewRecordEventHandler(repo, nil).Handle(ctx, command.RecordEventCommand{
		StudentID: reg.StudentID,
		TaskID:    "task-1",
		BlockID:   start.BlockID,
		Type:      "answer",
		IsCorrect: boolPtr(true),
	})
	require.NoError(t, err)

	_, err = command.NewFinishBlockHandler(repo, nil, command.DefaultFinishBlockConfig()).
		Handle(ctx, command.FinishBlockCommand{BlockID: start.BlockID})
	require.ErrorIs(t, err, shared.ErrInvalidState)
}

func TestFinishBlock_InvalidProcessingSpeedIsRejected(t *testing.T) {
	f := newFixture(t)
	f.record(t, "answer", boolPtr(true), time.Minute)

	// Corrupt profile data written around the command layer.
	require.NoError(t, f.repo.SaveProfile(context.Background(), &lesson.NeuroProfile{
		StudentID:       lesson.StudentID(f.studentID),
		ProcessingSpeed: 0,
	}))

	_, err := f.finish(t)
	require.ErrorIs(t, err, shared.ErrValueOutOfRange)
}

func TestFinishBlock_UnknownBlockIsNotFound(t *testing.T) {
	repo := memory.NewLessonRepository()
	_, err := command.NewFinishBlockHandler(repo, nil, command.DefaultFinishBlockConfig()).
		Handle(context.Background(), command.FinishBlockCommand{BlockID: "nope"})
	require.ErrorIs(t, err, shared.ErrNotFound)
}

func TestRecordEvent_OnFinishedBlockIsRejected(t *testing.T) {
	f := newFixture(t)
	f.record(t, "answer", boolPtr(true), time.Minute)

	_, err := f.finish(t)
	require.NoError(t, err)

	_, err = command.NewRecordEventHandler(f.repo, nil).Handle(context.Background(), command.RecordEventCommand{
		StudentID: f.studentID,
		TaskID:    "task-2",
		BlockID:   f.blockID,
		Type:      "answer",
		IsCorrect: boolPtr(true),
	})
	require.ErrorIs(t, err, shared.ErrAlreadyProcessed)
}

func TestStartBlock_UnknownStudentIsNotFound(t *testing.T) {
	repo := memory.NewLessonRepository()
	_, err := command.NewStartBlockHandler(repo, nil).Handle(context.Background(), command.StartBlockCommand{
		StudentID: "ghost",
	})
	require.ErrorIs(t, err, shared.ErrNotFound)
}
