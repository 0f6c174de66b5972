package lesson

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/neuroclass/neuroclass-hub/internal/domain/shared"
)

func TestLessonBlock_FinishExactlyOnce(t *testing.T) {
	start := time.Date(2026, 3, 10, 9, 0, 0, 0, time.UTC)
	block, err := NewLessonBlock("block-1", "student-1", start)
	require.NoError(t, err)
	assert.False(t, block.IsFinished())

	require.NoError(t, block.Finish(start.Add(10*time.Minute)))
	assert.True(t, block.IsFinished())

	err = block.Finish(start.Add(20 * time.Minute))
	assert.ErrorIs(t, err, ErrBlockAlreadyFinished)
	assert.ErrorIs(t, err, shared.ErrAlreadyProcessed)
}

func TestLessonBlock_FinishBeforeStart(t *testing.T) {
	start := time.Now().UTC()
	block, err := NewLessonBlock("block-1", "student-1", start)
	require.NoError(t, err)

	err = block.Finish(start.Add(-time.Minute))
	assert.ErrorIs(t, err, shared.ErrInvalidInput)
}

func TestNewBlockIndex_Bounds(t *testing.T) {
	now := time.Now().UTC()

	_, err := NewBlockIndex("block-1", 1.2, 0.5, now)
	assert.ErrorIs(t, err, shared.ErrValueOutOfRange)

	_, err = NewBlockIndex("block-1", 0.5, -0.1, now)
	assert.ErrorIs(t, err, shared.ErrValueOutOfRange)

	idx, err := NewBlockIndex("block-1", 0.0, 1.0, now)
	require.NoError(t, err)
	assert.Equal(t, BlockID("block-1"), idx.BlockID)
}

func TestNeuroProfile_Validate(t *testing.T) {
	p := &NeuroProfile{StudentID: "student-1", ProcessingSpeed: 1.0, SensorySensitivity: 0.5}
	require.NoError(t, p.Validate())

	p.ProcessingSpeed = 0
	assert.ErrorIs(t, p.Validate(), ErrInvalidProcessingSpeed)

	p.ProcessingSpeed = 1.0
	p.SensorySensitivity = 1.5
	assert.ErrorIs(t, p.Validate(), shared.ErrValueOutOfRange)
}

func TestNewTaskEvent_Validation(t *testing.T) {
	now := time.Now().UTC()

	_, err := NewTaskEvent("", "student-1", "task-1", "block-1", EventAnswer, nil, now)
	assert.ErrorIs(t, err, shared.ErrInvalidID)

	_, err = NewTaskEvent("e1", "", "task-1", "block-1", EventAnswer, nil, now)
	assert.ErrorIs(t, err, ErrInvalidStudentID)

	correct := true
	e, err := NewTaskEvent("e1", "student-1", "task-1", "block-1", EventAnswer, &correct, now)
	require.NoError(t, err)
	assert.True(t, e.IsCorrectAnswer())

	e.IsCorrect = nil
	assert.False(t, e.IsCorrectAnswer())
}
