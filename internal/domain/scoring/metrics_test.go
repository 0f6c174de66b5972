package scoring

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/neuroclass/neuroclass-hub/internal/domain/lesson"
	"github.com/neuroclass/neuroclass-hub/internal/domain/shared"
)

var testBase = time.Date(2026, 3, 10, 9, 0, 0, 0, time.UTC)

func event(t *testing.T, id string, kind lesson.EventType, correct *bool, at time.Time) *lesson.TaskEvent {
	t.Helper()
	e, err := lesson.NewTaskEvent(id, "student-1", "task-1", "block-1", kind, correct, at)
	require.NoError(t, err)
	return e
}

func boolPtr(b bool) *bool { return &b }

func TestAggregate_EmptyEventsIsError(t *testing.T) {
	_, err := Aggregate(nil)
	require.Error(t, err)
	assert.ErrorIs(t, err, shared.ErrInvalidState)

	_, err = Aggregate([]*lesson.TaskEvent{})
	assert.ErrorIs(t, err, ErrNoEvents)
}

func TestAggregate_MixedEvents(t *testing.T) {
	events := []*lesson.TaskEvent{
		event(t, "e1", lesson.EventAnswer, boolPtr(true), testBase),
		event(t, "e2", lesson.EventAnswer, boolPtr(true), testBase.Add(2*time.Minute)),
		event(t, "e3", lesson.EventAnswer, boolPtr(false), testBase.Add(4*time.Minute)),
		event(t, "e4", lesson.EventAnswer, boolPtr(true), testBase.Add(6*time.Minute)),
		event(t, "e5", lesson.EventSkip, nil, testBase.Add(10*time.Minute)),
	}

	m, err := Aggregate(events)
	require.NoError(t, err)
	assert.InDelta(t, 0.75, m.Accuracy, tolerance)
	assert.InDelta(t, 0.2, m.SkipRate, tolerance)
	assert.InDelta(t, 600, m.DurationSeconds, tolerance)
}

func TestAggregate_UnorderedEvents(t *testing.T) {
	// Duration is first-to-last regardless of slice order.
	events := []*lesson.TaskEvent{
		event(t, "e1", lesson.EventAnswer, boolPtr(true), testBase.Add(5*time.Minute)),
		event(t, "e2", lesson.EventSkip, nil, testBase),
		event(t, "e3", lesson.EventAnswer, boolPtr(false), testBase.Add(time.Minute)),
	}

	m, err := Aggregate(events)
	require.NoError(t, err)
	assert.InDelta(t, 300, m.DurationSeconds, tolerance)
	assert.InDelta(t, 0.5, m.Accuracy, tolerance)
	assert.InDelta(t, 1.0/3.0, m.SkipRate, tolerance)
}

func TestAggregate_NoAnswerEvents(t *testing.T) {
	// Skips only: accuracy falls back to the documented convention of 0.
	events := []*lesson.TaskEvent{
		event(t, "e1", lesson.EventSkip, nil, testBase),
		event(t, "e2", lesson.EventSkip, nil, testBase.Add(time.Minute)),
	}

	m, err := Aggregate(events)
	require.NoError(t, err)
	assert.Equal(t, 0.0, m.Accuracy)
	assert.Equal(t, 1.0, m.SkipRate)
}

func TestAggregate_SingleEventHasZeroDuration(t *testing.T) {
	m, err := Aggregate([]*lesson.TaskEvent{
		event(t, "e1", lesson.EventAnswer, boolPtr(true), testBase),
	})
	require.NoError(t, err)
	assert.Equal(t, 0.0, m.DurationSeconds)
	assert.Equal(t, 1.0, m.Accuracy)
}

func TestAggregate_AnswerWithoutCorrectnessCountsAsWrong(t *testing.T) {
	events := []*lesson.TaskEvent{
		event(t, "e1", lesson.EventAnswer, nil, testBase),
		event(t, "e2", lesson.EventAnswer, boolPtr(true), testBase.Add(time.Second)),
	}
	m, err := Aggregate(events)
	require.NoError(t, err)
	assert.InDelta(t, 0.5, m.Accuracy, tolerance)
}

func TestNormalizeTime(t *testing.T) {
	got, err := NormalizeTime(600, 1.0, DefaultReferenceSeconds)
	require.NoError(t, err)
	assert.InDelta(t, 1.0/3.0, got, tolerance)

	// Faster students normalize lower.
	got, err = NormalizeTime(600, 2.0, DefaultReferenceSeconds)
	require.NoError(t, err)
	assert.InDelta(t, 1.0/6.0, got, tolerance)

	// Clamped at the top.
	got, err = NormalizeTime(10000, 0.5, DefaultReferenceSeconds)
	require.NoError(t, err)
	assert.Equal(t, 1.0, got)

	// Negative raw duration clamps to zero.
	got, err = NormalizeTime(-5, 1.0, DefaultReferenceSeconds)
	require.NoError(t, err)
	assert.Equal(t, 0.0, got)
}

func TestNormalizeTime_InvalidProcessingSpeed(t *testing.T) {
	_, err := NormalizeTime(600, 0, DefaultReferenceSeconds)
	require.Error(t, err)
	assert.ErrorIs(t, err, shared.ErrValueOutOfRange)

	_, err = NormalizeTime(600, -1.5, DefaultReferenceSeconds)
	assert.ErrorIs(t, err, lesson.ErrInvalidProcessingSpeed)
}

func TestNormalizeTime_InvalidReference(t *testing.T) {
	_, err := NormalizeTime(600, 1.0, 0)
	assert.ErrorIs(t, err, ErrInvalidReference)
}
