// Package scoring implements the session scoring formulas: metrics
// aggregation over task events, time normalization against a student's
// processing speed, the two bounded indices, and the threshold-based
// teaching recommendation. Everything here is pure and side-effect free.
package scoring

import (
	"github.com/neuroclass/neuroclass-hub/internal/domain/lesson"
	"github.com/neuroclass/neuroclass-hub/internal/domain/shared"
)

// ErrNoEvents is returned when metrics are requested for an empty event set.
// An empty block is an error condition, not a zero result.
var ErrNoEvents = shared.NewDomainError("scoring", "Aggregate", shared.ErrInvalidState, "cannot aggregate metrics over zero events")

// BlockMetrics are the summary statistics of one lesson block.
type BlockMetrics struct {
	// Accuracy is correct answers over all answer events. When a block has
	// no answer events at all (skips only), accuracy is defined as 0: with
	// nothing answered there is no evidence of mastery.
	Accuracy float64

	// SkipRate is skip events over all events.
	SkipRate float64

	// DurationSeconds is the span from the first to the last event,
	// clamped to >= 0.
	DurationSeconds float64
}

// Aggregate reduces a block's task events into summary metrics.
// The events may arrive in any order; duration is computed from the
// earliest and latest timestamps.
func Aggregate(events []*lesson.TaskEvent) (BlockMetrics, error) {
	if len(events) == 0 {
		return BlockMetrics{}, ErrNoEvents
	}

	var answers, correct, skips int
	first, last := events[0].CreatedAt, events[0].CreatedAt

	for _, e := range events {
		switch e.Type {
		case lesson.EventAnswer:
			answers++
			if e.IsCorrectAnswer() {
				correct++
			}
		case lesson.EventSkip:
			skips++
		}
		if e.CreatedAt.Before(first) {
			first = e.CreatedAt
		}
		if e.CreatedAt.After(last) {
			last = e.CreatedAt
		}
	}

	m := BlockMetrics{
		SkipRate: float64(skips) / float64(len(events)),
	}
	if answers > 0 {
		m.Accuracy = float64(correct) / float64(answers)
	}
	if d := last.Sub(first).Seconds(); d > 0 {
		m.DurationSeconds = d
	}
	return m, nil
}
