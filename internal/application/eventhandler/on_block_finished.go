// Package eventhandler contains subscribers reacting to domain events.
package eventhandler

import (
	"context"
	"time"

	"github.com/neuroclass/neuroclass-hub/internal/application/query"
	"github.com/neuroclass/neuroclass-hub/internal/domain/shared"
	"github.com/neuroclass/neuroclass-hub/pkg/logger"
)

// OnBlockFinished reacts to a finished lesson block: it logs the computed
// indices and drops the student's cached dashboard so the teacher's next
// view reflects the new score.
type OnBlockFinished struct {
	cache   query.DashboardCache
	log     *logger.Logger
	timeout time.Duration
}

// NewOnBlockFinished creates the handler. cache may be nil.
func NewOnBlockFinished(cache query.DashboardCache, log *logger.Logger) *OnBlockFinished {
	if log == nil {
		log = logger.Default()
	}
	return &OnBlockFinished{
		cache:   cache,
		log:     log.With(logger.Component("on_block_finished")),
		timeout: 5 * time.Second,
	}
}

// Handle implements shared.EventHandler.
func (h *OnBlockFinished) Handle(event shared.Event) error {
	ev, ok := event.(shared.BlockFinishedEvent)
	if !ok {
		return nil
	}

	h.log.Info("lesson block scored",
		logger.BlockID(ev.AggregateID()),
		logger.StudentID(ev.StudentID),
		logger.Float64("overload_index", ev.OverloadIndex),
		logger.Float64("readiness_index", ev.ReadinessIndex),
		logger.String("action", ev.Action),
	)

	if h.cache == nil {
		return nil
	}
	ctx, cancel := context.WithTimeout(context.Background(), h.timeout)
	defer cancel()
	if err := h.cache.Invalidate(ctx, ev.StudentID); err != nil {
		h.log.Warn("failed to invalidate dashboard cache",
			logger.StudentID(ev.StudentID), logger.Err(err))
	}
	return nil
}
