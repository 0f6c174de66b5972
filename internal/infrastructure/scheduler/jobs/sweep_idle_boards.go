// Package jobs contains the scheduled background jobs.
package jobs

import (
	"context"
	"time"
)

// BoardSweeper is the part of the relay hub the sweep job needs.
type BoardSweeper interface {
	SweepIdle(maxIdle time.Duration) int
}

// SweepIdleBoards removes boards that have had no participants and no
// activity for longer than MaxIdle. Keeps relay memory bounded on
// long-running deployments where blocks are never revisited.
type SweepIdleBoards struct {
	Hub     BoardSweeper
	MaxIdle time.Duration
}

// Name implements scheduler.Job.
func (j *SweepIdleBoards) Name() string { return "sweep_idle_boards" }

// Run implements scheduler.Job.
func (j *SweepIdleBoards) Run(_ context.Context) error {
	j.Hub.SweepIdle(j.MaxIdle)
	return nil
}
