// Package scheduler implements background job scheduling for NeuroClass Hub.
// The only built-in job sweeps idle drawing boards out of relay memory.
package scheduler

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/neuroclass/neuroclass-hub/pkg/logger"
)

// Job defines the interface that all scheduled jobs must implement.
type Job interface {
	// Name returns the unique name of the job.
	Name() string

	// Run executes the job.
	// The context is cancelled when the scheduler is stopping.
	Run(ctx context.Context) error
}

// IntervalSchedule runs a job at a fixed interval.
type IntervalSchedule struct {
	Interval time.Duration
}

// Next returns the next run time after t.
func (s IntervalSchedule) Next(t time.Time) time.Time {
	return t.Add(s.Interval)
}

// String returns a human-readable representation of the schedule.
func (s IntervalSchedule) String() string {
	return fmt.Sprintf("every %s", s.Interval)
}

// scheduledJob wraps a Job with its schedule and run state.
type scheduledJob struct {
	job      Job
	schedule IntervalSchedule
	nextRun  time.Time
}

// Scheduler manages and executes scheduled jobs.
type Scheduler struct {
	mu      sync.Mutex
	log     *logger.Logger
	jobs    map[string]*scheduledJob
	running bool
	cancel  context.CancelFunc
	wg      sync.WaitGroup
}

// New creates a Scheduler.
func New(log *logger.Logger) *Scheduler {
	if log == nil {
		log = logger.Default()
	}
	return &Scheduler{
		log:  log.With(logger.Component("scheduler")),
		jobs: make(map[string]*scheduledJob),
	}
}

// Register adds a job with an interval schedule. Registering after Start
// has no effect until the next Start.
func (s *Scheduler) Register(job Job, every time.Duration) error {
	if job == nil {
		return fmt.Errorf("scheduler: job cannot be nil")
	}
	if every <= 0 {
		return fmt.Errorf("scheduler: interval must be positive")
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.jobs[job.Name()]; exists {
		return fmt.Errorf("scheduler: job %q already registered", job.Name())
	}
	s.jobs[job.Name()] = &scheduledJob{
		job:      job,
		schedule: IntervalSchedule{Interval: every},
	}
	return nil
}

// Start launches one goroutine per registered job. Idempotent.
func (s *Scheduler) Start(ctx context.Context) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.running {
		return
	}
	s.running = true

	ctx, s.cancel = context.WithCancel(ctx)
	for _, sj := range s.jobs {
		sj.nextRun = sj.schedule.Next(time.Now())
		s.wg.Add(1)
		go s.runLoop(ctx, sj)
	}
	s.log.Info("scheduler started", logger.Int("jobs", len(s.jobs)))
}

// Stop cancels all job loops and waits for in-flight runs to finish.
func (s *Scheduler) Stop() {
	s.mu.Lock()
	if !s.running {
		s.mu.Unlock()
		return
	}
	s.running = false
	cancel := s.cancel
	s.mu.Unlock()

	cancel()
	s.wg.Wait()
	s.log.Info("scheduler stopped")
}

func (s *Scheduler) runLoop(ctx context.Context, sj *scheduledJob) {
	defer s.wg.Done()

	ticker := time.NewTicker(sj.schedule.Interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			start := time.Now()
			if err := sj.job.Run(ctx); err != nil {
				s.log.Error("job failed",
					logger.String("job", sj.job.Name()),
					logger.Latency(time.Since(start)),
					logger.Err(err),
				)
				continue
			}
			s.log.Debug("job completed",
				logger.String("job", sj.job.Name()),
				logger.Latency(time.Since(start)),
			)
		}
	}
}
