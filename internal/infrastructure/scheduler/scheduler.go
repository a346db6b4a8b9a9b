// Package scheduler runs the pipeline's periodic jobs: the daily evaluation
// sweep, the context cache refresh, and the weekly health report. Jobs run
// in-process; there is no external job store, so a restart simply waits for
// the next scheduled tick.
package scheduler

import (
	"context"
	"fmt"
	"log/slog"
	"runtime/debug"
	"sync"
	"time"

	"github.com/compass-cohort/compass-engagement/internal/infrastructure/metrics"
)

// Job is one unit of scheduled work.
type Job interface {
	// Name identifies the job in logs and metrics.
	Name() string

	// Run executes the job. The context carries the per-run timeout.
	Run(ctx context.Context) error
}

// entry pairs a job with its schedule.
type entry struct {
	job      Job
	schedule Schedule
	timeout  time.Duration
}

// Config holds scheduler settings.
type Config struct {
	// DefaultTimeout caps a single job run when the entry sets none.
	DefaultTimeout time.Duration

	// Logger for structured logging.
	Logger *slog.Logger

	// Metrics records job runs when set.
	Metrics *metrics.Metrics
}

// Scheduler drives registered jobs on their schedules. Each job gets its own
// goroutine; a slow job delays only itself.
type Scheduler struct {
	config  Config
	logger  *slog.Logger
	metrics *metrics.Metrics

	mu      sync.Mutex
	entries []entry
	started bool

	cancel context.CancelFunc
	wg     sync.WaitGroup
}

// NewScheduler creates a new Scheduler.
func NewScheduler(config Config) *Scheduler {
	if config.DefaultTimeout <= 0 {
		config.DefaultTimeout = 5 * time.Minute
	}
	if config.Logger == nil {
		config.Logger = slog.Default()
	}

	return &Scheduler{
		config:  config,
		logger:  config.Logger.With("component", "scheduler"),
		metrics: config.Metrics,
	}
}

// Register adds a job with its schedule. Must be called before Start.
func (s *Scheduler) Register(job Job, schedule Schedule, timeout time.Duration) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.started {
		return fmt.Errorf("scheduler: cannot register %q after start", job.Name())
	}
	if timeout <= 0 {
		timeout = s.config.DefaultTimeout
	}

	s.entries = append(s.entries, entry{job: job, schedule: schedule, timeout: timeout})
	return nil
}

// Start launches one loop per registered job.
func (s *Scheduler) Start(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.started {
		return fmt.Errorf("scheduler: already started")
	}
	s.started = true

	runCtx, cancel := context.WithCancel(ctx)
	s.cancel = cancel

	for _, e := range s.entries {
		s.wg.Add(1)
		go s.loop(runCtx, e)
	}

	s.logger.Info("scheduler started", "jobs", len(s.entries))
	return nil
}

// Stop cancels all job loops and waits for in-flight runs to finish.
func (s *Scheduler) Stop() {
	s.mu.Lock()
	cancel := s.cancel
	s.mu.Unlock()

	if cancel != nil {
		cancel()
	}
	s.wg.Wait()
	s.logger.Info("scheduler stopped")
}

func (s *Scheduler) loop(ctx context.Context, e entry) {
	defer s.wg.Done()

	logger := s.logger.With("job", e.job.Name())

	for {
		next := e.schedule.Next(time.Now())
		wait := time.Until(next)
		logger.Debug("next run scheduled", "at", next, "in", wait.Round(time.Second))

		timer := time.NewTimer(wait)
		select {
		case <-ctx.Done():
			timer.Stop()
			return
		case <-timer.C:
		}

		s.runOnce(ctx, e, logger)
	}
}

func (s *Scheduler) runOnce(ctx context.Context, e entry, logger *slog.Logger) {
	runCtx, cancel := context.WithTimeout(ctx, e.timeout)
	defer cancel()

	start := time.Now()
	err := s.execute(runCtx, e.job)
	elapsed := time.Since(start)

	if s.metrics != nil {
		s.metrics.JobDuration.WithLabelValues(e.job.Name()).Observe(elapsed.Seconds())
	}

	if err != nil {
		s.recordRun(e.job.Name(), "error")
		logger.Error("job failed", "error", err, "duration", elapsed.Round(time.Millisecond))
		return
	}

	s.recordRun(e.job.Name(), "ok")
	logger.Info("job completed", "duration", elapsed.Round(time.Millisecond))
}

// execute runs the job with panic recovery so one bad run cannot take the
// whole loop down.
func (s *Scheduler) execute(ctx context.Context, job Job) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("job panic: %v\n%s", r, debug.Stack())
		}
	}()
	return job.Run(ctx)
}

func (s *Scheduler) recordRun(job, result string) {
	if s.metrics != nil {
		s.metrics.JobRuns.WithLabelValues(job, result).Inc()
	}
}
