package scheduler

import (
	"context"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type countingJob struct {
	name string
	runs atomic.Int32
	fn   func(ctx context.Context) error
}

func (j *countingJob) Name() string { return j.name }

func (j *countingJob) Run(ctx context.Context) error {
	j.runs.Add(1)
	if j.fn != nil {
		return j.fn(ctx)
	}
	return nil
}

func TestSchedulerRunsJobsOnSchedule(t *testing.T) {
	job := &countingJob{name: "tick"}

	s := NewScheduler(Config{DefaultTimeout: time.Second})
	require.NoError(t, s.Register(job, fixedDelay(5*time.Millisecond), 0))
	require.NoError(t, s.Start(context.Background()))

	time.Sleep(40 * time.Millisecond)
	s.Stop()

	assert.GreaterOrEqual(t, job.runs.Load(), int32(2))
}

func TestSchedulerSurvivesPanics(t *testing.T) {
	job := &countingJob{name: "panicky"}
	job.fn = func(ctx context.Context) error {
		panic("boom")
	}

	s := NewScheduler(Config{})
	require.NoError(t, s.Register(job, fixedDelay(5*time.Millisecond), 0))
	require.NoError(t, s.Start(context.Background()))

	// The loop must keep scheduling after a panicking run.
	time.Sleep(30 * time.Millisecond)
	s.Stop()

	assert.GreaterOrEqual(t, job.runs.Load(), int32(2))
}

func TestSchedulerRejectsLateRegistration(t *testing.T) {
	s := NewScheduler(Config{})
	require.NoError(t, s.Start(context.Background()))
	defer s.Stop()

	err := s.Register(&countingJob{name: "late"}, Every(time.Hour), 0)
	assert.Error(t, err)

	assert.Error(t, s.Start(context.Background()))
}

func TestSchedulerStopCancelsRunContext(t *testing.T) {
	cancelled := make(chan struct{})
	job := &countingJob{name: "blocking"}
	job.fn = func(ctx context.Context) error {
		<-ctx.Done()
		close(cancelled)
		return ctx.Err()
	}

	s := NewScheduler(Config{DefaultTimeout: time.Minute})
	require.NoError(t, s.Register(job, fixedDelay(time.Millisecond), 0))
	require.NoError(t, s.Start(context.Background()))

	time.Sleep(10 * time.Millisecond)
	s.Stop()

	select {
	case <-cancelled:
	case <-time.After(time.Second):
		t.Fatal("job context was not cancelled on Stop")
	}
}

// fixedDelay is a test schedule that fires a constant delay after every run.
type fixedDelay time.Duration

func (d fixedDelay) Next(after time.Time) time.Time {
	return after.Add(time.Duration(d))
}
