package scheduler

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubJob struct {
	name string
	fn   func(ctx context.Context) error
}

func (j *stubJob) Name() string                  { return j.name }
func (j *stubJob) Description() string           { return "test job" }
func (j *stubJob) Run(ctx context.Context) error { return j.fn(ctx) }

func newTestScheduler() *Scheduler {
	cfg := DefaultSchedulerConfig()
	cfg.TickInterval = 5 * time.Millisecond
	return NewScheduler(cfg)
}

func noopJob(name string) *stubJob {
	return &stubJob{name: name, fn: func(context.Context) error { return nil }}
}

func TestScheduler_RegisterValidation(t *testing.T) {
	s := newTestScheduler()

	assert.ErrorIs(t, s.Register(nil, NewIntervalSchedule(time.Minute)), ErrNilJob)
	assert.ErrorIs(t, s.Register(noopJob("a"), nil), ErrNilSchedule)

	require.NoError(t, s.Register(noopJob("a"), NewIntervalSchedule(time.Minute)))
	assert.ErrorIs(t, s.Register(noopJob("a"), NewIntervalSchedule(time.Minute)), ErrJobAlreadyExists)
}

func TestScheduler_StartStopLifecycle(t *testing.T) {
	s := newTestScheduler()

	assert.ErrorIs(t, s.Stop(), ErrNotRunning)

	require.NoError(t, s.Start(context.Background()))
	assert.ErrorIs(t, s.Start(context.Background()), ErrAlreadyRunning)

	require.NoError(t, s.Stop())
	assert.ErrorIs(t, s.Stop(), ErrNotRunning)
}

func TestScheduler_RunsDueJobs(t *testing.T) {
	s := newTestScheduler()

	var runs atomic.Int64
	job := &stubJob{name: "counter", fn: func(context.Context) error {
		runs.Add(1)
		return nil
	}}
	require.NoError(t, s.Register(job, NewIntervalSchedule(20*time.Millisecond)))

	require.NoError(t, s.Start(context.Background()))
	time.Sleep(150 * time.Millisecond)
	require.NoError(t, s.Stop())

	assert.GreaterOrEqual(t, runs.Load(), int64(2))

	statuses := s.Jobs()
	require.Len(t, statuses, 1)
	assert.Equal(t, "counter", statuses[0].Name)
	assert.Equal(t, runs.Load(), statuses[0].Runs)
	assert.Zero(t, statuses[0].Failures)
}

func TestScheduler_SlowJobNeverOverlapsItself(t *testing.T) {
	s := newTestScheduler()

	var active, maxActive atomic.Int64
	job := &stubJob{name: "slow", fn: func(context.Context) error {
		n := active.Add(1)
		if n > maxActive.Load() {
			maxActive.Store(n)
		}
		time.Sleep(40 * time.Millisecond)
		active.Add(-1)
		return nil
	}}
	require.NoError(t, s.Register(job, NewIntervalSchedule(10*time.Millisecond)))

	require.NoError(t, s.Start(context.Background()))
	time.Sleep(150 * time.Millisecond)
	require.NoError(t, s.Stop())

	assert.Equal(t, int64(1), maxActive.Load())
}

func TestScheduler_PanicCountsAsFailure(t *testing.T) {
	s := newTestScheduler()

	var runs atomic.Int64
	job := &stubJob{name: "panicky", fn: func(context.Context) error {
		runs.Add(1)
		panic("boom")
	}}
	require.NoError(t, s.Register(job, NewIntervalSchedule(10*time.Millisecond)))

	require.NoError(t, s.Start(context.Background()))
	time.Sleep(80 * time.Millisecond)
	require.NoError(t, s.Stop())

	require.Positive(t, runs.Load())
	statuses := s.Jobs()
	require.Len(t, statuses, 1)
	assert.Equal(t, statuses[0].Runs, statuses[0].Failures)
	assert.Positive(t, statuses[0].Failures)
}

func TestScheduler_StopWaitsForInFlightJob(t *testing.T) {
	s := newTestScheduler()

	started := make(chan struct{})
	var once sync.Once
	var finished atomic.Bool
	job := &stubJob{name: "draining", fn: func(context.Context) error {
		once.Do(func() { close(started) })
		time.Sleep(30 * time.Millisecond)
		finished.Store(true)
		return nil
	}}
	require.NoError(t, s.Register(job, NewIntervalSchedule(5*time.Millisecond)))

	require.NoError(t, s.Start(context.Background()))
	<-started
	require.NoError(t, s.Stop())

	assert.True(t, finished.Load())
}

func TestScheduler_DisabledJobViaZeroSchedule(t *testing.T) {
	s := newTestScheduler()

	var runs atomic.Int64
	job := &stubJob{name: "never", fn: func(context.Context) error {
		runs.Add(1)
		return nil
	}}
	// A schedule that never fires keeps the job registered but idle.
	require.NoError(t, s.Register(job, MustParseCron("0 0 30 2 *")))

	require.NoError(t, s.Start(context.Background()))
	time.Sleep(30 * time.Millisecond)
	require.NoError(t, s.Stop())

	assert.Zero(t, runs.Load())
}
