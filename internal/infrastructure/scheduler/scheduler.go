// Package scheduler runs the periodic background jobs of Momentum:
// today that is the leaderboard cache rebuild in the worker process.
// A single Scheduler drives any number of jobs; when each job fires is
// decided by its Schedule (fixed interval or cron expression).
package scheduler

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"
)

// Job is a unit of background work. Run is invoked with a context that
// is cancelled when the scheduler stops.
type Job interface {
	Name() string
	Run(ctx context.Context) error
	Description() string
}

// Schedule decides when a job fires. Next must return a time strictly
// after t, or the zero time if the schedule can never fire again.
type Schedule interface {
	Next(t time.Time) time.Time
	String() string
}

var (
	ErrNilJob           = errors.New("scheduler: job cannot be nil")
	ErrNilSchedule      = errors.New("scheduler: schedule cannot be nil")
	ErrJobAlreadyExists = errors.New("scheduler: job already registered")
	ErrAlreadyRunning   = errors.New("scheduler: already running")
	ErrNotRunning       = errors.New("scheduler: not running")
)

// SchedulerConfig contains configuration for the Scheduler.
type SchedulerConfig struct {
	// Logger for structured logging.
	Logger *slog.Logger

	// Location for schedule calculations (default: UTC).
	Location *time.Location

	// TickInterval is how often due jobs are checked (default: 1s).
	TickInterval time.Duration
}

// DefaultSchedulerConfig returns sensible defaults.
func DefaultSchedulerConfig() SchedulerConfig {
	return SchedulerConfig{
		Logger:       slog.Default(),
		Location:     time.UTC,
		TickInterval: time.Second,
	}
}

// Scheduler manages and executes registered jobs. Jobs are anchored at
// Start: the first run happens at Schedule.Next(start time), never
// immediately. A slow run never overlaps itself; ticks that come due
// while the previous run is still in flight are skipped.
type Scheduler struct {
	logger   *slog.Logger
	location *time.Location
	tick     time.Duration

	mu      sync.Mutex
	entries map[string]*entry
	running bool
	cancel  context.CancelFunc
	wg      sync.WaitGroup
}

type entry struct {
	job      Job
	schedule Schedule
	nextRun  time.Time
	inFlight bool
	runs     int64
	failures int64
}

// JobStatus is a point-in-time view of a registered job.
type JobStatus struct {
	Name     string
	Schedule string
	NextRun  time.Time
	Running  bool
	Runs     int64
	Failures int64
}

// NewScheduler creates a new Scheduler with the given configuration.
func NewScheduler(config SchedulerConfig) *Scheduler {
	if config.Logger == nil {
		config.Logger = slog.Default()
	}
	if config.Location == nil {
		config.Location = time.UTC
	}
	if config.TickInterval <= 0 {
		config.TickInterval = time.Second
	}

	return &Scheduler{
		logger:   config.Logger,
		location: config.Location,
		tick:     config.TickInterval,
		entries:  make(map[string]*entry),
	}
}

// Register adds a job with its schedule. Registering the same job name
// twice is an error.
func (s *Scheduler) Register(job Job, schedule Schedule) error {
	if job == nil {
		return ErrNilJob
	}
	if schedule == nil {
		return ErrNilSchedule
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	name := job.Name()
	if _, exists := s.entries[name]; exists {
		return fmt.Errorf("%w: %s", ErrJobAlreadyExists, name)
	}
	s.entries[name] = &entry{job: job, schedule: schedule}

	s.logger.Info("job registered",
		"job", name,
		"schedule", schedule.String(),
		"description", job.Description(),
	)
	return nil
}

// Start anchors all schedules at the current time and begins the tick
// loop.
func (s *Scheduler) Start(ctx context.Context) error {
	s.mu.Lock()
	if s.running {
		s.mu.Unlock()
		return ErrAlreadyRunning
	}

	ctx, s.cancel = context.WithCancel(ctx)
	s.running = true

	now := time.Now().In(s.location)
	for _, e := range s.entries {
		e.nextRun = e.schedule.Next(now)
	}
	count := len(s.entries)
	s.mu.Unlock()

	s.logger.Info("scheduler started", "jobs", count)

	s.wg.Add(1)
	go s.loop(ctx)
	return nil
}

// Stop cancels the tick loop and waits for in-flight jobs to finish.
func (s *Scheduler) Stop() error {
	s.mu.Lock()
	if !s.running {
		s.mu.Unlock()
		return ErrNotRunning
	}
	s.running = false
	s.cancel()
	s.mu.Unlock()

	s.wg.Wait()
	s.logger.Info("scheduler stopped")
	return nil
}

// Jobs returns the status of every registered job.
func (s *Scheduler) Jobs() []JobStatus {
	s.mu.Lock()
	defer s.mu.Unlock()

	statuses := make([]JobStatus, 0, len(s.entries))
	for name, e := range s.entries {
		statuses = append(statuses, JobStatus{
			Name:     name,
			Schedule: e.schedule.String(),
			NextRun:  e.nextRun,
			Running:  e.inFlight,
			Runs:     e.runs,
			Failures: e.failures,
		})
	}
	return statuses
}

func (s *Scheduler) loop(ctx context.Context) {
	defer s.wg.Done()

	ticker := time.NewTicker(s.tick)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			s.dispatchDue(ctx, time.Now().In(s.location))
		}
	}
}

// dispatchDue launches every job whose next run time has passed. A job
// whose previous run is still in flight keeps its due time; the tick
// after the run finishes picks it up.
func (s *Scheduler) dispatchDue(ctx context.Context, now time.Time) {
	s.mu.Lock()
	due := make([]*entry, 0)
	for _, e := range s.entries {
		if e.inFlight || e.nextRun.IsZero() || now.Before(e.nextRun) {
			continue
		}
		e.inFlight = true
		e.nextRun = e.schedule.Next(now)
		due = append(due, e)
	}
	s.mu.Unlock()

	for _, e := range due {
		s.wg.Add(1)
		go s.run(ctx, e)
	}
}

func (s *Scheduler) run(ctx context.Context, e *entry) {
	defer s.wg.Done()

	name := e.job.Name()
	started := time.Now()

	err := func() (err error) {
		defer func() {
			if p := recover(); p != nil {
				err = fmt.Errorf("panic: %v", p)
			}
		}()
		return e.job.Run(ctx)
	}()

	duration := time.Since(started)

	s.mu.Lock()
	e.inFlight = false
	e.runs++
	if err != nil {
		e.failures++
	}
	s.mu.Unlock()

	if err != nil {
		s.logger.Error("job failed",
			"job", name,
			"duration", duration.String(),
			"error", err,
		)
		return
	}
	s.logger.Info("job completed",
		"job", name,
		"duration", duration.String(),
	)
}
