// Package scheduler runs named recurring jobs on cron schedules.
package scheduler

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/robfig/cron/v3"
	"go.uber.org/zap"

	"github.com/mamadbah2/farmdesk/internal/config"
	"github.com/mamadbah2/farmdesk/pkg/apperr"
	"github.com/mamadbah2/farmdesk/pkg/lock"
	"github.com/mamadbah2/farmdesk/pkg/metrics"
)

// Job is one unit of scheduled work.
type Job interface {
	Name() string
	Run(ctx context.Context) error
}

var (
	ErrUnknownJob = errors.New("unknown job")
	ErrJobRunning = errors.New("job already running")
)

// Status reports the schedule and the outcome of a job's last run.
type Status struct {
	Name         string     `json:"name"`
	Schedule     string     `json:"schedule"`
	Running      bool       `json:"running"`
	LastRun      *time.Time `json:"lastRun,omitempty"`
	LastDuration string     `json:"lastDuration,omitempty"`
	LastError    string     `json:"lastError,omitempty"`
	NextRun      *time.Time `json:"nextRun,omitempty"`
	Runs         int64      `json:"runs"`
	Failures     int64      `json:"failures"`
}

type entry struct {
	job    Job
	id     cron.EntryID
	status Status
}

// Scheduler manages scheduled jobs.
type Scheduler struct {
	cron    *cron.Cron
	locker  lock.Locker
	metrics *metrics.JobMetrics
	timeout time.Duration
	lockTTL time.Duration
	logger  *zap.Logger
	now     func() time.Time

	mu      sync.Mutex
	jobs    map[string]*entry
	started bool
}

// New creates a scheduler evaluating schedules in the configured time zone.
func New(cfg config.AutomationConfig, locker lock.Locker, jobMetrics *metrics.JobMetrics, logger *zap.Logger) *Scheduler {
	if logger == nil {
		logger = zap.NewNop()
	}
	if locker == nil {
		locker = lock.NewLocal()
	}

	return &Scheduler{
		cron:    cron.New(cron.WithLocation(cfg.Location())),
		locker:  locker,
		metrics: jobMetrics,
		timeout: cfg.JobTimeout,
		lockTTL: cfg.LockTTL,
		logger:  logger,
		now:     time.Now,
		jobs:    make(map[string]*entry),
	}
}

// Register schedules job with a standard five-field cron expression.
func (s *Scheduler) Register(schedule string, job Job) error {
	name := job.Name()

	s.mu.Lock()
	defer s.mu.Unlock()
	if _, exists := s.jobs[name]; exists {
		return fmt.Errorf("job %q already registered", name)
	}

	id, err := s.cron.AddFunc(schedule, func() {
		if _, err := s.execute(context.Background(), name); err != nil && !errors.Is(err, ErrJobRunning) {
			s.logger.Error("scheduled job failed", zap.String("job", name), zap.Error(err))
		}
	})
	if err != nil {
		return fmt.Errorf("schedule job %q: %w", name, err)
	}

	s.jobs[name] = &entry{job: job, id: id, status: Status{Name: name, Schedule: schedule}}
	s.logger.Info("job registered", zap.String("job", name), zap.String("schedule", schedule))
	return nil
}

// Start starts the scheduler.
func (s *Scheduler) Start() {
	s.mu.Lock()
	s.started = true
	count := len(s.jobs)
	s.mu.Unlock()

	s.logger.Info("starting scheduler", zap.Int("jobs", count))
	s.cron.Start()
}

// Stop stops the scheduler. The returned context is done once running jobs
// have finished.
func (s *Scheduler) Stop() context.Context {
	s.logger.Info("stopping scheduler")
	s.mu.Lock()
	s.started = false
	s.mu.Unlock()
	return s.cron.Stop()
}

// Trigger runs the named job now and returns its updated status. The run
// is detached from ctx cancellation so a dropped client does not abort it.
func (s *Scheduler) Trigger(ctx context.Context, name string) (Status, error) {
	st, err := s.execute(context.WithoutCancel(ctx), name)
	switch {
	case errors.Is(err, ErrUnknownJob):
		return st, apperr.Validation(fmt.Sprintf("Unknown job: %s", name))
	case errors.Is(err, ErrJobRunning):
		return st, apperr.Wrap(apperr.CodeConcurrentUpdate, err, fmt.Sprintf("Job %s is already running", name))
	case err != nil && apperr.As(err) == nil:
		return st, apperr.Wrap(apperr.CodeInternal, err, fmt.Sprintf("Job %s failed", name))
	}
	return st, err
}

// Status lists every registered job ordered by name.
func (s *Scheduler) Status() []Status {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make([]Status, 0, len(s.jobs))
	for _, e := range s.jobs {
		out = append(out, s.snapshot(e))
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out
}

// snapshot must be called with s.mu held.
func (s *Scheduler) snapshot(e *entry) Status {
	st := e.status
	if s.started {
		if next := s.cron.Entry(e.id).Next; !next.IsZero() {
			st.NextRun = &next
		}
	}
	return st
}

func (s *Scheduler) execute(ctx context.Context, name string) (Status, error) {
	s.mu.Lock()
	e, ok := s.jobs[name]
	s.mu.Unlock()
	if !ok {
		return Status{}, ErrUnknownJob
	}

	release, err := s.locker.Obtain(ctx, "job:"+name, s.lockTTL)
	if errors.Is(err, lock.ErrNotObtained) {
		s.metrics.IncSkipped(name)
		s.logger.Info("job skipped, lock held elsewhere", zap.String("job", name))
		return s.statusOf(e), ErrJobRunning
	}
	if err != nil {
		s.metrics.IncFailure(name)
		return s.statusOf(e), fmt.Errorf("obtain job lock: %w", err)
	}
	defer func() {
		releaseCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := release(releaseCtx); err != nil {
			s.logger.Warn("failed to release job lock", zap.String("job", name), zap.Error(err))
		}
	}()

	s.mu.Lock()
	e.status.Running = true
	s.mu.Unlock()

	runCtx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	s.logger.Info("job started", zap.String("job", name))
	started := s.now()
	runErr := e.job.Run(runCtx)
	elapsed := s.now().Sub(started)

	s.metrics.ObserveDuration(name, elapsed)
	if runErr != nil {
		s.metrics.IncFailure(name)
		s.logger.Error("job finished with error", zap.String("job", name), zap.Duration("duration", elapsed), zap.Error(runErr))
	} else {
		s.metrics.IncSuccess(name)
		s.logger.Info("job finished", zap.String("job", name), zap.Duration("duration", elapsed))
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	startedAt := started.UTC()
	e.status.Running = false
	e.status.LastRun = &startedAt
	e.status.LastDuration = elapsed.String()
	e.status.Runs++
	e.status.LastError = ""
	if runErr != nil {
		e.status.Failures++
		e.status.LastError = runErr.Error()
	}
	return s.snapshot(e), runErr
}

func (s *Scheduler) statusOf(e *entry) Status {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.snapshot(e)
}
