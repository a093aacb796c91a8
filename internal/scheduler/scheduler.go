// Package scheduler fires the monthly update job once per scheduled instant.
package scheduler

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"investment_tracker/internal/logger"
	"investment_tracker/internal/metrics"
	"investment_tracker/internal/model"
)

var ErrAlreadyFiring = errors.New("monthly updates are already running")

const (
	TriggerSchedule = "schedule"
	TriggerManual   = "manual"
)

type State int32

const (
	StateIdle State = iota
	StateFiring
)

func (s State) String() string {
	if s == StateFiring {
		return "firing"
	}
	return "idle"
}

func (s State) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

// Clock returns the current time
type Clock interface {
	Now() time.Time
}

type systemClock struct{}

func (systemClock) Now() time.Time { return time.Now() }

// Job is the work performed on every firing
type Job func(ctx context.Context) model.BatchResult

// Schedule is a monthly instant in a location
type Schedule struct {
	DayOfMonth    int // 1..28
	Hour, Minute  int
	Location      *time.Location
	CheckInterval time.Duration
}

// Status is a snapshot of the scheduler
type Status struct {
	State       State              `json:"state"`
	StartedAt   time.Time          `json:"started_at"`
	LastCheck   time.Time          `json:"last_check"`
	LastFiredAt *time.Time         `json:"last_fired_at,omitempty"`
	LastTrigger string             `json:"last_trigger,omitempty"`
	LastResult  *model.BatchResult `json:"last_result,omitempty"`
	LastError   string             `json:"last_error,omitempty"`
	NextRun     time.Time          `json:"next_run"`
}

type Option func(*Scheduler)

func WithClock(c Clock) Option {
	return func(s *Scheduler) { s.clock = c }
}

func WithGuard(g Guard) Option {
	return func(s *Scheduler) { s.guard = g }
}

// Scheduler owns the idle/firing state machine
type Scheduler struct {
	schedule Schedule
	job      Job
	clock    Clock
	guard    Guard
	state    atomic.Int32

	mu          sync.Mutex
	startedAt   time.Time
	prevCheck   time.Time
	lastFiredAt time.Time
	lastTrigger string
	lastResult  *model.BatchResult
	lastError   string
}

// New creates a Scheduler. Instants before creation are never fired.
func New(schedule Schedule, job Job, opts ...Option) *Scheduler {
	if schedule.Location == nil {
		schedule.Location = time.UTC
	}
	if schedule.CheckInterval <= 0 {
		schedule.CheckInterval = time.Hour
	}
	s := &Scheduler{schedule: schedule, job: job, clock: systemClock{}, guard: LocalGuard{}}
	for _, opt := range opts {
		opt(s)
	}
	s.startedAt = s.clock.Now()
	s.prevCheck = s.startedAt
	return s
}

func (s *Scheduler) instant(year int, month time.Month) time.Time {
	return time.Date(year, month, s.schedule.DayOfMonth, s.schedule.Hour, s.schedule.Minute, 0, 0, s.schedule.Location)
}

// latest returns the last scheduled instant not after t
func (s *Scheduler) latest(t time.Time) time.Time {
	local := t.In(s.schedule.Location)
	candidate := s.instant(local.Year(), local.Month())
	if candidate.After(t) {
		candidate = s.instant(local.Year(), local.Month()-1)
	}
	return candidate
}

// NextRun returns the first scheduled instant after t
func (s *Scheduler) NextRun(t time.Time) time.Time {
	local := t.In(s.schedule.Location)
	candidate := s.instant(local.Year(), local.Month())
	if !candidate.After(t) {
		candidate = s.instant(local.Year(), local.Month()+1)
	}
	return candidate
}

// Step performs one check and fires when a scheduled instant lies in (previous check, now].
// Missed instants are not replayed: a long gap fires at most once. A due instant that
// meets a manual run in progress is retried on the next check.
func (s *Scheduler) Step(ctx context.Context) (bool, error) {
	now := s.clock.Now()
	s.mu.Lock()
	prev := s.prevCheck
	s.prevCheck = now
	s.mu.Unlock()

	due := s.latest(now)
	if !due.After(prev) {
		return false, nil
	}

	if !s.begin(TriggerSchedule) {
		s.mu.Lock()
		if s.prevCheck.Equal(now) {
			s.prevCheck = prev
		}
		s.mu.Unlock()
		return false, ErrAlreadyFiring
	}

	period := due.Format("2006-01")
	ok, err := s.guard.Acquire(ctx, period)
	if err != nil {
		s.state.Store(int32(StateIdle))
		logger.Error("Scheduler guard failed, skipping firing", "period", period, "error", err)
		return false, err
	}
	if !ok {
		s.state.Store(int32(StateIdle))
		logger.Info("Period already fired by another instance", "period", period)
		return false, nil
	}

	if _, err := s.execute(ctx, TriggerSchedule); err != nil {
		return false, err
	}
	return true, nil
}

// TriggerNow runs the job immediately unless a firing is in progress
func (s *Scheduler) TriggerNow(ctx context.Context) (model.BatchResult, error) {
	if !s.begin(TriggerManual) {
		return model.BatchResult{}, ErrAlreadyFiring
	}
	return s.execute(ctx, TriggerManual)
}

// begin moves the scheduler from idle to firing
func (s *Scheduler) begin(trigger string) bool {
	if !s.state.CompareAndSwap(int32(StateIdle), int32(StateFiring)) {
		logger.Warn("Firing skipped, job already running", "trigger", trigger)
		return false
	}
	return true
}

// execute runs the job and returns the scheduler to idle. The caller must hold the firing state.
func (s *Scheduler) execute(ctx context.Context, trigger string) (result model.BatchResult, err error) {
	defer s.state.Store(int32(StateIdle))

	metrics.SchedulerFirings.WithLabelValues(trigger).Inc()
	firedAt := s.clock.Now()
	logger.Info("Sending monthly updates", "trigger", trigger)

	result, err = s.run(ctx)

	s.mu.Lock()
	s.lastFiredAt = firedAt
	s.lastTrigger = trigger
	s.lastResult = &result
	s.lastError = ""
	if err != nil {
		s.lastError = err.Error()
	}
	s.mu.Unlock()
	return result, err
}

func (s *Scheduler) run(ctx context.Context) (result model.BatchResult, err error) {
	defer func() {
		if r := recover(); r != nil {
			logger.Error("Monthly update job panicked", "panic", r)
			err = fmt.Errorf("monthly update job panicked: %v", r)
		}
	}()
	result = s.job(ctx)
	return result, result.Err
}

// Run checks the schedule at every interval until ctx is cancelled
func (s *Scheduler) Run(ctx context.Context) error {
	ticker := time.NewTicker(s.schedule.CheckInterval)
	defer ticker.Stop()

	logger.Info("Scheduler started", "next_run", s.NextRun(s.clock.Now()), "check_interval", s.schedule.CheckInterval)
	for {
		select {
		case <-ctx.Done():
			logger.Info("Scheduler stopped")
			return ctx.Err()
		case <-ticker.C:
			if _, err := s.Step(ctx); err != nil && !errors.Is(err, ErrAlreadyFiring) {
				logger.Error("Scheduled monthly updates failed", "error", err)
			}
		}
	}
}

func (s *Scheduler) Status() Status {
	s.mu.Lock()
	defer s.mu.Unlock()
	st := Status{
		State:       State(s.state.Load()),
		StartedAt:   s.startedAt,
		LastCheck:   s.prevCheck,
		LastTrigger: s.lastTrigger,
		LastResult:  s.lastResult,
		LastError:   s.lastError,
		NextRun:     s.NextRun(s.clock.Now()),
	}
	if !s.lastFiredAt.IsZero() {
		fired := s.lastFiredAt
		st.LastFiredAt = &fired
	}
	return st
}
