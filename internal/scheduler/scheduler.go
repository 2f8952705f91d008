// Package scheduler is the host-side periodic trigger for the alert engine's
// background check.
package scheduler

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"

	"github.com/jonboulle/clockwork"

	"github.com/couchcryptid/disaster-alert-service/internal/alert"
	"github.com/couchcryptid/disaster-alert-service/internal/domain"
	"github.com/couchcryptid/disaster-alert-service/internal/observability"
)

// DefaultInterval matches the ten minute cadence of the device task.
const DefaultInterval = 10 * time.Minute

// ErrAlreadyRunning is returned by RunNow while a check is in flight.
var ErrAlreadyRunning = errors.New("background check already running")

// Checker runs one background evaluation.
type Checker interface {
	BackgroundCheck(ctx context.Context) domain.BackgroundCheckResult
}

// Notifier requests the follow-up notification.
type Notifier interface {
	Notify(ctx context.Context, n domain.Notification)
}

// RunState is a snapshot of the scheduler for status endpoints.
type RunState struct {
	Running         bool      `json:"running"`
	Runs            int       `json:"runs"`
	StartedAt       time.Time `json:"started_at"`
	LastCompletedAt time.Time `json:"last_completed_at"`
	LastDurationMS  int64     `json:"last_duration_ms"`
	LastDanger      bool      `json:"last_danger"`
	LastError       string    `json:"last_error,omitempty"`
	LastTrigger     string    `json:"last_trigger,omitempty"`
}

// Scheduler invokes the checker every interval. Runs never overlap.
type Scheduler struct {
	interval time.Duration
	checker  Checker
	notifier Notifier
	clock    clockwork.Clock
	logger   *slog.Logger
	metrics  *observability.Metrics

	mu      sync.Mutex
	running bool
	state   RunState
}

// New creates a Scheduler. A nil clock uses real time.
func New(interval time.Duration, checker Checker, notifier Notifier, clock clockwork.Clock, logger *slog.Logger, metrics *observability.Metrics) *Scheduler {
	if interval <= 0 {
		interval = DefaultInterval
	}
	if clock == nil {
		clock = clockwork.NewRealClock()
	}
	return &Scheduler{
		interval: interval,
		checker:  checker,
		notifier: notifier,
		clock:    clock,
		logger:   logger,
		metrics:  metrics,
	}
}

// Run checks immediately and then every interval until ctx is cancelled.
func (s *Scheduler) Run(ctx context.Context) error {
	s.logger.Info("scheduler started", "interval", s.interval)
	s.metrics.SchedulerRunning.Set(1)
	defer s.metrics.SchedulerRunning.Set(0)

	ticker := s.clock.NewTicker(s.interval)
	defer ticker.Stop()

	s.tick(ctx, "startup")
	for {
		select {
		case <-ctx.Done():
			s.logger.Info("scheduler stopping", "reason", ctx.Err())
			return nil
		case <-ticker.Chan():
			s.tick(ctx, "scheduled")
		}
	}
}

func (s *Scheduler) tick(ctx context.Context, trigger string) {
	if _, err := s.run(ctx, trigger); errors.Is(err, ErrAlreadyRunning) {
		s.logger.Info("skipping background check, previous run still active", "trigger", trigger)
	}
}

// RunNow performs one check outside the schedule.
func (s *Scheduler) RunNow(ctx context.Context) (domain.BackgroundCheckResult, error) {
	return s.run(ctx, "manual")
}

func (s *Scheduler) run(ctx context.Context, trigger string) (domain.BackgroundCheckResult, error) {
	s.mu.Lock()
	if s.running {
		s.mu.Unlock()
		return domain.BackgroundCheckResult{}, ErrAlreadyRunning
	}
	s.running = true
	s.state.Running = true
	s.state.StartedAt = s.clock.Now()
	s.mu.Unlock()

	start := s.clock.Now()
	result := s.checker.BackgroundCheck(ctx)

	switch {
	case !result.Success:
		s.logger.Warn("background check failed", "trigger", trigger, "error", result.Error)
	case result.NewDanger:
		s.logger.Warn("background check found danger", "trigger", trigger)
		if s.notifier != nil {
			s.notifier.Notify(ctx, alert.DangerNotification())
		}
	default:
		s.logger.Debug("background check found nothing", "trigger", trigger)
	}

	s.mu.Lock()
	s.running = false
	s.state.Running = false
	s.state.Runs++
	s.state.LastCompletedAt = s.clock.Now()
	s.state.LastDurationMS = s.clock.Since(start).Milliseconds()
	s.state.LastDanger = result.NewDanger
	s.state.LastError = result.Error
	s.state.LastTrigger = trigger
	s.mu.Unlock()

	return result, nil
}

// Snapshot returns the current run state.
func (s *Scheduler) Snapshot() RunState {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// CheckReadiness returns nil once at least one check has completed.
func (s *Scheduler) CheckReadiness(_ context.Context) error {
	if s.Snapshot().Runs == 0 {
		return errors.New("no background check has completed yet")
	}
	return nil
}
