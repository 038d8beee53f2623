// Package scheduler runs a supervised periodic task. The task is driven by a
// ticker and stops when its context is cancelled; it never reschedules
// itself and never overlaps with its previous run.
package scheduler

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"
)

// Scheduler invokes a task at a fixed interval until stopped.
type Scheduler struct {
	name     string
	interval time.Duration
	task     func(ctx context.Context)
	logger   *zap.Logger

	mu      sync.Mutex
	cancel  context.CancelFunc
	done    chan struct{}
	stopped bool
}

// New creates a scheduler for task. Nothing runs until Start.
func New(name string, interval time.Duration, task func(ctx context.Context), logger *zap.Logger) *Scheduler {
	return &Scheduler{
		name:     name,
		interval: interval,
		task:     task,
		logger:   logger,
	}
}

// Start launches the ticker loop in the background. It returns false if the
// scheduler is already running or was stopped.
func (s *Scheduler) Start(ctx context.Context) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.stopped || s.done != nil {
		return false
	}

	ctx, cancel := context.WithCancel(ctx)
	s.cancel = cancel
	s.done = make(chan struct{})

	go s.loop(ctx, s.done)
	s.logger.Debug("Scheduler started",
		zap.String("task", s.name),
		zap.Duration("interval", s.interval))
	return true
}

// Stop cancels the loop so no further runs are scheduled and waits for a run
// in progress to return. Safe to call more than once.
func (s *Scheduler) Stop() {
	s.mu.Lock()
	if s.stopped {
		s.mu.Unlock()
		return
	}
	s.stopped = true
	cancel, done := s.cancel, s.done
	s.mu.Unlock()

	if cancel == nil {
		return
	}
	cancel()
	<-done
	s.logger.Debug("Scheduler stopped", zap.String("task", s.name))
}

// Running reports whether further runs will be scheduled.
func (s *Scheduler) Running() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.done != nil && !s.stopped
}

func (s *Scheduler) loop(ctx context.Context, done chan struct{}) {
	defer close(done)

	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if ctx.Err() != nil {
				return
			}
			s.run(ctx)
		}
	}
}

// run executes one task invocation, containing panics so the loop survives.
func (s *Scheduler) run(ctx context.Context) {
	defer func() {
		if r := recover(); r != nil {
			s.logger.Error("Scheduled task panicked",
				zap.String("task", s.name),
				zap.Any("panic", r))
		}
	}()
	s.task(ctx)
}
