// Package scheduler owns the timer lifecycle for the background pollers.
// The tick function is injected, so tests drive ticks manually instead of
// waiting on the wall clock.
package scheduler

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"
)

// TickFunc is one poll pass. Errors are logged and swallowed; the next
// firing retries from scratch.
type TickFunc func(ctx context.Context) error

type Scheduler struct {
	name     string
	interval time.Duration
	tick     TickFunc
	log      *zap.Logger

	mu     sync.Mutex
	cancel context.CancelFunc
	done   chan struct{}
}

func New(name string, interval time.Duration, tick TickFunc, log *zap.Logger) *Scheduler {
	return &Scheduler{
		name:     name,
		interval: interval,
		tick:     tick,
		log:      log,
	}
}

// Start registers the process-lifetime timer. Idempotent: calling Start on
// a running scheduler is a no-op.
func (s *Scheduler) Start() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.cancel != nil {
		return
	}

	ctx, cancel := context.WithCancel(context.Background())
	s.cancel = cancel
	s.done = make(chan struct{})

	go s.run(ctx, s.done)
	s.log.Info("scheduler started",
		zap.String("scheduler", s.name), zap.Duration("interval", s.interval))
}

// Stop cancels the timer and waits for an in-flight tick to finish.
// Idempotent.
func (s *Scheduler) Stop() {
	s.mu.Lock()
	cancel, done := s.cancel, s.done
	s.cancel, s.done = nil, nil
	s.mu.Unlock()

	if cancel == nil {
		return
	}
	cancel()
	<-done
	s.log.Info("scheduler stopped", zap.String("scheduler", s.name))
}

func (s *Scheduler) run(ctx context.Context, done chan struct{}) {
	defer close(done)

	t := time.NewTicker(s.interval)
	defer t.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-t.C:
			if err := s.tick(ctx); err != nil {
				s.log.Warn("tick failed",
					zap.String("scheduler", s.name), zap.Error(err))
			}
		}
	}
}
