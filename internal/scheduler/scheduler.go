// Package scheduler provides a small interval runner for the periodic
// passes: reminder ticks, dispatch, and the escalation expiry sweep.
package scheduler

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"go.uber.org/zap"

	"github.com/detailops/engagement-core/pkg/logger"
)

// Scheduler runs one task on a fixed interval until stopped. Service
// objects own their scheduler instances; there are no package-level
// singletons.
type Scheduler struct {
	name     string
	interval time.Duration
	task     func(context.Context)

	running atomic.Bool
	cancel  context.CancelFunc
	wg      sync.WaitGroup
}

// New creates a scheduler for the task. The task must respect the
// context it receives.
func New(name string, interval time.Duration, task func(context.Context)) *Scheduler {
	return &Scheduler{
		name:     name,
		interval: interval,
		task:     task,
	}
}

// Start launches the interval loop. The first run happens after one
// full interval. Starting a running scheduler is a no-op.
func (s *Scheduler) Start(ctx context.Context) {
	if !s.running.CompareAndSwap(false, true) {
		return
	}

	runCtx, cancel := context.WithCancel(ctx)
	s.cancel = cancel

	s.wg.Add(1)
	go s.loop(runCtx)

	logger.FromContext(ctx).Info("Scheduler started",
		zap.String("scheduler", s.name),
		zap.Duration("interval", s.interval))
}

// Stop halts the loop and waits for an in-flight run to finish.
func (s *Scheduler) Stop() {
	if !s.running.CompareAndSwap(true, false) {
		return
	}
	s.cancel()
	s.wg.Wait()
	logger.Log.Info("Scheduler stopped", zap.String("scheduler", s.name))
}

func (s *Scheduler) loop(ctx context.Context) {
	defer s.wg.Done()

	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			s.safeRun(ctx)
		}
	}
}

// safeRun isolates panics so a bad run never kills the loop.
func (s *Scheduler) safeRun(ctx context.Context) {
	defer func() {
		if r := recover(); r != nil {
			logger.FromContext(ctx).Error("Panic recovered in scheduled task",
				zap.String("scheduler", s.name),
				zap.Any("panic_error", r),
				zap.Stack("stack"))
		}
	}()
	s.task(ctx)
}
