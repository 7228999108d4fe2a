package scheduler

import (
	"context"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"go.uber.org/zap/zaptest"

	"github.com/detailops/engagement-core/pkg/logger"
)

func TestScheduler_RunsOnInterval(t *testing.T) {
	logger.Log = zaptest.NewLogger(t).Named("test")

	var runs atomic.Int32
	s := New("test-tick", 20*time.Millisecond, func(ctx context.Context) {
		runs.Add(1)
	})

	s.Start(context.Background())
	time.Sleep(110 * time.Millisecond)
	s.Stop()

	count := runs.Load()
	assert.GreaterOrEqual(t, count, int32(3))

	// No further runs after Stop.
	time.Sleep(60 * time.Millisecond)
	assert.Equal(t, count, runs.Load())
}

func TestScheduler_StartIsIdempotent(t *testing.T) {
	logger.Log = zaptest.NewLogger(t).Named("test")

	var runs atomic.Int32
	s := New("test-idempotent", 20*time.Millisecond, func(ctx context.Context) {
		runs.Add(1)
	})

	s.Start(context.Background())
	s.Start(context.Background())
	time.Sleep(50 * time.Millisecond)
	s.Stop()

	assert.LessOrEqual(t, runs.Load(), int32(3))
}

func TestScheduler_PanicDoesNotKillLoop(t *testing.T) {
	logger.Log = zaptest.NewLogger(t).Named("test")

	var runs atomic.Int32
	s := New("test-panic", 20*time.Millisecond, func(ctx context.Context) {
		if runs.Add(1) == 1 {
			panic("first run explodes")
		}
	})

	s.Start(context.Background())
	time.Sleep(90 * time.Millisecond)
	s.Stop()

	assert.GreaterOrEqual(t, runs.Load(), int32(2))
}

func TestScheduler_StopWithoutStart(t *testing.T) {
	logger.Log = zaptest.NewLogger(t).Named("test")

	s := New("test-noop", time.Second, func(ctx context.Context) {})
	// Must not panic.
	s.Stop()
}
