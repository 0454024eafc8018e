package worker_test

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"

	"github.com/sundose/sundose/internal/worker"
)

// mockTicker records Tick calls and can block to simulate a slow tick.
type mockTicker struct {
	ticks   atomic.Int64
	active  int
	blockCh chan struct{}
}

func (m *mockTicker) Tick(ctx context.Context) {
	m.ticks.Add(1)
	if m.blockCh != nil {
		<-m.blockCh
	}
}

func (m *mockTicker) ActiveCount() int { return m.active }

func TestTickJob_TickOnce(t *testing.T) {
	ticker := &mockTicker{active: 2}
	job := worker.NewTickJob(worker.TickJobConfig{
		Sessions: ticker,
		Logger:   zerolog.Nop(),
	})

	job.TickOnce(context.Background())
	job.TickOnce(context.Background())

	assert.Equal(t, int64(2), ticker.ticks.Load())
	assert.Equal(t, int64(2), job.Ticks())
	assert.Equal(t, int64(0), job.Skipped())
}

func TestTickJob_SkipsOverlappingTick(t *testing.T) {
	ticker := &mockTicker{blockCh: make(chan struct{})}
	job := worker.NewTickJob(worker.TickJobConfig{
		Sessions: ticker,
		Logger:   zerolog.Nop(),
	})

	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		job.TickOnce(context.Background())
	}()

	// Wait until the first tick is inside Tick and blocked.
	for ticker.ticks.Load() == 0 {
		time.Sleep(time.Millisecond)
	}

	// Second tick should be skipped, not queued.
	job.TickOnce(context.Background())
	assert.Equal(t, int64(1), job.Skipped())
	assert.Equal(t, int64(1), ticker.ticks.Load())

	close(ticker.blockCh)
	wg.Wait()

	assert.Equal(t, int64(1), job.Ticks())

	// Once released, ticking works again.
	ticker.blockCh = nil
	job.TickOnce(context.Background())
	assert.Equal(t, int64(2), job.Ticks())
}

func TestTickJob_Run_StopsOnContextCancel(t *testing.T) {
	ticker := &mockTicker{}
	job := worker.NewTickJob(worker.TickJobConfig{
		Interval: 5 * time.Millisecond,
		Sessions: ticker,
		Logger:   zerolog.Nop(),
	})

	ctx, cancel := context.WithCancel(context.Background())

	done := make(chan struct{})
	go func() {
		job.Run(ctx)
		close(done)
	}()

	// Let a few intervals elapse.
	for ticker.ticks.Load() < 2 {
		time.Sleep(time.Millisecond)
	}
	cancel()

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("tick loop did not stop after cancel")
	}

	assert.GreaterOrEqual(t, job.Ticks(), int64(2))
}

func TestNewTickJob_DefaultInterval(t *testing.T) {
	job := worker.NewTickJob(worker.TickJobConfig{
		Sessions: &mockTicker{},
		Logger:   zerolog.Nop(),
	})

	// Zero interval falls back to the default; a tick still works.
	job.TickOnce(context.Background())
	assert.Equal(t, int64(1), job.Ticks())
}
