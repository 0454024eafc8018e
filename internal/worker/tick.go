package worker

import (
	"context"
	"sync/atomic"
	"time"

	"github.com/rs/zerolog"
)

// DefaultTickInterval is how often active sessions are integrated.
const DefaultTickInterval = 60 * time.Second

// SessionTicker integrates all active sessions on a tick.
// Satisfied by exposure.Service.
type SessionTicker interface {
	Tick(ctx context.Context)
	ActiveCount() int
}

// TickJob drives the session accumulators on a fixed interval. A tick that
// runs long is never overlapped; the next interval is simply skipped.
type TickJob struct {
	interval time.Duration
	sessions SessionTicker
	logger   zerolog.Logger

	running atomic.Bool
	ticks   atomic.Int64
	skipped atomic.Int64
}

// TickJobConfig holds configuration for the tick job.
type TickJobConfig struct {
	Interval time.Duration
	Sessions SessionTicker
	Logger   zerolog.Logger
}

// NewTickJob creates a new tick job.
func NewTickJob(cfg TickJobConfig) *TickJob {
	interval := cfg.Interval
	if interval <= 0 {
		interval = DefaultTickInterval
	}
	return &TickJob{
		interval: interval,
		sessions: cfg.Sessions,
		logger:   cfg.Logger.With().Str("component", "tick_job").Logger(),
	}
}

// Run ticks until the context is canceled.
func (j *TickJob) Run(ctx context.Context) {
	j.logger.Info().Dur("interval", j.interval).Msg("session tick loop started")

	ticker := time.NewTicker(j.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			j.logger.Info().
				Int64("ticks", j.ticks.Load()).
				Int64("skipped", j.skipped.Load()).
				Msg("session tick loop stopped")
			return
		case <-ticker.C:
			j.TickOnce(ctx)
		}
	}
}

// Ticks reports completed ticks since the job was created.
func (j *TickJob) Ticks() int64 { return j.ticks.Load() }

// Skipped reports intervals skipped because the previous tick overran.
func (j *TickJob) Skipped() int64 { return j.skipped.Load() }

// TickOnce runs a single tick, unless the previous one is still running.
func (j *TickJob) TickOnce(ctx context.Context) {
	if !j.running.CompareAndSwap(false, true) {
		j.skipped.Add(1)
		j.logger.Warn().Msg("previous tick still running, skipping")
		return
	}
	defer j.running.Store(false)

	start := time.Now()
	j.sessions.Tick(ctx)
	j.ticks.Add(1)

	if active := j.sessions.ActiveCount(); active > 0 {
		j.logger.Debug().
			Int("active_sessions", active).
			Dur("duration", time.Since(start)).
			Msg("tick completed")
	}
}
