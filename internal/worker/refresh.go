package worker

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"github.com/rs/zerolog"

	"github.com/sundose/sundose/internal/uvindex"
)

// UVCache is the slice of the cache the refresh job drives.
type UVCache interface {
	Get(ctx context.Context, lat, lon float64, dayOffset int) (*uvindex.Lookup, error)
}

// RefreshJob keeps UV records for the configured targets warm so user
// requests and session ticks hit fresh cache entries.
type RefreshJob struct {
	config RefreshConfig
	logger zerolog.Logger
	cache  UVCache

	metrics *RefreshMetrics
}

// RefreshMetrics tracks refresh job statistics.
type RefreshMetrics struct {
	mu sync.RWMutex

	TotalRefreshes    int64
	SuccessfulRefresh int64
	FailedRefreshes   int64
	TodayRefreshes    int64
	TomorrowRefreshes int64

	LastRefreshAt       time.Time
	LastRefreshDuration time.Duration
	TotalDuration       time.Duration

	ServedStale int64
}

// RefreshJobConfig holds configuration for creating a RefreshJob.
type RefreshJobConfig struct {
	Config RefreshConfig
	Logger zerolog.Logger
	Cache  UVCache
}

// NewRefreshJob creates a new refresh job processor.
func NewRefreshJob(cfg RefreshJobConfig) *RefreshJob {
	config := cfg.Config
	if len(config.Targets) == 0 {
		config = DefaultRefreshConfig()
	}
	if config.Concurrency <= 0 {
		config.Concurrency = 3
	}
	if config.Timeout <= 0 {
		config.Timeout = 30 * time.Second
	}

	return &RefreshJob{
		config:  config,
		logger:  cfg.Logger,
		cache:   cfg.Cache,
		metrics: &RefreshMetrics{},
	}
}

// RefreshResult contains the result of a refresh operation.
type RefreshResult struct {
	StartTime   time.Time
	EndTime     time.Time
	Duration    time.Duration
	TotalPoints int
	Successful  int
	Failed      int
	ServedStale int
	Errors      []RefreshError
}

// RefreshError represents an error during refresh.
type RefreshError struct {
	Point Point
	Error string
}

// Run executes the refresh job for all configured targets.
func (j *RefreshJob) Run(ctx context.Context) *RefreshResult {
	startTime := time.Now()
	result := &RefreshResult{
		StartTime:   startTime,
		TotalPoints: j.config.TotalPoints(),
	}

	j.logger.Info().
		Int("total_points", result.TotalPoints).
		Int("concurrency", j.config.Concurrency).
		Msg("starting uv refresh job")

	points := j.config.AllPoints()

	pointsChan := make(chan Point, len(points))
	resultsChan := make(chan pointResult, len(points))

	var wg sync.WaitGroup
	for i := 0; i < j.config.Concurrency; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			j.refreshWorker(ctx, pointsChan, resultsChan)
		}()
	}

	for _, p := range points {
		pointsChan <- p
	}
	close(pointsChan)

	go func() {
		wg.Wait()
		close(resultsChan)
	}()

	for pr := range resultsChan {
		if pr.success {
			result.Successful++
		} else {
			result.Failed++
		}
		if pr.servedStale {
			result.ServedStale++
		}
		result.Errors = append(result.Errors, pr.errors...)
	}

	result.EndTime = time.Now()
	result.Duration = result.EndTime.Sub(startTime)

	j.updateMetrics(result)

	j.logger.Info().
		Dur("duration", result.Duration).
		Int("successful", result.Successful).
		Int("failed", result.Failed).
		Int("served_stale", result.ServedStale).
		Msg("uv refresh job completed")

	return result
}

// Metrics returns a copy of the job's running metrics.
func (j *RefreshJob) Metrics() RefreshMetrics {
	j.metrics.mu.RLock()
	defer j.metrics.mu.RUnlock()
	return RefreshMetrics{
		TotalRefreshes:      j.metrics.TotalRefreshes,
		SuccessfulRefresh:   j.metrics.SuccessfulRefresh,
		FailedRefreshes:     j.metrics.FailedRefreshes,
		TodayRefreshes:      atomic.LoadInt64(&j.metrics.TodayRefreshes),
		TomorrowRefreshes:   atomic.LoadInt64(&j.metrics.TomorrowRefreshes),
		LastRefreshAt:       j.metrics.LastRefreshAt,
		LastRefreshDuration: j.metrics.LastRefreshDuration,
		TotalDuration:       j.metrics.TotalDuration,
		ServedStale:         j.metrics.ServedStale,
	}
}

type pointResult struct {
	point       Point
	success     bool
	servedStale bool
	errors      []RefreshError
}

func (j *RefreshJob) refreshWorker(ctx context.Context, points <-chan Point, results chan<- pointResult) {
	for point := range points {
		select {
		case <-ctx.Done():
			return
		default:
			results <- j.refreshPoint(ctx, point)
		}
	}
}

func (j *RefreshJob) refreshPoint(ctx context.Context, point Point) pointResult {
	result := pointResult{
		point:   point,
		success: true,
	}

	pointCtx, cancel := context.WithTimeout(ctx, j.config.Timeout)
	defer cancel()

	lookup, err := j.cache.Get(pointCtx, point.Lat, point.Lon, 0)
	if err != nil {
		result.errors = append(result.errors, RefreshError{Point: point, Error: err.Error()})
		result.success = false
	} else {
		atomic.AddInt64(&j.metrics.TodayRefreshes, 1)
		if lookup.Offline {
			result.servedStale = true
		}
	}

	if j.config.IncludeTomorrow {
		if _, err := j.cache.Get(pointCtx, point.Lat, point.Lon, 1); err != nil {
			// Tomorrow's record is a nicety; failing to warm it is not a
			// point failure.
			j.logger.Debug().Err(err).
				Float64("lat", point.Lat).
				Float64("lon", point.Lon).
				Msg("could not warm tomorrow's record")
		} else {
			atomic.AddInt64(&j.metrics.TomorrowRefreshes, 1)
		}
	}

	return result
}

func (j *RefreshJob) updateMetrics(result *RefreshResult) {
	j.metrics.mu.Lock()
	defer j.metrics.mu.Unlock()

	j.metrics.TotalRefreshes++
	j.metrics.SuccessfulRefresh += int64(result.Successful)
	j.metrics.FailedRefreshes += int64(result.Failed)
	j.metrics.ServedStale += int64(result.ServedStale)
	j.metrics.LastRefreshAt = result.EndTime
	j.metrics.LastRefreshDuration = result.Duration
	j.metrics.TotalDuration += result.Duration
}
