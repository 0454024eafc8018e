package worker_test

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sundose/sundose/internal/uvindex"
	"github.com/sundose/sundose/internal/worker"
)

// mockCache counts lookups per day offset and can be configured to fail
// or serve stale records.
type mockCache struct {
	mu          sync.Mutex
	todayCalls  int
	tomorrow    int
	err         error
	tomorrowErr error
	offline     bool
}

func (m *mockCache) Get(ctx context.Context, lat, lon float64, dayOffset int) (*uvindex.Lookup, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if dayOffset == 1 {
		m.tomorrow++
		if m.tomorrowErr != nil {
			return nil, m.tomorrowErr
		}
	} else {
		m.todayCalls++
		if m.err != nil {
			return nil, m.err
		}
	}

	return &uvindex.Lookup{
		Record:  &uvindex.DailyUVRecord{Lat: lat, Lon: lon},
		Offline: m.offline,
	}, nil
}

func (m *mockCache) counts() (today, tomorrow int) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.todayCalls, m.tomorrow
}

func TestDefaultRefreshConfig(t *testing.T) {
	cfg := worker.DefaultRefreshConfig()

	assert.Equal(t, 3, cfg.Concurrency)
	assert.Equal(t, 30*time.Second, cfg.Timeout)
	assert.True(t, cfg.IncludeTomorrow)
	assert.NotEmpty(t, cfg.Targets)
}

func TestDefaultRefreshTargets(t *testing.T) {
	targets := worker.DefaultRefreshTargets()

	// Should cover multiple destinations
	assert.GreaterOrEqual(t, len(targets), 5)

	var amsterdam *worker.RefreshTarget
	for i := range targets {
		if targets[i].Name == "Amsterdam" {
			amsterdam = &targets[i]
			break
		}
	}
	require.NotNil(t, amsterdam, "Amsterdam should be in targets")
	assert.Equal(t, 1, amsterdam.Priority)
	assert.GreaterOrEqual(t, len(amsterdam.Points), 2)

	var barcelona *worker.RefreshTarget
	for i := range targets {
		if targets[i].Name == "Barcelona" {
			barcelona = &targets[i]
			break
		}
	}
	require.NotNil(t, barcelona, "Barcelona should be in targets")
	assert.Equal(t, 1, barcelona.Priority)
}

func TestRefreshConfig_AllPoints(t *testing.T) {
	cfg := worker.RefreshConfig{
		Targets: []worker.RefreshTarget{
			{
				Name:   "City A",
				Points: []worker.Point{{Lat: 1, Lon: 1}, {Lat: 2, Lon: 2}},
			},
			{
				Name:   "City B",
				Points: []worker.Point{{Lat: 3, Lon: 3}},
			},
		},
	}

	points := cfg.AllPoints()
	assert.Len(t, points, 3)
	assert.Equal(t, cfg.TotalPoints(), 3)
}

func TestRefreshConfig_TotalPoints(t *testing.T) {
	cfg := worker.DefaultRefreshConfig()
	total := cfg.TotalPoints()

	// Should have a reasonable number of points
	assert.Greater(t, total, 10)
}

func TestRefreshJob_Run_WarmsTodayAndTomorrow(t *testing.T) {
	cache := &mockCache{}
	job := worker.NewRefreshJob(worker.RefreshJobConfig{
		Config: worker.RefreshConfig{
			Targets: []worker.RefreshTarget{
				{
					Name:   "Test",
					Points: []worker.Point{{Lat: 52.37, Lon: 4.90}, {Lat: 41.39, Lon: 2.17}},
				},
			},
			Concurrency:     1,
			Timeout:         time.Second,
			IncludeTomorrow: true,
		},
		Logger: zerolog.Nop(),
		Cache:  cache,
	})

	result := job.Run(context.Background())

	assert.Equal(t, 2, result.TotalPoints)
	assert.Equal(t, 2, result.Successful)
	assert.Equal(t, 0, result.Failed)
	assert.Greater(t, result.Duration, time.Duration(0))

	today, tomorrow := cache.counts()
	assert.Equal(t, 2, today)
	assert.Equal(t, 2, tomorrow)
}

func TestRefreshJob_Run_TodayOnly(t *testing.T) {
	cache := &mockCache{}
	job := worker.NewRefreshJob(worker.RefreshJobConfig{
		Config: worker.RefreshConfig{
			Targets: []worker.RefreshTarget{
				{Name: "Test", Points: []worker.Point{{Lat: 52.37, Lon: 4.90}}},
			},
			Concurrency:     1,
			Timeout:         time.Second,
			IncludeTomorrow: false,
		},
		Logger: zerolog.Nop(),
		Cache:  cache,
	})

	result := job.Run(context.Background())
	require.Equal(t, 1, result.Successful)

	today, tomorrow := cache.counts()
	assert.Equal(t, 1, today)
	assert.Equal(t, 0, tomorrow)
}

func TestRefreshJob_Run_ProviderFailure(t *testing.T) {
	cache := &mockCache{err: errors.New("provider unavailable")}
	job := worker.NewRefreshJob(worker.RefreshJobConfig{
		Config: worker.RefreshConfig{
			Targets: []worker.RefreshTarget{
				{Name: "Test", Points: []worker.Point{{Lat: 1, Lon: 1}, {Lat: 2, Lon: 2}}},
			},
			Concurrency: 2,
			Timeout:     time.Second,
		},
		Logger: zerolog.Nop(),
		Cache:  cache,
	})

	result := job.Run(context.Background())

	assert.Equal(t, 0, result.Successful)
	assert.Equal(t, 2, result.Failed)
	require.Len(t, result.Errors, 2)
	assert.Contains(t, result.Errors[0].Error, "provider unavailable")
}

func TestRefreshJob_Run_TomorrowFailureIsNotAPointFailure(t *testing.T) {
	cache := &mockCache{tomorrowErr: errors.New("no forecast yet")}
	job := worker.NewRefreshJob(worker.RefreshJobConfig{
		Config: worker.RefreshConfig{
			Targets: []worker.RefreshTarget{
				{Name: "Test", Points: []worker.Point{{Lat: 52.37, Lon: 4.90}}},
			},
			Concurrency:     1,
			Timeout:         time.Second,
			IncludeTomorrow: true,
		},
		Logger: zerolog.Nop(),
		Cache:  cache,
	})

	result := job.Run(context.Background())

	assert.Equal(t, 1, result.Successful)
	assert.Equal(t, 0, result.Failed)
}

func TestRefreshJob_Run_CountsStaleRecords(t *testing.T) {
	cache := &mockCache{offline: true}
	job := worker.NewRefreshJob(worker.RefreshJobConfig{
		Config: worker.RefreshConfig{
			Targets: []worker.RefreshTarget{
				{Name: "Test", Points: []worker.Point{{Lat: 52.37, Lon: 4.90}}},
			},
			Concurrency: 1,
			Timeout:     time.Second,
		},
		Logger: zerolog.Nop(),
		Cache:  cache,
	})

	result := job.Run(context.Background())

	assert.Equal(t, 1, result.Successful)
	assert.Equal(t, 1, result.ServedStale)
}

func TestRefreshJob_Run_WithConcurrency(t *testing.T) {
	points := make([]worker.Point, 10)
	for i := range points {
		points[i] = worker.Point{Lat: 52.0 + float64(i)*0.1, Lon: 4.0 + float64(i)*0.1}
	}

	cache := &mockCache{}
	job := worker.NewRefreshJob(worker.RefreshJobConfig{
		Config: worker.RefreshConfig{
			Targets:     []worker.RefreshTarget{{Name: "Test", Points: points}},
			Concurrency: 3,
			Timeout:     time.Second,
		},
		Logger: zerolog.Nop(),
		Cache:  cache,
	})

	result := job.Run(context.Background())

	assert.Equal(t, 10, result.TotalPoints)
	assert.Equal(t, 10, result.Successful)
}

func TestRefreshJob_Run_ContextCancellation(t *testing.T) {
	points := make([]worker.Point, 100)
	for i := range points {
		points[i] = worker.Point{Lat: 52.0 + float64(i)*0.01, Lon: 4.0 + float64(i)*0.01}
	}

	job := worker.NewRefreshJob(worker.RefreshJobConfig{
		Config: worker.RefreshConfig{
			Targets:     []worker.RefreshTarget{{Name: "Test", Points: points}},
			Concurrency: 1,
			Timeout:     100 * time.Millisecond,
		},
		Logger: zerolog.Nop(),
		Cache:  &mockCache{},
	})

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	result := job.Run(ctx)

	// Should complete (even if not all points processed)
	assert.NotNil(t, result)
}

func TestRefreshJob_Metrics(t *testing.T) {
	cache := &mockCache{}
	job := worker.NewRefreshJob(worker.RefreshJobConfig{
		Config: worker.RefreshConfig{
			Targets: []worker.RefreshTarget{
				{Name: "Test", Points: []worker.Point{{Lat: 52.37, Lon: 4.90}}},
			},
			Concurrency:     1,
			Timeout:         time.Second,
			IncludeTomorrow: true,
		},
		Logger: zerolog.Nop(),
		Cache:  cache,
	})

	_ = job.Run(context.Background())
	_ = job.Run(context.Background())

	metrics := job.Metrics()
	assert.Equal(t, int64(2), metrics.TotalRefreshes)
	assert.Equal(t, int64(2), metrics.SuccessfulRefresh)
	assert.Equal(t, int64(0), metrics.FailedRefreshes)
	assert.Equal(t, int64(2), metrics.TodayRefreshes)
	assert.Equal(t, int64(2), metrics.TomorrowRefreshes)
	assert.NotZero(t, metrics.LastRefreshAt)
	assert.Greater(t, metrics.LastRefreshDuration, time.Duration(0))
}

func TestNewRefreshJob_DefaultConfig(t *testing.T) {
	job := worker.NewRefreshJob(worker.RefreshJobConfig{
		Config: worker.RefreshConfig{},
		Logger: zerolog.Nop(),
		Cache:  &mockCache{},
	})

	metrics := job.Metrics()
	assert.Equal(t, int64(0), metrics.TotalRefreshes)
}
