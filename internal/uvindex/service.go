package uvindex

import (
	"context"
	"fmt"
	"math"
	"sync"
	"time"

	"github.com/rs/zerolog"
)

// CacheMetrics records cache hit/miss outcomes. Satisfied by
// middleware.ProviderMetrics.
type CacheMetrics interface {
	RecordCacheHit(provider, operation string)
	RecordCacheMiss(provider, operation string)
}

// ServiceConfig holds configuration for the UV cache service.
type ServiceConfig struct {
	// Provider is the network UV data provider.
	Provider Provider

	// Metrics records cache hit/miss outcomes (optional).
	Metrics CacheMetrics

	// Logger for service operations.
	Logger zerolog.Logger

	// FreshnessInterval is how long a fetched record is considered fresh
	// (default: 5 minutes). A stale record triggers a refetch but remains
	// servable if the refetch fails.
	FreshnessInterval time.Duration

	// GridSize is the cache grid cell size in degrees (default: 0.1).
	// Nearby points share cached records.
	GridSize float64

	// FetchTimeout bounds a single provider fetch (default: 15 seconds).
	// The fetch is shared by all waiters, so it runs detached from any one
	// caller's context.
	FetchTimeout time.Duration

	// Now returns the current time; injectable for tests.
	Now func() time.Time
}

// Service is the UV time-series cache: one DailyUVRecord per (grid cell,
// day) key, with staleness tracking and single-flight fetches.
type Service struct {
	provider  Provider
	metrics   CacheMetrics
	logger    zerolog.Logger
	freshness time.Duration
	gridSize  float64
	fetchTO   time.Duration
	now       func() time.Time

	mu       sync.Mutex
	records  map[string]*DailyUVRecord
	inflight map[string]*inflightFetch
}

// inflightFetch is a fetch in progress. Concurrent requests for the same key
// wait on done and share the result instead of issuing duplicate fetches.
type inflightFetch struct {
	done chan struct{}
	rec  *DailyUVRecord
	err  error
}

// Lookup is the result of a cache query.
type Lookup struct {
	// Record is the servable record.
	Record *DailyUVRecord

	// Offline is true when the record is stale-but-present: a refresh was
	// due but the provider could not be reached. Pair with
	// Record.LastUpdated for "last updated N minutes ago" display.
	Offline bool
}

// NewService creates a new UV cache service.
func NewService(cfg ServiceConfig) *Service {
	freshness := cfg.FreshnessInterval
	if freshness == 0 {
		freshness = 5 * time.Minute
	}

	gridSize := cfg.GridSize
	if gridSize == 0 {
		gridSize = 0.1
	}

	fetchTO := cfg.FetchTimeout
	if fetchTO == 0 {
		fetchTO = 15 * time.Second
	}

	now := cfg.Now
	if now == nil {
		now = time.Now
	}

	return &Service{
		provider:  cfg.Provider,
		metrics:   cfg.Metrics,
		logger:    cfg.Logger,
		freshness: freshness,
		gridSize:  gridSize,
		fetchTO:   fetchTO,
		now:       now,
		records:   make(map[string]*DailyUVRecord),
		inflight:  make(map[string]*inflightFetch),
	}
}

// Get returns the UV record for the location's local day at the given offset
// (0 = today, 1 = tomorrow).
//
// A fetch is issued when the record is missing, its local date has rolled
// over, or it is older than the freshness interval. On fetch failure a stale
// record is served with Offline set; with no record at all the result is
// ErrNoUsableData.
func (s *Service) Get(ctx context.Context, lat, lon float64, dayOffset int) (*Lookup, error) {
	if err := validateCoordinates(lat, lon); err != nil {
		return nil, err
	}

	key := s.cacheKey(lat, lon, dayOffset)
	now := s.now()

	s.mu.Lock()
	if rec, ok := s.records[key]; ok && s.isFresh(rec, now, dayOffset) {
		s.mu.Unlock()
		if s.metrics != nil {
			s.metrics.RecordCacheHit(s.provider.Name(), "get")
		}
		return &Lookup{Record: rec}, nil
	}
	// A fetch is due. Join an in-flight one if present, otherwise start one.
	fl, joined := s.inflight[key]
	if !joined {
		fl = &inflightFetch{done: make(chan struct{})}
		s.inflight[key] = fl
		go s.fetch(key, lat, lon, dayOffset, fl)
	}
	s.mu.Unlock()

	if s.metrics != nil {
		s.metrics.RecordCacheMiss(s.provider.Name(), "get")
	}

	select {
	case <-fl.done:
	case <-ctx.Done():
		return nil, ctx.Err()
	}

	if fl.err == nil {
		return &Lookup{Record: fl.rec}, nil
	}

	// Fetch failed: fall back to whatever is cached, however stale.
	s.mu.Lock()
	rec, ok := s.records[key]
	s.mu.Unlock()

	if ok && s.coversOffset(rec, now, dayOffset) {
		s.logger.Warn().
			Str("key", key).
			Time("last_updated", rec.LastUpdated).
			Msg("serving stale uv data, provider unreachable")
		return &Lookup{Record: rec, Offline: true}, nil
	}

	return nil, fmt.Errorf("%w: %s", ErrNoUsableData, fl.err)
}

// fetch performs the provider call for one key and publishes the result to
// all waiters. It runs detached from caller contexts so a canceled waiter
// does not abort the shared fetch.
func (s *Service) fetch(key string, lat, lon float64, dayOffset int, fl *inflightFetch) {
	ctx, cancel := context.WithTimeout(context.Background(), s.fetchTO)
	defer cancel()

	rec, err := s.provider.FetchDaily(ctx, lat, lon, dayOffset)
	if err == nil {
		if verr := rec.Validate(); verr != nil {
			err = verr
		}
	}

	s.mu.Lock()
	if err == nil {
		rec.LastUpdated = s.now()
		// Replace, never merge. Last write wins for the key.
		s.records[key] = rec
		fl.rec = rec
	} else {
		fl.err = fmt.Errorf("%w: %s", ErrProviderUnavailable, err)
		s.logger.Error().Err(err).
			Str("provider", s.provider.Name()).
			Str("key", key).
			Msg("uv fetch failed")
	}
	delete(s.inflight, key)
	s.mu.Unlock()

	close(fl.done)
}

// isFresh reports whether a cached record can be served without a refetch.
func (s *Service) isFresh(rec *DailyUVRecord, now time.Time, dayOffset int) bool {
	if now.Sub(rec.LastUpdated) >= s.freshness {
		return false
	}
	return s.coversOffset(rec, now, dayOffset)
}

// coversOffset reports whether the record still covers the requested day:
// a date rollover makes yesterday's "today" record unservable.
func (s *Service) coversOffset(rec *DailyUVRecord, now time.Time, dayOffset int) bool {
	switch dayOffset {
	case 0:
		return rec.CoversDay(now)
	default:
		return now.Before(rec.Date)
	}
}

// cacheKey groups nearby points into grid cells, one entry per day offset.
func (s *Service) cacheKey(lat, lon float64, dayOffset int) string {
	gridLat := math.Floor(lat/s.gridSize) * s.gridSize
	gridLon := math.Floor(lon/s.gridSize) * s.gridSize
	return fmt.Sprintf("%.2f:%.2f#%d", gridLat, gridLon, dayOffset)
}

// Invalidate clears all cached records.
func (s *Service) Invalidate() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.records = make(map[string]*DailyUVRecord)
}

// Stats contains cache statistics.
type Stats struct {
	Entries      int
	FreshEntries int
	Inflight     int
	Provider     string
}

// CacheStats returns cache statistics.
func (s *Service) CacheStats() Stats {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now()
	fresh := 0
	for _, rec := range s.records {
		if now.Sub(rec.LastUpdated) < s.freshness {
			fresh++
		}
	}

	return Stats{
		Entries:      len(s.records),
		FreshEntries: fresh,
		Inflight:     len(s.inflight),
		Provider:     s.provider.Name(),
	}
}

func validateCoordinates(lat, lon float64) error {
	if math.IsNaN(lat) || math.IsNaN(lon) || lat < -90 || lat > 90 || lon < -180 || lon > 180 {
		return ErrInvalidCoordinates
	}
	return nil
}
