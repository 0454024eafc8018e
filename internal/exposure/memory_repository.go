package exposure

import (
	"context"
	"sort"
	"sync"
	"time"
)

// InMemoryRepository is an in-memory Repository implementation, intended for
// testing. Production uses PostgresRepository.
type InMemoryRepository struct {
	mu       sync.RWMutex
	sessions map[string]*Session
}

// NewInMemoryRepository creates a new in-memory session repository.
func NewInMemoryRepository() *InMemoryRepository {
	return &InMemoryRepository{
		sessions: make(map[string]*Session),
	}
}

// Create persists a completed session.
func (r *InMemoryRepository) Create(_ context.Context, s *Session) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	cpy := *s
	if cpy.CreatedAt.IsZero() {
		cpy.CreatedAt = time.Now()
	}
	r.sessions[cpy.ID] = &cpy
	return nil
}

// List returns completed sessions for a user, newest first.
func (r *InMemoryRepository) List(_ context.Context, userID string, opts ListOptions) (*ListResult, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var items []*Session
	for _, s := range r.sessions {
		if s.UserID == userID {
			cpy := *s
			items = append(items, &cpy)
		}
	}

	sort.Slice(items, func(a, b int) bool {
		return items[a].StartTime.After(items[b].StartTime)
	})

	limit := opts.Limit
	if limit <= 0 {
		limit = 50
	}

	result := &ListResult{Items: items}
	if len(items) > limit {
		result.Items = items[:limit]
		result.NextCursor = items[limit-1].ID
	}
	return result, nil
}

// DailyTotals returns accumulated IU per UTC calendar day.
func (r *InMemoryRepository) DailyTotals(_ context.Context, userID string, since time.Time) (map[time.Time]float64, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	totals := make(map[time.Time]float64)
	for _, s := range r.sessions {
		if s.UserID != userID || s.EndTime == nil || s.EndTime.Before(since) {
			continue
		}
		y, m, d := s.EndTime.UTC().Date()
		day := time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
		totals[day] += s.AccumulatedIU
	}
	return totals, nil
}
