package profile

import (
	"context"
	"errors"
	"sync"
)

// Repository errors.
var (
	ErrProfileNotFound = errors.New("profile not found")
)

// Repository defines the interface for profile persistence.
type Repository interface {
	// Get retrieves a profile by user ID.
	Get(ctx context.Context, userID string) (*Profile, error)

	// Upsert creates or replaces the user's profile.
	Upsert(ctx context.Context, p *Profile) error

	// Delete removes a profile.
	Delete(ctx context.Context, userID string) error
}

// InMemoryRepository is an in-memory implementation of Repository for tests
// and single-node deployments without a database.
type InMemoryRepository struct {
	mu       sync.RWMutex
	profiles map[string]*Profile
}

// NewInMemoryRepository creates a new in-memory profile repository.
func NewInMemoryRepository() *InMemoryRepository {
	return &InMemoryRepository{
		profiles: make(map[string]*Profile),
	}
}

// Get retrieves a profile by user ID.
func (r *InMemoryRepository) Get(_ context.Context, userID string) (*Profile, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	p, ok := r.profiles[userID]
	if !ok {
		return nil, ErrProfileNotFound
	}
	return copyProfile(p), nil
}

// Upsert creates or replaces the user's profile.
func (r *InMemoryRepository) Upsert(_ context.Context, p *Profile) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.profiles[p.UserID] = copyProfile(p)
	return nil
}

// Delete removes a profile.
func (r *InMemoryRepository) Delete(_ context.Context, userID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.profiles[userID]; !ok {
		return ErrProfileNotFound
	}
	delete(r.profiles, userID)
	return nil
}
