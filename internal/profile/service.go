package profile

import (
	"context"
	"errors"
	"time"

	"github.com/sundose/sundose/internal/dosimetry"
)

// Input carries a profile update. Nil fields keep the stored value.
type Input struct {
	SkinType       *int
	Clothing       *int
	Sunscreen      *int
	Age            *int
	AltitudeMeters *float64
	DefaultLat     *float64
	DefaultLon     *float64
}

// Service provides profile operations.
type Service struct {
	repo Repository
	now  func() time.Time
}

// NewService creates a new profile service.
func NewService(repo Repository) *Service {
	return &Service{repo: repo, now: time.Now}
}

// Get retrieves the user's profile, falling back to defaults for users who
// have never configured one.
func (s *Service) Get(ctx context.Context, userID string) (*Profile, error) {
	p, err := s.repo.Get(ctx, userID)
	if errors.Is(err, ErrProfileNotFound) {
		return DefaultProfile(userID), nil
	}
	if err != nil {
		return nil, err
	}
	return p, nil
}

// Update applies a partial update and persists the result. The merged
// profile is validated as a whole, so a single bad field rejects the write.
func (s *Service) Update(ctx context.Context, userID string, input Input) (*Profile, error) {
	p, err := s.repo.Get(ctx, userID)
	if errors.Is(err, ErrProfileNotFound) {
		p = DefaultProfile(userID)
	} else if err != nil {
		return nil, err
	}

	if input.SkinType != nil {
		p.Dosimetry.SkinType = dosimetry.SkinType(*input.SkinType)
	}
	if input.Clothing != nil {
		p.Dosimetry.Clothing = dosimetry.ClothingLevel(*input.Clothing)
	}
	if input.Sunscreen != nil {
		p.Dosimetry.Sunscreen = dosimetry.SunscreenLevel(*input.Sunscreen)
	}
	if input.Age != nil {
		p.Dosimetry.Age = *input.Age
	}
	if input.AltitudeMeters != nil {
		p.Dosimetry.AltitudeMeters = *input.AltitudeMeters
	}
	if input.DefaultLat != nil {
		p.DefaultLat = input.DefaultLat
	}
	if input.DefaultLon != nil {
		p.DefaultLon = input.DefaultLon
	}

	if err := p.Dosimetry.Validate(); err != nil {
		return nil, err
	}

	p.UpdatedAt = s.now()
	if p.CreatedAt.IsZero() {
		p.CreatedAt = p.UpdatedAt
	}

	if err := s.repo.Upsert(ctx, p); err != nil {
		return nil, err
	}
	return p, nil
}

// Delete removes the user's stored profile.
func (s *Service) Delete(ctx context.Context, userID string) error {
	return s.repo.Delete(ctx, userID)
}
