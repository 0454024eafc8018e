// Package profile manages the per-user dosimetry profile: the personal
// parameters the rate model needs. Profiles are snapshotted into sessions
// at start, so edits here never rewrite history.
package profile

import (
	"time"

	"github.com/sundose/sundose/internal/dosimetry"
)

// Profile is a user's stored dosimetry parameters plus an optional default
// location used when a request carries no coordinates.
type Profile struct {
	// UserID owns the profile (format: usr_XXXX).
	UserID string

	// Dosimetry holds the rate model parameters.
	Dosimetry dosimetry.Profile

	// DefaultLat and DefaultLon are the user's usual exposure location.
	// Nil when never set.
	DefaultLat *float64
	DefaultLon *float64

	// CreatedAt is when the profile was first stored.
	CreatedAt time.Time

	// UpdatedAt is when the profile was last changed.
	UpdatedAt time.Time
}

// DefaultProfile returns the starting profile for a user who has not
// configured one: median skin type, light clothing, no sunscreen, sea level.
func DefaultProfile(userID string) *Profile {
	now := time.Now()
	return &Profile{
		UserID: userID,
		Dosimetry: dosimetry.Profile{
			SkinType:  dosimetry.SkinTypeIII,
			Clothing:  dosimetry.ClothingLight,
			Sunscreen: dosimetry.SunscreenNone,
			Age:       35,
		},
		CreatedAt: now,
		UpdatedAt: now,
	}
}

func copyProfile(p *Profile) *Profile {
	cpy := *p
	if p.DefaultLat != nil {
		v := *p.DefaultLat
		cpy.DefaultLat = &v
	}
	if p.DefaultLon != nil {
		v := *p.DefaultLon
		cpy.DefaultLon = &v
	}
	return &cpy
}
