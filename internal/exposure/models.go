// Package exposure tracks sun-exposure sessions: the stateful integrator
// that turns instantaneous synthesis rates into accumulated dose.
package exposure

import (
	"errors"
	"time"

	"github.com/sundose/sundose/internal/dosimetry"
)

// Exposure errors.
var (
	ErrNoActiveSession = errors.New("no active exposure session")
	ErrSessionActive   = errors.New("an exposure session is already active")
	ErrSessionNotFound = errors.New("session not found")
)

// Session is one tracked exposure. Created when tracking starts; mutated
// only by the accumulator while active; immutable once ended.
type Session struct {
	// ID is the session identifier (ses_ prefix).
	ID string

	// UserID owns the session. Exactly one session may be active per user.
	UserID string

	// StartTime and EndTime bound the exposure. EndTime is nil while
	// tracking.
	StartTime time.Time
	EndTime   *time.Time

	// AccumulatedIU is the integrated vitamin D dose. Monotonically
	// non-decreasing while tracking.
	AccumulatedIU float64

	// AverageUV is the time-weighted mean UV index over the session.
	AverageUV float64

	// PeakUV is the highest UV index observed.
	PeakUV float64

	// Profile is the personal parameter snapshot taken at session start.
	Profile dosimetry.Profile

	// Lat and Lon locate the exposure.
	Lat float64
	Lon float64

	// CreatedAt is when the record was persisted.
	CreatedAt time.Time
}

// Active reports whether the session is still being tracked.
func (s *Session) Active() bool {
	return s.EndTime == nil
}

// Duration returns the session length, up to now for an active session.
func (s *Session) Duration(now time.Time) time.Duration {
	if s.EndTime != nil {
		return s.EndTime.Sub(s.StartTime)
	}
	return now.Sub(s.StartTime)
}
