package exposure

import (
	"time"

	"github.com/sundose/sundose/internal/dosimetry"
)

// Accumulator is the per-session integrator: Idle -> Tracking -> Idle.
//
// Integration uses wall-clock deltas, not tick counts, so an app that
// disappears into the background and returns integrates the full gap at the
// last known conditions. The accumulator is not safe for concurrent use; the
// owning service serializes access.
type Accumulator struct {
	session  *Session
	lastTick time.Time

	// uvSecondsSum accumulates uv x elapsed-seconds for the time-weighted
	// average; tick cadence is not guaranteed uniform, so sample-count
	// averaging would be wrong.
	uvSecondsSum   float64
	elapsedSeconds float64
}

// NewAccumulator returns an idle accumulator.
func NewAccumulator() *Accumulator {
	return &Accumulator{}
}

// Tracking reports whether a session is active.
func (a *Accumulator) Tracking() bool {
	return a.session != nil
}

// Begin starts a new session. Fails with ErrSessionActive while tracking.
func (a *Accumulator) Begin(now time.Time, uvIndex float64, profile dosimetry.Profile, userID, sessionID string, lat, lon float64) error {
	if a.session != nil {
		return ErrSessionActive
	}
	if err := profile.Validate(); err != nil {
		return err
	}

	a.session = &Session{
		ID:        sessionID,
		UserID:    userID,
		StartTime: now,
		PeakUV:    uvIndex,
		Profile:   profile,
		Lat:       lat,
		Lon:       lon,
	}
	a.lastTick = now
	a.uvSecondsSum = 0
	a.elapsedSeconds = 0
	return nil
}

// Tick integrates the elapsed interval at the given conditions. A no-op when
// idle or when the clock has not advanced (a backwards clock step is skipped
// rather than integrated negatively).
func (a *Accumulator) Tick(now time.Time, in dosimetry.RateInput) error {
	if a.session == nil {
		return nil
	}

	rate, err := dosimetry.Rate(in, a.session.Profile)
	if err != nil {
		return err
	}

	dt := now.Sub(a.lastTick)
	if dt <= 0 {
		return nil
	}

	hours := dt.Hours()
	a.session.AccumulatedIU += rate * hours

	seconds := dt.Seconds()
	a.uvSecondsSum += in.UVIndex * seconds
	a.elapsedSeconds += seconds
	a.session.AverageUV = a.uvSecondsSum / a.elapsedSeconds

	if in.UVIndex > a.session.PeakUV {
		a.session.PeakUV = in.UVIndex
	}

	a.lastTick = now
	return nil
}

// End finalizes and returns the session, returning the accumulator to idle.
// Fails with ErrNoActiveSession when idle.
func (a *Accumulator) End(now time.Time) (*Session, error) {
	if a.session == nil {
		return nil, ErrNoActiveSession
	}

	s := a.session
	end := now
	if end.Before(s.StartTime) {
		end = s.StartTime
	}
	s.EndTime = &end

	a.session = nil
	a.uvSecondsSum = 0
	a.elapsedSeconds = 0
	return s, nil
}

// Snapshot returns a copy of the active session for read-only consumers, or
// nil when idle.
func (a *Accumulator) Snapshot() *Session {
	if a.session == nil {
		return nil
	}
	cpy := *a.session
	return &cpy
}
