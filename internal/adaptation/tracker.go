// Package adaptation maintains the photoadaptation multiplier: skin exposed
// to sustained recent UV synthesizes somewhat more efficiently, and the
// effect decays as high-exposure days age out of the window.
package adaptation

import (
	"context"
	"math"
	"sync"
	"time"

	"github.com/rs/zerolog"
)

// Tracker constants.
const (
	// WindowDays is the trailing window length in calendar days.
	WindowDays = 7

	// FactorFloor and FactorCeiling clamp the adaptation factor so it can
	// never zero out or runaway-amplify the synthesis rate.
	FactorFloor   = 0.80
	FactorCeiling = 1.20

	// referenceDailyIU is the daily accumulated dose at which the factor is
	// neutral (1.0).
	referenceDailyIU = 8000.0

	// adaptationGain bounds how far sustained exposure can push the factor
	// from neutral before clamping.
	adaptationGain = 0.20
)

// HistorySource supplies historical daily accumulated IU totals, typically
// backed by the health platform. Absence degrades adaptation accuracy but
// never fails the tracker.
type HistorySource interface {
	// DailyTotals returns accumulated IU per calendar day for the trailing
	// days ending at (and excluding) today.
	DailyTotals(ctx context.Context, days int) (map[time.Time]float64, error)
}

// Tracker owns the rolling adaptation window. All methods are safe for
// concurrent use.
type Tracker struct {
	logger zerolog.Logger

	mu   sync.RWMutex
	days map[time.Time]float64 // keyed by date truncated to local midnight
}

// NewTracker creates an empty tracker.
func NewTracker(logger zerolog.Logger) *Tracker {
	return &Tracker{
		logger: logger,
		days:   make(map[time.Time]float64),
	}
}

// RecordDay adds accumulated IU to the window entry for the given date.
// Multiple sessions on the same day sum. Entries older than the window are
// evicted on the way in.
func (t *Tracker) RecordDay(date time.Time, accumulatedIU float64) {
	if accumulatedIU < 0 || math.IsNaN(accumulatedIU) {
		return
	}

	day := dateKey(date)

	t.mu.Lock()
	defer t.mu.Unlock()
	t.days[day] += accumulatedIU
	t.evictLocked(day)
}

// Seed replaces the window with daily totals from a history source. Called
// once at startup; a source error leaves the window empty and is non-fatal.
func (t *Tracker) Seed(ctx context.Context, src HistorySource) {
	if src == nil {
		return
	}

	totals, err := src.DailyTotals(ctx, WindowDays)
	if err != nil {
		t.logger.Warn().Err(err).Msg("adaptation history unavailable, starting with empty window")
		return
	}

	t.mu.Lock()
	defer t.mu.Unlock()
	t.days = make(map[time.Time]float64, len(totals))
	newest := time.Time{}
	for d, iu := range totals {
		if iu < 0 || math.IsNaN(iu) {
			continue
		}
		day := dateKey(d)
		t.days[day] = iu
		if day.After(newest) {
			newest = day
		}
	}
	if !newest.IsZero() {
		t.evictLocked(newest)
	}

	t.logger.Info().Int("days", len(t.days)).Msg("adaptation window seeded from history")
}

// CurrentFactor returns the adaptation multiplier as of now, always within
// [FactorFloor, FactorCeiling].
//
// Each of the 7 window days is recency-weighted (today weight 7, the oldest
// weight 1); days with no recorded dose count as the neutral reference dose,
// so an empty window yields exactly 1.0 and a high-exposure day fades toward
// neutral as it ages through the window. The weighted mean maps to the
// factor via
//
//	factor = 1 + gain * (r-1)/(r+1),  r = weightedMean / reference
//
// which is bounded, monotone in recent dose, neutral at the reference, and
// then clamped to the floor/ceiling.
func (t *Tracker) CurrentFactor(now time.Time) float64 {
	today := dateKey(now)

	t.mu.RLock()
	defer t.mu.RUnlock()

	var weightedSum, weightTotal float64
	for age := 0; age < WindowDays; age++ {
		w := float64(WindowDays - age)
		dose, ok := t.days[today.AddDate(0, 0, -age)]
		if !ok {
			dose = referenceDailyIU
		}
		weightedSum += w * dose
		weightTotal += w
	}

	r := (weightedSum / weightTotal) / referenceDailyIU
	factor := 1.0 + adaptationGain*(r-1)/(r+1)
	return clamp(factor, FactorFloor, FactorCeiling)
}

// WindowSize returns the number of days currently held in the window.
func (t *Tracker) WindowSize() int {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return len(t.days)
}

// evictLocked drops entries older than the window relative to newest.
// Caller must hold the write lock.
func (t *Tracker) evictLocked(newest time.Time) {
	for day := range t.days {
		if newest.Sub(day).Hours()/24 >= WindowDays {
			delete(t.days, day)
		}
	}
}

func dateKey(ts time.Time) time.Time {
	y, m, d := ts.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
