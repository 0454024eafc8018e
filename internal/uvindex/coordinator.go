package uvindex

import (
	"context"
	"math"
	"time"

	"github.com/rs/zerolog"

	"github.com/sundose/sundose/internal/dosimetry"
)

// Cache is the record source the coordinator reads from.
type Cache interface {
	Get(ctx context.Context, lat, lon float64, dayOffset int) (*Lookup, error)
}

// Conditions is the coordinator's read-only snapshot of what is currently
// servable for a location.
type Conditions struct {
	// UVIndex is the effective current UV: nearest-hour clear-sky value,
	// attenuated by cloud cover, scaled for altitude, and zero at night.
	UVIndex float64

	// ClearSkyUV is the unattenuated nearest-hour value.
	ClearSkyUV float64

	// CloudAdjustedUV is the cloud-attenuated sea-level value. The rate
	// model consumes this together with AltitudeMultiplier, which it
	// applies itself; UVIndex already has the multiplier folded in.
	CloudAdjustedUV float64

	// CloudCoverPercent is the nearest-hour cloud cover (0-100).
	CloudCoverPercent float64

	// TimeOfDayQuality in [0,1] is the spectral effectiveness of the
	// current solar angle.
	TimeOfDayQuality float64

	// AltitudeMultiplier applied to UVIndex.
	AltitudeMultiplier float64

	// OfflineMode means the values come from a stale cached record.
	// LastUpdated says how stale.
	OfflineMode bool

	// HasNoData means nothing usable could be served; all other fields are
	// zero values.
	HasNoData bool

	// LastUpdated is when the serving record was fetched.
	LastUpdated time.Time

	// Display values for the consumer. After sunset these come from
	// tomorrow's record (DisplayTomorrow true) while UVIndex correctly
	// stays 0.
	DisplayDate     time.Time
	DisplayTomorrow bool
	Sunrise         time.Time
	Sunset          time.Time
	MaxUV           float64
}

// Coordinator decides which of {fresh, cached/offline, no-data} to serve and
// derives current-moment values from the daily record.
type Coordinator struct {
	cache  Cache
	logger zerolog.Logger
	now    func() time.Time
}

// CoordinatorConfig holds configuration for the coordinator.
type CoordinatorConfig struct {
	Cache  Cache
	Logger zerolog.Logger

	// Now returns the current time; injectable for tests.
	Now func() time.Time
}

// NewCoordinator creates a new offline coordinator.
func NewCoordinator(cfg CoordinatorConfig) *Coordinator {
	now := cfg.Now
	if now == nil {
		now = time.Now
	}
	return &Coordinator{
		cache:  cfg.Cache,
		logger: cfg.Logger,
		now:    now,
	}
}

// Current returns the conditions snapshot for a location. A missing or
// unreachable record is not an error: it is surfaced as HasNoData so the
// presentation layer can show the state.
func (c *Coordinator) Current(ctx context.Context, lat, lon, altitudeMeters float64) (*Conditions, error) {
	if err := validateCoordinates(lat, lon); err != nil {
		return nil, err
	}

	lookup, err := c.cache.Get(ctx, lat, lon, 0)
	if err != nil {
		if ctx.Err() != nil {
			return nil, err
		}
		c.logger.Warn().Err(err).
			Float64("lat", lat).
			Float64("lon", lon).
			Msg("no usable uv data for location")
		return &Conditions{HasNoData: true}, nil
	}

	rec := lookup.Record
	now := c.now()
	altMult := dosimetry.AltitudeMultiplier(altitudeMeters)

	cond := &Conditions{
		OfflineMode:        lookup.Offline,
		AltitudeMultiplier: altMult,
		LastUpdated:        rec.LastUpdated,
		DisplayDate:        rec.Date,
		Sunrise:            rec.Sunrise,
		Sunset:             rec.Sunset,
		MaxUV:              rec.MaxUV,
	}

	daylight := !now.Before(rec.Sunrise) && !now.After(rec.Sunset)
	if daylight {
		sample, ok := rec.SampleAt(now)
		if !ok {
			// Record exists but carries no hourly arrays.
			return &Conditions{HasNoData: true}, nil
		}
		cond.ClearSkyUV = sample.UVIndex
		cond.CloudCoverPercent = sample.CloudCoverPercent
		cond.CloudAdjustedUV = sample.UVIndex * cloudTransmission(sample.CloudCoverPercent)
		cond.UVIndex = cond.CloudAdjustedUV * altMult
		cond.TimeOfDayQuality = timeOfDayQuality(now, rec.Sunrise, rec.Sunset)
	}

	// Past sunset the consumer should see tomorrow's sunrise/sunset/maxUV,
	// while current UV correctly reports 0 for the night.
	if now.After(rec.Sunset) {
		c.applyTomorrow(ctx, lat, lon, cond)
	}

	return cond, nil
}

// applyTomorrow swaps the display values for tomorrow's record. If tomorrow
// cannot be fetched the display keeps today's values.
func (c *Coordinator) applyTomorrow(ctx context.Context, lat, lon float64, cond *Conditions) {
	lookup, err := c.cache.Get(ctx, lat, lon, 1)
	if err != nil {
		c.logger.Debug().Err(err).Msg("tomorrow uv record unavailable, keeping today's display values")
		return
	}

	rec := lookup.Record
	cond.DisplayTomorrow = true
	cond.DisplayDate = rec.Date
	cond.Sunrise = rec.Sunrise
	cond.Sunset = rec.Sunset
	cond.MaxUV = rec.MaxUV
	if lookup.Offline {
		cond.OfflineMode = true
	}
}

// cloudTransmission is the fraction of clear-sky UV reaching the ground for
// a given total cloud cover percentage. Cubic attenuation: scattered clouds
// barely matter, full overcast blocks roughly three quarters.
func cloudTransmission(cloudCoverPercent float64) float64 {
	frac := clampFloat(cloudCoverPercent/100, 0, 1)
	return 1 - 0.75*math.Pow(frac, 3)
}

// timeOfDayQuality models the UVB share of total UV over the daylight arc:
// highest at solar noon, tapering toward sunrise and sunset. The half-sine
// over the arc is a solar-elevation proxy that needs no ephemeris.
func timeOfDayQuality(now, sunrise, sunset time.Time) float64 {
	daylight := sunset.Sub(sunrise)
	if daylight <= 0 {
		return 0
	}
	progress := float64(now.Sub(sunrise)) / float64(daylight)
	return clampFloat(math.Sin(math.Pi*progress), 0, 1)
}

func clampFloat(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
