// Package uvindex caches daily UV time-series data per location and decides
// what is servable when live data is stale, partial, or absent.
package uvindex

import (
	"context"
	"errors"
	"time"
)

// UV data errors.
var (
	ErrProviderUnavailable = errors.New("uv provider unavailable")
	ErrNoUsableData        = errors.New("no usable uv data")
	ErrInvalidCoordinates  = errors.New("invalid coordinates")
	ErrInvalidRecord       = errors.New("invalid uv record")
)

// HoursPerDay is the length of the hourly arrays in a DailyUVRecord.
const HoursPerDay = 24

// Provider fetches daily UV data for a location.
type Provider interface {
	// FetchDaily fetches the UV record covering the location's local day at
	// the given offset from today (0 = today, 1 = tomorrow).
	FetchDaily(ctx context.Context, lat, lon float64, dayOffset int) (*DailyUVRecord, error)

	// Name returns the provider name for logging.
	Name() string
}

// UVSample is one hourly bucket of a daily record.
type UVSample struct {
	// Hour is the hour-of-day index (0-23) in the record's local day.
	Hour int

	// UVIndex is the clear-sky UV index for that hour.
	UVIndex float64

	// CloudCoverPercent is total cloud cover (0-100) for that hour.
	CloudCoverPercent float64
}

// DailyUVRecord holds one local day of hourly UV and cloud data for a
// location. Records are immutable once fetched: a fresher fetch replaces the
// record, never merges into it.
type DailyUVRecord struct {
	// Lat and Lon are the (grid-rounded) coordinates the record covers.
	Lat float64
	Lon float64

	// Date is local midnight of the day the record covers, in the
	// location's zone. Hourly bucket i covers Date + i hours.
	Date time.Time

	// HourlyUV holds 24 clear-sky UV index values, one per local hour.
	HourlyUV []float64

	// HourlyCloudCover holds 24 cloud cover percentages (0-100).
	HourlyCloudCover []float64

	// MaxUV is the day's peak clear-sky UV index.
	MaxUV float64

	// Sunrise and Sunset bound the daylight arc.
	Sunrise time.Time
	Sunset  time.Time

	// LastUpdated is when this record was fetched.
	LastUpdated time.Time
}

// Validate checks the record's structural invariant: the hourly arrays are
// either both empty or both full-length.
func (r *DailyUVRecord) Validate() error {
	if len(r.HourlyUV) == 0 && len(r.HourlyCloudCover) == 0 {
		return nil
	}
	if len(r.HourlyUV) != HoursPerDay || len(r.HourlyCloudCover) != HoursPerDay {
		return ErrInvalidRecord
	}
	return nil
}

// HasHourlyData reports whether the record carries usable hourly arrays.
func (r *DailyUVRecord) HasHourlyData() bool {
	return len(r.HourlyUV) == HoursPerDay && len(r.HourlyCloudCover) == HoursPerDay
}

// SampleAt returns the hourly bucket nearest to ts. Upstream data is
// hourly-resolution, so nearest-hour lookup is used rather than
// interpolation between buckets.
func (r *DailyUVRecord) SampleAt(ts time.Time) (UVSample, bool) {
	if !r.HasHourlyData() {
		return UVSample{}, false
	}

	hour := int(ts.Sub(r.Date).Round(time.Hour).Hours())
	if hour < 0 {
		hour = 0
	}
	if hour > HoursPerDay-1 {
		hour = HoursPerDay - 1
	}

	return UVSample{
		Hour:              hour,
		UVIndex:           r.HourlyUV[hour],
		CloudCoverPercent: r.HourlyCloudCover[hour],
	}, true
}

// CoversDay reports whether ts falls inside the record's local day.
func (r *DailyUVRecord) CoversDay(ts time.Time) bool {
	return !ts.Before(r.Date) && ts.Before(r.Date.Add(HoursPerDay*time.Hour))
}
