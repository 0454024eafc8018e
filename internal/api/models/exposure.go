package models

// ProfileInput carries the dosimetry profile in requests. All fields are
// optional on update; on session begin missing fields fall back to the
// stored profile.
type ProfileInput struct {
	SkinType       *int     `json:"skinType,omitempty" validate:"omitempty,gte=1,lte=6"`
	ClothingLevel  *int     `json:"clothingLevel,omitempty" validate:"omitempty,gte=0,lte=4"`
	SunscreenLevel *int     `json:"sunscreenLevel,omitempty" validate:"omitempty,gte=0,lte=3"`
	Age            *int     `json:"age,omitempty" validate:"omitempty,gte=0,lte=130"`
	AltitudeMeters *float64 `json:"altitudeMeters,omitempty"`
	DefaultLat     *float64 `json:"defaultLat,omitempty" validate:"omitempty,gte=-90,lte=90"`
	DefaultLon     *float64 `json:"defaultLon,omitempty" validate:"omitempty,gte=-180,lte=180"`
}

// Profile is the stored dosimetry profile response.
type Profile struct {
	SkinType       int       `json:"skinType"`
	ClothingLevel  int       `json:"clothingLevel"`
	SunscreenLevel int       `json:"sunscreenLevel"`
	Age            int       `json:"age"`
	AltitudeMeters float64   `json:"altitudeMeters"`
	DefaultLat     *float64  `json:"defaultLat,omitempty"`
	DefaultLon     *float64  `json:"defaultLon,omitempty"`
	UpdatedAt      Timestamp `json:"updatedAt"`
}

// SessionBeginInput is the request for POST /v1/exposure/sessions.
type SessionBeginInput struct {
	Lat float64 `json:"lat" validate:"required,gte=-90,lte=90"`
	Lon float64 `json:"lon" validate:"required,gte=-180,lte=180"`

	// Profile optionally overrides the stored profile for this session.
	Profile *ProfileInput `json:"profile,omitempty"`
}

// ManualUVInput is the request for PUT /v1/exposure/sessions/current/uv.
// A null value clears the override.
type ManualUVInput struct {
	UVIndex *float64 `json:"uvIndex"`
}

// Session is an exposure session response.
type Session struct {
	ID            string     `json:"id"`
	StartTime     Timestamp  `json:"startTime"`
	EndTime       *Timestamp `json:"endTime,omitempty"`
	AccumulatedIU float64    `json:"accumulatedIu"`
	AverageUV     float64    `json:"averageUv"`
	PeakUV        float64    `json:"peakUv"`
	Lat           float64    `json:"lat"`
	Lon           float64    `json:"lon"`
	Active        bool       `json:"active"`
}

// SessionList is the response for GET /v1/exposure/sessions.
type SessionList struct {
	Items []Session         `json:"items"`
	Meta  PagedResponseMeta `json:"meta"`
}

// DailyTotal is one day's accumulated dose.
type DailyTotal struct {
	Date          string  `json:"date"`
	AccumulatedIU float64 `json:"accumulatedIu"`
}

// DailySummary is the response for GET /v1/exposure/days.
type DailySummary struct {
	Days             []DailyTotal `json:"days"`
	AdaptationFactor float64      `json:"adaptationFactor"`
}
