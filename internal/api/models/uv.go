package models

// UVConditions is the response for GET /v1/uv/current.
type UVConditions struct {
	// UVIndex is the effective UV index at the requested location, with
	// cloud cover and altitude applied. Zero outside daylight.
	UVIndex float64 `json:"uvIndex"`

	// ClearSkyUVIndex is the forecast value before cloud attenuation.
	ClearSkyUVIndex float64 `json:"clearSkyUvIndex"`

	// CloudCoverPercent is total cloud cover at the nearest forecast hour.
	CloudCoverPercent float64 `json:"cloudCoverPercent"`

	// MaxUVIndex is the forecast daily maximum for the displayed day.
	MaxUVIndex float64 `json:"maxUvIndex"`

	Sunrise Timestamp `json:"sunrise"`
	Sunset  Timestamp `json:"sunset"`

	// DisplayDate is the local calendar day the display values describe.
	// After sunset this is tomorrow.
	DisplayDate     string `json:"displayDate"`
	DisplayTomorrow bool   `json:"displayTomorrow"`

	// BurnTimeMinutes estimates minutes to one MED for the caller's skin
	// type at the current UV. Null when UV is zero or the caller has no
	// stored profile.
	BurnTimeMinutes *int `json:"burnTimeMinutes,omitempty"`

	// OfflineMode is set when the values come from a stale cached record.
	OfflineMode bool `json:"offlineMode"`

	// LastUpdated is when the underlying record was fetched.
	LastUpdated Timestamp `json:"lastUpdated"`
}

// UVNoData is the response body when no usable record exists for the
// requested location.
type UVNoData struct {
	HasNoData bool `json:"hasNoData"`
}
