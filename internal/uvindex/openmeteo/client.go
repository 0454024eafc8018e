// Package openmeteo implements the UV data provider against the Open-Meteo
// forecast API.
package openmeteo

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/rs/zerolog"

	"github.com/sundose/sundose/internal/provider/resilience"
	"github.com/sundose/sundose/internal/uvindex"
)

const (
	// ProviderName identifies this UV provider.
	ProviderName = "open-meteo"

	// DefaultBaseURL is the Open-Meteo forecast API base URL.
	DefaultBaseURL = "https://api.open-meteo.com/v1/forecast"

	// hourLayout is the local-time layout Open-Meteo uses for hourly and
	// sunrise/sunset timestamps.
	hourLayout = "2006-01-02T15:04"

	// dateLayout is the layout for daily bucket dates.
	dateLayout = "2006-01-02"
)

// RequestMetrics records provider request outcomes. Satisfied by
// middleware.ProviderMetrics.
type RequestMetrics interface {
	RecordRequest(provider, operation string, duration time.Duration, err error)
}

// ClientConfig holds configuration for the Open-Meteo client.
type ClientConfig struct {
	// BaseURL is the API base URL (optional).
	BaseURL string

	// HTTPClient is the HTTP client to use (optional). If nil, uses a
	// resilient client with defaults.
	HTTPClient *resilience.Client

	// Metrics records request outcomes (optional).
	Metrics RequestMetrics

	// Logger for client operations.
	Logger zerolog.Logger
}

// Client is an Open-Meteo API client.
type Client struct {
	baseURL    string
	httpClient *resilience.Client
	metrics    RequestMetrics
	logger     zerolog.Logger
}

// NewClient creates a new Open-Meteo client.
func NewClient(cfg ClientConfig) *Client {
	baseURL := cfg.BaseURL
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}

	httpClient := cfg.HTTPClient
	if httpClient == nil {
		httpClient = resilience.NewClient(resilience.DefaultClientConfig(ProviderName))
	}

	return &Client{
		baseURL:    baseURL,
		httpClient: httpClient,
		metrics:    cfg.Metrics,
		logger:     cfg.Logger,
	}
}

// Name returns the provider name.
func (c *Client) Name() string {
	return ProviderName
}

// FetchDaily fetches the UV record for the location's local day at the given
// offset (0 = today, 1 = tomorrow). A single two-day forecast request covers
// both offsets; the requested day is sliced out of the response.
func (c *Client) FetchDaily(ctx context.Context, lat, lon float64, dayOffset int) (rec *uvindex.DailyUVRecord, err error) {
	if dayOffset < 0 || dayOffset > 1 {
		return nil, fmt.Errorf("day offset %d out of range", dayOffset)
	}

	if c.metrics != nil {
		start := time.Now()
		defer func() {
			c.metrics.RecordRequest(ProviderName, "fetch-daily", time.Since(start), err)
		}()
	}

	url := fmt.Sprintf(
		"%s?latitude=%.4f&longitude=%.4f&hourly=uv_index_clear_sky,cloud_cover&daily=sunrise,sunset,uv_index_max&timezone=auto&forecast_days=2",
		c.baseURL, lat, lon)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, http.NoBody)
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("executing request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("unexpected status code: %d", resp.StatusCode)
	}

	var omResp forecastResponse
	if err := json.NewDecoder(resp.Body).Decode(&omResp); err != nil {
		return nil, fmt.Errorf("decoding response: %w", err)
	}

	return c.toRecord(&omResp, lat, lon, dayOffset)
}

// toRecord slices one local day out of the two-day forecast response.
func (c *Client) toRecord(resp *forecastResponse, lat, lon float64, dayOffset int) (*uvindex.DailyUVRecord, error) {
	if dayOffset >= len(resp.Daily.Time) || dayOffset >= len(resp.Daily.Sunrise) ||
		dayOffset >= len(resp.Daily.Sunset) || dayOffset >= len(resp.Daily.UVIndexMax) {
		return nil, fmt.Errorf("response covers %d days, need offset %d", len(resp.Daily.Time), dayOffset)
	}

	zone := time.FixedZone(resp.Timezone, resp.UTCOffsetSeconds)

	date, err := time.ParseInLocation(dateLayout, resp.Daily.Time[dayOffset], zone)
	if err != nil {
		return nil, fmt.Errorf("parsing day date: %w", err)
	}

	sunrise, err := time.ParseInLocation(hourLayout, resp.Daily.Sunrise[dayOffset], zone)
	if err != nil {
		return nil, fmt.Errorf("parsing sunrise: %w", err)
	}

	sunset, err := time.ParseInLocation(hourLayout, resp.Daily.Sunset[dayOffset], zone)
	if err != nil {
		return nil, fmt.Errorf("parsing sunset: %w", err)
	}

	start := dayOffset * uvindex.HoursPerDay
	end := start + uvindex.HoursPerDay
	if len(resp.Hourly.UVIndexClearSky) < end || len(resp.Hourly.CloudCover) < end {
		return nil, fmt.Errorf("hourly arrays too short: uv=%d cloud=%d",
			len(resp.Hourly.UVIndexClearSky), len(resp.Hourly.CloudCover))
	}

	hourlyUV := make([]float64, uvindex.HoursPerDay)
	copy(hourlyUV, resp.Hourly.UVIndexClearSky[start:end])
	hourlyCloud := make([]float64, uvindex.HoursPerDay)
	copy(hourlyCloud, resp.Hourly.CloudCover[start:end])

	rec := &uvindex.DailyUVRecord{
		Lat:              lat,
		Lon:              lon,
		Date:             date,
		HourlyUV:         hourlyUV,
		HourlyCloudCover: hourlyCloud,
		MaxUV:            resp.Daily.UVIndexMax[dayOffset],
		Sunrise:          sunrise,
		Sunset:           sunset,
	}

	if err := rec.Validate(); err != nil {
		return nil, err
	}
	return rec, nil
}

// Open-Meteo API response structures.

type forecastResponse struct {
	Latitude         float64 `json:"latitude"`
	Longitude        float64 `json:"longitude"`
	Timezone         string  `json:"timezone"`
	UTCOffsetSeconds int     `json:"utc_offset_seconds"`
	Hourly           struct {
		Time            []string  `json:"time"`
		UVIndexClearSky []float64 `json:"uv_index_clear_sky"`
		CloudCover      []float64 `json:"cloud_cover"`
	} `json:"hourly"`
	Daily struct {
		Time       []string  `json:"time"`
		Sunrise    []string  `json:"sunrise"`
		Sunset     []string  `json:"sunset"`
		UVIndexMax []float64 `json:"uv_index_max"`
	} `json:"daily"`
}
