package openmeteo_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sundose/sundose/internal/provider/resilience"
	"github.com/sundose/sundose/internal/uvindex/openmeteo"
)

// forecastFixture builds a two-day response with a daylight UV arc peaking
// at midday.
func forecastFixture() map[string]interface{} {
	hourly := make([]float64, 48)
	cloud := make([]float64, 48)
	times := make([]string, 48)
	for i := range hourly {
		hour := i % 24
		if hour >= 7 && hour <= 19 {
			hourly[i] = 6.0
		}
		cloud[i] = 25.0
		day := "2026-08-29"
		if i >= 24 {
			day = "2026-08-30"
		}
		times[i] = day + "T00:00"
	}
	hourly[12] = 7.5 // midday peak

	return map[string]interface{}{
		"latitude":           41.39,
		"longitude":          2.17,
		"timezone":           "Europe/Madrid",
		"utc_offset_seconds": 7200,
		"hourly": map[string]interface{}{
			"time":               times,
			"uv_index_clear_sky": hourly,
			"cloud_cover":        cloud,
		},
		"daily": map[string]interface{}{
			"time":         []string{"2026-08-29", "2026-08-30"},
			"sunrise":      []string{"2026-08-29T07:12", "2026-08-30T07:13"},
			"sunset":       []string{"2026-08-29T20:31", "2026-08-30T20:29"},
			"uv_index_max": []float64{7.5, 7.2},
		},
	}
}

func newTestClient(t *testing.T, handler http.HandlerFunc) (*openmeteo.Client, *httptest.Server) {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)

	client := openmeteo.NewClient(openmeteo.ClientConfig{
		BaseURL:    server.URL,
		HTTPClient: resilience.NewClient(resilience.DefaultClientConfig("test-openmeteo")),
	})
	return client, server
}

func TestClient_FetchDaily_Today(t *testing.T) {
	client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Contains(t, r.URL.Query().Get("latitude"), "41.39")
		assert.Contains(t, r.URL.Query().Get("longitude"), "2.17")
		assert.Equal(t, "uv_index_clear_sky,cloud_cover", r.URL.Query().Get("hourly"))
		assert.Equal(t, "sunrise,sunset,uv_index_max", r.URL.Query().Get("daily"))
		assert.Equal(t, "2", r.URL.Query().Get("forecast_days"))

		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(forecastFixture())
	})

	rec, err := client.FetchDaily(context.Background(), 41.39, 2.17, 0)
	require.NoError(t, err)
	require.NotNil(t, rec)

	assert.Equal(t, 41.39, rec.Lat)
	assert.Equal(t, 2.17, rec.Lon)
	assert.Len(t, rec.HourlyUV, 24)
	assert.Len(t, rec.HourlyCloudCover, 24)
	assert.Equal(t, 7.5, rec.HourlyUV[12])
	assert.Equal(t, 25.0, rec.HourlyCloudCover[12])
	assert.Equal(t, 7.5, rec.MaxUV)
	assert.Equal(t, 7, rec.Sunrise.Hour())
	assert.Equal(t, 12, rec.Sunrise.Minute())
	assert.Equal(t, 20, rec.Sunset.Hour())

	// Local midnight in the response zone.
	assert.Equal(t, 2026, rec.Date.Year())
	assert.Equal(t, time.August, rec.Date.Month())
	assert.Equal(t, 29, rec.Date.Day())
}

func TestClient_FetchDaily_Tomorrow(t *testing.T) {
	client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(forecastFixture())
	})

	rec, err := client.FetchDaily(context.Background(), 41.39, 2.17, 1)
	require.NoError(t, err)

	// Tomorrow's slice has no midday spike and its own daily values.
	assert.Equal(t, 6.0, rec.HourlyUV[12])
	assert.Equal(t, 7.2, rec.MaxUV)
	assert.Equal(t, 30, rec.Date.Day())
}

func TestClient_FetchDaily_OffsetOutOfRange(t *testing.T) {
	client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		t.Fatal("should not reach the server")
	})

	_, err := client.FetchDaily(context.Background(), 41.39, 2.17, 2)
	require.Error(t, err)

	_, err = client.FetchDaily(context.Background(), 41.39, 2.17, -1)
	require.Error(t, err)
}

func TestClient_FetchDaily_ServerError(t *testing.T) {
	client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	})

	_, err := client.FetchDaily(context.Background(), 41.39, 2.17, 0)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unexpected status code")
}

func TestClient_FetchDaily_ShortHourlyArrays(t *testing.T) {
	client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		fixture := forecastFixture()
		fixture["hourly"] = map[string]interface{}{
			"time":               []string{"2026-08-29T00:00"},
			"uv_index_clear_sky": []float64{1.0},
			"cloud_cover":        []float64{10.0},
		}
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(fixture)
	})

	_, err := client.FetchDaily(context.Background(), 41.39, 2.17, 0)
	require.Error(t, err)
}

func TestClient_Name(t *testing.T) {
	client := openmeteo.NewClient(openmeteo.ClientConfig{})
	assert.Equal(t, "open-meteo", client.Name())
}
