// Package worker provides background job processing for Sundose.
package worker

import (
	"time"
)

// RefreshTarget represents a geographic region whose UV records are kept warm.
type RefreshTarget struct {
	// Name is the human-readable name of the target.
	Name string

	// Points are the lat/lon coordinates to refresh. Typically city
	// centers and beach areas with many active users.
	Points []Point

	// Priority determines refresh order (lower = higher priority).
	Priority int
}

// Point represents a geographic coordinate.
type Point struct {
	Lat float64
	Lon float64
}

// RefreshConfig holds configuration for the UV refresh job.
type RefreshConfig struct {
	// Targets are the geographic regions to refresh.
	// If empty, uses DefaultRefreshTargets.
	Targets []RefreshTarget

	// Concurrency is the number of concurrent refresh operations.
	// Default: 3
	Concurrency int

	// Timeout is the timeout for each refresh operation.
	// Default: 30 seconds
	Timeout time.Duration

	// IncludeTomorrow also warms tomorrow's records so the evening
	// display values never wait on a fetch.
	// Default: true
	IncludeTomorrow bool
}

// DefaultRefreshConfig returns the default refresh configuration.
func DefaultRefreshConfig() RefreshConfig {
	return RefreshConfig{
		Targets:         DefaultRefreshTargets(),
		Concurrency:     3,
		Timeout:         30 * time.Second,
		IncludeTomorrow: true,
	}
}

// DefaultRefreshTargets returns the default refresh targets: the home
// market plus the sun destinations that dominate session volume.
func DefaultRefreshTargets() []RefreshTarget {
	return []RefreshTarget{
		{
			Name:     "Amsterdam",
			Priority: 1,
			Points: []Point{
				{Lat: 52.3676, Lon: 4.9041}, // Amsterdam Centrum
				{Lat: 52.3130, Lon: 4.5547}, // Zandvoort beach
				{Lat: 52.1024, Lon: 4.2828}, // Scheveningen beach
			},
		},
		{
			Name:     "Barcelona",
			Priority: 1,
			Points: []Point{
				{Lat: 41.3874, Lon: 2.1686}, // Barcelona
				{Lat: 41.2705, Lon: 1.9928}, // Castelldefels beach
			},
		},
		{
			Name:     "Lisbon",
			Priority: 1,
			Points: []Point{
				{Lat: 38.7223, Lon: -9.1393}, // Lisbon
				{Lat: 38.6979, Lon: -9.4215}, // Cascais
			},
		},
		{
			Name:     "Canary Islands",
			Priority: 2,
			Points: []Point{
				{Lat: 28.1235, Lon: -15.4363}, // Las Palmas
				{Lat: 28.0997, Lon: -16.6810}, // Costa Adeje, Tenerife
			},
		},
		{
			Name:     "Mallorca",
			Priority: 2,
			Points: []Point{
				{Lat: 39.5696, Lon: 2.6502}, // Palma
			},
		},
		{
			Name:     "Alps",
			Priority: 2,
			Points: []Point{
				{Lat: 46.4908, Lon: 9.8355}, // St. Moritz
				{Lat: 45.9237, Lon: 6.8694}, // Chamonix
			},
		},
		{
			Name:     "Athens",
			Priority: 3,
			Points: []Point{
				{Lat: 37.9838, Lon: 23.7275}, // Athens
			},
		},
		{
			Name:     "Nice",
			Priority: 3,
			Points: []Point{
				{Lat: 43.7102, Lon: 7.2620}, // Nice
			},
		},
	}
}

// AllPoints returns all points from all targets, ordered by priority.
func (c RefreshConfig) AllPoints() []Point {
	var points []Point
	for _, target := range c.Targets {
		points = append(points, target.Points...)
	}
	return points
}

// TotalPoints returns the total number of points to refresh.
func (c RefreshConfig) TotalPoints() int {
	total := 0
	for _, target := range c.Targets {
		total += len(target.Points)
	}
	return total
}
