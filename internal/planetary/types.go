// Package planetary implements the planetary hour engine: day/night
// partitioning, seventh-based percent markers, current-percent lookup and the
// equivalent-percent calibration between two hour schemes.
package planetary

import (
	"time"
)

// HoursPerHalf is the number of planetary hours in a day or a night
const HoursPerHalf = 12

// GeoElevationConfig is an observer position.
type GeoElevationConfig struct {
	Latitude        float64 `json:"latitude"`
	Longitude       float64 `json:"longitude"`
	ElevationMeters float64 `json:"elevation_meters"`
}

// SunTimes holds the three instants that bound a planetary day.
// Sunrise < Sunset < NextSunrise.
type SunTimes struct {
	Sunrise     time.Time `json:"sunrise"`
	Sunset      time.Time `json:"sunset"`
	NextSunrise time.Time `json:"next_sunrise"`
}

// In returns a copy with every instant expressed in loc.
func (st SunTimes) In(loc *time.Location) SunTimes {
	return SunTimes{
		Sunrise:     st.Sunrise.In(loc),
		Sunset:      st.Sunset.In(loc),
		NextSunrise: st.NextSunrise.In(loc),
	}
}

// HourBoundary is a half-open interval [Start, End).
type HourBoundary struct {
	Start time.Time `json:"start"`
	End   time.Time `json:"end"`
}

// Duration returns End - Start
func (h HourBoundary) Duration() time.Duration {
	return h.End.Sub(h.Start)
}

// At returns the instant at fractional position p of the hour. p is not clamped.
func (h HourBoundary) At(p float64) time.Time {
	return h.Start.Add(time.Duration(float64(h.Duration()) * p))
}

// Position returns the fractional position of t within the hour. The result
// is not clamped.
func (h HourBoundary) Position(t time.Time) float64 {
	return float64(t.Sub(h.Start)) / float64(h.Duration())
}

// Contains reports whether t lies in [Start, End)
func (h HourBoundary) Contains(t time.Time) bool {
	return !t.Before(h.Start) && t.Before(h.End)
}

// Partition is the 24-hour division of one planetary day.
type Partition struct {
	Day   [HoursPerHalf]HourBoundary `json:"day"`
	Night [HoursPerHalf]HourBoundary `json:"night"`
}

// Half returns the day or the night hours
func (p Partition) Half(isDay bool) [HoursPerHalf]HourBoundary {
	if isDay {
		return p.Day
	}
	return p.Night
}

// PlanetaryHour is an hour boundary with its name and ruler attached.
type PlanetaryHour struct {
	Index int    `json:"index"`
	IsDay bool   `json:"is_day"`
	Name  string `json:"name"`
	Ruler string `json:"ruler"`
	HourBoundary
}

var ordinals = [HoursPerHalf]string{
	"First", "Second", "Third", "Fourth", "Fifth", "Sixth",
	"Seventh", "Eighth", "Ninth", "Tenth", "Eleventh", "Twelfth",
}

// HourName returns the display name of the zero-based hour index, e.g. "Third Hour".
func HourName(index int) string {
	if index < 0 || index >= HoursPerHalf {
		return ""
	}
	return ordinals[index] + " Hour"
}
