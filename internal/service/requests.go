package service

import (
	"time"

	"github.com/chrissnell/planetaryhours/internal/planetary"
	"github.com/chrissnell/planetaryhours/pkg/lunar"
)

// Location selects an observer. Nil coordinates fall back to the configured
// location. Elevation is only applied when UseElevation is set; Elevation
// overrides the lookup.
type Location struct {
	Latitude     *float64 `json:"lat" validate:"omitempty,gte=-90,lte=90"`
	Longitude    *float64 `json:"lon" validate:"omitempty,gte=-180,lte=180"`
	UseElevation bool     `json:"use_elevation"`
	Elevation    *float64 `json:"elevation" validate:"omitempty,gte=-500,lte=9000"`
}

// HoursRequest parameterises GetPlanetaryHours.
type HoursRequest struct {
	Location
	Coefficient            float64   `json:"coefficient" validate:"gte=-100,lte=100"`
	UseMidpointCoefficient bool      `json:"midpoint"`
	OffsetPercent          *float64  `json:"offset" validate:"omitempty,gte=-100,lte=100"`
	UseOffset              *bool     `json:"use_offset"`
	TZOffsetMinutes        *int      `json:"tz_offset" validate:"omitempty,gte=-840,lte=840"`
	Calibrate              bool      `json:"calibrate"`
	Anchors                []float64 `json:"anchors" validate:"omitempty,dive,gte=0,lte=1"`
}

// HourView is one planetary hour with its markers.
type HourView struct {
	planetary.PlanetaryHour
	StartClock string                    `json:"start_clock"`
	EndClock   string                    `json:"end_clock"`
	Markers    []planetary.PercentMarker `json:"markers"`
}

// HoursResponse lists the hours of today and tonight that have not ended yet.
type HoursResponse struct {
	Date            string                       `json:"date"`
	TZOffsetMinutes int                          `json:"tz_offset"`
	Location        planetary.GeoElevationConfig `json:"location"`
	SunTimes        planetary.SunTimes           `json:"sun_times"`
	OffsetPercent   float64                      `json:"offset_percent"`
	Moon            lunar.MoonPhase              `json:"moon"`
	Calibration     *planetary.BestFit           `json:"calibration,omitempty"`
	Hours           []HourView                   `json:"hours"`
}

// PercentRequest parameterises GetCurrentPercentage. An empty Time means now.
type PercentRequest struct {
	Location
	Time            string `json:"time"`
	IsDay           bool   `json:"is_day"`
	TZOffsetMinutes *int   `json:"tz_offset" validate:"omitempty,gte=-840,lte=840"`
}

// PercentResponse reports where an instant falls in its planetary hour.
// Percentage is planetary.NotApplicable when the instant is outside the
// requested half.
type PercentResponse struct {
	Date       string    `json:"date"`
	Time       time.Time `json:"time"`
	IsDay      bool      `json:"is_day"`
	Percentage string    `json:"percentage"`
	HourIndex  *int      `json:"hour_index,omitempty"`
	HourName   string    `json:"hour_name,omitempty"`
	Ruler      string    `json:"ruler,omitempty"`
}

// EquivalentRequest maps sea-level hours at a location to its
// elevation-corrected hours.
type EquivalentRequest struct {
	Location
	Anchors         []float64 `json:"anchors" validate:"omitempty,dive,gte=0,lte=1"`
	TZOffsetMinutes *int      `json:"tz_offset" validate:"omitempty,gte=-840,lte=840"`
}

// Endpoint is one side of a location-to-location mapping. A nil Elevation is
// looked up.
type Endpoint struct {
	Latitude  float64  `json:"lat" validate:"gte=-90,lte=90"`
	Longitude float64  `json:"lon" validate:"gte=-180,lte=180"`
	Elevation *float64 `json:"elevation" validate:"omitempty,gte=-500,lte=9000"`
}

// BetweenRequest maps the hours of one location onto another's.
type BetweenRequest struct {
	Old             Endpoint  `json:"old"`
	New             Endpoint  `json:"new"`
	Anchors         []float64 `json:"anchors" validate:"omitempty,dive,gte=0,lte=1"`
	TZOffsetMinutes *int      `json:"tz_offset" validate:"omitempty,gte=-840,lte=840"`
}
