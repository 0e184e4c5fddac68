package planetary

import (
	"fmt"
	"math"
	"time"
)

// MarkerKind identifies which of the three markers of a seventh a
// PercentMarker is.
type MarkerKind string

const (
	MarkerSeventh     MarkerKind = "seventh"
	MarkerCoefficient MarkerKind = "coefficient"
	MarkerMidpoint    MarkerKind = "midpoint"
)

// ClockLayout renders marker and hour instants as local wall-clock time
const ClockLayout = "3:04:05 PM"

var seventhColors = [7]string{"violet", "indigo", "blue", "green", "yellow", "orange", "red"}

// PercentMarker is one labelled position inside a planetary hour.
type PercentMarker struct {
	Kind       MarkerKind `json:"kind"`
	Position   float64    `json:"position"`
	Time       time.Time  `json:"time"`
	Label      string     `json:"percent"`
	Clock      string     `json:"clock"`
	Style      string     `json:"style"`
	Calibrated string     `json:"calibrated,omitempty"`
}

// Subdivide returns the 21 markers of an hour: for each seventh i = 1..7, the
// seventh itself (i/7), the coefficient-shifted marker (i/7 - c/100, or
// i/14 - c/100 when useMidpointCoefficient) and the midpoint marker (i/14).
// Positions are not clamped.
func Subdivide(h HourBoundary, coefficientPercent float64, useMidpointCoefficient bool, loc *time.Location) []PercentMarker {
	if loc == nil {
		loc = time.UTC
	}
	c := coefficientPercent / 100

	markers := make([]PercentMarker, 0, 21)
	for i := 1; i <= 7; i++ {
		seventh := float64(i) / 7
		midpoint := float64(i) / 14
		coefficient := seventh - c
		if useMidpointCoefficient {
			coefficient = midpoint - c
		}

		style := fmt.Sprintf("text-%s-600", seventhColors[i-1])
		markers = append(markers,
			newMarker(h, MarkerSeventh, seventh, style+" text-right", loc),
			newMarker(h, MarkerCoefficient, coefficient, style+" italic", loc),
			newMarker(h, MarkerMidpoint, midpoint, style+" font-bold", loc),
		)
	}
	return markers
}

func newMarker(h HourBoundary, kind MarkerKind, position float64, style string, loc *time.Location) PercentMarker {
	t := h.At(position).In(loc)
	return PercentMarker{
		Kind:     kind,
		Position: position,
		Time:     t,
		Label:    FormatPercentLabel(position),
		Clock:    t.Format(ClockLayout),
		Style:    style,
	}
}

// FormatPercentLabel renders a fractional position as e.g. "14.29%"
func FormatPercentLabel(position float64) string {
	return fmt.Sprintf("%.2f%%", position*100)
}

// Calibrate returns a copy of markers whose Calibrated label is the marker
// position moved by the uniform offset of fit, clamped to [0,1].
func Calibrate(markers []PercentMarker, fit FitResult) []PercentMarker {
	out := make([]PercentMarker, len(markers))
	for i, m := range markers {
		m.Calibrated = FormatPercentLabel(clamp01(m.Position + fit.Delta))
		out[i] = m
	}
	return out
}

func clamp01(x float64) float64 {
	return math.Max(0, math.Min(1, x))
}
