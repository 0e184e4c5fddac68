package planetary

import (
	"context"
	"fmt"
	"time"
)

// RulerSequence is the repeating order in which planets rule successive hours.
type RulerSequence []string

// DefaultSequence is the classical order of hour rulers starting with the Sun.
var DefaultSequence = RulerSequence{"Sun", "Venus", "Mercury", "Moon", "Saturn", "Jupiter", "Mars"}

// At returns the ruler of the n-th hour counted continuously from the first
// hour of a Sunday.
func (s RulerSequence) At(n int) string {
	if len(s) == 0 {
		return ""
	}
	m := n % len(s)
	if m < 0 {
		m += len(s)
	}
	return s[m]
}

// HourRulers names the ruler of each day and night hour of one date.
type HourRulers struct {
	Day   [HoursPerHalf]string `json:"day"`
	Night [HoursPerHalf]string `json:"night"`
}

// RulerSource supplies hour rulers for a date at a location.
type RulerSource interface {
	HourRulers(ctx context.Context, date string, latitude, longitude float64) (HourRulers, error)
}

// SequenceSource derives rulers locally by running Sequence continuously
// through the week. The first day hour of a weekday w is hour 24*w.
type SequenceSource struct {
	Sequence RulerSequence
}

// HourRulers implements RulerSource
func (s SequenceSource) HourRulers(_ context.Context, date string, _, _ float64) (HourRulers, error) {
	d, err := time.Parse(time.DateOnly, date)
	if err != nil {
		return HourRulers{}, fmt.Errorf("invalid date %q: %w", date, err)
	}
	seq := s.Sequence
	if len(seq) == 0 {
		seq = DefaultSequence
	}

	var r HourRulers
	first := int(d.Weekday()) * 2 * HoursPerHalf
	for i := 0; i < HoursPerHalf; i++ {
		r.Day[i] = seq.At(first + i)
		r.Night[i] = seq.At(first + HoursPerHalf + i)
	}
	return r, nil
}

// AssignRulers builds the 24 named hours of p, day hours first.
func AssignRulers(p Partition, r HourRulers) []PlanetaryHour {
	hours := make([]PlanetaryHour, 0, 2*HoursPerHalf)
	for i, b := range p.Day {
		hours = append(hours, PlanetaryHour{Index: i, IsDay: true, Name: HourName(i), Ruler: r.Day[i], HourBoundary: b})
	}
	for i, b := range p.Night {
		hours = append(hours, PlanetaryHour{Index: i, IsDay: false, Name: HourName(i), Ruler: r.Night[i], HourBoundary: b})
	}
	return hours
}
