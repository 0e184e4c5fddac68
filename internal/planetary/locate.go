package planetary

import (
	"errors"
	"fmt"
	"math"
	"strconv"
	"time"
)

// NotApplicable is reported when a queried instant is outside the requested
// day or night.
const NotApplicable = "N/A"

// ErrBadClock is returned for clock strings that are not HH:MM or HH:MM:SS.
var ErrBadClock = errors.New("invalid clock time")

// Locate finds the hour of the day (isDay) or night half of p containing t and
// returns t's fractional position in it. ok is false when t falls outside the
// half.
func Locate(t time.Time, isDay bool, p Partition) (position float64, hourIndex int, ok bool) {
	hours := p.Half(isDay)
	base := hours[0].Start
	span := hours[HoursPerHalf-1].End.Sub(base)
	if span <= 0 {
		return 0, -1, false
	}

	perHour := float64(span) / HoursPerHalf
	idx := int(math.Floor(float64(t.Sub(base)) / perHour))
	if idx < 0 || idx >= HoursPerHalf {
		return 0, -1, false
	}

	// Boundaries are whole nanoseconds, so float division can land one hour off
	if idx > 0 && t.Before(hours[idx].Start) {
		idx--
	} else if idx < HoursPerHalf-1 && !t.Before(hours[idx].End) {
		idx++
	}
	if !hours[idx].Contains(t) {
		return 0, -1, false
	}
	return hours[idx].Position(t), idx, true
}

// FormatPercent renders a located position as a percentage with two decimals,
// or NotApplicable.
func FormatPercent(position float64, ok bool) string {
	if !ok {
		return NotApplicable
	}
	return strconv.FormatFloat(position*100, 'f', 2, 64)
}

// ResolveClock places a wall-clock time (HH:MM or HH:MM:SS) on day's date in
// day's location. A night query at or before the wall-clock time of the next
// sunrise belongs to the early morning of the following date.
func ResolveClock(day time.Time, clock string, isDay bool, st SunTimes) (time.Time, error) {
	c, err := parseClock(clock)
	if err != nil {
		return time.Time{}, err
	}
	loc := day.Location()
	y, m, d := day.Date()
	t := time.Date(y, m, d, c.Hour(), c.Minute(), c.Second(), 0, loc)

	if !isDay {
		ns := st.NextSunrise.In(loc)
		cutoff := time.Date(y, m, d, ns.Hour(), ns.Minute(), ns.Second(), ns.Nanosecond(), loc)
		if !t.After(cutoff) {
			t = t.AddDate(0, 0, 1)
		}
	}
	return t, nil
}

func parseClock(clock string) (time.Time, error) {
	for _, layout := range []string{time.TimeOnly, "15:04"} {
		if c, err := time.Parse(layout, clock); err == nil {
			return c, nil
		}
	}
	return time.Time{}, fmt.Errorf("%w: %q", ErrBadClock, clock)
}
