package planetary

import (
	"fmt"
	"time"

	"github.com/chrissnell/planetaryhours/pkg/solar"
)

// SunTimesSource produces the sunrise/sunset/next-sunrise triple for the
// civil date of day at an observer position.
type SunTimesSource interface {
	SunTimes(day time.Time, cfg GeoElevationConfig) (SunTimes, error)
}

// Astronomical computes SunTimes directly from the solar position.
type Astronomical struct {
	Calc solar.Calculator
}

// SunTimes implements SunTimesSource
func (a Astronomical) SunTimes(day time.Time, cfg GeoElevationConfig) (SunTimes, error) {
	calc := a.Calc
	if calc == nil {
		calc = solar.MeeusCalculator{}
	}
	return ComputeSunTimes(calc, day, cfg.Latitude, cfg.Longitude, cfg.ElevationMeters)
}

// ComputeSunTimes evaluates sunrise and sunset for the civil date of day and
// sunrise for the following date. The horizon dip for heightMeters moves both
// sunrises earlier and the sunset later. The result is expressed in day's
// location.
func ComputeSunTimes(calc solar.Calculator, day time.Time, latitude, longitude, heightMeters float64) (SunTimes, error) {
	y, m, d := day.Date()
	noon := time.Date(y, m, d, 12, 0, 0, 0, day.Location())
	nextNoon := noon.AddDate(0, 0, 1)

	rise, set, err := calc.RiseSet(noon, latitude, longitude)
	if err != nil {
		return SunTimes{}, fmt.Errorf("sun times for %s: %w", noon.Format(time.DateOnly), err)
	}
	nextRise, _, err := calc.RiseSet(nextNoon, latitude, longitude)
	if err != nil {
		return SunTimes{}, fmt.Errorf("sun times for %s: %w", nextNoon.Format(time.DateOnly), err)
	}

	shift := solar.DipShift(heightMeters)
	st := SunTimes{
		Sunrise:     rise.Add(-shift),
		Sunset:      set.Add(shift),
		NextSunrise: nextRise.Add(-shift),
	}
	for !st.NextSunrise.After(st.Sunset) {
		st.NextSunrise = st.NextSunrise.AddDate(0, 0, 1)
	}
	return st.In(day.Location()), nil
}

// FixedZone returns a zone offsetMinutes east of UTC. Zero yields time.UTC.
func FixedZone(offsetMinutes int) *time.Location {
	if offsetMinutes == 0 {
		return time.UTC
	}
	sign := '+'
	abs := offsetMinutes
	if abs < 0 {
		sign = '-'
		abs = -abs
	}
	return time.FixedZone(fmt.Sprintf("UTC%c%02d:%02d", sign, abs/60, abs%60), offsetMinutes*60)
}

// Today returns the civil date, formatted YYYY-MM-DD, of now in the zone
// tzOffsetMinutes east of UTC.
func Today(now time.Time, tzOffsetMinutes int) string {
	return now.In(FixedZone(tzOffsetMinutes)).Format(time.DateOnly)
}

// ParseDate parses a YYYY-MM-DD string as midnight in loc
func ParseDate(date string, loc *time.Location) (time.Time, error) {
	t, err := time.ParseInLocation(time.DateOnly, date, loc)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid date %q: %w", date, err)
	}
	return t, nil
}
