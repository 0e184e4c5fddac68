// Package solar computes sunrise and sunset instants and the horizon dip
// correction for an elevated observer.
package solar

import (
	"errors"
	"math"
	"time"

	"github.com/nathan-osman/go-sunrise"
	"github.com/soniakeys/meeus/v3/julian"
	msolar "github.com/soniakeys/meeus/v3/solar"
)

// Standard altitude of the Sun's center at rise/set: refraction plus semi-diameter
const horizonAltitude = -0.833

// Seconds of time per arc-minute of horizon dip
const secondsPerDipArcMinute = 4.0

var (
	// ErrPolarDay is returned when the Sun stays above the horizon all day.
	ErrPolarDay = errors.New("sun does not set on this date at this latitude")
	// ErrPolarNight is returned when the Sun stays below the horizon all day.
	ErrPolarNight = errors.New("sun does not rise on this date at this latitude")

	errNoEvent = errors.New("no sunrise/sunset event found")
)

// Calculator returns sea-level sunrise and sunset for the civil date of date.
type Calculator interface {
	RiseSet(date time.Time, latitude, longitude float64) (rise, set time.Time, err error)
}

// New returns the calculator registered under name. Unknown names fall back
// to the meeus implementation.
func New(name string) Calculator {
	switch name {
	case "sunrise", "go-sunrise":
		return SunriseCalculator{}
	default:
		return MeeusCalculator{}
	}
}

// MeeusCalculator uses the declination + hour angle method. The Sun's
// apparent declination comes from meeus; the event time is refined by
// re-evaluating declination and equation of time at the previous estimate.
type MeeusCalculator struct{}

// RiseSet implements Calculator.
func (MeeusCalculator) RiseSet(date time.Time, latitude, longitude float64) (time.Time, time.Time, error) {
	y, m, d := date.Date()
	midnight := time.Date(y, m, d, 0, 0, 0, 0, time.UTC)

	rise, err := refineEvent(midnight, latitude, longitude, -1)
	if err != nil {
		return time.Time{}, time.Time{}, err
	}
	set, err := refineEvent(midnight, latitude, longitude, 1)
	if err != nil {
		return time.Time{}, time.Time{}, err
	}
	return rise, set, nil
}

// refineEvent iterates toward sunrise (sign -1) or sunset (sign +1)
func refineEvent(midnight time.Time, latitude, longitude, sign float64) (time.Time, error) {
	// First guess: mean solar noon
	t := midnight.Add(minutes(720 - 4*longitude))

	for i := 0; i < 3; i++ {
		cosH, err := cosHourAngle(t, latitude)
		if err != nil {
			return time.Time{}, err
		}
		hourAngleMinutes := radToDeg(math.Acos(cosH)) * 4 // 15 degrees per hour

		solarNoon := 720 - 4*longitude - equationOfTime(t)
		t = midnight.Add(minutes(solarNoon + sign*hourAngleMinutes))
	}
	return t, nil
}

// cosHourAngle returns cos(H0) for the standard horizon at instant t
func cosHourAngle(t time.Time, latitude float64) (float64, error) {
	_, dec := msolar.ApparentEquatorial(julian.TimeToJD(t.UTC()))

	latRad := degToRad(latitude)
	cosH := (math.Sin(degToRad(horizonAltitude)) - math.Sin(latRad)*math.Sin(dec.Rad())) /
		(math.Cos(latRad) * math.Cos(dec.Rad()))

	switch {
	case cosH < -1.0:
		return 0, ErrPolarDay
	case cosH > 1.0:
		return 0, ErrPolarNight
	}
	return cosH, nil
}

// SunriseCalculator delegates to github.com/nathan-osman/go-sunrise.
type SunriseCalculator struct{}

// RiseSet implements Calculator.
func (SunriseCalculator) RiseSet(date time.Time, latitude, longitude float64) (time.Time, time.Time, error) {
	y, m, d := date.Date()
	rise, set := sunrise.SunriseSunset(latitude, longitude, y, m, d)
	if rise.IsZero() || set.IsZero() {
		// go-sunrise does not say which polar case it hit
		noon := time.Date(y, m, d, 12, 0, 0, 0, time.UTC).Add(minutes(-4 * longitude))
		if _, err := cosHourAngle(noon, latitude); err != nil {
			return time.Time{}, time.Time{}, err
		}
		return time.Time{}, time.Time{}, errNoEvent
	}
	return rise, set, nil
}

// DipArcMinutes returns the dip of the apparent horizon, in arc-minutes,
// for an observer heightMeters above the surrounding terrain.
func DipArcMinutes(heightMeters float64) float64 {
	if heightMeters <= 0 || math.IsNaN(heightMeters) || math.IsInf(heightMeters, 0) {
		return 0
	}
	return 1.76 * math.Sqrt(heightMeters)
}

// DipShift converts the horizon dip for heightMeters into a time offset.
// Sunrise moves earlier and sunset later by this amount.
func DipShift(heightMeters float64) time.Duration {
	return time.Duration(DipArcMinutes(heightMeters) * secondsPerDipArcMinute * float64(time.Second))
}
