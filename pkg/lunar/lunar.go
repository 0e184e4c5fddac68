// Package lunar estimates the Moon's phase from the ecliptic longitudes of
// the Sun and Moon. Accuracy is within ~1% illumination, which is plenty for
// labelling a night of planetary hours.
package lunar

import (
	"math"
	"time"

	"github.com/soniakeys/meeus/v3/julian"
)

// SynodicMonth is the average length of the lunar cycle in days
const SynodicMonth = 29.530588853

// MoonPhase describes the Moon at one instant
type MoonPhase struct {
	Phase        float64 `json:"phase"`        // [0,1): 0=new, 0.5=full
	Illumination float64 `json:"illumination"` // illuminated fraction [0,1]
	AgeDays      float64 `json:"age_days"`     // days since new moon
	IsWaxing     bool    `json:"is_waxing"`
	PhaseName    string  `json:"phase_name"`
}

// Calculate computes the moon phase for an instant
func Calculate(t time.Time) MoonPhase {
	T := (julian.TimeToJD(t.UTC()) - 2451545.0) / 36525.0

	elongation := normalizeAngle(moonEclipticLongitude(T) - sunEclipticLongitude(T))
	phase := elongation / 360.0
	illumination := (1 - math.Cos(degToRad(elongation))) / 2
	isWaxing := elongation < 180

	return MoonPhase{
		Phase:        phase,
		Illumination: illumination,
		AgeDays:      phase * SynodicMonth,
		IsWaxing:     isWaxing,
		PhaseName:    phaseName(illumination, isWaxing),
	}
}

// phaseName returns the 8-phase name based on illumination and direction
func phaseName(illumination float64, isWaxing bool) string {
	switch {
	case illumination < 0.01:
		return "New Moon"
	case illumination > 0.99:
		return "Full Moon"
	case illumination >= 0.49 && illumination <= 0.51:
		if isWaxing {
			return "First Quarter"
		}
		return "Third Quarter"
	case illumination < 0.50:
		if isWaxing {
			return "Waxing Crescent"
		}
		return "Waning Crescent"
	default:
		if isWaxing {
			return "Waxing Gibbous"
		}
		return "Waning Gibbous"
	}
}

// normalizeAngle wraps an angle to the range [0, 360)
func normalizeAngle(angle float64) float64 {
	angle = math.Mod(angle, 360)
	if angle < 0 {
		angle += 360
	}
	return angle
}

func degToRad(deg float64) float64 {
	return deg * math.Pi / 180.0
}

// sunEclipticLongitude computes the Sun's ecliptic longitude in degrees
func sunEclipticLongitude(T float64) float64 {
	L0 := 280.46646 + 36000.76983*T + 0.0003032*T*T
	M := degToRad(normalizeAngle(357.52911 + 35999.05029*T - 0.0001537*T*T))

	// Equation of center
	C := (1.914602-0.004817*T-0.000014*T*T)*math.Sin(M) +
		(0.019993-0.000101*T)*math.Sin(2*M) +
		0.000289*math.Sin(3*M)

	return normalizeAngle(L0 + C)
}

// moonEclipticLongitude computes the Moon's ecliptic longitude in degrees
// from the dominant periodic terms
func moonEclipticLongitude(T float64) float64 {
	L := 218.3164477 + 481267.88123421*T - 0.0015786*T*T + T*T*T/538841 - T*T*T*T/65194000
	D := degToRad(normalizeAngle(297.8501921 + 445267.1114034*T - 0.0018819*T*T + T*T*T/545868 - T*T*T*T/113065000))
	Mp := degToRad(normalizeAngle(134.9633964 + 477198.8675055*T + 0.0087414*T*T + T*T*T/69699 - T*T*T*T/14712000))

	return normalizeAngle(L +
		6.289*math.Sin(Mp) +
		1.274*math.Sin(2*D-Mp) +
		0.658*math.Sin(2*D) +
		0.214*math.Sin(2*Mp) +
		0.110*math.Sin(D))
}
