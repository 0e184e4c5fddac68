package planetary

import (
	"time"
)

func utc(y int, m time.Month, d, hh, mm, ss int) time.Time {
	return time.Date(y, m, d, hh, mm, ss, 0, time.UTC)
}

// equinoxTimes is a 12h/12h planetary day starting at 06:00 UTC.
func equinoxTimes() SunTimes {
	return SunTimes{
		Sunrise:     utc(2024, time.March, 20, 6, 0, 0),
		Sunset:      utc(2024, time.March, 20, 18, 0, 0),
		NextSunrise: utc(2024, time.March, 21, 6, 0, 0),
	}
}

// unevenTimes has spans that do not divide evenly into 12.
func unevenTimes() SunTimes {
	return SunTimes{
		Sunrise:     time.Date(2024, time.June, 21, 5, 12, 7, 333, time.UTC),
		Sunset:      time.Date(2024, time.June, 21, 20, 41, 59, 17, time.UTC),
		NextSunrise: time.Date(2024, time.June, 22, 5, 12, 31, 999, time.UTC),
	}
}

// fixedSun returns the same SunTimes for each configuration, shifted by the
// configuration's longitude in minutes.
type fixedSun struct {
	base SunTimes
}

func (f fixedSun) SunTimes(_ time.Time, cfg GeoElevationConfig) (SunTimes, error) {
	shift := time.Duration(cfg.Longitude * float64(time.Minute))
	return SunTimes{
		Sunrise:     f.base.Sunrise.Add(shift),
		Sunset:      f.base.Sunset.Add(shift),
		NextSunrise: f.base.NextSunrise.Add(shift),
	}, nil
}
