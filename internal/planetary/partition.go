package planetary

import (
	"time"
)

// PartitionHours divides [Sunrise, Sunset) and [Sunset, NextSunrise) into 12
// equal hours each. Adjacent hours share their boundary instant exactly and
// the last hour of each half ends on the half's end instant.
func PartitionHours(st SunTimes) Partition {
	return Partition{
		Day:   tile(st.Sunrise, st.Sunset),
		Night: tile(st.Sunset, st.NextSunrise),
	}
}

func tile(start, end time.Time) [HoursPerHalf]HourBoundary {
	var hours [HoursPerHalf]HourBoundary
	span := int64(end.Sub(start))
	edge := func(k int) time.Time {
		if k == HoursPerHalf {
			return end
		}
		return start.Add(time.Duration(span * int64(k) / HoursPerHalf))
	}
	for i := range hours {
		hours[i] = HourBoundary{Start: edge(i), End: edge(i + 1)}
	}
	return hours
}

// Shift returns a copy of p with every hour moved by offsetPercent of its own
// duration. Durations are unchanged.
func (p Partition) Shift(offsetPercent float64) Partition {
	var out Partition
	for i := range p.Day {
		out.Day[i] = shiftHour(p.Day[i], offsetPercent)
		out.Night[i] = shiftHour(p.Night[i], offsetPercent)
	}
	return out
}

func shiftHour(h HourBoundary, offsetPercent float64) HourBoundary {
	d := time.Duration(float64(h.Duration()) * offsetPercent / 100)
	return HourBoundary{Start: h.Start.Add(d), End: h.End.Add(d)}
}

// HoursFromNowOnward drops hours that ended strictly before now.
func HoursFromNowOnward(hours []PlanetaryHour, now time.Time) []PlanetaryHour {
	out := make([]PlanetaryHour, 0, len(hours))
	for _, h := range hours {
		if h.End.Before(now) {
			continue
		}
		out = append(out, h)
	}
	return out
}
