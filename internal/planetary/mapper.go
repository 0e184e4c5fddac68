package planetary

import (
	"fmt"
	"time"
)

// DefaultAnchors are the marker positions used when a caller supplies none:
// the sevenths, their midpoints and the 1.5% coefficient markers.
var DefaultAnchors = []float64{
	0.00, 0.015, 0.0714, 0.1429, 0.1579, 0.2143, 0.2857, 0.3007,
	0.3571, 0.4286, 0.4436, 0.5, 0.5714, 0.5864, 0.6429, 0.7143,
	0.7293, 0.7857, 0.8571, 0.8721, 0.9286,
}

// AnchorSample is one anchor of an old hour re-expressed in the new scheme.
// PNew is the clamped position of Time in the new hour containing it.
// Aligned is the unclamped position of Time relative to the row's majority
// new hour; the fits use it.
type AnchorSample struct {
	POld         float64   `json:"p_old"`
	PNew         float64   `json:"p_new"`
	NewHourIndex int       `json:"new_hour_index"`
	Aligned      float64   `json:"aligned"`
	Time         time.Time `json:"time"`
}

// AnchorMappingRow collects the anchors of one old hour. NewHourIndex is the
// new hour most anchors landed in.
type AnchorMappingRow struct {
	OldHourIndex int            `json:"old_hour_index"`
	NewHourIndex int            `json:"new_hour_index"`
	Anchors      []AnchorSample `json:"anchors"`
}

// BestFit holds the day and night fits of a mapping.
type BestFit struct {
	Day   FitResult `json:"day"`
	Night FitResult `json:"night"`
}

// MappingResult is the outcome of mapping anchors from an old hour scheme to
// a new one.
type MappingResult struct {
	Date    string                         `json:"date"`
	Old     GeoElevationConfig             `json:"old"`
	New     GeoElevationConfig             `json:"new"`
	Anchors []float64                      `json:"anchors"`
	Day     [HoursPerHalf]AnchorMappingRow `json:"day"`
	Night   [HoursPerHalf]AnchorMappingRow `json:"night"`
	BestFit BestFit                        `json:"best_fit"`
}

// Mapper partitions two observer configurations and maps anchors between them.
type Mapper struct {
	Sun SunTimesSource
}

// MapAnchors partitions oldCfg and newCfg for the civil date of day (no hour
// offset) and maps every anchor of every old hour into the new partition.
func (m Mapper) MapAnchors(day time.Time, oldCfg, newCfg GeoElevationConfig, anchors []float64) (MappingResult, error) {
	oldST, err := m.Sun.SunTimes(day, oldCfg)
	if err != nil {
		return MappingResult{}, fmt.Errorf("old configuration: %w", err)
	}
	newST, err := m.Sun.SunTimes(day, newCfg)
	if err != nil {
		return MappingResult{}, fmt.Errorf("new configuration: %w", err)
	}

	res := MappingResult{
		Date:    day.Format(time.DateOnly),
		Old:     oldCfg,
		New:     newCfg,
		Anchors: anchors,
	}
	res.Day, res.Night, res.BestFit = MapPartitions(PartitionHours(oldST), PartitionHours(newST), anchors)
	return res, nil
}

// MapPartitions maps anchors from oldP to newP, day and night independently,
// and fits both halves.
func MapPartitions(oldP, newP Partition, anchors []float64) (day, night [HoursPerHalf]AnchorMappingRow, fit BestFit) {
	day, fit.Day = mapHalf(oldP.Day, newP.Day, anchors)
	night, fit.Night = mapHalf(oldP.Night, newP.Night, anchors)
	return day, night, fit
}

func mapHalf(oldHours, newHours [HoursPerHalf]HourBoundary, anchors []float64) ([HoursPerHalf]AnchorMappingRow, FitResult) {
	var rows [HoursPerHalf]AnchorMappingRow
	xs := make([]float64, 0, HoursPerHalf*len(anchors))
	ys := make([]float64, 0, HoursPerHalf*len(anchors))

	for i, hb := range oldHours {
		samples := make([]AnchorSample, len(anchors))
		for k, p := range anchors {
			t0 := hb.At(p)
			j := findHour(newHours, t0)
			samples[k] = AnchorSample{POld: p, PNew: clamp01(newHours[j].Position(t0)), NewHourIndex: j, Time: t0}
		}

		rep := majorityHour(samples, i)
		for k := range samples {
			samples[k].Aligned = newHours[rep].Position(samples[k].Time)
			xs = append(xs, samples[k].POld)
			ys = append(ys, samples[k].Aligned)
		}
		rows[i] = AnchorMappingRow{OldHourIndex: i, NewHourIndex: rep, Anchors: samples}
	}
	return rows, Fit(xs, ys)
}

// findHour returns the hour containing t. Instants before the first hour map
// to the first, instants at or after the last boundary to the last.
func findHour(hours [HoursPerHalf]HourBoundary, t time.Time) int {
	for j, h := range hours {
		if h.Contains(t) {
			return j
		}
	}
	if t.Before(hours[0].Start) {
		return 0
	}
	return HoursPerHalf - 1
}

// majorityHour returns the most frequent NewHourIndex; ties go to the index
// seen first. fallback is used for an empty sample.
func majorityHour(samples []AnchorSample, fallback int) int {
	if len(samples) == 0 {
		return fallback
	}
	var counts [HoursPerHalf]int
	order := make([]int, 0, HoursPerHalf)
	for _, s := range samples {
		if counts[s.NewHourIndex] == 0 {
			order = append(order, s.NewHourIndex)
		}
		counts[s.NewHourIndex]++
	}
	best := order[0]
	for _, j := range order[1:] {
		if counts[j] > counts[best] {
			best = j
		}
	}
	return best
}
