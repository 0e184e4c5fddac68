package service

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/chrissnell/planetaryhours/internal/planetary"
)

// fakeSun rises at 06:00 and sets at 18:00 local time. Each degree of
// longitude moves every instant by a minute; each meter of elevation makes
// the day a second longer at both ends.
type fakeSun struct{}

func (fakeSun) SunTimes(day time.Time, cfg planetary.GeoElevationConfig) (planetary.SunTimes, error) {
	y, m, d := day.Date()
	loc := day.Location()
	shift := time.Duration(cfg.Longitude * float64(time.Minute))
	dip := time.Duration(cfg.ElevationMeters * float64(time.Second))
	return planetary.SunTimes{
		Sunrise:     time.Date(y, m, d, 6, 0, 0, 0, loc).Add(shift - dip),
		Sunset:      time.Date(y, m, d, 18, 0, 0, 0, loc).Add(shift + dip),
		NextSunrise: time.Date(y, m, d+1, 6, 0, 0, 0, loc).Add(shift - dip),
	}, nil
}

type failingRulers struct{ err error }

func (f failingRulers) HourRulers(context.Context, string, float64, float64) (planetary.HourRulers, error) {
	return planetary.HourRulers{}, f.err
}

type fakeElevation struct {
	meters float64
	calls  atomic.Int32
}

func (f *fakeElevation) Resolve(context.Context, float64, float64) float64 {
	f.calls.Add(1)
	return f.meters
}

var testNow = time.Date(2024, time.March, 20, 10, 30, 0, 0, time.UTC)

func newTestService(elev ElevationResolver, rulers planetary.RulerSource) *Service {
	return New(fakeSun{}, rulers, elev, Defaults{
		Latitude:      29.43,
		OffsetPercent: 1.5,
		UseOffset:     true,
	}, WithClock(func() time.Time { return testNow }))
}

func ptr[T any](v T) *T { return &v }

func TestGetPlanetaryHours(t *testing.T) {
	svc := newTestService(nil, nil)

	resp, err := svc.GetPlanetaryHours(context.Background(), HoursRequest{Coefficient: 1.5})
	require.NoError(t, err)

	assert.Equal(t, "2024-03-20", resp.Date)
	assert.Equal(t, 1.5, resp.OffsetPercent)
	assert.Nil(t, resp.Calibration)
	require.Len(t, resp.Hours, 20)

	first := resp.Hours[0]
	assert.True(t, first.IsDay)
	assert.Equal(t, 4, first.Index)
	assert.Equal(t, "Fifth Hour", first.Name)
	assert.Equal(t, "Mars", first.Ruler) // Wednesday
	assert.Equal(t, "10:00:54 AM", first.StartClock)
	assert.Equal(t, "11:00:54 AM", first.EndClock)
	assert.Len(t, first.Markers, 21)

	last := resp.Hours[len(resp.Hours)-1]
	assert.False(t, last.IsDay)
	assert.Equal(t, 11, last.Index)

	assert.GreaterOrEqual(t, resp.Moon.Illumination, 0.0)
	assert.LessOrEqual(t, resp.Moon.Illumination, 1.0)
	assert.NotEmpty(t, resp.Moon.PhaseName)
}

func TestGetPlanetaryHoursWithoutOffset(t *testing.T) {
	svc := newTestService(nil, nil)

	resp, err := svc.GetPlanetaryHours(context.Background(), HoursRequest{Coefficient: 1.5, UseOffset: ptr(false), OffsetPercent: ptr(10.0)})
	require.NoError(t, err)
	assert.Zero(t, resp.OffsetPercent)
	require.Len(t, resp.Hours, 20)
	assert.Equal(t, "10:00:00 AM", resp.Hours[0].StartClock)
	assert.Equal(t, "10:04:17 AM", resp.Hours[0].Markers[2].Clock)
}

func TestGetPlanetaryHoursTimezone(t *testing.T) {
	svc := newTestService(nil, nil)

	// 10:30 UTC is 20:30 at UTC+10
	resp, err := svc.GetPlanetaryHours(context.Background(), HoursRequest{TZOffsetMinutes: ptr(600)})
	require.NoError(t, err)
	require.Len(t, resp.Hours, 10)
	assert.False(t, resp.Hours[0].IsDay)
	assert.Equal(t, 2, resp.Hours[0].Index)
	assert.Equal(t, "8:00:54 PM", resp.Hours[0].StartClock)
	_, off := resp.Hours[0].Start.Zone()
	assert.Equal(t, 600*60, off)
}

func TestGetPlanetaryHoursElevation(t *testing.T) {
	elev := &fakeElevation{meters: 100}
	svc := newTestService(elev, nil)

	resp, err := svc.GetPlanetaryHours(context.Background(), HoursRequest{Location: Location{UseElevation: true}})
	require.NoError(t, err)
	assert.Equal(t, 100.0, resp.Location.ElevationMeters)
	assert.Equal(t, "5:58:20 AM", resp.SunTimes.Sunrise.Format(planetary.ClockLayout))
	assert.Equal(t, int32(1), elev.calls.Load())

	resp, err = svc.GetPlanetaryHours(context.Background(), HoursRequest{Location: Location{UseElevation: true, Elevation: ptr(50.0)}})
	require.NoError(t, err)
	assert.Equal(t, 50.0, resp.Location.ElevationMeters)
	assert.Equal(t, int32(1), elev.calls.Load(), "override must skip the lookup")

	resp, err = svc.GetPlanetaryHours(context.Background(), HoursRequest{Location: Location{Elevation: ptr(50.0)}})
	require.NoError(t, err)
	assert.Zero(t, resp.Location.ElevationMeters, "elevation applies only with use_elevation")
}

func TestGetPlanetaryHoursCalibrate(t *testing.T) {
	svc := newTestService(&fakeElevation{meters: 300}, nil)

	resp, err := svc.GetPlanetaryHours(context.Background(), HoursRequest{
		Coefficient: 1.5,
		Location:    Location{UseElevation: true},
		Calibrate:   true,
	})
	require.NoError(t, err)
	require.NotNil(t, resp.Calibration)
	assert.Equal(t, pooledPairs(), resp.Calibration.Day.N)

	for _, h := range resp.Hours {
		for _, m := range h.Markers {
			assert.NotEmpty(t, m.Calibrated)
		}
	}
}

// pooledPairs is the number of fitted pairs per half with the default anchors
func pooledPairs() int {
	return planetary.HoursPerHalf * len(planetary.DefaultAnchors)
}

func TestGetPlanetaryHoursRulerFailure(t *testing.T) {
	upstream := errors.New("upstream down")
	svc := newTestService(nil, failingRulers{err: upstream})

	_, err := svc.GetPlanetaryHours(context.Background(), HoursRequest{})
	require.Error(t, err)
	assert.ErrorIs(t, err, upstream)
}

func TestValidation(t *testing.T) {
	svc := newTestService(nil, nil)
	ctx := context.Background()

	_, err := svc.GetPlanetaryHours(ctx, HoursRequest{Location: Location{Latitude: ptr(95.0)}, Anchors: []float64{0.5, 2}})
	var verr *ValidationError
	require.ErrorAs(t, err, &verr)
	assert.Equal(t, "must be <= 90", verr.Fields["lat"])
	assert.Equal(t, "must be <= 1", verr.Fields["anchors[1]"])

	_, err = svc.MapEquivalentPercentsBetweenLocations(ctx, BetweenRequest{New: Endpoint{Longitude: -200}})
	require.ErrorAs(t, err, &verr)
	assert.Equal(t, "must be >= -180", verr.Fields["new.lon"])

	_, err = svc.GetCurrentPercentage(ctx, PercentRequest{TZOffsetMinutes: ptr(2000)})
	require.ErrorAs(t, err, &verr)
	assert.Contains(t, verr.Error(), "tz_offset")
}

func TestGetCurrentPercentage(t *testing.T) {
	svc := newTestService(nil, nil)

	tests := []struct {
		name      string
		time      string
		isDay     bool
		want      string
		wantIndex int
		wantRuler string
	}{
		{"noon", "12:00:00", true, "0.00", 6, "Venus"},
		{"now", "", true, "50.00", 4, "Mars"},
		{"small hours roll over", "02:30", false, "50.00", 8, "Venus"},
		{"evening", "18:15:00", false, "25.00", 0, "Sun"},
		{"day query at night", "20:00", true, planetary.NotApplicable, -1, ""},
		{"night query by day", "12:00", false, planetary.NotApplicable, -1, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resp, err := svc.GetCurrentPercentage(context.Background(), PercentRequest{Time: tt.time, IsDay: tt.isDay})
			require.NoError(t, err)
			assert.Equal(t, tt.want, resp.Percentage)
			assert.Equal(t, tt.wantRuler, resp.Ruler)
			if tt.wantIndex < 0 {
				assert.Nil(t, resp.HourIndex)
				return
			}
			require.NotNil(t, resp.HourIndex)
			assert.Equal(t, tt.wantIndex, *resp.HourIndex)
			assert.Equal(t, planetary.HourName(tt.wantIndex), resp.HourName)
		})
	}
}

func TestGetCurrentPercentageBadTime(t *testing.T) {
	svc := newTestService(nil, nil)

	_, err := svc.GetCurrentPercentage(context.Background(), PercentRequest{Time: "25:00", IsDay: true})
	var verr *ValidationError
	require.ErrorAs(t, err, &verr)
	assert.Contains(t, verr.Fields, "time")
}

func TestMapEquivalentPercents(t *testing.T) {
	svc := newTestService(&fakeElevation{}, nil)

	res, err := svc.MapEquivalentPercents(context.Background(), EquivalentRequest{Location: Location{UseElevation: true, Elevation: ptr(120.0)}})
	require.NoError(t, err)
	assert.Equal(t, "2024-03-20", res.Date)
	assert.Zero(t, res.Old.ElevationMeters)
	assert.Equal(t, 120.0, res.New.ElevationMeters)
	assert.Equal(t, planetary.DefaultAnchors, res.Anchors)
	assert.Equal(t, pooledPairs(), res.BestFit.Night.N)

	// A longer day spreads the old anchors later into the new hours at the start
	assert.Greater(t, res.Day[0].Anchors[0].PNew, 0.0)

	flat, err := svc.MapEquivalentPercents(context.Background(), EquivalentRequest{Anchors: []float64{0, 0.5}})
	require.NoError(t, err)
	assert.InDelta(t, 0, flat.BestFit.Day.Delta, 1e-9)
	assert.InDelta(t, 1, flat.BestFit.Day.B, 1e-9)
}

func TestMapEquivalentPercentsBetweenLocations(t *testing.T) {
	elev := &fakeElevation{meters: 0}
	svc := newTestService(elev, nil)

	res, err := svc.MapEquivalentPercentsBetweenLocations(context.Background(), BetweenRequest{
		Old:     Endpoint{Latitude: 29.43, Longitude: 0},
		New:     Endpoint{Latitude: 29.61, Longitude: 10},
		Anchors: []float64{0, 0.5, 1},
	})
	require.NoError(t, err)
	assert.Equal(t, int32(2), elev.calls.Load())
	assert.InDelta(t, 0, res.BestFit.Day.MSEOffset, 1e-12)
	assert.InDelta(t, -10.0/60, res.BestFit.Day.Delta, 1e-9)

	_, err = svc.MapEquivalentPercentsBetweenLocations(context.Background(), BetweenRequest{
		Old: Endpoint{Elevation: ptr(10.0)},
		New: Endpoint{},
	})
	require.NoError(t, err)
	assert.Equal(t, int32(3), elev.calls.Load())
}

// smallHours is 01:00 UTC, inside the night that began at sunset on 2024-03-20
var smallHours = time.Date(2024, time.March, 21, 1, 0, 0, 0, time.UTC)

func newServiceAt(now time.Time) *Service {
	return New(fakeSun{}, nil, nil, Defaults{Latitude: 29.43, OffsetPercent: 1.5, UseOffset: true},
		WithClock(func() time.Time { return now }))
}

func TestGetCurrentPercentageBeforeSunrise(t *testing.T) {
	svc := newServiceAt(smallHours)

	tests := []struct {
		name      string
		time      string
		isDay     bool
		date      string
		want      string
		wantIndex int
		wantTime  time.Time
	}{
		{"now", "", false, "2024-03-20", "0.00", 7, smallHours},
		{"after midnight", "01:30", false, "2024-03-20", "50.00", 7, smallHours.Add(30 * time.Minute)},
		{"before midnight", "22:00", false, "2024-03-20", "0.00", 4, time.Date(2024, time.March, 20, 22, 0, 0, 0, time.UTC)},
		{"day query", "", true, "2024-03-21", planetary.NotApplicable, -1, smallHours},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resp, err := svc.GetCurrentPercentage(context.Background(), PercentRequest{Time: tt.time, IsDay: tt.isDay})
			require.NoError(t, err)
			assert.Equal(t, tt.date, resp.Date)
			assert.Equal(t, tt.want, resp.Percentage)
			assert.True(t, tt.wantTime.Equal(resp.Time), "resolved %v", resp.Time)
			if tt.wantIndex < 0 {
				assert.Nil(t, resp.HourIndex)
				return
			}
			require.NotNil(t, resp.HourIndex)
			assert.Equal(t, tt.wantIndex, *resp.HourIndex)
			// Wednesday's night: hour 24*3 + 12 + 7 of the weekly sequence
			assert.Equal(t, "Sun", resp.Ruler)
		})
	}
}

func TestGetPlanetaryHoursBeforeSunrise(t *testing.T) {
	svc := newServiceAt(smallHours.Add(10 * time.Minute))

	resp, err := svc.GetPlanetaryHours(context.Background(), HoursRequest{UseOffset: ptr(false)})
	require.NoError(t, err)
	assert.Equal(t, "2024-03-21", resp.Date)

	// Night hours 7..11 of 2024-03-20, then all of 2024-03-21
	require.Len(t, resp.Hours, 5+2*planetary.HoursPerHalf)
	first := resp.Hours[0]
	assert.False(t, first.IsDay)
	assert.Equal(t, 7, first.Index)
	assert.Equal(t, "Sun", first.Ruler)
	assert.Equal(t, "1:00:00 AM", first.StartClock)

	fifth := resp.Hours[4]
	assert.Equal(t, 11, fifth.Index)
	assert.True(t, fifth.End.Equal(resp.Hours[5].Start))
	assert.True(t, resp.Hours[5].IsDay)
	assert.Equal(t, 0, resp.Hours[5].Index)
	assert.Equal(t, "Jupiter", resp.Hours[5].Ruler) // Thursday
}
