// Package service exposes the planetary hour operations used by the REST
// server and the command line tool.
package service

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/chrissnell/planetaryhours/internal/planetary"
	"github.com/chrissnell/planetaryhours/pkg/lunar"
)

// ElevationResolver returns the ground elevation in meters, 0 when unknown.
type ElevationResolver interface {
	Resolve(ctx context.Context, latitude, longitude float64) float64
}

// Defaults are applied to request fields left unset.
type Defaults struct {
	Latitude        float64
	Longitude       float64
	TZOffsetMinutes int
	OffsetPercent   float64
	UseOffset       bool
	Anchors         []float64
}

// Service computes planetary hours for a request clock.
type Service struct {
	sun       planetary.SunTimesSource
	rulers    planetary.RulerSource
	elevation ElevationResolver
	defaults  Defaults
	now       func() time.Time
	logger    *zap.SugaredLogger
}

// Option customises a Service
type Option func(*Service)

// WithClock replaces time.Now
func WithClock(now func() time.Time) Option {
	return func(s *Service) { s.now = now }
}

// WithLogger sets the service logger
func WithLogger(l *zap.SugaredLogger) Option {
	return func(s *Service) { s.logger = l }
}

// New creates a Service. A nil sun source uses the meeus calculator, a nil
// ruler source the local sequence.
func New(sun planetary.SunTimesSource, rulers planetary.RulerSource, elevation ElevationResolver, defaults Defaults, opts ...Option) *Service {
	if sun == nil {
		sun = planetary.Astronomical{}
	}
	if rulers == nil {
		rulers = planetary.SequenceSource{}
	}
	if len(defaults.Anchors) == 0 {
		defaults.Anchors = planetary.DefaultAnchors
	}

	s := &Service{
		sun:       sun,
		rulers:    rulers,
		elevation: elevation,
		defaults:  defaults,
		now:       time.Now,
		logger:    zap.NewNop().Sugar(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// GetPlanetaryHours returns today's and tonight's hours that have not ended,
// each with its 21 percent markers.
func (s *Service) GetPlanetaryHours(ctx context.Context, req HoursRequest) (*HoursResponse, error) {
	if err := validateRequest(req); err != nil {
		return nil, err
	}

	cfg := s.observer(ctx, req.Location)
	now := s.now()
	tz := s.tzOffset(req.TZOffsetMinutes)
	day, date, loc, err := s.today(now, tz)
	if err != nil {
		return nil, err
	}

	st, err := s.sun.SunTimes(day, cfg)
	if err != nil {
		return nil, err
	}
	rulers, err := s.rulers.HourRulers(ctx, date, cfg.Latitude, cfg.Longitude)
	if err != nil {
		return nil, fmt.Errorf("fetching hour rulers: %w", err)
	}

	offset := 0.0
	useOffset := s.defaults.UseOffset
	if req.UseOffset != nil {
		useOffset = *req.UseOffset
	}
	if useOffset {
		offset = s.defaults.OffsetPercent
		if req.OffsetPercent != nil {
			offset = *req.OffsetPercent
		}
	}

	hours := planetary.AssignRulers(planetary.PartitionHours(st).Shift(offset), rulers)

	// Before sunrise the previous date's night is still running
	if now.Before(st.Sunrise) {
		prev, err := s.hoursFor(ctx, day.AddDate(0, 0, -1), cfg, offset)
		if err != nil {
			return nil, err
		}
		hours = append(prev, hours...)
	}

	resp := &HoursResponse{
		Date:            date,
		TZOffsetMinutes: tz,
		Location:        cfg,
		SunTimes:        st.In(loc),
		OffsetPercent:   offset,
		Moon:            lunar.Calculate(st.Sunset.Add(st.NextSunrise.Sub(st.Sunset) / 2)),
	}

	if req.Calibrate {
		seaLevel := cfg
		seaLevel.ElevationMeters = 0
		m, err := planetary.Mapper{Sun: s.sun}.MapAnchors(day, seaLevel, cfg, s.anchors(req.Anchors))
		if err != nil {
			return nil, err
		}
		resp.Calibration = &m.BestFit
	}

	for _, h := range planetary.HoursFromNowOnward(hours, now) {
		markers := planetary.Subdivide(h.HourBoundary, req.Coefficient, req.UseMidpointCoefficient, loc)
		if resp.Calibration != nil {
			fit := resp.Calibration.Night
			if h.IsDay {
				fit = resp.Calibration.Day
			}
			markers = planetary.Calibrate(markers, fit)
		}

		h.Start, h.End = h.Start.In(loc), h.End.In(loc)
		resp.Hours = append(resp.Hours, HourView{
			PlanetaryHour: h,
			StartClock:    h.Start.Format(planetary.ClockLayout),
			EndClock:      h.End.Format(planetary.ClockLayout),
			Markers:       markers,
		})
	}

	s.logger.Debugw("computed planetary hours", "date", date, "latitude", cfg.Latitude,
		"longitude", cfg.Longitude, "elevation", cfg.ElevationMeters, "hours", len(resp.Hours))
	return resp, nil
}

// GetCurrentPercentage locates a wall-clock time inside today's day hours or
// the night hours running at the request clock: tonight's, or last night's
// between midnight and sunrise.
func (s *Service) GetCurrentPercentage(ctx context.Context, req PercentRequest) (*PercentResponse, error) {
	if err := validateRequest(req); err != nil {
		return nil, err
	}

	cfg := s.observer(ctx, req.Location)
	now := s.now()
	day, date, loc, err := s.today(now, s.tzOffset(req.TZOffsetMinutes))
	if err != nil {
		return nil, err
	}

	st, err := s.sun.SunTimes(day, cfg)
	if err != nil {
		return nil, err
	}

	// Between midnight and sunrise the running night began on the previous date
	if !req.IsDay && now.Before(st.Sunrise) {
		day = day.AddDate(0, 0, -1)
		date = day.Format(time.DateOnly)
		if st, err = s.sun.SunTimes(day, cfg); err != nil {
			return nil, err
		}
	}

	t := now.In(loc)
	if req.Time != "" {
		if t, err = planetary.ResolveClock(day, req.Time, req.IsDay, st); err != nil {
			return nil, &ValidationError{Fields: map[string]string{"time": err.Error()}}
		}
	}

	resp := &PercentResponse{Date: date, Time: t, IsDay: req.IsDay}
	pos, idx, ok := planetary.Locate(t, req.IsDay, planetary.PartitionHours(st))
	resp.Percentage = planetary.FormatPercent(pos, ok)
	if !ok {
		return resp, nil
	}

	rulers, err := s.rulers.HourRulers(ctx, date, cfg.Latitude, cfg.Longitude)
	if err != nil {
		return nil, fmt.Errorf("fetching hour rulers: %w", err)
	}
	resp.HourIndex = &idx
	resp.HourName = planetary.HourName(idx)
	resp.Ruler = rulers.Night[idx]
	if req.IsDay {
		resp.Ruler = rulers.Day[idx]
	}
	return resp, nil
}

// MapEquivalentPercents maps sea-level hours at a location onto the same
// location's hours at the requested elevation.
func (s *Service) MapEquivalentPercents(ctx context.Context, req EquivalentRequest) (*planetary.MappingResult, error) {
	if err := validateRequest(req); err != nil {
		return nil, err
	}

	newCfg := s.observer(ctx, req.Location)
	oldCfg := newCfg
	oldCfg.ElevationMeters = 0

	day, _, _, err := s.today(s.now(), s.tzOffset(req.TZOffsetMinutes))
	if err != nil {
		return nil, err
	}
	res, err := planetary.Mapper{Sun: s.sun}.MapAnchors(day, oldCfg, newCfg, s.anchors(req.Anchors))
	if err != nil {
		return nil, err
	}
	return &res, nil
}

// MapEquivalentPercentsBetweenLocations maps the hours of one location onto
// another's. Missing elevations are looked up concurrently.
func (s *Service) MapEquivalentPercentsBetweenLocations(ctx context.Context, req BetweenRequest) (*planetary.MappingResult, error) {
	if err := validateRequest(req); err != nil {
		return nil, err
	}

	oldCfg := planetary.GeoElevationConfig{Latitude: req.Old.Latitude, Longitude: req.Old.Longitude}
	newCfg := planetary.GeoElevationConfig{Latitude: req.New.Latitude, Longitude: req.New.Longitude}

	g, gctx := errgroup.WithContext(ctx)
	for _, side := range []struct {
		ep  Endpoint
		cfg *planetary.GeoElevationConfig
	}{
		{req.Old, &oldCfg},
		{req.New, &newCfg},
	} {
		g.Go(func() error {
			side.cfg.ElevationMeters = s.resolveElevation(gctx, side.ep.Latitude, side.ep.Longitude, side.ep.Elevation)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	day, _, _, err := s.today(s.now(), s.tzOffset(req.TZOffsetMinutes))
	if err != nil {
		return nil, err
	}
	res, err := planetary.Mapper{Sun: s.sun}.MapAnchors(day, oldCfg, newCfg, s.anchors(req.Anchors))
	if err != nil {
		return nil, err
	}
	return &res, nil
}

// hoursFor returns the ruled, offset hours of the planetary day starting on
// day's date.
func (s *Service) hoursFor(ctx context.Context, day time.Time, cfg planetary.GeoElevationConfig, offset float64) ([]planetary.PlanetaryHour, error) {
	st, err := s.sun.SunTimes(day, cfg)
	if err != nil {
		return nil, err
	}
	rulers, err := s.rulers.HourRulers(ctx, day.Format(time.DateOnly), cfg.Latitude, cfg.Longitude)
	if err != nil {
		return nil, fmt.Errorf("fetching hour rulers: %w", err)
	}
	return planetary.AssignRulers(planetary.PartitionHours(st).Shift(offset), rulers), nil
}

// observer resolves a request location against the defaults
func (s *Service) observer(ctx context.Context, l Location) planetary.GeoElevationConfig {
	cfg := planetary.GeoElevationConfig{Latitude: s.defaults.Latitude, Longitude: s.defaults.Longitude}
	if l.Latitude != nil {
		cfg.Latitude = *l.Latitude
	}
	if l.Longitude != nil {
		cfg.Longitude = *l.Longitude
	}
	if l.UseElevation {
		cfg.ElevationMeters = s.resolveElevation(ctx, cfg.Latitude, cfg.Longitude, l.Elevation)
	}
	return cfg
}

func (s *Service) resolveElevation(ctx context.Context, latitude, longitude float64, override *float64) float64 {
	if override != nil {
		return *override
	}
	if s.elevation == nil {
		return 0
	}
	return s.elevation.Resolve(ctx, latitude, longitude)
}

func (s *Service) tzOffset(v *int) int {
	if v != nil {
		return *v
	}
	return s.defaults.TZOffsetMinutes
}

func (s *Service) anchors(a []float64) []float64 {
	if len(a) > 0 {
		return a
	}
	return s.defaults.Anchors
}

// today returns midnight of the request date in the display zone, the date
// string and the zone.
func (s *Service) today(now time.Time, tzOffsetMinutes int) (time.Time, string, *time.Location, error) {
	loc := planetary.FixedZone(tzOffsetMinutes)
	date := planetary.Today(now, tzOffsetMinutes)
	day, err := planetary.ParseDate(date, loc)
	if err != nil {
		return time.Time{}, "", nil, err
	}
	return day, date, loc, nil
}
