package main

import (
	"encoding/json"
	"fmt"
	"io"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/chrissnell/planetaryhours/internal/app"
	"github.com/chrissnell/planetaryhours/internal/service"
	"github.com/chrissnell/planetaryhours/pkg/config"
	"github.com/chrissnell/planetaryhours/pkg/lunar"
)

// Coordinates used by the location-to-location calibration when none are given
const (
	defaultOldLatitude  = 29.4343455
	defaultOldLongitude = -98.6591473
	defaultNewLatitude  = 29.6148509
	defaultNewLongitude = -98.4805349
)

// newServiceFn builds the service for a command; tests replace it
var newServiceFn = func(opts *globalOptions) (*service.Service, error) {
	cfg, err := config.NewYAMLProvider(opts.configFile).LoadConfig()
	if err != nil {
		return nil, err
	}

	logger := zap.NewNop().Sugar()
	if opts.debug {
		l, err := zap.NewDevelopment()
		if err != nil {
			return nil, fmt.Errorf("can't initialize zap logger: %w", err)
		}
		logger = l.Sugar()
	}
	return app.NewService(cfg, logger)
}

// locationFlags are the observer flags shared by hours, percent and equivalent
type locationFlags struct {
	lat, lon     float64
	elevation    float64
	useElevation bool
}

func (l *locationFlags) register(cmd *cobra.Command) {
	cmd.Flags().Float64Var(&l.lat, "lat", 0, "Latitude in degrees (default from config)")
	cmd.Flags().Float64Var(&l.lon, "lon", 0, "Longitude in degrees (default from config)")
	cmd.Flags().BoolVar(&l.useElevation, "use-elevation", false, "Apply the horizon dip for the ground elevation")
	cmd.Flags().Float64Var(&l.elevation, "elevation", 0, "Elevation in meters instead of looking it up")
}

func (l *locationFlags) location(cmd *cobra.Command) service.Location {
	loc := service.Location{
		Latitude:     changedFloat(cmd, "lat", l.lat),
		Longitude:    changedFloat(cmd, "lon", l.lon),
		UseElevation: l.useElevation,
		Elevation:    changedFloat(cmd, "elevation", l.elevation),
	}
	if loc.Elevation != nil {
		loc.UseElevation = true
	}
	return loc
}

func changedFloat(cmd *cobra.Command, name string, v float64) *float64 {
	if !cmd.Flags().Changed(name) {
		return nil
	}
	return &v
}

func tzOffset(cmd *cobra.Command, opts *globalOptions) *int {
	if !cmd.Flags().Changed("tz-offset") {
		return nil
	}
	return &opts.tzOffset
}

func newHoursCmd(opts *globalOptions) *cobra.Command {
	var (
		loc         locationFlags
		coefficient float64
		midpoint    bool
		offset      float64
		noOffset    bool
		calibrate   bool
	)

	cmd := &cobra.Command{
		Use:   "hours",
		Short: "List the remaining planetary hours of today and tonight",
		RunE: func(cmd *cobra.Command, args []string) error {
			svc, err := newServiceFn(opts)
			if err != nil {
				return err
			}
			req := service.HoursRequest{
				Location:               loc.location(cmd),
				Coefficient:            coefficient,
				UseMidpointCoefficient: midpoint,
				OffsetPercent:          changedFloat(cmd, "offset", offset),
				TZOffsetMinutes:        tzOffset(cmd, opts),
				Calibrate:              calibrate,
			}
			if noOffset {
				off := false
				req.UseOffset = &off
			}
			resp, err := svc.GetPlanetaryHours(cmd.Context(), req)
			if err != nil {
				return err
			}
			return writeJSON(cmd.OutOrStdout(), resp)
		},
	}

	loc.register(cmd)
	cmd.Flags().Float64Var(&coefficient, "coefficient", config.DefaultOffsetPercent, "Coefficient marker distance in percent")
	cmd.Flags().BoolVar(&midpoint, "midpoint", false, "Measure the coefficient from the midpoint markers")
	cmd.Flags().Float64Var(&offset, "offset", 0, "Hour offset in percent (default from config)")
	cmd.Flags().BoolVar(&noOffset, "no-offset", false, "Do not shift hours by the offset")
	cmd.Flags().BoolVar(&calibrate, "calibrate", false, "Add elevation calibrated labels to the markers")
	return cmd
}

func newPercentCmd(opts *globalOptions) *cobra.Command {
	var (
		loc   locationFlags
		clock string
		night bool
	)

	cmd := &cobra.Command{
		Use:   "percent",
		Short: "Show how far into its planetary hour a time is",
		RunE: func(cmd *cobra.Command, args []string) error {
			svc, err := newServiceFn(opts)
			if err != nil {
				return err
			}
			resp, err := svc.GetCurrentPercentage(cmd.Context(), service.PercentRequest{
				Location:        loc.location(cmd),
				Time:            clock,
				IsDay:           !night,
				TZOffsetMinutes: tzOffset(cmd, opts),
			})
			if err != nil {
				return err
			}
			return writeJSON(cmd.OutOrStdout(), resp)
		},
	}

	loc.register(cmd)
	cmd.Flags().StringVar(&clock, "time", "", "Wall-clock time HH:MM[:SS] (default now)")
	cmd.Flags().BoolVar(&night, "night", false, "Locate the time among the night hours")
	return cmd
}

func newEquivalentCmd(opts *globalOptions) *cobra.Command {
	var (
		loc     locationFlags
		anchors []float64
	)

	cmd := &cobra.Command{
		Use:   "equivalent",
		Short: "Map sea-level hour percentages onto elevation-corrected hours",
		RunE: func(cmd *cobra.Command, args []string) error {
			svc, err := newServiceFn(opts)
			if err != nil {
				return err
			}
			location := loc.location(cmd)
			location.UseElevation = true
			res, err := svc.MapEquivalentPercents(cmd.Context(), service.EquivalentRequest{
				Location:        location,
				Anchors:         anchors,
				TZOffsetMinutes: tzOffset(cmd, opts),
			})
			if err != nil {
				return err
			}
			return writeJSON(cmd.OutOrStdout(), res)
		},
	}

	loc.register(cmd)
	cmd.Flags().Float64SliceVar(&anchors, "anchors", nil, "Anchor positions in [0,1] (default from config)")
	return cmd
}

// offsetSummary is the condensed output of the between command
type offsetSummary struct {
	Date               string  `json:"date"`
	OldElevationMeters float64 `json:"oldElevationMeters"`
	NewElevationMeters float64 `json:"newElevationMeters"`
	DayDelta           float64 `json:"dayDelta"`
	NightDelta         float64 `json:"nightDelta"`
	DayDeltaPercent    float64 `json:"dayDeltaPct"`
	NightDeltaPercent  float64 `json:"nightDeltaPct"`
}

func newBetweenCmd(opts *globalOptions) *cobra.Command {
	var (
		oldLat, oldLon, newLat, newLon float64
		oldElev, newElev               float64
		anchors                        []float64
		full                           bool
	)

	cmd := &cobra.Command{
		Use:   "between",
		Short: "Calibrate hour percentages from one location to another",
		RunE: func(cmd *cobra.Command, args []string) error {
			svc, err := newServiceFn(opts)
			if err != nil {
				return err
			}
			res, err := svc.MapEquivalentPercentsBetweenLocations(cmd.Context(), service.BetweenRequest{
				Old:             service.Endpoint{Latitude: oldLat, Longitude: oldLon, Elevation: changedFloat(cmd, "old-elevation", oldElev)},
				New:             service.Endpoint{Latitude: newLat, Longitude: newLon, Elevation: changedFloat(cmd, "new-elevation", newElev)},
				Anchors:         anchors,
				TZOffsetMinutes: tzOffset(cmd, opts),
			})
			if err != nil {
				return err
			}
			if full {
				return writeJSON(cmd.OutOrStdout(), res)
			}
			return writeJSON(cmd.OutOrStdout(), offsetSummary{
				Date:               res.Date,
				OldElevationMeters: res.Old.ElevationMeters,
				NewElevationMeters: res.New.ElevationMeters,
				DayDelta:           res.BestFit.Day.Delta,
				NightDelta:         res.BestFit.Night.Delta,
				DayDeltaPercent:    res.BestFit.Day.Delta * 100,
				NightDeltaPercent:  res.BestFit.Night.Delta * 100,
			})
		},
	}

	cmd.Flags().Float64Var(&oldLat, "old-lat", defaultOldLatitude, "Latitude of the reference location")
	cmd.Flags().Float64Var(&oldLon, "old-lon", defaultOldLongitude, "Longitude of the reference location")
	cmd.Flags().Float64Var(&newLat, "new-lat", defaultNewLatitude, "Latitude of the target location")
	cmd.Flags().Float64Var(&newLon, "new-lon", defaultNewLongitude, "Longitude of the target location")
	cmd.Flags().Float64Var(&oldElev, "old-elevation", 0, "Reference elevation in meters (looked up when unset)")
	cmd.Flags().Float64Var(&newElev, "new-elevation", 0, "Target elevation in meters (looked up when unset)")
	cmd.Flags().Float64SliceVar(&anchors, "anchors", nil, "Anchor positions in [0,1] (default from config)")
	cmd.Flags().BoolVar(&full, "full", false, "Print the complete anchor mapping")
	return cmd
}

func newMoonCmd() *cobra.Command {
	var at string

	cmd := &cobra.Command{
		Use:   "moon",
		Short: "Show the moon phase",
		RunE: func(cmd *cobra.Command, args []string) error {
			t := time.Now().UTC()
			if at != "" {
				var err error
				if t, err = time.Parse(time.RFC3339, at); err != nil {
					return fmt.Errorf("error parsing time: %w", err)
				}
			}
			return writeJSON(cmd.OutOrStdout(), lunar.Calculate(t))
		},
	}

	cmd.Flags().StringVar(&at, "time", "", "Instant in RFC3339 format (default now)")
	return cmd
}

func writeJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
