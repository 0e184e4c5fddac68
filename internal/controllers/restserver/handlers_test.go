package restserver

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/vmihailenco/msgpack/v5"
	"go.uber.org/zap"

	"github.com/chrissnell/planetaryhours/internal/hourapi"
	"github.com/chrissnell/planetaryhours/internal/planetary"
	"github.com/chrissnell/planetaryhours/internal/service"
	"github.com/chrissnell/planetaryhours/pkg/config"
	"github.com/chrissnell/planetaryhours/pkg/responseformat"
	"github.com/chrissnell/planetaryhours/pkg/solar"
)

// stubService records the last request and returns err when set
type stubService struct {
	err error

	hours   service.HoursRequest
	percent service.PercentRequest
	equiv   service.EquivalentRequest
	between service.BetweenRequest
}

func (s *stubService) GetPlanetaryHours(_ context.Context, req service.HoursRequest) (*service.HoursResponse, error) {
	s.hours = req
	if s.err != nil {
		return nil, s.err
	}
	return &service.HoursResponse{Date: "2024-03-20"}, nil
}

func (s *stubService) GetCurrentPercentage(_ context.Context, req service.PercentRequest) (*service.PercentResponse, error) {
	s.percent = req
	if s.err != nil {
		return nil, s.err
	}
	return &service.PercentResponse{Percentage: "42.00"}, nil
}

func (s *stubService) MapEquivalentPercents(_ context.Context, req service.EquivalentRequest) (*planetary.MappingResult, error) {
	s.equiv = req
	return &planetary.MappingResult{Date: "2024-03-20"}, s.err
}

func (s *stubService) MapEquivalentPercentsBetweenLocations(_ context.Context, req service.BetweenRequest) (*planetary.MappingResult, error) {
	s.between = req
	return &planetary.MappingResult{Date: "2024-03-20"}, s.err
}

func newTestController(t *testing.T, svc PlanetaryService) *Controller {
	t.Helper()
	ctrl, err := NewController(context.Background(), &sync.WaitGroup{}, config.ServerData{RequestTimeout: time.Second}, svc, zap.NewNop().Sugar())
	require.NoError(t, err)
	return ctrl
}

func serve(ctrl *Controller, target string) *httptest.ResponseRecorder {
	rec := httptest.NewRecorder()
	ctrl.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, target, nil))
	return rec
}

func TestNewControllerDefaults(t *testing.T) {
	ctrl := newTestController(t, &stubService{})
	assert.Equal(t, "0.0.0.0:8080", ctrl.Server.Addr)

	_, err := NewController(context.Background(), &sync.WaitGroup{}, config.ServerData{}, nil, nil)
	assert.Error(t, err)
}

func TestGetHoursParsesQuery(t *testing.T) {
	svc := &stubService{}
	ctrl := newTestController(t, svc)

	rec := serve(ctrl, "/api/hours?coefficient=1.5&lat=29.43&lon=-98.66&midpoint=true&offset=2&use_offset=false&use_elevation=1&elevation=210&tz_offset=-300&calibrate=true&anchors=0,0.5,%201")
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))
	assert.NotEmpty(t, rec.Header().Get(RequestIDHeader))

	r := svc.hours
	assert.Equal(t, 1.5, r.Coefficient)
	assert.Equal(t, 29.43, *r.Latitude)
	assert.Equal(t, -98.66, *r.Longitude)
	assert.True(t, r.UseMidpointCoefficient)
	assert.Equal(t, 2.0, *r.OffsetPercent)
	assert.False(t, *r.UseOffset)
	assert.True(t, r.UseElevation)
	assert.Equal(t, 210.0, *r.Elevation)
	assert.Equal(t, -300, *r.TZOffsetMinutes)
	assert.True(t, r.Calibrate)
	assert.Equal(t, []float64{0, 0.5, 1}, r.Anchors)
}

func TestGetHoursDefaults(t *testing.T) {
	svc := &stubService{}
	rec := serve(newTestController(t, svc), "/api/hours?coefficient=0")
	require.Equal(t, http.StatusOK, rec.Code)

	r := svc.hours
	assert.Nil(t, r.Latitude)
	assert.Nil(t, r.OffsetPercent)
	assert.Nil(t, r.UseOffset)
	assert.Nil(t, r.TZOffsetMinutes)
	assert.False(t, r.UseElevation)
	assert.Nil(t, r.Anchors)
}

func TestBadQuery(t *testing.T) {
	tests := []struct {
		target string
		field  string
	}{
		{"/api/hours", "coefficient"},
		{"/api/hours?coefficient=abc", "coefficient"},
		{"/api/hours?coefficient=1&lat=north", "lat"},
		{"/api/hours?coefficient=1&midpoint=maybe", "midpoint"},
		{"/api/hours?coefficient=1&anchors=0,x", "anchors"},
		{"/api/percentage?tz_offset=1.5", "tz_offset"},
		{"/api/equivalent/between?old_lat=1&old_lon=2&new_lat=3", "new_lon"},
	}

	for _, tt := range tests {
		t.Run(tt.target, func(t *testing.T) {
			rec := serve(newTestController(t, &stubService{}), tt.target)
			require.Equal(t, http.StatusBadRequest, rec.Code)

			var body responseformat.ErrorBody
			require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
			assert.Contains(t, body.Fields, tt.field)
			assert.NotEmpty(t, body.RequestID)
		})
	}
}

func TestErrorStatus(t *testing.T) {
	tests := []struct {
		name      string
		err       error
		status    int
		retryable bool
	}{
		{"validation", &service.ValidationError{Fields: map[string]string{"lat": "must be <= 90"}}, http.StatusBadRequest, false},
		{"polar day", fmt.Errorf("sun times: %w", solar.ErrPolarDay), http.StatusUnprocessableEntity, false},
		{"polar night", solar.ErrPolarNight, http.StatusUnprocessableEntity, false},
		{"upstream", fmt.Errorf("fetching hour rulers: %w", hourapi.ErrUpstream), http.StatusBadGateway, true},
		{"timeout", context.DeadlineExceeded, http.StatusGatewayTimeout, true},
		{"other", fmt.Errorf("boom"), http.StatusInternalServerError, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := serve(newTestController(t, &stubService{err: tt.err}), "/api/percentage?time=12:00&is_day=true")
			assert.Equal(t, tt.status, rec.Code)

			var body responseformat.ErrorBody
			require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
			assert.Equal(t, tt.retryable, body.Retryable)
		})
	}
}

func TestGetEquivalentBetween(t *testing.T) {
	svc := &stubService{}
	rec := serve(newTestController(t, svc), "/api/equivalent/between?old_lat=29.43&old_lon=-98.66&new_lat=29.61&new_lon=-98.48&new_elevation=400")
	require.Equal(t, http.StatusOK, rec.Code)

	assert.Equal(t, 29.43, svc.between.Old.Latitude)
	assert.Nil(t, svc.between.Old.Elevation)
	assert.Equal(t, 400.0, *svc.between.New.Elevation)
}

func TestMsgPackAndRequestID(t *testing.T) {
	ctrl := newTestController(t, &stubService{})

	req := httptest.NewRequest(http.MethodGet, "/api/percentage?format=msgpack", nil)
	id := "0b7d1c1e-5a8e-4d2f-9c55-0f8f1e2d3c4b"
	req.Header.Set(RequestIDHeader, id)
	rec := httptest.NewRecorder()
	ctrl.Handler().ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, responseformat.ContentTypeMsgPack, rec.Header().Get("Content-Type"))
	assert.Equal(t, id, rec.Header().Get(RequestIDHeader))

	var out map[string]any
	require.NoError(t, msgpack.Unmarshal(rec.Body.Bytes(), &out))
	assert.Equal(t, "42.00", out["percentage"])
}

func TestRoutes(t *testing.T) {
	ctrl := newTestController(t, &stubService{})

	assert.Equal(t, http.StatusOK, serve(ctrl, "/healthz").Code)
	assert.Equal(t, http.StatusOK, serve(ctrl, "/api/equivalent").Code)
	assert.Equal(t, http.StatusNotFound, serve(ctrl, "/api/nope").Code)

	rec := httptest.NewRecorder()
	ctrl.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/api/hours?coefficient=1", nil))
	assert.Equal(t, http.StatusMethodNotAllowed, rec.Code)
}

func TestEndToEnd(t *testing.T) {
	svc := service.New(nil, nil, nil, service.Defaults{Latitude: 0, Longitude: 0, OffsetPercent: 1.5, UseOffset: true},
		service.WithClock(func() time.Time { return time.Date(2024, time.March, 20, 9, 0, 0, 0, time.UTC) }))
	ctrl := newTestController(t, svc)

	rec := serve(ctrl, "/api/hours?coefficient=1.5")
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	var hours service.HoursResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &hours))
	assert.Equal(t, "2024-03-20", hours.Date)
	require.NotEmpty(t, hours.Hours)
	for _, h := range hours.Hours {
		assert.Len(t, h.Markers, 21)
		assert.NotEmpty(t, h.Ruler)
	}

	rec = serve(ctrl, "/api/percentage?time=12:00:00&is_day=true")
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	var pct service.PercentResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &pct))
	assert.NotEqual(t, planetary.NotApplicable, pct.Percentage)

	rec = serve(ctrl, "/api/percentage?time=23:00&is_day=true")
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &pct))
	assert.Equal(t, planetary.NotApplicable, pct.Percentage)

	rec = serve(ctrl, "/api/hours?coefficient=1&lat=89.9&lon=0&tz_offset=0")
	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)
}
