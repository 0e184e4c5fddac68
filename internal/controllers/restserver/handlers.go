package restserver

import (
	"context"
	"errors"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/chrissnell/planetaryhours/internal/hourapi"
	"github.com/chrissnell/planetaryhours/internal/service"
	"github.com/chrissnell/planetaryhours/pkg/responseformat"
	"github.com/chrissnell/planetaryhours/pkg/solar"
)

// Handlers contains all HTTP handlers for the REST server
type Handlers struct {
	controller *Controller
	formatter  *responseformat.Formatter
}

// NewHandlers creates a new handlers instance
func NewHandlers(ctrl *Controller) *Handlers {
	return &Handlers{
		controller: ctrl,
		formatter:  responseformat.NewFormatter(ctrl.restConfig.EnableCORS),
	}
}

// Healthz reports liveness
func (h *Handlers) Healthz(w http.ResponseWriter, req *http.Request) {
	h.formatter.WriteResponse(w, req, http.StatusOK, map[string]string{"status": "ok"}, nil)
}

// GetHours handles /api/hours
func (h *Handlers) GetHours(w http.ResponseWriter, req *http.Request) {
	q := newQuery(req.URL.Query())
	r := service.HoursRequest{
		Location:               q.location("lat", "lon", "elevation"),
		Coefficient:            q.requiredFloat("coefficient"),
		UseMidpointCoefficient: q.boolean("midpoint"),
		OffsetPercent:          q.float("offset"),
		UseOffset:              q.optionalBool("use_offset"),
		TZOffsetMinutes:        q.integer("tz_offset"),
		Calibrate:              q.boolean("calibrate"),
		Anchors:                q.floats("anchors"),
	}
	if q.failed(h, w, req) {
		return
	}

	resp, err := h.controller.service.GetPlanetaryHours(req.Context(), r)
	h.respond(w, req, resp, err)
}

// GetPercentage handles /api/percentage
func (h *Handlers) GetPercentage(w http.ResponseWriter, req *http.Request) {
	q := newQuery(req.URL.Query())
	r := service.PercentRequest{
		Location:        q.location("lat", "lon", "elevation"),
		Time:            q.values.Get("time"),
		IsDay:           q.boolean("is_day"),
		TZOffsetMinutes: q.integer("tz_offset"),
	}
	if q.failed(h, w, req) {
		return
	}

	resp, err := h.controller.service.GetCurrentPercentage(req.Context(), r)
	h.respond(w, req, resp, err)
}

// GetEquivalent handles /api/equivalent
func (h *Handlers) GetEquivalent(w http.ResponseWriter, req *http.Request) {
	q := newQuery(req.URL.Query())
	r := service.EquivalentRequest{
		Location:        q.location("lat", "lon", "elevation"),
		Anchors:         q.floats("anchors"),
		TZOffsetMinutes: q.integer("tz_offset"),
	}
	if q.failed(h, w, req) {
		return
	}

	resp, err := h.controller.service.MapEquivalentPercents(req.Context(), r)
	h.respond(w, req, resp, err)
}

// GetEquivalentBetween handles /api/equivalent/between
func (h *Handlers) GetEquivalentBetween(w http.ResponseWriter, req *http.Request) {
	q := newQuery(req.URL.Query())
	r := service.BetweenRequest{
		Old: service.Endpoint{
			Latitude:  q.requiredFloat("old_lat"),
			Longitude: q.requiredFloat("old_lon"),
			Elevation: q.float("old_elevation"),
		},
		New: service.Endpoint{
			Latitude:  q.requiredFloat("new_lat"),
			Longitude: q.requiredFloat("new_lon"),
			Elevation: q.float("new_elevation"),
		},
		Anchors:         q.floats("anchors"),
		TZOffsetMinutes: q.integer("tz_offset"),
	}
	if q.failed(h, w, req) {
		return
	}

	resp, err := h.controller.service.MapEquivalentPercentsBetweenLocations(req.Context(), r)
	h.respond(w, req, resp, err)
}

func (h *Handlers) respond(w http.ResponseWriter, req *http.Request, data any, err error) {
	if err != nil {
		h.writeError(w, req, err)
		return
	}
	if err := h.formatter.WriteResponse(w, req, http.StatusOK, data, nil); err != nil {
		h.controller.logger.Errorw("error encoding response", "error", err, "request_id", requestIDFromContext(req.Context()))
	}
}

// writeError maps service errors to HTTP statuses
func (h *Handlers) writeError(w http.ResponseWriter, req *http.Request, err error) {
	body := responseformat.ErrorBody{Error: err.Error(), RequestID: requestIDFromContext(req.Context())}
	status := http.StatusInternalServerError

	var verr *service.ValidationError
	switch {
	case errors.As(err, &verr):
		status = http.StatusBadRequest
		body.Error = "invalid request"
		body.Fields = verr.Fields
	case errors.Is(err, solar.ErrPolarDay), errors.Is(err, solar.ErrPolarNight):
		status = http.StatusUnprocessableEntity
	case errors.Is(err, hourapi.ErrUpstream):
		status = http.StatusBadGateway
		body.Error = "planetary hour data is temporarily unavailable, try again"
		body.Retryable = true
	case errors.Is(err, context.DeadlineExceeded):
		status = http.StatusGatewayTimeout
		body.Retryable = true
	}

	if status >= http.StatusInternalServerError {
		h.controller.logger.Errorw("request failed", "error", err, "status", status, "request_id", body.RequestID)
	}
	h.formatter.WriteError(w, req, status, body)
}

// query parses typed query parameters and collects per-field errors
type query struct {
	values url.Values
	errs   map[string]string
}

func newQuery(v url.Values) *query {
	return &query{values: v, errs: map[string]string{}}
}

func (q *query) failed(h *Handlers, w http.ResponseWriter, req *http.Request) bool {
	if len(q.errs) == 0 {
		return false
	}
	h.writeError(w, req, &service.ValidationError{Fields: q.errs})
	return true
}

func (q *query) float(name string) *float64 {
	s := q.values.Get(name)
	if s == "" {
		return nil
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		q.errs[name] = "must be a number"
		return nil
	}
	return &v
}

func (q *query) requiredFloat(name string) float64 {
	if !q.values.Has(name) {
		q.errs[name] = "is required"
		return 0
	}
	if v := q.float(name); v != nil {
		return *v
	}
	if _, ok := q.errs[name]; !ok {
		q.errs[name] = "is required"
	}
	return 0
}

func (q *query) integer(name string) *int {
	s := q.values.Get(name)
	if s == "" {
		return nil
	}
	v, err := strconv.Atoi(s)
	if err != nil {
		q.errs[name] = "must be an integer"
		return nil
	}
	return &v
}

func (q *query) optionalBool(name string) *bool {
	s := q.values.Get(name)
	if s == "" {
		return nil
	}
	v, err := strconv.ParseBool(s)
	if err != nil {
		q.errs[name] = "must be true or false"
		return nil
	}
	return &v
}

func (q *query) boolean(name string) bool {
	v := q.optionalBool(name)
	return v != nil && *v
}

func (q *query) floats(name string) []float64 {
	s := q.values.Get(name)
	if s == "" {
		return nil
	}
	parts := strings.Split(s, ",")
	out := make([]float64, 0, len(parts))
	for _, p := range parts {
		v, err := strconv.ParseFloat(strings.TrimSpace(p), 64)
		if err != nil {
			q.errs[name] = "must be a comma separated list of numbers"
			return nil
		}
		out = append(out, v)
	}
	return out
}

func (q *query) location(lat, lon, elevation string) service.Location {
	return service.Location{
		Latitude:     q.float(lat),
		Longitude:    q.float(lon),
		UseElevation: q.boolean("use_elevation"),
		Elevation:    q.float(elevation),
	}
}
