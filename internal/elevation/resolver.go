// Package elevation looks up ground elevation for a coordinate from an
// Open-Elevation compatible HTTP service.
package elevation

import (
	"context"
	"encoding/json"
	"fmt"
	"math"
	"net/http"
	"net/url"
	"strconv"
	"sync"
	"time"

	"go.uber.org/zap"
	"golang.org/x/time/rate"
)

// DefaultURL is the public Open-Elevation lookup endpoint
const DefaultURL = "https://api.open-elevation.com/api/v1/lookup"

const (
	defaultTimeout   = 5 * time.Second
	defaultRate      = 2.0
	maxCachedEntries = 4096
)

// Config controls the resolver's endpoint and outbound request budget.
type Config struct {
	URL               string
	Timeout           time.Duration
	RequestsPerSecond float64
}

type lookupResponse struct {
	Results []struct {
		Latitude  float64 `json:"latitude"`
		Longitude float64 `json:"longitude"`
		Elevation float64 `json:"elevation"`
	} `json:"results"`
}

type cacheKey struct {
	lat, lon int64
}

// Resolver fetches elevations in meters. Failures resolve to sea level.
type Resolver struct {
	baseURL    string
	httpClient *http.Client
	limiter    *rate.Limiter
	logger     *zap.SugaredLogger

	mu    sync.Mutex
	cache map[cacheKey]float64
}

// NewResolver creates a Resolver. Zero Config fields take the package defaults.
func NewResolver(cfg Config, logger *zap.SugaredLogger) *Resolver {
	if cfg.URL == "" {
		cfg.URL = DefaultURL
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = defaultTimeout
	}
	if cfg.RequestsPerSecond <= 0 {
		cfg.RequestsPerSecond = defaultRate
	}
	if logger == nil {
		logger = zap.NewNop().Sugar()
	}

	return &Resolver{
		baseURL:    cfg.URL,
		httpClient: &http.Client{Timeout: cfg.Timeout},
		limiter:    rate.NewLimiter(rate.Limit(cfg.RequestsPerSecond), 1),
		logger:     logger,
		cache:      make(map[cacheKey]float64),
	}
}

// Resolve returns the elevation at latitude, longitude. Any lookup failure is
// logged and reported as 0.
func (r *Resolver) Resolve(ctx context.Context, latitude, longitude float64) float64 {
	key := keyFor(latitude, longitude)
	if v, ok := r.cached(key); ok {
		return v
	}

	v, err := r.fetch(ctx, latitude, longitude)
	if err != nil {
		r.logger.Warnw("elevation lookup failed, using sea level",
			"latitude", latitude, "longitude", longitude, "error", err)
		return 0
	}

	r.store(key, v)
	return v
}

func (r *Resolver) fetch(ctx context.Context, latitude, longitude float64) (float64, error) {
	if err := r.limiter.Wait(ctx); err != nil {
		return 0, fmt.Errorf("rate limiter: %w", err)
	}

	v := url.Values{}
	v.Set("locations", strconv.FormatFloat(latitude, 'f', -1, 64)+","+strconv.FormatFloat(longitude, 'f', -1, 64))

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, r.baseURL+"?"+v.Encode(), nil)
	if err != nil {
		return 0, fmt.Errorf("error creating elevation request: %w", err)
	}

	r.logger.Debugf("requesting elevation: %v", req.URL)
	resp, err := r.httpClient.Do(req)
	if err != nil {
		return 0, fmt.Errorf("error making elevation request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return 0, fmt.Errorf("elevation service responded with status %s", resp.Status)
	}

	var body lookupResponse
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return 0, fmt.Errorf("unable to decode elevation response: %w", err)
	}
	if len(body.Results) == 0 {
		return 0, fmt.Errorf("elevation response has no results")
	}

	elev := body.Results[0].Elevation
	if math.IsNaN(elev) || math.IsInf(elev, 0) {
		return 0, fmt.Errorf("elevation response is not finite: %v", elev)
	}
	return elev, nil
}

// Coordinates are cached at 1e-4 degree (about 11 m) resolution
func keyFor(latitude, longitude float64) cacheKey {
	return cacheKey{
		lat: int64(math.Round(latitude * 1e4)),
		lon: int64(math.Round(longitude * 1e4)),
	}
}

func (r *Resolver) cached(key cacheKey) (float64, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	v, ok := r.cache[key]
	return v, ok
}

func (r *Resolver) store(key cacheKey, v float64) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if len(r.cache) >= maxCachedEntries {
		for k := range r.cache {
			delete(r.cache, k)
			break
		}
	}
	r.cache[key] = v
}
