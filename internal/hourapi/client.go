// Package hourapi fetches planetary hour rulers from a planetaryhoursapi.com
// compatible service.
package hourapi

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"sort"
	"strconv"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/chrissnell/planetaryhours/internal/planetary"
)

// DefaultURL is the public API base
const DefaultURL = "https://www.planetaryhoursapi.com/api"

// ErrUpstream marks any failure to obtain usable data from the hours service.
var ErrUpstream = errors.New("planetary hours service unavailable")

// Response mirrors the service payload. Only the fields used for hour naming
// are decoded.
type Response struct {
	Response struct {
		General    General         `json:"General"`
		Solar      Solar           `json:"Solar"`
		Lunar      Lunar           `json:"Lunar"`
		SolarHours map[string]Hour `json:"SolarHours"`
		LunarHours map[string]Hour `json:"LunarHours"`
	} `json:"Response"`
}

// General is the date and weekday block of a response.
type General struct {
	Date           string  `json:"Date"`
	DayOfTheWeek   string  `json:"DayOfTheWeek"`
	PlanetaryRuler string  `json:"PlanetaryRuler"`
	TimezoneOffset float64 `json:"TimezoneOffset"`
}

// Solar holds the daytime sun events as reported upstream.
type Solar struct {
	Sunrise   string `json:"Sunrise"`
	SolarNoon string `json:"SolarNoon"`
	Sunset    string `json:"Sunset"`
	DayLength string `json:"DayLength"`
}

// Lunar holds the night span and moon phase as reported upstream.
type Lunar struct {
	Sunset      string `json:"Sunset"`
	NextSunrise string `json:"NextSunrise"`
	NightLength string `json:"NightLength"`
	MoonPhase   string `json:"MoonPhase"`
}

// Hour is one named planetary hour of a response.
type Hour struct {
	Name  string `json:"Name"`
	Start string `json:"Start"`
	End   string `json:"End"`
	Ruler string `json:"Ruler"`
}

// Client implements planetary.RulerSource over HTTP.
type Client struct {
	baseURL    string
	httpClient *http.Client
	logger     *zap.SugaredLogger
}

// NewClient creates a Client for baseURL (DefaultURL when empty).
func NewClient(baseURL string, timeout time.Duration, logger *zap.SugaredLogger) *Client {
	if baseURL == "" {
		baseURL = DefaultURL
	}
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	if logger == nil {
		logger = zap.NewNop().Sugar()
	}
	return &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{Timeout: timeout},
		logger:     logger,
	}
}

// Fetch retrieves the raw payload for date at latitude, longitude.
func (c *Client) Fetch(ctx context.Context, date string, latitude, longitude float64) (*Response, error) {
	u := fmt.Sprintf("%s/%s/%s,%s", c.baseURL, date,
		strconv.FormatFloat(latitude, 'f', -1, 64), strconv.FormatFloat(longitude, 'f', -1, 64))

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return nil, fmt.Errorf("%w: error creating request: %v", ErrUpstream, err)
	}

	c.logger.Debugf("requesting planetary hours: %v", u)
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUpstream, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("%w: responded with status %s", ErrUpstream, resp.Status)
	}

	var r Response
	if err := json.NewDecoder(resp.Body).Decode(&r); err != nil {
		return nil, fmt.Errorf("%w: unable to decode response: %v", ErrUpstream, err)
	}
	return &r, nil
}

// HourRulers implements planetary.RulerSource
func (c *Client) HourRulers(ctx context.Context, date string, latitude, longitude float64) (planetary.HourRulers, error) {
	r, err := c.Fetch(ctx, date, latitude, longitude)
	if err != nil {
		return planetary.HourRulers{}, err
	}

	var out planetary.HourRulers
	if out.Day, err = orderedRulers(r.Response.SolarHours); err != nil {
		return planetary.HourRulers{}, fmt.Errorf("%w: solar hours: %v", ErrUpstream, err)
	}
	if out.Night, err = orderedRulers(r.Response.LunarHours); err != nil {
		return planetary.HourRulers{}, fmt.Errorf("%w: lunar hours: %v", ErrUpstream, err)
	}
	return out, nil
}

// orderedRulers sorts hours by their ordinal, never by map iteration order.
func orderedRulers(hours map[string]Hour) ([planetary.HoursPerHalf]string, error) {
	var out [planetary.HoursPerHalf]string
	if len(hours) != planetary.HoursPerHalf {
		return out, fmt.Errorf("expected %d hours, got %d", planetary.HoursPerHalf, len(hours))
	}

	type ranked struct {
		ord   int
		ruler string
	}
	list := make([]ranked, 0, len(hours))
	for key, h := range hours {
		ord, ok := ordinal(key)
		if !ok {
			ord, ok = ordinal(h.Name)
		}
		if !ok {
			return out, fmt.Errorf("unrecognised hour %q", key)
		}
		if h.Ruler == "" {
			return out, fmt.Errorf("hour %q has no ruler", key)
		}
		list = append(list, ranked{ord, h.Ruler})
	}
	sort.Slice(list, func(i, j int) bool { return list[i].ord < list[j].ord })

	for i, r := range list {
		if r.ord != i {
			return out, fmt.Errorf("hour %d missing", i+1)
		}
		out[i] = r.ruler
	}
	return out, nil
}

// ordinal maps "3", "Third", "Third Hour" or "ThirdHour" to the zero-based
// index 2. No ordinal word is a prefix of another.
func ordinal(s string) (int, bool) {
	s = strings.TrimSpace(s)
	if n, err := strconv.Atoi(s); err == nil {
		if n >= 1 && n <= planetary.HoursPerHalf {
			return n - 1, true
		}
		return 0, false
	}
	lower := strings.ToLower(s)
	for i := 0; i < planetary.HoursPerHalf; i++ {
		word := strings.ToLower(strings.Fields(planetary.HourName(i))[0])
		if strings.HasPrefix(lower, word) {
			return i, true
		}
	}
	return 0, false
}
