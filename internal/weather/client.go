// Package weather looks up current conditions for a coordinate.
package weather

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/kiranshivaraju/cropadvisor/pkg/models"
	"golang.org/x/time/rate"
)

// Sentinel errors for weather lookups. Callers treat all of them as "no snapshot".
var (
	ErrWeatherUnavailable = errors.New("weather provider unavailable")
	ErrWeatherTimeout     = errors.New("weather lookup timeout")
	ErrThrottled          = errors.New("weather lookups throttled")
)

// Client is the interface for fetching a weather snapshot.
// A nil snapshot with a nil error means the provider had no data.
type Client interface {
	Current(ctx context.Context, lat, lon float64) (*models.WeatherSnapshot, error)
}

// OpenWeatherMap implements Client using the OpenWeatherMap current-weather API.
type OpenWeatherMap struct {
	baseURL string
	apiKey  string
	client  *http.Client
	limiter *rate.Limiter
}

// NewOpenWeatherMap creates a client. requestsPerMin bounds outbound calls to
// stay inside the provider's quota; callers that would exceed it fail fast.
func NewOpenWeatherMap(baseURL, apiKey string, timeout time.Duration, requestsPerMin int) *OpenWeatherMap {
	if requestsPerMin <= 0 {
		requestsPerMin = 60
	}
	return &OpenWeatherMap{
		baseURL: baseURL,
		apiKey:  apiKey,
		client:  &http.Client{Timeout: timeout},
		limiter: rate.NewLimiter(rate.Limit(float64(requestsPerMin)/60.0), requestsPerMin),
	}
}

func (c *OpenWeatherMap) Current(ctx context.Context, lat, lon float64) (*models.WeatherSnapshot, error) {
	if !c.limiter.Allow() {
		return nil, ErrThrottled
	}

	params := url.Values{
		"lat":   {strconv.FormatFloat(lat, 'f', -1, 64)},
		"lon":   {strconv.FormatFloat(lon, 'f', -1, 64)},
		"appid": {c.apiKey},
		"units": {"metric"},
	}
	u := fmt.Sprintf("%s/data/2.5/weather?%s", c.baseURL, params.Encode())

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return nil, fmt.Errorf("building request: %w", err)
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, classifyError(err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotFound {
		return nil, nil
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("%w: status %d", ErrWeatherUnavailable, resp.StatusCode)
	}

	var owm owmResponse
	if err := json.NewDecoder(resp.Body).Decode(&owm); err != nil {
		return nil, fmt.Errorf("%w: decoding response: %v", ErrWeatherUnavailable, err)
	}
	if owm.Main == nil {
		return nil, nil
	}

	label := owm.Name
	if label == "" {
		label = fmt.Sprintf("%.2f, %.2f", lat, lon)
	}

	return &models.WeatherSnapshot{
		Temperature: owm.Main.Temp,
		Humidity:    owm.Main.Humidity,
		Rainfall:    owm.Rain.millimetres(),
		Location:    label,
	}, nil
}

// classifyError maps transport-level errors to sentinel errors.
func classifyError(err error) error {
	if errors.Is(err, context.DeadlineExceeded) {
		return fmt.Errorf("%w: %v", ErrWeatherTimeout, err)
	}
	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return fmt.Errorf("%w: %v", ErrWeatherTimeout, err)
	}
	return fmt.Errorf("%w: %v", ErrWeatherUnavailable, err)
}

// --- OpenWeatherMap response types ---

type owmResponse struct {
	Name string   `json:"name"`
	Main *owmMain `json:"main"`
	Rain owmRain  `json:"rain"`
}

type owmMain struct {
	Temp     float64 `json:"temp"`
	Humidity float64 `json:"humidity"`
}

type owmRain struct {
	OneHour   *float64 `json:"1h"`
	ThreeHour *float64 `json:"3h"`
}

// millimetres prefers the last-hour volume and reports 0 when it is not raining.
func (r owmRain) millimetres() float64 {
	switch {
	case r.OneHour != nil:
		return *r.OneHour
	case r.ThreeHour != nil:
		return *r.ThreeHour
	default:
		return 0
	}
}

// Compile-time check that OpenWeatherMap implements Client.
var _ Client = (*OpenWeatherMap)(nil)
