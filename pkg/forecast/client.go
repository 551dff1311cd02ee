// Package forecast fetches daily weather forecasts from an Open-Meteo
// compatible API. Responses are validated for a non-empty, consistent
// daily series before being returned, so the cache layer never stores a
// half-formed payload.
package forecast

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

	"github.com/pjbaur/potaplan/pkg/stores"
	"github.com/pjbaur/potaplan/pkg/telemetry"
)

// ErrorKind classifies forecast fetch failures.
type ErrorKind string

const (
	ErrKindTimeout ErrorKind = "TIMEOUT"
	ErrKindNetwork ErrorKind = "NETWORK_ERROR"
	ErrKindDecode  ErrorKind = "DECODE_ERROR"
)

// FetchError is a classified forecast client error.
type FetchError struct {
	Kind ErrorKind
	Op   string
	Err  error
}

// Error implements the error interface.
func (e *FetchError) Error() string {
	return fmt.Sprintf("[%s] %s: %s", e.Kind, e.Op, e.Err.Error())
}

// Unwrap returns the underlying error.
func (e *FetchError) Unwrap() error {
	return e.Err
}

// IsTimeout returns true if the error is a timeout outcome.
func IsTimeout(err error) bool {
	var e *FetchError
	if errors.As(err, &e) {
		return e.Kind == ErrKindTimeout
	}
	return false
}

// IsDecode returns true if the error is a decode or validation failure.
func IsDecode(err error) bool {
	var e *FetchError
	if errors.As(err, &e) {
		return e.Kind == ErrKindDecode
	}
	return false
}

// Day is one validated day of forecast data.
type Day struct {
	Date            string  `json:"date"`
	TempMaxC        float64 `json:"temp_max_c"`
	TempMinC        float64 `json:"temp_min_c"`
	PrecipitationMM float64 `json:"precip_mm"`
	PrecipChancePct int     `json:"precip_chance_pct"`
	WindMaxKmh      float64 `json:"wind_max_kmh"`
}

// Forecast is a validated multi-day forecast for one coordinate.
type Forecast struct {
	Latitude  float64
	Longitude float64
	Days      []Day
	FetchedAt time.Time
}

// Client talks to an Open-Meteo compatible forecast API.
type Client struct {
	baseURL string
	http    *http.Client
	log     *telemetry.Logger
}

// NewClient creates a forecast client with a fixed wall-clock timeout.
func NewClient(baseURL string, timeout time.Duration, log *telemetry.Logger) *Client {
	return &Client{
		baseURL: baseURL,
		http:    &http.Client{Timeout: timeout},
		log:     log.NewComponentLogger("forecast"),
	}
}

// openMeteoResponse is the wire shape of the daily forecast endpoint.
type openMeteoResponse struct {
	Daily struct {
		Time                        []string  `json:"time"`
		Temperature2mMax            []float64 `json:"temperature_2m_max"`
		Temperature2mMin            []float64 `json:"temperature_2m_min"`
		PrecipitationSum            []float64 `json:"precipitation_sum"`
		PrecipitationProbabilityMax []int     `json:"precipitation_probability_max"`
		WindSpeed10mMax             []float64 `json:"wind_speed_10m_max"`
	} `json:"daily"`
}

// Fetch retrieves up to days daily forecasts for one coordinate.
func (c *Client) Fetch(ctx context.Context, latitude, longitude float64, days int) (*Forecast, error) {
	query := url.Values{}
	query.Set("latitude", strconv.FormatFloat(latitude, 'f', 4, 64))
	query.Set("longitude", strconv.FormatFloat(longitude, 'f', 4, 64))
	query.Set("daily", "temperature_2m_max,temperature_2m_min,precipitation_sum,precipitation_probability_max,wind_speed_10m_max")
	query.Set("forecast_days", strconv.Itoa(days))
	query.Set("timezone", "UTC")
	endpoint := fmt.Sprintf("%s/v1/forecast?%s", c.baseURL, query.Encode())

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, &FetchError{Kind: ErrKindNetwork, Op: "build request", Err: err}
	}

	resp, err := c.http.Do(req)
	if err != nil {
		kind := ErrKindNetwork
		var netErr net.Error
		if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled) ||
			(errors.As(err, &netErr) && netErr.Timeout()) {
			kind = ErrKindTimeout
		}
		return nil, &FetchError{Kind: kind, Op: "fetch forecast", Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, &FetchError{
			Kind: ErrKindNetwork,
			Op:   "fetch forecast",
			Err:  fmt.Errorf("forecast API returned status %d", resp.StatusCode),
		}
	}

	var body openMeteoResponse
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return nil, &FetchError{Kind: ErrKindDecode, Op: "decode forecast", Err: err}
	}

	forecast, err := body.toForecast(latitude, longitude)
	if err != nil {
		return nil, &FetchError{Kind: ErrKindDecode, Op: "validate forecast", Err: err}
	}
	return forecast, nil
}

// toForecast validates the daily series: it must be non-empty and every
// parallel array must cover every day.
func (r openMeteoResponse) toForecast(latitude, longitude float64) (*Forecast, error) {
	d := r.Daily
	n := len(d.Time)
	if n == 0 {
		return nil, fmt.Errorf("daily series is empty")
	}
	if len(d.Temperature2mMax) != n || len(d.Temperature2mMin) != n ||
		len(d.PrecipitationSum) != n || len(d.WindSpeed10mMax) != n {
		return nil, fmt.Errorf("daily series arrays have mismatched lengths")
	}

	forecast := &Forecast{
		Latitude:  latitude,
		Longitude: longitude,
		Days:      make([]Day, 0, n),
		FetchedAt: time.Now(),
	}
	for i := 0; i < n; i++ {
		day := Day{
			Date:            d.Time[i],
			TempMaxC:        d.Temperature2mMax[i],
			TempMinC:        d.Temperature2mMin[i],
			PrecipitationMM: d.PrecipitationSum[i],
			WindMaxKmh:      d.WindSpeed10mMax[i],
		}
		if i < len(d.PrecipitationProbabilityMax) {
			day.PrecipChancePct = d.PrecipitationProbabilityMax[i]
		}
		forecast.Days = append(forecast.Days, day)
	}
	return forecast, nil
}

// CacheEntries serializes each forecast day into a weather cache entry
// expiring ttl after the fetch.
func CacheEntries(f *Forecast, ttl time.Duration) ([]*stores.WeatherCacheEntry, error) {
	entries := make([]*stores.WeatherCacheEntry, 0, len(f.Days))
	for _, day := range f.Days {
		data, err := json.Marshal(day)
		if err != nil {
			return nil, fmt.Errorf("serialize forecast day %s: %w", day.Date, err)
		}
		entries = append(entries, &stores.WeatherCacheEntry{
			Latitude:     f.Latitude,
			Longitude:    f.Longitude,
			ForecastDate: day.Date,
			Data:         string(data),
			FetchedAt:    f.FetchedAt,
			ExpiresAt:    f.FetchedAt.Add(ttl),
		})
	}
	return entries, nil
}
