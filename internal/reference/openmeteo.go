// Package reference fetches published sunrise and sunset times so the
// computed solar window can be checked against them when tuning the zenith.
package reference

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"kamera/internal/timestamp"
)

const DefaultBaseURL = "https://api.open-meteo.com/v1/forecast"

// Day holds the reference sunrise and sunset of one date. Either may be zero
// when the sun does not rise or set.
type Day struct {
	Date    timestamp.Date `json:"date"`
	Sunrise time.Time      `json:"sunrise"`
	Sunset  time.Time      `json:"sunset"`
}

type OpenMeteoClient struct {
	baseURL   string
	latitude  float64
	longitude float64
	tz        *time.Location
	client    *http.Client
}

type OpenMeteoConfig struct {
	BaseURL   string
	Latitude  float64
	Longitude float64
	TimeZone  *time.Location
	Timeout   time.Duration
}

func NewOpenMeteoClient(cfg OpenMeteoConfig) *OpenMeteoClient {
	baseURL := cfg.BaseURL
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	tz := cfg.TimeZone
	if tz == nil {
		tz = time.UTC
	}
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &OpenMeteoClient{
		baseURL:   baseURL,
		latitude:  cfg.Latitude,
		longitude: cfg.Longitude,
		tz:        tz,
		client: &http.Client{
			Timeout: timeout,
		},
	}
}

type openMeteoResponse struct {
	Timezone string `json:"timezone"`
	Daily    struct {
		Time    []string `json:"time"`
		Sunrise []string `json:"sunrise"`
		Sunset  []string `json:"sunset"`
	} `json:"daily"`
}

// SunTimes returns the reference sunrise and sunset of every day from from to
// to, both included.
func (c *OpenMeteoClient) SunTimes(ctx context.Context, from, to timestamp.Date) ([]Day, error) {
	if to.Before(from) {
		return nil, fmt.Errorf("open-meteo range %s-%s is reversed", from, to)
	}

	query := url.Values{}
	query.Set("latitude", fmt.Sprintf("%.6f", c.latitude))
	query.Set("longitude", fmt.Sprintf("%.6f", c.longitude))
	query.Set("daily", "sunrise,sunset")
	query.Set("timezone", c.tz.String())
	query.Set("start_date", isoDate(from))
	query.Set("end_date", isoDate(to))

	endpoint, err := url.Parse(c.baseURL)
	if err != nil {
		return nil, fmt.Errorf("open-meteo base url: %w", err)
	}
	endpoint.RawQuery = query.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint.String(), nil)
	if err != nil {
		return nil, fmt.Errorf("open-meteo request: %w", err)
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("open-meteo request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, fmt.Errorf("open-meteo bad status: %s", resp.Status)
	}

	var payload openMeteoResponse
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return nil, fmt.Errorf("open-meteo decode: %w", err)
	}

	daily := payload.Daily
	if len(daily.Sunrise) != len(daily.Time) || len(daily.Sunset) != len(daily.Time) {
		return nil, fmt.Errorf("open-meteo daily arrays differ in length")
	}

	loc := c.tz
	if strings.TrimSpace(payload.Timezone) != "" {
		if parsed, err := time.LoadLocation(payload.Timezone); err == nil {
			loc = parsed
		}
	}

	days := make([]Day, 0, len(daily.Time))
	for i, value := range daily.Time {
		date, err := time.ParseInLocation("2006-01-02", value, loc)
		if err != nil {
			return nil, fmt.Errorf("open-meteo date %q: %w", value, err)
		}
		days = append(days, Day{
			Date:    timestamp.DateOf(date),
			Sunrise: parseOpenMeteoTime(daily.Sunrise[i], loc),
			Sunset:  parseOpenMeteoTime(daily.Sunset[i], loc),
		})
	}
	return days, nil
}

func parseOpenMeteoTime(value string, loc *time.Location) time.Time {
	if t, err := time.ParseInLocation("2006-01-02T15:04", value, loc); err == nil {
		return t
	}
	if t, err := time.ParseInLocation(time.RFC3339, value, loc); err == nil {
		return t
	}
	return time.Time{}
}

func isoDate(d timestamp.Date) string {
	return fmt.Sprintf("%04d-%02d-%02d", d.Year, d.Month, d.Day)
}
