package external

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"aurorawatch/internal/types"
)

// DefaultOpenMeteoBaseURL is the production Open-Meteo endpoint.
const DefaultOpenMeteoBaseURL = "https://api.open-meteo.com"

// openMeteoTimeLayout is the local-naive format Open-Meteo uses for hourly
// and current timestamps.
const openMeteoTimeLayout = "2006-01-02T15:04"

// OpenMeteoClient retrieves cloud cover and day/night conditions for a
// fixed observation site. Open-Meteo returns timestamps in the requested
// timezone without an offset suffix; utc_offset_seconds from the response
// is used to normalise them to UTC.
type OpenMeteoClient struct {
	base      *BaseClient
	baseURL   string
	latitude  float64
	longitude float64
	timezone  string
	logger    *slog.Logger
}

// OpenMeteoClientConfig holds the configuration for creating an
// OpenMeteoClient.
type OpenMeteoClientConfig struct {
	// BaseURL overrides the production endpoint, e.g. for tests.
	BaseURL   string
	Latitude  float64
	Longitude float64
	// Timezone is passed through to the API, e.g. "Europe/Warsaw" or "auto".
	Timezone string
	Logger   *slog.Logger
}

// NewOpenMeteoClient creates an OpenMeteoClient on top of the given
// resilient client.
func NewOpenMeteoClient(base *BaseClient, cfg OpenMeteoClientConfig) *OpenMeteoClient {
	baseURL := cfg.BaseURL
	if baseURL == "" {
		baseURL = DefaultOpenMeteoBaseURL
	}
	tz := cfg.Timezone
	if tz == "" {
		tz = "auto"
	}
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &OpenMeteoClient{
		base:      base,
		baseURL:   strings.TrimRight(baseURL, "/"),
		latitude:  cfg.Latitude,
		longitude: cfg.Longitude,
		timezone:  tz,
		logger:    logger,
	}
}

type openMeteoCurrent struct {
	Time       string  `json:"time"`
	CloudCover float64 `json:"cloud_cover"`
	IsDay      int     `json:"is_day"`
}

type openMeteoHourly struct {
	Time       []string  `json:"time"`
	CloudCover []float64 `json:"cloud_cover"`
	IsDay      []int     `json:"is_day"`
}

type openMeteoResponse struct {
	UTCOffsetSeconds int               `json:"utc_offset_seconds"`
	Current          *openMeteoCurrent `json:"current"`
	Hourly           *openMeteoHourly  `json:"hourly"`
}

// FetchCurrentSky returns the sky conditions at the site right now.
func (c *OpenMeteoClient) FetchCurrentSky(ctx context.Context) (types.SkySample, error) {
	query := c.siteQuery()
	query.Set("current", "cloud_cover,is_day")

	resp, err := c.getForecast(ctx, query)
	if err != nil {
		return types.SkySample{}, err
	}
	if resp.Current == nil {
		return types.SkySample{}, types.NewAppError(types.ErrCodeUpstreamSky,
			"response missing current block", nil)
	}

	ts, err := parseLocalTime(resp.Current.Time, resp.UTCOffsetSeconds)
	if err != nil {
		return types.SkySample{}, types.NewAppError(types.ErrCodeUpstreamSky,
			"parsing current observation time", err)
	}
	return types.SkySample{
		Timestamp:     ts,
		IsNight:       resp.Current.IsDay == 0,
		CloudFraction: resp.Current.CloudCover,
	}, nil
}

// FetchForecastSky returns hourly sky conditions covering the next two
// days, enough to evaluate witnesses around any peak inside the forecast
// horizon.
func (c *OpenMeteoClient) FetchForecastSky(ctx context.Context) ([]types.SkySample, error) {
	query := c.siteQuery()
	query.Set("hourly", "cloud_cover,is_day")
	query.Set("forecast_days", "2")

	resp, err := c.getForecast(ctx, query)
	if err != nil {
		return nil, err
	}
	if resp.Hourly == nil {
		return nil, types.NewAppError(types.ErrCodeUpstreamSky,
			"response missing hourly block", nil)
	}

	h := resp.Hourly
	if len(h.CloudCover) != len(h.Time) || len(h.IsDay) != len(h.Time) {
		return nil, types.NewAppError(types.ErrCodeUpstreamSky,
			fmt.Sprintf("hourly arrays misaligned: %d times, %d cloud, %d is_day",
				len(h.Time), len(h.CloudCover), len(h.IsDay)), nil)
	}

	samples := make([]types.SkySample, 0, len(h.Time))
	for i, raw := range h.Time {
		ts, err := parseLocalTime(raw, resp.UTCOffsetSeconds)
		if err != nil {
			c.logger.WarnContext(ctx, "skipping hourly sample with bad timestamp",
				slog.String("time", raw))
			continue
		}
		samples = append(samples, types.SkySample{
			Timestamp:     ts,
			IsNight:       h.IsDay[i] == 0,
			CloudFraction: h.CloudCover[i],
		})
	}
	return samples, nil
}

func (c *OpenMeteoClient) siteQuery() url.Values {
	query := url.Values{}
	query.Set("latitude", strings.TrimRight(strings.TrimRight(fmt.Sprintf("%.4f", c.latitude), "0"), "."))
	query.Set("longitude", strings.TrimRight(strings.TrimRight(fmt.Sprintf("%.4f", c.longitude), "0"), "."))
	query.Set("timezone", c.timezone)
	return query
}

func (c *OpenMeteoClient) getForecast(ctx context.Context, query url.Values) (*openMeteoResponse, error) {
	endpoint := c.baseURL + "/v1/forecast?" + query.Encode()
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, types.NewAppError(types.ErrCodeUpstreamSky, "building Open-Meteo request", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.base.Do(req)
	if err != nil {
		return nil, types.NewAppError(types.ErrCodeUpstreamSky, "fetching sky conditions", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, types.NewAppError(types.ErrCodeUpstreamSky,
			fmt.Sprintf("Open-Meteo returned %d", resp.StatusCode), nil)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, types.NewAppError(types.ErrCodeUpstreamSky, "reading Open-Meteo response", err)
	}
	var decoded openMeteoResponse
	if err := json.Unmarshal(body, &decoded); err != nil {
		return nil, types.NewAppError(types.ErrCodeUpstreamSky, "decoding Open-Meteo response", err)
	}
	return &decoded, nil
}

// parseLocalTime converts a local-naive Open-Meteo timestamp to UTC using
// the response's UTC offset.
func parseLocalTime(raw string, offsetSeconds int) (time.Time, error) {
	ts, err := time.Parse(openMeteoTimeLayout, raw)
	if err != nil {
		return time.Time{}, err
	}
	return ts.Add(-time.Duration(offsetSeconds) * time.Second).UTC(), nil
}
