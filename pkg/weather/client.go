package weather

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"time"
)

// Client is the interface for weather provider lookups
type Client interface {
	// Current returns the current conditions and today's astronomy for a query
	Current(ctx context.Context, query string) (*Report, error)

	// Health checks if the provider is reachable
	Health(ctx context.Context) error
}

// Report is the subset of a provider response the sky agent consumes
type Report struct {
	Location  string    `json:"location"`
	Condition string    `json:"condition"`
	Code      int       `json:"code"`
	IsDay     bool      `json:"is_day"`
	Sunrise   string    `json:"sunrise"`
	Sunset    string    `json:"sunset"`
	UpdatedAt time.Time `json:"updated_at"`
}

// forecastResponse mirrors the WeatherAPI.com forecast.json payload
type forecastResponse struct {
	Location struct {
		Name string `json:"name"`
	} `json:"location"`
	Current struct {
		LastUpdatedEpoch int64 `json:"last_updated_epoch"`
		IsDay            int   `json:"is_day"`
		Condition        struct {
			Text string `json:"text"`
			Code int    `json:"code"`
		} `json:"condition"`
	} `json:"current"`
	Forecast struct {
		ForecastDay []struct {
			Astro struct {
				Sunrise string `json:"sunrise"`
				Sunset  string `json:"sunset"`
			} `json:"astro"`
		} `json:"forecastday"`
	} `json:"forecast"`
}

// apiClient implements Client for a WeatherAPI.com-compatible endpoint
type apiClient struct {
	baseURL    string
	apiKey     string
	httpClient *http.Client
	logger     *slog.Logger
}

// NewClient creates a new weather provider client
func NewClient(baseURL, apiKey string, logger *slog.Logger) Client {
	return &apiClient{
		baseURL: baseURL,
		apiKey:  apiKey,
		httpClient: &http.Client{
			Timeout: 15 * time.Second,
		},
		logger: logger,
	}
}

// Current fetches forecast.json for today and reduces it to a Report
func (c *apiClient) Current(ctx context.Context, query string) (*Report, error) {
	if query == "" {
		return nil, fmt.Errorf("query is required")
	}
	startTime := time.Now()

	params := url.Values{}
	params.Set("key", c.apiKey)
	params.Set("q", query)
	params.Set("days", "1")
	params.Set("aqi", "no")
	params.Set("alerts", "no")

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodGet,
		c.baseURL+"/forecast.json?"+params.Encode(), nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create HTTP request: %w", err)
	}

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("HTTP request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 1024))
		return nil, fmt.Errorf("weather provider returned status %d: %s", resp.StatusCode, string(body))
	}

	var fr forecastResponse
	if err := json.NewDecoder(resp.Body).Decode(&fr); err != nil {
		return nil, fmt.Errorf("failed to decode response: %w", err)
	}

	report := &Report{
		Location:  fr.Location.Name,
		Condition: fr.Current.Condition.Text,
		Code:      fr.Current.Condition.Code,
		IsDay:     fr.Current.IsDay == 1,
	}
	if fr.Current.LastUpdatedEpoch > 0 {
		report.UpdatedAt = time.Unix(fr.Current.LastUpdatedEpoch, 0)
	} else {
		report.UpdatedAt = time.Now()
	}
	if len(fr.Forecast.ForecastDay) > 0 {
		report.Sunrise = fr.Forecast.ForecastDay[0].Astro.Sunrise
		report.Sunset = fr.Forecast.ForecastDay[0].Astro.Sunset
	}

	c.logger.Debug("Weather report received",
		"query", query,
		"condition", report.Condition,
		"code", report.Code,
		"duration_ms", time.Since(startTime).Milliseconds())

	return report, nil
}

// Health checks that the provider answers at all. Any HTTP response below
// 500 counts as reachable since an unauthenticated request may be rejected.
func (c *apiClient) Health(ctx context.Context) error {
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL, nil)
	if err != nil {
		return fmt.Errorf("failed to create health check request: %w", err)
	}

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return fmt.Errorf("health check failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= http.StatusInternalServerError {
		return fmt.Errorf("health check returned status %d", resp.StatusCode)
	}

	return nil
}

// MockClient is a mock weather client for testing
type MockClient struct {
	CurrentFunc func(ctx context.Context, query string) (*Report, error)
	HealthFunc  func(ctx context.Context) error
}

func (m *MockClient) Current(ctx context.Context, query string) (*Report, error) {
	if m.CurrentFunc != nil {
		return m.CurrentFunc(ctx, query)
	}
	return &Report{
		Location:  query,
		Condition: "Sunny",
		Code:      1000,
		IsDay:     true,
		Sunrise:   "06:00 AM",
		Sunset:    "06:00 PM",
		UpdatedAt: time.Now(),
	}, nil
}

func (m *MockClient) Health(ctx context.Context) error {
	if m.HealthFunc != nil {
		return m.HealthFunc(ctx)
	}
	return nil
}

// NewMockClient creates a mock client with default behavior
func NewMockClient() *MockClient {
	return &MockClient{}
}
