package weather

import (
	"context"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const forecastFixture = `{
  "location": {"name": "Helsinki"},
  "current": {
    "last_updated_epoch": 1717243200,
    "is_day": 1,
    "condition": {"text": "Patchy light rain with thunder", "code": 1273}
  },
  "forecast": {"forecastday": [{"astro": {"sunrise": "03:58 AM", "sunset": "10:37 PM"}}]}
}`

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelError}))
}

func TestCurrent(t *testing.T) {
	var gotQuery string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/forecast.json", r.URL.Path)
		assert.Equal(t, "secret", r.URL.Query().Get("key"))
		assert.Equal(t, "1", r.URL.Query().Get("days"))
		gotQuery = r.URL.Query().Get("q")
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(forecastFixture))
	}))
	defer server.Close()

	client := NewClient(server.URL, "secret", testLogger())
	report, err := client.Current(context.Background(), "Helsinki")
	require.NoError(t, err)

	assert.Equal(t, "Helsinki", gotQuery)
	assert.Equal(t, "Helsinki", report.Location)
	assert.Equal(t, "Patchy light rain with thunder", report.Condition)
	assert.Equal(t, 1273, report.Code)
	assert.True(t, report.IsDay)
	assert.Equal(t, "03:58 AM", report.Sunrise)
	assert.Equal(t, "10:37 PM", report.Sunset)
	assert.Equal(t, int64(1717243200), report.UpdatedAt.Unix())
}

func TestCurrent_Errors(t *testing.T) {
	tests := []struct {
		name   string
		status int
		body   string
		query  string
	}{
		{"server error", http.StatusInternalServerError, `{"error":"boom"}`, "Helsinki"},
		{"bad json", http.StatusOK, `{not json`, "Helsinki"},
		{"empty query", http.StatusOK, forecastFixture, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tt.status)
				_, _ = w.Write([]byte(tt.body))
			}))
			defer server.Close()

			client := NewClient(server.URL, "secret", testLogger())
			_, err := client.Current(context.Background(), tt.query)
			assert.Error(t, err)
		})
	}
}

func TestCurrent_MissingAstronomy(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"current":{"condition":{"text":"Sunny","code":1000}}}`))
	}))
	defer server.Close()

	report, err := NewClient(server.URL, "k", testLogger()).Current(context.Background(), "x")
	require.NoError(t, err)
	assert.Empty(t, report.Sunrise)
	assert.Empty(t, report.Sunset)
	assert.False(t, report.UpdatedAt.IsZero())
}

func TestHealth(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
	}))
	defer server.Close()
	assert.NoError(t, NewClient(server.URL, "", testLogger()).Health(context.Background()))

	down := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer down.Close()
	assert.Error(t, NewClient(down.URL, "", testLogger()).Health(context.Background()))
}
