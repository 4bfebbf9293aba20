package reporter

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/saaga0h/jeeves-sky/e2e/internal/scenario"
)

func sampleResult() *scenario.TestResult {
	start := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	return &scenario.TestResult{
		Scenario:    &scenario.Scenario{Name: "dusk transition"},
		StartTime:   start,
		EndTime:     start.Add(75 * time.Second),
		PassedCount: 1,
		FailedCount: 1,
		Expectations: []scenario.ExpectationResult{
			{
				Layer:         "sky",
				Expectation:   scenario.Expectation{Topic: "automation/context/sky/home"},
				Passed:        true,
				ActualPayload: map[string]interface{}{"theme": "dusk-clear"},
			},
			{
				Layer:       "state",
				Expectation: scenario.Expectation{RedisKey: "sky:theme:home", RedisField: "theme"},
				Reason:      `expected "night-clear", got "dusk-clear"`,
			},
		},
	}
}

func TestGenerateTimeline(t *testing.T) {
	out := GenerateTimeline(sampleResult(), []TimelineEvent{
		{Elapsed: 0.1, Layer: "weather", Description: "home: Sunny (clear afternoon)"},
		{Elapsed: 2.0, Layer: "sky", Description: "automation/context/sky/home", IsCheck: true, Success: true},
	})

	assert.Contains(t, out, "Scenario: dusk transition (1m 15.0s)")
	assert.Contains(t, out, "→ weather")
	assert.Contains(t, out, "✓ automation/context/sky/home [dusk-clear]")
	assert.Contains(t, out, "✗ sky:theme:home.theme: expected")
	assert.Contains(t, out, "Status: FAILED (1)")
}

func TestSaveSummaryAndTimeline(t *testing.T) {
	dir := t.TempDir()

	summaryPath := filepath.Join(dir, "summaries", "run.json")
	require.NoError(t, SaveSummary(sampleResult(), summaryPath))

	data, err := os.ReadFile(summaryPath)
	require.NoError(t, err)
	var decoded map[string]interface{}
	require.NoError(t, json.Unmarshal(data, &decoded))
	assert.Equal(t, 1.0, decoded["passed_count"])

	timelinePath := filepath.Join(dir, "timelines", "run.txt")
	require.NoError(t, SaveTimeline("hello", timelinePath))
	data, err = os.ReadFile(timelinePath)
	require.NoError(t, err)
	assert.Equal(t, "hello", string(data))
}

func TestFormatDuration(t *testing.T) {
	assert.Equal(t, "4.5s", formatDuration(4500*time.Millisecond))
	assert.Equal(t, "2m 3.0s", formatDuration(123*time.Second))
}
