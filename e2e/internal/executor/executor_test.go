package executor

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/saaga0h/jeeves-sky/e2e/internal/scenario"
)

func TestWeatherPayload(t *testing.T) {
	at := time.Date(2025, 6, 1, 17, 0, 0, 0, time.UTC)
	payload, err := WeatherPayload(scenario.WeatherEvent{
		Location:  "home",
		Condition: "Light rain",
		Code:      1183,
		Sunrise:   "06:00 AM",
		Sunset:    "06:00 PM",
	}, at)
	require.NoError(t, err)

	var msg struct {
		Data map[string]interface{} `json:"data"`
	}
	require.NoError(t, json.Unmarshal(payload, &msg))
	assert.Equal(t, "Light rain", msg.Data["condition"])
	assert.Equal(t, 1183.0, msg.Data["code"])
	assert.Equal(t, "06:00 AM", msg.Data["sunrise"])
	assert.Equal(t, "2025-06-01T17:00:00Z", msg.Data["observed_at"])
}

func TestWeatherPayload_OmitsEmptyFields(t *testing.T) {
	payload, err := WeatherPayload(scenario.WeatherEvent{Condition: "Sunny"}, time.Now())
	require.NoError(t, err)

	var msg struct {
		Data map[string]interface{} `json:"data"`
	}
	require.NoError(t, json.Unmarshal(payload, &msg))
	assert.NotContains(t, msg.Data, "code")
	assert.NotContains(t, msg.Data, "sunrise")
	assert.NotContains(t, msg.Data, "sunset")
}

func TestScaledOffset(t *testing.T) {
	assert.Equal(t, 60*time.Second, scaledOffset(60, 1))
	assert.Equal(t, time.Second, scaledOffset(60, 60))
	assert.Equal(t, 500*time.Millisecond, scaledOffset(30, 60))
	assert.Equal(t, 10*time.Second, scaledOffset(10, 0))
}

func TestVirtualAt(t *testing.T) {
	start := time.Date(2025, 6, 1, 16, 50, 0, 0, time.UTC)
	assert.Equal(t, time.Date(2025, 6, 1, 17, 5, 0, 0, time.UTC), VirtualAt(start, 900))
}

func TestWaitUntil(t *testing.T) {
	start := time.Now()
	require.NoError(t, WaitUntil(context.Background(), start, 1, 20))
	assert.GreaterOrEqual(t, time.Since(start), 50*time.Millisecond)

	// Already past
	require.NoError(t, WaitUntil(context.Background(), start.Add(-time.Hour), 10, 1))

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	assert.ErrorIs(t, WaitUntil(ctx, time.Now(), 60, 1), context.Canceled)
}

func TestSummarize(t *testing.T) {
	s := &scenario.Scenario{Name: "s"}
	start := time.Now()

	result := Summarize(s, start, start.Add(time.Second), []scenario.ExpectationResult{
		{Passed: true}, {Passed: false, Reason: "x"}, {Passed: true},
	})
	assert.Equal(t, 2, result.PassedCount)
	assert.Equal(t, 1, result.FailedCount)
	assert.False(t, result.Passed)

	result = Summarize(s, start, start, nil)
	assert.True(t, result.Passed)
}

func TestDescribe(t *testing.T) {
	assert.Equal(t, "Rain [1183]", describeWeather(scenario.WeatherEvent{Condition: "Rain", Code: 1183}))
	assert.Equal(t, "Mist", describeWeather(scenario.WeatherEvent{Condition: "Mist"}))
	assert.Equal(t, "code 1000", describeWeather(scenario.WeatherEvent{Code: 1000}))

	assert.Equal(t, "redis: sky:theme:home theme", describeExpectation(scenario.Expectation{RedisKey: "sky:theme:home", RedisField: "theme"}))
	assert.Equal(t, "automation/context/sky/home", describeExpectation(scenario.Expectation{Topic: "automation/context/sky/home"}))
}

func TestBuildSchedule_InterleavesByTime(t *testing.T) {
	s := &scenario.Scenario{
		Events: []scenario.WeatherEvent{
			{Time: 600, Location: "home", Condition: "Rain"},
			{Time: 0, Location: "home", Condition: "Sunny"},
		},
		Wait: []scenario.WaitPeriod{{Time: 300, Description: "settle"}},
		Expectations: map[string][]scenario.Expectation{
			"state": {{Time: 600, RedisKey: "sky:theme:home", RedisField: "theme", Expected: "day-rain"}},
			"sky": {
				{Time: 60, Topic: "automation/context/sky/home"},
				{Time: 600, Topic: "automation/context/sky/home"},
			},
		},
	}

	steps := BuildSchedule(s)
	require.Len(t, steps, 6)

	var order []string
	for _, step := range steps {
		switch step.Kind {
		case StepEvent:
			order = append(order, "event:"+step.Event.Condition)
		case StepWait:
			order = append(order, "wait")
		case StepCheck:
			order = append(order, "check:"+step.Layer)
		}
	}
	assert.Equal(t, []string{
		"event:Sunny",
		"check:sky",
		"wait",
		"event:Rain",
		"check:sky",
		"check:state",
	}, order)
}

func TestBuildSchedule_ShippedScenarioChecksBeforeLaterWeather(t *testing.T) {
	s, err := scenario.LoadScenario("../../scenarios/dusk-transition.yaml")
	require.NoError(t, err)

	steps := BuildSchedule(s)
	rainAt := -1
	for i, step := range steps {
		if step.Kind == StepEvent && step.Event.Condition == "Moderate rain" {
			rainAt = i
		}
	}
	require.GreaterOrEqual(t, rainAt, 0)

	for i, step := range steps {
		if step.Kind != StepCheck {
			continue
		}
		theme, _ := step.Expectation.Payload["theme"].(string)
		switch theme {
		case "day-clear", "dusk-clear":
			assert.Less(t, i, rainAt, "%s checked after the rain event", theme)
		case "night-rain":
			assert.Greater(t, i, rainAt)
		}
	}
}

func TestCaptureTopicsCoverAgentTraffic(t *testing.T) {
	assert.Equal(t, []string{
		"automation/raw/weather/+",
		"automation/context/sky/+",
		"automation/status/+",
	}, captureTopics)
}
