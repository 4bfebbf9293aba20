package scenario

import "time"

// Scenario is a scripted sky agent run: weather observations replayed against
// a virtual clock, followed by checks on the published theme
type Scenario struct {
	Name         string                   `yaml:"name"`
	Description  string                   `yaml:"description"`
	Setup        SetupConfig              `yaml:"setup"`
	TestMode     *TestModeConfig          `yaml:"test_mode,omitempty"`
	Events       []WeatherEvent           `yaml:"events"`
	Wait         []WaitPeriod             `yaml:"wait"`
	Expectations map[string][]Expectation `yaml:"expectations"`
}

// SetupConfig holds scenario-wide defaults
type SetupConfig struct {
	Location string `yaml:"location"`
}

// TestModeConfig switches the agent clock to virtual time
type TestModeConfig struct {
	VirtualStart string `yaml:"virtual_start"`
	TimeScale    int    `yaml:"time_scale"`
}

// WeatherEvent is one observation published on automation/raw/weather/{location}
type WeatherEvent struct {
	Time        int    `yaml:"time"`               // seconds from start
	Location    string `yaml:"location,omitempty"` // defaults to setup.location
	Condition   string `yaml:"condition,omitempty"`
	Code        int    `yaml:"code,omitempty"`
	Sunrise     string `yaml:"sunrise,omitempty"`
	Sunset      string `yaml:"sunset,omitempty"`
	Description string `yaml:"description"`
}

// WaitPeriod is a pause in the scenario
type WaitPeriod struct {
	Time        int    `yaml:"time"`
	Description string `yaml:"description"`
}

// Expectation is one outcome to verify. Exactly one of payload, redis_key or
// postgres_query drives the check.
type Expectation struct {
	Time    int                    `yaml:"time"`
	Topic   string                 `yaml:"topic,omitempty"`
	Payload map[string]interface{} `yaml:"payload,omitempty"` // supports ~regex~ and >n matchers

	RedisKey   string `yaml:"redis_key,omitempty"`
	RedisField string `yaml:"redis_field,omitempty"`
	Expected   string `yaml:"expected,omitempty"`

	PostgresQuery    string      `yaml:"postgres_query,omitempty"`
	PostgresExpected interface{} `yaml:"postgres_expected,omitempty"`
}

// Kind names the backend an expectation is checked against
func (e *Expectation) Kind() string {
	switch {
	case e.PostgresQuery != "":
		return "postgres"
	case e.RedisKey != "":
		return "redis"
	default:
		return "mqtt"
	}
}

// TestResult is the outcome of running a scenario
type TestResult struct {
	Scenario     *Scenario           `json:"scenario"`
	StartTime    time.Time           `json:"start_time"`
	EndTime      time.Time           `json:"end_time"`
	Passed       bool                `json:"passed"`
	PassedCount  int                 `json:"passed_count"`
	FailedCount  int                 `json:"failed_count"`
	Expectations []ExpectationResult `json:"expectations"`
}

// ExpectationResult is the result of checking a single expectation
type ExpectationResult struct {
	Layer         string      `json:"layer"`
	Expectation   Expectation `json:"expectation"`
	Passed        bool        `json:"passed"`
	Reason        string      `json:"reason,omitempty"`
	ActualPayload interface{} `json:"actual,omitempty"`
}
