package scenario

import (
	"fmt"
	"time"
)

// ValidateScenario performs validation checks on a loaded scenario
func ValidateScenario(s *Scenario) error {
	if s.Name == "" {
		return fmt.Errorf("scenario name is required")
	}
	if s.Setup.Location == "" {
		return fmt.Errorf("setup.location is required")
	}

	if err := validateEvents(s.Events); err != nil {
		return fmt.Errorf("events validation failed: %w", err)
	}
	if err := validateWaitPeriods(s.Wait); err != nil {
		return fmt.Errorf("wait periods validation failed: %w", err)
	}
	if err := validateExpectations(s.Expectations); err != nil {
		return fmt.Errorf("expectations validation failed: %w", err)
	}
	if err := validateTestMode(s.TestMode); err != nil {
		return fmt.Errorf("test_mode validation failed: %w", err)
	}

	return nil
}

func validateEvents(events []WeatherEvent) error {
	if len(events) == 0 {
		return fmt.Errorf("at least one event is required")
	}

	for i, event := range events {
		if event.Time < 0 {
			return fmt.Errorf("event %d: time cannot be negative", i)
		}
		if event.Location == "" {
			return fmt.Errorf("event %d: location is required", i)
		}
		if event.Condition == "" && event.Code == 0 {
			return fmt.Errorf("event %d: condition or code is required", i)
		}
		if event.Description == "" {
			return fmt.Errorf("event %d: description is required", i)
		}
	}

	return nil
}

func validateWaitPeriods(waits []WaitPeriod) error {
	for i, wait := range waits {
		if wait.Time < 0 {
			return fmt.Errorf("wait period %d: time cannot be negative", i)
		}
		if wait.Description == "" {
			return fmt.Errorf("wait period %d: description is required", i)
		}
	}
	return nil
}

func validateExpectations(expectations map[string][]Expectation) error {
	if len(expectations) == 0 {
		return fmt.Errorf("at least one expectation is required")
	}

	for layer, exps := range expectations {
		if layer == "" {
			return fmt.Errorf("expectation layer name cannot be empty")
		}

		for i, exp := range exps {
			if exp.Time < 0 {
				return fmt.Errorf("layer %s, expectation %d: time cannot be negative", layer, i)
			}

			switch exp.Kind() {
			case "postgres":
				if exp.PostgresExpected == nil {
					return fmt.Errorf("layer %s, expectation %d: postgres_expected is required", layer, i)
				}
			case "redis":
				if exp.RedisField == "" || exp.Expected == "" {
					return fmt.Errorf("layer %s, expectation %d: redis_field and expected are required", layer, i)
				}
			default:
				if exp.Topic == "" || len(exp.Payload) == 0 {
					return fmt.Errorf("layer %s, expectation %d: MQTT expectations require topic and payload", layer, i)
				}
			}
		}
	}

	return nil
}

func validateTestMode(tm *TestModeConfig) error {
	if tm == nil {
		return nil
	}

	if _, err := time.Parse(time.RFC3339, tm.VirtualStart); err != nil {
		return fmt.Errorf("virtual_start must be an RFC3339 timestamp: %w", err)
	}
	if tm.TimeScale < 1 {
		return fmt.Errorf("time_scale must be >= 1 (got %d)", tm.TimeScale)
	}

	return nil
}
