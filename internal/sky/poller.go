package sky

import (
	"context"
	"fmt"
	"time"

	"github.com/saaga0h/jeeves-sky/internal/theme"
)

// providerTimeout bounds a single provider fetch
const providerTimeout = 15 * time.Second

// startPoller fetches provider weather immediately and then every FetchIntervalSec
func (a *Agent) startPoller() {
	interval := time.Duration(a.cfg.FetchIntervalSec) * time.Second
	ticker := time.NewTicker(interval)

	a.wg.Add(1)
	go func() {
		defer a.wg.Done()
		defer ticker.Stop()

		a.logger.Info("Starting weather provider poller",
			"query", a.cfg.WeatherQuery,
			"interval_sec", a.cfg.FetchIntervalSec)

		a.pollOnce()
		for {
			select {
			case <-ticker.C:
				a.pollOnce()
			case <-a.stopChan:
				return
			}
		}
	}()
}

func (a *Agent) pollOnce() {
	ctx, cancel := context.WithTimeout(context.Background(), providerTimeout)
	defer cancel()

	if _, err := a.PollProvider(ctx); err != nil {
		a.logger.Warn("Weather provider fetch failed, keeping last observation",
			"query", a.cfg.WeatherQuery,
			"error", err)
	}
}

// PollProvider fetches the configured query from the provider and feeds the
// result to the agent as an observation for the configured location
func (a *Agent) PollProvider(ctx context.Context) (*ThemeState, error) {
	if a.weather == nil {
		return nil, fmt.Errorf("no weather provider configured")
	}

	report, err := a.weather.Current(ctx, a.cfg.WeatherQuery)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch weather: %w", err)
	}

	obs := a.processor.FromReport(a.cfg.Location, report)
	state, err := a.HandleObservation(ctx, obs)
	if err != nil {
		return state, err
	}

	if dayNightMismatch(report.IsDay, state.Bucket) {
		a.logger.Warn("Provider day/night flag disagrees with decided bucket",
			"location", state.Location,
			"provider_location", report.Location,
			"is_day", report.IsDay,
			"bucket", state.Bucket,
			"solar_source", state.SolarSource)
	}

	return state, nil
}

// dayNightMismatch reports a provider is_day flag that contradicts a day or
// night bucket. Dawn and dusk straddle sunrise and sunset, so either flag fits.
func dayNightMismatch(isDay bool, bucket theme.TimeBucket) bool {
	switch bucket {
	case theme.BucketDay:
		return !isDay
	case theme.BucketNight:
		return isDay
	default:
		return false
	}
}
