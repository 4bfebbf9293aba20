package sky

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strconv"
	"time"

	"github.com/saaga0h/jeeves-sky/internal/theme"
	"github.com/saaga0h/jeeves-sky/pkg/config"
	"github.com/saaga0h/jeeves-sky/pkg/redis"
)

const (
	// TTL for theme history and cached observations
	skyDataTTL = 24 * time.Hour
)

// Storage handles Redis storage of sky theme state
type Storage struct {
	redis      redis.Client
	maxHistory int
	logger     *slog.Logger
}

// NewStorage creates a new storage handler
func NewStorage(redisClient redis.Client, cfg *config.Config, logger *slog.Logger) *Storage {
	return &Storage{
		redis:      redisClient,
		maxHistory: cfg.MaxThemeHistory,
		logger:     logger,
	}
}

// SaveState stores the current theme hash and prepends it to the bounded history list
func (s *Storage) SaveState(ctx context.Context, state *ThemeState) error {
	key := redis.SkyThemeKey(state.Location)

	fields := map[string]interface{}{
		"theme":           string(state.Theme),
		"bucket":          string(state.Bucket),
		"condition":       string(state.Condition),
		"solar_source":    string(state.SolarSource),
		"sunrise_minutes": strconv.Itoa(state.Solar.SunriseMinutes),
		"sunset_minutes":  strconv.Itoa(state.Solar.SunsetMinutes),
		"observation_id":  state.Observation,
		"decided_at":      strconv.FormatInt(state.DecidedAt.UnixMilli(), 10),
	}
	if err := s.redis.HSet(ctx, key, fields); err != nil {
		return fmt.Errorf("failed to store theme state: %w", err)
	}

	historyKey := redis.SkyHistoryKey(state.Location)
	jsonData, err := json.Marshal(state)
	if err != nil {
		return fmt.Errorf("failed to marshal theme state: %w", err)
	}
	if err := s.redis.PushCapped(ctx, historyKey, jsonData, int64(s.maxHistory), skyDataTTL); err != nil {
		return fmt.Errorf("failed to push theme history: %w", err)
	}

	s.logger.Debug("Stored theme state",
		"location", state.Location,
		"theme", state.Theme)

	return nil
}

// LoadState reads the current theme hash for a location.
// Returns redis.ErrNotFound (wrapped) when nothing has been stored yet.
func (s *Storage) LoadState(ctx context.Context, location string) (*ThemeState, error) {
	fields, err := s.redis.HGetAll(ctx, redis.SkyThemeKey(location))
	if err != nil {
		return nil, err
	}

	state := &ThemeState{
		Location:    location,
		Theme:       theme.Key(fields["theme"]),
		Bucket:      theme.TimeBucket(fields["bucket"]),
		Condition:   theme.Condition(fields["condition"]),
		SolarSource: theme.SolarSource(fields["solar_source"]),
		Observation: fields["observation_id"],
	}
	if v, err := strconv.Atoi(fields["sunrise_minutes"]); err == nil {
		state.Solar.SunriseMinutes = v
	}
	if v, err := strconv.Atoi(fields["sunset_minutes"]); err == nil {
		state.Solar.SunsetMinutes = v
	}
	if v, err := strconv.ParseInt(fields["decided_at"], 10, 64); err == nil {
		state.DecidedAt = time.UnixMilli(v)
	}

	if !state.Theme.Valid() {
		return nil, fmt.Errorf("stored theme for %s is invalid: %q", location, state.Theme)
	}

	return state, nil
}

// RecentStates returns up to limit most recent theme states, newest first
func (s *Storage) RecentStates(ctx context.Context, location string, limit int) ([]ThemeState, error) {
	if limit <= 0 {
		return nil, nil
	}

	raw, err := s.redis.LRange(ctx, redis.SkyHistoryKey(location), 0, int64(limit-1))
	if err != nil {
		return nil, fmt.Errorf("failed to read theme history: %w", err)
	}

	states := make([]ThemeState, 0, len(raw))
	for _, item := range raw {
		var st ThemeState
		if err := json.Unmarshal([]byte(item), &st); err != nil {
			s.logger.Warn("Skipping corrupt theme history entry", "location", location, "error", err)
			continue
		}
		states = append(states, st)
	}

	return states, nil
}

// SaveObservation caches the last observation for a location
func (s *Storage) SaveObservation(ctx context.Context, obs *Observation) error {
	jsonData, err := json.Marshal(obs)
	if err != nil {
		return fmt.Errorf("failed to marshal observation: %w", err)
	}
	if err := s.redis.Set(ctx, redis.WeatherObservationKey(obs.Location), jsonData, skyDataTTL); err != nil {
		return fmt.Errorf("failed to store observation: %w", err)
	}
	return nil
}

// LoadObservation returns the cached observation for a location
func (s *Storage) LoadObservation(ctx context.Context, location string) (*Observation, error) {
	val, err := s.redis.Get(ctx, redis.WeatherObservationKey(location))
	if err != nil {
		return nil, err
	}

	var obs Observation
	if err := json.Unmarshal([]byte(val), &obs); err != nil {
		return nil, fmt.Errorf("failed to parse cached observation: %w", err)
	}
	return &obs, nil
}
