package sky

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/saaga0h/jeeves-sky/internal/theme"
	"github.com/saaga0h/jeeves-sky/pkg/config"
	"github.com/saaga0h/jeeves-sky/pkg/mqtt"
	"github.com/saaga0h/jeeves-sky/pkg/postgres"
	"github.com/saaga0h/jeeves-sky/pkg/redis"
	"github.com/saaga0h/jeeves-sky/pkg/weather"
)

// Agent represents the sky theme agent
type Agent struct {
	mqtt     mqtt.Client
	redis    redis.Client
	postgres postgres.Client
	weather  weather.Client
	cfg      *config.Config
	logger   *slog.Logger

	processor *Processor
	storage   *Storage
	history   *History
	solar     *SolarResolver
	styles    StyleTable
	limiter   *PublishLimiter
	clock     *TimeManager
	loc       *time.Location

	// evalMux serialises decide, store and publish across all locations
	evalMux sync.Mutex

	// State management
	stateMux     sync.RWMutex
	observations map[string]*Observation
	published    map[string]theme.Key

	// Periodic re-evaluation and provider polling. lifeMux orders loop
	// start-up against Stop so no goroutine is added after Stop waits.
	ticker   *time.Ticker
	lifeMux  sync.Mutex
	stopped  bool
	stopChan chan struct{}
	stopOnce sync.Once
	wg       sync.WaitGroup
}

// NewAgent creates a new sky agent. pgClient and weatherClient may be nil,
// which disables transition history and provider polling respectively.
func NewAgent(mqttClient mqtt.Client, redisClient redis.Client, pgClient postgres.Client, weatherClient weather.Client, cfg *config.Config, logger *slog.Logger) (*Agent, error) {
	styles := DefaultStyleTable()
	if cfg.StyleTablePath != "" {
		loaded, err := LoadStyleTable(cfg.StyleTablePath)
		if err != nil {
			return nil, fmt.Errorf("failed to load style table: %w", err)
		}
		styles = loaded
	}

	fallback, ok := ParseFallbackCycle(cfg.FallbackSunrise, cfg.FallbackSunset)
	if !ok {
		logger.Warn("Fallback sun times unusable, using 06:00/18:00",
			"sunrise", cfg.FallbackSunrise,
			"sunset", cfg.FallbackSunset)
	}

	loc := cfg.TimeLocation()
	clock := NewTimeManager(logger)

	interval := time.Duration(cfg.ReevaluateIntervalSec) * time.Second
	if interval <= 0 {
		interval = time.Minute
	}

	return &Agent{
		mqtt:         mqttClient,
		redis:        redisClient,
		postgres:     pgClient,
		weather:      weatherClient,
		cfg:          cfg,
		logger:       logger,
		processor:    NewProcessor(logger, clock.Now),
		storage:      NewStorage(redisClient, cfg, logger),
		solar:        NewSolarResolver(fallback, cfg.ComputedSolar, cfg.Latitude, cfg.Longitude, loc),
		styles:       styles,
		limiter:      NewPublishLimiter(time.Duration(cfg.MinPublishIntervalMs) * time.Millisecond),
		clock:        clock,
		loc:          loc,
		observations: make(map[string]*Observation),
		published:    make(map[string]theme.Key),
		ticker:       time.NewTicker(interval),
		stopChan:     make(chan struct{}),
	}, nil
}

// Start starts the sky agent and blocks until ctx is cancelled
func (a *Agent) Start(ctx context.Context) error {
	a.logger.Info("Starting sky agent",
		"service_name", a.cfg.ServiceName,
		"location", a.cfg.Location,
		"reevaluate_interval_sec", a.cfg.ReevaluateIntervalSec,
		"min_publish_interval_ms", a.cfg.MinPublishIntervalMs,
		"computed_solar", a.cfg.ComputedSolar)

	// Connect to MQTT broker
	if err := a.mqtt.Connect(ctx); err != nil {
		return fmt.Errorf("failed to connect to MQTT: %w", err)
	}

	// Verify Redis connection
	if err := a.redis.Ping(ctx); err != nil {
		return fmt.Errorf("failed to ping Redis: %w", err)
	}

	a.startHistory(ctx)

	if err := a.clock.ConfigureFromMQTT(a.mqtt); err != nil {
		a.logger.Warn("Failed to subscribe to time config, running on real time", "error", err)
	}

	for _, topic := range a.cfg.WeatherTopics {
		if err := a.mqtt.Subscribe(topic, 1, a.handleWeatherMessage); err != nil {
			return fmt.Errorf("failed to subscribe to %s: %w", topic, err)
		}
		a.logger.Info("Subscribed to weather observations", "topic", topic)
	}

	a.restoreObservation(ctx, a.cfg.Location)

	a.lifeMux.Lock()
	if a.stopped {
		a.lifeMux.Unlock()
		a.logger.Info("Sky agent stopped during start-up")
		return nil
	}
	a.startReevaluationLoop()
	if a.weather != nil {
		a.startPoller()
	}
	a.lifeMux.Unlock()

	a.logger.Info("Sky agent started and ready")

	// Block until context is cancelled
	<-ctx.Done()
	a.logger.Info("Sky agent stopping")

	return nil
}

// Stop gracefully stops the sky agent
func (a *Agent) Stop() error {
	a.logger.Info("Stopping sky agent")

	a.lifeMux.Lock()
	a.stopOnce.Do(func() {
		a.stopped = true
		a.ticker.Stop()
		close(a.stopChan)
	})
	a.lifeMux.Unlock()
	a.wg.Wait()

	a.mqtt.Disconnect()

	if a.history != nil {
		if err := a.postgres.Disconnect(); err != nil {
			a.logger.Error("Error closing Postgres connection", "error", err)
		}
	}

	if err := a.redis.Close(); err != nil {
		a.logger.Error("Error closing Redis connection", "error", err)
		return err
	}

	a.logger.Info("Sky agent stopped")
	return nil
}

// History returns the transition store, nil when Postgres is disabled or unavailable
func (a *Agent) History() *History {
	return a.history
}

// Storage returns the Redis state store
func (a *Agent) Storage() *Storage {
	return a.storage
}

// Styles returns the active style table
func (a *Agent) Styles() StyleTable {
	return a.styles
}

// Solar returns the solar resolver used for decisions
func (a *Agent) Solar() *SolarResolver {
	return a.solar
}

// startHistory connects Postgres and prepares the transitions table.
// Failures only disable history.
func (a *Agent) startHistory(ctx context.Context) {
	if a.postgres == nil {
		return
	}

	if err := a.postgres.Connect(ctx); err != nil {
		a.logger.Warn("Postgres unavailable, theme history disabled", "error", err)
		return
	}

	h := NewHistory(a.postgres, a.logger)
	if err := h.EnsureSchema(ctx); err != nil {
		a.logger.Warn("Theme history disabled", "error", err)
		if err := a.postgres.Disconnect(); err != nil {
			a.logger.Error("Error closing Postgres connection", "error", err)
		}
		return
	}

	a.history = h
	a.logger.Info("Theme transition history enabled")
}

// restoreObservation seeds the in-memory observation from the Redis cache
func (a *Agent) restoreObservation(ctx context.Context, location string) {
	obs, err := a.storage.LoadObservation(ctx, location)
	if err != nil {
		if !errors.Is(err, redis.ErrNotFound) {
			a.logger.Warn("Failed to load cached observation", "location", location, "error", err)
		}
		return
	}

	a.stateMux.Lock()
	if _, exists := a.observations[location]; !exists {
		a.observations[location] = obs
	}
	a.stateMux.Unlock()

	a.logger.Info("Restored cached observation",
		"location", location,
		"condition", obs.Text,
		"observed_at", obs.ObservedAt)
}

// startReevaluationLoop re-runs decisions so the bucket follows the clock
func (a *Agent) startReevaluationLoop() {
	a.wg.Add(1)
	go func() {
		defer a.wg.Done()
		a.logger.Info("Starting periodic re-evaluation", "interval_sec", a.cfg.ReevaluateIntervalSec)
		for {
			select {
			case <-a.ticker.C:
				a.Reevaluate(context.Background())
			case <-a.stopChan:
				return
			}
		}
	}()
}

// Reevaluate runs a decision for every known location using its last observation
func (a *Agent) Reevaluate(ctx context.Context) {
	a.stateMux.RLock()
	locations := make([]string, 0, len(a.observations))
	for location := range a.observations {
		locations = append(locations, location)
	}
	a.stateMux.RUnlock()

	a.logger.Debug("Re-evaluating sky themes", "location_count", len(locations))

	for _, location := range locations {
		if err := a.reevaluateLocation(ctx, location); err != nil {
			a.logger.Error("Re-evaluation failed", "location", location, "error", err)
		}
	}
}

// reevaluateLocation reads the observation under evalMux so a newer one
// handled in the meantime is the one decided on
func (a *Agent) reevaluateLocation(ctx context.Context, location string) error {
	a.evalMux.Lock()
	defer a.evalMux.Unlock()

	a.stateMux.RLock()
	obs, ok := a.observations[location]
	a.stateMux.RUnlock()
	if !ok {
		return nil
	}

	_, err := a.evaluate(ctx, obs)
	return err
}

// handleWeatherMessage handles incoming raw weather observations
func (a *Agent) handleWeatherMessage(msg mqtt.Message) {
	obs, err := a.processor.ParseMessage(msg.Topic(), msg.Payload())
	if err != nil {
		a.logger.Error("Failed to parse weather message",
			"topic", msg.Topic(),
			"error", err)
		return
	}

	if _, err := a.HandleObservation(context.Background(), obs); err != nil {
		a.logger.Error("Failed to handle weather observation",
			"location", obs.Location,
			"error", err)
	}
}

// HandleObservation records an observation and evaluates its location
func (a *Agent) HandleObservation(ctx context.Context, obs *Observation) (*ThemeState, error) {
	a.evalMux.Lock()
	defer a.evalMux.Unlock()

	a.stateMux.Lock()
	a.observations[obs.Location] = obs
	a.stateMux.Unlock()

	if err := a.storage.SaveObservation(ctx, obs); err != nil {
		a.logger.Warn("Failed to cache observation", "location", obs.Location, "error", err)
	}

	a.logger.Debug("Received weather observation",
		"location", obs.Location,
		"source", obs.Source,
		"condition", obs.Text,
		"code", obs.Code)

	return a.evaluate(ctx, obs)
}

// evaluate decides the theme for obs and publishes it when due. Callers hold evalMux.
func (a *Agent) evaluate(ctx context.Context, obs *Observation) (*ThemeState, error) {
	now := a.clock.Now()
	state := Decide(obs, now, a.loc, a.solar)

	previous := a.previousTheme(ctx, obs.Location)
	changed := previous != state.Theme

	lastPublish, _ := a.limiter.LastPublish(obs.Location)
	if !a.limiter.ShouldPublish(obs.Location, changed, now) {
		a.logger.Debug("Theme unchanged, publish not due",
			"location", obs.Location,
			"theme", state.Theme,
			"since_last_publish", now.Sub(lastPublish).String())
		return state, nil
	}

	if err := a.storage.SaveState(ctx, state); err != nil {
		a.logger.Warn("Failed to store theme state", "location", obs.Location, "error", err)
	}

	if changed && a.history != nil {
		if _, err := a.history.RecordTransition(ctx, previous, state); err != nil {
			a.logger.Warn("Failed to record theme transition", "location", obs.Location, "error", err)
		}
	}

	if err := a.publishTheme(state, changed); err != nil {
		return state, err
	}

	a.stateMux.Lock()
	a.published[obs.Location] = state.Theme
	a.stateMux.Unlock()

	if changed {
		a.logger.Info("Sky theme changed",
			"location", state.Location,
			"from", previous,
			"to", state.Theme,
			"bucket", state.Bucket,
			"condition", state.Condition,
			"solar_source", state.SolarSource,
			"virtual_time", a.clock.IsTestMode())
	}

	return state, nil
}

// previousTheme returns the last published theme, falling back to Redis for
// locations not yet seen by this process
func (a *Agent) previousTheme(ctx context.Context, location string) theme.Key {
	a.stateMux.RLock()
	key, exists := a.published[location]
	a.stateMux.RUnlock()
	if exists {
		return key
	}

	stored, err := a.storage.LoadState(ctx, location)
	if err != nil {
		if !errors.Is(err, redis.ErrNotFound) {
			a.logger.Debug("No usable stored theme", "location", location, "error", err)
		}
		return ""
	}
	return stored.Theme
}

// publishTheme publishes the retained sky context message
func (a *Agent) publishTheme(state *ThemeState, changed bool) error {
	contextMsg := map[string]interface{}{
		"source":    "sky-agent",
		"type":      "sky",
		"location":  state.Location,
		"theme":     state.Theme,
		"bucket":    state.Bucket,
		"condition": state.Condition,
		"solar": map[string]interface{}{
			"sunrise": theme.FormatMinutes(state.Solar.SunriseMinutes),
			"sunset":  theme.FormatMinutes(state.Solar.SunsetMinutes),
			"source":  state.SolarSource,
		},
		"style":     a.styles.Lookup(state.Theme),
		"changed":   changed,
		"timestamp": state.DecidedAt.Format(time.RFC3339),
	}

	payload, err := json.Marshal(contextMsg)
	if err != nil {
		return fmt.Errorf("failed to marshal sky context: %w", err)
	}

	topic := mqtt.SkyContextTopic(state.Location)
	if err := a.mqtt.Publish(topic, 1, true, payload); err != nil {
		return fmt.Errorf("failed to publish sky context to %s: %w", topic, err)
	}

	a.logger.Debug("Published sky context", "topic", topic, "theme", state.Theme)
	return nil
}
