package sky

import (
	"encoding/json"
	"log/slog"
	"sync"
	"time"

	"github.com/saaga0h/jeeves-sky/pkg/mqtt"
)

// timeConfig is the payload on automation/test/time_config
type timeConfig struct {
	VirtualStart string `json:"virtual_start"`
	TimeScale    int    `json:"time_scale"`
	TestMode     bool   `json:"test_mode"`
}

// TimeManager is the clock behind every theme decision. Scenarios switch it
// to virtual time so a whole sunrise-to-night cycle replays in minutes;
// otherwise it is the wall clock.
type TimeManager struct {
	mu           sync.RWMutex
	testMode     bool
	virtualStart time.Time
	realStart    time.Time
	timeScale    int
	realNow      func() time.Time
	logger       *slog.Logger
}

func NewTimeManager(logger *slog.Logger) *TimeManager {
	return &TimeManager{
		realStart: time.Now(),
		timeScale: 1,
		realNow:   time.Now,
		logger:    logger,
	}
}

// ConfigureFromMQTT follows the retained time config so an agent started
// mid-scenario picks up the virtual clock too
func (tm *TimeManager) ConfigureFromMQTT(mqttClient mqtt.Client) error {
	return mqttClient.Subscribe(mqtt.TopicTestTimeConfig, 1, func(msg mqtt.Message) {
		tm.HandleConfig(msg.Payload())
	})
}

// HandleConfig applies a time config. test_mode=false returns to the wall
// clock; a time_scale below 1 is read as real speed.
func (tm *TimeManager) HandleConfig(payload []byte) {
	var cfg timeConfig
	if err := json.Unmarshal(payload, &cfg); err != nil {
		tm.logger.Error("Failed to parse sky clock config", "error", err)
		return
	}

	if !cfg.TestMode {
		tm.mu.Lock()
		tm.testMode = false
		tm.mu.Unlock()
		tm.logger.Info("Sky clock back on wall time")
		return
	}

	virtualStart, err := time.Parse(time.RFC3339, cfg.VirtualStart)
	if err != nil {
		tm.logger.Error("Invalid virtual_start for sky clock", "value", cfg.VirtualStart, "error", err)
		return
	}
	scale := cfg.TimeScale
	if scale < 1 {
		scale = 1
	}

	tm.mu.Lock()
	tm.testMode = true
	tm.virtualStart = virtualStart
	tm.realStart = tm.realNow()
	tm.timeScale = scale
	tm.mu.Unlock()

	tm.logger.Info("Sky clock on virtual time",
		"virtual_start", cfg.VirtualStart,
		"time_scale", scale)
}

// Now is the instant theme buckets are classified against
func (tm *TimeManager) Now() time.Time {
	tm.mu.RLock()
	defer tm.mu.RUnlock()

	if !tm.testMode {
		return tm.realNow()
	}
	elapsed := tm.realNow().Sub(tm.realStart)
	return tm.virtualStart.Add(elapsed * time.Duration(tm.timeScale))
}

func (tm *TimeManager) IsTestMode() bool {
	tm.mu.RLock()
	defer tm.mu.RUnlock()
	return tm.testMode
}
