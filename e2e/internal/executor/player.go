package executor

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	mqtt "github.com/eclipse/paho.mqtt.golang"

	"github.com/saaga0h/jeeves-sky/e2e/internal/scenario"
)

// Player publishes scenario traffic to the broker
type Player struct {
	client mqtt.Client
	logger *slog.Logger
}

// NewPlayer connects a publishing client
func NewPlayer(broker string, logger *slog.Logger) (*Player, error) {
	opts := mqtt.NewClientOptions()
	opts.AddBroker(broker)
	opts.SetClientID(fmt.Sprintf("jeeves-sky-player-%d", time.Now().UnixNano()))
	opts.SetCleanSession(true)
	opts.SetAutoReconnect(true)

	client := mqtt.NewClient(opts)
	token := client.Connect()
	token.Wait()
	if token.Error() != nil {
		return nil, fmt.Errorf("failed to connect to MQTT broker: %w", token.Error())
	}

	return &Player{client: client, logger: logger}, nil
}

// WeatherPayload builds the raw weather message body for an event
func WeatherPayload(event scenario.WeatherEvent, observedAt time.Time) ([]byte, error) {
	data := map[string]interface{}{
		"condition":   event.Condition,
		"observed_at": observedAt.UTC().Format(time.RFC3339),
	}
	if event.Code != 0 {
		data["code"] = event.Code
	}
	if event.Sunrise != "" {
		data["sunrise"] = event.Sunrise
	}
	if event.Sunset != "" {
		data["sunset"] = event.Sunset
	}

	return json.Marshal(map[string]interface{}{"data": data})
}

// PublishWeather publishes a weather event on automation/raw/weather/{location}
func (p *Player) PublishWeather(event scenario.WeatherEvent, observedAt time.Time) error {
	payload, err := WeatherPayload(event, observedAt)
	if err != nil {
		return fmt.Errorf("failed to marshal weather payload: %w", err)
	}

	topic := fmt.Sprintf("automation/raw/weather/%s", event.Location)
	if err := p.Publish(topic, 1, false, payload); err != nil {
		return err
	}

	p.logger.Debug("Published weather event", "topic", topic, "payload", string(payload))
	return nil
}

// PublishTimeConfig switches agents to virtual time (retained so late starters see it)
func (p *Player) PublishTimeConfig(tm *scenario.TestModeConfig) error {
	payload, err := json.Marshal(map[string]interface{}{
		"virtual_start": tm.VirtualStart,
		"time_scale":    tm.TimeScale,
		"test_mode":     true,
	})
	if err != nil {
		return fmt.Errorf("failed to marshal time config: %w", err)
	}

	return p.Publish("automation/test/time_config", 1, true, payload)
}

// ClearTimeConfig returns agents to real time and clears the retained config
func (p *Player) ClearTimeConfig() error {
	if err := p.Publish("automation/test/time_config", 1, false, []byte(`{"test_mode":false}`)); err != nil {
		return err
	}
	return p.Publish("automation/test/time_config", 1, true, nil)
}

// Publish sends a raw message and waits for delivery
func (p *Player) Publish(topic string, qos byte, retained bool, payload []byte) error {
	token := p.client.Publish(topic, qos, retained, payload)
	token.Wait()
	if token.Error() != nil {
		return fmt.Errorf("failed to publish to %s: %w", topic, token.Error())
	}
	return nil
}

// Close disconnects from the broker
func (p *Player) Close() {
	if p.client != nil && p.client.IsConnected() {
		p.client.Disconnect(250)
	}
}
