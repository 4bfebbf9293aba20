package sky

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/saaga0h/jeeves-sky/pkg/mqtt"
	"github.com/saaga0h/jeeves-sky/pkg/weather"
)

// Observation sources
const (
	SourceMQTT     = "mqtt"
	SourceProvider = "provider"
)

// Observation is one weather reading for a location, already reduced to the
// fields the theme resolver consumes
type Observation struct {
	ID         uuid.UUID `json:"id"`
	Location   string    `json:"location"`
	Text       string    `json:"condition"`
	Code       int       `json:"code"`
	Sunrise    string    `json:"sunrise,omitempty"`
	Sunset     string    `json:"sunset,omitempty"`
	ObservedAt time.Time `json:"observed_at"`
	Source     string    `json:"source"`
}

// rawWeatherPayload is the wire format on automation/raw/weather/{location}
type rawWeatherPayload struct {
	Data *struct {
		Condition  string `json:"condition"`
		Code       int    `json:"code"`
		Sunrise    string `json:"sunrise"`
		Sunset     string `json:"sunset"`
		ObservedAt string `json:"observed_at"`
	} `json:"data"`
}

// Processor turns raw weather inputs into observations
type Processor struct {
	logger *slog.Logger
	now    func() time.Time
}

// NewProcessor creates a new processor; now supplies the receive time
func NewProcessor(logger *slog.Logger, now func() time.Time) *Processor {
	if now == nil {
		now = time.Now
	}
	return &Processor{
		logger: logger,
		now:    now,
	}
}

// ParseMessage parses an MQTT weather message.
// Topic pattern: automation/raw/weather/{location}
func (p *Processor) ParseMessage(topic string, payload []byte) (*Observation, error) {
	location, ok := mqtt.LocationFromTopic(topic, 4)
	if !ok {
		return nil, fmt.Errorf("invalid topic format: %s", topic)
	}

	var raw rawWeatherPayload
	if err := json.Unmarshal(payload, &raw); err != nil {
		return nil, fmt.Errorf("failed to parse JSON payload: %w", err)
	}
	if raw.Data == nil {
		return nil, fmt.Errorf("payload has no data field")
	}

	observedAt := p.now()
	if raw.Data.ObservedAt != "" {
		ts, err := time.Parse(time.RFC3339, raw.Data.ObservedAt)
		if err != nil {
			p.logger.Warn("Ignoring unparsable observed_at",
				"location", location,
				"observed_at", raw.Data.ObservedAt)
		} else {
			observedAt = ts
		}
	}

	obs := &Observation{
		ID:         uuid.New(),
		Location:   location,
		Text:       raw.Data.Condition,
		Code:       raw.Data.Code,
		Sunrise:    raw.Data.Sunrise,
		Sunset:     raw.Data.Sunset,
		ObservedAt: observedAt,
		Source:     SourceMQTT,
	}

	p.logger.Debug("Parsed weather observation",
		"location", obs.Location,
		"condition", obs.Text,
		"code", obs.Code)

	return obs, nil
}

// FromReport converts a provider report into an observation for location
func (p *Processor) FromReport(location string, report *weather.Report) *Observation {
	observedAt := report.UpdatedAt
	if observedAt.IsZero() {
		observedAt = p.now()
	}

	return &Observation{
		ID:         uuid.New(),
		Location:   location,
		Text:       report.Condition,
		Code:       report.Code,
		Sunrise:    report.Sunrise,
		Sunset:     report.Sunset,
		ObservedAt: observedAt,
		Source:     SourceProvider,
	}
}
