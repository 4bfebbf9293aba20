package capture

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sync"
	"time"

	mqtt "github.com/eclipse/paho.mqtt.golang"
)

// Message is one MQTT message seen during a scenario
type Message struct {
	Timestamp time.Time   `json:"timestamp"`
	Topic     string      `json:"topic"`
	Payload   interface{} `json:"payload"`
	Retained  bool        `json:"retained"`
}

// Recorder keeps every message received on the subscribed topics
type Recorder struct {
	client    mqtt.Client
	broker    string
	topics    []string
	startTime time.Time
	logger    *slog.Logger

	mu       sync.RWMutex
	messages []Message
}

// NewRecorder creates a recorder for the given topic filters
func NewRecorder(broker string, topics []string, logger *slog.Logger) *Recorder {
	return &Recorder{
		broker: broker,
		topics: topics,
		logger: logger,
	}
}

// Start connects and subscribes; subscriptions are renewed on reconnect
func (r *Recorder) Start() error {
	r.startTime = time.Now()

	opts := mqtt.NewClientOptions()
	opts.AddBroker(r.broker)
	opts.SetClientID(fmt.Sprintf("jeeves-sky-recorder-%d", time.Now().UnixNano()))
	opts.SetCleanSession(true)
	opts.SetAutoReconnect(true)
	opts.SetConnectionLostHandler(func(client mqtt.Client, err error) {
		r.logger.Warn("Recorder connection lost", "error", err)
	})
	opts.SetOnConnectHandler(func(client mqtt.Client) {
		for _, topic := range r.topics {
			token := client.Subscribe(topic, 1, r.handle)
			token.Wait()
			if token.Error() != nil {
				r.logger.Error("Recorder subscribe failed", "topic", topic, "error", token.Error())
				continue
			}
			r.logger.Debug("Recorder subscribed", "topic", topic)
		}
	})

	r.client = mqtt.NewClient(opts)
	token := r.client.Connect()
	token.Wait()
	if token.Error() != nil {
		return fmt.Errorf("failed to connect to MQTT broker: %w", token.Error())
	}

	return nil
}

func (r *Recorder) handle(_ mqtt.Client, msg mqtt.Message) {
	r.Record(msg.Topic(), msg.Payload(), msg.Retained())
}

// Record stores a message; JSON payloads are decoded, anything else is kept as text
func (r *Recorder) Record(topic string, payload []byte, retained bool) {
	var decoded interface{}
	if err := json.Unmarshal(payload, &decoded); err != nil {
		decoded = string(payload)
	}

	r.mu.Lock()
	r.messages = append(r.messages, Message{
		Timestamp: time.Now(),
		Topic:     topic,
		Payload:   decoded,
		Retained:  retained,
	})
	r.mu.Unlock()

	r.logger.Debug("Captured message",
		"elapsed_sec", time.Since(r.startTime).Seconds(),
		"topic", topic)
}

// Messages returns a copy of everything captured so far
func (r *Recorder) Messages() []Message {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]Message, len(r.messages))
	copy(out, r.messages)
	return out
}

// ByTopic returns captured messages for an exact topic, oldest first
func (r *Recorder) ByTopic(topic string) []Message {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var out []Message
	for _, msg := range r.messages {
		if msg.Topic == topic {
			out = append(out, msg)
		}
	}
	return out
}

// Save writes the capture as indented JSON, creating parent directories
func (r *Recorder) Save(filename string) error {
	data, err := json.MarshalIndent(r.Messages(), "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal messages: %w", err)
	}

	if err := os.MkdirAll(filepath.Dir(filename), 0o755); err != nil {
		return fmt.Errorf("failed to create directory: %w", err)
	}
	if err := os.WriteFile(filename, data, 0o644); err != nil {
		return fmt.Errorf("failed to write capture: %w", err)
	}

	return nil
}

// Stop disconnects from the broker
func (r *Recorder) Stop() {
	if r.client != nil && r.client.IsConnected() {
		r.client.Disconnect(250)
	}
}
