package mqtt

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	pahomqtt "github.com/eclipse/paho.mqtt.golang"
	"github.com/google/uuid"
	"github.com/saaga0h/jeeves-sky/pkg/config"
)

const tokenTimeout = 10 * time.Second

type subscription struct {
	qos     byte
	handler MessageHandler
}

// mqttClient implements Client on top of paho. Subscriptions are remembered
// and replayed on every (re)connect because the session is clean.
type mqttClient struct {
	client      pahomqtt.Client
	cfg         *config.Config
	logger      *slog.Logger
	statusTopic string

	mu            sync.Mutex
	subscriptions map[string]subscription
}

// NewClient creates a paho-backed client with availability on the status topic
func NewClient(cfg *config.Config, logger *slog.Logger) Client {
	m := &mqttClient{
		cfg:           cfg,
		logger:        logger,
		statusTopic:   StatusTopic(cfg.ServiceName),
		subscriptions: make(map[string]subscription),
	}
	m.client = pahomqtt.NewClient(m.options())
	return m
}

func (m *mqttClient) options() *pahomqtt.ClientOptions {
	opts := pahomqtt.NewClientOptions()
	opts.AddBroker(m.cfg.MQTTAddress())

	clientID := m.cfg.MQTTClientID
	if clientID == "" {
		clientID = fmt.Sprintf("%s-%s", m.cfg.ServiceName, uuid.NewString()[:8])
	}
	opts.SetClientID(clientID)

	if m.cfg.MQTTUser != "" {
		opts.SetUsername(m.cfg.MQTTUser)
	}
	if m.cfg.MQTTPassword != "" {
		opts.SetPassword(m.cfg.MQTTPassword)
	}

	opts.SetWill(m.statusTopic, StatusOffline, 1, true)
	opts.SetCleanSession(true)
	opts.SetAutoReconnect(true)
	opts.SetConnectRetry(true)
	opts.SetConnectRetryInterval(5 * time.Second)
	opts.SetMaxReconnectInterval(30 * time.Second)

	opts.OnConnect = m.onConnect
	opts.OnConnectionLost = func(_ pahomqtt.Client, err error) {
		m.logger.Warn("MQTT connection lost", "error", err)
	}
	opts.OnReconnecting = func(_ pahomqtt.Client, _ *pahomqtt.ClientOptions) {
		m.logger.Info("MQTT reconnecting")
	}
	return opts
}

// onConnect runs on paho's callback goroutine, which must not block on tokens
func (m *mqttClient) onConnect(c pahomqtt.Client) {
	m.logger.Info("Connected to MQTT broker", "broker", m.cfg.MQTTAddress())

	m.mu.Lock()
	resubscribe := make(map[string]subscription, len(m.subscriptions))
	for topic, sub := range m.subscriptions {
		resubscribe[topic] = sub
	}
	m.mu.Unlock()

	go func() {
		token := c.Publish(m.statusTopic, 1, true, []byte(StatusOnline))
		if token.WaitTimeout(tokenTimeout) && token.Error() != nil {
			m.logger.Warn("Failed to publish availability", "topic", m.statusTopic, "error", token.Error())
		}
		for topic, sub := range resubscribe {
			if err := m.subscribe(topic, sub); err != nil {
				m.logger.Error("Failed to restore subscription", "topic", topic, "error", err)
			}
		}
	}()
}

func (m *mqttClient) Connect(ctx context.Context) error {
	m.logger.Info("Connecting to MQTT broker", "broker", m.cfg.MQTTAddress())

	token := m.client.Connect()
	select {
	case <-token.Done():
		if token.Error() != nil {
			return fmt.Errorf("failed to connect to MQTT broker: %w", token.Error())
		}
		return nil
	case <-ctx.Done():
		return fmt.Errorf("connection timeout: %w", ctx.Err())
	}
}

// Disconnect publishes offline before closing so the retained status does
// not depend on the broker firing the will.
func (m *mqttClient) Disconnect() {
	m.logger.Info("Disconnecting from MQTT broker")
	if m.client.IsConnected() {
		m.client.Publish(m.statusTopic, 1, true, []byte(StatusOffline)).WaitTimeout(time.Second)
	}
	m.client.Disconnect(250)
}

func (m *mqttClient) Subscribe(topic string, qos byte, handler MessageHandler) error {
	sub := subscription{qos: qos, handler: handler}
	if err := m.subscribe(topic, sub); err != nil {
		return err
	}

	m.mu.Lock()
	m.subscriptions[topic] = sub
	m.mu.Unlock()
	return nil
}

func (m *mqttClient) subscribe(topic string, sub subscription) error {
	token := m.client.Subscribe(topic, sub.qos, func(_ pahomqtt.Client, msg pahomqtt.Message) {
		sub.handler(&mqttMessage{msg: msg})
	})
	if !token.WaitTimeout(tokenTimeout) {
		return fmt.Errorf("timed out subscribing to topic %s", topic)
	}
	if token.Error() != nil {
		return fmt.Errorf("failed to subscribe to topic %s: %w", topic, token.Error())
	}

	m.logger.Info("Subscribed to MQTT topic", "topic", topic, "qos", sub.qos)
	return nil
}

func (m *mqttClient) Publish(topic string, qos byte, retained bool, payload []byte) error {
	token := m.client.Publish(topic, qos, retained, payload)
	if !token.WaitTimeout(tokenTimeout) {
		return fmt.Errorf("timed out publishing to topic %s", topic)
	}
	if token.Error() != nil {
		return fmt.Errorf("failed to publish to topic %s: %w", topic, token.Error())
	}

	m.logger.Debug("Published message", "topic", topic, "size", len(payload), "retained", retained)
	return nil
}

func (m *mqttClient) IsConnected() bool {
	return m.client.IsConnected()
}

type mqttMessage struct {
	msg pahomqtt.Message
}

func (m *mqttMessage) Topic() string   { return m.msg.Topic() }
func (m *mqttMessage) Payload() []byte { return m.msg.Payload() }
func (m *mqttMessage) Ack()            { m.msg.Ack() }
