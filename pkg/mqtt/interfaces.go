package mqtt

import "context"

// Availability payloads on StatusTopic
const (
	StatusOnline  = "online"
	StatusOffline = "offline"
)

// Client is the broker surface the sky agent uses
type Client interface {
	Connect(ctx context.Context) error
	Disconnect()

	// Subscribe registers handler for topic; the subscription survives reconnects
	Subscribe(topic string, qos byte, handler MessageHandler) error
	Publish(topic string, qos byte, retained bool, payload []byte) error

	IsConnected() bool
}

// MessageHandler is invoked on paho's delivery goroutine
type MessageHandler func(Message)

// Message is an inbound MQTT message
type Message interface {
	Topic() string
	Payload() []byte
	Ack()
}
