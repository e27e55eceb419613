package render

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	mqtt "github.com/eclipse/paho.mqtt.golang"

	"github.com/signalsfoundry/iss-tracker/internal/trajectory"
)

const mqttPublishTimeout = 5 * time.Second

// MQTTClient is the subset of mqtt.Client used for publishing.
type MQTTClient interface {
	Publish(topic string, qos byte, retained bool, payload interface{}) mqtt.Token
}

// MQTTPublisher publishes the latest segment as retained JSON so late
// subscribers receive the current speed immediately.
type MQTTPublisher struct {
	client MQTTClient
	topic  string
}

// NewMQTTPublisher publishes to topic through client.
func NewMQTTPublisher(client MQTTClient, topic string) *MQTTPublisher {
	return &MQTTPublisher{client: client, topic: topic}
}

// DialMQTT connects to broker (e.g. tcp://localhost:1883).
func DialMQTT(broker, clientID string) (mqtt.Client, error) {
	opts := mqtt.NewClientOptions().
		AddBroker(broker).
		SetClientID(clientID).
		SetAutoReconnect(true).
		SetConnectTimeout(10 * time.Second)

	client := mqtt.NewClient(opts)
	token := client.Connect()
	if !token.WaitTimeout(15 * time.Second) {
		return nil, fmt.Errorf("mqtt: connect to %s timed out", broker)
	}
	if err := token.Error(); err != nil {
		return nil, fmt.Errorf("mqtt: connect to %s: %w", broker, err)
	}
	return client, nil
}

func (p *MQTTPublisher) Render(ctx context.Context, snap trajectory.Snapshot) error {
	seg, err := latestSegment(snap)
	if err != nil {
		return err
	}
	payload, err := json.Marshal(seg)
	if err != nil {
		return fmt.Errorf("mqtt: marshal segment: %w", err)
	}

	token := p.client.Publish(p.topic, 0, true, payload)
	wait := mqttPublishTimeout
	if deadline, ok := ctx.Deadline(); ok {
		if d := time.Until(deadline); d < wait {
			wait = d
		}
	}
	if !token.WaitTimeout(wait) {
		return fmt.Errorf("mqtt: publish to %s timed out", p.topic)
	}
	if err := token.Error(); err != nil {
		return fmt.Errorf("mqtt: publish to %s: %w", p.topic, err)
	}
	return nil
}
