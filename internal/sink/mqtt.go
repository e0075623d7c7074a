// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package sink

import (
	"encoding/json"
	"fmt"
	"log"
	"time"

	mqtt "github.com/eclipse/paho.mqtt.golang"

	"github.com/relabs-tech/imu_logger/internal/imu"
)

const publishTimeout = 2 * time.Second

// Publisher is the part of mqtt.Client the sink needs.
type Publisher interface {
	Publish(topic string, qos byte, retained bool, payload interface{}) mqtt.Token
}

// MQTT publishes each sample as JSON. The message is retained so late
// subscribers see the latest sample immediately.
type MQTT struct {
	pub   Publisher
	topic string
}

// DialMQTT connects to broker and returns a sink publishing on topic.
func DialMQTT(broker, clientID, topic string) (*MQTT, error) {
	opts := mqtt.NewClientOptions().
		AddBroker(broker).
		SetClientID(clientID).
		SetAutoReconnect(true)

	client := mqtt.NewClient(opts)
	if token := client.Connect(); token.Wait() && token.Error() != nil {
		return nil, fmt.Errorf("MQTT connect error: %w", token.Error())
	}
	log.Printf("mqtt: connected to %s, publishing on %s", broker, topic)

	return NewMQTT(client, topic), nil
}

// NewMQTT wraps an existing publisher.
func NewMQTT(pub Publisher, topic string) *MQTT {
	return &MQTT{pub: pub, topic: topic}
}

func (m *MQTT) Write(s imu.Sample) error {
	payload, err := json.Marshal(s)
	if err != nil {
		return fmt.Errorf("json marshal error: %w", err)
	}

	token := m.pub.Publish(m.topic, 0, true, payload)
	if !token.WaitTimeout(publishTimeout) {
		return fmt.Errorf("publish to %s timed out", m.topic)
	}
	return token.Error()
}

// Close disconnects the client when the publisher is a full mqtt.Client.
func (m *MQTT) Close() error {
	if c, ok := m.pub.(mqtt.Client); ok {
		c.Disconnect(250)
	}
	return nil
}
