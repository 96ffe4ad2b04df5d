// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2025 Kaz Walker, Thermoquad

// Package telemetry publishes motor snapshots to an MQTT broker as CBOR.
//
// Topics, relative to the configured base topic:
//
//	<base>/<address>/status        CBOR Snapshot, one per poll
//	<base>/<address>/availability  "online" / "offline" (retained, also the LWT)
package telemetry

import (
	"errors"
	"fmt"
	"strconv"
	"time"

	pahomqtt "github.com/eclipse/paho.mqtt.golang"
	"github.com/fxamacker/cbor/v2"
	"go.uber.org/zap"

	"github.com/nosseb/macstat/internal/config"
	"github.com/nosseb/macstat/pkg/mac50"
)

const (
	connectTimeout    = 10 * time.Second
	publishTimeout    = 5 * time.Second
	disconnectQuiesce = 250 // milliseconds
)

var (
	// ErrConnectionFailed is returned when the broker cannot be reached
	ErrConnectionFailed = errors.New("telemetry: connection failed")
	// ErrPublishFailed is returned when a publish is not acknowledged
	ErrPublishFailed = errors.New("telemetry: publish failed")
)

// Snapshot is the payload published for every poll
type Snapshot struct {
	Address   uint8         `cbor:"address" json:"address"`
	Timestamp time.Time     `cbor:"timestamp" json:"timestamp"`
	Status    mac50.Status  `cbor:"status" json:"status"`
	Config    *mac50.Config `cbor:"config,omitempty" json:"config,omitempty"`
	Frames    uint64        `cbor:"frames" json:"frames"`
	Errors    uint64        `cbor:"errors" json:"errors"`
}

// Encode serializes a snapshot to CBOR
func Encode(s Snapshot) ([]byte, error) {
	return cbor.Marshal(s)
}

// Decode parses a CBOR snapshot
func Decode(data []byte) (Snapshot, error) {
	var s Snapshot
	if err := cbor.Unmarshal(data, &s); err != nil {
		return s, fmt.Errorf("telemetry: decode snapshot: %w", err)
	}
	return s, nil
}

// mqttPublisher is the subset of the paho client used here
type mqttPublisher interface {
	Publish(topic string, qos byte, retained bool, payload interface{}) pahomqtt.Token
}

// Publisher sends snapshots for one motor
type Publisher struct {
	client mqttPublisher
	conn   pahomqtt.Client
	base   string
	qos    byte
	retain bool
	logger *zap.Logger
}

// StatusTopic returns the status topic for a motor
func StatusTopic(base string, address uint8) string {
	return base + "/" + strconv.Itoa(int(address)) + "/status"
}

// AvailabilityTopic returns the availability topic for a motor
func AvailabilityTopic(base string, address uint8) string {
	return base + "/" + strconv.Itoa(int(address)) + "/availability"
}

// Connect opens a broker connection with a last-will marking the motor offline
func Connect(cfg config.MQTTConfig, address uint8, logger *zap.Logger) (*Publisher, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	availability := AvailabilityTopic(cfg.Topic, address)

	opts := pahomqtt.NewClientOptions()
	opts.AddBroker(cfg.Broker)
	opts.SetClientID(cfg.ClientID)
	if cfg.Username != "" {
		opts.SetUsername(cfg.Username)
		opts.SetPassword(cfg.Password)
	}
	opts.SetCleanSession(true)
	opts.SetAutoReconnect(true)
	opts.SetConnectTimeout(connectTimeout)
	opts.SetWill(availability, "offline", 1, true)
	opts.SetOnConnectHandler(func(c pahomqtt.Client) {
		c.Publish(availability, 1, true, "online")
		logger.Info("mqtt connected", zap.String("broker", cfg.Broker))
	})
	opts.SetConnectionLostHandler(func(_ pahomqtt.Client, err error) {
		logger.Warn("mqtt connection lost", zap.Error(err))
	})

	client := pahomqtt.NewClient(opts)
	token := client.Connect()
	if !token.WaitTimeout(connectTimeout) {
		return nil, fmt.Errorf("%w: timeout after %v", ErrConnectionFailed, connectTimeout)
	}
	if err := token.Error(); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrConnectionFailed, err)
	}

	p := newPublisher(client, cfg, logger)
	p.conn = client
	return p, nil
}

func newPublisher(client mqttPublisher, cfg config.MQTTConfig, logger *zap.Logger) *Publisher {
	return &Publisher{
		client: client,
		base:   cfg.Topic,
		qos:    byte(cfg.QoS),
		retain: cfg.Retain,
		logger: logger,
	}
}

// Publish encodes and sends a snapshot
func (p *Publisher) Publish(s Snapshot) error {
	payload, err := Encode(s)
	if err != nil {
		return fmt.Errorf("telemetry: encode snapshot: %w", err)
	}
	topic := StatusTopic(p.base, s.Address)
	token := p.client.Publish(topic, p.qos, p.retain, payload)
	if !token.WaitTimeout(publishTimeout) {
		return fmt.Errorf("%w: timeout after %v", ErrPublishFailed, publishTimeout)
	}
	if err := token.Error(); err != nil {
		return fmt.Errorf("%w: %w", ErrPublishFailed, err)
	}
	p.logger.Debug("published snapshot", zap.String("topic", topic), zap.Int("bytes", len(payload)))
	return nil
}

// Close marks the motor offline and disconnects
func (p *Publisher) Close(address uint8) {
	if p.conn == nil {
		return
	}
	if p.conn.IsConnected() {
		p.conn.Publish(AvailabilityTopic(p.base, address), 1, true, "offline").WaitTimeout(publishTimeout)
	}
	p.conn.Disconnect(disconnectQuiesce)
}
