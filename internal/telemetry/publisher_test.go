// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2025 Kaz Walker, Thermoquad

package telemetry

import (
	"testing"
	"time"

	pahomqtt "github.com/eclipse/paho.mqtt.golang"
	"go.uber.org/zap"

	"github.com/nosseb/macstat/internal/config"
	"github.com/nosseb/macstat/pkg/mac50"
)

type published struct {
	topic    string
	qos      byte
	retained bool
	payload  []byte
}

type fakeClient struct {
	messages []published
}

func (f *fakeClient) Publish(topic string, qos byte, retained bool, payload interface{}) pahomqtt.Token {
	f.messages = append(f.messages, published{topic, qos, retained, payload.([]byte)})
	return &pahomqtt.DummyToken{}
}

func TestSnapshot_RoundTrip(t *testing.T) {
	cfg := mac50.Config{MinPosition: -1000, MaxPosition: 1000, StartMode: mac50.ModePosition}
	in := Snapshot{
		Address:   7,
		Timestamp: time.Unix(1700000000, 0).UTC(),
		Status: mac50.Status{
			Mode:           mac50.ModePosition,
			ActualPosition: -512,
			TargetPosition: 4096,
		},
		Config: &cfg,
		Frames: 42,
	}

	data, err := Encode(in)
	if err != nil {
		t.Fatalf("Encode: %v", err)
	}
	out, err := Decode(data)
	if err != nil {
		t.Fatalf("Decode: %v", err)
	}
	if out.Address != 7 || out.Frames != 42 || !out.Timestamp.Equal(in.Timestamp) {
		t.Errorf("header = %+v", out)
	}
	if out.Status.Mode != mac50.ModePosition || out.Status.ActualPosition != -512 {
		t.Errorf("status = %+v", out.Status)
	}
	if out.Config == nil || out.Config.MinPosition != -1000 {
		t.Errorf("config = %+v", out.Config)
	}
}

func TestDecode_Garbage(t *testing.T) {
	if _, err := Decode([]byte{0xFF, 0x00}); err == nil {
		t.Error("expected error for invalid CBOR")
	}
}

func TestPublisher_Publish(t *testing.T) {
	fake := &fakeClient{}
	p := newPublisher(fake, config.MQTTConfig{Topic: "lab", QoS: 1, Retain: true}, zap.NewNop())

	if err := p.Publish(Snapshot{Address: 3, Status: mac50.Status{Mode: mac50.ModeVelocity}}); err != nil {
		t.Fatalf("Publish: %v", err)
	}
	if len(fake.messages) != 1 {
		t.Fatalf("published %d messages", len(fake.messages))
	}
	msg := fake.messages[0]
	if msg.topic != "lab/3/status" || msg.qos != 1 || !msg.retained {
		t.Errorf("message = %+v", msg)
	}
	s, err := Decode(msg.payload)
	if err != nil || s.Status.Mode != mac50.ModeVelocity {
		t.Errorf("payload decoded to %+v, %v", s, err)
	}
}

func TestTopics(t *testing.T) {
	if got := StatusTopic("macstat", 255); got != "macstat/255/status" {
		t.Errorf("StatusTopic = %q", got)
	}
	if got := AvailabilityTopic("macstat", 1); got != "macstat/1/availability" {
		t.Errorf("AvailabilityTopic = %q", got)
	}
}
