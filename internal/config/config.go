// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2025 Kaz Walker, Thermoquad

// Package config loads macstat settings from defaults, an optional YAML file,
// MACSTAT_* environment variables and bound command-line flags.
package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// EnvPrefix is prepended to every environment override, e.g. MACSTAT_SERIAL_PORT
const EnvPrefix = "MACSTAT"

// SerialConfig describes the local serial link
type SerialConfig struct {
	Port    string        `mapstructure:"port"`
	Baud    int           `mapstructure:"baud"`
	Timeout time.Duration `mapstructure:"timeout"`
}

// DeviceConfig selects the motor and its register table
type DeviceConfig struct {
	Address   int    `mapstructure:"address"`
	Registers string `mapstructure:"registers"`
	Simulate  bool   `mapstructure:"simulate"`
}

// WebSocketConfig describes a serial-over-websocket gateway
type WebSocketConfig struct {
	URL         string `mapstructure:"url"`
	Username    string `mapstructure:"username"`
	NoSSLVerify bool   `mapstructure:"no_ssl_verify"`
}

// FileConfig controls the rotating log file
type FileConfig struct {
	Filename   string `mapstructure:"filename"`
	MaxSizeMB  int    `mapstructure:"max_size"`
	MaxBackups int    `mapstructure:"max_backups"`
	MaxAgeDays int    `mapstructure:"max_age"`
	Compress   bool   `mapstructure:"compress"`
}

// LogConfig controls log level and outputs
type LogConfig struct {
	Level  string     `mapstructure:"level"`
	Format string     `mapstructure:"format"`
	File   FileConfig `mapstructure:"file"`
}

// MQTTConfig describes the telemetry broker
type MQTTConfig struct {
	Broker   string `mapstructure:"broker"`
	ClientID string `mapstructure:"client_id"`
	Username string `mapstructure:"username"`
	Password string `mapstructure:"password"`
	Topic    string `mapstructure:"topic"`
	QoS      int    `mapstructure:"qos"`
	Retain   bool   `mapstructure:"retain"`
}

// MetricsConfig controls the Prometheus endpoint
type MetricsConfig struct {
	Listen string `mapstructure:"listen"`
	Path   string `mapstructure:"path"`
}

// WatchConfig controls the polling loop
type WatchConfig struct {
	Interval time.Duration `mapstructure:"interval"`
}

// Config is the top-level configuration
type Config struct {
	Serial    SerialConfig    `mapstructure:"serial"`
	Device    DeviceConfig    `mapstructure:"device"`
	WebSocket WebSocketConfig `mapstructure:"websocket"`
	Log       LogConfig       `mapstructure:"log"`
	MQTT      MQTTConfig      `mapstructure:"mqtt"`
	Metrics   MetricsConfig   `mapstructure:"metrics"`
	Watch     WatchConfig     `mapstructure:"watch"`
}

// New returns a viper instance with defaults and environment overrides set up.
// Flags can be bound to it before Load is called.
func New() *viper.Viper {
	v := viper.New()
	setDefaults(v)
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	return v
}

// Load reads the config file at path (or $MACSTAT_CONFIG) into v and returns
// the validated result. A missing file is only an error when a path was given.
func Load(v *viper.Viper, path string) (*Config, error) {
	if path == "" {
		path = os.Getenv(EnvPrefix + "_CONFIG")
	}
	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("read config: %w", err)
		}
	} else {
		v.SetConfigName("macstat")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		if home, err := os.UserConfigDir(); err == nil {
			v.AddConfigPath(home + "/macstat")
		}
		if err := v.ReadInConfig(); err != nil {
			var notFound viper.ConfigFileNotFoundError
			if !errors.As(err, &notFound) {
				return nil, fmt.Errorf("read config: %w", err)
			}
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate checks value ranges
func (c *Config) Validate() error {
	if c.Device.Address < 0 || c.Device.Address > 255 {
		return fmt.Errorf("config: device.address %d outside 0-255", c.Device.Address)
	}
	if c.Serial.Baud <= 0 {
		return fmt.Errorf("config: serial.baud must be positive, got %d", c.Serial.Baud)
	}
	if c.Serial.Timeout <= 0 {
		return fmt.Errorf("config: serial.timeout must be positive, got %v", c.Serial.Timeout)
	}
	if c.MQTT.QoS < 0 || c.MQTT.QoS > 2 {
		return fmt.Errorf("config: mqtt.qos must be 0, 1 or 2, got %d", c.MQTT.QoS)
	}
	if c.Watch.Interval <= 0 {
		return fmt.Errorf("config: watch.interval must be positive, got %v", c.Watch.Interval)
	}
	switch strings.ToLower(c.Log.Level) {
	case "debug", "info", "warn", "warning", "error":
	default:
		return fmt.Errorf("config: unknown log.level %q", c.Log.Level)
	}
	switch strings.ToLower(c.Log.Format) {
	case "console", "json":
	default:
		return fmt.Errorf("config: unknown log.format %q", c.Log.Format)
	}
	return nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("serial.port", "")
	v.SetDefault("serial.baud", 19200)
	v.SetDefault("serial.timeout", "100ms")

	v.SetDefault("device.address", 255)
	v.SetDefault("device.registers", "")
	v.SetDefault("device.simulate", false)

	v.SetDefault("websocket.url", "")
	v.SetDefault("websocket.username", "admin")
	v.SetDefault("websocket.no_ssl_verify", false)

	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "console")
	v.SetDefault("log.file.filename", "")
	v.SetDefault("log.file.max_size", 10)
	v.SetDefault("log.file.max_backups", 3)
	v.SetDefault("log.file.max_age", 28)
	v.SetDefault("log.file.compress", false)

	v.SetDefault("mqtt.broker", "")
	v.SetDefault("mqtt.client_id", "macstat")
	v.SetDefault("mqtt.username", "")
	v.SetDefault("mqtt.password", "")
	v.SetDefault("mqtt.topic", "macstat")
	v.SetDefault("mqtt.qos", 1)
	v.SetDefault("mqtt.retain", true)

	v.SetDefault("metrics.listen", "")
	v.SetDefault("metrics.path", "/metrics")

	v.SetDefault("watch.interval", "1s")
}
