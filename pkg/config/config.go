// Package config holds the peripheral's configuration.
package config

import (
	"fmt"
	"os"
	"time"

	"github.com/go-ble/ble"
	"github.com/mcuadros/go-defaults"
	"github.com/sirupsen/logrus"
	"gopkg.in/yaml.v3"
)

// Config holds application configuration.
//
// The UUID defaults match the ESP32 tester board this peripheral emulates, so
// existing client apps can talk to either without reconfiguration.
type Config struct {
	// Name is the advertised device name. Fixed for the process lifetime.
	Name string `yaml:"name" default:"BLE_TESTER"`

	ServiceUUID       string `yaml:"service_uuid" default:"abcd1234-1234-1234-1234-1234567890aa"`
	OpenCharUUID      string `yaml:"open_char_uuid" default:"abcd1234-1234-1234-1234-1234567890ab"`
	EncryptedCharUUID string `yaml:"encrypted_char_uuid" default:"abcd1234-1234-1234-1234-1234567890ac"`

	// Brightness is the indicator brightness, 0-255. The default is half
	// brightness, same as the hardware tester.
	Brightness uint8 `yaml:"brightness" default:"127"`

	// EventBuffer is the capacity of the event ring; oldest events are
	// dropped when the consumer falls behind.
	EventBuffer int `yaml:"event_buffer" default:"64"`

	LogLevel string `yaml:"log_level" default:"info"`
}

// DefaultConfig returns default configuration values.
func DefaultConfig() *Config {
	cfg := &Config{}
	defaults.SetDefaults(cfg)
	return cfg
}

// Load reads a YAML config file on top of the defaults.
func Load(path string) (*Config, error) {
	cfg := DefaultConfig()

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config file %q: %w", path, err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config file %q: %w", path, err)
	}
	return cfg, nil
}

// Validate checks that the configuration is internally consistent.
func (c *Config) Validate() error {
	if c.Name == "" {
		return fmt.Errorf("name must not be empty")
	}
	for field, uuid := range map[string]string{
		"service_uuid":        c.ServiceUUID,
		"open_char_uuid":      c.OpenCharUUID,
		"encrypted_char_uuid": c.EncryptedCharUUID,
	} {
		if _, err := ble.Parse(uuid); err != nil {
			return fmt.Errorf("%s: invalid UUID %q: %w", field, uuid, err)
		}
	}
	if c.OpenCharUUID == c.EncryptedCharUUID {
		return fmt.Errorf("open and encrypted characteristics must have distinct UUIDs")
	}
	if c.EventBuffer <= 0 {
		return fmt.Errorf("event_buffer must be positive")
	}
	if _, err := logrus.ParseLevel(c.LogLevel); err != nil {
		return fmt.Errorf("invalid log_level %q: %w", c.LogLevel, err)
	}
	return nil
}

// NewLogger creates a configured logger instance.
func (c *Config) NewLogger() *logrus.Logger {
	logger := logrus.New()

	level, err := logrus.ParseLevel(c.LogLevel)
	if err != nil {
		level = logrus.InfoLevel
	}
	logger.SetLevel(level)

	// Use structured logging format
	logger.SetFormatter(&logrus.TextFormatter{
		FullTimestamp:   true,
		TimestampFormat: time.RFC3339,
	})

	return logger
}
