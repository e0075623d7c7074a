// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package config

import (
	"bufio"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"sync"

	"gopkg.in/yaml.v3"
)

// Config holds all application configuration values.
type Config struct {
	// Serial link to the IMU
	SerialPort        string `yaml:"serial_port"`
	SerialBaudRate    int    `yaml:"serial_baud_rate"`
	SerialReadTimeout int    `yaml:"serial_read_timeout"` // milliseconds

	// Frame synchronizer
	SyncMaxShifts    int `yaml:"sync_max_shifts"`
	SyncMaxIdleReads int `yaml:"sync_max_idle_reads"`

	// CSV log
	CSVEnabled  bool   `yaml:"csv_enabled"`
	LogDir      string `yaml:"log_dir"`
	LogBasename string `yaml:"log_basename"`
	LogDebug    bool   `yaml:"log_debug"`

	// Console line
	ConsoleEnabled bool `yaml:"console_enabled"`

	// SQLite store; empty path disables it
	SQLitePath string `yaml:"sqlite_path"`

	// MQTT; empty broker disables the publisher
	MQTTBroker          string `yaml:"mqtt_broker"`
	MQTTClientIDLogger  string `yaml:"mqtt_client_id_logger"`
	MQTTClientIDConsole string `yaml:"mqtt_client_id_console"`
	MQTTClientIDWeb     string `yaml:"mqtt_client_id_web"`

	// Topics
	TopicSample string `yaml:"topic_sample"`

	// OLED display
	DisplayEnabled        bool   `yaml:"display_enabled"`
	DisplayI2CBus         string `yaml:"display_i2c_bus"`         // empty picks the first bus
	DisplayUpdateInterval int    `yaml:"display_update_interval"` // milliseconds

	// Prometheus endpoint of the logger; empty disables it
	MetricsAddr string `yaml:"metrics_addr"`

	// Web Server
	WebServerPort int `yaml:"web_server_port"`
}

// Package-level unexported variables for singleton pattern:
//   - globalConfig: only reachable through InitGlobal and Get.
//   - configOnce: ensures InitGlobal() only runs once, even if called multiple times.
//   - configMu: RWMutex protects concurrent access.
var (
	globalConfig *Config
	configOnce   sync.Once
	configMu     sync.RWMutex
)

// Default returns a Config with every optional value filled in. SerialPort is
// left empty because it has no sensible default.
func Default() *Config {
	return &Config{
		SerialBaudRate:        115200,
		SerialReadTimeout:     100,
		SyncMaxShifts:         33,
		SyncMaxIdleReads:      30,
		CSVEnabled:            true,
		LogDir:                ".",
		LogBasename:           "log",
		ConsoleEnabled:        true,
		MQTTClientIDLogger:    "imu-logger",
		MQTTClientIDConsole:   "imu-console-subscriber",
		MQTTClientIDWeb:       "imu-web-subscriber",
		TopicSample:           "imu/sample",
		DisplayUpdateInterval: 200,
		WebServerPort:         8080,
	}
}

// Load reads the configuration file and returns a Config struct. Files ending
// in .yaml or .yml are decoded as YAML, anything else as KEY=VALUE lines.
func Load(configPath string) (*Config, error) {
	file, err := os.Open(configPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open config file: %w", err)
	}
	defer file.Close()

	cfg := Default()

	switch strings.ToLower(filepath.Ext(configPath)) {
	case ".yaml", ".yml":
		dec := yaml.NewDecoder(file)
		dec.KnownFields(true)
		if err := dec.Decode(cfg); err != nil {
			return nil, fmt.Errorf("error decoding yaml config: %w", err)
		}
	default:
		if err := cfg.parseLines(file); err != nil {
			return nil, err
		}
	}

	// Validate required fields
	if err := cfg.validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

func (c *Config) parseLines(file *os.File) error {
	scanner := bufio.NewScanner(file)
	lineNum := 0

	for scanner.Scan() {
		lineNum++
		line := strings.TrimSpace(scanner.Text())

		// Skip empty lines and comments
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}

		// Parse KEY=VALUE
		parts := strings.SplitN(line, "=", 2)
		if len(parts) != 2 {
			return fmt.Errorf("invalid config line %d: %q", lineNum, line)
		}

		key := strings.TrimSpace(parts[0])
		value := strings.TrimSpace(parts[1])

		if err := c.setValue(key, value); err != nil {
			return fmt.Errorf("config line %d: %w", lineNum, err)
		}
	}

	if err := scanner.Err(); err != nil {
		return fmt.Errorf("error reading config file: %w", err)
	}
	return nil
}

// setValue sets a config value based on the key.
func (c *Config) setValue(key, value string) error {
	var err error

	switch key {
	// Serial
	case "SERIAL_PORT":
		c.SerialPort = value
	case "SERIAL_BAUD_RATE":
		c.SerialBaudRate, err = parseInt(key, value)
	case "SERIAL_READ_TIMEOUT":
		c.SerialReadTimeout, err = parseInt(key, value)

	// Sync
	case "SYNC_MAX_SHIFTS":
		c.SyncMaxShifts, err = parseInt(key, value)
	case "SYNC_MAX_IDLE_READS":
		c.SyncMaxIdleReads, err = parseInt(key, value)

	// Logging
	case "CSV_ENABLED":
		c.CSVEnabled, err = parseBool(key, value)
	case "LOG_DIR":
		c.LogDir = value
	case "LOG_BASENAME":
		c.LogBasename = value
	case "LOG_DEBUG":
		c.LogDebug, err = parseBool(key, value)
	case "CONSOLE_ENABLED":
		c.ConsoleEnabled, err = parseBool(key, value)
	case "SQLITE_PATH":
		c.SQLitePath = value

	// MQTT
	case "MQTT_BROKER":
		c.MQTTBroker = value
	case "MQTT_CLIENT_ID_LOGGER":
		c.MQTTClientIDLogger = value
	case "MQTT_CLIENT_ID_CONSOLE":
		c.MQTTClientIDConsole = value
	case "MQTT_CLIENT_ID_WEB":
		c.MQTTClientIDWeb = value
	case "TOPIC_SAMPLE":
		c.TopicSample = value

	// Display
	case "DISPLAY_ENABLED":
		c.DisplayEnabled, err = parseBool(key, value)
	case "DISPLAY_I2C_BUS":
		c.DisplayI2CBus = value
	case "DISPLAY_UPDATE_INTERVAL":
		c.DisplayUpdateInterval, err = parseInt(key, value)

	// Servers
	case "METRICS_ADDR":
		c.MetricsAddr = value
	case "WEB_SERVER_PORT":
		c.WebServerPort, err = parseInt(key, value)

	default:
		return fmt.Errorf("unknown config key: %q", key)
	}

	return err
}

func parseInt(key, value string) (int, error) {
	v, err := strconv.Atoi(value)
	if err != nil {
		return 0, fmt.Errorf("invalid %s %q: %w", key, value, err)
	}
	return v, nil
}

func parseBool(key, value string) (bool, error) {
	v, err := strconv.ParseBool(value)
	if err != nil {
		return false, fmt.Errorf("invalid %s %q: %w", key, value, err)
	}
	return v, nil
}

// validate checks that the values present are in range. Keys only one binary
// needs are checked by RequireSerial and RequireBroker.
func (c *Config) validate() error {
	if c.SerialBaudRate <= 0 {
		return fmt.Errorf("SERIAL_BAUD_RATE must be positive, got %d", c.SerialBaudRate)
	}
	// termios VTIME is expressed in tenths of a second, max 25.5 s
	if c.SerialReadTimeout < 100 || c.SerialReadTimeout > 25500 {
		return fmt.Errorf("SERIAL_READ_TIMEOUT must be 100-25500 ms, got %d", c.SerialReadTimeout)
	}
	if c.SyncMaxShifts < 1 {
		return fmt.Errorf("SYNC_MAX_SHIFTS must be at least 1, got %d", c.SyncMaxShifts)
	}
	if c.SyncMaxIdleReads < 1 {
		return fmt.Errorf("SYNC_MAX_IDLE_READS must be at least 1, got %d", c.SyncMaxIdleReads)
	}
	if c.CSVEnabled && c.LogBasename == "" {
		return fmt.Errorf("LOG_BASENAME is required when CSV_ENABLED=true")
	}
	if c.MQTTBroker != "" && c.TopicSample == "" {
		return fmt.Errorf("TOPIC_SAMPLE is required when MQTT_BROKER is set")
	}
	if c.DisplayEnabled && c.DisplayUpdateInterval <= 0 {
		return fmt.Errorf("DISPLAY_UPDATE_INTERVAL must be positive, got %d", c.DisplayUpdateInterval)
	}
	return nil
}

// RequireSerial checks the keys needed to open the sensor link.
func (c *Config) RequireSerial() error {
	if c.SerialPort == "" {
		return fmt.Errorf("SERIAL_PORT is required")
	}
	return nil
}

// RequireBroker checks the keys needed by the MQTT subscribers.
func (c *Config) RequireBroker() error {
	if c.MQTTBroker == "" {
		return fmt.Errorf("MQTT_BROKER is required")
	}
	if c.TopicSample == "" {
		return fmt.Errorf("TOPIC_SAMPLE is required")
	}
	return nil
}

// InitGlobal initializes the global configuration from file.
// Uses sync.Once to ensure this only runs once, even if called multiple times.
func InitGlobal(configPath string) error {
	var err error
	configOnce.Do(func() {
		configMu.Lock()
		defer configMu.Unlock()
		globalConfig, err = Load(configPath)
	})
	return err
}

// Get returns the global configuration instance.
// InitGlobal must be called first, or this will return nil.
func Get() *Config {
	configMu.RLock()
	defer configMu.RUnlock()
	return globalConfig
}
