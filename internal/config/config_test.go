// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeFile(t *testing.T, name, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(body), 0o644))
	return path
}

func TestLoadKeyValue(t *testing.T) {
	path := writeFile(t, "imu_config.txt", `
# BWT61CL on the USB adapter
SERIAL_PORT=/dev/ttyUSB0
SERIAL_BAUD_RATE = 9600
SYNC_MAX_SHIFTS=66
SYNC_MAX_IDLE_READS=10
CONSOLE_ENABLED=false
MQTT_BROKER=tcp://localhost:1883
DISPLAY_I2C_BUS=1
METRICS_ADDR=:9100
`)

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "/dev/ttyUSB0", cfg.SerialPort)
	assert.Equal(t, 9600, cfg.SerialBaudRate)
	assert.Equal(t, 66, cfg.SyncMaxShifts)
	assert.Equal(t, 10, cfg.SyncMaxIdleReads)
	assert.False(t, cfg.ConsoleEnabled)
	assert.Equal(t, "tcp://localhost:1883", cfg.MQTTBroker)
	assert.Equal(t, "1", cfg.DisplayI2CBus)
	assert.Equal(t, ":9100", cfg.MetricsAddr)

	// untouched defaults
	assert.Equal(t, 100, cfg.SerialReadTimeout)
	assert.True(t, cfg.CSVEnabled)
	assert.Equal(t, "log", cfg.LogBasename)
	assert.Equal(t, "imu/sample", cfg.TopicSample)
}

func TestLoadYAML(t *testing.T) {
	path := writeFile(t, "imu_config.yaml", `
serial_port: /dev/ttyACM0
serial_read_timeout: 1000
sqlite_path: data/imu.sqlite
display_enabled: true
`)

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "/dev/ttyACM0", cfg.SerialPort)
	assert.Equal(t, 1000, cfg.SerialReadTimeout)
	assert.Equal(t, "data/imu.sqlite", cfg.SQLitePath)
	assert.True(t, cfg.DisplayEnabled)
	assert.Equal(t, 115200, cfg.SerialBaudRate)
}

func TestLoadErrors(t *testing.T) {
	tests := []struct {
		name string
		file string
		body string
		msg  string
	}{
		{"idle budget", "a.txt", "SYNC_MAX_IDLE_READS=0\n", "SYNC_MAX_IDLE_READS"},
		{"unknown key", "b.txt", "SERIAL_PORT=/dev/ttyUSB0\nBAUD=1\n", "config line 2"},
		{"no equals", "c.txt", "SERIAL_PORT\n", "invalid config line 1"},
		{"bad int", "d.txt", "SERIAL_PORT=x\nSYNC_MAX_SHIFTS=many\n", "invalid SYNC_MAX_SHIFTS"},
		{"bad bool", "e.txt", "SERIAL_PORT=x\nCSV_ENABLED=maybe\n", "invalid CSV_ENABLED"},
		{"timeout range", "f.txt", "SERIAL_PORT=x\nSERIAL_READ_TIMEOUT=5\n", "SERIAL_READ_TIMEOUT"},
		{"yaml unknown field", "g.yaml", "serial_port: x\nbaud: 3\n", "yaml"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Load(writeFile(t, tt.file, tt.body))
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.msg)
		})
	}
}

func TestRequireSerial(t *testing.T) {
	cfg, err := Load(writeFile(t, "web.txt", "MQTT_BROKER=tcp://pi.local:1883\n"))
	require.NoError(t, err)

	err = cfg.RequireSerial()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "SERIAL_PORT is required")
	assert.NoError(t, cfg.RequireBroker())

	cfg.SerialPort = "/dev/ttyUSB0"
	assert.NoError(t, cfg.RequireSerial())
}

func TestRequireBroker(t *testing.T) {
	cfg, err := Load(writeFile(t, "logger.txt", "SERIAL_PORT=/dev/ttyUSB0\n"))
	require.NoError(t, err)

	err = cfg.RequireBroker()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "MQTT_BROKER is required")

	cfg.MQTTBroker = "tcp://localhost:1883"
	cfg.TopicSample = ""
	assert.ErrorContains(t, cfg.RequireBroker(), "TOPIC_SAMPLE")
}

func TestLoadMissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "nope.txt"))
	assert.ErrorIs(t, err, os.ErrNotExist)
}
