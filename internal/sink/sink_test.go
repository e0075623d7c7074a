// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package sink

import (
	"bytes"
	"encoding/json"
	"errors"
	"image"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	mqtt "github.com/eclipse/paho.mqtt.golang"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"periph.io/x/devices/v3/ssd1306/image1bit"

	"github.com/relabs-tech/imu_logger/internal/imu"
)

var sample = imu.Sample{
	Time: time.Unix(1712345678, 123456000),
	Ax:   0.01, Ay: -0.02, Az: 0.998,
	Wx: 1.5, Wy: -0.25, Wz: 0,
	Roll: 12.345, Pitch: -3.21, Yaw: 179.9,
	Temperature: 36.291,
}

func TestFilename(t *testing.T) {
	ts := time.Date(2024, 3, 9, 7, 5, 1, 0, time.Local)
	assert.Equal(t, filepath.Join("logs", "log_20240309_070501.csv"), Filename("logs", "log", ".csv", ts))
}

func TestCSVWritesHeaderAndLines(t *testing.T) {
	var buf bytes.Buffer
	c, err := NewCSV(&buf)
	require.NoError(t, err)

	require.NoError(t, c.Write(sample))
	require.NoError(t, c.Write(sample))
	require.NoError(t, c.Close())

	lines := strings.Split(strings.TrimSuffix(buf.String(), "\n"), "\n")
	require.Len(t, lines, 3)
	assert.Equal(t, CSVHeader, lines[0])
	assert.Equal(t, "1712345678.123456,0.010,-0.020,0.998,1.500,-0.250,0.000,12.345,-3.210,179.900,36.291", lines[1])
	assert.Equal(t, lines[1], lines[2])
	assert.Len(t, strings.Split(lines[1], ","), len(strings.Split(CSVHeader, ",")))
}

func TestCreateCSV(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "logs")
	now := time.Date(2026, 10, 16, 9, 30, 0, 0, time.Local)

	c, err := CreateCSV(dir, "log", now)
	require.NoError(t, err)
	require.NoError(t, c.Write(sample))

	// flushed per line: visible before Close
	data, err := os.ReadFile(c.Path())
	require.NoError(t, err)
	assert.Equal(t, 2, strings.Count(string(data), "\n"))
	require.NoError(t, c.Close())

	_, err = CreateCSV(dir, "log", now)
	assert.Error(t, err, "existing log must not be truncated")
}

func TestConsoleOverwritesLine(t *testing.T) {
	var buf bytes.Buffer
	c := NewConsole(&buf)
	require.NoError(t, c.Close())
	assert.Empty(t, buf.String())

	require.NoError(t, c.Write(sample))
	require.NoError(t, c.Write(sample))
	require.NoError(t, c.Close())

	out := buf.String()
	assert.Equal(t, 2, strings.Count(out, "\r"))
	assert.True(t, strings.HasSuffix(out, "\n"))
	assert.Contains(t, out, "Time: 1712345678.12 | Ax: 0.010 Ay: -0.020 Az: 0.998")
	assert.Contains(t, out, "| Roll: 12.345 Pitch: -3.210 Yaw: 179.900 | T: 36.291")
}

type recordSink struct {
	got    []imu.Sample
	err    error
	closed *[]string
	name   string
}

func (r *recordSink) Write(s imu.Sample) error {
	r.got = append(r.got, s)
	return r.err
}

func (r *recordSink) Close() error {
	*r.closed = append(*r.closed, r.name)
	return nil
}

func TestMultiFansOut(t *testing.T) {
	var closed []string
	a := &recordSink{name: "a", closed: &closed}
	b := &recordSink{name: "b", closed: &closed, err: errors.New("broker down")}
	c := &recordSink{name: "c", closed: &closed}

	m := NewMulti()
	m.Add("a", a)
	m.Add("b", b)
	m.Add("c", c)
	assert.Equal(t, 3, m.Len())

	err := m.Write(sample)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "b: broker down")
	assert.Len(t, a.got, 1)
	assert.Len(t, c.got, 1, "a failing sink must not starve the next one")
	assert.Equal(t, 1, m.Errors("b"))

	require.NoError(t, m.Close())
	assert.Equal(t, []string{"c", "b", "a"}, closed)
}

type fakeToken struct {
	err     error
	timeout bool
}

func (f *fakeToken) Wait() bool                     { return !f.timeout }
func (f *fakeToken) WaitTimeout(time.Duration) bool { return !f.timeout }
func (f *fakeToken) Done() <-chan struct{} {
	ch := make(chan struct{})
	close(ch)
	return ch
}
func (f *fakeToken) Error() error { return f.err }

type fakePublisher struct {
	topic    string
	retained bool
	payload  []byte
	token    *fakeToken
}

func (f *fakePublisher) Publish(topic string, qos byte, retained bool, payload interface{}) mqtt.Token {
	f.topic = topic
	f.retained = retained
	f.payload = payload.([]byte)
	return f.token
}

func TestMQTTPublishesJSON(t *testing.T) {
	pub := &fakePublisher{token: &fakeToken{}}
	m := NewMQTT(pub, "imu/sample")

	require.NoError(t, m.Write(sample))
	assert.Equal(t, "imu/sample", pub.topic)
	assert.True(t, pub.retained)

	var got imu.Sample
	require.NoError(t, json.Unmarshal(pub.payload, &got))
	assert.True(t, got.Time.Equal(sample.Time))
	assert.True(t, got.SameReading(sample))
	assert.NoError(t, m.Close())
}

func TestMQTTPublishErrors(t *testing.T) {
	pub := &fakePublisher{token: &fakeToken{err: errors.New("not connected")}}
	assert.EqualError(t, NewMQTT(pub, "t").Write(sample), "not connected")

	pub = &fakePublisher{token: &fakeToken{timeout: true}}
	assert.ErrorContains(t, NewMQTT(pub, "t").Write(sample), "timed out")
}

func TestSQLiteStoresSamples(t *testing.T) {
	path := filepath.Join(t.TempDir(), "imu.sqlite")
	s, err := OpenSQLite(path, "/dev/ttyUSB0", WithBatchSize(3))
	require.NoError(t, err)
	require.NotEmpty(t, s.SessionID())

	count := func() int {
		var n int
		require.NoError(t, s.DB().QueryRow(`SELECT COUNT(*) FROM samples WHERE session_id = ?`, s.SessionID()).Scan(&n))
		return n
	}

	for i := 0; i < 4; i++ {
		require.NoError(t, s.Write(sample))
	}
	assert.Equal(t, 3, count())

	require.NoError(t, s.Flush())
	assert.Equal(t, 4, count())

	var yaw, temp float64
	var ts int64
	require.NoError(t, s.DB().QueryRow(`SELECT time_ns, yaw, temp_c FROM samples LIMIT 1`).Scan(&ts, &yaw, &temp))
	assert.Equal(t, sample.Time.UnixNano(), ts)
	assert.Equal(t, sample.Yaw, yaw)
	assert.Equal(t, sample.Temperature, temp)

	require.NoError(t, s.Write(sample))
	require.NoError(t, s.Close())

	// a second session in the same file gets its own id
	s2, err := OpenSQLite(path, "/dev/ttyUSB0")
	require.NoError(t, err)
	defer s2.Close()
	assert.NotEqual(t, s.SessionID(), s2.SessionID())

	var total int
	require.NoError(t, s2.DB().QueryRow(`SELECT COUNT(*) FROM samples`).Scan(&total))
	assert.Equal(t, 5, total)
}

type fakePanel struct {
	draws int
	last  image.Image
}

func (f *fakePanel) Bounds() image.Rectangle { return image.Rect(0, 0, 128, 64) }

func (f *fakePanel) Draw(r image.Rectangle, src image.Image, sp image.Point) error {
	f.draws++
	f.last = src
	return nil
}

func TestDisplayRateLimits(t *testing.T) {
	panel := &fakePanel{}
	d := NewDisplay(panel, 200*time.Millisecond)
	clock := time.Unix(0, 0)
	d.now = func() time.Time { return clock }

	require.NoError(t, d.Write(sample))
	clock = clock.Add(50 * time.Millisecond)
	require.NoError(t, d.Write(sample))
	clock = clock.Add(200 * time.Millisecond)
	require.NoError(t, d.Write(sample))

	assert.Equal(t, 2, panel.draws)
	assert.NoError(t, d.Close())
}

func TestRenderDrawsText(t *testing.T) {
	img := Render(sample)
	assert.Equal(t, image.Rect(0, 0, 128, 64), img.Bounds())

	lit := 0
	for y := 0; y < 64; y++ {
		for x := 0; x < 128; x++ {
			if img.BitAt(x, y) == image1bit.On {
				lit++
			}
		}
	}
	assert.Greater(t, lit, 100)
}
