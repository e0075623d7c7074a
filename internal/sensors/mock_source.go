// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package sensors

import (
	"math"
	"math/rand"
	"time"

	"github.com/relabs-tech/imu_logger/internal/frame"
	"github.com/relabs-tech/imu_logger/internal/imu"
	"github.com/relabs-tech/imu_logger/internal/orientation"
)

// MockOptions shapes the synthetic stream.
type MockOptions struct {
	Interval    time.Duration // time between blocks; 0 streams as fast as read
	GarbageRate float64       // probability of 1-10 noise bytes before a block
	CorruptRate float64       // probability of flipping one payload byte of a block
	TimeoutRate float64       // probability of a read returning no data
	MaxChunk    int           // upper bound of bytes returned per read; 0 = unbounded
	Seed        int64
}

// DefaultMockOptions mimics a 100 Hz sensor on a slightly noisy link.
var DefaultMockOptions = MockOptions{
	Interval:    10 * time.Millisecond,
	GarbageRate: 0.05,
	CorruptRate: 0.02,
	TimeoutRate: 0.01,
	MaxChunk:    16,
	Seed:        1,
}

// MockStats counts what the mock has produced so far.
type MockStats struct {
	Blocks    int
	Corrupted int
	Garbage   int // noise bytes
}

// MockSource produces a WIT byte stream for a sensor swaying through the
// orientation mock motion, with configurable link noise.
type MockSource struct {
	opts    MockOptions
	rng     *rand.Rand
	start   time.Time
	next    time.Time
	pending []byte
	stats   MockStats

	now   func() time.Time
	sleep func(time.Duration)
}

// NewMockSource creates a synthetic byte source.
func NewMockSource(opts MockOptions) *MockSource {
	now := time.Now()
	return &MockSource{
		opts:  opts,
		rng:   rand.New(rand.NewSource(opts.Seed)),
		start: now,
		next:  now,
		now:   time.Now,
		sleep: time.Sleep,
	}
}

// Stats returns the production counters.
func (m *MockSource) Stats() MockStats { return m.stats }

// Read implements frame.Source. It never fails.
func (m *MockSource) Read(p []byte) (int, error) {
	if len(p) == 0 {
		return 0, nil
	}
	if m.opts.TimeoutRate > 0 && m.rng.Float64() < m.opts.TimeoutRate {
		return 0, nil
	}
	if len(m.pending) == 0 {
		m.produce()
	}

	n := len(p)
	if m.opts.MaxChunk > 0 {
		n = min(n, 1+m.rng.Intn(m.opts.MaxChunk))
	}
	n = copy(p[:n], m.pending)
	m.pending = m.pending[n:]
	return n, nil
}

// Close is a no-op.
func (m *MockSource) Close() error { return nil }

func (m *MockSource) produce() {
	if m.opts.Interval > 0 {
		if wait := m.next.Sub(m.now()); wait > 0 {
			m.sleep(wait)
		}
		m.next = m.next.Add(m.opts.Interval)
	}

	if m.opts.GarbageRate > 0 && m.rng.Float64() < m.opts.GarbageRate {
		g := 1 + m.rng.Intn(10)
		for i := 0; i < g; i++ {
			m.pending = append(m.pending, byte(m.rng.Intn(256)))
		}
		m.stats.Garbage += g
	}

	elapsed := m.now().Sub(m.start).Seconds()
	if m.opts.Interval > 0 {
		elapsed = float64(m.stats.Blocks) * m.opts.Interval.Seconds()
	}
	b := frame.EncodeSample(MockSample(elapsed))

	if m.opts.CorruptRate > 0 && m.rng.Float64() < m.opts.CorruptRate {
		// payload or checksum byte of one sub-packet; headers stay intact
		i := m.rng.Intn(3)*frame.PacketSize + 2 + m.rng.Intn(frame.PacketSize-2)
		b[i] ^= byte(1 + m.rng.Intn(255))
		m.stats.Corrupted++
	}

	m.pending = append(m.pending, b[:]...)
	m.stats.Blocks++
}

// MockSample returns the reading of a sensor following the mock orientation
// motion elapsed seconds after start.
func MockSample(elapsed float64) imu.Sample {
	pose := orientation.PoseAt(elapsed)
	wr, wp, wy := orientation.RatesAt(elapsed)
	ax, ay, az := orientation.GravityFromPose(pose)

	return imu.Sample{
		Ax:          ax,
		Ay:          ay,
		Az:          az,
		Wx:          wr,
		Wy:          wp,
		Wz:          wy,
		Roll:        pose.Roll,
		Pitch:       pose.Pitch,
		Yaw:         pose.Yaw,
		Temperature: 25 + 0.5*math.Sin(elapsed/60),
	}
}
