// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package imu

import (
	"time"

	"github.com/relabs-tech/imu_logger/internal/orientation"
)

// Sample represents one fully assembled IMU reading in physical units.
// It is built from exactly one validated block and never mutated afterwards.
type Sample struct {
	Time time.Time `json:"time"`

	Ax float64 `json:"ax"` // acceleration, g
	Ay float64 `json:"ay"`
	Az float64 `json:"az"`

	Wx float64 `json:"wx"` // angular velocity, °/s
	Wy float64 `json:"wy"`
	Wz float64 `json:"wz"`

	Roll  float64 `json:"roll"` // angle, °
	Pitch float64 `json:"pitch"`
	Yaw   float64 `json:"yaw"`

	Temperature float64 `json:"temp_c"` // °C
}

// Pose returns the angle triple of the sample.
func (s Sample) Pose() orientation.Pose {
	return orientation.Pose{Roll: s.Roll, Pitch: s.Pitch, Yaw: s.Yaw}
}

// Tilt returns the roll and pitch implied by the acceleration alone, which
// only matches Pose while the sensor is at rest. Yaw is always 0.
func (s Sample) Tilt() orientation.Pose {
	return orientation.ComputePoseFromAccel(s.Ax, s.Ay, s.Az)
}

// Seconds returns the capture time as fractional Unix seconds.
func (s Sample) Seconds() float64 {
	return float64(s.Time.UnixNano()) / 1e9
}

// SameReading reports whether two samples carry identical measurements,
// ignoring their capture times.
func (s Sample) SameReading(o Sample) bool {
	s.Time, o.Time = time.Time{}, time.Time{}
	return s == o
}
