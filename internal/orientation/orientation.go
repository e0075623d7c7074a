// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package orientation

import (
	"math"
)

// Pose is the canonical representation of orientation for the app, in degrees.
type Pose struct {
	Roll  float64 `json:"roll"`
	Pitch float64 `json:"pitch"`
	Yaw   float64 `json:"yaw"`
}

// ComputePoseFromAccel computes roll and pitch from accelerometer data only.
// Yaw is unobservable from gravity and is returned as 0.
//
// Uses simple tilt formulas:
//
//	roll  = atan2(ay, az)
//	pitch = atan2(-ax, sqrt(ay² + az²))
func ComputePoseFromAccel(ax, ay, az float64) Pose {
	rollRad := math.Atan2(ay, az)
	pitchRad := math.Atan2(-ax, math.Sqrt(ay*ay+az*az))

	return Pose{
		Roll:  rollRad * 180.0 / math.Pi,
		Pitch: pitchRad * 180.0 / math.Pi,
	}
}

// GravityFromPose returns the accelerometer reading, in g, of a sensor at rest
// in the given pose. It is the inverse of ComputePoseFromAccel.
func GravityFromPose(p Pose) (ax, ay, az float64) {
	roll := p.Roll * math.Pi / 180.0
	pitch := p.Pitch * math.Pi / 180.0

	ax = -math.Sin(pitch)
	ay = math.Cos(pitch) * math.Sin(roll)
	az = math.Cos(pitch) * math.Cos(roll)
	return ax, ay, az
}

// WrapDegrees maps an angle onto [-180, 180).
func WrapDegrees(deg float64) float64 {
	deg = math.Mod(deg+180, 360)
	if deg < 0 {
		deg += 360
	}
	return deg - 180
}
