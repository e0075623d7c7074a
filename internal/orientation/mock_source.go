// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package orientation

import (
	"math"
)

// PoseAt returns the mock motion elapsed seconds after start: a slow sway in
// roll and pitch while turning at a constant 30 °/s.
func PoseAt(elapsed float64) Pose {
	return Pose{
		Roll:  20 * math.Sin(elapsed),
		Pitch: 15 * math.Cos(elapsed*0.7),
		Yaw:   WrapDegrees(elapsed * 30),
	}
}

// RatesAt returns the time derivative of PoseAt in °/s.
func RatesAt(elapsed float64) (roll, pitch, yaw float64) {
	return 20 * math.Cos(elapsed), -15 * 0.7 * math.Sin(elapsed*0.7), 30
}
