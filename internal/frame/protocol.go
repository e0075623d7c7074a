// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

// Package frame decodes the WIT serial protocol spoken by BWT61-class IMUs.
//
// The sensor streams 11-byte sub-packets back to back:
//
//	0     header (0x55)
//	1     type   (0x51 accel, 0x52 gyro, 0x53 angle)
//	2..7  X, Y, Z as little-endian int16
//	8..9  temperature as little-endian int16
//	10    checksum, low byte of the sum of bytes 0..9
//
// One sample is a block of three sub-packets in the order accel, gyro, angle.
package frame

import "fmt"

const (
	Header = 0x55 // first byte of every sub-packet

	PacketSize = 11
	BlockSize  = 3 * PacketSize

	// DefaultMaxShifts bounds resynchronization to one block's worth of bytes
	// before a stale-link warning is raised.
	DefaultMaxShifts = BlockSize

	// DefaultMaxIdleReads is how many consecutive empty reads pass before a
	// dead-link warning is raised.
	DefaultMaxIdleReads = 30
)

// Kind identifies the quantity carried by a sub-packet.
type Kind byte

const (
	KindAccel Kind = 0x51
	KindGyro  Kind = 0x52
	KindAngle Kind = 0x53
)

// blockOrder is the sub-packet order inside a block.
var blockOrder = [3]Kind{KindAccel, KindGyro, KindAngle}

// Scale returns the full-scale physical value for the kind:
// 16 g, 2000 °/s or 180 °.
func (k Kind) Scale() float64 {
	switch k {
	case KindAccel:
		return 16
	case KindGyro:
		return 2000
	case KindAngle:
		return 180
	default:
		return 0
	}
}

func (k Kind) String() string {
	switch k {
	case KindAccel:
		return "accel"
	case KindGyro:
		return "gyro"
	case KindAngle:
		return "angle"
	default:
		return fmt.Sprintf("kind(0x%02X)", byte(k))
	}
}
