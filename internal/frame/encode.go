// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package frame

import (
	"encoding/binary"
	"math"

	"github.com/relabs-tech/imu_logger/internal/imu"
)

// Encode builds a checksummed sub-packet from physical values. It is the
// inverse of Decode, used by the mock source and by tests.
func Encode(k Kind, x, y, z, tempC float64) Packet {
	var p Packet
	p[0] = Header
	p[1] = byte(k)
	scale := k.Scale()
	binary.LittleEndian.PutUint16(p[2:], uint16(axisRaw(x, scale)))
	binary.LittleEndian.PutUint16(p[4:], uint16(axisRaw(y, scale)))
	binary.LittleEndian.PutUint16(p[6:], uint16(axisRaw(z, scale)))
	binary.LittleEndian.PutUint16(p[8:], uint16(clampInt16((tempC-36.25)*340.0)))
	p[10] = Checksum(p[:])
	return p
}

// EncodeSample lays out a full block for s.
func EncodeSample(s imu.Sample) Block {
	var b Block
	copy(b[0:], packetBytes(Encode(KindAccel, s.Ax, s.Ay, s.Az, s.Temperature)))
	copy(b[PacketSize:], packetBytes(Encode(KindGyro, s.Wx, s.Wy, s.Wz, s.Temperature)))
	copy(b[2*PacketSize:], packetBytes(Encode(KindAngle, s.Roll, s.Pitch, s.Yaw, s.Temperature)))
	return b
}

func packetBytes(p Packet) []byte { return p[:] }

func axisRaw(v, scale float64) int16 {
	if scale == 0 {
		return 0
	}
	return clampInt16(v / scale * 32768.0)
}

func clampInt16(v float64) int16 {
	v = math.Round(v)
	switch {
	case v > math.MaxInt16:
		return math.MaxInt16
	case v < math.MinInt16:
		return math.MinInt16
	}
	return int16(v)
}
