// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package frame

import (
	"fmt"
	"time"

	"github.com/relabs-tech/imu_logger/internal/imu"
)

// Block is three consecutive sub-packets: accel, gyro, angle.
type Block [BlockSize]byte

// Packet returns the i-th sub-packet of the block.
func (b *Block) Packet(i int) Packet {
	var p Packet
	copy(p[:], b[i*PacketSize:(i+1)*PacketSize])
	return p
}

// Aligned reports whether the header and type bytes of all three sub-packets
// sit at their expected offsets.
func (b *Block) Aligned() bool {
	for i, k := range blockOrder {
		off := i * PacketSize
		if b[off] != Header || b[off+1] != byte(k) {
			return false
		}
	}
	return true
}

// Valid reports whether every sub-packet passes its checksum.
func (b *Block) Valid() bool {
	for i := range blockOrder {
		if !ValidPacket(b[i*PacketSize:]) {
			return false
		}
	}
	return true
}

// TemperaturesAgree reports whether the three sub-packets carry the same raw
// temperature count.
func (b *Block) TemperaturesAgree() bool {
	first := b.Packet(0)
	ref := first.raw(8)
	for i := 1; i < len(blockOrder); i++ {
		p := b.Packet(i)
		if p.raw(8) != ref {
			return false
		}
	}
	return true
}

// Assemble decodes an aligned, validated block into a sample stamped with at.
// The temperature is taken from the accel sub-packet.
func Assemble(b *Block, at time.Time) (imu.Sample, error) {
	var r [3]Reading
	for i, k := range blockOrder {
		p := b.Packet(i)
		rd, err := p.Decode()
		if err != nil {
			return imu.Sample{}, fmt.Errorf("%s packet: %w", k, err)
		}
		if rd.Kind != k {
			return imu.Sample{}, fmt.Errorf("frame: packet %d is %s, want %s", i, rd.Kind, k)
		}
		r[i] = rd
	}

	accel, gyro, angle := r[0], r[1], r[2]
	return imu.Sample{
		Time:        at,
		Ax:          accel.X,
		Ay:          accel.Y,
		Az:          accel.Z,
		Wx:          gyro.X,
		Wy:          gyro.Y,
		Wz:          gyro.Z,
		Roll:        angle.X,
		Pitch:       angle.Y,
		Yaw:         angle.Z,
		Temperature: accel.Temperature,
	}, nil
}
