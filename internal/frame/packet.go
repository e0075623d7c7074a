// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package frame

import (
	"encoding/binary"
	"errors"
	"fmt"
)

var ErrChecksum = errors.New("frame: checksum mismatch")

// Packet is one 11-byte sub-packet.
type Packet [PacketSize]byte

// Reading is a decoded sub-packet in physical units.
type Reading struct {
	Kind        Kind
	X, Y, Z     float64
	Temperature float64 // °C

	// RawTemperature is kept so callers can compare the temperature field
	// across the sub-packets of one block without float noise.
	RawTemperature int16
}

func (p *Packet) Kind() Kind { return Kind(p[1]) }

// Valid reports whether the checksum byte matches the payload.
func (p *Packet) Valid() bool { return ValidPacket(p[:]) }

// raw returns the signed little-endian int16 at byte offset off.
func (p *Packet) raw(off int) int16 {
	return int16(binary.LittleEndian.Uint16(p[off : off+2]))
}

// Decode converts the packet payload into physical units. Packets with a bad
// checksum or an unknown type are rejected.
func (p *Packet) Decode() (Reading, error) {
	if !p.Valid() {
		return Reading{}, ErrChecksum
	}
	k := p.Kind()
	scale := k.Scale()
	if p[0] != Header || scale == 0 {
		return Reading{}, fmt.Errorf("frame: not a data packet (header=0x%02X type=0x%02X)", p[0], p[1])
	}

	t := p.raw(8)
	return Reading{
		Kind:           k,
		X:              AxisValue(p.raw(2), scale),
		Y:              AxisValue(p.raw(4), scale),
		Z:              AxisValue(p.raw(6), scale),
		Temperature:    TemperatureValue(t),
		RawTemperature: t,
	}, nil
}

// AxisValue scales a raw axis count to physical units: r / 32768 * scale.
func AxisValue(r int16, scale float64) float64 {
	return float64(r) / 32768.0 * scale
}

// TemperatureValue converts a raw temperature count to °C.
func TemperatureValue(r int16) float64 {
	return float64(r)/340.0 + 36.25
}
