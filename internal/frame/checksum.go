// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package frame

// Checksum returns the low byte of the sum of the first ten bytes of p.
func Checksum(p []byte) byte {
	var sum byte
	for _, b := range p[:PacketSize-1] {
		sum += b
	}
	return sum
}

// ValidPacket reports whether an 11-byte span carries a matching checksum.
func ValidPacket(p []byte) bool {
	if len(p) < PacketSize {
		return false
	}
	return Checksum(p) == p[PacketSize-1]
}
