// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package sensors

import (
	"errors"
	"fmt"
	"io"
	"log"
	"os"
	"time"

	serial "github.com/jacobsa/go-serial/serial"
)

// openPort is replaced in tests.
var openPort = serial.Open

// SerialSource is a byte source backed by a serial port. Reads wait at most
// the configured timeout and report an expired wait as zero bytes.
type SerialSource struct {
	name string
	port io.ReadWriteCloser
}

// OpenSerial opens the IMU serial port in 8N1 mode. timeout bounds each read
// and is rounded down to tenths of a second by the tty driver.
func OpenSerial(name string, baud int, timeout time.Duration) (*SerialSource, error) {
	opts := serial.OpenOptions{
		PortName:              name,
		BaudRate:              uint(baud),
		DataBits:              8,
		StopBits:              1,
		ParityMode:            serial.PARITY_NONE,
		MinimumReadSize:       0,
		InterCharacterTimeout: uint(timeout / time.Millisecond),
	}

	port, err := openPort(opts)
	if err != nil {
		return nil, fmt.Errorf("open serial port %s: %w", name, err)
	}
	log.Printf("serial: %s opened at %d baud (read timeout %s)", name, baud, timeout)

	return newSerialSource(name, port), nil
}

func newSerialSource(name string, port io.ReadWriteCloser) *SerialSource {
	return &SerialSource{name: name, port: port}
}

// Read reads up to len(p) bytes. A read that times out with no data returns
// (0, nil); any other failure is a transport error.
func (s *SerialSource) Read(p []byte) (int, error) {
	if s.port == nil {
		return 0, fmt.Errorf("%s: %w", s.name, os.ErrClosed)
	}
	n, err := s.port.Read(p)
	if errors.Is(err, io.EOF) {
		// VMIN=0 reads that expire come back from the tty as EOF.
		return n, nil
	}
	if err != nil {
		return n, fmt.Errorf("%s: %w", s.name, err)
	}
	return n, nil
}

// Name returns the device path.
func (s *SerialSource) Name() string { return s.name }

// Close closes the serial port.
func (s *SerialSource) Close() error {
	if s.port == nil {
		return nil
	}
	err := s.port.Close()
	s.port = nil
	return err
}
