// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

// Package sink holds the consumers of assembled samples.
package sink

import (
	"errors"
	"fmt"
	"log"

	"github.com/relabs-tech/imu_logger/internal/imu"
)

// Sink consumes samples. Close flushes anything buffered.
type Sink interface {
	Write(s imu.Sample) error
	Close() error
}

type named struct {
	name string
	Sink
}

// Multi dispatches every sample to each sink in order. A failing sink is
// logged and does not stop the others.
type Multi struct {
	sinks  []named
	errors map[string]int
}

// NewMulti returns an empty fan-out.
func NewMulti() *Multi {
	return &Multi{errors: make(map[string]int)}
}

// Add registers a sink under a name used in log messages.
func (m *Multi) Add(name string, s Sink) {
	m.sinks = append(m.sinks, named{name: name, Sink: s})
}

// Len returns the number of registered sinks.
func (m *Multi) Len() int { return len(m.sinks) }

// Errors returns how many writes failed for the named sink.
func (m *Multi) Errors(name string) int { return m.errors[name] }

func (m *Multi) Write(s imu.Sample) error {
	var errs []error
	for _, n := range m.sinks {
		if err := n.Write(s); err != nil {
			m.errors[n.name]++
			// first failure and then every 100th, a dead broker would flood the log
			if c := m.errors[n.name]; c == 1 || c%100 == 0 {
				log.Printf("sink: %s write error (%d so far): %v", n.name, c, err)
			}
			errs = append(errs, fmt.Errorf("%s: %w", n.name, err))
		}
	}
	return errors.Join(errs...)
}

// Close closes every sink, in reverse order of registration.
func (m *Multi) Close() error {
	var errs []error
	for i := len(m.sinks) - 1; i >= 0; i-- {
		n := m.sinks[i]
		if err := n.Close(); err != nil {
			errs = append(errs, fmt.Errorf("%s: %w", n.name, err))
		}
	}
	m.sinks = nil
	return errors.Join(errs...)
}
