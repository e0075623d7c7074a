// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package app

import (
	"context"
	"io"
	"log"

	"github.com/relabs-tech/imu_logger/internal/frame"
	"github.com/relabs-tech/imu_logger/internal/sensors"
	"github.com/relabs-tech/imu_logger/internal/sink"
)

// RunMockConsole decodes a synthetic noisy WIT stream and draws it on w.
func RunMockConsole(ctx context.Context, opts sensors.MockOptions, w io.Writer) error {
	src := sensors.NewMockSource(opts)
	defer src.Close()

	engine := frame.NewEngine(src)
	out := sink.NewConsole(w)

	p := &Pipeline{Engine: engine, Sinks: out}
	err := p.Run(ctx)
	_ = out.Close()

	ms := src.Stats()
	log.Printf("mock: produced %d blocks (%d corrupted, %d noise bytes)", ms.Blocks, ms.Corrupted, ms.Garbage)
	log.Printf("mock: %s", Summary(engine.Stats()))
	return err
}
