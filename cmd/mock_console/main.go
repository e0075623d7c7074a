// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package main

import (
	"context"
	"flag"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/relabs-tech/imu_logger/internal/app"
	"github.com/relabs-tech/imu_logger/internal/sensors"
)

func main() {
	opts := sensors.DefaultMockOptions
	flag.DurationVar(&opts.Interval, "interval", opts.Interval, "time between blocks")
	flag.Float64Var(&opts.GarbageRate, "garbage", opts.GarbageRate, "probability of noise before a block")
	flag.Float64Var(&opts.CorruptRate, "corrupt", opts.CorruptRate, "probability of a corrupted block")
	flag.Int64Var(&opts.Seed, "seed", opts.Seed, "random seed")
	flag.Parse()

	log.Println("starting imu-logger (mock console)")

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := app.RunMockConsole(ctx, opts, os.Stdout); err != nil {
		log.Fatalf("fatal: %v", err)
	}
}
