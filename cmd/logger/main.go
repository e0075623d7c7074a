// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/relabs-tech/imu_logger/internal/app"
	"github.com/relabs-tech/imu_logger/internal/config"
	"github.com/relabs-tech/imu_logger/internal/sensors"
)

func main() {
	configPath := flag.String("config", "./imu_config.txt", "path to configuration file")
	list := flag.Bool("list", false, "list serial ports and exit")
	flag.Parse()

	if *list {
		ports, err := sensors.ListPorts()
		if err != nil {
			log.Fatalf("failed to list serial ports: %v", err)
		}
		if len(ports) == 0 {
			fmt.Println("no serial ports found")
		}
		for _, p := range ports {
			fmt.Println(p)
		}
		return
	}

	log.Println("starting imu-logger (serial → CSV/MQTT)")

	// Load configuration
	if err := config.InitGlobal(*configPath); err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := app.RunLogger(ctx, config.Get()); err != nil {
		log.Fatalf("fatal: %v", err)
	}
}
