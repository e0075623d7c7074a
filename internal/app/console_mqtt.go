// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package app

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"os"

	mqtt "github.com/eclipse/paho.mqtt.golang"

	"github.com/relabs-tech/imu_logger/internal/config"
	"github.com/relabs-tech/imu_logger/internal/imu"
	"github.com/relabs-tech/imu_logger/internal/sink"
)

// printSample decodes one MQTT payload and redraws the console line.
func printSample(out *sink.Console, payload []byte) error {
	var s imu.Sample
	if err := json.Unmarshal(payload, &s); err != nil {
		return fmt.Errorf("sample unmarshal error: %w", err)
	}
	return out.Write(s)
}

func RunConsoleMQTT(ctx context.Context, cfg *config.Config) error {
	return runConsoleMQTT(ctx, cfg, os.Stdout)
}

func runConsoleMQTT(ctx context.Context, cfg *config.Config, w io.Writer) error {
	if err := cfg.RequireBroker(); err != nil {
		return err
	}

	opts := mqtt.NewClientOptions().
		AddBroker(cfg.MQTTBroker).
		SetClientID(cfg.MQTTClientIDConsole)

	client := mqtt.NewClient(opts)
	if token := client.Connect(); token.Wait() && token.Error() != nil {
		return token.Error()
	}
	log.Printf("console: connected to MQTT broker at %s", cfg.MQTTBroker)

	out := sink.NewConsole(w)
	token := client.Subscribe(cfg.TopicSample, 0, func(_ mqtt.Client, msg mqtt.Message) {
		if err := printSample(out, msg.Payload()); err != nil {
			log.Printf("console: %v", err)
		}
	})
	token.Wait()
	if token.Error() != nil {
		return token.Error()
	}
	log.Printf("console: subscribed to %s", cfg.TopicSample)

	// Wait for Ctrl+C
	<-ctx.Done()

	client.Disconnect(250)
	_ = out.Close()
	log.Println("console: shutting down")
	return nil
}
