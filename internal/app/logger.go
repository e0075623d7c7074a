// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package app

import (
	"context"
	"fmt"
	"log"
	"os"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/relabs-tech/imu_logger/internal/config"
	"github.com/relabs-tech/imu_logger/internal/frame"
	"github.com/relabs-tech/imu_logger/internal/metrics"
	"github.com/relabs-tech/imu_logger/internal/sensors"
	"github.com/relabs-tech/imu_logger/internal/sink"
)

// Pipeline moves samples from an engine into a set of sinks.
type Pipeline struct {
	Engine *frame.Engine
	Sinks  sink.Sink
}

// Run pulls samples until ctx is cancelled (returns nil) or the byte source
// fails (returns the transport error). Sink failures are logged by the sink
// fan-out and never stop the loop.
func (p *Pipeline) Run(ctx context.Context) error {
	for {
		s, err := p.Engine.Next(ctx)
		if err != nil {
			if ctx.Err() != nil {
				return nil
			}
			return err
		}
		_ = p.Sinks.Write(s)
	}
}

// Summary renders the engine counters for the exit log line.
func Summary(st frame.Counters) string {
	return fmt.Sprintf("read %s, %s samples, %s checksum failures, %s resync shifts (%s warnings), %s idle warnings",
		humanize.Bytes(st.BytesRead),
		humanize.Comma(int64(st.Samples)),
		humanize.Comma(int64(st.ChecksumFailures)),
		humanize.Comma(int64(st.Shifts)),
		humanize.Comma(int64(st.ResyncWarnings)),
		humanize.Comma(int64(st.IdleWarnings)),
	)
}

// buildSinks opens every sink enabled in cfg. On error the sinks opened so far
// are closed.
func buildSinks(cfg *config.Config, device string, now time.Time, reg prometheus.Registerer) (*sink.Multi, error) {
	m := sink.NewMulti()
	fail := func(err error) (*sink.Multi, error) {
		_ = m.Close()
		return nil, err
	}

	if cfg.CSVEnabled {
		csv, err := sink.CreateCSV(cfg.LogDir, cfg.LogBasename, now)
		if err != nil {
			return fail(err)
		}
		log.Printf("logger: writing CSV to %s", csv.Path())
		m.Add("csv", csv)
	}

	if cfg.SQLitePath != "" {
		db, err := sink.OpenSQLite(cfg.SQLitePath, device)
		if err != nil {
			return fail(err)
		}
		log.Printf("logger: storing samples in %s (session %s)", cfg.SQLitePath, db.SessionID())
		m.Add("sqlite", db)
	}

	if cfg.MQTTBroker != "" {
		pub, err := sink.DialMQTT(cfg.MQTTBroker, cfg.MQTTClientIDLogger, cfg.TopicSample)
		if err != nil {
			return fail(err)
		}
		m.Add("mqtt", pub)
	}

	if cfg.DisplayEnabled {
		interval := time.Duration(cfg.DisplayUpdateInterval) * time.Millisecond
		disp, err := sink.OpenDisplay(cfg.DisplayI2CBus, interval)
		if err != nil {
			// the logger is still useful without its screen
			log.Printf("logger: WARNING: display unavailable: %v", err)
		} else {
			m.Add("display", disp)
		}
	}

	if reg != nil {
		m.Add("metrics", metrics.NewLatest(reg))
	}

	// console last so it is closed first and its newline lands before the summary
	if cfg.ConsoleEnabled {
		m.Add("console", sink.NewConsole(os.Stdout))
	}

	return m, nil
}

// RunLogger reads the serial sensor configured in cfg until ctx is cancelled
// or the link fails.
func RunLogger(ctx context.Context, cfg *config.Config) error {
	if err := cfg.RequireSerial(); err != nil {
		return err
	}

	timeout := time.Duration(cfg.SerialReadTimeout) * time.Millisecond
	src, err := sensors.OpenSerial(cfg.SerialPort, cfg.SerialBaudRate, timeout)
	if err != nil {
		return err
	}
	defer src.Close()
	log.Printf("logger: opened %s at %d baud", src.Name(), cfg.SerialBaudRate)

	engine := frame.NewEngine(src,
		frame.WithMaxShifts(cfg.SyncMaxShifts),
		frame.WithMaxIdleReads(cfg.SyncMaxIdleReads),
		frame.WithDebug(cfg.LogDebug),
	)

	var reg prometheus.Registerer
	if cfg.MetricsAddr != "" {
		r := prometheus.NewRegistry()
		r.MustRegister(metrics.NewCollector(engine.Stats))
		go func() {
			if err := metrics.Serve(ctx, cfg.MetricsAddr, r); err != nil {
				log.Printf("logger: metrics server error: %v", err)
			}
		}()
		reg = r
	}

	sinks, err := buildSinks(cfg, src.Name(), time.Now(), reg)
	if err != nil {
		return err
	}
	log.Printf("logger: %d sinks ready, waiting for data", sinks.Len())

	p := &Pipeline{Engine: engine, Sinks: sinks}
	runErr := p.Run(ctx)

	closeErr := sinks.Close()
	log.Printf("logger: %s", Summary(engine.Stats()))

	if runErr != nil {
		return runErr
	}
	if closeErr != nil {
		return fmt.Errorf("closing sinks: %w", closeErr)
	}
	return nil
}
