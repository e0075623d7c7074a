// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

// Package metrics exports frame engine diagnostics to Prometheus.
package metrics

import (
	"context"
	"errors"
	"log"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/relabs-tech/imu_logger/internal/frame"
	"github.com/relabs-tech/imu_logger/internal/imu"
)

const namespace = "imu"

var (
	bytesReadDesc = prometheus.NewDesc(namespace+"_bytes_read_total",
		"Bytes pulled from the sensor link.", nil, nil)
	samplesDesc = prometheus.NewDesc(namespace+"_samples_total",
		"Samples assembled from valid blocks.", nil, nil)
	shiftsDesc = prometheus.NewDesc(namespace+"_resync_shifts_total",
		"Single-byte shifts made to regain block alignment.", nil, nil)
	checksumDesc = prometheus.NewDesc(namespace+"_checksum_failures_total",
		"Blocks discarded because a sub-packet checksum did not match.", nil, nil)
	resyncWarnDesc = prometheus.NewDesc(namespace+"_resync_warnings_total",
		"Times the resync shift budget was exhausted.", nil, nil)
	idleWarnDesc = prometheus.NewDesc(namespace+"_idle_warnings_total",
		"Times the link delivered no data for the whole idle read budget.", nil, nil)
	tempMismatchDesc = prometheus.NewDesc(namespace+"_temperature_mismatches_total",
		"Blocks whose sub-packets carried different temperature counts.", nil, nil)
)

// Collector reads engine counters at scrape time.
type Collector struct {
	stats func() frame.Counters
}

// NewCollector returns a collector backed by stats, usually Engine.Stats.
func NewCollector(stats func() frame.Counters) *Collector {
	return &Collector{stats: stats}
}

func (c *Collector) Describe(ch chan<- *prometheus.Desc) {
	ch <- bytesReadDesc
	ch <- samplesDesc
	ch <- shiftsDesc
	ch <- checksumDesc
	ch <- resyncWarnDesc
	ch <- idleWarnDesc
	ch <- tempMismatchDesc
}

func (c *Collector) Collect(ch chan<- prometheus.Metric) {
	st := c.stats()
	counter := func(d *prometheus.Desc, v uint64) {
		ch <- prometheus.MustNewConstMetric(d, prometheus.CounterValue, float64(v))
	}
	counter(bytesReadDesc, st.BytesRead)
	counter(samplesDesc, st.Samples)
	counter(shiftsDesc, st.Shifts)
	counter(checksumDesc, st.ChecksumFailures)
	counter(resyncWarnDesc, st.ResyncWarnings)
	counter(idleWarnDesc, st.IdleWarnings)
	counter(tempMismatchDesc, st.TemperatureMismatches)
}

// Latest is a sink keeping gauges of the most recent sample.
type Latest struct {
	timestamp   prometheus.Gauge
	temperature prometheus.Gauge
	angle       *prometheus.GaugeVec
	tilt        *prometheus.GaugeVec
}

// NewLatest creates the gauges and registers them with reg.
func NewLatest(reg prometheus.Registerer) *Latest {
	l := &Latest{
		timestamp: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "last_sample_timestamp_seconds",
			Help:      "Capture time of the latest sample.",
		}),
		temperature: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "temperature_celsius",
			Help:      "Sensor temperature of the latest sample.",
		}),
		angle: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "angle_degrees",
			Help:      "Orientation of the latest sample.",
		}, []string{"axis"}),
		tilt: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "accel_tilt_degrees",
			Help:      "Roll and pitch implied by the gravity vector of the latest sample.",
		}, []string{"axis"}),
	}
	reg.MustRegister(l.timestamp, l.temperature, l.angle, l.tilt)
	return l
}

func (l *Latest) Write(s imu.Sample) error {
	l.timestamp.Set(s.Seconds())
	l.temperature.Set(s.Temperature)
	l.angle.WithLabelValues("roll").Set(s.Roll)
	l.angle.WithLabelValues("pitch").Set(s.Pitch)
	l.angle.WithLabelValues("yaw").Set(s.Yaw)

	tilt := s.Tilt()
	l.tilt.WithLabelValues("roll").Set(tilt.Roll)
	l.tilt.WithLabelValues("pitch").Set(tilt.Pitch)
	return nil
}

func (l *Latest) Close() error { return nil }

// Serve exposes reg on addr under /metrics until ctx is done.
func Serve(ctx context.Context, addr string, reg *prometheus.Registry) error {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.HandlerFor(reg, promhttp.HandlerOpts{}))

	srv := &http.Server{Addr: addr, Handler: mux, ReadHeaderTimeout: 5 * time.Second}
	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		_ = srv.Shutdown(shutdownCtx)
	}()

	log.Printf("metrics: listening on %s", addr)
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}
