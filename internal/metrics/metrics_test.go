// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package metrics

import (
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/relabs-tech/imu_logger/internal/frame"
	"github.com/relabs-tech/imu_logger/internal/imu"
	"github.com/relabs-tech/imu_logger/internal/orientation"
)

func TestCollectorExportsCounters(t *testing.T) {
	st := frame.Counters{BytesRead: 3300, Samples: 97, Shifts: 12, ChecksumFailures: 3, IdleWarnings: 4}
	c := NewCollector(func() frame.Counters { return st })

	expected := `
# HELP imu_checksum_failures_total Blocks discarded because a sub-packet checksum did not match.
# TYPE imu_checksum_failures_total counter
imu_checksum_failures_total 3
# HELP imu_idle_warnings_total Times the link delivered no data for the whole idle read budget.
# TYPE imu_idle_warnings_total counter
imu_idle_warnings_total 4
# HELP imu_samples_total Samples assembled from valid blocks.
# TYPE imu_samples_total counter
imu_samples_total 97
`
	err := testutil.CollectAndCompare(c, strings.NewReader(expected),
		"imu_checksum_failures_total", "imu_idle_warnings_total", "imu_samples_total")
	require.NoError(t, err)
	assert.Equal(t, 7, testutil.CollectAndCount(c))

	st.Samples = 98
	assert.NoError(t, testutil.CollectAndCompare(c, strings.NewReader(`
# HELP imu_samples_total Samples assembled from valid blocks.
# TYPE imu_samples_total counter
imu_samples_total 98
`), "imu_samples_total"))
}

func TestLatestGauges(t *testing.T) {
	reg := prometheus.NewRegistry()
	l := NewLatest(reg)

	ax, ay, az := orientation.GravityFromPose(orientation.Pose{Roll: 30, Pitch: -10})
	require.NoError(t, l.Write(imu.Sample{
		Time:        time.Unix(1700000000, 0),
		Ax:          ax,
		Ay:          ay,
		Az:          az,
		Roll:        10,
		Pitch:       -5,
		Yaw:         90,
		Temperature: 31.5,
	}))

	assert.Equal(t, 1700000000.0, testutil.ToFloat64(l.timestamp))
	assert.Equal(t, 31.5, testutil.ToFloat64(l.temperature))
	assert.Equal(t, 90.0, testutil.ToFloat64(l.angle.WithLabelValues("yaw")))
	assert.Equal(t, 3, testutil.CollectAndCount(l.angle))
	assert.InDelta(t, 30.0, testutil.ToFloat64(l.tilt.WithLabelValues("roll")), 1e-9)
	assert.InDelta(t, -10.0, testutil.ToFloat64(l.tilt.WithLabelValues("pitch")), 1e-9)
	assert.NoError(t, l.Close())
}
