// Playlake - Music Streaming Event Lake ETL
// Copyright 2026 The Playlake Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/playlake/playlake

package metrics

import (
	"fmt"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/push"
)

// Recorder collects job-level metrics on a private registry and pushes them
// once after the run. A batch job has no scrape surface, so push is the only
// delivery path; the private registry keeps test runs from colliding on the
// global default registry.
type Recorder struct {
	reg *prometheus.Registry

	// Per-table metrics (label: table)
	tableRows     *prometheus.GaugeVec // "playlake_table_rows_written"
	tableDuration *prometheus.GaugeVec // "playlake_table_duration_seconds"

	// Whole-job metrics
	jobDuration prometheus.Gauge // "playlake_job_duration_seconds"
	lastSuccess prometheus.Gauge // "playlake_last_success_timestamp_seconds"
}

// NewRecorder creates a Recorder with all collectors registered.
func NewRecorder() *Recorder {
	reg := prometheus.NewRegistry()

	r := &Recorder{
		reg: reg,
		tableRows: prometheus.NewGaugeVec(
			prometheus.GaugeOpts{
				Name: "playlake_table_rows_written",
				Help: "Rows written per output table in the last run.",
			},
			[]string{"table"},
		),
		tableDuration: prometheus.NewGaugeVec(
			prometheus.GaugeOpts{
				Name: "playlake_table_duration_seconds",
				Help: "Transform-and-write duration per output table in the last run.",
			},
			[]string{"table"},
		),
		jobDuration: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Name: "playlake_job_duration_seconds",
				Help: "Total duration of the last run.",
			},
		),
		lastSuccess: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Name: "playlake_last_success_timestamp_seconds",
				Help: "Unix timestamp of the last successful run.",
			},
		),
	}

	reg.MustRegister(r.tableRows, r.tableDuration, r.jobDuration, r.lastSuccess)
	return r
}

// ObserveTable records the outcome of one table write.
func (r *Recorder) ObserveTable(table string, rows int64, duration time.Duration) {
	r.tableRows.WithLabelValues(table).Set(float64(rows))
	r.tableDuration.WithLabelValues(table).Set(duration.Seconds())
}

// ObserveJobSuccess records whole-job duration and the success timestamp.
func (r *Recorder) ObserveJobSuccess(duration time.Duration, completedAt time.Time) {
	r.jobDuration.Set(duration.Seconds())
	r.lastSuccess.Set(float64(completedAt.Unix()))
}

// Gatherer exposes the private registry for tests.
func (r *Recorder) Gatherer() prometheus.Gatherer {
	return r.reg
}

// Push delivers the collected metrics to a Pushgateway under the given job
// grouping. The caller decides what a failure means; for this job it is
// logged and ignored - metrics delivery never fails the run.
func (r *Recorder) Push(gatewayURL, jobName string) error {
	if gatewayURL == "" {
		return fmt.Errorf("pushgateway URL is required")
	}

	if err := push.New(gatewayURL, jobName).Gatherer(r.reg).Push(); err != nil {
		return fmt.Errorf("failed to push metrics to %s: %w", gatewayURL, err)
	}
	return nil
}
