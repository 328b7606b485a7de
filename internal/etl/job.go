// Playlake - Music Streaming Event Lake ETL
// Copyright 2026 The Playlake Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/playlake/playlake

package etl

import (
	"context"
	"fmt"
	"time"

	"github.com/playlake/playlake/internal/config"
	"github.com/playlake/playlake/internal/engine"
	"github.com/playlake/playlake/internal/logging"
	"github.com/playlake/playlake/internal/manifest"
	"github.com/playlake/playlake/internal/metrics"
	"github.com/playlake/playlake/internal/objstore"
)

// Job runs the complete one-shot pipeline: catalog flow, then event flow,
// then the optional manifest write and metrics push. Any table failure
// aborts the run; tables already written stay in place.
type Job struct {
	eng      *engine.Engine
	store    *objstore.Client
	cfg      *config.Config
	recorder *metrics.Recorder
}

// NewJob wires a job from an initialized engine and optional object-storage
// client. store may be nil when every configured path is local.
func NewJob(eng *engine.Engine, store *objstore.Client, cfg *config.Config) *Job {
	return &Job{
		eng:      eng,
		store:    store,
		cfg:      cfg,
		recorder: metrics.NewRecorder(),
	}
}

// Run executes both flows in order and returns the run manifest. The
// manifest is returned even when manifest output is disabled so callers can
// log or inspect the run summary.
func (j *Job) Run(ctx context.Context) (*manifest.Manifest, error) {
	startedAt := time.Now()

	version, err := j.eng.Version(ctx)
	if err != nil {
		return nil, err
	}

	m := manifest.New(version, j.cfg.ETL.IDStrategy, j.cfg.ETL.Timezone, startedAt)
	logging.Info().
		Str("run_id", m.RunID.String()).
		Str("engine_version", version).
		Str("id_strategy", j.cfg.ETL.IDStrategy).
		Str("timezone", j.cfg.ETL.Timezone).
		Msg("Starting pipeline run")

	catalog, catalogStats, err := NewCatalogFlow(j.eng, j.store, j.cfg).Run(ctx)
	if err != nil {
		return nil, fmt.Errorf("catalog flow failed: %w", err)
	}
	j.record(m, catalogStats)

	eventStats, err := NewEventFlow(j.eng, j.store, j.cfg).Run(ctx, catalog)
	if err != nil {
		return nil, fmt.Errorf("event flow failed: %w", err)
	}
	j.record(m, eventStats)

	completedAt := time.Now()
	m.Complete(completedAt)
	j.recorder.ObserveJobSuccess(completedAt.Sub(startedAt), completedAt)

	if j.cfg.Manifest.Enabled {
		if err := m.Write(j.cfg.Manifest.Path); err != nil {
			return nil, fmt.Errorf("failed to write run manifest: %w", err)
		}
		logging.Info().Str("path", j.cfg.Manifest.Path).Msg("Run manifest written")
	}

	if j.cfg.Metrics.Enabled {
		// Metrics delivery is best effort: the tables are already on
		// disk, so a push failure must not fail the run.
		if err := j.recorder.Push(j.cfg.Metrics.PushgatewayURL, j.cfg.Metrics.JobName); err != nil {
			logging.Warn().Err(err).Str("gateway", j.cfg.Metrics.PushgatewayURL).Msg("Metrics push failed")
		}
	}

	logging.Info().
		Str("run_id", m.RunID.String()).
		Int("tables", len(m.Tables)).
		Float64("duration_seconds", m.DurationSeconds).
		Msg("Pipeline run complete")
	return m, nil
}

func (j *Job) record(m *manifest.Manifest, stats []manifest.TableStats) {
	for _, s := range stats {
		m.AddTable(s)
		j.recorder.ObserveTable(s.Name, s.Rows, time.Duration(s.DurationSeconds*float64(time.Second)))
	}
}
