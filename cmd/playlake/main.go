// Playlake - Music Streaming Event Lake ETL
// Copyright 2026 The Playlake Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/playlake/playlake

// Package main is the entry point for the Playlake batch ETL job.
//
// Playlake reads a music-streaming service's raw JSON data from object
// storage (or local disk), builds a star schema around song playback, and
// writes each table back as partitioned Parquet:
//
//   - songs, artists: derived from the song catalog (Catalog Flow)
//   - time, users, songplays: derived from listening-event logs (Event Flow)
//
// # Run Lifecycle
//
//  1. Configuration: load settings from defaults, config file, and
//     environment variables (Koanf v2), then validate
//  2. Engine: open the embedded DuckDB engine and load the json/parquet
//     extensions (plus httpfs for remote paths, icu for non-UTC timezones)
//  3. Catalog Flow: stage song_data, write songs and artists
//  4. Event Flow: stage log_data, write time, users, and songplays
//  5. Report: write the JSON run manifest and push job metrics to the
//     Pushgateway when enabled
//
// The job is one-shot: it runs both flows to completion and exits. Any
// table failure aborts the run with a non-zero exit; tables already written
// stay in place.
//
// # Configuration
//
// Configuration is loaded via Koanf v2 with layered sources (highest
// priority wins):
//   - Environment variables (AWS_ACCESS_KEY_ID, S3_ENDPOINT, ...)
//   - Config file (CONFIG_PATH, ./config.yaml, or /etc/playlake/config.yaml)
//   - Built-in defaults
//
// # Example Usage
//
// Against AWS S3:
//
//	export AWS_ACCESS_KEY_ID=...
//	export AWS_SECRET_ACCESS_KEY=...
//	./playlake
//
// Against MinIO:
//
//	export AWS_ACCESS_KEY_ID=minio
//	export AWS_SECRET_ACCESS_KEY=minio-secret
//	export S3_ENDPOINT=localhost:9000
//	export S3_URL_STYLE=path
//	./playlake
//
// Fully local (config.yaml with local input globs and output directories):
//
//	CONFIG_PATH=local.yaml ./playlake
package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/playlake/playlake/internal/config"
	"github.com/playlake/playlake/internal/engine"
	"github.com/playlake/playlake/internal/etl"
	"github.com/playlake/playlake/internal/logging"
	"github.com/playlake/playlake/internal/objstore"
)

func main() {
	// Load configuration first to get logging settings
	cfg, err := config.Load()
	if err != nil {
		// Use default logger for config errors (config not yet available)
		logging.Fatal().Err(err).Msg("Failed to load configuration")
	}

	logging.Init(logging.Config{
		Level:  cfg.Logging.Level,
		Format: cfg.Logging.Format,
		Caller: cfg.Logging.Caller,
	})

	// A signal cancels the context; the engine aborts the in-flight
	// statement and the run fails cleanly.
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	eng, err := engine.Acquire(cfg)
	if err != nil {
		logging.Fatal().Err(err).Msg("Failed to open query engine")
	}
	defer func() {
		if err := eng.Close(); err != nil {
			logging.Warn().Err(err).Msg("Failed to close query engine")
		}
	}()

	var store *objstore.Client
	if cfg.HasRemotePaths() {
		store, err = objstore.New(&cfg.AWS)
		if err != nil {
			logging.Fatal().Err(err).Msg("Failed to create object-storage client")
		}
	}

	m, err := etl.NewJob(eng, store, cfg).Run(ctx)
	if err != nil {
		logging.Error().Err(err).Msg("Pipeline run failed")
		// Let the engine close before exiting.
		if cerr := eng.Close(); cerr != nil {
			logging.Warn().Err(cerr).Msg("Failed to close query engine")
		}
		os.Exit(1)
	}

	logging.Info().
		Str("run_id", m.RunID.String()).
		Int("tables", len(m.Tables)).
		Float64("duration_seconds", m.DurationSeconds).
		Msg("Playlake run complete")
}
