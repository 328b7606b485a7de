// Playlake - Music Streaming Event Lake ETL
// Copyright 2026 The Playlake Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/playlake/playlake

// Package metrics provides optional Prometheus instrumentation for the ETL
// job. Because the process exits when the run ends, metrics are pushed to a
// Pushgateway instead of exposed for scraping: the orchestrator records
// per-table row counts and durations during the run and pushes once after
// both flows succeed. The push is strictly best-effort.
package metrics
