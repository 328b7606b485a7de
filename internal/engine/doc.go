// Playlake - Music Streaming Event Lake ETL
// Copyright 2026 The Playlake Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/playlake/playlake

// Package engine provides the execution context for the ETL job: an
// embedded DuckDB instance reached through database/sql.
//
// Acquire returns a process-wide handle, creating it on first call with the
// extensions and object-storage secret the configuration requires. The
// handle executes the flows' declarative statements (read_json staging,
// projections, joins) and exports relations as Parquet via CopyTo;
// everything the engine does between statement and file is out of this
// package's hands by design.
//
// Failure anywhere in initialization is fatal to the job: missing
// credentials, an uninstallable required extension, or an unopenable
// database all surface as errors from Acquire with no retry.
package engine
