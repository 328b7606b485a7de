// Playlake - Music Streaming Event Lake ETL
// Copyright 2026 The Playlake Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/playlake/playlake

// Package etl implements the two extraction-transformation-load flows and
// the job that orchestrates them.
//
// The Catalog Flow stages raw song/artist records under a fixed schema and
// derives the songs and artists dimensions. The Event Flow stages
// user-activity logs under an inferred schema, filters to play events, and
// derives the time dimension, the users dimension, and the songplays fact
// table. The fact table joins against the Catalog Flow's staged relation,
// passed between the flows as an explicit handle rather than resolved
// through a shared namespace.
//
// Every transformation is a declarative statement handed to the engine;
// this package owns only the statements, the write sequencing, and the
// fail-fast error policy: the first read or write failure aborts the whole
// job with no retry, no checkpoint, and no cleanup of partial output.
package etl
