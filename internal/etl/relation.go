// Playlake - Music Streaming Event Lake ETL
// Copyright 2026 The Playlake Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/playlake/playlake

package etl

// Relation is an explicit handle to a staged engine-catalog table. The
// Catalog Flow returns one for its staged source relation and the
// orchestrator passes it into the Event Flow's join step, so the coupling
// between the flows is visible in signatures instead of hidden behind a
// name lookup in a global namespace.
type Relation struct {
	name string
}

// Name returns the engine-catalog table name.
func (r Relation) Name() string {
	return r.name
}
