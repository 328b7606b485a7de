// Playlake - Music Streaming Event Lake ETL
// Copyright 2026 The Playlake Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/playlake/playlake

// Package config provides layered configuration management for the Playlake
// ETL job using Koanf v2.
//
// Configuration is loaded once at process start from three layers, highest
// priority last: struct defaults, an optional YAML file, and environment
// variables mapped through an explicit name table. The resulting Config is
// immutable and passed explicitly to every component that needs it. In
// particular, object-storage credentials travel inside the Config to the
// execution context instead of being exported into the process environment.
package config
