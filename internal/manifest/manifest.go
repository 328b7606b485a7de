// Playlake - Music Streaming Event Lake ETL
// Copyright 2026 The Playlake Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/playlake/playlake

// Package manifest assembles and writes the run report: a JSON document
// describing one completed job run with per-table row counts, destinations,
// durations, and the partition directories each partitioned write produced.
//
// The manifest is written only after both flows succeed; a manifest write
// failure is a write error and fails the job like any other.
package manifest

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/goccy/go-json"
	"github.com/google/uuid"
)

// Manifest is the run report for one completed job run.
type Manifest struct {
	// RunID uniquely identifies this run.
	RunID uuid.UUID `json:"run_id"`

	// EngineVersion is the query engine's version string.
	EngineVersion string `json:"engine_version"`

	// IDStrategy records which songplay surrogate-key strategy ran.
	IDStrategy string `json:"id_strategy"`

	// Timezone is the zone start_time was rendered in.
	Timezone string `json:"timezone"`

	StartedAt       time.Time `json:"started_at"`
	CompletedAt     time.Time `json:"completed_at"`
	DurationSeconds float64   `json:"duration_seconds"`

	// Tables lists one entry per output table, in write order.
	Tables []TableStats `json:"tables"`
}

// TableStats describes one output table write.
type TableStats struct {
	Name            string  `json:"name"`
	Destination     string  `json:"destination"`
	Rows            int64   `json:"rows"`
	DurationSeconds float64 `json:"duration_seconds"`
	Partitioned     bool    `json:"partitioned"`

	// Partitions lists the Hive-style partition directories the write
	// produced (e.g. "year=2018/month=11"), relative to the destination.
	// Empty for unpartitioned tables.
	Partitions []string `json:"partitions,omitempty"`
}

// New creates a manifest skeleton for a starting run.
func New(engineVersion, idStrategy, timezone string, startedAt time.Time) *Manifest {
	return &Manifest{
		RunID:         uuid.New(),
		EngineVersion: engineVersion,
		IDStrategy:    idStrategy,
		Timezone:      timezone,
		StartedAt:     startedAt,
	}
}

// AddTable appends one table's stats.
func (m *Manifest) AddTable(stats TableStats) {
	m.Tables = append(m.Tables, stats)
}

// Complete stamps the end of the run.
func (m *Manifest) Complete(completedAt time.Time) {
	m.CompletedAt = completedAt
	m.DurationSeconds = completedAt.Sub(m.StartedAt).Seconds()
}

// Write encodes the manifest as indented JSON at path, creating parent
// directories as needed.
func (m *Manifest) Write(path string) error {
	dir := filepath.Dir(path)
	if dir != "" && dir != "." {
		if err := os.MkdirAll(dir, 0o750); err != nil {
			return fmt.Errorf("failed to create manifest directory %s: %w", dir, err)
		}
	}

	data, err := json.MarshalIndent(m, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to encode manifest: %w", err)
	}

	if err := os.WriteFile(path, data, 0o600); err != nil {
		return fmt.Errorf("failed to write manifest %s: %w", path, err)
	}
	return nil
}

// PartitionDirsFromKeys derives the unique partition directories from a
// listing of object keys under a destination prefix. A key like
// "SongDB/song_table/year=2000/artist_id=A1/data_0.parquet" under prefix
// "SongDB/song_table" contributes "year=2000/artist_id=A1".
func PartitionDirsFromKeys(keys []string, prefix string) []string {
	prefix = strings.Trim(prefix, "/")

	seen := make(map[string]struct{})
	for _, key := range keys {
		rel := strings.Trim(key, "/")
		if prefix != "" {
			if !strings.HasPrefix(rel, prefix+"/") {
				continue
			}
			rel = strings.TrimPrefix(rel, prefix+"/")
		}

		dir := filepath.ToSlash(filepath.Dir(rel))
		if dir == "." || !strings.Contains(dir, "=") {
			continue
		}
		seen[dir] = struct{}{}
	}

	return sortedKeys(seen)
}

// LocalPartitionDirs walks a local partitioned destination and returns the
// partition directories that contain files.
func LocalPartitionDirs(root string) ([]string, error) {
	seen := make(map[string]struct{})

	err := filepath.Walk(root, func(path string, info os.FileInfo, err error) error {
		if err != nil {
			return err
		}
		if info.IsDir() {
			return nil
		}

		rel, err := filepath.Rel(root, path)
		if err != nil {
			return err
		}

		dir := filepath.ToSlash(filepath.Dir(rel))
		if dir == "." || !strings.Contains(dir, "=") {
			return nil
		}
		seen[dir] = struct{}{}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to walk partition directories under %s: %w", root, err)
	}

	return sortedKeys(seen), nil
}

func sortedKeys(set map[string]struct{}) []string {
	if len(set) == 0 {
		return nil
	}
	out := make([]string, 0, len(set))
	for k := range set {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}
