// Playlake - Music Streaming Event Lake ETL
// Copyright 2026 The Playlake Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/playlake/playlake

package etl

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/playlake/playlake/internal/config"
	"github.com/playlake/playlake/internal/engine"
	"github.com/playlake/playlake/internal/logging"
	"github.com/playlake/playlake/internal/manifest"
	"github.com/playlake/playlake/internal/objstore"
)

// ErrDestinationExists is returned when overwrite mode is off and a write
// would land on an existing destination. An interrupted partitioned write
// can leave inconsistent partitions behind, so the job refuses to write
// over anything rather than guess.
var ErrDestinationExists = errors.New("destination already exists")

// tableWriter exports relations to their destinations and collects the
// per-table stats the manifest and metrics report.
type tableWriter struct {
	eng   *engine.Engine
	store *objstore.Client // nil when every destination is local

	overwrite   bool
	compression string
}

func newTableWriter(eng *engine.Engine, store *objstore.Client, cfg *config.Config) *tableWriter {
	return &tableWriter{
		eng:         eng,
		store:       store,
		overwrite:   cfg.Output.Overwrite,
		compression: cfg.Output.Compression,
	}
}

// write exports one relation as Parquet. The returned stats carry the row
// count and, for partitioned writes, the partition directories produced;
// the caller stamps the duration since it also owns the transform step.
func (w *tableWriter) write(ctx context.Context, relation, table, destination string, partitionBy []string) (manifest.TableStats, error) {
	stats := manifest.TableStats{
		Name:        table,
		Destination: destination,
		Partitioned: len(partitionBy) > 0,
	}

	dest := engine.NormalizePath(destination)

	if err := w.prepareDestination(ctx, dest); err != nil {
		return stats, fmt.Errorf("failed to prepare %s destination: %w", table, err)
	}

	rows, err := w.eng.Count(ctx, relation)
	if err != nil {
		return stats, err
	}
	stats.Rows = rows

	opts := engine.CopyOptions{
		PartitionBy: partitionBy,
		Compression: w.compression,
	}
	if err := w.eng.CopyTo(ctx, relation, dest, opts); err != nil {
		return stats, err
	}

	if stats.Partitioned {
		partitions, err := w.enumeratePartitions(ctx, dest)
		if err != nil {
			return stats, fmt.Errorf("failed to enumerate %s partitions: %w", table, err)
		}
		stats.Partitions = partitions
	}

	logging.Info().
		Str("table", table).
		Str("destination", destination).
		Int64("rows", rows).
		Int("partitions", len(stats.Partitions)).
		Msg("Table written")

	return stats, nil
}

// prepareDestination enforces the overwrite contract before a write:
// overwrite off fails on an existing destination, overwrite on clears it.
// Local single-object writes also need the parent directory to exist.
func (w *tableWriter) prepareDestination(ctx context.Context, dest string) error {
	if config.IsObjectStorePath(dest) {
		return w.prepareRemote(ctx, dest)
	}
	return w.prepareLocal(dest)
}

func (w *tableWriter) prepareRemote(ctx context.Context, dest string) error {
	if w.store == nil {
		return fmt.Errorf("no object-storage client for destination %s", dest)
	}

	exists, err := w.store.HasPrefix(ctx, dest)
	if err != nil {
		return err
	}
	if !exists {
		return nil
	}
	if !w.overwrite {
		return fmt.Errorf("%w: %s", ErrDestinationExists, dest)
	}
	return w.store.DeletePrefix(ctx, dest)
}

func (w *tableWriter) prepareLocal(dest string) error {
	if _, err := os.Stat(dest); err == nil {
		if !w.overwrite {
			return fmt.Errorf("%w: %s", ErrDestinationExists, dest)
		}
		if err := os.RemoveAll(dest); err != nil {
			return fmt.Errorf("failed to clear destination %s: %w", dest, err)
		}
	}

	parent := filepath.Dir(dest)
	if parent != "" && parent != "." {
		if err := os.MkdirAll(parent, 0o750); err != nil {
			return fmt.Errorf("failed to create destination directory %s: %w", parent, err)
		}
	}
	return nil
}

// enumeratePartitions lists the Hive-style partition directories under a
// destination after a partitioned write.
func (w *tableWriter) enumeratePartitions(ctx context.Context, dest string) ([]string, error) {
	if config.IsObjectStorePath(dest) {
		keys, err := w.store.ListPrefix(ctx, dest)
		if err != nil {
			return nil, err
		}
		_, prefix, err := objstore.ParseURL(dest)
		if err != nil {
			return nil, err
		}
		return manifest.PartitionDirsFromKeys(keys, prefix), nil
	}
	return manifest.LocalPartitionDirs(dest)
}
