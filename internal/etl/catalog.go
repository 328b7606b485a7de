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
	"github.com/playlake/playlake/internal/objstore"
)

// catalogRelation is the staged source relation the songs/artists
// projections read and the Event Flow's joins resolve against.
const catalogRelation = "song_data"

// CatalogFlow reads raw song/artist catalog records and derives the songs
// and artists dimensions.
type CatalogFlow struct {
	eng *engine.Engine
	cfg *config.Config
	w   *tableWriter
}

// NewCatalogFlow creates the catalog-side flow.
func NewCatalogFlow(eng *engine.Engine, store *objstore.Client, cfg *config.Config) *CatalogFlow {
	return &CatalogFlow{
		eng: eng,
		cfg: cfg,
		w:   newTableWriter(eng, store, cfg),
	}
}

// Run stages the catalog and writes both dimensions. It returns the staged
// relation handle for the Event Flow's joins; the relation is an ordinary
// engine-catalog table, so it stays resolvable for the rest of the run.
func (f *CatalogFlow) Run(ctx context.Context) (Relation, []manifest.TableStats, error) {
	if err := f.stage(ctx); err != nil {
		return Relation{}, nil, err
	}

	var stats []manifest.TableStats

	songs, err := f.writeSongs(ctx)
	if err != nil {
		return Relation{}, nil, err
	}
	stats = append(stats, songs)

	artists, err := f.writeArtists(ctx)
	if err != nil {
		return Relation{}, nil, err
	}
	stats = append(stats, artists)

	return Relation{name: catalogRelation}, stats, nil
}

// stage reads every file matched by the catalog glob into one relation.
// All declared columns are read as text and the projections apply tolerant
// casts, so a type mismatch between schema and file yields nulls instead of
// failing the read.
func (f *CatalogFlow) stage(ctx context.Context) error {
	glob := engine.NormalizeGlob(f.cfg.Input.SongData)

	query := fmt.Sprintf(`
		CREATE OR REPLACE TABLE %s AS
		SELECT * FROM read_json(%s, format = 'auto', columns = {
			artist_id: 'VARCHAR',
			artist_latitude: 'VARCHAR',
			artist_longitude: 'VARCHAR',
			artist_location: 'VARCHAR',
			artist_name: 'VARCHAR',
			duration: 'VARCHAR',
			num_songs: 'VARCHAR',
			song_id: 'VARCHAR',
			title: 'VARCHAR',
			year: 'VARCHAR'
		})`, catalogRelation, engine.Quote(glob))

	if err := f.eng.Exec(ctx, query); err != nil {
		return fmt.Errorf("failed to stage catalog data from %s: %w", glob, err)
	}

	rows, err := f.eng.Count(ctx, catalogRelation)
	if err != nil {
		return err
	}
	logging.Info().Str("glob", glob).Int64("rows", rows).Msg("Catalog data staged")
	return nil
}

// writeSongs projects the songs dimension and writes it partitioned by
// (year, artist_id). The ORDER BY is cosmetic: it shapes file layout inside
// partitions, never correctness.
func (f *CatalogFlow) writeSongs(ctx context.Context) (manifest.TableStats, error) {
	started := time.Now()

	query := fmt.Sprintf(`
		CREATE OR REPLACE TABLE songs AS
		SELECT DISTINCT
			song_id,
			title,
			artist_id,
			TRY_CAST(year AS INTEGER) AS year,
			TRY_CAST(duration AS DOUBLE) AS duration
		FROM %s
		ORDER BY year, artist_id`, catalogRelation)

	if err := f.eng.Exec(ctx, query); err != nil {
		return manifest.TableStats{}, fmt.Errorf("failed to build songs dimension: %w", err)
	}

	stats, err := f.w.write(ctx, "songs", "songs", f.cfg.Output.Songs, []string{"year", "artist_id"})
	if err != nil {
		return stats, err
	}
	stats.DurationSeconds = time.Since(started).Seconds()
	return stats, nil
}

// writeArtists projects the artists dimension (renamed columns, tolerant
// float casts) and writes it unpartitioned.
func (f *CatalogFlow) writeArtists(ctx context.Context) (manifest.TableStats, error) {
	started := time.Now()

	query := fmt.Sprintf(`
		CREATE OR REPLACE TABLE artists AS
		SELECT DISTINCT
			artist_id,
			artist_name AS name,
			artist_location AS location,
			TRY_CAST(artist_latitude AS DOUBLE) AS latitude,
			TRY_CAST(artist_longitude AS DOUBLE) AS longitude
		FROM %s`, catalogRelation)

	if err := f.eng.Exec(ctx, query); err != nil {
		return manifest.TableStats{}, fmt.Errorf("failed to build artists dimension: %w", err)
	}

	stats, err := f.w.write(ctx, "artists", "artists", f.cfg.Output.Artists, nil)
	if err != nil {
		return stats, err
	}
	stats.DurationSeconds = time.Since(started).Seconds()
	return stats, nil
}
