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

// EventFlow reads raw listening-event logs and derives the time and users
// dimensions plus the songplays fact table.
type EventFlow struct {
	eng *engine.Engine
	cfg *config.Config
	w   *tableWriter
}

// NewEventFlow creates the event-side flow.
func NewEventFlow(eng *engine.Engine, store *objstore.Client, cfg *config.Config) *EventFlow {
	return &EventFlow{
		eng: eng,
		cfg: cfg,
		w:   newTableWriter(eng, store, cfg),
	}
}

// Run stages the event logs, filters them down to playback events, and
// writes the three event-derived tables. catalog is the staged song_data
// relation the fact-table joins resolve against.
func (f *EventFlow) Run(ctx context.Context, catalog Relation) ([]manifest.TableStats, error) {
	if err := f.stage(ctx); err != nil {
		return nil, err
	}
	if err := f.filterPlays(ctx); err != nil {
		return nil, err
	}

	var stats []manifest.TableStats

	timeStats, err := f.writeTime(ctx)
	if err != nil {
		return nil, err
	}
	stats = append(stats, timeStats)

	userStats, err := f.writeUsers(ctx)
	if err != nil {
		return nil, err
	}
	stats = append(stats, userStats)

	playStats, err := f.writeSongplays(ctx, catalog)
	if err != nil {
		return nil, err
	}
	stats = append(stats, playStats)

	return stats, nil
}

// stage reads every file matched by the event glob with inferred schema.
// Event logs are newline-delimited JSON produced by a single writer, so
// unlike the catalog they are trusted to be schema-consistent.
func (f *EventFlow) stage(ctx context.Context) error {
	glob := engine.NormalizeGlob(f.cfg.Input.LogData)

	query := fmt.Sprintf(`
		CREATE OR REPLACE TABLE log_data AS
		SELECT * FROM read_json(%s, format = 'auto')`, engine.Quote(glob))

	if err := f.eng.Exec(ctx, query); err != nil {
		return fmt.Errorf("failed to stage event data from %s: %w", glob, err)
	}

	rows, err := f.eng.Count(ctx, "log_data")
	if err != nil {
		return err
	}
	logging.Info().Str("glob", glob).Int64("rows", rows).Msg("Event data staged")
	return nil
}

// filterPlays keeps only playback events and converts the millisecond epoch
// once, up front, so every downstream projection reads the same start_time.
func (f *EventFlow) filterPlays(ctx context.Context) error {
	query := fmt.Sprintf(`
		CREATE OR REPLACE TABLE log_plays AS
		SELECT *, %s AS start_time
		FROM log_data
		WHERE page = 'NextSong'`, startTimeExpr(f.cfg.ETL.Timezone))

	if err := f.eng.Exec(ctx, query); err != nil {
		return fmt.Errorf("failed to filter playback events: %w", err)
	}

	rows, err := f.eng.Count(ctx, "log_plays")
	if err != nil {
		return err
	}
	logging.Info().Int64("rows", rows).Msg("Playback events filtered")
	return nil
}

// startTimeExpr converts the millisecond epoch column ts into a formatted
// wall-clock string in the configured timezone. The UTC path avoids the icu
// extension entirely; only the non-UTC path needs timezone(), and the engine
// loads icu whenever the configured timezone is not UTC.
func startTimeExpr(tz string) string {
	if tz == "" || tz == "UTC" {
		return `strftime(epoch_ms(CAST(ts AS BIGINT)), '%Y-%m-%d %H:%M:%S')`
	}
	return fmt.Sprintf(
		`strftime(timezone(%s, to_timestamp(CAST(ts AS BIGINT) / 1000.0)), '%%Y-%%m-%%d %%H:%%M:%%S')`,
		engine.Quote(tz))
}

// writeTime derives the time dimension from the distinct playback
// timestamps. Weekdays are numbered 1=Sunday through 7=Saturday.
func (f *EventFlow) writeTime(ctx context.Context) (manifest.TableStats, error) {
	started := time.Now()

	// Staged as time_dim: "time" collides with the SQL type keyword.
	query := `
		CREATE OR REPLACE TABLE time_dim AS
		SELECT
			start_time,
			hour(t) AS hour,
			day(t) AS day,
			weekofyear(t) AS week,
			month(t) AS month,
			year(t) AS year,
			dayofweek(t) + 1 AS weekday
		FROM (SELECT DISTINCT start_time, CAST(start_time AS TIMESTAMP) AS t FROM log_plays)
		ORDER BY year, month`

	if err := f.eng.Exec(ctx, query); err != nil {
		return manifest.TableStats{}, fmt.Errorf("failed to build time dimension: %w", err)
	}

	stats, err := f.w.write(ctx, "time_dim", "time", f.cfg.Output.Time, nil)
	if err != nil {
		return stats, err
	}
	stats.DurationSeconds = time.Since(started).Seconds()
	return stats, nil
}

// writeUsers derives the users dimension. userId arrives as text and is cast
// tolerantly here; anonymous events carry an empty string and surface as a
// null user_id row.
func (f *EventFlow) writeUsers(ctx context.Context) (manifest.TableStats, error) {
	started := time.Now()

	query := `
		CREATE OR REPLACE TABLE users AS
		SELECT DISTINCT
			TRY_CAST(userId AS INTEGER) AS user_id,
			firstName AS first_name,
			lastName AS last_name,
			gender,
			level
		FROM log_plays`

	if err := f.eng.Exec(ctx, query); err != nil {
		return manifest.TableStats{}, fmt.Errorf("failed to build users dimension: %w", err)
	}

	stats, err := f.w.write(ctx, "users", "users", f.cfg.Output.Users, nil)
	if err != nil {
		return stats, err
	}
	stats.DurationSeconds = time.Since(started).Seconds()
	return stats, nil
}

// songplayIDExpr picks the identifier strategy for the fact table.
// "sequence" numbers rows within this run starting at zero; "hash" derives a
// deterministic id from the event identity so reruns produce stable ids.
func songplayIDExpr(strategy string) string {
	if strategy == config.IDStrategyHash {
		// hash() returns UBIGINT; mask the sign bit so the strict cast to
		// BIGINT cannot overflow.
		return `CAST(hash(e.start_time, e.userId, e.sessionId) & 9223372036854775807 AS BIGINT)`
	}
	return `row_number() OVER () - 1`
}

// writeSongplays builds the fact table by resolving each playback event
// against the staged catalog on title and artist name. Events with no
// catalog match are kept with null song_id and artist_id.
func (f *EventFlow) writeSongplays(ctx context.Context, catalog Relation) (manifest.TableStats, error) {
	started := time.Now()

	query := fmt.Sprintf(`
		CREATE OR REPLACE TABLE songplays AS
		SELECT
			%s AS songplay_id,
			e.start_time,
			e.userId AS user_id,
			e.level,
			s.song_id,
			a.artist_id,
			e.sessionId AS session_id,
			e.location,
			e.userAgent AS user_agent,
			year(CAST(e.start_time AS TIMESTAMP)) AS year,
			month(CAST(e.start_time AS TIMESTAMP)) AS month
		FROM log_plays e
		LEFT JOIN (SELECT DISTINCT title, song_id FROM %s) s ON e.song = s.title
		LEFT JOIN (SELECT DISTINCT artist_name, artist_id FROM %s) a ON e.artist = a.artist_name
		ORDER BY year, month`,
		songplayIDExpr(f.cfg.ETL.IDStrategy), catalog.Name(), catalog.Name())

	if err := f.eng.Exec(ctx, query); err != nil {
		return manifest.TableStats{}, fmt.Errorf("failed to build songplays fact table: %w", err)
	}

	stats, err := f.w.write(ctx, "songplays", "songplays", f.cfg.Output.Songplays, []string{"year", "month"})
	if err != nil {
		return stats, err
	}
	stats.DurationSeconds = time.Since(started).Seconds()
	return stats, nil
}
