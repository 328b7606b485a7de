// Playlake - Music Streaming Event Lake ETL
// Copyright 2026 The Playlake Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/playlake/playlake

// Package models defines the star-schema row types the ETL job produces:
// four dimension tables and the songplays fact table.
//
// Every entity is an immutable tabular row produced once per job run.
// Nullable columns use pointer fields: the catalog is read with tolerant
// casts (a year that does not parse becomes nil, not a failure), and the
// fact table's song_id/artist_id are nil whenever the left joins find no
// catalog match.
package models

// Song is a row of the songs dimension, keyed by song_id and written
// partitioned by (year, artist_id).
type Song struct {
	SongID   string   `json:"song_id"`
	Title    string   `json:"title"`
	ArtistID string   `json:"artist_id"`
	Year     *int32   `json:"year,omitempty"`
	Duration *float64 `json:"duration,omitempty"`
}

// Artist is a row of the artists dimension, keyed by artist_id. The
// latitude/longitude columns are numeric or nil, never malformed strings;
// a catalog value that does not cast becomes nil.
type Artist struct {
	ArtistID  string   `json:"artist_id"`
	Name      string   `json:"name"`
	Location  string   `json:"location"`
	Latitude  *float64 `json:"latitude,omitempty"`
	Longitude *float64 `json:"longitude,omitempty"`
}

// TimeEntry is a row of the time dimension, keyed by the rendered
// start_time string. The date parts are derived from start_time in the
// configured timezone; weekday is numbered 1=Sunday through 7=Saturday.
type TimeEntry struct {
	StartTime string `json:"start_time"`
	Hour      int32  `json:"hour"`
	Day       int32  `json:"day"`
	Week      int32  `json:"week"`
	Month     int32  `json:"month"`
	Year      int32  `json:"year"`
	Weekday   int32  `json:"weekday"`
}

// User is a row of the users dimension. UserID is nil when the source
// userId field is empty or not integer-castable; deduplication is full-row
// equality only, so a user whose level changed mid-log appears once per
// distinct attribute combination.
type User struct {
	UserID    *int32 `json:"user_id,omitempty"`
	FirstName string `json:"first_name"`
	LastName  string `json:"last_name"`
	Gender    string `json:"gender"`
	Level     string `json:"level"`
}

// Songplay is a row of the fact table: one per qualifying log event,
// left-joined to the catalog. SongplayID is a per-run sequence by default
// and a deterministic content hash under the hash id strategy. UserID
// carries the source userId text untransformed; the users dimension owns
// the integer cast.
type Songplay struct {
	SongplayID int64   `json:"songplay_id"`
	StartTime  string  `json:"start_time"`
	UserID     *string `json:"user_id,omitempty"`
	Level      string  `json:"level"`
	SongID     *string `json:"song_id,omitempty"`
	ArtistID   *string `json:"artist_id,omitempty"`
	SessionID  *int64  `json:"session_id,omitempty"`
	Location   string  `json:"location"`
	UserAgent  string  `json:"user_agent"`

	// Partition columns, derived from StartTime.
	Year  int32 `json:"year"`
	Month int32 `json:"month"`
}

// Matched reports whether the fact row found a full catalog match.
func (s *Songplay) Matched() bool {
	return s.SongID != nil && s.ArtistID != nil
}
