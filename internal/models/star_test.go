// Playlake - Music Streaming Event Lake ETL
// Copyright 2026 The Playlake Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/playlake/playlake

package models

import (
	"testing"

	"github.com/goccy/go-json"
)

func TestSongplayMatched(t *testing.T) {
	songID := "S1"
	artistID := "A1"

	tests := []struct {
		name string
		row  Songplay
		want bool
	}{
		{
			name: "full catalog match",
			row:  Songplay{SongID: &songID, ArtistID: &artistID},
			want: true,
		},
		{
			name: "no match at all",
			row:  Songplay{},
			want: false,
		},
		{
			name: "title matched but artist did not",
			row:  Songplay{SongID: &songID},
			want: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.row.Matched(); got != tt.want {
				t.Errorf("Matched() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestNullableFieldsOmittedFromJSON(t *testing.T) {
	row := Songplay{
		SongplayID: 0,
		StartTime:  "2018-11-01 21:11:13",
		Level:      "free",
		Year:       2018,
		Month:      11,
	}

	data, err := json.Marshal(&row)
	if err != nil {
		t.Fatalf("Marshal() failed: %v", err)
	}

	var decoded map[string]interface{}
	if err := json.Unmarshal(data, &decoded); err != nil {
		t.Fatalf("Unmarshal() failed: %v", err)
	}

	for _, absent := range []string{"song_id", "artist_id", "user_id", "session_id"} {
		if _, ok := decoded[absent]; ok {
			t.Errorf("unmatched nullable field %q should be omitted, got %v", absent, decoded[absent])
		}
	}
	if decoded["start_time"] != "2018-11-01 21:11:13" {
		t.Errorf("start_time = %v, want fixed render", decoded["start_time"])
	}
}
