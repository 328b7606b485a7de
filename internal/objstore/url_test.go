// Playlake - Music Streaming Event Lake ETL
// Copyright 2026 The Playlake Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/playlake/playlake

package objstore

import "testing"

func TestParseURL(t *testing.T) {
	tests := []struct {
		name       string
		input      string
		wantBucket string
		wantKey    string
		wantErr    bool
	}{
		{
			name:       "s3 scheme with key",
			input:      "s3://udacity-dend/SongDB/song_table",
			wantBucket: "udacity-dend",
			wantKey:    "SongDB/song_table",
		},
		{
			name:       "legacy s3a scheme",
			input:      "s3a://udacity-dend/log_data/2018/11/events.json",
			wantBucket: "udacity-dend",
			wantKey:    "log_data/2018/11/events.json",
		},
		{
			name:       "bucket root",
			input:      "s3://bucket",
			wantBucket: "bucket",
			wantKey:    "",
		},
		{
			name:       "bucket with trailing slash",
			input:      "s3://bucket/",
			wantBucket: "bucket",
			wantKey:    "",
		},
		{
			name:    "local path rejected",
			input:   "data/output/songplays",
			wantErr: true,
		},
		{
			name:    "empty bucket rejected",
			input:   "s3:///key",
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			bucket, key, err := ParseURL(tt.input)
			if tt.wantErr {
				if err == nil {
					t.Fatalf("ParseURL(%q) expected error, got bucket=%q key=%q", tt.input, bucket, key)
				}
				return
			}
			if err != nil {
				t.Fatalf("ParseURL(%q) unexpected error: %v", tt.input, err)
			}
			if bucket != tt.wantBucket {
				t.Errorf("bucket = %q, want %q", bucket, tt.wantBucket)
			}
			if key != tt.wantKey {
				t.Errorf("key = %q, want %q", key, tt.wantKey)
			}
		})
	}
}
