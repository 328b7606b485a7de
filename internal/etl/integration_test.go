// Playlake - Music Streaming Event Lake ETL
// Copyright 2026 The Playlake Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/playlake/playlake

//go:build integration

package etl

import (
	"context"
	"io/fs"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"testing"
	"time"

	"github.com/playlake/playlake/internal/config"
	"github.com/playlake/playlake/internal/engine"
	"github.com/playlake/playlake/internal/objstore"
	"github.com/playlake/playlake/internal/testinfra"
)

const integrationBucket = "playlake-it"

// uploadFixtures mirrors the local testdata tree into the bucket so the
// fixture globs work unchanged against s3:// paths.
func uploadFixtures(ctx context.Context, t *testing.T, store *objstore.Client) {
	t.Helper()

	err := filepath.Walk("testdata", func(path string, info fs.FileInfo, err error) error {
		if err != nil || info.IsDir() {
			return err
		}
		body, err := os.ReadFile(path)
		if err != nil {
			return err
		}
		key := filepath.ToSlash(path)
		return store.Upload(ctx, "s3://"+integrationBucket+"/"+key, body)
	})
	if err != nil {
		t.Fatalf("Failed to upload fixtures: %v", err)
	}
}

func TestJobAgainstObjectStorage(t *testing.T) {
	testinfra.SkipIfNoDocker(t)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Minute)
	defer cancel()

	minio, err := testinfra.NewMinIOContainer(ctx)
	if err != nil {
		t.Fatalf("Failed to start MinIO: %v", err)
	}
	defer testinfra.CleanupContainer(t, ctx, minio)

	cfg := localJobConfig(t)
	cfg.AWS = config.AWSConfig{
		AccessKeyID:     minio.AccessKey,
		SecretAccessKey: minio.SecretKey,
		Region:          "us-east-1",
		Endpoint:        strings.TrimPrefix(minio.URL, "http://"),
		URLStyle:        "path",
		UseSSL:          false,
	}
	// Legacy s3a:// scheme on input; dimension outputs remote, fact local.
	cfg.Input.SongData = "s3a://" + integrationBucket + "/testdata/song_data/*/*/*/"
	cfg.Input.LogData = "s3a://" + integrationBucket + "/testdata/log_data/*/*/*.json"
	cfg.Output.Songs = "s3://" + integrationBucket + "/SongDB/song_table"
	cfg.Output.Artists = "s3://" + integrationBucket + "/SongDB/artist_table"
	cfg.Output.Time = "s3://" + integrationBucket + "/SongDB/time_table"
	cfg.Output.Users = "s3://" + integrationBucket + "/SongDB/users_table"

	store, err := objstore.New(&cfg.AWS)
	if err != nil {
		t.Fatalf("Failed to create object-storage client: %v", err)
	}
	if err := store.EnsureBucket(ctx, integrationBucket); err != nil {
		t.Fatalf("Failed to create bucket: %v", err)
	}
	uploadFixtures(ctx, t, store)

	eng, err := engine.New(cfg)
	if err != nil {
		t.Fatalf("Failed to create engine: %v", err)
	}
	defer func() {
		if err := eng.Close(); err != nil {
			t.Logf("Warning: failed to close engine: %v", err)
		}
	}()
	if !eng.HTTPFSAvailable() {
		t.Fatal("httpfs must load for remote paths")
	}

	m, err := NewJob(eng, store, cfg).Run(ctx)
	if err != nil {
		t.Fatalf("Run() failed: %v", err)
	}
	if len(m.Tables) != 5 {
		t.Fatalf("wrote %d tables, want 5", len(m.Tables))
	}

	// Partition enumeration over S3 listings.
	wantParts := []string{
		"year=0/artist_id=AR000002",
		"year=2000/artist_id=AR000001",
		"year=2008/artist_id=AR000002",
	}
	if !slices.Equal(m.Tables[0].Partitions, wantParts) {
		t.Errorf("songs partitions = %v, want %v", m.Tables[0].Partitions, wantParts)
	}

	keys, err := store.ListPrefix(ctx, cfg.Output.Artists)
	if err != nil {
		t.Fatalf("Failed to list artists output: %v", err)
	}
	if len(keys) == 0 {
		t.Error("artists output missing from bucket")
	}

	// The fact table stayed local.
	if n := countParquetRows(t, eng, cfg.Output.Songplays); n != 4 {
		t.Errorf("songplays rows = %d, want 4", n)
	}

	// Rerun without overwrite must trip on the remote destination too.
	if _, err := NewJob(eng, store, cfg).Run(ctx); err == nil {
		t.Error("rerun without overwrite should fail on existing remote destination")
	}
}
