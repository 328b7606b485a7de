// Playlake - Music Streaming Event Lake ETL
// Copyright 2026 The Playlake Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/playlake/playlake

// Package testinfra provides test infrastructure for integration testing
// with containers.
//
// This package uses testcontainers-go to manage Docker containers for
// integration tests. The MinIO container gives the object-storage paths a
// real S3 API to run against:
//
//	func TestPipelineAgainstS3(t *testing.T) {
//	    testinfra.SkipIfNoDocker(t)
//
//	    ctx := context.Background()
//	    minio, err := testinfra.NewMinIOContainer(ctx)
//	    if err != nil {
//	        t.Fatal(err)
//	    }
//	    defer testinfra.CleanupContainer(t, ctx, minio)
//	    // point aws.endpoint at minio.URL
//	}
//
// Every helper here builds only under the integration tag, so unit test
// runs never touch Docker.
package testinfra
