// Playlake - Music Streaming Event Lake ETL
// Copyright 2026 The Playlake Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/playlake/playlake

package engine

import "strings"

// NormalizePath rewrites the legacy s3a:// scheme to the s3:// scheme the
// engine speaks. Local paths pass through unchanged.
func NormalizePath(path string) string {
	if strings.HasPrefix(path, "s3a://") {
		return "s3://" + strings.TrimPrefix(path, "s3a://")
	}
	return path
}

// NormalizeGlob prepares an input path glob for read_json. The scheme is
// normalized, and a trailing-slash directory glob (the catalog convention
// `song_data/*/*/*/`) is extended to match the JSON files beneath it.
func NormalizeGlob(glob string) string {
	glob = NormalizePath(glob)
	if strings.HasSuffix(glob, "/") {
		return glob + "*.json"
	}
	return glob
}
