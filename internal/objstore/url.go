// Playlake - Music Streaming Event Lake ETL
// Copyright 2026 The Playlake Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/playlake/playlake

package objstore

import (
	"fmt"
	"strings"
)

// ParseURL splits an object-storage URL into bucket and key. Both the
// s3:// scheme and the legacy s3a:// spelling are accepted. The key may be
// empty (bucket root).
func ParseURL(raw string) (bucket, key string, err error) {
	var rest string
	switch {
	case strings.HasPrefix(raw, "s3://"):
		rest = strings.TrimPrefix(raw, "s3://")
	case strings.HasPrefix(raw, "s3a://"):
		rest = strings.TrimPrefix(raw, "s3a://")
	default:
		return "", "", fmt.Errorf("not an object-storage URL: %q", raw)
	}

	bucket, key, _ = strings.Cut(rest, "/")
	if bucket == "" {
		return "", "", fmt.Errorf("object-storage URL %q has no bucket", raw)
	}
	return bucket, key, nil
}
