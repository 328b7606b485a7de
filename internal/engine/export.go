// Playlake - Music Streaming Event Lake ETL
// Copyright 2026 The Playlake Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/playlake/playlake

package engine

import (
	"context"
	"fmt"
	"strings"
)

// CopyOptions controls a Parquet table export.
type CopyOptions struct {
	// PartitionBy lists partition columns. Non-empty produces Hive-style
	// <col>=<value>/ directory nesting; empty writes a single Parquet
	// object at the destination path.
	PartitionBy []string

	// Compression is the config-level codec name (snappy, zstd, gzip,
	// lz4, brotli, uncompressed).
	Compression string
}

// parquetCodecs maps config codec names to the engine's codec identifiers.
var parquetCodecs = map[string]string{
	"snappy":       "SNAPPY",
	"zstd":         "ZSTD",
	"gzip":         "GZIP",
	"lz4":          "LZ4",
	"brotli":       "BROTLI",
	"uncompressed": "UNCOMPRESSED",
}

// CopyTo writes a catalog relation to the destination path in Parquet
// format. The destination must already be normalized to a scheme the engine
// speaks; the caller owns existence checks and overwrite clearing.
func (e *Engine) CopyTo(ctx context.Context, relation, destination string, opts CopyOptions) error {
	query, err := buildCopySQL(relation, destination, opts)
	if err != nil {
		return err
	}

	if _, err := e.conn.ExecContext(ctx, query); err != nil {
		return fmt.Errorf("failed to export %s to %s: %w", relation, destination, err)
	}
	return nil
}

// buildCopySQL assembles the COPY statement. COPY targets cannot be bound as
// prepared-statement parameters, so the destination is embedded as an
// escaped literal; relation and partition column names come from the flows'
// compiled-in schema, never from input data.
func buildCopySQL(relation, destination string, opts CopyOptions) (string, error) {
	codec, ok := parquetCodecs[opts.Compression]
	if !ok {
		return "", fmt.Errorf("unsupported parquet compression codec %q", opts.Compression)
	}

	var b strings.Builder
	fmt.Fprintf(&b, "COPY %s TO %s (\n    FORMAT PARQUET,\n    COMPRESSION '%s'",
		relation, Quote(destination), codec)
	if len(opts.PartitionBy) > 0 {
		fmt.Fprintf(&b, ",\n    PARTITION_BY (%s)", strings.Join(opts.PartitionBy, ", "))
	}
	b.WriteString("\n)")
	return b.String(), nil
}
