// Playlake - Music Streaming Event Lake ETL
// Copyright 2026 The Playlake Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/playlake/playlake

package engine

import (
	"fmt"
	"strings"

	"github.com/playlake/playlake/internal/config"
	"github.com/playlake/playlake/internal/logging"
)

// storageSecretName is the engine-catalog name of the S3 secret.
const storageSecretName = "playlake_s3"

// applyStorageSecret creates an engine-scoped S3 secret from the explicit
// configuration object. Credentials never touch the process environment;
// they travel from the config struct straight into the engine catalog.
func (e *Engine) applyStorageSecret() error {
	if err := e.execWithHardTimeout(buildSecretSQL(&e.cfg.AWS)); err != nil {
		return fmt.Errorf("failed to create storage secret: %w", err)
	}

	logging.Debug().
		Str("region", e.cfg.AWS.Region).
		Str("endpoint", e.cfg.AWS.Endpoint).
		Msg("Object-storage secret configured")
	return nil
}

// buildSecretSQL assembles the CREATE SECRET statement. Secrets do not
// support parameter binding, so values are escaped as SQL string literals.
func buildSecretSQL(aws *config.AWSConfig) string {
	var b strings.Builder

	fmt.Fprintf(&b, "CREATE OR REPLACE SECRET %s (\n", storageSecretName)
	b.WriteString("    TYPE S3")
	fmt.Fprintf(&b, ",\n    KEY_ID %s", Quote(aws.AccessKeyID))
	fmt.Fprintf(&b, ",\n    SECRET %s", Quote(aws.SecretAccessKey))
	fmt.Fprintf(&b, ",\n    REGION %s", Quote(aws.Region))

	if aws.Endpoint != "" {
		fmt.Fprintf(&b, ",\n    ENDPOINT %s", Quote(aws.Endpoint))
		if !aws.UseSSL {
			b.WriteString(",\n    USE_SSL false")
		}
	}
	if aws.URLStyle != "" {
		fmt.Fprintf(&b, ",\n    URL_STYLE %s", Quote(aws.URLStyle))
	}

	b.WriteString("\n)")
	return b.String()
}

// Quote renders a value as a single-quoted SQL string literal. Statement
// positions that do not accept parameter binding (secret options, table
// function arguments) use this instead of interpolating raw strings.
func Quote(s string) string {
	return "'" + strings.ReplaceAll(s, "'", "''") + "'"
}
