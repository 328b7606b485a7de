// Playlake - Music Streaming Event Lake ETL
// Copyright 2026 The Playlake Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/playlake/playlake

package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/playlake/playlake/internal/validation"
)

// IsObjectStorePath reports whether a path refers to object storage.
// Both the engine-native s3:// scheme and the legacy s3a:// spelling count.
func IsObjectStorePath(path string) bool {
	return strings.HasPrefix(path, "s3://") || strings.HasPrefix(path, "s3a://")
}

// Validate checks that required configuration is present and valid.
// Tag-level rules (oneof, required, min) run through the shared validator;
// cross-field rules that depend on which paths are remote are hand-rolled.
func (c *Config) Validate() error {
	if err := validation.ValidateStruct(c); err != nil {
		return err
	}

	if err := c.validateAWS(); err != nil {
		return err
	}

	if err := c.validateTimezone(); err != nil {
		return err
	}

	if err := c.validateManifest(); err != nil {
		return err
	}

	return c.validateMetrics()
}

// validateAWS requires the credential pair exactly when some configured
// path lives in object storage. An all-local run carries no credentials.
func (c *Config) validateAWS() error {
	if !c.HasRemotePaths() {
		return nil
	}

	if c.AWS.AccessKeyID == "" {
		return fmt.Errorf("AWS_ACCESS_KEY_ID is required when an input or output path is in object storage")
	}
	if c.AWS.SecretAccessKey == "" {
		return fmt.Errorf("AWS_SECRET_ACCESS_KEY is required when an input or output path is in object storage")
	}
	if c.AWS.Region == "" {
		return fmt.Errorf("AWS_REGION must not be empty when an input or output path is in object storage")
	}
	return nil
}

// validateTimezone checks that a non-UTC timezone is a loadable IANA name.
// The engine additionally needs the icu extension for non-UTC zones; that
// check belongs to engine initialization, not configuration.
func (c *Config) validateTimezone() error {
	if c.ETL.Timezone == "UTC" {
		return nil
	}
	if _, err := time.LoadLocation(c.ETL.Timezone); err != nil {
		return fmt.Errorf("ETL_TIMEZONE %q is not a valid IANA timezone: %w", c.ETL.Timezone, err)
	}
	return nil
}

// validateManifest validates run-manifest settings (only if enabled).
func (c *Config) validateManifest() error {
	if !c.Manifest.Enabled {
		return nil
	}
	if c.Manifest.Path == "" {
		return fmt.Errorf("MANIFEST_PATH is required when MANIFEST_ENABLED=true")
	}
	return nil
}

// validateMetrics validates metrics-push settings (only if enabled).
func (c *Config) validateMetrics() error {
	if !c.Metrics.Enabled {
		return nil
	}
	if c.Metrics.PushgatewayURL == "" {
		return fmt.Errorf("PUSHGATEWAY_URL is required when METRICS_ENABLED=true")
	}
	if c.Metrics.JobName == "" {
		return fmt.Errorf("METRICS_JOB_NAME must not be empty when METRICS_ENABLED=true")
	}
	return nil
}
