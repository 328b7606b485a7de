// Playlake - Music Streaming Event Lake ETL
// Copyright 2026 The Playlake Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/playlake/playlake

package config

import (
	"fmt"
	"os"
	"strings"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/providers/structs"
	"github.com/knadh/koanf/v2"
)

// DefaultConfigPaths lists the paths where config files are searched in
// order of priority. The first file found wins.
var DefaultConfigPaths = []string{
	"config.yaml",
	"config.yml",
	"/etc/playlake/config.yaml",
	"/etc/playlake/config.yml",
}

// ConfigPathEnvVar is the environment variable that can override the config file path.
const ConfigPathEnvVar = "CONFIG_PATH"

// Load loads configuration using Koanf v2 with layered sources:
//  1. Defaults: built-in defaults
//  2. Config File: optional YAML config file (if one exists)
//  3. Environment Variables: override any setting
//
// Precedence: ENV > File > Defaults. The loaded config is validated before
// being returned; a validation failure here is a class (a) startup error.
func Load() (*Config, error) {
	k := koanf.New(".")

	// Layer 1: defaults from struct
	if err := k.Load(structs.Provider(defaultConfig(), "koanf"), nil); err != nil {
		return nil, fmt.Errorf("failed to load defaults: %w", err)
	}

	// Layer 2: config file (optional)
	configPath := findConfigFile()
	if configPath != "" {
		if err := k.Load(file.Provider(configPath), yaml.Parser()); err != nil {
			return nil, fmt.Errorf("failed to load config file %s: %w", configPath, err)
		}
	}

	// Layer 3: environment variables (highest priority)
	// Transform environment variable names to koanf paths:
	// AWS_ACCESS_KEY_ID -> aws.access_key_id
	// OUTPUT_COMPRESSION -> output.compression
	if err := k.Load(env.Provider("", ".", envTransformFunc), nil); err != nil {
		return nil, fmt.Errorf("failed to load environment variables: %w", err)
	}

	cfg := &Config{}
	if err := k.Unmarshal("", cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal configuration: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}

	return cfg, nil
}

// findConfigFile searches for a config file in the default paths.
// Returns the path to the first file found, or empty string if none found.
func findConfigFile() string {
	// Check environment variable first
	if envPath := os.Getenv(ConfigPathEnvVar); envPath != "" {
		if _, err := os.Stat(envPath); err == nil {
			return envPath
		}
	}

	// Search default paths
	for _, path := range DefaultConfigPaths {
		if _, err := os.Stat(path); err == nil {
			return path
		}
	}

	return ""
}

// envTransformFunc transforms environment variable names to koanf config paths.
//
// The mapping is explicit: the credential variables keep the names the AWS
// ecosystem expects, and everything else follows SECTION_FIELD naming.
//
// Examples:
//   - AWS_ACCESS_KEY_ID -> aws.access_key_id
//   - S3_ENDPOINT -> aws.endpoint
//   - OUTPUT_OVERWRITE -> output.overwrite
//   - DUCKDB_PATH -> database.path
//   - LOG_LEVEL -> logging.level
func envTransformFunc(key string) string {
	key = strings.ToLower(key)

	envMappings := map[string]string{
		// Object-storage credentials and connection
		"aws_access_key_id":     "aws.access_key_id",
		"aws_secret_access_key": "aws.secret_access_key",
		"aws_region":            "aws.region",
		"s3_endpoint":           "aws.endpoint",
		"s3_url_style":          "aws.url_style",
		"s3_use_ssl":            "aws.use_ssl",

		// Input path globs
		"input_song_data": "input.song_data",
		"input_log_data":  "input.log_data",

		// Output destinations and write behavior
		"output_songs":       "output.songs",
		"output_artists":     "output.artists",
		"output_time":        "output.time",
		"output_users":       "output.users",
		"output_songplays":   "output.songplays",
		"output_overwrite":   "output.overwrite",
		"output_compression": "output.compression",

		// Transformation options
		"etl_timezone":    "etl.timezone",
		"etl_id_strategy": "etl.id_strategy",

		// Engine mappings
		"duckdb_path":                     "database.path",
		"duckdb_max_memory":               "database.max_memory",
		"duckdb_threads":                  "database.threads",
		"duckdb_preserve_insertion_order": "database.preserve_insertion_order",

		// Run manifest mappings
		"manifest_enabled": "manifest.enabled",
		"manifest_path":    "manifest.path",

		// Metrics mappings
		"metrics_enabled":  "metrics.enabled",
		"pushgateway_url":  "metrics.pushgateway_url",
		"metrics_job_name": "metrics.job_name",

		// Logging mappings
		"log_level":  "logging.level",
		"log_format": "logging.format",
		"log_caller": "logging.caller",
	}

	if mapped, ok := envMappings[key]; ok {
		return mapped
	}

	// For unmapped keys, return empty string to skip them
	// This prevents random environment variables from polluting config
	return ""
}
