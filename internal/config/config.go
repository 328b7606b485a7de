// Playlake - Music Streaming Event Lake ETL
// Copyright 2026 The Playlake Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/playlake/playlake

package config

// Config holds all job configuration loaded from the config file and
// environment variables.
//
// Configuration Loading Order (Koanf v2):
//  1. Defaults: Built-in defaults for all optional settings
//  2. Config File: Optional YAML config file (config.yaml) for persistent settings
//  3. Environment Variables: Override any setting via environment variables
//
// Credentials are carried inside this struct and handed to the execution
// context explicitly; the process environment is never mutated.
//
// Thread Safety:
// Config is immutable after Load() and safe for concurrent read access.
type Config struct {
	AWS      AWSConfig      `koanf:"aws"`
	Input    InputConfig    `koanf:"input"`
	Output   OutputConfig   `koanf:"output"`
	ETL      ETLConfig      `koanf:"etl"`
	Database DatabaseConfig `koanf:"database"`
	Manifest ManifestConfig `koanf:"manifest"`
	Metrics  MetricsConfig  `koanf:"metrics"`
	Logging  LoggingConfig  `koanf:"logging"`
}

// AWSConfig holds object-storage credentials and connection settings.
//
// Credentials are required only when any configured input or output path is
// in object storage (s3:// or s3a:// scheme); an all-local run needs none.
//
// Environment Variables:
//   - AWS_ACCESS_KEY_ID / AWS_SECRET_ACCESS_KEY: credential pair
//   - AWS_REGION: bucket region (default: us-west-2)
//   - S3_ENDPOINT: custom endpoint for S3-compatible stores (e.g. MinIO)
//   - S3_URL_STYLE: "vhost" or "path" (path required by most MinIO setups)
//   - S3_USE_SSL: disable for plain-HTTP test endpoints
type AWSConfig struct {
	AccessKeyID     string `koanf:"access_key_id"`
	SecretAccessKey string `koanf:"secret_access_key"`
	Region          string `koanf:"region"`
	Endpoint        string `koanf:"endpoint"`
	URLStyle        string `koanf:"url_style" validate:"omitempty,oneof=vhost path"`
	UseSSL          bool   `koanf:"use_ssl"`
}

// InputConfig holds the two source path globs.
//
// The song_data glob covers depth-three nested catalog partitions; a
// trailing-slash directory glob is normalized to match the JSON files
// beneath it before it reaches the engine.
type InputConfig struct {
	SongData string `koanf:"song_data" validate:"required"`
	LogData  string `koanf:"log_data" validate:"required"`
}

// OutputConfig holds the five table destinations and write behavior.
//
// The default songplays destination is local-relative while the dimension
// tables go to object storage; the asymmetry is inherited from the source
// system and preserved deliberately.
type OutputConfig struct {
	Songs     string `koanf:"songs" validate:"required"`
	Artists   string `koanf:"artists" validate:"required"`
	Time      string `koanf:"time" validate:"required"`
	Users     string `koanf:"users" validate:"required"`
	Songplays string `koanf:"songplays" validate:"required"`

	// Overwrite clears each destination immediately before its write,
	// making reruns idempotent. When false a write to an existing
	// destination fails.
	Overwrite bool `koanf:"overwrite"`

	// Compression selects the Parquet codec for all table writes.
	Compression string `koanf:"compression" validate:"oneof=snappy zstd gzip lz4 brotli uncompressed"`
}

// Songplay surrogate-key strategies.
const (
	IDStrategySequence = "sequence"
	IDStrategyHash     = "hash"
)

// ETLConfig holds transformation options.
type ETLConfig struct {
	// Timezone is the IANA zone name used to render start_time from the
	// epoch-millisecond event timestamps. Non-UTC zones require the icu
	// engine extension.
	Timezone string `koanf:"timezone" validate:"required"`

	// IDStrategy selects the songplay surrogate key:
	//   - sequence: row-number over the joined set; unique per run, not
	//     stable across reruns
	//   - hash: deterministic hash of (start_time, user_id, session_id);
	//     stable for identical inputs
	IDStrategy string `koanf:"id_strategy" validate:"oneof=sequence hash"`
}

// DatabaseConfig holds the embedded engine settings.
type DatabaseConfig struct {
	// Path is the engine database location. The default ":memory:" is the
	// right choice for a one-shot job; a file path keeps staged relations
	// inspectable after the run.
	Path string `koanf:"path" validate:"required"`

	// MaxMemory caps engine memory usage (e.g. "2GB"). Empty = engine default.
	MaxMemory string `koanf:"max_memory"`

	// Threads is the engine thread count. 0 = runtime.NumCPU().
	Threads int `koanf:"threads" validate:"min=0"`

	// PreserveInsertionOrder keeps result order stable at some memory cost.
	PreserveInsertionOrder bool `koanf:"preserve_insertion_order"`
}

// ManifestConfig controls the post-run JSON report.
type ManifestConfig struct {
	Enabled bool   `koanf:"enabled"`
	Path    string `koanf:"path"`
}

// MetricsConfig controls the optional Pushgateway metrics push.
// Disabled by default; a push failure is logged and never fails the job.
type MetricsConfig struct {
	Enabled        bool   `koanf:"enabled"`
	PushgatewayURL string `koanf:"pushgateway_url"`
	JobName        string `koanf:"job_name"`
}

// LoggingConfig holds log output settings.
type LoggingConfig struct {
	Level  string `koanf:"level" validate:"oneof=trace debug info warn error fatal disabled"`
	Format string `koanf:"format" validate:"oneof=json console"`
	Caller bool   `koanf:"caller"`
}

// defaultConfig returns a Config with all default values. Defaults are
// applied first, then overridden by the config file and env vars.
//
// Input and output defaults preserve the source system's fixed paths,
// including the remote/local songplays asymmetry.
func defaultConfig() *Config {
	return &Config{
		AWS: AWSConfig{
			AccessKeyID:     "",
			SecretAccessKey: "",
			Region:          "us-west-2",
			Endpoint:        "",
			URLStyle:        "",
			UseSSL:          true,
		},
		Input: InputConfig{
			SongData: "s3a://udacity-dend/song_data/*/*/*/",
			LogData:  "s3a://udacity-dend/log_data/*/*/*.json",
		},
		Output: OutputConfig{
			Songs:       "s3a://udacity-dend/SongDB/song_table",
			Artists:     "s3a://udacity-dend/SongDB/artists_table",
			Time:        "s3a://udacity-dend/SongDB/time_table",
			Users:       "s3a://udacity-dend/SongDB/user_table",
			Songplays:   "data/output/songplays",
			Overwrite:   false,
			Compression: "snappy",
		},
		ETL: ETLConfig{
			Timezone:   "UTC",
			IDStrategy: "sequence",
		},
		Database: DatabaseConfig{
			Path:                   ":memory:",
			MaxMemory:              "",
			Threads:                0, // 0 = use runtime.NumCPU()
			PreserveInsertionOrder: true,
		},
		Manifest: ManifestConfig{
			Enabled: true,
			Path:    "data/output/manifest.json",
		},
		Metrics: MetricsConfig{
			Enabled:        false, // opt-in only
			PushgatewayURL: "",
			JobName:        "playlake",
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "json",
			Caller: false,
		},
	}
}

// HasRemotePaths reports whether any configured input or output path is in
// object storage. Credentials and the httpfs engine extension are required
// only in that case.
func (c *Config) HasRemotePaths() bool {
	paths := []string{
		c.Input.SongData,
		c.Input.LogData,
		c.Output.Songs,
		c.Output.Artists,
		c.Output.Time,
		c.Output.Users,
		c.Output.Songplays,
	}
	for _, p := range paths {
		if IsObjectStorePath(p) {
			return true
		}
	}
	return false
}
