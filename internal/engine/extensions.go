// Playlake - Music Streaming Event Lake ETL
// Copyright 2026 The Playlake Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/playlake/playlake

/*
extensions.go - Extension Installation Logic

Extensions are installed with a table-driven approach. The json and parquet
extensions are always required; httpfs is added when any configured path is
in object storage, icu when the configured timezone is not UTC. A required
extension that cannot be installed is fatal (class b engine initialization
error) - there is no degraded mode in a fail-fast batch job.
*/

package engine

import (
	"fmt"
	"math"
	"time"

	"github.com/playlake/playlake/internal/logging"
)

// extensionTimeout bounds a single INSTALL or LOAD statement.
const extensionTimeout = 30 * time.Second

// extensionRetryConfig controls retry behavior for INSTALL commands, which
// can fail transiently on extension-repository network errors.
type extensionRetryConfig struct {
	MaxRetries  int
	BaseDelay   time.Duration
	MaxDelay    time.Duration
	BackoffMult float64
}

// defaultRetryConfig provides sensible defaults for extension loading retries.
var defaultRetryConfig = extensionRetryConfig{
	MaxRetries:  3,
	BaseDelay:   2 * time.Second,
	MaxDelay:    30 * time.Second,
	BackoffMult: 2.0,
}

// extensionSpec describes a DuckDB extension to install and load.
type extensionSpec struct {
	// Name is the extension name (e.g. "httpfs", "icu")
	Name string
	// VerifyQuery is an optional SQL query to confirm the extension works
	VerifyQuery string
	// AvailabilityField is a pointer to the Engine field tracking availability
	AvailabilityField func(*Engine) *bool
}

// installExtensions installs and loads every extension the configuration
// requires. All listed extensions are mandatory; the conditional ones are
// simply absent from the list when the configuration does not need them.
func (e *Engine) installExtensions() error {
	specs := []extensionSpec{
		{Name: "json", VerifyQuery: `SELECT json_valid('{}')`},
		{Name: "parquet"},
	}

	if e.cfg.HasRemotePaths() {
		specs = append(specs, extensionSpec{
			Name:              "httpfs",
			AvailabilityField: func(eng *Engine) *bool { return &eng.httpfsAvailable },
		})
	}

	if e.cfg.ETL.Timezone != "UTC" {
		specs = append(specs, extensionSpec{
			Name:              "icu",
			VerifyQuery:       `SELECT strftime(timezone('America/New_York', TIMESTAMPTZ '2018-11-01 21:11:13+00'), '%H')`,
			AvailabilityField: func(eng *Engine) *bool { return &eng.icuAvailable },
		})
	}

	for i := range specs {
		if err := e.installExtension(&specs[i]); err != nil {
			return err
		}
	}

	return nil
}

// installExtension installs one extension using the standard pattern:
// INSTALL with retry, LOAD as fallback (the extension may be statically
// linked or preinstalled), FORCE INSTALL with retry as a last resort.
func (e *Engine) installExtension(spec *extensionSpec) error {
	// Shortcut: json and parquet are statically linked into the driver and
	// report as loaded immediately; skip the network INSTALL path entirely.
	if e.isExtensionLoaded(spec.Name) {
		return e.verifyExtension(spec)
	}

	var installErr error

	// Step 1: Try INSTALL with retry for transient failures
	if err := e.execWithRetry(fmt.Sprintf("INSTALL %s;", spec.Name), defaultRetryConfig); err != nil {
		installErr = err
		// Step 2: Try LOAD (may already be installed or statically linked)
		if loadErr := e.execWithHardTimeout(fmt.Sprintf("LOAD %s;", spec.Name)); loadErr != nil {
			// Step 3: Try FORCE INSTALL with retry
			if forceErr := e.execWithRetry(fmt.Sprintf("FORCE INSTALL %s;", spec.Name), defaultRetryConfig); forceErr != nil {
				return fmt.Errorf("failed to install %s extension after retries: install error: %w, load error: %w, force install error: %w",
					spec.Name, installErr, loadErr, forceErr)
			}
		} else {
			// LOAD succeeded - extension is already usable
			return e.verifyExtension(spec)
		}
	}

	// Step 4: Load the extension (INSTALL or FORCE INSTALL succeeded)
	if err := e.execWithHardTimeout(fmt.Sprintf("LOAD %s;", spec.Name)); err != nil {
		return fmt.Errorf("failed to load %s extension: %w", spec.Name, err)
	}

	return e.verifyExtension(spec)
}

// verifyExtension runs the extension's verification query, if any, and marks
// it available on success.
func (e *Engine) verifyExtension(spec *extensionSpec) error {
	if spec.VerifyQuery != "" {
		if err := e.execWithHardTimeout(spec.VerifyQuery); err != nil {
			return fmt.Errorf("%s extension loaded but verification failed: %w", spec.Name, err)
		}
	}

	if spec.AvailabilityField != nil {
		*spec.AvailabilityField(e) = true
	}

	logging.Debug().Str("extension", spec.Name).Msg("Extension loaded")
	return nil
}

// isExtensionLoaded reports whether an extension is already loaded in the
// running engine (statically linked or loaded earlier in the process).
func (e *Engine) isExtensionLoaded(name string) bool {
	var loaded bool
	err := e.conn.QueryRow(
		"SELECT loaded FROM duckdb_extensions() WHERE extension_name = ?", name,
	).Scan(&loaded)
	return err == nil && loaded
}

// execWithRetry executes a statement with exponential backoff for transient
// failures. Each attempt is individually bounded by the hard timeout.
func (e *Engine) execWithRetry(query string, cfg extensionRetryConfig) error {
	var lastErr error

	for attempt := 0; attempt <= cfg.MaxRetries; attempt++ {
		if attempt > 0 {
			delay := time.Duration(float64(cfg.BaseDelay) * math.Pow(cfg.BackoffMult, float64(attempt-1)))
			if delay > cfg.MaxDelay {
				delay = cfg.MaxDelay
			}
			logging.Debug().
				Str("query", firstLine(query)).
				Int("attempt", attempt).
				Dur("delay", delay).
				Msg("Retrying statement")
			time.Sleep(delay)
		}

		if err := e.execWithHardTimeout(query); err != nil {
			lastErr = err
			continue
		}
		return nil
	}

	return lastErr
}
