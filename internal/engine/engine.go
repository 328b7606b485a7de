// Playlake - Music Streaming Event Lake ETL
// Copyright 2026 The Playlake Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/playlake/playlake

package engine

import (
	"context"
	"database/sql"
	"fmt"
	"io"
	"runtime"
	"strings"
	"sync"
	"time"

	_ "github.com/duckdb/duckdb-go/v2"

	"github.com/playlake/playlake/internal/config"
)

// Engine wraps an embedded DuckDB instance configured for the ETL job:
// JSON and Parquet support always, object-storage access (httpfs plus a
// scoped S3 secret) when any configured path is remote, and ICU when the
// configured timezone is not UTC.
//
// Because pooled connections share one engine catalog, staged relations are
// created as ordinary tables with CREATE OR REPLACE and stay resolvable for
// the lifetime of the process.
type Engine struct {
	conn *sql.DB
	cfg  *config.Config

	httpfsAvailable bool // Tracks whether httpfs extension is loaded
	icuAvailable    bool // Tracks whether icu extension is loaded
}

var (
	// activeEngine is the process-wide handle; Acquire is idempotent.
	activeEngine *Engine
	activeMu     sync.Mutex
)

// Acquire returns the process-wide engine handle, creating it on first call.
// Subsequent calls return the existing handle regardless of configuration;
// the job acquires once and every component shares the result.
func Acquire(cfg *config.Config) (*Engine, error) {
	activeMu.Lock()
	defer activeMu.Unlock()

	if activeEngine != nil {
		return activeEngine, nil
	}

	eng, err := New(cfg)
	if err != nil {
		return nil, err
	}

	activeEngine = eng
	return eng, nil
}

// New creates an engine handle without touching the process-wide slot.
// Tests use this directly so each test owns an isolated in-memory engine.
func New(cfg *config.Config) (*Engine, error) {
	connStr := buildConnString(&cfg.Database)

	conn, err := sql.Open("duckdb", connStr)
	if err != nil {
		return nil, fmt.Errorf("failed to open engine database: %w", err)
	}

	eng := &Engine{
		conn:            conn,
		cfg:             cfg,
		httpfsAvailable: false,
		icuAvailable:    false,
	}

	eng.configureConnectionPool()

	if err := eng.initialize(); err != nil {
		closeQuietly(conn)
		return nil, fmt.Errorf("failed to initialize engine: %w", err)
	}

	return eng, nil
}

// buildConnString assembles the DuckDB connection string with tuning options.
// Auto-install/auto-load are disabled to prevent hangs in restricted network
// environments; extensions are loaded explicitly by installExtensions().
func buildConnString(cfg *config.DatabaseConfig) string {
	numThreads := cfg.Threads
	if numThreads <= 0 {
		numThreads = runtime.NumCPU()
	}

	preserveOrder := "true"
	if !cfg.PreserveInsertionOrder {
		preserveOrder = "false"
	}

	connStr := fmt.Sprintf("%s?access_mode=read_write&threads=%d&preserve_insertion_order=%s&autoinstall_known_extensions=false&autoload_known_extensions=false",
		cfg.Path, numThreads, preserveOrder)
	if cfg.MaxMemory != "" {
		connStr += "&max_memory=" + cfg.MaxMemory
	}
	return connStr
}

// configureConnectionPool tunes database/sql pooling. A single connection is
// enough for the sequential job graph and keeps catalog state trivially
// consistent; DuckDB parallelizes within a statement via its own threads.
func (e *Engine) configureConnectionPool() {
	e.conn.SetMaxOpenConns(1)
	e.conn.SetMaxIdleConns(1)
	e.conn.SetConnMaxLifetime(0)
}

// initialize loads extensions and applies the object-storage secret.
func (e *Engine) initialize() error {
	if err := e.installExtensions(); err != nil {
		return err
	}

	if e.cfg.HasRemotePaths() {
		if err := e.applyStorageSecret(); err != nil {
			return fmt.Errorf("failed to configure object-storage access: %w", err)
		}
	}

	return nil
}

// Close closes the engine connection and releases the process-wide slot if
// this handle holds it. Callers of Acquire normally never close; lifetime is
// the process. Tests using New call Close for cleanup.
func (e *Engine) Close() error {
	activeMu.Lock()
	if activeEngine == e {
		activeEngine = nil
	}
	activeMu.Unlock()

	if e.conn != nil {
		return e.conn.Close()
	}
	return nil
}

// Ping checks if the engine connection is alive.
func (e *Engine) Ping(ctx context.Context) error {
	if e.conn == nil {
		return fmt.Errorf("engine connection is nil")
	}
	return e.conn.PingContext(ctx)
}

// Conn returns the underlying SQL connection for packages that need direct
// access, such as test readback of written Parquet files.
func (e *Engine) Conn() *sql.DB {
	return e.conn
}

// Exec executes a statement that returns no rows.
func (e *Engine) Exec(ctx context.Context, query string, args ...interface{}) error {
	if _, err := e.conn.ExecContext(ctx, query, args...); err != nil {
		return fmt.Errorf("exec failed: %w", err)
	}
	return nil
}

// Count returns the row count of a relation in the engine catalog.
func (e *Engine) Count(ctx context.Context, relation string) (int64, error) {
	var n int64
	query := fmt.Sprintf("SELECT count(*) FROM %s", relation)
	if err := e.conn.QueryRowContext(ctx, query).Scan(&n); err != nil {
		return 0, fmt.Errorf("failed to count %s: %w", relation, err)
	}
	return n, nil
}

// Version returns the engine's version string (e.g. "v1.4.3").
func (e *Engine) Version(ctx context.Context) (string, error) {
	var version string
	if err := e.conn.QueryRowContext(ctx, "SELECT version()").Scan(&version); err != nil {
		return "", fmt.Errorf("failed to query engine version: %w", err)
	}
	return version, nil
}

// HTTPFSAvailable returns whether the httpfs extension is loaded.
func (e *Engine) HTTPFSAvailable() bool {
	return e.httpfsAvailable
}

// ICUAvailable returns whether the icu extension is loaded.
func (e *Engine) ICUAvailable() bool {
	return e.icuAvailable
}

// execWithHardTimeout executes a statement with a wall-clock timeout enforced
// outside the driver. CGO calls do not respect context cancellation, so a
// plain ExecContext can hang indefinitely on a stuck extension download.
func (e *Engine) execWithHardTimeout(query string) error {
	done := make(chan error, 1)
	go func() {
		_, err := e.conn.Exec(query)
		done <- err
	}()

	select {
	case err := <-done:
		return err
	case <-time.After(extensionTimeout):
		return fmt.Errorf("statement timed out after %s: %s", extensionTimeout, firstLine(query))
	}
}

// firstLine truncates a query for error messages.
func firstLine(query string) string {
	if i := strings.IndexByte(query, '\n'); i >= 0 {
		return query[:i]
	}
	return query
}

// closeQuietly closes a resource and explicitly ignores any error.
// Used in error paths where Close() errors are not actionable.
func closeQuietly(closer io.Closer) {
	if closer != nil {
		_ = closer.Close() // cleanup is best-effort
	}
}
