package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog"

	_ "modernc.org/sqlite" // Pure Go SQLite driver
)

// ErrClosed is returned by Acquire after Close.
var ErrClosed = errors.New("sqlite: connection manager closed")

// Options tunes the storage engine.
type Options struct {
	// CacheSizeKB is the page cache size; applied as a negative cache_size
	// so SQLite reads it as KiB rather than pages.
	CacheSizeKB int
	// BusyTimeout is how long a statement waits on a locked database.
	BusyTimeout time.Duration
}

// DefaultOptions returns the settings used when none are configured.
func DefaultOptions() Options {
	return Options{
		CacheSizeKB: 64000,
		BusyTimeout: 5 * time.Second,
	}
}

// Conn owns the single long-lived handle to the database file. The handle is
// a pool of one connection; Acquire probes it before use and transparently
// reopens it when the probe fails. Mutating transactions go through
// WithWriteTx, which holds a process-wide write lock for their duration.
type Conn struct {
	path string
	opts Options
	log  zerolog.Logger

	mu      sync.RWMutex // guards db, closed and reopens
	db      *sql.DB
	closed  bool
	reopens int

	writeMu sync.Mutex
}

// Open opens (or creates) the database at path. It does not create tables;
// call EnsureSchema and EnsureIndexes before using a repository.
func Open(path string, opts Options, log zerolog.Logger) (*Conn, error) {
	if opts.CacheSizeKB <= 0 {
		opts.CacheSizeKB = DefaultOptions().CacheSizeKB
	}
	if opts.BusyTimeout <= 0 {
		opts.BusyTimeout = DefaultOptions().BusyTimeout
	}

	c := &Conn{
		path: path,
		opts: opts,
		log:  log.With().Str("component", "sqlite").Logger(),
	}

	db, err := c.open()
	if err != nil {
		return nil, err
	}
	c.db = db

	c.log.Debug().Str("path", path).Msg("database opened")
	return c, nil
}

// dsn carries every pragma so the driver applies them to each new
// connection, including ones database/sql opens behind our back.
func (c *Conn) dsn() string {
	params := make([]string, 0, 6)
	for _, pragma := range c.storagePragmas() {
		params = append(params, "_pragma="+pragma)
	}
	return c.path + "?" + strings.Join(params, "&")
}

func (c *Conn) open() (*sql.DB, error) {
	db, err := sql.Open("sqlite", c.dsn())
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	// One connection: SQLite allows a single writer, and :memory: databases
	// exist per connection.
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	db.SetConnMaxLifetime(0)
	db.SetConnMaxIdleTime(0)

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}
	return db, nil
}

// storagePragmas trades some durability for throughput: NORMAL sync with
// WAL, temp tables in memory and an enlarged page cache.
func (c *Conn) storagePragmas() []string {
	return []string{
		fmt.Sprintf("busy_timeout(%d)", c.opts.BusyTimeout.Milliseconds()),
		"foreign_keys(1)",
		"journal_mode(WAL)",
		"synchronous(NORMAL)",
		"temp_store(MEMORY)",
		fmt.Sprintf("cache_size(-%d)", c.opts.CacheSizeKB),
	}
}

// probe is the liveness check run before every use of the handle.
func probe(ctx context.Context, db *sql.DB) error {
	var one int
	return db.QueryRowContext(ctx, "SELECT 1").Scan(&one)
}

// Acquire returns a live handle, reopening the database if the liveness
// probe fails.
func (c *Conn) Acquire(ctx context.Context) (*sql.DB, error) {
	c.mu.RLock()
	db, closed := c.db, c.closed
	c.mu.RUnlock()

	if closed {
		return nil, ErrClosed
	}
	if db != nil {
		err := probe(ctx, db)
		if err == nil {
			return db, nil
		}
		if ctxErr := ctx.Err(); ctxErr != nil {
			return nil, ctxErr
		}
		c.log.Warn().Err(err).Str("path", c.path).Msg("liveness probe failed, reopening database")
	}

	return c.reopen(ctx, db)
}

func (c *Conn) reopen(ctx context.Context, stale *sql.DB) (*sql.DB, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.closed {
		return nil, ErrClosed
	}

	// Another goroutine may have reopened while we waited for the lock
	if c.db != nil && c.db != stale {
		if err := probe(ctx, c.db); err == nil {
			return c.db, nil
		}
	}

	if c.db != nil {
		c.db.Close()
		c.db = nil
	}

	db, err := c.open()
	if err != nil {
		return nil, err
	}
	c.db = db
	c.reopens++
	c.log.Info().Str("path", c.path).Int("reopens", c.reopens).Msg("database reopened")
	return db, nil
}

// Reopens reports how many times the handle has been re-established.
func (c *Conn) Reopens() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.reopens
}

// withWriteLock runs fn on a live handle while holding the write lock.
func (c *Conn) withWriteLock(ctx context.Context, fn func(*sql.DB) error) error {
	c.writeMu.Lock()
	defer c.writeMu.Unlock()

	db, err := c.Acquire(ctx)
	if err != nil {
		return err
	}
	return fn(db)
}

// WithWriteTx executes fn within a transaction while holding the write lock.
// If fn returns an error or panics the transaction is rolled back, otherwise
// it is committed. fn must only use tx; calling Acquire from inside fn would
// wait on the connection fn itself holds.
func (c *Conn) WithWriteTx(ctx context.Context, fn func(*sql.Tx) error) error {
	return c.withWriteLock(ctx, func(db *sql.DB) error {
		tx, err := db.BeginTx(ctx, nil)
		if err != nil {
			return fmt.Errorf("failed to begin transaction: %w", err)
		}

		defer func() {
			if p := recover(); p != nil {
				tx.Rollback()
				panic(p)
			}
		}()

		if err := fn(tx); err != nil {
			if rbErr := tx.Rollback(); rbErr != nil {
				c.log.Error().Err(rbErr).AnErr("cause", err).Msg("failed to rollback transaction")
			}
			return err
		}

		if err := tx.Commit(); err != nil {
			return fmt.Errorf("failed to commit transaction: %w", err)
		}
		return nil
	})
}

// Close closes the database handle. Subsequent Acquire calls fail.
func (c *Conn) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.closed = true
	if c.db == nil {
		return nil
	}
	err := c.db.Close()
	c.db = nil
	return err
}
