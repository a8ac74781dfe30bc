// Package sqlite implements the repository interfaces on SQLite.
//
// WHY modernc.org/sqlite?
// It is a pure Go translation of SQLite, so the binary builds without a C
// toolchain and ":memory:" databases make tests fast and isolated.
//
// ONE CONNECTION:
// The pool is capped at a single open connection. SQLite allows one writer
// at a time anyway, and with one connection every transaction (bid
// placement in particular) runs strictly after the previous one. That is
// what keeps "read the current price, then insert a higher bid" atomic when
// two people bid at once. It also means an in-memory database is shared by
// every query instead of each pooled connection getting its own empty one.
//
// The flip side: code in this package must never start a second query
// while *sql.Rows or a *sql.Tx is still open on the connection, or it
// will wait forever for a connection that never frees up.
package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	moderncsqlite "modernc.org/sqlite"
	sqlite3 "modernc.org/sqlite/lib"
)

// DB wraps the sql.DB pool and implements every repository interface.
type DB struct {
	conn *sql.DB
}

// New opens (or creates) the database at dbPath and runs migrations.
//
// dbPath examples:
//   - "data/auctions.db" → file-based, persistent
//   - ":memory:"         → in-memory, gone on Close (tests)
func New(dbPath string) (*DB, error) {
	conn, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("sqlite: opening database: %w", err)
	}
	conn.SetMaxOpenConns(1)

	if err := conn.Ping(); err != nil {
		conn.Close()
		return nil, fmt.Errorf("sqlite: pinging database: %w", err)
	}

	// Inside this process the single connection serializes every statement.
	// WAL is for other connections to the same file (a backup, the sqlite3
	// shell), which can keep reading while this process writes.
	if _, err := conn.Exec("PRAGMA journal_mode=WAL"); err != nil {
		conn.Close()
		return nil, fmt.Errorf("sqlite: setting WAL mode: %w", err)
	}

	// Foreign keys are off by default in SQLite; the cascades below need them.
	if _, err := conn.Exec("PRAGMA foreign_keys=ON"); err != nil {
		conn.Close()
		return nil, fmt.Errorf("sqlite: enabling foreign keys: %w", err)
	}

	db := &DB{conn: conn}
	if err := db.migrate(); err != nil {
		conn.Close()
		return nil, fmt.Errorf("sqlite: running migrations: %w", err)
	}

	return db, nil
}

// Close closes the connection pool.
func (db *DB) Close() error {
	return db.conn.Close()
}

// migrate creates the schema. Every statement is idempotent.
//
// Prices are TEXT: decimal.Decimal writes its exact string form and reads
// it back unchanged. A NUMERIC column would let SQLite coerce "10.10" into
// a float. Comparisons on prices therefore happen in Go, never in SQL.
//
// Bid and comment order is insertion order, read from SQLite's implicit
// rowid, so two rows created in the same clock tick still sort correctly.
func (db *DB) migrate() error {
	_, err := db.conn.Exec(`
		CREATE TABLE IF NOT EXISTS users (
			id            TEXT PRIMARY KEY,
			username      TEXT NOT NULL UNIQUE,
			email         TEXT UNIQUE,
			first_name    TEXT NOT NULL DEFAULT '',
			last_name     TEXT NOT NULL DEFAULT '',
			password_hash TEXT NOT NULL DEFAULT '',
			github_id     INTEGER UNIQUE,
			avatar_url    TEXT NOT NULL DEFAULT '',
			created_at    DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
			updated_at    DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
		);
	`)
	if err != nil {
		return fmt.Errorf("creating users table: %w", err)
	}

	_, err = db.conn.Exec(`
		CREATE TABLE IF NOT EXISTS listings (
			id             TEXT PRIMARY KEY,
			owner_id       TEXT NOT NULL REFERENCES users(id) ON DELETE CASCADE,
			title          TEXT NOT NULL,
			description    TEXT NOT NULL DEFAULT '',
			image_url      TEXT NOT NULL DEFAULT '',
			starting_price TEXT NOT NULL,
			category       TEXT NOT NULL DEFAULT 'OTH',
			active         INTEGER NOT NULL DEFAULT 1,
			winner_id      TEXT REFERENCES users(id) ON DELETE CASCADE,
			created_at     DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
		);
		CREATE INDEX IF NOT EXISTS idx_listings_active_category ON listings(active, category);
		CREATE INDEX IF NOT EXISTS idx_listings_owner_id ON listings(owner_id);
	`)
	if err != nil {
		return fmt.Errorf("creating listings table: %w", err)
	}

	_, err = db.conn.Exec(`
		CREATE TABLE IF NOT EXISTS bids (
			id         TEXT PRIMARY KEY,
			listing_id TEXT NOT NULL REFERENCES listings(id) ON DELETE CASCADE,
			user_id    TEXT NOT NULL REFERENCES users(id) ON DELETE CASCADE,
			price      TEXT NOT NULL,
			created_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
		);
		CREATE INDEX IF NOT EXISTS idx_bids_listing_id ON bids(listing_id);
	`)
	if err != nil {
		return fmt.Errorf("creating bids table: %w", err)
	}

	_, err = db.conn.Exec(`
		CREATE TABLE IF NOT EXISTS comments (
			id         TEXT PRIMARY KEY,
			listing_id TEXT NOT NULL REFERENCES listings(id) ON DELETE CASCADE,
			user_id    TEXT NOT NULL REFERENCES users(id) ON DELETE CASCADE,
			text       TEXT NOT NULL,
			created_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
		);
		CREATE INDEX IF NOT EXISTS idx_comments_listing_id ON comments(listing_id);
	`)
	if err != nil {
		return fmt.Errorf("creating comments table: %w", err)
	}

	// The UNIQUE pair is what makes the watchlist toggle a single upsert.
	_, err = db.conn.Exec(`
		CREATE TABLE IF NOT EXISTS watchlist (
			id         TEXT PRIMARY KEY,
			user_id    TEXT NOT NULL REFERENCES users(id) ON DELETE CASCADE,
			listing_id TEXT NOT NULL REFERENCES listings(id) ON DELETE CASCADE,
			active     INTEGER NOT NULL,
			UNIQUE (user_id, listing_id)
		);
	`)
	if err != nil {
		return fmt.Errorf("creating watchlist table: %w", err)
	}

	return nil
}

// inTx runs fn inside a transaction, committing on nil and rolling back
// on error. fn must only use tx, never db.conn.
func (db *DB) inTx(ctx context.Context, fn func(tx *sql.Tx) error) error {
	tx, err := db.conn.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("sqlite: beginning transaction: %w", err)
	}
	if err := fn(tx); err != nil {
		tx.Rollback()
		return err
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("sqlite: committing transaction: %w", err)
	}
	return nil
}

// isUniqueViolation reports whether err is a UNIQUE constraint failure.
func isUniqueViolation(err error) bool {
	var sqlErr *moderncsqlite.Error
	if errors.As(err, &sqlErr) {
		return sqlErr.Code() == sqlite3.SQLITE_CONSTRAINT_UNIQUE
	}
	return false
}

// scanner is satisfied by both *sql.Row and *sql.Rows.
type scanner interface {
	Scan(dest ...any) error
}

// queryer is the part of *sql.DB and *sql.Tx the scan helpers need.
type queryer interface {
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
}

func nullString(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}

func stringPtr(ns sql.NullString) *string {
	if !ns.Valid {
		return nil
	}
	s := ns.String
	return &s
}
