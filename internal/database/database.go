// Package database is the sqlite-backed relational store for properties,
// room types, booking groups and payment proofs.
package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	_ "github.com/mattn/go-sqlite3" // sqlite3 driver
	"github.com/rs/zerolog"
)

// DB wraps the sql connection pool.
type DB struct {
	*sql.DB
	path   string
	logger *zerolog.Logger
}

var (
	// ErrNotFound is returned when the requested record does not exist.
	ErrNotFound = errors.New("record not found")
	// ErrNotPending is returned when a status change targets a group that is
	// no longer pending.
	ErrNotPending = errors.New("booking group is not pending")
	// ErrConflict is returned when an atomic group write could not be applied
	// in full. The transaction is rolled back; callers may retry.
	ErrConflict = errors.New("conflicting concurrent modification")
)

// NewDB opens (creating if needed) the sqlite database at path.
func NewDB(path string, logger *zerolog.Logger) (*DB, error) {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create database directory: %w", err)
	}

	// WAL mode with a busy timeout so concurrent create/approve transactions
	// queue instead of failing immediately.
	dsn := path + "?_journal_mode=WAL&_synchronous=NORMAL&_busy_timeout=5000&_foreign_keys=on"
	db, err := sql.Open("sqlite3", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	db.SetMaxOpenConns(10)
	db.SetMaxIdleConns(5)
	db.SetConnMaxLifetime(time.Hour)

	if err := db.Ping(); err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	instance := &DB{DB: db, path: path, logger: logger}
	if err := instance.createTables(); err != nil {
		return nil, fmt.Errorf("failed to create tables: %w", err)
	}

	logger.Info().Str("path", path).Msg("database initialized")
	return instance, nil
}

// Path returns the on-disk location of the database file.
func (db *DB) Path() string {
	return db.path
}

func (db *DB) createTables() error {
	queries := []string{
		`CREATE TABLE IF NOT EXISTS properties (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			name TEXT NOT NULL,
			city TEXT NOT NULL DEFAULT '',
			street TEXT NOT NULL DEFAULT '',
			is_active BOOLEAN NOT NULL DEFAULT 1,
			created_at DATETIME DEFAULT CURRENT_TIMESTAMP,
			updated_at DATETIME DEFAULT CURRENT_TIMESTAMP
		)`,
		`CREATE TABLE IF NOT EXISTS room_types (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			property_id INTEGER NOT NULL,
			name TEXT NOT NULL,
			total_units INTEGER NOT NULL DEFAULT 1 CHECK (total_units >= 1),
			max_occupants INTEGER NOT NULL DEFAULT 1 CHECK (max_occupants >= 1),
			price_per_guest INTEGER NOT NULL DEFAULT 0 CHECK (price_per_guest >= 0),
			description TEXT NOT NULL DEFAULT '',
			is_active BOOLEAN NOT NULL DEFAULT 1,
			created_at DATETIME DEFAULT CURRENT_TIMESTAMP,
			updated_at DATETIME DEFAULT CURRENT_TIMESTAMP,
			FOREIGN KEY (property_id) REFERENCES properties(id)
		)`,
		`CREATE TABLE IF NOT EXISTS bookings (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			group_id TEXT NOT NULL,
			requester_id INTEGER NOT NULL,
			property_id INTEGER NOT NULL,
			room_type_id INTEGER NOT NULL,
			check_in_date TEXT NOT NULL,
			check_out_date TEXT NOT NULL,
			check_in_time TEXT NOT NULL,
			units INTEGER NOT NULL CHECK (units >= 1),
			guests INTEGER NOT NULL CHECK (guests >= 0),
			purpose TEXT NOT NULL DEFAULT '',
			status TEXT NOT NULL DEFAULT 'pending',
			reject_reason TEXT NOT NULL DEFAULT '',
			decided_by INTEGER,
			decided_at DATETIME,
			created_at DATETIME DEFAULT CURRENT_TIMESTAMP,
			updated_at DATETIME DEFAULT CURRENT_TIMESTAMP,
			version INTEGER NOT NULL DEFAULT 1,
			FOREIGN KEY (property_id) REFERENCES properties(id),
			FOREIGN KEY (room_type_id) REFERENCES room_types(id)
		)`,
		`CREATE TABLE IF NOT EXISTS payment_proofs (
			id TEXT PRIMARY KEY,
			group_id TEXT NOT NULL,
			amount INTEGER NOT NULL DEFAULT 0,
			method TEXT NOT NULL DEFAULT '',
			file_ref TEXT NOT NULL,
			uploaded_at DATETIME DEFAULT CURRENT_TIMESTAMP
		)`,
		`CREATE TABLE IF NOT EXISTS audit_log (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			group_id TEXT NOT NULL,
			actor_id INTEGER NOT NULL,
			action TEXT NOT NULL,
			detail TEXT NOT NULL DEFAULT '',
			created_at DATETIME DEFAULT CURRENT_TIMESTAMP
		)`,

		`CREATE INDEX IF NOT EXISTS idx_room_types_property ON room_types(property_id, is_active)`,
		`CREATE INDEX IF NOT EXISTS idx_bookings_group ON bookings(group_id)`,
		`CREATE INDEX IF NOT EXISTS idx_bookings_property_status ON bookings(property_id, status)`,
		`CREATE INDEX IF NOT EXISTS idx_bookings_check_in ON bookings(check_in_date)`,
		`CREATE INDEX IF NOT EXISTS idx_payment_proofs_group ON payment_proofs(group_id, uploaded_at)`,
		`CREATE INDEX IF NOT EXISTS idx_audit_log_group ON audit_log(group_id)`,
	}

	for _, query := range queries {
		if _, err := db.Exec(query); err != nil {
			return fmt.Errorf("error executing query %s: %w", query, err)
		}
	}

	return db.ensureNewColumns()
}

// ensureNewColumns applies additive migrations to databases created by older
// builds. Duplicate-column errors mean the column already exists.
func (db *DB) ensureNewColumns() error {
	migrations := []string{
		`ALTER TABLE bookings ADD COLUMN version INTEGER NOT NULL DEFAULT 1`,
		`ALTER TABLE payment_proofs ADD COLUMN method TEXT NOT NULL DEFAULT ''`,
	}

	for _, m := range migrations {
		_, err := db.Exec(m)
		if err != nil && !strings.Contains(strings.ToLower(err.Error()), "duplicate column") {
			if db.logger != nil {
				db.logger.Debug().Err(err).Str("migration", m).Msg("migration skipped")
			}
		}
	}
	return nil
}

func (db *DB) Close() error {
	return db.DB.Close()
}

// withTx runs fn inside a transaction, committing on nil and rolling back on
// error or panic.
func (db *DB) withTx(ctx context.Context, fn func(tx *sql.Tx) error) error {
	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer func() {
		if p := recover(); p != nil {
			_ = tx.Rollback()
			panic(p)
		}
	}()

	if err := fn(tx); err != nil {
		_ = tx.Rollback()
		return err
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit transaction: %w", err)
	}
	return nil
}
