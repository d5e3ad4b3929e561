package storage

import (
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/mattn/go-sqlite3"
)

var (
	// ErrNotFound is wrapped by every repository lookup that matches no row.
	ErrNotFound = errors.New("not found")
	// ErrConflict is wrapped when a write collides with an existing key.
	ErrConflict = errors.New("already exists")
	// ErrInvalidReference is wrapped when a write names a row that does not exist.
	ErrInvalidReference = errors.New("invalid reference")
)

// constraintError tags sqlite constraint failures with ErrConflict or
// ErrInvalidReference. Other errors are returned unchanged.
func constraintError(err error) error {
	var sqliteErr sqlite3.Error
	if !errors.As(err, &sqliteErr) || sqliteErr.Code != sqlite3.ErrConstraint {
		return err
	}
	switch sqliteErr.ExtendedCode {
	case sqlite3.ErrConstraintForeignKey:
		return fmt.Errorf("%w: %w", ErrInvalidReference, err)
	case sqlite3.ErrConstraintPrimaryKey, sqlite3.ErrConstraintUnique:
		return fmt.Errorf("%w: %w", ErrConflict, err)
	}
	return err
}

// DB wraps the database connection with additional functionality
type DB struct {
	*sql.DB
	path string
}

// Config holds database configuration
type Config struct {
	Path     string
	InMemory bool
}

// NewDB opens the database. File databases run in WAL mode; in-memory
// databases are pinned to one connection since each sqlite connection would
// otherwise see its own empty database.
func NewDB(config Config) (*DB, error) {
	var dsn string
	var dbPath string

	if config.InMemory {
		dsn = ":memory:?_foreign_keys=on"
		dbPath = ":memory:"
	} else {
		if config.Path == "" {
			return nil, fmt.Errorf("database path cannot be empty for file-based database")
		}

		dir := filepath.Dir(config.Path)
		if err := os.MkdirAll(dir, 0755); err != nil {
			return nil, fmt.Errorf("failed to create database directory: %w", err)
		}

		dsn = fmt.Sprintf("%s?_journal_mode=WAL&_foreign_keys=on&_busy_timeout=5000", config.Path)
		dbPath = config.Path
	}

	sqlDB, err := sql.Open("sqlite3", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	if config.InMemory {
		sqlDB.SetMaxOpenConns(1)
		sqlDB.SetMaxIdleConns(1)
	} else {
		sqlDB.SetMaxOpenConns(20)
		sqlDB.SetMaxIdleConns(5)
	}

	if err := sqlDB.Ping(); err != nil {
		sqlDB.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	db := &DB{
		DB:   sqlDB,
		path: dbPath,
	}

	if !config.InMemory {
		if err := db.verifyWALMode(); err != nil {
			sqlDB.Close()
			return nil, fmt.Errorf("failed to verify WAL mode: %w", err)
		}
	}

	return db, nil
}

// Open opens the database and applies every pending migration.
func Open(config Config) (*DB, error) {
	db, err := NewDB(config)
	if err != nil {
		return nil, err
	}
	if _, err := NewMigrator(db).Up(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to migrate database: %w", err)
	}
	return db, nil
}

func (db *DB) verifyWALMode() error {
	var journalMode string
	err := db.QueryRow("PRAGMA journal_mode").Scan(&journalMode)
	if err != nil {
		return fmt.Errorf("failed to check journal mode: %w", err)
	}

	if journalMode != "wal" {
		return fmt.Errorf("WAL mode not enabled, current mode: %s", journalMode)
	}

	var foreignKeys int
	err = db.QueryRow("PRAGMA foreign_keys").Scan(&foreignKeys)
	if err != nil {
		return fmt.Errorf("failed to check foreign keys: %w", err)
	}

	if foreignKeys != 1 {
		return fmt.Errorf("foreign keys not enabled")
	}

	return nil
}

// Path returns the database file path
func (db *DB) Path() string {
	return db.path
}

// Health checks the database connection health
func (db *DB) Health() error {
	if err := db.Ping(); err != nil {
		return fmt.Errorf("database ping failed: %w", err)
	}

	var result int
	if err := db.QueryRow("SELECT 1").Scan(&result); err != nil {
		return fmt.Errorf("test query failed: %w", err)
	}

	if result != 1 {
		return fmt.Errorf("unexpected test query result: %d", result)
	}

	return nil
}

// GetVersion returns the SQLite version
func (db *DB) GetVersion() (string, error) {
	var version string
	err := db.QueryRow("SELECT sqlite_version()").Scan(&version)
	if err != nil {
		return "", fmt.Errorf("failed to get SQLite version: %w", err)
	}
	return version, nil
}

type DBStats struct {
	MaxOpenConnections int `json:"max_open_connections"`
	OpenConnections    int `json:"open_connections"`
	InUse              int `json:"in_use"`
	Idle               int `json:"idle"`
}

func (db *DB) GetStats() DBStats {
	stats := db.DB.Stats()
	return DBStats{
		MaxOpenConnections: stats.MaxOpenConnections,
		OpenConnections:    stats.OpenConnections,
		InUse:              stats.InUse,
		Idle:               stats.Idle,
	}
}
