package storage

import (
	"database/sql"
	"embed"
	"fmt"
	"io/fs"
	"regexp"
	"sort"
	"strconv"
	"strings"
	"time"
)

//go:embed migrations/*.sql
var embeddedMigrations embed.FS

var migrationFilename = regexp.MustCompile(`^(\d+)_(.+)\.sql$`)

// Migration represents a database migration
type Migration struct {
	ID        int       `json:"id"`
	Name      string    `json:"name"`
	UpSQL     string    `json:"-"`
	DownSQL   string    `json:"-"`
	AppliedAt time.Time `json:"applied_at"`
	Filename  string    `json:"filename"`
}

// MigrationStatus reports whether a known migration has been applied.
type MigrationStatus struct {
	Migration
	Applied bool `json:"applied"`
}

// Migrator handles database migrations
type Migrator struct {
	db     *DB
	source fs.FS
}

// NewMigrator creates a migrator over the migrations compiled into the binary.
func NewMigrator(db *DB) *Migrator {
	sub, err := fs.Sub(embeddedMigrations, "migrations")
	if err != nil {
		panic(fmt.Sprintf("embedded migrations: %v", err))
	}
	return NewMigratorFS(db, sub)
}

// NewMigratorFS creates a migrator reading *.sql files from the root of source.
func NewMigratorFS(db *DB, source fs.FS) *Migrator {
	return &Migrator{
		db:     db,
		source: source,
	}
}

// Init creates the migrations tracking table
func (m *Migrator) Init() error {
	createTableSQL := `
	CREATE TABLE IF NOT EXISTS migrations (
		id INTEGER PRIMARY KEY NOT NULL,
		name TEXT NOT NULL,
		applied_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
		filename TEXT NOT NULL,

		UNIQUE(name),
		UNIQUE(filename)
	)`

	if _, err := m.db.Exec(createTableSQL); err != nil {
		return fmt.Errorf("failed to create migrations table: %w", err)
	}

	return nil
}

// Up runs all pending migrations and returns the ones it applied.
func (m *Migrator) Up() ([]Migration, error) {
	if err := m.Init(); err != nil {
		return nil, err
	}

	migrations, err := m.loadMigrationFiles()
	if err != nil {
		return nil, err
	}

	appliedMigrations, err := m.getAppliedMigrations()
	if err != nil {
		return nil, err
	}

	appliedMap := make(map[int]bool)
	for _, applied := range appliedMigrations {
		appliedMap[applied.ID] = true
	}

	var applied []Migration
	for _, migration := range migrations {
		if appliedMap[migration.ID] {
			continue
		}
		if err := m.applyMigration(migration); err != nil {
			return applied, fmt.Errorf("failed to apply migration %03d_%s: %w", migration.ID, migration.Name, err)
		}
		applied = append(applied, migration)
	}

	return applied, nil
}

// Down rolls back the last applied migration and returns it.
func (m *Migrator) Down() (*Migration, error) {
	if err := m.Init(); err != nil {
		return nil, err
	}

	appliedMigrations, err := m.getAppliedMigrations()
	if err != nil {
		return nil, err
	}

	if len(appliedMigrations) == 0 {
		return nil, fmt.Errorf("no migrations to rollback")
	}

	last := appliedMigrations[len(appliedMigrations)-1]

	migration, err := m.loadMigrationFile(last.Filename)
	if err != nil {
		return nil, fmt.Errorf("failed to load migration file for rollback: %w", err)
	}

	if migration.DownSQL == "" {
		return nil, fmt.Errorf("migration %03d_%s has no down migration", last.ID, last.Name)
	}

	if err := m.rollbackMigration(migration); err != nil {
		return nil, fmt.Errorf("failed to rollback migration %03d_%s: %w", last.ID, last.Name, err)
	}

	return &migration, nil
}

// Status lists every known migration in order with its applied state.
func (m *Migrator) Status() ([]MigrationStatus, error) {
	if err := m.Init(); err != nil {
		return nil, err
	}

	migrations, err := m.loadMigrationFiles()
	if err != nil {
		return nil, err
	}

	appliedMigrations, err := m.getAppliedMigrations()
	if err != nil {
		return nil, err
	}

	appliedMap := make(map[int]Migration)
	for _, applied := range appliedMigrations {
		appliedMap[applied.ID] = applied
	}

	statuses := make([]MigrationStatus, 0, len(migrations))
	for _, migration := range migrations {
		status := MigrationStatus{Migration: migration}
		if applied, ok := appliedMap[migration.ID]; ok {
			status.Applied = true
			status.AppliedAt = applied.AppliedAt
		}
		statuses = append(statuses, status)
	}

	return statuses, nil
}

func (m *Migrator) applyMigration(migration Migration) error {
	return m.inTx(func(tx *sql.Tx) error {
		if _, err := tx.Exec(migration.UpSQL); err != nil {
			return fmt.Errorf("failed to execute migration SQL: %w", err)
		}

		insertSQL := `INSERT INTO migrations (id, name, filename, applied_at) VALUES (?, ?, ?, ?)`
		if _, err := tx.Exec(insertSQL, migration.ID, migration.Name, migration.Filename, time.Now().UTC()); err != nil {
			return fmt.Errorf("failed to record migration: %w", err)
		}
		return nil
	})
}

func (m *Migrator) rollbackMigration(migration Migration) error {
	return m.inTx(func(tx *sql.Tx) error {
		if _, err := tx.Exec(migration.DownSQL); err != nil {
			return fmt.Errorf("failed to execute down migration SQL: %w", err)
		}

		if _, err := tx.Exec(`DELETE FROM migrations WHERE id = ?`, migration.ID); err != nil {
			return fmt.Errorf("failed to remove migration record: %w", err)
		}
		return nil
	})
}

func (m *Migrator) inTx(fn func(tx *sql.Tx) error) error {
	tx, err := m.db.Begin()
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	if err := fn(tx); err != nil {
		return err
	}
	return tx.Commit()
}

func (m *Migrator) loadMigrationFiles() ([]Migration, error) {
	entries, err := fs.ReadDir(m.source, ".")
	if err != nil {
		return nil, fmt.Errorf("failed to read migrations: %w", err)
	}

	var migrations []Migration
	for _, entry := range entries {
		if entry.IsDir() || !strings.HasSuffix(entry.Name(), ".sql") {
			continue
		}

		migration, err := m.loadMigrationFile(entry.Name())
		if err != nil {
			return nil, fmt.Errorf("failed to load migration file %s: %w", entry.Name(), err)
		}
		migrations = append(migrations, migration)
	}

	sort.Slice(migrations, func(i, j int) bool {
		return migrations[i].ID < migrations[j].ID
	})

	return migrations, nil
}

// loadMigrationFile parses a file named like 001_initial_schema.sql.
func (m *Migrator) loadMigrationFile(filename string) (Migration, error) {
	matches := migrationFilename.FindStringSubmatch(filename)
	if len(matches) != 3 {
		return Migration{}, fmt.Errorf("invalid migration filename format: %s", filename)
	}

	id, err := strconv.Atoi(matches[1])
	if err != nil {
		return Migration{}, fmt.Errorf("invalid migration ID in filename: %s", filename)
	}

	content, err := fs.ReadFile(m.source, filename)
	if err != nil {
		return Migration{}, fmt.Errorf("failed to read migration file: %w", err)
	}

	upSQL, downSQL := parseMigrationContent(string(content))

	return Migration{
		ID:       id,
		Name:     strings.ReplaceAll(matches[2], "_", " "),
		UpSQL:    upSQL,
		DownSQL:  downSQL,
		Filename: filename,
	}, nil
}

// parseMigrationContent splits a file on its -- +migrate up/down markers.
// Everything before a down marker is up SQL.
func parseMigrationContent(content string) (upSQL, downSQL string) {
	var upLines, downLines []string
	inDownSection := false

	for _, line := range strings.Split(content, "\n") {
		trimmed := strings.TrimSpace(line)

		switch {
		case strings.HasPrefix(trimmed, "-- +migrate down"):
			inDownSection = true
			continue
		case strings.HasPrefix(trimmed, "-- +migrate up"):
			inDownSection = false
			continue
		}

		if inDownSection {
			downLines = append(downLines, line)
		} else {
			upLines = append(upLines, line)
		}
	}

	return strings.TrimSpace(strings.Join(upLines, "\n")), strings.TrimSpace(strings.Join(downLines, "\n"))
}

func (m *Migrator) getAppliedMigrations() ([]Migration, error) {
	rows, err := m.db.Query(`SELECT id, name, applied_at, filename FROM migrations ORDER BY id`)
	if err != nil {
		return nil, fmt.Errorf("failed to query applied migrations: %w", err)
	}
	defer rows.Close()

	var migrations []Migration
	for rows.Next() {
		var migration Migration
		if err := rows.Scan(&migration.ID, &migration.Name, &migration.AppliedAt, &migration.Filename); err != nil {
			return nil, fmt.Errorf("failed to scan migration row: %w", err)
		}
		migrations = append(migrations, migration)
	}

	return migrations, rows.Err()
}
