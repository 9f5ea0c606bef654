package database

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"

	_ "github.com/mattn/go-sqlite3"
)

type Database struct {
	db *sql.DB
}

// DB returns the underlying *sql.DB instance
func (d *Database) DB() *sql.DB {
	return d.db
}

// New opens (creating if needed) the SQLite database at path and migrates it.
//
// Transactions are opened with BEGIN IMMEDIATE over a single connection, so every
// unit of work holds the write lock from its first statement. Read-modify-write
// sequences such as preference accounting and owner counting cannot interleave.
func New(path string) (*Database, error) {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create database directory: %w", err)
	}

	dsn := fmt.Sprintf("file:%s?_foreign_keys=on&_txlock=immediate&_busy_timeout=5000", path)
	db, err := sql.Open("sqlite3", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	// SQLite works best with a single connection
	db.SetMaxOpenConns(1)
	dbInstance := &Database{db: db}

	if _, err := db.Exec("PRAGMA foreign_keys = ON;"); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to enable foreign keys: %w", err)
	}

	if err := dbInstance.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to migrate database: %w", err)
	}

	return dbInstance, nil
}

// Close closes the database connection
func (d *Database) Close() error {
	if d.db != nil {
		return d.db.Close()
	}
	return nil
}

// Ping checks that the database is reachable.
func (d *Database) Ping(ctx context.Context) error {
	return d.db.PingContext(ctx)
}

// migrate runs the database migrations
func (d *Database) migrate() error {
	tx, err := d.db.Begin()
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.Exec(`
		CREATE TABLE IF NOT EXISTS _migrations (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			name TEXT NOT NULL UNIQUE,
			run_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP
		);
	`); err != nil {
		return fmt.Errorf("failed to create migrations table: %w", err)
	}

	for _, m := range getMigrations() {
		var count int
		if err := tx.QueryRow(
			`SELECT COUNT(*) FROM _migrations WHERE name = ?`,
			m.name,
		).Scan(&count); err != nil {
			return fmt.Errorf("failed to check migration status: %w", err)
		}
		if count > 0 {
			continue
		}

		if _, err := tx.Exec(m.statement); err != nil {
			return fmt.Errorf("failed to run migration %s: %w", m.name, err)
		}
		if _, err := tx.Exec(`INSERT INTO _migrations (name) VALUES (?)`, m.name); err != nil {
			return fmt.Errorf("failed to record migration %s: %w", m.name, err)
		}
	}

	return tx.Commit()
}
