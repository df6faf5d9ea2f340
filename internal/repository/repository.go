// Package repository is the durable store for trades, orders, candle
// caches, and backtest summaries, backed by a single SQLite file.
// It uses a per-entity repository file layout and raw database/sql +
// hand-written SQL, with a single embedded migration and `?` placeholders.
package repository

import (
	"database/sql"
	"embed"
	"os"
	"path/filepath"

	_ "github.com/mattn/go-sqlite3"

	"tradebot/internal/boterr"
)

//go:embed migrations/*.sql
var migrationFS embed.FS

// Repository is the single-writer SQLite-backed store for every domain
// entity. All decimal values are stored as canonical decimal strings and all
// timestamps as RFC 3339 UTC strings; see trades.go/klines.go/backtest.go.
type Repository struct {
	db *sql.DB
}

// Open creates the parent directory for path if needed, opens (or creates)
// the SQLite file, and applies the embedded migration. A single connection
// is kept open: SQLite serializes writers itself, and a pool only adds
// "database is locked" contention under this single-writer assumption.
func Open(path string) (*Repository, error) {
	if dir := filepath.Dir(path); dir != "" && dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, boterr.Wrapf(boterr.IO, err, "create database directory %s", dir)
		}
	}

	db, err := sql.Open("sqlite3", path+"?_foreign_keys=on")
	if err != nil {
		return nil, boterr.Wrapf(boterr.Database, err, "open database %s", path)
	}
	db.SetMaxOpenConns(1)

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, boterr.Wrapf(boterr.Database, err, "ping database %s", path)
	}

	repo := &Repository{db: db}
	if err := repo.migrate(); err != nil {
		db.Close()
		return nil, err
	}
	return repo, nil
}

// NewWithDB wraps an already-open *sql.DB (e.g. a sqlmock connection in
// tests) without running migrations or touching the filesystem.
func NewWithDB(db *sql.DB) *Repository {
	return &Repository{db: db}
}

// Close releases the underlying database handle.
func (r *Repository) Close() error {
	return r.db.Close()
}

func (r *Repository) migrate() error {
	entries, err := migrationFS.ReadDir("migrations")
	if err != nil {
		return boterr.Wrap(boterr.Database, err, "read embedded migrations")
	}

	for _, entry := range entries {
		contents, err := migrationFS.ReadFile(filepath.Join("migrations", entry.Name()))
		if err != nil {
			return boterr.Wrapf(boterr.Database, err, "read migration %s", entry.Name())
		}
		if _, err := r.db.Exec(string(contents)); err != nil {
			return boterr.Wrapf(boterr.Database, err, "apply migration %s", entry.Name())
		}
	}
	return nil
}
