// Package store is the Sample Image Store: an SQLite table of the raw
// sub-images captured for each sample and of the mosaics derived from them.
package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	_ "modernc.org/sqlite"
)

// ErrNotFound is returned when a frame id does not exist.
var ErrNotFound = errors.New("store: frame not found")

// Frame is one stored sub-image.
type Frame struct {
	Seq       int64
	ID        string
	SampleID  string
	Filename  string
	Data      []byte
	IsMosaic  bool
	Tag       string
	CreatedAt time.Time
}

// Store wraps the database holding sample images.
type Store struct {
	DB  *sql.DB
	now func() time.Time
}

// Open opens (creating if needed) the SQLite database at path, applies the
// pragmas and the schema.
func Open(ctx context.Context, path string) (*Store, error) {
	if path != ":memory:" {
		if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
			return nil, fmt.Errorf("store: mkdir: %w", err)
		}
	}
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("store: open: %w", err)
	}
	if path == ":memory:" {
		// Every connection to ":memory:" is a separate database.
		db.SetMaxOpenConns(1)
	}
	for _, p := range []string{
		"PRAGMA foreign_keys = ON",
		"PRAGMA journal_mode = WAL",
		"PRAGMA busy_timeout = 10000",
		"PRAGMA synchronous = NORMAL",
	} {
		if _, err := db.ExecContext(ctx, p); err != nil {
			db.Close()
			return nil, fmt.Errorf("store: %s: %w", p, err)
		}
	}
	s, err := New(ctx, db)
	if err != nil {
		db.Close()
		return nil, err
	}
	return s, nil
}

// New wraps an already-opened database and applies the schema.
func New(ctx context.Context, db *sql.DB) (*Store, error) {
	if err := ApplySchema(ctx, db); err != nil {
		return nil, err
	}
	return &Store{DB: db, now: time.Now}, nil
}

// Close closes the underlying database.
func (s *Store) Close() error {
	return s.DB.Close()
}

func newID() string {
	return uuid.Must(uuid.NewV7()).String()
}
