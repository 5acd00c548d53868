package store

import (
	"context"
	"database/sql"
	"fmt"
)

// Schema holds the sub-images of every sample. Raw frames and derived
// mosaics share the table; is_mosaic tells them apart and seq gives the
// stable ingestion order.
const Schema = `
CREATE TABLE IF NOT EXISTS sample_images (
	seq        INTEGER PRIMARY KEY AUTOINCREMENT,
	id         TEXT NOT NULL UNIQUE,
	sample_id  TEXT NOT NULL,
	filename   TEXT NOT NULL,
	data       BLOB NOT NULL,
	is_mosaic  INTEGER NOT NULL DEFAULT 0,
	tag        TEXT NOT NULL DEFAULT '',
	created_at INTEGER NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_sample_images_sample ON sample_images(sample_id, is_mosaic, seq);
`

// ApplySchema creates the tables if they do not exist.
func ApplySchema(ctx context.Context, db *sql.DB) error {
	if _, err := db.ExecContext(ctx, Schema); err != nil {
		return fmt.Errorf("store: apply schema: %w", err)
	}
	return nil
}
