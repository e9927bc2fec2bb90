// Package store tracks downloaded images and fetch bookkeeping in a local
// SQLite database so repeated fetch runs stay deduplicated and bounded.
package store

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite"
)

const schema = `
CREATE TABLE IF NOT EXISTS images (
	id INTEGER PRIMARY KEY,
	hash TEXT UNIQUE,
	filename TEXT,
	url TEXT,
	downloaded_at TIMESTAMP
);

CREATE INDEX IF NOT EXISTS idx_image_hash ON images(hash);

CREATE TABLE IF NOT EXISTS status (
	key TEXT PRIMARY KEY,
	value TIMESTAMP
);
`

// lastFetchKey is the status row holding the last successful fetch time.
const lastFetchKey = "last_successful_fetch"

// Image is one downloaded image as recorded in the database.
type Image struct {
	// Hash is the 40-hex content hash Discourse embeds in original
	// image URLs; it is the dedup key.
	Hash string

	// Filename is the name under the image directory.
	Filename string

	// URL is where the image was downloaded from.
	URL string

	// DownloadedAt is when the image was stored, in UTC.
	DownloadedAt time.Time
}

// Store is the image database plus the image directory it indexes.
type Store struct {
	db       *sql.DB
	imageDir string
}

// Open opens (creating if necessary) the database at path. imageDir is
// where RemoveOldest deletes files from.
func Open(path, imageDir string) (*Store, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return nil, fmt.Errorf("failed to create database directory; %w", err)
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open database %s; %w", path, err)
	}

	// SQLite prefers a single writer.
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)

	_, _ = db.Exec("PRAGMA journal_mode = WAL")
	_, _ = db.Exec("PRAGMA synchronous = NORMAL")

	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to initialize database schema; %w", err)
	}

	return &Store{db: db, imageDir: imageDir}, nil
}

// Close closes the database.
func (s *Store) Close() error {
	return s.db.Close()
}

// AddImage records a downloaded image.
func (s *Store) AddImage(ctx context.Context, img Image) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO images (hash, filename, url, downloaded_at) VALUES (?, ?, ?, ?)`,
		img.Hash, img.Filename, img.URL, img.DownloadedAt.UTC().Format(time.RFC3339))
	if err != nil {
		return fmt.Errorf("failed to record image %s; %w", img.Filename, err)
	}
	return nil
}

// IsDownloaded reports whether an image with the given hash is already
// stored.
func (s *Store) IsDownloaded(ctx context.Context, hash string) (bool, error) {
	var one int
	err := s.db.QueryRowContext(ctx, `SELECT 1 FROM images WHERE hash = ?`, hash).Scan(&one)
	if err == sql.ErrNoRows {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("failed to check image hash %s; %w", hash, err)
	}
	return true, nil
}

// Count returns the number of stored images.
func (s *Store) Count(ctx context.Context) (int, error) {
	var count int
	if err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM images`).Scan(&count); err != nil {
		return 0, fmt.Errorf("failed to count images; %w", err)
	}
	return count, nil
}

// RemoveOldest deletes the n oldest images from both the image directory
// and the database. A file already gone from disk is not an error.
func (s *Store) RemoveOldest(ctx context.Context, n int) error {
	if n <= 0 {
		return nil
	}

	rows, err := s.db.QueryContext(ctx,
		`SELECT filename FROM images ORDER BY downloaded_at ASC LIMIT ?`, n)
	if err != nil {
		return fmt.Errorf("failed to select oldest images; %w", err)
	}

	var filenames []string
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			rows.Close()
			return fmt.Errorf("failed to scan image row; %w", err)
		}
		filenames = append(filenames, name)
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return fmt.Errorf("failed to list oldest images; %w", err)
	}

	for _, name := range filenames {
		path := filepath.Join(s.imageDir, name)
		if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
			return fmt.Errorf("failed to remove image file %s; %w", path, err)
		}
		slog.Debug("removed image file", "file", path)
	}

	_, err = s.db.ExecContext(ctx,
		`DELETE FROM images WHERE id IN (
			SELECT id FROM images ORDER BY downloaded_at ASC LIMIT ?
		)`, n)
	if err != nil {
		return fmt.Errorf("failed to delete oldest image rows; %w", err)
	}

	slog.Info("removed oldest images", "count", len(filenames))
	return nil
}

// LastFetch returns the last successful fetch time. ok is false when no
// fetch has succeeded yet.
func (s *Store) LastFetch(ctx context.Context) (t time.Time, ok bool, err error) {
	var value string
	err = s.db.QueryRowContext(ctx,
		`SELECT value FROM status WHERE key = ?`, lastFetchKey).Scan(&value)
	if err == sql.ErrNoRows {
		return time.Time{}, false, nil
	}
	if err != nil {
		return time.Time{}, false, fmt.Errorf("failed to read last fetch time; %w", err)
	}

	t, err = time.Parse(time.RFC3339, value)
	if err != nil {
		return time.Time{}, false, fmt.Errorf("failed to parse last fetch time %q; %w", value, err)
	}
	return t, true, nil
}

// SetLastFetch records a successful fetch at the given time.
func (s *Store) SetLastFetch(ctx context.Context, t time.Time) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT OR REPLACE INTO status (key, value) VALUES (?, ?)`,
		lastFetchKey, t.UTC().Format(time.RFC3339))
	if err != nil {
		return fmt.Errorf("failed to update last fetch time; %w", err)
	}
	return nil
}
