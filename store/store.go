// Package store persists harvest records in SQLite.
package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite" // SQLite driver

	"github.com/use-agent/harvester/crawler"
	"github.com/use-agent/harvester/models"
)

// ErrNotFound is returned by Get for an unknown record ID.
var ErrNotFound = errors.New("store: record not found")

// Store is a SQLite-backed record store. It is safe for concurrent use.
type Store struct {
	db   *sql.DB
	path string
}

// Open opens or creates the database at path, creating parent directories
// as needed.
func Open(path string) (*Store, error) {
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0o750); err != nil {
			return nil, fmt.Errorf("store: create directory: %w", err)
		}
	}

	db, err := sql.Open("sqlite", path+"?mode=rwc&_pragma=foreign_keys(1)")
	if err != nil {
		return nil, fmt.Errorf("store: open database: %w", err)
	}

	// SQLite has a single writer.
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	db.SetConnMaxLifetime(time.Hour)

	ctx := context.Background()
	if _, err := db.ExecContext(ctx, "PRAGMA journal_mode=WAL"); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("store: enable WAL: %w", err)
	}
	s := &Store{db: db, path: path}
	if err := s.createTables(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("store: create tables: %w", err)
	}
	return s, nil
}

// Close closes the database.
func (s *Store) Close() error {
	return s.db.Close()
}

// Path returns the database file path.
func (s *Store) Path() string {
	return s.path
}

// Ping checks that the database is reachable.
func (s *Store) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

func (s *Store) createTables(ctx context.Context) error {
	const schema = `
	CREATE TABLE IF NOT EXISTS records (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		seed_url TEXT NOT NULL,
		content TEXT NOT NULL,
		page_count INTEGER NOT NULL,
		size TEXT NOT NULL,
		bytes INTEGER NOT NULL,
		tokens INTEGER NOT NULL,
		created_at INTEGER NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_records_seed ON records(seed_url);
	CREATE INDEX IF NOT EXISTS idx_records_created ON records(created_at);

	CREATE TABLE IF NOT EXISTS pages (
		record_id INTEGER NOT NULL REFERENCES records(id) ON DELETE CASCADE,
		position INTEGER NOT NULL,
		url TEXT NOT NULL,
		title TEXT NOT NULL,
		depth INTEGER NOT NULL,
		PRIMARY KEY (record_id, position)
	);
	`
	_, err := s.db.ExecContext(ctx, schema)
	return err
}

// Save stores rec and its page list, returning the new record ID.
func (s *Store) Save(ctx context.Context, rec *crawler.Record) (int64, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("store: begin: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	res, err := tx.ExecContext(ctx, `
	INSERT INTO records (seed_url, content, page_count, size, bytes, tokens, created_at)
	VALUES (?, ?, ?, ?, ?, ?, ?)`,
		rec.SeedURL, rec.Content, rec.PageCount, rec.Size, rec.Bytes, rec.Tokens, time.Now().UnixMilli(),
	)
	if err != nil {
		return 0, fmt.Errorf("store: insert record: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("store: record id: %w", err)
	}

	for i, p := range rec.Pages {
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO pages (record_id, position, url, title, depth) VALUES (?, ?, ?, ?, ?)`,
			id, i, p.URL, p.Title, p.Depth,
		); err != nil {
			return 0, fmt.Errorf("store: insert page: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("store: commit: %w", err)
	}
	return id, nil
}

// Get returns the record with the given ID, including its content and page
// list. It returns ErrNotFound for an unknown ID.
func (s *Store) Get(ctx context.Context, id int64) (*models.StoredRecord, error) {
	var rec models.StoredRecord
	var created int64
	err := s.db.QueryRowContext(ctx, `
	SELECT id, seed_url, content, page_count, size, bytes, tokens, created_at
	FROM records WHERE id = ?`, id).Scan(
		&rec.ID, &rec.SeedURL, &rec.Content, &rec.PageCount, &rec.Size, &rec.Bytes, &rec.Tokens, &created,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("store: get record: %w", err)
	}
	rec.CreatedAt = time.UnixMilli(created).UTC()

	rows, err := s.db.QueryContext(ctx,
		`SELECT url, title, depth FROM pages WHERE record_id = ? ORDER BY position`, id)
	if err != nil {
		return nil, fmt.Errorf("store: get pages: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var p models.ScrapedPage
		if err := rows.Scan(&p.URL, &p.Title, &p.Depth); err != nil {
			return nil, fmt.Errorf("store: scan page: %w", err)
		}
		rec.Pages = append(rec.Pages, p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("store: iterate pages: %w", err)
	}
	return &rec, nil
}

// List returns record summaries, newest first, without content.
func (s *Store) List(ctx context.Context, limit, offset int) ([]models.StoredRecord, error) {
	if limit <= 0 {
		limit = 50
	}
	if offset < 0 {
		offset = 0
	}

	rows, err := s.db.QueryContext(ctx, `
	SELECT id, seed_url, page_count, size, bytes, tokens, created_at
	FROM records ORDER BY id DESC LIMIT ? OFFSET ?`, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("store: list records: %w", err)
	}
	defer rows.Close()

	out := []models.StoredRecord{}
	for rows.Next() {
		var rec models.StoredRecord
		var created int64
		if err := rows.Scan(&rec.ID, &rec.SeedURL, &rec.PageCount, &rec.Size, &rec.Bytes, &rec.Tokens, &created); err != nil {
			return nil, fmt.Errorf("store: scan record: %w", err)
		}
		rec.CreatedAt = time.UnixMilli(created).UTC()
		out = append(out, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("store: iterate records: %w", err)
	}
	return out, nil
}
