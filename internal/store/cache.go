// Package store provides a SQLite-backed cache of parsed export files.
package store

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite" // register sqlite driver
)

// Cache stores the raw records parsed from each input file, keyed by path
// and invalidated by mtime and size.
type Cache struct {
	db *sql.DB
}

// Open opens or creates the cache database at the given path.
func Open(dbPath string) (*Cache, error) {
	dir := filepath.Dir(dbPath)
	if err := os.MkdirAll(dir, 0o750); err != nil {
		return nil, fmt.Errorf("creating cache dir: %w", err)
	}

	db, err := sql.Open("sqlite", dbPath+"?_pragma=journal_mode(wal)&_pragma=synchronous(normal)&_pragma=foreign_keys(on)")
	if err != nil {
		return nil, fmt.Errorf("opening cache db: %w", err)
	}

	if _, err := db.Exec(schemaSQL); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("creating schema: %w", err)
	}

	return &Cache{db: db}, nil
}

// Close closes the cache database.
func (c *Cache) Close() error {
	return c.db.Close()
}

// FileInfo holds the tracked state of one input file.
type FileInfo struct {
	MtimeNs     int64
	SizeBytes   int64
	Format      string
	ParseErrors int
	RecordCount int
}

// CachedFile is a parsed file ready to be stored.
type CachedFile struct {
	Path        string
	MtimeNs     int64
	SizeBytes   int64
	Format      string
	ParseErrors int
	Records     []json.RawMessage
}

// GetTrackedFiles returns a map of file_path -> FileInfo for all tracked files.
func (c *Cache) GetTrackedFiles() (map[string]FileInfo, error) {
	rows, err := c.db.Query("SELECT file_path, mtime_ns, size_bytes, format, parse_errors, record_count FROM file_tracker")
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()

	result := make(map[string]FileInfo)
	for rows.Next() {
		var path string
		var fi FileInfo
		if err := rows.Scan(&path, &fi.MtimeNs, &fi.SizeBytes, &fi.Format, &fi.ParseErrors, &fi.RecordCount); err != nil {
			return nil, err
		}
		result[path] = fi
	}
	return result, rows.Err()
}

// SaveFile replaces everything stored for f.Path in one transaction.
func (c *Cache) SaveFile(f CachedFile) error {
	tx, err := c.db.Begin()
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback() }()

	// Cascade removes the previous records.
	if _, err := tx.Exec(`DELETE FROM file_tracker WHERE file_path = ?`, f.Path); err != nil {
		return fmt.Errorf("clearing %s: %w", f.Path, err)
	}

	now := time.Now().UTC().Format(time.RFC3339)
	_, err = tx.Exec(`INSERT INTO file_tracker
		(file_path, mtime_ns, size_bytes, format, parse_errors, record_count, parsed_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)`,
		f.Path, f.MtimeNs, f.SizeBytes, f.Format, f.ParseErrors, len(f.Records), now,
	)
	if err != nil {
		return fmt.Errorf("tracking %s: %w", f.Path, err)
	}

	stmt, err := tx.Prepare(`INSERT INTO records (file_path, idx, body) VALUES (?, ?, ?)`)
	if err != nil {
		return err
	}
	defer func() { _ = stmt.Close() }()

	for i, rec := range f.Records {
		if _, err := stmt.Exec(f.Path, i, []byte(rec)); err != nil {
			return fmt.Errorf("inserting record %d of %s: %w", i, f.Path, err)
		}
	}

	return tx.Commit()
}

// LoadRecords returns the raw records stored for path, in file order.
func (c *Cache) LoadRecords(path string) ([]json.RawMessage, error) {
	rows, err := c.db.Query(`SELECT body FROM records WHERE file_path = ? ORDER BY idx`, path)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()

	recs := []json.RawMessage{}
	for rows.Next() {
		var body []byte
		if err := rows.Scan(&body); err != nil {
			return nil, err
		}
		recs = append(recs, json.RawMessage(body))
	}
	return recs, rows.Err()
}

// DeleteFile drops a tracked file and its records.
func (c *Cache) DeleteFile(path string) error {
	_, err := c.db.Exec(`DELETE FROM file_tracker WHERE file_path = ?`, path)
	return err
}

// FileCount returns the number of tracked files.
func (c *Cache) FileCount() (int, error) {
	var n int
	err := c.db.QueryRow(`SELECT COUNT(*) FROM file_tracker`).Scan(&n)
	return n, err
}

// RecordCount returns the number of cached records across all files.
func (c *Cache) RecordCount() (int, error) {
	var n int
	err := c.db.QueryRow(`SELECT COUNT(*) FROM records`).Scan(&n)
	return n, err
}
