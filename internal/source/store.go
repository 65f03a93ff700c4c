package source

import (
	"database/sql"
	"errors"
	"fmt"
	"time"

	_ "modernc.org/sqlite"
)

// Entry is a cached download.
type Entry struct {
	Body      []byte
	FetchedAt time.Time
}

// Store keeps downloads in a SQLite file keyed by URL.
type Store struct {
	db *sql.DB
}

// OpenStore opens (or creates) the SQLite database at path and ensures the
// downloads table exists.
func OpenStore(path string) (*Store, error) {
	db, err := sql.Open("sqlite", path+"?_pragma=journal_mode(wal)&_pragma=busy_timeout(5000)")
	if err != nil {
		return nil, fmt.Errorf("open cache db: %w", err)
	}

	const ddl = `CREATE TABLE IF NOT EXISTS downloads (
		url        TEXT PRIMARY KEY,
		body       BLOB NOT NULL,
		fetched_at INTEGER NOT NULL
	)`
	if _, err := db.Exec(ddl); err != nil {
		db.Close()
		return nil, fmt.Errorf("create downloads table: %w", err)
	}

	return &Store{db: db}, nil
}

// Close closes the database.
func (s *Store) Close() error {
	return s.db.Close()
}

// Get returns the entry for url. ok is false when nothing is cached.
func (s *Store) Get(url string) (e Entry, ok bool, err error) {
	var fetched int64
	err = s.db.QueryRow(`SELECT body, fetched_at FROM downloads WHERE url = ?`, url).Scan(&e.Body, &fetched)
	if errors.Is(err, sql.ErrNoRows) {
		return Entry{}, false, nil
	}
	if err != nil {
		return Entry{}, false, fmt.Errorf("get cached %s: %w", url, err)
	}
	e.FetchedAt = time.Unix(fetched, 0).UTC()
	return e, true, nil
}

// Put stores body for url, replacing any previous entry.
func (s *Store) Put(url string, body []byte, fetchedAt time.Time) error {
	_, err := s.db.Exec(
		`INSERT INTO downloads (url, body, fetched_at) VALUES (?, ?, ?)
		ON CONFLICT(url) DO UPDATE SET body = excluded.body, fetched_at = excluded.fetched_at`,
		url, body, fetchedAt.Unix(),
	)
	if err != nil {
		return fmt.Errorf("put cached %s: %w", url, err)
	}
	return nil
}

// Delete removes the entry for url, if any.
func (s *Store) Delete(url string) error {
	if _, err := s.db.Exec(`DELETE FROM downloads WHERE url = ?`, url); err != nil {
		return fmt.Errorf("delete cached %s: %w", url, err)
	}
	return nil
}
