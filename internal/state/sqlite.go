package state

import (
	"database/sql"
	"fmt"

	_ "modernc.org/sqlite"
)

// SQLiteStore keeps the seen set in a SQLite database. Same Load/Save
// contract as FileStore; useful once the JSON file grows past what a
// full rewrite per commit should carry.
type SQLiteStore struct {
	db *sql.DB
}

// NewSQLiteStore opens (or creates) the database at dbPath and ensures
// the seen_urls table exists.
func NewSQLiteStore(dbPath string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("opening sqlite db: %w", err)
	}

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("pinging sqlite db: %w", err)
	}

	createTable := `CREATE TABLE IF NOT EXISTS seen_urls (
		url        TEXT PRIMARY KEY,
		first_seen DATETIME DEFAULT CURRENT_TIMESTAMP
	)`
	if _, err := db.Exec(createTable); err != nil {
		db.Close()
		return nil, fmt.Errorf("creating seen_urls table: %w", err)
	}

	return &SQLiteStore{db: db}, nil
}

// Load reads every recorded URL.
func (s *SQLiteStore) Load() (map[string]struct{}, error) {
	rows, err := s.db.Query("SELECT url FROM seen_urls")
	if err != nil {
		return nil, fmt.Errorf("loading seen urls: %w", err)
	}
	defer rows.Close()

	seen := make(map[string]struct{})
	for rows.Next() {
		var url string
		if err := rows.Scan(&url); err != nil {
			return nil, fmt.Errorf("scanning seen url: %w", err)
		}
		seen[url] = struct{}{}
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating seen urls: %w", err)
	}
	return seen, nil
}

// Save merges urls into the table. INSERT OR IGNORE keeps the set
// append-only; the transaction makes the commit all-or-nothing.
func (s *SQLiteStore) Save(urls map[string]struct{}) error {
	tx, err := s.db.Begin()
	if err != nil {
		return fmt.Errorf("starting commit transaction: %w", err)
	}

	stmt, err := tx.Prepare("INSERT OR IGNORE INTO seen_urls (url) VALUES (?)")
	if err != nil {
		tx.Rollback()
		return fmt.Errorf("preparing insert: %w", err)
	}
	defer stmt.Close()

	for url := range urls {
		if _, err := stmt.Exec(url); err != nil {
			tx.Rollback()
			return fmt.Errorf("recording url %s: %w", url, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("committing seen urls: %w", err)
	}
	return nil
}

// Close closes the underlying database connection.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}
