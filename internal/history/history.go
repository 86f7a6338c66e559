// Package history manages the watch history in a local SQLite database.
package history

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite"

	"beeb/internal/config"
	"beeb/internal/media"
)

const schema = `
CREATE TABLE IF NOT EXISTS watched (
	pid        TEXT NOT NULL,
	url        TEXT NOT NULL,
	title      TEXT NOT NULL,
	kind       TEXT NOT NULL,
	quality    TEXT NOT NULL,
	position   REAL NOT NULL DEFAULT 0,
	watched_at INTEGER NOT NULL,
	PRIMARY KEY (pid)
);
`

// Store is a handle to the watch-history database.
type Store struct {
	db *sql.DB
}

// Open opens (creating if necessary) the history database at the default
// XDG data path.
func Open() (*Store, error) {
	path, err := config.HistoryPath()
	if err != nil {
		return nil, err
	}
	return OpenPath(path)
}

// OpenPath opens a history database at an explicit path.
func OpenPath(path string) (*Store, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0700); err != nil {
		return nil, fmt.Errorf("creating history dir: %w", err)
	}

	db, err := sql.Open("sqlite", path+"?_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)")
	if err != nil {
		return nil, fmt.Errorf("opening history database: %w", err)
	}
	// Single local consumer; more connections just contend on the file.
	db.SetMaxOpenConns(1)

	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("initializing history schema: %w", err)
	}

	return &Store{db: db}, nil
}

// Close releases the database handle.
func (s *Store) Close() error {
	return s.db.Close()
}

// Save inserts or replaces the entry for a programme.
func (s *Store) Save(e media.HistoryEntry) error {
	if e.WatchedAt.IsZero() {
		e.WatchedAt = time.Now()
	}
	_, err := s.db.Exec(`
		INSERT INTO watched (pid, url, title, kind, quality, position, watched_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(pid) DO UPDATE SET
			url = excluded.url,
			title = excluded.title,
			kind = excluded.kind,
			quality = excluded.quality,
			position = excluded.position,
			watched_at = excluded.watched_at`,
		e.PID, e.URL, e.Title, e.Kind.String(), e.Quality, e.Position, e.WatchedAt.Unix())
	if err != nil {
		return fmt.Errorf("saving history entry: %w", err)
	}
	return nil
}

// Load returns all entries, most recently watched first.
func (s *Store) Load() ([]media.HistoryEntry, error) {
	rows, err := s.db.Query(`
		SELECT pid, url, title, kind, quality, position, watched_at
		FROM watched ORDER BY watched_at DESC`)
	if err != nil {
		return nil, fmt.Errorf("loading history: %w", err)
	}
	defer rows.Close()

	var entries []media.HistoryEntry
	for rows.Next() {
		var e media.HistoryEntry
		var kind string
		var watchedAt int64
		if err := rows.Scan(&e.PID, &e.URL, &e.Title, &kind, &e.Quality, &e.Position, &watchedAt); err != nil {
			return nil, fmt.Errorf("scanning history entry: %w", err)
		}
		if kind == media.Live.String() {
			e.Kind = media.Live
		}
		e.WatchedAt = time.Unix(watchedAt, 0)
		entries = append(entries, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("reading history: %w", err)
	}
	return entries, nil
}

// Position returns the stored playback position for a programme, or 0.
func (s *Store) Position(pid string) (float64, error) {
	var pos float64
	err := s.db.QueryRow(`SELECT position FROM watched WHERE pid = ?`, pid).Scan(&pos)
	if err == sql.ErrNoRows {
		return 0, nil
	}
	if err != nil {
		return 0, fmt.Errorf("querying position: %w", err)
	}
	return pos, nil
}

// Remove deletes the entry for a programme.
func (s *Store) Remove(pid string) error {
	if _, err := s.db.Exec(`DELETE FROM watched WHERE pid = ?`, pid); err != nil {
		return fmt.Errorf("removing history entry: %w", err)
	}
	return nil
}

// FormatForDisplay creates display strings for picker selection.
func FormatForDisplay(entries []media.HistoryEntry) []string {
	items := make([]string, 0, len(entries))
	for _, e := range entries {
		display := e.Title
		if display == "" {
			display = e.PID
		}
		if e.Kind == media.Live {
			display += " [live]"
		}
		if e.Quality != "" {
			display += fmt.Sprintf(" (%s)", e.Quality)
		}
		items = append(items, display)
	}
	return items
}
