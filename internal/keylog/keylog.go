// Package keylog is an optional side channel that records the translated
// key stream into SQLite. It is layered on top of the bridge's translation
// path and never feeds back into it: a failed insert degrades to a logged
// warning, not a bridging error.
package keylog

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "github.com/mattn/go-sqlite3"
)

// Schema for the key-history store.
const schema = `
CREATE TABLE IF NOT EXISTS key_events (
    id           INTEGER PRIMARY KEY AUTOINCREMENT,
    timestamp_ns INTEGER NOT NULL,
    device       TEXT NOT NULL,
    kernel_code  INTEGER NOT NULL,
    usage        INTEGER NOT NULL,
    pressed      INTEGER NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_key_events_timestamp ON key_events(timestamp_ns);
`

// Entry is one recorded key transition.
type Entry struct {
	Time    time.Time
	Device  string
	Code    uint16 // kernel key code
	Usage   byte   // HID usage, 0 for unsupported codes
	Pressed bool
}

// Store is the SQLite key-history store.
type Store struct {
	db     *sql.DB
	insert *sql.Stmt
}

// Open opens or creates the database at path and applies the schema.
func Open(path string) (*Store, error) {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o700); err != nil {
			return nil, fmt.Errorf("create keylog directory: %w", err)
		}
	}

	db, err := sql.Open("sqlite3", path+"?_journal_mode=WAL&_busy_timeout=5000")
	if err != nil {
		return nil, fmt.Errorf("open keylog db: %w", err)
	}

	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("apply keylog schema: %w", err)
	}

	insert, err := db.Prepare(
		`INSERT INTO key_events (timestamp_ns, device, kernel_code, usage, pressed)
		 VALUES (?, ?, ?, ?, ?)`)
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("prepare keylog insert: %w", err)
	}

	return &Store{db: db, insert: insert}, nil
}

// Record appends one key transition.
func (s *Store) Record(e Entry) error {
	pressed := 0
	if e.Pressed {
		pressed = 1
	}
	_, err := s.insert.Exec(e.Time.UnixNano(), e.Device, e.Code, e.Usage, pressed)
	if err != nil {
		return fmt.Errorf("record key event: %w", err)
	}
	return nil
}

// Count returns the number of recorded transitions.
func (s *Store) Count() (int64, error) {
	var n int64
	err := s.db.QueryRow(`SELECT COUNT(*) FROM key_events`).Scan(&n)
	return n, err
}

// Close flushes and closes the store.
func (s *Store) Close() error {
	if s.insert != nil {
		s.insert.Close()
	}
	return s.db.Close()
}
