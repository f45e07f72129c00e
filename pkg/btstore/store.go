// Package btstore provides a fact store backed by SQLite, for agents
// whose blackboard must survive process restarts. It satisfies
// bt.Blackboard, so a Tree (or a btvm.VM) can run directly against it,
// and adds point-in-time snapshots encoded as CBOR blobs.
//
// The Blackboard interface has no error returns, so storage failures on
// the tick path are logged and reported as absent facts. Hosts that
// need to distinguish a miss from a broken database can call Err to
// inspect the most recent storage error.
package btstore

import (
	"database/sql"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/fxamacker/cbor/v2"
	"github.com/google/uuid"
	"github.com/tliron/commonlog"

	_ "modernc.org/sqlite"
)

var log = commonlog.GetLogger("arbor.btstore")

// ErrSnapshotNotFound indicates the requested snapshot doesn't exist.
var ErrSnapshotNotFound = errors.New("snapshot not found")

var cborEncMode cbor.EncMode

func init() {
	em, err := cbor.CanonicalEncOptions().EncMode()
	if err != nil {
		panic(fmt.Sprintf("btstore: failed to create CBOR enc mode: %v", err))
	}
	cborEncMode = em
}

// Store is a SQLite-backed fact store.
type Store struct {
	db      *sql.DB
	mu      sync.Mutex
	lastErr error
}

// Open opens (creating if needed) a fact store at the given path. Use
// ":memory:" for a throwaway store.
func Open(path string) (*Store, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}

	if _, err := db.Exec("PRAGMA busy_timeout = 5000"); err != nil {
		db.Close()
		return nil, fmt.Errorf("setting busy timeout: %w", err)
	}

	if _, err := db.Exec(`CREATE TABLE IF NOT EXISTS facts (
		name TEXT PRIMARY KEY,
		value TEXT NOT NULL
	)`); err != nil {
		db.Close()
		return nil, fmt.Errorf("creating facts table: %w", err)
	}

	if _, err := db.Exec(`CREATE TABLE IF NOT EXISTS snapshots (
		id TEXT PRIMARY KEY,
		taken_at TEXT NOT NULL,
		data BLOB NOT NULL
	)`); err != nil {
		db.Close()
		return nil, fmt.Errorf("creating snapshots table: %w", err)
	}

	return &Store{db: db}, nil
}

// Close closes the database connection.
func (s *Store) Close() error {
	if s.db != nil {
		return s.db.Close()
	}
	return nil
}

// Err returns the most recent storage error swallowed on the tick path,
// or nil. Reading it clears it.
func (s *Store) Err() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	err := s.lastErr
	s.lastErr = nil
	return err
}

func (s *Store) fail(op string, err error) {
	log.Errorf("%s: %v", op, err)
	s.mu.Lock()
	s.lastErr = fmt.Errorf("%s: %w", op, err)
	s.mu.Unlock()
}

// SetFact stores or replaces a fact.
func (s *Store) SetFact(name, value string) {
	_, err := s.db.Exec(
		"INSERT OR REPLACE INTO facts (name, value) VALUES (?, ?)",
		name, value,
	)
	if err != nil {
		s.fail("set fact", err)
	}
}

// GetFact returns a fact's value and whether it is present.
func (s *Store) GetFact(name string) (string, bool) {
	var value string
	err := s.db.QueryRow("SELECT value FROM facts WHERE name = ?", name).Scan(&value)
	if err != nil {
		if !errors.Is(err, sql.ErrNoRows) {
			s.fail("get fact", err)
		}
		return "", false
	}
	return value, true
}

// RemoveFact deletes a fact. Removing an absent fact is not an error.
func (s *Store) RemoveFact(name string) {
	if _, err := s.db.Exec("DELETE FROM facts WHERE name = ?", name); err != nil {
		s.fail("remove fact", err)
	}
}

// FactExists reports whether a fact is present.
func (s *Store) FactExists(name string) bool {
	var one int
	err := s.db.QueryRow("SELECT 1 FROM facts WHERE name = ?", name).Scan(&one)
	if err != nil {
		if !errors.Is(err, sql.ErrNoRows) {
			s.fail("fact exists", err)
		}
		return false
	}
	return true
}

// Facts returns all facts as a map.
func (s *Store) Facts() (map[string]string, error) {
	rows, err := s.db.Query("SELECT name, value FROM facts")
	if err != nil {
		return nil, fmt.Errorf("querying facts: %w", err)
	}
	defer rows.Close()

	facts := make(map[string]string)
	for rows.Next() {
		var name, value string
		if err := rows.Scan(&name, &value); err != nil {
			return nil, fmt.Errorf("scanning fact: %w", err)
		}
		facts[name] = value
	}
	return facts, rows.Err()
}

// Count returns the number of facts.
func (s *Store) Count() (int, error) {
	var n int
	if err := s.db.QueryRow("SELECT COUNT(*) FROM facts").Scan(&n); err != nil {
		return 0, fmt.Errorf("counting facts: %w", err)
	}
	return n, nil
}

// SnapshotInfo identifies a stored snapshot.
type SnapshotInfo struct {
	ID      string
	TakenAt time.Time
}

// Snapshot captures the current facts as a CBOR blob and returns the
// new snapshot's id.
func (s *Store) Snapshot() (string, error) {
	facts, err := s.Facts()
	if err != nil {
		return "", err
	}
	data, err := cborEncMode.Marshal(facts)
	if err != nil {
		return "", fmt.Errorf("encoding snapshot: %w", err)
	}

	id := uuid.NewString()
	_, err = s.db.Exec(
		"INSERT INTO snapshots (id, taken_at, data) VALUES (?, ?, ?)",
		id, time.Now().UTC().Format(time.RFC3339Nano), data,
	)
	if err != nil {
		return "", fmt.Errorf("saving snapshot: %w", err)
	}
	return id, nil
}

// Restore replaces all current facts with the contents of a snapshot.
func (s *Store) Restore(id string) error {
	var data []byte
	err := s.db.QueryRow("SELECT data FROM snapshots WHERE id = ?", id).Scan(&data)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return ErrSnapshotNotFound
		}
		return fmt.Errorf("querying snapshot: %w", err)
	}

	var facts map[string]string
	if err := cbor.Unmarshal(data, &facts); err != nil {
		return fmt.Errorf("decoding snapshot: %w", err)
	}

	tx, err := s.db.Begin()
	if err != nil {
		return fmt.Errorf("starting restore: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.Exec("DELETE FROM facts"); err != nil {
		return fmt.Errorf("clearing facts: %w", err)
	}
	for name, value := range facts {
		if _, err := tx.Exec("INSERT INTO facts (name, value) VALUES (?, ?)", name, value); err != nil {
			return fmt.Errorf("restoring fact %q: %w", name, err)
		}
	}
	return tx.Commit()
}

// Snapshots lists stored snapshots, newest first.
func (s *Store) Snapshots() ([]SnapshotInfo, error) {
	rows, err := s.db.Query("SELECT id, taken_at FROM snapshots ORDER BY taken_at DESC")
	if err != nil {
		return nil, fmt.Errorf("querying snapshots: %w", err)
	}
	defer rows.Close()

	var infos []SnapshotInfo
	for rows.Next() {
		var id, takenAt string
		if err := rows.Scan(&id, &takenAt); err != nil {
			return nil, fmt.Errorf("scanning snapshot: %w", err)
		}
		ts, err := time.Parse(time.RFC3339Nano, takenAt)
		if err != nil {
			return nil, fmt.Errorf("parsing snapshot time %q: %w", takenAt, err)
		}
		infos = append(infos, SnapshotInfo{ID: id, TakenAt: ts})
	}
	return infos, rows.Err()
}

// DeleteSnapshot removes a stored snapshot.
func (s *Store) DeleteSnapshot(id string) error {
	res, err := s.db.Exec("DELETE FROM snapshots WHERE id = ?", id)
	if err != nil {
		return fmt.Errorf("deleting snapshot: %w", err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return ErrSnapshotNotFound
	}
	return nil
}
