package memory

import (
	"crypto/sha256"
	"database/sql"
	"encoding/hex"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/google/uuid"
	_ "modernc.org/sqlite"
)

// openDB is a package-level var to allow test injection.
var openDB = sql.Open

// ─── Session identity ────────────────────────────────────────────────────────

var (
	fallbackOnce sync.Once
	fallbackID   string
)

// DeriveSessionID resolves the capture session identity. A configured
// override wins; otherwise the host's session key maps deterministically
// to a stable id; with no host context at all, a generated id is minted
// once per process so that captures within one process still accumulate
// incrementally instead of starting a new session on every call.
func DeriveSessionID(hookKey, override string) string {
	if override != "" {
		return override
	}
	if hookKey != "" {
		sum := sha256.Sum256([]byte(hookKey))
		return "mcp-" + hex.EncodeToString(sum[:8])
	}
	fallbackOnce.Do(func() {
		fallbackID = "boot-" + uuid.NewString()
	})
	return fallbackID
}

// ─── Session store ───────────────────────────────────────────────────────────

// SessionStore persists per-session capture state: the timestamp of the
// last captured message, used to compute the "new messages" subset on
// the next capture. Backed by a local SQLite file; the store is a side
// record only — losing it means re-capturing, never data loss.
type SessionStore struct {
	db *sql.DB
}

// OpenSessionStore opens (creating if needed) the session-state database
// under dataDir, with WAL mode and migrations applied.
func OpenSessionStore(dataDir string) (*SessionStore, error) {
	if err := os.MkdirAll(dataDir, 0700); err != nil {
		return nil, fmt.Errorf("memory: create data dir: %w", err)
	}

	dbPath := filepath.Join(dataDir, "sessions.db")
	db, err := openDB("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("memory: open session database: %w", err)
	}

	pragmas := []string{
		"PRAGMA journal_mode = WAL",
		"PRAGMA busy_timeout = 5000",
		"PRAGMA synchronous = NORMAL",
	}
	for _, p := range pragmas {
		if _, err := db.Exec(p); err != nil {
			return nil, fmt.Errorf("memory: pragma %q: %w", p, err)
		}
	}

	s := &SessionStore{db: db}
	if err := s.migrate(); err != nil {
		return nil, fmt.Errorf("memory: session migration: %w", err)
	}
	return s, nil
}

// Close closes the underlying database connection.
func (s *SessionStore) Close() error {
	return s.db.Close()
}

func (s *SessionStore) migrate() error {
	_, err := s.db.Exec(`
		CREATE TABLE IF NOT EXISTS capture_sessions (
			session_id      TEXT    PRIMARY KEY,
			last_capture_ms INTEGER NOT NULL DEFAULT 0,
			updated_at      TEXT    NOT NULL DEFAULT (datetime('now'))
		);
	`)
	return err
}

// Cutoff returns the last capture boundary for a session, or the zero
// time when the session is unknown or the record is unreadable. State
// problems never fail a capture — they are logged and treated as "no
// cutoff".
func (s *SessionStore) Cutoff(sessionID string) time.Time {
	var ms int64
	err := s.db.QueryRow(
		`SELECT last_capture_ms FROM capture_sessions WHERE session_id = ?`, sessionID,
	).Scan(&ms)
	if err == sql.ErrNoRows {
		return time.Time{}
	}
	if err != nil {
		log.Printf("WARNING: memory: read cutoff for %s: %v", sessionID, err)
		return time.Time{}
	}
	if ms <= 0 {
		return time.Time{}
	}
	return time.UnixMilli(ms).UTC()
}

// RecordCutoff persists the capture boundary after a successful capture.
// Idempotent; the stored value never decreases, keeping cutoff
// advancement monotone even if calls race or replay.
func (s *SessionStore) RecordCutoff(sessionID string, ts time.Time) error {
	_, err := s.db.Exec(
		`INSERT INTO capture_sessions (session_id, last_capture_ms)
		 VALUES (?, ?)
		 ON CONFLICT(session_id) DO UPDATE SET
		   last_capture_ms = MAX(last_capture_ms, excluded.last_capture_ms),
		   updated_at = datetime('now')`,
		sessionID, ts.UnixMilli(),
	)
	return err
}
