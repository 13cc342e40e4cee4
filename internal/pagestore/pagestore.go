// Package pagestore persists per-session PageState snapshots so views
// survive client reconnects and host restarts. States are stored as
// lz4-compressed JSON blobs in a small sqlite database, one row per session,
// upserted on every mutation and loaded on first touch.
package pagestore

import (
	"bytes"
	"database/sql"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	json "github.com/goccy/go-json"
	"github.com/pierrec/lz4/v4"
	_ "modernc.org/sqlite"

	"github.com/vanderheijden86/graphpane/pkg/debug"
	"github.com/vanderheijden86/graphpane/pkg/metrics"
	"github.com/vanderheijden86/graphpane/pkg/msg"
)

const schema = `
CREATE TABLE IF NOT EXISTS page_state (
	session_id TEXT PRIMARY KEY,
	state      BLOB NOT NULL,
	updated_at TEXT NOT NULL
);
`

// Store is a sqlite-backed PageState store. Safe for concurrent use; the
// sql.DB pool serializes writers under sqlite's own locking.
type Store struct {
	db   *sql.DB
	path string
}

// Open creates or opens the store at path, creating parent directories as
// needed.
func Open(path string) (*Store, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("create page store dir: %w", err)
	}

	dsn := fmt.Sprintf("file:%s?_busy_timeout=5000&_journal_mode=WAL", path)
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open page store: %w", err)
	}

	pragmas := []string{
		"PRAGMA journal_mode = WAL",
		"PRAGMA busy_timeout = 5000",
		"PRAGMA synchronous = NORMAL",
	}
	for _, pragma := range pragmas {
		if _, err := db.Exec(pragma); err != nil {
			// Non-fatal; sqlite applies what it can.
			debug.Log("pagestore: pragma failed: %v", err)
		}
	}

	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("create page store schema: %w", err)
	}

	return &Store{db: db, path: path}, nil
}

// Close closes the underlying database.
func (s *Store) Close() error {
	if s.db != nil {
		return s.db.Close()
	}
	return nil
}

// Path returns the database location.
func (s *Store) Path() string {
	return s.path
}

// Save upserts the state for a session.
func (s *Store) Save(sessionID string, state msg.PageState) error {
	defer metrics.Timer(metrics.PageStateSave)()

	blob, err := compress(state)
	if err != nil {
		return fmt.Errorf("encode page state: %w", err)
	}

	_, err = s.db.Exec(`
		INSERT INTO page_state (session_id, state, updated_at)
		VALUES (?, ?, ?)
		ON CONFLICT(session_id) DO UPDATE SET
			state = excluded.state,
			updated_at = excluded.updated_at
	`, sessionID, blob, time.Now().UTC().Format(time.RFC3339Nano))
	if err != nil {
		return fmt.Errorf("save page state %s: %w", sessionID, err)
	}
	return nil
}

// Load returns the state for a session. The second return is false when the
// session has never been saved.
func (s *Store) Load(sessionID string) (msg.PageState, bool, error) {
	defer metrics.Timer(metrics.PageStateLoad)()

	var blob []byte
	err := s.db.QueryRow(
		`SELECT state FROM page_state WHERE session_id = ?`, sessionID,
	).Scan(&blob)
	if err == sql.ErrNoRows {
		return msg.PageState{}, false, nil
	}
	if err != nil {
		return msg.PageState{}, false, fmt.Errorf("load page state %s: %w", sessionID, err)
	}

	state, err := decompress(blob)
	if err != nil {
		return msg.PageState{}, false, fmt.Errorf("decode page state %s: %w", sessionID, err)
	}
	return state, true, nil
}

// Delete removes a session's state. Missing sessions are not an error.
func (s *Store) Delete(sessionID string) error {
	if _, err := s.db.Exec(`DELETE FROM page_state WHERE session_id = ?`, sessionID); err != nil {
		return fmt.Errorf("delete page state %s: %w", sessionID, err)
	}
	return nil
}

// Sessions lists all stored session ids, most recently updated first.
func (s *Store) Sessions() ([]string, error) {
	rows, err := s.db.Query(`SELECT session_id FROM page_state ORDER BY updated_at DESC`)
	if err != nil {
		return nil, fmt.Errorf("list sessions: %w", err)
	}
	defer rows.Close()

	var ids []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("scan session id: %w", err)
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}

// compress marshals the state and wraps it in an lz4 frame. Result sets can
// be large (hundreds of property-heavy records) and compress well.
func compress(state msg.PageState) ([]byte, error) {
	raw, err := json.Marshal(state)
	if err != nil {
		return nil, err
	}
	var buf bytes.Buffer
	zw := lz4.NewWriter(&buf)
	if _, err := zw.Write(raw); err != nil {
		return nil, err
	}
	if err := zw.Close(); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func decompress(blob []byte) (msg.PageState, error) {
	zr := lz4.NewReader(bytes.NewReader(blob))
	raw, err := io.ReadAll(zr)
	if err != nil {
		return msg.PageState{}, err
	}
	var state msg.PageState
	if err := json.Unmarshal(raw, &state); err != nil {
		return msg.PageState{}, err
	}
	return state, nil
}
