package store

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/rs/zerolog"
)

// StateStore is a SQLite-backed session key-value store. It satisfies
// session.Store: best-effort JSON persistence scoped by session id,
// where write failures are logged and swallowed so storage trouble
// never breaks the in-memory session.
type StateStore struct {
	db      *sql.DB
	session string
	logger  zerolog.Logger
}

// OpenState opens (or creates) the state database for one session.
func OpenState(dbPath, sessionID string, logger zerolog.Logger) (*StateStore, error) {
	db, err := sql.Open("sqlite3", dbPath+"?_journal_mode=WAL&_busy_timeout=5000")
	if err != nil {
		return nil, fmt.Errorf("failed to open state database: %w", err)
	}
	db.SetMaxOpenConns(1)

	schema := `
	CREATE TABLE IF NOT EXISTS ui_state (
		session_id TEXT NOT NULL,
		key TEXT NOT NULL,
		value TEXT NOT NULL,
		updated_at DATETIME NOT NULL,
		PRIMARY KEY (session_id, key)
	);
	`
	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to initialize state schema: %w", err)
	}

	return &StateStore{
		db:      db,
		session: sessionID,
		logger:  logger.With().Str("component", "state_store").Logger(),
	}, nil
}

func (s *StateStore) Get(key string, out interface{}) bool {
	var raw string
	err := s.db.QueryRow(
		`SELECT value FROM ui_state WHERE session_id = ? AND key = ?`,
		s.session, key,
	).Scan(&raw)
	if err != nil {
		return false
	}
	if err := json.Unmarshal([]byte(raw), out); err != nil {
		s.logger.Debug().Str("key", key).Msg("discarding corrupt state value")
		return false
	}
	return true
}

func (s *StateStore) Set(key string, value interface{}) {
	if value == nil {
		s.Clear(key)
		return
	}
	raw, err := json.Marshal(value)
	if err != nil {
		return
	}
	_, err = s.db.Exec(
		`INSERT INTO ui_state (session_id, key, value, updated_at) VALUES (?, ?, ?, ?)
		 ON CONFLICT (session_id, key) DO UPDATE SET value = excluded.value, updated_at = excluded.updated_at`,
		s.session, key, string(raw), time.Now().UTC(),
	)
	if err != nil {
		s.logger.Warn().Err(err).Str("key", key).Msg("state write failed")
	}
}

func (s *StateStore) Clear(key string) {
	if _, err := s.db.Exec(
		`DELETE FROM ui_state WHERE session_id = ? AND key = ?`,
		s.session, key,
	); err != nil {
		s.logger.Warn().Err(err).Str("key", key).Msg("state delete failed")
	}
}

func (s *StateStore) Close() error {
	return s.db.Close()
}
