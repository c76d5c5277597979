package store

import (
	"database/sql"
	"fmt"

	"fitcoach/internal/logging"
)

// ErrSessionNotFound is returned when loading an unknown session id.
var ErrSessionNotFound = fmt.Errorf("session not found")

// SuspendedSession is a row summary for listing suspended sessions.
type SuspendedSession struct {
	ID        string
	UpdatedAt string
}

// SaveSession upserts a serialized session snapshot. The snapshot is the
// only continuation state: no in-memory state survives suspension.
func (s *LocalStore) SaveSession(id string, stateJSON []byte, waitingForUser, complete bool) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	_, err := s.db.Exec(
		`INSERT INTO sessions (id, state_json, waiting_for_user, complete, updated_at)
		 VALUES (?, ?, ?, ?, CURRENT_TIMESTAMP)
		 ON CONFLICT(id) DO UPDATE SET
		   state_json = excluded.state_json,
		   waiting_for_user = excluded.waiting_for_user,
		   complete = excluded.complete,
		   updated_at = CURRENT_TIMESTAMP`,
		id, string(stateJSON), boolToInt(waitingForUser), boolToInt(complete),
	)
	if err != nil {
		return fmt.Errorf("failed to save session %s: %w", id, err)
	}
	logging.SessionDebug("saved session %s (waiting=%v complete=%v)", id, waitingForUser, complete)
	return nil
}

// LoadSession returns the serialized snapshot for a session id.
func (s *LocalStore) LoadSession(id string) ([]byte, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var stateJSON string
	err := s.db.QueryRow(`SELECT state_json FROM sessions WHERE id = ?`, id).Scan(&stateJSON)
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("session %s: %w", id, ErrSessionNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load session %s: %w", id, err)
	}
	return []byte(stateJSON), nil
}

// ListSuspendedSessions returns sessions currently waiting for the user,
// most recently updated first.
func (s *LocalStore) ListSuspendedSessions() ([]SuspendedSession, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rows, err := s.db.Query(
		`SELECT id, updated_at FROM sessions
		 WHERE waiting_for_user = 1 AND complete = 0
		 ORDER BY updated_at DESC`,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to list suspended sessions: %w", err)
	}
	defer rows.Close()

	var out []SuspendedSession
	for rows.Next() {
		var ss SuspendedSession
		if err := rows.Scan(&ss.ID, &ss.UpdatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan session row: %w", err)
		}
		out = append(out, ss)
	}
	return out, rows.Err()
}

// DeleteSession removes a session snapshot.
func (s *LocalStore) DeleteSession(id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, err := s.db.Exec(`DELETE FROM sessions WHERE id = ?`, id); err != nil {
		return fmt.Errorf("failed to delete session %s: %w", id, err)
	}
	return nil
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
