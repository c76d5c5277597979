package store

import (
	"database/sql"
	"fmt"

	"fitcoach/internal/logging"
)

// GetGlobalContext returns the long-lived context for a user. A user
// with no context yet gets an empty string, not an error.
func (s *LocalStore) GetGlobalContext(userID string) (string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var ctx string
	err := s.db.QueryRow(`SELECT context FROM global_context WHERE user_id = ?`, userID).Scan(&ctx)
	if err == sql.ErrNoRows {
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("failed to load global context for %s: %w", userID, err)
	}
	return ctx, nil
}

// UpdateGlobalContext replaces the long-lived context for a user. Only
// the Observer path writes here; sessions never touch this table.
func (s *LocalStore) UpdateGlobalContext(userID, context string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	_, err := s.db.Exec(
		`INSERT INTO global_context (user_id, context, updated_at)
		 VALUES (?, ?, CURRENT_TIMESTAMP)
		 ON CONFLICT(user_id) DO UPDATE SET
		   context = excluded.context,
		   updated_at = CURRENT_TIMESTAMP`,
		userID, context,
	)
	if err != nil {
		return fmt.Errorf("failed to update global context for %s: %w", userID, err)
	}
	logging.ObserverDebug("updated global context for %s (%d bytes)", userID, len(context))
	return nil
}
