package store

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"fitcoach/internal/logging"
	"fitcoach/internal/types"
)

// Correction carries save-with-correction semantics: the store locates
// the target entry and merges the delta into it. Callers only supply the
// target and the delta; the merge itself lives here.
type Correction struct {
	TargetEntryID string
	Delta         map[string]any
}

// ErrEntryNotFound is returned when a correction targets a missing entry.
var ErrEntryNotFound = fmt.Errorf("entry not found")

// SaveEntry persists an entry. With a non-nil correction the target
// entry's domain data is merged with the delta first, then the new entry
// is inserted as the correction record; both happen in one transaction so
// a failure leaves no partial state.
func (s *LocalStore) SaveEntry(entry types.Entry, correction *Correction) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	tx, err := s.db.Begin()
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	if correction != nil {
		if err := s.applyCorrection(tx, correction); err != nil {
			return err
		}
		entry.CorrectsID = correction.TargetEntryID
	}

	domainJSON, err := json.Marshal(entry.DomainData)
	if err != nil {
		return fmt.Errorf("failed to marshal domain data: %w", err)
	}

	_, err = tx.Exec(
		`INSERT INTO entries (id, date, timestamp, raw_text, domain_data, confidence, corrects_id)
		 VALUES (?, ?, ?, ?, ?, ?, ?)
		 ON CONFLICT(id) DO UPDATE SET
		   raw_text = excluded.raw_text,
		   domain_data = excluded.domain_data,
		   confidence = excluded.confidence,
		   corrects_id = excluded.corrects_id`,
		entry.ID, entry.Date, entry.Timestamp, entry.RawText, string(domainJSON),
		entry.Confidence, nullable(entry.CorrectsID),
	)
	if err != nil {
		return fmt.Errorf("failed to save entry %s: %w", entry.ID, err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit entry %s: %w", entry.ID, err)
	}

	logging.StoreDebug("saved entry %s (correction=%v)", entry.ID, correction != nil)
	return nil
}

// applyCorrection merges the delta into the target entry's domain data.
func (s *LocalStore) applyCorrection(tx *sql.Tx, c *Correction) error {
	var domainJSON string
	err := tx.QueryRow(`SELECT domain_data FROM entries WHERE id = ?`, c.TargetEntryID).Scan(&domainJSON)
	if err == sql.ErrNoRows {
		return fmt.Errorf("correction target %s: %w", c.TargetEntryID, ErrEntryNotFound)
	}
	if err != nil {
		return fmt.Errorf("failed to load correction target %s: %w", c.TargetEntryID, err)
	}

	var data map[string]any
	if err := json.Unmarshal([]byte(domainJSON), &data); err != nil {
		return fmt.Errorf("corrupt domain data on %s: %w", c.TargetEntryID, err)
	}
	if data == nil {
		data = make(map[string]any)
	}
	for k, v := range c.Delta {
		data[k] = v
	}

	merged, err := json.Marshal(data)
	if err != nil {
		return fmt.Errorf("failed to marshal merged domain data: %w", err)
	}
	if _, err := tx.Exec(`UPDATE entries SET domain_data = ? WHERE id = ?`, string(merged), c.TargetEntryID); err != nil {
		return fmt.Errorf("failed to update correction target %s: %w", c.TargetEntryID, err)
	}

	logging.Store("merged correction into entry %s (%d field(s))", c.TargetEntryID, len(c.Delta))
	return nil
}

// GetEntriesByDateRange returns entries with date in [start, end],
// inclusive, ordered by timestamp.
func (s *LocalStore) GetEntriesByDateRange(start, end string) ([]types.Entry, error) {
	timer := logging.StartTimer(logging.CategoryStore, "GetEntriesByDateRange")
	defer timer.Stop()

	s.mu.RLock()
	defer s.mu.RUnlock()

	rows, err := s.db.Query(
		`SELECT id, date, timestamp, raw_text, domain_data, confidence, corrects_id
		 FROM entries WHERE date >= ? AND date <= ? ORDER BY timestamp ASC`,
		start, end,
	)
	if err != nil {
		return nil, fmt.Errorf("date range query failed: %w", err)
	}
	defer rows.Close()
	return scanEntries(rows)
}

// GetEntriesByPattern returns entries whose raw text or domain data
// matches the keyword, most recent first.
func (s *LocalStore) GetEntriesByPattern(keyword string, limit int) ([]types.Entry, error) {
	timer := logging.StartTimer(logging.CategoryStore, "GetEntriesByPattern")
	defer timer.Stop()

	s.mu.RLock()
	defer s.mu.RUnlock()

	if limit <= 0 {
		limit = 50
	}
	pattern := "%" + keyword + "%"
	rows, err := s.db.Query(
		`SELECT id, date, timestamp, raw_text, domain_data, confidence, corrects_id
		 FROM entries WHERE raw_text LIKE ? OR domain_data LIKE ?
		 ORDER BY timestamp DESC LIMIT ?`,
		pattern, pattern, limit,
	)
	if err != nil {
		return nil, fmt.Errorf("pattern query failed: %w", err)
	}
	defer rows.Close()
	return scanEntries(rows)
}

// GetRecentEntries returns the n most recent entries, newest first.
func (s *LocalStore) GetRecentEntries(n int) ([]types.Entry, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if n <= 0 {
		n = 10
	}
	rows, err := s.db.Query(
		`SELECT id, date, timestamp, raw_text, domain_data, confidence, corrects_id
		 FROM entries ORDER BY timestamp DESC LIMIT ?`, n,
	)
	if err != nil {
		return nil, fmt.Errorf("recent entries query failed: %w", err)
	}
	defer rows.Close()
	return scanEntries(rows)
}

// GetEntry returns a single entry by id.
func (s *LocalStore) GetEntry(id string) (types.Entry, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	row := s.db.QueryRow(
		`SELECT id, date, timestamp, raw_text, domain_data, confidence, corrects_id
		 FROM entries WHERE id = ?`, id,
	)
	entry, err := scanEntry(row)
	if err == sql.ErrNoRows {
		return types.Entry{}, fmt.Errorf("entry %s: %w", id, ErrEntryNotFound)
	}
	return entry, err
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanEntry(row rowScanner) (types.Entry, error) {
	var e types.Entry
	var domainJSON string
	var correctsID sql.NullString
	var ts time.Time
	if err := row.Scan(&e.ID, &e.Date, &ts, &e.RawText, &domainJSON, &e.Confidence, &correctsID); err != nil {
		return e, err
	}
	e.Timestamp = ts
	e.CorrectsID = correctsID.String
	if err := json.Unmarshal([]byte(domainJSON), &e.DomainData); err != nil {
		// Tolerate old rows with malformed data rather than failing reads.
		e.DomainData = map[string]any{}
	}
	return e, nil
}

func scanEntries(rows *sql.Rows) ([]types.Entry, error) {
	var out []types.Entry
	for rows.Next() {
		e, err := scanEntry(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan entry: %w", err)
		}
		out = append(out, e)
	}
	return out, rows.Err()
}

func nullable(s string) any {
	if s == "" {
		return nil
	}
	return s
}
