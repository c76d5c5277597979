package pipeline

import (
	"context"
	"errors"
	"fmt"
	"time"

	"fitcoach/internal/agents"
	"fitcoach/internal/logging"
	"fitcoach/internal/session"
	"fitcoach/internal/store"
	"fitcoach/internal/types"
)

// CorrectionResult is the structured outcome of a correction attempt.
// Corrections fail softly: a missing target or an unparseable input
// produces a failed result with an explanation, never an error from
// Process and never a panic.
type CorrectionResult struct {
	Success bool `json:"success"`

	// Set on success: the entry that was amended and the id of the
	// correction record written alongside it.
	TargetEntryID     string `json:"target_entry_id,omitempty"`
	CorrectionEntryID string `json:"correction_entry_id,omitempty"`
	Message           string `json:"message,omitempty"`

	// Set on failure.
	Error string `json:"error,omitempty"`
}

// NewCorrectionResult enforces the result invariant: a successful result
// must name the target entry, and a failed one must carry the reason.
func NewCorrectionResult(r CorrectionResult) (*CorrectionResult, error) {
	if r.Success && r.TargetEntryID == "" {
		return nil, fmt.Errorf("correction result: success requires a target entry id")
	}
	if !r.Success && r.Error == "" {
		return nil, fmt.Errorf("correction result: failure requires an error message")
	}
	return &r, nil
}

func correctionSuccess(targetID, correctionID, message string) (*CorrectionResult, error) {
	return NewCorrectionResult(CorrectionResult{
		Success:           true,
		TargetEntryID:     targetID,
		CorrectionEntryID: correctionID,
		Message:           message,
	})
}

func correctionFailure(format string, args ...any) (*CorrectionResult, error) {
	return NewCorrectionResult(CorrectionResult{Error: fmt.Sprintf(format, args...)})
}

// runCorrection resolves and applies a correction: the Parser identifies
// the target entry among the recent ones and extracts the changed fields,
// then the store merges the delta into the target and records the
// correction as its own entry in a single transaction. Domain failures
// (unknown target, unparseable input) come back as a failed result; the
// error return is reserved for invariant violations.
func (m *Machine) runCorrection(ctx context.Context, sess *session.SessionState, hint string) (*CorrectionResult, error) {
	recent, err := m.entries.GetRecentEntries(m.cfg.RecentEntryCount)
	if err != nil {
		return correctionFailure("could not load recent entries: %v", err)
	}
	if len(recent) == 0 {
		return correctionFailure("nothing to correct: no entries logged yet")
	}

	now := time.Now()
	parsed, err := m.parser.Parse(ctx, agents.ParseInput{
		RawInput:         sess.RawInput,
		Timestamp:        now,
		DomainContext:    sess.ActiveDomainContext,
		CorrectionMode:   true,
		CorrectionTarget: hint,
		RecentEntries:    recent,
	})
	if err != nil {
		return correctionFailure("could not interpret the correction: %v", err)
	}
	if !parsed.IsCorrection || parsed.TargetEntryID == "" {
		return correctionFailure("could not identify which entry to correct")
	}
	if len(parsed.CorrectionDelta) == 0 {
		return correctionFailure("could not determine what to change on entry %s", parsed.TargetEntryID)
	}

	record := types.Entry{
		ID:         types.EntryID(now),
		Date:       now.Format("2006-01-02"),
		Timestamp:  now,
		RawText:    sess.RawInput,
		DomainData: parsed.CorrectionDelta,
		Confidence: parsed.Confidence,
	}
	err = m.entries.SaveEntry(record, &store.Correction{
		TargetEntryID: parsed.TargetEntryID,
		Delta:         parsed.CorrectionDelta,
	})
	if errors.Is(err, store.ErrEntryNotFound) {
		return correctionFailure("entry %s does not exist", parsed.TargetEntryID)
	}
	if err != nil {
		return correctionFailure("failed to apply the correction: %v", err)
	}

	logging.Pipeline("session %s: corrected entry %s (%d field(s))",
		sess.ID, parsed.TargetEntryID, len(parsed.CorrectionDelta))
	return correctionSuccess(parsed.TargetEntryID, record.ID,
		fmt.Sprintf("Updated entry %s (%d field(s) changed).", parsed.TargetEntryID, len(parsed.CorrectionDelta)))
}
