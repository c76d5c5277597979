// Package types holds the shared record types exchanged between the
// pipeline, the agents, and the store. Keeping them in a leaf package
// avoids import cycles between the orchestration core and its collaborators.
package types

import (
	"fmt"
	"time"
)

// InputType classifies a raw user input.
type InputType string

const (
	InputLog        InputType = "log"
	InputQuery      InputType = "query"
	InputBoth       InputType = "both"
	InputCorrection InputType = "correction"
)

// GapType categorizes a unit of missing information.
type GapType string

const (
	GapTemporal      GapType = "temporal"
	GapTopical       GapType = "topical"
	GapContextual    GapType = "contextual"
	GapSubjective    GapType = "subjective"
	GapClarification GapType = "clarification"
)

// GapSeverity ranks how badly a gap blocks a confident answer.
type GapSeverity string

const (
	SeverityCritical   GapSeverity = "critical"
	SeverityNiceToHave GapSeverity = "nice_to_have"
)

// Gap is a unit of missing information identified by the Analyzer.
// Subjective and clarification gaps can only be resolved by asking the
// user; the rest are candidates for further retrieval or domain expansion.
type Gap struct {
	ID                      string      `json:"id"`
	Description             string      `json:"description"`
	Type                    GapType     `json:"type"`
	Severity                GapSeverity `json:"severity"`
	OutsideCurrentExpertise bool        `json:"outside_current_expertise,omitempty"`
	SuspectedDomain         string      `json:"suspected_domain,omitempty"`
}

// UserResolvable reports whether the gap can only be closed by the user.
func (g Gap) UserResolvable() bool {
	return g.Type == GapSubjective || g.Type == GapClarification
}

// Entry is one stored fitness log record.
type Entry struct {
	ID         string         `json:"id"`
	Date       string         `json:"date"` // YYYY-MM-DD
	Timestamp  time.Time      `json:"timestamp"`
	RawText    string         `json:"raw_text"`
	DomainData map[string]any `json:"domain_data"`
	Confidence float64        `json:"confidence"`
	CorrectsID string         `json:"corrects_id,omitempty"`
}

// EntryID builds the canonical id for an entry logged at ts.
func EntryID(ts time.Time) string {
	return fmt.Sprintf("%s_%s", ts.Format("2006-01-02"), ts.Format("15-04-05"))
}

// RetrievalStrategy describes one lookup the Planner wants executed.
type RetrievalStrategy struct {
	Kind        string `json:"kind"` // date_range or keyword
	Keyword     string `json:"keyword,omitempty"`
	StartDate   string `json:"start_date,omitempty"`
	EndDate     string `json:"end_date,omitempty"`
	Description string `json:"description,omitempty"`
	Limit       int    `json:"limit,omitempty"`
}

// RetrievalAttempt records one executed retrieval. Attempts are appended
// to the session history and never mutated afterwards.
type RetrievalAttempt struct {
	Strategy   RetrievalStrategy `json:"strategy"`
	Summary    string            `json:"summary"`
	EntryCount int               `json:"entry_count"`
	Timestamp  time.Time         `json:"timestamp"`
}
