// Package session defines the mutable record threading through one
// user-turn's processing and its suspend/resume serialization.
package session

import (
	"encoding/json"
	"fmt"
	"time"

	"fitcoach/internal/domain"
	"fitcoach/internal/types"

	"github.com/google/uuid"
)

// State is a position in the session state machine.
type State string

const (
	StateRoute        State = "route"
	StatePlan         State = "plan"
	StateRetrieve     State = "retrieve"
	StateAnalyze      State = "analyze"
	StateExpandDomain State = "expand_domain"
	StateClarify      State = "clarify"
	StateWaitUser     State = "wait_user"
	StateWaitUserDone State = "wait_user_done"
	StateSynthesize   State = "synthesize"
	StateEvaluate     State = "evaluate"
	StateDone         State = "done"
)

// ClarificationSnapshot captures what was asked when the machine
// suspended, so the resume side can present it without re-running the
// Clarifier.
type ClarificationSnapshot struct {
	Questions          []types.ClarificationQuestion `json:"questions"`
	ContextExplanation string                        `json:"context_explanation,omitempty"`
	FallbackAction     string                        `json:"fallback_action,omitempty"`
}

// ResumeInput is the typed continuation supplied when a suspended
// session is resumed. Declining always means "no information given":
// Responses is forced empty when Declined is set, regardless of payload.
type ResumeInput struct {
	Responses map[string]string `json:"responses"` // gap id -> answer
	Declined  bool              `json:"declined"`
}

// SessionState is the single mutable record for one user-turn. It is
// owned exclusively by the orchestrator during a synchronous run;
// between suspension and resume it exists only in serialized form.
type SessionState struct {
	ID        string    `json:"id"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`

	RawInput  string          `json:"raw_input"`
	InputType types.InputType `json:"input_type,omitempty"`
	Query     string          `json:"query,omitempty"`
	QueryType string          `json:"query_type,omitempty"`

	// Append-only across iterations; elements are never removed or
	// mutated in place.
	RetrievalHistory []types.RetrievalAttempt `json:"retrieval_history,omitempty"`
	RetrievedEntries []types.Entry            `json:"retrieved_entries,omitempty"`

	// Last-produced agent outputs, replaced each iteration.
	PlannerOutput   *types.PlannerOutput   `json:"planner_output,omitempty"`
	Analysis        *types.AnalyzerOutput  `json:"analysis,omitempty"`
	Evaluation      *types.EvaluatorOutput `json:"evaluation,omitempty"`
	ClarifierOutput *types.ClarifierOutput `json:"clarifier_output,omitempty"`

	// Current unresolved gaps, replaced on each analysis.
	Gaps []types.Gap `json:"gaps,omitempty"`

	// Evaluator feedback accumulated across the retry loop. Every
	// synthesis attempt sees all prior feedback, not just the latest.
	EvaluationFeedback []types.EvaluatorFeedback `json:"evaluation_feedback,omitempty"`

	RetryCount int `json:"retry_count"`
	MaxRetries int `json:"max_retries"`

	UserResponses  map[string]string `json:"user_responses,omitempty"`
	WaitingForUser bool              `json:"waiting_for_user"`

	Clarification *ClarificationSnapshot `json:"clarification,omitempty"`

	CurrentState State `json:"current_state"`
	NextState    State `json:"next_state,omitempty"`

	ActiveDomainContext *domain.ActiveContext `json:"active_domain_context,omitempty"`

	// DomainExpansionRequest is transient: set when expansion is
	// requested, cleared once processed.
	DomainExpansionRequest []string `json:"domain_expansion_request,omitempty"`

	// DomainExpansionHistory is the cumulative set of domains ever added
	// via expansion. It only grows; a domain present here is never
	// re-requested successfully.
	DomainExpansionHistory []string `json:"domain_expansion_history,omitempty"`

	// IsPartial is set exactly when an expansion request yields zero new
	// domains; it tells the Synthesizer to produce a best-effort answer.
	IsPartial bool `json:"is_partial"`

	// DraftResponse is the latest synthesized draft; it becomes
	// FinalResponse when the machine reaches DONE.
	DraftResponse string `json:"draft_response,omitempty"`

	// RetriesExhausted marks a terminal response that failed evaluation
	// max_retries times; distinct from IsPartial, which is about domain
	// expansion.
	RetriesExhausted bool `json:"retries_exhausted,omitempty"`

	FinalResponse string `json:"final_response,omitempty"`
	Complete      bool   `json:"complete"`
}

// DefaultMaxRetries bounds the Evaluate->Synthesize retry loop.
const DefaultMaxRetries = 2

// New creates a fresh session for one raw user input.
func New(rawInput string) *SessionState {
	now := time.Now()
	return &SessionState{
		ID:           uuid.NewString(),
		CreatedAt:    now,
		UpdatedAt:    now,
		RawInput:     rawInput,
		MaxRetries:   DefaultMaxRetries,
		CurrentState: StateRoute,
	}
}

// AppendRetrieval records one retrieval attempt and its entries. Entries
// already present (by id) are not duplicated; nothing is ever removed.
func (s *SessionState) AppendRetrieval(attempt types.RetrievalAttempt, entries []types.Entry) {
	s.RetrievalHistory = append(s.RetrievalHistory, attempt)

	known := make(map[string]bool, len(s.RetrievedEntries))
	for _, e := range s.RetrievedEntries {
		known[e.ID] = true
	}
	for _, e := range entries {
		if known[e.ID] {
			continue
		}
		s.RetrievedEntries = append(s.RetrievedEntries, e)
		known[e.ID] = true
	}
	s.touch()
}

// InExpansionHistory reports whether a domain was already tried.
func (s *SessionState) InExpansionHistory(name string) bool {
	for _, d := range s.DomainExpansionHistory {
		if d == name {
			return true
		}
	}
	return false
}

// RecordExpansion appends newly added domains to the expansion history,
// skipping any already present so the history never holds duplicates.
func (s *SessionState) RecordExpansion(names []string) {
	for _, name := range names {
		if !s.InExpansionHistory(name) {
			s.DomainExpansionHistory = append(s.DomainExpansionHistory, name)
		}
	}
	s.touch()
}

// CanRetry reports whether another Evaluate->Synthesize loop is allowed.
func (s *SessionState) CanRetry() bool {
	return s.RetryCount < s.MaxRetries
}

// Transition moves the machine to next, keeping NextState as the routing
// decision trail.
func (s *SessionState) Transition(next State) {
	s.NextState = next
	s.CurrentState = next
	s.touch()
}

// Finish marks the session complete with its terminal response.
func (s *SessionState) Finish(response string) {
	s.FinalResponse = response
	s.Complete = true
	s.Transition(StateDone)
}

func (s *SessionState) touch() {
	s.UpdatedAt = time.Now()
}

// Marshal serializes the full session state for suspension. The process
// can be torn down and the session resumed arbitrarily later from this
// form alone.
func (s *SessionState) Marshal() ([]byte, error) {
	data, err := json.Marshal(s)
	if err != nil {
		return nil, fmt.Errorf("failed to serialize session %s: %w", s.ID, err)
	}
	return data, nil
}

// Unmarshal restores a session from its serialized form.
func Unmarshal(data []byte) (*SessionState, error) {
	var s SessionState
	if err := json.Unmarshal(data, &s); err != nil {
		return nil, fmt.Errorf("failed to deserialize session: %w", err)
	}
	if s.MaxRetries <= 0 {
		s.MaxRetries = DefaultMaxRetries
	}
	return &s, nil
}
