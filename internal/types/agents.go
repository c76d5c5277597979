package types

import (
	"fmt"
	"strings"
	"time"
)

// ValidationError reports a malformed agent output. It is fatal to the
// single call that produced it and is never silently coerced.
type ValidationError struct {
	Agent  string
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("%s output invalid: %s: %s", e.Agent, e.Field, e.Reason)
}

// Verdict is the Analyzer's categorical judgment of evidence sufficiency.
type Verdict string

const (
	VerdictSufficient   Verdict = "sufficient"
	VerdictPartial      Verdict = "partial"
	VerdictInsufficient Verdict = "insufficient"
)

// NextAction is the Planner's decision for the next pipeline step.
type NextAction string

const (
	ActionRetrieve     NextAction = "retrieve"
	ActionClarify      NextAction = "clarify"
	ActionSynthesize   NextAction = "synthesize"
	ActionExpandDomain NextAction = "expand_domain"
)

// RouterOutput is the Router agent's classification of a raw input.
type RouterOutput struct {
	InputType        InputType `json:"input_type"`
	SelectedDomains  []string  `json:"selected_domains"`
	LogPortion       string    `json:"log_portion,omitempty"`
	QueryPortion     string    `json:"query_portion,omitempty"`
	QueryType        string    `json:"query_type,omitempty"`
	CorrectionTarget string    `json:"correction_target,omitempty"`
	Confidence       float64   `json:"confidence"`
	Reasoning        string    `json:"reasoning,omitempty"`
}

// Validate enforces the Router contract: BOTH requires both portions and
// CORRECTION requires a target hint.
func (r *RouterOutput) Validate() error {
	switch r.InputType {
	case InputLog, InputQuery, InputBoth, InputCorrection:
	default:
		return &ValidationError{Agent: "router", Field: "input_type", Reason: fmt.Sprintf("unknown value %q", r.InputType)}
	}
	if r.InputType == InputBoth {
		if strings.TrimSpace(r.LogPortion) == "" {
			return &ValidationError{Agent: "router", Field: "log_portion", Reason: "required for input_type=both"}
		}
		if strings.TrimSpace(r.QueryPortion) == "" {
			return &ValidationError{Agent: "router", Field: "query_portion", Reason: "required for input_type=both"}
		}
	}
	if r.InputType == InputCorrection && strings.TrimSpace(r.CorrectionTarget) == "" {
		return &ValidationError{Agent: "router", Field: "correction_target", Reason: "required for input_type=correction"}
	}
	return nil
}

// PlannerOutput is the Planner agent's next-step decision.
type PlannerOutput struct {
	NextAction             NextAction          `json:"next_action"`
	Reasoning              string              `json:"reasoning,omitempty"`
	RetrievalStrategies    []RetrievalStrategy `json:"retrieval_strategies,omitempty"`
	DomainExpansionRequest []string            `json:"domain_expansion_request,omitempty"`
}

// Validate checks the Planner produced a known action with the inputs the
// action needs.
func (p *PlannerOutput) Validate() error {
	switch p.NextAction {
	case ActionRetrieve, ActionClarify, ActionSynthesize, ActionExpandDomain:
	default:
		return &ValidationError{Agent: "planner", Field: "next_action", Reason: fmt.Sprintf("unknown value %q", p.NextAction)}
	}
	if p.NextAction == ActionRetrieve && len(p.RetrievalStrategies) == 0 {
		return &ValidationError{Agent: "planner", Field: "retrieval_strategies", Reason: "required for next_action=retrieve"}
	}
	if p.NextAction == ActionExpandDomain && len(p.DomainExpansionRequest) == 0 {
		return &ValidationError{Agent: "planner", Field: "domain_expansion_request", Reason: "required for next_action=expand_domain"}
	}
	return nil
}

// RetrieverOutput is the result of executing one retrieval strategy.
type RetrieverOutput struct {
	Entries []Entry `json:"entries"`
	Summary string  `json:"summary"`
}

// SufficiencyEvaluation is the Analyzer's gap accounting.
type SufficiencyEvaluation struct {
	CriticalGaps        []Gap  `json:"critical_gaps"`
	NiceToHaveGaps      []Gap  `json:"nice_to_have_gaps"`
	EvidenceCheckPassed bool   `json:"evidence_check_passed"`
	SpeculationRisk     string `json:"speculation_risk,omitempty"`
}

// AnalyzerOutput is the Analyzer agent's assessment of retrieved evidence.
type AnalyzerOutput struct {
	Findings           []string              `json:"findings"`
	PatternsIdentified []string              `json:"patterns_identified,omitempty"`
	Sufficiency        SufficiencyEvaluation `json:"sufficiency_evaluation"`
	Verdict            Verdict               `json:"verdict"`
	VerdictReasoning   string                `json:"verdict_reasoning,omitempty"`
}

// Gaps returns critical gaps followed by nice-to-have gaps.
func (a *AnalyzerOutput) Gaps() []Gap {
	out := make([]Gap, 0, len(a.Sufficiency.CriticalGaps)+len(a.Sufficiency.NiceToHaveGaps))
	out = append(out, a.Sufficiency.CriticalGaps...)
	out = append(out, a.Sufficiency.NiceToHaveGaps...)
	return out
}

// Validate checks the Analyzer verdict is one of the known values.
func (a *AnalyzerOutput) Validate() error {
	switch a.Verdict {
	case VerdictSufficient, VerdictPartial, VerdictInsufficient:
		return nil
	default:
		return &ValidationError{Agent: "analyzer", Field: "verdict", Reason: fmt.Sprintf("unknown value %q", a.Verdict)}
	}
}

// ClarificationQuestion is one question for the user, tied to the gap it
// would resolve.
type ClarificationQuestion struct {
	GapID    string `json:"gap_id"`
	Question string `json:"question"`
}

// ClarifierOutput is the Clarifier agent's question set.
type ClarifierOutput struct {
	Questions          []ClarificationQuestion `json:"questions"`
	ContextExplanation string                  `json:"context_explanation,omitempty"`
	FallbackAction     string                  `json:"fallback_action,omitempty"`
}

// SynthesizerOutput is the drafted natural-language answer.
type SynthesizerOutput struct {
	Response   string  `json:"response"`
	Confidence float64 `json:"confidence"`
}

// Evaluation dimension names, fixed across all evaluator calls.
const (
	DimensionAccuracy     = "accuracy"
	DimensionRelevance    = "relevance"
	DimensionSafety       = "safety"
	DimensionCompleteness = "completeness"
)

// EvaluationDimension is one scored axis of a drafted response.
type EvaluationDimension struct {
	Name   string `json:"name"`
	Passed bool   `json:"passed"`
	Reason string `json:"reason,omitempty"`
}

// EvaluatorFeedback is one actionable issue found during evaluation.
// Feedback accumulates across retries so every synthesis attempt sees all
// prior issues, not just the latest.
type EvaluatorFeedback struct {
	Issue         string `json:"issue"`
	Suggestion    string `json:"suggestion"`
	AffectedClaim string `json:"affected_claim,omitempty"`
}

// EvaluatorOutput is the Evaluator agent's scoring of a drafted response.
type EvaluatorOutput struct {
	Dimensions     []EvaluationDimension `json:"dimensions"`
	OverallVerdict string                `json:"overall_verdict"`
	Feedback       []EvaluatorFeedback   `json:"feedback,omitempty"`
	Recommendation string                `json:"recommendation,omitempty"`
}

// Passed applies the strict-AND rule: every dimension must pass for the
// evaluation to pass. The model-reported overall verdict is advisory only.
func (e *EvaluatorOutput) Passed() bool {
	if len(e.Dimensions) == 0 {
		return false
	}
	for _, d := range e.Dimensions {
		if !d.Passed {
			return false
		}
	}
	return true
}

// ObserverOutput is the Observer agent's decision about the long-lived
// user context.
type ObserverOutput struct {
	ShouldUpdate     bool     `json:"should_update"`
	InsightsCaptured []string `json:"insights_captured,omitempty"`
	UpdatedContext   string   `json:"updated_context,omitempty"`
}

// ParserOutput is the Parser agent's structured reading of a log or
// correction input.
type ParserOutput struct {
	Date            string         `json:"date"`
	Timestamp       time.Time      `json:"timestamp"`
	DomainData      map[string]any `json:"domain_data"`
	Confidence      float64        `json:"confidence"`
	IsCorrection    bool           `json:"is_correction"`
	TargetEntryID   string         `json:"target_entry_id,omitempty"`
	CorrectionDelta map[string]any `json:"correction_delta,omitempty"`
}
