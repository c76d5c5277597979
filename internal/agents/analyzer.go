package agents

import (
	"context"
	"fmt"
	"strings"

	"fitcoach/internal/domain"
	"fitcoach/internal/llm"
	"fitcoach/internal/types"
)

// Analyzer judges whether retrieved evidence suffices to answer the
// query, and names the gaps when it does not.
type Analyzer struct {
	client llm.Client
}

// NewAnalyzer creates an Analyzer agent.
func NewAnalyzer(client llm.Client) *Analyzer {
	return &Analyzer{client: client}
}

const analyzerSystemPrompt = `You are the evidence analyzer for a fitness question-answering pipeline.
Assess whether the retrieved entries answer the question. List findings, patterns,
and any gaps. Gap types: temporal, topical, contextual, subjective, clarification.
Mark a gap outside_current_expertise=true with a suspected_domain when the loaded
expertise cannot interpret the evidence. Give every gap a short unique id.
Verdict must be sufficient, partial, or insufficient.
Respond with ONLY a JSON object:
{"findings": [...], "patterns_identified": [...],
 "sufficiency_evaluation": {"critical_gaps": [{"id": "...", "description": "...", "type": "...", "severity": "critical", "outside_current_expertise": false, "suspected_domain": ""}], "nice_to_have_gaps": [...], "evidence_check_passed": true, "speculation_risk": "..."},
 "verdict": "...", "verdict_reasoning": "..."}`

// AnalyzeInput carries everything the Analyzer sees.
type AnalyzeInput struct {
	Query            string
	Entries          []types.Entry
	RetrievalSummary string
	DomainContext    *domain.ActiveContext
	GlobalContext    string
	UserResponses    map[string]string // populated after a clarification resume
}

// Analyze assesses the evidence.
func (a *Analyzer) Analyze(ctx context.Context, in AnalyzeInput) (*types.AnalyzerOutput, error) {
	var sb strings.Builder
	fmt.Fprintf(&sb, "Question: %s\n\n", in.Query)
	fmt.Fprintf(&sb, "Loaded domains: %s\n", strings.Join(in.DomainContext.DomainsLoaded, ", "))
	fmt.Fprintf(&sb, "Expertise:\n%s\n\n", in.DomainContext.Expertise)
	if in.DomainContext.ContextGuidance != "" {
		fmt.Fprintf(&sb, "Guidance:\n%s\n\n", in.DomainContext.ContextGuidance)
	}
	fmt.Fprintf(&sb, "Retrieval summary: %s\n", in.RetrievalSummary)
	fmt.Fprintf(&sb, "Entries:\n%s\n", renderEntries(in.Entries))
	if in.GlobalContext != "" {
		fmt.Fprintf(&sb, "Long-lived user context:\n%s\n\n", in.GlobalContext)
	}
	if len(in.UserResponses) > 0 {
		sb.WriteString("Answers the user gave to clarification questions:\n")
		for gapID, answer := range in.UserResponses {
			fmt.Fprintf(&sb, "- gap %s: %s\n", gapID, answer)
		}
	}

	var out types.AnalyzerOutput
	if err := completeJSON(ctx, a.client, "analyzer", analyzerSystemPrompt, sb.String(), &out); err != nil {
		return nil, err
	}
	if err := out.Validate(); err != nil {
		return nil, err
	}
	return &out, nil
}
