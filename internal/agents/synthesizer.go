package agents

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"fitcoach/internal/llm"
	"fitcoach/internal/types"
)

// Synthesizer drafts the natural-language answer from the analysis.
type Synthesizer struct {
	client llm.Client
}

// NewSynthesizer creates a Synthesizer agent.
func NewSynthesizer(client llm.Client) *Synthesizer {
	return &Synthesizer{client: client}
}

const synthesizerSystemPrompt = `You are the answer writer for a fitness assistant. Write a grounded answer
to the user's question based strictly on the analysis findings. Never invent
data that is not in the findings. Use the vocabulary's normalized terms.
If told the answer is partial, say so explicitly and name what is missing.
Respond with ONLY a JSON object:
{"response": "...", "confidence": 0.0}`

// SynthesizeInput carries everything the Synthesizer sees.
type SynthesizeInput struct {
	Query          string
	Analysis       *types.AnalyzerOutput
	Vocabulary     map[string]string
	ResponseStyle  string
	IsPartial      bool
	UnansweredGaps []types.Gap
	// Accumulated evaluator feedback from all prior failed attempts.
	PreviousFeedback []types.EvaluatorFeedback
}

// Synthesize drafts a response.
func (s *Synthesizer) Synthesize(ctx context.Context, in SynthesizeInput) (*types.SynthesizerOutput, error) {
	var sb strings.Builder
	fmt.Fprintf(&sb, "Question: %s\n\n", in.Query)

	analysisJSON, err := json.MarshalIndent(in.Analysis, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("failed to encode analysis: %w", err)
	}
	fmt.Fprintf(&sb, "Analysis:\n%s\n\n", analysisJSON)
	fmt.Fprintf(&sb, "Vocabulary:\n%s\n", renderVocabulary(in.Vocabulary))
	if in.ResponseStyle != "" {
		fmt.Fprintf(&sb, "Response style: %s\n", in.ResponseStyle)
	}
	if in.IsPartial {
		sb.WriteString("\nThis answer is PARTIAL: domain expansion was exhausted without resolving every gap. Flag the limits clearly.\n")
	}
	if len(in.UnansweredGaps) > 0 {
		fmt.Fprintf(&sb, "\nUnanswered gaps to acknowledge:\n%s", renderGaps(in.UnansweredGaps))
	}
	if len(in.PreviousFeedback) > 0 {
		sb.WriteString("\nFeedback from earlier drafts; address ALL of it:\n")
		for _, f := range in.PreviousFeedback {
			fmt.Fprintf(&sb, "- issue: %s; suggestion: %s", f.Issue, f.Suggestion)
			if f.AffectedClaim != "" {
				fmt.Fprintf(&sb, " (claim: %s)", f.AffectedClaim)
			}
			sb.WriteString("\n")
		}
	}

	var out types.SynthesizerOutput
	if err := completeJSON(ctx, s.client, "synthesizer", synthesizerSystemPrompt, sb.String(), &out); err != nil {
		return nil, err
	}
	if strings.TrimSpace(out.Response) == "" {
		return nil, &types.ValidationError{Agent: "synthesizer", Field: "response", Reason: "empty response"}
	}
	return &out, nil
}
