package agents

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"fitcoach/internal/llm"
	"fitcoach/internal/types"
)

// Evaluator scores a drafted response across four fixed dimensions.
type Evaluator struct {
	client llm.Client
}

// NewEvaluator creates an Evaluator agent.
func NewEvaluator(client llm.Client) *Evaluator {
	return &Evaluator{client: client}
}

const evaluatorSystemPrompt = `You are the response evaluator for a fitness assistant. Score the draft on
exactly these four dimensions: accuracy, relevance, safety, completeness.
A dimension passes only if the draft fully satisfies it. For each failure add
feedback {"issue": "...", "suggestion": "...", "affected_claim": "..."}.
Apply every evaluation rule listed.
Respond with ONLY a JSON object:
{"dimensions": [{"name": "accuracy", "passed": true, "reason": "..."}, ...],
 "overall_verdict": "pass"|"fail", "feedback": [...], "recommendation": "..."}`

// EvaluateInput carries everything the Evaluator sees.
type EvaluateInput struct {
	Query            string
	Response         string
	Analysis         *types.AnalyzerOutput
	EntriesSummary   string
	Rules            []string
	PreviousFeedback []types.EvaluatorFeedback
	AttemptNumber    int
}

// Evaluate scores a draft. The strict-AND pass rule is applied by the
// caller via EvaluatorOutput.Passed.
func (e *Evaluator) Evaluate(ctx context.Context, in EvaluateInput) (*types.EvaluatorOutput, error) {
	var sb strings.Builder
	fmt.Fprintf(&sb, "Question: %s\n\n", in.Query)
	fmt.Fprintf(&sb, "Draft response (attempt %d):\n%s\n\n", in.AttemptNumber, in.Response)

	analysisJSON, err := json.MarshalIndent(in.Analysis, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("failed to encode analysis: %w", err)
	}
	fmt.Fprintf(&sb, "Analysis the draft must be grounded in:\n%s\n\n", analysisJSON)
	fmt.Fprintf(&sb, "Evidence summary: %s\n\n", in.EntriesSummary)

	if len(in.Rules) > 0 {
		sb.WriteString("Evaluation rules:\n")
		for _, rule := range in.Rules {
			fmt.Fprintf(&sb, "- %s\n", rule)
		}
		sb.WriteString("\n")
	}
	if len(in.PreviousFeedback) > 0 {
		sb.WriteString("Feedback already issued on earlier attempts:\n")
		for _, f := range in.PreviousFeedback {
			fmt.Fprintf(&sb, "- %s\n", f.Issue)
		}
	}

	var out types.EvaluatorOutput
	if err := completeJSON(ctx, e.client, "evaluator", evaluatorSystemPrompt, sb.String(), &out); err != nil {
		return nil, err
	}
	if len(out.Dimensions) != 4 {
		return nil, &types.ValidationError{Agent: "evaluator", Field: "dimensions", Reason: fmt.Sprintf("expected 4 dimensions, got %d", len(out.Dimensions))}
	}
	return &out, nil
}
