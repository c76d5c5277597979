package agents

import (
	"context"
	"fmt"
	"strings"

	"fitcoach/internal/llm"
	"fitcoach/internal/types"
)

// MaxClarificationQuestions bounds one clarification round unless
// overridden via SetMaxQuestions.
const MaxClarificationQuestions = 3

// Clarifier turns user-resolvable gaps into questions for the user.
type Clarifier struct {
	client       llm.Client
	maxQuestions int
}

// NewClarifier creates a Clarifier agent.
func NewClarifier(client llm.Client) *Clarifier {
	return &Clarifier{client: client, maxQuestions: MaxClarificationQuestions}
}

// SetMaxQuestions overrides the per-round question bound.
func (c *Clarifier) SetMaxQuestions(n int) {
	if n > 0 {
		c.maxQuestions = n
	}
}

const clarifierSystemPrompt = `You are the clarifier for a fitness assistant. Turn the listed gaps into
at most %d short, concrete questions the user can answer in one line. Reference
each gap by its id. Explain briefly why you are asking, and state the fallback
(what happens if the user declines).
Respond with ONLY a JSON object:
{"questions": [{"gap_id": "...", "question": "..."}], "context_explanation": "...", "fallback_action": "..."}`

// ClarifyInput carries everything the Clarifier sees.
type ClarifyInput struct {
	Gaps                   []types.Gap
	Vocabulary             map[string]string
	RetrievalHistory       []types.RetrievalAttempt
	PreviousClarifications []types.ClarificationQuestion
	ClarificationPatterns  map[string][]string
}

// Clarify produces questions for the user-resolvable gaps only
// (subjective and clarification types); other gap types are dropped
// before the call. The output is clamped to the configured maximum.
func (c *Clarifier) Clarify(ctx context.Context, in ClarifyInput) (*types.ClarifierOutput, error) {
	askable := make([]types.Gap, 0, len(in.Gaps))
	for _, g := range in.Gaps {
		if g.UserResolvable() {
			askable = append(askable, g)
		}
	}
	if len(askable) == 0 {
		return nil, &types.ValidationError{Agent: "clarifier", Field: "gaps", Reason: "no user-resolvable gaps to ask about"}
	}

	var sb strings.Builder
	fmt.Fprintf(&sb, "Gaps to resolve:\n%s\n", renderGaps(askable))
	fmt.Fprintf(&sb, "Vocabulary:\n%s\n", renderVocabulary(in.Vocabulary))

	if len(in.RetrievalHistory) > 0 {
		sb.WriteString("What has already been looked up:\n")
		for _, attempt := range in.RetrievalHistory {
			fmt.Fprintf(&sb, "- %s\n", attempt.Summary)
		}
		sb.WriteString("\n")
	}
	if len(in.PreviousClarifications) > 0 {
		sb.WriteString("Questions already asked (do not repeat):\n")
		for _, q := range in.PreviousClarifications {
			fmt.Fprintf(&sb, "- %s\n", q.Question)
		}
		sb.WriteString("\n")
	}
	for _, g := range askable {
		if examples, ok := in.ClarificationPatterns[string(g.Type)]; ok && len(examples) > 0 {
			fmt.Fprintf(&sb, "Example questions for %s gaps:\n", g.Type)
			for _, ex := range examples {
				fmt.Fprintf(&sb, "- %s\n", ex)
			}
			sb.WriteString("\n")
		}
	}

	system := fmt.Sprintf(clarifierSystemPrompt, c.maxQuestions)
	var out types.ClarifierOutput
	if err := completeJSON(ctx, c.client, "clarifier", system, sb.String(), &out); err != nil {
		return nil, err
	}
	if len(out.Questions) == 0 {
		return nil, &types.ValidationError{Agent: "clarifier", Field: "questions", Reason: "empty question list"}
	}
	if len(out.Questions) > c.maxQuestions {
		out.Questions = out.Questions[:c.maxQuestions]
	}
	return &out, nil
}
