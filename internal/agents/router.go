package agents

import (
	"context"
	"fmt"
	"strings"

	"fitcoach/internal/domain"
	"fitcoach/internal/llm"
	"fitcoach/internal/types"
)

// Router classifies a raw user input and selects the relevant domains.
type Router struct {
	client llm.Client
}

// NewRouter creates a Router agent.
func NewRouter(client llm.Client) *Router {
	return &Router{client: client}
}

const routerSystemPrompt = `You are the input router for a fitness tracking assistant.
Classify the user's message as exactly one of: log, query, both, correction.
- log: the user records something they did.
- query: the user asks a question about their history or training.
- both: the message contains a log AND a question; split it into log_portion and query_portion.
- correction: the user is fixing a previously logged entry; extract the correction_target hint.
Also select the matching domains from the available list.
Respond with ONLY a JSON object:
{"input_type": "...", "selected_domains": ["..."], "log_portion": "...", "query_portion": "...", "query_type": "...", "correction_target": "...", "confidence": 0.0, "reasoning": "..."}`

// Route classifies rawInput against the available domains.
// sessionContext may carry recent conversation hints and can be empty.
func (r *Router) Route(ctx context.Context, rawInput string, available []domain.Info, sessionContext string) (*types.RouterOutput, error) {
	var sb strings.Builder
	sb.WriteString("Available domains:\n")
	for _, info := range available {
		fmt.Fprintf(&sb, "- %s: %s\n", info.Name, info.Description)
	}
	if sessionContext != "" {
		fmt.Fprintf(&sb, "\nRecent context:\n%s\n", sessionContext)
	}
	fmt.Fprintf(&sb, "\nUser message:\n%s\n", rawInput)

	var out types.RouterOutput
	if err := completeJSON(ctx, r.client, "router", routerSystemPrompt, sb.String(), &out); err != nil {
		return nil, err
	}
	if err := out.Validate(); err != nil {
		return nil, err
	}
	return &out, nil
}
