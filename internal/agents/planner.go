package agents

import (
	"context"
	"fmt"
	"strings"

	"fitcoach/internal/domain"
	"fitcoach/internal/llm"
	"fitcoach/internal/types"
)

// Planner decides the next pipeline step for a query.
type Planner struct {
	client llm.Client
}

// NewPlanner creates a Planner agent.
func NewPlanner(client llm.Client) *Planner {
	return &Planner{client: client}
}

const plannerSystemPrompt = `You are the planner for a fitness question-answering pipeline.
Given the user's question and the current expertise context, decide the next action:
- retrieve: look up log entries; include retrieval_strategies, each {"kind": "date_range"|"keyword"|"recent", "keyword": "...", "start_date": "YYYY-MM-DD", "end_date": "YYYY-MM-DD", "limit": 10, "description": "..."}. date_range needs both dates, keyword needs a keyword, recent takes only a limit.
- clarify: the question cannot be answered without asking the user something.
- synthesize: enough evidence is already on hand; write the answer.
- expand_domain: the question needs expertise from a domain not yet loaded; include domain_expansion_request with domain names from the available list.
Respond with ONLY a JSON object:
{"next_action": "...", "reasoning": "...", "retrieval_strategies": [...], "domain_expansion_request": [...]}`

// PlanInput carries everything the Planner sees.
type PlanInput struct {
	Query            string
	DomainContext    *domain.ActiveContext
	Feedback         string // Analyzer verdict reasoning from the previous iteration
	RetrievalHistory []types.RetrievalAttempt
}

// Plan produces the next-step decision.
func (p *Planner) Plan(ctx context.Context, in PlanInput) (*types.PlannerOutput, error) {
	var sb strings.Builder
	fmt.Fprintf(&sb, "Question: %s\n\n", in.Query)
	fmt.Fprintf(&sb, "Loaded domains: %s\n", strings.Join(in.DomainContext.DomainsLoaded, ", "))
	fmt.Fprintf(&sb, "Expertise:\n%s\n\n", in.DomainContext.Expertise)

	if len(in.DomainContext.AvailableDomains) > 0 {
		sb.WriteString("Available domains for expansion:\n")
		for _, info := range in.DomainContext.AvailableDomains {
			fmt.Fprintf(&sb, "- %s: %s\n", info.Name, info.Description)
		}
		sb.WriteString("\n")
	}

	if len(in.RetrievalHistory) > 0 {
		sb.WriteString("Retrievals already executed:\n")
		for _, attempt := range in.RetrievalHistory {
			fmt.Fprintf(&sb, "- %s: %s (%d entries)\n",
				attempt.Strategy.Kind, attempt.Summary, attempt.EntryCount)
		}
		sb.WriteString("\n")
	}
	if in.Feedback != "" {
		fmt.Fprintf(&sb, "Feedback from the last analysis:\n%s\n", in.Feedback)
	}

	var out types.PlannerOutput
	if err := completeJSON(ctx, p.client, "planner", plannerSystemPrompt, sb.String(), &out); err != nil {
		return nil, err
	}
	if err := out.Validate(); err != nil {
		return nil, err
	}
	return &out, nil
}
