package agents

import (
	"context"
	"fmt"
	"strings"

	"fitcoach/internal/llm"
	"fitcoach/internal/types"
)

// Observer decides whether an event should update the long-lived user
// context, and rewrites that context when it should.
type Observer struct {
	client llm.Client
}

// NewObserver creates an Observer agent.
func NewObserver(client llm.Client) *Observer {
	return &Observer{client: client}
}

const observerSystemPrompt = `You maintain the long-lived context of a fitness assistant's user: their
goals, constraints, preferences, and notable trends. Given a new event,
decide whether the context should change. Only set should_update when the
event reveals something durable; routine activity does not qualify.
When updating, return the FULL revised context, not a diff.
Respond with ONLY a JSON object:
{"should_update": false, "insights_captured": [...], "updated_context": "..."}`

// ObserveInput carries everything the Observer sees.
type ObserveInput struct {
	Trigger        string
	TriggerContext string
	CurrentContext string
	Guidance       string
}

// Observe evaluates one event against the current global context.
func (o *Observer) Observe(ctx context.Context, in ObserveInput) (*types.ObserverOutput, error) {
	var sb strings.Builder
	fmt.Fprintf(&sb, "Trigger: %s\n\n", in.Trigger)
	fmt.Fprintf(&sb, "Event:\n%s\n\n", in.TriggerContext)
	fmt.Fprintf(&sb, "Current context:\n%s\n", orNone(in.CurrentContext))
	if in.Guidance != "" {
		fmt.Fprintf(&sb, "\nGuidance:\n%s\n", in.Guidance)
	}

	var out types.ObserverOutput
	if err := completeJSON(ctx, o.client, "observer", observerSystemPrompt, sb.String(), &out); err != nil {
		return nil, err
	}
	if out.ShouldUpdate && strings.TrimSpace(out.UpdatedContext) == "" {
		return nil, &types.ValidationError{Agent: "observer", Field: "updated_context", Reason: "required when should_update is true"}
	}
	return &out, nil
}

func orNone(s string) string {
	if strings.TrimSpace(s) == "" {
		return "(empty)"
	}
	return s
}
