// Package llm provides the LLM provider clients used by the agents.
// The pipeline never talks to a provider directly; agents format prompts
// and call a Client, and the factory assembles the provider chain from
// config.
package llm

import "context"

// Client defines the interface for LLM providers.
type Client interface {
	Complete(ctx context.Context, prompt string) (string, error)
	CompleteWithSystem(ctx context.Context, systemPrompt, userPrompt string) (string, error)
}
