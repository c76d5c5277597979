package llm

import (
	"context"
	"fmt"
	"strings"

	"fitcoach/internal/logging"
)

// FallbackClient tries a chain of providers in order, returning the first
// successful response. A provider failure is logged and the next provider
// is tried; only when every provider fails does the call fail.
type FallbackClient struct {
	names   []string
	clients []Client
}

// NewFallbackClient builds a chain from parallel name/client slices.
func NewFallbackClient(names []string, clients []Client) (*FallbackClient, error) {
	if len(clients) == 0 {
		return nil, fmt.Errorf("at least one client is required")
	}
	if len(names) != len(clients) {
		return nil, fmt.Errorf("names and clients must have equal length")
	}
	return &FallbackClient{names: names, clients: clients}, nil
}

// Complete tries each provider in order.
func (f *FallbackClient) Complete(ctx context.Context, prompt string) (string, error) {
	return f.try(ctx, func(c Client) (string, error) {
		return c.Complete(ctx, prompt)
	})
}

// CompleteWithSystem tries each provider in order.
func (f *FallbackClient) CompleteWithSystem(ctx context.Context, systemPrompt, userPrompt string) (string, error) {
	return f.try(ctx, func(c Client) (string, error) {
		return c.CompleteWithSystem(ctx, systemPrompt, userPrompt)
	})
}

func (f *FallbackClient) try(ctx context.Context, call func(Client) (string, error)) (string, error) {
	var errs []string
	for i, c := range f.clients {
		if ctx.Err() != nil {
			return "", ctx.Err()
		}
		out, err := call(c)
		if err == nil {
			if i > 0 {
				logging.API("provider %s succeeded after %d failed attempt(s)", f.names[i], i)
			}
			return out, nil
		}
		logging.Get(logging.CategoryAPI).Warn("provider %s failed: %v", f.names[i], err)
		errs = append(errs, fmt.Sprintf("%s: %v", f.names[i], err))
	}
	return "", fmt.Errorf("all providers failed: %s", strings.Join(errs, "; "))
}
