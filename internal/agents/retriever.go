package agents

import (
	"context"
	"fmt"

	"fitcoach/internal/logging"
	"fitcoach/internal/types"
)

// EntryStore is the slice of the storage repository the Retriever needs.
type EntryStore interface {
	GetEntriesByDateRange(start, end string) ([]types.Entry, error)
	GetEntriesByPattern(keyword string, limit int) ([]types.Entry, error)
	GetRecentEntries(n int) ([]types.Entry, error)
}

// Retriever executes retrieval strategies against the entry store. It is
// the one agent with no LLM call: strategies are already structured, so
// execution is a plain storage lookup plus a summary.
type Retriever struct {
	store EntryStore
}

// NewRetriever creates a Retriever over the given store.
func NewRetriever(store EntryStore) *Retriever {
	return &Retriever{store: store}
}

// Retrieve executes one strategy.
func (r *Retriever) Retrieve(ctx context.Context, strategy types.RetrievalStrategy) (*types.RetrieverOutput, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	var entries []types.Entry
	var err error
	switch strategy.Kind {
	case "date_range":
		if strategy.StartDate == "" || strategy.EndDate == "" {
			return nil, &types.ValidationError{Agent: "retriever", Field: "strategy", Reason: "date_range requires start_date and end_date"}
		}
		entries, err = r.store.GetEntriesByDateRange(strategy.StartDate, strategy.EndDate)
	case "keyword":
		if strategy.Keyword == "" {
			return nil, &types.ValidationError{Agent: "retriever", Field: "strategy", Reason: "keyword strategy requires a keyword"}
		}
		entries, err = r.store.GetEntriesByPattern(strategy.Keyword, strategy.Limit)
	case "recent":
		entries, err = r.store.GetRecentEntries(strategy.Limit)
	default:
		return nil, &types.ValidationError{Agent: "retriever", Field: "strategy", Reason: fmt.Sprintf("unknown kind %q", strategy.Kind)}
	}
	if err != nil {
		return nil, fmt.Errorf("retrieval failed: %w", err)
	}

	summary := summarize(strategy, entries)
	logging.AgentsDebug("retriever: %s", summary)
	return &types.RetrieverOutput{Entries: entries, Summary: summary}, nil
}

func summarize(strategy types.RetrievalStrategy, entries []types.Entry) string {
	var scope string
	switch strategy.Kind {
	case "date_range":
		scope = fmt.Sprintf("%s to %s", strategy.StartDate, strategy.EndDate)
	case "keyword":
		scope = fmt.Sprintf("keyword %q", strategy.Keyword)
	default:
		scope = strategy.Kind
	}
	if len(entries) == 0 {
		return fmt.Sprintf("no entries found for %s", scope)
	}
	return fmt.Sprintf("%d entries for %s (%s .. %s)",
		len(entries), scope, entries[0].Date, entries[len(entries)-1].Date)
}
