package agents

import (
	"context"
	"fmt"
	"strings"
	"time"

	"fitcoach/internal/domain"
	"fitcoach/internal/llm"
	"fitcoach/internal/types"
)

// Parser turns free-text log entries into structured records, and in
// correction mode resolves which earlier entry a correction targets.
type Parser struct {
	client llm.Client
}

// NewParser creates a Parser agent.
func NewParser(client llm.Client) *Parser {
	return &Parser{client: client}
}

const parserSystemPrompt = `You parse fitness log text into a structured record following the domain
schemas. Use the vocabulary's normalized terms for exercise names.
In correction mode, identify which recent entry the user is correcting: set
is_correction=true, target_entry_id to that entry's id, and correction_delta
to ONLY the fields being changed.
Respond with ONLY a JSON object:
{"date": "YYYY-MM-DD", "domain_data": {...}, "confidence": 0.0,
 "is_correction": false, "target_entry_id": "...", "correction_delta": {...}}`

// ParseInput carries everything the Parser sees.
type ParseInput struct {
	RawInput      string
	Timestamp     time.Time
	DomainContext *domain.ActiveContext
	// Correction mode fields.
	CorrectionMode   bool
	CorrectionTarget string
	RecentEntries    []types.Entry
}

// Parse produces a structured record from raw log text.
func (p *Parser) Parse(ctx context.Context, in ParseInput) (*types.ParserOutput, error) {
	var sb strings.Builder
	fmt.Fprintf(&sb, "Logged at: %s\n\n", in.Timestamp.Format(time.RFC3339))
	fmt.Fprintf(&sb, "Text:\n%s\n\n", in.RawInput)
	fmt.Fprintf(&sb, "Vocabulary:\n%s\n", renderVocabulary(in.DomainContext.Vocabulary))

	sb.WriteString("Domain schemas:\n")
	writeSchemas(&sb, in.DomainContext)

	if in.CorrectionMode {
		sb.WriteString("\nCORRECTION MODE. The user is correcting an earlier entry.\n")
		fmt.Fprintf(&sb, "Correction hint: %s\n", in.CorrectionTarget)
		fmt.Fprintf(&sb, "Recent entries to disambiguate against:\n%s", renderEntries(in.RecentEntries))
	}

	var out types.ParserOutput
	if err := completeJSON(ctx, p.client, "parser", parserSystemPrompt, sb.String(), &out); err != nil {
		return nil, err
	}

	if out.Date == "" {
		out.Date = in.Timestamp.Format("2006-01-02")
	}
	if out.Timestamp.IsZero() {
		out.Timestamp = in.Timestamp
	}
	if !in.CorrectionMode && len(out.DomainData) == 0 {
		return nil, &types.ValidationError{Agent: "parser", Field: "domain_data", Reason: "empty parse result"}
	}
	return &out, nil
}

// writeSchemas renders per-domain parse schemas. Schemas live on the
// domain configs, reachable through the registry snapshot in the context.
func writeSchemas(sb *strings.Builder, ctx *domain.ActiveContext) {
	if len(ctx.Schemas) == 0 {
		sb.WriteString("(free-form: capture exercise, sets, reps, weight, duration, distance as applicable)\n")
		return
	}
	for _, name := range ctx.DomainsLoaded {
		fields, ok := ctx.Schemas[name]
		if !ok || len(fields) == 0 {
			continue
		}
		fmt.Fprintf(sb, "[%s]\n", name)
		for field, desc := range fields {
			fmt.Fprintf(sb, "  %s: %s\n", field, desc)
		}
	}
}
