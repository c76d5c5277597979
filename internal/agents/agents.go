// Package agents implements the stateless LLM-backed collaborators of
// the pipeline: Router, Planner, Retriever, Analyzer, Clarifier,
// Synthesizer, Evaluator, Observer, and Parser. Each agent formats one
// prompt, makes one client call, and parses one typed output record.
package agents

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"strings"

	"fitcoach/internal/llm"
	"fitcoach/internal/logging"
	"fitcoach/internal/types"
)

// completeJSON runs one agent call and unmarshals the JSON object found
// in the response into out.
func completeJSON(ctx context.Context, client llm.Client, agent, systemPrompt, userPrompt string, out any) error {
	timer := logging.StartTimer(logging.CategoryAgents, agent)
	defer timer.Stop()

	raw, err := client.CompleteWithSystem(ctx, systemPrompt, userPrompt)
	if err != nil {
		return fmt.Errorf("%s call failed: %w", agent, err)
	}

	jsonStr := extractJSON(raw)
	if jsonStr == "" {
		return &types.ValidationError{Agent: agent, Field: "response", Reason: "no JSON object found"}
	}
	if err := json.Unmarshal([]byte(jsonStr), out); err != nil {
		return &types.ValidationError{Agent: agent, Field: "response", Reason: fmt.Sprintf("JSON parse failed: %v", err)}
	}
	logging.AgentsDebug("%s parsed %d-byte response", agent, len(jsonStr))
	return nil
}

// extractJSON finds the first balanced JSON object in a response,
// tolerating markdown wrappers.
func extractJSON(response string) string {
	start := strings.Index(response, "{")
	if start == -1 {
		return ""
	}
	depth := 0
	for i := start; i < len(response); i++ {
		switch response[i] {
		case '{':
			depth++
		case '}':
			depth--
			if depth == 0 {
				return response[start : i+1]
			}
		}
	}
	return ""
}

// renderVocabulary formats a term mapping for a prompt, sorted for
// stable output.
func renderVocabulary(vocab map[string]string) string {
	if len(vocab) == 0 {
		return "(none)"
	}
	terms := make([]string, 0, len(vocab))
	for term := range vocab {
		terms = append(terms, term)
	}
	sort.Strings(terms)

	var sb strings.Builder
	for _, term := range terms {
		fmt.Fprintf(&sb, "- %s -> %s\n", term, vocab[term])
	}
	return sb.String()
}

// renderEntries formats retrieved entries for a prompt.
func renderEntries(entries []types.Entry) string {
	if len(entries) == 0 {
		return "(no entries)"
	}
	var sb strings.Builder
	for _, e := range entries {
		data, _ := json.Marshal(e.DomainData)
		fmt.Fprintf(&sb, "- [%s] %s | %s\n", e.ID, e.RawText, data)
	}
	return sb.String()
}

// renderGaps formats gaps for a prompt.
func renderGaps(gaps []types.Gap) string {
	if len(gaps) == 0 {
		return "(none)"
	}
	var sb strings.Builder
	for _, g := range gaps {
		fmt.Fprintf(&sb, "- id=%s type=%s severity=%s: %s\n", g.ID, g.Type, g.Severity, g.Description)
	}
	return sb.String()
}
