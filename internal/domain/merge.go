package domain

import (
	"fmt"
	"strings"

	"fitcoach/internal/logging"
)

// ActiveContext is the merged, read-only snapshot of all loaded domains.
// It is always replaced wholesale, never mutated in place: expansion
// rebuilds a superset from the registry rather than patching the current
// value, so the "current" and "rebuilt" contexts can never alias.
type ActiveContext struct {
	DomainsLoaded         []string            `json:"domains_loaded"`
	Vocabulary            map[string]string   `json:"vocabulary"`
	Expertise             string              `json:"expertise"`
	EvaluationRules       []string            `json:"evaluation_rules"`
	ContextGuidance       string              `json:"context_guidance"`
	ClarificationPatterns map[string][]string `json:"clarification_patterns"`
	AvailableDomains      []Info              `json:"available_domains"`

	// Schemas keeps each loaded domain's parse schema, keyed by domain
	// name, for the Parser.
	Schemas map[string]map[string]string `json:"schemas,omitempty"`
}

// BuildActiveContext merges the selected domains into one context.
//
// Merge order: the base domain first (if configured and registered), then
// each selected name in input order. Unknown names are silently ignored;
// duplicate names keep their first position. Vocabulary collisions are
// resolved later-wins and logged. Expertise and guidance blocks are
// labeled with their domain name and blank-line separated; empty blocks
// contribute nothing.
func (r *Registry) BuildActiveContext(selected []string) *ActiveContext {
	r.mu.RLock()
	defer r.mu.RUnlock()

	order := make([]string, 0, len(selected)+1)
	seen := make(map[string]bool)

	if r.baseDomain != "" {
		if _, ok := r.domains[r.baseDomain]; ok {
			order = append(order, r.baseDomain)
			seen[r.baseDomain] = true
		}
	}
	for _, name := range selected {
		if seen[name] {
			continue
		}
		if _, ok := r.domains[name]; !ok {
			logging.DomainsDebug("ignoring unknown domain %q", name)
			continue
		}
		order = append(order, name)
		seen[name] = true
	}

	ctx := &ActiveContext{
		DomainsLoaded:         order,
		Vocabulary:            make(map[string]string),
		ClarificationPatterns: make(map[string][]string),
	}

	var expertise, guidance []string
	for _, name := range order {
		cfg := r.domains[name]

		for term, normalized := range cfg.Vocabulary {
			if prev, ok := ctx.Vocabulary[term]; ok && prev != normalized {
				logging.Domains("vocabulary conflict on %q: %q overrides %q (domain %s)",
					term, normalized, prev, name)
			}
			ctx.Vocabulary[term] = normalized
		}

		if text := strings.TrimSpace(cfg.Expertise); text != "" {
			expertise = append(expertise, fmt.Sprintf("[%s]\n%s", cfg.Name, text))
		}
		if text := strings.TrimSpace(cfg.ContextGuidance); text != "" {
			guidance = append(guidance, fmt.Sprintf("[%s]\n%s", cfg.Name, text))
		}

		ctx.EvaluationRules = append(ctx.EvaluationRules, cfg.EvaluationRules...)

		for gapType, examples := range cfg.ClarificationPatterns {
			ctx.ClarificationPatterns[gapType] = append(ctx.ClarificationPatterns[gapType], examples...)
		}

		if len(cfg.Schema) > 0 {
			if ctx.Schemas == nil {
				ctx.Schemas = make(map[string]map[string]string)
			}
			ctx.Schemas[name] = cfg.Schema
		}
	}

	ctx.Expertise = strings.Join(expertise, "\n\n")
	ctx.ContextGuidance = strings.Join(guidance, "\n\n")
	ctx.AvailableDomains = r.infosLocked()

	logging.DomainsDebug("built active context: domains=%v vocab=%d rules=%d",
		ctx.DomainsLoaded, len(ctx.Vocabulary), len(ctx.EvaluationRules))
	return ctx
}

// infosLocked is Infos without re-locking; callers hold r.mu.
func (r *Registry) infosLocked() []Info {
	infos := make([]Info, 0, len(r.domains))
	for _, cfg := range r.domains {
		infos = append(infos, Info{Name: cfg.Name, Description: cfg.Description})
	}
	sortInfos(infos)
	return infos
}

// Loaded reports whether the context already includes a domain.
func (c *ActiveContext) Loaded(name string) bool {
	for _, d := range c.DomainsLoaded {
		if d == name {
			return true
		}
	}
	return false
}
