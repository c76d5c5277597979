// Package domain manages pluggable subject-matter configurations and the
// merged context the agents consume. A domain bundles vocabulary,
// expertise text, evaluation rules, and clarification examples for one
// topic area (strength, running, nutrition, ...).
package domain

// Config is one domain's configuration, loaded from a yaml file.
type Config struct {
	Name        string `yaml:"name"`
	Description string `yaml:"description"`

	// Vocabulary maps user-facing terms to normalized terms.
	Vocabulary map[string]string `yaml:"vocabulary"`

	// Expertise is free text describing what this domain knows.
	Expertise string `yaml:"expertise"`

	// EvaluationRules are appended verbatim to the Evaluator's rule list.
	EvaluationRules []string `yaml:"evaluation_rules"`

	// ContextGuidance steers the Analyzer within this domain.
	ContextGuidance string `yaml:"context_guidance"`

	// ClarificationPatterns maps gap type -> example questions.
	ClarificationPatterns map[string][]string `yaml:"clarification_patterns"`

	// Schema describes the structured fields the Parser should extract
	// for log entries in this domain (field name -> description).
	Schema map[string]string `yaml:"schema"`
}

// Info is the metadata exposed to the Router's choice set.
type Info struct {
	Name        string `json:"name"`
	Description string `json:"description"`
}
