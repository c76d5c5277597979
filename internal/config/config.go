// Package config loads fitcoach configuration from .fitcoach/config.yaml.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"gopkg.in/yaml.v3"
)

// Config holds all fitcoach configuration.
type Config struct {
	Name    string `yaml:"name"`
	Version string `yaml:"version"`

	// LLM provider configuration
	LLM LLMConfig `yaml:"llm"`

	// Storage settings
	Storage StorageConfig `yaml:"storage"`

	// Domain module settings
	Domains DomainsConfig `yaml:"domains"`

	// Pipeline tuning
	Pipeline PipelineConfig `yaml:"pipeline"`

	// Logging
	Logging LoggingConfig `yaml:"logging"`
}

// LLMConfig configures the LLM provider chain.
type LLMConfig struct {
	Provider  string   `yaml:"provider"` // gemini, openai
	APIKey    string   `yaml:"api_key"`
	Model     string   `yaml:"model"`
	BaseURL   string   `yaml:"base_url"`
	Timeout   string   `yaml:"timeout"`
	Fallbacks []string `yaml:"fallbacks"` // Providers tried in order after the primary fails
}

// StorageConfig configures the SQLite store.
type StorageConfig struct {
	DatabasePath string `yaml:"database_path"`
}

// DomainsConfig configures the domain registry.
type DomainsConfig struct {
	Dir        string `yaml:"dir"`         // Directory of per-domain yaml files
	BaseDomain string `yaml:"base_domain"` // Always merged first when set
	HotReload  bool   `yaml:"hot_reload"`  // Watch the dir for changes
}

// PipelineConfig tunes the session state machine.
type PipelineConfig struct {
	MaxRetries       int    `yaml:"max_retries"`        // Evaluate->Synthesize retry bound (default 2)
	MaxClarifyAsks   int    `yaml:"max_clarify_asks"`   // Questions per clarification round (default 3)
	MaxSteps         int    `yaml:"max_steps"`          // Safety valve on machine iterations (default 50)
	ResponseStyle    string `yaml:"response_style"`     // Passed to the Synthesizer
	RecentEntryCount int    `yaml:"recent_entry_count"` // Disambiguation window for corrections (default 10)
}

// LoggingConfig mirrors logging.loggingConfig.
type LoggingConfig struct {
	DebugMode  bool            `yaml:"debug_mode"`
	Categories map[string]bool `yaml:"categories"`
	Level      string          `yaml:"level"`
}

// DefaultConfig returns a config with sensible defaults rooted at workspace.
func DefaultConfig(workspace string) *Config {
	return &Config{
		Name:    "fitcoach",
		Version: "0.1.0",
		LLM: LLMConfig{
			Provider: "gemini",
			Model:    "gemini-2.0-flash",
			Timeout:  "120s",
		},
		Storage: StorageConfig{
			DatabasePath: filepath.Join(workspace, ".fitcoach", "fitcoach.db"),
		},
		Domains: DomainsConfig{
			Dir:        filepath.Join(workspace, ".fitcoach", "domains"),
			BaseDomain: "general_fitness",
		},
		Pipeline: PipelineConfig{
			MaxRetries:       2,
			MaxClarifyAsks:   3,
			MaxSteps:         50,
			ResponseStyle:    "concise, evidence-grounded",
			RecentEntryCount: 10,
		},
		Logging: LoggingConfig{
			Level: "info",
		},
	}
}

// ConfigPath returns the path of the config file under workspace.
func ConfigPath(workspace string) string {
	return filepath.Join(workspace, ".fitcoach", "config.yaml")
}

// Load reads config.yaml from the workspace, applying defaults for any
// missing sections and environment overrides for API keys. A missing file
// is not an error; defaults are returned.
func Load(workspace string) (*Config, error) {
	cfg := DefaultConfig(workspace)

	data, err := os.ReadFile(ConfigPath(workspace))
	if err != nil {
		if os.IsNotExist(err) {
			applyEnvOverrides(cfg)
			return cfg, nil
		}
		return nil, fmt.Errorf("failed to read config: %w", err)
	}

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}

	applyDefaults(cfg, workspace)
	applyEnvOverrides(cfg)
	return cfg, nil
}

// Save writes the config back to the workspace.
func Save(cfg *Config, workspace string) error {
	path := ConfigPath(workspace)
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("failed to create config dir: %w", err)
	}
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}
	return os.WriteFile(path, data, 0644)
}

func applyDefaults(cfg *Config, workspace string) {
	def := DefaultConfig(workspace)
	if cfg.LLM.Provider == "" {
		cfg.LLM.Provider = def.LLM.Provider
	}
	if cfg.LLM.Model == "" {
		cfg.LLM.Model = def.LLM.Model
	}
	if cfg.LLM.Timeout == "" {
		cfg.LLM.Timeout = def.LLM.Timeout
	}
	if cfg.Storage.DatabasePath == "" {
		cfg.Storage.DatabasePath = def.Storage.DatabasePath
	}
	if cfg.Domains.Dir == "" {
		cfg.Domains.Dir = def.Domains.Dir
	}
	if cfg.Pipeline.MaxRetries <= 0 {
		cfg.Pipeline.MaxRetries = def.Pipeline.MaxRetries
	}
	if cfg.Pipeline.MaxClarifyAsks <= 0 {
		cfg.Pipeline.MaxClarifyAsks = def.Pipeline.MaxClarifyAsks
	}
	if cfg.Pipeline.MaxSteps <= 0 {
		cfg.Pipeline.MaxSteps = def.Pipeline.MaxSteps
	}
	if cfg.Pipeline.RecentEntryCount <= 0 {
		cfg.Pipeline.RecentEntryCount = def.Pipeline.RecentEntryCount
	}
	if cfg.Pipeline.ResponseStyle == "" {
		cfg.Pipeline.ResponseStyle = def.Pipeline.ResponseStyle
	}
}

// applyEnvOverrides lets API keys come from the environment so they stay
// out of config files.
func applyEnvOverrides(cfg *Config) {
	if key := os.Getenv("FITCOACH_API_KEY"); key != "" {
		cfg.LLM.APIKey = key
		return
	}
	if cfg.LLM.APIKey != "" {
		return
	}
	switch cfg.LLM.Provider {
	case "openai":
		cfg.LLM.APIKey = os.Getenv("OPENAI_API_KEY")
	default:
		cfg.LLM.APIKey = os.Getenv("GEMINI_API_KEY")
	}
}

// LLMTimeout parses the configured LLM timeout, defaulting to 2 minutes.
func (c *Config) LLMTimeout() time.Duration {
	d, err := time.ParseDuration(c.LLM.Timeout)
	if err != nil || d <= 0 {
		return 2 * time.Minute
	}
	return d
}
