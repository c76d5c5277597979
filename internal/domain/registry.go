package domain

import (
	"fmt"
	"sort"
	"sync"

	"fitcoach/internal/logging"
)

// Registry holds all registered domain configs. It is safe for concurrent
// use; the loader's hot-reload path and the pipeline read it concurrently.
type Registry struct {
	mu         sync.RWMutex
	domains    map[string]Config
	baseDomain string
}

// NewRegistry creates an empty registry. baseDomain, when non-empty, is
// merged first in every built context.
func NewRegistry(baseDomain string) *Registry {
	return &Registry{
		domains:    make(map[string]Config),
		baseDomain: baseDomain,
	}
}

// Register adds or replaces a domain config.
func (r *Registry) Register(cfg Config) error {
	if cfg.Name == "" {
		return fmt.Errorf("domain config requires a name")
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, exists := r.domains[cfg.Name]; exists {
		logging.Domains("replacing domain config %q", cfg.Name)
	}
	r.domains[cfg.Name] = cfg
	return nil
}

// BaseDomain returns the configured base domain name (may be empty).
func (r *Registry) BaseDomain() string {
	return r.baseDomain
}

// Get returns the config for a domain name.
func (r *Registry) Get(name string) (Config, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	cfg, ok := r.domains[name]
	return cfg, ok
}

// Has reports whether a domain is registered.
func (r *Registry) Has(name string) bool {
	_, ok := r.Get(name)
	return ok
}

// Infos returns metadata for all registered domains, sorted by name so
// the Router's choice set is stable between calls.
func (r *Registry) Infos() []Info {
	r.mu.RLock()
	defer r.mu.RUnlock()

	return r.infosLocked()
}

func sortInfos(infos []Info) {
	sort.Slice(infos, func(i, j int) bool { return infos[i].Name < infos[j].Name })
}

// Names returns all registered domain names, sorted.
func (r *Registry) Names() []string {
	infos := r.Infos()
	names := make([]string, len(infos))
	for i, info := range infos {
		names[i] = info.Name
	}
	return names
}
