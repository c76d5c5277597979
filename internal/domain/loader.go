package domain

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"fitcoach/internal/logging"

	"github.com/fsnotify/fsnotify"
	"gopkg.in/yaml.v3"
)

// LoadFile reads one domain config from a yaml file.
func LoadFile(path string) (Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Config{}, fmt.Errorf("failed to read domain file: %w", err)
	}
	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return Config{}, fmt.Errorf("failed to parse domain file %s: %w", path, err)
	}
	if cfg.Name == "" {
		// Fall back to the filename, minus extension.
		cfg.Name = strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
	}
	return cfg, nil
}

// LoadDir loads every *.yaml/*.yml file in dir into the registry.
// Files that fail to parse are skipped with a warning so one bad domain
// cannot take down the whole registry.
func LoadDir(registry *Registry, dir string) error {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return fmt.Errorf("failed to read domains dir: %w", err)
	}

	loaded := 0
	for _, entry := range entries {
		if entry.IsDir() || !isYAML(entry.Name()) {
			continue
		}
		path := filepath.Join(dir, entry.Name())
		cfg, err := LoadFile(path)
		if err != nil {
			logging.Get(logging.CategoryDomains).Warn("skipping %s: %v", path, err)
			continue
		}
		if err := registry.Register(cfg); err != nil {
			logging.Get(logging.CategoryDomains).Warn("skipping %s: %v", path, err)
			continue
		}
		loaded++
	}

	logging.Domains("loaded %d domain(s) from %s", loaded, dir)
	return nil
}

func isYAML(name string) bool {
	ext := strings.ToLower(filepath.Ext(name))
	return ext == ".yaml" || ext == ".yml"
}

// Watcher reloads domain files into the registry when they change on
// disk, debouncing rapid editor saves.
type Watcher struct {
	mu       sync.Mutex
	watcher  *fsnotify.Watcher
	registry *Registry
	dir      string
	debounce map[string]time.Time
	stopCh   chan struct{}
	doneCh   chan struct{}
	running  bool
}

// NewWatcher creates a watcher for the given domains directory.
func NewWatcher(registry *Registry, dir string) (*Watcher, error) {
	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}
	return &Watcher{
		watcher:  fw,
		registry: registry,
		dir:      dir,
		debounce: make(map[string]time.Time),
		stopCh:   make(chan struct{}),
		doneCh:   make(chan struct{}),
	}, nil
}

// Start begins watching. Non-blocking; the watch loop runs in a goroutine.
func (w *Watcher) Start() error {
	w.mu.Lock()
	if w.running {
		w.mu.Unlock()
		return nil
	}
	w.running = true
	w.mu.Unlock()

	if err := w.watcher.Add(w.dir); err != nil {
		return fmt.Errorf("failed to watch %s: %w", w.dir, err)
	}

	go w.loop()
	logging.Domains("watching %s for domain changes", w.dir)
	return nil
}

// Stop shuts down the watch loop and waits for it to exit.
func (w *Watcher) Stop() {
	w.mu.Lock()
	if !w.running {
		w.mu.Unlock()
		return
	}
	w.running = false
	w.mu.Unlock()

	close(w.stopCh)
	<-w.doneCh
	w.watcher.Close()
}

func (w *Watcher) loop() {
	defer close(w.doneCh)
	for {
		select {
		case <-w.stopCh:
			return
		case event, ok := <-w.watcher.Events:
			if !ok {
				return
			}
			if !isYAML(event.Name) {
				continue
			}
			if event.Op&(fsnotify.Write|fsnotify.Create) == 0 {
				continue
			}
			if w.debounced(event.Name) {
				continue
			}
			cfg, err := LoadFile(event.Name)
			if err != nil {
				logging.Get(logging.CategoryDomains).Warn("reload of %s failed: %v", event.Name, err)
				continue
			}
			if err := w.registry.Register(cfg); err != nil {
				logging.Get(logging.CategoryDomains).Warn("reload of %s failed: %v", event.Name, err)
				continue
			}
			logging.Domains("reloaded domain %q from %s", cfg.Name, event.Name)
		case err, ok := <-w.watcher.Errors:
			if !ok {
				return
			}
			logging.Get(logging.CategoryDomains).Warn("watcher error: %v", err)
		}
	}
}

// debounced reports whether an event for path arrived within the
// debounce window of the previous one.
func (w *Watcher) debounced(path string) bool {
	w.mu.Lock()
	defer w.mu.Unlock()
	now := time.Now()
	if last, ok := w.debounce[path]; ok && now.Sub(last) < 500*time.Millisecond {
		return true
	}
	w.debounce[path] = now
	return false
}
