package config

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/fsnotify/fsnotify"
	"gopkg.in/yaml.v3"
)

// CatalogRegistry holds constellation templates loaded from every
// catalog/*.yaml file, with thread-safe access and optional disk
// watching so edits take effect without a server restart.
type CatalogRegistry struct {
	dir         string
	templates   map[string]*ConstellationTemplate
	bases       map[string]*BaseTemplate
	orbatUnits  map[string]*OrbatUnitTemplate
	mu          sync.RWMutex

	watcher *fsnotify.Watcher
	done    chan struct{}
}

// NewCatalogRegistry loads every catalog/*.yaml file under dir.
func NewCatalogRegistry(dir string) (*CatalogRegistry, error) {
	r := &CatalogRegistry{
		dir:        dir,
		templates:  make(map[string]*ConstellationTemplate),
		bases:      make(map[string]*BaseTemplate),
		orbatUnits: make(map[string]*OrbatUnitTemplate),
	}
	if err := r.loadAll(); err != nil {
		return nil, err
	}
	return r, nil
}

func (r *CatalogRegistry) loadAll() error {
	entries, err := os.ReadDir(r.dir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return fmt.Errorf("read catalog dir: %w", err)
	}

	templates := make(map[string]*ConstellationTemplate)
	bases := make(map[string]*BaseTemplate)
	orbatUnits := make(map[string]*OrbatUnitTemplate)
	for _, entry := range entries {
		if entry.IsDir() || !isYAMLFile(entry.Name()) {
			continue
		}
		path := filepath.Join(r.dir, entry.Name())
		data, err := os.ReadFile(path)
		if err != nil {
			return NewLoadError(path, err)
		}
		data = ExpandEnv(data)

		var parsed CatalogYAML
		if err := yaml.Unmarshal(data, &parsed); err != nil {
			return NewLoadError(path, fmt.Errorf("%w: %v", ErrInvalidYAML, err))
		}
		for i := range parsed.Constellations {
			tmpl := parsed.Constellations[i]
			templates[tmpl.Name] = &tmpl
		}
		for i := range parsed.Bases {
			base := parsed.Bases[i]
			bases[base.Name] = &base
		}
		for i := range parsed.OrbatUnits {
			unit := parsed.OrbatUnits[i]
			orbatUnits[unit.Name] = &unit
		}
	}

	r.mu.Lock()
	r.templates = templates
	r.bases = bases
	r.orbatUnits = orbatUnits
	r.mu.Unlock()
	return nil
}

func isYAMLFile(name string) bool {
	return strings.HasSuffix(name, ".yaml") || strings.HasSuffix(name, ".yml")
}

// Get retrieves a constellation template by name.
func (r *CatalogRegistry) Get(name string) (*ConstellationTemplate, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	tmpl, ok := r.templates[name]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrCatalogNotFound, name)
	}
	return tmpl, nil
}

// All returns a copy of every loaded template.
func (r *CatalogRegistry) All() []ConstellationTemplate {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]ConstellationTemplate, 0, len(r.templates))
	for _, tmpl := range r.templates {
		out = append(out, *tmpl)
	}
	return out
}

// Len reports how many templates are loaded.
func (r *CatalogRegistry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.templates)
}

// GetBase retrieves a theater base template by name.
func (r *CatalogRegistry) GetBase(name string) (*BaseTemplate, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	base, ok := r.bases[name]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrCatalogNotFound, name)
	}
	return base, nil
}

// AllBases returns a copy of every loaded theater base template.
func (r *CatalogRegistry) AllBases() []BaseTemplate {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]BaseTemplate, 0, len(r.bases))
	for _, base := range r.bases {
		out = append(out, *base)
	}
	return out
}

// GetOrbatUnit retrieves an order-of-battle unit template by name.
func (r *CatalogRegistry) GetOrbatUnit(name string) (*OrbatUnitTemplate, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	unit, ok := r.orbatUnits[name]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrCatalogNotFound, name)
	}
	return unit, nil
}

// AllOrbatUnits returns a copy of every loaded order-of-battle unit template.
func (r *CatalogRegistry) AllOrbatUnits() []OrbatUnitTemplate {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]OrbatUnitTemplate, 0, len(r.orbatUnits))
	for _, unit := range r.orbatUnits {
		out = append(out, *unit)
	}
	return out
}

// Watch starts watching the catalog directory for writes and reloads the
// registry in place whenever a .yaml/.yml file changes. It runs until
// Close is called. Safe to call at most once per registry.
func (r *CatalogRegistry) Watch() error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("create catalog watcher: %w", err)
	}
	if err := watcher.Add(r.dir); err != nil {
		watcher.Close()
		if os.IsNotExist(err) {
			return nil
		}
		return fmt.Errorf("watch catalog dir: %w", err)
	}

	r.watcher = watcher
	r.done = make(chan struct{})

	go func() {
		log := slog.With("component", "catalog_watcher", "dir", r.dir)
		for {
			select {
			case event, ok := <-watcher.Events:
				if !ok {
					return
				}
				if !isYAMLFile(event.Name) {
					continue
				}
				if event.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Remove|fsnotify.Rename) == 0 {
					continue
				}
				if err := r.loadAll(); err != nil {
					log.Error("catalog reload failed", "error", err)
					continue
				}
				log.Info("catalog reloaded", "templates", r.Len())
			case err, ok := <-watcher.Errors:
				if !ok {
					return
				}
				log.Error("catalog watcher error", "error", err)
			case <-r.done:
				return
			}
		}
	}()
	return nil
}

// Close stops the directory watcher, if running.
func (r *CatalogRegistry) Close() error {
	if r.watcher == nil {
		return nil
	}
	close(r.done)
	return r.watcher.Close()
}
