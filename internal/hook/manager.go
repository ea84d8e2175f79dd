package hook

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"sync"
)

// Manager discovers hooks and indexes them by the events they subscribe to.
type Manager struct {
	dir string

	mu      sync.RWMutex
	hooks   []*Hook
	byEvent map[string][]*Hook
}

// NewManager creates a Manager for hooks installed under dir.
func NewManager(dir string) *Manager {
	return &Manager{dir: dir, byEvent: map[string][]*Hook{}}
}

// Discover rescans the hook directory. Every subdirectory holding a valid
// hook.json with an executable and at least one event becomes a hook; the
// rest are skipped. A missing directory means no hooks.
func (m *Manager) Discover() error {
	entries, err := os.ReadDir(m.dir)
	if os.IsNotExist(err) {
		entries = nil
	} else if err != nil {
		return err
	}

	var hooks []*Hook
	for _, entry := range entries {
		if !entry.IsDir() {
			continue
		}
		h, err := loadHook(filepath.Join(m.dir, entry.Name()))
		if err != nil {
			continue
		}
		hooks = append(hooks, h)
	}
	sort.Slice(hooks, func(i, j int) bool {
		return hooks[i].Manifest.Name < hooks[j].Manifest.Name
	})

	byEvent := map[string][]*Hook{}
	for _, h := range hooks {
		for _, e := range h.Manifest.Events {
			byEvent[e] = append(byEvent[e], h)
		}
	}

	m.mu.Lock()
	m.hooks = hooks
	m.byEvent = byEvent
	m.mu.Unlock()
	return nil
}

func loadHook(dir string) (*Hook, error) {
	data, err := os.ReadFile(filepath.Join(dir, ManifestFile))
	if err != nil {
		return nil, err
	}

	var manifest Manifest
	if err := json.Unmarshal(data, &manifest); err != nil {
		return nil, fmt.Errorf("parse %s: %w", ManifestFile, err)
	}
	switch {
	case manifest.Name == "":
		return nil, fmt.Errorf("%s: missing name", dir)
	case manifest.Executable == "":
		return nil, fmt.Errorf("hook %s: missing executable", manifest.Name)
	case len(manifest.Events) == 0:
		return nil, fmt.Errorf("hook %s: subscribes to no events", manifest.Name)
	}

	return &Hook{
		Manifest:   manifest,
		Path:       dir,
		Executable: filepath.Join(dir, manifest.Executable),
	}, nil
}

// List returns all discovered hooks sorted by name.
func (m *Manager) List() []*Hook {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return append([]*Hook(nil), m.hooks...)
}

// ForEvent returns the hooks subscribed to event, sorted by name.
func (m *Manager) ForEvent(event string) []*Hook {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return append([]*Hook(nil), m.byEvent[event]...)
}
