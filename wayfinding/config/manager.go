package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"

	"github.com/wricardo/mall-parking/wayfinder/wayfinding/engine"
	"github.com/wricardo/mall-parking/wayfinder/wayfinding/service"
)

var (
	ErrLayoutNotFound = errors.New("layout not found")
	ErrInvalidLayout  = engine.ErrInvalidLayout
)

// BuiltinLayoutID names the compiled-in mall basement, always loadable
const BuiltinLayoutID = "b3"

// Manager handles basement layout loading and caching
type Manager struct {
	layoutDir     string
	defaultID     string
	defaultLayout *engine.BasementLayout
	layouts       map[string]*engine.BasementLayout
	mu            sync.RWMutex
}

// NewManager creates a new layout manager
func NewManager(layoutDir string) (*Manager, error) {
	if _, err := os.Stat(layoutDir); os.IsNotExist(err) {
		return nil, fmt.Errorf("layout directory does not exist: %s", layoutDir)
	}

	m := &Manager{
		layoutDir: layoutDir,
		layouts:   make(map[string]*engine.BasementLayout),
	}

	if err := m.loadDefaultLayout(); err != nil {
		return nil, fmt.Errorf("failed to load default layout: %w", err)
	}

	return m, nil
}

// LoadLayout loads a layout by name
func (m *Manager) LoadLayout(name string) (*engine.BasementLayout, error) {
	name = strings.TrimSuffix(name, ".json")
	if name == "" || strings.ContainsAny(name, `/\`) {
		return nil, fmt.Errorf("%w: %q", ErrLayoutNotFound, name)
	}

	m.mu.RLock()
	if layout, exists := m.layouts[name]; exists {
		m.mu.RUnlock()
		return layout, nil
	}
	m.mu.RUnlock()

	m.mu.Lock()
	defer m.mu.Unlock()

	// Double-check after acquiring write lock
	if layout, exists := m.layouts[name]; exists {
		return layout, nil
	}

	layout, err := engine.LoadLayoutFile(m.layoutPath(name))
	if err != nil {
		if os.IsNotExist(err) {
			if name == BuiltinLayoutID {
				layout = engine.DefaultLayout()
				m.layouts[name] = layout
				return layout, nil
			}
			return nil, fmt.Errorf("%w: %s", ErrLayoutNotFound, name)
		}
		return nil, err
	}

	m.layouts[name] = layout
	return layout, nil
}

// ListLayouts returns information about all available layouts
func (m *Manager) ListLayouts() ([]*service.LayoutInfo, error) {
	entries, err := os.ReadDir(m.layoutDir)
	if err != nil {
		return nil, fmt.Errorf("failed to read layout directory: %w", err)
	}

	var layouts []*service.LayoutInfo
	seenBuiltin := false

	for _, entry := range entries {
		if entry.IsDir() || !strings.HasSuffix(entry.Name(), ".json") {
			continue
		}

		name := strings.TrimSuffix(entry.Name(), ".json")
		layout, err := m.LoadLayout(name)
		if err != nil {
			// Skip invalid layouts
			continue
		}
		if name == BuiltinLayoutID {
			seenBuiltin = true
		}

		layouts = append(layouts, layoutInfo(entry.Name(), name, layout))
	}

	if !seenBuiltin {
		layouts = append(layouts, layoutInfo("", BuiltinLayoutID, engine.DefaultLayout()))
	}

	sort.Slice(layouts, func(i, j int) bool {
		return layouts[i].LayoutID < layouts[j].LayoutID
	})
	return layouts, nil
}

// GetDefault returns the default layout
func (m *Manager) GetDefault() *engine.BasementLayout {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.defaultLayout
}

// DefaultID returns the id of the default layout
func (m *Manager) DefaultID() string {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.defaultID
}

// SetDefault sets the default layout by name
func (m *Manager) SetDefault(name string) error {
	layout, err := m.LoadLayout(name)
	if err != nil {
		return err
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	m.defaultID = strings.TrimSuffix(name, ".json")
	m.defaultLayout = layout
	return nil
}

// RefreshCache drops every cached layout and reloads the default from disk
func (m *Manager) RefreshCache() error {
	m.mu.Lock()
	m.layouts = make(map[string]*engine.BasementLayout)
	m.mu.Unlock()

	return m.loadDefaultLayout()
}

// SaveLayout validates a layout and writes it to disk
func (m *Manager) SaveLayout(name string, layout *engine.BasementLayout) error {
	if err := engine.ValidateLayout(layout); err != nil {
		return err
	}
	name = strings.TrimSuffix(name, ".json")
	if name == "" || strings.ContainsAny(name, `/\`) {
		return fmt.Errorf("%w: bad layout id %q", ErrInvalidLayout, name)
	}

	data, err := json.MarshalIndent(layout, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal layout: %w", err)
	}

	if err := os.WriteFile(m.layoutPath(name), data, 0644); err != nil {
		return fmt.Errorf("failed to write layout file: %w", err)
	}

	m.mu.Lock()
	m.layouts[name] = layout
	if m.defaultID == name {
		m.defaultLayout = layout
	}
	m.mu.Unlock()

	return nil
}

// loadDefaultLayout prefers b3.json, then the first valid file, then the built-in basement
func (m *Manager) loadDefaultLayout() error {
	id := BuiltinLayoutID
	layout, err := m.LoadLayout(id)
	if err != nil {
		layouts, listErr := m.ListLayouts()
		if listErr != nil || len(layouts) == 0 {
			id, layout = BuiltinLayoutID, engine.DefaultLayout()
		} else {
			id = layouts[0].LayoutID
			if layout, err = m.LoadLayout(id); err != nil {
				id, layout = BuiltinLayoutID, engine.DefaultLayout()
			}
		}
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	m.defaultID = id
	m.defaultLayout = layout
	return nil
}

func (m *Manager) layoutPath(name string) string {
	return filepath.Join(m.layoutDir, name+".json")
}

func layoutInfo(filename, id string, layout *engine.BasementLayout) *service.LayoutInfo {
	return &service.LayoutInfo{
		Filename:    filename,
		LayoutID:    id,
		Name:        layout.Name,
		Description: layout.Description,
		Basement:    layout.Basement,
		Cols:        layout.Cols,
		Rows:        layout.Rows,
		Obstacles:   len(layout.Obstacles),
	}
}
