package config

import (
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"sync"
	"testing"

	"github.com/wricardo/mall-parking/wayfinder/wayfinding/engine"
)

func createValidLayout() *engine.BasementLayout {
	return &engine.BasementLayout{
		Name:        "Test Basement",
		Description: "Test layout",
		Basement:    "B1",
		Cols:        5,
		Rows:        4,
		Obstacles: []engine.ObstacleRegion{
			{Name: "Lift", Orientation: engine.Vertical, Line: 2, Span: [2]int{1, 2}},
		},
		UserStart: engine.Position{X: 0, Y: 0},
		Exit:      engine.Position{X: 5, Y: 4},
	}
}

func writeLayoutFile(t *testing.T, dir, name string, layout *engine.BasementLayout) {
	t.Helper()
	data, err := json.MarshalIndent(layout, "", "  ")
	if err != nil {
		t.Fatalf("Failed to marshal layout: %v", err)
	}
	if err := os.WriteFile(filepath.Join(dir, name+".json"), data, 0644); err != nil {
		t.Fatalf("Failed to write layout file: %v", err)
	}
}

func TestNewManager(t *testing.T) {
	t.Run("missing directory", func(t *testing.T) {
		if _, err := NewManager(filepath.Join(t.TempDir(), "nope")); err == nil {
			t.Error("Expected error for missing directory")
		}
	})

	t.Run("empty directory falls back to built-in", func(t *testing.T) {
		m, err := NewManager(t.TempDir())
		if err != nil {
			t.Fatalf("NewManager failed: %v", err)
		}
		if m.DefaultID() != BuiltinLayoutID {
			t.Errorf("Expected default id %s, got %s", BuiltinLayoutID, m.DefaultID())
		}
		if m.GetDefault().Basement != "B3" || m.GetDefault().Cols != 12 {
			t.Errorf("Expected built-in B3 basement, got %+v", m.GetDefault())
		}
	})

	t.Run("b3 file overrides built-in", func(t *testing.T) {
		dir := t.TempDir()
		custom := engine.DefaultLayout()
		custom.Description = "from disk"
		writeLayoutFile(t, dir, "b3", custom)

		m, err := NewManager(dir)
		if err != nil {
			t.Fatalf("NewManager failed: %v", err)
		}
		if m.GetDefault().Description != "from disk" {
			t.Errorf("Expected layout from disk, got %q", m.GetDefault().Description)
		}
	})
}

func TestLoadLayout(t *testing.T) {
	dir := t.TempDir()
	writeLayoutFile(t, dir, "b1", createValidLayout())

	m, err := NewManager(dir)
	if err != nil {
		t.Fatalf("NewManager failed: %v", err)
	}

	layout, err := m.LoadLayout("b1")
	if err != nil {
		t.Fatalf("LoadLayout failed: %v", err)
	}
	if layout.Basement != "B1" || len(layout.Obstacles) != 1 {
		t.Errorf("Unexpected layout: %+v", layout)
	}

	cached, _ := m.LoadLayout("b1.json")
	if cached != layout {
		t.Error("Expected the cached layout to be returned")
	}

	if _, err := m.LoadLayout("missing"); !errors.Is(err, ErrLayoutNotFound) {
		t.Errorf("Expected ErrLayoutNotFound, got %v", err)
	}
	if _, err := m.LoadLayout("../b1"); !errors.Is(err, ErrLayoutNotFound) {
		t.Errorf("Expected ErrLayoutNotFound for path, got %v", err)
	}

	builtin, err := m.LoadLayout(BuiltinLayoutID)
	if err != nil || builtin.Basement != "B3" {
		t.Errorf("Expected built-in layout, got %v %v", builtin, err)
	}
}

func TestLoadLayout_Invalid(t *testing.T) {
	dir := t.TempDir()
	bad := createValidLayout()
	bad.Cols = 40
	writeLayoutFile(t, dir, "bad", bad)

	m, _ := NewManager(dir)
	if _, err := m.LoadLayout("bad"); !errors.Is(err, ErrInvalidLayout) {
		t.Errorf("Expected ErrInvalidLayout, got %v", err)
	}
}

func TestListLayouts(t *testing.T) {
	dir := t.TempDir()
	writeLayoutFile(t, dir, "b1", createValidLayout())
	bad := createValidLayout()
	bad.Name = ""
	writeLayoutFile(t, dir, "broken", bad)
	os.WriteFile(filepath.Join(dir, "notes.txt"), []byte("ignore me"), 0644)

	m, _ := NewManager(dir)
	layouts, err := m.ListLayouts()
	if err != nil {
		t.Fatalf("ListLayouts failed: %v", err)
	}

	if len(layouts) != 2 {
		t.Fatalf("Expected b1 and the built-in b3, got %d", len(layouts))
	}
	if layouts[0].LayoutID != "b1" || layouts[0].Filename != "b1.json" || layouts[0].Obstacles != 1 {
		t.Errorf("Unexpected first layout: %+v", layouts[0])
	}
	if layouts[1].LayoutID != BuiltinLayoutID || layouts[1].Filename != "" {
		t.Errorf("Unexpected second layout: %+v", layouts[1])
	}
}

func TestSaveLayout(t *testing.T) {
	dir := t.TempDir()
	m, _ := NewManager(dir)

	layout := createValidLayout()
	if err := m.SaveLayout("b1", layout); err != nil {
		t.Fatalf("SaveLayout failed: %v", err)
	}

	if _, err := os.Stat(filepath.Join(dir, "b1.json")); err != nil {
		t.Errorf("Expected layout file on disk: %v", err)
	}

	loaded, err := m.LoadLayout("b1")
	if err != nil || loaded != layout {
		t.Errorf("Expected saved layout from cache, got %v %v", loaded, err)
	}

	if err := m.SaveLayout("bad", &engine.BasementLayout{Name: "x"}); !errors.Is(err, ErrInvalidLayout) {
		t.Errorf("Expected ErrInvalidLayout, got %v", err)
	}
	if err := m.SaveLayout("../escape", layout); !errors.Is(err, ErrInvalidLayout) {
		t.Errorf("Expected ErrInvalidLayout for path id, got %v", err)
	}

	// A fresh manager reads the file back
	fresh, _ := NewManager(dir)
	reread, err := fresh.LoadLayout("b1")
	if err != nil {
		t.Fatalf("LoadLayout failed: %v", err)
	}
	if reread.Obstacles[0].Span != [2]int{1, 2} {
		t.Errorf("Obstacle span lost on save: %+v", reread.Obstacles[0])
	}
}

func TestSetDefaultAndRefresh(t *testing.T) {
	dir := t.TempDir()
	writeLayoutFile(t, dir, "b1", createValidLayout())
	m, _ := NewManager(dir)

	if err := m.SetDefault("b1"); err != nil {
		t.Fatalf("SetDefault failed: %v", err)
	}
	if m.DefaultID() != "b1" || m.GetDefault().Basement != "B1" {
		t.Errorf("Expected b1 default, got %s", m.DefaultID())
	}
	if err := m.SetDefault("missing"); !errors.Is(err, ErrLayoutNotFound) {
		t.Errorf("Expected ErrLayoutNotFound, got %v", err)
	}

	before, _ := m.LoadLayout("b1")
	if err := m.RefreshCache(); err != nil {
		t.Fatalf("RefreshCache failed: %v", err)
	}
	after, _ := m.LoadLayout("b1")
	if before == after {
		t.Error("Expected layout to be reloaded after refresh")
	}
}

func TestConcurrentLoad(t *testing.T) {
	dir := t.TempDir()
	writeLayoutFile(t, dir, "b1", createValidLayout())
	m, _ := NewManager(dir)

	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if _, err := m.LoadLayout("b1"); err != nil {
				t.Errorf("LoadLayout failed: %v", err)
			}
			m.ListLayouts()
		}()
	}
	wg.Wait()
}
