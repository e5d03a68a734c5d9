// Package config loads, caches and saves basement layouts.
//
// Layouts are JSON files in a layouts directory, one per basement:
//
//	{
//	  "name": "b3",
//	  "basement": "B3",
//	  "cols": 12,
//	  "rows": 9,
//	  "obstacles": [
//	    {"name": "Zone A elevator", "orientation": "vertical", "line": 3, "span": [2, 4]}
//	  ],
//	  "user_start": {"x": 2, "y": 2},
//	  "exit": {"x": 0, "y": 9},
//	  "exit_label": "Exit ramp"
//	}
//
// The layout id is the file name without ".json". The mall basement "b3" is
// compiled in and served even when no b3.json exists.
//
// Usage:
//
//	manager, err := config.NewManager("layouts")
//	if err != nil {
//		log.Fatal(err)
//	}
//
//	layout, err := manager.LoadLayout("b3")
//	layouts, err := manager.ListLayouts()
//
// Every layout is checked with engine.ValidateLayout on load and on save.
package config
