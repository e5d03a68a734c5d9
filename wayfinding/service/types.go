package service

import (
	"time"

	"github.com/wricardo/mall-parking/wayfinder/wayfinding/engine"
)

// SessionInfo provides information about a navigation session
type SessionInfo struct {
	ID             string                 `json:"id"`
	LayoutID       string                 `json:"layout_id"`
	Basement       string                 `json:"basement"`
	Vehicle        *VehicleInfo           `json:"vehicle,omitempty"`
	CreatedAt      time.Time              `json:"created_at"`
	LastAccessedAt time.Time              `json:"last_accessed_at"`
	Layout         *engine.BasementLayout `json:"layout,omitempty"`
}

// VehicleInfo is a saved vehicle location in both stored and grid form
type VehicleInfo struct {
	Label    string          `json:"label"`
	Basement string          `json:"basement"`
	Column   string          `json:"column"`
	Position engine.Position `json:"position"`
}

// LegResult is one searched leg with its narration
type LegResult struct {
	From        engine.Position      `json:"from"`
	To          engine.Position      `json:"to"`
	Destination string               `json:"destination"`
	Reachable   bool                 `json:"reachable"`
	Path        engine.Path          `json:"path"`
	Moves       int                  `json:"moves"`
	Narration   []engine.Instruction `json:"narration"`
	Steps       []string             `json:"steps,omitempty"`
	Text        string               `json:"text,omitempty"`
}

// NavigationResult contains both legs of a session's route
type NavigationResult struct {
	SessionID string      `json:"session_id"`
	LayoutID  string      `json:"layout_id"`
	Locale    string      `json:"locale"`
	Vehicle   VehicleInfo `json:"vehicle"`
	ToVehicle *LegResult  `json:"to_vehicle"`
	ToExit    *LegResult  `json:"to_exit"`
	Cached    bool        `json:"cached"`
}

// LayoutInfo provides information about a basement layout
type LayoutInfo struct {
	Filename    string `json:"filename"`
	LayoutID    string `json:"layout_id"` // The identifier to use for session creation
	Name        string `json:"name"`
	Description string `json:"description"`
	Basement    string `json:"basement"`
	Cols        int    `json:"cols"`
	Rows        int    `json:"rows"`
	Obstacles   int    `json:"obstacles"`
}

// NewVehicleInfo builds the vehicle view of a resolved location
func NewVehicleInfo(label string, loc engine.Location) *VehicleInfo {
	return &VehicleInfo{
		Label:    label,
		Basement: loc.Basement,
		Column:   engine.FormatLabel(loc.Position),
		Position: loc.Position,
	}
}

// NewLegResult wraps a searched path and narrates it. Steps and Text are
// filled by the caller once a locale is known.
func NewLegResult(from, to engine.Position, destination string, path engine.Path) *LegResult {
	return NewNarratedLegResult(from, to, destination, path, engine.NarrateLeg(path, destination))
}

// NewNarratedLegResult wraps a path whose narration was already generated
func NewNarratedLegResult(from, to engine.Position, destination string, path engine.Path, narration []engine.Instruction) *LegResult {
	if path == nil {
		path = engine.Path{}
	}
	return &LegResult{
		From:        from,
		To:          to,
		Destination: destination,
		Reachable:   path.Reachable(),
		Path:        path,
		Moves:       path.Moves(),
		Narration:   narration,
	}
}
