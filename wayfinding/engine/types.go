package engine

import (
	"errors"
	"fmt"
)

const (
	// Validation constants
	MinGridSize = 1
	MaxCols     = 26 // column letters A..Z
	MaxRows     = 99

	DefaultExitLabel = "Exit"
)

var (
	ErrInvalidLocationFormat = errors.New("invalid location format")
	ErrLocationOutOfRange    = fmt.Errorf("%w: location outside basement", ErrInvalidLocationFormat)
	ErrInvalidLayout         = errors.New("invalid layout")
	ErrOutOfBounds           = errors.New("position out of bounds")
)

// Position represents x,y grid coordinates
type Position struct {
	X int `json:"x"`
	Y int `json:"y"`
}

// String returns the position as "(x,y)"
func (p Position) String() string {
	return fmt.Sprintf("(%d,%d)", p.X, p.Y)
}

// Orientation tells which axis an obstacle region spans
type Orientation string

const (
	Vertical   Orientation = "vertical"
	Horizontal Orientation = "horizontal"
)

// ObstacleRegion is a straight run of blocked nodes, the footprint of an elevator shaft.
// A vertical region sits on column Line and covers rows Span[0]..Span[1];
// a horizontal region sits on row Line and covers columns Span[0]..Span[1].
type ObstacleRegion struct {
	Name        string      `json:"name,omitempty"`
	Orientation Orientation `json:"orientation"`
	Line        int         `json:"line"`
	Span        [2]int      `json:"span"`
}

// Cells returns every position covered by the region, in span order
func (r ObstacleRegion) Cells() []Position {
	if r.Span[1] < r.Span[0] {
		return nil
	}
	cells := make([]Position, 0, r.Span[1]-r.Span[0]+1)
	for i := r.Span[0]; i <= r.Span[1]; i++ {
		if r.Orientation == Horizontal {
			cells = append(cells, Position{X: i, Y: r.Line})
		} else {
			cells = append(cells, Position{X: r.Line, Y: i})
		}
	}
	return cells
}

// BasementLayout represents one parking level loaded from JSON
type BasementLayout struct {
	Name        string           `json:"name"`
	Description string           `json:"description"`
	Basement    string           `json:"basement"`
	Cols        int              `json:"cols"`
	Rows        int              `json:"rows"`
	Obstacles   []ObstacleRegion `json:"obstacles"`
	UserStart   Position         `json:"user_start"`
	Exit        Position         `json:"exit"`
	ExitLabel   string           `json:"exit_label,omitempty"`
}

// Location is a parsed vehicle label: the basement id and the column node
type Location struct {
	Basement string   `json:"basement"`
	Position Position `json:"position"`
}

// Path is an ordered, 4-connected sequence of positions from start to end.
// An empty Path means no path exists; a single position means start == end.
type Path []Position

// Len returns the number of nodes in the path
func (p Path) Len() int {
	return len(p)
}

// Moves returns the number of edges walked
func (p Path) Moves() int {
	if len(p) == 0 {
		return 0
	}
	return len(p) - 1
}

// Reachable reports whether the search found a path at all
func (p Path) Reachable() bool {
	return len(p) > 0
}

// Contains reports whether pos is on the path
func (p Path) Contains(pos Position) bool {
	for _, q := range p {
		if q == pos {
			return true
		}
	}
	return false
}
