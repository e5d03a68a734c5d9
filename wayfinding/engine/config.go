package engine

import (
	"encoding/json"
	"fmt"
	"os"
)

// ValidateLayout checks a basement layout for correctness. Malformed layouts
// are configuration errors and are rejected here rather than clamped later.
func ValidateLayout(layout *BasementLayout) error {
	if layout == nil {
		return fmt.Errorf("%w: layout is nil", ErrInvalidLayout)
	}
	if layout.Name == "" {
		return fmt.Errorf("%w: name is required", ErrInvalidLayout)
	}
	if layout.Basement == "" {
		return fmt.Errorf("%w: basement is required", ErrInvalidLayout)
	}

	if layout.Cols < MinGridSize || layout.Cols > MaxCols {
		return fmt.Errorf("%w: cols must be between %d and %d, got %d", ErrInvalidLayout, MinGridSize, MaxCols, layout.Cols)
	}
	if layout.Rows < MinGridSize || layout.Rows > MaxRows {
		return fmt.Errorf("%w: rows must be between %d and %d, got %d", ErrInvalidLayout, MinGridSize, MaxRows, layout.Rows)
	}

	inBounds := func(p Position) bool {
		return p.X >= 0 && p.X <= layout.Cols && p.Y >= 0 && p.Y <= layout.Rows
	}
	if !inBounds(layout.UserStart) {
		return fmt.Errorf("%w: user_start %s outside %dx%d grid", ErrInvalidLayout, layout.UserStart, layout.Cols, layout.Rows)
	}
	if !inBounds(layout.Exit) {
		return fmt.Errorf("%w: exit %s outside %dx%d grid", ErrInvalidLayout, layout.Exit, layout.Cols, layout.Rows)
	}

	for i, region := range layout.Obstacles {
		if region.Orientation != Vertical && region.Orientation != Horizontal {
			return fmt.Errorf("%w: obstacle %d has unknown orientation %q", ErrInvalidLayout, i+1, region.Orientation)
		}
		if region.Span[1] < region.Span[0] {
			return fmt.Errorf("%w: obstacle %d (%s) has reversed span %v", ErrInvalidLayout, i+1, region.Name, region.Span)
		}
		for _, cell := range region.Cells() {
			if !inBounds(cell) {
				return fmt.Errorf("%w: obstacle %d (%s) covers %s outside %dx%d grid",
					ErrInvalidLayout, i+1, region.Name, cell, layout.Cols, layout.Rows)
			}
		}
	}

	return nil
}

// Build validates the layout and constructs its grid
func (l *BasementLayout) Build() (*Grid, error) {
	if err := ValidateLayout(l); err != nil {
		return nil, err
	}
	return BuildGrid(l.Cols, l.Rows, l.Obstacles)
}

// ResolveVehicle parses a vehicle label and checks it against this basement's bounds
func (l *BasementLayout) ResolveVehicle(label string) (Location, error) {
	loc, err := ParseLocation(label)
	if err != nil {
		return Location{}, err
	}
	if loc.Position.X > l.Cols || loc.Position.Y > l.Rows {
		return Location{}, fmt.Errorf("%w: column %s in %dx%d basement %s",
			ErrLocationOutOfRange, FormatLabel(loc.Position), l.Cols, l.Rows, l.Basement)
	}
	return loc, nil
}

// ExitName returns the label narrated on arrival at the exit
func (l *BasementLayout) ExitName() string {
	if l.ExitLabel != "" {
		return l.ExitLabel
	}
	return DefaultExitLabel
}

// LoadLayoutFile loads and validates a basement layout from a JSON file
func LoadLayoutFile(filename string) (*BasementLayout, error) {
	data, err := os.ReadFile(filename)
	if err != nil {
		return nil, err
	}

	var layout BasementLayout
	if err := json.Unmarshal(data, &layout); err != nil {
		return nil, fmt.Errorf("failed to parse layout file '%s': %w", filename, err)
	}

	if err := ValidateLayout(&layout); err != nil {
		return nil, err
	}

	return &layout, nil
}

// DefaultLayout returns the B3 basement of the mall: a 12x9 grid of parking
// columns A1..L9 with three elevator shafts
func DefaultLayout() *BasementLayout {
	return &BasementLayout{
		Name:        "b3",
		Description: "Mall basement B3 with Zone A, Zone B and office elevators",
		Basement:    "B3",
		Cols:        12,
		Rows:        9,
		Obstacles: []ObstacleRegion{
			{Name: "Zone A elevator", Orientation: Vertical, Line: 3, Span: [2]int{2, 4}},
			{Name: "Zone B elevator", Orientation: Horizontal, Line: 5, Span: [2]int{8, 10}},
			{Name: "Office elevator", Orientation: Horizontal, Line: 1, Span: [2]int{9, 11}},
		},
		UserStart: Position{X: 2, Y: 2},
		Exit:      Position{X: 0, Y: 9},
		ExitLabel: "Exit ramp",
	}
}
