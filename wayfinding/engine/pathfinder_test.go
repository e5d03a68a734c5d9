package engine

import (
	"reflect"
	"testing"
)

// assertContiguous fails when consecutive nodes are not one axis-aligned step apart
func assertContiguous(t *testing.T, path Path) {
	t.Helper()
	for i := 1; i < len(path); i++ {
		if ManhattanDistance(path[i-1], path[i]) != 1 {
			t.Fatalf("Path not contiguous between %s and %s", path[i-1], path[i])
		}
	}
}

func TestFindPath_OpenGridIsShortest(t *testing.T) {
	grid, _ := BuildGrid(12, 9, nil)

	tests := []struct {
		name       string
		start, end Position
	}{
		{"same row", Position{1, 1}, Position{8, 1}},
		{"same column", Position{4, 0}, Position{4, 9}},
		{"diagonal corners", Position{0, 0}, Position{12, 9}},
		{"reverse diagonal", Position{12, 0}, Position{0, 9}},
		{"neighbors", Position{5, 5}, Position{5, 6}},
	}

	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			path := FindPath(grid, test.start, test.end)
			want := ManhattanDistance(test.start, test.end) + 1
			if path.Len() != want {
				t.Fatalf("Expected %d nodes, got %d: %v", want, path.Len(), path)
			}
			if path[0] != test.start || path[len(path)-1] != test.end {
				t.Errorf("Path runs %s..%s, want %s..%s", path[0], path[len(path)-1], test.start, test.end)
			}
			assertContiguous(t, path)
		})
	}
}

func TestFindPath_Identity(t *testing.T) {
	grid, _ := BuildGrid(5, 5, nil)
	p := Position{X: 3, Y: 2}

	path := FindPath(grid, p, p)
	if !reflect.DeepEqual(path, Path{p}) {
		t.Errorf("Expected single-node path [%s], got %v", p, path)
	}
	if !path.Reachable() || path.Moves() != 0 {
		t.Error("Single-node path must be reachable with zero moves")
	}
}

func TestFindPath_DetourAroundElevator(t *testing.T) {
	grid, err := BuildGrid(12, 9, []ObstacleRegion{
		{Name: "Zone A elevator", Orientation: Vertical, Line: 3, Span: [2]int{2, 4}},
	})
	if err != nil {
		t.Fatalf("BuildGrid failed: %v", err)
	}

	start, end := Position{2, 2}, Position{4, 2}
	path := FindPath(grid, start, end)

	// Two extra moves to climb over the shaft and back down
	if want := ManhattanDistance(start, end) + 1 + 2; path.Len() != want {
		t.Fatalf("Expected %d nodes, got %d: %v", want, path.Len(), path)
	}

	for _, blocked := range []Position{{3, 2}, {3, 3}, {3, 4}} {
		if path.Contains(blocked) {
			t.Errorf("Path crosses elevator at %s", blocked)
		}
	}

	expected := Path{{2, 2}, {2, 1}, {3, 1}, {4, 1}, {4, 2}}
	if !reflect.DeepEqual(path, expected) {
		t.Errorf("Expected %v, got %v", expected, path)
	}
}

func TestFindPath_Unreachable(t *testing.T) {
	// (5,5) boxed in on all four sides
	grid, err := BuildGrid(10, 10, []ObstacleRegion{
		{Orientation: Vertical, Line: 4, Span: [2]int{5, 5}},
		{Orientation: Vertical, Line: 6, Span: [2]int{5, 5}},
		{Orientation: Horizontal, Line: 4, Span: [2]int{5, 5}},
		{Orientation: Horizontal, Line: 6, Span: [2]int{5, 5}},
	})
	if err != nil {
		t.Fatalf("BuildGrid failed: %v", err)
	}

	path := FindPath(grid, Position{0, 0}, Position{5, 5})
	if path.Reachable() {
		t.Errorf("Expected empty path, got %v", path)
	}
	if path.Len() != 0 {
		t.Errorf("Unreachable must be distinct from already-there, got %d nodes", path.Len())
	}
}

func TestFindPath_ObstacleGoalWithoutCarveOut(t *testing.T) {
	grid, _ := DefaultLayout().Build()

	// (3,3) is inside the Zone A shaft; the raw finder never enters it
	if path := FindPath(grid, Position{2, 2}, Position{3, 3}); path.Reachable() {
		t.Errorf("Expected obstacle goal to be unreachable without carve-out, got %v", path)
	}
}

func TestFindPath_OutOfBounds(t *testing.T) {
	grid, _ := BuildGrid(5, 5, nil)

	tests := []struct {
		name       string
		start, end Position
	}{
		{"start outside", Position{-1, 0}, Position{2, 2}},
		{"end outside", Position{0, 0}, Position{6, 2}},
	}

	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			if path := FindPath(grid, test.start, test.end); path.Reachable() {
				t.Errorf("Expected empty path, got %v", path)
			}
		})
	}
}

func TestFindPath_AvoidsObstaclesEverywhere(t *testing.T) {
	layout := DefaultLayout()
	planner, err := NewPlanner(layout)
	if err != nil {
		t.Fatalf("NewPlanner failed: %v", err)
	}
	base := planner.Grid()

	for y := 0; y <= layout.Rows; y++ {
		for x := 0; x <= layout.Cols; x++ {
			end := Position{X: x, Y: y}
			path, err := planner.Leg(layout.UserStart, end)
			if err != nil {
				t.Fatalf("Leg to %s failed: %v", end, err)
			}
			if !path.Reachable() {
				t.Errorf("Expected %s to be reachable", end)
				continue
			}
			assertContiguous(t, path)
			for i, p := range path {
				if base.IsObstacle(p) && i != 0 && i != len(path)-1 {
					t.Errorf("Path to %s walks through obstacle %s", end, p)
				}
			}
		}
	}
}

func TestFindPath_Deterministic(t *testing.T) {
	grid, _ := DefaultLayout().Build()

	first := FindPath(grid, Position{0, 0}, Position{12, 9})
	for i := 0; i < 10; i++ {
		again := FindPath(grid, Position{0, 0}, Position{12, 9})
		if !reflect.DeepEqual(first, again) {
			t.Fatalf("Run %d returned a different path: %v vs %v", i, again, first)
		}
	}
}

func TestFindPath_DoesNotMutateGrid(t *testing.T) {
	grid, _ := DefaultLayout().Build()
	before := grid.Clone()

	FindPath(grid, Position{0, 0}, Position{12, 9})

	if !reflect.DeepEqual(before, grid) {
		t.Error("FindPath modified the grid")
	}
}
