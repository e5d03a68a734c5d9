package engine

import (
	"errors"
	"sync"
	"testing"
)

func TestPlanner_RouteDefaultLayout(t *testing.T) {
	planner, err := NewPlanner(DefaultLayout())
	if err != nil {
		t.Fatalf("NewPlanner failed: %v", err)
	}

	route, err := planner.Route("B3. Column F8")
	if err != nil {
		t.Fatalf("Route failed: %v", err)
	}

	if route.Vehicle.Basement != "B3" || route.Vehicle.Position != (Position{6, 8}) {
		t.Errorf("Unexpected vehicle location: %+v", route.Vehicle)
	}

	if route.ToVehicle.Len() != 11 {
		t.Errorf("Expected 11 nodes to vehicle, got %d: %v", route.ToVehicle.Len(), route.ToVehicle)
	}
	if route.ToVehicle[0] != (Position{2, 2}) || route.ToVehicle[route.ToVehicle.Len()-1] != (Position{6, 8}) {
		t.Errorf("Leg to vehicle has wrong endpoints: %v", route.ToVehicle)
	}

	if route.ToExit.Len() != 8 {
		t.Errorf("Expected 8 nodes to exit, got %d: %v", route.ToExit.Len(), route.ToExit)
	}
	if route.ToExit[0] != (Position{6, 8}) || route.ToExit[route.ToExit.Len()-1] != (Position{0, 9}) {
		t.Errorf("Leg to exit has wrong endpoints: %v", route.ToExit)
	}

	last := route.ToVehicleNarration[len(route.ToVehicleNarration)-1]
	if last.Kind != KindArrive || last.Destination != "F8" {
		t.Errorf("Expected arrival at F8, got %s", last)
	}
	last = route.ToExitNarration[len(route.ToExitNarration)-1]
	if last.Kind != KindArrive || last.Destination != "Exit ramp" {
		t.Errorf("Expected arrival at Exit ramp, got %s", last)
	}

	if got := StraightTotal(route.ToVehicleNarration); got != route.ToVehicle.Moves() {
		t.Errorf("Narration to vehicle covers %d moves, path has %d", got, route.ToVehicle.Moves())
	}
	if got := StraightTotal(route.ToExitNarration); got != route.ToExit.Moves() {
		t.Errorf("Narration to exit covers %d moves, path has %d", got, route.ToExit.Moves())
	}
}

func TestPlanner_InvalidVehicle(t *testing.T) {
	planner, _ := NewPlanner(DefaultLayout())

	tests := []struct {
		label string
		want  error
	}{
		{"garbage", ErrInvalidLocationFormat},
		{"B3. Column M1", ErrLocationOutOfRange},
		{"B3. Column A10", ErrLocationOutOfRange},
	}

	for _, test := range tests {
		t.Run(test.label, func(t *testing.T) {
			route, err := planner.Route(test.label)
			if !errors.Is(err, test.want) {
				t.Errorf("Expected %v, got %v", test.want, err)
			}
			if route != nil {
				t.Error("Expected no route on error")
			}
		})
	}
}

func TestPlanner_VehicleOnObstacleIsCarvedOut(t *testing.T) {
	planner, _ := NewPlanner(DefaultLayout())

	// C3 sits inside the Zone A elevator shaft
	route, err := planner.Route("B3. Column C3")
	if err != nil {
		t.Fatalf("Route failed: %v", err)
	}

	if !route.ToVehicle.Reachable() || !route.ToExit.Reachable() {
		t.Fatalf("Expected both legs reachable, got %v and %v", route.ToVehicle, route.ToExit)
	}
	if end := route.ToVehicle[route.ToVehicle.Len()-1]; end != (Position{3, 3}) {
		t.Errorf("Leg to vehicle ends at %s", end)
	}
	if route.ToExit[0] != (Position{3, 3}) {
		t.Errorf("Leg to exit starts at %s", route.ToExit[0])
	}

	// the shared grid keeps the obstacle
	if !planner.Grid().IsObstacle(Position{3, 3}) {
		t.Error("Carve-out leaked into the planner's base grid")
	}
}

func TestPlanner_UnreachableExit(t *testing.T) {
	layout := createTestLayout()
	layout.Obstacles = []ObstacleRegion{
		{Name: "wall", Orientation: Vertical, Line: 5, Span: [2]int{6, 6}},
		{Name: "wall", Orientation: Horizontal, Line: 5, Span: [2]int{6, 6}},
	}

	planner, err := NewPlanner(layout)
	if err != nil {
		t.Fatalf("NewPlanner failed: %v", err)
	}

	route, err := planner.Route("B1. Column B2")
	if err != nil {
		t.Fatalf("Unreachable exit must not be an error, got %v", err)
	}

	if !route.ToVehicle.Reachable() {
		t.Errorf("Expected vehicle reachable, got %v", route.ToVehicle)
	}
	if route.ToExit.Reachable() {
		t.Errorf("Expected exit unreachable, got %v", route.ToExit)
	}
	if route.ToExitNarration != nil {
		t.Errorf("Expected no narration to exit, got %v", route.ToExitNarration)
	}
}

func TestPlanner_AlreadyAtVehicle(t *testing.T) {
	layout := createTestLayout()
	layout.UserStart = Position{2, 2}
	planner, _ := NewPlanner(layout)

	route, err := planner.Route("B1. Column B2")
	if err != nil {
		t.Fatalf("Route failed: %v", err)
	}
	if route.ToVehicle.Len() != 1 {
		t.Errorf("Expected single-node leg, got %v", route.ToVehicle)
	}
	if len(route.ToVehicleNarration) != 1 || route.ToVehicleNarration[0].Kind != KindArrive {
		t.Errorf("Expected single arrival, got %v", route.ToVehicleNarration)
	}
}

func TestPlanner_LegOutOfBounds(t *testing.T) {
	planner, _ := NewPlanner(createTestLayout())

	if _, err := planner.Leg(Position{0, 0}, Position{7, 0}); !errors.Is(err, ErrOutOfBounds) {
		t.Errorf("Expected ErrOutOfBounds, got %v", err)
	}
	if _, err := planner.Leg(Position{0, -1}, Position{1, 1}); !errors.Is(err, ErrOutOfBounds) {
		t.Errorf("Expected ErrOutOfBounds, got %v", err)
	}
}

func TestPlanner_PlanOutOfBounds(t *testing.T) {
	planner, _ := NewPlanner(DefaultLayout())

	if _, err := planner.Plan(Position{2, 2}, "B3. Column F8", Position{0, 10}); !errors.Is(err, ErrOutOfBounds) {
		t.Errorf("Expected ErrOutOfBounds for exit, got %v", err)
	}
	if _, err := planner.Plan(Position{-1, 2}, "B3. Column F8", Position{0, 9}); !errors.Is(err, ErrOutOfBounds) {
		t.Errorf("Expected ErrOutOfBounds for start, got %v", err)
	}
}

func TestPlanNavigation(t *testing.T) {
	plan, err := PlanNavigation(DefaultLayout(), Position{12, 0}, "B3. Column A1", Position{12, 9})
	if err != nil {
		t.Fatalf("PlanNavigation failed: %v", err)
	}
	if plan.ToVehicle[0] != (Position{12, 0}) {
		t.Errorf("Expected custom start, got %s", plan.ToVehicle[0])
	}
	if plan.ToExit[plan.ToExit.Len()-1] != (Position{12, 9}) {
		t.Errorf("Expected custom exit, got %s", plan.ToExit[plan.ToExit.Len()-1])
	}

	if _, err := PlanNavigation(&BasementLayout{}, Position{}, "B3. Column A1", Position{}); !errors.Is(err, ErrInvalidLayout) {
		t.Errorf("Expected ErrInvalidLayout, got %v", err)
	}
}

func TestPlanner_ConcurrentRoutes(t *testing.T) {
	planner, _ := NewPlanner(DefaultLayout())
	labels := []string{"B3. Column F8", "B3. Column C3", "B3. Column L9", "B3. Column A1"}

	want := make(map[string]int)
	for _, label := range labels {
		route, err := planner.Route(label)
		if err != nil {
			t.Fatalf("Route %s failed: %v", label, err)
		}
		want[label] = route.ToVehicle.Len()
	}

	var wg sync.WaitGroup
	errs := make(chan string, 40)
	for i := 0; i < 40; i++ {
		wg.Add(1)
		go func(label string) {
			defer wg.Done()
			route, err := planner.Route(label)
			if err != nil || route.ToVehicle.Len() != want[label] {
				errs <- label
			}
		}(labels[i%len(labels)])
	}
	wg.Wait()
	close(errs)

	for label := range errs {
		t.Errorf("Concurrent route for %s differed from sequential result", label)
	}
}

func TestPlanRoute(t *testing.T) {
	route, err := PlanRoute(DefaultLayout(), Position{0, 0}, "Basement B3. Column B1")
	if err != nil {
		t.Fatalf("PlanRoute failed: %v", err)
	}

	expected := Path{{0, 0}, {1, 0}, {2, 0}, {2, 1}}
	if route.ToVehicle.Len() != expected.Len() {
		t.Errorf("Expected %d nodes, got %v", expected.Len(), route.ToVehicle)
	}
	if route.ToExit[route.ToExit.Len()-1] != DefaultLayout().Exit {
		t.Errorf("Expected leg to end at layout exit, got %v", route.ToExit)
	}
}
