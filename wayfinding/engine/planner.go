package engine

import (
	"fmt"

	"golang.org/x/sync/errgroup"
)

// NavigationPlan holds the two legs of one navigation session
type NavigationPlan struct {
	Vehicle   Location `json:"vehicle"`
	ToVehicle Path     `json:"to_vehicle"`
	ToExit    Path     `json:"to_exit"`
}

// Route is a NavigationPlan with the narration of each leg.
// The narration of an unreachable leg is empty.
type Route struct {
	NavigationPlan
	ToVehicleNarration []Instruction `json:"to_vehicle_narration"`
	ToExitNarration    []Instruction `json:"to_exit_narration"`
}

// Planner plans routes over one basement. The base grid is built once and
// only ever cloned, so a Planner may be shared between goroutines.
type Planner struct {
	layout *BasementLayout
	grid   *Grid
}

// NewPlanner validates the layout and builds its grid
func NewPlanner(layout *BasementLayout) (*Planner, error) {
	grid, err := layout.Build()
	if err != nil {
		return nil, err
	}
	return &Planner{layout: layout, grid: grid}, nil
}

// Layout returns the basement layout the planner was built from
func (p *Planner) Layout() *BasementLayout {
	return p.layout
}

// Grid returns the base grid. Callers must not modify it.
func (p *Planner) Grid() *Grid {
	return p.grid
}

// Leg finds a path between two nodes on a private copy of the grid with both
// endpoints made walkable
func (p *Planner) Leg(from, to Position) (Path, error) {
	grid, err := p.legGrid(from, to)
	if err != nil {
		return nil, err
	}
	return FindPath(grid, from, to), nil
}

// legGrid bounds-checks a leg and returns a clone with its endpoints cleared
func (p *Planner) legGrid(from, to Position) (*Grid, error) {
	if !p.grid.InBounds(from) {
		return nil, fmt.Errorf("%w: %s outside %dx%d grid", ErrOutOfBounds, from, p.grid.Cols, p.grid.Rows)
	}
	if !p.grid.InBounds(to) {
		return nil, fmt.Errorf("%w: %s outside %dx%d grid", ErrOutOfBounds, to, p.grid.Cols, p.grid.Rows)
	}

	grid := p.grid.Clone()
	grid.ClearObstacle(from)
	grid.ClearObstacle(to)
	return grid, nil
}

// Plan resolves the vehicle label and searches both legs: userStart to the
// vehicle and the vehicle to exit. The legs run concurrently on independent
// grid copies and are both returned even when one of them is unreachable.
func (p *Planner) Plan(userStart Position, vehicleLabel string, exit Position) (*NavigationPlan, error) {
	vehicle, err := p.layout.ResolveVehicle(vehicleLabel)
	if err != nil {
		return nil, err
	}

	// Grids are prepared here so only the searches run concurrently
	toVehicle, err := p.legGrid(userStart, vehicle.Position)
	if err != nil {
		return nil, err
	}
	toExit, err := p.legGrid(vehicle.Position, exit)
	if err != nil {
		return nil, err
	}

	plan := &NavigationPlan{Vehicle: vehicle}

	var g errgroup.Group
	g.Go(func() error {
		plan.ToVehicle = FindPath(toVehicle, userStart, vehicle.Position)
		return nil
	})
	g.Go(func() error {
		plan.ToExit = FindPath(toExit, vehicle.Position, exit)
		return nil
	})
	g.Wait()

	return plan, nil
}

// Route plans from the layout's user start to its exit and narrates both legs
func (p *Planner) Route(vehicleLabel string) (*Route, error) {
	return p.RouteFrom(p.layout.UserStart, vehicleLabel)
}

// RouteFrom is Route with a caller supplied start node
func (p *Planner) RouteFrom(userStart Position, vehicleLabel string) (*Route, error) {
	plan, err := p.Plan(userStart, vehicleLabel, p.layout.Exit)
	if err != nil {
		return nil, err
	}

	return &Route{
		NavigationPlan:     *plan,
		ToVehicleNarration: NarrateLeg(plan.ToVehicle, FormatLabel(plan.Vehicle.Position)),
		ToExitNarration:    NarrateLeg(plan.ToExit, p.layout.ExitName()),
	}, nil
}

// PlanNavigation builds a planner for layout and plans both legs
func PlanNavigation(layout *BasementLayout, userStart Position, vehicleLabel string, exit Position) (*NavigationPlan, error) {
	planner, err := NewPlanner(layout)
	if err != nil {
		return nil, err
	}
	return planner.Plan(userStart, vehicleLabel, exit)
}

// PlanRoute builds a planner for layout and returns the narrated route from
// userStart to the vehicle and on to the layout's exit
func PlanRoute(layout *BasementLayout, userStart Position, vehicleLabel string) (*Route, error) {
	planner, err := NewPlanner(layout)
	if err != nil {
		return nil, err
	}
	return planner.RouteFrom(userStart, vehicleLabel)
}
