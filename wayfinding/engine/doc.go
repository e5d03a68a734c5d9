// Package engine provides the indoor wayfinding core for the mall parking service.
//
// The engine package implements:
//   - Grid construction from a basement layout with elevator-shaft obstacles
//   - Shortest-path search (A*, 4-connected, unit cost, Manhattan heuristic)
//   - Parsing and formatting of vehicle location labels ("B3. Column F8")
//   - Two-leg route planning: user start to vehicle, vehicle to exit
//   - Language-neutral turn-by-turn narration of a path
//
// Core Types:
//
// BasementLayout describes one parking level and is loaded from JSON files.
// Grid is the static node structure built from a layout; it is never mutated
// by a search, and Clone gives an independent copy when a caller needs to
// relax obstacle flags (the endpoint carve-out). Path is an ordered list of
// positions, where an empty Path means "no path exists" and a single-node Path
// means "already there". Instruction is a typed narration step that carries no
// spoken language.
//
// Usage:
//
//	layout := engine.DefaultLayout()
//	planner, err := engine.NewPlanner(layout)
//	if err != nil {
//		log.Fatal(err)
//	}
//
//	route, err := planner.Route("B3. Column F8")
//	if err != nil {
//		// engine.ErrInvalidLocationFormat: show "location unknown"
//	}
//
//	if route.ToVehicle.Reachable() {
//		for _, step := range route.ToVehicleNarration {
//			fmt.Println(step)
//		}
//	}
//
// Coordinates:
//
// Nodes are addressed by (x, y) with 0 <= x <= cols and 0 <= y <= rows. Column
// letters map A=1..Z=26 and row numbers map 1..N directly, so the row and
// column zero lines are aisles without a labeled parking column. The y axis
// grows downward, matching the map renderer.
package engine
