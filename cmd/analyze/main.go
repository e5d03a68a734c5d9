// Command analyze prints a basement layout as an ASCII map and, given a
// vehicle label, the planned route to the vehicle and on to the exit.
//
//	analyze --layouts layouts --vehicle "B3. Column F8" b3
//
// Map legend: S entrance, E exit, V vehicle, * route, # obstacle, . aisle.
package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/urfave/cli/v3"

	"github.com/wricardo/mall-parking/wayfinder/wayfinding/config"
	"github.com/wricardo/mall-parking/wayfinder/wayfinding/engine"
	"github.com/wricardo/mall-parking/wayfinder/wayfinding/speech"
)

// loadLayout reads a layout file directly, or by id from the layouts directory.
// The built-in b3 basement is used when the directory does not exist.
func loadLayout(dir, name string) (*engine.BasementLayout, error) {
	if strings.HasSuffix(name, ".json") {
		if _, err := os.Stat(name); err == nil {
			return engine.LoadLayoutFile(name)
		}
	}

	manager, err := config.NewManager(dir)
	if err != nil {
		if name == "" || strings.EqualFold(name, config.BuiltinLayoutID) {
			return engine.DefaultLayout(), nil
		}
		return nil, err
	}
	if name == "" {
		return manager.GetDefault(), nil
	}
	return manager.LoadLayout(strings.ToLower(name))
}

// renderMap draws one character per grid node with the column letters on top
func renderMap(layout *engine.BasementLayout, grid *engine.Grid, route *engine.Route) string {
	onPath := make(map[engine.Position]bool)
	var vehicle *engine.Position
	if route != nil {
		for _, p := range route.ToVehicle {
			onPath[p] = true
		}
		for _, p := range route.ToExit {
			onPath[p] = true
		}
		vehicle = &route.Vehicle.Position
	}

	var sb strings.Builder
	labels := make([]string, 0, layout.Cols+1)
	labels = append(labels, " ")
	for x := 1; x <= layout.Cols; x++ {
		labels = append(labels, string(rune('A'+x-1)))
	}
	sb.WriteString("   " + strings.Join(labels, " ") + "\n")

	for y := 0; y <= layout.Rows; y++ {
		cells := make([]string, 0, layout.Cols+1)
		for x := 0; x <= layout.Cols; x++ {
			p := engine.Position{X: x, Y: y}
			switch {
			case p == layout.UserStart:
				cells = append(cells, "S")
			case p == layout.Exit:
				cells = append(cells, "E")
			case vehicle != nil && p == *vehicle:
				cells = append(cells, "V")
			case onPath[p]:
				cells = append(cells, "*")
			case grid.IsObstacle(p):
				cells = append(cells, "#")
			default:
				cells = append(cells, ".")
			}
		}
		fmt.Fprintf(&sb, "%2d %s\n", y, strings.Join(cells, " "))
	}

	return sb.String()
}

// describeLeg prints one leg: length, detour against the straight-line
// distance and the spoken steps
func describeLeg(out io.Writer, title string, from, to engine.Position, path engine.Path, steps []string) {
	if !path.Reachable() {
		fmt.Fprintf(out, "%s: ⚠️  no route found\n", title)
		return
	}

	direct := engine.ManhattanDistance(from, to)
	fmt.Fprintf(out, "%s: %d moves (direct distance %d, detour %d)\n", title, path.Moves(), direct, path.Moves()-direct)
	for i, step := range steps {
		fmt.Fprintf(out, "  %d. %s\n", i+1, step)
	}
}

func analyze(out io.Writer, layout *engine.BasementLayout, vehicleLabel, locale string) error {
	planner, err := engine.NewPlanner(layout)
	if err != nil {
		return err
	}

	fmt.Fprintf(out, "Name: %s (basement %s)\n", layout.Name, layout.Basement)
	if layout.Description != "" {
		fmt.Fprintf(out, "Description: %s\n", layout.Description)
	}
	fmt.Fprintf(out, "Columns: %dx%d, blocked nodes: %d\n", layout.Cols, layout.Rows, planner.Grid().ObstacleCount())
	fmt.Fprintf(out, "Entrance: %s, %s: %s\n", layout.UserStart, layout.ExitName(), layout.Exit)

	var route *engine.Route
	if vehicleLabel != "" {
		if route, err = planner.Route(vehicleLabel); err != nil {
			return err
		}
	}

	fmt.Fprintln(out)
	fmt.Fprint(out, renderMap(layout, planner.Grid(), route))

	if route == nil {
		return nil
	}

	catalog, err := speech.NewCatalog()
	if err != nil {
		return err
	}

	fmt.Fprintf(out, "\nVehicle: %s %s\n", engine.FormatLocation(route.Vehicle), route.Vehicle.Position)
	describeLeg(out, "To vehicle", layout.UserStart, route.Vehicle.Position, route.ToVehicle,
		catalog.Render(locale, route.ToVehicleNarration))
	describeLeg(out, "To exit", route.Vehicle.Position, layout.Exit, route.ToExit,
		catalog.Render(locale, route.ToExitNarration))

	return nil
}

func newCommand(out io.Writer) *cli.Command {
	return &cli.Command{
		Name:      "analyze",
		Usage:     "print a basement map and the route to a vehicle",
		ArgsUsage: "[layout id or file]",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "layouts",
				Value:   "layouts",
				Usage:   "layouts directory",
				Sources: cli.EnvVars("LAYOUTS_DIR"),
			},
			&cli.StringFlag{
				Name:  "vehicle",
				Usage: `vehicle label, e.g. "B3. Column F8"`,
			},
			&cli.StringFlag{
				Name:  "locale",
				Value: speech.DefaultLocale,
				Usage: "language of the printed steps (en, vi)",
			},
		},
		Action: func(ctx context.Context, cmd *cli.Command) error {
			layout, err := loadLayout(cmd.String("layouts"), cmd.Args().First())
			if err != nil {
				return err
			}
			return analyze(out, layout, cmd.String("vehicle"), cmd.String("locale"))
		},
	}
}

func main() {
	if err := newCommand(os.Stdout).Run(context.Background(), os.Args); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
