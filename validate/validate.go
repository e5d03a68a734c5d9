// Command validate checks basement layout JSON files. For every file it runs
// the layout validation used by the server and then verifies that the exit
// and every free column node can be reached from the entrance.
//
//	validate --dir layouts
//	validate layouts/b3.json layouts/b2.json
package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/urfave/cli/v3"

	"github.com/wricardo/mall-parking/wayfinder/wayfinding/engine"
)

// ValidationResult captures the outcome of validating a single file.
// Errors holds the failures; Info holds the summary lines of a valid file.
type ValidationResult struct {
	File   string
	Valid  bool
	Errors []string
	Info   []string
}

func (r *ValidationResult) fail(format string, args ...interface{}) {
	r.Valid = false
	r.Errors = append(r.Errors, fmt.Sprintf(format, args...))
}

// validateLayoutFile loads and validates a single layout file
func validateLayoutFile(filePath string) ValidationResult {
	result := ValidationResult{
		File:  filepath.Base(filePath),
		Valid: true,
	}

	data, err := os.ReadFile(filePath)
	if err != nil {
		result.fail("Failed to read file: %v", err)
		return result
	}

	var layout engine.BasementLayout
	if err := json.Unmarshal(data, &layout); err != nil {
		result.fail("Invalid JSON: %v", err)
		return result
	}

	if err := engine.ValidateLayout(&layout); err != nil {
		result.fail("%v", err)
		return result
	}

	checkConnectivity(&layout, &result)

	if result.Valid {
		grid, _ := layout.Build()
		result.Info = append(result.Info,
			fmt.Sprintf("✓ Name: %s (basement %s)", layout.Name, layout.Basement),
			fmt.Sprintf("✓ Columns: %dx%d, nodes %dx%d", layout.Cols, layout.Rows, layout.Cols+1, layout.Rows+1),
			fmt.Sprintf("✓ Obstacle regions: %d, blocked nodes: %d", len(layout.Obstacles), grid.ObstacleCount()),
			fmt.Sprintf("✓ Entrance %s, %s %s", layout.UserStart, layout.ExitName(), layout.Exit),
		)
	}

	return result
}

// checkConnectivity flood-fills from the entrance and reports the exit and
// any free column node that cannot be reached. Entrance and exit are treated
// as walkable even when an obstacle region covers them, as the planner does.
func checkConnectivity(layout *engine.BasementLayout, result *ValidationResult) {
	grid, err := layout.Build()
	if err != nil {
		result.fail("%v", err)
		return
	}
	grid.ClearObstacle(layout.UserStart)
	grid.ClearObstacle(layout.Exit)

	reachable := engine.ReachableFrom(grid, layout.UserStart)

	if !reachable.Has(layout.Exit) {
		result.fail("Connectivity failure: %s %s unreachable from entrance %s",
			layout.ExitName(), layout.Exit, layout.UserStart)
	}

	var unreachable []string
	columns := 0
	for y := 1; y <= layout.Rows; y++ {
		for x := 1; x <= layout.Cols; x++ {
			p := engine.Position{X: x, Y: y}
			if grid.IsObstacle(p) {
				continue
			}
			columns++
			if !reachable.Has(p) {
				unreachable = append(unreachable, engine.FormatLabel(p))
			}
		}
	}

	if len(unreachable) > 0 {
		result.fail("Connectivity failure: %d/%d columns unreachable from entrance", len(unreachable), columns)
		result.fail("Unreachable: %s", strings.Join(unreachable, ", "))
	} else if result.Valid {
		result.Info = append(result.Info, fmt.Sprintf("✓ Connectivity: all %d free columns reachable", columns))
	}
}

// collectFiles returns the explicit files, or every *.json in dir when none are given
func collectFiles(dir string, args []string) ([]string, error) {
	if len(args) > 0 {
		return args, nil
	}
	files, err := filepath.Glob(filepath.Join(dir, "*.json"))
	if err != nil {
		return nil, err
	}
	if len(files) == 0 {
		return nil, fmt.Errorf("no layout files found in %s", dir)
	}
	sort.Strings(files)
	return files, nil
}

// report prints the results and tells whether all files passed
func report(out io.Writer, results []ValidationResult) bool {
	allValid := true
	for _, result := range results {
		fmt.Fprintf(out, "\n%s %s\n", strings.Repeat("=", 20), result.File)

		if result.Valid {
			fmt.Fprintln(out, "✅ VALID")
			for _, info := range result.Info {
				fmt.Fprintln(out, "  "+info)
			}
			continue
		}

		allValid = false
		fmt.Fprintln(out, "❌ INVALID")
		for _, err := range result.Errors {
			fmt.Fprintln(out, "  ❌ "+err)
		}
	}

	fmt.Fprintf(out, "\n%s\n", strings.Repeat("=", 40))
	if allValid {
		fmt.Fprintln(out, "✅ All layouts are valid!")
	} else {
		fmt.Fprintln(out, "❌ Some layouts have errors")
	}
	return allValid
}

func newCommand(out io.Writer) *cli.Command {
	return &cli.Command{
		Name:      "validate",
		Usage:     "validate basement layout files",
		ArgsUsage: "[files...]",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "dir",
				Aliases: []string{"d"},
				Value:   "layouts",
				Usage:   "directory scanned when no files are given",
				Sources: cli.EnvVars("LAYOUTS_DIR"),
			},
		},
		Action: func(ctx context.Context, cmd *cli.Command) error {
			files, err := collectFiles(cmd.String("dir"), cmd.Args().Slice())
			if err != nil {
				return err
			}

			results := make([]ValidationResult, 0, len(files))
			for _, file := range files {
				results = append(results, validateLayoutFile(file))
			}

			if !report(out, results) {
				return fmt.Errorf("%d file(s) checked, some are invalid", len(files))
			}
			return nil
		},
	}
}

func main() {
	if err := newCommand(os.Stdout).Run(context.Background(), os.Args); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
