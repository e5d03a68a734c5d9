package engine

import (
	"fmt"
	"sync"

	"github.com/tiendc/go-deepcopy"
	"github.com/zyedidia/generic/mapset"
)

// Node is one cell of the grid
type Node struct {
	X        int  `json:"x"`
	Y        int  `json:"y"`
	Obstacle bool `json:"obstacle,omitempty"`
}

// Grid owns (Cols+1) x (Rows+1) nodes, stored row-major.
// Searches never write to it; only ClearObstacle mutates a grid, and callers
// apply it to a Clone.
type Grid struct {
	Cols  int    `json:"cols"`
	Rows  int    `json:"rows"`
	Nodes []Node `json:"nodes"`
}

// BuildGrid allocates the node set for a cols x rows basement and marks every
// cell covered by the obstacle regions
func BuildGrid(cols, rows int, obstacles []ObstacleRegion) (*Grid, error) {
	if cols < MinGridSize || rows < MinGridSize {
		return nil, fmt.Errorf("%w: grid must be at least %dx%d, got %dx%d",
			ErrInvalidLayout, MinGridSize, MinGridSize, cols, rows)
	}

	g := &Grid{
		Cols:  cols,
		Rows:  rows,
		Nodes: make([]Node, (cols+1)*(rows+1)),
	}
	for y := 0; y <= rows; y++ {
		for x := 0; x <= cols; x++ {
			g.Nodes[g.index(x, y)] = Node{X: x, Y: y}
		}
	}

	for _, region := range obstacles {
		if region.Span[1] < region.Span[0] {
			return nil, fmt.Errorf("%w: obstacle %q has reversed span %v", ErrInvalidLayout, region.Name, region.Span)
		}
		for _, cell := range region.Cells() {
			if !g.InBounds(cell) {
				return nil, fmt.Errorf("%w: obstacle %q covers %s outside %dx%d grid",
					ErrInvalidLayout, region.Name, cell, cols, rows)
			}
			g.Nodes[g.index(cell.X, cell.Y)].Obstacle = true
		}
	}

	return g, nil
}

// deepcopy fills its copier cache under a read lock, so concurrent first
// copies of a type race. All clones go through cloneMu.
var cloneMu sync.Mutex

// Clone returns an independent copy of the grid. It is safe to call from
// several goroutines.
func (g *Grid) Clone() *Grid {
	clone := new(Grid)
	cloneMu.Lock()
	err := deepcopy.Copy(clone, g)
	cloneMu.Unlock()
	if err != nil {
		panic(err)
	}
	return clone
}

// InBounds reports whether p addresses a node of the grid
func (g *Grid) InBounds(p Position) bool {
	return p.X >= 0 && p.X <= g.Cols && p.Y >= 0 && p.Y <= g.Rows
}

// Node returns the node at p
func (g *Grid) Node(p Position) (Node, bool) {
	if !g.InBounds(p) {
		return Node{}, false
	}
	return g.Nodes[g.index(p.X, p.Y)], true
}

// IsObstacle reports whether p is blocked. Out-of-bounds positions count as blocked.
func (g *Grid) IsObstacle(p Position) bool {
	if !g.InBounds(p) {
		return true
	}
	return g.Nodes[g.index(p.X, p.Y)].Obstacle
}

// ClearObstacle makes p walkable. Used on a cloned grid so that route
// endpoints are always walkable regardless of coarse obstacle footprints.
func (g *Grid) ClearObstacle(p Position) {
	if g.InBounds(p) {
		g.Nodes[g.index(p.X, p.Y)].Obstacle = false
	}
}

// ObstacleCount returns the number of blocked nodes
func (g *Grid) ObstacleCount() int {
	count := 0
	for _, n := range g.Nodes {
		if n.Obstacle {
			count++
		}
	}
	return count
}

// neighbors returns the in-bounds axis-aligned neighbors of p: left, right, up, down
func (g *Grid) neighbors(p Position) []Position {
	candidates := [4]Position{
		{X: p.X - 1, Y: p.Y},
		{X: p.X + 1, Y: p.Y},
		{X: p.X, Y: p.Y - 1},
		{X: p.X, Y: p.Y + 1},
	}
	result := make([]Position, 0, 4)
	for _, c := range candidates {
		if g.InBounds(c) {
			result = append(result, c)
		}
	}
	return result
}

func (g *Grid) index(x, y int) int {
	return y*(g.Cols+1) + x
}

// ReachableFrom flood-fills the walkable nodes 4-connected to start.
// start itself is always included.
func ReachableFrom(g *Grid, start Position) mapset.Set[Position] {
	visited := mapset.New[Position]()
	if !g.InBounds(start) {
		return visited
	}

	visited.Put(start)
	queue := []Position{start}
	for len(queue) > 0 {
		current := queue[0]
		queue = queue[1:]

		for _, n := range g.neighbors(current) {
			if visited.Has(n) || g.IsObstacle(n) {
				continue
			}
			visited.Put(n)
			queue = append(queue, n)
		}
	}

	return visited
}
