package engine

import "container/heap"

// searchNode holds the per-search scratch state for one grid node
type searchNode struct {
	pos    Position
	g, h   int
	f      int
	parent *searchNode
	seq    int // insertion order into the open set, breaks f ties
	index  int // position in the heap
	open   bool
	closed bool
}

// openSet orders nodes by f, then by insertion order
type openSet []*searchNode

func (o openSet) Len() int { return len(o) }
func (o openSet) Less(i, j int) bool {
	if o[i].f != o[j].f {
		return o[i].f < o[j].f
	}
	return o[i].seq < o[j].seq
}
func (o openSet) Swap(i, j int) {
	o[i], o[j] = o[j], o[i]
	o[i].index = i
	o[j].index = j
}
func (o *openSet) Push(x any) {
	n := x.(*searchNode)
	n.index = len(*o)
	*o = append(*o, n)
}
func (o *openSet) Pop() any {
	old := *o
	last := len(old) - 1
	n := old[last]
	old[last] = nil
	n.index = -1
	*o = old[:last]
	return n
}

// FindPath returns a shortest 4-connected path from start to end over the
// walkable nodes of grid, both endpoints included.
//
// The result is empty when end cannot be reached (or either endpoint lies
// outside the grid) and holds the single node when start == end. The grid is
// only read; scratch state lives in a dense array owned by this call, so
// concurrent searches over one grid are safe.
func FindPath(grid *Grid, start, end Position) Path {
	if !grid.InBounds(start) || !grid.InBounds(end) {
		return Path{}
	}
	if start == end {
		return Path{start}
	}

	scratch := make([]searchNode, len(grid.Nodes))
	at := func(p Position) *searchNode {
		n := &scratch[grid.index(p.X, p.Y)]
		n.pos = p
		return n
	}

	open := &openSet{}
	seq := 0

	first := at(start)
	first.h = ManhattanDistance(start, end)
	first.f = first.h
	first.open = true
	heap.Push(open, first)

	for open.Len() > 0 {
		current := heap.Pop(open).(*searchNode)
		current.open = false

		if current.pos == end {
			return reconstructPath(current)
		}

		current.closed = true

		for _, p := range grid.neighbors(current.pos) {
			neighbor := at(p)
			if neighbor.closed || grid.IsObstacle(p) {
				continue
			}

			g := current.g + 1
			if !neighbor.open {
				seq++
				neighbor.g = g
				neighbor.h = ManhattanDistance(p, end)
				neighbor.f = g + neighbor.h
				neighbor.parent = current
				neighbor.seq = seq
				neighbor.open = true
				heap.Push(open, neighbor)
			} else if g < neighbor.g {
				neighbor.g = g
				neighbor.f = g + neighbor.h
				neighbor.parent = current
				heap.Fix(open, neighbor.index)
			}
		}
	}

	return Path{}
}

// reconstructPath follows parent links back to the start and reverses them
func reconstructPath(end *searchNode) Path {
	var path Path
	for n := end; n != nil; n = n.parent {
		path = append(path, n.pos)
	}
	for i, j := 0, len(path)-1; i < j; i, j = i+1, j-1 {
		path[i], path[j] = path[j], path[i]
	}
	return path
}
