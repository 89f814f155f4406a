package lattice

import (
	"fmt"
	"strings"

	"github.com/san-kum/pdegraph/internal/graphseq"
)

// EdgeMode selects how edges are stored in the edge table.
type EdgeMode string

const (
	// EdgeDense appends every qualifying edge.
	EdgeDense EdgeMode = "dense"
	// EdgeOverwrite stores at most one edge per source node, in column i of a
	// table sized to the full edge count; unused columns hold (0, 0).
	EdgeOverwrite EdgeMode = "overwrite"
)

func ParseEdgeMode(s string) (EdgeMode, error) {
	switch EdgeMode(strings.ToLower(strings.TrimSpace(s))) {
	case EdgeDense, "":
		return EdgeDense, nil
	case EdgeOverwrite:
		return EdgeOverwrite, nil
	default:
		return "", graphseq.Configf("edge_mode", "unknown mode %q (want dense or overwrite)", s)
	}
}

// Graph is the static edge table over a CoarseGrid. Column e of the table is
// the directed edge Sources[e] -> Targets[e] with weight Weights[e].
type Graph struct {
	Grid    CoarseGrid
	Mode    EdgeMode
	Sources []int
	Targets []int
	Weights []float64
}

func (g *Graph) NumEdges() int {
	return len(g.Sources)
}

// EdgeIndex returns the (2 x NumEdges) edge table.
func (g *Graph) EdgeIndex() [2][]int {
	return [2][]int{g.Sources, g.Targets}
}

func (g *Graph) String() string {
	return fmt.Sprintf("lattice %dx%d (%s): %d edges", g.Grid.Side, g.Grid.Side, g.Mode, g.NumEdges())
}

type neighbor struct {
	ok     bool
	target int
}

// neighbors returns the right, lower and lower-right neighbour of node k, in
// that order.
func (g CoarseGrid) neighbors(k int) [3]neighbor {
	i, j := g.Coordinate(k)
	right := g.InBounds(i+1, j)
	below := g.InBounds(i, j+1)
	return [3]neighbor{
		{right, g.Index(i+1, j)},
		{below, g.Index(i, j+1)},
		{right && below, g.Index(i+1, j+1)},
	}
}

// Build constructs the edge table for grid. All weights are 1.
func Build(grid CoarseGrid, mode EdgeMode) (*Graph, error) {
	if grid.Side <= 0 || grid.Side*grid.Side != grid.NumNodes {
		return nil, graphseq.Configf("num_nodes", "invalid grid %dx%d for %d nodes", grid.Side, grid.Side, grid.NumNodes)
	}

	var src, dst []int
	switch mode {
	case EdgeDense, "":
		mode = EdgeDense
		src, dst = buildDense(grid)
	case EdgeOverwrite:
		src, dst = buildOverwrite(grid)
	default:
		return nil, graphseq.Configf("edge_mode", "unknown mode %q", mode)
	}

	weights := make([]float64, len(src))
	for e := range weights {
		weights[e] = 1.0
	}

	return &Graph{Grid: grid, Mode: mode, Sources: src, Targets: dst, Weights: weights}, nil
}

func buildDense(grid CoarseGrid) ([]int, []int) {
	src := make([]int, 0, 3*grid.NumNodes)
	dst := make([]int, 0, 3*grid.NumNodes)
	for k := 0; k < grid.NumNodes; k++ {
		for _, n := range grid.neighbors(k) {
			if n.ok {
				src = append(src, k)
				dst = append(dst, n.target)
			}
		}
	}
	return src, dst
}

func buildOverwrite(grid CoarseGrid) ([]int, []int) {
	total := 0
	for k := 0; k < grid.NumNodes; k++ {
		for _, n := range grid.neighbors(k) {
			if n.ok {
				total++
			}
		}
	}

	// total >= NumNodes whenever any node has a neighbour, so column k exists.
	src := make([]int, total)
	dst := make([]int, total)
	for k := 0; k < grid.NumNodes; k++ {
		for _, n := range grid.neighbors(k) {
			if n.ok {
				src[k] = k
				dst[k] = n.target
			}
		}
	}
	return src, dst
}
