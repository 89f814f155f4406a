package lattice

import (
	"math"

	"github.com/san-kum/pdegraph/internal/graphseq"
)

// CoarseGrid is a square lattice of NumNodes nodes.
type CoarseGrid struct {
	NumNodes int
	Side     int
}

// NewCoarseGrid fails unless numNodes is a positive perfect square.
func NewCoarseGrid(numNodes int) (CoarseGrid, error) {
	side, ok := ExactSqrt(numNodes)
	if !ok || numNodes <= 0 {
		return CoarseGrid{}, graphseq.Configf("num_nodes", "%d is not a positive perfect square", numNodes)
	}
	return CoarseGrid{NumNodes: numNodes, Side: side}, nil
}

// Index maps column i and row j to the linear node index.
func (g CoarseGrid) Index(i, j int) int {
	return j*g.Side + i
}

// Coordinate is the inverse of Index.
func (g CoarseGrid) Coordinate(k int) (i, j int) {
	return k % g.Side, k / g.Side
}

func (g CoarseGrid) InBounds(i, j int) bool {
	return i >= 0 && i < g.Side && j >= 0 && j < g.Side
}

// ExactSqrt returns the integer square root of n and whether n is a perfect
// square.
func ExactSqrt(n int) (int, bool) {
	if n < 0 {
		return 0, false
	}
	r := int(math.Sqrt(float64(n)))
	for r*r > n {
		r--
	}
	for (r+1)*(r+1) <= n {
		r++
	}
	return r, r*r == n
}
