package graphseq

import (
	"fmt"
	"math"
)

// Matrix is a dense row-major matrix.
type Matrix struct {
	Rows, Cols int
	Data       []float64
}

func NewMatrix(rows, cols int) Matrix {
	return Matrix{Rows: rows, Cols: cols, Data: make([]float64, rows*cols)}
}

func (m Matrix) At(r, c int) float64 {
	return m.Data[r*m.Cols+c]
}

func (m Matrix) Set(r, c int, v float64) {
	m.Data[r*m.Cols+c] = v
}

// Row returns row r without copying.
func (m Matrix) Row(r int) []float64 {
	return m.Data[r*m.Cols : (r+1)*m.Cols]
}

// Shape returns the matrix shape, collapsing a single column to a vector shape.
func (m Matrix) Shape() []int {
	if m.Cols == 1 {
		return []int{m.Rows}
	}
	return []int{m.Rows, m.Cols}
}

func (m Matrix) String() string {
	return fmt.Sprintf("Matrix(%dx%d)", m.Rows, m.Cols)
}

// NodeSeries holds one sampled value per node per timestep, one row per
// timestep in chronological order.
type NodeSeries struct {
	NumNodes int
	Rows     [][]float64
}

func NewNodeSeries(numNodes, capacity int) *NodeSeries {
	return &NodeSeries{NumNodes: numNodes, Rows: make([][]float64, 0, capacity)}
}

// Append adds the node values of the next timestep.
func (s *NodeSeries) Append(values []float64) error {
	if len(values) != s.NumNodes {
		return fmt.Errorf("graphseq: row has %d values, series has %d nodes", len(values), s.NumNodes)
	}
	s.Rows = append(s.Rows, values)
	return nil
}

func (s *NodeSeries) Len() int {
	if s == nil {
		return 0
	}
	return len(s.Rows)
}

// Node returns the history of a single node.
func (s *NodeSeries) Node(k int) []float64 {
	out := make([]float64, len(s.Rows))
	for t, row := range s.Rows {
		out[t] = row[k]
	}
	return out
}

// IsValid reports whether every value is finite.
func (s *NodeSeries) IsValid() bool {
	for _, row := range s.Rows {
		for _, v := range row {
			if math.IsNaN(v) || math.IsInf(v, 0) {
				return false
			}
		}
	}
	return true
}

// Run is one simulation run after sampling.
type Run struct {
	Name   string
	Dir    string
	Files  []string
	Series *NodeSeries
}
