// Package sampler reduces a fine scalar field to one value per coarse grid
// node by point sampling at the centre of each sub-block.
package sampler

import (
	"fmt"
	"math"

	"github.com/san-kum/pdegraph/internal/field"
	"github.com/san-kum/pdegraph/internal/graphseq"
	"github.com/san-kum/pdegraph/internal/lattice"
)

// Sampler maps fields of side DomainSide onto Grid. The field positions it
// reads are computed once in New.
type Sampler struct {
	Grid       lattice.CoarseGrid
	DomainSide int
	Factor     float64

	// offsets[k] is the field index read for node k.
	offsets []int
}

// New fails when the coarse side does not divide the domain side exactly.
func New(grid lattice.CoarseGrid, domainSide int, factor float64) (*Sampler, error) {
	if grid.Side <= 0 {
		return nil, graphseq.Configf("num_nodes", "empty coarse grid")
	}
	if domainSide < grid.Side {
		return nil, graphseq.Configf("num_nodes", "coarse side %d exceeds domain side %d", grid.Side, domainSide)
	}
	if domainSide%grid.Side != 0 {
		return nil, graphseq.Configf("num_nodes",
			"coarse side %d does not divide domain side %d", grid.Side, domainSide)
	}

	step := float64(domainSide) / float64(grid.Side)
	start := step / 2
	offsets := make([]int, grid.NumNodes)
	for i := 0; i < grid.Side; i++ {
		x := int(math.Floor(start + float64(i)*step))
		for j := 0; j < grid.Side; j++ {
			y := int(math.Floor(start + float64(j)*step))
			offsets[grid.Index(i, j)] = y*domainSide + x
		}
	}

	return &Sampler{Grid: grid, DomainSide: domainSide, Factor: factor, offsets: offsets}, nil
}

// Sample returns Factor * field value at every node's sub-block centre.
func (s *Sampler) Sample(f *field.ScalarField) ([]float64, error) {
	if f.Side != s.DomainSide {
		return nil, &graphseq.DecodeError{
			Path:   "<sample>",
			Reason: fmt.Sprintf("field side %d, sampler expects %d", f.Side, s.DomainSide),
		}
	}
	out := make([]float64, len(s.offsets))
	for k, off := range s.offsets {
		out[k] = s.Factor * f.Values[off]
	}
	return out, nil
}
