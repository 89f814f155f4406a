// Package dataset assembles the shared lattice graph and the lag-window
// samples of all runs into one static-graph temporal dataset.
//
// Samples are ordered by run (in collection order) and chronologically
// within each run. Every sample shares the same edge table.
package dataset

import (
	"fmt"

	"github.com/san-kum/pdegraph/internal/graphseq"
	"github.com/san-kum/pdegraph/internal/lattice"
	"github.com/san-kum/pdegraph/internal/window"
)

// SampleRef records where a sample came from.
type SampleRef struct {
	Run   string
	Start int
}

// Dataset is the (edge index, edge weights, features, targets) tuple handed
// to the training collaborator.
type Dataset struct {
	EdgeIndex  [2][]int
	EdgeWeight []float64
	Features   []graphseq.Matrix
	Targets    []graphseq.Matrix
	Refs       []SampleRef
}

// Snapshot is one sample together with the shared graph.
type Snapshot struct {
	EdgeIndex  [2][]int
	EdgeWeight []float64
	X          graphseq.Matrix
	Y          graphseq.Matrix
	Ref        SampleRef
}

// Empty returns a dataset whose four components are empty.
func Empty() *Dataset {
	return &Dataset{
		EdgeIndex:  [2][]int{make([]int, 0), make([]int, 0)},
		EdgeWeight: make([]float64, 0),
		Features:   make([]graphseq.Matrix, 0),
		Targets:    make([]graphseq.Matrix, 0),
		Refs:       make([]SampleRef, 0),
	}
}

// Assemble slices every run with p and packages the windows with g. Runs are
// taken in the order given.
func Assemble(g *lattice.Graph, runs []*graphseq.Run, p window.Params) (*Dataset, error) {
	if err := p.Validate(); err != nil {
		return nil, err
	}

	total := 0
	for _, r := range runs {
		total += p.Windows(r.Series.Len())
	}

	d := &Dataset{
		EdgeIndex:  g.EdgeIndex(),
		EdgeWeight: g.Weights,
		Features:   make([]graphseq.Matrix, 0, total),
		Targets:    make([]graphseq.Matrix, 0, total),
		Refs:       make([]SampleRef, 0, total),
	}
	for _, r := range runs {
		if r.Series.NumNodes != g.Grid.NumNodes {
			return nil, fmt.Errorf("dataset: run %s has %d nodes, graph has %d", r.Name, r.Series.NumNodes, g.Grid.NumNodes)
		}
		samples, err := window.Slice(r.Name, r.Series, p)
		if err != nil {
			return nil, err
		}
		for _, s := range samples {
			d.Features = append(d.Features, s.Features)
			d.Targets = append(d.Targets, s.Target)
			d.Refs = append(d.Refs, SampleRef{Run: s.Run, Start: s.Start})
		}
	}
	return d, nil
}

// Merge concatenates the edge tables, weights, features and targets of a and
// b. Callers must ensure both datasets share the same graph topology; no
// check is made.
func Merge(a, b *Dataset) *Dataset {
	return &Dataset{
		EdgeIndex:  [2][]int{concat(a.EdgeIndex[0], b.EdgeIndex[0]), concat(a.EdgeIndex[1], b.EdgeIndex[1])},
		EdgeWeight: concat(a.EdgeWeight, b.EdgeWeight),
		Features:   concat(a.Features, b.Features),
		Targets:    concat(a.Targets, b.Targets),
		Refs:       concat(a.Refs, b.Refs),
	}
}

// Combine appends the samples of b to a and keeps a single edge table. Both
// datasets must carry the same graph; an empty a takes b's graph.
func Combine(a, b *Dataset) (*Dataset, error) {
	if a.NumEdges() > 0 && b.NumEdges() > 0 && !sameGraph(a, b) {
		return nil, fmt.Errorf("dataset: cannot combine datasets with different graphs (%d vs %d edges)", a.NumEdges(), b.NumEdges())
	}
	out := Merge(a, b)
	if a.NumEdges() > 0 {
		out.EdgeIndex = [2][]int{concat(a.EdgeIndex[0], nil), concat(a.EdgeIndex[1], nil)}
		out.EdgeWeight = concat(a.EdgeWeight, nil)
	} else {
		out.EdgeIndex = [2][]int{concat(b.EdgeIndex[0], nil), concat(b.EdgeIndex[1], nil)}
		out.EdgeWeight = concat(b.EdgeWeight, nil)
	}
	return out, nil
}

func sameGraph(a, b *Dataset) bool {
	if a.NumEdges() != b.NumEdges() || len(a.EdgeWeight) != len(b.EdgeWeight) {
		return false
	}
	for r := 0; r < 2; r++ {
		for i, v := range a.EdgeIndex[r] {
			if b.EdgeIndex[r][i] != v {
				return false
			}
		}
	}
	for i, w := range a.EdgeWeight {
		if b.EdgeWeight[i] != w {
			return false
		}
	}
	return true
}

func concat[T any](a, b []T) []T {
	out := make([]T, 0, len(a)+len(b))
	out = append(out, a...)
	return append(out, b...)
}

func (d *Dataset) Len() int {
	return len(d.Features)
}

func (d *Dataset) NumEdges() int {
	return len(d.EdgeIndex[0])
}

// Snapshot returns sample i with the shared graph.
func (d *Dataset) Snapshot(i int) (Snapshot, error) {
	if i < 0 || i >= d.Len() {
		return Snapshot{}, fmt.Errorf("dataset: sample %d out of range [0, %d)", i, d.Len())
	}
	s := Snapshot{
		EdgeIndex:  d.EdgeIndex,
		EdgeWeight: d.EdgeWeight,
		X:          d.Features[i],
		Y:          d.Targets[i],
	}
	if i < len(d.Refs) {
		s.Ref = d.Refs[i]
	}
	return s, nil
}

// CountByRun returns the number of samples per run name.
func (d *Dataset) CountByRun() map[string]int {
	out := make(map[string]int)
	for _, r := range d.Refs {
		out[r.Run]++
	}
	return out
}
