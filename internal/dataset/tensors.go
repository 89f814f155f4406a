package dataset

import (
	"errors"

	"github.com/gomlx/gomlx/pkg/core/tensors"

	"github.com/san-kum/pdegraph/internal/window"
)

var ErrEmptyDataset = errors.New("dataset: no samples to convert")

// TensorSet holds the dataset as gomlx tensors in float32.
//
//   - Features:   [samples, nodes, inputLags]
//   - Targets:    [samples, nodes] or [samples, nodes, outputLags]
//   - EdgeIndex:  [2, edges] (int64); nil when the graph has no edges
//   - EdgeWeight: [edges]; nil when the graph has no edges
type TensorSet struct {
	Features   *tensors.Tensor
	Targets    *tensors.Tensor
	EdgeIndex  *tensors.Tensor
	EdgeWeight *tensors.Tensor
}

// Tensors converts the dataset for a gomlx training loop. mode decides the
// target layout: bundled targets keep their lag axis even when it has length
// one.
func (d *Dataset) Tensors(mode window.TargetMode) (*TensorSet, error) {
	if d.Len() == 0 {
		return nil, ErrEmptyDataset
	}

	features := make([][][]float32, d.Len())
	for i, m := range d.Features {
		features[i] = toFloat32Rows(m.Rows, m.Cols, m.Data)
	}

	set := &TensorSet{Features: tensors.FromAnyValue(features)}

	if mode == window.TargetBundle {
		targets := make([][][]float32, d.Len())
		for i, m := range d.Targets {
			targets[i] = toFloat32Rows(m.Rows, m.Cols, m.Data)
		}
		set.Targets = tensors.FromAnyValue(targets)
	} else {
		targets := make([][]float32, d.Len())
		for i, m := range d.Targets {
			targets[i] = toFloat32(m.Data)
		}
		set.Targets = tensors.FromAnyValue(targets)
	}

	if d.NumEdges() > 0 {
		index := [][]int64{make([]int64, d.NumEdges()), make([]int64, d.NumEdges())}
		for e := 0; e < d.NumEdges(); e++ {
			index[0][e] = int64(d.EdgeIndex[0][e])
			index[1][e] = int64(d.EdgeIndex[1][e])
		}
		set.EdgeIndex = tensors.FromAnyValue(index)
		set.EdgeWeight = tensors.FromAnyValue(toFloat32(d.EdgeWeight))
	}
	return set, nil
}

func toFloat32(v []float64) []float32 {
	out := make([]float32, len(v))
	for i, x := range v {
		out[i] = float32(x)
	}
	return out
}

func toFloat32Rows(rows, cols int, data []float64) [][]float32 {
	flat := toFloat32(data)
	out := make([][]float32, rows)
	for r := range out {
		out[r] = flat[r*cols : (r+1)*cols]
	}
	return out
}
