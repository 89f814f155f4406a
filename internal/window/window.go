// Package window slices node time series into lag-window samples.
package window

import (
	"strings"

	"github.com/san-kum/pdegraph/internal/graphseq"
)

// TargetMode selects the target layout of a sample.
type TargetMode string

const (
	// TargetSingle targets the one timestep InputLags+OutputLags after the
	// window start: shape (nodes,).
	TargetSingle TargetMode = "single"
	// TargetBundle targets the OutputLags timesteps right after the input
	// window: shape (nodes x OutputLags).
	TargetBundle TargetMode = "bundle"
)

func ParseTargetMode(s string) (TargetMode, error) {
	switch TargetMode(strings.ToLower(strings.TrimSpace(s))) {
	case TargetSingle, "":
		return TargetSingle, nil
	case TargetBundle:
		return TargetBundle, nil
	default:
		return "", graphseq.Configf("target_mode", "unknown mode %q (want single or bundle)", s)
	}
}

// Params are the window sizes, passed explicitly on every call.
type Params struct {
	InputLags  int
	OutputLags int
	Mode       TargetMode
}

func (p Params) Validate() error {
	if p.InputLags < 1 {
		return graphseq.Configf("input_lags", "must be at least 1, got %d", p.InputLags)
	}
	switch p.Mode {
	case TargetSingle, "":
		if p.OutputLags < 0 {
			return graphseq.Configf("output_lags", "must not be negative, got %d", p.OutputLags)
		}
	case TargetBundle:
		if p.OutputLags < 1 {
			return graphseq.Configf("output_lags", "bundled targets need at least 1, got %d", p.OutputLags)
		}
	default:
		return graphseq.Configf("target_mode", "unknown mode %q", p.Mode)
	}
	return nil
}

// Windows returns how many samples a series of T timesteps yields.
func (p Params) Windows(timesteps int) int {
	n := timesteps - p.InputLags - p.OutputLags
	if n < 0 {
		return 0
	}
	return n
}

// TargetCols is the column count of every target matrix.
func (p Params) TargetCols() int {
	if p.Mode == TargetBundle {
		return p.OutputLags
	}
	return 1
}

// Sample is one (features, target) pair. Features is (nodes x InputLags);
// Target is (nodes x 1) in single mode and (nodes x OutputLags) in bundle
// mode.
type Sample struct {
	Run      string
	Start    int
	Features graphseq.Matrix
	Target   graphseq.Matrix
}

// Slice produces every window of series, for start offsets
// s in [0, T - InputLags - OutputLags).
func Slice(run string, series *graphseq.NodeSeries, p Params) ([]Sample, error) {
	if err := p.Validate(); err != nil {
		return nil, err
	}
	count := p.Windows(series.Len())
	if count == 0 {
		return nil, nil
	}

	nodes := series.NumNodes
	samples := make([]Sample, count)
	for s := 0; s < count; s++ {
		samples[s] = Sample{
			Run:      run,
			Start:    s,
			Features: transpose(series.Rows[s:s+p.InputLags], nodes),
			Target:   target(series, s, p),
		}
	}
	return samples, nil
}

func target(series *graphseq.NodeSeries, s int, p Params) graphseq.Matrix {
	if p.Mode == TargetBundle {
		from := s + p.InputLags
		return transpose(series.Rows[from:from+p.OutputLags], series.NumNodes)
	}
	row := series.Rows[s+p.InputLags+p.OutputLags]
	m := graphseq.NewMatrix(series.NumNodes, 1)
	copy(m.Data, row)
	return m
}

// transpose turns consecutive timestep rows into a (nodes x len(rows))
// matrix: row k is node k's history.
func transpose(rows [][]float64, nodes int) graphseq.Matrix {
	m := graphseq.NewMatrix(nodes, len(rows))
	for t, row := range rows {
		for k := 0; k < nodes; k++ {
			m.Set(k, t, row[k])
		}
	}
	return m
}
