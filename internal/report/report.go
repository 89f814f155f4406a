// Package report describes an extraction in a JSON document: the runs that
// were read, the graph that was built and the shapes handed to training.
package report

import (
	"encoding/json"
	"io"
	"os"
	"time"

	"github.com/san-kum/pdegraph/internal/config"
	"github.com/san-kum/pdegraph/internal/extract"
	"github.com/san-kum/pdegraph/internal/metrics"
)

type RunInfo struct {
	Name      string             `json:"name"`
	Dir       string             `json:"dir"`
	Timesteps int                `json:"timesteps"`
	Samples   int                `json:"samples"`
	Stats     map[string]float64 `json:"stats"`
}

type Report struct {
	Created       time.Time        `json:"created"`
	PathPrefix    string           `json:"path_prefix"`
	NumNodes      int              `json:"num_nodes"`
	EdgeMode      string           `json:"edge_mode"`
	TargetMode    string           `json:"target_mode"`
	InputLags     int              `json:"input_lags"`
	OutputLags    int              `json:"output_lags"`
	Variants      []config.Variant `json:"variants"`
	Runs          []RunInfo        `json:"runs"`
	Edges         int              `json:"edges"`
	Samples       int              `json:"samples"`
	FeatureShape  []int            `json:"feature_shape"`
	TargetShape   []int            `json:"target_shape"`
	EdgeIndexSize [2]int           `json:"edge_index_shape"`
}

// New summarises res. Run statistics cover the first variant's runs.
func New(cfg *config.Config, res *extract.Result) *Report {
	r := &Report{
		Created:       time.Now().UTC(),
		PathPrefix:    cfg.PathPrefix,
		NumNodes:      res.Graph.Grid.NumNodes,
		EdgeMode:      string(res.Graph.Mode),
		TargetMode:    string(res.Params.Mode),
		InputLags:     res.Params.InputLags,
		OutputLags:    res.Params.OutputLags,
		Variants:      res.Variants,
		Runs:          make([]RunInfo, 0, len(res.Runs)),
		Edges:         res.Dataset.NumEdges(),
		Samples:       res.Dataset.Len(),
		EdgeIndexSize: [2]int{2, res.Dataset.NumEdges()},
	}

	counts := res.Dataset.CountByRun()
	for _, run := range res.Runs {
		r.Runs = append(r.Runs, RunInfo{
			Name:      run.Name,
			Dir:       run.Dir,
			Timesteps: run.Series.Len(),
			Samples:   counts[run.Name] / max(1, len(res.Variants)),
			Stats:     metrics.Summarize(run.Series),
		})
	}
	if first, err := res.Dataset.Snapshot(0); err == nil {
		r.FeatureShape = first.X.Shape()
		r.TargetShape = first.Y.Shape()
	}
	return r
}

func (r *Report) Write(w io.Writer) error {
	encoder := json.NewEncoder(w)
	encoder.SetIndent("", "  ")
	return encoder.Encode(r)
}

func (r *Report) ExportJSON(path string) error {
	file, err := os.Create(path)
	if err != nil {
		return err
	}
	defer file.Close()
	return r.Write(file)
}

func (r *Report) ExportJSONStdout() error {
	return r.Write(os.Stdout)
}

func Load(path string) (*Report, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var r Report
	if err := json.Unmarshal(data, &r); err != nil {
		return nil, err
	}
	return &r, nil
}
