package viz

import (
	"fmt"
	"strings"

	"github.com/san-kum/pdegraph/internal/report"
)

// Summary renders the extraction report as two panels: the dataset and the
// runs it was built from.
func Summary(r *report.Report) string {
	ds := Box("dataset",
		KV("prefix", r.PathPrefix),
		KV("nodes", fmt.Sprintf("%d (%s edges)", r.NumNodes, r.EdgeMode)),
		KV("edges", fmt.Sprintf("%d", r.Edges)),
		KV("lags", fmt.Sprintf("in %d, out %d (%s)", r.InputLags, r.OutputLags, r.TargetMode)),
		KV("variants", fmt.Sprintf("%d", len(r.Variants))),
		KV("samples", fmt.Sprintf("%d", r.Samples)),
		KV("features", shape(r.FeatureShape)),
		KV("targets", shape(r.TargetShape)),
	)

	lines := make([]string, 0, len(r.Runs))
	for _, run := range r.Runs {
		line := fmt.Sprintf("%-24s %5d steps %5d samples  [%.4g, %.4g]",
			run.Name, run.Timesteps, run.Samples, run.Stats["min"], run.Stats["max"])
		if run.Samples == 0 {
			line = Warning.Render(line)
		}
		lines = append(lines, line)
	}
	if len(lines) == 0 {
		lines = append(lines, Subtle.Render("(no runs)"))
	}
	return ds + "\n" + Box("runs", lines...)
}

func shape(dims []int) string {
	if len(dims) == 0 {
		return "-"
	}
	parts := make([]string, len(dims))
	for i, d := range dims {
		parts[i] = fmt.Sprintf("%d", d)
	}
	return "(" + strings.Join(parts, ", ") + ")"
}
