package main

import (
	"fmt"
	"io"
	"os"
	"text/tabwriter"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/spf13/cobra"

	"github.com/san-kum/pdegraph/internal/collector"
	"github.com/san-kum/pdegraph/internal/config"
	"github.com/san-kum/pdegraph/internal/extract"
	"github.com/san-kum/pdegraph/internal/field"
	"github.com/san-kum/pdegraph/internal/graphseq"
	"github.com/san-kum/pdegraph/internal/lattice"
	"github.com/san-kum/pdegraph/internal/logging"
	"github.com/san-kum/pdegraph/internal/metrics"
	"github.com/san-kum/pdegraph/internal/observability"
	"github.com/san-kum/pdegraph/internal/report"
	"github.com/san-kum/pdegraph/internal/synth"
	"github.com/san-kum/pdegraph/internal/viz"
)

func runExtract(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	if metricsFile != "" {
		cfg.Metrics.Textfile = metricsFile
	}
	log := newLogger(cfg)

	shutdown, err := initTracing(ctx, cfg, log)
	if err != nil {
		return err
	}
	defer shutdown()

	m, err := observability.NewExtractionCollector(prometheus.NewRegistry())
	if err != nil {
		return err
	}
	e, err := extract.New(cfg, extract.WithLogger(log), extract.WithMetrics(m))
	if err != nil {
		return err
	}

	start := time.Now()
	res, err := e.Run(ctx)
	if err != nil {
		return err
	}
	log.Info(ctx, "extraction finished", logging.Duration("elapsed", time.Since(start)))

	r := report.New(cfg, res)

	out := summaryWriter(reportFile, os.Stdout, os.Stderr)
	fmt.Fprintln(out, viz.Summary(r))

	if showTensors {
		set, err := res.Dataset.Tensors(res.Params.Mode)
		if err != nil {
			return err
		}
		fmt.Fprintln(out, viz.KV("x", set.Features.Shape().String()))
		fmt.Fprintln(out, viz.KV("y", set.Targets.Shape().String()))
		if set.EdgeIndex != nil {
			fmt.Fprintln(out, viz.KV("edge_index", set.EdgeIndex.Shape().String()))
		}
	}

	switch reportFile {
	case "":
	case "-":
		if err := r.ExportJSONStdout(); err != nil {
			return err
		}
	default:
		if err := r.ExportJSON(reportFile); err != nil {
			return fmt.Errorf("write report: %w", err)
		}
		fmt.Printf("report written to %s\n", reportFile)
	}

	if cfg.Metrics.Textfile != "" {
		if err := m.WriteTextfile(cfg.Metrics.Textfile); err != nil {
			return fmt.Errorf("write metrics: %w", err)
		}
	}
	return nil
}

// summaryWriter keeps stdout free for the JSON report when it goes there.
func summaryWriter(reportFile string, stdout, stderr io.Writer) io.Writer {
	if reportFile == "-" {
		return stderr
	}
	return stdout
}

func runInspect(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	log := newLogger(cfg)

	e, err := extract.New(cfg, extract.WithLogger(log))
	if err != nil {
		return err
	}
	c, err := e.Collector(config.Variant{Rotate: cfg.Rotate, Flip: cfg.Flip, Mirror: cfg.Mirror})
	if err != nil {
		return err
	}

	if len(args) == 0 {
		runs, err := c.Collect(ctx)
		if err != nil {
			return err
		}
		p, err := cfg.WindowParams()
		if err != nil {
			return err
		}
		w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
		fmt.Fprintln(w, "RUN\tSTEPS\tWINDOWS\tMIN\tMAX\tMEAN")
		for _, run := range runs {
			s := metrics.Summarize(run.Series)
			fmt.Fprintf(w, "%s\t%d\t%d\t%.4g\t%.4g\t%.4g\n",
				run.Name, run.Series.Len(), p.Windows(run.Series.Len()), s["min"], s["max"], s["mean"])
		}
		return w.Flush()
	}

	dirs, err := c.Discover()
	if err != nil {
		return err
	}
	for _, rd := range dirs {
		if rd.Name != args[0] {
			continue
		}
		run, err := c.CollectRun(ctx, rd)
		if err != nil {
			return err
		}
		return showRun(run, cfg.NumNodes)
	}
	return &graphseq.DiscoveryError{Path: cfg.PathPrefix, Reason: fmt.Sprintf("no run named %s", args[0])}
}

func showRun(run *graphseq.Run, numNodes int) error {
	if len(nodes) == 0 {
		return graphseq.Configf("node", "at least one node is required")
	}
	for _, k := range nodes {
		if k < 0 || k >= numNodes {
			return graphseq.Configf("node", "must be in [0, %d), got %d", numNodes, k)
		}
	}
	s := metrics.Summarize(run.Series)
	fmt.Println(viz.Box(run.Name,
		viz.KV("dir", run.Dir),
		viz.KV("timesteps", fmt.Sprintf("%d", run.Series.Len())),
		viz.KV("range", fmt.Sprintf("[%.4g, %.4g]", s["min"], s["max"])),
	))
	if len(nodes) == 1 {
		fmt.Println(viz.PlotSeries(run.Series.Node(nodes[0]), 80, 10, fmt.Sprintf("%s node %d", run.Name, nodes[0])))
	} else {
		series := make(map[int][]float64, len(nodes))
		for _, k := range nodes {
			series[k] = run.Series.Node(k)
		}
		fmt.Println(viz.PlotNodes(series, nodes, 80, 10))
	}

	if showHeatmap && run.Series.Len() > 0 {
		grid, err := lattice.NewCoarseGrid(numNodes)
		if err != nil {
			return err
		}
		last := run.Series.Len() - 1
		fmt.Println(viz.Separator(2 * grid.Side))
		fmt.Println(viz.Heatmap(run.Series.Rows[0], grid.Side, s["min"], s["max"]))
		fmt.Println(viz.Separator(2 * grid.Side))
		fmt.Println(viz.Heatmap(run.Series.Rows[last], grid.Side, s["min"], s["max"]))
	}
	return nil
}

func runEdges(cmd *cobra.Command, args []string) error {
	grid, err := lattice.NewCoarseGrid(numNodes)
	if err != nil {
		return err
	}
	mode, err := lattice.ParseEdgeMode(edgeMode)
	if err != nil {
		return err
	}
	g, err := lattice.Build(grid, mode)
	if err != nil {
		return err
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "EDGE\tSOURCE\tTARGET\tWEIGHT")
	for e := 0; e < g.NumEdges(); e++ {
		fmt.Fprintf(w, "%d\t%d\t%d\t%g\n", e, g.Sources[e], g.Targets[e], g.Weights[e])
	}
	if err := w.Flush(); err != nil {
		return err
	}
	fmt.Println(viz.Subtle.Render(g.String()))
	return nil
}

func runSynth(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	cfg := config.DefaultConfig()
	if configFile != "" {
		loaded, err := config.Load(configFile)
		if err != nil {
			return fmt.Errorf("failed to load config: %w", err)
		}
		cfg = loaded
	}
	order, err := field.ParseByteOrder(byteOrder)
	if err != nil {
		return err
	}

	ctx = logging.ContextWithLogger(ctx, newLogger(cfg))
	dirs, err := synth.Generate(ctx, synthOut, synthCfg, order)
	if err != nil {
		return err
	}
	fmt.Printf("wrote %d runs of %d %s snapshots under %s*\n", len(dirs), synthCfg.Snapshots, collector.DefaultSuffix, synthOut)
	return nil
}
