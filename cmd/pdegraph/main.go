package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"sort"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/san-kum/pdegraph/internal/config"
	"github.com/san-kum/pdegraph/internal/logging"
	"github.com/san-kum/pdegraph/internal/observability"
	"github.com/san-kum/pdegraph/internal/synth"
)

var (
	configFile string
	preset     string

	pathPrefix  string
	numNodes    int
	inputLags   int
	outputLags  int
	rotate      int
	flip        int
	mirror      bool
	normFactor  float64
	edgeMode    string
	targetMode  string
	byteOrder   string
	emptyRuns   string
	workers     int
	reportFile  string
	metricsFile string
	showTensors bool

	nodes       []int
	showHeatmap bool
	synthOut    string

	synthCfg = synth.DefaultParams()
)

func main() {
	rootCmd := &cobra.Command{
		Use:           "pdegraph",
		Short:         "turn PDE simulation snapshots into graph time series datasets",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	rootCmd.PersistentFlags().StringVar(&configFile, "config", "", "config file path (yaml)")

	extractCmd := &cobra.Command{
		Use:   "extract",
		Short: "build the dataset and print a summary",
		Args:  cobra.NoArgs,
		RunE:  runExtract,
	}
	addPipelineFlags(extractCmd)
	extractCmd.Flags().StringVar(&preset, "preset", "", "augmentation preset (see presets)")
	extractCmd.Flags().StringVar(&reportFile, "report", "", "write a JSON report to this file (- for stdout)")
	extractCmd.Flags().StringVar(&metricsFile, "metrics-file", "", "write prometheus metrics in textfile format")
	extractCmd.Flags().BoolVar(&showTensors, "tensors", false, "convert to tensors and print their shapes")

	inspectCmd := &cobra.Command{
		Use:   "inspect [run]",
		Short: "list runs with series statistics, or plot one run",
		Args:  cobra.MaximumNArgs(1),
		RunE:  runInspect,
	}
	addPipelineFlags(inspectCmd)
	inspectCmd.Flags().IntSliceVar(&nodes, "node", []int{0}, "nodes to plot (repeat or comma separate to overlay)")
	inspectCmd.Flags().BoolVar(&showHeatmap, "heatmap", false, "show the first and last snapshot as coarse heatmaps")

	edgesCmd := &cobra.Command{
		Use:   "edges",
		Short: "print the lattice edge table",
		Args:  cobra.NoArgs,
		RunE:  runEdges,
	}
	edgesCmd.Flags().IntVar(&numNodes, "nodes", config.DefaultNumNodes, "number of graph nodes (perfect square)")
	edgesCmd.Flags().StringVar(&edgeMode, "edge-mode", "dense", "edge construction: dense or overwrite")

	synthCmd := &cobra.Command{
		Use:   "synth",
		Short: "write synthetic heat equation runs",
		Args:  cobra.NoArgs,
		RunE:  runSynth,
	}
	synthCmd.Flags().StringVar(&synthOut, "out", config.DefaultPathPrefix, "run directory prefix")
	synthCmd.Flags().IntVar(&synthCfg.Runs, "runs", synthCfg.Runs, "number of runs")
	synthCmd.Flags().IntVar(&synthCfg.Side, "side", synthCfg.Side, "fine grid side")
	synthCmd.Flags().IntVar(&synthCfg.Snapshots, "snapshots", synthCfg.Snapshots, "snapshots per run")
	synthCmd.Flags().IntVar(&synthCfg.SubSteps, "sub-steps", synthCfg.SubSteps, "solver steps between snapshots")
	synthCmd.Flags().Float64Var(&synthCfg.Courant, "courant", synthCfg.Courant, "alpha*dt/dx^2 (at most 0.25)")
	synthCmd.Flags().Float64Var(&synthCfg.Amplitude, "amplitude", synthCfg.Amplitude, "hot spot amplitude")
	synthCmd.Flags().Float64Var(&synthCfg.Width, "width", synthCfg.Width, "hot spot width in cells")
	synthCmd.Flags().Int64Var(&synthCfg.Seed, "seed", synthCfg.Seed, "random seed")
	synthCmd.Flags().StringVar(&byteOrder, "byte-order", "little", "snapshot byte order")

	presetsCmd := &cobra.Command{
		Use:   "presets",
		Short: "list augmentation presets",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			names := config.ListPresets()
			sort.Strings(names)
			for _, name := range names {
				fmt.Printf("  %-10s", name)
				for _, v := range config.GetPreset(name) {
					fmt.Printf(" %s", v)
				}
				fmt.Println()
			}
			return nil
		},
	}

	configCmd := &cobra.Command{
		Use:   "config",
		Short: "manage config files",
	}
	configInitCmd := &cobra.Command{
		Use:   "init [path]",
		Short: "write the default config",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			path := "pdegraph.yaml"
			if len(args) > 0 {
				path = args[0]
			}
			if err := config.Save(path, config.DefaultConfig()); err != nil {
				return err
			}
			fmt.Printf("wrote %s\n", path)
			return nil
		},
	}
	configCmd.AddCommand(configInitCmd)

	rootCmd.AddCommand(extractCmd, inspectCmd, edgesCmd, synthCmd, presetsCmd, configCmd)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := rootCmd.ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		stop()
		os.Exit(1)
	}
}

func addPipelineFlags(cmd *cobra.Command) {
	f := cmd.Flags()
	f.StringVar(&pathPrefix, "path-prefix", config.DefaultPathPrefix, "run directory prefix")
	f.IntVar(&numNodes, "nodes", config.DefaultNumNodes, "number of graph nodes (perfect square)")
	f.IntVar(&inputLags, "input-lags", config.DefaultInputLags, "timesteps per feature window")
	f.IntVar(&outputLags, "output-lags", config.DefaultOutputLags, "forecast horizon")
	f.IntVar(&rotate, "rotate", 0, "quarter turns applied to every snapshot")
	f.IntVar(&flip, "flip", 0, "1 to reverse both axes of every snapshot (a half turn)")
	f.BoolVar(&mirror, "mirror", false, "reverse the x axis of every snapshot")
	f.Float64Var(&normFactor, "normalization-factor", config.DefaultNormalizationFactor, "scale applied to sampled values")
	f.StringVar(&edgeMode, "edge-mode", "dense", "edge construction: dense or overwrite")
	f.StringVar(&targetMode, "target-mode", "single", "target: single or bundle")
	f.StringVar(&byteOrder, "byte-order", "little", "snapshot byte order: little, big or native")
	f.StringVar(&emptyRuns, "empty-runs", "error", "run without snapshots: error or skip")
	f.IntVar(&workers, "workers", 1, "runs decoded in parallel")
}

// loadConfig reads --config when given and applies the flags the user set.
func loadConfig(cmd *cobra.Command) (*config.Config, error) {
	cfg := config.DefaultConfig()
	if configFile != "" {
		loaded, err := config.Load(configFile)
		if err != nil {
			return nil, fmt.Errorf("failed to load config: %w", err)
		}
		cfg = loaded
	}

	flags := cmd.Flags()
	if flags.Changed("path-prefix") {
		cfg.PathPrefix = pathPrefix
	}
	if flags.Changed("nodes") {
		cfg.NumNodes = numNodes
	}
	if flags.Changed("input-lags") {
		cfg.InputLags = inputLags
	}
	if flags.Changed("output-lags") {
		cfg.OutputLags = outputLags
	}
	if flags.Changed("rotate") {
		cfg.Rotate = rotate
	}
	if flags.Changed("flip") {
		cfg.Flip = flip
	}
	if flags.Changed("mirror") {
		cfg.Mirror = mirror
	}
	if flags.Changed("normalization-factor") {
		cfg.NormalizationFactor = normFactor
	}
	if flags.Changed("edge-mode") {
		cfg.EdgeMode = edgeMode
	}
	if flags.Changed("target-mode") {
		cfg.TargetMode = targetMode
	}
	if flags.Changed("byte-order") {
		cfg.ByteOrder = byteOrder
	}
	if flags.Changed("empty-runs") {
		cfg.EmptyRuns = emptyRuns
	}
	if flags.Changed("workers") {
		cfg.Workers = workers
	}
	if flags.Lookup("preset") != nil && preset != "" {
		variants := config.GetPreset(preset)
		if variants == nil {
			names := config.ListPresets()
			sort.Strings(names)
			return nil, fmt.Errorf("unknown preset: %s (available: %v)", preset, names)
		}
		cfg.Augment = variants
	}
	return cfg, nil
}

func newLogger(cfg *config.Config) logging.Logger {
	return logging.NewFromEnv(cfg.Log)
}

func initTracing(ctx context.Context, cfg *config.Config, log logging.Logger) (func(), error) {
	shutdown, err := observability.InitTracing(ctx, observability.TracingConfig{
		Enabled:     cfg.Tracing.Enabled,
		Exporter:    cfg.Tracing.Exporter,
		Endpoint:    cfg.Tracing.Endpoint,
		SampleRatio: cfg.Tracing.SampleRatio,
	}, log)
	if err != nil {
		return nil, err
	}
	return func() { observability.ShutdownWithTimeout(context.Background(), shutdown, log) }, nil
}
