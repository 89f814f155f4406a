// Package extract runs the whole pipeline: discover runs, sample every
// snapshot onto the coarse grid, build the lattice graph once and slice the
// node series into lag windows. Augmentation variants are extracted one after
// the other and combined into a single dataset.
package extract

import (
	"context"
	"fmt"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/san-kum/pdegraph/internal/collector"
	"github.com/san-kum/pdegraph/internal/config"
	"github.com/san-kum/pdegraph/internal/dataset"
	"github.com/san-kum/pdegraph/internal/field"
	"github.com/san-kum/pdegraph/internal/graphseq"
	"github.com/san-kum/pdegraph/internal/lattice"
	"github.com/san-kum/pdegraph/internal/logging"
	"github.com/san-kum/pdegraph/internal/observability"
	"github.com/san-kum/pdegraph/internal/window"
)

// Stage names used for spans and the stage duration histogram.
const (
	StageCollect  = "collect"
	StageGraph    = "graph"
	StageAssemble = "assemble"
)

// Result is the output of one extraction.
type Result struct {
	Dataset  *dataset.Dataset
	Graph    *lattice.Graph
	Params   window.Params
	Variants []config.Variant
	// Runs holds the collected runs of the first variant.
	Runs []*graphseq.Run
}

type Option func(*Extractor)

func WithLogger(log logging.Logger) Option {
	return func(e *Extractor) {
		if log != nil {
			e.log = log
		}
	}
}

// WithMetrics attaches a metrics collector; it also receives the per-snapshot
// collector callbacks.
func WithMetrics(m *observability.ExtractionCollector) Option {
	return func(e *Extractor) { e.metrics = m }
}

func WithTracer(t trace.Tracer) Option {
	return func(e *Extractor) {
		if t != nil {
			e.tracer = t
		}
	}
}

type Extractor struct {
	cfg       *config.Config
	grid      lattice.CoarseGrid
	edgeMode  lattice.EdgeMode
	params    window.Params
	emptyRuns collector.EmptyRunPolicy
	log       logging.Logger
	metrics   *observability.ExtractionCollector
	tracer    trace.Tracer
}

// New validates cfg before any file is read. Every configuration problem is
// reported as a graphseq.ErrConfiguration.
func New(cfg *config.Config, opts ...Option) (*Extractor, error) {
	if cfg == nil {
		cfg = config.DefaultConfig()
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	grid, err := lattice.NewCoarseGrid(cfg.NumNodes)
	if err != nil {
		return nil, err
	}
	mode, err := lattice.ParseEdgeMode(cfg.EdgeMode)
	if err != nil {
		return nil, err
	}
	params, err := cfg.WindowParams()
	if err != nil {
		return nil, err
	}
	policy, err := collector.ParseEmptyRunPolicy(cfg.EmptyRuns)
	if err != nil {
		return nil, err
	}

	e := &Extractor{
		cfg:       cfg,
		grid:      grid,
		edgeMode:  mode,
		params:    params,
		emptyRuns: policy,
		log:       logging.Noop(),
		tracer:    observability.Tracer(),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e, nil
}

// Graph builds the lattice graph for the configured grid.
func (e *Extractor) Graph() (*lattice.Graph, error) {
	return lattice.Build(e.grid, e.edgeMode)
}

// Collector returns a run collector for one rotate/flip variant.
func (e *Extractor) Collector(v config.Variant) (*collector.Collector, error) {
	order, err := field.ParseByteOrder(e.cfg.ByteOrder)
	if err != nil {
		return nil, err
	}
	opts := collector.Options{
		PathPrefix:          e.cfg.PathPrefix,
		Suffix:              e.cfg.SnapshotSuffix,
		Decoder:             v.Decoder(order),
		Grid:                e.grid,
		NormalizationFactor: e.cfg.NormalizationFactor,
		EmptyRuns:           e.emptyRuns,
		Workers:             e.cfg.Workers,
		Logger:              e.log,
	}
	if e.metrics != nil {
		opts.Observer = e.metrics
	}
	return collector.New(opts)
}

// Run extracts every variant and combines the results.
func (e *Extractor) Run(ctx context.Context) (*Result, error) {
	ctx, span := e.tracer.Start(ctx, "extract",
		trace.WithAttributes(
			attribute.String("path_prefix", e.cfg.PathPrefix),
			attribute.Int("num_nodes", e.grid.NumNodes),
			attribute.String("edge_mode", string(e.edgeMode)),
		))
	defer span.End()

	res, err := e.run(ctx)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return nil, err
	}
	span.SetAttributes(
		attribute.Int("samples", res.Dataset.Len()),
		attribute.Int("edges", res.Dataset.NumEdges()),
	)
	return res, nil
}

func (e *Extractor) run(ctx context.Context) (*Result, error) {
	if e.edgeMode == lattice.EdgeOverwrite {
		e.log.Warn(ctx, "overwrite edge mode keeps one edge per source node",
			logging.Int("num_nodes", e.grid.NumNodes))
	}

	start := time.Now()
	_, gspan := e.tracer.Start(ctx, StageGraph)
	g, err := e.Graph()
	gspan.End()
	if err != nil {
		return nil, err
	}
	e.metrics.ObserveStage(StageGraph, start)

	res := &Result{
		Dataset:  dataset.Empty(),
		Graph:    g,
		Params:   e.params,
		Variants: e.cfg.Variants(),
	}
	for i, v := range res.Variants {
		runs, err := e.collect(ctx, v)
		if err != nil {
			return nil, err
		}
		if i == 0 {
			res.Runs = runs
		}

		d, err := e.assemble(ctx, g, runs)
		if err != nil {
			return nil, err
		}
		if res.Dataset, err = dataset.Combine(res.Dataset, d); err != nil {
			return nil, err
		}
		e.log.Info(ctx, "variant extracted",
			logging.Int("rotate", v.Rotate),
			logging.Int("flip", v.Flip),
			logging.Any("mirror", v.Mirror),
			logging.Int("runs", len(runs)),
			logging.Int("samples", d.Len()))
	}

	e.metrics.SetDatasetSize(res.Dataset.Len(), res.Dataset.NumEdges())
	e.log.Info(ctx, "dataset assembled",
		logging.Int("samples", res.Dataset.Len()),
		logging.Int("edges", res.Dataset.NumEdges()),
		logging.Int("variants", len(res.Variants)))
	return res, nil
}

func (e *Extractor) collect(ctx context.Context, v config.Variant) ([]*graphseq.Run, error) {
	start := time.Now()
	ctx, span := e.tracer.Start(ctx, StageCollect,
		trace.WithAttributes(
			attribute.Int("rotate", v.Rotate),
			attribute.Int("flip", v.Flip),
			attribute.Bool("mirror", v.Mirror),
		))
	defer span.End()

	c, err := e.Collector(v)
	if err != nil {
		return nil, err
	}
	runs, err := c.Collect(ctx)
	if err != nil {
		span.RecordError(err)
		return nil, fmt.Errorf("collect %s: %w", v, err)
	}
	span.SetAttributes(attribute.Int("runs", len(runs)))
	e.metrics.ObserveStage(StageCollect, start)
	return runs, nil
}

func (e *Extractor) assemble(ctx context.Context, g *lattice.Graph, runs []*graphseq.Run) (*dataset.Dataset, error) {
	start := time.Now()
	_, span := e.tracer.Start(ctx, StageAssemble)
	defer span.End()

	d, err := dataset.Assemble(g, runs, e.params)
	if err != nil {
		span.RecordError(err)
		return nil, err
	}
	for _, r := range runs {
		if n := e.params.Windows(r.Series.Len()); n == 0 {
			e.log.Warn(ctx, "run too short for a window",
				logging.String("run", r.Name),
				logging.Int("timesteps", r.Series.Len()))
		}
	}
	span.SetAttributes(attribute.Int("samples", d.Len()))
	e.metrics.ObserveStage(StageAssemble, start)
	return d, nil
}
