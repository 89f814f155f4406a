// Package collector discovers simulation runs on disk and turns each run's
// snapshots into a node time series.
package collector

import (
	"context"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"golang.org/x/sync/errgroup"

	"github.com/san-kum/pdegraph/internal/field"
	"github.com/san-kum/pdegraph/internal/graphseq"
	"github.com/san-kum/pdegraph/internal/lattice"
	"github.com/san-kum/pdegraph/internal/logging"
	"github.com/san-kum/pdegraph/internal/sampler"
)

const DefaultSuffix = ".raw"

// EmptyRunPolicy decides what a run directory without snapshots yields.
type EmptyRunPolicy string

const (
	EmptyRunsError EmptyRunPolicy = "error"
	EmptyRunsSkip  EmptyRunPolicy = "skip"
)

func ParseEmptyRunPolicy(s string) (EmptyRunPolicy, error) {
	switch EmptyRunPolicy(strings.ToLower(strings.TrimSpace(s))) {
	case EmptyRunsError, "":
		return EmptyRunsError, nil
	case EmptyRunsSkip:
		return EmptyRunsSkip, nil
	default:
		return "", graphseq.Configf("empty_runs", "unknown policy %q (want error or skip)", s)
	}
}

// Observer receives progress callbacks. Implementations must be safe for
// concurrent use when Workers > 1.
type Observer interface {
	OnSnapshot(run string, bytes int64)
	OnRun(run string, timesteps int)
	OnDecodeError(run string)
}

// Options configures a Collector.
type Options struct {
	PathPrefix          string
	Suffix              string
	Decoder             *field.Decoder
	Grid                lattice.CoarseGrid
	NormalizationFactor float64
	EmptyRuns           EmptyRunPolicy
	Workers             int
	Logger              logging.Logger
	Observer            Observer
}

// RunDir is a discovered run directory and its ordered snapshot files.
type RunDir struct {
	Name  string
	Dir   string
	Files []string
}

type Collector struct {
	opts Options
	log  logging.Logger
}

func New(opts Options) (*Collector, error) {
	if opts.PathPrefix == "" {
		return nil, graphseq.Configf("path_prefix", "must not be empty")
	}
	if opts.Grid.NumNodes <= 0 {
		return nil, graphseq.Configf("num_nodes", "coarse grid not set")
	}
	if opts.Suffix == "" {
		opts.Suffix = DefaultSuffix
	}
	if opts.Decoder == nil {
		opts.Decoder = &field.Decoder{}
	}
	if opts.EmptyRuns == "" {
		opts.EmptyRuns = EmptyRunsError
	}
	if opts.Workers < 1 {
		opts.Workers = 1
	}
	log := opts.Logger
	if log == nil {
		log = logging.Noop()
	}
	return &Collector{opts: opts, log: log}, nil
}

// Discover lists every directory whose path starts with the prefix, plus the
// directories below them, sorted by path. A prefix ending in a separator
// selects the directories inside it.
func (c *Collector) Discover() ([]RunDir, error) {
	prefix := c.opts.PathPrefix
	inside := strings.HasSuffix(prefix, string(filepath.Separator)) || strings.HasSuffix(prefix, "/")
	clean := filepath.Clean(prefix)

	pattern := clean + "*"
	if inside {
		pattern = filepath.Join(clean, "*")
	}
	matches, err := filepath.Glob(pattern)
	if err != nil {
		return nil, graphseq.Configf("path_prefix", "bad pattern %q: %v", pattern, err)
	}

	seen := make(map[string]bool)
	var dirs []string
	for _, m := range matches {
		info, err := os.Stat(m)
		if err != nil || !info.IsDir() {
			continue
		}
		err = filepath.WalkDir(m, func(path string, d fs.DirEntry, err error) error {
			if err != nil {
				return err
			}
			if d.IsDir() && !seen[path] {
				seen[path] = true
				dirs = append(dirs, path)
			}
			return nil
		})
		if err != nil {
			return nil, &graphseq.DiscoveryError{Path: m, Reason: err.Error()}
		}
	}
	if len(dirs) == 0 {
		return nil, &graphseq.DiscoveryError{Path: prefix, Reason: "no run directories match"}
	}
	sort.Strings(dirs)

	runs := make([]RunDir, 0, len(dirs))
	for _, dir := range dirs {
		files, err := c.snapshots(dir)
		if err != nil {
			return nil, err
		}
		runs = append(runs, RunDir{Name: runName(clean, inside, dir), Dir: dir, Files: files})
	}
	return runs, nil
}

// snapshots returns the run's snapshot files. os.ReadDir sorts by filename,
// which fixes the timestep order.
func (c *Collector) snapshots(dir string) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, &graphseq.DiscoveryError{Path: dir, Reason: err.Error()}
	}
	var files []string
	for _, e := range entries {
		if e.Type().IsRegular() && strings.HasSuffix(e.Name(), c.opts.Suffix) {
			files = append(files, filepath.Join(dir, e.Name()))
		}
	}
	return files, nil
}

func runName(prefix string, inside bool, dir string) string {
	if inside {
		rel, err := filepath.Rel(prefix, dir)
		if err == nil {
			return filepath.ToSlash(rel)
		}
		return dir
	}
	return filepath.Base(prefix) + filepath.ToSlash(strings.TrimPrefix(dir, prefix))
}

// Collect discovers all runs and samples every snapshot. Runs are returned
// sorted by directory path regardless of Workers. The first failing run
// aborts collection.
func (c *Collector) Collect(ctx context.Context) ([]*graphseq.Run, error) {
	dirs, err := c.Discover()
	if err != nil {
		return nil, err
	}
	c.log.Info(ctx, "discovered runs",
		logging.String("prefix", c.opts.PathPrefix),
		logging.Int("runs", len(dirs)),
		logging.Int("workers", c.opts.Workers),
	)

	samplers, err := c.samplers(dirs)
	if err != nil {
		return nil, err
	}

	results := make([]*graphseq.Run, len(dirs))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(c.opts.Workers)
	for idx, rd := range dirs {
		g.Go(func() error {
			run, err := c.collectRun(gctx, rd, samplers[idx])
			if err != nil {
				return err
			}
			results[idx] = run
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return results, nil
}

// samplers sizes one sampler per run from file sizes alone, so a grid ratio
// error in any run surfaces before the first snapshot is decoded. Empty runs
// get nil.
func (c *Collector) samplers(dirs []RunDir) ([]*sampler.Sampler, error) {
	out := make([]*sampler.Sampler, len(dirs))
	for i, rd := range dirs {
		if len(rd.Files) == 0 {
			continue
		}
		s, err := c.samplerFor(rd.Files[0])
		if err != nil {
			return nil, fmt.Errorf("run %s: %w", rd.Name, err)
		}
		out[i] = s
	}
	return out, nil
}

// CollectRun samples one run directory.
func (c *Collector) CollectRun(ctx context.Context, rd RunDir) (*graphseq.Run, error) {
	var s *sampler.Sampler
	if len(rd.Files) > 0 {
		var err error
		if s, err = c.samplerFor(rd.Files[0]); err != nil {
			return nil, err
		}
	}
	return c.collectRun(ctx, rd, s)
}

func (c *Collector) collectRun(ctx context.Context, rd RunDir, s *sampler.Sampler) (*graphseq.Run, error) {
	log := c.log.With(logging.String("run", rd.Name))
	series := graphseq.NewNodeSeries(c.opts.Grid.NumNodes, len(rd.Files))
	run := &graphseq.Run{Name: rd.Name, Dir: rd.Dir, Files: rd.Files, Series: series}

	if len(rd.Files) == 0 {
		if c.opts.EmptyRuns == EmptyRunsSkip {
			log.Warn(ctx, "run has no snapshots", logging.String("suffix", c.opts.Suffix))
			c.observeRun(rd.Name, 0)
			return run, nil
		}
		return nil, &graphseq.DiscoveryError{Path: rd.Dir, Reason: fmt.Sprintf("no %s snapshots", c.opts.Suffix)}
	}

	for _, path := range rd.Files {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		f, err := c.opts.Decoder.DecodeFile(path)
		if err != nil {
			c.observeDecodeError(rd.Name)
			return nil, fmt.Errorf("run %s: %w", rd.Name, err)
		}
		values, err := s.Sample(f)
		if err != nil {
			c.observeDecodeError(rd.Name)
			return nil, fmt.Errorf("run %s: %s: %w", rd.Name, path, err)
		}
		if err := series.Append(values); err != nil {
			return nil, err
		}
		if c.opts.Observer != nil {
			c.opts.Observer.OnSnapshot(rd.Name, int64(len(f.Values))*8)
		}
	}

	log.Debug(ctx, "run collected", logging.Int("timesteps", series.Len()))
	c.observeRun(rd.Name, series.Len())
	return run, nil
}

// samplerFor sizes the sampler from the first snapshot's byte count, so a
// grid ratio error surfaces before anything is decoded.
func (c *Collector) samplerFor(first string) (*sampler.Sampler, error) {
	info, err := os.Stat(first)
	if err != nil {
		return nil, &graphseq.DecodeError{Path: first, Reason: "stat", Err: err}
	}
	side, ok := lattice.ExactSqrt(int(info.Size() / 8))
	if info.Size()%8 != 0 || !ok || side == 0 {
		return nil, &graphseq.DecodeError{
			Path:   first,
			Reason: fmt.Sprintf("%d bytes do not hold a square float64 grid", info.Size()),
		}
	}
	return sampler.New(c.opts.Grid, side, c.opts.NormalizationFactor)
}

func (c *Collector) observeRun(name string, timesteps int) {
	if c.opts.Observer != nil {
		c.opts.Observer.OnRun(name, timesteps)
	}
}

func (c *Collector) observeDecodeError(name string) {
	if c.opts.Observer != nil {
		c.opts.Observer.OnDecodeError(name)
	}
}
