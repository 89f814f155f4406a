package config

import (
	"encoding/binary"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/san-kum/pdegraph/internal/collector"
	"github.com/san-kum/pdegraph/internal/field"
	"github.com/san-kum/pdegraph/internal/graphseq"
	"github.com/san-kum/pdegraph/internal/lattice"
	"github.com/san-kum/pdegraph/internal/logging"
	"github.com/san-kum/pdegraph/internal/window"
)

const (
	DefaultPathPrefix          = "./pdelab_data/build/output"
	DefaultNormalizationFactor = 0.01
	DefaultNumNodes            = 100
	DefaultInputLags           = 4
	DefaultOutputLags          = 1
)

type Config struct {
	Flip                int     `yaml:"flip"`
	Rotate              int     `yaml:"rotate"`
	Mirror              bool    `yaml:"mirror"`
	PathPrefix          string  `yaml:"path_prefix"`
	NormalizationFactor float64 `yaml:"normalization_factor"`
	NumNodes            int     `yaml:"num_nodes"`
	InputLags           int     `yaml:"input_lags"`
	OutputLags          int     `yaml:"output_lags"`

	ByteOrder      string    `yaml:"byte_order"`
	SnapshotSuffix string    `yaml:"snapshot_suffix"`
	EdgeMode       string    `yaml:"edge_mode"`
	TargetMode     string    `yaml:"target_mode"`
	EmptyRuns      string    `yaml:"empty_runs"`
	Workers        int       `yaml:"workers"`
	Augment        []Variant `yaml:"augment,omitempty"`

	Log     logging.Config `yaml:"log"`
	Metrics MetricsConfig  `yaml:"metrics"`
	Tracing TracingConfig  `yaml:"tracing"`
}

// Variant is one snapshot transform used for augmentation. Flip reverses
// both axes, so on its own it equals Rotate 2; Mirror reverses x only.
type Variant struct {
	Rotate int  `yaml:"rotate"`
	Flip   int  `yaml:"flip"`
	Mirror bool `yaml:"mirror,omitempty"`
}

// Decoder returns a snapshot decoder applying v.
func (v Variant) Decoder(order binary.ByteOrder) *field.Decoder {
	d := field.NewDecoder(v.Rotate, v.Flip == 1, order)
	d.Mirror = v.Mirror
	return d
}

func (v Variant) String() string {
	s := fmt.Sprintf("r%d/f%d", v.Rotate, v.Flip)
	if v.Mirror {
		s += "/m"
	}
	return s
}

type MetricsConfig struct {
	Textfile string `yaml:"textfile"`
}

type TracingConfig struct {
	Enabled     bool    `yaml:"enabled"`
	Exporter    string  `yaml:"exporter"`
	Endpoint    string  `yaml:"endpoint"`
	SampleRatio float64 `yaml:"sample_ratio"`
}

func DefaultConfig() *Config {
	return &Config{
		PathPrefix:          DefaultPathPrefix,
		NormalizationFactor: DefaultNormalizationFactor,
		NumNodes:            DefaultNumNodes,
		InputLags:           DefaultInputLags,
		OutputLags:          DefaultOutputLags,
		ByteOrder:           "little",
		SnapshotSuffix:      collector.DefaultSuffix,
		EdgeMode:            string(lattice.EdgeDense),
		TargetMode:          string(window.TargetSingle),
		EmptyRuns:           string(collector.EmptyRunsError),
		Workers:             1,
		Log:                 logging.Config{Level: "info", Format: "text"},
		Tracing:             TracingConfig{Exporter: "stdout", SampleRatio: 1.0},
	}
}

func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	cfg := DefaultConfig()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

func Save(path string, cfg *Config) error {
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0644)
}

// Validate checks every option that can be checked without touching the
// snapshot files.
func (c *Config) Validate() error {
	if c.Flip != 0 && c.Flip != 1 {
		return graphseq.Configf("flip", "must be 0 or 1, got %d", c.Flip)
	}
	for _, v := range c.Augment {
		if v.Flip != 0 && v.Flip != 1 {
			return graphseq.Configf("augment.flip", "must be 0 or 1, got %d", v.Flip)
		}
	}
	if c.PathPrefix == "" {
		return graphseq.Configf("path_prefix", "must not be empty")
	}
	if _, err := lattice.NewCoarseGrid(c.NumNodes); err != nil {
		return err
	}
	if _, err := field.ParseByteOrder(c.ByteOrder); err != nil {
		return err
	}
	if _, err := lattice.ParseEdgeMode(c.EdgeMode); err != nil {
		return err
	}
	if _, err := collector.ParseEmptyRunPolicy(c.EmptyRuns); err != nil {
		return err
	}
	if c.Workers < 0 {
		return graphseq.Configf("workers", "must not be negative, got %d", c.Workers)
	}
	if c.Tracing.SampleRatio < 0 || c.Tracing.SampleRatio > 1 {
		return graphseq.Configf("tracing.sample_ratio", "must be in [0, 1], got %g", c.Tracing.SampleRatio)
	}
	p, err := c.WindowParams()
	if err != nil {
		return err
	}
	return p.Validate()
}

func (c *Config) WindowParams() (window.Params, error) {
	mode, err := window.ParseTargetMode(c.TargetMode)
	if err != nil {
		return window.Params{}, err
	}
	return window.Params{InputLags: c.InputLags, OutputLags: c.OutputLags, Mode: mode}, nil
}

// Variants returns the rotate/flip combinations to extract: the augmentation
// list when set, otherwise the single top-level one.
func (c *Config) Variants() []Variant {
	if len(c.Augment) > 0 {
		return c.Augment
	}
	return []Variant{{Rotate: c.Rotate, Flip: c.Flip, Mirror: c.Mirror}}
}
