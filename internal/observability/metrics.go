package observability

import (
	"fmt"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// ExtractionCollector bundles the Prometheus metrics of one extraction. It
// implements collector.Observer.
type ExtractionCollector struct {
	gatherer prometheus.Gatherer

	Snapshots      *prometheus.CounterVec
	SnapshotBytes  prometheus.Counter
	DecodeErrors   *prometheus.CounterVec
	RunTimesteps   *prometheus.GaugeVec
	Samples        prometheus.Gauge
	Edges          prometheus.Gauge
	StageDurations *prometheus.HistogramVec
}

// NewExtractionCollector registers the extraction metrics against reg,
// defaulting to the global registry when nil.
func NewExtractionCollector(reg prometheus.Registerer) (*ExtractionCollector, error) {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	gatherer := prometheus.DefaultGatherer
	if g, ok := reg.(prometheus.Gatherer); ok {
		gatherer = g
	}

	snapshots, err := register(reg, prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "pdegraph_snapshots_decoded_total",
		Help: "Snapshots decoded and sampled, labeled by run.",
	}, []string{"run"}), "pdegraph_snapshots_decoded_total")
	if err != nil {
		return nil, err
	}
	bytes, err := register(reg, prometheus.NewCounter(prometheus.CounterOpts{
		Name: "pdegraph_snapshot_bytes_total",
		Help: "Bytes of snapshot data decoded.",
	}), "pdegraph_snapshot_bytes_total")
	if err != nil {
		return nil, err
	}
	decodeErrors, err := register(reg, prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "pdegraph_decode_errors_total",
		Help: "Snapshots that failed to decode or sample, labeled by run.",
	}, []string{"run"}), "pdegraph_decode_errors_total")
	if err != nil {
		return nil, err
	}
	timesteps, err := register(reg, prometheus.NewGaugeVec(prometheus.GaugeOpts{
		Name: "pdegraph_run_timesteps",
		Help: "Timesteps collected per run.",
	}, []string{"run"}), "pdegraph_run_timesteps")
	if err != nil {
		return nil, err
	}
	samples, err := register(reg, prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "pdegraph_dataset_samples",
		Help: "Samples in the assembled dataset.",
	}), "pdegraph_dataset_samples")
	if err != nil {
		return nil, err
	}
	edges, err := register(reg, prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "pdegraph_dataset_edges",
		Help: "Edge table columns in the assembled dataset.",
	}), "pdegraph_dataset_edges")
	if err != nil {
		return nil, err
	}
	durations, err := register(reg, prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "pdegraph_stage_duration_seconds",
		Help:    "Pipeline stage latency in seconds.",
		Buckets: []float64{0.001, 0.005, 0.01, 0.05, 0.1, 0.5, 1, 5, 10, 30, 60},
	}, []string{"stage"}), "pdegraph_stage_duration_seconds")
	if err != nil {
		return nil, err
	}

	return &ExtractionCollector{
		gatherer:       gatherer,
		Snapshots:      snapshots,
		SnapshotBytes:  bytes,
		DecodeErrors:   decodeErrors,
		RunTimesteps:   timesteps,
		Samples:        samples,
		Edges:          edges,
		StageDurations: durations,
	}, nil
}

func (c *ExtractionCollector) OnSnapshot(run string, bytes int64) {
	if c == nil {
		return
	}
	c.Snapshots.WithLabelValues(run).Inc()
	c.SnapshotBytes.Add(float64(bytes))
}

func (c *ExtractionCollector) OnRun(run string, timesteps int) {
	if c == nil {
		return
	}
	c.RunTimesteps.WithLabelValues(run).Set(float64(timesteps))
}

func (c *ExtractionCollector) OnDecodeError(run string) {
	if c == nil {
		return
	}
	c.DecodeErrors.WithLabelValues(run).Inc()
}

// SetDatasetSize records the shape of the assembled dataset.
func (c *ExtractionCollector) SetDatasetSize(samples, edges int) {
	if c == nil {
		return
	}
	c.Samples.Set(float64(samples))
	c.Edges.Set(float64(edges))
}

// ObserveStage records how long a stage took since start.
func (c *ExtractionCollector) ObserveStage(stage string, start time.Time) {
	if c == nil {
		return
	}
	c.StageDurations.WithLabelValues(stage).Observe(time.Since(start).Seconds())
}

// WriteTextfile writes the gathered metrics in the node_exporter textfile
// format.
func (c *ExtractionCollector) WriteTextfile(path string) error {
	gatherer := c.gatherer
	if gatherer == nil {
		gatherer = prometheus.DefaultGatherer
	}
	return prometheus.WriteToTextfile(path, gatherer)
}

func register[T prometheus.Collector](reg prometheus.Registerer, c T, name string) (T, error) {
	if err := reg.Register(c); err != nil {
		if are, ok := err.(prometheus.AlreadyRegisteredError); ok {
			if existing, ok := are.ExistingCollector.(T); ok {
				return existing, nil
			}
			var zero T
			return zero, fmt.Errorf("collector %s already registered with incompatible type", name)
		}
		var zero T
		return zero, err
	}
	return c, nil
}
