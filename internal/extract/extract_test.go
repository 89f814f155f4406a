package extract_test

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"

	"github.com/san-kum/pdegraph/internal/config"
	"github.com/san-kum/pdegraph/internal/extract"
	"github.com/san-kum/pdegraph/internal/field"
	"github.com/san-kum/pdegraph/internal/graphseq"
	"github.com/san-kum/pdegraph/internal/observability"
	"github.com/san-kum/pdegraph/internal/synth"
)

// writeIndexedRun writes snapshots on a 4x4 field where cell idx of
// snapshot t holds idx + 100*t.
func writeIndexedRun(dir string, timesteps int) {
	Expect(os.MkdirAll(dir, 0755)).To(Succeed())
	for t := 0; t < timesteps; t++ {
		values := make([]float64, 16)
		for i := range values {
			values[i] = float64(i + 100*t)
		}
		path := filepath.Join(dir, fmt.Sprintf("%05d.raw", t))
		Expect(field.WriteFile(path, &field.ScalarField{Side: 4, Values: values}, nil)).To(Succeed())
	}
}

var _ = Describe("Extractor", func() {
	var (
		root string
		cfg  *config.Config
		ctx  context.Context
	)

	BeforeEach(func() {
		root = GinkgoT().TempDir()
		ctx = context.Background()
		cfg = config.DefaultConfig()
		cfg.PathPrefix = filepath.Join(root, "output")
		cfg.NumNodes = 4
		cfg.NormalizationFactor = 1
	})

	It("builds one static-graph dataset over all runs", func() {
		writeIndexedRun(filepath.Join(root, "output_a"), 7)
		writeIndexedRun(filepath.Join(root, "output_b"), 8)

		e, err := extract.New(cfg)
		Expect(err).NotTo(HaveOccurred())
		res, err := e.Run(ctx)
		Expect(err).NotTo(HaveOccurred())

		Expect(res.Runs).To(HaveLen(2))
		Expect(res.Runs[0].Name).To(Equal("output_a"))
		Expect(res.Dataset.Len()).To(Equal(2 + 3))
		Expect(res.Dataset.NumEdges()).To(Equal(res.Graph.NumEdges()))
		Expect(res.Dataset.CountByRun()).To(Equal(map[string]int{"output_a": 2, "output_b": 3}))

		// node 0 samples cell (1, 1), i.e. flat index 5
		x := res.Dataset.Features[0]
		Expect(x.Shape()).To(Equal([]int{4, 4}))
		Expect(x.At(0, 0)).To(Equal(5.0))
		Expect(x.At(0, 3)).To(Equal(305.0))
		Expect(res.Dataset.Targets[0].Shape()).To(Equal([]int{4}))
		Expect(res.Dataset.Targets[0].At(0, 0)).To(Equal(505.0))
	})

	It("applies the configured flip before sampling", func() {
		writeIndexedRun(filepath.Join(root, "output_a"), 6)
		cfg.Flip = 1

		e, err := extract.New(cfg)
		Expect(err).NotTo(HaveOccurred())
		res, err := e.Run(ctx)
		Expect(err).NotTo(HaveOccurred())

		// flipping reverses the flat array: index 5 now holds 10
		Expect(res.Dataset.Features[0].At(0, 0)).To(Equal(10.0))
	})

	It("combines augmentation variants on one edge table", func() {
		writeIndexedRun(filepath.Join(root, "output_a"), 6)
		cfg.Augment = []config.Variant{{Rotate: 0, Flip: 0}, {Rotate: 0, Flip: 1}}

		e, err := extract.New(cfg)
		Expect(err).NotTo(HaveOccurred())
		res, err := e.Run(ctx)
		Expect(err).NotTo(HaveOccurred())

		Expect(res.Variants).To(HaveLen(2))
		Expect(res.Dataset.Len()).To(Equal(2))
		Expect(res.Dataset.NumEdges()).To(Equal(res.Graph.NumEdges()))
		Expect(res.Dataset.Features[0].At(0, 0)).To(Equal(5.0))
		Expect(res.Dataset.Features[1].At(0, 0)).To(Equal(10.0))
	})

	It("rejects invalid configuration before touching the disk", func() {
		cfg.NumNodes = 10
		cfg.PathPrefix = filepath.Join(root, "does-not-exist")

		_, err := extract.New(cfg)
		Expect(errors.Is(err, graphseq.ErrConfiguration)).To(BeTrue())
	})

	It("reports a grid ratio mismatch as a configuration error", func() {
		writeIndexedRun(filepath.Join(root, "output_a"), 6)
		cfg.NumNodes = 9

		e, err := extract.New(cfg)
		Expect(err).NotTo(HaveOccurred())
		_, err = e.Run(ctx)
		Expect(errors.Is(err, graphseq.ErrConfiguration)).To(BeTrue())
	})

	It("fails discovery when nothing matches the prefix", func() {
		e, err := extract.New(cfg)
		Expect(err).NotTo(HaveOccurred())
		_, err = e.Run(ctx)
		Expect(errors.Is(err, graphseq.ErrDiscovery)).To(BeTrue())
	})

	It("records metrics for the extraction", func() {
		writeIndexedRun(filepath.Join(root, "output_a"), 6)
		reg := prometheus.NewRegistry()
		m, err := observability.NewExtractionCollector(reg)
		Expect(err).NotTo(HaveOccurred())

		e, err := extract.New(cfg, extract.WithMetrics(m))
		Expect(err).NotTo(HaveOccurred())
		_, err = e.Run(ctx)
		Expect(err).NotTo(HaveOccurred())

		Expect(testutil.ToFloat64(m.Snapshots.WithLabelValues("output_a"))).To(Equal(6.0))
		Expect(testutil.ToFloat64(m.Samples)).To(Equal(1.0))
		Expect(testutil.ToFloat64(m.Edges)).To(BeNumerically(">", 0))
	})

	It("extracts runs written by the heat generator", func() {
		p := synth.Params{Runs: 2, Side: 20, Snapshots: 8, SubSteps: 2, Courant: 0.2, Amplitude: 100, Width: 3, Seed: 3}
		_, err := synth.Generate(ctx, filepath.Join(root, "output"), p, nil)
		Expect(err).NotTo(HaveOccurred())
		cfg.NumNodes = 16
		cfg.NormalizationFactor = 0.01

		e, err := extract.New(cfg)
		Expect(err).NotTo(HaveOccurred())
		res, err := e.Run(ctx)
		Expect(err).NotTo(HaveOccurred())

		Expect(res.Runs).To(HaveLen(2))
		Expect(res.Runs[1].Name).To(Equal("output_1"))
		Expect(res.Dataset.Len()).To(Equal(2 * 3))
		for _, r := range res.Runs {
			Expect(r.Series.IsValid()).To(BeTrue())
		}
	})
})
