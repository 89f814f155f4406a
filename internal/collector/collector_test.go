package collector_test

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/san-kum/pdegraph/internal/collector"
	"github.com/san-kum/pdegraph/internal/field"
	"github.com/san-kum/pdegraph/internal/graphseq"
	"github.com/san-kum/pdegraph/internal/lattice"
)

// writeRun writes one snapshot per value in stamps; every cell of snapshot t
// holds stamps[t].
func writeRun(dir string, side int, stamps ...float64) {
	Expect(os.MkdirAll(dir, 0755)).To(Succeed())
	for t, v := range stamps {
		values := make([]float64, side*side)
		for i := range values {
			values[i] = v
		}
		path := filepath.Join(dir, fmt.Sprintf("%05d.raw", t))
		Expect(field.WriteFile(path, &field.ScalarField{Side: side, Values: values}, nil)).To(Succeed())
	}
}

type countingObserver struct {
	mu        sync.Mutex
	snapshots int
	bytes     int64
	runs      map[string]int
	errors    int
}

func (o *countingObserver) OnSnapshot(run string, bytes int64) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.snapshots++
	o.bytes += bytes
}

func (o *countingObserver) OnRun(run string, timesteps int) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.runs[run] = timesteps
}

func (o *countingObserver) OnDecodeError(string) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.errors++
}

var _ = Describe("Collector", func() {
	var (
		root   string
		prefix string
		grid   lattice.CoarseGrid
		opts   collector.Options
	)

	BeforeEach(func() {
		root = GinkgoT().TempDir()
		prefix = filepath.Join(root, "output")

		var err error
		grid, err = lattice.NewCoarseGrid(4)
		Expect(err).NotTo(HaveOccurred())

		opts = collector.Options{
			PathPrefix:          prefix,
			Grid:                grid,
			NormalizationFactor: 1,
		}
	})

	collect := func() ([]*graphseq.Run, error) {
		c, err := collector.New(opts)
		Expect(err).NotTo(HaveOccurred())
		return c.Collect(context.Background())
	}

	Describe("discovery", func() {
		It("returns runs sorted by name with derived names", func() {
			writeRun(prefix+"_b", 4, 1)
			writeRun(prefix+"_a", 4, 1)
			writeRun(filepath.Join(root, "unrelated"), 4, 1)

			c, err := collector.New(opts)
			Expect(err).NotTo(HaveOccurred())
			runs, err := c.Discover()
			Expect(err).NotTo(HaveOccurred())

			names := []string{}
			for _, r := range runs {
				names = append(names, r.Name)
			}
			Expect(names).To(Equal([]string{"output_a", "output_b"}))
		})

		It("treats a trailing separator as the directory to list", func() {
			writeRun(filepath.Join(root, "runs", "r2"), 4, 1)
			writeRun(filepath.Join(root, "runs", "r1"), 4, 1)
			opts.PathPrefix = filepath.Join(root, "runs") + string(filepath.Separator)

			c, err := collector.New(opts)
			Expect(err).NotTo(HaveOccurred())
			runs, err := c.Discover()
			Expect(err).NotTo(HaveOccurred())
			Expect(runs).To(HaveLen(2))
			Expect(runs[0].Name).To(Equal("r1"))
			Expect(runs[1].Name).To(Equal("r2"))
		})

		It("fails with a discovery error when nothing matches", func() {
			_, err := collect()
			Expect(err).To(MatchError(graphseq.ErrDiscovery))
		})

		It("ignores files that do not carry the snapshot suffix", func() {
			writeRun(prefix+"_1", 4, 1, 2)
			Expect(os.WriteFile(filepath.Join(prefix+"_1", "notes.txt"), []byte("x"), 0644)).To(Succeed())

			runs, err := collect()
			Expect(err).NotTo(HaveOccurred())
			Expect(runs[0].Files).To(HaveLen(2))
		})
	})

	Describe("sampling", func() {
		It("orders timesteps by filename", func() {
			dir := prefix + "_1"
			Expect(os.MkdirAll(dir, 0755)).To(Succeed())
			// written out of order on purpose
			for _, t := range []int{2, 0, 1} {
				values := make([]float64, 16)
				for i := range values {
					values[i] = float64(t)
				}
				path := filepath.Join(dir, fmt.Sprintf("%05d.raw", t))
				Expect(field.WriteFile(path, &field.ScalarField{Side: 4, Values: values}, nil)).To(Succeed())
			}

			runs, err := collect()
			Expect(err).NotTo(HaveOccurred())
			Expect(runs).To(HaveLen(1))
			series := runs[0].Series
			Expect(series.Len()).To(Equal(3))
			Expect(series.Node(0)).To(Equal([]float64{0, 1, 2}))
		})

		It("applies the normalization factor", func() {
			writeRun(prefix+"_1", 4, 50)
			opts.NormalizationFactor = 0.01

			runs, err := collect()
			Expect(err).NotTo(HaveOccurred())
			Expect(runs[0].Series.Rows[0]).To(HaveEach(BeNumerically("~", 0.5, 1e-12)))
		})

		It("aborts on a malformed snapshot", func() {
			writeRun(prefix+"_1", 4, 1, 2)
			Expect(os.WriteFile(filepath.Join(prefix+"_1", "00002.raw"), make([]byte, 13), 0644)).To(Succeed())

			_, err := collect()
			Expect(err).To(MatchError(graphseq.ErrDecode))
		})

		It("rejects a coarse grid that does not divide the field before decoding", func() {
			writeRun(prefix+"_1", 5, 1)

			_, err := collect()
			Expect(err).To(MatchError(graphseq.ErrConfiguration))
		})

		It("checks the grid ratio of every run before decoding any of them", func() {
			writeRun(prefix+"_a", 4, 1, 2, 3)
			writeRun(prefix+"_b", 5, 1)
			obs := &countingObserver{runs: map[string]int{}}
			opts.Observer = obs
			opts.Workers = 1

			_, err := collect()
			Expect(err).To(MatchError(graphseq.ErrConfiguration))
			Expect(err.Error()).To(ContainSubstring("output_b"))
			Expect(obs.snapshots).To(BeZero())
			Expect(obs.runs).To(BeEmpty())
		})
	})

	Describe("empty runs", func() {
		BeforeEach(func() {
			writeRun(prefix+"_1", 4, 1, 2)
			Expect(os.MkdirAll(prefix+"_2", 0755)).To(Succeed())
		})

		It("fails by default", func() {
			_, err := collect()
			Expect(err).To(MatchError(graphseq.ErrDiscovery))
		})

		It("yields an empty series when skipping", func() {
			opts.EmptyRuns = collector.EmptyRunsSkip

			runs, err := collect()
			Expect(err).NotTo(HaveOccurred())
			Expect(runs).To(HaveLen(2))
			Expect(runs[1].Name).To(Equal("output_2"))
			Expect(runs[1].Series.Len()).To(BeZero())
		})
	})

	It("keeps run order with parallel workers", func() {
		for i := 0; i < 8; i++ {
			writeRun(fmt.Sprintf("%s_%d", prefix, i), 4, float64(i), float64(i))
		}

		sequential, err := collect()
		Expect(err).NotTo(HaveOccurred())

		opts.Workers = 4
		parallel, err := collect()
		Expect(err).NotTo(HaveOccurred())

		Expect(parallel).To(HaveLen(len(sequential)))
		for i := range sequential {
			Expect(parallel[i].Name).To(Equal(sequential[i].Name))
			Expect(parallel[i].Series.Rows).To(Equal(sequential[i].Series.Rows))
		}
	})

	It("reports progress to the observer", func() {
		writeRun(prefix+"_1", 4, 1, 2, 3)
		writeRun(prefix+"_2", 4, 1)
		obs := &countingObserver{runs: map[string]int{}}
		opts.Observer = obs

		_, err := collect()
		Expect(err).NotTo(HaveOccurred())
		Expect(obs.snapshots).To(Equal(4))
		Expect(obs.bytes).To(Equal(int64(4 * 16 * 8)))
		Expect(obs.runs).To(Equal(map[string]int{"output_1": 3, "output_2": 1}))
	})

	It("stops when the context is cancelled", func() {
		writeRun(prefix+"_1", 4, 1, 2)
		c, err := collector.New(opts)
		Expect(err).NotTo(HaveOccurred())

		ctx, cancel := context.WithCancel(context.Background())
		cancel()
		_, err = c.Collect(ctx)
		Expect(err).To(MatchError(context.Canceled))
	})

	It("validates options", func() {
		_, err := collector.New(collector.Options{Grid: grid})
		Expect(err).To(MatchError(graphseq.ErrConfiguration))

		_, err = collector.ParseEmptyRunPolicy("ignore")
		Expect(err).To(MatchError(graphseq.ErrConfiguration))
	})
})
