package dataset_test

import (
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/san-kum/pdegraph/internal/dataset"
	"github.com/san-kum/pdegraph/internal/graphseq"
	"github.com/san-kum/pdegraph/internal/lattice"
	"github.com/san-kum/pdegraph/internal/window"
)

// makeRun builds a run where node k at time t holds offset + 10*t + k.
func makeRun(name string, timesteps, nodes int, offset float64) *graphseq.Run {
	s := graphseq.NewNodeSeries(nodes, timesteps)
	for t := 0; t < timesteps; t++ {
		row := make([]float64, nodes)
		for k := range row {
			row[k] = offset + float64(10*t+k)
		}
		Expect(s.Append(row)).To(Succeed())
	}
	return &graphseq.Run{Name: name, Series: s}
}

var _ = Describe("Dataset", func() {
	var (
		graph  *lattice.Graph
		params window.Params
	)

	BeforeEach(func() {
		grid, err := lattice.NewCoarseGrid(4)
		Expect(err).NotTo(HaveOccurred())
		graph, err = lattice.Build(grid, lattice.EdgeDense)
		Expect(err).NotTo(HaveOccurred())
		params = window.Params{InputLags: 4, OutputLags: 1}
	})

	Describe("Assemble", func() {
		It("concatenates runs in order, then chronologically", func() {
			runs := []*graphseq.Run{
				makeRun("output_a", 10, 4, 0),
				makeRun("output_b", 7, 4, 1000),
			}
			d, err := dataset.Assemble(graph, runs, params)
			Expect(err).NotTo(HaveOccurred())

			Expect(d.Len()).To(Equal(5 + 2))
			Expect(d.CountByRun()).To(Equal(map[string]int{"output_a": 5, "output_b": 2}))
			Expect(d.Refs[4]).To(Equal(dataset.SampleRef{Run: "output_a", Start: 4}))
			Expect(d.Refs[5]).To(Equal(dataset.SampleRef{Run: "output_b", Start: 0}))

			// first sample of run b targets its time index 5
			Expect(d.Targets[5].Data).To(Equal([]float64{1050, 1051, 1052, 1053}))
		})

		It("shares one edge table across samples", func() {
			d, err := dataset.Assemble(graph, []*graphseq.Run{makeRun("r", 8, 4, 0)}, params)
			Expect(err).NotTo(HaveOccurred())
			Expect(d.NumEdges()).To(Equal(graph.NumEdges()))
			Expect(d.EdgeWeight).To(HaveEach(1.0))

			a, err := d.Snapshot(0)
			Expect(err).NotTo(HaveOccurred())
			b, err := d.Snapshot(2)
			Expect(err).NotTo(HaveOccurred())
			Expect(&a.EdgeIndex[0][0]).To(BeIdenticalTo(&b.EdgeIndex[0][0]))
			Expect(b.Ref.Start).To(Equal(2))
		})

		It("yields no samples for runs shorter than the window", func() {
			d, err := dataset.Assemble(graph, []*graphseq.Run{makeRun("r", 5, 4, 0)}, params)
			Expect(err).NotTo(HaveOccurred())
			Expect(d.Len()).To(BeZero())
		})

		It("rejects runs sampled on a different grid", func() {
			_, err := dataset.Assemble(graph, []*graphseq.Run{makeRun("r", 8, 9, 0)}, params)
			Expect(err).To(HaveOccurred())
		})

		It("rejects invalid lags", func() {
			_, err := dataset.Assemble(graph, nil, window.Params{InputLags: 0})
			Expect(err).To(MatchError(graphseq.ErrConfiguration))
		})
	})

	Describe("Empty and Merge", func() {
		var d *dataset.Dataset

		BeforeEach(func() {
			var err error
			d, err = dataset.Assemble(graph, []*graphseq.Run{makeRun("r", 9, 4, 0)}, params)
			Expect(err).NotTo(HaveOccurred())
		})

		It("starts with four empty components", func() {
			e := dataset.Empty()
			Expect(e.Len()).To(BeZero())
			Expect(e.NumEdges()).To(BeZero())
			Expect(e.EdgeWeight).To(BeEmpty())
			Expect(e.Targets).To(BeEmpty())
		})

		It("treats the empty dataset as identity", func() {
			Expect(dataset.Merge(dataset.Empty(), d)).To(Equal(d))
			Expect(dataset.Merge(d, dataset.Empty())).To(Equal(d))
		})

		It("concatenates every component", func() {
			m := dataset.Merge(d, d)
			Expect(m.Len()).To(Equal(2 * d.Len()))
			Expect(m.NumEdges()).To(Equal(2 * d.NumEdges()))
			Expect(m.EdgeWeight).To(HaveLen(2 * len(d.EdgeWeight)))
			Expect(m.Features[d.Len()]).To(Equal(d.Features[0]))
		})

		It("does not alias its inputs", func() {
			m := dataset.Merge(dataset.Empty(), d)
			m.EdgeWeight[0] = 7
			Expect(d.EdgeWeight[0]).To(Equal(1.0))
		})
	})

	Describe("Combine", func() {
		It("keeps a single edge table", func() {
			a, err := dataset.Assemble(graph, []*graphseq.Run{makeRun("a", 9, 4, 0)}, params)
			Expect(err).NotTo(HaveOccurred())
			b, err := dataset.Assemble(graph, []*graphseq.Run{makeRun("b", 7, 4, 0)}, params)
			Expect(err).NotTo(HaveOccurred())

			c, err := dataset.Combine(a, b)
			Expect(err).NotTo(HaveOccurred())
			Expect(c.Len()).To(Equal(a.Len() + b.Len()))
			Expect(c.EdgeIndex).To(Equal(a.EdgeIndex))
			Expect(c.CountByRun()).To(Equal(map[string]int{"a": 4, "b": 2}))
		})

		It("takes the graph from the second dataset when the first is empty", func() {
			a, err := dataset.Assemble(graph, []*graphseq.Run{makeRun("a", 9, 4, 0)}, params)
			Expect(err).NotTo(HaveOccurred())

			c, err := dataset.Combine(dataset.Empty(), a)
			Expect(err).NotTo(HaveOccurred())
			Expect(c.NumEdges()).To(Equal(a.NumEdges()))
			Expect(c.Len()).To(Equal(a.Len()))
		})

		It("rejects datasets built on different graphs", func() {
			a, err := dataset.Assemble(graph, []*graphseq.Run{makeRun("a", 9, 4, 0)}, params)
			Expect(err).NotTo(HaveOccurred())

			grid, err := lattice.NewCoarseGrid(9)
			Expect(err).NotTo(HaveOccurred())
			other, err := lattice.Build(grid, lattice.EdgeDense)
			Expect(err).NotTo(HaveOccurred())
			b, err := dataset.Assemble(other, []*graphseq.Run{makeRun("b", 9, 9, 0)}, params)
			Expect(err).NotTo(HaveOccurred())

			_, err = dataset.Combine(a, b)
			Expect(err).To(HaveOccurred())
		})
	})

	It("reports out of range snapshots", func() {
		_, err := dataset.Empty().Snapshot(0)
		Expect(err).To(HaveOccurred())
	})
})
