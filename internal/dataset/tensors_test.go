package dataset_test

import (
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/san-kum/pdegraph/internal/dataset"
	"github.com/san-kum/pdegraph/internal/graphseq"
	"github.com/san-kum/pdegraph/internal/lattice"
	"github.com/san-kum/pdegraph/internal/window"
)

var _ = Describe("Tensors", func() {
	var graph *lattice.Graph

	BeforeEach(func() {
		grid, err := lattice.NewCoarseGrid(9)
		Expect(err).NotTo(HaveOccurred())
		graph, err = lattice.Build(grid, lattice.EdgeDense)
		Expect(err).NotTo(HaveOccurred())
	})

	It("shapes single-step targets as [samples, nodes]", func() {
		d, err := dataset.Assemble(graph, []*graphseq.Run{makeRun("r", 10, 9, 0)}, window.Params{InputLags: 4, OutputLags: 1})
		Expect(err).NotTo(HaveOccurred())

		set, err := d.Tensors(window.TargetSingle)
		Expect(err).NotTo(HaveOccurred())
		Expect(set.Features.Shape().Dimensions).To(Equal([]int{5, 9, 4}))
		Expect(set.Targets.Shape().Dimensions).To(Equal([]int{5, 9}))
		Expect(set.EdgeIndex.Shape().Dimensions).To(Equal([]int{2, 16}))
		Expect(set.EdgeWeight.Shape().Dimensions).To(Equal([]int{16}))
	})

	It("shapes bundled targets as [samples, nodes, outputLags]", func() {
		p := window.Params{InputLags: 3, OutputLags: 2, Mode: window.TargetBundle}
		d, err := dataset.Assemble(graph, []*graphseq.Run{makeRun("r", 10, 9, 0)}, p)
		Expect(err).NotTo(HaveOccurred())

		set, err := d.Tensors(window.TargetBundle)
		Expect(err).NotTo(HaveOccurred())
		Expect(set.Targets.Shape().Dimensions).To(Equal([]int{5, 9, 2}))
	})

	It("keeps the lag axis of bundled targets with one output lag", func() {
		p := window.Params{InputLags: 4, OutputLags: 1, Mode: window.TargetBundle}
		d, err := dataset.Assemble(graph, []*graphseq.Run{makeRun("r", 10, 9, 0)}, p)
		Expect(err).NotTo(HaveOccurred())
		Expect(d.Len()).To(Equal(5))

		set, err := d.Tensors(p.Mode)
		Expect(err).NotTo(HaveOccurred())
		Expect(set.Targets.Shape().Dimensions).To(Equal([]int{5, 9, 1}))
	})

	It("refuses an empty dataset", func() {
		_, err := dataset.Empty().Tensors(window.TargetSingle)
		Expect(err).To(MatchError(dataset.ErrEmptyDataset))
	})
})
