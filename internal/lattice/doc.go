// Package lattice defines the coarse node grid shared by every run and the
// static adjacency built over it.
//
// [CoarseGrid] owns the one linear index convention of the pipeline: node
// k sits at column i = k % side and row j = k / side. The sampler and the
// graph builder both go through [CoarseGrid.Index] and
// [CoarseGrid.Coordinate] so that graph node k always refers to the same
// physical location of the field.
//
// [Build] connects each node to its right, lower and lower-right neighbour.
// [EdgeOverwrite] reproduces the legacy edge table in which each node owns a
// single column and later edge kinds replace earlier ones; [EdgeDense] keeps
// every edge.
package lattice
