// Package graphseq provides the shared primitives of the snapshot-to-graph
// extraction pipeline.
//
// The package defines the types passed between pipeline stages:
//
//   - [Matrix]: dense row-major float64 matrix (features, targets)
//   - [NodeSeries]: per-run (timesteps x nodes) matrix of sampled values
//   - [Run]: a named, time-ordered NodeSeries
//
// and the error kinds every stage reports:
//
//   - [ErrDiscovery]: missing run directories or snapshot files
//   - [ErrDecode]: malformed snapshot contents
//   - [ErrConfiguration]: invalid parameters, detected before any I/O
//
// # Example
//
//	if errors.Is(err, graphseq.ErrDecode) {
//	    var de *graphseq.DecodeError
//	    if errors.As(err, &de) {
//	        log.Printf("bad snapshot %s: %s", de.Path, de.Reason)
//	    }
//	}
package graphseq
