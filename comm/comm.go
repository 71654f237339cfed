// Package comm provides the message-passing layer between simulation
// workers: an in-process channel mesh for single-machine runs and a TCP
// mesh for clusters. Both expose the same tagged point-to-point
// operations; collectives are built on top of them.
package comm

import "fmt"

// Message tags. The two halo exchanges use distinct tags so the in-flight
// exchanges of one timestep can never be mismatched.
const (
	TagHaloDown = iota // first owned row, sent to the previous ring neighbour
	TagHaloUp          // last owned row, sent to the next ring neighbour
	TagGather          // partition block, sent to the aggregator
	TagReduce          // per-worker partial sums
)

// Comm is one worker's endpoint in the communicator. A tag or length
// mismatch on receive means the workers have desynchronised; that is
// fatal and surfaces as an error, never a retry.
type Comm interface {
	Rank() int
	Size() int

	// Send transmits data to another worker. The data slice may be
	// reused by the caller as soon as Send returns.
	Send(to, tag int, data []float32) error

	// Recv blocks until a message from the given worker arrives and
	// copies it into buf, which must match the sent length exactly.
	Recv(from, tag int, buf []float32) error

	// Sendrecv performs a combined send and receive so that two workers
	// exchanging with each other cannot deadlock through mutual wait.
	Sendrecv(to, from, tag int, send, recv []float32) error

	Close() error
}

// ReduceSum sums vals element-wise across all workers. Every worker must
// call it for any to proceed. The root receives the global sums; every
// other worker gets its own partial back.
func ReduceSum(c Comm, root int, vals []float32) ([]float32, error) {
	if c.Size() == 1 {
		return vals, nil
	}
	if c.Rank() != root {
		return vals, c.Send(root, TagReduce, vals)
	}

	sums := make([]float32, len(vals))
	copy(sums, vals)
	buf := make([]float32, len(vals))
	// Receive in rank order so the summation is deterministic.
	for rank := 0; rank != c.Size(); rank++ {
		if rank == root {
			continue
		}
		if err := c.Recv(rank, TagReduce, buf); err != nil {
			return nil, fmt.Errorf("reduce from %d: %w", rank, err)
		}
		for i := range sums {
			sums[i] += buf[i]
		}
	}
	return sums, nil
}
