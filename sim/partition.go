// Package sim runs the distributed timestep loop: each worker owns a
// contiguous range of grid rows, exchanges halo rows with its ring
// neighbours every step, and takes part in the per-step reduction and the
// final gather.
package sim

import "log"

// PartitionRows maps a worker onto its contiguous row range. Row j is
// assigned to worker j mod size; counting those assignments in increasing
// row order gives worker `rank` the range [start, start+count), with no
// two workers' counts differing by more than one.
func PartitionRows(rows, size, rank int) (start, count int) {
	if size <= 0 {
		log.Panicf("worker count must be positive, got %d", size)
	}
	for j := 0; j != rows; j++ {
		if j%size == rank {
			count++
		}
		if j%size < rank {
			start++
		}
	}
	return start, count
}
