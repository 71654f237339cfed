package sim

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPartitionRowsCoversGridExactlyOnce(t *testing.T) {
	for rows := 1; rows <= 32; rows++ {
		for size := 1; size <= rows; size++ {
			covered := make([]int, rows)
			minCount, maxCount := rows, 0
			next := 0
			for rank := 0; rank != size; rank++ {
				start, count := PartitionRows(rows, size, rank)
				require.Equal(t, next, start,
					fmt.Sprintf("rows=%d size=%d rank=%d: partitions must be contiguous", rows, size, rank))
				next = start + count
				for j := start; j != start+count; j++ {
					covered[j]++
				}
				if count < minCount {
					minCount = count
				}
				if count > maxCount {
					maxCount = count
				}
			}
			for j, n := range covered {
				require.Equal(t, 1, n, fmt.Sprintf("rows=%d size=%d: row %d covered %d times", rows, size, j, n))
			}
			assert.LessOrEqual(t, maxCount-minCount, 1,
				fmt.Sprintf("rows=%d size=%d: unbalanced partitions", rows, size))
		}
	}
}

func TestPartitionRowsPanicsOnBadWorkerCount(t *testing.T) {
	assert.Panics(t, func() { PartitionRows(8, 0, 0) })
	assert.Panics(t, func() { PartitionRows(8, -1, 0) })
}
