package sim

import (
	"fmt"

	"github.com/Briggybros/Uni-Advanced-HPC/comm"
	"github.com/Briggybros/Uni-Advanced-HPC/lbm"
)

// Aggregator is the rank that collects the reduced average velocities and
// the gathered final grid.
const Aggregator = 0

// Config describes one run of the simulation.
type Config struct {
	Params    lbm.Params
	Obstacles *lbm.Mask

	// FrameEvery asks for an intermediate gather every so many steps so
	// a monitor on the aggregator can observe the whole grid. Zero
	// disables it. All workers of a run must agree on the value.
	FrameEvery int
}

// Monitor observes gathered intermediate states on the aggregator.
type Monitor interface {
	Frame(turn int, cells *lbm.Grid, obstacles *lbm.Mask)
}

// Result is what one worker's run produced. Only the aggregator's grid
// covers every partition, and only its AvVels hold the global reduction;
// other workers keep their own partial averages as a debug fallback.
type Result struct {
	Cells  *lbm.Grid
	AvVels []float32
}

// Run executes the timestep loop on one worker. Every worker allocates
// the full grid but only rows [start-1, start+count] (mod ny) are
// meaningful locally: the partition itself plus the two halo rows
// refreshed from the ring neighbours each step. Halo rows are read
// replicas and never authoritative here.
func Run(cfg Config, c comm.Comm, mon Monitor) (*Result, error) {
	p := cfg.Params
	if c.Size() > p.Ny {
		return nil, fmt.Errorf("%d workers for %d rows: empty partitions are not supported", c.Size(), p.Ny)
	}
	start, count := PartitionRows(p.Ny, c.Size(), c.Rank())

	cells := lbm.InitialGrid(p)
	scratch := lbm.NewGrid(p.Nx, p.Ny)
	avVels := make([]float32, p.MaxIters)

	for tt := 0; tt != p.MaxIters; tt++ {
		// Forcing happens on the worker owning row ny-2 only; everyone
		// else passes straight to the exchange.
		if start <= p.Ny-2 && p.Ny-2 < start+count {
			lbm.AccelerateFlow(p, cells, cfg.Obstacles)
		}

		if err := exchangeHalo(c, cells, start, count); err != nil {
			return nil, fmt.Errorf("timestep %d: %w", tt, err)
		}

		// Streaming must finish for every owned row before anything
		// writes the main grid back: rebound and collision read only the
		// scratch grid, so every streaming read sees the same pre-step
		// snapshot the halo rows were taken from, whatever the worker
		// count.
		for y := start; y != start+count; y++ {
			for x := 0; x != p.Nx; x++ {
				lbm.Propagate(x, y, cells, scratch)
			}
		}
		for y := start; y != start+count; y++ {
			for x := 0; x != p.Nx; x++ {
				lbm.Rebound(x, y, cells, scratch, cfg.Obstacles)
				lbm.Collide(x, y, p, cells, scratch, cfg.Obstacles)
			}
		}

		totU, totCells := lbm.VelocityTotals(cells, cfg.Obstacles, start, count)
		sums, err := comm.ReduceSum(c, Aggregator, []float32{totU, float32(totCells)})
		if err != nil {
			return nil, fmt.Errorf("timestep %d: %w", tt, err)
		}
		avVels[tt] = sums[0] / sums[1]

		if cfg.FrameEvery > 0 && (tt+1)%cfg.FrameEvery == 0 {
			if err := gatherGrid(c, cells, p); err != nil {
				return nil, fmt.Errorf("timestep %d: %w", tt, err)
			}
			if mon != nil && c.Rank() == Aggregator {
				mon.Frame(tt+1, cells, cfg.Obstacles)
			}
		}
	}

	if err := gatherGrid(c, cells, p); err != nil {
		return nil, err
	}
	return &Result{Cells: cells, AvVels: avVels}, nil
}

// exchangeHalo refreshes the two halo rows. Each worker sends its first
// owned row to the previous ring neighbour while receiving the next
// neighbour's first row into the halo just above its partition, then
// sends its last owned row to the next neighbour while receiving the
// previous neighbour's last row into the halo just below. The two
// exchanges carry distinct tags so they cannot be mismatched.
func exchangeHalo(c comm.Comm, cells *lbm.Grid, start, count int) error {
	size := c.Size()
	if size == 1 {
		// A single worker's periodic lookups are locally self-sufficient.
		return nil
	}
	rank := c.Rank()
	prev := (rank + size - 1) % size
	next := (rank + 1) % size
	h := cells.Height

	sendBuf := make([]float32, cells.RowFloats())
	recvBuf := make([]float32, cells.RowFloats())

	cells.PackRow(start, sendBuf)
	if err := c.Sendrecv(prev, next, comm.TagHaloDown, sendBuf, recvBuf); err != nil {
		return err
	}
	cells.UnpackRow((start+count)%h, recvBuf)

	cells.PackRow(start+count-1, sendBuf)
	if err := c.Sendrecv(next, prev, comm.TagHaloUp, sendBuf, recvBuf); err != nil {
		return err
	}
	cells.UnpackRow((start+h-1)%h, recvBuf)

	return nil
}

// gatherGrid collects every worker's partition into the aggregator's
// grid. Other workers' grids are left untouched.
func gatherGrid(c comm.Comm, cells *lbm.Grid, p lbm.Params) error {
	if c.Size() == 1 {
		return nil
	}
	if c.Rank() != Aggregator {
		start, count := PartitionRows(p.Ny, c.Size(), c.Rank())
		return c.Send(Aggregator, comm.TagGather, cells.PackRows(start, count))
	}
	for rank := 0; rank != c.Size(); rank++ {
		if rank == Aggregator {
			continue
		}
		start, count := PartitionRows(p.Ny, c.Size(), rank)
		buf := make([]float32, count*cells.RowFloats())
		if err := c.Recv(rank, comm.TagGather, buf); err != nil {
			return fmt.Errorf("gather from %d: %w", rank, err)
		}
		cells.UnpackRows(start, count, buf)
	}
	return nil
}
